// Package config provides unified configuration for the storefront server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (PRINTOLOGY_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the storefront server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Assistant AssistantConfig `yaml:"assistant"`
	Contact   ContactConfig   `yaml:"contact"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	MCP       MCPConfig       `yaml:"mcp"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port              int           `yaml:"port"`                // default: 8080
	MaxBodySize       int64         `yaml:"max_body_size"`       // default: 1 MiB
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"` // default: 10s
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`    // default: 30s
}

// AssistantConfig holds the generative AI chat settings.
type AssistantConfig struct {
	BaseURL    string `yaml:"base_url"`    // default: Google generative language API
	APIVersion string `yaml:"api_version"` // default: "v1beta"
	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"` // _file variant for api_key
	KeyPrefix  string `yaml:"key_prefix"`   // default: "AIza"

	// Models is the fallback order, highest priority first.
	Models []string `yaml:"models"`

	PromptFile string `yaml:"prompt_file"` // empty: built-in shop prompt
	Template   string `yaml:"template"`    // two %s verbs: prompt, query

	Temperature     float64 `yaml:"temperature"`       // default: 0.7
	MaxOutputTokens int     `yaml:"max_output_tokens"` // default: 150
	TopP            float64 `yaml:"top_p"`             // default: 0.85
	TopK            int     `yaml:"top_k"`             // default: 20

	CandidateTimeout time.Duration `yaml:"candidate_timeout"` // default: 20s

	Greeting string `yaml:"greeting"` // empty: built-in greeting
	Apology  string `yaml:"apology"`  // empty: built-in apology
}

// ContactConfig holds contact-form delivery settings.
type ContactConfig struct {
	// Driver selects the mail relay: "emailjs" or "log". Default: "emailjs".
	Driver string `yaml:"driver"`

	EmailJS EmailJSConfig `yaml:"emailjs"`

	OperatorEmail string `yaml:"operator_email"`
	BusinessEmail string `yaml:"business_email"`
	BusinessPhone string `yaml:"business_phone"`
	TeamName      string `yaml:"team_name"`
	TimeZone      string `yaml:"time_zone"` // default: "Asia/Jakarta"

	// MaskDeliveryFailures hides relay failures from callers. Default: true.
	MaskDeliveryFailures bool `yaml:"mask_delivery_failures"`

	SendTimeout time.Duration `yaml:"send_timeout"` // default: 15s
}

// EmailJSConfig holds the EmailJS relay account.
type EmailJSConfig struct {
	Endpoint           string `yaml:"endpoint"`
	ServiceID          string `yaml:"service_id"`
	OperatorTemplateID string `yaml:"operator_template_id"`
	SenderTemplateID   string `yaml:"sender_template_id"`
	PublicKey          string `yaml:"public_key"`
	AccessToken        string `yaml:"access_token"`
	AccessTokenFile    string `yaml:"access_token_file"` // _file variant for access_token
}

// CatalogConfig points at an operator-maintained catalog document.
type CatalogConfig struct {
	Path string `yaml:"path"` // empty: built-in catalog
}

// StorageConfig holds transcript and submission persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"`     // "memory", "postgres" or "none", default: "memory"
	MaxSize  int            `yaml:"max_size"` // per collection for memory store, default: 10000
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: true
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type string `yaml:"type"` // "none", "apikey" or "jwt", default: "none"

	// AllowAnonymous lets callers without credentials chat and send the
	// contact form. Operator endpoints always need credentials. Default: true.
	AllowAnonymous bool `yaml:"allow_anonymous"`

	APIKeys   []APIKeyConfig  `yaml:"api_keys"` // for type=apikey
	JWT       JWTConfig       `yaml:"jwt"`      // for type=jwt
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key         string   `yaml:"key" json:"key"`
	KeyFile     string   `yaml:"key_file" json:"key_file"` // _file variant for key
	Subject     string   `yaml:"subject" json:"subject"`
	TenantID    string   `yaml:"tenant_id" json:"tenant_id"`
	ServiceTier string   `yaml:"service_tier" json:"service_tier"`
	Scopes      []string `yaml:"scopes" json:"scopes"`
}

// JWTConfig holds JWT verification settings.
type JWTConfig struct {
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret
	JWKSURL    string `yaml:"jwks_url"`
	Issuer     string `yaml:"issuer"`
	Audience   string `yaml:"audience"`
}

// RateLimitConfig caps requests per caller and minute. Zero disables.
type RateLimitConfig struct {
	RequestsPerMinute int            `yaml:"requests_per_minute"` // default: 30
	Tiers             map[string]int `yaml:"tiers"`
}

// MCPConfig controls the Model Context Protocol endpoint.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // default: "/mcp"
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // ERROR, WARN, INFO, DEBUG, TRACE; default: INFO
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma-separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:              8080,
			MaxBodySize:       1 << 20,
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Assistant: AssistantConfig{
			KeyPrefix:        "AIza",
			Temperature:      0.7,
			MaxOutputTokens:  150,
			TopP:             0.85,
			TopK:             20,
			CandidateTimeout: 20 * time.Second,
		},
		Contact: ContactConfig{
			Driver:               "emailjs",
			BusinessPhone:        "+62 822-6009-8942",
			TeamName:             "Printology Team",
			TimeZone:             "Asia/Jakarta",
			MaskDeliveryFailures: true,
			SendTimeout:          15 * time.Second,
		},
		Storage: StorageConfig{
			Type:    "memory",
			MaxSize: 10000,
			Postgres: PostgresConfig{
				MaxConns:       10,
				MigrateOnStart: true,
			},
		},
		Auth: AuthConfig{
			Type:           "none",
			AllowAnonymous: true,
			RateLimit:      RateLimitConfig{RequestsPerMinute: 30},
		},
		MCP: MCPConfig{
			Path: "/mcp",
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}
