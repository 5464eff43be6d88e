package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "PRINTOLOGY_"

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, PRINTOLOGY_CONFIG env, ./config.yaml, /etc/printology/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg, os.Getenv); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. PRINTOLOGY_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/printology/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv(EnvPrefix + "CONFIG"); envPath != "" {
		return envPath
	}
	for _, path := range []string{"config.yaml", "/etc/printology/config.yaml"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadYAMLFile parses a YAML file over cfg. Fields not present in the
// YAML keep their current values; unknown keys are errors so typos do not
// silently fall back to defaults.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnvOverrides maps PRINTOLOGY_* variables onto cfg. Malformed
// values are reported together.
func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	e := envReader{getenv: getenv}

	e.int("PORT", &cfg.Server.Port)

	e.str("AI_BASE_URL", &cfg.Assistant.BaseURL)
	e.str("AI_API_KEY", &cfg.Assistant.APIKey)
	e.str("AI_KEY_PREFIX", &cfg.Assistant.KeyPrefix)
	e.list("AI_MODELS", &cfg.Assistant.Models)
	e.str("AI_PROMPT_FILE", &cfg.Assistant.PromptFile)
	e.duration("AI_CANDIDATE_TIMEOUT", &cfg.Assistant.CandidateTimeout)

	e.str("CONTACT_DRIVER", &cfg.Contact.Driver)
	e.str("OPERATOR_EMAIL", &cfg.Contact.OperatorEmail)
	e.bool("MASK_DELIVERY_FAILURES", &cfg.Contact.MaskDeliveryFailures)
	e.str("EMAILJS_SERVICE_ID", &cfg.Contact.EmailJS.ServiceID)
	e.str("EMAILJS_OPERATOR_TEMPLATE_ID", &cfg.Contact.EmailJS.OperatorTemplateID)
	e.str("EMAILJS_SENDER_TEMPLATE_ID", &cfg.Contact.EmailJS.SenderTemplateID)
	e.str("EMAILJS_PUBLIC_KEY", &cfg.Contact.EmailJS.PublicKey)
	e.str("EMAILJS_ACCESS_TOKEN", &cfg.Contact.EmailJS.AccessToken)

	e.str("CATALOG", &cfg.Catalog.Path)

	e.str("STORAGE", &cfg.Storage.Type)
	e.int("STORAGE_SIZE", &cfg.Storage.MaxSize)
	e.str("POSTGRES_DSN", &cfg.Storage.Postgres.DSN)

	e.str("AUTH_TYPE", &cfg.Auth.Type)
	e.bool("AUTH_ALLOW_ANONYMOUS", &cfg.Auth.AllowAnonymous)
	e.str("JWT_SECRET", &cfg.Auth.JWT.Secret)
	e.str("JWT_JWKS_URL", &cfg.Auth.JWT.JWKSURL)
	e.int("RATE_LIMIT_RPM", &cfg.Auth.RateLimit.RequestsPerMinute)
	if v := getenv(EnvPrefix + "API_KEYS"); v != "" {
		var keys []APIKeyConfig
		if err := json.Unmarshal([]byte(v), &keys); err != nil {
			e.errs = append(e.errs, fmt.Errorf("%sAPI_KEYS: %w", EnvPrefix, err))
		} else {
			cfg.Auth.APIKeys = keys
		}
	}

	e.bool("MCP_ENABLED", &cfg.MCP.Enabled)

	e.str("LOG_LEVEL", &cfg.Logging.Level)
	e.str("LOG_FORMAT", &cfg.Logging.Format)
	e.str("DEBUG", &cfg.Logging.Debug)

	return errors.Join(e.errs...)
}

// envReader applies one variable at a time and collects parse errors.
type envReader struct {
	getenv func(string) string
	errs   []error
}

func (e *envReader) lookup(name string) (string, bool) {
	v := e.getenv(EnvPrefix + name)
	return v, v != ""
}

func (e *envReader) fail(name string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.lookup(name); ok {
		*dst = v
	}
}

func (e *envReader) int(name string, dst *int) {
	if v, ok := e.lookup(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(name, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) bool(name string, dst *bool) {
	if v, ok := e.lookup(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(name, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(name string, dst *time.Duration) {
	if v, ok := e.lookup(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(name, err)
			return
		}
		*dst = d
	}
}

// list splits a comma-separated value, dropping blanks.
func (e *envReader) list(name string, dst *[]string) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	refs := []struct {
		name string
		file string
		dst  *string
	}{
		{"assistant.api_key_file", cfg.Assistant.APIKeyFile, &cfg.Assistant.APIKey},
		{"contact.emailjs.access_token_file", cfg.Contact.EmailJS.AccessTokenFile, &cfg.Contact.EmailJS.AccessToken},
		{"storage.postgres.dsn_file", cfg.Storage.Postgres.DSNFile, &cfg.Storage.Postgres.DSN},
		{"auth.jwt.secret_file", cfg.Auth.JWT.SecretFile, &cfg.Auth.JWT.Secret},
	}
	for i := range cfg.Auth.APIKeys {
		k := &cfg.Auth.APIKeys[i]
		refs = append(refs, struct {
			name string
			file string
			dst  *string
		}{fmt.Sprintf("auth.api_keys[%d].key_file", i), k.KeyFile, &k.Key})
	}

	for _, ref := range refs {
		if ref.file == "" || *ref.dst != "" {
			continue
		}
		val, err := readSecretFile(ref.file)
		if err != nil {
			return fmt.Errorf("%s: %w", ref.name, err)
		}
		*ref.dst = val
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
