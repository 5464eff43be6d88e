package config

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
//
// The assistant API key is deliberately not required: a server without
// one still serves the catalog and contact form, and chat requests
// answer not_configured.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Server.MaxBodySize <= 0 {
		add("server.max_body_size must be > 0")
	}

	if c.Assistant.CandidateTimeout <= 0 {
		add("assistant.candidate_timeout must be > 0")
	}
	if c.Assistant.Template != "" && strings.Count(c.Assistant.Template, "%s") != 2 {
		add("assistant.template must contain exactly two %%s verbs")
	}
	for i, m := range c.Assistant.Models {
		if strings.TrimSpace(m) == "" {
			add("assistant.models[%d] is empty", i)
		}
	}

	switch c.Contact.Driver {
	case "emailjs":
		ej := c.Contact.EmailJS
		if ej.ServiceID == "" || ej.OperatorTemplateID == "" || ej.SenderTemplateID == "" || ej.PublicKey == "" {
			add("contact.emailjs service_id, operator_template_id, sender_template_id and public_key are required when contact.driver is \"emailjs\"")
		}
	case "log":
	default:
		add("contact.driver must be \"emailjs\" or \"log\", got %q", c.Contact.Driver)
	}
	if c.Contact.OperatorEmail == "" {
		add("contact.operator_email is required")
	} else if _, err := mail.ParseAddress(c.Contact.OperatorEmail); err != nil {
		add("contact.operator_email: %v", err)
	}
	if _, err := time.LoadLocation(c.Contact.TimeZone); err != nil {
		add("contact.time_zone: %v", err)
	}
	if c.Contact.SendTimeout <= 0 {
		add("contact.send_timeout must be > 0")
	}

	switch c.Storage.Type {
	case "memory", "none":
	case "postgres":
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			add("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\"")
		}
	default:
		add("storage.type must be \"memory\", \"postgres\" or \"none\", got %q", c.Storage.Type)
	}

	switch c.Auth.Type {
	case "none":
	case "apikey":
		if len(c.Auth.APIKeys) == 0 {
			add("auth.api_keys must not be empty when auth.type is \"apikey\"")
		}
		for i, k := range c.Auth.APIKeys {
			if k.Key == "" && k.KeyFile == "" {
				add("auth.api_keys[%d]: key or key_file is required", i)
			}
			if k.Subject == "" {
				add("auth.api_keys[%d].subject is required", i)
			}
		}
	case "jwt":
		if c.Auth.JWT.Secret == "" && c.Auth.JWT.SecretFile == "" && c.Auth.JWT.JWKSURL == "" {
			add("auth.jwt.secret, auth.jwt.secret_file or auth.jwt.jwks_url is required when auth.type is \"jwt\"")
		}
	default:
		add("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type)
	}
	if c.Auth.RateLimit.RequestsPerMinute < 0 {
		add("auth.rate_limit.requests_per_minute must be >= 0")
	}

	if c.MCP.Enabled && !strings.HasPrefix(c.MCP.Path, "/") {
		add("mcp.path must start with \"/\", got %q", c.MCP.Path)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		add("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}

	return errors.Join(errs...)
}
