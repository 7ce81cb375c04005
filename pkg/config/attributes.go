package config

import (
	"strconv"
	"strings"
)

// attribute binds a config key to its field. The environment variable is the
// upper-cased key.
type attribute struct {
	name   string
	secret bool
	get    func(c *Config) string
	set    func(c *Config, v string) error
}

func (a attribute) envName() string {
	return strings.ToUpper(a.name)
}

func stringAttr(name string, field func(c *Config) *string) attribute {
	return attribute{
		name: name,
		get:  func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			*field(c) = strings.TrimSpace(v)
			return nil
		},
	}
}

func secretAttr(name string, field func(c *Config) *string) attribute {
	a := stringAttr(name, field)
	a.secret = true
	return a
}

func intAttr(name string, field func(c *Config) *int) attribute {
	return attribute{
		name: name,
		get:  func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			i, err := mustInt(v)
			if err != nil {
				return err
			}
			*field(c) = i
			return nil
		},
	}
}

func floatAttr(name string, field func(c *Config) *float64) attribute {
	return attribute{
		name: name,
		get:  func(c *Config) string { return strconv.FormatFloat(*field(c), 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return err
			}
			*field(c) = f
			return nil
		},
	}
}

func boolAttr(name string, field func(c *Config) *bool) attribute {
	return attribute{
		name: name,
		get:  func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := parseBool(v)
			if err != nil {
				return err
			}
			*field(c) = b
			return nil
		},
	}
}

func listAttr(name string, field func(c *Config) *[]string) attribute {
	return attribute{
		name: name,
		get:  func(c *Config) string { return strings.Join(*field(c), ",") },
		set: func(c *Config, v string) error {
			*field(c) = splitAndTrim(v)
			return nil
		},
	}
}

var attributes = []attribute{
	stringAttr("env", func(c *Config) *string { return &c.Env }),
	stringAttr("app_name", func(c *Config) *string { return &c.AppName }),
	stringAttr("log_level", func(c *Config) *string { return &c.LogLevel }),
	stringAttr("database_url", func(c *Config) *string { return &c.DatabaseURL }),
	secretAttr("jwt_secret", func(c *Config) *string { return &c.JWTSecret }),
	intAttr("access_token_expire_minutes", func(c *Config) *int { return &c.AccessTokenExpireMinutes }),
	stringAttr("llm_provider", func(c *Config) *string { return &c.LLMProvider }),
	secretAttr("deepseek_api_key", func(c *Config) *string { return &c.DeepSeekAPIKey }),
	stringAttr("deepseek_base_url", func(c *Config) *string { return &c.DeepSeekBaseURL }),
	stringAttr("deepseek_model", func(c *Config) *string { return &c.DeepSeekModel }),
	stringAttr("deepseek_deep_think_model", func(c *Config) *string { return &c.DeepSeekDeepThinkModel }),
	secretAttr("anthropic_api_key", func(c *Config) *string { return &c.AnthropicAPIKey }),
	stringAttr("anthropic_model", func(c *Config) *string { return &c.AnthropicModel }),
	stringAttr("web_search_provider", func(c *Config) *string { return &c.WebSearchProvider }),
	secretAttr("web_search_api_key", func(c *Config) *string { return &c.WebSearchAPIKey }),
	intAttr("web_search_timeout_seconds", func(c *Config) *int { return &c.WebSearchTimeoutSeconds }),
	stringAttr("admin_email", func(c *Config) *string { return &c.AdminEmail }),
	secretAttr("admin_password", func(c *Config) *string { return &c.AdminPassword }),
	stringAttr("admin_username", func(c *Config) *string { return &c.AdminUsername }),
	stringAttr("smtp_host", func(c *Config) *string { return &c.SMTPHost }),
	intAttr("smtp_port", func(c *Config) *int { return &c.SMTPPort }),
	stringAttr("smtp_username", func(c *Config) *string { return &c.SMTPUsername }),
	secretAttr("smtp_password", func(c *Config) *string { return &c.SMTPPassword }),
	stringAttr("smtp_from", func(c *Config) *string { return &c.SMTPFrom }),
	boolAttr("smtp_use_tls", func(c *Config) *bool { return &c.SMTPUseTLS }),
	boolAttr("smtp_use_ssl", func(c *Config) *bool { return &c.SMTPUseSSL }),
	intAttr("smtp_timeout_seconds", func(c *Config) *int { return &c.SMTPTimeoutSeconds }),
	intAttr("password_reset_code_minutes", func(c *Config) *int { return &c.PasswordResetCodeMinutes }),
	intAttr("password_reset_resend_seconds", func(c *Config) *int { return &c.PasswordResetResendSeconds }),
	intAttr("register_code_minutes", func(c *Config) *int { return &c.RegisterCodeMinutes }),
	intAttr("register_resend_seconds", func(c *Config) *int { return &c.RegisterResendSeconds }),
	boolAttr("email_debug_return_code", func(c *Config) *bool { return &c.EmailDebugReturnCode }),
	listAttr("allowed_email_domains", func(c *Config) *[]string { return &c.AllowedEmailDomains }),
	floatAttr("rate_limit_rps", func(c *Config) *float64 { return &c.RateLimitRPS }),
	intAttr("rate_limit_burst", func(c *Config) *int { return &c.RateLimitBurst }),
	listAttr("cors_origins", func(c *Config) *[]string { return &c.CORSOrigins }),
}
