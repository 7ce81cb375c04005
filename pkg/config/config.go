package config

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/acgn"
	ConfigFileName    = "acgn.yml"

	// DefaultJWTSecret is the placeholder secret that is only accepted in dev and test
	DefaultJWTSecret = "change-me-in-prod"
)

// ValidLLMProviders is the list of supported text generation backends
var ValidLLMProviders = []string{"deepseek", "anthropic"}

// ValidWebSearchProviders is the list of supported web search backends
var ValidWebSearchProviders = []string{"serper"}

// Config holds all ACGN assistant settings
type Config struct {
	Env      string `yaml:"env" json:"env"`
	AppName  string `yaml:"app_name" json:"app_name"`
	LogLevel string `yaml:"log_level" json:"log_level"`

	DatabaseURL string `yaml:"database_url" json:"database_url"`

	JWTSecret                string `yaml:"jwt_secret" json:"-"`
	AccessTokenExpireMinutes int    `yaml:"access_token_expire_minutes" json:"access_token_expire_minutes"`

	// LLMProvider selects the client used for replies; it is only active when
	// the matching API key is set.
	LLMProvider            string `yaml:"llm_provider" json:"llm_provider"`
	DeepSeekAPIKey         string `yaml:"deepseek_api_key" json:"-"`
	DeepSeekBaseURL        string `yaml:"deepseek_base_url" json:"deepseek_base_url"`
	DeepSeekModel          string `yaml:"deepseek_model" json:"deepseek_model"`
	DeepSeekDeepThinkModel string `yaml:"deepseek_deep_think_model" json:"deepseek_deep_think_model"`
	AnthropicAPIKey        string `yaml:"anthropic_api_key" json:"-"`
	AnthropicModel         string `yaml:"anthropic_model" json:"anthropic_model"`

	WebSearchProvider       string `yaml:"web_search_provider" json:"web_search_provider"`
	WebSearchAPIKey         string `yaml:"web_search_api_key" json:"-"`
	WebSearchTimeoutSeconds int    `yaml:"web_search_timeout_seconds" json:"web_search_timeout_seconds"`

	// AdminEmail identifies the bootstrap (super) admin
	AdminEmail    string `yaml:"admin_email" json:"admin_email"`
	AdminPassword string `yaml:"admin_password" json:"-"`
	AdminUsername string `yaml:"admin_username" json:"admin_username"`

	SMTPHost           string `yaml:"smtp_host" json:"smtp_host"`
	SMTPPort           int    `yaml:"smtp_port" json:"smtp_port"`
	SMTPUsername       string `yaml:"smtp_username" json:"smtp_username"`
	SMTPPassword       string `yaml:"smtp_password" json:"-"`
	SMTPFrom           string `yaml:"smtp_from" json:"smtp_from"`
	SMTPUseTLS         bool   `yaml:"smtp_use_tls" json:"smtp_use_tls"`
	SMTPUseSSL         bool   `yaml:"smtp_use_ssl" json:"smtp_use_ssl"`
	SMTPTimeoutSeconds int    `yaml:"smtp_timeout_seconds" json:"smtp_timeout_seconds"`

	PasswordResetCodeMinutes   int `yaml:"password_reset_code_minutes" json:"password_reset_code_minutes"`
	PasswordResetResendSeconds int `yaml:"password_reset_resend_seconds" json:"password_reset_resend_seconds"`
	RegisterCodeMinutes        int `yaml:"register_code_minutes" json:"register_code_minutes"`
	RegisterResendSeconds      int `yaml:"register_resend_seconds" json:"register_resend_seconds"`

	// EmailDebugReturnCode returns verification codes in API responses outside prod
	EmailDebugReturnCode bool     `yaml:"email_debug_return_code" json:"email_debug_return_code"`
	AllowedEmailDomains  []string `yaml:"allowed_email_domains" json:"allowed_email_domains"`

	RateLimitRPS   float64  `yaml:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" json:"rate_limit_burst"`
	CORSOrigins    []string `yaml:"cors_origins" json:"cors_origins"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = Default()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// Set replaces the global configuration
func Set(cfg *Config) {
	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
}

// Default returns a config with default values and every source set to "default"
func Default() *Config {
	c := &Config{
		Env:                        "dev",
		AppName:                    "ACGN咨询助手-API",
		LogLevel:                   "info",
		DatabaseURL:                "sqlite://app.db",
		JWTSecret:                  DefaultJWTSecret,
		AccessTokenExpireMinutes:   120,
		LLMProvider:                "deepseek",
		DeepSeekBaseURL:            "https://api.deepseek.com",
		DeepSeekModel:              "deepseek-chat",
		DeepSeekDeepThinkModel:     "deepseek-reasoner",
		AnthropicModel:             "claude-3-5-haiku-latest",
		WebSearchTimeoutSeconds:    12,
		AdminUsername:              "admin",
		SMTPPort:                   587,
		SMTPFrom:                   "ACGN咨询助手 <no-reply@localhost>",
		SMTPUseTLS:                 true,
		SMTPTimeoutSeconds:         15,
		PasswordResetCodeMinutes:   10,
		PasswordResetResendSeconds: 60,
		RegisterCodeMinutes:        10,
		RegisterResendSeconds:      60,
		EmailDebugReturnCode:       true,
		AllowedEmailDomains:        []string{"qq.com"},
		RateLimitRPS:               5,
		RateLimitBurst:             10,
		CORSOrigins: []string{
			"null",
			"http://127.0.0.1:5500",
			"http://localhost:5500",
			"http://127.0.0.1:8000",
			"http://localhost:8000",
		},
		sources: make(map[string]string),
	}
	for _, a := range attributes {
		c.sources[a.name] = "default"
	}
	return c
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	config := Default()

	configPath := os.Getenv("ACGN_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		if err := config.applyFileConfig(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
	}

	if err := config.applyEnvConfig(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyFileConfig sets every attribute present in the YAML document. Keys that
// are present with an explicit false or zero value still count as set.
func (c *Config) applyFileConfig(data []byte) error {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, a := range attributes {
		v, ok := raw[a.name]
		if !ok || v == nil {
			continue
		}
		if err := a.set(c, fileValueString(v)); err != nil {
			return fmt.Errorf("%s: %w", a.name, err)
		}
		c.sources[a.name] = "file"
	}
	return nil
}

func (c *Config) applyEnvConfig() error {
	for _, a := range attributes {
		val, ok := os.LookupEnv(a.envName())
		if !ok || val == "" {
			continue
		}
		if err := a.set(c, val); err != nil {
			return fmt.Errorf("invalid %s: %w", a.envName(), err)
		}
		c.sources[a.name] = "environment"
	}
	return nil
}

func fileValueString(v interface{}) string {
	if list, ok := v.([]interface{}); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// IsProd reports whether the service runs in production
func (c *Config) IsProd() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "prod")
}

// IsDev reports whether the service runs in local development
func (c *Config) IsDev() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "dev")
}

// AccessTokenTTL returns the access token lifetime as a duration
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// SMTPConfigured reports whether enough SMTP settings are present to send mail
func (c *Config) SMTPConfigured() bool {
	return strings.TrimSpace(c.SMTPHost) != "" && c.SMTPPort != 0 && strings.TrimSpace(c.SMTPFrom) != ""
}

// DebugCodesEnabled reports whether verification codes may be returned in
// responses instead of being mailed.
func (c *Config) DebugCodesEnabled() bool {
	return c.EmailDebugReturnCode && !c.IsProd()
}

// LLMAPIKey returns the API key of the selected LLM provider
func (c *Config) LLMAPIKey() string {
	if strings.EqualFold(c.LLMProvider, "anthropic") {
		return strings.TrimSpace(c.AnthropicAPIKey)
	}
	return strings.TrimSpace(c.DeepSeekAPIKey)
}

// LLMConfigured reports whether the selected LLM provider has an API key
func (c *Config) LLMConfigured() bool {
	return c.LLMAPIKey() != ""
}

// LLMModel returns the standard model name of the selected provider
func (c *Config) LLMModel() string {
	if strings.EqualFold(c.LLMProvider, "anthropic") {
		return c.AnthropicModel
	}
	return c.DeepSeekModel
}

// WebSearchConfigured reports whether web search has both a provider and a key
func (c *Config) WebSearchConfigured() bool {
	return strings.TrimSpace(c.WebSearchProvider) != "" && strings.TrimSpace(c.WebSearchAPIKey) != ""
}

// WebSearchTimeout returns the web search request timeout
func (c *Config) WebSearchTimeout() time.Duration {
	return time.Duration(c.WebSearchTimeoutSeconds) * time.Second
}

// EmailDomainAllowed checks the domain part of an already normalised email.
// An empty allow list accepts every domain.
func (c *Config) EmailDomainAllowed(email string) bool {
	if len(c.AllowedEmailDomains) == 0 {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, d := range c.AllowedEmailDomains {
		if strings.ToLower(strings.TrimPrefix(d, "@")) == domain {
			return true
		}
	}
	return false
}

// EmailDomainHint describes the allowed domains for error messages
func (c *Config) EmailDomainHint() string {
	domains := make([]string, 0, len(c.AllowedEmailDomains))
	for _, d := range c.AllowedEmailDomains {
		if d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "@")); d != "" {
			domains = append(domains, d)
		}
	}
	if len(domains) == 1 && domains[0] == "qq.com" {
		return "仅支持 QQ 邮箱（@qq.com）"
	}
	for i, d := range domains {
		domains[i] = "@" + d
	}
	return "仅支持以下邮箱：" + strings.Join(domains, "、")
}

// IsSuperAdminEmail reports whether an admin with the given email is the
// super admin. Without admin_email every admin is a super admin.
func (c *Config) IsSuperAdminEmail(email string) bool {
	adminEmail := strings.ToLower(strings.TrimSpace(c.AdminEmail))
	if adminEmail == "" {
		return true
	}
	return strings.ToLower(strings.TrimSpace(email)) == adminEmail
}

// IsBootstrapAdminEmail reports whether email belongs to the configured admin
func (c *Config) IsBootstrapAdminEmail(email string) bool {
	adminEmail := strings.ToLower(strings.TrimSpace(c.AdminEmail))
	return adminEmail != "" && strings.ToLower(strings.TrimSpace(email)) == adminEmail
}

// Validate validates the configuration
func (c *Config) Validate() error {
	env := strings.ToLower(strings.TrimSpace(c.Env))
	if env != "dev" && env != "test" {
		if strings.TrimSpace(c.JWTSecret) == "" || strings.TrimSpace(c.JWTSecret) == DefaultJWTSecret {
			return fmt.Errorf("JWT_SECRET is unset or still the default value")
		}
	}

	if !c.EmailDebugReturnCode {
		var missing []string
		if strings.TrimSpace(c.SMTPHost) == "" {
			missing = append(missing, "SMTP_HOST")
		}
		if c.SMTPPort == 0 {
			missing = append(missing, "SMTP_PORT")
		}
		if strings.TrimSpace(c.SMTPUsername) == "" {
			missing = append(missing, "SMTP_USERNAME")
		}
		if strings.TrimSpace(c.SMTPPassword) == "" {
			missing = append(missing, "SMTP_PASSWORD")
		}
		if strings.TrimSpace(c.SMTPFrom) == "" {
			missing = append(missing, "SMTP_FROM")
		}
		if len(missing) > 0 {
			return fmt.Errorf("SMTP must be configured when EMAIL_DEBUG_RETURN_CODE=false: missing %s", strings.Join(missing, ", "))
		}
	}

	if c.SMTPUseTLS && c.SMTPUseSSL {
		return fmt.Errorf("SMTP_USE_TLS and SMTP_USE_SSL cannot both be true")
	}

	if !contains(ValidLLMProviders, strings.ToLower(c.LLMProvider)) {
		return fmt.Errorf("invalid llm_provider: %s", c.LLMProvider)
	}

	if p := strings.TrimSpace(c.WebSearchProvider); p != "" && !contains(ValidWebSearchProviders, strings.ToLower(p)) {
		return fmt.Errorf("invalid web_search_provider: %s", p)
	}

	if c.AdminEmail != "" {
		if _, err := mail.ParseAddress(c.AdminEmail); err != nil {
			return fmt.Errorf("invalid admin_email: %s", c.AdminEmail)
		}
	}

	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit settings must not be negative")
	}

	return nil
}

// Attributes returns all configuration attributes with their values and
// sources. Secret values are masked.
func (c *Config) Attributes() []Attribute {
	result := make([]Attribute, 0, len(attributes))
	for _, a := range attributes {
		value := a.get(c)
		if a.secret && value != "" {
			value = "********"
		}
		result = append(result, Attribute{Name: a.name, Value: value, Source: c.Source(a.name)})
	}
	return result
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", v)
}

func mustInt(v string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(v))
}
