package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(body), 0o600))
	t.Setenv("ACGN_CONFIG_PATH", dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ACGN_CONFIG_PATH", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 120, cfg.AccessTokenExpireMinutes)
	assert.Equal(t, []string{"qq.com"}, cfg.AllowedEmailDomains)
	assert.True(t, cfg.EmailDebugReturnCode)
	assert.Equal(t, "default", cfg.Source("jwt_secret"))
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	writeConfigFile(t, `
env: test
access_token_expire_minutes: 30
smtp_use_tls: false
allowed_email_domains:
  - qq.com
  - example.com
rate_limit_rps: 2.5
`)
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "45")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "file", cfg.Source("env"))

	assert.Equal(t, 45, cfg.AccessTokenExpireMinutes)
	assert.Equal(t, "environment", cfg.Source("access_token_expire_minutes"))

	// explicit false in the file must win over the true default
	assert.False(t, cfg.SMTPUseTLS)
	assert.Equal(t, "file", cfg.Source("smtp_use_tls"))

	assert.Equal(t, []string{"qq.com", "example.com"}, cfg.AllowedEmailDomains)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
}

func TestLoad_InvalidEnvironmentValue(t *testing.T) {
	t.Setenv("ACGN_CONFIG_PATH", t.TempDir())
	t.Setenv("SMTP_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP_PORT")
}

func TestLoad_InvalidFile(t *testing.T) {
	writeConfigFile(t, "env: [unterminated")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "dev accepts default secret",
			mutate: func(c *Config) {},
		},
		{
			name:    "prod rejects default secret",
			mutate:  func(c *Config) { c.Env = "prod" },
			wantErr: "JWT_SECRET",
		},
		{
			name: "prod accepts custom secret",
			mutate: func(c *Config) {
				c.Env = "prod"
				c.JWTSecret = "s3cret"
			},
		},
		{
			name:    "smtp required without debug codes",
			mutate:  func(c *Config) { c.EmailDebugReturnCode = false },
			wantErr: "SMTP_HOST, SMTP_USERNAME, SMTP_PASSWORD",
		},
		{
			name: "tls and ssl are exclusive",
			mutate: func(c *Config) {
				c.SMTPUseTLS = true
				c.SMTPUseSSL = true
			},
			wantErr: "SMTP_USE_TLS",
		},
		{
			name:    "unknown llm provider",
			mutate:  func(c *Config) { c.LLMProvider = "parrot" },
			wantErr: "invalid llm_provider",
		},
		{
			name:    "unknown web search provider",
			mutate:  func(c *Config) { c.WebSearchProvider = "altavista" },
			wantErr: "invalid web_search_provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEmailDomainAllowed(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.EmailDomainAllowed("someone@qq.com"))
	assert.True(t, cfg.EmailDomainAllowed("someone@QQ.COM"))
	assert.False(t, cfg.EmailDomainAllowed("someone@example.com"))
	assert.False(t, cfg.EmailDomainAllowed("no-at-sign"))

	cfg.AllowedEmailDomains = nil
	assert.True(t, cfg.EmailDomainAllowed("someone@example.com"))
}

func TestEmailDomainHint(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "仅支持 QQ 邮箱（@qq.com）", cfg.EmailDomainHint())

	cfg.AllowedEmailDomains = []string{"qq.com", "@Foxmail.com"}
	assert.Equal(t, "仅支持以下邮箱：@qq.com、@foxmail.com", cfg.EmailDomainHint())
}

func TestSuperAdminEmail(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.IsSuperAdminEmail("anyone@qq.com"))
	assert.False(t, cfg.IsBootstrapAdminEmail("anyone@qq.com"))

	cfg.AdminEmail = "Root@QQ.com"
	assert.True(t, cfg.IsSuperAdminEmail("root@qq.com"))
	assert.False(t, cfg.IsSuperAdminEmail("other@qq.com"))
	assert.True(t, cfg.IsBootstrapAdminEmail(" root@qq.com "))
}

func TestAttributes_MasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.DeepSeekAPIKey = "sk-live"

	var found bool
	for _, a := range cfg.Attributes() {
		if a.Name == "deepseek_api_key" {
			found = true
			assert.Equal(t, "********", a.Value)
		}
		if a.Name == "jwt_secret" {
			assert.NotEqual(t, DefaultJWTSecret, a.Value)
		}
	}
	assert.True(t, found)
}

func TestFormatText(t *testing.T) {
	cfg := Default()
	out := cfg.FormatText()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "smtp_host")
	assert.Contains(t, out, "(not set)")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Greater(t, len(lines), len(attributes))
}

func TestFormatJSON(t *testing.T) {
	out, err := Default().FormatJSON()
	require.NoError(t, err)
	assert.Contains(t, out, `"config_file"`)
	assert.Contains(t, out, `"name": "database_url"`)
}
