// Package config provides configuration management for the ACGN assistant.
//
// Settings are read from a YAML file and then overridden by environment
// variables. Every attribute remembers where its value came from so that
// "acgnctl configuration show" can report it.
//
// # Configuration Sources
//
//   - Defaults compiled into the binary
//   - $ACGN_CONFIG_PATH/acgn.yml (default /etc/acgn/acgn.yml)
//   - Environment variables named after the attribute in upper case,
//     for example DATABASE_URL or JWT_SECRET
//
// # Key Configuration Options
//
//   - DATABASE_URL: postgres:// or sqlite:// connection URL
//   - JWT_SECRET: HS256 signing key for access tokens
//   - LLM_PROVIDER, DEEPSEEK_API_KEY, ANTHROPIC_API_KEY: reply generation
//   - SMTP_*: verification code delivery
//   - ADMIN_EMAIL, ADMIN_PASSWORD: bootstrap administrator
package config
