// Package audit provides audit logging for security relevant operations.
//
// Events are written as RFC5424 syslog lines by Logger. Admin actions are
// additionally stored in the admin_audit_logs table so super admins can
// query them through the API.
//
// # Event Types
//
//   - AdminEvent: user management by an administrator (persisted)
//   - AuthenticateEvent: login attempts
//   - PasswordResetEvent: password resets through an emailed code
//
// # Usage
//
//	auditor := audit.New(audit.NewLogger(), audit.NewStore(db), logger)
//	auditor.Log(audit.AdminEvent{Action: audit.ActionUserCreate, ...})
//
// Auditing is on by default and can be turned off with
// ACGN_AUDIT_ENABLED=false.
package audit
