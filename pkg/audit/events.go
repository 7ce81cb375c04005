package audit

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
)

// Admin actions recorded in the audit log
const (
	ActionUserCreate   = "admin_user.create"
	ActionUserUpdate   = "admin_user.update"
	ActionUserPromote  = "admin_user.promote_admin"
	ActionUserDemote   = "admin_user.demote_admin"
	ActionUserDisable  = "admin_user.disable"
	ActionUserEnable   = "admin_user.enable"
	ActionUserDelete   = "admin_user.delete"
	ActionAdminEnsured = "admin_user.bootstrap"
)

// AdminEvent is an administrator acting on a user account
type AdminEvent struct {
	Action       string
	ActorUserID  uuid.UUID
	ActorEmail   string
	TargetUserID uuid.UUID
	TargetEmail  string
	ClientIP     string
	UserAgent    string
	Details      map[string]interface{}
}

func (e AdminEvent) MessageID() string {
	return "admin"
}

func (e AdminEvent) Message() string {
	actor := e.ActorEmail
	if actor == "" {
		actor = "system"
	}
	return fmt.Sprintf("%s performed %s on %s", actor, e.Action, e.TargetEmail)
}

func (e AdminEvent) Severity() Severity {
	return SeverityNotice
}

func (e AdminEvent) Facility() int {
	return FacilityAuth
}

func (e AdminEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.ActorEmail,
		},
		SDIDSubject: {
			"user": e.TargetEmail,
		},
		SDIDAction: {
			"operation": e.Action,
			"result":    "success",
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
	}
}

// AuditLog converts the event into its admin_audit_logs row
func (e AdminEvent) AuditLog() *model.AdminAuditLog {
	entry := &model.AdminAuditLog{
		Action:      e.Action,
		ActorEmail:  optional(e.ActorEmail),
		TargetEmail: optional(e.TargetEmail),
		IP:          optional(e.ClientIP),
		UserAgent:   optional(e.UserAgent),
	}
	if e.ActorUserID != uuid.Nil {
		id := e.ActorUserID
		entry.ActorUserID = &id
	}
	if e.TargetUserID != uuid.Nil {
		id := e.TargetUserID
		entry.TargetUserID = &id
	}
	if len(e.Details) > 0 {
		if raw, err := json.Marshal(e.Details); err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}
	return entry
}

// AuthenticateEvent is a login attempt
type AuthenticateEvent struct {
	Login             string
	ClientIP          string
	AuthenticatorName string
	Success           bool
	ErrorMessage      string
}

func (e AuthenticateEvent) MessageID() string {
	return "authn"
}

func (e AuthenticateEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated with authenticator %s", e.Login, e.AuthenticatorName)
	}
	msg := fmt.Sprintf("%s failed to authenticate with authenticator %s", e.Login, e.AuthenticatorName)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AuthenticateEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e AuthenticateEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AuthenticateEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"authenticator": e.AuthenticatorName,
			"user":          e.Login,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
	}
}

// PasswordResetEvent is a password reset through an emailed code
type PasswordResetEvent struct {
	Email        string
	ClientIP     string
	Success      bool
	ErrorMessage string
}

func (e PasswordResetEvent) MessageID() string {
	return "password"
}

func (e PasswordResetEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully reset their password", e.Email)
	}
	msg := fmt.Sprintf("%s failed to reset their password", e.Email)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e PasswordResetEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e PasswordResetEvent) Facility() int {
	return FacilityAuthPriv
}

func (e PasswordResetEvent) StructuredData() map[string]map[string]string {
	result := "success"
	if !e.Success {
		result = "failure"
	}
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Email,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "reset-password",
			"result":    result,
		},
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
