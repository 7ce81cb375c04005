// Package admin keeps the configured bootstrap administrator account in place.
package admin

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/acgn-assistant/acgn-assistant/pkg/audit"
	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator/hash"
	"github.com/acgn-assistant/acgn-assistant/pkg/config"
	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

// Outcome describes what EnsureAdmin did
type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"
	OutcomeCreated   Outcome = "created"
	OutcomeRestored  Outcome = "restored"
	OutcomeUnchanged Outcome = "unchanged"
)

// EnsureAdmin makes sure the admin_email account exists, is an admin and is
// active. Nothing happens unless both admin_email and admin_password are set.
// An existing account keeps its password.
func EnsureAdmin(users store.UsersStore, cfg *config.Config, auditor *audit.Auditor) (Outcome, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		return OutcomeSkipped, nil
	}

	existing, err := users.GetUserByEmail(email)
	switch {
	case err == nil:
		if existing.IsAdmin && existing.IsActive {
			return OutcomeUnchanged, nil
		}
		changes := map[string]interface{}{}
		if !existing.IsAdmin {
			changes["is_admin"] = map[string]bool{"from": false, "to": true}
			existing.IsAdmin = true
		}
		if !existing.IsActive {
			changes["is_active"] = map[string]bool{"from": false, "to": true}
			existing.IsActive = true
		}
		if err := users.UpdateUser(existing); err != nil {
			return "", fmt.Errorf("failed to restore admin %s: %w", email, err)
		}
		auditor.Log(audit.AdminEvent{
			Action:       audit.ActionAdminEnsured,
			TargetUserID: existing.ID,
			TargetEmail:  existing.Email,
			Details:      map[string]interface{}{"changes": changes},
		})
		return OutcomeRestored, nil
	case !errors.Is(err, store.ErrUserNotFound):
		return "", fmt.Errorf("failed to look up admin %s: %w", email, err)
	}

	hashed, err := hash.Password(cfg.AdminPassword)
	if err != nil {
		return "", err
	}
	username := strings.TrimSpace(cfg.AdminUsername)
	if username == "" {
		username = "admin"
	}
	user := &model.User{
		Email:          email,
		Username:       username,
		HashedPassword: hashed,
		IsAdmin:        true,
		IsActive:       true,
	}
	if err := users.CreateUser(user, &model.UserProfile{Preferences: datatypes.JSON("{}")}); err != nil {
		return "", fmt.Errorf("failed to create admin %s: %w", email, err)
	}
	auditor.Log(audit.AdminEvent{
		Action:       audit.ActionAdminEnsured,
		TargetUserID: user.ID,
		TargetEmail:  user.Email,
		Details:      map[string]interface{}{"email": user.Email, "username": user.Username},
	})
	return OutcomeCreated, nil
}
