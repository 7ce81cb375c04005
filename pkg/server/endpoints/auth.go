package endpoints

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/acgn-assistant/acgn-assistant/pkg/audit"
	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator"
	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator/guest"
	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator/hash"
	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator/password"
	"github.com/acgn-assistant/acgn-assistant/pkg/mailer"
	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
	"github.com/acgn-assistant/acgn-assistant/pkg/verification"
)

// TokenResponse is returned by every endpoint that logs the caller in
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// GuestTokenResponse describes the throwaway account created by /auth/guest
type GuestTokenResponse struct {
	TokenResponse
	Email    string `json:"email"`
	Username string `json:"username"`
	IsGuest  bool   `json:"is_guest"`
}

// CodeSentResponse acknowledges a verification code request
type CodeSentResponse struct {
	Detail    string `json:"detail"`
	DebugCode string `json:"debug_code,omitempty"`
}

type codeRequest struct {
	Email string `json:"email" validate:"required,min=3"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,min=3"`
	Code     string `json:"code" validate:"required,min=4,max=32"`
	Username string `json:"username" validate:"max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type passwordResetConfirmRequest struct {
	Email       string `json:"email" validate:"required,min=3"`
	Code        string `json:"code" validate:"required,min=4,max=32"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=128"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterAuthEndpoints registers registration, login and password reset.
// Every route shares the per-IP rate limiter.
func RegisterAuthEndpoints(s *server.Server) {
	auth := s.Router.PathPrefix("/auth").Subrouter()
	if s.AuthLimiter != nil {
		auth.Use(s.AuthLimiter.Middleware)
	}

	auth.HandleFunc("/register/request", handleRegisterRequest(s)).Methods("POST")
	auth.HandleFunc("/register/confirm", handleRegisterConfirm(s)).Methods("POST")
	auth.HandleFunc("/register", handleRegisterConfirm(s)).Methods("POST")
	auth.HandleFunc("/guest", handleGuest(s)).Methods("POST")
	auth.HandleFunc("/login", handleLogin(s)).Methods("POST")
	auth.HandleFunc("/password-reset/request", handlePasswordResetRequest(s)).Methods("POST")
	auth.HandleFunc("/password-reset/confirm", handlePasswordResetConfirm(s)).Methods("POST")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func bearer(raw string) TokenResponse {
	return TokenResponse{AccessToken: raw, TokenType: "bearer"}
}

// mailReady reports whether codes can reach the user, either by SMTP or by
// being returned in the response
func mailReady(s *server.Server) bool {
	return strings.TrimSpace(s.Config.SMTPHost) != "" || s.Config.DebugCodesEnabled()
}

func respondCooldown(w http.ResponseWriter, err *verification.CooldownError) {
	wait := err.RetryAfterSeconds()
	w.Header().Set("Retry-After", strconv.Itoa(wait))
	respondWithMessage(w, http.StatusTooManyRequests, fmt.Sprintf("请求过于频繁，请在 %ds 后再试", wait))
}

// respondCodeError maps a failed code check. noCode differs between flows.
func respondCodeError(w http.ResponseWriter, logger *zap.Logger, err error, noCode string) {
	switch {
	case errors.Is(err, verification.ErrNoCode):
		respondWithMessage(w, http.StatusBadRequest, noCode)
	case errors.Is(err, verification.ErrCodeExpired):
		respondWithMessage(w, http.StatusBadRequest, "验证码已过期")
	case errors.Is(err, verification.ErrCodeMismatch):
		respondWithMessage(w, http.StatusBadRequest, "验证码错误")
	default:
		respondInternal(w, logger, "failed to check verification code", err)
	}
}

// issueCode stores a new code, queues the email and writes the response
func issueCode(w http.ResponseWriter, s *server.Server, purpose model.Purpose, email string) {
	cfg := s.Config
	minutes, resend := cfg.RegisterCodeMinutes, cfg.RegisterResendSeconds
	build := mailer.RegisterCodeMessage
	if purpose == model.PurposePasswordReset {
		minutes, resend = cfg.PasswordResetCodeMinutes, cfg.PasswordResetResendSeconds
		build = mailer.PasswordResetMessage
	}

	code, err := s.Codes.Issue(purpose, email, time.Duration(minutes)*time.Minute, time.Duration(resend)*time.Second)
	if err != nil {
		var cooldown *verification.CooldownError
		if errors.As(err, &cooldown) {
			respondCooldown(w, cooldown)
			return
		}
		respondInternal(w, s.Logger, "failed to issue verification code", err)
		return
	}

	s.Mail.Enqueue(build(email, code, minutes))

	resp := CodeSentResponse{Detail: fmt.Sprintf("验证码已发送（有效期 %d 分钟）", minutes)}
	if cfg.DebugCodesEnabled() {
		resp.DebugCode = code
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func handleRegisterRequest(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !mailReady(s) {
			respondWithMessage(w, http.StatusInternalServerError, "SMTP 未配置")
			return
		}
		var req codeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		email := normalizeEmail(req.Email)
		if !s.Config.EmailDomainAllowed(email) {
			respondWithMessage(w, http.StatusUnprocessableEntity, s.Config.EmailDomainHint())
			return
		}

		exists, err := s.UsersStore.EmailExists(email)
		if err != nil {
			respondInternal(w, s.Logger, "failed to check email", err)
			return
		}
		if exists {
			respondWithMessage(w, http.StatusConflict, "邮箱已注册")
			return
		}

		issueCode(w, s, model.PurposeRegister, email)
	}
}

func handleRegisterConfirm(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		email := normalizeEmail(req.Email)
		if !s.Config.EmailDomainAllowed(email) {
			respondWithMessage(w, http.StatusUnprocessableEntity, s.Config.EmailDomainHint())
			return
		}

		record, err := s.Codes.Check(model.PurposeRegister, email, req.Code)
		if err != nil {
			respondCodeError(w, s.Logger, err, "请先获取验证码")
			return
		}

		exists, err := s.UsersStore.EmailExists(email)
		if err != nil {
			respondInternal(w, s.Logger, "failed to check email", err)
			return
		}
		if exists {
			respondWithMessage(w, http.StatusConflict, "邮箱已注册")
			return
		}

		username := strings.TrimSpace(req.Username)
		if username == "" {
			username, _, _ = strings.Cut(email, "@")
		}
		hashed, err := hash.Password(req.Password)
		if err != nil {
			respondInternal(w, s.Logger, "failed to hash password", err)
			return
		}

		user := &model.User{Email: email, Username: username, HashedPassword: hashed, IsActive: true}
		profile := &model.UserProfile{DisplayName: &username, Preferences: datatypes.JSON("{}")}
		if err := s.UsersStore.CreateUser(user, profile); err != nil {
			if errors.Is(err, store.ErrEmailTaken) {
				respondWithMessage(w, http.StatusConflict, "邮箱已注册")
				return
			}
			respondInternal(w, s.Logger, "failed to create user", err)
			return
		}
		if err := s.Codes.Consume(record); err != nil {
			s.Logger.Warn("failed to mark registration code used", zap.String("email", email), zap.Error(err))
		}

		raw, err := s.Tokens.Issue(user.ID.String(), false)
		if err != nil {
			respondInternal(w, s.Logger, "failed to issue token", err)
			return
		}
		respondWithJSON(w, http.StatusOK, bearer(raw))
	}
}

func handleGuest(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.Authenticators.Authenticate(r.Context(), guest.Name, authenticator.AuthenticatorInput{
			ClientIP: clientIP(r),
		})
		if err != nil {
			respondInternal(w, s.Logger, "failed to create guest user", err)
			return
		}

		raw, err := s.Tokens.Issue(user.ID.String(), true)
		if err != nil {
			respondInternal(w, s.Logger, "failed to issue token", err)
			return
		}
		respondWithJSON(w, http.StatusOK, GuestTokenResponse{
			TokenResponse: bearer(raw),
			Email:         user.Email,
			Username:      user.Username,
			IsGuest:       true,
		})
	}
}

// readLogin accepts the OAuth2 password form or an equivalent JSON body
func readLogin(w http.ResponseWriter, r *http.Request) (loginRequest, bool) {
	var req loginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if !decodeJSON(w, r, &req) {
			return req, false
		}
		if req.Username == "" {
			req.Username = req.Email
		}
		return req, true
	}

	if err := r.ParseForm(); err != nil {
		respondWithMessage(w, http.StatusUnprocessableEntity, "invalid form body")
		return req, false
	}
	req.Username = r.PostForm.Get("username")
	req.Password = r.PostForm.Get("password")
	return req, true
}

func handleLogin(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := readLogin(w, r)
		if !ok {
			return
		}
		if strings.TrimSpace(req.Username) == "" || req.Password == "" {
			respondWithMessage(w, http.StatusUnprocessableEntity, "username and password are required")
			return
		}

		ip := clientIP(r)
		user, err := s.Authenticators.Authenticate(r.Context(), password.Name, authenticator.AuthenticatorInput{
			Login:       req.Username,
			Credentials: []byte(req.Password),
			ClientIP:    ip,
		})
		event := audit.AuthenticateEvent{
			Login:             normalizeEmail(req.Username),
			ClientIP:          ip,
			AuthenticatorName: password.Name,
			Success:           err == nil,
		}
		if err != nil {
			event.ErrorMessage = err.Error()
		}
		s.Auditor.Log(event)

		switch {
		case err == nil:
		case errors.Is(err, authenticator.ErrInvalidCredentials):
			respondWithMessage(w, http.StatusUnauthorized, "账号或密码错误")
			return
		case errors.Is(err, authenticator.ErrAccountDisabled):
			respondWithMessage(w, http.StatusForbidden, "账号已禁用")
			return
		case errors.Is(err, authenticator.ErrDomainNotAllowed):
			respondWithMessage(w, http.StatusUnauthorized, s.Config.EmailDomainHint())
			return
		default:
			respondInternal(w, s.Logger, "login failed", err)
			return
		}

		raw, err := s.Tokens.Issue(user.ID.String(), false)
		if err != nil {
			respondInternal(w, s.Logger, "failed to issue token", err)
			return
		}
		respondWithJSON(w, http.StatusOK, bearer(raw))
	}
}

func handlePasswordResetRequest(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !mailReady(s) {
			respondWithMessage(w, http.StatusInternalServerError, "SMTP 未配置")
			return
		}
		var req codeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		email := normalizeEmail(req.Email)
		if !s.Config.EmailDomainAllowed(email) {
			respondWithMessage(w, http.StatusUnprocessableEntity, s.Config.EmailDomainHint())
			return
		}

		exists, err := s.UsersStore.EmailExists(email)
		if err != nil {
			respondInternal(w, s.Logger, "failed to check email", err)
			return
		}
		if !exists {
			// Unknown accounts get the same answer as known ones.
			respondWithJSON(w, http.StatusOK, CodeSentResponse{
				Detail: fmt.Sprintf("如果该邮箱已注册，验证码将发送到邮箱（有效期 %d 分钟）", s.Config.PasswordResetCodeMinutes),
			})
			return
		}

		issueCode(w, s, model.PurposePasswordReset, email)
	}
}

func handlePasswordResetConfirm(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req passwordResetConfirmRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		email := normalizeEmail(req.Email)
		if !s.Config.EmailDomainAllowed(email) {
			respondWithMessage(w, http.StatusUnprocessableEntity, s.Config.EmailDomainHint())
			return
		}

		user, err := s.UsersStore.GetUserByEmail(email)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				respondWithMessage(w, http.StatusNotFound, "账号不存在")
				return
			}
			respondInternal(w, s.Logger, "failed to load user", err)
			return
		}

		ip := clientIP(r)
		record, err := s.Codes.Check(model.PurposePasswordReset, email, req.Code)
		if err != nil {
			s.Auditor.Log(audit.PasswordResetEvent{Email: email, ClientIP: ip, ErrorMessage: err.Error()})
			respondCodeError(w, s.Logger, err, "验证码无效")
			return
		}

		hashed, err := hash.Password(req.NewPassword)
		if err != nil {
			respondInternal(w, s.Logger, "failed to hash password", err)
			return
		}
		user.HashedPassword = hashed
		if err := s.UsersStore.UpdateUser(user); err != nil {
			respondInternal(w, s.Logger, "failed to update password", err)
			return
		}
		if err := s.Codes.Consume(record); err != nil {
			s.Logger.Warn("failed to mark reset code used", zap.String("email", email), zap.Error(err))
		}
		s.Auditor.Log(audit.PasswordResetEvent{Email: email, ClientIP: ip, Success: true})

		respondWithJSON(w, http.StatusOK, map[string]string{"detail": "密码已重置"})
	}
}
