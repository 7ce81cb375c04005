package endpoints

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/acgn-assistant/acgn-assistant/pkg/audit"
	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator/hash"
	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/middleware"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

type adminCreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type adminUpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=64"`
	IsActive *bool   `json:"is_active"`
	IsAdmin  *bool   `json:"is_admin"`
}

// RegisterAdminEndpoints registers user management, the conversation viewer
// and the audit log
func RegisterAdminEndpoints(s *server.Server) {
	admin := authed(s, "/admin")
	admin.Use(middleware.RequireAdmin)

	admin.HandleFunc("/users", handleAdminListUsers(s)).Methods("GET")
	admin.HandleFunc("/users", handleAdminCreateUser(s)).Methods("POST")
	admin.HandleFunc("/users/{id}", handleAdminGetUser(s)).Methods("GET")
	admin.HandleFunc("/users/{id}", handleAdminUpdateUser(s)).Methods("PUT")
	admin.Handle("/users/{id}", middleware.RequireSuperAdmin(handleAdminDeleteUser(s))).Methods("DELETE")

	admin.HandleFunc("/conversations", handleAdminListConversations(s)).Methods("GET")
	admin.HandleFunc("/conversations/{id}", handleAdminGetConversation(s)).Methods("GET")
	admin.HandleFunc("/conversations/{id}/messages", handleAdminListMessages(s)).Methods("GET")

	admin.Handle("/audit-logs", middleware.RequireSuperAdmin(handleAdminAuditLogs(s))).Methods("GET")
}

// adminEvent fills in the actor and request details of an audit event
func adminEvent(r *http.Request, action string, target *model.User, details map[string]interface{}) audit.AdminEvent {
	actor := currentIdentity(r)
	return audit.AdminEvent{
		Action:       action,
		ActorUserID:  actor.UserID,
		ActorEmail:   actor.Email,
		TargetUserID: target.ID,
		TargetEmail:  target.Email,
		ClientIP:     clientIP(r),
		UserAgent:    r.UserAgent(),
		Details:      details,
	}
}

// targetUser loads the {id} user, answering 404 when it doesn't exist
func targetUser(w http.ResponseWriter, r *http.Request, s *server.Server) (*model.User, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithMessage(w, http.StatusNotFound, "用户不存在")
		return nil, false
	}
	user, err := s.UsersStore.GetUser(id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			respondWithMessage(w, http.StatusNotFound, "用户不存在")
			return nil, false
		}
		respondInternal(w, s.Logger, "failed to load user", err)
		return nil, false
	}
	return user, true
}

func handleAdminListUsers(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := s.UsersStore.ListUsers()
		if err != nil {
			respondInternal(w, s.Logger, "failed to list users", err)
			return
		}
		respondWithJSON(w, http.StatusOK, users)
	}
}

func handleAdminGetUser(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := targetUser(w, r, s)
		if !ok {
			return
		}
		respondWithJSON(w, http.StatusOK, user)
	}
}

func handleAdminCreateUser(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adminCreateUserRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		email := normalizeEmail(req.Email)
		exists, err := s.UsersStore.EmailExists(email)
		if err != nil {
			respondInternal(w, s.Logger, "failed to check email", err)
			return
		}
		if exists {
			respondWithMessage(w, http.StatusConflict, "邮箱已注册")
			return
		}

		hashed, err := hash.Password(req.Password)
		if err != nil {
			respondInternal(w, s.Logger, "failed to hash password", err)
			return
		}
		user := &model.User{
			Email:          email,
			Username:       strings.TrimSpace(req.Username),
			HashedPassword: hashed,
			IsActive:       true,
		}
		profile := &model.UserProfile{Preferences: datatypes.JSON("{}")}
		if err := s.UsersStore.CreateUser(user, profile); err != nil {
			if errors.Is(err, store.ErrEmailTaken) {
				respondWithMessage(w, http.StatusConflict, "邮箱已注册")
				return
			}
			respondInternal(w, s.Logger, "failed to create user", err)
			return
		}

		s.Auditor.Log(adminEvent(r, audit.ActionUserCreate, user, map[string]interface{}{
			"email":    user.Email,
			"username": user.Username,
		}))
		respondWithJSON(w, http.StatusOK, user)
	}
}

func handleAdminUpdateUser(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adminUpdateUserRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		user, ok := targetUser(w, r, s)
		if !ok {
			return
		}
		actor := currentIdentity(r)
		bootstrap := s.Config.IsBootstrapAdminEmail(user.Email)
		self := user.ID == actor.UserID

		before := map[string]interface{}{
			"username":  user.Username,
			"is_active": user.IsActive,
			"is_admin":  user.IsAdmin,
		}

		if req.Username != nil {
			if name := strings.TrimSpace(*req.Username); name != "" {
				user.Username = name
			}
		}

		if req.IsActive != nil {
			if !*req.IsActive && bootstrap {
				respondWithMessage(w, http.StatusBadRequest, "不能禁用最高管理员")
				return
			}
			if !*req.IsActive && self {
				respondWithMessage(w, http.StatusBadRequest, "不能禁用自己")
				return
			}
			user.IsActive = *req.IsActive
		}

		if req.IsAdmin != nil {
			if !actor.IsSuperAdmin {
				respondWithMessage(w, http.StatusForbidden, "需要最高管理员权限")
				return
			}
			if !*req.IsAdmin && bootstrap {
				respondWithMessage(w, http.StatusBadRequest, "不能取消最高管理员权限")
				return
			}
			if !*req.IsAdmin && self {
				respondWithMessage(w, http.StatusBadRequest, "不能取消自己的管理员权限")
				return
			}
			if !*req.IsAdmin && user.IsAdmin {
				n, err := s.UsersStore.CountActiveAdmins()
				if err != nil {
					respondInternal(w, s.Logger, "failed to count admins", err)
					return
				}
				if n <= 1 {
					respondWithMessage(w, http.StatusBadRequest, "至少需要保留 1 个可用管理员")
					return
				}
			}
			user.IsAdmin = *req.IsAdmin
		}

		after := map[string]interface{}{
			"username":  user.Username,
			"is_active": user.IsActive,
			"is_admin":  user.IsAdmin,
		}
		changes := map[string]interface{}{}
		for _, k := range []string{"username", "is_active", "is_admin"} {
			if before[k] != after[k] {
				changes[k] = map[string]interface{}{"from": before[k], "to": after[k]}
			}
		}

		if err := s.UsersStore.UpdateUser(user); err != nil {
			respondInternal(w, s.Logger, "failed to update user", err)
			return
		}

		if len(changes) > 0 {
			action := audit.ActionUserUpdate
			if _, ok := changes["is_admin"]; ok {
				action = audit.ActionUserDemote
				if user.IsAdmin {
					action = audit.ActionUserPromote
				}
			} else if _, ok := changes["is_active"]; ok {
				action = audit.ActionUserEnable
				if !user.IsActive {
					action = audit.ActionUserDisable
				}
			}
			s.Auditor.Log(adminEvent(r, action, user, map[string]interface{}{"changes": changes}))
		}
		respondWithJSON(w, http.StatusOK, user)
	}
}

func handleAdminDeleteUser(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := targetUser(w, r, s)
		if !ok {
			return
		}
		if s.Config.IsBootstrapAdminEmail(user.Email) {
			respondWithMessage(w, http.StatusBadRequest, "不能删除最高管理员")
			return
		}
		if user.ID == currentIdentity(r).UserID {
			respondWithMessage(w, http.StatusBadRequest, "不能删除自己")
			return
		}
		if err := s.UsersStore.DeleteUser(user.ID); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				respondWithMessage(w, http.StatusNotFound, "用户不存在")
				return
			}
			respondInternal(w, s.Logger, "failed to delete user", err)
			return
		}
		s.Auditor.Log(adminEvent(r, audit.ActionUserDelete, user, map[string]interface{}{
			"email":    user.Email,
			"username": user.Username,
		}))
		w.WriteHeader(http.StatusNoContent)
	}
}

// queryUUID reads an optional uuid query parameter. A malformed value is
// reported as not ok.
func queryUUID(r *http.Request, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

func handleAdminListConversations(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := queryUUID(r, "user_id")
		if !ok {
			respondWithMessage(w, http.StatusUnprocessableEntity, "user_id must be a UUID")
			return
		}
		limit, ok := queryInt(r, "limit", 100)
		if !ok {
			respondWithMessage(w, http.StatusUnprocessableEntity, "limit must be an integer")
			return
		}
		offset, ok := queryInt(r, "offset", 0)
		if !ok {
			respondWithMessage(w, http.StatusUnprocessableEntity, "offset must be an integer")
			return
		}

		convs, err := s.ConversationsStore.ListAll(store.ConversationFilter{
			UserID:         userID,
			IncludeDeleted: queryBool(r, "include_deleted"),
			Limit:          clamp(limit, 1, 500),
			Offset:         clamp(offset, 0, 10000),
		})
		if err != nil {
			respondInternal(w, s.Logger, "failed to list conversations", err)
			return
		}
		respondWithJSON(w, http.StatusOK, convs)
	}
}

func handleAdminGetConversation(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithMessage(w, http.StatusNotFound, "会话不存在")
			return
		}
		conv, err := s.ConversationsStore.GetWithOwner(id, queryBool(r, "include_deleted"))
		if err != nil {
			if errors.Is(err, store.ErrConversationNotFound) {
				respondWithMessage(w, http.StatusNotFound, "会话不存在")
				return
			}
			respondInternal(w, s.Logger, "failed to load conversation", err)
			return
		}
		respondWithJSON(w, http.StatusOK, conv)
	}
}

func handleAdminListMessages(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithMessage(w, http.StatusNotFound, "会话不存在")
			return
		}
		if _, err := s.ConversationsStore.GetConversation(id); err != nil {
			if errors.Is(err, store.ErrConversationNotFound) {
				respondWithMessage(w, http.StatusNotFound, "会话不存在")
				return
			}
			respondInternal(w, s.Logger, "failed to load conversation", err)
			return
		}
		msgs, err := s.ConversationsStore.ListMessages(id, queryBool(r, "include_deleted"))
		if err != nil {
			respondInternal(w, s.Logger, "failed to list messages", err)
			return
		}
		respondWithJSON(w, http.StatusOK, msgs)
	}
}

func handleAdminAuditLogs(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryInt(r, "limit", 50)
		if !ok {
			respondWithMessage(w, http.StatusUnprocessableEntity, "limit must be an integer")
			return
		}
		offset, ok := queryInt(r, "offset", 0)
		if !ok {
			respondWithMessage(w, http.StatusUnprocessableEntity, "offset must be an integer")
			return
		}
		actor, ok := queryUUID(r, "actor_user_id")
		if !ok {
			respondWithMessage(w, http.StatusUnprocessableEntity, "actor_user_id must be a UUID")
			return
		}
		target, ok := queryUUID(r, "target_user_id")
		if !ok {
			respondWithMessage(w, http.StatusUnprocessableEntity, "target_user_id must be a UUID")
			return
		}

		logs, err := s.AuditLogsStore.ListAuditLogs(store.AuditLogFilter{
			Action:       strings.TrimSpace(r.URL.Query().Get("action")),
			ActorUserID:  actor,
			TargetUserID: target,
			Limit:        clamp(limit, 1, 200),
			Offset:       clamp(offset, 0, 10000),
		})
		if err != nil {
			respondInternal(w, s.Logger, "failed to list audit logs", err)
			return
		}
		respondWithJSON(w, http.StatusOK, logs)
	}
}
