package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/datatypes"

	"github.com/acgn-assistant/acgn-assistant/pkg/server"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

type updateMeRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=64"`
}

type updateProfileRequest struct {
	DisplayName *string                `json:"display_name" validate:"omitempty,max=64"`
	Preferences map[string]interface{} `json:"preferences"`
}

// RegisterUsersEndpoints registers the current user's account and profile
func RegisterUsersEndpoints(s *server.Server) {
	users := authed(s, "/users")
	users.HandleFunc("/me", handleGetMe(s)).Methods("GET")
	users.HandleFunc("/me", handleUpdateMe(s)).Methods("PUT")

	profile := authed(s, "/profile")
	profile.HandleFunc("", handleGetProfile(s)).Methods("GET")
	profile.HandleFunc("", handleUpdateProfile(s)).Methods("PUT")
}

func handleGetMe(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.UsersStore.GetUser(currentIdentity(r).UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				respondWithMessage(w, http.StatusNotFound, "用户不存在")
				return
			}
			respondInternal(w, s.Logger, "failed to load user", err)
			return
		}
		respondWithJSON(w, http.StatusOK, user)
	}
}

func handleUpdateMe(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateMeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		user, err := s.UsersStore.GetUser(currentIdentity(r).UserID)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				respondWithMessage(w, http.StatusNotFound, "用户不存在")
				return
			}
			respondInternal(w, s.Logger, "failed to load user", err)
			return
		}

		if req.Username != nil {
			if name := strings.TrimSpace(*req.Username); name != "" {
				user.Username = name
			}
		}
		if err := s.UsersStore.UpdateUser(user); err != nil {
			respondInternal(w, s.Logger, "failed to update user", err)
			return
		}
		respondWithJSON(w, http.StatusOK, user)
	}
}

func handleGetProfile(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := s.ProfilesStore.GetOrCreateProfile(currentIdentity(r).UserID)
		if err != nil {
			respondInternal(w, s.Logger, "failed to load profile", err)
			return
		}
		respondWithJSON(w, http.StatusOK, profile)
	}
}

func handleUpdateProfile(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateProfileRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		profile, err := s.ProfilesStore.GetOrCreateProfile(currentIdentity(r).UserID)
		if err != nil {
			respondInternal(w, s.Logger, "failed to load profile", err)
			return
		}

		if req.DisplayName != nil {
			name := *req.DisplayName
			profile.DisplayName = &name
		}
		if req.Preferences != nil {
			raw, err := json.Marshal(req.Preferences)
			if err != nil {
				respondWithMessage(w, http.StatusUnprocessableEntity, "preferences must be an object")
				return
			}
			profile.Preferences = datatypes.JSON(raw)
		}
		if err := s.ProfilesStore.SaveProfile(profile); err != nil {
			respondInternal(w, s.Logger, "failed to save profile", err)
			return
		}
		respondWithJSON(w, http.StatusOK, profile)
	}
}
