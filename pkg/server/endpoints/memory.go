package endpoints

import (
	"errors"
	"net/http"
	"strings"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

type createMemoryRequest struct {
	Kind       string   `json:"kind" validate:"max=32"`
	Title      string   `json:"title" validate:"required,max=200"`
	Content    string   `json:"content" validate:"required,max=4000"`
	Confidence *float64 `json:"confidence" validate:"omitempty,min=0,max=1"`
}

type updateMemoryRequest struct {
	Kind       *string  `json:"kind" validate:"omitempty,max=32"`
	Title      *string  `json:"title" validate:"omitempty,max=200"`
	Content    *string  `json:"content" validate:"omitempty,max=4000"`
	Confidence *float64 `json:"confidence" validate:"omitempty,min=0,max=1"`
}

// RegisterMemoryEndpoints registers the user's long-term memory
func RegisterMemoryEndpoints(s *server.Server) {
	mem := authed(s, "/memory")
	mem.HandleFunc("", handleListMemory(s)).Methods("GET")
	mem.HandleFunc("", handleCreateMemory(s)).Methods("POST")
	mem.HandleFunc("/{id}", handleUpdateMemory(s)).Methods("PUT")
	mem.HandleFunc("/{id}", handleDeleteMemory(s)).Methods("DELETE")
}

func handleListMemory(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryInt(r, "limit", 50)
		if !ok {
			respondWithMessage(w, http.StatusUnprocessableEntity, "limit must be an integer")
			return
		}
		kind := strings.TrimSpace(r.URL.Query().Get("kind"))
		items, err := s.MemoryStore.ListMemory(currentIdentity(r).UserID, kind, clamp(limit, 1, 200))
		if err != nil {
			respondInternal(w, s.Logger, "failed to list memory", err)
			return
		}
		respondWithJSON(w, http.StatusOK, items)
	}
}

func handleCreateMemory(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createMemoryRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		kind := strings.TrimSpace(req.Kind)
		if kind == "" {
			kind = model.MemoryKindFact
		}
		item := &model.MemoryItem{
			UserID:     currentIdentity(r).UserID,
			Kind:       kind,
			Title:      req.Title,
			Content:    req.Content,
			Confidence: req.Confidence,
		}
		if err := s.MemoryStore.CreateMemory(item); err != nil {
			respondInternal(w, s.Logger, "failed to create memory", err)
			return
		}
		respondWithJSON(w, http.StatusOK, item)
	}
}

func handleUpdateMemory(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateMemoryRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		id, ok := pathID(r, "id")
		if !ok {
			respondWithMessage(w, http.StatusNotFound, "记忆不存在")
			return
		}
		item, err := s.MemoryStore.GetMemory(currentIdentity(r).UserID, id)
		if err != nil {
			if errors.Is(err, store.ErrMemoryNotFound) {
				respondWithMessage(w, http.StatusNotFound, "记忆不存在")
				return
			}
			respondInternal(w, s.Logger, "failed to load memory", err)
			return
		}

		if req.Kind != nil {
			if kind := strings.TrimSpace(*req.Kind); kind != "" {
				item.Kind = kind
			}
		}
		if req.Title != nil {
			item.Title = *req.Title
		}
		if req.Content != nil {
			item.Content = *req.Content
		}
		if req.Confidence != nil {
			item.Confidence = req.Confidence
		}
		if err := s.MemoryStore.SaveMemory(item); err != nil {
			respondInternal(w, s.Logger, "failed to save memory", err)
			return
		}
		respondWithJSON(w, http.StatusOK, item)
	}
}

func handleDeleteMemory(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithMessage(w, http.StatusNotFound, "记忆不存在")
			return
		}
		if err := s.MemoryStore.DeleteMemory(currentIdentity(r).UserID, id); err != nil {
			if errors.Is(err, store.ErrMemoryNotFound) {
				respondWithMessage(w, http.StatusNotFound, "记忆不存在")
				return
			}
			respondInternal(w, s.Logger, "failed to delete memory", err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}
