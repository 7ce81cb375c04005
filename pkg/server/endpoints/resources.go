package endpoints

import (
	"errors"
	"net/http"
	"strings"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/middleware"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

type createResourceRequest struct {
	ResourceType string   `json:"resource_type" validate:"required,max=32"`
	Title        string   `json:"title" validate:"required,max=200"`
	URL          *string  `json:"url" validate:"omitempty,max=2000"`
	Content      *string  `json:"content"`
	IsActive     *bool    `json:"is_active"`
	TagNames     []string `json:"tag_names" validate:"omitempty,dive,max=64"`
}

type updateResourceRequest struct {
	ResourceType *string  `json:"resource_type" validate:"omitempty,max=32"`
	Title        *string  `json:"title" validate:"omitempty,max=200"`
	URL          *string  `json:"url" validate:"omitempty,max=2000"`
	Content      *string  `json:"content"`
	IsActive     *bool    `json:"is_active"`
	TagNames     []string `json:"tag_names" validate:"omitempty,dive,max=64"`
}

// RegisterResourcesEndpoints registers the resource library. Any user can
// browse it, only admins can change it.
func RegisterResourcesEndpoints(s *server.Server) {
	res := authed(s, "/resources")
	res.HandleFunc("", handleListResources(s)).Methods("GET")
	res.Handle("", middleware.RequireAdmin(handleCreateResource(s))).Methods("POST")
	res.Handle("/{id}", middleware.RequireAdmin(handleUpdateResource(s))).Methods("PUT")
	res.Handle("/{id}", middleware.RequireAdmin(handleDeleteResource(s))).Methods("DELETE")
}

// cleanTags trims tag names and drops empty and repeated ones
func cleanTags(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func handleListResources(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tag := strings.TrimSpace(r.URL.Query().Get("tag"))
		items, err := s.ResourcesStore.ListResources(tag)
		if err != nil {
			respondInternal(w, s.Logger, "failed to list resources", err)
			return
		}
		respondWithJSON(w, http.StatusOK, items)
	}
}

func handleCreateResource(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createResourceRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res := &model.Resource{
			ResourceType: strings.TrimSpace(req.ResourceType),
			Title:        strings.TrimSpace(req.Title),
			URL:          req.URL,
			Content:      req.Content,
			IsActive:     req.IsActive == nil || *req.IsActive,
		}
		if err := s.ResourcesStore.CreateResource(res, cleanTags(req.TagNames)); err != nil {
			respondInternal(w, s.Logger, "failed to create resource", err)
			return
		}
		respondWithJSON(w, http.StatusOK, res)
	}
}

func handleUpdateResource(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateResourceRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		id, ok := pathID(r, "id")
		if !ok {
			respondWithMessage(w, http.StatusNotFound, "资源不存在")
			return
		}
		res, err := s.ResourcesStore.GetResource(id)
		if err != nil {
			if errors.Is(err, store.ErrResourceNotFound) {
				respondWithMessage(w, http.StatusNotFound, "资源不存在")
				return
			}
			respondInternal(w, s.Logger, "failed to load resource", err)
			return
		}

		if req.ResourceType != nil {
			res.ResourceType = strings.TrimSpace(*req.ResourceType)
		}
		if req.Title != nil {
			res.Title = strings.TrimSpace(*req.Title)
		}
		if req.URL != nil {
			res.URL = req.URL
		}
		if req.Content != nil {
			res.Content = req.Content
		}
		if req.IsActive != nil {
			res.IsActive = *req.IsActive
		}
		var tags []string
		if req.TagNames != nil {
			tags = cleanTags(req.TagNames)
		}
		if err := s.ResourcesStore.UpdateResource(res, tags); err != nil {
			respondInternal(w, s.Logger, "failed to update resource", err)
			return
		}
		respondWithJSON(w, http.StatusOK, res)
	}
}

func handleDeleteResource(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithMessage(w, http.StatusNotFound, "资源不存在")
			return
		}
		if err := s.ResourcesStore.DeleteResource(id); err != nil {
			if errors.Is(err, store.ErrResourceNotFound) {
				respondWithMessage(w, http.StatusNotFound, "资源不存在")
				return
			}
			respondInternal(w, s.Logger, "failed to delete resource", err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}
