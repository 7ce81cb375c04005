package endpoints

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

type resourceEventRequest struct {
	ResourceID uuid.UUID `json:"resource_id" validate:"required"`
	EventType  string    `json:"event_type" validate:"required"`
}

// RegisterRecommendationsEndpoints registers recommendations and the
// feedback events that steer them
func RegisterRecommendationsEndpoints(s *server.Server) {
	rec := authed(s, "/recommendations")
	rec.HandleFunc("", handleRecommend(s)).Methods("GET")
	rec.HandleFunc("/events", handleResourceEvent(s)).Methods("POST")
}

func handleRecommend(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryInt(r, "limit", 5)
		if !ok {
			respondWithMessage(w, http.StatusUnprocessableEntity, "limit must be an integer")
			return
		}
		days, ok := queryInt(r, "days", 7)
		if !ok {
			respondWithMessage(w, http.StatusUnprocessableEntity, "days must be an integer")
			return
		}
		result, err := s.Recommender.Recommend(currentIdentity(r).UserID, limit, days)
		if err != nil {
			respondInternal(w, s.Logger, "failed to build recommendations", err)
			return
		}
		respondWithJSON(w, http.StatusOK, result)
	}
}

func handleResourceEvent(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resourceEventRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		eventType, err := model.EventTypeString(strings.ToLower(strings.TrimSpace(req.EventType)))
		if err != nil {
			respondWithMessage(w, http.StatusBadRequest, "不支持的 event_type")
			return
		}

		res, err := s.ResourcesStore.GetResource(req.ResourceID)
		if err != nil && !errors.Is(err, store.ErrResourceNotFound) {
			respondInternal(w, s.Logger, "failed to load resource", err)
			return
		}
		if err != nil || !res.IsActive {
			respondWithMessage(w, http.StatusNotFound, "资源不存在")
			return
		}

		event := &model.ResourceEvent{
			UserID:     currentIdentity(r).UserID,
			ResourceID: res.ID,
			EventType:  eventType,
		}
		if err := s.ResourcesStore.RecordEvent(event); err != nil {
			respondInternal(w, s.Logger, "failed to record event", err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
