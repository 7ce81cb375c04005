package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acgn-assistant/acgn-assistant/pkg/guardrails"
	"github.com/acgn-assistant/acgn-assistant/pkg/memory"
	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
	"github.com/acgn-assistant/acgn-assistant/pkg/websearch"
)

const (
	webSearchLimit = 5

	// streamWriteTimeout replaces the server's write deadline once a reply
	// starts streaming.
	streamWriteTimeout = 5 * time.Minute
)

type conversationRequest struct {
	Title *string `json:"title" validate:"omitempty,max=200"`
}

type messageRequest struct {
	Content        string  `json:"content" validate:"required,max=8000"`
	DeepThink      bool    `json:"deep_think"`
	WebSearch      bool    `json:"web_search"`
	WebSearchQuery *string `json:"web_search_query" validate:"omitempty,max=200"`
}

// WebSearchMeta reports what web search contributed to a streamed reply
type WebSearchMeta struct {
	Enabled    bool   `json:"enabled"`
	Configured bool   `json:"configured"`
	Results    int    `json:"results"`
	Provider   string `json:"provider"`
}

// StreamMeta is the first event of a streamed reply
type StreamMeta struct {
	ConversationID uuid.UUID     `json:"conversation_id"`
	UserMessageID  uuid.UUID     `json:"user_message_id"`
	DeepThink      bool          `json:"deep_think"`
	Model          string        `json:"model"`
	WebSearch      WebSearchMeta `json:"web_search"`
}

// StreamDone is the last event of a successful streamed reply
type StreamDone struct {
	AssistantMessageID uuid.UUID `json:"assistant_message_id"`
	AssistantContent   string    `json:"assistant_content"`
	DurationMS         int64     `json:"duration_ms"`
	DeepThink          bool      `json:"deep_think"`
	Model              string    `json:"model"`
}

// RegisterConversationsEndpoints registers conversations, messages and the
// streaming reply
func RegisterConversationsEndpoints(s *server.Server) {
	conv := authed(s, "/conversations")
	conv.HandleFunc("", handleCreateConversation(s)).Methods("POST")
	conv.HandleFunc("", handleListConversations(s)).Methods("GET")
	conv.HandleFunc("/{id}", handleUpdateConversation(s)).Methods("PATCH")
	conv.HandleFunc("/{id}", handleDeleteConversation(s)).Methods("DELETE")
	conv.HandleFunc("/{id}/messages", handleListMessages(s)).Methods("GET")
	conv.HandleFunc("/{id}/messages", handleAddMessage(s)).Methods("POST")
	conv.HandleFunc("/{id}/messages/stream", handleStreamMessage(s)).Methods("POST")
	conv.HandleFunc("/{id}/messages/{mid}", handleDeleteMessage(s)).Methods("DELETE")
}

// ownedConversation loads the {id} conversation for its owner. Missing and
// deleted conversations are 404, other users' are 403.
func ownedConversation(w http.ResponseWriter, r *http.Request, s *server.Server) (*model.Conversation, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithMessage(w, http.StatusNotFound, "会话不存在")
		return nil, false
	}
	conv, err := s.ConversationsStore.GetConversation(id)
	if err != nil {
		if errors.Is(err, store.ErrConversationNotFound) {
			respondWithMessage(w, http.StatusNotFound, "会话不存在")
			return nil, false
		}
		respondInternal(w, s.Logger, "failed to load conversation", err)
		return nil, false
	}
	if conv.UserID != currentIdentity(r).UserID {
		respondWithMessage(w, http.StatusForbidden, "无权限访问该会话")
		return nil, false
	}
	if conv.DeletedAt.Valid {
		respondWithMessage(w, http.StatusNotFound, "会话不存在")
		return nil, false
	}
	return conv, true
}

func cleanTitle(title *string) *string {
	if title == nil {
		return nil
	}
	t := strings.TrimSpace(*title)
	if t == "" {
		return nil
	}
	return &t
}

func handleCreateConversation(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req conversationRequest
		if !decodeOptionalJSON(w, r, &req) {
			return
		}
		conv := &model.Conversation{UserID: currentIdentity(r).UserID, Title: cleanTitle(req.Title)}
		if err := s.ConversationsStore.CreateConversation(conv); err != nil {
			respondInternal(w, s.Logger, "failed to create conversation", err)
			return
		}
		respondWithJSON(w, http.StatusOK, conv)
	}
}

func handleListConversations(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		convs, err := s.ConversationsStore.ListConversations(currentIdentity(r).UserID)
		if err != nil {
			respondInternal(w, s.Logger, "failed to list conversations", err)
			return
		}
		respondWithJSON(w, http.StatusOK, convs)
	}
}

func handleUpdateConversation(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req conversationRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		conv, ok := ownedConversation(w, r, s)
		if !ok {
			return
		}
		if req.Title != nil {
			conv.Title = cleanTitle(req.Title)
			if err := s.ConversationsStore.SetTitle(conv.ID, conv.Title); err != nil {
				respondInternal(w, s.Logger, "failed to update conversation", err)
				return
			}
			if fresh, err := s.ConversationsStore.GetConversation(conv.ID); err == nil {
				conv = fresh
			}
		}
		respondWithJSON(w, http.StatusOK, conv)
	}
}

func handleDeleteConversation(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv, ok := ownedConversation(w, r, s)
		if !ok {
			return
		}
		if err := s.ConversationsStore.DeleteConversation(conv.ID); err != nil {
			respondInternal(w, s.Logger, "failed to delete conversation", err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

func handleListMessages(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv, ok := ownedConversation(w, r, s)
		if !ok {
			return
		}
		msgs, err := s.ConversationsStore.ListMessages(conv.ID, false)
		if err != nil {
			respondInternal(w, s.Logger, "failed to list messages", err)
			return
		}
		respondWithJSON(w, http.StatusOK, msgs)
	}
}

func handleDeleteMessage(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv, ok := ownedConversation(w, r, s)
		if !ok {
			return
		}
		mid, ok := pathID(r, "mid")
		if !ok {
			respondWithMessage(w, http.StatusNotFound, "消息不存在")
			return
		}
		msg, err := s.ConversationsStore.GetMessage(mid)
		if err != nil && !errors.Is(err, store.ErrMessageNotFound) {
			respondInternal(w, s.Logger, "failed to load message", err)
			return
		}
		if err != nil || msg.ConversationID != conv.ID {
			respondWithMessage(w, http.StatusNotFound, "消息不存在")
			return
		}
		if err := s.ConversationsStore.DeleteMessage(msg.ID); err != nil {
			respondInternal(w, s.Logger, "failed to delete message", err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

// augmentWithSearch appends web search results to the text sent to the
// model. The stored message keeps the original text. Search failures only
// drop the results.
func augmentWithSearch(ctx context.Context, s *server.Server, req messageRequest, blocked bool) (string, WebSearchMeta) {
	meta := WebSearchMeta{
		Enabled:    req.WebSearch,
		Configured: s.Search != nil,
		Provider:   strings.ToLower(strings.TrimSpace(s.Config.WebSearchProvider)),
	}
	if !req.WebSearch || s.Search == nil || blocked {
		return req.Content, meta
	}

	query := req.Content
	if req.WebSearchQuery != nil && strings.TrimSpace(*req.WebSearchQuery) != "" {
		query = *req.WebSearchQuery
	}
	results, err := s.Search.Search(ctx, query, webSearchLimit)
	if err != nil {
		s.Logger.Warn("web search failed", zap.String("provider", s.Search.Name()), zap.Error(err))
		return req.Content, meta
	}
	meta.Results = len(results)
	if block := websearch.FormatContext(results); block != "" {
		return req.Content + "\n\n" + block, meta
	}
	return req.Content, meta
}

// storeUserMessage saves the user's turn and whatever memories it carries.
// Memory failures are logged and never fail the request.
func storeUserMessage(s *server.Server, conv *model.Conversation, userID uuid.UUID, content string, blocked bool) (*model.Message, error) {
	msg := &model.Message{ConversationID: conv.ID, Role: model.RoleUser, Content: content, IsBlocked: blocked}
	if err := s.ConversationsStore.AddMessage(msg); err != nil {
		return nil, err
	}
	if _, err := memory.Upsert(s.MemoryStore, userID, memory.ExtractDrafts(content)); err != nil {
		s.Logger.Warn("failed to write memory", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return msg, nil
}

func handleAddMessage(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		conv, ok := ownedConversation(w, r, s)
		if !ok {
			return
		}
		userID := currentIdentity(r).UserID

		verdict := guardrails.Check(req.Content)
		prompt, _ := augmentWithSearch(r.Context(), s, req, verdict.Blocked)

		userMsg, err := storeUserMessage(s, conv, userID, req.Content, verdict.Blocked)
		if err != nil {
			respondInternal(w, s.Logger, "failed to store message", err)
			return
		}

		reply := s.Agent.Generate(r.Context(), userID, prompt, verdict.Blocked, req.DeepThink)
		assistantMsg := &model.Message{
			ConversationID: conv.ID,
			Role:           model.RoleAssistant,
			Content:        reply,
			IsBlocked:      verdict.Blocked,
		}
		if err := s.ConversationsStore.AddMessage(assistantMsg); err != nil {
			respondInternal(w, s.Logger, "failed to store reply", err)
			return
		}
		respondWithJSON(w, http.StatusOK, []*model.Message{userMsg, assistantMsg})
	}
}

// sseWriter writes Server-Sent Events and flushes after each one
type sseWriter struct {
	w  io.Writer
	rc *http.ResponseController
}

func (e *sseWriter) send(event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	if err := e.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

func handleStreamMessage(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req messageRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		conv, ok := ownedConversation(w, r, s)
		if !ok {
			return
		}
		userID := currentIdentity(r).UserID

		verdict := guardrails.Check(req.Content)
		userMsg, err := storeUserMessage(s, conv, userID, req.Content, verdict.Blocked)
		if err != nil {
			respondInternal(w, s.Logger, "failed to store message", err)
			return
		}
		prompt, web := augmentWithSearch(r.Context(), s, req, verdict.Blocked)
		modelName := s.Agent.Model(req.DeepThink)

		rc := http.NewResponseController(w)
		_ = rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		events := &sseWriter{w: w, rc: rc}

		logger := s.Logger.With(zap.String("conversation_id", conv.ID.String()))
		fail := func(err error) {
			logger.Warn("streamed reply failed", zap.Error(err))
			_ = events.send("error", map[string]string{"detail": err.Error()})
		}

		start := time.Now()
		if err := events.send("meta", StreamMeta{
			ConversationID: conv.ID,
			UserMessageID:  userMsg.ID,
			DeepThink:      req.DeepThink,
			Model:          modelName,
			WebSearch:      web,
		}); err != nil {
			logger.Debug("client went away before the reply", zap.Error(err))
			return
		}

		text, err := s.Agent.Stream(r.Context(), userID, prompt, verdict.Blocked, req.DeepThink, func(delta string) error {
			return events.send("delta", map[string]string{"content": delta})
		})
		if err != nil {
			fail(err)
			return
		}

		assistantMsg := &model.Message{
			ConversationID: conv.ID,
			Role:           model.RoleAssistant,
			Content:        text,
			IsBlocked:      verdict.Blocked,
		}
		if err := s.ConversationsStore.AddMessage(assistantMsg); err != nil {
			fail(fmt.Errorf("failed to store reply: %w", err))
			return
		}

		_ = events.send("done", StreamDone{
			AssistantMessageID: assistantMsg.ID,
			AssistantContent:   text,
			DurationMS:         time.Since(start).Milliseconds(),
			DeepThink:          req.DeepThink,
			Model:              modelName,
		})
	}
}
