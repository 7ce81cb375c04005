package endpoints

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/identity"
	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

const (
	guestbookReplyBatch = 500
	guestbookMaxNodes   = 2000
)

// GuestbookNode is a public guestbook message with its reply tree
type GuestbookNode struct {
	ID        uuid.UUID        `json:"id"`
	ParentID  *uuid.UUID       `json:"parent_id"`
	UserID    uuid.UUID        `json:"user_id"`
	Username  string           `json:"username"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"created_at"`
	CanDelete bool             `json:"can_delete"`
	Replies   []*GuestbookNode `json:"replies"`
}

// InboxItem is a reply someone else left on one of the caller's messages
type InboxItem struct {
	ID             uuid.UUID `json:"id"`
	ParentID       uuid.UUID `json:"parent_id"`
	UserID         uuid.UUID `json:"user_id"`
	Username       string    `json:"username"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	ParentUserID   uuid.UUID `json:"parent_user_id"`
	ParentUsername string    `json:"parent_username"`
	ParentContent  string    `json:"parent_content"`
}

type guestbookRequest struct {
	Content  string     `json:"content" validate:"max=800"`
	ParentID *uuid.UUID `json:"parent_id"`
}

// RegisterGuestbookEndpoints registers the threaded guestbook
func RegisterGuestbookEndpoints(s *server.Server) {
	gb := authed(s, "/guestbook")
	gb.HandleFunc("", handleListGuestbook(s)).Methods("GET")
	gb.HandleFunc("", handlePostGuestbook(s)).Methods("POST")
	gb.HandleFunc("/inbox", handleGuestbookInbox(s)).Methods("GET")
	gb.HandleFunc("/{id}", handleDeleteGuestbook(s)).Methods("DELETE")
}

func newGuestbookNode(msg model.GuestbookMessage, caller *identity.Identity) *GuestbookNode {
	return &GuestbookNode{
		ID:        msg.ID,
		ParentID:  msg.ParentID,
		UserID:    msg.UserID,
		Username:  msg.Username,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
		CanDelete: caller.CanModify(msg.UserID),
		Replies:   []*GuestbookNode{},
	}
}

// buildThreads attaches replies to the top-level nodes breadth first,
// querying at most guestbookReplyBatch parents at a time and stopping once
// guestbookMaxNodes nodes are loaded.
func buildThreads(gb store.GuestbookStore, roots []*GuestbookNode, caller *identity.Identity) error {
	byID := make(map[uuid.UUID]*GuestbookNode, len(roots))
	frontier := make([]uuid.UUID, 0, len(roots))
	for _, n := range roots {
		byID[n.ID] = n
		frontier = append(frontier, n.ID)
	}
	total := len(roots)

	for len(frontier) > 0 && total < guestbookMaxNodes {
		var next []uuid.UUID
		for start := 0; start < len(frontier) && total < guestbookMaxNodes; start += guestbookReplyBatch {
			end := start + guestbookReplyBatch
			if end > len(frontier) {
				end = len(frontier)
			}
			replies, err := gb.ListReplies(frontier[start:end])
			if err != nil {
				return err
			}
			for _, msg := range replies {
				if total >= guestbookMaxNodes {
					break
				}
				parent, ok := byID[*msg.ParentID]
				if !ok {
					continue
				}
				node := newGuestbookNode(msg, caller)
				parent.Replies = append(parent.Replies, node)
				byID[node.ID] = node
				next = append(next, node.ID)
				total++
			}
		}
		frontier = next
	}
	return nil
}

func handleListGuestbook(s *server.Server) http.HandlerFunc {
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

		top, err := s.GuestbookStore.ListTopLevel(clamp(limit, 1, 200), clamp(offset, 0, 10000))
		if err != nil {
			respondInternal(w, s.Logger, "failed to list guestbook", err)
			return
		}
		caller := currentIdentity(r)
		roots := make([]*GuestbookNode, 0, len(top))
		for _, msg := range top {
			roots = append(roots, newGuestbookNode(msg, caller))
		}
		if err := buildThreads(s.GuestbookStore, roots, caller); err != nil {
			respondInternal(w, s.Logger, "failed to load guestbook replies", err)
			return
		}
		respondWithJSON(w, http.StatusOK, roots)
	}
}

func handlePostGuestbook(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req guestbookRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		content := strings.TrimSpace(req.Content)
		if content == "" {
			respondWithMessage(w, http.StatusUnprocessableEntity, "内容不能为空")
			return
		}
		if utf8.RuneCountInString(content) > model.GuestbookContentMaxLen {
			respondWithMessage(w, http.StatusUnprocessableEntity, "content must be at most 800 characters")
			return
		}

		if req.ParentID != nil {
			if _, err := s.GuestbookStore.GetMessage(*req.ParentID); err != nil {
				if errors.Is(err, store.ErrGuestbookMessageNotFound) {
					respondWithMessage(w, http.StatusNotFound, "要回复的留言不存在")
					return
				}
				respondInternal(w, s.Logger, "failed to load guestbook message", err)
				return
			}
		}

		caller := currentIdentity(r)
		msg := &model.GuestbookMessage{
			ParentID: req.ParentID,
			UserID:   caller.UserID,
			Username: caller.Username,
			Email:    caller.Email,
			Content:  content,
		}
		if err := s.GuestbookStore.CreateMessage(msg); err != nil {
			respondInternal(w, s.Logger, "failed to store guestbook message", err)
			return
		}
		node := newGuestbookNode(*msg, caller)
		node.CanDelete = true
		respondWithJSON(w, http.StatusOK, node)
	}
}

// parseAfter accepts RFC 3339 timestamps and naive ones, which are taken as
// UTC. Anything else yields nil.
func parseAfter(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t = t.UTC()
		return &t
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}

func handleGuestbookInbox(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryInt(r, "limit", 20)
		if !ok {
			respondWithMessage(w, http.StatusUnprocessableEntity, "limit must be an integer")
			return
		}
		replies, err := s.GuestbookStore.Inbox(
			currentIdentity(r).UserID,
			parseAfter(r.URL.Query().Get("after")),
			clamp(limit, 1, 50),
		)
		if err != nil {
			respondInternal(w, s.Logger, "failed to load guestbook inbox", err)
			return
		}

		items := make([]InboxItem, 0, len(replies))
		for _, ir := range replies {
			items = append(items, InboxItem{
				ID:             ir.Reply.ID,
				ParentID:       ir.Parent.ID,
				UserID:         ir.Reply.UserID,
				Username:       ir.Reply.Username,
				Content:        ir.Reply.Content,
				CreatedAt:      ir.Reply.CreatedAt,
				ParentUserID:   ir.Parent.UserID,
				ParentUsername: ir.Parent.Username,
				ParentContent:  ir.Parent.Content,
			})
		}
		respondWithJSON(w, http.StatusOK, items)
	}
}

func handleDeleteGuestbook(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithMessage(w, http.StatusNotFound, "留言不存在")
			return
		}
		msg, err := s.GuestbookStore.GetMessage(id)
		if err != nil {
			if errors.Is(err, store.ErrGuestbookMessageNotFound) {
				respondWithMessage(w, http.StatusNotFound, "留言不存在")
				return
			}
			respondInternal(w, s.Logger, "failed to load guestbook message", err)
			return
		}
		if !currentIdentity(r).CanModify(msg.UserID) {
			respondWithMessage(w, http.StatusForbidden, "无权限删除")
			return
		}
		if err := s.GuestbookStore.DeleteMessage(msg.ID); err != nil && !errors.Is(err, store.ErrGuestbookMessageNotFound) {
			respondInternal(w, s.Logger, "failed to delete guestbook message", err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"detail": "ok"})
	}
}
