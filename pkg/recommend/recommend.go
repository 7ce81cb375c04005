// Package recommend picks resources for a user from their preferred tags and
// the tags of resources they saved.
package recommend

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
)

const (
	BasedOnPreferredTags = "profile.preferred_tags"
	BasedOnSaved         = "events.saved"
	BasedOnDefault       = "default"

	preferredTagLimit = 10
	savedTagLimit     = 5
	savedWindow       = 90 * 24 * time.Hour
	dismissedWindow   = 30 * 24 * time.Hour
	maxTags           = 15
)

// DefaultTags are used when the user has neither preferences nor saves.
var DefaultTags = []string{"剧情", "角色", "动画", "漫画", "轻小说", "游戏"}

// Result is the recommendation response
type Result struct {
	BasedOn []string         `json:"based_on"`
	Tags    []string         `json:"tags"`
	Items   []model.Resource `json:"items"`
}

// Engine computes recommendations
type Engine struct {
	resources store.ResourcesStore
	profiles  store.ProfilesStore
	now       func() time.Time
}

// New creates an Engine
func New(resources store.ResourcesStore, profiles store.ProfilesStore) *Engine {
	return &Engine{resources: resources, profiles: profiles, now: time.Now}
}

// WithClock replaces the engine's time source
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Recommend returns up to limit (1..20) resources and records a recommended
// event for each. days (1..365) is accepted for compatibility and does not
// change the selection.
func (e *Engine) Recommend(userID uuid.UUID, limit, days int) (*Result, error) {
	limit = clamp(limit, 1, 20)
	_ = clamp(days, 1, 365)
	now := e.now().UTC()

	profile, err := e.profiles.GetProfile(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	preferred := profile.PreferredTags()
	if len(preferred) > preferredTagLimit {
		preferred = preferred[:preferredTagLimit]
	}

	saved, err := e.resources.TopSavedTags(userID, now.Add(-savedWindow), savedTagLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved tags: %w", err)
	}

	tags := append(append([]string{}, preferred...), saved...)
	if len(tags) == 0 {
		tags = append(tags, DefaultTags...)
	}
	tags = dedupe(tags)
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}

	dismissed, err := e.resources.DismissedSince(userID, now.Add(-dismissedWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to load dismissed resources: %w", err)
	}

	items, err := e.resources.ByTags(tags, dismissed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select resources: %w", err)
	}
	for _, r := range items {
		event := &model.ResourceEvent{UserID: userID, ResourceID: r.ID, EventType: model.EventTypeRecommended}
		if err := e.resources.RecordEvent(event); err != nil {
			return nil, fmt.Errorf("failed to record recommendation: %w", err)
		}
	}

	var basedOn []string
	if len(preferred) > 0 {
		basedOn = append(basedOn, BasedOnPreferredTags)
	}
	if len(saved) > 0 {
		basedOn = append(basedOn, BasedOnSaved)
	}
	if len(basedOn) == 0 {
		basedOn = []string{BasedOnDefault}
	}

	if items == nil {
		items = []model.Resource{}
	}
	return &Result{BasedOn: basedOn, Tags: tags, Items: items}, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
