package domain

import (
	"fmt"
	"strings"
	"time"
)

// Priority bounds for a Context.
const (
	MinPriority = 0
	MaxPriority = 10

	// DefaultPriority is assigned to promoted search contexts.
	DefaultPriority = 5
)

// Context is a stored knowledge fragment fed to the LLM application.
// Values held by a ContextStore are never mutated in place; every
// update produces a new copy with a bumped Version.
type Context struct {
	// ID is the globally unique identifier. Immutable once stored.
	ID string `json:"id" toml:"id"`

	// Domain is a free-form category label (e.g. "medical", "enterprise").
	Domain string `json:"domain" toml:"domain"`

	// Content is the text body. Must be non-empty.
	Content string `json:"content" toml:"content"`

	// Tags is an ordered set of keywords. Order is kept for display
	// but ignored for matching.
	Tags []string `json:"tags,omitempty" toml:"tags"`

	// Priority is in [MinPriority, MaxPriority]; higher wins ranking ties.
	Priority int `json:"priority" toml:"priority"`

	// Metadata holds arbitrary string key-value pairs.
	Metadata map[string]string `json:"metadata,omitempty" toml:"metadata"`

	// Version starts at 1 and increments once per successful update.
	Version int `json:"version" toml:"-"`

	// CreatedAt is set by the store on Add.
	CreatedAt time.Time `json:"created_at" toml:"-"`

	// UpdatedAt is refreshed on every update. Never before CreatedAt.
	UpdatedAt time.Time `json:"updated_at" toml:"-"`

	// ExpiresAt is optional. Expired contexts are invisible to readers.
	ExpiresAt *time.Time `json:"expires_at,omitempty" toml:"expires_at"`
}

// Validate checks the caller-supplied fields.
func (c *Context) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: context id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("%w: context content is required", ErrInvalidInput)
	}
	if c.Priority < MinPriority || c.Priority > MaxPriority {
		return fmt.Errorf("%w: priority %d outside [%d, %d]", ErrInvalidInput, c.Priority, MinPriority, MaxPriority)
	}
	return nil
}

// IsExpired reports whether the context has expired at now.
func (c *Context) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// Clone returns a deep copy so callers can never alias stored slices or maps.
func (c Context) Clone() Context {
	out := c
	if c.Tags != nil {
		out.Tags = make([]string, len(c.Tags))
		copy(out.Tags, c.Tags)
	}
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	if c.ExpiresAt != nil {
		t := *c.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}

// HasTag reports whether the context carries tag (case-insensitive).
func (c *Context) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// ContextMutator edits a context during an atomic update. It receives a
// private copy; returning an error aborts the update with no change.
type ContextMutator func(c *Context) error

// ContextOrigin identifies where a selection candidate came from.
type ContextOrigin string

const (
	// OriginStore marks candidates read from the Context Store.
	OriginStore ContextOrigin = "store"

	// OriginSearch marks ephemeral candidates built from search results.
	OriginSearch ContextOrigin = "search"
)

// ScoreBreakdown records the weighted factors of a selection score.
type ScoreBreakdown struct {
	Domain   float64 `json:"domain"`
	Lexical  float64 `json:"lexical"`
	Priority float64 `json:"priority"`
	Recency  float64 `json:"recency"`
}

// ScoredContext is one ranked entry of a selection.
type ScoredContext struct {
	Context   Context        `json:"context"`
	Score     float64        `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
	Origin    ContextOrigin  `json:"origin"`
}
