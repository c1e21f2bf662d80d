package core

import (
	"time"
)

// Session is the persistent unit holding a conversation's or discussion's
// full transcript. Messages are append-only and never reordered; Updated is
// refreshed on every append and therefore monotonically non-decreasing.
//
// Sessions are plain values: the stores hand out deep copies, so no internal
// locking is needed here. All mutation goes through the session store, which
// serializes read-modify-write cycles.
type Session struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Messages   []Message `json:"messages"`
	Created    time.Time `json:"created_at"`
	Updated    time.Time `json:"updated_at"`
	Discussion bool      `json:"is_discussion,omitempty"`
}

// NewSession creates an empty session with a fresh id.
func NewSession(title string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:       NewID(),
		Title:    title,
		Messages: []Message{},
		Created:  now,
		Updated:  now,
	}
}

// AddMessage appends a message and refreshes the Updated timestamp. Updated
// never moves backwards even if the wall clock does.
func (s *Session) AddMessage(m Message) {
	s.Messages = append(s.Messages, m)
	if now := time.Now().UTC(); now.After(s.Updated) {
		s.Updated = now
	}
}

// RecentMessages returns the trailing window of at most limit messages.
func (s *Session) RecentMessages(limit int) []Message {
	if limit <= 0 || len(s.Messages) == 0 {
		return nil
	}
	if len(s.Messages) <= limit {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-limit:]
}

// AgentMessages returns all agent-role messages in emission order.
func (s *Session) AgentMessages() []Message {
	var out []Message
	for _, m := range s.Messages {
		if m.Role == RoleAgent {
			out = append(out, m)
		}
	}
	return out
}

// Clone returns a deep copy safe for independent mutation.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Messages = make([]Message, len(s.Messages))
	copy(clone.Messages, s.Messages)
	for i := range clone.Messages {
		if atts := clone.Messages[i].Attachments; atts != nil {
			cp := make([]Attachment, len(atts))
			copy(cp, atts)
			clone.Messages[i].Attachments = cp
		}
	}
	return &clone
}

// TitleFromText derives a session title from the opening user text, matching
// the transcript listing convention: first 30 characters plus an ellipsis.
func TitleFromText(text string) string {
	const max = 30
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

// SessionStore persists the full session collection as a single logical
// document. Implementations must make each mutating operation atomic with
// respect to the others in the same process.
type SessionStore interface {
	// All returns every persisted session.
	All() ([]*Session, error)
	// Get returns a session by id, or nil when absent.
	Get(id string) (*Session, error)
	// Update replaces the session with a matching id, or appends it.
	Update(session *Session) error
	// Delete removes a session by id, reporting whether anything was removed.
	Delete(id string) (bool, error)
	// Cleanup drops sessions whose Updated is older than maxAge, returning
	// the number removed.
	Cleanup(maxAge time.Duration) (int, error)
}
