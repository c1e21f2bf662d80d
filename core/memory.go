package core

import "time"

// Importance bounds for memories.
const (
	MinImportance = 1
	MaxImportance = 5

	// DefaultImportance is assumed when a memory omits the field.
	DefaultImportance = 3
)

// Memory is a durable user-scoped note optionally injected into model context
// by importance ranking. Memories form a flat append-only collection with no
// relation to sessions.
type Memory struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   string    `json:"category,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Importance int       `json:"importance"`
	Created    time.Time `json:"created_at"`
	Updated    time.Time `json:"updated_at"`
}

// ClampImportance forces v into the valid [MinImportance, MaxImportance]
// range, substituting the default for the zero value.
func ClampImportance(v int) int {
	if v == 0 {
		return DefaultImportance
	}
	if v < MinImportance {
		return MinImportance
	}
	if v > MaxImportance {
		return MaxImportance
	}
	return v
}

// MemoryPatch carries partial updates for a memory. Nil fields are left
// untouched.
type MemoryPatch struct {
	Title      *string
	Content    *string
	Category   *string
	Tags       *[]string
	Importance *int
}

// MemoryStore persists the flat memory collection.
type MemoryStore interface {
	// All returns every memory, most recently updated first.
	All() ([]Memory, error)
	// Get returns a memory by id, reporting whether it exists.
	Get(id string) (Memory, bool, error)
	// Create appends a new memory and returns it with id and timestamps set.
	Create(m Memory) (Memory, error)
	// Patch applies a partial update, refreshing Updated.
	Patch(id string, p MemoryPatch) (Memory, error)
	// Delete removes a memory by id, reporting whether anything was removed.
	Delete(id string) (bool, error)
}
