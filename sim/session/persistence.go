package session

import (
	"time"

	"github.com/gridlife/lifeserver/sim/engine"
	"github.com/gridlife/lifeserver/sim/service"
)

// Persistence defines the interface for persisting sessions.
type Persistence interface {
	// Save persists a session to storage.
	Save(sess *service.Session) error

	// Load retrieves a session from storage by ID.
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage.
	Delete(id string) error

	// ListAll returns all persisted session IDs.
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage.
	Exists(id string) bool
}

// PersistedSessionData is the JSON structure for persisted sessions. The
// grid travels as the engine's snapshot with the speed carried alongside.
// A restored session comes back Idle at generation 0, matching the
// snapshot round-trip contract.
type PersistedSessionData struct {
	ID             string          `json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	LastAccessedAt time.Time       `json:"last_accessed_at"`
	Speed          float64         `json:"speed"`
	Snapshot       engine.Snapshot `json:"snapshot"`
}
