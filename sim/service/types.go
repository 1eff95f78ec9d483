package service

import (
	"time"

	"github.com/gridlife/lifeserver/sim/engine"
)

// Session is one simulation board with its own engine instance.
type Session struct {
	ID             string
	Engine         *engine.LifeEngine
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// SessionInfo describes a session to API consumers.
type SessionInfo struct {
	ID             string     `json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
	State          *StateInfo `json:"state"`
}

// StateInfo is the engine's externally visible state at one point in time.
type StateInfo struct {
	Running    bool             `json:"running"`
	Generation int              `json:"generation"`
	Speed      float64          `json:"speed"`
	Size       int              `json:"size"`
	Population int              `json:"population"`
	Snapshot   *engine.Snapshot `json:"snapshot,omitempty"`
}

// OpResult reports the outcome of a mutating operation. Applied is false
// when the engine declined the call as a lifecycle no-op (for example a
// toggle while the board was running); that is not an error.
type OpResult struct {
	Applied bool       `json:"applied"`
	State   *StateInfo `json:"state"`
}

// CreateOptions configures a new session. Zero values select the engine
// defaults; Pattern optionally stamps a named seed pattern centered on the
// fresh board.
type CreateOptions struct {
	Size    int     `json:"size,omitempty"`
	Speed   float64 `json:"speed,omitempty"`
	Pattern string  `json:"pattern,omitempty"`
}

// Pattern is a named seed shape. Layout rows use 'O' for live cells and
// '.' for dead ones; rows may be ragged.
type Pattern struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Layout      []string `json:"layout"`
}

// PatternInfo summarizes a pattern for listings.
type PatternInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Columns     int    `json:"columns"`
}
