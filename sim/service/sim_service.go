package service

import (
	"context"

	"github.com/gridlife/lifeserver/sim/engine"
)

// SimService defines all simulation-related operations exposed to
// transports (REST, WebSocket bootstrap, MCP).
type SimService interface {
	// Session Management
	CreateSession(ctx context.Context, opts CreateOptions) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Lifecycle
	Start(ctx context.Context, sessionID string) (*StateInfo, error)
	Stop(ctx context.Context, sessionID string) (*StateInfo, error)
	Step(ctx context.Context, sessionID string) (*OpResult, error)

	// Grid mutation
	ToggleCell(ctx context.Context, sessionID string, row, column int) (*OpResult, error)
	Randomize(ctx context.Context, sessionID string) (*OpResult, error)
	Reset(ctx context.Context, sessionID string, size int) (*OpResult, error)
	ChangeSpeed(ctx context.Context, sessionID string, value float64) (*OpResult, error)

	// Snapshot boundary
	ExportState(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	LoadState(ctx context.Context, sessionID string, snap engine.Snapshot) (*OpResult, error)

	// Patterns
	ListPatterns(ctx context.Context) ([]*PatternInfo, error)
	ApplyPattern(ctx context.Context, sessionID, name string, row, column int) (*OpResult, error)
}

// SessionManager defines session storage operations.
type SessionManager interface {
	Create(id string, opts CreateOptions) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// PatternManager handles seed pattern loading.
type PatternManager interface {
	ListPatterns() ([]*PatternInfo, error)
	LoadPattern(name string) (*Pattern, error)
}

// EventSink receives every engine event of every session, keyed by session
// ID. The WebSocket hub implements this to fan events out to UI clients.
type EventSink interface {
	BroadcastToSession(sessionID string, ev engine.Event)
}
