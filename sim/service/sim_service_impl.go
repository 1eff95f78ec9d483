package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/gridlife/lifeserver/sim/engine"
)

// simServiceImpl implements the SimService interface.
type simServiceImpl struct {
	sessions SessionManager
	patterns PatternManager
	sink     EventSink
	subs     map[string]int // session ID -> event subscription handle
	mu       sync.RWMutex
}

// NewSimService creates a new simulation service. sink may be nil when no
// transport needs live event delivery (tests, the analyzer CLI).
func NewSimService(sessions SessionManager, patterns PatternManager, sink EventSink) SimService {
	return &simServiceImpl{
		sessions: sessions,
		patterns: patterns,
		sink:     sink,
		subs:     make(map[string]int),
	}
}

// CreateSession creates a new board, optionally stamping a named seed
// pattern centered on the fresh grid.
func (s *simServiceImpl) CreateSession(ctx context.Context, opts CreateOptions) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Resolve the pattern before creating anything so an unknown name
	// fails without leaving an empty session behind.
	var pat *Pattern
	if opts.Pattern != "" {
		var err error
		pat, err = s.patterns.LoadPattern(opts.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", opts.Pattern, err)
		}
	}

	sess, err := s.sessions.Create("", opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.attachSink(sess)

	if pat != nil {
		rows, cols := patternBounds(pat)
		row := (sess.Engine.Size() - rows) / 2
		col := (sess.Engine.Size() - cols) / 2
		stampPattern(sess.Engine, pat, row, col)
	}

	if err := s.sessions.Save(sess.ID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s after create: %v\n", sess.ID, err)
	}

	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information. Takes the write lock: the first
// access to a session restored from persistence attaches the event sink,
// which writes the subscription map.
func (s *simServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	s.attachSink(sess)
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions.
func (s *simServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession stops a board and removes its session.
func (s *simServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err == nil {
		// Halt the stepping loop before the session goes away so no timer
		// outlives its board.
		sess.Engine.Stop()
		if id, ok := s.subs[sessionID]; ok {
			sess.Engine.Unsubscribe(id)
			delete(s.subs, sessionID)
		}
	}

	return s.sessions.Delete(sessionID)
}

// Start begins automatic stepping for a session.
func (s *simServiceImpl) Start(ctx context.Context, sessionID string) (*StateInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	s.attachSink(sess)

	sess.Engine.Start()
	return s.stateInfo(sess, false), nil
}

// Stop halts automatic stepping for a session.
func (s *simServiceImpl) Stop(ctx context.Context, sessionID string) (*StateInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	sess.Engine.Stop()
	s.autoSave(sessionID)
	return s.stateInfo(sess, false), nil
}

// Step performs a single manual generation advance.
func (s *simServiceImpl) Step(ctx context.Context, sessionID string) (*OpResult, error) {
	return s.mutate(sessionID, func(sess *Session) bool {
		return sess.Engine.Step()
	})
}

// ToggleCell flips one cell.
func (s *simServiceImpl) ToggleCell(ctx context.Context, sessionID string, row, column int) (*OpResult, error) {
	return s.mutate(sessionID, func(sess *Session) bool {
		return sess.Engine.ToggleCell(row, column)
	})
}

// Randomize fills the board with a 50% random pattern.
func (s *simServiceImpl) Randomize(ctx context.Context, sessionID string) (*OpResult, error) {
	return s.mutate(sessionID, func(sess *Session) bool {
		return sess.Engine.Randomize()
	})
}

// Reset replaces the board with an all-dead grid of the given size (0 keeps
// the current size).
func (s *simServiceImpl) Reset(ctx context.Context, sessionID string, size int) (*OpResult, error) {
	return s.mutateErr(sessionID, func(sess *Session) (bool, error) {
		if sess.Engine.IsRunning() {
			return false, nil
		}
		return true, sess.Engine.Reset(size)
	})
}

// ChangeSpeed sets the stepping rate for a session.
func (s *simServiceImpl) ChangeSpeed(ctx context.Context, sessionID string, value float64) (*OpResult, error) {
	return s.mutateErr(sessionID, func(sess *Session) (bool, error) {
		return true, sess.Engine.ChangeSpeed(value)
	})
}

// ExportState produces a snapshot of the session's grid.
func (s *simServiceImpl) ExportState(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	snap := sess.Engine.ExportState()
	return &snap, nil
}

// LoadState replaces the session's grid from a snapshot.
func (s *simServiceImpl) LoadState(ctx context.Context, sessionID string, snap engine.Snapshot) (*OpResult, error) {
	return s.mutateErr(sessionID, func(sess *Session) (bool, error) {
		if sess.Engine.IsRunning() {
			return false, nil
		}
		return true, sess.Engine.LoadState(snap)
	})
}

// ListPatterns returns the available seed patterns.
func (s *simServiceImpl) ListPatterns(ctx context.Context) ([]*PatternInfo, error) {
	return s.patterns.ListPatterns()
}

// ApplyPattern stamps a named pattern with its top-left corner at
// (row, column). Cells falling outside the grid are silently skipped.
func (s *simServiceImpl) ApplyPattern(ctx context.Context, sessionID, name string, row, column int) (*OpResult, error) {
	pat, err := s.patterns.LoadPattern(name)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", name, err)
	}

	return s.mutate(sessionID, func(sess *Session) bool {
		if sess.Engine.IsRunning() {
			return false
		}
		stampPattern(sess.Engine, pat, row, column)
		return true
	})
}

// mutate runs one engine operation under the service lock, auto-saving and
// reporting the post-operation state.
func (s *simServiceImpl) mutate(sessionID string, op func(*Session) bool) (*OpResult, error) {
	return s.mutateErr(sessionID, func(sess *Session) (bool, error) {
		return op(sess), nil
	})
}

func (s *simServiceImpl) mutateErr(sessionID string, op func(*Session) (bool, error)) (*OpResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	applied, err := op(sess)
	if err != nil {
		return nil, err
	}
	if applied {
		s.autoSave(sessionID)
	}

	return &OpResult{Applied: applied, State: s.stateInfo(sess, false)}, nil
}

func (s *simServiceImpl) autoSave(sessionID string) {
	if err := s.sessions.Save(sessionID); err != nil {
		fmt.Printf("Warning: Failed to persist session %s: %v\n", sessionID, err)
	}
}

// attachSink subscribes the event sink to a session's engine exactly once.
// Sessions lazily loaded from persistence get their subscription on first
// access through the service.
func (s *simServiceImpl) attachSink(sess *Session) {
	if s.sink == nil {
		return
	}
	if _, ok := s.subs[sess.ID]; ok {
		return
	}
	sessionID := sess.ID
	s.subs[sessionID] = sess.Engine.Subscribe(func(ev engine.Event) {
		s.sink.BroadcastToSession(sessionID, ev)
	})
}

func (s *simServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          s.stateInfo(sess, true),
	}
}

func (s *simServiceImpl) stateInfo(sess *Session, includeSnapshot bool) *StateInfo {
	snap := sess.Engine.ExportState()
	population := 0
	for _, cell := range snap.Cells {
		if cell.Alive {
			population++
		}
	}

	info := &StateInfo{
		Running:    sess.Engine.IsRunning(),
		Generation: sess.Engine.Generation(),
		Speed:      sess.Engine.Speed(),
		Size:       snap.Size,
		Population: population,
	}
	if includeSnapshot {
		info.Snapshot = &snap
	}
	return info
}

// patternBounds returns the row and column extent of a pattern layout.
func patternBounds(pat *Pattern) (rows, cols int) {
	rows = len(pat.Layout)
	for _, line := range pat.Layout {
		if len(line) > cols {
			cols = len(line)
		}
	}
	return rows, cols
}

// stampPattern sets the pattern's live cells starting at (row, column)
// using toggle semantics: already-live grid cells stay live, out-of-range
// cells are skipped. Caller ensures the engine is idle.
func stampPattern(eng *engine.LifeEngine, pat *Pattern, row, column int) {
	size := eng.Size()
	cells := eng.Cells()
	for r, line := range pat.Layout {
		for c, ch := range line {
			if ch != 'O' {
				continue
			}
			targetRow, targetCol := row+r, column+c
			if targetRow < 0 || targetRow >= size || targetCol < 0 || targetCol >= size {
				continue
			}
			if !cells[targetRow*size+targetCol].Alive {
				eng.ToggleCell(targetRow, targetCol)
			}
		}
	}
}
