package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gridlife/lifeserver/sim/engine"
	"github.com/gridlife/lifeserver/sim/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	saves    int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, opts service.CreateOptions) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(opts.Size)
	if err != nil {
		return nil, err
	}
	if opts.Speed != 0 {
		if err := eng.ChangeSpeed(opts.Speed); err != nil {
			return nil, err
		}
	}

	sess := &service.Session{
		ID:             id,
		Engine:         eng,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = sess
	return sess, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	sess, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("session not found")
	}
	return sess, nil
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if sess, exists := m.sessions[id]; exists {
		sess.LastAccessedAt = time.Now()
		return nil
	}
	return errors.New("session not found")
}

func (m *MockSessionManager) Save(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	m.saves++
	return nil
}

// MockPatternManager implements service.PatternManager for testing
type MockPatternManager struct {
	patterns map[string]*service.Pattern
}

func NewMockPatternManager() *MockPatternManager {
	return &MockPatternManager{
		patterns: map[string]*service.Pattern{
			"blinker": {
				ID:     "blinker",
				Name:   "Blinker",
				Layout: []string{"OOO"},
			},
			"block": {
				ID:     "block",
				Name:   "Block",
				Layout: []string{"OO", "OO"},
			},
		},
	}
}

func (m *MockPatternManager) ListPatterns() ([]*service.PatternInfo, error) {
	var infos []*service.PatternInfo
	for _, pat := range m.patterns {
		infos = append(infos, &service.PatternInfo{ID: pat.ID, Name: pat.Name})
	}
	return infos, nil
}

func (m *MockPatternManager) LoadPattern(name string) (*service.Pattern, error) {
	pat, exists := m.patterns[name]
	if !exists {
		return nil, errors.New("pattern not found")
	}
	return pat, nil
}

// MockEventSink records broadcast events
type MockEventSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	sessionID string
	event     engine.Event
}

func (m *MockEventSink) BroadcastToSession(sessionID string, ev engine.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, recordedEvent{sessionID, ev})
}

func (m *MockEventSink) ofType(eventType engine.EventType) []recordedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []recordedEvent
	for _, rec := range m.events {
		if rec.event.Type == eventType {
			out = append(out, rec)
		}
	}
	return out
}

func newTestService() (service.SimService, *MockSessionManager, *MockEventSink) {
	sessions := NewMockSessionManager()
	sink := &MockEventSink{}
	svc := service.NewSimService(sessions, NewMockPatternManager(), sink)
	return svc, sessions, sink
}

func TestCreateSession(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, service.CreateOptions{Size: 10})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if info.State == nil {
		t.Fatal("Expected state in session info")
	}
	if info.State.Size != 10 {
		t.Errorf("Expected size 10, got %d", info.State.Size)
	}
	if info.State.Running {
		t.Error("Expected new session to be idle")
	}
	if info.State.Snapshot == nil {
		t.Error("Expected snapshot in session info")
	}
}

func TestCreateSession_WithPattern(t *testing.T) {
	svc, sessions, _ := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, service.CreateOptions{Size: 9, Pattern: "blinker"})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if info.State.Population != 3 {
		t.Errorf("Expected 3 live cells from blinker, got %d", info.State.Population)
	}

	// Blinker (1x3) centered on a 9x9 grid lands on row 4, columns 3-5
	sess, _ := sessions.Get(info.ID)
	cells := sess.Engine.Cells()
	for col := 3; col <= 5; col++ {
		if !cells[4*9+col].Alive {
			t.Errorf("Expected cell (4,%d) alive", col)
		}
	}
}

func TestCreateSession_UnknownPattern(t *testing.T) {
	svc, sessions, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateSession(ctx, service.CreateOptions{Pattern: "nope"}); err == nil {
		t.Error("Expected error for unknown pattern")
	}
	if len(sessions.List()) != 0 {
		t.Error("Expected no session left behind after pattern failure")
	}
}

func TestGetSession_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.GetSession(context.Background(), "ghost"); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestToggleCell(t *testing.T) {
	svc, _, sink := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, service.CreateOptions{Size: 5})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	result, err := svc.ToggleCell(ctx, info.ID, 2, 2)
	if err != nil {
		t.Fatalf("ToggleCell failed: %v", err)
	}
	if !result.Applied {
		t.Error("Expected toggle to be applied")
	}
	if result.State.Population != 1 {
		t.Errorf("Expected population 1, got %d", result.State.Population)
	}

	// The engine event reached the sink keyed by session ID
	events := sink.ofType(engine.EventCellChanged)
	if len(events) != 1 {
		t.Fatalf("Expected 1 cell_changed event at sink, got %d", len(events))
	}
	if events[0].sessionID != info.ID {
		t.Errorf("Expected event for session %s, got %s", info.ID, events[0].sessionID)
	}
}

func TestToggleCell_OutOfRange(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, service.CreateOptions{Size: 5})

	result, err := svc.ToggleCell(ctx, info.ID, 99, 99)
	if err != nil {
		t.Fatalf("ToggleCell failed: %v", err)
	}
	if result.Applied {
		t.Error("Expected out-of-range toggle to be a no-op")
	}
}

func TestMutatorsBlockedWhileRunning(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, service.CreateOptions{Size: 5})
	if _, err := svc.Start(ctx, info.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer svc.Stop(ctx, info.ID)

	checks := []struct {
		name string
		op   func() (*service.OpResult, error)
	}{
		{"toggle", func() (*service.OpResult, error) { return svc.ToggleCell(ctx, info.ID, 1, 1) }},
		{"randomize", func() (*service.OpResult, error) { return svc.Randomize(ctx, info.ID) }},
		{"reset", func() (*service.OpResult, error) { return svc.Reset(ctx, info.ID, 0) }},
		{"step", func() (*service.OpResult, error) { return svc.Step(ctx, info.ID) }},
		{"load", func() (*service.OpResult, error) {
			snap, _ := svc.ExportState(ctx, info.ID)
			return svc.LoadState(ctx, info.ID, *snap)
		}},
		{"apply pattern", func() (*service.OpResult, error) {
			return svc.ApplyPattern(ctx, info.ID, "block", 0, 0)
		}},
	}

	for _, check := range checks {
		t.Run(check.name, func(t *testing.T) {
			result, err := check.op()
			if err != nil {
				t.Fatalf("%s returned error: %v", check.name, err)
			}
			if result.Applied {
				t.Errorf("Expected %s to be ignored while running", check.name)
			}
		})
	}
}

func TestStartAndStop(t *testing.T) {
	svc, _, sink := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, service.CreateOptions{Size: 5})

	state, err := svc.Start(ctx, info.ID)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !state.Running {
		t.Error("Expected running state after start")
	}
	if state.Generation != 1 {
		t.Errorf("Expected immediate first advance to generation 1, got %d", state.Generation)
	}

	state, err = svc.Stop(ctx, info.ID)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if state.Running {
		t.Error("Expected idle state after stop")
	}

	if len(sink.ofType(engine.EventStarted)) != 1 {
		t.Error("Expected one started event at sink")
	}
	if len(sink.ofType(engine.EventStopped)) != 1 {
		t.Error("Expected one stopped event at sink")
	}
}

func TestStep(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, service.CreateOptions{Size: 5, Pattern: "blinker"})

	result, err := svc.Step(ctx, info.ID)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if !result.Applied {
		t.Error("Expected step to be applied while idle")
	}
	if result.State.Generation != 1 {
		t.Errorf("Expected generation 1 after step, got %d", result.State.Generation)
	}
	// Blinker flips to vertical but keeps its population
	if result.State.Population != 3 {
		t.Errorf("Expected population 3 after step, got %d", result.State.Population)
	}
}

func TestReset(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, service.CreateOptions{Size: 5, Pattern: "block"})

	t.Run("keep size", func(t *testing.T) {
		result, err := svc.Reset(ctx, info.ID, 0)
		if err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		if !result.Applied {
			t.Error("Expected reset to be applied")
		}
		if result.State.Size != 5 {
			t.Errorf("Expected size kept at 5, got %d", result.State.Size)
		}
		if result.State.Population != 0 {
			t.Errorf("Expected empty board after reset, got %d", result.State.Population)
		}
	})

	t.Run("resize", func(t *testing.T) {
		result, err := svc.Reset(ctx, info.ID, 12)
		if err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		if result.State.Size != 12 {
			t.Errorf("Expected size 12, got %d", result.State.Size)
		}
	})

	t.Run("invalid size", func(t *testing.T) {
		if _, err := svc.Reset(ctx, info.ID, 2); !errors.Is(err, engine.ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestChangeSpeed(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, service.CreateOptions{Size: 5})

	result, err := svc.ChangeSpeed(ctx, info.ID, 50)
	if err != nil {
		t.Fatalf("ChangeSpeed failed: %v", err)
	}
	if result.State.Speed != 50 {
		t.Errorf("Expected speed 50, got %f", result.State.Speed)
	}

	if _, err := svc.ChangeSpeed(ctx, info.ID, 0.5); !errors.Is(err, engine.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}

	// Speed changes are allowed while running
	if _, err := svc.Start(ctx, info.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer svc.Stop(ctx, info.ID)

	result, err = svc.ChangeSpeed(ctx, info.ID, 100)
	if err != nil {
		t.Fatalf("ChangeSpeed while running failed: %v", err)
	}
	if !result.Applied {
		t.Error("Expected speed change to apply while running")
	}
}

func TestExportAndLoadState(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, service.CreateOptions{Size: 6, Pattern: "block"})

	snap, err := svc.ExportState(ctx, info.ID)
	if err != nil {
		t.Fatalf("ExportState failed: %v", err)
	}
	if snap.Size != 6 || len(snap.Cells) != 36 {
		t.Fatalf("Unexpected snapshot shape: size=%d cells=%d", snap.Size, len(snap.Cells))
	}

	// Clear the board, then restore it
	if _, err := svc.Reset(ctx, info.ID, 0); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	result, err := svc.LoadState(ctx, info.ID, *snap)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if !result.Applied {
		t.Error("Expected load to be applied")
	}
	if result.State.Population != 4 {
		t.Errorf("Expected block restored (population 4), got %d", result.State.Population)
	}
	if result.State.Generation != 0 {
		t.Errorf("Expected generation 0 after load, got %d", result.State.Generation)
	}
}

func TestLoadState_InvalidFormat(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, service.CreateOptions{Size: 5})

	if _, err := svc.LoadState(ctx, info.ID, engine.Snapshot{}); !errors.Is(err, engine.ErrInvalidFormat) {
		t.Errorf("Expected ErrInvalidFormat, got %v", err)
	}
}

func TestApplyPattern(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, service.CreateOptions{Size: 8})

	result, err := svc.ApplyPattern(ctx, info.ID, "block", 3, 3)
	if err != nil {
		t.Fatalf("ApplyPattern failed: %v", err)
	}
	if !result.Applied {
		t.Error("Expected pattern to be applied")
	}
	if result.State.Population != 4 {
		t.Errorf("Expected population 4, got %d", result.State.Population)
	}

	// Out-of-range cells are clipped, not an error
	result, err = svc.ApplyPattern(ctx, info.ID, "block", 7, 7)
	if err != nil {
		t.Fatalf("ApplyPattern at edge failed: %v", err)
	}
	if result.State.Population != 5 {
		t.Errorf("Expected one extra clipped cell (population 5), got %d", result.State.Population)
	}
}

func TestDeleteSession_StopsEngine(t *testing.T) {
	svc, sessions, _ := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, service.CreateOptions{Size: 5})
	sess, _ := sessions.Get(info.ID)

	if _, err := svc.Start(ctx, info.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := svc.DeleteSession(ctx, info.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if sess.Engine.IsRunning() {
		t.Error("Expected engine stopped after session delete")
	}
	if _, err := svc.GetSession(ctx, info.ID); err == nil {
		t.Error("Expected session to be gone")
	}
}

func TestListSessions(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateSession(ctx, service.CreateOptions{Size: 5}); err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
	}

	infos, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(infos) != 3 {
		t.Errorf("Expected 3 sessions, got %d", len(infos))
	}
}

func TestMutationsAutoSave(t *testing.T) {
	svc, sessions, _ := newTestService()
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, service.CreateOptions{Size: 5})
	savesAfterCreate := sessions.saves

	if _, err := svc.ToggleCell(ctx, info.ID, 1, 1); err != nil {
		t.Fatalf("ToggleCell failed: %v", err)
	}
	if sessions.saves != savesAfterCreate+1 {
		t.Errorf("Expected one auto-save after toggle, got %d extra", sessions.saves-savesAfterCreate)
	}
}

func TestGetSession_ConcurrentRestoredSessions(t *testing.T) {
	svc, sessions, sink := newTestService()
	ctx := context.Background()

	// Seed sessions directly into the manager, as LoadPersistedSessions does
	// at startup: these never passed through CreateSession, so their event
	// sink is attached lazily on first access.
	ids := []string{"restored_1", "restored_2", "restored_3", "restored_4"}
	for _, id := range ids {
		eng, err := engine.NewEngine(5)
		if err != nil {
			t.Fatalf("Failed to create engine: %v", err)
		}
		sessions.sessions[id] = &service.Session{
			ID:             id,
			Engine:         eng,
			CreatedAt:      time.Now(),
			LastAccessedAt: time.Now(),
		}
	}

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				for _, id := range ids {
					if _, err := svc.GetSession(ctx, id); err != nil {
						t.Errorf("GetSession(%s) failed: %v", id, err)
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	// Each session must have been subscribed exactly once: one toggle emits
	// one cell_changed event per session, not one per concurrent access.
	for _, id := range ids {
		if _, err := svc.ToggleCell(ctx, id, 1, 1); err != nil {
			t.Fatalf("ToggleCell(%s) failed: %v", id, err)
		}
	}

	changed := sink.ofType(engine.EventCellChanged)
	if len(changed) != len(ids) {
		t.Errorf("Expected %d cell_changed events, got %d", len(ids), len(changed))
	}
	seen := make(map[string]int)
	for _, rec := range changed {
		seen[rec.sessionID]++
	}
	for _, id := range ids {
		if seen[id] != 1 {
			t.Errorf("Expected exactly 1 event for session %s, got %d", id, seen[id])
		}
	}
}
