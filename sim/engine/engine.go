package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var (
	// ErrInvalidArgument is returned when a requested size or speed falls
	// outside the allowed bounds. The engine state is unchanged.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidFormat is returned when a snapshot passed to LoadState is
	// missing its size or cells. The engine state is unchanged.
	ErrInvalidFormat = errors.New("invalid snapshot format")
)

// Engine is the public contract of a single Life simulation instance.
//
// Lifecycle is a two-state machine: Idle (editable, stepping halted) and
// Running (automatic stepping active, edits are silent no-ops). Mutators
// that are disallowed in the current state report applied=false or return
// nil without side effects; they are defined no-ops, not errors.
type Engine interface {
	// State accessors
	Size() int
	Speed() float64
	Generation() int
	IsRunning() bool
	Cells() []Cell

	// Lifecycle
	Start()
	Stop()
	Step() bool

	// Structural mutators (Idle only)
	Reset(size int) error
	Randomize() bool
	ToggleCell(row, column int) bool

	// Allowed in either state
	ChangeSpeed(v float64) error

	// Snapshot boundary
	ExportState() Snapshot
	LoadState(snap Snapshot) error

	// Change notifications
	Subscribe(fn Subscriber) int
	Unsubscribe(id int)
}

// timerToken identifies one armed advance. A firing callback that no longer
// holds the current token returns without stepping, which makes Stop's
// cancellation exact rather than best-effort.
type timerToken struct{}

// LifeEngine implements the Engine interface. All state is guarded by mu;
// events are emitted after the lock is released so subscribers may read the
// engine (but must not mutate it) from their handlers.
type LifeEngine struct {
	mu         sync.Mutex
	size       int
	speed      float64
	generation int
	running    bool
	cells      []Cell
	prev       []bool // pre-step alive flags, reused between advances
	timer      *time.Timer
	pending    *timerToken
	rng        *rand.Rand
	events     broker
}

// NewEngine creates an Idle engine with an all-dead grid of the given size.
// A size of 0 selects DefaultSize.
func NewEngine(size int) (*LifeEngine, error) {
	return NewEngineWithSeed(size, time.Now().UnixNano())
}

// NewEngineWithSeed is NewEngine with a deterministic Randomize sequence.
func NewEngineWithSeed(size int, seed int64) (*LifeEngine, error) {
	if size == 0 {
		size = DefaultSize
	}
	if size < MinSize || size > MaxSize {
		return nil, fmt.Errorf("%w: size %d outside [%d, %d]", ErrInvalidArgument, size, MinSize, MaxSize)
	}

	return &LifeEngine{
		size:  size,
		speed: DefaultSpeed,
		cells: newGrid(size),
		prev:  make([]bool, size*size),
		rng:   rand.New(rand.NewSource(seed)),
	}, nil
}

// NewEngineWithDefaults creates an Idle engine with the default grid size.
func NewEngineWithDefaults() *LifeEngine {
	e, _ := NewEngine(DefaultSize)
	return e
}

// Size returns the current grid side length.
func (e *LifeEngine) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.size
}

// Speed returns the current rate in generations per second.
func (e *LifeEngine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// Generation returns the number of advances since the last reset or load.
func (e *LifeEngine) Generation() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// IsRunning reports whether the automatic stepping loop is active.
func (e *LifeEngine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Cells returns a read copy of the grid in id order. The engine exclusively
// owns the live sequence; callers never observe in-place mutation.
func (e *LifeEngine) Cells() []Cell {
	e.mu.Lock()
	defer e.mu.Unlock()
	cells := make([]Cell, len(e.cells))
	copy(cells, e.cells)
	return cells
}

// Start moves Idle -> Running: one immediate generation advance, then a
// repeating deferred advance every 1/speed seconds. No-op while Running.
func (e *LifeEngine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.events.emit(Event{Type: EventStarted})
	e.advance()
}

// Stop moves Running -> Idle and cancels the pending advance. A callback
// already racing the cancellation finds its token revoked and does not step.
// No-op while Idle.
func (e *LifeEngine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.pending = nil
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()

	e.events.emit(Event{Type: EventStopped})
}

// Step performs exactly one generation advance while Idle. It reports false
// without side effects while Running, where the stepping loop owns the grid.
func (e *LifeEngine) Step() bool {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return false
	}
	update := e.step()
	e.mu.Unlock()

	e.events.emit(Event{Type: EventNewGeneration, Generation: update})
	return true
}

// advance runs one generation and re-arms the timer if still Running.
func (e *LifeEngine) advance() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	update := e.step()

	// Arm the next advance. Only one timer is outstanding at a time; the
	// interval reads the speed at scheduling time, so a ChangeSpeed call
	// affects the next arm, not an in-flight wait.
	token := &timerToken{}
	e.pending = token
	e.timer = time.AfterFunc(time.Duration(float64(time.Second)/e.speed), func() {
		e.fire(token)
	})
	e.mu.Unlock()

	e.events.emit(Event{Type: EventNewGeneration, Generation: update})
}

func (e *LifeEngine) fire(token *timerToken) {
	e.mu.Lock()
	if !e.running || e.pending != token {
		e.mu.Unlock()
		return
	}
	e.pending = nil
	e.mu.Unlock()

	e.advance()
}

// Reset replaces the grid with all-dead cells of the given size and zeroes
// the generation counter. A size of 0 keeps the current size. Silent no-op
// while Running; ErrInvalidArgument if the requested size is out of bounds,
// leaving the prior grid untouched.
func (e *LifeEngine) Reset(size int) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	if size == 0 {
		size = e.size
	}
	if size < MinSize || size > MaxSize {
		e.mu.Unlock()
		return fmt.Errorf("%w: size %d outside [%d, %d]", ErrInvalidArgument, size, MinSize, MaxSize)
	}
	e.size = size
	e.cells = newGrid(size)
	e.prev = make([]bool, size*size)
	e.generation = 0
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.events.emit(Event{Type: EventReset})
	e.events.emit(Event{Type: EventGridChanged, Grid: &snap})
	return nil
}

// Randomize sets each cell's alive flag independently with 50% probability.
// Reports false without side effects while Running.
func (e *LifeEngine) Randomize() bool {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return false
	}
	for i := range e.cells {
		e.cells[i].Alive = e.rng.Intn(2) == 1
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.events.emit(Event{Type: EventGridChanged, Grid: &snap})
	return true
}

// ToggleCell flips the alive flag of exactly one cell. Out-of-range
// positions and calls while Running report false with no side effect and
// no notification.
func (e *LifeEngine) ToggleCell(row, column int) bool {
	e.mu.Lock()
	if e.running || !isValidPosition(row, column, e.size) {
		e.mu.Unlock()
		return false
	}
	idx := row*e.size + column
	e.cells[idx].Alive = !e.cells[idx].Alive
	cell := e.cells[idx]
	e.mu.Unlock()

	e.events.emit(Event{Type: EventCellChanged, Cell: &cell})
	return true
}

// ChangeSpeed sets the stepping rate in generations per second. It is
// permitted in either state and affects only subsequently armed intervals.
func (e *LifeEngine) ChangeSpeed(v float64) error {
	e.mu.Lock()
	if v < MinSpeed || v > MaxSpeed {
		e.mu.Unlock()
		return fmt.Errorf("%w: speed %g outside [%g, %g]", ErrInvalidArgument, v, MinSpeed, MaxSpeed)
	}
	e.speed = v
	e.mu.Unlock()

	e.events.emit(Event{Type: EventSpeedChanged, Speed: v})
	return nil
}

// ExportState produces a snapshot of the current size and cells. Permitted
// in either state.
func (e *LifeEngine) ExportState() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// LoadState replaces the grid and size from a snapshot and zeroes the
// generation counter. Silent no-op while Running; ErrInvalidFormat if the
// snapshot is missing its size or cells. Loaded size and per-cell shape are
// not re-validated against the engine bounds.
func (e *LifeEngine) LoadState(snap Snapshot) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	if snap.Size == 0 || snap.Cells == nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: snapshot requires both size and cells", ErrInvalidFormat)
	}
	e.size = snap.Size
	e.cells = make([]Cell, len(snap.Cells))
	copy(e.cells, snap.Cells)
	e.prev = make([]bool, len(e.cells))
	e.generation = 0
	loaded := e.snapshotLocked()
	e.mu.Unlock()

	e.events.emit(Event{Type: EventGridChanged, Grid: &loaded})
	return nil
}

// Subscribe registers a change-notification handler and returns its handle.
func (e *LifeEngine) Subscribe(fn Subscriber) int {
	return e.events.subscribe(fn)
}

// Unsubscribe removes a previously registered handler.
func (e *LifeEngine) Unsubscribe(id int) {
	e.events.unsubscribe(id)
}

// snapshotLocked copies size and cells. Caller holds e.mu.
func (e *LifeEngine) snapshotLocked() Snapshot {
	cells := make([]Cell, len(e.cells))
	copy(cells, e.cells)
	return Snapshot{Size: e.size, Cells: cells}
}
