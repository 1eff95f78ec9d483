// Package engine implements the Game of Life simulation core.
//
// The engine package provides:
//   - A finite, non-toroidal cell grid with stable row-major cell ids
//   - The synchronous generation-advance algorithm (Moore neighborhood,
//     classic birth/survival rules)
//   - The Idle/Running lifecycle state machine with exact timer cancellation
//   - Typed change notifications consumed by renderers and transports
//   - A size+cells snapshot boundary for export and import
//
// Core Types:
//
// The Engine interface defines the simulation contract, implemented by
// LifeEngine. Cell and Snapshot are the data model; Event and Subscriber
// form the notification channel.
//
// Usage:
//
//	eng, err := engine.NewEngine(64)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng.ToggleCell(2, 3)
//	eng.Subscribe(func(ev engine.Event) {
//		if ev.Type == engine.EventNewGeneration {
//			// repaint ev.Generation.Born / ev.Generation.Killed
//		}
//	})
//	eng.Start()
//
// Lifecycle:
//
// Structural mutators (Reset, Randomize, ToggleCell, LoadState) only apply
// while Idle; while Running they are defined no-ops that emit nothing. This
// is how the engine serializes user edits against the automatic stepping
// loop: the state machine itself enforces mutual exclusion, and no operation
// blocks its caller.
package engine
