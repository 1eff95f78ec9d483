// Package session provides session management for the Life server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management and expiry cleanup
//   - JSON file persistence of board snapshots
//
// Core Types:
//
// Manager is the main session manager handling all session operations.
// Each session owns an independent engine instance plus creation and
// last-access metadata. Persistence abstracts storage; FilePersistence
// keeps one JSON file per session holding the grid snapshot and speed.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs generated from cryptographic
// randomness and matched case-insensitively.
//
// Concurrency:
//
// The manager is thread-safe; multiple goroutines can create, retrieve,
// and delete different sessions simultaneously. Expiring or deleting a
// session stops its engine so no stepping timer outlives its board.
package session
