// Package api provides the HTTP REST surface of the Game of Life server.
//
// The api package implements:
//   - RESTful endpoints for session and simulation operations
//   - Pattern catalog listing and stamping
//   - Grid snapshot export/import
//   - WebSocket upgrade handling for event streaming
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session (optional size, speed, pattern)
//   - GET /api/sessions - List all sessions (sort, order, limit query params)
//   - GET /api/sessions/{id} - Get one session with its state
//   - DELETE /api/sessions/{id} - Delete a session
//
// Simulation Lifecycle:
//   - POST /api/sessions/{id}/start - Begin automatic stepping
//   - POST /api/sessions/{id}/stop - Halt automatic stepping
//   - POST /api/sessions/{id}/step - Advance exactly one generation
//   - POST /api/sessions/{id}/speed - Set generations per second
//
// Grid Operations:
//   - GET /api/sessions/{id}/cells - Current grid snapshot
//   - POST /api/sessions/{id}/cells/toggle - Flip one cell
//   - POST /api/sessions/{id}/randomize - Random 50% fill
//   - POST /api/sessions/{id}/reset - Clear, optionally resizing
//   - GET /api/sessions/{id}/export - Export snapshot JSON
//   - POST /api/sessions/{id}/import - Replace grid from snapshot JSON
//
// Patterns:
//   - GET /api/patterns - List available seed patterns
//   - POST /api/sessions/{id}/patterns/{name} - Stamp a pattern at (row, column)
//
// Streaming:
//   - GET /ws?sessionId={id} - WebSocket event stream for one session
//
// Mutating endpoints return an operation result:
//
//	{
//	  "applied": true|false,
//	  "state": { "running": false, "generation": 3, "speed": 1, "size": 128, "population": 5 }
//	}
//
// applied is false when the board was running and the edit was ignored;
// that is a successful response, not an error.
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "error message",
//	  "code": 400
//	}
//
// Unknown sessions and patterns map to 404; invalid sizes, speeds,
// coordinates, snapshots and pattern files map to 400.
package api
