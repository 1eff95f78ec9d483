// Package websocket streams simulation events to watching clients.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - Fan-out of engine events to all watchers of a session
//   - Connection lifecycle management with ping/pong keepalive
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection is handled by dedicated
// read and write goroutines; the hub's Run loop owns the session map, so
// register, unregister and broadcast all funnel through its channels.
//
// Message Protocol:
//
// Outgoing frames are JSON-encoded simulation events:
//
//	{"session_id": "abc1", "event": {"type": "new_generation", "generation": {...}}}
//
// Incoming messages are ignored; the stream is one-way. Event types are
// started, stopped, reset, speed_changed, grid_changed, cell_changed and
// new_generation, with exactly the payload fields relevant to each type.
//
// Session Integration:
//
// Clients specify their session ID via query parameter (?session=abc1)
// when establishing the connection. Events are broadcast only to clients
// watching the same session.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Delivery:
//
// Engines emit events synchronously, so BroadcastToSession never blocks:
// events are queued on a buffered channel and dropped if the queue or an
// individual client's send buffer is full. The stream is best-effort;
// clients needing exact state re-fetch it over the REST API.
package websocket
