package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gridlife/lifeserver/sim/engine"
	"github.com/gridlife/lifeserver/sim/pattern"
	"github.com/gridlife/lifeserver/sim/service"
	"github.com/gridlife/lifeserver/sim/session"
	"github.com/gridlife/lifeserver/transport/websocket"
)

func newTestServer() *Server {
	sessions := session.NewManager()
	patterns := pattern.NewManager("")
	simService := service.NewSimService(sessions, patterns, nil)
	return NewServer(simService, websocket.NewHub())
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response: %v (body: %s)", err, rec.Body.String())
	}
}

func createSession(t *testing.T, srv *Server, opts map[string]interface{}) string {
	t.Helper()

	rec := doJSON(t, srv, "POST", "/api/sessions", opts)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 creating session, got %d: %s", rec.Code, rec.Body.String())
	}

	var info service.SessionInfo
	decode(t, rec, &info)
	return info.ID
}

func TestCreateSession(t *testing.T) {
	srv := newTestServer()

	rec := doJSON(t, srv, "POST", "/api/sessions", map[string]interface{}{"size": 10, "speed": 25})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var info service.SessionInfo
	decode(t, rec, &info)
	if info.State.Size != 10 {
		t.Errorf("Expected size 10, got %d", info.State.Size)
	}
	if info.State.Speed != 25 {
		t.Errorf("Expected speed 25, got %f", info.State.Speed)
	}
}

func TestCreateSession_InvalidSize(t *testing.T) {
	srv := newTestServer()

	rec := doJSON(t, srv, "POST", "/api/sessions", map[string]interface{}{"size": 2000})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for oversized grid, got %d", rec.Code)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	srv := newTestServer()

	rec := doJSON(t, srv, "GET", "/api/sessions/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", rec.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer()
	id := createSession(t, srv, nil)

	rec := doJSON(t, srv, "DELETE", "/api/sessions/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 deleting session, got %d", rec.Code)
	}

	rec = doJSON(t, srv, "GET", "/api/sessions/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}
}

func TestListSessions(t *testing.T) {
	srv := newTestServer()
	createSession(t, srv, nil)
	createSession(t, srv, nil)

	rec := doJSON(t, srv, "GET", "/api/sessions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var response struct {
		Count    int                    `json:"count"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	decode(t, rec, &response)
	if response.Count != 2 {
		t.Errorf("Expected 2 sessions, got %d", response.Count)
	}
}

func TestLifecycle(t *testing.T) {
	srv := newTestServer()
	id := createSession(t, srv, map[string]interface{}{"size": 5})

	rec := doJSON(t, srv, "POST", fmt.Sprintf("/api/sessions/%s/start", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 starting, got %d: %s", rec.Code, rec.Body.String())
	}
	var state service.StateInfo
	decode(t, rec, &state)
	if !state.Running {
		t.Error("Expected running after start")
	}
	if state.Generation != 1 {
		t.Errorf("Expected generation 1 after start, got %d", state.Generation)
	}

	// Structural edits are declined with applied=false while running
	rec = doJSON(t, srv, "POST", fmt.Sprintf("/api/sessions/%s/randomize", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var result service.OpResult
	decode(t, rec, &result)
	if result.Applied {
		t.Error("Expected randomize to be ignored while running")
	}

	rec = doJSON(t, srv, "POST", fmt.Sprintf("/api/sessions/%s/stop", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 stopping, got %d", rec.Code)
	}
	decode(t, rec, &state)
	if state.Running {
		t.Error("Expected idle after stop")
	}
}

func TestStepAndToggle(t *testing.T) {
	srv := newTestServer()
	id := createSession(t, srv, map[string]interface{}{"size": 5})

	// Horizontal blinker at row 2
	for col := 1; col <= 3; col++ {
		rec := doJSON(t, srv, "POST", fmt.Sprintf("/api/sessions/%s/cells/toggle", id),
			map[string]interface{}{"row": 2, "column": col})
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200 toggling, got %d", rec.Code)
		}
	}

	rec := doJSON(t, srv, "POST", fmt.Sprintf("/api/sessions/%s/step", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 stepping, got %d", rec.Code)
	}

	var result service.OpResult
	decode(t, rec, &result)
	if !result.Applied {
		t.Error("Expected step to be applied")
	}
	if result.State.Generation != 1 {
		t.Errorf("Expected generation 1, got %d", result.State.Generation)
	}
	if result.State.Population != 3 {
		t.Errorf("Expected blinker population 3, got %d", result.State.Population)
	}
}

func TestReset(t *testing.T) {
	srv := newTestServer()
	id := createSession(t, srv, map[string]interface{}{"size": 5})

	rec := doJSON(t, srv, "POST", fmt.Sprintf("/api/sessions/%s/reset", id),
		map[string]interface{}{"size": 8})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var result service.OpResult
	decode(t, rec, &result)
	if result.State.Size != 8 {
		t.Errorf("Expected size 8 after reset, got %d", result.State.Size)
	}

	// Out-of-range size maps to a 400
	rec = doJSON(t, srv, "POST", fmt.Sprintf("/api/sessions/%s/reset", id),
		map[string]interface{}{"size": 2})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid size, got %d", rec.Code)
	}
}

func TestChangeSpeed(t *testing.T) {
	srv := newTestServer()
	id := createSession(t, srv, nil)

	rec := doJSON(t, srv, "POST", fmt.Sprintf("/api/sessions/%s/speed", id),
		map[string]interface{}{"speed": 50.0})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var result service.OpResult
	decode(t, rec, &result)
	if result.State.Speed != 50 {
		t.Errorf("Expected speed 50, got %f", result.State.Speed)
	}

	rec = doJSON(t, srv, "POST", fmt.Sprintf("/api/sessions/%s/speed", id),
		map[string]interface{}{"speed": 500.0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for out-of-range speed, got %d", rec.Code)
	}
}

func TestExportImport(t *testing.T) {
	srv := newTestServer()
	id := createSession(t, srv, map[string]interface{}{"size": 6, "pattern": "block"})

	rec := doJSON(t, srv, "GET", fmt.Sprintf("/api/sessions/%s/export", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 exporting, got %d", rec.Code)
	}
	var snap engine.Snapshot
	decode(t, rec, &snap)
	if snap.Size != 6 || len(snap.Cells) != 36 {
		t.Fatalf("Unexpected snapshot: size=%d cells=%d", snap.Size, len(snap.Cells))
	}

	// Import the snapshot into a fresh session
	other := createSession(t, srv, map[string]interface{}{"size": 5})
	rec = doJSON(t, srv, "POST", fmt.Sprintf("/api/sessions/%s/import", other), snap)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 importing, got %d: %s", rec.Code, rec.Body.String())
	}
	var result service.OpResult
	decode(t, rec, &result)
	if result.State.Size != 6 {
		t.Errorf("Expected imported size 6, got %d", result.State.Size)
	}
	if result.State.Population != 4 {
		t.Errorf("Expected imported population 4, got %d", result.State.Population)
	}
}

func TestImport_InvalidFormat(t *testing.T) {
	srv := newTestServer()
	id := createSession(t, srv, nil)

	rec := doJSON(t, srv, "POST", fmt.Sprintf("/api/sessions/%s/import", id),
		map[string]interface{}{"size": 0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed snapshot, got %d", rec.Code)
	}
}

func TestPatterns(t *testing.T) {
	srv := newTestServer()

	rec := doJSON(t, srv, "GET", "/api/patterns", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var response struct {
		Count    int                    `json:"count"`
		Patterns []*service.PatternInfo `json:"patterns"`
	}
	decode(t, rec, &response)
	if response.Count < 8 {
		t.Errorf("Expected at least 8 built-in patterns, got %d", response.Count)
	}

	id := createSession(t, srv, map[string]interface{}{"size": 10})
	rec = doJSON(t, srv, "POST", fmt.Sprintf("/api/sessions/%s/patterns/glider", id),
		map[string]interface{}{"row": 2, "column": 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 applying pattern, got %d: %s", rec.Code, rec.Body.String())
	}
	var result service.OpResult
	decode(t, rec, &result)
	if result.State.Population != 5 {
		t.Errorf("Expected glider population 5, got %d", result.State.Population)
	}

	rec = doJSON(t, srv, "POST", fmt.Sprintf("/api/sessions/%s/patterns/unknown", id), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown pattern, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer()

	rec := doJSON(t, srv, "GET", "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var health map[string]string
	decode(t, rec, &health)
	if health["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %q", health["status"])
	}
}

func TestWebSocket_MissingSessionParam(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest("GET", "/ws", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without session parameter, got %d", rec.Code)
	}
}

func TestWebSocket_UnknownSession(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest("GET", "/ws?session=ghost", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", rec.Code)
	}
}

func TestUnknownPath_NotFound(t *testing.T) {
	srv := newTestServer()

	// No filesystem-backed catch-all: unknown paths 404 from the router
	for _, path := range []string{"/", "/index.html", "/static/app.js"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404 for %s, got %d", path, rec.Code)
		}
	}
}
