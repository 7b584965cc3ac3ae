package pipeline

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(orch *Orchestrator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(orch).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func decodeSnapshot(t *testing.T, resp *httptest.ResponseRecorder) Snapshot {
	t.Helper()
	var snap Snapshot
	if err := json.Unmarshal(resp.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v (%s)", err, resp.Body.String())
	}
	return snap
}

func TestSessionEndpointsFullFlow(t *testing.T) {
	f := newFixture()
	router := newTestRouter(f.orch)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	started := decodeSnapshot(t, resp)
	if started.State != StateRecording {
		t.Fatalf("expected recording, got %s", started.State)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+started.ID+"/audio", bytes.NewReader([]byte("chunk-1")))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("audio: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+started.ID+"/stop", bytes.NewReader([]byte("chunk-2")))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("stop: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	final := decodeSnapshot(t, resp)
	if final.State != StateDone {
		t.Fatalf("expected done, got %s (%s)", final.State, final.Error)
	}
	if final.EntryID == "" || !final.EmailSent {
		t.Fatalf("unexpected final snapshot: %+v", final)
	}
	if got := f.recorder.buf.String(); got != "chunk-1chunk-2" {
		t.Fatalf("expected both chunks ingested, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+started.ID, nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.Code)
	}
	if got := decodeSnapshot(t, resp); got.State != StateDone {
		t.Fatalf("expected persisted done state, got %s", got.State)
	}
}

func TestSessionStartWithoutPermission(t *testing.T) {
	f := newFixture()
	f.transcribe.permission = false
	router := newTestRouter(f.orch)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "permission_required") {
		t.Fatalf("expected permission_required code: %s", resp.Body.String())
	}
}

func TestSessionStartWhileBusy(t *testing.T) {
	f := newFixture()
	router := newTestRouter(f.orch)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("first start: expected 201, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "capture_busy") {
		t.Fatalf("expected capture_busy code: %s", resp.Body.String())
	}
}

func TestSessionUnknownIDIs404(t *testing.T) {
	f := newFixture()
	router := newTestRouter(f.orch)

	for _, path := range []string{
		"/api/v1/sessions/ghost/stop",
		"/api/v1/sessions/ghost/cancel",
		"/api/v1/sessions/ghost/audio",
	} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, resp.Code)
		}
	}
}

func TestSessionStopTwiceIsConflict(t *testing.T) {
	f := newFixture()
	router := newTestRouter(f.orch)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	started := decodeSnapshot(t, resp)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+started.ID+"/stop", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("first stop: expected 200, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+started.ID+"/stop", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("second stop: expected 409, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "invalid_state") {
		t.Fatalf("expected invalid_state code: %s", resp.Body.String())
	}
}

func TestSessionCancelEndpoint(t *testing.T) {
	f := newFixture()
	router := newTestRouter(f.orch)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	started := decodeSnapshot(t, resp)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+started.ID+"/cancel", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", resp.Code)
	}
	if got := decodeSnapshot(t, resp); got.State != StateCancelled {
		t.Fatalf("expected cancelled, got %s", got.State)
	}
}
