package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ondraz/printlink/internal/filejob"
	"github.com/ondraz/printlink/internal/history"
	"github.com/ondraz/printlink/internal/infrastructure/config"
	"github.com/ondraz/printlink/internal/infrastructure/logging"
	"github.com/ondraz/printlink/internal/state"
)

// blockingSender parks every Send until released, so tests can hold a
// job open while exercising the control endpoints.
type blockingSender struct {
	release chan struct{}
}

func (s *blockingSender) Send(ctx context.Context, _ string) (string, error) {
	select {
	case <-s.release:
		return "cmd", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *blockingSender) PausePrint(context.Context) (string, error)  { return "cmd", nil }
func (s *blockingSender) ResumePrint(context.Context) (string, error) { return "cmd", nil }
func (s *blockingSender) StopPrint(context.Context) (string, error)   { return "cmd", nil }

// memHistory is an in-memory transition history repository.
type memHistory struct {
	records []history.TransitionRecord
}

func (m *memHistory) Record(_ context.Context, tr state.Transition) error {
	m.records = append(m.records, history.TransitionRecord{
		ID:         int64(len(m.records) + 1),
		From:       tr.From,
		To:         tr.To,
		Source:     tr.Source,
		CommandID:  tr.CommandID,
		RecordedAt: time.Now().UTC(),
	})
	return nil
}

func (m *memHistory) Recent(_ context.Context, limit int) ([]history.TransitionRecord, error) {
	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}
	out := make([]history.TransitionRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

type testHarness struct {
	server  *Server
	router  http.Handler
	manager *state.Manager
	history *memHistory
	sender  *blockingSender
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	cfg := config.APIConfig{
		Host: "127.0.0.1",
		Auth: config.APIAuthConfig{
			Secret:   "test-secret",
			APIKey:   "test-key",
			TokenTTL: 5,
		},
		WebSocket: config.WebSocketConfig{
			PingInterval:   30,
			PongTimeout:    60,
			MaxMessageSize: 4096,
		},
	}

	sender := &blockingSender{release: make(chan struct{})}
	mgr := state.NewManager()
	driver := filejob.NewDriver(sender, mgr, nil)
	mgr.SetJobStatus(driver)
	hist := &memHistory{}

	srv, err := New(Deps{
		Config:  cfg,
		Logger:  logging.Default(),
		Manager: mgr,
		History: hist,
		Jobs:    driver,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return &testHarness{
		server:  srv,
		router:  srv.buildRouter(),
		manager: mgr,
		history: hist,
		sender:  sender,
	}
}

func (h *testHarness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *testHarness) login(t *testing.T) string {
	t.Helper()

	rec := h.do(t, http.MethodPost, "/api/v1/auth/login", "", loginRequest{APIKey: "test-key"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal login response: %v", err)
	}
	return resp.AccessToken
}

func TestLogin(t *testing.T) {
	h := newTestHarness(t)

	t.Run("valid key", func(t *testing.T) {
		token := h.login(t)
		if token == "" {
			t.Error("empty access token")
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/api/v1/auth/login", "", loginRequest{APIKey: "wrong"})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestHarness(t)

	t.Run("missing token", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/api/v1/status", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/api/v1/status", "not-a-jwt", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/api/v1/status", h.login(t), nil)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestHealthAndVersion(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}

	rec = h.do(t, http.MethodGet, "/api/v1/version", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("version status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal version response: %v", err)
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
}

func TestStatus(t *testing.T) {
	h := newTestHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/status", h.login(t), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal status response: %v", err)
	}
	if resp.State != state.StateReady {
		t.Errorf("state = %v, want %v", resp.State, state.StateReady)
	}
	if resp.Printing {
		t.Error("printing = true for idle printer")
	}
	if resp.Job.Active {
		t.Error("job active with no job")
	}
}

func TestStateHistory(t *testing.T) {
	h := newTestHarness(t)
	token := h.login(t)

	for _, tr := range []state.Transition{
		{From: state.StateReady, To: state.StatePrinting, Source: state.SourceUser, CommandID: "cmd-1"},
		{From: state.StatePrinting, To: state.StateFinished, Source: state.SourceFirmware},
	} {
		if err := h.history.Record(context.Background(), tr); err != nil {
			t.Fatalf("seed history: %v", err)
		}
	}

	rec := h.do(t, http.MethodGet, "/api/v1/state/history", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Transitions []history.TransitionRecord `json:"transitions"`
		Count       int                        `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal history response: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2", resp.Count)
	}
	if resp.Transitions[0].To != state.StateFinished {
		t.Errorf("newest transition To = %v, want %v", resp.Transitions[0].To, state.StateFinished)
	}

	rec = h.do(t, http.MethodGet, "/api/v1/state/history?limit=abc", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}
}

func TestJobLifecycle(t *testing.T) {
	h := newTestHarness(t)
	token := h.login(t)

	path := filepath.Join(t.TempDir(), "part.gcode")
	if err := os.WriteFile(path, []byte("G28\nG1 X10\nM104 S0\n"), 0600); err != nil {
		t.Fatalf("write gcode file: %v", err)
	}

	t.Run("pause without job", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/api/v1/job/pause", token, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("start", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/api/v1/job", token, startJobRequest{Path: path})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var status filejob.Status
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			t.Fatalf("unmarshal job status: %v", err)
		}
		if !status.Active || status.FileName != "part.gcode" {
			t.Errorf("job status = %+v", status)
		}
	})

	t.Run("second start conflicts", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/api/v1/job", token, startJobRequest{Path: path})
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("pause and resume", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/api/v1/job/pause", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("pause status = %d: %s", rec.Code, rec.Body.String())
		}
		var status filejob.Status
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			t.Fatalf("unmarshal job status: %v", err)
		}
		if !status.Paused {
			t.Error("job not paused after pause")
		}

		rec = h.do(t, http.MethodPost, "/api/v1/job/resume", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("resume status = %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("stop", func(t *testing.T) {
		rec := h.do(t, http.MethodDelete, "/api/v1/job", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("stop status = %d: %s", rec.Code, rec.Body.String())
		}
		h.server.jobs.Wait()
		if h.server.jobs.Printing() {
			t.Error("job still printing after stop")
		}
	})

	t.Run("missing path", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/api/v1/job", token, startJobRequest{})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestWSTicket(t *testing.T) {
	h := newTestHarness(t)
	token := h.login(t)

	rec := h.do(t, http.MethodPost, "/api/v1/auth/ws-ticket", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Ticket string `json:"ticket"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal ticket response: %v", err)
	}
	if resp.Ticket == "" {
		t.Fatal("empty ticket")
	}

	if !h.server.tickets.consume(resp.Ticket) {
		t.Error("fresh ticket did not validate")
	}
	if h.server.tickets.consume(resp.Ticket) {
		t.Error("ticket validated twice - must be single use")
	}
}

func TestWebSocketRequiresTicket(t *testing.T) {
	h := newTestHarness(t)
	token := h.login(t)

	rec := h.do(t, http.MethodGet, "/api/v1/ws", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
