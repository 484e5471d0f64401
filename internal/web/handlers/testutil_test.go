package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shelfgate/shelfgate/internal/biometric"
	"github.com/shelfgate/shelfgate/internal/hardware"
	"github.com/shelfgate/shelfgate/internal/session"
	"github.com/shelfgate/shelfgate/internal/store/mock"
)

// testStation is the wiring the handlers sit on: an in-memory store,
// simulated hardware and a live orchestrator.
type testStation struct {
	store  *mock.MockStore
	reader *hardware.SimReader
	camera *hardware.SimCamera
	status *session.StatusCell
	orch   *session.Orchestrator
}

func newTestStation(t *testing.T) *testStation {
	t.Helper()
	ts := &testStation{
		store:  mock.NewMockStore(),
		reader: &hardware.SimReader{},
		camera: &hardware.SimCamera{},
		status: session.NewStatusCell(),
	}
	sess := session.New(ts.store, ts.reader, ts.camera, ts.status, session.Config{
		Tolerance:  biometric.DefaultTolerance,
		LoanPeriod: 14 * 24 * time.Hour,
	})
	ts.orch = session.NewOrchestrator(sess, ts.status)
	return ts
}

// waitTerminal waits until the running session reaches success or
// error and returns the terminal status.
func (ts *testStation) waitTerminal(t *testing.T) session.Status {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		current := ts.status.Get()
		if current.Phase.Terminal() && !ts.orch.Busy() {
			return current
		}
		if time.Now().After(deadline) {
			t.Fatalf("session did not finish, status %+v", current)
		}
		time.Sleep(time.Millisecond)
	}
}

// blockingReader blocks every Read until released, to hold the
// orchestrator slot open during a test.
type blockingReader struct {
	release chan struct{}
}

func (r *blockingReader) Read(ctx context.Context) (string, error) {
	select {
	case <-r.release:
		return "", hardware.ErrReadTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *blockingReader) Write(ctx context.Context, tagID, payload string) error {
	return nil
}

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d: %s", expected, recorder.Code, recorder.Body.String())
	}
}

func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	if got := recorder.Header().Get("Content-Type"); got != expected {
		t.Errorf("expected content type %q, got %q", expected, got)
	}
}

func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse response %q: %v", recorder.Body.String(), err)
	}
}
