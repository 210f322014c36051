package httpadapter

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/visionops/camsight/internal/core/domain"
)

type fakeSessions struct {
	session *domain.Session
	err     error
}

func (f *fakeSessions) CreateSession(ctx context.Context) (*domain.Session, error) {
	return f.session, f.err
}

func (f *fakeSessions) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeSessions) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.SessionSummary{{ID: "s1", Title: "Stray dogs"}}, nil
}

func (f *fakeSessions) DeleteSession(ctx context.Context, id string) error {
	return f.err
}

type fakeStreamer struct {
	events []domain.Event
	err    error
}

func (f *fakeStreamer) SubmitQuery(ctx context.Context, sessionID, query string) (<-chan domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(chan domain.Event, len(f.events))
	for _, ev := range f.events {
		out <- ev
	}
	close(out)
	return out, nil
}

type fakeSource struct {
	locator string
	err     error
}

func (f *fakeSource) List(ctx context.Context) ([]domain.ImageRef, error) { return nil, nil }

func (f *fakeSource) Resolve(ctx context.Context, id string) (string, error) {
	return f.locator, f.err
}

func (f *fakeSource) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func newTestRouter(sessions *fakeSessions, streamer *fakeStreamer, source *fakeSource) http.Handler {
	if sessions == nil {
		sessions = &fakeSessions{}
	}
	if streamer == nil {
		streamer = &fakeStreamer{}
	}
	if source == nil {
		source = &fakeSource{}
	}
	return NewRouter(sessions, streamer, source, nil).Handler("test")
}

func TestHealthz(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("response should carry a request id")
	}
}

func TestRequestIDHeaderHandling(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)

	inbound := "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, inbound)
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != inbound {
		t.Errorf("request id = %q, want inbound %q echoed", got, inbound)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid\n")
	handler.ServeHTTP(rec, req)
	got := rec.Header().Get(requestIDHeader)
	if got == "not-a-uuid\n" || got == "" {
		t.Errorf("malformed inbound id should be replaced, got %q", got)
	}
}

func TestCreateSession(t *testing.T) {
	now := time.Now().UTC()
	sessions := &fakeSessions{session: &domain.Session{ID: "s1", Title: "New Analysis Session", CreatedAt: now, UpdatedAt: now}}
	handler := newTestRouter(sessions, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sessions", nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got domain.Session
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "s1" {
		t.Errorf("session id = %q", got.ID)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	sessions := &fakeSessions{err: domain.WrapError(domain.ErrSessionNotFound, "get session", errors.New("id missing"))}
	handler := newTestRouter(sessions, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sessions/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAnalyzeStreamRequiresSessionID(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analyze/stream?query=dogs", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyzeStreamInvalidQueryMapsTo400(t *testing.T) {
	streamer := &fakeStreamer{err: domain.WrapError(domain.ErrInvalidInput, "submit query", errors.New("query text is empty"))}
	handler := newTestRouter(nil, streamer, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analyze/stream?session_id=s1&query=", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAnalyzeStreamEmitsSSEFrames(t *testing.T) {
	streamer := &fakeStreamer{events: []domain.Event{
		domain.StartEvent("find dogs"),
		domain.ProgressEvent(1, 2),
		domain.CompleteEvent(domain.AnalysisResult{TotalImages: 2, MatchesFound: 1, FinalAnswer: "one dog"}),
	}}
	handler := newTestRouter(nil, streamer, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/analyze/stream?session_id=s1&query=find+dogs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	var types []string
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("bad frame %q: %v", line, err)
		}
		types = append(types, ev.Type)
	}
	want := []string{"start", "progress", "complete"}
	if len(types) != len(want) {
		t.Fatalf("frame types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("frame %d = %q, want %q", i, types[i], want[i])
		}
	}
}

func TestImageRedirect(t *testing.T) {
	source := &fakeSource{locator: "https://storage.example.com/signed/a.jpg"}
	handler := newTestRouter(nil, nil, source)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/images/a.jpg", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != source.locator {
		t.Errorf("location = %q", loc)
	}
}

func TestImageServesDataURL(t *testing.T) {
	source := &fakeSource{locator: "data:image/jpeg;base64,/9j/4A=="}
	handler := newTestRouter(nil, nil, source)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/images/a.jpg", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type = %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected decoded image bytes")
	}
}
