package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/visionops/camsight/internal/core/ports"
	"github.com/visionops/camsight/internal/observability/metrics"
)

type Router struct {
	sessions ports.SessionService
	streamer ports.QueryStreamer
	source   ports.ImageSource
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	sessions ports.SessionService,
	streamer ports.QueryStreamer,
	source ports.ImageSource,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		sessions: sessions,
		streamer: streamer,
		source:   source,
		metrics:  httpMetrics,
	}
}

func (rt *Router) Handler(service string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/sessions", rt.sessionsCollection)
	mux.HandleFunc("/v1/sessions/", rt.sessionByID)
	mux.HandleFunc("/v1/analyze/stream", rt.analyzeStream)
	mux.HandleFunc("/v1/images/", rt.imageByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) sessionsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		session, err := rt.sessions.CreateSession(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, session)
	case http.MethodGet:
		summaries, err := rt.sessions.ListSessions(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) sessionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		session, err := rt.sessions.GetSession(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	case http.MethodDelete:
		if err := rt.sessions.DeleteSession(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) analyzeStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id is required"})
		return
	}

	events, err := rt.streamer.SubmitQuery(r.Context(), sessionID, query)
	if err != nil {
		writeError(w, err)
		return
	}
	streamEvents(w, r, events)
}

// imageByID redirects to the image's current locator rather than proxying
// bytes through the engine.
func (rt *Router) imageByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/images/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image id is required"})
		return
	}

	locator, err := rt.source.Resolve(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if strings.HasPrefix(locator, "data:") {
		serveDataURL(w, locator)
		return
	}
	http.Redirect(w, r, locator, http.StatusFound)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
