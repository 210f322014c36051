package httpadapter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/visionops/camsight/internal/core/domain"
)

// streamEvents forwards the analysis event stream as server-sent events, one
// data frame per event, flushed immediately so progress reaches the client
// while workers are still running.
func streamEvents(w http.ResponseWriter, r *http.Request, events <-chan domain.Event) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming is not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			// Client disconnected; the use case observes the same context
			// and winds the job down.
			return
		case ev, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				slog.Error("sse_encode_failed", "event_type", string(ev.Type), "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// serveDataURL decodes a base64 data URL and serves the raw bytes; used by
// the image endpoint when the corpus is a local directory.
func serveDataURL(w http.ResponseWriter, locator string) {
	rest, ok := strings.CutPrefix(locator, "data:")
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "malformed image locator"})
		return
	}
	contentType, encoded, ok := strings.Cut(rest, ";base64,")
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "malformed image locator"})
		return
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "malformed image locator"})
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
