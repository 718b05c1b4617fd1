// Package aggregator is a minimal receiver for relayed records.
//
// It accepts any JSON body on the submit route, logs it and acknowledges
// with {"ok":true}. It stores nothing and never deduplicates.
package aggregator

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/mschirtzinger/lanform/internal/relay"
)

// maxBody caps the bytes read from one request.
const maxBody = 1 << 20

// Notifier is told about every accepted body.
type Notifier interface {
	OnReceived(body json.RawMessage, remote string)
}

// Handler serves the submit route.
type Handler struct {
	notifier Notifier
	logger   *log.Logger
}

// New creates a Handler. notifier may be nil.
func New(notifier Notifier, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(os.Stderr, "[aggregator] ", log.LstdFlags)
	}
	return &Handler{notifier: notifier, logger: logger}
}

// Register mounts the handler on mux at relay.DefaultPath.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle(relay.DefaultPath, h)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body := decodeBody(r)
	h.logger.Printf("Received submission from %s: %s", r.RemoteAddr, body)
	if h.notifier != nil {
		h.notifier.OnReceived(body, r.RemoteAddr)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}` + "\n"))
}

// decodeBody returns the request body as compact JSON, or {} when the body
// is missing or not valid JSON.
func decodeBody(r *http.Request) json.RawMessage {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return json.RawMessage("{}")
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return json.RawMessage("{}")
	}
	compact, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return compact
}
