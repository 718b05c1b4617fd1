package aggregator

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mschirtzinger/lanform/internal/connectivity"
	"github.com/mschirtzinger/lanform/internal/record"
	"github.com/mschirtzinger/lanform/internal/relay"
)

type recordingNotifier struct {
	mu     sync.Mutex
	bodies []string
}

func (n *recordingNotifier) OnReceived(body json.RawMessage, remote string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bodies = append(n.bodies, string(body))
}

func setupServer(t *testing.T) (*httptest.Server, *recordingNotifier) {
	t.Helper()

	n := &recordingNotifier{}
	mux := http.NewServeMux()
	New(n, log.New(io.Discard, "", 0)).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, n
}

func TestSubmitAcknowledges(t *testing.T) {
	srv, n := setupServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"valid json", `{"name": "Ada"}`, `{"name":"Ada"}`},
		{"invalid json", `{not json`, `{}`},
		{"empty body", ``, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+relay.DefaultPath, "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("unexpected content type %q", ct)
			}
			var ack map[string]bool
			if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil || !ack["ok"] {
				t.Errorf("expected {\"ok\":true}, got %v (%v)", ack, err)
			}

			n.mu.Lock()
			last := n.bodies[len(n.bodies)-1]
			n.mu.Unlock()
			if last != tt.want {
				t.Errorf("expected notified body %s, got %s", tt.want, last)
			}
		})
	}
}

func TestRejectsNonPost(t *testing.T) {
	srv, n := setupServer(t)

	resp, err := http.Get(srv.URL + relay.DefaultPath)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
	if len(n.bodies) != 0 {
		t.Error("rejected request should not be reported")
	}
}

func TestAcceptsRelayedRecord(t *testing.T) {
	srv, n := setupServer(t)

	f := relay.New(&relay.Config{BaseURL: srv.URL, Logger: log.New(io.Discard, "", 0)})
	rec := record.Record{
		Name:    "Ada",
		Email:   "ada@example.com",
		Phone:   "555-0100",
		Address: "1 Main St",
		Gender:  record.GenderFemale,
		Age:     36,
	}

	res := f.Relay(context.Background(), rec, connectivity.Online)
	if res.Outcome != relay.OutcomeRelayed {
		t.Fatalf("expected relayed, got %s (%v)", res.Outcome, res.Err)
	}

	var got record.Record
	if err := json.Unmarshal([]byte(n.bodies[0]), &got); err != nil {
		t.Fatalf("aggregator body is not a record: %v", err)
	}
	if got != rec {
		t.Errorf("got %+v, want %+v", got, rec)
	}
}
