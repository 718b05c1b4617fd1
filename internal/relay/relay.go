// Package relay forwards committed records to the remote aggregator on a
// best-effort basis.
//
// A relay attempt is a single HTTP POST of one Record. It is skipped when the
// connectivity reading is offline, it is never retried, and its outcome is
// reported for status only: nothing here touches the local Database.
package relay

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/carlmjohnson/requests"
	"github.com/mschirtzinger/lanform/internal/connectivity"
	"github.com/mschirtzinger/lanform/internal/record"
)

// DefaultPath is the aggregator route records are posted to.
const DefaultPath = "/api/submit"

// Outcome is the result of one relay attempt.
type Outcome int

const (
	// OutcomeSkipped means the attempt was skipped because the state was offline.
	OutcomeSkipped Outcome = iota
	// OutcomeRelayed means the aggregator acknowledged the record.
	OutcomeRelayed
	// OutcomeFailed means the request failed at the transport or application level.
	OutcomeFailed
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped (offline)"
	case OutcomeRelayed:
		return "relayed"
	case OutcomeFailed:
		return "relay failed"
	default:
		return "unknown"
	}
}

// Result is what Relay returns. Err is set only for OutcomeFailed.
type Result struct {
	Outcome Outcome
	Err     error
}

// Config holds configuration for a Forwarder.
type Config struct {
	// BaseURL is the aggregator's base URL, e.g. http://10.0.0.5:8080.
	BaseURL string

	// Path is the relay route (default: DefaultPath).
	Path string

	// Client is the HTTP client used for the request. A nil Client uses
	// http.DefaultClient. The forwarder adds no timeout of its own.
	Client *http.Client

	// Logger for relay activity
	Logger *log.Logger
}

// Forwarder relays records to one aggregator.
type Forwarder struct {
	baseURL string
	path    string
	client  *http.Client
	logger  *log.Logger
}

// New creates a Forwarder. An empty BaseURL yields a forwarder whose online
// attempts always fail, which keeps local commits working without a relay
// configured.
func New(config *Config) *Forwarder {
	if config == nil {
		config = &Config{}
	}
	f := &Forwarder{
		baseURL: config.BaseURL,
		path:    config.Path,
		client:  config.Client,
		logger:  config.Logger,
	}
	if f.path == "" {
		f.path = DefaultPath
	}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	if f.logger == nil {
		f.logger = log.New(os.Stderr, "[relay] ", log.LstdFlags)
	}
	return f
}

// Relay attempts to deliver rec once. If state is Offline it returns
// OutcomeSkipped without any network activity.
//
// Relay never panics and never retries.
func (f *Forwarder) Relay(ctx context.Context, rec record.Record, state connectivity.State) (res Result) {
	if state != connectivity.Online {
		return Result{Outcome: OutcomeSkipped}
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result{Outcome: OutcomeFailed, Err: fmt.Errorf("relay panic: %v", r)}
			f.logger.Printf("Relay panicked: %v", r)
		}
	}()

	if f.baseURL == "" {
		return Result{Outcome: OutcomeFailed, Err: fmt.Errorf("no relay url configured")}
	}

	err := requests.
		URL(f.baseURL).
		Path(f.path).
		Client(f.client).
		Post().
		BodyJSON(rec).
		ContentType("application/json").
		Fetch(ctx)
	if err != nil {
		f.logger.Printf("Relay to %s%s failed: %v", f.baseURL, f.path, err)
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	f.logger.Printf("Relayed record for %s", rec.Email)
	return Result{Outcome: OutcomeRelayed}
}
