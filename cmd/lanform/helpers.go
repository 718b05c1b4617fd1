package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/mschirtzinger/lanform/internal/capability"
	"github.com/mschirtzinger/lanform/internal/connectivity"
	"github.com/mschirtzinger/lanform/internal/marker"
	"github.com/mschirtzinger/lanform/internal/record"
	"github.com/mschirtzinger/lanform/internal/relay"
	"github.com/mschirtzinger/lanform/internal/session"
	"github.com/mschirtzinger/lanform/internal/store"
	"github.com/mschirtzinger/lanform/internal/ui"
)

var exit = os.Exit

// fatalf prints an error, closes the log sink and exits 1.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s "+format+"\n", append([]any{ui.RenderFail("Error:")}, args...)...)
	closeSink()
	exit(1)
}

func closeSink() {
	if sink != nil {
		_ = sink.Close()
		sink = nil
	}
}

func newForwarder() *relay.Forwarder {
	return relay.New(&relay.Config{
		BaseURL: cfg.Relay.URL,
		Path:    cfg.Relay.Path,
		Client:  &http.Client{Timeout: cfg.Relay.Timeout},
		Logger:  sink.Logger("relay"),
	})
}

// startConnectivity returns a sensor fed by a background prober. The first
// probe runs before returning so the initial reading is already current.
// Without a usable target the sensor stays Offline.
func startConnectivity(ctx context.Context) *connectivity.Sensor {
	sensor := connectivity.NewSensor(connectivity.Offline)
	logger := sink.Logger("connectivity")

	target := cfg.Connectivity.ProbeTarget
	if target == "" && cfg.Relay.URL != "" {
		t, err := connectivity.TargetFromURL(cfg.Relay.URL)
		if err != nil {
			logger.Printf("Warning: %v; staying offline", err)
			return sensor
		}
		target = t
	}
	if target == "" {
		logger.Println("No probe target; staying offline")
		return sensor
	}

	prober, err := connectivity.NewProber(sensor, &connectivity.ProberConfig{
		Target:      target,
		Interval:    cfg.Connectivity.ProbeInterval,
		DialTimeout: cfg.Connectivity.DialTimeout,
		Logger:      logger,
	})
	if err != nil {
		logger.Printf("Warning: %v; staying offline", err)
		return sensor
	}
	prober.Probe(ctx)
	go prober.Run(ctx)
	return sensor
}

// openMarker opens the grant marker store. Failures are logged and yield
// nil, which the broker treats as "no marker".
func openMarker() *marker.Store {
	m, err := marker.Open(cfg.MarkerPath())
	if err != nil {
		sink.Logger("marker").Printf("Warning: %v", err)
		return nil
	}
	return m
}

type sessionOptions struct {
	picker   capability.Picker
	sensor   *connectivity.Sensor
	observer session.Observer
}

// newSession wires a Session. The returned cleanup releases everything.
func newSession(opts sessionOptions) (*session.Session, func()) {
	m := openMarker()
	var ms capability.MarkerStore
	if m != nil {
		ms = m
	}

	s, err := session.New(session.Config{
		Broker:    capability.NewBroker(opts.picker, ms, sink.Logger("capability")),
		Store:     store.New(sink.Logger("store")),
		Forwarder: newForwarder(),
		Sensor:    opts.sensor,
		Observer:  opts.observer,
		Logger:    sink.Logger("session"),
	})
	if err != nil {
		if m != nil {
			_ = m.Close()
		}
		fatalf("%v", err)
	}

	return s, func() {
		s.Close()
		if m != nil {
			_ = m.Close()
		}
	}
}

// picker returns a PathPicker for file, or the interactive picker if empty.
func picker(file string) capability.Picker {
	if file != "" {
		return capability.PathPicker(file)
	}
	return &capability.HuhPicker{}
}

// printPick reports the outcome of a pick and exits on failure.
func printPick(res session.PickResult, err error) bool {
	if err != nil {
		fatalf("%s: %v", res.Status, err)
	}
	if res.Cancelled {
		fmt.Printf("%s %s\n", ui.RenderWarn("⚠"), res.Status)
		return false
	}
	fmt.Printf("%s %s %s (%d records)\n", ui.RenderPass("✓"), res.Status, ui.RenderAccent(res.File), res.Records)
	return true
}

// printSubmit reports a committed submission.
func printSubmit(res session.SubmitResult) {
	mark := ui.RenderPass("✓")
	switch res.Relay.Outcome {
	case relay.OutcomeFailed:
		mark = ui.RenderWarn("⚠")
	case relay.OutcomeSkipped:
		mark = ui.RenderAccent("●")
	}
	fmt.Printf("%s %s (%d records)\n", mark, res.Status, res.Records)
	if res.Relay.Err != nil {
		fmt.Printf("   %s\n", ui.RenderMuted(res.Relay.Err.Error()))
	}
}

// loadReadOnly reads path through the same tolerant loader a session uses.
func loadReadOnly(ctx context.Context, path string) (record.Database, error) {
	b := capability.NewBroker(capability.PathPicker(path), nil, sink.Logger("capability"))
	c, err := b.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Release()
	return store.New(sink.Logger("store")).Load(ctx, c), nil
}
