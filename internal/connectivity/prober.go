package connectivity

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"time"
)

// DialFunc opens a connection to address; it matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// ProberConfig holds configuration for a Prober.
type ProberConfig struct {
	// Target is the host:port whose reachability defines Online.
	Target string

	// Interval is how often the target is probed.
	Interval time.Duration

	// DialTimeout bounds a single probe.
	DialTimeout time.Duration

	// Dial overrides the dialer, mainly for tests.
	Dial DialFunc

	// Logger for probe activity
	Logger *log.Logger
}

// DefaultProberConfig returns sensible defaults for target.
func DefaultProberConfig(target string) *ProberConfig {
	return &ProberConfig{
		Target:      target,
		Interval:    5 * time.Second,
		DialTimeout: 2 * time.Second,
		Logger:      log.New(os.Stderr, "[connectivity] ", log.LstdFlags),
	}
}

// Prober is the platform signal source for a Sensor. It dials Target on an
// interval and calls Sensor.Transition whenever the result differs from its
// previous observation.
type Prober struct {
	sensor *Sensor
	config *ProberConfig
	last   State
}

// NewProber creates a Prober feeding sensor. Its first observation is
// compared against the sensor's current state.
func NewProber(sensor *Sensor, config *ProberConfig) (*Prober, error) {
	if sensor == nil {
		return nil, fmt.Errorf("sensor cannot be nil")
	}
	if config == nil || config.Target == "" {
		return nil, fmt.Errorf("probe target cannot be empty")
	}
	if config.Interval <= 0 {
		config.Interval = 5 * time.Second
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = 2 * time.Second
	}
	if config.Dial == nil {
		d := &net.Dialer{}
		config.Dial = d.DialContext
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[connectivity] ", log.LstdFlags)
	}
	return &Prober{
		sensor: sensor,
		config: config,
		last:   sensor.CurrentState(),
	}, nil
}

// Probe performs one observation and reports a transition if it changed.
// A cancelled ctx is not an observation and leaves the state alone.
func (p *Prober) Probe(ctx context.Context) State {
	if ctx.Err() != nil {
		return p.last
	}
	state := p.observe(ctx)
	if ctx.Err() != nil {
		return p.last
	}
	if state != p.last {
		p.last = state
		p.config.Logger.Printf("Connectivity changed: %s", state)
		p.sensor.Transition(state)
	}
	return state
}

func (p *Prober) observe(ctx context.Context) State {
	ctx, cancel := context.WithTimeout(ctx, p.config.DialTimeout)
	defer cancel()

	conn, err := p.config.Dial(ctx, "tcp", p.config.Target)
	if err != nil {
		return Offline
	}
	_ = conn.Close()
	return Online
}

// Run probes immediately and then on every interval until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}

// TargetFromURL derives a host:port probe target from an http(s) URL.
func TargetFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid relay url %q: %w", raw, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("relay url %q has no host", raw)
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		case "http":
			port = "80"
		default:
			return "", fmt.Errorf("relay url %q: unsupported scheme %q", raw, u.Scheme)
		}
	}
	return net.JoinHostPort(host, port), nil
}
