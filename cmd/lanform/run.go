package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/google/uuid"
	"github.com/mschirtzinger/lanform/internal/dashboard"
	"github.com/mschirtzinger/lanform/internal/form"
	"github.com/mschirtzinger/lanform/internal/record"
	"github.com/mschirtzinger/lanform/internal/relay"
	"github.com/mschirtzinger/lanform/internal/session"
	"github.com/mschirtzinger/lanform/internal/ui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:     "run",
	GroupID: "form",
	Short:   "Run an interactive form session",
	Long: `Pick the shared file and fill in records until you quit (Esc or Ctrl+C).

Each record is written to the shared file, then relayed to the aggregator if
it is reachable at that moment. Connectivity changes are shown as they
happen. Records saved while offline are not sent later.

With --dashboard-port, session events are also broadcast on
ws://localhost:<port>/ws.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")
		port := cfg.Dashboard.Port
		if cmd.Flags().Changed("dashboard-port") {
			port, _ = cmd.Flags().GetInt("dashboard-port")
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		observers := observerList{&statusPrinter{}}
		var handler *dashboard.Handler
		if port > 0 {
			server := dashboard.NewServer(&dashboard.Config{
				Addr:   fmt.Sprintf(":%d", port),
				Logger: sink.Logger("dashboard"),
			})
			handler = dashboard.NewHandler(server, sink.Logger("dashboard"))
			if err := server.Start(); err != nil {
				fatalf("failed to start dashboard: %v", err)
			}
			defer server.Stop()
			observers = append(observers, handler)
			fmt.Printf("%s Dashboard on ws://localhost:%d/ws\n", ui.RenderAccent("📡"), port)
		}

		sensor := startConnectivity(ctx)
		s, cleanup := newSession(sessionOptions{
			picker:   picker(file),
			sensor:   sensor,
			observer: observers,
		})
		defer cleanup()

		fmt.Printf("%s %s\n", ui.RenderMuted("Connectivity:"), s.Connectivity())
		if s.Status() == session.StatusRegrant {
			fmt.Printf("%s %s\n", ui.RenderWarn("⚠"), session.StatusRegrant)
		}

		if !printPick(s.Pick(ctx)) {
			return
		}
		if handler != nil {
			handler.SetRecords(len(s.Database()))
		}

		for {
			rec, err := form.Prompt(ctx)
			if errors.Is(err, form.ErrAborted) || ctx.Err() != nil {
				break
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("✗"), err)
				continue
			}

			res, err := s.Submit(ctx, rec)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("✗"), err)
				continue
			}
			printSubmit(res)
		}

		fmt.Printf("%s %d records in %s\n", ui.RenderMuted("Done."), len(s.Database()), s.File())
	},
}

func init() {
	runCmd.Flags().StringP("file", "f", "", "shared JSON file (default: interactive picker)")
	runCmd.Flags().IntP("dashboard-port", "p", 0, "serve a live event feed on this port")
	rootCmd.AddCommand(runCmd)
}

// observerList fans session events out to several observers.
type observerList []session.Observer

func (l observerList) OnCommitted(id uuid.UUID, rec record.Record, total int) {
	for _, o := range l {
		o.OnCommitted(id, rec, total)
	}
}

func (l observerList) OnRelay(id uuid.UUID, res relay.Result) {
	for _, o := range l {
		o.OnRelay(id, res)
	}
}

func (l observerList) OnStatus(status string) {
	for _, o := range l {
		o.OnStatus(status)
	}
}

// statusPrinter prints connectivity transitions. Other statuses are
// reported by the command itself.
type statusPrinter struct {
	mu sync.Mutex
}

func (p *statusPrinter) OnCommitted(uuid.UUID, record.Record, int) {}
func (p *statusPrinter) OnRelay(uuid.UUID, relay.Result)           {}

func (p *statusPrinter) OnStatus(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch status {
	case session.StatusBackOnline:
		fmt.Printf("\n%s %s\n", ui.RenderPass("●"), status)
	case session.StatusOffline:
		fmt.Printf("\n%s %s\n", ui.RenderWarn("●"), status)
	}
}
