package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mschirtzinger/lanform/internal/aggregator"
	"github.com/mschirtzinger/lanform/internal/dashboard"
	"github.com/mschirtzinger/lanform/internal/ui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "network",
	Short:   "Run the aggregator endpoint with a live feed",
	Long: `Run a minimal aggregator that acknowledges relayed records.

Routes:
  POST /api/submit   accept a record, reply {"ok":true}
  GET  /health       server health
  GET  /ws           WebSocket feed of received records

Records are logged and broadcast but not stored.`,
	Run: func(cmd *cobra.Command, args []string) {
		addr := cfg.Serve.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		var agg *aggregator.Handler
		server := dashboard.NewServer(&dashboard.Config{
			Addr: addr,
			Routes: func(mux *http.ServeMux) {
				agg.Register(mux)
			},
			Logger: sink.Logger("dashboard"),
		})
		handler := dashboard.NewHandler(server, sink.Logger("dashboard"))
		agg = aggregator.New(handler, sink.Logger("aggregator"))

		if err := server.Start(); err != nil {
			fatalf("failed to start server: %v", err)
		}

		fmt.Printf("%s Aggregator listening on %s\n", ui.RenderAccent("🚀"), server.Addr())
		fmt.Printf("   Submit:    POST http://%s/api/submit\n", server.Addr())
		fmt.Printf("   WebSocket: ws://%s/ws\n", server.Addr())
		fmt.Println("\nPress Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		<-ctx.Done()

		fmt.Println("\nShutting down...")
		if err := server.Stop(); err != nil {
			fatalf("during shutdown: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}
