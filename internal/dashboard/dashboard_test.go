package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/mschirtzinger/lanform/internal/record"
	"github.com/mschirtzinger/lanform/internal/relay"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// startServer starts a server on a random port and stops it on cleanup.
func startServer(t *testing.T, routes func(*http.ServeMux)) (*Server, *Handler) {
	t.Helper()

	server := NewServer(&Config{Addr: "127.0.0.1:0", Routes: routes, Logger: quietLogger()})
	handler := NewHandler(server, quietLogger())
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })
	return server, handler
}

// dial connects a client and consumes the welcome message.
func dial(t *testing.T, ctx context.Context, server *Server) (*websocket.Conn, Message) {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })

	welcome := readMessage(t, ctx, conn)
	waitForClients(t, server, 1)
	return conn, welcome
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) Message {
	t.Helper()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return msg
}

func waitForClients(t *testing.T, server *Server, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for server.ClientCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, got %d", n, server.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServerStartStop(t *testing.T) {
	server := NewServer(&Config{Addr: "127.0.0.1:0", Logger: quietLogger()})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	if server.Addr() == "127.0.0.1:0" {
		t.Fatal("Addr should report the bound port")
	}
	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}
}

func TestStopWithoutStart(t *testing.T) {
	server := NewServer(&Config{Logger: quietLogger()})
	if err := server.Stop(); err != nil {
		t.Fatalf("Stop on an unstarted server failed: %v", err)
	}
}

func TestWelcomeCarriesStats(t *testing.T) {
	server, handler := startServer(t, nil)
	handler.SetRecords(4)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, welcome := dial(t, ctx, server)
	if welcome.Type != MessageTypeStats {
		t.Fatalf("Expected welcome type %s, got %s", MessageTypeStats, welcome.Type)
	}
	var stats StatsData
	if err := json.Unmarshal(welcome.Data, &stats); err != nil {
		t.Fatalf("Failed to unmarshal stats: %v", err)
	}
	if stats.Records != 4 {
		t.Errorf("Expected 4 records in welcome, got %d", stats.Records)
	}
}

func TestMultipleClients(t *testing.T) {
	server, _ := startServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		conn, _, err := websocket.Dial(ctx, "ws://"+server.Addr()+"/ws", nil)
		if err != nil {
			t.Fatalf("Failed to connect client %d: %v", i, err)
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		readMessage(t, ctx, conn)
	}
	waitForClients(t, server, 3)
}

func TestCommitAndRelayEvents(t *testing.T) {
	server, handler := startServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _ := dial(t, ctx, server)

	id := uuid.New()
	rec := record.Record{Name: "Ada", Email: "ada@example.com"}
	handler.OnCommitted(id, rec, 2)

	msg := readMessage(t, ctx, conn)
	if msg.Type != MessageTypeRecordCommitted {
		t.Fatalf("Expected %s, got %s", MessageTypeRecordCommitted, msg.Type)
	}
	var committed RecordCommittedData
	if err := json.Unmarshal(msg.Data, &committed); err != nil {
		t.Fatal(err)
	}
	if committed.ID != id.String() || committed.Total != 2 || committed.Email != rec.Email {
		t.Errorf("Unexpected commit data: %+v", committed)
	}
	if msg := readMessage(t, ctx, conn); msg.Type != MessageTypeStats {
		t.Errorf("Expected stats after commit, got %s", msg.Type)
	}

	handler.OnRelay(id, relay.Result{Outcome: relay.OutcomeFailed, Err: errors.New("boom")})
	msg = readMessage(t, ctx, conn)
	if msg.Type != MessageTypeRelayResult {
		t.Fatalf("Expected %s, got %s", MessageTypeRelayResult, msg.Type)
	}
	var result RelayResultData
	if err := json.Unmarshal(msg.Data, &result); err != nil {
		t.Fatal(err)
	}
	if result.Outcome != "relay failed" || result.Error != "boom" {
		t.Errorf("Unexpected relay data: %+v", result)
	}

	stats := handler.Stats()
	if stats.Committed != 1 || stats.Failed != 1 || stats.Records != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestStatusEvent(t *testing.T) {
	server, handler := startServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _ := dial(t, ctx, server)

	handler.OnStatus("Back online")
	msg := readMessage(t, ctx, conn)
	if msg.Type != MessageTypeStatus {
		t.Fatalf("Expected %s, got %s", MessageTypeStatus, msg.Type)
	}
	var status StatusData
	if err := json.Unmarshal(msg.Data, &status); err != nil {
		t.Fatal(err)
	}
	if status.Status != "Back online" {
		t.Errorf("Unexpected status: %q", status.Status)
	}
}

func TestReceivedEvent(t *testing.T) {
	server, handler := startServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _ := dial(t, ctx, server)

	handler.OnReceived(json.RawMessage(`{"name":"Ada"}`), "10.0.0.2:5000")
	msg := readMessage(t, ctx, conn)
	if msg.Type != MessageTypeRecordReceived {
		t.Fatalf("Expected %s, got %s", MessageTypeRecordReceived, msg.Type)
	}
	var received RecordReceivedData
	if err := json.Unmarshal(msg.Data, &received); err != nil {
		t.Fatal(err)
	}
	if string(received.Body) != `{"name":"Ada"}` || received.Remote != "10.0.0.2:5000" {
		t.Errorf("Unexpected received data: %+v", received)
	}
	if handler.Stats().Received != 1 {
		t.Errorf("Expected 1 received, got %d", handler.Stats().Received)
	}
}

func TestHealthAndExtraRoutes(t *testing.T) {
	server, _ := startServer(t, func(mux *http.ServeMux) {
		mux.HandleFunc("/extra", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	})

	resp, err := http.Get("http://" + server.Addr() + "/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	defer resp.Body.Close()
	var health map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health["status"] != "ok" {
		t.Errorf("Unexpected health: %v", health)
	}

	resp2, err := http.Get("http://" + server.Addr() + "/extra")
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusTeapot {
		t.Errorf("Expected extra route status 418, got %d", resp2.StatusCode)
	}
}

func TestClientDisconnect(t *testing.T) {
	server, _ := startServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _ := dial(t, ctx, server)

	_ = conn.Close(websocket.StatusNormalClosure, "")

	deadline := time.Now().Add(2 * time.Second)
	for server.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Client was not removed, count %d", server.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
