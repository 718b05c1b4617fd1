package dashboard

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mschirtzinger/lanform/internal/record"
	"github.com/mschirtzinger/lanform/internal/relay"
	"github.com/mschirtzinger/lanform/internal/session"
)

var _ session.Observer = (*Handler)(nil)

// RecordCommittedData describes a record written to the backing file
type RecordCommittedData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Total int    `json:"total"` // records in the file after the commit
}

// RelayResultData describes one relay attempt
type RelayResultData struct {
	ID      string `json:"id"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

type StatusData struct {
	Status string `json:"status"`
}

// RecordReceivedData describes a body accepted by the aggregator
type RecordReceivedData struct {
	Remote string          `json:"remote,omitempty"`
	Body   json.RawMessage `json:"body"`
}

// StatsData contains running counters
type StatsData struct {
	Records   int    `json:"records"`
	Committed int    `json:"committed"`
	Relayed   int    `json:"relayed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Received  int    `json:"received"`
	Status    string `json:"status,omitempty"`
}

// Handler turns session and aggregator events into dashboard messages.
// It is safe for concurrent use.
type Handler struct {
	server *Server
	logger *log.Logger

	mu    sync.Mutex
	stats StatsData
}

// NewHandler creates a handler that broadcasts on server. New clients are
// greeted with the handler's current stats. Call it before server.Start.
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(os.Stderr, "[dashboard] ", log.LstdFlags)
	}
	h := &Handler{
		server: server,
		logger: logger,
	}
	server.snapshot = h.statsMessage
	return h
}

// OnCommitted implements session.Observer.
func (h *Handler) OnCommitted(id uuid.UUID, rec record.Record, total int) {
	h.mu.Lock()
	h.stats.Committed++
	h.stats.Records = total
	h.mu.Unlock()

	h.send(MessageTypeRecordCommitted, RecordCommittedData{
		ID:    id.String(),
		Name:  rec.Name,
		Email: rec.Email,
		Total: total,
	})
	h.broadcastStats()
}

// OnRelay implements session.Observer.
func (h *Handler) OnRelay(id uuid.UUID, res relay.Result) {
	h.mu.Lock()
	switch res.Outcome {
	case relay.OutcomeRelayed:
		h.stats.Relayed++
	case relay.OutcomeFailed:
		h.stats.Failed++
	default:
		h.stats.Skipped++
	}
	h.mu.Unlock()

	data := RelayResultData{ID: id.String(), Outcome: res.Outcome.String()}
	if res.Err != nil {
		data.Error = res.Err.Error()
	}
	h.send(MessageTypeRelayResult, data)
	h.broadcastStats()
}

// OnStatus implements session.Observer.
func (h *Handler) OnStatus(status string) {
	h.mu.Lock()
	h.stats.Status = status
	h.mu.Unlock()

	h.send(MessageTypeStatus, StatusData{Status: status})
}

// OnReceived reports a body accepted by the aggregator.
func (h *Handler) OnReceived(body json.RawMessage, remote string) {
	h.mu.Lock()
	h.stats.Received++
	h.mu.Unlock()

	h.send(MessageTypeRecordReceived, RecordReceivedData{Remote: remote, Body: body})
	h.broadcastStats()
}

// SetRecords sets the record count, e.g. after a pick.
func (h *Handler) SetRecords(n int) {
	h.mu.Lock()
	h.stats.Records = n
	h.mu.Unlock()
	h.broadcastStats()
}

// Stats returns a copy of the current counters.
func (h *Handler) Stats() StatsData {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

func (h *Handler) statsMessage() Message {
	data, err := json.Marshal(h.Stats())
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
	}
	return Message{Type: MessageTypeStats, Timestamp: time.Now(), Data: data}
}

func (h *Handler) broadcastStats() {
	h.server.Broadcast(h.statsMessage())
}

func (h *Handler) send(typ MessageType, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", typ, err)
		return
	}
	h.server.Broadcast(Message{Type: typ, Timestamp: time.Now(), Data: data})
}
