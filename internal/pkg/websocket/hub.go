package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/coursetable/ferry/internal/app/models"
	"github.com/coursetable/ferry/internal/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const broadcastBuffer = 64

// RunEvent is pushed to every connected operator when a run changes state.
type RunEvent struct {
	RunID      uuid.UUID        `json:"runId"`
	Status     models.RunStatus `json:"status"`
	Trigger    string           `json:"trigger"`
	Persisted  bool             `json:"persisted"`
	Error      *string          `json:"error,omitempty"`
	Report     *models.Report   `json:"report,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}

// NewRunEvent describes the current state of run.
func NewRunEvent(run models.PipelineRun) RunEvent {
	return RunEvent{
		RunID:      run.ID,
		Status:     run.Status,
		Trigger:    run.Trigger,
		Persisted:  run.Persisted,
		Error:      run.Error,
		Report:     run.Report,
		Timestamp:  time.Now().UTC(),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}

// Hub keeps the connected clients and fans run events out to them.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	log zerolog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logger.Component("websocket_hub"),
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Info().Str("operator", client.operator).Str("addr", client.addr).Msg("Client registered")

		case client := <-h.unregister:
			h.remove(client)

		case data := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					slow = append(slow, client)
				}
			}
			n := len(h.clients)
			h.mu.RUnlock()

			for _, client := range slow {
				h.log.Warn().Str("operator", client.operator).Msg("Dropping slow client")
				h.remove(client)
			}
			h.log.Debug().Int("clients", n).Msg("Run event broadcasted")

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.log.Info().Msg("Hub stopped")
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.log.Info().Str("operator", client.operator).Str("addr", client.addr).Msg("Client unregistered")
}

// Publish queues an event for every connected client. Events are dropped
// when the queue is full.
func (h *Hub) Publish(run models.PipelineRun) {
	data, err := json.Marshal(NewRunEvent(run))
	if err != nil {
		h.log.Error().Err(err).Str("run_id", run.ID.String()).Msg("Failed to marshal run event")
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.log.Warn().Str("run_id", run.ID.String()).Str("status", string(run.Status)).Msg("Run event queue full, dropping event")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
