// Package websocket pushes mailbox snapshot and sync lifecycle events to
// connected UI clients. The hub is one more observer of the mail cache; it
// holds no mailbox state of its own.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/thib420/AI-Table-sub000/internal/services"
)

// MessageType represents the type of a websocket message
type MessageType string

const (
	// MessageTypeRefresh is sent by clients to request a sync refresh
	MessageTypeRefresh MessageType = "refresh"
	// MessageTypeSnapshotUpdated announces a rebuilt mailbox snapshot
	MessageTypeSnapshotUpdated MessageType = "snapshot_updated"
	// MessageTypeSyncCompleted announces a finished sync run
	MessageTypeSyncCompleted MessageType = "sync_completed"
	// MessageTypeError reports a per-client protocol error
	MessageTypeError MessageType = "error"
)

// WSMessage is the wire envelope for both directions
type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SnapshotPayload summarizes the cache snapshot for push delivery. The full
// message list stays behind the REST API; the push channel only carries the
// totals a UI needs to refresh its badges.
type SnapshotPayload struct {
	MessageCount int       `json:"message_count"`
	UnreadCount  int       `json:"unread_count"`
	FolderCount  int       `json:"folder_count"`
	IsLoading    bool      `json:"is_loading"`
	LastSyncAt   time.Time `json:"last_sync_at"`
	LastError    string    `json:"last_error,omitempty"`
}

// Hub maintains the set of active clients and fans events out to all of
// them. Slow clients are skipped, never waited on.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex

	refreshMu sync.Mutex
	onRefresh func()

	logger *slog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("websocket client registered", slog.String("client_id", client.id))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("websocket client unregistered", slog.String("client_id", client.id))
			}

		case data := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// OnRefresh registers the callback invoked when a client sends a refresh
// request
func (h *Hub) OnRefresh(fn func()) {
	h.refreshMu.Lock()
	h.onRefresh = fn
	h.refreshMu.Unlock()
}

func (h *Hub) requestRefresh() {
	h.refreshMu.Lock()
	fn := h.onRefresh
	h.refreshMu.Unlock()
	if fn != nil {
		fn()
	}
}

// BroadcastSnapshot pushes a snapshot summary to every connected client.
// Wire it as a cache subscriber; the cache already debounces rapid updates.
func (h *Hub) BroadcastSnapshot(snap services.Snapshot) {
	unread := 0
	for i := range snap.Messages {
		if !snap.Messages[i].IsRead {
			unread++
		}
	}
	h.send(WSMessage{
		Type: MessageTypeSnapshotUpdated,
		Payload: SnapshotPayload{
			MessageCount: len(snap.Messages),
			UnreadCount:  unread,
			FolderCount:  len(snap.Folders),
			IsLoading:    snap.IsLoading,
			LastSyncAt:   snap.LastSyncAt,
			LastError:    snap.LastError,
		},
	})
}

// BroadcastSyncCompleted pushes a finished sync run's counters to every
// connected client. Wire it as an engine completion listener.
func (h *Hub) BroadcastSyncCompleted(result services.SyncResult) {
	h.send(WSMessage{Type: MessageTypeSyncCompleted, Payload: result})
}

func (h *Hub) send(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal websocket message", slog.Any("error", err))
		}
		return
	}

	select {
	case h.broadcast <- data:
	default:
		if h.logger != nil {
			h.logger.Warn("websocket broadcast buffer full, dropping event",
				slog.String("type", string(msg.Type)))
		}
	}
}
