package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Notification types pushed to connected users
const (
	TypePaymentRecorded  = "payment.recorded"
	TypeResultsPublished = "results.published"
)

// Notification is a server-to-client event addressed to one user
type Notification struct {
	Type      string      `json:"type"`
	UserID    int64       `json:"userId"`
	Title     string      `json:"title"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Notifier delivers notifications to users. Services depend on this
// rather than on the Hub so they can run without a websocket layer.
type Notifier interface {
	Notify(userID int64, notificationType, title string, payload interface{})
}

// Hub maintains the set of active clients and routes notifications to them
type Hub struct {
	// Registered clients keyed by user ID. A user may hold several tabs open.
	clients map[int64]map[*Client]bool

	notify     chan *Notification
	register   chan *Client
	unregister chan *Client

	// Closed when Run returns
	done     chan struct{}
	stopOnce sync.Once

	// Guards clients for readers outside the Run goroutine
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		notify:     make(chan *Notification, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations and notifications until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case n := <-h.notify:
			h.deliver(n)
		}
	}
}

// Register hands a client to the Run loop. It reports false once the hub
// has stopped, in which case the client was not added.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister hands a client back to the Run loop. It returns immediately
// once the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.logger.Info().
		Int64("userID", client.userID).
		Str("addr", client.remoteAddr()).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked drops a client. Callers hold h.mu.
func (h *Hub) removeLocked(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}

	h.logger.Info().
		Int64("userID", client.userID).
		Str("addr", client.remoteAddr()).
		Msg("Client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for client := range set {
			h.removeLocked(client)
		}
	}
}

// deliver sends a notification to every connection of its user.
func (h *Hub) deliver(n *Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[n.UserID]
	if !ok {
		h.logger.Debug().
			Int64("userID", n.UserID).
			Str("type", n.Type).
			Msg("User not connected, notification dropped")
		return
	}

	data, err := json.Marshal(n)
	if err != nil {
		h.logger.Error().Err(err).Str("type", n.Type).Msg("Failed to marshal notification")
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Slow consumer
			h.removeLocked(client)
		}
	}
}

// Notify queues a notification without blocking the caller. When the
// queue is full the notification is dropped and logged.
func (h *Hub) Notify(userID int64, notificationType, title string, payload interface{}) {
	n := &Notification{
		Type:      notificationType,
		UserID:    userID,
		Title:     title,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	select {
	case h.notify <- n:
	default:
		h.logger.Warn().
			Int64("userID", userID).
			Str("type", notificationType).
			Msg("Notification queue full, dropping notification")
	}
}

// ClientsCount returns the number of open connections for a user
func (h *Hub) ClientsCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// NopNotifier discards notifications.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(int64, string, string, interface{}) {}
