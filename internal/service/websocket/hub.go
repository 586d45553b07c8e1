package websocket

import (
	"encoding/json"
	"sync"
	"time"
	"webcapture/internal/logger"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// PresenceMessage is what viewers receive on every presence change.
type PresenceMessage struct {
	Presence bool      `json:"presence"`
	At       time.Time `json:"at"`
}

// HubService fans presence changes out to every connected viewer.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan struct{}
	pending    *PresenceMessage
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	quit       chan struct{}
	done       chan struct{}
	last       PresenceMessage
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan struct{}, 1),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves register/unregister/broadcast until Stop is called.
func (h *HubService) Run() {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			last := h.last
			h.mutex.Unlock()
			h.logger.Info("Presence viewer connected. Total: %d", h.GetClientCount())
			// New viewers start from the current value instead of waiting for a change.
			h.send(client, last)

		case client := <-h.unregister:
			h.drop(client)
			h.logger.Info("Presence viewer disconnected. Total: %d", h.GetClientCount())

		case <-h.broadcast:
			h.mutex.Lock()
			if h.pending == nil {
				h.mutex.Unlock()
				continue
			}
			message := *h.pending
			h.pending = nil
			h.last = message
			clients := make([]*websocket.Conn, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mutex.Unlock()

			for _, client := range clients {
				h.send(client, message)
			}

		case <-h.quit:
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

func (h *HubService) send(client *websocket.Conn, message PresenceMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Error encoding presence message: %v", err)
		return
	}
	client.SetWriteDeadline(time.Now().Add(writeWait))
	if err := client.WriteMessage(websocket.TextMessage, payload); err != nil {
		h.logger.Error("Error sending message: %v", err)
		h.drop(client)
	}
}

func (h *HubService) drop(client *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.Close()
	}
}

// Stop disconnects every viewer and ends Run.
func (h *HubService) Stop() {
	select {
	case <-h.quit:
	default:
		close(h.quit)
	}
	<-h.done
}

func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// PublishPresence records the latest presence value and wakes Run. It never
// blocks the detection loop: changes published faster than Run sends them
// collapse into the newest one.
func (h *HubService) PublishPresence(presence bool) {
	message := PresenceMessage{Presence: presence, At: time.Now()}

	h.mutex.Lock()
	h.pending = &message
	h.mutex.Unlock()

	select {
	case h.broadcast <- struct{}{}:
	default:
		// Run already has a wake-up queued; it will read the pending value.
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
