package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"smartpole/internal/logger"
)

// writeWait bounds how long a slow viewer may block a broadcast.
const writeWait = 5 * time.Second

// HubService fans accident alerts out to connected websocket viewers.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
	onCount    func(int)
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// OnClientCount sets a callback invoked with the viewer count after every change.
// It must be set before Run.
func (h *HubService) OnClientCount(fn func(int)) {
	h.onCount = fn
}

// Run serves registrations and broadcasts until ctx is done, then closes every viewer.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client connected. Total: %d", count)
			h.notify(count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client disconnected. Total: %d", count)
			h.notify(count)

		case message := <-h.broadcast:
			h.send(message)

		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(time.Second))
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			h.notify(0)
			return
		}
	}
}

func (h *HubService) send(message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Error("Error sending message: %v", err)
			delete(h.clients, client)
			client.Close()
		}
	}
	h.notifyLocked()
}

func (h *HubService) notifyLocked() {
	if h.onCount != nil {
		h.onCount(len(h.clients))
	}
}

func (h *HubService) notify(count int) {
	if h.onCount != nil {
		h.onCount(count)
	}
}

// Register adds a viewer. It returns false once the hub has stopped.
func (h *HubService) Register(client *websocket.Conn) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		client.Close()
		return false
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues message for every viewer. It never blocks; when the queue
// is full or the hub has stopped the message is dropped and false is returned.
func (h *HubService) Broadcast(message []byte) bool {
	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.broadcast <- message:
		return true
	default:
		h.logger.Warning("Alert queue full, dropping message")
		return false
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
