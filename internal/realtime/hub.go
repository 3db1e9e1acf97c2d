package realtime

import (
	"sync"
)

// Client represents a single websocket client connection.
// We keep it minimal here; the actual network conn is managed in the ws handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub maintains active board watchers per project and broadcasts board
// events (item moves, column edits) to them.
type Hub struct {
	mu                 sync.RWMutex
	projectIDToClients map[uint]map[Client]struct{}
}

var hubInstance *Hub
var once sync.Once

// GetHub returns a singleton hub instance.
func GetHub() *Hub {
	once.Do(func() {
		hubInstance = &Hub{
			projectIDToClients: make(map[uint]map[Client]struct{}),
		}
	})
	return hubInstance
}

// Register adds a client watching a project.
func (h *Hub) Register(projectID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.projectIDToClients[projectID]; !ok {
		h.projectIDToClients[projectID] = make(map[Client]struct{})
	}
	h.projectIDToClients[projectID][client] = struct{}{}
}

// Unregister removes a client; if the project has no more watchers, cleans up map.
func (h *Hub) Unregister(projectID uint, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.projectIDToClients[projectID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.projectIDToClients, projectID)
		}
	}
}

// Broadcast sends a message to every watcher of a project.
func (h *Hub) Broadcast(projectID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := h.projectIDToClients[projectID]
	for c := range clients {
		if ok := c.Send(message); !ok {
			// client write failed; let the handler clean it up on its side
		}
	}
}
