package server

import (
	"encoding/json"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/swipecli/swipecli/controller"
	"github.com/swipecli/swipecli/utils"
)

// clientBuffer is the number of notifications queued per stream client
// before it is dropped
const clientBuffer = 32

// GestureNotification is pushed to stream clients for every dispatched gesture
type GestureNotification struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  controller.Record `json:"params"`
}

// Hub keeps the recent gesture history and fans records out to stream
// clients. It implements controller.Observer.
type Hub struct {
	mu      sync.Mutex
	seq     uint64
	history *lru.Cache[uint64, controller.Record]
	clients map[*wsConnection]struct{}
}

// NewHub creates a hub remembering up to historySize records. A size of zero
// disables the history.
func NewHub(historySize int) (*Hub, error) {
	h := &Hub{clients: make(map[*wsConnection]struct{})}

	if historySize > 0 {
		cache, err := lru.New[uint64, controller.Record](historySize)
		if err != nil {
			return nil, err
		}
		h.history = cache
	}

	return h, nil
}

// Observe stores the record and queues it for every client. It never blocks:
// a client whose queue is full is disconnected.
func (h *Hub) Observe(record controller.Record) {
	payload, err := json.Marshal(GestureNotification{
		JSONRPC: "2.0",
		Method:  "gesture",
		Params:  record,
	})
	if err != nil {
		utils.Warn("Failed to encode gesture notification: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	if h.history != nil {
		h.history.Add(h.seq, record)
	}

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			utils.Warn("Dropping slow stream client %s", client.remote)
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// Recent returns up to limit records, oldest first. A limit of zero or less
// returns the whole history.
func (h *Hub) Recent(limit int) []controller.Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	records := []controller.Record{}
	if h.history == nil {
		return records
	}

	keys := h.history.Keys()
	if limit > 0 && len(keys) > limit {
		keys = keys[len(keys)-limit:]
	}
	for _, key := range keys {
		if record, ok := h.history.Peek(key); ok {
			records = append(records, record)
		}
	}
	return records
}

// Clients returns the number of connected stream clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(client *wsConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) unregister(client *wsConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// closeAll disconnects every client
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}
