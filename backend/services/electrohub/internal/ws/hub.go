// Package ws pushes processed IoT readings to websocket subscribers.
package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/iot"
	"electrohub/backend/services/electrohub/internal/metrics"
)

// Hub tracks live subscribers.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub builds an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Add registers a subscriber.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID()] = c
	metrics.SetLiveSubscribers(len(h.clients))
}

// Remove unregisters a subscriber. Once it returns no broadcast can reach c.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
	metrics.SetLiveSubscribers(len(h.clients))
}

// Count returns the number of subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends p to every subscriber whose filter matches its sensor.
func (h *Hub) Broadcast(p iot.Processed) {
	msg, err := json.Marshal(p)
	if err != nil {
		h.logger.Warn("encode live reading", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.Wants(p.SensorID) {
			c.Send(msg)
		}
	}
}

// CloseAll disconnects every subscriber.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.Close()
	}
}
