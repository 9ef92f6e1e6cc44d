package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Hub delivers topic publishes to in-process WebSocket clients. It is safe
// for concurrent use from connection goroutines and request handlers.
type Hub struct {
	log *zerolog.Logger

	mu     sync.RWMutex
	topics map[string]map[*Client]struct{}
	// reverse index so Unregister doesn't scan every topic
	subs map[*Client][]string
}

// NewHub creates an empty hub.
func NewHub(logger *zerolog.Logger) *Hub {
	return &Hub{
		log:    logger,
		topics: make(map[string]map[*Client]struct{}),
		subs:   make(map[*Client][]string),
	}
}

// Register subscribes a client to the given topics.
func (h *Hub) Register(c *Client, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		set, ok := h.topics[topic]
		if !ok {
			set = make(map[*Client]struct{})
			h.topics[topic] = set
		}
		set[c] = struct{}{}
	}
	h.subs[c] = append(h.subs[c], topics...)
}

// Unregister removes a client from all of its topics and closes its events
// channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	topics, ok := h.subs[c]
	if !ok {
		return
	}
	for _, topic := range topics {
		if set, ok := h.topics[topic]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	delete(h.subs, c)
	close(c.Events)
}

// Publish marshals payload once and hands it to every subscriber of topic.
// Slow consumers are skipped rather than blocked on; a connection that cannot
// keep up misses events instead of stalling the publisher.
func (h *Hub) Publish(_ context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	env := Envelope{Topic: topic, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.topics[topic] {
		select {
		case client.Events <- env:
		default:
			h.log.Warn().Str("topic", topic).Str("client_id", client.ID).Msg("slow subscriber, event dropped")
		}
	}
	return nil
}

// SubscriberCount reports how many clients are subscribed to a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
