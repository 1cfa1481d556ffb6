/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/Seednode/partydeck/games/session"
)

// Hub tracks open websocket connections by client id and delivers room
// events to them. One browser may hold several connections under the
// same cookie.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	log     zerolog.Logger
}

func newHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		log:     log,
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.id]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.id] = set
	}
	set[c] = struct{}{}
}

// remove drops c and reports whether it was the last connection for its
// client id.
func (h *Hub) remove(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.id]
	if !ok {
		return true
	}

	if _, ok := set[c]; ok {
		delete(set, c)
		c.close()
	}

	if len(set) == 0 {
		delete(h.clients, c.id)

		return true
	}

	return false
}

// Notify queues ev for every connection of clientID. A connection whose
// buffer is full is dropped rather than allowed to stall the room.
func (h *Hub) Notify(clientID string, ev session.Event) {
	h.mu.RLock()
	var slow []*Client
	for c := range h.clients[clientID] {
		select {
		case <-c.done:
		case c.send <- ev:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn().Str("client", clientID).Str("event", ev.EventType()).Msg("send buffer full, dropping connection")
		c.close()
	}
}

func (h *Hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.clients {
		n += len(set)
	}

	return n
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, set := range h.clients {
		for c := range set {
			c.close()
		}
		delete(h.clients, id)
	}
}
