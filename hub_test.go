/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/partydeck/games/session"
)

func TestHubDeliversToEveryConnection(t *testing.T) {
	hub := newHub(zerolog.Nop())

	a := newClient(nil, "alice")
	b := newClient(nil, "alice")
	other := newClient(nil, "bob")
	hub.add(a)
	hub.add(b)
	hub.add(other)

	ev := session.RoomCreated{Header: session.Header{Type: "roomCreated"}, Code: "ABCD"}
	hub.Notify("alice", ev)

	for _, c := range []*Client{a, b} {
		require.Len(t, c.send, 1)
		assert.Equal(t, session.Event(ev), <-c.send)
	}
	assert.Empty(t, other.send)
	assert.Equal(t, 3, hub.count())
}

func TestHubDropsSlowConnection(t *testing.T) {
	hub := newHub(zerolog.Nop())

	c := newClient(nil, "alice")
	hub.add(c)

	ev := session.RoomError{Header: session.Header{Type: "roomError"}, Message: "x"}
	for i := 0; i < sendBuffer; i++ {
		hub.Notify("alice", ev)
	}

	select {
	case <-c.done:
		t.Fatal("connection closed before its buffer filled")
	default:
	}

	hub.Notify("alice", ev)

	select {
	case <-c.done:
	default:
		t.Fatal("slow connection was not closed")
	}
}

func TestHubRemoveReportsLastConnection(t *testing.T) {
	hub := newHub(zerolog.Nop())

	a := newClient(nil, "alice")
	b := newClient(nil, "alice")
	hub.add(a)
	hub.add(b)

	assert.False(t, hub.remove(a))
	assert.True(t, hub.remove(b))
	assert.Zero(t, hub.count())

	hub.Notify("alice", session.RoomCreated{Header: session.Header{Type: "roomCreated"}})
	assert.Empty(t, b.send)
}
