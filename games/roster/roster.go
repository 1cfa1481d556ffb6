/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package roster tracks who is in a room: identity, color, first player and
// connection state.
package roster

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxPlayers is the hard ceiling on players per room.
const MaxPlayers = 4

const maxNameLength = 24

// Palette is the fixed set of player colors, assigned in order.
var Palette = []string{"pink", "cyan", "orange", "purple"}

var (
	ErrRoomFull      = errors.New("room is full")
	ErrNameTaken     = errors.New("that name is already taken")
	ErrInvalidName   = errors.New("name must be between 1 and 24 characters")
	ErrUnknownPlayer = errors.New("unknown player")
)

// Player is one seat in a room. Hands are owned by the game engines.
type Player struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	FirstPlayer bool      `json:"isFirstPlayer"`
	Connected   bool      `json:"connected"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Roster keeps players in join order. It is not safe for concurrent use;
// the owning room serializes access.
type Roster struct {
	players []*Player
	max     int
}

func New(max int) *Roster {
	if max <= 0 || max > MaxPlayers {
		max = MaxPlayers
	}

	return &Roster{max: max}
}

// Join adds a player, or reconnects an existing one with the same id.
// The boolean result is true for a reconnect.
func (r *Roster) Join(id, name string, now time.Time) (Player, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return Player{}, false, ErrInvalidName
	}

	for _, p := range r.players {
		if p.ID != id && strings.EqualFold(p.Name, name) {
			return Player{}, false, ErrNameTaken
		}
	}

	if p := r.find(id); p != nil {
		p.Name = name
		p.Connected = true

		return *p, true, nil
	}

	if len(r.players) >= r.max {
		return Player{}, false, ErrRoomFull
	}

	p := &Player{
		ID:          id,
		Name:        name,
		Color:       r.nextColor(),
		FirstPlayer: len(r.players) == 0,
		Connected:   true,
		JoinedAt:    now,
	}
	r.players = append(r.players, p)

	return *p, false, nil
}

// Disconnect marks a player as gone without removing their seat.
func (r *Roster) Disconnect(id string) (Player, error) {
	p := r.find(id)
	if p == nil {
		return Player{}, ErrUnknownPlayer
	}

	p.Connected = false

	return *p, nil
}

// Remove deletes a player, freeing their color. If they were the first
// player, the flag passes to the earliest remaining connected player.
func (r *Roster) Remove(id string) (Player, error) {
	idx := -1
	for i, p := range r.players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Player{}, ErrUnknownPlayer
	}

	removed := *r.players[idx]
	r.players = append(r.players[:idx], r.players[idx+1:]...)

	if removed.FirstPlayer {
		r.promoteFirst()
	}

	return removed, nil
}

func (r *Roster) promoteFirst() {
	for _, p := range r.players {
		if p.Connected {
			p.FirstPlayer = true
			return
		}
	}
	if len(r.players) > 0 {
		r.players[0].FirstPlayer = true
	}
}

func (r *Roster) Get(id string) (Player, bool) {
	p := r.find(id)
	if p == nil {
		return Player{}, false
	}

	return *p, true
}

// IsFirstPlayer reports whether id holds the first-player flag.
func (r *Roster) IsFirstPlayer(id string) bool {
	p := r.find(id)

	return p != nil && p.FirstPlayer
}

// Players returns a copy of every seat in join order.
func (r *Roster) Players() []Player {
	out := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}

	return out
}

// Connected returns a copy of the connected seats in join order.
func (r *Roster) Connected() []Player {
	out := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		if p.Connected {
			out = append(out, *p)
		}
	}

	return out
}

func (r *Roster) Len() int {
	return len(r.players)
}

func (r *Roster) find(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}

	return nil
}

func (r *Roster) nextColor() string {
	used := make(map[string]bool, len(r.players))
	for _, p := range r.players {
		used[p.Color] = true
	}

	for _, c := range Palette {
		if !used[c] {
			return c
		}
	}

	return Palette[len(r.players)%len(Palette)]
}
