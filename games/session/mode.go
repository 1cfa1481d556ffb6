/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"fmt"

	"github.com/Seednode/partydeck/games/animlock"
	"github.com/Seednode/partydeck/games/roster"
)

// Mode selects the game a room plays. It is fixed when a game starts.
type Mode string

const (
	ModeEights    Mode = "eights"
	ModeOverUnder Mode = "overunder"
)

func (m Mode) Valid() bool {
	return m == ModeEights || m == ModeOverUnder
}

// Game is one mode's engine as a room drives it. Every method runs on the
// room's loop.
type Game interface {
	// Start announces the new game and opens its first turn or round.
	Start()

	// Handle applies a mode-specific action that already passed the
	// animation lock.
	Handle(clientID string, a Action) error

	// Released is called after the animation lock clears, by a completion
	// signal or by the fallback timer.
	Released(reason animlock.Reason)

	PlayerConnectionChanged(playerID string, connected bool)

	Public() any
	Private(playerID string) (any, error)

	Phase() string
	Over() bool

	// Stop cancels the engine's own timers before it is replaced or the
	// room closes.
	Stop()
}

func newGame(r *room, mode Mode, players []roster.Player) (Game, error) {
	var (
		g   Game
		err error
	)

	switch mode {
	case ModeEights:
		g, err = newEightsGame(r, players)
	case ModeOverUnder:
		g, err = newOverUnderGame(r, players)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if err != nil {
		return nil, err
	}

	return g, nil
}
