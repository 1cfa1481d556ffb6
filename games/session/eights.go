/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"fmt"
	"time"

	"github.com/Seednode/partydeck/games/animlock"
	"github.com/Seednode/partydeck/games/cards"
	"github.com/Seednode/partydeck/games/eights"
	"github.com/Seednode/partydeck/games/roster"
)

// Nominal lengths of the display's animations.
const (
	FlipDuration        = 2000 * time.Millisecond
	PlayDuration        = 1500 * time.Millisecond
	WildDuration        = 3300 * time.Millisecond
	DrawDuration        = 800 * time.Millisecond
	ColorChosenDuration = 1200 * time.Millisecond
	WinnerDuration      = 6000 * time.Millisecond
)

type eightsGame struct {
	r *room
	g *eights.Game

	// winner is held back until the winning card's own event is out.
	winner *WinnerDetected
}

func newEightsGame(r *room, players []roster.Player) (*eightsGame, error) {
	e := &eightsGame{r: r}

	var opts eights.Options
	if r.reg.opts.Eights != nil {
		opts = r.reg.opts.Eights()
	}
	if opts.Rand == nil {
		opts.Rand = r.reg.opts.NewRand()
	}
	opts.OnWinnerDetected = e.winnerDetected

	seats := make([]eights.Seat, 0, len(players))
	for _, p := range players {
		seats = append(seats, eights.Seat{ID: p.ID, Name: p.Name, Color: p.Color, Connected: p.Connected})
	}

	g, err := eights.New(seats, opts)
	if err != nil {
		return nil, err
	}
	e.g = g

	return e, nil
}

func (e *eightsGame) Start() {
	e.acquire(animlock.Animation, FlipDuration)

	e.r.broadcast(GameStarted{Header: header("gameStarted"), Mode: ModeEights, View: e.public()})
	e.r.sendState()
}

func (e *eightsGame) Handle(clientID string, a Action) error {
	switch a.Type {
	case KindPlayCard:
		if a.Card == nil {
			return &ActionError{Kind: a.Type, Field: "card", Reason: "is required"}
		}
		return e.play(clientID, *a.Card, a.ChosenColor)
	case KindDrawCard:
		return e.draw(clientID)
	case KindChooseColor:
		return e.chooseColor(clientID, a.Color)
	default:
		return fmt.Errorf("%w: %s", ErrWrongMode, a.Type)
	}
}

func (e *eightsGame) play(playerID string, card cards.Card, declared cards.Color) error {
	res, err := e.g.Play(playerID, card, declared)
	if err != nil {
		return err
	}

	switch {
	case res.Won:
		// winnerDetected already took the winner lock.
	case res.Wild:
		e.acquire(animlock.Animation, WildDuration, string(KindChooseColor))
	default:
		e.acquire(animlock.Animation, PlayDuration)
	}

	e.r.log.Debug().Str("player", e.r.name(playerID)).Str("card", card.String()).Msg("card played")

	e.r.broadcast(CardPlayed{
		Header:        header("cardPlayed"),
		Player:        e.r.name(playerID),
		Card:          res.Card,
		DeclaredColor: res.Declared,
		View:          e.public(),
	})

	if w := e.winner; w != nil {
		e.winner = nil
		e.r.toDisplay(*w)
	}

	e.r.sendState()

	return nil
}

func (e *eightsGame) draw(playerID string) error {
	res, err := e.g.Draw(playerID)
	if err != nil {
		return err
	}

	e.acquire(animlock.Animation, DrawDuration)

	if res.Passed {
		e.r.log.Info().Str("player", e.r.name(playerID)).Msg("deck and discard exhausted, turn passed")
	}

	e.r.broadcast(CardDrawn{
		Header:     header("cardDrawn"),
		Player:     e.r.name(playerID),
		Reshuffled: res.Reshuffled,
		Passed:     res.Passed,
		View:       e.public(),
	})
	e.r.sendState()

	return nil
}

// chooseColor resolves a wild. While the wild's own animation still runs the
// turn stays put until it is released; otherwise it moves at once.
func (e *eightsGame) chooseColor(playerID string, color cards.Color) error {
	if err := e.g.ChooseColor(playerID, color); err != nil {
		return err
	}

	if !e.r.lock.Held() {
		e.g.Settle()
		e.acquire(animlock.Animation, ColorChosenDuration)
	}

	e.r.broadcast(ColorChosen{
		Header: header("colorChosen"),
		Player: e.r.name(playerID),
		Color:  color,
		View:   e.public(),
	})
	e.r.sendState()

	return nil
}

func (e *eightsGame) winnerDetected(w eights.Standing, standings []eights.Standing) {
	e.acquire(animlock.Winner, WinnerDuration)

	e.r.log.Info().Str("winner", w.Name).Msg("winner detected")

	e.winner = &WinnerDetected{Header: header("winnerDetected"), Winner: w.Name, Roster: standings}
}

func (e *eightsGame) Released(reason animlock.Reason) {
	switch reason {
	case animlock.Winner:
		if err := e.g.FinishWinnerSequence(); err != nil {
			e.r.log.Warn().Err(err).Msg("winner sequence released out of phase")

			return
		}

		e.r.broadcast(GameOver{Header: header("gameOver"), Winner: e.winnerName(), Roster: e.g.Standings()})
		e.r.gameEnded()
		e.r.sendState()
	case animlock.Animation:
		if e.g.Settle() {
			e.r.sendState()
		}
	}
}

func (e *eightsGame) PlayerConnectionChanged(playerID string, connected bool) {
	res, err := e.g.SetConnected(playerID, connected)
	if err != nil {
		// Not seated in this hand; the room still owes them a view.
		e.r.sendState()

		return
	}

	if !connected && !e.g.Phase().Over() && e.g.ConnectedCount() < 2 {
		e.abandon()

		return
	}

	if res.AutoColor != cards.NoColor {
		e.r.broadcast(ColorChosen{
			Header: header("colorChosen"),
			Player: e.r.name(playerID),
			Color:  res.AutoColor,
			Auto:   true,
			View:   e.public(),
		})
	}

	e.r.sendState()
}

// abandon ends a hand left with fewer than two connected players.
func (e *eightsGame) abandon() {
	if err := e.g.Abandon(); err != nil {
		return
	}

	e.r.lock.Cancel()
	e.r.log.Info().Msg("too few players left, hand abandoned")

	e.r.broadcast(GameOver{Header: header("gameOver"), Reason: ReasonTooFewPlayers, Roster: e.g.Standings()})
	e.r.gameEnded()
	e.r.sendState()
}

func (e *eightsGame) acquire(reason animlock.Reason, d time.Duration, allow ...string) {
	if _, err := e.r.lock.Acquire(reason, d, allow...); err != nil {
		e.r.log.Debug().Err(err).Str("reason", reason.String()).Msg("animation lock not taken")
	}
}

func (e *eightsGame) winnerName() string {
	for _, s := range e.g.Standings() {
		if s.ID == e.g.Winner() {
			return s.Name
		}
	}

	return ""
}

func (e *eightsGame) public() eights.PublicView {
	return e.g.ProjectPublic(e.r.lock.Held())
}

func (e *eightsGame) Public() any {
	return e.public()
}

func (e *eightsGame) Private(playerID string) (any, error) {
	return e.g.ProjectPrivate(playerID, e.r.lock.Held())
}

func (e *eightsGame) Phase() string {
	return string(e.g.Phase())
}

func (e *eightsGame) Over() bool {
	return e.g.Phase() == eights.PhaseGameOver
}

func (e *eightsGame) Stop() {}
