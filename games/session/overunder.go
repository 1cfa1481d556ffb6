/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/Seednode/partydeck/games/animlock"
	"github.com/Seednode/partydeck/games/overunder"
	"github.com/Seednode/partydeck/games/roster"
)

type overUnderGame struct {
	r *room
	g *overunder.Game

	deadline time.Time
	window   animlock.Timer
	next     animlock.Timer

	// gen invalidates timers scheduled for an earlier round.
	gen uint64
}

func newOverUnderGame(r *room, players []roster.Player) (*overUnderGame, error) {
	seats := make([]overunder.Seat, 0, len(players))
	for _, p := range players {
		seats = append(seats, overunder.Seat{ID: p.ID, Name: p.Name, Color: p.Color, Connected: p.Connected})
	}

	g, err := overunder.New(seats, overunder.Options{
		Rounds:  r.reg.opts.Rounds,
		Prompts: r.reg.opts.Prompts,
		Rand:    r.reg.opts.NewRand(),
	})
	if err != nil {
		return nil, err
	}

	return &overUnderGame{r: r, g: g}, nil
}

func (o *overUnderGame) Start() {
	o.r.broadcast(GameStarted{Header: header("gameStarted"), Mode: ModeOverUnder, View: o.public()})

	if err := o.startRound(); err != nil {
		o.r.log.Warn().Err(err).Msg("first round did not start")
	}
}

func (o *overUnderGame) startRound() error {
	round, err := o.g.StartRound()
	if errors.Is(err, overunder.ErrTooFewPlayers) {
		o.abandon()

		return err
	}
	if err != nil {
		return err
	}

	o.stopTimers()
	o.gen++
	gen := o.gen

	window := o.r.reg.opts.VoteWindow
	o.deadline = o.r.reg.now().Add(window)
	o.window = o.r.after(window, func() {
		if gen != o.gen || o.g.Phase() != overunder.PhaseRoundStarted {
			return
		}

		o.r.log.Debug().Int("round", round.Number).Msg("voting window closed")
		o.resolve()
	})

	o.r.broadcast(RoundStarted{
		Header:       header("roundStarted"),
		Number:       round.Number,
		Prompt:       round.Prompt,
		Answerer:     o.r.name(round.AnswererID),
		VotingEndsAt: o.deadline,
		View:         o.public(),
	})
	o.r.sendState()

	return nil
}

func (o *overUnderGame) Handle(clientID string, a Action) error {
	switch a.Type {
	case KindSubmitAnswer:
		if a.Answer == nil {
			return &ActionError{Kind: a.Type, Field: "answer", Reason: "is required"}
		}
		if err := o.g.SubmitAnswer(clientID, *a.Answer); err != nil {
			return err
		}

		o.r.sendState()
		o.maybeResolve()

		return nil
	case KindSubmitVote:
		if err := o.g.SubmitVote(clientID, a.Vote); err != nil {
			return err
		}

		round, _ := o.g.CurrentRound()
		o.r.broadcast(VoteReceived{Header: header("voteReceived"), Player: o.r.name(clientID), VotesCast: len(round.Votes)})
		o.r.sendState()
		o.maybeResolve()

		return nil
	case KindNextRound:
		if !o.r.canControl(clientID) {
			return ErrNotAllowed
		}

		return o.startRound()
	default:
		return fmt.Errorf("%w: %s", ErrWrongMode, a.Type)
	}
}

func (o *overUnderGame) maybeResolve() {
	if o.g.Ready() {
		o.resolve()
	}
}

func (o *overUnderGame) resolve() {
	res, err := o.g.Resolve()
	if err != nil {
		return
	}

	o.stopTimers()
	o.gen++

	o.r.broadcast(RoundResolved{
		Header:  header("roundResolved"),
		Number:  res.Round.Number,
		Prompt:  res.Round.Prompt,
		Answer:  res.Round.Answer,
		Actual:  res.Actual,
		Correct: o.names(res.Correct),
		Wrong:   o.names(res.Wrong),
		Final:   res.Final,
		Scores:  o.g.Standings(),
	})

	if res.Final {
		standings := o.g.Standings()

		var winner string
		if len(standings) == 1 || (len(standings) > 1 && standings[0].Score > standings[1].Score) {
			winner = standings[0].Name
		}

		o.r.broadcast(GameOver{Header: header("gameOver"), Winner: winner, Roster: standings})
		o.r.gameEnded()
		o.r.sendState()

		return
	}

	gen := o.gen
	o.next = o.r.after(o.r.reg.opts.ResultsDelay, func() {
		if gen != o.gen || o.g.Phase() != overunder.PhaseRoundEnd {
			return
		}

		if err := o.startRound(); err != nil && !o.Over() {
			o.r.toDisplay(RoomError{Header: header("roomError"), Message: err.Error(), Action: KindNextRound})
		}
	})

	o.r.sendState()
}

// abandon ends the game once fewer than two players remain connected.
func (o *overUnderGame) abandon() {
	if err := o.g.Abandon(); err != nil {
		return
	}

	o.stopTimers()
	o.gen++

	o.r.log.Info().Msg("too few players left, game abandoned")

	o.r.broadcast(GameOver{Header: header("gameOver"), Reason: ReasonTooFewPlayers, Roster: o.g.Standings()})
	o.r.gameEnded()
	o.r.sendState()
}

func (o *overUnderGame) names(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, o.r.name(id))
	}

	return out
}

func (o *overUnderGame) Released(animlock.Reason) {}

func (o *overUnderGame) PlayerConnectionChanged(playerID string, connected bool) {
	if err := o.g.SetConnected(playerID, connected); err != nil {
		o.r.sendState()

		return
	}

	if !connected && !o.Over() && o.g.ConnectedCount() < 2 {
		o.abandon()

		return
	}

	o.r.sendState()

	if !connected {
		o.maybeResolve()
	}
}

func (o *overUnderGame) public() overunder.PublicView {
	return o.g.ProjectPublic(o.r.lock.Held(), o.deadline)
}

func (o *overUnderGame) Public() any {
	return o.public()
}

func (o *overUnderGame) Private(playerID string) (any, error) {
	return o.g.ProjectPrivate(playerID, o.r.lock.Held(), o.deadline)
}

func (o *overUnderGame) Phase() string {
	return string(o.g.Phase())
}

func (o *overUnderGame) Over() bool {
	return o.g.Phase() == overunder.PhaseGameOver
}

func (o *overUnderGame) Stop() {
	o.stopTimers()
	o.gen++
}

func (o *overUnderGame) stopTimers() {
	for _, t := range []animlock.Timer{o.window, o.next} {
		if t != nil {
			t.Stop()
		}
	}

	o.window, o.next = nil, nil
}
