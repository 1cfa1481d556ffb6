/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Seednode/partydeck/games/cards"
	"github.com/Seednode/partydeck/games/overunder"
)

// Kind names an inbound action.
type Kind string

const (
	KindCreateRoom              Kind = "create_room"
	KindJoinRoom                Kind = "join_room"
	KindStartGame               Kind = "start_game"
	KindPlayCard                Kind = "play_card"
	KindDrawCard                Kind = "draw_card"
	KindChooseColor             Kind = "choose_color"
	KindAnimationComplete       Kind = "animation_complete"
	KindFirstCardFlipComplete   Kind = "first_card_flip_complete"
	KindWinnerAnimationComplete Kind = "winner_animation_complete"
	KindRestartGame             Kind = "restart_game"
	KindRequestNewRoom          Kind = "request_new_room"
	KindSubmitAnswer            Kind = "submit_answer"
	KindSubmitVote              Kind = "submit_vote"
	KindNextRound               Kind = "next_round"
)

// Action is one decoded client message. Which fields are set depends on
// Type; ParseAction guarantees the ones each kind needs.
type Action struct {
	Type        Kind           `json:"type"`
	Code        string         `json:"code,omitempty"`
	Name        string         `json:"name,omitempty"`
	Mode        Mode           `json:"mode,omitempty"`
	Card        *cards.Card    `json:"card,omitempty"`
	ChosenColor cards.Color    `json:"chosenColor,omitempty"`
	Color       cards.Color    `json:"color,omitempty"`
	Winner      string         `json:"winner,omitempty"`
	Answer      *float64       `json:"answer,omitempty"`
	Vote        overunder.Vote `json:"vote,omitempty"`
}

// ActionError reports a malformed action. Field is empty when the payload
// could not be decoded at all.
type ActionError struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *ActionError) Error() string {
	kind := string(e.Kind)
	if kind == "" {
		kind = "unknown"
	}

	if e.Field == "" {
		return fmt.Sprintf("malformed %s action: %s", kind, e.Reason)
	}

	return fmt.Sprintf("malformed %s action: %s %s", kind, e.Field, e.Reason)
}

type rule struct {
	code     bool
	validate func(*Action) *ActionError
}

var rules = map[Kind]rule{
	KindCreateRoom: {},
	KindJoinRoom: {code: true, validate: func(a *Action) *ActionError {
		if strings.TrimSpace(a.Name) == "" {
			return &ActionError{Kind: a.Type, Field: "name", Reason: "is required"}
		}
		return nil
	}},
	KindStartGame: {code: true, validate: func(a *Action) *ActionError {
		if a.Mode != "" && !a.Mode.Valid() {
			return &ActionError{Kind: a.Type, Field: "mode", Reason: fmt.Sprintf("%q is not a game mode", a.Mode)}
		}
		return nil
	}},
	KindPlayCard: {code: true, validate: func(a *Action) *ActionError {
		if a.Card == nil {
			return &ActionError{Kind: a.Type, Field: "card", Reason: "is required"}
		}
		if a.Card.Color != cards.NoColor {
			if c, err := cards.ParseColor(string(a.Card.Color)); err == nil {
				a.Card.Color = c
			}
		}
		if err := a.Card.Validate(); err != nil {
			return &ActionError{Kind: a.Type, Field: "card", Reason: err.Error()}
		}
		if a.ChosenColor != cards.NoColor {
			c, err := cards.ParseColor(string(a.ChosenColor))
			if err != nil {
				return &ActionError{Kind: a.Type, Field: "chosenColor", Reason: fmt.Sprintf("%q is not a color", a.ChosenColor)}
			}
			a.ChosenColor = c
		}
		return nil
	}},
	KindDrawCard: {code: true},
	KindChooseColor: {code: true, validate: func(a *Action) *ActionError {
		c, err := cards.ParseColor(string(a.Color))
		if err != nil {
			return &ActionError{Kind: a.Type, Field: "color", Reason: fmt.Sprintf("%q is not a color", a.Color)}
		}
		a.Color = c
		return nil
	}},
	KindAnimationComplete:       {},
	KindFirstCardFlipComplete:   {},
	KindWinnerAnimationComplete: {code: true},
	KindRestartGame:             {code: true},
	KindRequestNewRoom:          {code: true},
	KindSubmitAnswer: {code: true, validate: func(a *Action) *ActionError {
		if a.Answer == nil {
			return &ActionError{Kind: a.Type, Field: "answer", Reason: "is required"}
		}
		return nil
	}},
	KindSubmitVote: {code: true, validate: func(a *Action) *ActionError {
		v, err := overunder.ParseVote(string(a.Vote))
		if err != nil {
			return &ActionError{Kind: a.Type, Field: "vote", Reason: "must be over or under"}
		}
		a.Vote = v
		return nil
	}},
	KindNextRound: {code: true},
}

// ParseAction decodes a client message strictly: unknown fields, unknown
// kinds and missing required fields are all errors, never defaults.
func ParseAction(data []byte) (Action, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var a Action
	if err := dec.Decode(&a); err != nil {
		return Action{}, &ActionError{Kind: a.Type, Reason: err.Error()}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Action{}, &ActionError{Kind: a.Type, Reason: "trailing data after message"}
	}

	r, ok := rules[a.Type]
	if !ok {
		if a.Type == "" {
			return Action{}, &ActionError{Field: "type", Reason: "is required"}
		}
		return Action{}, &ActionError{Kind: a.Type, Field: "type", Reason: "is not a known action"}
	}

	a.Code = NormalizeCode(a.Code)
	if r.code && a.Code == "" {
		return Action{}, &ActionError{Kind: a.Type, Field: "code", Reason: "is required"}
	}

	if r.validate != nil {
		if err := r.validate(&a); err != nil {
			return Action{}, err
		}
	}

	return a, nil
}

// NormalizeCode upper-cases and trims a room code typed by a player.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
