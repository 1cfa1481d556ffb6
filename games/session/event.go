/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"time"

	"github.com/Seednode/partydeck/games/cards"
	"github.com/Seednode/partydeck/games/eights"
	"github.com/Seednode/partydeck/games/overunder"
)

// Event is one outbound message. Every event marshals to a flat JSON object
// with a "type" field.
type Event interface {
	EventType() string
}

// Notifier delivers events to connected clients. Notify is called from a
// room's loop and must not block.
type Notifier interface {
	Notify(clientID string, ev Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(clientID string, ev Event)

func (f NotifierFunc) Notify(clientID string, ev Event) {
	f(clientID, ev)
}

// Header carries the event type and is embedded in every event.
type Header struct {
	Type string `json:"type"`
}

func (h Header) EventType() string {
	return h.Type
}

func header(t string) Header {
	return Header{Type: t}
}

// LobbyPlayer is the roster entry everyone may see. Client ids are never
// sent to other clients.
type LobbyPlayer struct {
	Name          string `json:"name"`
	Color         string `json:"color"`
	IsFirstPlayer bool   `json:"isFirstPlayer"`
	Connected     bool   `json:"connected"`
}

// RoomSnapshot is the state handed to a client that just joined.
type RoomSnapshot struct {
	Code    string        `json:"code"`
	Mode    Mode          `json:"mode,omitempty"`
	Phase   string        `json:"phase"`
	Players []LobbyPlayer `json:"players"`
}

type RoomCreated struct {
	Header
	Code string `json:"code"`
}

type JoinResult struct {
	Header
	Success       bool          `json:"success"`
	Message       string        `json:"message,omitempty"`
	Code          string        `json:"code,omitempty"`
	Color         string        `json:"color,omitempty"`
	IsFirstPlayer bool          `json:"isFirstPlayer"`
	Rejoined      bool          `json:"rejoined,omitempty"`
	Room          *RoomSnapshot `json:"roomSnapshot,omitempty"`
}

type PlayerJoined struct {
	Header
	Name   string        `json:"name"`
	Roster []LobbyPlayer `json:"roster"`
}

type PlayerLeft struct {
	Header
	Name    string        `json:"name"`
	Removed bool          `json:"removed,omitempty"`
	Roster  []LobbyPlayer `json:"roster"`
}

type GameStarted struct {
	Header
	Mode Mode `json:"mode"`
	View any  `json:"publicView"`
}

type CardPlayed struct {
	Header
	Player        string            `json:"player"`
	Card          cards.Card        `json:"card"`
	DeclaredColor cards.Color       `json:"declaredColor,omitempty"`
	View          eights.PublicView `json:"publicView"`
}

type CardDrawn struct {
	Header
	Player     string            `json:"player"`
	Reshuffled bool              `json:"reshuffled,omitempty"`
	Passed     bool              `json:"passed,omitempty"`
	View       eights.PublicView `json:"publicView"`
}

type ColorChosen struct {
	Header
	Player string            `json:"player"`
	Color  cards.Color       `json:"color"`
	Auto   bool              `json:"auto,omitempty"`
	View   eights.PublicView `json:"publicView"`
}

// GameStateUpdated carries the public view to the display and each
// player's private view to that player.
type GameStateUpdated struct {
	Header
	View any `json:"view"`
}

type WinnerDetected struct {
	Header
	Winner string            `json:"winner"`
	Roster []eights.Standing `json:"roster"`
}

// ReasonTooFewPlayers is the GameOver reason when disconnects leave fewer
// than two players able to continue.
const ReasonTooFewPlayers = "not enough players"

// GameOver ends a game. Reason is set when the game was cut short.
type GameOver struct {
	Header
	Winner string `json:"winner,omitempty"`
	Reason string `json:"reason,omitempty"`
	Roster any    `json:"roster"`
}

type RoomClosed struct {
	Header
	Reason  string `json:"reason"`
	NewCode string `json:"newCode,omitempty"`
}

type NewRoom struct {
	Header
	NewCode string `json:"newCode"`
}

type RoomError struct {
	Header
	Message string `json:"message"`
	Action  Kind   `json:"action,omitempty"`
}

type RoundStarted struct {
	Header
	Number       int                  `json:"roundNumber"`
	Prompt       overunder.Prompt     `json:"prompt"`
	Answerer     string               `json:"answerer"`
	VotingEndsAt time.Time            `json:"votingEndsAt"`
	View         overunder.PublicView `json:"publicView"`
}

type VoteReceived struct {
	Header
	Player    string `json:"player"`
	VotesCast int    `json:"votesCast"`
}

type RoundResolved struct {
	Header
	Number  int                  `json:"roundNumber"`
	Prompt  overunder.Prompt     `json:"prompt"`
	Answer  *float64             `json:"answer,omitempty"`
	Actual  overunder.Vote       `json:"actual,omitempty"`
	Correct []string             `json:"correct"`
	Wrong   []string             `json:"wrong"`
	Final   bool                 `json:"final"`
	Scores  []overunder.Standing `json:"scores"`
}
