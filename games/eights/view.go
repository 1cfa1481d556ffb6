/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package eights

import "github.com/Seednode/partydeck/games/cards"

// PlayerView is what everyone may know about a seat.
type PlayerView struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	CardCount int    `json:"cardCount"`
	Connected bool   `json:"connected"`
	IsCurrent bool   `json:"isCurrent"`
}

// PublicView is the state shown on the shared display. It never contains
// card faces other than the top of the discard pile.
type PublicView struct {
	Phase              Phase        `json:"phase"`
	IsAnimating        bool         `json:"isAnimating"`
	CurrentPlayerName  string       `json:"currentPlayerName"`
	CurrentPlayerIndex int          `json:"currentPlayerIndex"`
	LastPlayedCard     cards.Card   `json:"lastPlayedCard"`
	CurrentColor       cards.Color  `json:"currentColor"`
	PendingColorChoice bool         `json:"pendingColorChoice"`
	DeclaredColor      cards.Color  `json:"declaredColor,omitempty"`
	DeckCount          int          `json:"deckCount"`
	DiscardCount       int          `json:"discardCount"`
	Players            []PlayerView `json:"players"`
	Winner             string       `json:"winner,omitempty"`
}

// PrivateView adds the recipient's own hand to the public state.
type PrivateView struct {
	PublicView
	MyHand   []cards.Card `json:"myHand"`
	IsMyTurn bool         `json:"isMyTurn"`
	Playable []cards.Card `json:"playable"`
}

// ProjectPublic builds the display's view. animating comes from the room's
// lock, which the engine does not own.
func (g *Game) ProjectPublic(animating bool) PublicView {
	v := PublicView{
		Phase:              g.phase,
		IsAnimating:        animating,
		CurrentPlayerIndex: g.CurrentPlayerIndex(),
		LastPlayedCard:     g.Top(),
		CurrentColor:       g.color,
		PendingColorChoice: g.PendingColorChoice(),
		DeclaredColor:      g.declared,
		DeckCount:          g.deck.Len(),
		DiscardCount:       g.discard.Len(),
		Players:            make([]PlayerView, 0, len(g.seats)),
	}

	for i, s := range g.seats {
		current := i == g.current && !g.phase.Over()
		if current {
			v.CurrentPlayerName = s.Name
		}
		if s.ID == g.winner {
			v.Winner = s.Name
		}

		v.Players = append(v.Players, PlayerView{
			Name:      s.Name,
			Color:     s.Color,
			CardCount: len(s.hand),
			Connected: s.Connected,
			IsCurrent: current,
		})
	}

	return v
}

// ProjectPrivate builds one player's view. It only ever reads that player's
// hand.
func (g *Game) ProjectPrivate(playerID string, animating bool) (PrivateView, error) {
	s := g.seat(playerID)
	if s == nil {
		return PrivateView{}, ErrUnknownPlayer
	}

	hand := make([]cards.Card, len(s.hand))
	copy(hand, s.hand)

	v := PrivateView{
		PublicView: g.ProjectPublic(animating),
		MyHand:     hand,
		Playable:   []cards.Card{},
	}

	mine := g.seats[g.current] == s && g.phase == PhasePlaying && !g.advanceOwed
	v.IsMyTurn = mine
	if mine {
		v.Playable = cards.Playable(s.hand, g.Top(), g.color)
	}

	return v, nil
}
