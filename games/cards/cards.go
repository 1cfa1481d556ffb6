/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package cards holds the card and deck primitives shared by the card modes.
package cards

import (
	"errors"
	"fmt"
	"strings"
)

// Color is a card suit color. Wild cards carry NoColor until one is chosen.
type Color string

const (
	NoColor Color = ""
	Red     Color = "red"
	Blue    Color = "blue"
	Green   Color = "green"
	Yellow  Color = "yellow"
)

// Colors lists every playable color in deck order.
var Colors = []Color{Red, Blue, Green, Yellow}

// Rank is a card face value between MinRank and MaxRank inclusive.
type Rank int

const (
	MinRank Rank = 1
	MaxRank Rank = 13

	// WildRank is the crazy eight.
	WildRank Rank = 8
)

// DeckSize is the number of cards in a full deck: twelve colored ranks per
// color plus one colorless eight per color.
const DeckSize = 52

var (
	ErrInvalidColor = errors.New("invalid color")
	ErrInvalidRank  = errors.New("invalid rank")
	ErrColoredWild  = errors.New("wild cards have no color")
)

// Card is an immutable playing card.
type Card struct {
	Color Color `json:"color,omitempty"`
	Rank  Rank  `json:"rank"`
}

// Wild returns a colorless eight.
func Wild() Card {
	return Card{Rank: WildRank}
}

func (c Card) IsWild() bool {
	return c.Rank == WildRank
}

func (c Card) String() string {
	if c.IsWild() {
		return "wild 8"
	}

	return fmt.Sprintf("%s %d", c.Color, c.Rank)
}

// Validate checks that c could exist in a deck built by NewDeck.
func (c Card) Validate() error {
	if c.Rank < MinRank || c.Rank > MaxRank {
		return fmt.Errorf("%w: %d", ErrInvalidRank, c.Rank)
	}

	if c.IsWild() {
		if c.Color != NoColor {
			return ErrColoredWild
		}

		return nil
	}

	if !c.Color.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidColor, c.Color)
	}

	return nil
}

func (c Color) Valid() bool {
	for _, v := range Colors {
		if c == v {
			return true
		}
	}

	return false
}

// ParseColor accepts a color name in any case.
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return NoColor, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	return c, nil
}

// NewDeck returns an unshuffled deck of DeckSize cards.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, color := range Colors {
		for r := MinRank; r <= MaxRank; r++ {
			if r == WildRank {
				deck = append(deck, Wild())
				continue
			}
			deck = append(deck, Card{Color: color, Rank: r})
		}
	}

	return deck
}

// CanPlay reports whether c may be played on top while current is the
// color in force.
func CanPlay(c, top Card, current Color) bool {
	return c.IsWild() || c.Color == current || c.Rank == top.Rank
}

// Playable returns the cards in hand that CanPlay accepts, in hand order.
func Playable(hand []Card, top Card, current Color) []Card {
	out := make([]Card, 0, len(hand))
	for _, c := range hand {
		if CanPlay(c, top, current) {
			out = append(out, c)
		}
	}

	return out
}

// HasPlayable is Playable without the allocation.
func HasPlayable(hand []Card, top Card, current Color) bool {
	for _, c := range hand {
		if CanPlay(c, top, current) {
			return true
		}
	}

	return false
}

// Remove deletes the first card equal to c from hand. The returned slice
// shares no memory with hand.
func Remove(hand []Card, c Card) ([]Card, bool) {
	for i, h := range hand {
		if h == c {
			out := make([]Card, 0, len(hand)-1)
			out = append(out, hand[:i]...)
			out = append(out, hand[i+1:]...)

			return out, true
		}
	}

	return hand, false
}

// MostCommonColor returns the color appearing most often among the
// non-wild cards in hand, falling back to Red.
func MostCommonColor(hand []Card) Color {
	counts := make(map[Color]int, len(Colors))
	for _, c := range hand {
		if !c.IsWild() {
			counts[c.Color]++
		}
	}

	best, bestCount := Red, 0
	for _, color := range Colors {
		if counts[color] > bestCount {
			best, bestCount = color, counts[color]
		}
	}

	return best
}
