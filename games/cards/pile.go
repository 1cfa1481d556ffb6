/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package cards

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Pile is a stack of cards; the last element is the top.
type Pile []Card

func (p Pile) Len() int {
	return len(p)
}

// Top returns the top card without removing it.
func (p Pile) Top() (Card, bool) {
	if len(p) == 0 {
		return Card{}, false
	}

	return p[len(p)-1], true
}

func (p *Pile) Push(c Card) {
	*p = append(*p, c)
}

func (p *Pile) Pop() (Card, bool) {
	n := len(*p)
	if n == 0 {
		return Card{}, false
	}

	c := (*p)[n-1]
	*p = (*p)[:n-1]

	return c, true
}

// Shuffle permutes cards in place with a Fisher-Yates shuffle.
func Shuffle(rng *rand.Rand, cards []Card) {
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// NewRand returns a generator seeded from crypto/rand.
func NewRand() *rand.Rand {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	return rand.New(rand.NewChaCha8(seed))
}

// NewSeededRand returns a deterministic generator, for tests and replays.
func NewSeededRand(seed uint64) *rand.Rand {
	var b [32]byte
	binary.LittleEndian.PutUint64(b[:], seed)

	return rand.New(rand.NewChaCha8(b))
}

// StackedDeck returns a full unshuffled deck ordered so that the given cards
// come off the top first, in order.
func StackedDeck(first ...Card) ([]Card, error) {
	rest := NewDeck()
	for _, c := range first {
		var ok bool
		if rest, ok = Remove(rest, c); !ok {
			return nil, fmt.Errorf("stacked deck: no %s left", c)
		}
	}

	for i := len(first) - 1; i >= 0; i-- {
		rest = append(rest, first[i])
	}

	return rest, nil
}
