/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeck(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, DeckSize)

	wilds := 0
	perColor := map[Color]int{}
	for _, c := range deck {
		require.NoError(t, c.Validate(), c.String())
		if c.IsWild() {
			wilds++
			continue
		}
		perColor[c.Color]++
	}

	assert.Equal(t, 4, wilds)
	for _, color := range Colors {
		assert.Equal(t, 12, perColor[color], color)
	}
}

func TestCanPlay(t *testing.T) {
	top := Card{Color: Red, Rank: 5}

	tests := []struct {
		name    string
		card    Card
		current Color
		want    bool
	}{
		{"same color", Card{Color: Red, Rank: 9}, Red, true},
		{"same rank", Card{Color: Blue, Rank: 5}, Red, true},
		{"wild", Wild(), Red, true},
		{"neither", Card{Color: Green, Rank: 9}, Red, false},
		{"chosen color overrides top", Card{Color: Yellow, Rank: 2}, Yellow, true},
		{"top color no longer in force", Card{Color: Red, Rank: 2}, Yellow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPlay(tt.card, top, tt.current))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Wild().Validate())
	assert.ErrorIs(t, Card{Color: Red, Rank: WildRank}.Validate(), ErrColoredWild)
	assert.ErrorIs(t, Card{Color: Red, Rank: 0}.Validate(), ErrInvalidRank)
	assert.ErrorIs(t, Card{Color: Red, Rank: 14}.Validate(), ErrInvalidRank)
	assert.ErrorIs(t, Card{Color: "purple", Rank: 3}.Validate(), ErrInvalidColor)
	assert.ErrorIs(t, Card{Rank: 3}.Validate(), ErrInvalidColor)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor(" Blue ")
	require.NoError(t, err)
	assert.Equal(t, Blue, c)

	_, err = ParseColor("")
	assert.ErrorIs(t, err, ErrInvalidColor)
}

func TestRemove(t *testing.T) {
	hand := []Card{{Red, 1}, Wild(), {Blue, 2}, Wild()}

	out, ok := Remove(hand, Wild())
	require.True(t, ok)
	assert.Equal(t, []Card{{Red, 1}, {Blue, 2}, Wild()}, out)
	assert.Len(t, hand, 4, "input must not be modified")

	_, ok = Remove(hand, Card{Green, 1})
	assert.False(t, ok)
}

func TestShuffleIsPermutation(t *testing.T) {
	deck := NewDeck()
	Shuffle(NewSeededRand(7), deck)

	counts := map[Card]int{}
	for _, c := range deck {
		counts[c]++
	}
	for _, c := range NewDeck() {
		counts[c]--
	}
	for c, n := range counts {
		assert.Zero(t, n, c.String())
	}
}

func TestPile(t *testing.T) {
	var p Pile
	_, ok := p.Pop()
	assert.False(t, ok)

	p.Push(Card{Red, 1})
	p.Push(Card{Blue, 2})
	top, ok := p.Top()
	require.True(t, ok)
	assert.Equal(t, Card{Blue, 2}, top)

	c, ok := p.Pop()
	require.True(t, ok)
	assert.Equal(t, Card{Blue, 2}, c)
	assert.Equal(t, 1, p.Len())
}

func TestMostCommonColor(t *testing.T) {
	assert.Equal(t, Red, MostCommonColor(nil))
	assert.Equal(t, Green, MostCommonColor([]Card{{Green, 1}, {Green, 2}, {Blue, 3}, Wild()}))
}

func TestStackedDeck(t *testing.T) {
	red9 := Card{Color: Red, Rank: 9}

	deck, err := StackedDeck(red9, Wild())
	require.NoError(t, err)
	require.Len(t, deck, DeckSize)

	p := Pile(deck)
	c, _ := p.Pop()
	assert.Equal(t, red9, c)
	c, _ = p.Pop()
	assert.True(t, c.IsWild())

	_, err = StackedDeck(red9, red9)
	assert.Error(t, err)
}
