/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package eights implements the turn-based card rules: deal, play, draw,
// wild color choice and win detection. It performs no I/O and keeps no
// clock; the owning room serializes calls and decides when animations end.
package eights

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/Seednode/partydeck/games/cards"
)

var (
	ErrTooFewPlayers   = errors.New("at least two connected players are needed")
	ErrUnknownPlayer   = errors.New("player is not seated in this game")
	ErrNotYourTurn     = errors.New("it is not your turn")
	ErrCardNotInHand   = errors.New("that card is not in your hand")
	ErrIllegalCard     = errors.New("that card cannot be played on the current card")
	ErrColorPending    = errors.New("waiting for a color to be chosen")
	ErrNoColorPending  = errors.New("no color choice is pending")
	ErrHasPlayableCard = errors.New("you have a card you can play")
	ErrTurnEnding      = errors.New("the turn is passing to the next player")
	ErrGameOver        = errors.New("the game is over")
	ErrBadTransition   = errors.New("illegal phase transition")
)

// Seat is a player as the engine needs to know them.
type Seat struct {
	ID        string
	Name      string
	Color     string
	Connected bool
}

// Standing is one line of the final (or current) results.
type Standing struct {
	ID        string `json:"-"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CardCount int    `json:"cardCount"`
}

// Options tunes a new game. Zero values pick the defaults.
type Options struct {
	Rand *rand.Rand

	// HandSize returns the number of cards dealt for the given number of
	// connected players.
	HandSize func(players int) int

	// OnWinnerDetected is called synchronously, exactly once, the moment a
	// hand is emptied.
	OnWinnerDetected func(winner Standing, standings []Standing)

	// Deck, when set, is dealt as given instead of a shuffled deck. The last
	// element is the top card. It must hold exactly cards.DeckSize cards.
	Deck []cards.Card

	// StartingPlayer overrides the random choice of who plays first.
	StartingPlayer string
}

// undealtMin leaves room for every wild plus one colored starter.
const undealtMin = 5

// DefaultHandSize deals seven cards heads-up and five otherwise.
func DefaultHandSize(players int) int {
	if players <= 2 {
		return 7
	}

	return 5
}

type seat struct {
	Seat
	hand []cards.Card
}

// Game is the authoritative state of one hand.
type Game struct {
	seats   []*seat
	deck    cards.Pile
	discard cards.Pile
	color   cards.Color
	current int
	phase   Phase

	declared    cards.Color
	advanceOwed bool
	winner      string

	rng      *rand.Rand
	onWinner func(Standing, []Standing)
}

// PlayResult describes an accepted play.
type PlayResult struct {
	Card     cards.Card
	Declared cards.Color
	Wild     bool
	Won      bool
}

// DrawResult describes an accepted draw. Passed is set when both piles were
// exhausted and the player was moved on without a card.
type DrawResult struct {
	Card       cards.Card
	Reshuffled bool
	Passed     bool
}

// ConnectionResult reports what a disconnect did to the turn.
type ConnectionResult struct {
	AutoColor  cards.Color
	TurnPassed bool
}

// New shuffles, deals and flips the starting card.
func New(seats []Seat, opts Options) (*Game, error) {
	g := &Game{
		phase:    PhasePlaying,
		rng:      opts.Rand,
		onWinner: opts.OnWinnerDetected,
	}
	if g.rng == nil {
		g.rng = cards.NewRand()
	}

	connected := 0
	for _, s := range seats {
		g.seats = append(g.seats, &seat{Seat: s})
		if s.Connected {
			connected++
		}
	}
	if connected < 2 {
		return nil, ErrTooFewPlayers
	}

	handSize := DefaultHandSize
	if opts.HandSize != nil {
		handSize = opts.HandSize
	}
	n := handSize(connected)
	if n < 1 || cards.DeckSize-n*connected < undealtMin {
		return nil, fmt.Errorf("hand size %d does not fit %d players", n, connected)
	}

	if opts.Deck != nil {
		if len(opts.Deck) != cards.DeckSize {
			return nil, fmt.Errorf("preset deck has %d cards, want %d", len(opts.Deck), cards.DeckSize)
		}
		g.deck = make(cards.Pile, len(opts.Deck))
		copy(g.deck, opts.Deck)
	} else {
		deck := cards.NewDeck()
		cards.Shuffle(g.rng, deck)
		g.deck = cards.Pile(deck)
	}

	for round := 0; round < n; round++ {
		for _, s := range g.seats {
			if !s.Connected {
				continue
			}
			c, _ := g.deck.Pop()
			s.hand = append(s.hand, c)
		}
	}

	if err := g.flipStarter(); err != nil {
		return nil, err
	}

	candidates := make([]int, 0, connected)
	for i, s := range g.seats {
		if !s.Connected {
			continue
		}
		if s.ID == opts.StartingPlayer {
			g.current = i

			return g, nil
		}
		candidates = append(candidates, i)
	}
	g.current = candidates[g.rng.IntN(len(candidates))]

	return g, nil
}

// flipStarter turns up the first discard. A wild eight is buried back in the
// deck until a colored card comes up.
func (g *Game) flipStarter() error {
	colored := false
	for _, c := range g.deck {
		if !c.IsWild() {
			colored = true

			break
		}
	}
	if !colored {
		return errors.New("no colored card left to start the discard pile")
	}

	for {
		c, _ := g.deck.Pop()
		if !c.IsWild() {
			g.discard.Push(c)
			g.color = c.Color

			return nil
		}

		g.deck.Push(c)
		cards.Shuffle(g.rng, g.deck)
	}
}

// Play applies playerID putting card down. declared is an optional color
// hint attached to a wild; the binding color still comes from ChooseColor.
// Nothing is mutated when an error is returned.
func (g *Game) Play(playerID string, card cards.Card, declared cards.Color) (PlayResult, error) {
	s, err := g.actor(playerID)
	if err != nil {
		return PlayResult{}, err
	}

	if err := card.Validate(); err != nil {
		return PlayResult{}, err
	}

	if declared != cards.NoColor && !declared.Valid() {
		return PlayResult{}, fmt.Errorf("%w: %q", cards.ErrInvalidColor, declared)
	}

	hand, ok := cards.Remove(s.hand, card)
	if !ok {
		return PlayResult{}, ErrCardNotInHand
	}

	if !cards.CanPlay(card, g.Top(), g.color) {
		return PlayResult{}, ErrIllegalCard
	}

	s.hand = hand
	g.discard.Push(card)

	res := PlayResult{Card: card, Wild: card.IsWild()}

	if len(s.hand) == 0 {
		if !card.IsWild() {
			g.color = card.Color
		}
		g.declared = cards.NoColor
		g.winner = s.ID
		g.mustTransition(PhaseWinnerAnimation)

		res.Won = true
		if g.onWinner != nil {
			g.onWinner(g.standing(s), g.Standings())
		}

		return res, nil
	}

	if card.IsWild() {
		g.declared = declared
		res.Declared = declared
		g.mustTransition(PhaseColorPending)

		return res, nil
	}

	g.color = card.Color
	g.advance()

	return res, nil
}

// ChooseColor resolves a pending wild. The turn advance it causes is owed
// rather than applied; call Settle once the display is free.
func (g *Game) ChooseColor(playerID string, color cards.Color) error {
	if g.phase.Over() {
		return ErrGameOver
	}
	if g.phase != PhaseColorPending {
		return ErrNoColorPending
	}

	s := g.seat(playerID)
	if s == nil {
		return ErrUnknownPlayer
	}
	if g.seats[g.current] != s {
		return ErrNotYourTurn
	}

	if !color.Valid() {
		return fmt.Errorf("%w: %q", cards.ErrInvalidColor, color)
	}

	g.color = color
	g.declared = cards.NoColor
	g.advanceOwed = true
	g.mustTransition(PhasePlaying)

	return nil
}

// Settle applies a turn advance owed by ChooseColor. It reports whether the
// turn moved.
func (g *Game) Settle() bool {
	if !g.advanceOwed || g.phase != PhasePlaying {
		return false
	}

	g.advanceOwed = false
	g.advance()

	return true
}

// Draw takes one card for a player with nothing to play. Drawing always
// ends the turn.
func (g *Game) Draw(playerID string) (DrawResult, error) {
	s, err := g.actor(playerID)
	if err != nil {
		return DrawResult{}, err
	}

	if cards.HasPlayable(s.hand, g.Top(), g.color) {
		return DrawResult{}, ErrHasPlayableCard
	}

	var res DrawResult

	if g.deck.Len() == 0 {
		res.Reshuffled = g.reshuffle()
	}

	c, ok := g.deck.Pop()
	if !ok {
		res.Passed = true
		g.advance()

		return res, nil
	}

	s.hand = append(s.hand, c)
	res.Card = c
	g.advance()

	return res, nil
}

// reshuffle moves every discard below the top card back into the deck.
func (g *Game) reshuffle() bool {
	n := g.discard.Len()
	if n <= 1 {
		return false
	}

	top := g.discard[n-1]
	rest := make([]cards.Card, n-1)
	copy(rest, g.discard[:n-1])

	cards.Shuffle(g.rng, rest)
	g.deck = append(g.deck, rest...)
	g.discard = cards.Pile{top}

	return true
}

// FinishWinnerSequence ends the hand once the display has shown the winner.
func (g *Game) FinishWinnerSequence() error {
	if g.phase != PhaseWinnerAnimation {
		return fmt.Errorf("%w: %s to %s", ErrBadTransition, g.phase, PhaseGameOver)
	}

	g.mustTransition(PhaseGameOver)

	return nil
}

// Abandon ends a hand that can no longer be played, without a winner.
func (g *Game) Abandon() error {
	if g.phase.Over() {
		return ErrGameOver
	}

	g.advanceOwed = false
	g.declared = cards.NoColor
	g.mustTransition(PhaseGameOver)

	return nil
}

// ConnectedCount is the number of seated players still connected.
func (g *Game) ConnectedCount() int {
	n := 0
	for _, s := range g.seats {
		if s.Connected {
			n++
		}
	}

	return n
}

// SetConnected records a player's connection state. A disconnected player
// keeps their hand and is skipped by the turn order. If they held the turn,
// any pending color is picked for them and the turn moves on.
func (g *Game) SetConnected(playerID string, connected bool) (ConnectionResult, error) {
	s := g.seat(playerID)
	if s == nil {
		return ConnectionResult{}, ErrUnknownPlayer
	}

	s.Connected = connected

	var res ConnectionResult
	if g.phase.Over() {
		return res, nil
	}

	idx := g.indexOf(s)

	if connected {
		if !g.seats[g.current].Connected {
			g.current = idx
			g.advanceOwed = false
		}

		return res, nil
	}

	if idx != g.current {
		return res, nil
	}

	if g.phase == PhaseColorPending {
		res.AutoColor = cards.MostCommonColor(s.hand)
		g.color = res.AutoColor
		g.declared = cards.NoColor
		g.mustTransition(PhasePlaying)
	}

	g.advanceOwed = false
	before := g.current
	g.advance()
	res.TurnPassed = g.current != before

	return res, nil
}

// actor returns the seat for a player about to play or draw, enforcing
// phase and turn order.
func (g *Game) actor(playerID string) (*seat, error) {
	switch {
	case g.phase.Over():
		return nil, ErrGameOver
	case g.phase == PhaseColorPending:
		return nil, ErrColorPending
	}

	s := g.seat(playerID)
	if s == nil {
		return nil, ErrUnknownPlayer
	}
	if g.seats[g.current] != s {
		return nil, ErrNotYourTurn
	}
	if g.advanceOwed {
		return nil, ErrTurnEnding
	}

	return s, nil
}

// advance moves the turn to the next connected seat in seat order.
func (g *Game) advance() {
	n := len(g.seats)
	for i := 1; i <= n; i++ {
		next := (g.current + i) % n
		if g.seats[next].Connected {
			g.current = next

			return
		}
	}
}

func (g *Game) mustTransition(to Phase) {
	if !g.phase.CanTransitionTo(to) {
		panic(fmt.Sprintf("%v: %s to %s", ErrBadTransition, g.phase, to))
	}

	g.phase = to
}

func (g *Game) seat(id string) *seat {
	for _, s := range g.seats {
		if s.ID == id {
			return s
		}
	}

	return nil
}

func (g *Game) indexOf(target *seat) int {
	for i, s := range g.seats {
		if s == target {
			return i
		}
	}

	return -1
}

func (g *Game) standing(s *seat) Standing {
	return Standing{ID: s.ID, Name: s.Name, Color: s.Color, CardCount: len(s.hand)}
}

// Standings orders players by cards left, fewest first, ties by seat.
func (g *Game) Standings() []Standing {
	out := make([]Standing, 0, len(g.seats))
	for _, s := range g.seats {
		out = append(out, g.standing(s))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CardCount < out[j].CardCount
	})

	return out
}

func (g *Game) Phase() Phase {
	return g.phase
}

func (g *Game) CurrentColor() cards.Color {
	return g.color
}

// Top is the last played card.
func (g *Game) Top() cards.Card {
	c, _ := g.discard.Top()

	return c
}

func (g *Game) PendingColorChoice() bool {
	return g.phase == PhaseColorPending
}

// AdvanceOwed reports whether a chosen color is waiting on Settle.
func (g *Game) AdvanceOwed() bool {
	return g.advanceOwed
}

func (g *Game) DeclaredColor() cards.Color {
	return g.declared
}

func (g *Game) DeckCount() int {
	return g.deck.Len()
}

func (g *Game) DiscardCount() int {
	return g.discard.Len()
}

// CurrentPlayerID is the id of the seat holding the turn.
func (g *Game) CurrentPlayerID() string {
	return g.seats[g.current].ID
}

// CurrentPlayerIndex is the position of the current player among the
// connected players, or -1 if nobody is connected.
func (g *Game) CurrentPlayerIndex() int {
	idx := 0
	for i, s := range g.seats {
		if !s.Connected {
			continue
		}
		if i == g.current {
			return idx
		}
		idx++
	}

	return -1
}

// Winner is the id of the player who emptied their hand, if any.
func (g *Game) Winner() string {
	return g.winner
}

// Hand returns a copy of a player's cards.
func (g *Game) Hand(playerID string) ([]cards.Card, error) {
	s := g.seat(playerID)
	if s == nil {
		return nil, ErrUnknownPlayer
	}

	out := make([]cards.Card, len(s.hand))
	copy(out, s.hand)

	return out, nil
}

// TotalCards counts every card in deck, discard and hands. It equals
// cards.DeckSize at every point between calls.
func (g *Game) TotalCards() int {
	total := g.deck.Len() + g.discard.Len()
	for _, s := range g.seats {
		total += len(s.hand)
	}

	return total
}
