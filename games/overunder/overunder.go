/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package overunder is the round-based guessing mode. Each round one player
// answers a numeric prompt in secret and everyone else votes on whether the
// answer is over or under the prompt's line.
package overunder

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/Seednode/partydeck/games/cards"
)

// DefaultRounds is the length of a game when none is configured.
const DefaultRounds = 5

// Phase is the lifecycle stage of an over/under game.
type Phase string

const (
	PhaseLobby        Phase = "lobby"
	PhaseRoundStarted Phase = "round-started"
	PhaseRoundEnd     Phase = "round-end"
	PhaseGameOver     Phase = "game-over"
)

var transitions = map[Phase][]Phase{
	PhaseLobby:        {PhaseRoundStarted, PhaseGameOver},
	PhaseRoundStarted: {PhaseRoundEnd, PhaseGameOver},
	PhaseRoundEnd:     {PhaseRoundStarted, PhaseGameOver},
}

func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range transitions[p] {
		if next == target {
			return true
		}
	}

	return false
}

// Vote is a guess relative to the prompt's line.
type Vote string

const (
	Over  Vote = "over"
	Under Vote = "under"
)

func ParseVote(s string) (Vote, error) {
	switch v := Vote(strings.ToLower(strings.TrimSpace(s))); v {
	case Over, Under:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidVote, s)
	}
}

var (
	ErrTooFewPlayers      = errors.New("at least two connected players are needed")
	ErrUnknownPlayer      = errors.New("player is not seated in this game")
	ErrNotAnswerer        = errors.New("only this round's answerer may answer")
	ErrAnswererCannotVote = errors.New("the answerer cannot vote")
	ErrAlreadyAnswered    = errors.New("an answer was already given")
	ErrAlreadyVoted       = errors.New("you already voted this round")
	ErrInvalidVote        = errors.New("vote must be over or under")
	ErrInvalidAnswer      = errors.New("answer must be a finite number")
	ErrVotingClosed       = errors.New("no round is open")
	ErrGameOver           = errors.New("the game is over")
	ErrBadTransition      = errors.New("illegal phase transition")
)

type Seat struct {
	ID        string
	Name      string
	Color     string
	Connected bool
}

// Round is one prompt and the input collected for it.
type Round struct {
	Number     int
	Prompt     Prompt
	AnswererID string
	Answer     *float64
	Votes      map[string]Vote
}

// Result is the outcome of a resolved round. Actual is empty when the round
// scored nothing: no answer arrived or it landed exactly on the line.
type Result struct {
	Round   Round
	Actual  Vote
	Correct []string
	Wrong   []string
	Scores  map[string]int
	Final   bool
}

type Options struct {
	Rounds  int
	Prompts []Prompt
	Rand    *rand.Rand
}

// Game holds scores and the open round. Not safe for concurrent use.
type Game struct {
	seats   []*Seat
	scores  map[string]int
	rounds  int
	prompts []Prompt
	used    map[int]bool
	round   *Round
	phase   Phase
	cursor  int
	rng     *rand.Rand
}

func New(seats []Seat, opts Options) (*Game, error) {
	g := &Game{
		scores:  make(map[string]int, len(seats)),
		rounds:  opts.Rounds,
		prompts: opts.Prompts,
		used:    make(map[int]bool),
		phase:   PhaseLobby,
		rng:     opts.Rand,
	}
	if g.rounds <= 0 {
		g.rounds = DefaultRounds
	}
	if len(g.prompts) == 0 {
		g.prompts = DefaultPrompts
	}
	if g.rng == nil {
		g.rng = cards.NewRand()
	}

	connected := 0
	for _, s := range seats {
		s := s
		g.seats = append(g.seats, &s)
		g.scores[s.ID] = 0
		if s.Connected {
			connected++
		}
	}
	if connected < 2 {
		return nil, ErrTooFewPlayers
	}

	return g, nil
}

// StartRound opens the next round with the next connected answerer in seat
// order and a prompt not yet used this game.
func (g *Game) StartRound() (Round, error) {
	if g.phase == PhaseGameOver {
		return Round{}, ErrGameOver
	}
	if !g.phase.CanTransitionTo(PhaseRoundStarted) {
		return Round{}, fmt.Errorf("%w: %s to %s", ErrBadTransition, g.phase, PhaseRoundStarted)
	}

	answerer := g.nextAnswerer()
	if answerer == nil || g.connected() < 2 {
		return Round{}, ErrTooFewPlayers
	}

	number := 1
	if g.round != nil {
		number = g.round.Number + 1
	}

	g.round = &Round{
		Number:     number,
		Prompt:     g.pickPrompt(),
		AnswererID: answerer.ID,
		Votes:      make(map[string]Vote),
	}
	g.phase = PhaseRoundStarted

	return g.copyRound(), nil
}

func (g *Game) nextAnswerer() *Seat {
	n := len(g.seats)
	for i := 0; i < n; i++ {
		s := g.seats[(g.cursor+i)%n]
		if s.Connected {
			g.cursor = (g.cursor + i + 1) % n

			return s
		}
	}

	return nil
}

func (g *Game) pickPrompt() Prompt {
	if len(g.used) >= len(g.prompts) {
		g.used = make(map[int]bool)
	}

	free := make([]int, 0, len(g.prompts))
	for i := range g.prompts {
		if !g.used[i] {
			free = append(free, i)
		}
	}

	idx := free[g.rng.IntN(len(free))]
	g.used[idx] = true

	return g.prompts[idx]
}

func (g *Game) SubmitAnswer(playerID string, value float64) error {
	if err := g.open(); err != nil {
		return err
	}
	if g.seat(playerID) == nil {
		return ErrUnknownPlayer
	}
	if playerID != g.round.AnswererID {
		return ErrNotAnswerer
	}
	if g.round.Answer != nil {
		return ErrAlreadyAnswered
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ErrInvalidAnswer
	}

	g.round.Answer = &value

	return nil
}

func (g *Game) SubmitVote(playerID string, vote Vote) error {
	if err := g.open(); err != nil {
		return err
	}
	if g.seat(playerID) == nil {
		return ErrUnknownPlayer
	}
	if playerID == g.round.AnswererID {
		return ErrAnswererCannotVote
	}
	if vote != Over && vote != Under {
		return fmt.Errorf("%w: %q", ErrInvalidVote, vote)
	}
	if _, ok := g.round.Votes[playerID]; ok {
		return ErrAlreadyVoted
	}

	g.round.Votes[playerID] = vote

	return nil
}

func (g *Game) open() error {
	switch g.phase {
	case PhaseRoundStarted:
		return nil
	case PhaseGameOver:
		return ErrGameOver
	default:
		return ErrVotingClosed
	}
}

// Ready reports whether the round can be resolved before its window ends:
// the answer is in and every connected voter has voted.
func (g *Game) Ready() bool {
	if g.phase != PhaseRoundStarted || g.round.Answer == nil {
		return false
	}

	for _, s := range g.seats {
		if !s.Connected || s.ID == g.round.AnswererID {
			continue
		}
		if _, ok := g.round.Votes[s.ID]; !ok {
			return false
		}
	}

	return true
}

// Resolve tallies the open round. Correct voters score one point each and
// the answerer scores one point per voter they fooled.
func (g *Game) Resolve() (Result, error) {
	if g.phase != PhaseRoundStarted {
		return Result{}, ErrVotingClosed
	}

	res := Result{Round: g.copyRound()}

	if a := g.round.Answer; a != nil && *a != g.round.Prompt.Line {
		res.Actual = Under
		if *a > g.round.Prompt.Line {
			res.Actual = Over
		}

		for _, s := range g.seats {
			vote, ok := g.round.Votes[s.ID]
			if !ok {
				continue
			}
			if vote == res.Actual {
				res.Correct = append(res.Correct, s.ID)
				g.scores[s.ID]++
			} else {
				res.Wrong = append(res.Wrong, s.ID)
				g.scores[g.round.AnswererID]++
			}
		}
	}

	res.Final = g.round.Number >= g.rounds
	if res.Final {
		g.phase = PhaseGameOver
	} else {
		g.phase = PhaseRoundEnd
	}
	res.Scores = g.Scores()

	return res, nil
}

// Abandon ends the game early. Scores earned so far stand.
func (g *Game) Abandon() error {
	if g.phase == PhaseGameOver {
		return ErrGameOver
	}
	if !g.phase.CanTransitionTo(PhaseGameOver) {
		return fmt.Errorf("%w: %s to %s", ErrBadTransition, g.phase, PhaseGameOver)
	}

	g.phase = PhaseGameOver

	return nil
}

// ConnectedCount is the number of seated players still connected.
func (g *Game) ConnectedCount() int {
	return g.connected()
}

// SetConnected records a player's connection state. Votes already cast are
// kept; a disconnected voter no longer holds up Ready.
func (g *Game) SetConnected(playerID string, connected bool) error {
	s := g.seat(playerID)
	if s == nil {
		return ErrUnknownPlayer
	}

	s.Connected = connected

	return nil
}

func (g *Game) Phase() Phase {
	return g.phase
}

func (g *Game) Rounds() int {
	return g.rounds
}

// CurrentRound returns a copy of the latest round, if one was started.
func (g *Game) CurrentRound() (Round, bool) {
	if g.round == nil {
		return Round{}, false
	}

	return g.copyRound(), true
}

func (g *Game) Scores() map[string]int {
	out := make(map[string]int, len(g.scores))
	for id, score := range g.scores {
		out[id] = score
	}

	return out
}

// Standing is one line of the scoreboard.
type Standing struct {
	ID    string `json:"-"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Score int    `json:"score"`
}

// Standings orders players by score, highest first, ties by seat.
func (g *Game) Standings() []Standing {
	out := make([]Standing, 0, len(g.seats))
	for _, s := range g.seats {
		out = append(out, Standing{ID: s.ID, Name: s.Name, Color: s.Color, Score: g.scores[s.ID]})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	return out
}

func (g *Game) connected() int {
	n := 0
	for _, s := range g.seats {
		if s.Connected {
			n++
		}
	}

	return n
}

func (g *Game) seat(id string) *Seat {
	for _, s := range g.seats {
		if s.ID == id {
			return s
		}
	}

	return nil
}

func (g *Game) copyRound() Round {
	r := *g.round
	r.Votes = make(map[string]Vote, len(g.round.Votes))
	for id, v := range g.round.Votes {
		r.Votes[id] = v
	}
	if g.round.Answer != nil {
		a := *g.round.Answer
		r.Answer = &a
	}

	return r
}
