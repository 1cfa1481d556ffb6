/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package overunder

import "time"

type PlayerView struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	Score      int    `json:"score"`
	Connected  bool   `json:"connected"`
	IsAnswerer bool   `json:"isAnswerer"`
	HasVoted   bool   `json:"hasVoted"`
}

// PublicView hides the answer and every individual vote until the round is
// resolved.
type PublicView struct {
	Phase        Phase        `json:"phase"`
	IsAnimating  bool         `json:"isAnimating"`
	RoundNumber  int          `json:"roundNumber"`
	Rounds       int          `json:"rounds"`
	Prompt       *Prompt      `json:"prompt,omitempty"`
	AnswererName string       `json:"answererName,omitempty"`
	Answered     bool         `json:"answered"`
	VotesCast    int          `json:"votesCast"`
	VotingEndsAt *time.Time   `json:"votingEndsAt,omitempty"`
	Players      []PlayerView `json:"players"`
}

type PrivateView struct {
	PublicView
	IsAnswerer bool     `json:"isAnswerer"`
	MyVote     Vote     `json:"myVote,omitempty"`
	MyAnswer   *float64 `json:"myAnswer,omitempty"`
}

// ProjectPublic builds the display's view. deadline is the voting window
// end kept by the room, or the zero time.
func (g *Game) ProjectPublic(animating bool, deadline time.Time) PublicView {
	v := PublicView{
		Phase:       g.phase,
		IsAnimating: animating,
		Rounds:      g.rounds,
		Players:     make([]PlayerView, 0, len(g.seats)),
	}

	if g.round != nil {
		p := g.round.Prompt
		v.RoundNumber = g.round.Number
		v.Prompt = &p
		v.Answered = g.round.Answer != nil
		v.VotesCast = len(g.round.Votes)
	}

	if g.phase == PhaseRoundStarted && !deadline.IsZero() {
		d := deadline
		v.VotingEndsAt = &d
	}

	for _, s := range g.seats {
		pv := PlayerView{
			Name:      s.Name,
			Color:     s.Color,
			Score:     g.scores[s.ID],
			Connected: s.Connected,
		}
		if g.round != nil {
			pv.IsAnswerer = s.ID == g.round.AnswererID
			_, pv.HasVoted = g.round.Votes[s.ID]
			if pv.IsAnswerer {
				v.AnswererName = s.Name
			}
		}
		v.Players = append(v.Players, pv)
	}

	return v
}

func (g *Game) ProjectPrivate(playerID string, animating bool, deadline time.Time) (PrivateView, error) {
	if g.seat(playerID) == nil {
		return PrivateView{}, ErrUnknownPlayer
	}

	v := PrivateView{PublicView: g.ProjectPublic(animating, deadline)}

	if g.round != nil {
		v.IsAnswerer = playerID == g.round.AnswererID
		v.MyVote = g.round.Votes[playerID]
		if v.IsAnswerer && g.round.Answer != nil {
			a := *g.round.Answer
			v.MyAnswer = &a
		}
	}

	return v, nil
}
