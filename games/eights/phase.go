/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package eights

// Phase is the lifecycle stage of one hand of eights.
type Phase string

const (
	PhasePlaying         Phase = "playing"
	PhaseColorPending    Phase = "color-pending"
	PhaseWinnerAnimation Phase = "winner-animation"
	PhaseGameOver        Phase = "game-over"
)

// A wild card that wins the hand goes straight from playing to the winner
// sequence without passing through color-pending. A hand abandoned for lack
// of players jumps to game-over with no winner.
var transitions = map[Phase][]Phase{
	PhasePlaying:         {PhaseColorPending, PhaseWinnerAnimation, PhaseGameOver},
	PhaseColorPending:    {PhasePlaying, PhaseGameOver},
	PhaseWinnerAnimation: {PhaseGameOver},
}

func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo reports whether target is a legal next phase.
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range transitions[p] {
		if next == target {
			return true
		}
	}

	return false
}

// Over reports whether play has stopped for good in this hand.
func (p Phase) Over() bool {
	return p == PhaseWinnerAnimation || p == PhaseGameOver
}
