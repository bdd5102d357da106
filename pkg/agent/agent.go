// Package agent defines the policy contract shared by every Tic-Tac-Toe
// player and the simplest players built on it.
package agent

import (
	"errors"

	"github.com/Zarux/tttagents/pkg/tictactoe"
)

// NoAction marks the terminal record of a trajectory.
const NoAction = -1

var ErrInvalidToken = errors.New("player token must be a non-empty label without spaces")

// Agent picks moves and receives the outcome of each finished game.
// SelectMove must not mutate the board.
type Agent interface {
	Token() string
	SelectMove(b *tictactoe.Board) int
	ReceiveOutcome(reward float64, traj Trajectory)
}

// Trainer is implemented by agents that learn from ReceiveOutcome.
type Trainer interface {
	Train(on bool)
	Training() bool
}

// Step is the state a decision was made from and the move chosen.
type Step struct {
	Hash   string `json:"hash"`
	Action int    `json:"action"`
}

// Trajectory is one player's steps through one game, ending with the
// terminal state paired with NoAction.
type Trajectory []Step

// Moves is the number of moves recorded, excluding the terminal record.
func (t Trajectory) Moves() int {
	if len(t) > 0 && t[len(t)-1].Action == NoAction {
		return len(t) - 1
	}

	return len(t)
}

// Player holds the identity every agent carries.
type Player struct {
	token string
}

// NewPlayer fails fast on tokens that could never match a board cell.
func NewPlayer(token string) (Player, error) {
	if !tictactoe.ValidToken(token) {
		return Player{}, ErrInvalidToken
	}

	return Player{token: token}, nil
}

func (p Player) Token() string {
	return p.token
}
