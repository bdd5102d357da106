package agent

import (
	"math/rand/v2"

	"github.com/Zarux/tttagents/pkg/tictactoe"
)

// Random plays a uniformly random legal move and never learns.
type Random struct {
	Player
	rng *rand.Rand
}

func NewRandom(token string) (*Random, error) {
	p, err := NewPlayer(token)
	if err != nil {
		return nil, err
	}

	return &Random{Player: p, rng: NewRand()}, nil
}

// WithRand swaps the random source, mostly for tests.
func (r *Random) WithRand(rng *rand.Rand) *Random {
	r.rng = rng
	return r
}

func (r *Random) SelectMove(b *tictactoe.Board) int {
	return RandomMove(r.rng, b)
}

func (r *Random) ReceiveOutcome(float64, Trajectory) {}

// RandomMove samples one open position, or NoAction on a full board.
func RandomMove(rng *rand.Rand, b *tictactoe.Board) int {
	moves := b.OpenPositions()
	if len(moves) == 0 {
		return NoAction
	}

	return moves[rng.IntN(len(moves))]
}
