// Package qlearn implements a tabular Q-learning Tic-Tac-Toe agent.
//
// The agent keeps one row per board hash it has seen, with one value per
// move that was legal in that position. Rows are created lazily with values
// drawn uniformly from [0, 1) and are never removed or resized.
//
// Learning happens once per game: ReceiveOutcome replays the agent's own
// trajectory backwards, starting from the terminal reward, and feeds every
// freshly updated value to the step before it as that step's reward.
package qlearn

import (
	"errors"
	"log/slog"
	"maps"
	"math/rand/v2"
	"slices"

	"github.com/Zarux/tttagents/internal/logger"
	"github.com/Zarux/tttagents/pkg/agent"
	"github.com/Zarux/tttagents/pkg/tictactoe"
)

var (
	ErrAlpha   = errors.New("learning rate must be in (0, 1]")
	ErrGamma   = errors.New("discount must be in [0, 1]")
	ErrEpsilon = errors.New("epsilon must satisfy 0 <= min <= epsilon <= 1")
	ErrDecay   = errors.New("epsilon decay must be in (0, 1)")
)

type Config struct {
	Alpha        float64 `json:"alpha"`
	Gamma        float64 `json:"gamma"`
	Epsilon      float64 `json:"epsilon"`
	EpsilonMin   float64 `json:"epsilonMin"`
	EpsilonDecay float64 `json:"epsilonDecay"`
}

func DefaultConfig() Config {
	return Config{
		Alpha:        0.2,
		Gamma:        0.95,
		Epsilon:      1.0,
		EpsilonMin:   0.005,
		EpsilonDecay: 0.9993,
	}
}

func (c Config) Validate() error {
	if c.Alpha <= 0 || c.Alpha > 1 {
		return ErrAlpha
	}

	if c.Gamma < 0 || c.Gamma > 1 {
		return ErrGamma
	}

	if c.EpsilonMin < 0 || c.EpsilonMin > c.Epsilon || c.Epsilon > 1 {
		return ErrEpsilon
	}

	if c.EpsilonDecay <= 0 || c.EpsilonDecay >= 1 {
		return ErrDecay
	}

	return nil
}

// Table maps a state hash to the value of each move legal in that state.
type Table map[string]map[int]float64

type Agent struct {
	agent.Player

	alpha        float64
	gamma        float64
	epsilon      float64
	epsilonMin   float64
	epsilonDecay float64

	table    Table
	training bool

	rng *rand.Rand
	log *slog.Logger
}

func New(token string, cfg Config) (*Agent, error) {
	p, err := agent.NewPlayer(token)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Agent{
		Player:       p,
		alpha:        cfg.Alpha,
		gamma:        cfg.Gamma,
		epsilon:      cfg.Epsilon,
		epsilonMin:   cfg.EpsilonMin,
		epsilonDecay: cfg.EpsilonDecay,
		table:        Table{},
		rng:          agent.NewRand(),
		log:          logger.Nop(),
	}, nil
}

func (a *Agent) WithRand(rng *rand.Rand) *Agent {
	a.rng = rng
	return a
}

func (a *Agent) WithLogger(log *slog.Logger) *Agent {
	a.log = log.With("agent", "q", "token", a.Token())
	return a
}

func (a *Agent) Train(on bool) {
	a.training = on
}

func (a *Agent) Training() bool {
	return a.training
}

func (a *Agent) Epsilon() float64 {
	return a.epsilon
}

// SetEpsilonDecay changes the decay factor. It must be in (0, 1).
func (a *Agent) SetEpsilonDecay(decay float64) error {
	if decay <= 0 || decay >= 1 {
		return ErrDecay
	}

	a.epsilonDecay = decay
	return nil
}

// States is the number of board hashes in the table.
func (a *Agent) States() int {
	return len(a.table)
}

// Table returns a deep copy of the learned values.
func (a *Agent) Table() Table {
	t := make(Table, len(a.table))
	for h, row := range a.table {
		t[h] = maps.Clone(row)
	}

	return t
}

// SelectMove is epsilon-greedy. Unseen states get a row and a random move.
// Among equal values the lowest position wins.
func (a *Agent) SelectMove(b *tictactoe.Board) int {
	if a.rng.Float64() <= a.epsilon {
		return agent.RandomMove(a.rng, b)
	}

	hash := b.Hash()
	if !a.contains(hash) {
		a.addState(hash, b.OpenPositions())
		return agent.RandomMove(a.rng, b)
	}

	return a.bestAction(hash)
}

// ReceiveOutcome runs the backward TD(0) pass over traj and decays epsilon.
// It does nothing unless the agent is training.
func (a *Agent) ReceiveOutcome(reward float64, traj agent.Trajectory) {
	if !a.training || len(traj) < 2 {
		return
	}

	n := len(traj) - 1
	last := traj[n-1]
	carried := a.update(last.Hash, last.Action, reward, a.maxQ(traj[n].Hash))

	for i := n - 2; i >= 0; i-- {
		step := traj[i]
		carried = a.update(step.Hash, step.Action, carried, a.maxQ(traj[i+1].Hash))
	}

	a.DecayEpsilon()
	a.log.Debug("trajectory replayed", "reward", reward, "moves", traj.Moves(), "epsilon", a.epsilon, "states", len(a.table))
}

// DecayEpsilon multiplies epsilon by the decay factor, never going below
// the floor.
func (a *Agent) DecayEpsilon() {
	a.epsilon = max(a.epsilon*a.epsilonDecay, a.epsilonMin)
}

// update sets Q(hash, action) to (1-a)Q + a(reward + g*maxNext) and returns
// the new value. An action missing from an existing row is left alone and
// reward is passed through.
func (a *Agent) update(hash string, action int, reward, maxNext float64) float64 {
	row := a.row(hash)

	old, ok := row[action]
	if !ok {
		a.log.Warn("action not in table row", "hash", hash, "action", action)
		return reward
	}

	q := (1-a.alpha)*old + a.alpha*(reward+a.gamma*maxNext)
	row[action] = q
	return q
}

// maxQ is the best value in hash's row; 0 for states without moves.
func (a *Agent) maxQ(hash string) float64 {
	row := a.row(hash)
	if len(row) == 0 {
		return 0
	}

	return row[a.bestAction(hash)]
}

func (a *Agent) bestAction(hash string) int {
	row := a.table[hash]

	best := agent.NoAction
	bestVal := 0.0
	for _, action := range slices.Sorted(maps.Keys(row)) {
		if v := row[action]; best == agent.NoAction || v > bestVal {
			best = action
			bestVal = v
		}
	}

	return best
}

func (a *Agent) contains(hash string) bool {
	_, ok := a.table[hash]
	return ok
}

// row returns the table row for hash, creating it from the hash's open
// positions if needed. Existing rows are returned as they are.
func (a *Agent) row(hash string) map[int]float64 {
	if !a.contains(hash) {
		a.addState(hash, tictactoe.ValidMovesForHash(hash))
	}

	return a.table[hash]
}

func (a *Agent) addState(hash string, moves []int) {
	row := make(map[int]float64, len(moves))
	for _, m := range moves {
		row[m] = a.rng.Float64()
	}

	a.table[hash] = row
	a.log.Debug("state added", "hash", hash, "moves", len(moves))
}
