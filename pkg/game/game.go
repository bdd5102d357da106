// Package game runs Tic-Tac-Toe games between two agents, records each
// agent's trajectory and hands out the terminal rewards.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/Zarux/tttagents/internal/logger"
	"github.com/Zarux/tttagents/pkg/agent"
	"github.com/Zarux/tttagents/pkg/tictactoe"
)

// Draw is the Result.Winner of a drawn game.
const Draw = "draw"

const (
	winReward  = 1.0
	lossReward = -1.0
	drawReward = 0.0
)

var (
	ErrDuplicateToken = errors.New("players must have distinct tokens")
	ErrReservedToken  = errors.New("token is reserved")
	ErrIllegalMove    = errors.New("illegal move")
	ErrGameOver       = errors.New("game is over")
)

type State int

const (
	InProgress State = iota
	Won
	Drawn
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in progress"
	case Won:
		return "won"
	case Drawn:
		return "drawn"
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// Result describes one finished game. Hashes holds the board hash after
// every ply.
type Result struct {
	Seq        int      `json:"seq"`
	Hashes     []string `json:"hashes"`
	Winner     string   `json:"winner"`
	FirstMover string   `json:"firstMover"`
}

func (r Result) IsDraw() bool {
	return r.Winner == Draw
}

// Game is the arbiter for a pair of agents. It owns one board, reused for
// every game it plays. Both tokens are registered up front so their ids
// never change between games.
type Game struct {
	Board *tictactoe.Board

	players      [2]agent.Agent
	seats        [2]int
	trajectories [2]agent.Trajectory
	turn         int
	state        State
	result       Result
	seq          int

	randomizeSeats bool
	rng            *rand.Rand
	log            *slog.Logger
}

func New(p1, p2 agent.Agent) (*Game, error) {
	if p1.Token() == p2.Token() {
		return nil, ErrDuplicateToken
	}

	if p1.Token() == Draw || p2.Token() == Draw {
		return nil, fmt.Errorf("%w: %q", ErrReservedToken, Draw)
	}

	b, err := tictactoe.New(p1.Token(), p2.Token())
	if err != nil {
		return nil, err
	}

	return &Game{
		Board:          b,
		players:        [2]agent.Agent{p1, p2},
		seats:          [2]int{0, 1},
		state:          Drawn,
		randomizeSeats: true,
		rng:            agent.NewRand(),
		log:            logger.Nop(),
	}, nil
}

// RandomizeSeats controls whether the first mover is drawn at random
// before each game. When off, the first player passed to New always starts.
func (g *Game) RandomizeSeats(on bool) *Game {
	g.randomizeSeats = on
	return g
}

func (g *Game) WithRand(rng *rand.Rand) *Game {
	g.rng = rng
	return g
}

func (g *Game) WithLogger(log *slog.Logger) *Game {
	g.log = log
	return g
}

func (g *Game) Players() [2]agent.Agent {
	return g.players
}

// Begin clears the board and picks the seat order for a new game.
func (g *Game) Begin() {
	g.Board.Reset()
	g.trajectories = [2]agent.Trajectory{}
	g.seats = [2]int{0, 1}
	if g.randomizeSeats && g.rng.IntN(2) == 1 {
		g.seats = [2]int{1, 0}
	}

	g.turn = 0
	g.state = InProgress
	g.result = Result{
		Hashes:     make([]string, 0, tictactoe.Size),
		FirstMover: g.Current().Token(),
	}
}

// Current is the agent to move.
func (g *Game) Current() agent.Agent {
	return g.players[g.seats[g.turn]]
}

func (g *Game) State() State {
	return g.state
}

// Result returns the record of the last finished game.
func (g *Game) Result() (Result, bool) {
	if g.state == InProgress || g.result.Winner == "" {
		return Result{}, false
	}

	return g.result, true
}

// Apply plays pos for the current agent. On the final move it hands out
// rewards before returning.
func (g *Game) Apply(pos int) (State, error) {
	if g.state != InProgress {
		return g.state, ErrGameOver
	}

	p := g.seats[g.turn]
	token := g.players[p].Token()
	if !g.Board.IsValidMove(pos) {
		return g.state, fmt.Errorf("%w: %s played %d on %s", ErrIllegalMove, token, pos, g.Board.Hash())
	}

	g.trajectories[p] = append(g.trajectories[p], agent.Step{Hash: g.Board.Hash(), Action: pos})
	g.Board.PlaceToken(pos, token)
	g.result.Hashes = append(g.result.Hashes, g.Board.Hash())

	if _, ok := g.Board.CheckForWinner(); ok {
		g.state = Won
		g.finish(p)
		return g.state, nil
	}

	if g.Board.IsFull() {
		g.state = Drawn
		g.finish(-1)
		return g.state, nil
	}

	g.turn = 1 - g.turn
	return g.state, nil
}

// PlayGame plays one game to the end. ctx is checked between plies.
func (g *Game) PlayGame(ctx context.Context) (Result, error) {
	g.Begin()

	for g.state == InProgress {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		move := g.Current().SelectMove(g.Board)
		if _, err := g.Apply(move); err != nil {
			return Result{}, err
		}
	}

	return g.result, nil
}

// finish closes both trajectories with the terminal state and dispatches
// rewards. winner is a player index, or -1 for a draw.
func (g *Game) finish(winner int) {
	final := agent.Step{Hash: g.Board.Hash(), Action: agent.NoAction}
	for i := range g.trajectories {
		g.trajectories[i] = append(g.trajectories[i], final)
	}

	g.seq++
	g.result.Seq = g.seq

	if winner < 0 {
		g.result.Winner = Draw
		for i, p := range g.players {
			p.ReceiveOutcome(drawReward, g.trajectories[i])
		}
	} else {
		loser := 1 - winner
		g.result.Winner = g.players[winner].Token()
		g.players[winner].ReceiveOutcome(winReward, g.trajectories[winner])
		g.players[loser].ReceiveOutcome(lossReward, g.trajectories[loser])
	}

	g.trajectories = [2]agent.Trajectory{}
	g.log.Debug("game finished", "seq", g.seq, "winner", g.result.Winner, "first", g.result.FirstMover, "plies", len(g.result.Hashes))
}
