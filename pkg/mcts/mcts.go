package mcts

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/Zarux/tttagents/internal/logger"
	"github.com/Zarux/tttagents/pkg/agent"
	"github.com/Zarux/tttagents/pkg/tictactoe"
)

type LastMoveStats struct {
	ThinkTime     time.Duration
	NumIterations int
	BestMove      int
	MoveVisits    int
	MoveWins      float64
	Forced        bool
}

// Agent picks moves with UCT search from the current position. It keeps no
// state between moves apart from the statistics of the last one.
type Agent struct {
	agent.Player

	explorationParam float64
	iterations       int
	thinkTime        time.Duration

	ctx           context.Context
	rng           *rand.Rand
	log           *slog.Logger
	lastMoveStats *LastMoveStats
}

func New(token string, iterations int) (*Agent, error) {
	p, err := agent.NewPlayer(token)
	if err != nil {
		return nil, err
	}

	return &Agent{
		Player:           p,
		explorationParam: 1.414,
		iterations:       iterations,
		thinkTime:        time.Second,
		ctx:              context.Background(),
		rng:              agent.NewRand(),
		log:              logger.Nop(),
	}, nil
}

func (a *Agent) UpdateExplorationParam(ep float64) {
	a.explorationParam = ep
}

func (a *Agent) UpdateThinkTime(t time.Duration) {
	a.thinkTime = t
}

func (a *Agent) UpdateIterations(iters int) {
	a.iterations = iters
}

// WithContext bounds every search by ctx in addition to the think time.
func (a *Agent) WithContext(ctx context.Context) *Agent {
	a.ctx = ctx
	return a
}

func (a *Agent) WithRand(rng *rand.Rand) *Agent {
	a.rng = rng
	return a
}

func (a *Agent) WithLogger(log *slog.Logger) *Agent {
	a.log = log.With("agent", "mcts", "token", a.Token())
	return a
}

func (a *Agent) Stats() *LastMoveStats {
	return a.lastMoveStats
}

func (a *Agent) ReceiveOutcome(float64, agent.Trajectory) {}

func (a *Agent) SelectMove(b *tictactoe.Board) int {
	a.lastMoveStats = nil
	opp, ok := opponent(b, a.Token())
	if !ok {
		return agent.RandomMove(a.rng, b)
	}

	if move, ok := forcedMove(b, a.Token(), opp); ok {
		a.lastMoveStats = &LastMoveStats{BestMove: move, Forced: true}
		return move
	}

	root := &node{
		Token:        opp,
		UntriedMoves: b.OpenPositions(),
		agent:        a,
	}

	t := time.Now()
	numIters := a.mctsIteration(root, b, opp)

	var best *node
	for _, c := range root.Children {
		if best == nil || c.Visits > best.Visits {
			best = c
		}
	}

	if best == nil {
		return agent.RandomMove(a.rng, b)
	}

	a.lastMoveStats = &LastMoveStats{
		ThinkTime:     time.Since(t),
		NumIterations: numIters,
		BestMove:      best.Move,
		MoveVisits:    best.Visits,
		MoveWins:      best.Wins,
	}
	a.log.Debug("search done", "move", best.Move, "iterations", numIters, "visits", best.Visits)

	return best.Move
}

func (a *Agent) mctsIteration(root *node, rootBoard *tictactoe.Board, opp string) int {
	done := time.After(a.thinkTime)
	players := map[string]string{a.Token(): opp, opp: a.Token()}

	iterationsDone := 0
mctsIteration:
	for range a.iterations {
		select {
		case <-a.ctx.Done():
			break mctsIteration
		case <-done:
			break mctsIteration
		default:
		}

		board := rootBoard.Clone()
		n := root
		current := a.Token()

		// Selection
		for len(n.UntriedMoves) == 0 && len(n.Children) > 0 {
			n = n.selectChild()
			board.PlaceToken(n.Move, current)
			current = players[current]
		}

		// Expansion
		if n.canExpand() && !board.IsTerminal() {
			n = n.expand(board, current)
			current = players[current]
		}

		// Simulation
		winner := a.rollout(board, current, players)

		// Backprop
		n.backpropagate(winner)

		iterationsDone++
	}

	return iterationsDone
}

// rollout plays random moves to the end and returns the winner, "" on a draw.
func (a *Agent) rollout(board *tictactoe.Board, current string, players map[string]string) string {
	for {
		if winner, ok := board.CheckForWinner(); ok {
			return winner
		}

		if board.IsFull() {
			return ""
		}

		board.PlaceToken(agent.RandomMove(a.rng, board), current)
		current = players[current]
	}
}

// forcedMove returns a winning move if there is one, else a move that
// blocks an immediate opponent win.
func forcedMove(b *tictactoe.Board, own, opp string) (int, bool) {
	block := -1
	for _, mv := range b.OpenPositions() {
		b.PlaceToken(mv, own)
		_, win := b.CheckForWinner()
		b.ClearPosition(mv)
		if win {
			return mv, true
		}

		if block == -1 {
			b.PlaceToken(mv, opp)
			_, lose := b.CheckForWinner()
			b.ClearPosition(mv)
			if lose {
				block = mv
			}
		}
	}

	return block, block != -1
}

func opponent(b *tictactoe.Board, own string) (string, bool) {
	if _, ok := b.PlayerID(own); !ok {
		return "", false
	}

	for _, t := range b.Tokens() {
		if t != own {
			return t, true
		}
	}

	return "", false
}
