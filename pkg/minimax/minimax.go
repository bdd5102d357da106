package minimax

import (
	"log/slog"

	"github.com/Zarux/tttagents/internal/logger"
	"github.com/Zarux/tttagents/pkg/agent"
	"github.com/Zarux/tttagents/pkg/tictactoe"
)

const (
	winScore  = 1
	drawScore = 0
	lossScore = -1

	// outside the score range, used as the initial search window
	inf = 2
)

// Agent plays perfect Tic-Tac-Toe by full-depth search. Each position it
// solves is remembered by hash, so a position is searched at most once.
type Agent struct {
	agent.Player

	cache map[string]int
	ownID int8

	log *slog.Logger
}

func New(token string) (*Agent, error) {
	p, err := agent.NewPlayer(token)
	if err != nil {
		return nil, err
	}

	return &Agent{
		Player: p,
		cache:  map[string]int{},
		log:    logger.Nop(),
	}, nil
}

func (a *Agent) WithLogger(log *slog.Logger) *Agent {
	a.log = log.With("agent", "minimax", "token", a.Token())
	return a
}

func (a *Agent) CacheSize() int {
	return len(a.cache)
}

func (a *Agent) ReceiveOutcome(float64, agent.Trajectory) {}

func (a *Agent) SelectMove(b *tictactoe.Board) int {
	opp, ok := a.opponent(b)
	if !ok {
		a.log.Warn("board has no opponent registered, playing randomly", "tokens", b.Tokens())
		return agent.RandomMove(agent.NewRand(), b)
	}

	// Cached moves are only valid for one id assignment.
	id, _ := b.PlayerID(a.Token())
	if id != a.ownID {
		if len(a.cache) > 0 {
			a.log.Info("token id changed, dropping move cache", "old", a.ownID, "new", id, "entries", len(a.cache))
		}
		a.cache = map[string]int{}
		a.ownID = id
	}

	hash := b.Hash()
	if mv, ok := a.cache[hash]; ok {
		return mv
	}

	best := agent.NoAction
	bestScore := -inf
	for _, mv := range b.OpenPositions() {
		score := a.play(b, mv, a.Token(), func() int {
			return a.minimax(b, false, opp, -inf, inf)
		})

		if score > bestScore {
			best = mv
			bestScore = score
		}
	}

	a.cache[hash] = best
	a.log.Debug("position solved", "hash", hash, "move", best, "score", bestScore)
	return best
}

// minimax scores b from the agent's point of view. The window only prunes
// branches that cannot change the value returned to the root.
func (a *Agent) minimax(b *tictactoe.Board, maximizing bool, opp string, alpha, beta int) int {
	if winner, ok := b.CheckForWinner(); ok {
		if winner == a.Token() {
			return winScore
		}
		return lossScore
	}

	if b.IsFull() {
		return drawScore
	}

	if maximizing {
		value := -inf
		for _, mv := range b.OpenPositions() {
			value = max(value, a.play(b, mv, a.Token(), func() int {
				return a.minimax(b, false, opp, alpha, beta)
			}))

			alpha = max(alpha, value)
			if alpha >= beta {
				break
			}
		}
		return value
	}

	value := inf
	for _, mv := range b.OpenPositions() {
		value = min(value, a.play(b, mv, opp, func() int {
			return a.minimax(b, true, opp, alpha, beta)
		}))

		beta = min(beta, value)
		if alpha >= beta {
			break
		}
	}
	return value
}

// play applies a hypothetical move for the duration of f.
func (a *Agent) play(b *tictactoe.Board, pos int, token string, f func() int) int {
	b.PlaceToken(pos, token)
	defer b.ClearPosition(pos)

	return f()
}

func (a *Agent) opponent(b *tictactoe.Board) (string, bool) {
	own := false
	other := ""
	for _, t := range b.Tokens() {
		if t == a.Token() {
			own = true
			continue
		}
		other = t
	}

	return other, own && other != ""
}
