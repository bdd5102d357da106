package play

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Zarux/tttagents/internal/logger"
	"github.com/Zarux/tttagents/pkg/agent"
	"github.com/Zarux/tttagents/pkg/game"
	"github.com/Zarux/tttagents/pkg/tictactoe"
)

const (
	firstToken  = "X"
	secondToken = "O"
)

var (
	ErrNotFound = errors.New("game not found")
	ErrNotTurn  = errors.New("not the human's turn")
)

// Factory builds the agent for a new session.
type Factory func(token, config string) (agent.Agent, error)

// remote stands for the HTTP client. Its moves come in through Service.Move,
// so the arbiter never asks it for one.
type remote struct {
	agent.Player
}

func (r *remote) SelectMove(*tictactoe.Board) int {
	return agent.NoAction
}

func (r *remote) ReceiveOutcome(float64, agent.Trajectory) {}

type session struct {
	id       string
	opponent string
	human    agent.Agent
	bot      agent.Agent
	game     *game.Game
}

// Service keeps human-vs-agent sessions in memory. Agents are not safe for
// concurrent use so every session operation holds mu.
type Service struct {
	mu              sync.Mutex
	sessions        map[string]*session
	newAgent        Factory
	defaultOpponent string
}

func New(newAgent Factory, defaultOpponent string) *Service {
	return &Service{
		sessions:        map[string]*session{},
		newAgent:        newAgent,
		defaultOpponent: defaultOpponent,
	}
}

// Snapshot is a session as returned to clients.
type Snapshot struct {
	ID       string   `json:"id"`
	Opponent string   `json:"opponent"`
	Human    string   `json:"human"`
	Agent    string   `json:"agent"`
	Cells    []string `json:"cells"`
	Hash     string   `json:"hash"`
	State    string   `json:"state"`
	Turn     string   `json:"turn,omitempty"`
	Winner   string   `json:"winner,omitempty"`
	// AgentMove is the agent's reply to the last request, if it made one.
	AgentMove *int `json:"agentMove,omitempty"`
}

// NewGame starts a session. When the human does not move first the agent's
// opening move is already on the returned board.
func (s *Service) NewGame(ctx context.Context, opponent string, humanFirst bool) (Snapshot, error) {
	if opponent == "" {
		opponent = s.defaultOpponent
	}

	humanToken, botToken := firstToken, secondToken
	if !humanFirst {
		humanToken, botToken = secondToken, firstToken
	}

	bot, err := s.newAgent(botToken, opponent)
	if err != nil {
		return Snapshot{}, errors.WithMessage(err, "opponent")
	}

	p, err := agent.NewPlayer(humanToken)
	if err != nil {
		return Snapshot{}, err
	}
	human := &remote{Player: p}

	first, second := agent.Agent(human), bot
	if !humanFirst {
		first, second = bot, human
	}

	g, err := game.New(first, second)
	if err != nil {
		return Snapshot{}, err
	}
	g.RandomizeSeats(false)

	sess := &session{
		id:       uuid.NewString(),
		opponent: opponent,
		human:    human,
		bot:      bot,
		game:     g,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g.Begin()
	move, err := s.reply(sess)
	if err != nil {
		return Snapshot{}, err
	}

	s.sessions[sess.id] = sess
	logger.FromContext(ctx).Info("game created", "game", sess.id, "opponent", opponent, "human", humanToken)

	return sess.snapshot(move), nil
}

// Move plays pos for the human and lets the agent answer.
func (s *Service) Move(ctx context.Context, id string, pos int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}

	g := sess.game
	if g.State() != game.InProgress {
		return sess.snapshot(nil), game.ErrGameOver
	}

	if g.Current() != sess.human {
		return sess.snapshot(nil), ErrNotTurn
	}

	if _, err := g.Apply(pos); err != nil {
		return sess.snapshot(nil), err
	}

	move, err := s.reply(sess)
	if err != nil {
		return sess.snapshot(nil), err
	}

	snap := sess.snapshot(move)
	if snap.Winner != "" {
		logger.FromContext(ctx).Info("game finished", "game", id, "winner", snap.Winner)
	}

	return snap, nil
}

func (s *Service) Get(_ context.Context, id string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}

	return sess.snapshot(nil), nil
}

func (s *Service) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}

	delete(s.sessions, id)
	return nil
}

// reply lets the agent move if it is its turn. Must hold mu.
func (s *Service) reply(sess *session) (*int, error) {
	g := sess.game
	if g.State() != game.InProgress || g.Current() != sess.bot {
		return nil, nil
	}

	move := sess.bot.SelectMove(g.Board)
	if _, err := g.Apply(move); err != nil {
		return nil, errors.Wrapf(err, "agent %q", sess.opponent)
	}

	return &move, nil
}

func (sess *session) snapshot(agentMove *int) Snapshot {
	g := sess.game
	b := g.Board

	cells := make([]string, tictactoe.Size)
	for i := range cells {
		cells[i] = b.At(i)
	}

	snap := Snapshot{
		ID:        sess.id,
		Opponent:  sess.opponent,
		Human:     sess.human.Token(),
		Agent:     sess.bot.Token(),
		Cells:     cells,
		Hash:      b.Hash(),
		State:     g.State().String(),
		AgentMove: agentMove,
	}

	if g.State() == game.InProgress {
		snap.Turn = g.Current().Token()
	} else if res, ok := g.Result(); ok {
		snap.Winner = res.Winner
	}

	return snap
}
