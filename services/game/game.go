package game

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zarux/tttagents/pkg/agent"
	"github.com/Zarux/tttagents/pkg/arena"
	arbiter "github.com/Zarux/tttagents/pkg/game"
	"github.com/Zarux/tttagents/pkg/players"
	"github.com/Zarux/tttagents/services/game/game"
	"github.com/Zarux/tttagents/services/game/settings"
)

const (
	firstToken  = "X"
	secondToken = "O"
)

type Service struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Service {
	return &Service{
		log: log,
	}
}

// Play runs the settings menu, trains the opponent if asked to, and then
// plays games until the human stops asking for a replay. The same agent
// instance is kept across replays.
func (s *Service) Play(ctx context.Context) error {
	settingsModel := settings.InitialModel(header())
	p := tea.NewProgram(settingsModel, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return err
	}

	cfg, ok := settingsModel.GetSettings()
	if !ok {
		return nil
	}

	humanToken, botToken := firstToken, secondToken
	if !cfg.HumanFirst {
		humanToken, botToken = secondToken, firstToken
	}

	bot, err := players.New(botToken, cfg.Opponent, players.WithContext(ctx), players.WithLogger(s.log))
	if err != nil {
		return err
	}

	if tr, ok := bot.(agent.Trainer); ok && cfg.TrainingGames > 0 {
		if err := s.train(ctx, bot, humanToken, cfg.TrainingGames); err != nil {
			return err
		}
		tr.Train(false)
	}

	human, err := game.NewHuman(humanToken)
	if err != nil {
		return err
	}

	first, second := agent.Agent(human), bot
	if !cfg.HumanFirst {
		first, second = bot, human
	}

	g, err := arbiter.New(first, second)
	if err != nil {
		return err
	}
	g.RandomizeSeats(false).WithLogger(s.log)

	score := arena.NewStats()
	for {
		gameModel := game.InitialModel(header(), scoreLine(score, humanToken, botToken), g, human)

		p = tea.NewProgram(gameModel, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil {
			return err
		}

		if err := gameModel.Err(); err != nil {
			return err
		}

		if res, ok := gameModel.Result(); ok {
			score.Add(res)
		}

		if !gameModel.Replay {
			break
		}
	}

	s.log.Info("session finished", "opponent", cfg.Opponent, "stats", score.String())
	return nil
}

// train lets a learning bot play against a random sparring partner that
// uses the human's token. Seats are shuffled so the bot learns both sides.
func (s *Service) train(ctx context.Context, bot agent.Agent, sparringToken string, games int) error {
	sparring, err := agent.NewRandom(sparringToken)
	if err != nil {
		return err
	}

	// Register the tokens in the same order as the real game. The learned
	// table is keyed by board hashes, which depend on the ids.
	first, second := agent.Agent(sparring), bot
	if bot.Token() == firstToken {
		first, second = bot, sparring
	}

	g, err := arbiter.New(first, second)
	if err != nil {
		return err
	}

	a := arena.New(g).WithLogger(s.log)
	m := newTrainingModel(ctx, header(), a, arena.Phase{
		Name:  "warm-up",
		Games: games,
		Train: map[string]bool{bot.Token(): true},
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return err
	}

	return m.err
}

var scoreStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#414141ff", Dark: "#8f8f8fff"}).Render

func scoreLine(s arena.Stats, human, bot string) string {
	if s.Games == 0 {
		return ""
	}

	return scoreStyle(fmt.Sprintf("You %d - %d bot, %d draws", s.Wins[human], s.Wins[bot], s.Draws))
}

var (
	headerStyle1 = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#4204b5ff", Dark: "#4204b5ff"}).Render
	headerStyle2 = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#19b504ff", Dark: "#19b504ff"}).Render
	headerStyle3 = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b55404ff", Dark: "#b55404ff"}).Render
)

func header() string {
	return fmt.Sprintf(
		"%s %s %s %s %s\n\n",
		headerStyle2("---"),
		headerStyle1("Tic"),
		headerStyle2("Tac"),
		headerStyle3("Toe"),
		headerStyle2("---"),
	)
}
