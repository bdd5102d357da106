package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/Zarux/tttagents/internal/config"
	"github.com/Zarux/tttagents/internal/logger"
	"github.com/Zarux/tttagents/pkg/agent"
	"github.com/Zarux/tttagents/pkg/arena"
	"github.com/Zarux/tttagents/pkg/game"
	"github.com/Zarux/tttagents/pkg/players"
)

const (
	agentToken    = "X"
	opponentToken = "O"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#4204b5ff", Dark: "#8f6bf5ff"})
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	headerStyle = cellStyle.Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#414141ff", Dark: "#8f8f8fff"})
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#138a0fff", Dark: "#1ddd37ff"})
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#bb0000ff", Dark: "#df1010ff"})
)

func main() {
	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if cfg.Seed != 0 {
		agent.SetSeedGeneratorFn(func() uint64 { return cfg.Seed })
	}

	out := termenv.NewOutput(os.Stdout)
	lipgloss.SetColorProfile(out.EnvColorProfile())

	log := logger.NewWithLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("training failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	learner, err := players.New(agentToken, cfg.Agent, players.WithContext(ctx), players.WithLogger(log.Logger))
	if err != nil {
		return err
	}

	opponent, err := players.New(opponentToken, cfg.Opponent, players.WithContext(ctx), players.WithLogger(log.Logger))
	if err != nil {
		return err
	}

	g, err := game.New(learner, opponent)
	if err != nil {
		return err
	}
	g.WithLogger(log.Logger)

	a := arena.New(g).WithLogger(log.Logger)
	a.ReportEvery = cfg.ReportEvery

	phases := schedule(cfg, learner, opponent)
	log.Info("training", "run", a.ID, "agent", cfg.Agent, "opponent", cfg.Opponent, "phases", len(phases))

	results, err := a.RunSchedule(ctx, phases)
	fmt.Println(report(phases, results, learner))

	return err
}

// schedule trains the agent alone, or takes turns when both sides can learn.
func schedule(cfg config.Config, learner, opponent agent.Agent) []arena.Phase {
	var phases []arena.Phase

	_, learns := learner.(agent.Trainer)
	_, opponentLearns := opponent.(agent.Trainer)

	switch {
	case learns && opponentLearns && cfg.Rounds > 1:
		phases = arena.Alternating([2]string{agentToken, opponentToken}, cfg.Rounds, cfg.TrainGames)
	case learns:
		for i := range cfg.Rounds {
			phases = append(phases, arena.Phase{
				Name:  fmt.Sprintf("round %d", i+1),
				Games: cfg.TrainGames,
				Train: map[string]bool{agentToken: true},
			})
		}
	}

	if cfg.EvalGames > 0 {
		phases = append(phases, arena.Evaluation(cfg.EvalGames))
	}

	return phases
}

func report(phases []arena.Phase, results []arena.Stats, learner agent.Agent) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("phase", "games", agentToken, opponentToken, "draws", "first mover", agentToken+" win rate")

	for i, st := range results {
		rate := "-"
		if r, ok := st.WinRate(agentToken); ok {
			style := badStyle
			if r >= 0.5 {
				style = goodStyle
			}
			rate = style.Render(fmt.Sprintf("%.3f", r))
		}

		t.Row(
			phases[i].Name,
			fmt.Sprint(st.Games),
			fmt.Sprint(st.Wins[agentToken]),
			fmt.Sprint(st.Wins[opponentToken]),
			fmt.Sprint(st.Draws),
			fmt.Sprint(st.FirstMoverWins),
			rate,
		)
	}

	s := strings.Builder{}
	s.WriteString(titleStyle.Render("Results") + "\n")
	s.WriteString(t.String() + "\n")

	if st, ok := learner.(interface{ States() int }); ok {
		s.WriteString(fmt.Sprintf("\n%s knows %d states\n", agentToken, st.States()))
	}

	return s.String()
}
