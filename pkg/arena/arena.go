package arena

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Zarux/tttagents/internal/logger"
	"github.com/Zarux/tttagents/pkg/agent"
	"github.com/Zarux/tttagents/pkg/game"
)

// Stats counts results over a batch of games.
type Stats struct {
	Games          int            `json:"games"`
	Wins           map[string]int `json:"wins"`
	Draws          int            `json:"draws"`
	FirstMoverWins int            `json:"firstMoverWins"`
}

func NewStats() Stats {
	return Stats{Wins: map[string]int{}}
}

func (s *Stats) Add(r game.Result) {
	if s.Wins == nil {
		s.Wins = map[string]int{}
	}

	s.Games++
	if r.IsDraw() {
		s.Draws++
		return
	}

	s.Wins[r.Winner]++
	if r.Winner == r.FirstMover {
		s.FirstMoverWins++
	}
}

// WinRate is the share of games won by token. ok is false when no game
// has been played.
func (s Stats) WinRate(token string) (rate float64, ok bool) {
	if s.Games == 0 {
		return 0, false
	}

	return float64(s.Wins[token]) / float64(s.Games), true
}

func (s Stats) DrawRate() (rate float64, ok bool) {
	if s.Games == 0 {
		return 0, false
	}

	return float64(s.Draws) / float64(s.Games), true
}

func (s Stats) String() string {
	tokens := make([]string, 0, len(s.Wins))
	for t := range s.Wins {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)

	b := strings.Builder{}
	fmt.Fprintf(&b, "games=%d", s.Games)
	for _, t := range tokens {
		fmt.Fprintf(&b, " %s=%d", t, s.Wins[t])
	}
	fmt.Fprintf(&b, " draws=%d", s.Draws)

	return b.String()
}

// ReportFunc receives running stats every Arena.ReportEvery games.
type ReportFunc func(played int, s Stats)

// Arena plays batches of games on one arbiter, one game at a time.
type Arena struct {
	ID          string
	ReportEvery int
	OnReport    ReportFunc

	game *game.Game
	log  *slog.Logger
}

func New(g *game.Game) *Arena {
	id := uuid.NewString()
	return &Arena{
		ID:   id,
		game: g,
		log:  logger.Nop(),
	}
}

func (a *Arena) WithLogger(log *slog.Logger) *Arena {
	a.log = log.With("run", a.ID)
	return a
}

func (a *Arena) Game() *game.Game {
	return a.game
}

// Run plays n games and returns their stats. On error the stats of the
// games completed so far are returned alongside it.
func (a *Arena) Run(ctx context.Context, n int) (Stats, error) {
	stats := NewStats()
	for i := range n {
		res, err := a.game.PlayGame(ctx)
		if err != nil {
			return stats, fmt.Errorf("game %d: %w", i+1, err)
		}

		stats.Add(res)
		if a.ReportEvery > 0 && (i+1)%a.ReportEvery == 0 {
			a.log.Info("progress", "played", i+1, "of", n, "stats", stats.String())
			if a.OnReport != nil {
				a.OnReport(i+1, stats)
			}
		}
	}

	return stats, nil
}

// Phase is a batch of games with a fixed set of learners. Agents missing
// from Train play in inference mode.
type Phase struct {
	Name  string
	Games int
	Train map[string]bool
}

// RunSchedule runs phases in order, switching training on and off for each.
// Agents are left in the training mode of the last phase.
func (a *Arena) RunSchedule(ctx context.Context, phases []Phase) ([]Stats, error) {
	all := make([]Stats, 0, len(phases))
	for _, ph := range phases {
		for _, p := range a.game.Players() {
			if tr, ok := p.(agent.Trainer); ok {
				tr.Train(ph.Train[p.Token()])
			}
		}

		a.log.Info("phase started", "phase", ph.Name, "games", ph.Games, "train", ph.Train)
		stats, err := a.Run(ctx, ph.Games)
		all = append(all, stats)
		if err != nil {
			return all, fmt.Errorf("phase %q: %w", ph.Name, err)
		}

		a.log.Info("phase finished", "phase", ph.Name, "stats", stats.String())
	}

	return all, nil
}

// Alternating builds the schedule of taking turns: first only tokens[0]
// learns, then only tokens[1], and so on for rounds phases.
func Alternating(tokens [2]string, rounds, games int) []Phase {
	phases := make([]Phase, 0, rounds)
	for i := range rounds {
		learner := tokens[i%2]
		phases = append(phases, Phase{
			Name:  fmt.Sprintf("round %d: %s learns", i+1, learner),
			Games: games,
			Train: map[string]bool{learner: true},
		})
	}

	return phases
}

// Evaluation is a single phase with learning switched off for everyone.
func Evaluation(games int) Phase {
	return Phase{Name: "evaluation", Games: games}
}
