package arena

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/Zarux/tttagents/pkg/agent"
	"github.com/Zarux/tttagents/pkg/game"
	"github.com/Zarux/tttagents/pkg/minimax"
	"github.com/Zarux/tttagents/pkg/qlearn"
)

func TestMain(m *testing.M) {
	agent.SetSeedGeneratorFn(func() uint64 {
		return 42
	})
	fmt.Printf("Using seed %d\n", agent.SeedGeneratorFn())

	os.Exit(m.Run())
}

func newArena(t *testing.T, p1, p2 agent.Agent) *Arena {
	t.Helper()
	g, err := game.New(p1, p2)
	if err != nil {
		t.Fatal(err)
	}

	return New(g)
}

func TestWinRateNeedsGames(t *testing.T) {
	s := NewStats()
	if _, ok := s.WinRate("X"); ok {
		t.Fatal("win rate reported for zero games")
	}
	if _, ok := s.DrawRate(); ok {
		t.Fatal("draw rate reported for zero games")
	}

	s.Add(game.Result{Winner: "X", FirstMover: "X"})
	s.Add(game.Result{Winner: "O", FirstMover: "X"})
	s.Add(game.Result{Winner: game.Draw, FirstMover: "O"})
	s.Add(game.Result{Winner: "X", FirstMover: "O"})

	if r, ok := s.WinRate("X"); !ok || r != 0.5 {
		t.Fatalf("X win rate = %v (%v), want 0.5", r, ok)
	}
	if r, _ := s.DrawRate(); r != 0.25 {
		t.Fatalf("draw rate = %v, want 0.25", r)
	}
	if s.FirstMoverWins != 1 {
		t.Fatalf("first mover wins = %d, want 1", s.FirstMoverWins)
	}
	if got := s.String(); got != "games=4 O=1 X=2 draws=1" {
		t.Fatalf("String() = %q", got)
	}
}

func TestRunCountsEveryGame(t *testing.T) {
	x, _ := agent.NewRandom("X")
	o, _ := agent.NewRandom("O")
	a := newArena(t, x, o)

	reports := 0
	a.ReportEvery = 25
	a.OnReport = func(played int, s Stats) {
		reports++
		if s.Games != played {
			t.Errorf("report at %d carries %d games", played, s.Games)
		}
	}

	s, err := a.Run(context.Background(), 100)
	if err != nil {
		t.Fatal(err)
	}

	if s.Games != 100 || s.Wins["X"]+s.Wins["O"]+s.Draws != 100 {
		t.Fatalf("inconsistent stats %+v", s)
	}
	if reports != 4 {
		t.Fatalf("reports = %d, want 4", reports)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	x, _ := agent.NewRandom("X")
	o, _ := agent.NewRandom("O")
	a := newArena(t, x, o)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := a.Run(ctx, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if s.Games != 0 {
		t.Fatalf("games = %d after cancellation", s.Games)
	}
}

func TestMinimaxNeverLosesToRandom(t *testing.T) {
	mm, _ := minimax.New("X")
	rnd, _ := agent.NewRandom("O")
	a := newArena(t, mm, rnd)

	s, err := a.Run(context.Background(), 150)
	if err != nil {
		t.Fatal(err)
	}

	if s.Wins["O"] != 0 {
		t.Fatalf("minimax lost %d of %d games", s.Wins["O"], s.Games)
	}
	if s.Wins["X"] == 0 {
		t.Fatal("minimax never won against random")
	}
}

func TestScheduleTogglesTraining(t *testing.T) {
	x, _ := qlearn.New("X", qlearn.DefaultConfig())
	o, _ := qlearn.New("O", qlearn.DefaultConfig())
	a := newArena(t, x, o)

	phases := Alternating([2]string{"X", "O"}, 3, 20)
	if len(phases) != 3 || !phases[0].Train["X"] || phases[0].Train["O"] || !phases[1].Train["O"] {
		t.Fatalf("unexpected schedule %+v", phases)
	}

	all, err := a.RunSchedule(context.Background(), phases)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d phase stats, want 3", len(all))
	}

	// X learned in rounds 1 and 3, O only in round 2.
	if !x.Training() || o.Training() {
		t.Fatalf("training left as X=%v O=%v after last phase", x.Training(), o.Training())
	}
	if x.Epsilon() >= o.Epsilon() {
		t.Fatalf("X epsilon %v should have decayed more than O epsilon %v", x.Epsilon(), o.Epsilon())
	}

	if _, err := a.RunSchedule(context.Background(), []Phase{Evaluation(10)}); err != nil {
		t.Fatal(err)
	}
	if x.Training() || o.Training() {
		t.Fatal("evaluation phase left an agent learning")
	}
}

func TestTrainingImprovesAgainstRandom(t *testing.T) {
	const evalGames = 1000

	baseline := func() float64 {
		x, _ := agent.NewRandom("X")
		o, _ := agent.NewRandom("O")
		s, err := newArena(t, x, o).Run(context.Background(), evalGames)
		if err != nil {
			t.Fatal(err)
		}
		r, _ := s.WinRate("X")
		return r
	}()

	q, _ := qlearn.New("X", qlearn.DefaultConfig())
	rnd, _ := agent.NewRandom("O")
	a := newArena(t, q, rnd)

	phases := []Phase{
		{Name: "training", Games: 20_000, Train: map[string]bool{"X": true}},
		Evaluation(evalGames),
	}
	all, err := a.RunSchedule(context.Background(), phases)
	if err != nil {
		t.Fatal(err)
	}

	trained, _ := all[1].WinRate("X")
	t.Logf("random baseline %.3f, trained %.3f, states %d", baseline, trained, q.States())
	if trained < baseline+0.15 {
		t.Fatalf("trained win rate %.3f does not beat random baseline %.3f", trained, baseline)
	}
}
