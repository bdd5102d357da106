package agent

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/Zarux/tttagents/pkg/tictactoe"
)

func TestMain(m *testing.M) {
	SetSeedGeneratorFn(func() uint64 {
		return 42
	})
	fmt.Printf("Using seed %d\n", SeedGeneratorFn())

	os.Exit(m.Run())
}

func TestNewPlayerFailsFast(t *testing.T) {
	for _, tok := range []string{"", "two words", " "} {
		if _, err := NewPlayer(tok); err != ErrInvalidToken {
			t.Errorf("NewPlayer(%q) err = %v, want ErrInvalidToken", tok, err)
		}
	}

	p, err := NewPlayer("X")
	if err != nil || p.Token() != "X" {
		t.Fatalf("NewPlayer(X) = %v, %v", p, err)
	}
}

func TestRandomPlaysOnlyOpenCells(t *testing.T) {
	r, err := NewRandom("X")
	if err != nil {
		t.Fatal(err)
	}

	b, _ := tictactoe.New("X", "O")
	b.PlaceToken(0, "O")
	b.PlaceToken(4, "O")
	b.PlaceToken(8, "O")

	counts := map[int]int{}
	for range 6000 {
		mv := r.SelectMove(b)
		if !b.IsValidMove(mv) {
			t.Fatalf("random agent picked occupied/invalid %d", mv)
		}
		counts[mv]++
	}

	if len(counts) != 6 {
		t.Fatalf("expected all 6 open cells to be picked, got %v", counts)
	}
	for mv, n := range counts {
		if n < 700 || n > 1300 {
			t.Errorf("cell %d picked %d times out of 6000, expected about 1000", mv, n)
		}
	}
}

func TestRandomAgentsUnderOneSeedDiffer(t *testing.T) {
	a, _ := NewRandom("X")
	b, _ := NewRandom("O")
	board, _ := tictactoe.New("X", "O")

	same := 0
	for range 1000 {
		if a.SelectMove(board) == b.SelectMove(board) {
			same++
		}
	}

	// Independent uniform picks over 9 cells agree about 1 time in 9.
	if same > 300 {
		t.Fatalf("identical picks: %d/1000", same)
	}
}

func TestRandomMoveOnFullBoard(t *testing.T) {
	b, _ := tictactoe.New("X", "O")
	for pos := range tictactoe.Size {
		b.PlaceToken(pos, []string{"X", "O"}[pos%2])
	}

	if mv := RandomMove(NewRand(), b); mv != NoAction {
		t.Fatalf("RandomMove on full board = %d, want NoAction", mv)
	}
}

func TestHumanRetriesUntilValid(t *testing.T) {
	b, _ := tictactoe.New("X", "O")
	b.PlaceToken(4, "X")

	out := &bytes.Buffer{}
	h, err := NewHuman("O", strings.NewReader("abc\n9\n4\n 2 \n"), out)
	if err != nil {
		t.Fatal(err)
	}

	if mv := h.SelectMove(b); mv != 2 {
		t.Fatalf("SelectMove = %d, want 2", mv)
	}
	if n := strings.Count(out.String(), "invalid move"); n != 3 {
		t.Fatalf("expected 3 rejections, got %d:\n%s", n, out.String())
	}
}

func TestHumanExhaustedInput(t *testing.T) {
	b, _ := tictactoe.New("X", "O")
	h, _ := NewHuman("O", strings.NewReader("11\n"), &bytes.Buffer{})

	if mv := h.SelectMove(b); mv != NoAction {
		t.Fatalf("SelectMove on EOF = %d, want NoAction", mv)
	}
}

func TestTrajectoryMoves(t *testing.T) {
	traj := Trajectory{{"000000000", 4}, {"201010000", 8}, {"201010002", NoAction}}
	if traj.Moves() != 2 {
		t.Fatalf("Moves = %d, want 2", traj.Moves())
	}
	if traj[:2].Moves() != 2 {
		t.Fatalf("Moves without terminal = %d, want 2", traj[:2].Moves())
	}
}
