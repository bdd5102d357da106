package game

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zarux/tttagents/pkg/agent"
	arbiter "github.com/Zarux/tttagents/pkg/game"
	"github.com/Zarux/tttagents/pkg/minimax"
)

func newModel(t *testing.T, humanFirst bool) *model {
	t.Helper()
	h, _ := NewHuman("X")
	bot, _ := minimax.New("O")

	first, second := agent.Agent(h), agent.Agent(bot)
	if !humanFirst {
		first, second = bot, h
	}

	g, err := arbiter.New(first, second)
	if err != nil {
		t.Fatal(err)
	}

	return InitialModel("", "", g.RandomizeSeats(false), h)
}

// answer runs the pending bot command synchronously.
func answer(m *model) {
	m.Update(botDoneMsg{move: m.bot.SelectMove(m.game.Board.Clone())})
}

func TestHumanMoveThenBotReply(t *testing.T) {
	m := newModel(t, true)
	if m.Init() != nil {
		t.Fatal("bot started on the human's turn")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.game.Board.At(0) != "X" || !m.botTurn() {
		t.Fatalf("human move not applied: %s", m.game.Board.Hash())
	}

	// Keys are ignored while the bot thinks.
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.game.Board.Hash() != "100000000" {
		t.Fatalf("human moved twice: %s", m.game.Board.Hash())
	}

	answer(m)
	if m.game.Board.At(4) != "O" || m.botTurn() {
		t.Fatalf("bot reply missing: %s", m.game.Board.Hash())
	}
	if !m.game.Board.IsValidMove(m.cursor) {
		t.Fatalf("cursor left on occupied cell %d", m.cursor)
	}
}

func TestBotOpens(t *testing.T) {
	m := newModel(t, false)
	if m.Init() == nil {
		t.Fatal("bot did not start")
	}

	answer(m)
	if len(m.game.Board.OpenPositions()) != 8 || m.botTurn() {
		t.Fatalf("unexpected board after opening: %s", m.game.Board.Hash())
	}
}

func TestPlayToTheEndAndReplay(t *testing.T) {
	m := newModel(t, true)

	for !m.gameOver {
		if m.botTurn() {
			answer(m)
			continue
		}
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	}

	if m.Err() != nil {
		t.Fatal(m.Err())
	}

	res, ok := m.Result()
	if !ok || res.Winner == "X" {
		t.Fatalf("unexpected result %+v (%v)", res, ok)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Replay || m.View() != "" {
		t.Fatal("enter after game over should ask for a replay")
	}
}

func TestCursorSkipsOccupiedCells(t *testing.T) {
	m := newModel(t, true)
	m.game.Board.PlaceToken(1, "O")
	m.game.Board.PlaceToken(2, "O")

	m.cursor = 0
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.cursor != 3 {
		t.Fatalf("right moved cursor to %d, want 3", m.cursor)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Fatalf("up moved cursor to %d, want 0", m.cursor)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.cursor != 8 {
		t.Fatalf("left from 0 moved cursor to %d, want 8", m.cursor)
	}
}
