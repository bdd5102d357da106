package game

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zarux/tttagents/pkg/agent"
	arbiter "github.com/Zarux/tttagents/pkg/game"
	"github.com/Zarux/tttagents/pkg/mcts"
	"github.com/Zarux/tttagents/pkg/tictactoe"
)

const side = 3

// Human is the cursor-driven seat. Its moves come from key presses, so the
// arbiter never asks it for one.
type Human struct {
	agent.Player
}

func NewHuman(token string) (*Human, error) {
	p, err := agent.NewPlayer(token)
	if err != nil {
		return nil, err
	}

	return &Human{Player: p}, nil
}

func (h *Human) SelectMove(*tictactoe.Board) int {
	return agent.NoAction
}

func (h *Human) ReceiveOutcome(float64, agent.Trajectory) {}

type statser interface {
	Stats() *mcts.LastMoveStats
}

type model struct {
	game    *arbiter.Game
	human   agent.Agent
	bot     agent.Agent
	cursor  int
	spinner spinner.Model
	header  string
	footer  string

	lastMove int
	err      error
	gameOver bool
	Replay   bool
}

var (
	p1Style              = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#007e50ff", Dark: "#6afd76ff"}).Render
	p2Style              = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0003adff", Dark: "#5f61fcff"}).Render
	cursorStyle          = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#960000ff", Dark: "#fc7e7eff"}).Render
	winningRowStyle      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#bb0000ff", Dark: "#df1010ff"}).Render
	lastWinningRowStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#f80000ff", Dark: "#f18787ff"}).Render
	bracketStyle         = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#414141ff", Dark: "#8f8f8fff"}).Render
	lastMoveBracketStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000ff", Dark: "#ffffffff"}).Render
	statStyle1           = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8a880fff", Dark: "#ddda1dff"}).Render
	statStyle2           = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#138a0fff", Dark: "#1ddd37ff"}).Render
)

var thinkingColors = []func(strs ...string) string{
	bracketStyle,
	lastMoveBracketStyle,
}

// InitialModel starts a new game on g. human must be one of g's players and
// the other one is driven in the background. footer is shown under the board.
func InitialModel(header, footer string, g *arbiter.Game, human agent.Agent) *model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	players := g.Players()
	bot := players[0]
	if bot == human {
		bot = players[1]
	}

	g.Begin()

	return &model{
		game:     g,
		human:    human,
		bot:      bot,
		spinner:  s,
		header:   header,
		footer:   footer,
		lastMove: agent.NoAction,
	}
}

func (m *model) botTurn() bool {
	return !m.gameOver && m.game.Current() == m.bot
}

func (m *model) Init() tea.Cmd {
	if m.botTurn() {
		return tea.Batch(m.spinner.Tick, m.botMove())
	}

	return nil
}

type botDoneMsg struct {
	move int
}

// botMove asks the agent on a copy of the board so View can keep reading
// the real one.
func (m *model) botMove() tea.Cmd {
	b := m.game.Board.Clone()
	return func() tea.Msg {
		return botDoneMsg{move: m.bot.SelectMove(b)}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case botDoneMsg:
		m.apply(msg.move)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "right":
			m.cursor = m.step(1)
		case "left":
			m.cursor = m.step(-1)
		case "up":
			m.cursor = m.step(-side)
		case "down":
			m.cursor = m.step(side)

		case "enter":
			if m.gameOver {
				m.Replay = true
				return m, tea.Quit
			}

			if m.botTurn() || !m.game.Board.IsValidMove(m.cursor) {
				return m, nil
			}

			m.apply(m.cursor)
			if m.botTurn() {
				return m, tea.Batch(m.spinner.Tick, m.botMove())
			}
		}

	case spinner.TickMsg:
		if !m.botTurn() {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *model) apply(pos int) {
	state, err := m.game.Apply(pos)
	if err != nil {
		m.err = err
		m.gameOver = true
		return
	}

	m.lastMove = pos
	if state != arbiter.InProgress {
		m.gameOver = true
		m.cursor = agent.NoAction
		return
	}

	if !m.game.Board.IsValidMove(m.cursor) {
		m.cursor = m.step(1)
	}
}

// step moves the cursor by delta until it lands on an open cell, wrapping
// around the board. The cursor stays put when there is nowhere to go.
func (m *model) step(delta int) int {
	open := m.game.Board.OpenPositions()
	if len(open) == 0 {
		return agent.NoAction
	}

	from := max(m.cursor, 0)
	for i := 1; i <= tictactoe.Size; i++ {
		pos := ((from+i*delta)%tictactoe.Size + tictactoe.Size) % tictactoe.Size
		if slices.Contains(open, pos) {
			return pos
		}
	}

	return open[0]
}

// Result is the arbiter's record of the game shown, once it is over.
func (m *model) Result() (arbiter.Result, bool) {
	return m.game.Result()
}

func (m *model) Err() error {
	return m.err
}

func (m *model) styleToken(token string) string {
	players := m.game.Players()
	if token == players[0].Token() {
		return p1Style(token)
	}

	return p2Style(token)
}

func winningLine(b *tictactoe.Board) []int {
	w, ok := b.CheckForWinner()
	if !ok {
		return nil
	}

	for _, l := range tictactoe.Lines() {
		if b.At(l[0]) == w && b.At(l[1]) == w && b.At(l[2]) == w {
			return l[:]
		}
	}

	return nil
}

func (m *model) View() string {
	if m.gameOver && m.Replay {
		return ""
	}

	b := m.game.Board
	highlights := winningLine(b)
	botTurn := m.botTurn()

	s := m.header

	s += "Current player: " + m.styleToken(m.game.Current().Token())
	if botTurn {
		s += " (bot) " + m.spinner.View()
	}

	s += "\n"

	for i := range tictactoe.Size {
		token := b.At(i)

		mark := " "
		switch {
		case token != "":
			mark = m.styleToken(token)
		case m.cursor == i && !botTurn:
			mark = cursorStyle("*")
		case botTurn:
			mark = []string{"o", "x", " ", " "}[rand.N(4)]
			mark = thinkingColors[rand.IntN(len(thinkingColors))](mark)
		}

		bStyle := bracketStyle
		winningRow := slices.Contains(highlights, i)
		if winningRow {
			bStyle = winningRowStyle
		}

		if m.lastMove == i {
			bStyle = lastMoveBracketStyle
			if winningRow {
				bStyle = lastWinningRowStyle
			}
		}

		s += fmt.Sprintf("%s%s%s", bStyle("["), mark, bStyle("]"))
		if (i+1)%side == 0 {
			s += "\n"
		}
	}

	if st, ok := m.bot.(statser); ok && !botTurn {
		if stats := st.Stats(); stats != nil {
			s += "\n"
			s += fmt.Sprintf(
				"Found move: %s\nDid %s iterations over %s\nMost visited node: Visits: %s - Score: %s\n",
				statStyle1(strconv.Itoa(stats.BestMove)),
				statStyle2(strconv.Itoa(stats.NumIterations)),
				statStyle2(stats.ThinkTime.Round(time.Millisecond).String()),
				statStyle1(strconv.Itoa(stats.MoveVisits)),
				statStyle1(fmt.Sprintf("%f", stats.MoveWins/float64(max(stats.MoveVisits, 1)))),
			)

			if stats.Forced {
				s += cursorStyle("FORCED MOVE\n")
			}
		}
	}

	if m.err != nil {
		s += "\n" + cursorStyle(m.err.Error()) + "\n"
	}

	if m.gameOver {
		s += "\n" + gameOverText

		s += "\nTHE WINNER IS: "
		res, ok := m.game.Result()
		if !ok || res.IsDraw() {
			s += cursorStyle("NO ONE\n")
		} else {
			s += m.styleToken(res.Winner) + "\n"
		}

		s += "Press enter to play again, q to quit\n"
	}

	if m.footer != "" {
		s += "\n" + m.footer + "\n"
	}

	return s
}

const gameOverText = `ＧＡＭＥ ＯＶＥＲ`
