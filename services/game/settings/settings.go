package settings

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	listSelectorStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}).Render
)

var opponentChoices = []string{"minimax", "q", "mcts", "random"}
var stoneChoices = []string{"X (first)", "O"}
var trainingChoices = []int{0, 10_000, 50_000, 200_000}

type Settings struct {
	Opponent   string
	HumanFirst bool
	// TrainingGames is only used by learning opponents.
	TrainingGames int
}

type choiceLevel int

const (
	choiceLevelOpponent choiceLevel = iota
	choiceLevelStone
	choiceLevelTraining
)

type model struct {
	cursor      int
	choiceLevel choiceLevel
	header      string

	settings Settings

	clear     bool
	cancelled bool
}

// GetSettings returns the choices made, and false if the menu was left
// before the last choice.
func (m model) GetSettings() (Settings, bool) {
	return m.settings, !m.cancelled
}

func InitialModel(header string) *model {
	return &model{
		header: header,
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) choices() []string {
	switch m.choiceLevel {
	case choiceLevelOpponent:
		return opponentChoices
	case choiceLevelStone:
		return stoneChoices
	}

	choices := make([]string, len(trainingChoices))
	for i, n := range trainingChoices {
		choices[i] = fmt.Sprintf("%d training games", n)
	}

	return choices
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	choices := m.choices()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.clear = true
			m.cancelled = true
			return m, tea.Quit

		case "enter":
			switch m.choiceLevel {
			case choiceLevelOpponent:
				m.settings.Opponent = opponentChoices[m.cursor]
			case choiceLevelStone:
				m.settings.HumanFirst = m.cursor == 0
			case choiceLevelTraining:
				m.settings.TrainingGames = trainingChoices[m.cursor]
			}

			m.choiceLevel++
			if m.choiceLevel == choiceLevelTraining && m.settings.Opponent != "q" {
				m.choiceLevel++
			}

			if m.choiceLevel > choiceLevelTraining {
				m.clear = true
				return m, tea.Quit
			}

			m.cursor = 0
			return m, nil

		case "down", "j":
			m.cursor++
			if m.cursor >= len(choices) {
				m.cursor = 0
			}

		case "up", "k":
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(choices) - 1
			}
		}
	}

	return m, nil
}

func (m *model) View() string {
	if m.clear {
		return ""
	}

	s := strings.Builder{}
	s.WriteString(m.header)

	switch m.choiceLevel {
	case choiceLevelOpponent:
		s.WriteString("Choose opponent:\n")
	case choiceLevelStone:
		s.WriteString("Choose stone:\n")
	case choiceLevelTraining:
		s.WriteString("Train the opponent first:\n")
	}

	for i, v := range m.choices() {
		if m.cursor == i {
			s.WriteString(listSelectorStyle("(•) "))
		} else {
			s.WriteString(listSelectorStyle("( ) "))
		}

		s.WriteString(v)
		s.WriteString("\n")
	}

	return s.String()
}
