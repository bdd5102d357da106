package game

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zarux/tttagents/pkg/arena"
)

var progressStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#138a0fff", Dark: "#1ddd37ff"}).Render

type progressMsg struct {
	played int
	stats  arena.Stats
}

type trainingDoneMsg struct {
	stats arena.Stats
	err   error
}

// trainingModel shows a spinner and running stats while the arena plays
// one phase in the background.
type trainingModel struct {
	ctx     context.Context
	cancel  context.CancelFunc
	arena   *arena.Arena
	phase   arena.Phase
	spinner spinner.Model
	sub     chan progressMsg
	header  string

	progress progressMsg
	err      error
	done     bool
}

func newTrainingModel(ctx context.Context, header string, a *arena.Arena, phase arena.Phase) *trainingModel {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ctx, cancel := context.WithCancel(ctx)
	m := &trainingModel{
		ctx:     ctx,
		cancel:  cancel,
		arena:   a,
		phase:   phase,
		spinner: s,
		sub:     make(chan progressMsg, 1),
		header:  header,
	}

	a.ReportEvery = max(phase.Games/50, 1)
	a.OnReport = func(played int, st arena.Stats) {
		st.Wins = maps.Clone(st.Wins)
		select {
		case m.sub <- progressMsg{played: played, stats: st}:
		default:
		}
	}

	return m
}

func (m *trainingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run(), waitForProgress(m.sub))
}

func (m *trainingModel) run() tea.Cmd {
	return func() tea.Msg {
		all, err := m.arena.RunSchedule(m.ctx, []arena.Phase{m.phase})
		close(m.sub)

		var st arena.Stats
		if len(all) > 0 {
			st = all[0]
		}

		return trainingDoneMsg{stats: st, err: err}
	}
}

func waitForProgress(sub chan progressMsg) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-sub
		if !ok {
			return nil
		}
		return p
	}
}

func (m *trainingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.progress = msg
		return m, waitForProgress(m.sub)

	case trainingDoneMsg:
		m.cancel()
		m.done = true
		m.err = msg.err
		m.progress = progressMsg{played: msg.stats.Games, stats: msg.stats}
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.err = context.Canceled
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *trainingModel) View() string {
	if m.done {
		return ""
	}

	s := strings.Builder{}
	s.WriteString(m.header)
	s.WriteString("Training the opponent " + m.spinner.View() + "\n\n")
	s.WriteString(fmt.Sprintf(
		"%s / %s games\n",
		progressStyle(strconv.Itoa(m.progress.played)),
		strconv.Itoa(m.phase.Games),
	))

	if m.progress.stats.Games > 0 {
		s.WriteString(m.progress.stats.String() + "\n")
	}

	return s.String()
}
