package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bep/debounce"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-keytrack/events"
	"go-keytrack/music"
	"go-keytrack/theme"
)

const (
	meterWidth = 20
	barWidth   = 24
)

// ResetDelay collapses key repeat on the reset key into one reset
var ResetDelay = 150 * time.Millisecond

// Resetter clears tracking state; implemented by engine.Engine
type Resetter interface {
	Reset()
}

type Model struct {
	Channels *events.Channels
	Engine   Resetter
	Theme    *theme.Theme
	Source   string

	snap     events.Snapshot
	poll     time.Duration
	debounce func(f func())
	session  bool
	quitting bool
}

type tickMsg time.Time

func NewModel(ch *events.Channels, eng Resetter, th *theme.Theme, source string, poll time.Duration) Model {
	if th == nil {
		th = theme.New(nil)
	}
	if poll <= 0 {
		poll = 10 * time.Millisecond
	}
	return Model{
		Channels: ch,
		Engine:   eng,
		Theme:    th,
		Source:   source,
		snap:     events.EmptySnapshot(),
		poll:     poll,
		debounce: debounce.New(ResetDelay),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.poll, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "r":
			m.debounce(m.Engine.Reset)

		case "h":
			m.session = !m.session
		}

	case tickMsg:
		m.drain()
		return m, m.tick()
	}

	return m, nil
}

// drain applies one polling cycle: the latest item of each queue, if any.
// The engine's reset marker clears the view.
func (m *Model) drain() {
	m.Channels.Drain(&m.snap)
}

// Snapshot returns what the view currently shows
func (m Model) Snapshot() events.Snapshot {
	return m.snap
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(m.Theme.Success())
	labelStyle := lipgloss.NewStyle().Foreground(m.Theme.FG()).Width(12)

	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("keytrack  %s", m.Source)))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("key"))
	b.WriteString(keyStyle.Render(m.snap.Key))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("certainty"))
	b.WriteString(m.meter(m.snap.Certainty))
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("degree"))
	b.WriteString(m.snap.Degree)
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("also"))
	b.WriteString(dimStyle.Render(m.snap.Alternates))
	b.WriteString("\n\n")

	b.WriteString(m.score(labelStyle, dimStyle))
	b.WriteString("\n")

	if m.session {
		b.WriteString(headerStyle.Render("session"))
		b.WriteString("\n")
		b.WriteString(m.histogram(m.snap.SessionHistogram))
	} else {
		b.WriteString(headerStyle.Render("window"))
		b.WriteString("\n")
		b.WriteString(m.histogram(m.snap.Histogram))
	}
	b.WriteString("\n")

	help := "r:reset  h:histogram  q:quit"
	if m.snap.Generation > 0 {
		help = fmt.Sprintf("%s  (reset x%d)", help, m.snap.Generation)
	}
	b.WriteString(dimStyle.Render(help))
	b.WriteString("\n")

	return b.String()
}

func (m Model) meter(c float64) string {
	if m.snap.Key == events.Unknown {
		return lipgloss.NewStyle().Foreground(m.Theme.Muted()).
			Render(strings.Repeat(string(m.Theme.Symbols.MeterEmpty), meterWidth))
	}
	full := int(c*meterWidth + 0.5)
	if full > meterWidth {
		full = meterWidth
	}
	filled := lipgloss.NewStyle().Foreground(m.Theme.Certainty(c)).
		Render(strings.Repeat(string(m.Theme.Symbols.MeterFull), full))
	empty := lipgloss.NewStyle().Foreground(m.Theme.Muted()).
		Render(strings.Repeat(string(m.Theme.Symbols.MeterEmpty), meterWidth-full))
	return fmt.Sprintf("%s%s %3.0f%%", filled, empty, c*100)
}

// score lists the recent sonorities, newest last, with their degrees
func (m Model) score(label, dim lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(label.Render("score"))
	if len(m.snap.Score) == 0 {
		b.WriteString(dim.Render(events.Unknown))
		b.WriteString("\n")
		return b.String()
	}
	for i, e := range m.snap.Score {
		if i > 0 {
			b.WriteString(label.Render(""))
		}
		degree := e.Degree
		if degree == "" {
			degree = events.Unknown
		}
		b.WriteString(fmt.Sprintf("%-24s ", e.Notes))
		b.WriteString(dim.Render(degree))
		b.WriteString("\n")
	}
	return b.String()
}

// histogram renders one row per pitch class, scaled to the largest count
func (m Model) histogram(counts [12]float64) string {
	peak := 0.0
	for _, v := range counts {
		if v > peak {
			peak = v
		}
	}

	var b strings.Builder
	for pc, v := range counts {
		name := music.PitchClass(pc).String()
		b.WriteString(fmt.Sprintf("%-3s", name))
		if peak == 0 {
			b.WriteString(string(m.Theme.Symbols.Unknown))
			b.WriteString("\n")
			continue
		}
		halves := int(v / peak * barWidth * 2)
		bar := strings.Repeat(string(m.Theme.Symbols.BarFull), halves/2)
		if halves%2 == 1 {
			bar += string(m.Theme.Symbols.BarHalf)
		}
		style := lipgloss.NewStyle().Foreground(m.Theme.Color(v / peak))
		b.WriteString(style.Render(bar))
		if v > 0 {
			b.WriteString(fmt.Sprintf(" %.0f", v))
		}
		b.WriteString("\n")
	}
	return b.String()
}
