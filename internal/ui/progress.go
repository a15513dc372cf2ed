// Package ui renders the progress of a multi-script build in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/google/angle-sub000/internal/buildpipeline"
)

type rowState uint8

const (
	rowQueued rowState = iota
	rowLoading
	rowBuilding
	rowValidating
	rowBuilt
	rowCached
	rowFailed
)

var rowLabels = [...]string{
	rowQueued:     "queued",
	rowLoading:    "loading",
	rowBuilding:   "building",
	rowValidating: "validating",
	rowBuilt:      "built",
	rowCached:     "cached",
	rowFailed:     "failed",
}

// rowWeights is the share of a script's work done once it reaches the state.
var rowWeights = [...]float64{
	rowQueued:     0,
	rowLoading:    0.1,
	rowBuilding:   0.4,
	rowValidating: 0.9,
	rowBuilt:      1,
	rowCached:     1,
	rowFailed:     1,
}

var (
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	rowStyles    = [...]lipgloss.Style{
		rowQueued:     lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		rowLoading:    workingStyle,
		rowBuilding:   workingStyle,
		rowValidating: workingStyle,
		rowBuilt:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		rowCached:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Faint(true),
		rowFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Faint(true)
)

func (s rowState) String() string { return rowLabels[s] }

func (s rowState) finished() bool { return s >= rowBuilt }

var workingStates = map[buildpipeline.Stage]rowState{
	buildpipeline.StageLoad:     rowLoading,
	buildpipeline.StageBuild:    rowBuilding,
	buildpipeline.StageValidate: rowValidating,
}

// rowStateOf maps a per-script event to the state of its row.
func rowStateOf(ev buildpipeline.Event) (rowState, bool) {
	switch ev.Status {
	case buildpipeline.StatusQueued:
		return rowQueued, true
	case buildpipeline.StatusWorking:
		s, ok := workingStates[ev.Stage]
		return s, ok
	case buildpipeline.StatusDone:
		if ev.Cached {
			return rowCached, true
		}
		return rowBuilt, true
	case buildpipeline.StatusError:
		return rowFailed, true
	}
	return 0, false
}

type scriptRow struct {
	name    string
	state   rowState
	elapsed time.Duration
	err     string
}

type buildModel struct {
	title   string
	events  <-chan buildpipeline.Event
	spinner spinner.Model
	bar     progress.Model
	rows    []scriptRow
	byName  map[string]int
	width   int
	// abort is the pipeline-wide error, such as a canceled build.
	abort string
	done  bool
}

type eventMsg buildpipeline.Event
type doneMsg struct{}

const (
	stateWidth   = 10
	minNameWidth = 20
)

// NewProgressModel returns a Bubble Tea model with one row per script. It quits once events is
// closed.
func NewProgressModel(title string, files []string, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = workingStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	m := &buildModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		rows:    make([]scriptRow, len(files)),
		byName:  make(map[string]int, len(files)),
		width:   80,
	}
	for i, file := range files {
		m.rows[i] = scriptRow{name: file}
		m.byName[file] = i
	}
	return m
}

func (m *buildModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *buildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(buildpipeline.Event(msg)), m.next())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// next waits for the following event.
func (m *buildModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *buildModel) apply(ev buildpipeline.Event) tea.Cmd {
	if ev.File == "" {
		if ev.Status == buildpipeline.StatusError && ev.Err != nil {
			m.abort = ev.Err.Error()
		}
		return nil
	}
	idx, ok := m.byName[ev.File]
	if !ok {
		return nil
	}
	state, ok := rowStateOf(ev)
	if !ok {
		return nil
	}
	row := &m.rows[idx]
	row.state = state
	if state.finished() {
		row.elapsed = ev.Elapsed
		if ev.Err != nil {
			row.err = ev.Err.Error()
		}
	}
	return m.bar.SetPercent(m.percent())
}

func (m *buildModel) percent() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	total := 0.0
	for _, row := range m.rows {
		total += rowWeights[row.state]
	}
	return total / float64(len(m.rows))
}

// summary counts finished, failed and cached scripts, as in "2/3 scripts, 1 failed".
func (m *buildModel) summary() string {
	var finished, failed, cached int
	for _, row := range m.rows {
		switch {
		case row.state == rowFailed:
			failed++
		case row.state == rowCached:
			cached++
		}
		if row.state.finished() {
			finished++
		}
	}
	parts := []string{fmt.Sprintf("%d/%d scripts", finished, len(m.rows))}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	if cached > 0 {
		parts = append(parts, fmt.Sprintf("%d cached", cached))
	}
	return strings.Join(parts, ", ")
}

func (m *buildModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	lead := m.spinner.View()
	if m.done {
		lead = "done:"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s (%s)", lead, m.title, m.summary())))
	b.WriteString("\n\n")

	nameWidth := max(m.width-stateWidth-4, minNameWidth)
	for _, row := range m.rows {
		b.WriteString("  ")
		b.WriteString(rowStyles[row.state].Render(fmt.Sprintf("%*s", stateWidth, row.state)))
		b.WriteString(" ")
		b.WriteString(m.rowText(row, nameWidth))
		b.WriteString("\n")
	}
	if m.abort != "" {
		b.WriteString("\n")
		b.WriteString(errStyle.Render(truncate(m.abort, m.width)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1.0))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// rowText is the script name, followed by the elapsed time or the error once it finished.
func (m *buildModel) rowText(row scriptRow, width int) string {
	text := row.name
	if row.state.finished() && row.elapsed > 0 {
		text = fmt.Sprintf("%s %s", text, row.elapsed.Round(time.Microsecond))
	}
	text = truncate(text, width)
	if row.err == "" {
		return text
	}
	room := width - runewidth.StringWidth(text) - 2
	if room <= 3 {
		return text
	}
	return text + "  " + errStyle.Render(truncate(row.err, room))
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
