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

	"monogen/internal/driver"
)

// stageInfo is how a stage shows up in the file list.
type stageInfo struct {
	label  string
	weight float64 // share of the file's work finished once the stage starts
}

var stages = map[driver.Stage]stageInfo{
	driver.StageParse:       {"parsing", 0.2},
	driver.StageDefine:      {"defining", 0.3},
	driver.StageInstantiate: {"instantiating", 0.6},
	driver.StageCalls:       {"checking", 0.9},
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

const statusWidth = 13

type progressModel struct {
	title      string
	events     <-chan driver.Event
	spinner    spinner.Model
	bar        progress.Model
	files      []fileRow
	byPath     map[string]int
	stageLabel string
	width      int
	done       bool
}

type fileRow struct {
	path    string
	status  string
	stage   driver.Stage
	failed  bool
	elapsed time.Duration
}

func (f *fileRow) finished() bool {
	return f.failed || f.status == string(driver.StatusDone)
}

type eventMsg driver.Event
type closedMsg struct{}

// NewProgressModel renders per-file progress of a run. The program quits
// once events is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(workingStyle))
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(76))

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		files:   make([]fileRow, len(files)),
		byPath:  make(map[string]int, len(files)),
		width:   80,
	}
	for i, path := range files {
		m.files[i] = fileRow{path: path, status: string(driver.StatusQueued)}
		m.byPath[path] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.wait())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(driver.Event(msg)), m.wait())
	case closedMsg:
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
		next, cmd := m.bar.Update(msg)
		m.bar = next.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.files) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.header()))
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusWidth-14, 20)
	finished := 0
	for i := range m.files {
		row := &m.files[i]
		if row.finished() {
			finished++
		}
		status := statusStyle(row.status).Render(fmt.Sprintf("%*s", statusWidth, row.status))
		fmt.Fprintf(&b, "  %s %s", status, Truncate(row.path, nameWidth))
		if row.elapsed > 0 {
			b.WriteString(faintStyle.Render(" " + row.elapsed.Round(time.Millisecond).String()))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	fmt.Fprintf(&b, "\n%s\n", faintStyle.Render(fmt.Sprintf("%d/%d files", finished, len(m.files))))
	return b.String()
}

func (m *progressModel) header() string {
	if m.done {
		return "done: " + m.title
	}
	h := m.spinner.View() + " " + m.title
	if m.stageLabel != "" {
		h += " (" + m.stageLabel + ")"
	}
	return h
}

func (m *progressModel) wait() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

// applyEvent folds ev into the file list. Run-wide events only move the
// header label; an error sticks to its file for the rest of the run.
func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	label := statusLabel(ev.Stage, ev.Status)
	if ev.File == "" {
		if label != "" {
			m.stageLabel = label
		}
		return nil
	}
	i, ok := m.byPath[ev.File]
	if !ok {
		return nil
	}
	row := &m.files[i]
	row.elapsed += ev.Elapsed
	row.failed = row.failed || ev.Status == driver.StatusError
	if row.failed {
		label = string(driver.StatusError)
	}
	if label != "" {
		row.status = label
		row.stage = ev.Stage
	}
	return m.bar.SetPercent(m.completion())
}

func (m *progressModel) completion() float64 {
	var sum float64
	for i := range m.files {
		if m.files[i].finished() {
			sum++
			continue
		}
		sum += stages[m.files[i].stage].weight
	}
	return sum / float64(len(m.files))
}

func statusLabel(stage driver.Stage, status driver.Status) string {
	switch status {
	case driver.StatusQueued, driver.StatusDone, driver.StatusError:
		return string(status)
	case driver.StatusWorking:
		if info, ok := stages[stage]; ok {
			return info.label
		}
		return string(stage)
	}
	return ""
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case string(driver.StatusDone):
		return doneStyle
	case string(driver.StatusError):
		return errorStyle
	case string(driver.StatusQueued):
		return idleStyle
	}
	for _, info := range stages {
		if info.label == status {
			return workingStyle
		}
	}
	return idleStyle
}

// Truncate shortens value to width terminal cells, marking the cut with
// "..." when there is room for it.
func Truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	tail := "..."
	if width <= len(tail) {
		tail = ""
	}
	return runewidth.Truncate(value, width, tail)
}
