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

	"llvmexec/internal/pipeline"
)

const statusWidth = 12

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	queuedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

// fileState is where one input file is in the pipeline.
type fileState uint8

const (
	fileQueued fileState = iota
	fileWorking
	fileDone
	fileFailed
)

type fileItem struct {
	path    string
	state   fileState
	stage   pipeline.Stage
	elapsed time.Duration
	err     string
}

// label is the text of the status column.
func (it *fileItem) label() string {
	switch it.state {
	case fileDone:
		return "done"
	case fileFailed:
		return "error"
	case fileWorking:
		return stageLabel(it.stage)
	default:
		return "queued"
	}
}

// weight is how much of the file's work is behind it, from 0 to 1.
func (it *fileItem) weight() float64 {
	switch it.state {
	case fileDone, fileFailed:
		return 1
	case fileWorking:
		switch it.stage {
		case pipeline.StageParse:
			return 0.2
		case pipeline.StageTranslate:
			return 0.5
		case pipeline.StageEmit:
			return 0.9
		}
	}
	return 0
}

type progressModel struct {
	title   string
	events  <-chan pipeline.Event
	spinner spinner.Model
	bar     progress.Model
	items   []fileItem
	index   map[string]int
	outcome pipeline.Status
	width   int
	done    bool
}

type eventMsg pipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model with one line per input file.
// It quits when events is closed.
func NewProgressModel(title string, files []string, events <-chan pipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = workingStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		items:   make([]fileItem, len(files)),
		index:   make(map[string]int, len(files)),
		width:   80,
	}
	for i, file := range files {
		m.items[i] = fileItem{path: file}
		m.index[file] = i
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(pipeline.Event(msg)), m.next())
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
		return m, nil
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// next waits for the following pipeline event.
func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

// counts returns the finished and failed files.
func (m *progressModel) counts() (finished, failed int) {
	for i := range m.items {
		switch m.items[i].state {
		case fileDone:
			finished++
		case fileFailed:
			finished++
			failed++
		}
	}
	return finished, failed
}

func (m *progressModel) header() string {
	finished, failed := m.counts()
	h := fmt.Sprintf("%s %d/%d", m.title, finished, len(m.items))
	if failed > 0 {
		h += fmt.Sprintf(", %d failed", failed)
	}
	switch {
	case m.outcome == pipeline.StatusError:
		return "failed: " + h
	case m.done || m.outcome == pipeline.StatusDone:
		return "done: " + h
	default:
		return m.spinner.View() + " " + h
	}
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.header()))
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusWidth-14, 20)
	for i := range m.items {
		it := &m.items[i]
		label := it.label()
		fmt.Fprintf(&b, "  %s %s", styleStatus(label).Render(fmt.Sprintf("%*s", statusWidth, label)), truncate(it.path, nameWidth))
		if it.elapsed > 0 {
			b.WriteString(dimStyle.Render(" " + it.elapsed.Round(time.Millisecond).String()))
		}
		b.WriteString("\n")
		if it.err != "" {
			b.WriteString(errStyle.Render("      " + truncate(it.err, nameWidth+statusWidth-4)))
			b.WriteString("\n")
		}
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

// applyEvent folds ev into the file list. An event without a file is the
// outcome of the whole run.
func (m *progressModel) applyEvent(ev pipeline.Event) tea.Cmd {
	if ev.File == "" {
		if ev.Status == pipeline.StatusDone || ev.Status == pipeline.StatusError {
			m.outcome = ev.Status
		}
		return nil
	}
	idx, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	it := &m.items[idx]
	switch ev.Status {
	case pipeline.StatusQueued:
		it.state = fileQueued
	case pipeline.StatusWorking:
		it.state, it.stage = fileWorking, ev.Stage
	case pipeline.StatusDone:
		it.state, it.elapsed = fileDone, ev.Elapsed
	case pipeline.StatusError:
		it.state, it.stage, it.elapsed = fileFailed, ev.Stage, ev.Elapsed
		if ev.Err != nil {
			it.err = ev.Err.Error()
		}
	}

	total := 0.0
	for i := range m.items {
		total += m.items[i].weight()
	}
	return m.bar.SetPercent(total / float64(len(m.items)))
}

func stageLabel(stage pipeline.Stage) string {
	switch stage {
	case pipeline.StageParse:
		return "parsing"
	case pipeline.StageTranslate:
		return "translating"
	case pipeline.StageEmit:
		return "emitting"
	default:
		return ""
	}
}

func styleStatus(label string) lipgloss.Style {
	switch label {
	case "done":
		return okStyle
	case "error":
		return errStyle
	case "queued", "":
		return queuedStyle
	default:
		return workingStyle
	}
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
