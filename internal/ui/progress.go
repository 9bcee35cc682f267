// Package ui renders interactive terminal progress for indexing runs.
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

	"strata/internal/driver"
)

// maxRows caps the file list; older finished rows scroll off first.
const maxRows = 16

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	rowStyles   = map[string]lipgloss.Style{
		"done":     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"cached":   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"error":    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		"loading":  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		"cache":    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		"indexing": lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
	// доля завершённости файла на каждой стадии
	stageWeight = map[driver.Stage]float64{
		driver.StageLoad:  0.1,
		driver.StageCache: 0.3,
		driver.StageIndex: 0.6,
	}
	stageNames = map[driver.Stage]string{
		driver.StageLoad:  "loading",
		driver.StageCache: "cache",
		driver.StageIndex: "indexing",
	}
)

type fileRow struct {
	path     string
	label    string
	stage    driver.Stage
	elapsed  time.Duration
	err      error
	finished bool
}

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spin    spinner.Model
	bar     progress.Model
	rows    []*fileRow
	byPath  map[string]*fileRow
	phase   string
	width   int
	done    bool
	started time.Time
}

type (
	eventMsg  driver.Event
	closedMsg struct{}
)

// NewProgressModel returns a Bubble Tea model that renders indexing progress.
// files may be empty; unknown files are appended as their first event arrives.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	spin := spinner.New(spinner.WithSpinner(spinner.Dot))
	spin.Style = rowStyles["indexing"]

	m := &progressModel{
		title:   title,
		events:  events,
		spin:    spin,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(76)),
		byPath:  make(map[string]*fileRow, len(files)),
		width:   80,
		started: time.Now(),
	}
	for _, path := range files {
		m.row(path)
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(driver.Event(msg)), m.next())
	case closedMsg:
		m.done = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(msg.Width-4, 10)
		}
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
	case progress.FrameMsg:
		updated, cmd := m.bar.Update(msg)
		m.bar = updated.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(m.header()))
	b.WriteString("\n\n")

	nameWidth := max(m.width-26, 20)
	visible := m.visibleRows()
	if hidden := len(m.rows) - len(visible); hidden > 0 {
		fmt.Fprintf(&b, "  %s\n", dimStyle.Render(fmt.Sprintf("... %d finished files above", hidden)))
	}
	for _, r := range visible {
		style, ok := rowStyles[r.label]
		if !ok {
			style = dimStyle
		}
		fmt.Fprintf(&b, "  %s %s", style.Render(fmt.Sprintf("%10s", r.label)), truncate(r.path, nameWidth))
		if r.finished && r.elapsed > 0 {
			fmt.Fprintf(&b, " %s", dimStyle.Render(r.elapsed.Round(time.Millisecond).String()))
		}
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteByte('\n')
	if failed := m.failures(); len(failed) > 0 {
		b.WriteByte('\n')
		for _, r := range failed {
			fmt.Fprintf(&b, "%s %s: %v\n", rowStyles["error"].Render("error"), r.path, r.err)
		}
	}
	return b.String()
}

func (m *progressModel) header() string {
	finished := m.finishedCount()
	h := fmt.Sprintf("%s [%d/%d]", m.title, finished, len(m.rows))
	if m.phase != "" {
		h += " (" + m.phase + ")"
	}
	if m.done {
		return fmt.Sprintf("done: %s in %s", h, time.Since(m.started).Round(time.Millisecond))
	}
	return m.spin.View() + " " + h
}

// visibleRows keeps every unfinished row and fills the rest of maxRows with
// the most recent finished ones.
func (m *progressModel) visibleRows() []*fileRow {
	if len(m.rows) <= maxRows {
		return m.rows
	}
	keep := make(map[*fileRow]bool, maxRows)
	budget := maxRows
	for _, r := range m.rows {
		if !r.finished && budget > 0 {
			keep[r] = true
			budget--
		}
	}
	for i := len(m.rows) - 1; i >= 0 && budget > 0; i-- {
		if r := m.rows[i]; !keep[r] {
			keep[r] = true
			budget--
		}
	}
	out := make([]*fileRow, 0, maxRows)
	for _, r := range m.rows {
		if keep[r] {
			out = append(out, r)
		}
	}
	return out
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) row(path string) *fileRow {
	if r, ok := m.byPath[path]; ok {
		return r
	}
	r := &fileRow{path: path, label: "queued"}
	m.rows = append(m.rows, r)
	m.byPath[path] = r
	return r
}

func (m *progressModel) apply(ev driver.Event) tea.Cmd {
	label := labelFor(ev)
	if ev.File == "" {
		// событие уровня всего прогона
		if label != "" {
			m.phase = label
		}
		return nil
	}
	r := m.row(ev.File)
	if label != "" {
		r.label = label
		r.stage = ev.Stage
		r.finished = ev.Finished()
		r.elapsed = ev.Elapsed
		r.err = ev.Err
	}
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) finishedCount() int {
	n := 0
	for _, r := range m.rows {
		if r.finished {
			n++
		}
	}
	return n
}

func (m *progressModel) failures() []*fileRow {
	var out []*fileRow
	for _, r := range m.rows {
		if r.label == "error" && r.err != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m *progressModel) percent() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range m.rows {
		if r.finished {
			sum++
			continue
		}
		sum += stageWeight[r.stage]
	}
	return sum / float64(len(m.rows))
}

func labelFor(ev driver.Event) string {
	switch ev.Status {
	case driver.StatusWorking:
		return stageNames[ev.Stage]
	case driver.StatusQueued, driver.StatusCached, driver.StatusDone, driver.StatusError:
		return string(ev.Status)
	}
	return ""
}

func truncate(value string, width int) string {
	switch {
	case width <= 0 || runewidth.StringWidth(value) <= width:
		return value
	case width <= 3:
		return runewidth.Truncate(value, width, "")
	default:
		return runewidth.Truncate(value, width-3, "...")
	}
}
