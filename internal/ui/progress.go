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

	"erlfix/internal/driver"
)

// fileState is where one file is in the analysis.
type fileState uint8

const (
	statePending fileState = iota
	stateWorking
	stateChecked
	stateFailed
)

var (
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	styleBusy    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleChecked = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
)

// stageWeight is the share of a file's work finished once a stage starts.
var stageWeight = map[driver.Stage]float64{
	driver.StageParse:   0.1,
	driver.StageAnalyze: 0.4,
	driver.StageOracle:  0.7,
}

type fileRow struct {
	path    string
	state   fileState
	stage   driver.Stage
	elapsed time.Duration
	err     string
}

type analysisView struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	bar     progress.Model
	rows    []fileRow
	byPath  map[string]int
	phase   string
	width   int
	done    bool
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that lists the files being
// checked and a bar for the whole run. It quits when events is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleBusy

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	v := &analysisView{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     bar,
		rows:    make([]fileRow, len(files)),
		byPath:  make(map[string]int, len(files)),
		width:   80,
	}
	for i, file := range files {
		v.rows[i] = fileRow{path: file}
		v.byPath[file] = i
	}
	return v
}

func (v *analysisView) Init() tea.Cmd {
	return tea.Batch(v.spinner.Tick, v.next())
}

func (v *analysisView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return v, tea.Batch(v.apply(driver.Event(msg)), v.next())
	case doneMsg:
		v.done = true
		return v, tea.Quit
	case spinner.TickMsg:
		if v.done {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			v.width = msg.Width
			v.bar.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		bar, cmd := v.bar.Update(msg)
		v.bar = bar.(progress.Model)
		return v, cmd
	}
	return v, nil
}

func (v *analysisView) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-v.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

// apply folds ev into the rows. Events without a file name the run phase.
func (v *analysisView) apply(ev driver.Event) tea.Cmd {
	if ev.File == "" {
		if ev.Status == driver.StatusWorking {
			v.phase = stageVerb(ev.Stage)
		}
		return nil
	}
	i, ok := v.byPath[ev.File]
	if !ok {
		return nil
	}
	row := &v.rows[i]
	switch ev.Status {
	case driver.StatusQueued:
		row.state = statePending
	case driver.StatusWorking:
		row.state, row.stage = stateWorking, ev.Stage
	case driver.StatusDone:
		row.state, row.elapsed = stateChecked, ev.Elapsed
	case driver.StatusError:
		row.state, row.elapsed = stateFailed, ev.Elapsed
		if ev.Err != nil {
			row.err = ev.Err.Error()
		}
	}
	return v.bar.SetPercent(v.percent())
}

func (v *analysisView) percent() float64 {
	if len(v.rows) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range v.rows {
		switch r.state {
		case stateChecked, stateFailed:
			total++
		case stateWorking:
			total += stageWeight[r.stage]
		}
	}
	return total / float64(len(v.rows))
}

func (v *analysisView) counts() (checked, failed, pending int) {
	for _, r := range v.rows {
		switch r.state {
		case stateChecked:
			checked++
		case stateFailed:
			failed++
		default:
			pending++
		}
	}
	return checked, failed, pending
}

func (v *analysisView) View() string {
	if len(v.rows) == 0 {
		return ""
	}
	header := v.title
	if v.phase != "" && !v.done {
		header += " (" + v.phase + ")"
	}
	if v.done {
		header = "done: " + header
	} else {
		header = v.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(header))
	b.WriteString("\n\n")

	nameWidth := max(v.width-24, 20)
	for _, r := range v.rows {
		fmt.Fprintf(&b, "  %s %s", r.badge(), truncate(r.path, nameWidth))
		if r.elapsed > 0 {
			b.WriteString(styleDim.Render(" " + r.elapsed.Round(time.Millisecond).String()))
		}
		b.WriteString("\n")
		if r.err != "" {
			b.WriteString(strings.Repeat(" ", 15))
			b.WriteString(styleFailed.Render(truncate(r.err, nameWidth)))
			b.WriteString("\n")
		}
	}

	checked, failed, pending := v.counts()
	fmt.Fprintf(&b, "\n%s\n", styleDim.Render(fmt.Sprintf("%d checked, %d failed, %d pending", checked, failed, pending)))
	if v.done {
		b.WriteString(v.bar.ViewAs(1.0))
	} else {
		b.WriteString(v.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// badge is the fixed width status column of a row.
func (r fileRow) badge() string {
	var label string
	style := styleDim
	switch r.state {
	case statePending:
		label = "queued"
	case stateWorking:
		label, style = stageVerb(r.stage), styleBusy
	case stateChecked:
		label, style = "checked", styleChecked
	case stateFailed:
		label, style = "failed", styleFailed
	}
	return style.Render(fmt.Sprintf("%12s", label))
}

func stageVerb(stage driver.Stage) string {
	switch stage {
	case driver.StageParse:
		return "parsing"
	case driver.StageAnalyze:
		return "analyzing"
	case driver.StageOracle:
		return "typing"
	}
	return "working"
}

// truncate shortens value to width display cells, marking the cut with "...".
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
