package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cairofuzz/cairofuzz/internal/corpusfile"
	"github.com/cairofuzz/cairofuzz/internal/session"
	"github.com/cairofuzz/cairofuzz/internal/trace"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

// Status is the dashboard's coarse session state.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusStopped
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "Running"
	case StatusStopped:
		return "Stopped"
	case StatusCompleted:
		return "Completed"
	default:
		return "Idle"
	}
}

// CrashLine is one entry in the dashboard's scrolling crash log.
type CrashLine struct {
	Time     time.Time
	WorkerID int
	Kind     trace.ErrorKind
	Message  string
	Input    string
}

// statsMsg, crashMsg and fatalMsg are the bubbletea messages the session
// goroutines push into the dashboard's program loop; Report/CrashFirstSeen/
// Fatal below are the only thread-safe entry points into Dashboard state.
type statsMsg session.StatsSnapshot
type crashMsg CrashLine
type fatalMsg struct {
	WorkerID int
	Err      error
}

// Dashboard is the bubbletea model for a live fuzzing session. It
// satisfies coordinator.StatusReporter, so it can be handed directly to
// coordinator.Options.StatusReport.
type Dashboard struct {
	width  int
	height int

	status     Status
	entrypoint string

	latest    session.StatsSnapshot
	statsView *StatsView
	spinner   *SpinnerProgress

	crashes    []CrashLine
	maxCrashes int

	program   *tea.Program
	tickCount int

	writer *corpusfile.Writer
}

// NewDashboard creates a dashboard for the given entrypoint name.
func NewDashboard(entrypoint string) *Dashboard {
	return &Dashboard{
		width:      80,
		height:     24,
		status:     StatusIdle,
		entrypoint: entrypoint,
		statsView:  NewStatsView(40),
		spinner:    NewSpinnerProgress(),
		maxCrashes: 50,
	}
}

// SetProgram wires the dashboard to the bubbletea program that will drive
// it, so Report/CrashFirstSeen/Fatal can deliver updates across goroutines.
func (d *Dashboard) SetProgram(p *tea.Program) {
	d.program = p
}

// SetWriter wires an optional corpusfile.Writer so promoted inputs and
// first-seen crashes are appended to disk as the session runs, mirroring
// cmd/cairofuzz's cliNotifier. Called once before the dashboard's program
// starts; nil is a valid value and simply disables persistence.
func (d *Dashboard) SetWriter(w *corpusfile.Writer) {
	d.writer = w
}

// Report implements coordinator.StatusReporter. Called once a second from
// the coordinator's monitor goroutine.
func (d *Dashboard) Report(snap session.StatsSnapshot) {
	if d.program != nil {
		d.program.Send(statsMsg(snap))
	}
}

// CrashFirstSeen implements worker.Notifier. Called from whichever worker
// goroutine first observes a given error fingerprint.
func (d *Dashboard) CrashFirstSeen(workerID int, kind trace.ErrorKind, msg string, input slotval.Vector) {
	if d.program != nil {
		d.program.Send(crashMsg{Time: time.Now(), WorkerID: workerID, Kind: kind, Message: msg, Input: input.String()})
	}
	if d.writer != nil {
		_ = d.writer.RecordCrash(input, kind, msg)
	}
}

// CoveragePromoted implements worker.Notifier. The dashboard itself has no
// per-promotion visual (corpus size already tracks through Report's periodic
// snapshot), so this only forwards to the corpus seed file when one is
// configured.
func (d *Dashboard) CoveragePromoted(workerID int, input slotval.Vector) {
	if d.writer != nil {
		_ = d.writer.RecordInput(input)
	}
}

// Fatal implements worker.Notifier.
func (d *Dashboard) Fatal(workerID int, err error) {
	if d.program != nil {
		d.program.Send(fatalMsg{WorkerID: workerID, Err: err})
	}
}

// --- Bubbletea Model interface ---

type tickMsg time.Time

func (d *Dashboard) Init() tea.Cmd {
	d.status = StatusRunning
	return tea.Batch(tickCmd(), tea.EnterAltScreen)
}

func tickCmd() tea.Cmd {
	return tea.Tick(150*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			d.status = StatusStopped
			return d, tea.Quit
		}

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.statsView.SetWidth(d.width/3 + 4)

	case statsMsg:
		d.latest = session.StatsSnapshot(msg)

	case crashMsg:
		d.crashes = append(d.crashes, CrashLine(msg))
		if len(d.crashes) > d.maxCrashes {
			d.crashes = d.crashes[len(d.crashes)-d.maxCrashes:]
		}

	case fatalMsg:
		d.status = StatusStopped

	case tickMsg:
		d.tickCount++
		d.spinner.Tick()
		return d, tickCmd()
	}

	return d, nil
}

func (d *Dashboard) View() string {
	if d.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(d.renderHeader())
	b.WriteString("\n")

	mainContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		d.statsView.Render(d.latest),
		d.renderCrashPanel(),
	)
	b.WriteString(mainContent)
	b.WriteString("\n")
	b.WriteString(d.renderFooter())

	return b.String()
}

func (d *Dashboard) renderHeader() string {
	title := TitleStyle.Render("⚡ cairofuzz")

	var statusText string
	switch d.status {
	case StatusRunning:
		statusText = RunningStyle.Render("● RUNNING " + d.spinner.Render())
	case StatusStopped:
		statusText = StoppedStyle.Render("■ STOPPED")
	case StatusCompleted:
		statusText = SuccessStyle.Render("✓ COMPLETED")
	default:
		statusText = HelpStyle.Render("○ IDLE")
	}

	entry := LabelStyle.Render("Entrypoint: ") + InfoStyle.Render(d.entrypoint)

	leftSide := title + "  " + statusText
	padding := d.width - lipgloss.Width(leftSide) - lipgloss.Width(entry) - 2
	if padding < 0 {
		padding = 0
	}
	header := leftSide + strings.Repeat(" ", padding) + entry
	return BoxStyle.Width(d.width - 2).Render(header)
}

func (d *Dashboard) renderCrashPanel() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("💥 Crash log"))
	b.WriteString("\n\n")

	start := 0
	if len(d.crashes) > 10 {
		start = len(d.crashes) - 10
	}
	for i := start; i < len(d.crashes); i++ {
		c := d.crashes[i]
		style := CrashOtherStyle
		switch c.Kind {
		case trace.Abort:
			style = CrashAbortStyle
		case trace.OutOfGas:
			style = CrashGasStyle
		}
		line := fmt.Sprintf("%s w%-2d %s %s",
			HelpStyle.Render(c.Time.Format("15:04:05")),
			c.WorkerID,
			style.Render(fmt.Sprintf("%-11s", c.Kind)),
			c.Message,
		)
		if len(line) > d.width/2-6 {
			line = line[:d.width/2-9] + "..."
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return LogPanelStyle.Width(d.width/2 - 4).Render(b.String())
}

func (d *Dashboard) renderFooter() string {
	return FooterStyle.Render(RenderHelp("q", "quit"))
}

// Run starts the TUI application and blocks until the user quits; d is
// wired to its own program so Report/CrashFirstSeen/Fatal can be called
// concurrently while this runs.
func Run(d *Dashboard) error {
	p := tea.NewProgram(d, tea.WithAltScreen())
	d.SetProgram(p)
	_, err := p.Run()
	return err
}
