package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/twotemp/internal/dynamo"
	"github.com/san-kum/twotemp/internal/experiment"
)

const (
	historyCapacity = 600
	frameRate       = 30
	maxStepsPerTick = 1000
)

// Snapshot stores state at a specific time for replay.
type Snapshot struct {
	State    dynamo.State
	Time     float64
	Pressure float64
}

type TickMsg time.Time

// Model steps one heat-bath case and renders its temperatures.
type Model struct {
	setup        *experiment.Setup
	kase         dynamo.Case
	state        dynamo.State
	t, dt        float64
	steps        int
	maxSteps     int
	stepsPerTick int
	running      bool
	done         bool
	err          error
	total0       float64
	history      []Snapshot
	playHead     int
	showHelp     bool
}

// NewModel prepares a live view of setup, advancing stepsPerTick flow steps
// per frame.
func NewModel(setup *experiment.Setup, stepsPerTick int) Model {
	if stepsPerTick < 1 {
		stepsPerTick = 1
	}
	m := Model{
		setup:        setup,
		kase:         setup.Case,
		dt:           setup.Run.Dt,
		maxSteps:     setup.Run.Steps,
		stepsPerTick: min(stepsPerTick, maxStepsPerTick),
		history:      make([]Snapshot, 0, historyCapacity),
	}
	m.reset()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if !m.done {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "+", "=":
			m.stepsPerTick = min(m.stepsPerTick*2, maxStepsPerTick)
		case "-", "_":
			m.stepsPerTick = max(m.stepsPerTick/2, 1)
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				for i := 0; i < m.stepsPerTick && m.running; i++ {
					m.step()
				}
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

// step advances one flow step and stops the run when it ends or fails.
func (m *Model) step() {
	if m.steps >= m.maxSteps {
		m.done, m.running = true, false
		return
	}

	if err := m.setup.Integrator.Advance(m.setup.Mixture, &m.kase, &m.state, m.dt); err != nil {
		m.err, m.running = err, false
		return
	}
	if !m.state.IsValid() {
		m.err, m.running = dynamo.ErrInvalidState, false
		return
	}

	m.t += m.dt
	m.steps++
	m.record()

	if m.steps >= m.maxSteps {
		m.done, m.running = true, false
	}
}

func (m *Model) record() {
	snap := Snapshot{
		State:    m.state,
		Time:     m.t,
		Pressure: m.setup.Mixture.Pressure(m.kase.Rho, m.kase.Y, m.state.Ttr),
	}
	m.history = append(m.history, snap)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

// scrub changes the playback position in history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset restores the initial state.
func (m *Model) reset() {
	m.state = m.kase.Init
	m.t = 0
	m.steps = 0
	m.total0 = m.state.Total()
	m.running = true
	m.done = false
	m.err = nil
	m.playHead = -1
	m.history = m.history[:0]
	m.record()
}

// current returns the snapshot on screen: the replay position or the
// latest state.
func (m Model) current() Snapshot {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	return m.history[len(m.history)-1]
}

func (m Model) status() (string, lipgloss.Color) {
	switch {
	case m.err != nil:
		return "FAILED: " + m.err.Error(), CurrentTheme.Error
	case m.playHead != -1:
		return fmt.Sprintf("REPLAY (%.3g s)", m.history[m.playHead].Time-m.t), CurrentTheme.Accent
	case m.done:
		return "DONE", CurrentTheme.Success
	case !m.running:
		return "PAUSED", CurrentTheme.Warning
	}
	return "RUNNING", CurrentTheme.Success
}

// View renders the TUI interface.
func (m Model) View() string {
	snap := m.current()
	var s strings.Builder

	title := strings.ToUpper(m.kase.Name) + "  " + m.setup.Integrator.Name()
	s.WriteString(GradientText(title, CurrentTheme.Primary, CurrentTheme.Secondary) + "\n")
	status, color := m.status()
	s.WriteString(statusStyle(color).Render(status) + "\n\n")

	if len(m.history) > 1 {
		ttr := make([]float64, len(m.history))
		tv := make([]float64, len(m.history))
		for i, h := range m.history {
			ttr[i], tv[i] = h.State.Ttr, h.State.Tv
		}
		chart := asciigraph.PlotMany([][]float64{ttr, tv},
			asciigraph.Height(12),
			asciigraph.Width(60),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
			asciigraph.Caption("Ttr (red) / Tv (blue) [K]"),
		)
		s.WriteString(chart + "\n\n")
	}

	x := snap.State
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("time", fmt.Sprintf("%.4g s", snap.Time))
	row("step", fmt.Sprintf("%d / %d  (x%d)", m.steps, m.maxSteps, m.stepsPerTick))
	row("Ttr", fmt.Sprintf("%.2f K", x.Ttr))
	row("Tv", fmt.Sprintf("%.2f K", x.Tv))
	row("|Ttr-Tv|", fmt.Sprintf("%.3g K", x.Gap()))
	row("Et", fmt.Sprintf("%.6g J/m3", x.Et))
	row("Ev", fmt.Sprintf("%.6g J/m3", x.Ev))
	row("p", fmt.Sprintf("%.6g Pa", snap.Pressure))
	if m.total0 != 0 {
		row("drift", fmt.Sprintf("%.2e", math.Abs(x.Total()-m.total0)/math.Abs(m.total0)))
	}

	s.WriteString("\n" + ProgressBar(float64(m.steps)/float64(max(m.maxSteps, 1)), 40) + "\n")
	gaps := make([]float64, len(m.history))
	for i, h := range m.history {
		gaps[i] = h.State.Gap()
	}
	s.WriteString(labelStyle.Render("gap") + SparklineChart(gaps, 40) + "\n")
	s.WriteString(Separator(44) + "\n")
	s.WriteString(keyHintStyle.Render("SP:Pause R:Reset Q:Quit +/-:Speed [ ]:Replay T:Theme ?:Help"))

	view := panelStyle.Render(s.String())
	if m.showHelp {
		return helpText + "\n" + view
	}
	return view
}

const helpText = `
╔═══════════════════════════════════╗
║         KEYBOARD SHORTCUTS        ║
╠═══════════════════════════════════╣
║  Space  - Pause/Resume            ║
║  R      - Reset to initial state  ║
║  +/-    - Faster/slower           ║
║  [ / ]  - Rewind/forward          ║
║  T      - Cycle themes            ║
║  ?      - Toggle this help        ║
║  Q      - Quit                    ║
╚═══════════════════════════════════╝`
