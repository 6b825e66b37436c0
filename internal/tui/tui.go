package tui

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/psidex/malsim/internal/session"
	"github.com/psidex/malsim/internal/sim"
)

const (
	canvasCols = 70
	canvasRows = 25
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#2563EB")).
			MarginLeft(2).
			MarginTop(1)

	canvasStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6B7280")).
			Padding(0, 2).
			MarginLeft(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22C55E")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginLeft(2)
)

type keyMap struct {
	Play     key.Binding
	Step     key.Binding
	Reset    key.Binding
	Strain   key.Binding
	ProbUp   key.Binding
	ProbDown key.Binding
	SizeUp   key.Binding
	SizeDown key.Binding
	Export   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Play: key.NewBinding(
		key.WithKeys(" ", "p"),
		key.WithHelp("space", "start/pause"),
	),
	Step: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "step"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset"),
	),
	Strain: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "strain"),
	),
	ProbUp: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+/-", "probability"),
	),
	ProbDown: key.NewBinding(
		key.WithKeys("-"),
	),
	SizeUp: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("[/]", "network size"),
	),
	SizeDown: key.NewBinding(
		key.WithKeys("["),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export csv"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Step, k.Reset, k.Export, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Step, k.Reset},
		{k.Strain, k.ProbUp, k.SizeUp},
		{k.Export, k.Help, k.Quit},
	}
}

// Model is a bubbletea model that drives a session tick by tick. The session itself
// stays idle; the model's own timer replaces its driver so every frame is drawn.
type Model struct {
	sess      *session.Session
	outputDir string
	dark      bool
	playing   bool
	// generation invalidates tick messages scheduled before a pause.
	generation int
	snap       session.Snapshot
	progress   progress.Model
	help       help.Model
	keys       keyMap
	message    string
	messageErr bool
}

type tickMsg struct {
	generation int
}

func New(sess *session.Session, outputDir string, dark bool) Model {
	return Model{
		sess:      sess,
		outputDir: outputDir,
		dark:      dark,
		snap:      sess.Snapshot(),
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		help:      help.New(),
		keys:      keys,
	}
}

// Run starts the program and blocks until the user quits.
func Run(sess *session.Session, outputDir string, dark bool) error {
	_, err := tea.NewProgram(New(sess, outputDir, dark), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) tickCmd() tea.Cmd {
	generation := m.generation
	return tea.Tick(m.snap.Config.TickInterval.Duration, func(time.Time) tea.Msg {
		return tickMsg{generation: generation}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if !m.playing || msg.generation != m.generation {
			return m, nil
		}
		m.step()
		if m.finished() {
			m.playing = false
			m.setMessage(fmt.Sprintf("Every node infected after %d steps", m.snap.Step), false)
			return m, nil
		}
		return m, m.tickCmd()

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Play):
		if m.playing {
			m.pause()
			return m, nil
		}
		if m.finished() {
			m.setMessage(session.ErrFinished.Error(), true)
			return m, nil
		}
		m.playing = true
		m.generation++
		return m, m.tickCmd()

	case key.Matches(msg, m.keys.Step):
		m.pause()
		if m.finished() {
			m.setMessage(session.ErrFinished.Error(), true)
			return m, nil
		}
		m.step()

	case key.Matches(msg, m.keys.Reset):
		m.pause()
		m.sess.Reset()
		m.snap = m.sess.Snapshot()
		m.setMessage("Network regenerated", false)

	case key.Matches(msg, m.keys.Strain):
		cfg := m.snap.Config
		cfg.Strain = nextStrain(cfg.Strain)
		m.configure(cfg)

	case key.Matches(msg, m.keys.ProbUp), key.Matches(msg, m.keys.ProbDown):
		cfg := m.snap.Config
		delta := 0.1
		if key.Matches(msg, m.keys.ProbDown) {
			delta = -0.1
		}
		cfg.Probability = math.Round((cfg.Probability+delta)*10) / 10
		m.configure(cfg)

	case key.Matches(msg, m.keys.SizeUp), key.Matches(msg, m.keys.SizeDown):
		cfg := m.snap.Config
		if key.Matches(msg, m.keys.SizeDown) {
			cfg.NetworkSize -= 5
		} else {
			cfg.NetworkSize += 5
		}
		m.configure(cfg)

	case key.Matches(msg, m.keys.Export):
		path, err := m.export()
		if err != nil {
			m.setMessage(err.Error(), true)
		} else {
			m.setMessage("Wrote "+path, false)
		}

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

func (m *Model) step() {
	if _, err := m.sess.Tick(); err != nil {
		m.setMessage(err.Error(), true)
	}
	m.snap = m.sess.Snapshot()
}

func (m *Model) pause() {
	m.playing = false
	m.generation++
}

func (m *Model) finished() bool {
	return m.snap.Infected() == len(m.snap.Graph.Nodes)
}

// configure validates cfg before handing it to the session so out of range key
// presses are reported instead of applied.
func (m *Model) configure(cfg session.Config) {
	m.pause()
	if err := cfg.Validate(); err != nil {
		m.setMessage(err.Error(), true)
		return
	}
	if err := m.sess.Configure(cfg); err != nil {
		m.setMessage(err.Error(), true)
		return
	}
	m.snap = m.sess.Snapshot()
	m.message = ""
}

func (m *Model) export() (string, error) {
	path := filepath.Join(m.outputDir, sim.CSVFilename)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	defer file.Close()
	if err := m.snap.Series.WriteCSV(file); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return path, nil
}

func (m *Model) setMessage(msg string, isErr bool) {
	m.message = msg
	m.messageErr = isErr
}

func nextStrain(s sim.Strain) sim.Strain {
	for i, strain := range sim.Strains {
		if strain == s {
			return sim.Strains[(i+1)%len(sim.Strains)]
		}
	}
	return sim.Strains[0]
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("MalSim"))
	b.WriteString("\n\n")

	grid := rasterise(m.snap.Graph, sim.DefaultCanvas, canvasCols, canvasRows)
	canvas := canvasStyle.Render(renderCanvas(grid, m.dark))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, canvas, statsBoxStyle.Render(m.stats())))
	b.WriteString("\n")

	if m.message != "" {
		style := successStyle
		if m.messageErr {
			style = errorStyle
		}
		b.WriteString("  " + style.Render(m.message) + "\n")
	}

	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) stats() string {
	cfg := m.snap.Config
	total := len(m.snap.Graph.Nodes)
	ratio := 0.0
	if total > 0 {
		ratio = float64(m.snap.Infected()) / float64(total)
	}

	state := "idle"
	if m.playing {
		state = "running"
	}

	strain := lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.Strain.Color())).Bold(true)

	lines := []string{
		"Malware: " + strain.Render(cfg.Strain.String()),
		fmt.Sprintf("Probability: %.2f", cfg.Probability),
		fmt.Sprintf("Network size: %d", cfg.NetworkSize),
		"",
		fmt.Sprintf("State: %s", state),
		fmt.Sprintf("Step: %d", m.snap.Step),
		fmt.Sprintf("Infected: %d / %d", m.snap.Infected(), total),
		m.progress.ViewAs(ratio),
		"",
		lipgloss.NewStyle().Width(30).Render(cfg.Strain.Description()),
	}
	return strings.Join(lines, "\n")
}
