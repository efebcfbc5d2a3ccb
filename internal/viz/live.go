package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/scene"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 300
	frameRate       = 60
)

var (
	statsStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(46)
	graphStyle = lipgloss.NewStyle().Padding(1, 0)
)

type TickMsg time.Time

// Builder constructs a fresh scene. The live view calls it at start and on
// every reset.
type Builder func() (*scene.Scene, error)

// Model is the Bubble Tea model of the live view. The scene is only touched
// from Update, so it never crosses goroutines.
type Model struct {
	build          Builder
	scene          *scene.Scene
	metrics        metrics.Set
	name           string
	canvas         *Canvas
	camera         *Camera
	renderer       *Renderer
	axes           *Wireframe
	theme          Theme
	frameDt        float64
	running        bool
	showAxes       bool
	showHelp       bool
	energyHistory  []float64
	contactHistory []float64
}

// NewModel builds the scene and frames the camera on its volume.
func NewModel(name string, build Builder) (Model, error) {
	m := Model{
		build:    build,
		name:     name,
		canvas:   NewCanvas(width, height),
		camera:   NewCamera(),
		theme:    ThemeCyberpunk,
		frameDt:  1.0 / frameRate,
		running:  true,
		showAxes: true,
	}
	m.renderer = NewRenderer(m.canvas, m.camera)
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	m.camera.Frame(m.scene.Volume())
	m.axes = AxesWireframe(m.camera.Extent / 4)
	return m, nil
}

// WithTheme returns the model using the named theme.
func (m Model) WithTheme(name string) Model {
	m.theme = GetTheme(name)
	return m
}

// Scene exposes the simulated scene, for inspection after the program exits.
func (m Model) Scene() *scene.Scene { return m.scene }

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.advance(m.scene.TimeStep())
			}
		case "r":
			if err := m.reset(); err != nil {
				return m, tea.Quit
			}
		case "p":
			m.scene.SetPartitioned(!m.scene.Partitioned())
		case "o":
			opts := m.scene.Options()
			m.scene.SetShowPartitions(!opts.ShowPartitions)
		case "c":
			opts := m.scene.Options()
			m.scene.SetVolumeColors(!opts.VolumeColors)
		case "a":
			m.showAxes = !m.showAxes
		case "t":
			m.theme = m.theme.next()
		case "?":
			m.showHelp = !m.showHelp
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.RotateZ(0.1)
		case "Z":
			m.camera.RotateZ(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		}
	case TickMsg:
		if m.running {
			m.advance(m.frameDt)
		}
		return m, tick()
	}
	return m, nil
}

// advance runs one frame: the global force once, then as many fixed steps
// as dt covers.
func (m *Model) advance(dt float64) {
	m.scene.ApplyGlobalForce()
	if m.scene.FixedUpdate(dt) == 0 {
		return
	}
	bodies := m.scene.Bodies()
	energy := metrics.KineticEnergy(bodies) + metrics.PotentialEnergy(bodies, m.scene.Gravity())
	m.energyHistory = push(m.energyHistory, energy)
	m.contactHistory = push(m.contactHistory, float64(m.scene.LastCollisionCount()))
}

func push(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m *Model) reset() error {
	s, err := m.build()
	if err != nil {
		return err
	}
	m.scene = s
	m.metrics = metrics.Default()
	s.AddObserver(m.metrics)
	m.energyHistory = m.energyHistory[:0]
	m.contactHistory = m.contactHistory[:0]
	return nil
}

func (m *Model) draw() {
	m.canvas.Clear()
	m.scene.Draw(m.renderer)
	if m.showAxes {
		Render3D(m.canvas, m.axes, m.camera)
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := lipgloss.NewStyle().Foreground(m.theme.Canvas).Padding(1, 2).Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(HeaderStyle.Render(GradientText(strings.ToUpper(m.name), m.theme.TitleStart, m.theme.TitleEnd)) + "\n")
	if m.running {
		s.WriteString(StatusRunning.Render("● RUNNING") + "\n\n")
	} else {
		s.WriteString(StatusPaused.Render("❚❚ PAUSED") + "\n\n")
	}

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Foreground(m.theme.Chart).Render(chart) + "\n")
	}
	s.WriteString(MetricLabel.Render("Contacts") + SparklineChart(m.contactHistory, 24) + "\n\n")

	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.scene.Time()))
	row("Steps", fmt.Sprintf("%d", m.scene.Steps()))
	row("Bodies", fmt.Sprintf("%d", m.scene.Len()))
	row("Constraints", fmt.Sprintf("%d", len(m.scene.Constraints())))
	row("Broad phase", broadPhase(m.scene.Partitioned()))
	row("Global force", formatVec(m.scene.GlobalForce()))
	s.WriteString("\n")
	for _, name := range m.metrics.Names() {
		row(name, fmt.Sprintf("%.3f", m.metrics.Values()[name]))
	}

	s.WriteString("\n" + Separator(40) + "\n")
	s.WriteString(KeyHint.Render("SP:Pause .:Step R:Reset Q:Quit\nP:Octree O:Cells C:Tint T:Theme\nxyz:Rotate +-:Zoom ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return GlassPanel.Render(helpText) + "\n" + mainView
	}
	return mainView
}

const helpText = `Space    pause / resume
.        single step while paused
R        rebuild the scenario
P        toggle octree broad phase
O        show octree cells
C        tint bodies by cell
A        toggle axes
T        cycle themes
x y z    rotate camera (shift reverses)
+ -      zoom
Q        quit`

func broadPhase(partitioned bool) string {
	if partitioned {
		return "octree"
	}
	return "all pairs"
}

func formatVec(v mgl64.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v[0], v[1], v[2])
}
