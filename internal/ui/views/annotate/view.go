package annotate

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	auditdto "siteaudit/internal/modules/audit/dto"
	"siteaudit/internal/ui/components"
	"siteaudit/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type AnnotatePort interface {
	Raster(ctx context.Context, position int) ([]byte, error)
	SelectAnnotation(ctx context.Context, position int) (auditdto.MutationOutput, error)
	Press(ctx context.Context, x, y, width, height int) error
	Drag(ctx context.Context, x, y, width, height int) error
	Release(ctx context.Context) (auditdto.MutationOutput, error)
	Leave(ctx context.Context) (auditdto.MutationOutput, error)
	ClearAnnotation(ctx context.Context, position int) (auditdto.MutationOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

// ChangedMsg carries the report after an annotation change.
type ChangedMsg struct {
	Out auditdto.MutationOutput
	Err error
}

type loadedMsg struct {
	position int
	img      image.Image
	err      error
}

// canvasTop is the row of the canvas within the view.
const canvasTop = 2

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port     AnnotatePort
	session  auditdto.SessionOutput
	position int
	img      image.Image
	drawing  bool
	trail    map[image.Point]bool
	err      string
	width    int
	height   int
}

func New(port AnnotatePort) Model {
	return Model{port: port, trail: map[image.Point]bool{}}
}

// SetSession follows the report's annotation target and reloads the
// canvas when the target moved.
func (m *Model) SetSession(session auditdto.SessionOutput) tea.Cmd {
	m.session = session
	if m.drawing {
		return nil
	}
	target := session.AnnotationTarget
	if target == 0 {
		m.position = 0
		m.img = nil
		return nil
	}
	if target != m.position {
		m.position = target
		m.img = nil
		return m.loadCmd(target)
	}
	return nil
}

// Drawing reports whether a stroke is in progress.
func (m Model) Drawing() bool {
	return m.drawing
}

// EndStroke flattens a stroke in progress as if the pointer left the canvas.
func (m Model) EndStroke() (Model, tea.Cmd) {
	if !m.drawing {
		return m, nil
	}
	m.drawing = false
	out, err := m.port.Leave(context.Background())
	return m, m.afterStroke(out, err)
}

// Select makes position the annotation target and loads its raster.
func (m Model) Select(position int) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.SelectAnnotation(context.Background(), position)
		if err != nil {
			return ChangedMsg{Err: err}
		}
		return tea.Batch(
			func() tea.Msg { return ChangedMsg{Out: out} },
			m.loadCmd(position),
		)()
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.position = msg.position
		m.img = msg.img
		m.trail = map[image.Point]bool{}

	case tea.KeyMsg:
		if m.drawing {
			return m, nil
		}
		switch msg.String() {
		case "]", "n":
			if next := m.position + 1; next <= len(m.session.Images) {
				return m, m.Select(next)
			}
		case "[", "p":
			if prev := m.position - 1; prev >= 1 {
				return m, m.Select(prev)
			}
		case "x":
			if m.position > 0 {
				return m, m.clearCmd(m.position)
			}
		}

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

// handleMouse applies pointer events synchronously so a stroke's points
// reach the canvas in the order they happened.
func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if m.img == nil {
		return m, nil
	}
	cols, rows := m.canvasCells()
	x, y := msg.X, msg.Y-canvasTop
	inside := x >= 0 && y >= 0 && x < cols && y < rows
	ctx := context.Background()

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && inside:
		if err := m.port.Press(ctx, x, y, cols, rows); err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.drawing = true
		m.trail[image.Pt(x, y)] = true

	case msg.Action == tea.MouseActionMotion && m.drawing:
		if !inside {
			m.drawing = false
			out, err := m.port.Leave(ctx)
			return m, m.afterStroke(out, err)
		}
		if err := m.port.Drag(ctx, x, y, cols, rows); err != nil {
			m.err = err.Error()
		}
		m.trail[image.Pt(x, y)] = true

	case msg.Action == tea.MouseActionRelease && m.drawing:
		m.drawing = false
		out, err := m.port.Release(ctx)
		return m, m.afterStroke(out, err)
	}
	return m, nil
}

func (m Model) afterStroke(out auditdto.MutationOutput, err error) tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return ChangedMsg{Out: out, Err: err} },
		m.loadCmd(m.position),
	)
}

func (m Model) View() string {
	var sb strings.Builder
	if m.position == 0 || m.img == nil {
		sb.WriteString(theme.Title.Render("Annotate") + "\n\n")
		sb.WriteString(theme.Muted.Render("Pick an image with ] or the palette: annotate <n>"))
		return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(sb.String())
	}
	title := ""
	if m.position <= len(m.session.Images) {
		title = m.session.Images[m.position-1].Title
	}
	header := theme.Title.Render(fmt.Sprintf("Annotate %d. %s", m.position, title)) +
		"  " + theme.Muted.Render("drag to draw  [/]: prev/next  x: clear")
	if m.err != "" {
		header += "  " + theme.Hot.Render(m.err)
	}
	sb.WriteString(header + "\n\n")
	cols, rows := m.canvasCells()
	sb.WriteString(components.RenderRaster(m.img, cols, rows, m.trail, theme.StrokeTrail))
	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(sb.String())
}

func (m Model) canvasCells() (int, int) {
	if m.img == nil {
		return 0, 0
	}
	return components.FitCells(m.img.Bounds().Size(), m.width, m.height-canvasTop)
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) loadCmd(position int) tea.Cmd {
	return func() tea.Msg {
		raw, err := m.port.Raster(context.Background(), position)
		if err != nil {
			return loadedMsg{err: err}
		}
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return loadedMsg{err: fmt.Errorf("decode image %d: %w", position, err)}
		}
		return loadedMsg{position: position, img: img}
	}
}

func (m Model) clearCmd(position int) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.ClearAnnotation(context.Background(), position)
		if err != nil {
			return ChangedMsg{Err: err}
		}
		return tea.Batch(
			func() tea.Msg { return ChangedMsg{Out: out} },
			m.loadCmd(position),
		)()
	}
}
