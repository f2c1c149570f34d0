package review

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/png"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	auditdto "siteaudit/internal/modules/audit/dto"
	apperrors "siteaudit/internal/platform/errors"
	"siteaudit/internal/ui/components"
	"siteaudit/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type ReviewPort interface {
	SignPress(ctx context.Context, x, y, width, height int) error
	SignDrag(ctx context.Context, x, y, width, height int) error
	SignRelease(ctx context.Context) (auditdto.MutationOutput, error)
	SignLeave(ctx context.Context) (auditdto.MutationOutput, error)
	ClearSignature(ctx context.Context) (auditdto.MutationOutput, error)
	SignatureRaster(ctx context.Context) ([]byte, error)
	Export(ctx context.Context) (auditdto.ExportOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

// ChangedMsg carries the report after a signature change.
type ChangedMsg struct {
	Out auditdto.MutationOutput
	Err error
}

// ExportedMsg reports a finished export.
type ExportedMsg struct {
	Out auditdto.ExportOutput
	Err error
}

type loadedMsg struct {
	img image.Image
	err error
}

type noteMsg struct {
	rendered string
	err      error
}

// The pad keeps the 3:1 shape of the signature canvas: a cell is two
// pixel rows tall.
const (
	padCols = 60
	padRows = 10
	padTop  = 6
	noteTop = padTop + padRows + 4
)

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port      ReviewPort
	session   auditdto.SessionOutput
	pad       image.Image
	signing   bool
	trail     map[image.Point]bool
	export    auditdto.ExportOutput
	exporting bool
	spinner   spinner.Model
	note      viewport.Model
	err       string
	width     int
	height    int
}

func New(port ReviewPort) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:    port,
		pad:     blankPad(),
		trail:   map[image.Point]bool{},
		spinner: sp,
		note:    viewport.New(0, 0),
	}
}

func (m *Model) SetSession(session auditdto.SessionOutput) tea.Cmd {
	had := m.session.HasSignature
	m.session = session
	if m.signing {
		return nil
	}
	if !session.HasSignature {
		m.pad = blankPad()
		m.trail = map[image.Point]bool{}
		return nil
	}
	if !had {
		return m.LoadCmd()
	}
	return nil
}

// Signing reports whether a signature stroke is in progress.
func (m Model) Signing() bool {
	return m.signing
}

// EndStroke flattens a signature stroke in progress.
func (m Model) EndStroke() (Model, tea.Cmd) {
	if !m.signing {
		return m, nil
	}
	m.signing = false
	out, err := m.port.SignLeave(context.Background())
	return m, m.afterStroke(out, err)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.note.Width = m.width
		m.note.Height = max(m.height-noteTop, 1)

	case spinner.TickMsg:
		if m.exporting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case noteMsg:
		if msg.err != nil {
			m.note.SetContent(theme.Muted.Render("note unavailable: " + msg.err.Error()))
		} else {
			m.note.SetContent(msg.rendered)
		}
		m.note.GotoTop()

	case loadedMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, apperrors.ErrAbsent) {
				m.err = msg.err.Error()
			}
			m.pad = blankPad()
		} else {
			m.pad = msg.img
		}
		m.trail = map[image.Point]bool{}

	case ExportedMsg:
		m.exporting = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		m.err = ""
		m.export = msg.Out
		if msg.Out.NotePath != "" {
			return m, m.noteCmd(msg.Out.NotePath)
		}

	case tea.KeyMsg:
		if m.signing {
			return m, nil
		}
		switch msg.String() {
		case "x":
			return m, m.clearCmd()
		case "e":
			cmd := m.ExportCmd()
			return m, cmd
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.note, cmd = m.note.Update(msg)
			return m, cmd
		}

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if !m.session.Started {
		return m, nil
	}
	cols, rows := m.padCells()
	x, y := msg.X, msg.Y-padTop
	inside := x >= 0 && y >= 0 && x < cols && y < rows
	ctx := context.Background()

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && inside:
		if err := m.port.SignPress(ctx, x, y, cols, rows); err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.err = ""
		m.signing = true
		m.trail[image.Pt(x, y)] = true

	case msg.Action == tea.MouseActionMotion && m.signing:
		if !inside {
			m.signing = false
			out, err := m.port.SignLeave(ctx)
			return m, m.afterStroke(out, err)
		}
		if err := m.port.SignDrag(ctx, x, y, cols, rows); err != nil {
			m.err = err.Error()
		}
		m.trail[image.Pt(x, y)] = true

	case msg.Action == tea.MouseActionRelease && m.signing:
		m.signing = false
		out, err := m.port.SignRelease(ctx)
		return m, m.afterStroke(out, err)
	}
	return m, nil
}

func (m Model) afterStroke(out auditdto.MutationOutput, err error) tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return ChangedMsg{Out: out, Err: err} },
		m.LoadCmd(),
	)
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Review and sign") + "  " +
		theme.Muted.Render("drag in the box to sign  x: clear signature  e: export") + "\n\n")

	inspector := m.session.InspectorName
	if inspector == "" {
		inspector = theme.Muted.Render("(not set: inspector <name>)")
	}
	sb.WriteString(fmt.Sprintf("Inspector  %s\n", inspector))
	sb.WriteString(fmt.Sprintf("Date       %s\n", m.session.ReportDate))
	sb.WriteString(fmt.Sprintf("Images     %d\n", len(m.session.Images)))
	if len(m.session.Missing) > 0 {
		sb.WriteString(theme.Hot.Render("Missing: "+strings.Join(m.session.Missing, ", ")) + "\n")
	} else {
		sb.WriteString(theme.Ok.Render("Ready to export") + "\n")
	}

	cols, rows := m.padCells()
	sb.WriteString(components.RenderRaster(m.pad, cols, rows, m.trail, theme.InkTrail))
	sb.WriteString("\n\n")

	switch {
	case m.exporting:
		sb.WriteString(m.spinner.View() + " Exporting…\n")
	case m.err != "":
		sb.WriteString(theme.Hot.Render(m.err) + "\n")
	case m.export.Path != "":
		sb.WriteString(fmt.Sprintf("Last export  %s  (%d pages)\n", m.export.Path, m.export.Pages))
	}
	if m.export.Path != "" {
		sb.WriteString(m.note.View())
	}
	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(sb.String())
}

func (m Model) padCells() (int, int) {
	cols, rows := padCols, padRows
	if m.width > 0 && cols > m.width {
		cols = m.width
		rows = cols / 6
	}
	return cols, rows
}

func blankPad() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, padCols, padRows*2))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) LoadCmd() tea.Cmd {
	return func() tea.Msg {
		raw, err := m.port.SignatureRaster(context.Background())
		if err != nil {
			return loadedMsg{err: err}
		}
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return loadedMsg{err: fmt.Errorf("decode signature: %w", err)}
		}
		return loadedMsg{img: img}
	}
}

// ExportCmd renders the report; a spinner runs until ExportedMsg.
func (m *Model) ExportCmd() tea.Cmd {
	m.exporting = true
	port := m.port
	return tea.Batch(func() tea.Msg {
		out, err := port.Export(context.Background())
		return ExportedMsg{Out: out, Err: err}
	}, m.spinner.Tick)
}

// noteCmd renders the archive note written next to the export.
func (m Model) noteCmd(path string) tea.Cmd {
	width := m.width
	return func() tea.Msg {
		raw, err := os.ReadFile(path)
		if err != nil {
			return noteMsg{err: err}
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStylePath("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return noteMsg{err: err}
		}
		out, err := r.Render(string(raw))
		return noteMsg{rendered: out, err: err}
	}
}

func (m Model) clearCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.ClearSignature(context.Background())
		return ChangedMsg{Out: out, Err: err}
	}
}
