package capture

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	auditdto "siteaudit/internal/modules/audit/dto"
	cameradto "siteaudit/internal/modules/camera/dto"
	"siteaudit/internal/ui/components"
	"siteaudit/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type CapturePort interface {
	Capture(ctx context.Context, title string) (auditdto.MutationOutput, error)
}

type CameraPort interface {
	Start(ctx context.Context, deviceID string) (cameradto.StatusOutput, error)
	Stop(ctx context.Context) (cameradto.StatusOutput, error)
	Frame(ctx context.Context) (cameradto.FrameOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

// CapturedMsg reports a finished capture to the root model.
type CapturedMsg struct {
	Out auditdto.MutationOutput
	Err error
}

// CameraMsg reports a camera state change to the root model.
type CameraMsg struct {
	Status cameradto.StatusOutput
	Err    error
}

type frameMsg struct {
	frame image.Image
	err   error
}

type tickMsg struct{}

const previewInterval = 400 * time.Millisecond

// ─── list item ───────────────────────────────────────────────────────────────

type imageItem struct {
	image auditdto.ImageOutput
}

func (i imageItem) Title() string { return fmt.Sprintf("%d. %s", i.image.Position, i.image.Title) }
func (i imageItem) Description() string {
	desc := fmt.Sprintf("%d KB  %s", i.image.Bytes/1024, i.image.CapturedAt.Local().Format("15:04:05"))
	if i.image.Annotated {
		desc += "  annotated"
	}
	return desc
}
func (i imageItem) FilterValue() string { return i.image.Title }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	audit   CapturePort
	camera  CameraPort
	list     list.Model
	spinner  spinner.Model
	session  auditdto.SessionOutput
	status   cameradto.StatusOutput
	frame    image.Image
	live     bool
	starting bool
	width    int
	height   int
}

func New(audit CapturePort, camera CameraPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Captured images"
	l.Styles.Title = theme.Title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{audit: audit, camera: camera, list: l, spinner: sp}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// SetSession refreshes the image list after any report change.
func (m *Model) SetSession(session auditdto.SessionOutput) tea.Cmd {
	m.session = session
	items := make([]list.Item, len(session.Images))
	for i, img := range session.Images {
		items[i] = imageItem{image: img}
	}
	return m.list.SetItems(items)
}

// SetCamera records the camera state and starts or stops the preview loop.
func (m *Model) SetCamera(status cameradto.StatusOutput) tea.Cmd {
	m.status = status
	m.starting = false
	wasLive := m.live
	m.live = status.State == "open"
	if !m.live {
		m.frame = nil
	}
	if m.live && !wasLive {
		return m.frameCmd()
	}
	return nil
}

// SelectedPosition is the 1-based position of the highlighted image.
func (m Model) SelectedPosition() (int, bool) {
	if item, ok := m.list.SelectedItem().(imageItem); ok {
		return item.image.Position, true
	}
	return 0, false
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.listWidth(), m.height)

	case frameMsg:
		if msg.err == nil {
			m.frame = msg.frame
		}
		if m.live {
			cmds = append(cmds, tea.Tick(previewInterval, func(time.Time) tea.Msg { return tickMsg{} }))
		}

	case tickMsg:
		if m.live {
			cmds = append(cmds, m.frameCmd())
		}

	case spinner.TickMsg:
		if m.starting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "c", " ":
			cmds = append(cmds, m.CaptureCmd(""))
		case "v":
			if m.live {
				cmds = append(cmds, m.StopCameraCmd())
			} else {
				cmds = append(cmds, m.StartCameraCmd(""))
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	listPane := lipgloss.NewStyle().Width(m.listWidth()).Height(m.height).Render(m.list.View())

	previewW := m.width - m.listWidth()
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Camera") + "  " + m.cameraLine() + "\n\n")
	if m.starting {
		sb.WriteString(m.spinner.View() + " Opening camera…")
	} else if m.frame != nil {
		cols, rows := components.FitCells(m.frame.Bounds().Size(), previewW-4, m.height-6)
		sb.WriteString(components.RenderRaster(m.frame, cols, rows, nil, nil))
	} else if !m.session.Started {
		sb.WriteString(theme.Muted.Render("No report in progress. Open the palette and run start."))
	} else {
		sb.WriteString(theme.Muted.Render("v: start camera  c: capture"))
	}
	previewPane := theme.Pane.
		Width(previewW - 2).
		Height(m.height - 2).
		Render(sb.String())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)
}

func (m Model) cameraLine() string {
	line := m.status.State
	if line == "" {
		line = "stopped"
	}
	if m.status.DeviceID != "" {
		line += " (" + m.status.DeviceID + ")"
	}
	if m.status.Hidden {
		line += " hidden"
	}
	if m.status.LastError != "" {
		return theme.Hot.Render(line + ": " + m.status.LastError)
	}
	return theme.Muted.Render(line)
}

func (m Model) listWidth() int {
	return m.width * 4 / 10
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) CaptureCmd(title string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.audit.Capture(context.Background(), title)
		return CapturedMsg{Out: out, Err: err}
	}
}

// StartCameraCmd requests the camera; the preview shows a spinner until
// the CameraMsg arrives.
func (m *Model) StartCameraCmd(deviceID string) tea.Cmd {
	m.starting = true
	camera := m.camera
	return tea.Batch(func() tea.Msg {
		status, err := camera.Start(context.Background(), deviceID)
		return CameraMsg{Status: status, Err: err}
	}, m.spinner.Tick)
}

func (m Model) StopCameraCmd() tea.Cmd {
	return func() tea.Msg {
		status, err := m.camera.Stop(context.Background())
		return CameraMsg{Status: status, Err: err}
	}
}

func (m Model) frameCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.camera.Frame(context.Background())
		return frameMsg{frame: out.Image, err: err}
	}
}
