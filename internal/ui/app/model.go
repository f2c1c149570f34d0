package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	auditdto "siteaudit/internal/modules/audit/dto"
	cameradto "siteaudit/internal/modules/camera/dto"
	apperrors "siteaudit/internal/platform/errors"
	"siteaudit/internal/ui/components"
	"siteaudit/internal/ui/theme"
	annotateview "siteaudit/internal/ui/views/annotate"
	captureview "siteaudit/internal/ui/views/capture"
	reviewview "siteaudit/internal/ui/views/review"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.
// Sub-view ports are defined in their own packages and narrowed further.

type auditPort interface {
	Load(ctx context.Context) (auditdto.SessionOutput, error)
	Start(ctx context.Context) (auditdto.MutationOutput, error)
	Restart(ctx context.Context, confirm bool) (auditdto.MutationOutput, error)
	Capture(ctx context.Context, title string) (auditdto.MutationOutput, error)
	Rename(ctx context.Context, position int, title string) (auditdto.MutationOutput, error)
	Delete(ctx context.Context, position int) (auditdto.MutationOutput, error)
	Raster(ctx context.Context, position int) ([]byte, error)
	SelectAnnotation(ctx context.Context, position int) (auditdto.MutationOutput, error)
	Press(ctx context.Context, x, y, width, height int) error
	Drag(ctx context.Context, x, y, width, height int) error
	Release(ctx context.Context) (auditdto.MutationOutput, error)
	Leave(ctx context.Context) (auditdto.MutationOutput, error)
	ClearAnnotation(ctx context.Context, position int) (auditdto.MutationOutput, error)
	SetInspector(ctx context.Context, name string) (auditdto.MutationOutput, error)
	SetDate(ctx context.Context, date string) (auditdto.MutationOutput, error)
	SignPress(ctx context.Context, x, y, width, height int) error
	SignDrag(ctx context.Context, x, y, width, height int) error
	SignRelease(ctx context.Context) (auditdto.MutationOutput, error)
	SignLeave(ctx context.Context) (auditdto.MutationOutput, error)
	ClearSignature(ctx context.Context) (auditdto.MutationOutput, error)
	SignatureRaster(ctx context.Context) ([]byte, error)
	Export(ctx context.Context) (auditdto.ExportOutput, error)
}

type cameraPort interface {
	Devices(ctx context.Context) ([]cameradto.DeviceOutput, error)
	Start(ctx context.Context, deviceID string) (cameradto.StatusOutput, error)
	Stop(ctx context.Context) (cameradto.StatusOutput, error)
	Status(ctx context.Context) (cameradto.StatusOutput, error)
	Frame(ctx context.Context) (cameradto.FrameOutput, error)
	SetVisible(ctx context.Context, visible bool) error
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabCapture tabID = iota
	tabAnnotate
	tabReview
	tabCount
)

var tabLabels = [tabCount]string{
	"Capture", "Annotate", "Review",
}

// contentTop is the number of rows the tab bar occupies.
const contentTop = 2

// ─── async messages ───────────────────────────────────────────────────────────

type sessionLoadedMsg struct {
	session auditdto.SessionOutput
	err     error
}

type mutatedMsg struct {
	label string
	out   auditdto.MutationOutput
	err   error
}

type devicesMsg struct {
	devices []cameradto.DeviceOutput
	err     error
}

type visibilityMsg struct{ err error }

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab      key.Binding
	Help     key.Binding
	Palette  key.Binding
	Quit     key.Binding
	Capture  key.Binding
	Camera   key.Binding
	Annotate key.Binding
	Select   key.Binding
	Clear    key.Binding
	Export   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:  key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Capture:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "capture")),
		Camera:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "camera on/off")),
		Annotate: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "annotate selected")),
		Select:   key.NewBinding(key.WithKeys("[", "]"), key.WithHelp("[/]", "prev/next image")),
		Clear:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear drawing")),
		Export:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export pdf")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Capture, k.Camera, k.Annotate},
		{k.Select, k.Clear, k.Export},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the report
// snapshot, the help overlay and the command palette. Business logic goes
// through the ports; rendering is delegated to sub-views.
type Model struct {
	audit  auditPort
	camera cameraPort

	captureView  captureview.Model
	annotateView annotateview.Model
	reviewView   reviewview.Model

	activeTab    tabID
	keys         keyMap
	help         help.Model
	showHelp     bool
	palette      components.Palette
	session      auditdto.SessionOutput
	cameraStatus cameradto.StatusOutput
	status       string
	width        int
	height       int
}

// ─── constructor ─────────────────────────────────────────────────────────────

func NewModel(audit auditPort, camera cameraPort) Model {
	return Model{
		audit:        audit,
		camera:       camera,
		captureView:  captureview.New(capturePortBridge{p: audit}, cameraPortBridge{p: camera}),
		annotateView: annotateview.New(annotatePortBridge{p: audit}),
		reviewView:   reviewview.New(reviewPortBridge{p: audit}),
		activeTab:    tabCapture,
		keys:         defaultKeys(),
		help:         help.New(),
		palette:      components.NewPalette(components.AuditCommands),
		status:       "loading report",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.captureView.Init(),
		m.loadSessionCmd(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The palette owns keyboard and mouse input while open. Everything else
	// still reaches the views so frame ticks and async results are not lost.
	if m.palette.Visible() {
		switch msg.(type) {
		case tea.KeyMsg:
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		case tea.MouseMsg:
			return m, nil
		}
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		cmds = append(cmds, cmd)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		cmds = append(cmds, m.propagateSize())
		return m, tea.Batch(cmds...)

	case tea.FocusMsg:
		return m, m.visibilityCmd(true)

	case tea.BlurMsg:
		return m, m.visibilityCmd(false)

	case visibilityMsg:
		if msg.err != nil {
			m.status = "camera: " + msg.err.Error()
		}
		return m, m.cameraStatusCmd()

	case sessionLoadedMsg:
		if msg.err != nil {
			m.status = "load report: " + msg.err.Error()
			return m, nil
		}
		m.status = "ready"
		if !msg.session.Started {
			m.status = "no report in progress: run start from the palette"
		}
		cmd := m.applySession(msg.session)
		return m, cmd

	case mutatedMsg:
		cmd := m.applyMutation(msg.label, msg.out, msg.err)
		return m, cmd

	case captureview.CapturedMsg:
		cmd := m.applyMutation("captured", msg.Out, msg.Err)
		return m, cmd

	case captureview.CameraMsg:
		if msg.Err != nil {
			m.status = "camera: " + msg.Err.Error()
		} else {
			m.status = "camera " + msg.Status.State
		}
		m.cameraStatus = msg.Status
		cmd := m.captureView.SetCamera(msg.Status)
		return m, cmd

	case devicesMsg:
		if msg.err != nil {
			m.status = "camera devices: " + msg.err.Error()
			return m, nil
		}
		if len(msg.devices) == 0 {
			m.status = "no camera devices"
			return m, nil
		}
		names := make([]string, len(msg.devices))
		for i, d := range msg.devices {
			names[i] = d.ID
			if d.Label != "" {
				names[i] += " (" + d.Label + ")"
			}
		}
		m.status = "devices: " + strings.Join(names, ", ")
		return m, nil

	case annotateview.ChangedMsg:
		cmd := m.applyMutation("annotation", msg.Out, msg.Err)
		var viewCmd tea.Cmd
		m.annotateView, viewCmd = m.annotateView.Update(msg)
		return m, tea.Batch(cmd, viewCmd)

	case reviewview.ChangedMsg:
		cmd := m.applyMutation("signature", msg.Out, msg.Err)
		var viewCmd tea.Cmd
		m.reviewView, viewCmd = m.reviewView.Update(msg)
		return m, tea.Batch(cmd, viewCmd)

	case reviewview.ExportedMsg:
		if msg.Err != nil {
			m.status = "export: " + msg.Err.Error()
		} else {
			m.status = fmt.Sprintf("exported %s (%d pages)", msg.Out.Path, msg.Out.Pages)
			if msg.Out.Warning != "" {
				m.status += "  " + msg.Out.Warning
			}
		}
		var viewCmd tea.Cmd
		m.reviewView, viewCmd = m.reviewView.Update(msg)
		return m, viewCmd

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"

	case tea.MouseMsg:
		msg.Y -= contentTop
		var tabCmd tea.Cmd
		switch m.activeTab {
		case tabAnnotate:
			m.annotateView, tabCmd = m.annotateView.Update(msg)
		case tabReview:
			m.reviewView, tabCmd = m.reviewView.Update(msg)
		}
		return m, tabCmd

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.annotateView.Drawing() || m.reviewView.Signing() {
			switch msg.String() {
			case "ctrl+c":
				m.endStrokes()
				return m, tea.Quit
			case "esc":
				cmd := m.endStrokes()
				m.status = "stroke ended"
				return m, cmd
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			cmd := m.palette.Open()
			return m, cmd
		case "a":
			if m.activeTab == tabCapture {
				if pos, ok := m.captureView.SelectedPosition(); ok {
					m.activeTab = tabAnnotate
					return m, m.annotateView.Select(pos)
				}
			}
		}
	}

	// Keys go to the active tab; view-internal results reach every view so
	// loads and the preview loop finish while another tab is shown.
	if _, ok := msg.(tea.KeyMsg); ok {
		var tabCmd tea.Cmd
		switch m.activeTab {
		case tabCapture:
			m.captureView, tabCmd = m.captureView.Update(msg)
		case tabAnnotate:
			m.annotateView, tabCmd = m.annotateView.Update(msg)
		case tabReview:
			m.reviewView, tabCmd = m.reviewView.Update(msg)
		}
		return m, tabCmd
	}

	var cmd tea.Cmd
	m.captureView, cmd = m.captureView.Update(msg)
	cmds = append(cmds, cmd)
	m.annotateView, cmd = m.annotateView.Update(msg)
	cmds = append(cmds, cmd)
	m.reviewView, cmd = m.reviewView.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) applyMutation(label string, out auditdto.MutationOutput, err error) tea.Cmd {
	if err != nil {
		m.status = label + ": " + describe(err)
		return nil
	}
	m.status = label
	if out.Warning != "" {
		m.status = label + "  " + out.Warning
	}
	return m.applySession(out.Session)
}

func (m *Model) applySession(session auditdto.SessionOutput) tea.Cmd {
	m.session = session
	return tea.Batch(
		m.captureView.SetSession(session),
		m.annotateView.SetSession(session),
		m.reviewView.SetSession(session),
	)
}

func describe(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrConfirmationRequired):
		return "report has images: run new! to discard them"
	case errors.Is(err, apperrors.ErrNoActiveReport):
		return "no report in progress: run start"
	}
	return err.Error()
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	tabBarH := lipgloss.Height(tabBar)
	statusBarH := lipgloss.Height(statusBar)

	contentH := m.height - tabBarH - statusBarH
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabCapture:
		return m.captureView.View()
	case tabAnnotate:
		return m.annotateView.View()
	case tabReview:
		return m.reviewView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "siteaudit  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.session.Started {
		badge := fmt.Sprintf("● %d images", len(m.session.Images))
		if m.session.InspectorName != "" {
			badge += "  " + m.session.InspectorName
		}
		left = theme.Hot.Render(badge) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), parts[0]))

	switch parts[0] {
	case "start":
		return m, m.mutateCmd("report started", func(ctx context.Context) (auditdto.MutationOutput, error) {
			return m.audit.Start(ctx)
		})

	case "new", "new!":
		confirm := parts[0] == "new!"
		return m, m.mutateCmd("new report", func(ctx context.Context) (auditdto.MutationOutput, error) {
			if _, err := m.audit.Restart(ctx, confirm); err != nil {
				return auditdto.MutationOutput{}, err
			}
			return m.audit.Start(ctx)
		})

	case "capture":
		m.activeTab = tabCapture
		return m, m.captureView.CaptureCmd(rest)

	case "title":
		pos, text, ok := positionArg(parts, rest)
		if !ok || text == "" {
			m.status = "usage: title <n> <text>"
			return m, nil
		}
		return m, m.mutateCmd("renamed", func(ctx context.Context) (auditdto.MutationOutput, error) {
			return m.audit.Rename(ctx, pos, text)
		})

	case "delete":
		pos, _, ok := positionArg(parts, rest)
		if !ok {
			m.status = "usage: delete <n>"
			return m, nil
		}
		return m, m.mutateCmd("deleted", func(ctx context.Context) (auditdto.MutationOutput, error) {
			return m.audit.Delete(ctx, pos)
		})

	case "annotate":
		pos, _, ok := positionArg(parts, rest)
		if !ok {
			m.status = "usage: annotate <n>"
			return m, nil
		}
		m.activeTab = tabAnnotate
		return m, m.annotateView.Select(pos)

	case "clear":
		pos, _, ok := positionArg(parts, rest)
		if !ok {
			m.status = "usage: clear <n>"
			return m, nil
		}
		return m, m.mutateCmd("annotation cleared", func(ctx context.Context) (auditdto.MutationOutput, error) {
			return m.audit.ClearAnnotation(ctx, pos)
		})

	case "inspector":
		return m, m.mutateCmd("inspector set", func(ctx context.Context) (auditdto.MutationOutput, error) {
			return m.audit.SetInspector(ctx, rest)
		})

	case "date":
		return m, m.mutateCmd("date set", func(ctx context.Context) (auditdto.MutationOutput, error) {
			return m.audit.SetDate(ctx, rest)
		})

	case "sign:clear":
		return m, m.mutateCmd("signature cleared", func(ctx context.Context) (auditdto.MutationOutput, error) {
			return m.audit.ClearSignature(ctx)
		})

	case "export":
		m.activeTab = tabReview
		cmd := m.reviewView.ExportCmd()
		return m, cmd

	case "camera":
		if len(parts) < 2 {
			m.status = "usage: camera start [device] | stop | devices"
			return m, nil
		}
		switch parts[1] {
		case "start":
			device := ""
			if len(parts) >= 3 {
				device = parts[2]
			}
			m.activeTab = tabCapture
			cmd := m.captureView.StartCameraCmd(device)
			return m, cmd
		case "stop":
			return m, m.captureView.StopCameraCmd()
		case "devices":
			return m, m.devicesCmd()
		}
		m.status = "unknown camera command: " + parts[1]

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// positionArg parses "<n> [text]" after the command word.
func positionArg(parts []string, rest string) (int, string, bool) {
	if len(parts) < 2 {
		return 0, "", false
	}
	pos, err := strconv.Atoi(parts[1])
	if err != nil || pos < 1 {
		return 0, "", false
	}
	return pos, strings.TrimSpace(strings.TrimPrefix(rest, parts[1])), true
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() tea.Cmd {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - contentTop - 2}
	var cmd tea.Cmd
	m.captureView, cmd = m.captureView.Update(sz)
	m.annotateView, _ = m.annotateView.Update(sz)
	m.reviewView, _ = m.reviewView.Update(sz)
	return cmd
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) loadSessionCmd() tea.Cmd {
	return func() tea.Msg {
		session, err := m.audit.Load(context.Background())
		return sessionLoadedMsg{session: session, err: err}
	}
}

func (m Model) mutateCmd(label string, fn func(ctx context.Context) (auditdto.MutationOutput, error)) tea.Cmd {
	return func() tea.Msg {
		out, err := fn(context.Background())
		return mutatedMsg{label: label, out: out, err: err}
	}
}

func (m Model) devicesCmd() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.camera.Devices(context.Background())
		return devicesMsg{devices: devices, err: err}
	}
}

func (m Model) visibilityCmd(visible bool) tea.Cmd {
	return func() tea.Msg {
		return visibilityMsg{err: m.camera.SetVisible(context.Background(), visible)}
	}
}

func (m Model) cameraStatusCmd() tea.Cmd {
	return func() tea.Msg {
		status, err := m.camera.Status(context.Background())
		return captureview.CameraMsg{Status: status, Err: err}
	}
}

// ─── port bridges ─────────────────────────────────────────────────────────────
// Each bridge narrows a broad port interface to the minimal interface needed by
// a specific sub-view, keeping view packages free of knowledge about the wider
// port surface.

type capturePortBridge struct{ p auditPort }

func (b capturePortBridge) Capture(ctx context.Context, title string) (auditdto.MutationOutput, error) {
	return b.p.Capture(ctx, title)
}

type cameraPortBridge struct{ p cameraPort }

func (b cameraPortBridge) Start(ctx context.Context, deviceID string) (cameradto.StatusOutput, error) {
	return b.p.Start(ctx, deviceID)
}
func (b cameraPortBridge) Stop(ctx context.Context) (cameradto.StatusOutput, error) {
	return b.p.Stop(ctx)
}
func (b cameraPortBridge) Frame(ctx context.Context) (cameradto.FrameOutput, error) {
	return b.p.Frame(ctx)
}

type annotatePortBridge struct{ p auditPort }

func (b annotatePortBridge) Raster(ctx context.Context, position int) ([]byte, error) {
	return b.p.Raster(ctx, position)
}
func (b annotatePortBridge) SelectAnnotation(ctx context.Context, position int) (auditdto.MutationOutput, error) {
	return b.p.SelectAnnotation(ctx, position)
}
func (b annotatePortBridge) Press(ctx context.Context, x, y, w, h int) error {
	return b.p.Press(ctx, x, y, w, h)
}
func (b annotatePortBridge) Drag(ctx context.Context, x, y, w, h int) error {
	return b.p.Drag(ctx, x, y, w, h)
}
func (b annotatePortBridge) Release(ctx context.Context) (auditdto.MutationOutput, error) {
	return b.p.Release(ctx)
}
func (b annotatePortBridge) Leave(ctx context.Context) (auditdto.MutationOutput, error) {
	return b.p.Leave(ctx)
}
func (b annotatePortBridge) ClearAnnotation(ctx context.Context, position int) (auditdto.MutationOutput, error) {
	return b.p.ClearAnnotation(ctx, position)
}

type reviewPortBridge struct{ p auditPort }

func (b reviewPortBridge) SignPress(ctx context.Context, x, y, w, h int) error {
	return b.p.SignPress(ctx, x, y, w, h)
}
func (b reviewPortBridge) SignDrag(ctx context.Context, x, y, w, h int) error {
	return b.p.SignDrag(ctx, x, y, w, h)
}
func (b reviewPortBridge) SignRelease(ctx context.Context) (auditdto.MutationOutput, error) {
	return b.p.SignRelease(ctx)
}
func (b reviewPortBridge) SignLeave(ctx context.Context) (auditdto.MutationOutput, error) {
	return b.p.SignLeave(ctx)
}
func (b reviewPortBridge) ClearSignature(ctx context.Context) (auditdto.MutationOutput, error) {
	return b.p.ClearSignature(ctx)
}
func (b reviewPortBridge) SignatureRaster(ctx context.Context) ([]byte, error) {
	return b.p.SignatureRaster(ctx)
}
func (b reviewPortBridge) Export(ctx context.Context) (auditdto.ExportOutput, error) {
	return b.p.Export(ctx)
}

// endStrokes flattens any stroke the pointer never released.
func (m *Model) endStrokes() tea.Cmd {
	var annotateCmd, reviewCmd tea.Cmd
	m.annotateView, annotateCmd = m.annotateView.EndStroke()
	m.reviewView, reviewCmd = m.reviewView.EndStroke()
	return tea.Batch(annotateCmd, reviewCmd)
}
