package app

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditdto "siteaudit/internal/modules/audit/dto"
	cameradto "siteaudit/internal/modules/camera/dto"
	apperrors "siteaudit/internal/platform/errors"
	"siteaudit/internal/ui/components"
)

type fakeAudit struct {
	calls    []string
	renamed  string
	position int
	images   int
	target   int
	raster   []byte
}

func (f *fakeAudit) out() auditdto.MutationOutput {
	images := make([]auditdto.ImageOutput, f.images)
	for i := range images {
		images[i] = auditdto.ImageOutput{Position: i + 1}
	}
	return auditdto.MutationOutput{Session: auditdto.SessionOutput{
		Started:          true,
		Images:           images,
		AnnotationTarget: f.target,
	}}
}

func (f *fakeAudit) Load(context.Context) (auditdto.SessionOutput, error) {
	return f.out().Session, nil
}
func (f *fakeAudit) Start(context.Context) (auditdto.MutationOutput, error) {
	f.calls = append(f.calls, "start")
	return f.out(), nil
}
func (f *fakeAudit) Restart(_ context.Context, confirm bool) (auditdto.MutationOutput, error) {
	if f.images > 0 && !confirm {
		return auditdto.MutationOutput{}, apperrors.ErrConfirmationRequired
	}
	f.calls = append(f.calls, "restart")
	f.images = 0
	return f.out(), nil
}
func (f *fakeAudit) Capture(context.Context, string) (auditdto.MutationOutput, error) {
	f.images++
	return f.out(), nil
}
func (f *fakeAudit) Rename(_ context.Context, position int, title string) (auditdto.MutationOutput, error) {
	f.position, f.renamed = position, title
	return f.out(), nil
}
func (f *fakeAudit) Delete(_ context.Context, position int) (auditdto.MutationOutput, error) {
	f.position = position
	f.images--
	return f.out(), nil
}
func (f *fakeAudit) Raster(context.Context, int) ([]byte, error) {
	if f.raster == nil {
		return nil, apperrors.ErrNotFound
	}
	return f.raster, nil
}
func (f *fakeAudit) SelectAnnotation(context.Context, int) (auditdto.MutationOutput, error) {
	return f.out(), nil
}
func (f *fakeAudit) Press(context.Context, int, int, int, int) error { return nil }
func (f *fakeAudit) Drag(context.Context, int, int, int, int) error  { return nil }
func (f *fakeAudit) Release(context.Context) (auditdto.MutationOutput, error) {
	return f.out(), nil
}
func (f *fakeAudit) Leave(context.Context) (auditdto.MutationOutput, error) {
	f.calls = append(f.calls, "leave")
	return f.out(), nil
}
func (f *fakeAudit) ClearAnnotation(context.Context, int) (auditdto.MutationOutput, error) {
	return f.out(), nil
}
func (f *fakeAudit) SetInspector(_ context.Context, name string) (auditdto.MutationOutput, error) {
	f.renamed = name
	return f.out(), nil
}
func (f *fakeAudit) SetDate(context.Context, string) (auditdto.MutationOutput, error) {
	return f.out(), nil
}
func (f *fakeAudit) SignPress(context.Context, int, int, int, int) error { return nil }
func (f *fakeAudit) SignDrag(context.Context, int, int, int, int) error  { return nil }
func (f *fakeAudit) SignRelease(context.Context) (auditdto.MutationOutput, error) {
	return f.out(), nil
}
func (f *fakeAudit) SignLeave(context.Context) (auditdto.MutationOutput, error) {
	f.calls = append(f.calls, "sign-leave")
	return f.out(), nil
}
func (f *fakeAudit) ClearSignature(context.Context) (auditdto.MutationOutput, error) {
	return f.out(), nil
}
func (f *fakeAudit) SignatureRaster(context.Context) ([]byte, error) { return nil, apperrors.ErrAbsent }
func (f *fakeAudit) Export(context.Context) (auditdto.ExportOutput, error) {
	return auditdto.ExportOutput{Path: "report.pdf", Pages: 3}, nil
}

type fakeCamera struct {
	visible []bool
}

func (f *fakeCamera) Devices(context.Context) ([]cameradto.DeviceOutput, error) {
	return []cameradto.DeviceOutput{{ID: "rear", Label: "Back"}}, nil
}
func (f *fakeCamera) Start(context.Context, string) (cameradto.StatusOutput, error) {
	return cameradto.StatusOutput{State: "open", DeviceID: "rear"}, nil
}
func (f *fakeCamera) Stop(context.Context) (cameradto.StatusOutput, error) {
	return cameradto.StatusOutput{State: "closed"}, nil
}
func (f *fakeCamera) Status(context.Context) (cameradto.StatusOutput, error) {
	return cameradto.StatusOutput{State: "closed"}, nil
}
func (f *fakeCamera) Frame(context.Context) (cameradto.FrameOutput, error) {
	return cameradto.FrameOutput{}, apperrors.ErrNotFound
}
func (f *fakeCamera) SetVisible(_ context.Context, visible bool) error {
	f.visible = append(f.visible, visible)
	return nil
}

func submit(t *testing.T, m Model, input string) Model {
	t.Helper()
	next, cmd := m.Update(components.PaletteSubmitMsg{Input: input})
	m = next.(Model)
	if cmd == nil {
		return m
	}
	next, _ = m.Update(cmd())
	return next.(Model)
}

func TestPaletteRenameParsesPositionAndTitle(t *testing.T) {
	audit := &fakeAudit{images: 2}
	m := NewModel(audit, &fakeCamera{})

	m = submit(t, m, "title 2 North wall crack")
	assert.Equal(t, 2, audit.position)
	assert.Equal(t, "North wall crack", audit.renamed)
	assert.Equal(t, "renamed", m.status)

	m = submit(t, m, "title x oops")
	assert.Equal(t, "usage: title <n> <text>", m.status)
}

func TestPaletteNewNeedsConfirmationWhenImagesExist(t *testing.T) {
	audit := &fakeAudit{images: 1}
	m := NewModel(audit, &fakeCamera{})

	m = submit(t, m, "new")
	assert.Contains(t, m.status, "new!")
	assert.Empty(t, audit.calls)

	m = submit(t, m, "new!")
	assert.Equal(t, []string{"restart", "start"}, audit.calls)
	assert.Empty(t, m.session.Images)
	assert.True(t, m.session.Started)
}

func TestPaletteCameraDevicesAndUnknownCommand(t *testing.T) {
	m := NewModel(&fakeAudit{}, &fakeCamera{})

	m = submit(t, m, "camera devices")
	assert.Equal(t, "devices: rear (Back)", m.status)

	m = submit(t, m, "frobnicate")
	assert.Equal(t, "unknown command: frobnicate", m.status)
}

func TestFocusChangesReachCamera(t *testing.T) {
	camera := &fakeCamera{}
	m := NewModel(&fakeAudit{}, camera)

	_, cmd := m.Update(tea.BlurMsg{})
	require.NotNil(t, cmd)
	cmd()
	_, cmd = m.Update(tea.FocusMsg{})
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []bool{false, true}, camera.visible)
}

func TestTabCycles(t *testing.T) {
	m := NewModel(&fakeAudit{}, &fakeCamera{})
	for _, want := range []tabID{tabAnnotate, tabReview, tabCapture} {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = next.(Model)
		assert.Equal(t, want, m.activeTab)
	}
}

// deliver runs cmd and feeds its messages back into the model one level deep.
func deliver(m Model, cmd tea.Cmd) Model {
	if cmd == nil {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m = deliver(m, c)
		}
		return m
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func pngRaster(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 40))))
	return buf.Bytes()
}

func strokeModel(t *testing.T, audit *fakeAudit, tab tabID) Model {
	t.Helper()
	m := NewModel(audit, &fakeCamera{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(Model)
	next, cmd := m.Update(sessionLoadedMsg{session: audit.out().Session})
	m = deliver(next.(Model), cmd)
	m.activeTab = tab

	top := contentTop + 7
	if tab == tabAnnotate {
		top = contentTop + 3
	}
	next, _ = m.Update(tea.MouseMsg{X: 2, Y: top, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	return next.(Model)
}

func TestCtrlCQuitsWhileAnnotating(t *testing.T) {
	audit := &fakeAudit{images: 1, target: 1, raster: pngRaster(t)}
	m := strokeModel(t, audit, tabAnnotate)
	require.True(t, m.annotateView.Drawing())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.False(t, m.annotateView.Drawing())
	assert.Equal(t, []string{"leave"}, audit.calls)
}

func TestEscEndsSignatureStroke(t *testing.T) {
	audit := &fakeAudit{}
	m := strokeModel(t, audit, tabReview)
	require.True(t, m.reviewView.Signing())

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	assert.False(t, m.reviewView.Signing())
	assert.Equal(t, []string{"sign-leave"}, audit.calls)
	assert.Equal(t, "stroke ended", m.status)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tabCapture, next.(Model).activeTab)
}

func TestPaletteWidthFollowsWindow(t *testing.T) {
	for _, tc := range []struct{ window, want int }{{200, 80}, {40, 36}} {
		m := NewModel(&fakeAudit{}, &fakeCamera{})
		next, _ := m.Update(tea.WindowSizeMsg{Width: tc.window, Height: 30})
		m = next.(Model)
		m.palette.Open()
		assert.Equal(t, tc.want, lipgloss.Width(m.palette.View()), "window %d", tc.window)
	}
}
