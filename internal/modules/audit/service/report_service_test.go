package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"siteaudit/internal/modules/audit/domain"
	"siteaudit/internal/modules/audit/service"
	"siteaudit/internal/platform/clock"
	apperrors "siteaudit/internal/platform/errors"
)

type memoryStore struct {
	mu       sync.Mutex
	session  domain.ReportSession
	saves    map[string]int
	failWith error
	cleared  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{session: domain.NewSession(), saves: map[string]int{}}
}

func (s *memoryStore) Load(context.Context) (domain.ReportSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.session
	out.Images = append([]domain.CapturedImage(nil), s.session.Images...)
	return out, nil
}

func (s *memoryStore) record(key string) error {
	s.saves[key]++
	return s.failWith
}

func (s *memoryStore) SaveImages(_ context.Context, images []domain.CapturedImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("images"); err != nil {
		return err
	}
	s.session.Images = append([]domain.CapturedImage(nil), images...)
	return nil
}

func (s *memoryStore) SaveInspector(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("inspector"); err != nil {
		return err
	}
	s.session.InspectorName = name
	return nil
}

func (s *memoryStore) SaveSignature(_ context.Context, raster []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("signature"); err != nil {
		return err
	}
	s.session.Signature = raster
	return nil
}

func (s *memoryStore) SaveStarted(_ context.Context, started bool, date domain.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("started"); err != nil {
		return err
	}
	s.session.Started = started
	s.session.ReportDate = date
	return nil
}

func (s *memoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
	s.session = domain.NewSession()
	return nil
}

type fakeFrames struct {
	frame image.Image
	err   error
	stops int
}

func (f *fakeFrames) Frame(context.Context) (image.Image, error) {
	return f.frame, f.err
}

func (f *fakeFrames) Stop(context.Context) error {
	f.stops++
	return nil
}

type fakeRenderer struct {
	calls int
	docs  []domain.ReportDocument
	path  string
}

func (r *fakeRenderer) Render(_ context.Context, doc domain.ReportDocument, path string) (domain.RenderResult, error) {
	r.calls++
	r.docs = append(r.docs, doc)
	r.path = path
	return domain.RenderResult{Pages: 2 + (len(doc.Entries)+1)/2}, nil
}

type fakeArchive struct {
	entries []domain.ArchiveEntry
}

func (a *fakeArchive) Save(_ context.Context, entry domain.ArchiveEntry) (string, error) {
	a.entries = append(a.entries, entry)
	return "reports/note.md", nil
}

type seqIDs struct{ n int }

func (s *seqIDs) New() string {
	s.n++
	return fmt.Sprintf("img-%d", s.n)
}

type fixture struct {
	svc      *service.ReportService
	store    *memoryStore
	frames   *fakeFrames
	renderer *fakeRenderer
	archive  *fakeArchive
}

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 0x40, A: 0xff})
		}
	}
	return img
}

func newFixture(t *testing.T, opts service.Options) fixture {
	t.Helper()
	f := fixture{
		store:    newMemoryStore(),
		frames:   &fakeFrames{frame: gradient(64, 48)},
		renderer: &fakeRenderer{},
		archive:  &fakeArchive{},
	}
	if opts.ExportDir == "" {
		opts.ExportDir = t.TempDir()
	}
	f.svc = service.NewReportService(service.Dependencies{
		Store:    f.store,
		Frames:   f.frames,
		Renderer: f.renderer,
		Archive:  f.archive,
		Clock:    clock.Fixed{At: time.Date(2026, 5, 6, 9, 30, 0, 0, time.UTC)},
		IDs:      &seqIDs{},
	}, opts)
	return f
}

func startedFixture(t *testing.T) fixture {
	t.Helper()
	f := newFixture(t, service.Options{SquareCrop: true, AutoTitle: true})
	if _, err := f.svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return f
}

func capture(t *testing.T, f fixture, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, _, err := f.svc.Capture(context.Background(), ""); err != nil {
			t.Fatalf("capture %d: %v", i+1, err)
		}
	}
}

func TestStartSetsTodayAndPersistsFlag(t *testing.T) {
	t.Parallel()
	f := startedFixture(t)
	s := f.svc.Snapshot()
	if !s.Started || s.ReportDate.String() != "2026-05-06" {
		t.Fatalf("unexpected session %+v", s)
	}
	if !f.store.session.Started {
		t.Fatalf("expected started flag persisted")
	}
	if _, err := f.svc.Start(context.Background()); !errors.Is(err, apperrors.ErrReportInProgress) {
		t.Fatalf("expected ErrReportInProgress, got %v", err)
	}
}

func TestCaptureRequiresActiveReport(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.Options{AutoTitle: true})
	if _, _, err := f.svc.Capture(context.Background(), ""); !errors.Is(err, apperrors.ErrNoActiveReport) {
		t.Fatalf("expected ErrNoActiveReport, got %v", err)
	}
}

func TestCaptureStoresSquareImageWithDefaultTitle(t *testing.T) {
	t.Parallel()
	f := startedFixture(t)
	capture(t, f, 2)

	s := f.svc.Snapshot()
	if len(s.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(s.Images))
	}
	if s.Images[0].Title != "Image 1" || s.Images[1].Title != "Image 2" {
		t.Fatalf("unexpected titles %q %q", s.Images[0].Title, s.Images[1].Title)
	}
	img, err := png.Decode(bytes.NewReader(s.Images[0].Raster))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 48 || img.Bounds().Dy() != 48 {
		t.Fatalf("expected 48x48, got %v", img.Bounds())
	}
	if f.store.saves["images"] != 2 {
		t.Fatalf("expected every capture persisted, got %d saves", f.store.saves["images"])
	}
}

func TestCaptureWithoutAutoTitleNeedsTitle(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.Options{})
	if _, err := f.svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := f.svc.Capture(context.Background(), " "); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	captured, _, err := f.svc.Capture(context.Background(), "North wall")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if captured.Title != "North wall" {
		t.Fatalf("unexpected title %q", captured.Title)
	}
}

func TestCaptureRejectsEmptyFrame(t *testing.T) {
	t.Parallel()
	f := startedFixture(t)
	f.frames.frame = image.NewRGBA(image.Rect(0, 0, 0, 0))
	if _, _, err := f.svc.Capture(context.Background(), ""); !errors.Is(err, domain.ErrEmptyFrame) {
		t.Fatalf("expected ErrEmptyFrame, got %v", err)
	}
	if len(f.svc.Snapshot().Images) != 0 {
		t.Fatalf("expected no image to be added")
	}
}

func TestNewReportNeedsConfirmationAndClears(t *testing.T) {
	t.Parallel()
	f := startedFixture(t)
	capture(t, f, 1)

	if err := f.svc.NewReport(context.Background(), false); !errors.Is(err, apperrors.ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}
	if len(f.svc.Snapshot().Images) != 1 {
		t.Fatalf("expected images kept without confirmation")
	}

	if err := f.svc.NewReport(context.Background(), true); err != nil {
		t.Fatalf("new report: %v", err)
	}
	s := f.svc.Snapshot()
	if s.Started || len(s.Images) != 0 || s.AnnotationTarget != domain.NoTarget {
		t.Fatalf("expected a fresh session, got %+v", s)
	}
	if f.store.cleared != 1 || f.frames.stops != 1 {
		t.Fatalf("expected storage cleared and camera stopped, got cleared=%d stops=%d", f.store.cleared, f.frames.stops)
	}
}

func TestNewReportWithoutImagesNeedsNoConfirmation(t *testing.T) {
	t.Parallel()
	f := startedFixture(t)
	if err := f.svc.NewReport(context.Background(), false); err != nil {
		t.Fatalf("new report: %v", err)
	}
}

func TestClearAnnotationRestoresOriginalBytes(t *testing.T) {
	t.Parallel()
	f := startedFixture(t)
	capture(t, f, 1)
	ctx := context.Background()
	before := append([]byte(nil), f.svc.Snapshot().Images[0].Raster...)

	if _, err := f.svc.SelectAnnotation(ctx, 0); err != nil {
		t.Fatalf("select: %v", err)
	}
	for _, stroke := range [][2]domain.Point{{{X: 2, Y: 2}, {X: 40, Y: 40}}, {{X: 40, Y: 2}, {X: 2, Y: 40}}} {
		if err := f.svc.BeginStroke(stroke[0]); err != nil {
			t.Fatalf("begin: %v", err)
		}
		f.svc.ExtendStroke(stroke[1])
		if _, err := f.svc.EndStroke(ctx); err != nil {
			t.Fatalf("end: %v", err)
		}
	}

	annotated := f.svc.Snapshot().Images[0]
	if bytes.Equal(annotated.Raster, before) {
		t.Fatalf("expected annotation to change the raster")
	}
	if !bytes.Equal(annotated.Original, before) {
		t.Fatalf("expected original kept from before the first stroke")
	}
	if len(annotated.Overlay) == 0 {
		t.Fatalf("expected overlay stored")
	}

	if _, err := f.svc.ClearAnnotation(ctx, 0); err != nil {
		t.Fatalf("clear: %v", err)
	}
	cleared := f.svc.Snapshot().Images[0]
	if !bytes.Equal(cleared.Raster, before) {
		t.Fatalf("expected bit-identical restore")
	}
	if len(cleared.Overlay) != 0 || cleared.Annotated() {
		t.Fatalf("expected annotation state dropped")
	}
	if !bytes.Equal(f.store.session.Images[0].Raster, before) {
		t.Fatalf("expected restored raster persisted")
	}
}

func TestOriginalIsFirstWriteWins(t *testing.T) {
	t.Parallel()
	f := startedFixture(t)
	capture(t, f, 1)
	ctx := context.Background()
	before := f.svc.Snapshot().Images[0].Raster

	if _, err := f.svc.SelectAnnotation(ctx, 0); err != nil {
		t.Fatalf("select: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := f.svc.BeginStroke(domain.Point{X: float64(5 + i*10), Y: 10}); err != nil {
			t.Fatalf("begin: %v", err)
		}
		if _, err := f.svc.LeaveCanvas(ctx); err != nil {
			t.Fatalf("leave: %v", err)
		}
	}
	if !bytes.Equal(f.svc.Snapshot().Images[0].Original, before) {
		t.Fatalf("expected original to stay the pre-annotation raster")
	}
}

func TestSelectingAnotherImageFlattensStrokeInProgress(t *testing.T) {
	t.Parallel()
	f := startedFixture(t)
	capture(t, f, 2)
	ctx := context.Background()
	first := f.svc.Snapshot().Images[0].Raster

	if _, err := f.svc.SelectAnnotation(ctx, 0); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := f.svc.BeginStroke(domain.Point{X: 1, Y: 1}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	f.svc.ExtendStroke(domain.Point{X: 30, Y: 30})
	if !f.svc.Drawing() {
		t.Fatalf("expected drawing")
	}

	if _, err := f.svc.SelectAnnotation(ctx, 1); err != nil {
		t.Fatalf("select second: %v", err)
	}
	if f.svc.Drawing() {
		t.Fatalf("expected no stroke to straddle two images")
	}
	s := f.svc.Snapshot()
	if bytes.Equal(s.Images[0].Raster, first) {
		t.Fatalf("expected the abandoned stroke flattened into the first image")
	}
	if s.Images[1].Annotated() {
		t.Fatalf("expected the second image untouched")
	}
	if s.AnnotationTarget != 1 {
		t.Fatalf("expected target 1, got %d", s.AnnotationTarget)
	}
}

func TestDeleteAdjustsAnnotationTarget(t *testing.T) {
	t.Parallel()
	f := startedFixture(t)
	capture(t, f, 3)
	ctx := context.Background()

	if _, err := f.svc.SelectAnnotation(ctx, 2); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := f.svc.Delete(ctx, 0); err != nil {
		t.Fatalf("delete: %v", err)
	}
	s := f.svc.Snapshot()
	if s.AnnotationTarget != 1 || s.Images[0].Title != "Image 2" {
		t.Fatalf("unexpected session after delete: target=%d first=%q", s.AnnotationTarget, s.Images[0].Title)
	}
	if err := f.svc.BeginStroke(domain.Point{X: 3, Y: 3}); err != nil {
		t.Fatalf("expected canvas to follow its image, got %v", err)
	}
	if _, err := f.svc.EndStroke(ctx); err != nil {
		t.Fatalf("end: %v", err)
	}
	if !f.svc.Snapshot().Images[1].Annotated() {
		t.Fatalf("expected the stroke on the shifted target")
	}

	if _, err := f.svc.Delete(ctx, 1); err != nil {
		t.Fatalf("delete target: %v", err)
	}
	if got := f.svc.Snapshot().AnnotationTarget; got != domain.NoTarget {
		t.Fatalf("expected target cleared, got %d", got)
	}
	if err := f.svc.BeginStroke(domain.Point{X: 1, Y: 1}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected no canvas after target deleted, got %v", err)
	}
}

func TestExportWithoutSignatureFailsWithoutRendering(t *testing.T) {
	t.Parallel()
	f := startedFixture(t)
	ctx := context.Background()
	if _, err := f.svc.SetInspector(ctx, "Ada Lovelace"); err != nil {
		t.Fatalf("inspector: %v", err)
	}
	_, err := f.svc.Export(ctx)
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 1 || verr.Fields[0] != "signature" {
		t.Fatalf("expected only signature missing, got %v", err)
	}
	if f.renderer.calls != 0 || len(f.archive.entries) != 0 {
		t.Fatalf("expected nothing rendered or archived")
	}
}

func TestExportRendersValidSession(t *testing.T) {
	t.Parallel()
	f := startedFixture(t)
	capture(t, f, 3)
	ctx := context.Background()
	if _, err := f.svc.SetInspector(ctx, "Ada Lovelace"); err != nil {
		t.Fatalf("inspector: %v", err)
	}
	if _, err := f.svc.SetDate(ctx, "2026-05-01"); err != nil {
		t.Fatalf("date: %v", err)
	}
	if err := f.svc.BeginSignature(domain.Point{X: 10, Y: 10}); err != nil {
		t.Fatalf("sign: %v", err)
	}
	f.svc.ExtendSignature(domain.Point{X: 300, Y: 150})
	if _, err := f.svc.EndSignature(ctx); err != nil {
		t.Fatalf("end signature: %v", err)
	}

	result, err := f.svc.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Pages != 4 || result.NotePath == "" {
		t.Fatalf("unexpected result %+v", result)
	}
	doc := f.renderer.docs[0]
	if doc.InspectorName != "Ada Lovelace" || doc.ReportDate.String() != "2026-05-01" || len(doc.Entries) != 3 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Entries[2].Index != 3 || doc.Entries[2].Title != "Image 3" {
		t.Fatalf("unexpected last entry %+v", doc.Entries[2])
	}
	if f.archive.entries[0].PDFPath != result.Path {
		t.Fatalf("expected archive to point at %s", result.Path)
	}
}

func TestClearSignatureUnsetsStoredSignature(t *testing.T) {
	t.Parallel()
	f := startedFixture(t)
	ctx := context.Background()
	if err := f.svc.BeginSignature(domain.Point{X: 10, Y: 10}); err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := f.svc.LeaveSignature(ctx); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if len(f.store.session.Signature) == 0 {
		t.Fatalf("expected signature persisted")
	}
	if _, err := f.svc.ClearSignature(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(f.svc.Snapshot().Signature) != 0 || len(f.store.session.Signature) != 0 {
		t.Fatalf("expected signature unset")
	}
}

func TestStorageExhaustionBecomesWarning(t *testing.T) {
	t.Parallel()
	f := startedFixture(t)
	f.store.failWith = apperrors.ErrStorageExhausted

	_, warning, err := f.svc.Capture(context.Background(), "")
	if err != nil {
		t.Fatalf("expected capture to succeed in memory, got %v", err)
	}
	if warning == "" {
		t.Fatalf("expected storage warning")
	}
	if len(f.svc.Snapshot().Images) != 1 {
		t.Fatalf("expected in-memory session intact")
	}
}

func TestLoadRehydratesFromStore(t *testing.T) {
	t.Parallel()
	f := newFixture(t, service.Options{AutoTitle: true})
	f.store.session = domain.ReportSession{
		Images:        []domain.CapturedImage{{ID: "a", Title: "Roof"}},
		InspectorName: "Grace",
		Signature:     []byte{1, 2},
		Started:       true,
	}
	if err := f.svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	s := f.svc.Snapshot()
	if !s.Started || s.InspectorName != "Grace" || len(s.Images) != 1 || s.ReportDate.String() != "2026-05-06" {
		t.Fatalf("unexpected session %+v", s)
	}
	if s.AnnotationTarget != domain.NoTarget {
		t.Fatalf("expected no annotation target after load")
	}
}

func TestReportDateSurvivesReloadOnLaterDay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := startedFixture(t)
	if _, err := f.svc.SetDate(ctx, "2020-01-02"); err != nil {
		t.Fatalf("date: %v", err)
	}

	later := service.NewReportService(service.Dependencies{
		Store: f.store,
		Clock: clock.Fixed{At: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)},
	}, service.Options{})
	if err := later.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := later.Snapshot().ReportDate.String(); got != "2020-01-02" {
		t.Fatalf("expected edited date after reload, got %q", got)
	}
}

func TestStartDateSurvivesReload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := startedFixture(t)

	later := service.NewReportService(service.Dependencies{
		Store: f.store,
		Clock: clock.Fixed{At: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)},
	}, service.Options{})
	if err := later.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := later.Snapshot().ReportDate.String(); got != "2026-05-06" {
		t.Fatalf("expected start date after reload, got %q", got)
	}
}
