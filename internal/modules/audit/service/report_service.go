package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"siteaudit/internal/modules/audit/domain"
	auditout "siteaudit/internal/modules/audit/port/out"
	"siteaudit/internal/platform/clock"
	apperrors "siteaudit/internal/platform/errors"
	"siteaudit/internal/platform/id"
	"siteaudit/internal/platform/logging"
)

const storageWarning = "Local storage is full. Your changes are kept for now but may be lost if the app restarts. Export the report soon."

type Options struct {
	SquareCrop bool
	AutoTitle  bool
	// Quality below 1 re-encodes captured stills to save space.
	Quality   float64
	MaxSide   int
	ExportDir string
}

type Dependencies struct {
	Store     auditout.SessionStore
	Frames    auditout.FrameSource
	Renderer  auditout.ReportRenderer
	Archive   auditout.ReportArchive
	Inspector auditout.DocumentInspector
	Clock     clock.Clock
	IDs       id.Generator
	Logger    *zap.Logger
}

// ReportService owns the one active report session. Every operation runs
// under mu, so UI events and storage writes apply in call order.
type ReportService struct {
	mu        sync.Mutex
	deps      Dependencies
	opts      Options
	session   domain.ReportSession
	canvas    *domain.Canvas
	signature *domain.SignaturePad
	logger    *zap.Logger
}

func NewReportService(deps Dependencies, opts Options) *ReportService {
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	if deps.IDs == nil {
		deps.IDs = id.UUIDv7{}
	}
	return &ReportService{
		deps:    deps,
		opts:    opts,
		session: domain.NewSession(),
		logger:  logging.OrNop(deps.Logger),
	}
}

// Load rehydrates the session from storage. A report saved without a date
// gets today.
func (s *ReportService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.deps.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load report session: %w", err)
	}
	session.AnnotationTarget = domain.NoTarget
	if session.Images == nil {
		session.Images = []domain.CapturedImage{}
	}
	if session.ReportDate.IsZero() {
		session.ReportDate = domain.DateOf(s.deps.Clock.Now())
	}
	s.session = session
	s.canvas = nil
	s.signature = nil
	return nil
}

func (s *ReportService) Snapshot() domain.ReportSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.session
	out.Images = append([]domain.CapturedImage(nil), s.session.Images...)
	return out
}

// Drawing reports whether an annotation stroke is in progress.
func (s *ReportService) Drawing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas != nil && s.canvas.Drawing()
}

func (s *ReportService) CanvasSize() (image.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas == nil {
		return image.Point{}, false
	}
	return s.canvas.Size(), true
}

func (s *ReportService) Start(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Started {
		return "", apperrors.ErrReportInProgress
	}
	s.session.Started = true
	s.session.ReportDate = domain.DateOf(s.deps.Clock.Now())
	return s.persist("report flag", s.deps.Store.SaveStarted(ctx, true, s.session.ReportDate)), nil
}

// NewReport discards the current session and clears storage. Discarding
// captured images needs confirm.
func (s *ReportService) NewReport(ctx context.Context, confirm bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.session.Images) > 0 && !confirm {
		return fmt.Errorf("%w: %d captured images would be discarded", apperrors.ErrConfirmationRequired, len(s.session.Images))
	}
	if s.deps.Frames != nil {
		if err := s.deps.Frames.Stop(ctx); err != nil {
			s.logger.Warn("stop camera for new report", zap.Error(err))
		}
	}
	s.canvas = nil
	s.signature = nil
	s.session = domain.NewSession()
	if err := s.deps.Store.Clear(ctx); err != nil {
		return fmt.Errorf("clear report storage: %w", err)
	}
	return nil
}

// Capture stores the current camera frame as a new image.
func (s *ReportService) Capture(ctx context.Context, title string) (domain.CapturedImage, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStarted(); err != nil {
		return domain.CapturedImage{}, "", err
	}
	if s.deps.Frames == nil {
		return domain.CapturedImage{}, "", fmt.Errorf("capture: no camera configured")
	}
	frame, err := s.deps.Frames.Frame(ctx)
	if err != nil {
		return domain.CapturedImage{}, "", fmt.Errorf("capture: %w", err)
	}
	return s.addFrameLocked(ctx, frame, title)
}

// Import adds an encoded image as if it had been captured.
func (s *ReportService) Import(ctx context.Context, raw []byte, title string) (domain.CapturedImage, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStarted(); err != nil {
		return domain.CapturedImage{}, "", err
	}
	img, err := domain.DecodeRaster(raw)
	if err != nil {
		return domain.CapturedImage{}, "", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return s.addFrameLocked(ctx, img, title)
}

func (s *ReportService) addFrameLocked(ctx context.Context, frame image.Image, title string) (domain.CapturedImage, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		if !s.opts.AutoTitle {
			return domain.CapturedImage{}, "", fmt.Errorf("%w: title is required", apperrors.ErrInvalidInput)
		}
		title = domain.DefaultTitle(len(s.session.Images) + 1)
	}
	raster, err := domain.CaptureFrame(frame, domain.CaptureOptions{SquareCrop: s.opts.SquareCrop, MaxSide: s.opts.MaxSide})
	if err != nil {
		return domain.CapturedImage{}, "", err
	}
	if s.opts.Quality > 0 && s.opts.Quality < 1 {
		raster = domain.Compress(raster, s.opts.Quality)
	}
	captured := domain.CapturedImage{
		ID:         s.deps.IDs.New(),
		Title:      title,
		Raster:     raster,
		CapturedAt: s.deps.Clock.Now(),
	}
	s.session.Images = append(s.session.Images, captured)
	return captured, s.persistImages(ctx), nil
}

func (s *ReportService) Rename(ctx context.Context, index int, title string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.CheckIndex(index); err != nil {
		return "", err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", apperrors.ErrInvalidInput)
	}
	s.session.Images[index].Title = title
	return s.persistImages(ctx), nil
}

func (s *ReportService) Delete(ctx context.Context, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.CheckIndex(index); err != nil {
		return "", err
	}
	if err := s.finishStrokeLocked(); err != nil {
		return "", err
	}
	if _, err := s.session.Delete(index); err != nil {
		return "", err
	}
	if s.session.AnnotationTarget == domain.NoTarget {
		s.canvas = nil
	}
	return s.persistImages(ctx), nil
}

// SelectAnnotation makes image index the annotation target. A stroke in
// progress on the previous target is flattened into that image first.
func (s *ReportService) SelectAnnotation(ctx context.Context, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.CheckIndex(index); err != nil {
		return "", err
	}
	flushed := s.canvas != nil && s.canvas.Drawing()
	if err := s.finishStrokeLocked(); err != nil {
		return "", err
	}
	img := s.session.Images[index]
	canvas, err := domain.NewCanvas(img.Base(), img.Overlay, domain.AnnotationPen)
	if err != nil {
		return "", fmt.Errorf("open image %d for annotation: %w", index+1, err)
	}
	s.canvas = canvas
	s.session.AnnotationTarget = index
	if flushed {
		return s.persistImages(ctx), nil
	}
	return "", nil
}

// BeginStroke starts a stroke at p, in canvas pixels, on the current target.
func (s *ReportService) BeginStroke(p domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.canvas == nil {
		return fmt.Errorf("%w: no image selected for annotation", apperrors.ErrInvalidInput)
	}
	img := &s.session.Images[s.session.AnnotationTarget]
	if !img.Annotated() {
		img.Original = img.Raster
	}
	s.canvas.BeginStroke(p)
	return nil
}

func (s *ReportService) ExtendStroke(p domain.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canvas != nil {
		s.canvas.ExtendStroke(p)
	}
}

func (s *ReportService) EndStroke(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.canvas == nil || !s.canvas.Drawing() {
		return "", nil
	}
	if err := s.finishStrokeLocked(); err != nil {
		return "", err
	}
	return s.persistImages(ctx), nil
}

// LeaveCanvas ends the stroke exactly like a release.
func (s *ReportService) LeaveCanvas(ctx context.Context) (string, error) {
	return s.EndStroke(ctx)
}

// ClearAnnotation restores the pre-annotation raster when one was kept,
// otherwise it only drops the strokes.
func (s *ReportService) ClearAnnotation(ctx context.Context, index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.CheckIndex(index); err != nil {
		return "", err
	}
	img := &s.session.Images[index]
	if img.Annotated() {
		img.Raster = img.Original
		img.Original = nil
	}
	img.Overlay = nil
	if s.session.AnnotationTarget == index && s.canvas != nil {
		canvas, err := domain.NewCanvas(img.Base(), nil, domain.AnnotationPen)
		if err != nil {
			return "", fmt.Errorf("reload image %d: %w", index+1, err)
		}
		s.canvas = canvas
	}
	return s.persistImages(ctx), nil
}

func (s *ReportService) SetInspector(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.InspectorName = strings.TrimSpace(name)
	return s.persist("inspector name", s.deps.Store.SaveInspector(ctx, s.session.InspectorName)), nil
}

// SetDate changes the report date. It is stored with the started flag, so
// it only persists once the report is started.
func (s *ReportService) SetDate(ctx context.Context, raw string) (string, error) {
	date, err := domain.ParseDate(raw)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.ReportDate = date
	if !s.session.Started {
		return "", nil
	}
	return s.persist("report date", s.deps.Store.SaveStarted(ctx, true, date)), nil
}

func (s *ReportService) BeginSignature(p domain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.signature == nil {
		pad, err := domain.NewSignaturePad(s.session.Signature)
		if err != nil {
			return fmt.Errorf("open signature pad: %w", err)
		}
		s.signature = pad
	}
	s.signature.BeginStroke(p)
	return nil
}

func (s *ReportService) ExtendSignature(p domain.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signature != nil {
		s.signature.ExtendStroke(p)
	}
}

func (s *ReportService) EndSignature(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.signature == nil {
		return "", nil
	}
	raster, ok, err := s.signature.EndStroke()
	if err != nil {
		return "", fmt.Errorf("flatten signature: %w", err)
	}
	if !ok {
		return "", nil
	}
	s.session.Signature = raster
	return s.persist("signature", s.deps.Store.SaveSignature(ctx, raster)), nil
}

func (s *ReportService) LeaveSignature(ctx context.Context) (string, error) {
	return s.EndSignature(ctx)
}

// ImportSignature replaces the signature with an encoded image.
func (s *ReportService) ImportSignature(ctx context.Context, raw []byte) (string, error) {
	img, err := domain.DecodeRaster(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	raster, err := domain.EncodePNG(domain.Opaque(img))
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signature = nil
	s.session.Signature = raster
	return s.persist("signature", s.deps.Store.SaveSignature(ctx, raster)), nil
}

func (s *ReportService) ClearSignature(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.signature != nil {
		s.signature.Clear()
	}
	s.session.Signature = nil
	return s.persist("signature", s.deps.Store.SaveSignature(ctx, nil)), nil
}

type ExportResult struct {
	Path     string
	NotePath string
	Pages    int
	Skipped  []domain.SkippedEntry
	Warning  string
}

// Export validates the session and writes the report document. A session
// missing its inspector, date or signature produces no file.
func (s *ReportService) Export(ctx context.Context) (ExportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	warning := ""
	if s.canvas != nil && s.canvas.Drawing() {
		if err := s.finishStrokeLocked(); err != nil {
			return ExportResult{}, err
		}
		warning = s.persistImages(ctx)
	}
	if err := s.session.Validate(); err != nil {
		return ExportResult{}, err
	}

	now := s.deps.Clock.Now()
	doc := domain.NewDocument(s.session, now)
	path := filepath.Join(s.opts.ExportDir, domain.ReportFileName)
	rendered, err := s.deps.Renderer.Render(ctx, doc, path)
	if err != nil {
		return ExportResult{}, fmt.Errorf("render report: %w", err)
	}
	for _, skipped := range rendered.Skipped {
		s.logger.Warn("skipped report entry",
			zap.Int("index", skipped.Index),
			zap.String("title", skipped.Title),
			zap.String("reason", skipped.Reason),
		)
	}

	result := ExportResult{Path: path, Pages: rendered.Pages, Skipped: rendered.Skipped, Warning: warning}
	if s.deps.Archive != nil {
		titles := make([]string, 0, len(doc.Entries))
		for _, entry := range doc.Entries {
			titles = append(titles, entry.Title)
		}
		notePath, err := s.deps.Archive.Save(ctx, domain.ArchiveEntry{
			InspectorName: s.session.InspectorName,
			ReportDate:    s.session.ReportDate,
			GeneratedAt:   now,
			ImageTitles:   titles,
			Pages:         rendered.Pages,
			Skipped:       rendered.Skipped,
			PDFPath:       path,
		})
		if err != nil {
			s.logger.Warn("write report archive note", zap.Error(err))
		} else {
			result.NotePath = notePath
		}
	}
	return result, nil
}

// Inspect reads back an exported report. An empty path means the default
// export location.
func (s *ReportService) Inspect(ctx context.Context, path string) (domain.Inspection, error) {
	if strings.TrimSpace(path) == "" {
		path = filepath.Join(s.opts.ExportDir, domain.ReportFileName)
	}
	if s.deps.Inspector == nil {
		return domain.Inspection{}, fmt.Errorf("inspect report: no inspector configured")
	}
	return s.deps.Inspector.Inspect(ctx, path)
}

func (s *ReportService) requireStarted() error {
	if !s.session.Started {
		return apperrors.ErrNoActiveReport
	}
	return nil
}

// finishStrokeLocked flattens a stroke in progress into the current target.
// The caller persists the images.
func (s *ReportService) finishStrokeLocked() error {
	if s.canvas == nil || !s.canvas.Drawing() {
		return nil
	}
	flat, ok, err := s.canvas.EndStroke()
	if err != nil {
		return fmt.Errorf("flatten annotation: %w", err)
	}
	if !ok {
		return nil
	}
	img := &s.session.Images[s.session.AnnotationTarget]
	img.Raster = flat.Raster
	img.Overlay = flat.Overlay
	return nil
}

func (s *ReportService) persistImages(ctx context.Context) string {
	return s.persist("captured images", s.deps.Store.SaveImages(ctx, s.session.Images))
}

// persist turns a failed write into a user-visible warning. The in-memory
// session stays intact either way.
func (s *ReportService) persist(what string, err error) string {
	if err == nil {
		return ""
	}
	s.logger.Warn("persist report session", zap.String("record", what), zap.Error(err))
	if errors.Is(err, apperrors.ErrStorageExhausted) {
		return storageWarning
	}
	return fmt.Sprintf("Could not save %s: %v", what, err)
}
