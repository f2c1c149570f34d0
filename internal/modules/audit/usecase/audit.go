package usecase

import (
	"context"
	"fmt"
	"image"
	"os"

	"siteaudit/internal/modules/audit/domain"
	"siteaudit/internal/modules/audit/dto"
	auditin "siteaudit/internal/modules/audit/port/in"
	"siteaudit/internal/modules/audit/service"
	apperrors "siteaudit/internal/platform/errors"
)

type Interactor struct {
	svc *service.ReportService
}

func NewInteractor(svc *service.ReportService) auditin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Load(ctx context.Context) (dto.SessionOutput, error) {
	if err := i.svc.Load(ctx); err != nil {
		return dto.SessionOutput{}, err
	}
	return i.session(), nil
}

func (i *Interactor) Status(_ context.Context) (dto.SessionOutput, error) {
	return i.session(), nil
}

func (i *Interactor) Start(ctx context.Context) (dto.MutationOutput, error) {
	warning, err := i.svc.Start(ctx)
	return i.mutation(warning, err)
}

func (i *Interactor) NewReport(ctx context.Context, confirm bool) (dto.SessionOutput, error) {
	if err := i.svc.NewReport(ctx, confirm); err != nil {
		return dto.SessionOutput{}, err
	}
	return i.session(), nil
}

func (i *Interactor) Capture(ctx context.Context, input dto.CaptureInput) (dto.MutationOutput, error) {
	_, warning, err := i.svc.Capture(ctx, input.Title)
	return i.mutation(warning, err)
}

func (i *Interactor) Import(ctx context.Context, input dto.ImportInput) (dto.MutationOutput, error) {
	raw, err := os.ReadFile(input.Path)
	if err != nil {
		return dto.MutationOutput{}, fmt.Errorf("read image: %w", err)
	}
	_, warning, err := i.svc.Import(ctx, raw, input.Title)
	return i.mutation(warning, err)
}

func (i *Interactor) Rename(ctx context.Context, input dto.RenameInput) (dto.MutationOutput, error) {
	warning, err := i.svc.Rename(ctx, input.Position-1, input.Title)
	return i.mutation(warning, err)
}

func (i *Interactor) Delete(ctx context.Context, position int) (dto.MutationOutput, error) {
	warning, err := i.svc.Delete(ctx, position-1)
	return i.mutation(warning, err)
}

func (i *Interactor) Raster(_ context.Context, position int) ([]byte, error) {
	session := i.svc.Snapshot()
	if err := session.CheckIndex(position - 1); err != nil {
		return nil, err
	}
	return session.Images[position-1].Raster, nil
}

func (i *Interactor) SelectAnnotation(ctx context.Context, position int) (dto.MutationOutput, error) {
	warning, err := i.svc.SelectAnnotation(ctx, position-1)
	return i.mutation(warning, err)
}

func (i *Interactor) BeginStroke(_ context.Context, point dto.PointInput) error {
	size, ok := i.svc.CanvasSize()
	if !ok {
		return fmt.Errorf("%w: no image selected for annotation", apperrors.ErrInvalidInput)
	}
	return i.svc.BeginStroke(mapPoint(point, size.X, size.Y))
}

func (i *Interactor) ExtendStroke(_ context.Context, point dto.PointInput) error {
	size, ok := i.svc.CanvasSize()
	if !ok {
		return nil
	}
	i.svc.ExtendStroke(mapPoint(point, size.X, size.Y))
	return nil
}

func (i *Interactor) EndStroke(ctx context.Context) (dto.MutationOutput, error) {
	warning, err := i.svc.EndStroke(ctx)
	return i.mutation(warning, err)
}

func (i *Interactor) LeaveCanvas(ctx context.Context) (dto.MutationOutput, error) {
	warning, err := i.svc.LeaveCanvas(ctx)
	return i.mutation(warning, err)
}

func (i *Interactor) ClearAnnotation(ctx context.Context, position int) (dto.MutationOutput, error) {
	warning, err := i.svc.ClearAnnotation(ctx, position-1)
	return i.mutation(warning, err)
}

func (i *Interactor) SetInspector(ctx context.Context, name string) (dto.MutationOutput, error) {
	warning, err := i.svc.SetInspector(ctx, name)
	return i.mutation(warning, err)
}

func (i *Interactor) SetDate(ctx context.Context, date string) (dto.MutationOutput, error) {
	warning, err := i.svc.SetDate(ctx, date)
	return i.mutation(warning, err)
}

func (i *Interactor) BeginSignature(_ context.Context, point dto.PointInput) error {
	return i.svc.BeginSignature(mapPoint(point, domain.SignatureWidth, domain.SignatureHeight))
}

func (i *Interactor) ExtendSignature(_ context.Context, point dto.PointInput) error {
	i.svc.ExtendSignature(mapPoint(point, domain.SignatureWidth, domain.SignatureHeight))
	return nil
}

func (i *Interactor) EndSignature(ctx context.Context) (dto.MutationOutput, error) {
	warning, err := i.svc.EndSignature(ctx)
	return i.mutation(warning, err)
}

func (i *Interactor) LeaveSignature(ctx context.Context) (dto.MutationOutput, error) {
	warning, err := i.svc.LeaveSignature(ctx)
	return i.mutation(warning, err)
}

func (i *Interactor) ImportSignature(ctx context.Context, path string) (dto.MutationOutput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return dto.MutationOutput{}, fmt.Errorf("read signature: %w", err)
	}
	warning, err := i.svc.ImportSignature(ctx, raw)
	return i.mutation(warning, err)
}

func (i *Interactor) ClearSignature(ctx context.Context) (dto.MutationOutput, error) {
	warning, err := i.svc.ClearSignature(ctx)
	return i.mutation(warning, err)
}

func (i *Interactor) SignatureRaster(_ context.Context) ([]byte, error) {
	session := i.svc.Snapshot()
	if len(session.Signature) == 0 {
		return nil, apperrors.ErrAbsent
	}
	return session.Signature, nil
}

func (i *Interactor) Export(ctx context.Context) (dto.ExportOutput, error) {
	result, err := i.svc.Export(ctx)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	out := dto.ExportOutput{
		Path:     result.Path,
		NotePath: result.NotePath,
		Pages:    result.Pages,
		Warning:  result.Warning,
	}
	for _, s := range result.Skipped {
		out.Skipped = append(out.Skipped, dto.SkippedOutput{Position: s.Index, Title: s.Title, Reason: s.Reason})
	}
	return out, nil
}

func (i *Interactor) Inspect(ctx context.Context, path string) (dto.InspectOutput, error) {
	inspection, err := i.svc.Inspect(ctx, path)
	if err != nil {
		return dto.InspectOutput{}, err
	}
	return dto.InspectOutput{
		Path:      inspection.Path,
		Pages:     inspection.Pages,
		FirstPage: inspection.FirstPage,
		Valid:     inspection.Valid,
		Problem:   inspection.Problem,
	}, nil
}

func (i *Interactor) mutation(warning string, err error) (dto.MutationOutput, error) {
	if err != nil {
		return dto.MutationOutput{}, err
	}
	return dto.MutationOutput{Session: i.session(), Warning: warning}, nil
}

func (i *Interactor) session() dto.SessionOutput {
	s := i.svc.Snapshot()
	out := dto.SessionOutput{
		Started:          s.Started,
		InspectorName:    s.InspectorName,
		ReportDate:       s.ReportDate.String(),
		HasSignature:     len(s.Signature) > 0,
		Images:           make([]dto.ImageOutput, 0, len(s.Images)),
		AnnotationTarget: s.AnnotationTarget + 1,
		Drawing:          i.svc.Drawing(),
		Missing:          s.MissingFields(),
	}
	for idx, img := range s.Images {
		out.Images = append(out.Images, dto.ImageOutput{
			Position:   idx + 1,
			ID:         img.ID,
			Title:      img.Title,
			Annotated:  img.Annotated(),
			HasOverlay: len(img.Overlay) > 0,
			Bytes:      len(img.Raster),
			CapturedAt: img.CapturedAt,
		})
	}
	return out
}

func mapPoint(p dto.PointInput, width, height int) domain.Point {
	pt := domain.Point{X: p.X, Y: p.Y}
	if p.DisplayWidth <= 0 || p.DisplayHeight <= 0 {
		return pt
	}
	return domain.MapPoint(pt, image.Pt(p.DisplayWidth, p.DisplayHeight), image.Pt(width, height))
}
