package in

import (
	"context"

	"siteaudit/internal/modules/audit/dto"
)

type Usecase interface {
	Load(ctx context.Context) (dto.SessionOutput, error)
	Status(ctx context.Context) (dto.SessionOutput, error)
	Start(ctx context.Context) (dto.MutationOutput, error)
	NewReport(ctx context.Context, confirm bool) (dto.SessionOutput, error)

	Capture(ctx context.Context, input dto.CaptureInput) (dto.MutationOutput, error)
	Import(ctx context.Context, input dto.ImportInput) (dto.MutationOutput, error)
	Rename(ctx context.Context, input dto.RenameInput) (dto.MutationOutput, error)
	Delete(ctx context.Context, position int) (dto.MutationOutput, error)
	Raster(ctx context.Context, position int) ([]byte, error)

	SelectAnnotation(ctx context.Context, position int) (dto.MutationOutput, error)
	BeginStroke(ctx context.Context, point dto.PointInput) error
	ExtendStroke(ctx context.Context, point dto.PointInput) error
	EndStroke(ctx context.Context) (dto.MutationOutput, error)
	LeaveCanvas(ctx context.Context) (dto.MutationOutput, error)
	ClearAnnotation(ctx context.Context, position int) (dto.MutationOutput, error)

	SetInspector(ctx context.Context, name string) (dto.MutationOutput, error)
	SetDate(ctx context.Context, date string) (dto.MutationOutput, error)

	BeginSignature(ctx context.Context, point dto.PointInput) error
	ExtendSignature(ctx context.Context, point dto.PointInput) error
	EndSignature(ctx context.Context) (dto.MutationOutput, error)
	LeaveSignature(ctx context.Context) (dto.MutationOutput, error)
	ImportSignature(ctx context.Context, path string) (dto.MutationOutput, error)
	ClearSignature(ctx context.Context) (dto.MutationOutput, error)
	SignatureRaster(ctx context.Context) ([]byte, error)

	Export(ctx context.Context) (dto.ExportOutput, error)
	Inspect(ctx context.Context, path string) (dto.InspectOutput, error)
}
