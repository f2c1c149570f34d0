package in

import (
	"context"

	"siteaudit/internal/modules/audit/dto"
	auditin "siteaudit/internal/modules/audit/port/in"
)

// TUIHandler serves the terminal UI. Pointer positions arrive in terminal
// cells together with the size of the area they were drawn in.
type TUIHandler struct {
	usecase auditin.Usecase
}

func NewTUIHandler(usecase auditin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) Load(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.Load(ctx)
}

func (h TUIHandler) Status(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.Status(ctx)
}

func (h TUIHandler) Start(ctx context.Context) (dto.MutationOutput, error) {
	return h.usecase.Start(ctx)
}

// Restart discards the current report and starts a fresh one.
func (h TUIHandler) Restart(ctx context.Context, confirm bool) (dto.MutationOutput, error) {
	if _, err := h.usecase.NewReport(ctx, confirm); err != nil {
		return dto.MutationOutput{}, err
	}
	return h.usecase.Start(ctx)
}

func (h TUIHandler) Capture(ctx context.Context, title string) (dto.MutationOutput, error) {
	return h.usecase.Capture(ctx, dto.CaptureInput{Title: title})
}

func (h TUIHandler) Rename(ctx context.Context, position int, title string) (dto.MutationOutput, error) {
	return h.usecase.Rename(ctx, dto.RenameInput{Position: position, Title: title})
}

func (h TUIHandler) Delete(ctx context.Context, position int) (dto.MutationOutput, error) {
	return h.usecase.Delete(ctx, position)
}

func (h TUIHandler) Raster(ctx context.Context, position int) ([]byte, error) {
	return h.usecase.Raster(ctx, position)
}

func (h TUIHandler) SelectAnnotation(ctx context.Context, position int) (dto.MutationOutput, error) {
	return h.usecase.SelectAnnotation(ctx, position)
}

func (h TUIHandler) Press(ctx context.Context, x, y, width, height int) error {
	return h.usecase.BeginStroke(ctx, cellPoint(x, y, width, height))
}

func (h TUIHandler) Drag(ctx context.Context, x, y, width, height int) error {
	return h.usecase.ExtendStroke(ctx, cellPoint(x, y, width, height))
}

func (h TUIHandler) Release(ctx context.Context) (dto.MutationOutput, error) {
	return h.usecase.EndStroke(ctx)
}

func (h TUIHandler) Leave(ctx context.Context) (dto.MutationOutput, error) {
	return h.usecase.LeaveCanvas(ctx)
}

func (h TUIHandler) ClearAnnotation(ctx context.Context, position int) (dto.MutationOutput, error) {
	return h.usecase.ClearAnnotation(ctx, position)
}

func (h TUIHandler) SetInspector(ctx context.Context, name string) (dto.MutationOutput, error) {
	return h.usecase.SetInspector(ctx, name)
}

func (h TUIHandler) SetDate(ctx context.Context, date string) (dto.MutationOutput, error) {
	return h.usecase.SetDate(ctx, date)
}

func (h TUIHandler) SignPress(ctx context.Context, x, y, width, height int) error {
	return h.usecase.BeginSignature(ctx, cellPoint(x, y, width, height))
}

func (h TUIHandler) SignDrag(ctx context.Context, x, y, width, height int) error {
	return h.usecase.ExtendSignature(ctx, cellPoint(x, y, width, height))
}

func (h TUIHandler) SignRelease(ctx context.Context) (dto.MutationOutput, error) {
	return h.usecase.EndSignature(ctx)
}

func (h TUIHandler) SignLeave(ctx context.Context) (dto.MutationOutput, error) {
	return h.usecase.LeaveSignature(ctx)
}

func (h TUIHandler) ClearSignature(ctx context.Context) (dto.MutationOutput, error) {
	return h.usecase.ClearSignature(ctx)
}

func (h TUIHandler) SignatureRaster(ctx context.Context) ([]byte, error) {
	return h.usecase.SignatureRaster(ctx)
}

func (h TUIHandler) Export(ctx context.Context) (dto.ExportOutput, error) {
	return h.usecase.Export(ctx)
}

// cellPoint targets the centre of a terminal cell.
func cellPoint(x, y, width, height int) dto.PointInput {
	return dto.PointInput{X: float64(x) + 0.5, Y: float64(y) + 0.5, DisplayWidth: width, DisplayHeight: height}
}
