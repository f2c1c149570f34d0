package in

import (
	"context"
	"fmt"

	"siteaudit/internal/modules/audit/dto"
	auditin "siteaudit/internal/modules/audit/port/in"
)

type CLIHandler struct {
	usecase auditin.Usecase
}

func NewCLIHandler(usecase auditin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Load(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.Load(ctx)
}

func (h CLIHandler) Start(ctx context.Context) (dto.MutationOutput, error) {
	return h.usecase.Start(ctx)
}

func (h CLIHandler) NewReport(ctx context.Context, confirm bool) (dto.SessionOutput, error) {
	return h.usecase.NewReport(ctx, confirm)
}

func (h CLIHandler) Capture(ctx context.Context, title string) (dto.MutationOutput, error) {
	return h.usecase.Capture(ctx, dto.CaptureInput{Title: title})
}

func (h CLIHandler) Import(ctx context.Context, path, title string) (dto.MutationOutput, error) {
	return h.usecase.Import(ctx, dto.ImportInput{Path: path, Title: title})
}

func (h CLIHandler) Rename(ctx context.Context, position int, title string) (dto.MutationOutput, error) {
	return h.usecase.Rename(ctx, dto.RenameInput{Position: position, Title: title})
}

func (h CLIHandler) Delete(ctx context.Context, position int) (dto.MutationOutput, error) {
	return h.usecase.Delete(ctx, position)
}

// Annotate draws each stroke, given in image pixels, onto image position.
func (h CLIHandler) Annotate(ctx context.Context, position int, strokes [][]dto.PointInput) (dto.MutationOutput, error) {
	out, err := h.usecase.SelectAnnotation(ctx, position)
	if err != nil {
		return dto.MutationOutput{}, err
	}
	for i, stroke := range strokes {
		if len(stroke) == 0 {
			continue
		}
		if err := h.usecase.BeginStroke(ctx, stroke[0]); err != nil {
			return dto.MutationOutput{}, fmt.Errorf("stroke %d: %w", i+1, err)
		}
		for _, p := range stroke[1:] {
			if err := h.usecase.ExtendStroke(ctx, p); err != nil {
				return dto.MutationOutput{}, fmt.Errorf("stroke %d: %w", i+1, err)
			}
		}
		out, err = h.usecase.EndStroke(ctx)
		if err != nil {
			return dto.MutationOutput{}, fmt.Errorf("stroke %d: %w", i+1, err)
		}
	}
	return out, nil
}

func (h CLIHandler) ClearAnnotation(ctx context.Context, position int) (dto.MutationOutput, error) {
	return h.usecase.ClearAnnotation(ctx, position)
}

func (h CLIHandler) SetInspector(ctx context.Context, name string) (dto.MutationOutput, error) {
	return h.usecase.SetInspector(ctx, name)
}

func (h CLIHandler) SetDate(ctx context.Context, date string) (dto.MutationOutput, error) {
	return h.usecase.SetDate(ctx, date)
}

// Sign draws each stroke, given in signature pad pixels.
func (h CLIHandler) Sign(ctx context.Context, strokes [][]dto.PointInput) (dto.MutationOutput, error) {
	out, err := h.usecase.Status(ctx)
	if err != nil {
		return dto.MutationOutput{}, err
	}
	result := dto.MutationOutput{Session: out}
	for i, stroke := range strokes {
		if len(stroke) == 0 {
			continue
		}
		if err := h.usecase.BeginSignature(ctx, stroke[0]); err != nil {
			return dto.MutationOutput{}, fmt.Errorf("stroke %d: %w", i+1, err)
		}
		for _, p := range stroke[1:] {
			if err := h.usecase.ExtendSignature(ctx, p); err != nil {
				return dto.MutationOutput{}, fmt.Errorf("stroke %d: %w", i+1, err)
			}
		}
		result, err = h.usecase.EndSignature(ctx)
		if err != nil {
			return dto.MutationOutput{}, fmt.Errorf("stroke %d: %w", i+1, err)
		}
	}
	return result, nil
}

func (h CLIHandler) ImportSignature(ctx context.Context, path string) (dto.MutationOutput, error) {
	return h.usecase.ImportSignature(ctx, path)
}

func (h CLIHandler) ClearSignature(ctx context.Context) (dto.MutationOutput, error) {
	return h.usecase.ClearSignature(ctx)
}

func (h CLIHandler) Export(ctx context.Context) (dto.ExportOutput, error) {
	return h.usecase.Export(ctx)
}

func (h CLIHandler) Inspect(ctx context.Context, path string) (dto.InspectOutput, error) {
	return h.usecase.Inspect(ctx, path)
}

func (h CLIHandler) Status(ctx context.Context) (dto.SessionOutput, error) {
	return h.usecase.Status(ctx)
}
