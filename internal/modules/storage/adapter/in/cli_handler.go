package in

import (
	"context"

	"siteaudit/internal/modules/storage/dto"
	storagein "siteaudit/internal/modules/storage/port/in"
)

type CLIHandler struct {
	usecase storagein.Usecase
}

func NewCLIHandler(usecase storagein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Status(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) Get(ctx context.Context, key string) (dto.GetOutput, error) {
	return h.usecase.Get(ctx, key)
}
