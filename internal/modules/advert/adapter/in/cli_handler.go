package in

import (
	"context"

	"siteaudit/internal/modules/advert/dto"
	advertin "siteaudit/internal/modules/advert/port/in"
)

type CLIHandler struct {
	usecase advertin.Usecase
}

func NewCLIHandler(usecase advertin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context, status string) ([]dto.AdvertOutput, error) {
	return h.usecase.List(ctx, status)
}

func (h CLIHandler) SetStatus(ctx context.Context, id, status string) (dto.AdvertOutput, error) {
	return h.usecase.SetStatus(ctx, dto.SetStatusInput{ID: id, Status: status})
}
