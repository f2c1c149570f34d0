package in

import (
	"context"

	"siteaudit/internal/modules/camera/dto"
	camerain "siteaudit/internal/modules/camera/port/in"
)

type CLIHandler struct {
	usecase camerain.Usecase
}

func NewCLIHandler(usecase camerain.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Devices(ctx context.Context) ([]dto.DeviceOutput, error) {
	return h.usecase.Devices(ctx)
}

func (h CLIHandler) Start(ctx context.Context, deviceID string) (dto.StatusOutput, error) {
	return h.usecase.Start(ctx, dto.StartInput{DeviceID: deviceID})
}

func (h CLIHandler) Stop(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) Status(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) Frame(ctx context.Context) (dto.FrameOutput, error) {
	return h.usecase.Frame(ctx)
}

func (h CLIHandler) SetVisible(ctx context.Context, visible bool) error {
	return h.usecase.SetVisible(ctx, visible)
}

func (h CLIHandler) Close() error {
	return h.usecase.Close()
}
