package in

import (
	"context"

	"siteaudit/internal/modules/camera/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.StatusOutput, error)
	Stop(ctx context.Context) (dto.StatusOutput, error)
	Status(ctx context.Context) (dto.StatusOutput, error)
	Devices(ctx context.Context) ([]dto.DeviceOutput, error)
	Frame(ctx context.Context) (dto.FrameOutput, error)
	SetVisible(ctx context.Context, visible bool) error
	Close() error
}
