package usecase

import (
	"context"

	"siteaudit/internal/modules/camera/domain"
	"siteaudit/internal/modules/camera/dto"
	camerain "siteaudit/internal/modules/camera/port/in"
	"siteaudit/internal/modules/camera/service"
)

type Interactor struct {
	manager *service.Manager
}

func NewInteractor(manager *service.Manager) camerain.Usecase {
	return &Interactor{manager: manager}
}

func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (dto.StatusOutput, error) {
	if _, err := i.manager.Start(ctx, input.DeviceID); err != nil {
		return i.status(), err
	}
	return i.status(), nil
}

func (i *Interactor) Stop(_ context.Context) (dto.StatusOutput, error) {
	i.manager.Stop()
	return i.status(), nil
}

func (i *Interactor) Status(_ context.Context) (dto.StatusOutput, error) {
	return i.status(), nil
}

func (i *Interactor) Devices(ctx context.Context) ([]dto.DeviceOutput, error) {
	devices, err := i.manager.Devices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DeviceOutput, 0, len(devices))
	for _, d := range devices {
		out = append(out, dto.DeviceOutput{ID: d.ID, Label: d.Label, Facing: string(d.Facing)})
	}
	return out, nil
}

func (i *Interactor) Frame(ctx context.Context) (dto.FrameOutput, error) {
	frame, err := i.manager.Frame(ctx)
	if err != nil {
		return dto.FrameOutput{}, err
	}
	return dto.FrameOutput{DeviceID: i.manager.DeviceID(), Image: frame}, nil
}

func (i *Interactor) SetVisible(_ context.Context, visible bool) error {
	i.manager.SetVisible(visible)
	return nil
}

func (i *Interactor) Close() error {
	return i.manager.Close()
}

func (i *Interactor) status() dto.StatusOutput {
	out := dto.StatusOutput{
		State:    i.manager.State().String(),
		DeviceID: i.manager.DeviceID(),
		Hidden:   i.manager.Hidden(),
	}
	if err := i.manager.LastError(); err != nil {
		out.LastError = domain.UserMessage(err)
	}
	return out
}
