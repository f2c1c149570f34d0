package out

import (
	"context"
	"image"

	auditout "siteaudit/internal/modules/audit/port/out"
	camerain "siteaudit/internal/modules/camera/port/in"
)

type CameraFrameSource struct {
	camera camerain.Usecase
}

func NewCameraFrameSource(camera camerain.Usecase) auditout.FrameSource {
	return &CameraFrameSource{camera: camera}
}

func (s *CameraFrameSource) Frame(ctx context.Context) (image.Image, error) {
	out, err := s.camera.Frame(ctx)
	if err != nil {
		return nil, err
	}
	return out.Image, nil
}

func (s *CameraFrameSource) Stop(ctx context.Context) error {
	_, err := s.camera.Stop(ctx)
	return err
}
