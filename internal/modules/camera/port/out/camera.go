package out

import (
	"context"
	"image"

	"siteaudit/internal/modules/camera/domain"
)

// MediaDevices is the host media-capture API.
type MediaDevices interface {
	Open(ctx context.Context, constraints domain.Constraints) (Stream, error)
	Enumerate(ctx context.Context) ([]domain.Device, error)
}

// Stream is one live feed. Stop must be idempotent.
type Stream interface {
	DeviceID() string
	Frame(ctx context.Context) (image.Image, error)
	Ended() bool
	Stop() error
}

type DriverManifestStore interface {
	Load(ctx context.Context) ([]domain.DriverManifest, error)
}
