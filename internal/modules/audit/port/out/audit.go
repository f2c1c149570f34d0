package out

import (
	"context"
	"image"

	"siteaudit/internal/modules/audit/domain"
)

// SessionStore persists the report session under its logical keys. Each
// Save call writes exactly one key.
type SessionStore interface {
	Load(ctx context.Context) (domain.ReportSession, error)
	SaveImages(ctx context.Context, images []domain.CapturedImage) error
	SaveInspector(ctx context.Context, name string) error
	// SaveSignature with an empty raster removes the stored signature.
	SaveSignature(ctx context.Context, raster []byte) error
	SaveStarted(ctx context.Context, started bool, date domain.Date) error
	Clear(ctx context.Context) error
}

type FrameSource interface {
	Frame(ctx context.Context) (image.Image, error)
	Stop(ctx context.Context) error
}

type ReportRenderer interface {
	Render(ctx context.Context, doc domain.ReportDocument, path string) (domain.RenderResult, error)
}

type ReportArchive interface {
	Save(ctx context.Context, entry domain.ArchiveEntry) (string, error)
}

type DocumentInspector interface {
	Inspect(ctx context.Context, path string) (domain.Inspection, error)
}
