package out

import (
	"context"

	"siteaudit/internal/modules/storage/domain"
)

// Tier is one backing store. Get returns apperrors.ErrAbsent for missing keys.
type Tier interface {
	Name() domain.TierName
	Put(ctx context.Context, key domain.Key, value []byte) error
	Get(ctx context.Context, key domain.Key) ([]byte, error)
	Delete(ctx context.Context, key domain.Key) error
	Clear(ctx context.Context) error
	Close() error
}
