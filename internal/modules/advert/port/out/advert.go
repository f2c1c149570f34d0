package out

import (
	"context"

	"siteaudit/internal/modules/advert/domain"
)

type Repository interface {
	Insert(ctx context.Context, advert domain.Advert) error
	Get(ctx context.Context, id string) (domain.Advert, error)
	// List returns adverts newest first; an empty status lists every advert.
	List(ctx context.Context, status domain.Status) ([]domain.Advert, error)
	Update(ctx context.Context, advert domain.Advert) error
}

type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

type CheckoutRequest struct {
	AdvertID    string
	AmountCents int64
	Email       string
	Description string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type Checkout interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (CheckoutSession, error)
}
