package in

import (
	"context"

	"siteaudit/internal/modules/storage/dto"
)

type Usecase interface {
	Put(ctx context.Context, input dto.PutInput) (dto.PutOutput, error)
	Get(ctx context.Context, key string) (dto.GetOutput, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Status(ctx context.Context) (dto.StatusOutput, error)
}
