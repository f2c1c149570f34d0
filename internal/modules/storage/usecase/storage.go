package usecase

import (
	"context"

	"siteaudit/internal/modules/storage/domain"
	"siteaudit/internal/modules/storage/dto"
	storagein "siteaudit/internal/modules/storage/port/in"
	"siteaudit/internal/modules/storage/service"
)

type Interactor struct {
	svc *service.TieredStore
}

func NewInteractor(svc *service.TieredStore) storagein.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Put(ctx context.Context, input dto.PutInput) (dto.PutOutput, error) {
	tier, err := i.svc.Put(ctx, domain.Key(input.Key), input.Value)
	if err != nil {
		return dto.PutOutput{Key: input.Key}, err
	}
	return dto.PutOutput{Key: input.Key, Tier: string(tier)}, nil
}

func (i *Interactor) Get(ctx context.Context, key string) (dto.GetOutput, error) {
	value, err := i.svc.Get(ctx, domain.Key(key))
	if err != nil {
		return dto.GetOutput{}, err
	}
	return dto.GetOutput{Key: key, Value: value}, nil
}

func (i *Interactor) Delete(ctx context.Context, key string) error {
	return i.svc.Delete(ctx, domain.Key(key))
}

func (i *Interactor) Clear(ctx context.Context) error {
	return i.svc.Clear(ctx)
}

func (i *Interactor) Status(ctx context.Context) (dto.StatusOutput, error) {
	status := i.svc.Status(ctx)
	out := dto.StatusOutput{TransactionalAvailable: status.TransactionalAvailable, LastWarning: status.LastWarning}
	for _, ks := range status.Keys {
		out.Keys = append(out.Keys, dto.KeyStatusOutput{Key: string(ks.Key), Tier: string(ks.Tier), Present: ks.Present})
	}
	return out, nil
}
