package usecase

import (
	"context"
	"strings"

	"siteaudit/internal/modules/advert/domain"
	"siteaudit/internal/modules/advert/dto"
	advertin "siteaudit/internal/modules/advert/port/in"
	"siteaudit/internal/modules/advert/service"
)

type Interactor struct {
	svc *service.AdvertService
}

func NewInteractor(svc *service.AdvertService) advertin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Submit(ctx context.Context, input dto.SubmitInput) (dto.SubmitOutput, error) {
	advert, session, err := i.svc.Submit(ctx, domain.Submission{
		BusinessName: input.BusinessName,
		Email:        input.Email,
		Website:      input.Website,
		ImageName:    input.ImageName,
		Image:        input.Image,
	})
	if err != nil {
		return dto.SubmitOutput{}, err
	}
	return dto.SubmitOutput{ID: advert.ID, Status: string(advert.Status), CheckoutURL: session.URL}, nil
}

func (i *Interactor) HandleWebhook(ctx context.Context, input dto.WebhookInput) (dto.WebhookOutput, error) {
	advert, changed, err := i.svc.HandleWebhook(ctx, input.Payload, input.Signature)
	if err != nil {
		return dto.WebhookOutput{}, err
	}
	return dto.WebhookOutput{AdvertID: advert.ID, Status: string(advert.Status), Ignored: !changed}, nil
}

func (i *Interactor) List(ctx context.Context, status string) ([]dto.AdvertOutput, error) {
	var filter domain.Status
	if strings.TrimSpace(status) != "" {
		parsed, err := domain.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		filter = parsed
	}
	adverts, err := i.svc.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AdvertOutput, 0, len(adverts))
	for _, advert := range adverts {
		out = append(out, toOutput(advert))
	}
	return out, nil
}

func (i *Interactor) SetStatus(ctx context.Context, input dto.SetStatusInput) (dto.AdvertOutput, error) {
	status, err := domain.ParseStatus(input.Status)
	if err != nil {
		return dto.AdvertOutput{}, err
	}
	advert, err := i.svc.SetStatus(ctx, input.ID, status)
	if err != nil {
		return dto.AdvertOutput{}, err
	}
	return toOutput(advert), nil
}

func toOutput(advert domain.Advert) dto.AdvertOutput {
	return dto.AdvertOutput{
		ID:           advert.ID,
		BusinessName: advert.BusinessName,
		Email:        advert.Email,
		Website:      advert.Website,
		ImageKey:     advert.ImageKey,
		AmountCents:  advert.AmountCents,
		Status:       string(advert.Status),
		CheckoutID:   advert.CheckoutID,
		CreatedAt:    advert.CreatedAt,
		UpdatedAt:    advert.UpdatedAt,
	}
}
