package in

import (
	"context"

	"siteaudit/internal/modules/advert/dto"
)

type Usecase interface {
	Submit(ctx context.Context, input dto.SubmitInput) (dto.SubmitOutput, error)
	HandleWebhook(ctx context.Context, input dto.WebhookInput) (dto.WebhookOutput, error)
	List(ctx context.Context, status string) ([]dto.AdvertOutput, error)
	SetStatus(ctx context.Context, input dto.SetStatusInput) (dto.AdvertOutput, error)
}
