package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"siteaudit/internal/modules/advert/domain"
	advertout "siteaudit/internal/modules/advert/port/out"
	"siteaudit/internal/platform/clock"
	apperrors "siteaudit/internal/platform/errors"
	"siteaudit/internal/platform/id"
	"siteaudit/internal/platform/logging"
)

type Dependencies struct {
	Repository advertout.Repository
	Objects    advertout.ObjectStore
	Checkout   advertout.Checkout
	Clock      clock.Clock
	IDs        id.Generator
	Logger     *zap.Logger
}

type Options struct {
	PriceCents    int64
	WebhookSecret string
}

type AdvertService struct {
	deps   Dependencies
	opts   Options
	logger *zap.Logger
}

func NewAdvertService(deps Dependencies, opts Options) *AdvertService {
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	if deps.IDs == nil {
		deps.IDs = id.UUIDv7{}
	}
	return &AdvertService{deps: deps, opts: opts, logger: logging.OrNop(deps.Logger)}
}

// Submit stores the image, records a pending advert and opens a hosted
// checkout for it. The returned session URL is where the buyer pays.
func (s *AdvertService) Submit(ctx context.Context, sub domain.Submission) (domain.Advert, advertout.CheckoutSession, error) {
	contentType, err := sub.Validate()
	if err != nil {
		return domain.Advert{}, advertout.CheckoutSession{}, err
	}
	if s.deps.Checkout == nil {
		return domain.Advert{}, advertout.CheckoutSession{}, fmt.Errorf("submit advert: no checkout provider configured")
	}
	now := s.deps.Clock.Now()
	advert := domain.Advert{
		ID:           s.deps.IDs.New(),
		BusinessName: sub.BusinessName,
		Email:        sub.Email,
		Website:      sub.Website,
		ContentType:  contentType,
		AmountCents:  s.opts.PriceCents,
		Status:       domain.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	advert.ImageKey = domain.ImageKey(advert.ID, contentType)

	if err := s.deps.Objects.Put(ctx, advert.ImageKey, sub.Image); err != nil {
		return domain.Advert{}, advertout.CheckoutSession{}, fmt.Errorf("store advert image: %w", err)
	}
	if err := s.deps.Repository.Insert(ctx, advert); err != nil {
		if delErr := s.deps.Objects.Delete(ctx, advert.ImageKey); delErr != nil {
			s.logger.Warn("remove orphaned advert image", zap.String("key", advert.ImageKey), zap.Error(delErr))
		}
		return domain.Advert{}, advertout.CheckoutSession{}, fmt.Errorf("record advert: %w", err)
	}

	session, err := s.deps.Checkout.CreateSession(ctx, advertout.CheckoutRequest{
		AdvertID:    advert.ID,
		AmountCents: advert.AmountCents,
		Email:       advert.Email,
		Description: "Advertisement: " + advert.BusinessName,
	})
	if err != nil {
		return advert, advertout.CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	advert.CheckoutID = session.ID
	if err := s.deps.Repository.Update(ctx, advert); err != nil {
		return advert, advertout.CheckoutSession{}, fmt.Errorf("record checkout session: %w", err)
	}
	s.logger.Info("advert submitted", zap.String("advert", advert.ID), zap.String("checkout", session.ID))
	return advert, session, nil
}

// HandleWebhook applies a signed payment callback. A completed checkout
// activates its pending advert; replays and unrelated events are no-ops.
func (s *AdvertService) HandleWebhook(ctx context.Context, payload []byte, signature string) (domain.Advert, bool, error) {
	if err := domain.VerifySignature(signature, payload, s.opts.WebhookSecret, s.deps.Clock.Now()); err != nil {
		return domain.Advert{}, false, err
	}
	var event domain.CheckoutEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.Advert{}, false, fmt.Errorf("%w: decode callback: %v", apperrors.ErrInvalidInput, err)
	}
	if event.Type != domain.EventCheckoutCompleted {
		s.logger.Debug("ignore checkout event", zap.String("type", event.Type))
		return domain.Advert{}, false, nil
	}
	object := event.Data.Object
	if object.PaymentStatus != "" && object.PaymentStatus != "paid" {
		s.logger.Info("checkout completed unpaid", zap.String("checkout", object.ID), zap.String("payment_status", object.PaymentStatus))
		return domain.Advert{}, false, nil
	}
	if object.ClientReferenceID == "" {
		return domain.Advert{}, false, fmt.Errorf("%w: callback carries no advert reference", apperrors.ErrInvalidInput)
	}

	advert, err := s.deps.Repository.Get(ctx, object.ClientReferenceID)
	if err != nil {
		return domain.Advert{}, false, fmt.Errorf("load advert %s: %w", object.ClientReferenceID, err)
	}
	if advert.Status != domain.StatusPending {
		s.logger.Info("checkout replay ignored", zap.String("advert", advert.ID), zap.String("status", string(advert.Status)))
		return advert, false, nil
	}
	if err := advert.Transition(domain.StatusActive, s.deps.Clock.Now()); err != nil {
		return domain.Advert{}, false, err
	}
	if object.ID != "" {
		advert.CheckoutID = object.ID
	}
	if err := s.deps.Repository.Update(ctx, advert); err != nil {
		return domain.Advert{}, false, fmt.Errorf("activate advert: %w", err)
	}
	s.logger.Info("advert activated", zap.String("advert", advert.ID))
	return advert, true, nil
}

func (s *AdvertService) List(ctx context.Context, status domain.Status) ([]domain.Advert, error) {
	adverts, err := s.deps.Repository.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list adverts: %w", err)
	}
	return adverts, nil
}

// SetStatus is the moderation action.
func (s *AdvertService) SetStatus(ctx context.Context, id string, next domain.Status) (domain.Advert, error) {
	advert, err := s.deps.Repository.Get(ctx, id)
	if err != nil {
		return domain.Advert{}, err
	}
	if advert.Status == next {
		return advert, nil
	}
	if err := advert.Transition(next, s.deps.Clock.Now()); err != nil {
		return domain.Advert{}, err
	}
	if err := s.deps.Repository.Update(ctx, advert); err != nil {
		return domain.Advert{}, fmt.Errorf("update advert status: %w", err)
	}
	return advert, nil
}
