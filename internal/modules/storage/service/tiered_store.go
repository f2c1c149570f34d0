package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"siteaudit/internal/modules/storage/domain"
	storageout "siteaudit/internal/modules/storage/port/out"
	apperrors "siteaudit/internal/platform/errors"
	"siteaudit/internal/platform/logging"
)

// TieredStore owns the fallback between the transactional tier and the
// simple tier. A key lives in at most one tier at a time.
type TieredStore struct {
	mu          sync.Mutex
	primary     storageout.Tier
	fallback    storageout.Tier
	placement   map[domain.Key]domain.TierName
	lastWarning string
	logger      *zap.Logger
}

// NewTieredStore takes a nil primary when the transactional tier failed to
// initialize; every operation then goes to the fallback.
func NewTieredStore(primary, fallback storageout.Tier, logger *zap.Logger) *TieredStore {
	return &TieredStore{
		primary:   primary,
		fallback:  fallback,
		placement: map[domain.Key]domain.TierName{},
		logger:    logging.OrNop(logger),
	}
}

func (s *TieredStore) Put(ctx context.Context, key domain.Key, value []byte) (domain.TierName, error) {
	if err := key.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var primaryErr error
	if s.primary != nil {
		primaryErr = s.primary.Put(ctx, key, value)
		if primaryErr == nil {
			s.placement[key] = s.primary.Name()
			if err := s.fallback.Delete(ctx, key); err != nil {
				s.logger.Warn("drop stale simple-tier copy", zap.String("key", string(key)), zap.Error(err))
			}
			return s.primary.Name(), nil
		}
		s.logger.Warn("transactional write failed, retrying on simple tier",
			zap.String("key", string(key)),
			zap.Int("bytes", len(value)),
			zap.Error(primaryErr),
		)
	}

	if err := s.fallback.Put(ctx, key, value); err != nil {
		s.lastWarning = fmt.Sprintf("could not save %s: local storage is full; data will be lost on reload", key)
		s.logger.Warn("both storage tiers rejected write",
			zap.String("key", string(key)),
			zap.NamedError("transactional", primaryErr),
			zap.NamedError("simple", err),
		)
		return "", fmt.Errorf("put %s: %w", key, errors.Join(apperrors.ErrStorageExhausted, primaryErr, err))
	}
	s.placement[key] = s.fallback.Name()
	if s.primary != nil {
		if err := s.primary.Delete(ctx, key); err != nil {
			s.logger.Warn("drop stale transactional copy", zap.String("key", string(key)), zap.Error(err))
		}
	}
	return s.fallback.Name(), nil
}

func (s *TieredStore) Get(ctx context.Context, key domain.Key) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	value, _, err := s.read(ctx, key)
	return value, err
}

// read returns the value of key and the tier it came from. Callers hold mu.
func (s *TieredStore) read(ctx context.Context, key domain.Key) ([]byte, domain.TierName, error) {
	if tier, ok := s.placement[key]; ok {
		value, err := s.tier(tier).Get(ctx, key)
		return value, tier, err
	}
	// Nothing written in this process yet: this is a rehydration read.
	if s.primary != nil {
		value, err := s.primary.Get(ctx, key)
		if err == nil {
			return value, s.primary.Name(), nil
		}
		if !errors.Is(err, apperrors.ErrAbsent) {
			s.logger.Warn("transactional read failed, reading simple tier", zap.String("key", string(key)), zap.Error(err))
		}
	}
	value, err := s.fallback.Get(ctx, key)
	return value, s.fallback.Name(), err
}

func (s *TieredStore) Delete(ctx context.Context, key domain.Key) error {
	if err := key.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.placement, key)
	var errs []error
	if s.primary != nil {
		errs = append(errs, s.primary.Delete(ctx, key))
	}
	errs = append(errs, s.fallback.Delete(ctx, key))
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *TieredStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.placement = map[domain.Key]domain.TierName{}
	s.lastWarning = ""
	var errs []error
	if s.primary != nil {
		errs = append(errs, s.primary.Clear(ctx))
	}
	errs = append(errs, s.fallback.Clear(ctx))
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	return nil
}

// Status is a snapshot taken under one lock, so a concurrent Put shows up
// either entirely or not at all.
func (s *TieredStore) Status(ctx context.Context) domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := domain.Status{
		TransactionalAvailable: s.primary != nil,
		LastWarning:            s.lastWarning,
	}
	for _, key := range domain.LogicalKeys {
		ks := domain.KeyStatus{Key: key}
		if tier, placed := s.placement[key]; placed {
			ks.Tier = tier
			ks.Present = true
		} else if _, tier, err := s.read(ctx, key); err == nil {
			ks.Tier = tier
			ks.Present = true
		}
		status.Keys = append(status.Keys, ks)
	}
	return status
}

func (s *TieredStore) Close() error {
	var errs []error
	if s.primary != nil {
		errs = append(errs, s.primary.Close())
	}
	errs = append(errs, s.fallback.Close())
	return errors.Join(errs...)
}

func (s *TieredStore) tier(name domain.TierName) storageout.Tier {
	if s.primary != nil && s.primary.Name() == name {
		return s.primary
	}
	return s.fallback
}
