package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"siteaudit/internal/modules/storage/domain"
	"siteaudit/internal/modules/storage/service"
	apperrors "siteaudit/internal/platform/errors"
)

type memTier struct {
	mu      sync.Mutex
	name    domain.TierName
	values  map[domain.Key][]byte
	failPut error
	puts    int
}

func newMemTier(name domain.TierName) *memTier {
	return &memTier{name: name, values: map[domain.Key][]byte{}}
}

func (m *memTier) Name() domain.TierName { return m.name }

func (m *memTier) Put(_ context.Context, key domain.Key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.failPut != nil {
		return m.failPut
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *memTier) Get(_ context.Context, key domain.Key) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, apperrors.ErrAbsent
	}
	return v, nil
}

func (m *memTier) Delete(_ context.Context, key domain.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memTier) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[domain.Key][]byte{}
	return nil
}

func (m *memTier) Close() error { return nil }

func TestPutThenGetReturnsWrittenValue(t *testing.T) {
	t.Parallel()
	primary := newMemTier(domain.TierTransactional)
	fallback := newMemTier(domain.TierSimple)
	store := service.NewTieredStore(primary, fallback, nil)
	ctx := context.Background()

	tier, err := store.Put(ctx, domain.KeyInspectorName, []byte(`"Ada"`))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if tier != domain.TierTransactional {
		t.Fatalf("expected transactional tier, got %s", tier)
	}
	got, err := store.Get(ctx, domain.KeyInspectorName)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `"Ada"` {
		t.Fatalf("expected written value, got %q", got)
	}
	if fallback.puts != 0 {
		t.Fatalf("simple tier must not be touched on success, got %d puts", fallback.puts)
	}
}

func TestPutFallsBackWhenTransactionalFails(t *testing.T) {
	t.Parallel()
	primary := newMemTier(domain.TierTransactional)
	primary.failPut = domain.ErrQuotaExceeded
	fallback := newMemTier(domain.TierSimple)
	store := service.NewTieredStore(primary, fallback, nil)
	ctx := context.Background()

	// Seed a stale transactional copy that the fallback write must evict.
	primary.values[domain.KeySignature] = []byte("old")

	tier, err := store.Put(ctx, domain.KeySignature, []byte("new"))
	if err != nil {
		t.Fatalf("put should succeed on fallback: %v", err)
	}
	if tier != domain.TierSimple {
		t.Fatalf("expected simple tier, got %s", tier)
	}
	got, err := store.Get(ctx, domain.KeySignature)
	if err != nil || string(got) != "new" {
		t.Fatalf("expected fallback value, got %q err=%v", got, err)
	}
	if _, err := primary.Get(ctx, domain.KeySignature); !errors.Is(err, apperrors.ErrAbsent) {
		t.Fatalf("stale transactional copy should be removed, got %v", err)
	}

	// A fresh store over the same tiers (a reload) must see the new value.
	reloaded := service.NewTieredStore(primary, fallback, nil)
	got, err = reloaded.Get(ctx, domain.KeySignature)
	if err != nil || string(got) != "new" {
		t.Fatalf("reload should read fallback value, got %q err=%v", got, err)
	}
}

func TestPutReportsExhaustionWhenBothTiersFail(t *testing.T) {
	t.Parallel()
	primary := newMemTier(domain.TierTransactional)
	primary.failPut = domain.ErrQuotaExceeded
	fallback := newMemTier(domain.TierSimple)
	fallback.failPut = domain.ErrQuotaExceeded
	store := service.NewTieredStore(primary, fallback, nil)

	_, err := store.Put(context.Background(), domain.KeyCapturedImages, []byte("[]"))
	if !errors.Is(err, apperrors.ErrStorageExhausted) {
		t.Fatalf("expected storage exhausted, got %v", err)
	}
	if status := store.Status(context.Background()); status.LastWarning == "" {
		t.Fatalf("expected a visible warning after exhaustion")
	}
}

func TestNilPrimaryUsesSimpleTierOnly(t *testing.T) {
	t.Parallel()
	fallback := newMemTier(domain.TierSimple)
	store := service.NewTieredStore(nil, fallback, nil)
	ctx := context.Background()

	tier, err := store.Put(ctx, domain.KeyReportStarted, []byte("true"))
	if err != nil || tier != domain.TierSimple {
		t.Fatalf("expected simple tier write, got %s err=%v", tier, err)
	}
	if status := store.Status(ctx); status.TransactionalAvailable {
		t.Fatalf("transactional tier should be reported unavailable")
	}
}

func TestClearMakesEveryLogicalKeyAbsent(t *testing.T) {
	t.Parallel()
	primary := newMemTier(domain.TierTransactional)
	fallback := newMemTier(domain.TierSimple)
	store := service.NewTieredStore(primary, fallback, nil)
	ctx := context.Background()

	for _, key := range domain.LogicalKeys {
		if _, err := store.Put(ctx, key, []byte("x")); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	fallback.values[domain.KeyInspectorName] = []byte("leftover")
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	for _, key := range domain.LogicalKeys {
		if _, err := store.Get(ctx, key); !errors.Is(err, apperrors.ErrAbsent) {
			t.Fatalf("expected %s absent after clear, got %v", key, err)
		}
	}
}

func TestUnknownKeyIsRejected(t *testing.T) {
	t.Parallel()
	store := service.NewTieredStore(nil, newMemTier(domain.TierSimple), nil)
	if _, err := store.Put(context.Background(), domain.Key("other"), nil); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestStatusReportsTierOfRehydratedKeys(t *testing.T) {
	t.Parallel()
	primary := newMemTier(domain.TierTransactional)
	fallback := newMemTier(domain.TierSimple)
	primary.values[domain.KeyCapturedImages] = []byte(`[]`)
	fallback.values[domain.KeyInspectorName] = []byte(`Ada`)
	store := service.NewTieredStore(primary, fallback, nil)

	byKey := map[domain.Key]domain.KeyStatus{}
	for _, ks := range store.Status(context.Background()).Keys {
		byKey[ks.Key] = ks
	}
	if got := byKey[domain.KeyCapturedImages]; !got.Present || got.Tier != domain.TierTransactional {
		t.Fatalf("expected images in transactional tier, got %+v", got)
	}
	if got := byKey[domain.KeyInspectorName]; !got.Present || got.Tier != domain.TierSimple {
		t.Fatalf("expected inspector in simple tier, got %+v", got)
	}
	if got := byKey[domain.KeySignature]; got.Present || got.Tier != "" {
		t.Fatalf("expected signature absent, got %+v", got)
	}
}

func TestStatusIsConsistentDuringConcurrentPuts(t *testing.T) {
	t.Parallel()
	primary := newMemTier(domain.TierTransactional)
	primary.failPut = errors.New("disk full")
	fallback := newMemTier(domain.TierSimple)
	store := service.NewTieredStore(primary, fallback, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = store.Put(ctx, domain.KeySignature, []byte{byte(j)})
			}
		}()
	}
	for i := 0; i < 50; i++ {
		for _, ks := range store.Status(ctx).Keys {
			if ks.Key == domain.KeySignature && ks.Present && ks.Tier != domain.TierSimple {
				t.Errorf("signature reported in %q while only the simple tier accepts writes", ks.Tier)
			}
		}
	}
	wg.Wait()
}
