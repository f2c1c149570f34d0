package out_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	advertadapter "siteaudit/internal/modules/advert/adapter/out"
	"siteaudit/internal/modules/advert/domain"
	advertout "siteaudit/internal/modules/advert/port/out"
	apperrors "siteaudit/internal/platform/errors"
)

func TestSQLiteRepositoryLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo, err := advertadapter.NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "siteaudit.db"))
	require.NoError(t, err)
	defer repo.Close()

	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b"} {
		require.NoError(t, repo.Insert(ctx, domain.Advert{
			ID:           id,
			BusinessName: "Biz " + id,
			Email:        id + "@biz.test",
			ImageKey:     "adverts/" + id + ".png",
			ContentType:  "image/png",
			AmountCents:  4900,
			Status:       domain.StatusPending,
			CreatedAt:    created.Add(time.Duration(i) * time.Minute),
			UpdatedAt:    created,
		}))
	}

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID, "newest first")

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, created, got.CreatedAt)
	require.NoError(t, got.Transition(domain.StatusActive, created.Add(time.Hour)))
	got.CheckoutID = "cs_a"
	require.NoError(t, repo.Update(ctx, got))

	active, err := repo.List(ctx, domain.StatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "cs_a", active[0].CheckoutID)
	assert.Equal(t, created.Add(time.Hour), active[0].UpdatedAt)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, domain.Advert{ID: "missing", Status: domain.StatusActive}), apperrors.ErrNotFound)
}

func TestBucketObjectStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()
	store := advertadapter.NewBucketObjectStore(root)

	require.NoError(t, store.Put(ctx, "adverts/a.png", []byte("img")))
	raw, err := os.ReadFile(filepath.Join(root, "adverts", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(raw))

	require.NoError(t, store.Delete(ctx, "adverts/a.png"))
	require.NoError(t, store.Delete(ctx, "adverts/a.png"))
	_, err = os.Stat(filepath.Join(root, "adverts", "a.png"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, store.Put(ctx, "../escape.png", nil), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, store.Put(ctx, "", nil), apperrors.ErrInvalidInput)
}

func TestHTTPCheckoutCreatesSession(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "ad1", r.PostForm.Get("client_reference_id"))
		assert.Equal(t, "4900", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "https://shop.test/thanks?advert=ad1", r.PostForm.Get("success_url"))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "cs_1", "url": "https://pay.test/cs_1"})
	}))
	defer server.Close()

	checkout := advertadapter.NewHTTPCheckout(server.URL+"/", "sk_test", "https://shop.test/thanks")
	session, err := checkout.CreateSession(context.Background(), advertout.CheckoutRequest{
		AdvertID: "ad1", AmountCents: 4900, Email: "a@b.test", Description: "Advertisement: Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, advertout.CheckoutSession{ID: "cs_1", URL: "https://pay.test/cs_1"}, session)
}

func TestHTTPCheckoutSurfacesProviderError(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"card declined"}}`))
	}))
	defer server.Close()

	_, err := advertadapter.NewHTTPCheckout(server.URL, "sk", "https://x.test").
		CreateSession(context.Background(), advertout.CheckoutRequest{AdvertID: "ad1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card declined")
}
