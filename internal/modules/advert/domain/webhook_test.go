package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteaudit/internal/modules/advert/domain"
	apperrors "siteaudit/internal/platform/errors"
)

func TestVerifySignature(t *testing.T) {
	t.Parallel()
	payload := []byte(`{"type":"checkout.session.completed"}`)
	now := time.Unix(1_780_000_000, 0)
	header := domain.Sign(payload, "whsec", now)

	require.NoError(t, domain.VerifySignature(header, payload, "whsec", now.Add(time.Minute)))

	failures := map[string]struct {
		header  string
		payload []byte
		secret  string
		now     time.Time
	}{
		"tampered payload": {header, []byte(`{"type":"other"}`), "whsec", now},
		"wrong secret":     {header, payload, "other", now},
		"stale":            {header, payload, "whsec", now.Add(domain.SignatureTolerance + time.Second)},
		"malformed":        {"v1=abc", payload, "whsec", now},
		"no secret":        {header, payload, "", now},
		"bad hex":          {"t=1780000000,v1=zz", payload, "whsec", now},
	}
	for name, tc := range failures {
		err := domain.VerifySignature(tc.header, tc.payload, tc.secret, tc.now)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized, name)
	}
}

func TestVerifySignatureAcceptsAnyV1(t *testing.T) {
	t.Parallel()
	payload := []byte(`{}`)
	now := time.Unix(1_780_000_000, 0)
	current := domain.Sign(payload, "new", now)
	previous := domain.Sign(payload, "old", now)
	_, oldMAC, _ := strings.Cut(previous, ",v1=")

	header := current + ",v1=" + oldMAC
	assert.NoError(t, domain.VerifySignature(header, payload, "old", now))
	assert.NoError(t, domain.VerifySignature(header, payload, "new", now))
}
