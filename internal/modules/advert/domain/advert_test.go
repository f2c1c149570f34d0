package domain_test

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteaudit/internal/modules/advert/domain"
	apperrors "siteaudit/internal/platform/errors"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestStatusTransitions(t *testing.T) {
	t.Parallel()
	cases := []struct {
		from, to domain.Status
		allowed  bool
	}{
		{domain.StatusPending, domain.StatusActive, true},
		{domain.StatusPending, domain.StatusRejected, true},
		{domain.StatusActive, domain.StatusRejected, true},
		{domain.StatusRejected, domain.StatusActive, true},
		{domain.StatusActive, domain.StatusPending, false},
		{domain.StatusRejected, domain.StatusPending, false},
	}
	for _, tc := range cases {
		advert := domain.Advert{Status: tc.from}
		at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		err := advert.Transition(tc.to, at)
		if tc.allowed {
			require.NoError(t, err, "%s -> %s", tc.from, tc.to)
			assert.Equal(t, tc.to, advert.Status)
			assert.Equal(t, at, advert.UpdatedAt)
			continue
		}
		require.ErrorIs(t, err, domain.ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		assert.Equal(t, tc.from, advert.Status)
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()
	got, err := domain.ParseStatus(" Active ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got)

	_, err = domain.ParseStatus("archived")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSubmissionValidate(t *testing.T) {
	t.Parallel()
	valid := domain.Submission{
		BusinessName: "  Acme Roofing ",
		Email:        "owner@acme.test",
		Website:      "https://acme.test",
		Image:        pngBytes(t),
	}
	contentType, err := valid.Validate()
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, "Acme Roofing", valid.BusinessName)
	assert.Equal(t, "adverts/abc.png", domain.ImageKey("abc", contentType))

	cases := map[string]func(s *domain.Submission){
		"business name": func(s *domain.Submission) { s.BusinessName = "" },
		"valid email":   func(s *domain.Submission) { s.Email = "not-an-email" },
		"website":       func(s *domain.Submission) { s.Website = "ftp://acme.test" },
		"image is":      func(s *domain.Submission) { s.Image = nil },
		"unsupported":   func(s *domain.Submission) { s.Image = []byte("plain text, not an image") },
		"exceeds":       func(s *domain.Submission) { s.Image = make([]byte, domain.MaxImageBytes+1) },
	}
	for want, mutate := range cases {
		sub := domain.Submission{BusinessName: "Acme", Email: "a@b.test", Image: pngBytes(t)}
		mutate(&sub)
		_, err := sub.Validate()
		require.ErrorIs(t, err, apperrors.ErrInvalidInput, want)
		assert.True(t, strings.Contains(err.Error(), want), "expected %q in %v", want, err)
	}
}
