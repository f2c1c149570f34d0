package domain

import (
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	apperrors "siteaudit/internal/platform/errors"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusRejected Status = "rejected"
)

// MaxImageBytes bounds an uploaded advert image.
const MaxImageBytes = 5 << 20

var ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", apperrors.ErrConflict)

var transitions = map[Status][]Status{
	StatusPending:  {StatusActive, StatusRejected},
	StatusActive:   {StatusRejected},
	StatusRejected: {StatusActive},
}

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusActive, StatusRejected:
		return s, nil
	default:
		return "", fmt.Errorf("%w: unknown advert status %q", apperrors.ErrInvalidInput, raw)
	}
}

func (s Status) CanBecome(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Advert struct {
	ID           string
	BusinessName string
	Email        string
	Website      string
	ImageKey     string
	ContentType  string
	AmountCents  int64
	Status       Status
	CheckoutID   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Transition moves the advert to next, stamping UpdatedAt.
func (a *Advert) Transition(next Status, at time.Time) error {
	if !a.Status.CanBecome(next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, a.Status, next)
	}
	a.Status = next
	a.UpdatedAt = at
	return nil
}

// Submission is the purchase form as posted by a business.
type Submission struct {
	BusinessName string
	Email        string
	Website      string
	ImageName    string
	Image        []byte
}

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Validate normalizes the form and returns the sniffed image content type.
func (s *Submission) Validate() (string, error) {
	s.BusinessName = strings.TrimSpace(s.BusinessName)
	s.Email = strings.TrimSpace(s.Email)
	s.Website = strings.TrimSpace(s.Website)

	var problems []string
	if s.BusinessName == "" {
		problems = append(problems, "business name is required")
	}
	if addr, err := mail.ParseAddress(s.Email); err != nil || addr.Address != s.Email {
		problems = append(problems, "a valid email is required")
	}
	if s.Website != "" {
		u, err := url.Parse(s.Website)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, "website must be an http(s) URL")
		}
	}
	contentType := ""
	switch {
	case len(s.Image) == 0:
		problems = append(problems, "an image is required")
	case len(s.Image) > MaxImageBytes:
		problems = append(problems, fmt.Sprintf("image exceeds %d bytes", MaxImageBytes))
	default:
		contentType = http.DetectContentType(s.Image)
		if _, ok := imageExtensions[contentType]; !ok {
			problems = append(problems, fmt.Sprintf("unsupported image type %s", contentType))
		}
	}
	if len(problems) > 0 {
		return "", fmt.Errorf("%w: %s", apperrors.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return contentType, nil
}

// ImageKey is the object store key of an advert's image.
func ImageKey(id, contentType string) string {
	return "adverts/" + id + imageExtensions[contentType]
}
