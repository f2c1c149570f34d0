package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "siteaudit/internal/platform/errors"
)

// NoTarget marks a session with no image selected for annotation.
const NoTarget = -1

type CapturedImage struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Raster     []byte    `json:"rasterData"`
	Overlay    []byte    `json:"annotationOverlay,omitempty"`
	Original   []byte    `json:"originalRasterData,omitempty"`
	CapturedAt time.Time `json:"capturedAt"`
}

// Annotated reports whether annotation has ever started on the image.
func (c CapturedImage) Annotated() bool {
	return len(c.Original) > 0
}

// Base is the raster strokes are layered on: the pre-annotation original once
// annotation has started, the current raster before that.
func (c CapturedImage) Base() []byte {
	if len(c.Original) > 0 {
		return c.Original
	}
	return c.Raster
}

func DefaultTitle(position int) string {
	return fmt.Sprintf("Image %d", position)
}

// Date is a calendar date without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", apperrors.ErrInvalidInput, raw)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

type ReportSession struct {
	Images           []CapturedImage
	InspectorName    string
	ReportDate       Date
	Signature        []byte
	Started          bool
	AnnotationTarget int
}

func NewSession() ReportSession {
	return ReportSession{Images: []CapturedImage{}, AnnotationTarget: NoTarget}
}

func (s *ReportSession) CheckIndex(i int) error {
	if i < 0 || i >= len(s.Images) {
		return fmt.Errorf("%w: image %d (report has %d)", apperrors.ErrNotFound, i+1, len(s.Images))
	}
	return nil
}

// Delete removes image i keeping the survivors in order. The annotation
// target follows the image it pointed at, or is cleared if that image is gone.
func (s *ReportSession) Delete(i int) (CapturedImage, error) {
	if err := s.CheckIndex(i); err != nil {
		return CapturedImage{}, err
	}
	removed := s.Images[i]
	s.Images = append(s.Images[:i:i], s.Images[i+1:]...)
	switch {
	case s.AnnotationTarget == i:
		s.AnnotationTarget = NoTarget
	case s.AnnotationTarget > i:
		s.AnnotationTarget--
	}
	if s.AnnotationTarget >= len(s.Images) {
		s.AnnotationTarget = NoTarget
	}
	return removed, nil
}

// MissingFields lists what must be filled in before the report can be
// exported.
func (s ReportSession) MissingFields() []string {
	missing := []string{}
	if strings.TrimSpace(s.InspectorName) == "" {
		missing = append(missing, "inspector name")
	}
	if s.ReportDate.IsZero() {
		missing = append(missing, "report date")
	}
	if len(s.Signature) == 0 {
		missing = append(missing, "signature")
	}
	return missing
}

func (s ReportSession) Validate() error {
	if missing := s.MissingFields(); len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == apperrors.ErrValidation
}

var ErrEmptyFrame = errors.New("camera has not produced a frame yet")
