package dto

import "time"

// Positions are 1-based, as shown to the user.

type ImageOutput struct {
	Position   int
	ID         string
	Title      string
	Annotated  bool
	HasOverlay bool
	Bytes      int
	CapturedAt time.Time
}

type SessionOutput struct {
	Started          bool
	InspectorName    string
	ReportDate       string
	HasSignature     bool
	Images           []ImageOutput
	AnnotationTarget int
	Drawing          bool
	Missing          []string
}

type MutationOutput struct {
	Session SessionOutput
	Warning string
}

type CaptureInput struct {
	Title string
}

type ImportInput struct {
	Path  string
	Title string
}

type RenameInput struct {
	Position int
	Title    string
}

// PointInput is a pointer position. When the display size is set the point
// is in display units and is mapped onto the canvas grid; otherwise it is
// already in canvas pixels.
type PointInput struct {
	X             float64
	Y             float64
	DisplayWidth  int
	DisplayHeight int
}

type SkippedOutput struct {
	Position int
	Title    string
	Reason   string
}

type ExportOutput struct {
	Path     string
	NotePath string
	Pages    int
	Skipped  []SkippedOutput
	Warning  string
}

type InspectOutput struct {
	Path      string
	Pages     int
	FirstPage string
	Valid     bool
	Problem   string
}
