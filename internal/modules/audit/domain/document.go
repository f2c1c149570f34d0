package domain

import "time"

const ReportFileName = "site-audit-report.pdf"

// ReportDocument is everything the renderer needs, already validated.
type ReportDocument struct {
	InspectorName string
	ReportDate    Date
	Entries       []ReportEntry
	Signature     []byte
	GeneratedAt   time.Time
}

type ReportEntry struct {
	Index  int
	Title  string
	Raster []byte
}

type SkippedEntry struct {
	Index  int
	Title  string
	Reason string
}

type RenderResult struct {
	Pages   int
	Skipped []SkippedEntry
}

// ArchiveEntry is the note kept for every exported report.
type ArchiveEntry struct {
	InspectorName string
	ReportDate    Date
	GeneratedAt   time.Time
	ImageTitles   []string
	Pages         int
	Skipped       []SkippedEntry
	PDFPath       string
}

type Inspection struct {
	Path      string
	Pages     int
	FirstPage string
	Valid     bool
	Problem   string
}

func NewDocument(session ReportSession, generatedAt time.Time) ReportDocument {
	entries := make([]ReportEntry, 0, len(session.Images))
	for i, img := range session.Images {
		entries = append(entries, ReportEntry{Index: i + 1, Title: img.Title, Raster: img.Raster})
	}
	return ReportDocument{
		InspectorName: session.InspectorName,
		ReportDate:    session.ReportDate,
		Entries:       entries,
		Signature:     session.Signature,
		GeneratedAt:   generatedAt,
	}
}
