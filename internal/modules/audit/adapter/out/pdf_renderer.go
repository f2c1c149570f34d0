package out

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"siteaudit/internal/modules/audit/domain"
	auditout "siteaudit/internal/modules/audit/port/out"
	"siteaudit/internal/platform/logging"
)

// A4 portrait, millimetres.
const (
	pageWidth   = 210.0
	marginX     = 15.0
	titleHeight = 8.0
	imageBox    = 104.0
	blockGap    = 8.0
	blockHeight = titleHeight + imageBox + blockGap

	signatureBoxW = 120.0
	signatureBoxH = 40.0
)

// ImageLayout is the vertical layout of image pages. Two image blocks fit on
// a page.
var ImageLayout = domain.PageLayout{Top: 20, Threshold: 250, Bottom: 260}

type PDFRenderer struct {
	logger *zap.Logger
}

func NewPDFRenderer(logger *zap.Logger) auditout.ReportRenderer {
	return &PDFRenderer{logger: logging.OrNop(logger)}
}

type preparedImage struct {
	png    []byte
	width  int
	height int
	err    error
}

func (r *PDFRenderer) Render(ctx context.Context, doc domain.ReportDocument, path string) (domain.RenderResult, error) {
	signature, err := prepare(doc.Signature)
	if err != nil {
		return domain.RenderResult{}, fmt.Errorf("prepare signature: %w", err)
	}
	prepared, err := prepareAll(ctx, doc.Entries)
	if err != nil {
		return domain.RenderResult{}, err
	}

	skipped := []domain.SkippedEntry{}
	entries := make([]domain.ReportEntry, 0, len(doc.Entries))
	images := make([]preparedImage, 0, len(doc.Entries))
	for i, entry := range doc.Entries {
		if prepared[i].err != nil {
			skipped = append(skipped, domain.SkippedEntry{Index: entry.Index, Title: entry.Title, Reason: prepared[i].err.Error()})
			r.logger.Warn("skip unreadable image", zap.Int("index", entry.Index), zap.Error(prepared[i].err))
			continue
		}
		entries = append(entries, entry)
		images = append(images, prepared[i])
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Site audit report", true)
	pdf.SetAuthor(doc.InspectorName, true)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	writeHeader(pdf, tr, doc, len(entries))

	heights := make([]float64, len(entries))
	for i := range heights {
		heights[i] = blockHeight
	}
	placements, _ := domain.Paginate(heights, ImageLayout)
	page := 0
	for i, entry := range entries {
		placement := placements[i]
		if placement.Page != page {
			pdf.AddPage()
			page = placement.Page
		}
		writeImageBlock(pdf, tr, entry, images[i], placement.Y)
	}

	writeSignaturePage(pdf, tr, doc, signature)

	if err := pdf.Error(); err != nil {
		return domain.RenderResult{}, fmt.Errorf("layout report: %w", err)
	}
	pages := pdf.PageCount()
	if err := writeAtomically(pdf, path); err != nil {
		return domain.RenderResult{}, err
	}
	return domain.RenderResult{Pages: pages, Skipped: skipped}, nil
}

// prepareAll decodes every raster concurrently. A raster that fails to
// decode is marked on its entry and does not stop the others.
func prepareAll(ctx context.Context, entries []domain.ReportEntry) ([]preparedImage, error) {
	out := make([]preparedImage, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := prepare(entry.Raster)
			if err != nil {
				out[i] = preparedImage{err: err}
				return nil
			}
			out[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("decode report images: %w", err)
	}
	return out, nil
}

// prepare normalizes a raster into an opaque PNG so the PDF writer never
// sees data it cannot embed.
func prepare(raster []byte) (preparedImage, error) {
	img, err := domain.DecodeRaster(raster)
	if err != nil {
		return preparedImage{}, err
	}
	opaque := domain.Opaque(img)
	encoded, err := domain.EncodePNG(opaque)
	if err != nil {
		return preparedImage{}, err
	}
	size := opaque.Bounds().Size()
	return preparedImage{png: encoded, width: size.X, height: size.Y}, nil
}

func writeHeader(pdf *fpdf.Fpdf, tr func(string) string, doc domain.ReportDocument, images int) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetXY(marginX, 30)
	pdf.CellFormat(pageWidth-2*marginX, 12, tr("Site Audit Report"), "", 1, "L", false, 0, "")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 13)
	rows := [][2]string{
		{"Inspector", doc.InspectorName},
		{"Date", doc.ReportDate.String()},
		{"Images", strconv.Itoa(images)},
		{"Generated", doc.GeneratedAt.Format("2006-01-02 15:04 MST")},
	}
	for _, row := range rows {
		pdf.SetX(marginX)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(35, 9, tr(row[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 13)
		pdf.CellFormat(pageWidth-2*marginX-35, 9, tr(row[1]), "", 1, "L", false, 0, "")
	}
}

func writeImageBlock(pdf *fpdf.Fpdf, tr func(string) string, entry domain.ReportEntry, img preparedImage, y float64) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginX, y)
	pdf.CellFormat(pageWidth-2*marginX, titleHeight, tr(fmt.Sprintf("%d. %s", entry.Index, entry.Title)), "", 0, "L", false, 0, "")

	w, h := fitBox(img.width, img.height, imageBox, imageBox)
	x := (pageWidth - w) / 2
	name := "image-" + strconv.Itoa(entry.Index)
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(img.png))
	pdf.ImageOptions(name, x, y+titleHeight, w, h, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
}

func writeSignaturePage(pdf *fpdf.Fpdf, tr func(string) string, doc domain.ReportDocument, signature preparedImage) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginX, 30)
	pdf.CellFormat(pageWidth-2*marginX, 10, tr("Signature"), "", 1, "L", false, 0, "")

	w, h := fitBox(signature.width, signature.height, signatureBoxW, signatureBoxH)
	pdf.RegisterImageOptionsReader("signature", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(signature.png))
	pdf.ImageOptions("signature", marginX, 45, w, h, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.Line(marginX, 45+signatureBoxH+2, marginX+signatureBoxW, 45+signatureBoxH+2)
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(marginX, 45+signatureBoxH+5)
	pdf.CellFormat(signatureBoxW, 7, tr(doc.InspectorName), "", 1, "L", false, 0, "")
	pdf.SetX(marginX)
	pdf.CellFormat(signatureBoxW, 7, tr(doc.ReportDate.String()), "", 1, "L", false, 0, "")
}

// fitBox scales w×h to fit inside a boxW×boxH box keeping the aspect ratio.
func fitBox(w, h int, boxW, boxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return boxW, boxH
	}
	scale := min(boxW/float64(w), boxH/float64(h))
	return float64(w) * scale, float64(h) * scale
}

// writeAtomically never leaves a partial document at path.
func writeAtomically(pdf *fpdf.Fpdf, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := pdf.OutputFileAndClose(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish report: %w", err)
	}
	return nil
}
