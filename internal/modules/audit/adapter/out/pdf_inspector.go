package out

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"rsc.io/pdf"

	"siteaudit/internal/modules/audit/domain"
	auditout "siteaudit/internal/modules/audit/port/out"
)

// PDFInspector reads an exported report back: text through rsc.io/pdf and
// structural validation through pdfcpu.
type PDFInspector struct{}

func NewPDFInspector() auditout.DocumentInspector {
	api.DisableConfigDir()
	return &PDFInspector{}
}

func (i *PDFInspector) Inspect(_ context.Context, path string) (domain.Inspection, error) {
	doc, err := pdf.Open(path)
	if err != nil {
		return domain.Inspection{}, fmt.Errorf("open pdf: %w", err)
	}
	out := domain.Inspection{Path: path, Pages: doc.NumPage()}
	if out.Pages > 0 {
		text, err := pageText(doc, 1)
		if err != nil {
			return domain.Inspection{}, err
		}
		out.FirstPage = text
	}

	if err := validate(path); err != nil {
		out.Problem = err.Error()
		return out, nil
	}
	out.Valid = true
	return out, nil
}

// PageText returns the text drawn on page n (1-based).
func PageText(path string, n int) (string, error) {
	doc, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	if n < 1 || n > doc.NumPage() {
		return "", fmt.Errorf("pdf page %d out of range (1-%d)", n, doc.NumPage())
	}
	return pageText(doc, n)
}

func pageText(doc *pdf.Reader, n int) (string, error) {
	p := doc.Page(n)
	if p.V.IsNull() {
		return "", fmt.Errorf("pdf page %d is null", n)
	}
	content := p.Content()
	var b strings.Builder
	for _, text := range content.Text {
		b.WriteString(text.S)
	}
	return b.String(), nil
}

func validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return fmt.Errorf("validate pdf: %w", err)
	}
	if ctx.PageCount == 0 {
		return fmt.Errorf("validate pdf: no pages")
	}
	return nil
}
