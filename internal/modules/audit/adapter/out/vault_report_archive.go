package out

import (
	"context"
	"fmt"
	"os"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"siteaudit/internal/modules/audit/domain"
	auditout "siteaudit/internal/modules/audit/port/out"
	"siteaudit/internal/platform/markdown"
	"siteaudit/internal/platform/slug"
)

const (
	archiveSchemaVersion = 1
	indexName            = "index.md"
	indexStart           = "<!-- siteaudit:exports:start -->"
	indexEnd             = "<!-- siteaudit:exports:end -->"
)

// VaultReportArchive writes one markdown note per exported report under
// reports/YYYY/MM/DD and keeps a list of every note in reports/index.md.
// Text outside the generated block of the index is left alone.
type VaultReportArchive struct {
	root string
}

func NewVaultReportArchive(root string) auditout.ReportArchive {
	return &VaultReportArchive{root: root}
}

func (a *VaultReportArchive) Save(_ context.Context, entry domain.ArchiveEntry) (string, error) {
	at := entry.GeneratedAt
	dir := filepath.Join(a.root, at.Format("2006"), at.Format("01"), at.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report note dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.md", at.Format("150405"), slug.Make(entry.InspectorName))
	path := filepath.Join(dir, name)

	skipped := make([]string, 0, len(entry.Skipped))
	for _, s := range entry.Skipped {
		skipped = append(skipped, fmt.Sprintf("%d. %s", s.Index, s.Title))
	}
	meta := map[string]any{
		"schema_version": archiveSchemaVersion,
		"inspector":      entry.InspectorName,
		"report_date":    entry.ReportDate.String(),
		"generated_at":   at.Format("2006-01-02T15:04:05Z07:00"),
		"images":         len(entry.ImageTitles),
		"pages":          entry.Pages,
		"skipped":        skipped,
		"pdf":            entry.PDFPath,
	}

	body := strings.Builder{}
	fmt.Fprintf(&body, "# Site audit %s\n\n- Inspector: %s\n- Pages: %d\n\n## Images\n\n", entry.ReportDate, entry.InspectorName, entry.Pages)
	if len(entry.ImageTitles) == 0 {
		body.WriteString("No images.\n")
	}
	for i, title := range entry.ImageTitles {
		fmt.Fprintf(&body, "%d. %s\n", i+1, title)
	}
	if len(skipped) > 0 {
		body.WriteString("\n## Skipped\n\n")
		for _, s := range entry.Skipped {
			fmt.Fprintf(&body, "- %d. %s: %s\n", s.Index, s.Title, s.Reason)
		}
	}

	rendered, err := markdown.RenderFrontmatter(meta, body.String())
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write report note: %w", err)
	}
	if err := a.updateIndex(); err != nil {
		return path, err
	}
	return path, nil
}

func (a *VaultReportArchive) updateIndex() error {
	var notes []string
	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".md" || path == filepath.Join(a.root, indexName) {
			return nil
		}
		rel, err := filepath.Rel(a.root, path)
		if err != nil {
			return err
		}
		notes = append(notes, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return fmt.Errorf("list report notes: %w", err)
	}
	// Paths sort chronologically; newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(notes)))

	lines := make([]string, len(notes))
	for i, note := range notes {
		lines[i] = fmt.Sprintf("- [%s](%s)", strings.TrimSuffix(note, ".md"), note)
	}

	indexPath := filepath.Join(a.root, indexName)
	existing, err := os.ReadFile(indexPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read report index: %w", err)
	}
	body := string(existing)
	if body == "" {
		body = "# Site audit reports\n"
	}
	updated := markdown.ReplaceManagedBlock(body, indexStart, indexEnd, strings.Join(lines, "\n"))
	if err := os.WriteFile(indexPath, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("write report index: %w", err)
	}
	return nil
}
