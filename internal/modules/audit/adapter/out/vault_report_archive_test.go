package out_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditout "siteaudit/internal/modules/audit/adapter/out"
	"siteaudit/internal/modules/audit/domain"
	"siteaudit/internal/platform/markdown"
)

func TestArchiveWritesDatedNote(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	archive := auditout.NewVaultReportArchive(root)

	path, err := archive.Save(context.Background(), domain.ArchiveEntry{
		InspectorName: "Ada Lovelace",
		ReportDate:    domain.Date{Year: 2026, Month: time.May, Day: 1},
		GeneratedAt:   time.Date(2026, 5, 2, 14, 3, 9, 0, time.UTC),
		ImageTitles:   []string{"North wall", "Roof"},
		Pages:         3,
		Skipped:       []domain.SkippedEntry{{Index: 2, Title: "Roof", Reason: "bad png"}},
		PDFPath:       "/tmp/site-audit-report.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2026", "05", "02", "140309-ada-lovelace.md"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	meta, body, err := markdown.SplitFrontmatter(string(raw))
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", meta["inspector"])
	assert.Contains(t, string(raw), "2026-05-01")
	assert.Equal(t, 3, meta["pages"])
	assert.Contains(t, body, "1. North wall")
	assert.Contains(t, body, "- 2. Roof: bad png")
}

func TestArchiveIndexListsNotesNewestFirst(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	archive := auditout.NewVaultReportArchive(root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.md"), []byte("# Reports\n\nKeep this line.\n"), 0o644))

	for _, at := range []time.Time{
		time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
	} {
		_, err := archive.Save(context.Background(), domain.ArchiveEntry{
			InspectorName: "Grace",
			ReportDate:    domain.Date{Year: at.Year(), Month: at.Month(), Day: at.Day()},
			GeneratedAt:   at,
		})
		require.NoError(t, err)
	}

	raw, err := os.ReadFile(filepath.Join(root, "index.md"))
	require.NoError(t, err)
	index := string(raw)
	assert.Contains(t, index, "Keep this line.")
	june := strings.Index(index, "2026/06/01/080000-grace.md")
	may := strings.Index(index, "2026/05/02/090000-grace.md")
	require.NotEqual(t, -1, june)
	require.NotEqual(t, -1, may)
	assert.Less(t, june, may)
	assert.Equal(t, 1, strings.Count(index, "siteaudit:exports:start"))
}
