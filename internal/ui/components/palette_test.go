package components_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteaudit/internal/ui/components"
)

func typeText(p components.Palette, text string) components.Palette {
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return p
}

func press(p components.Palette, k tea.KeyType) (components.Palette, tea.Cmd) {
	return p.Update(tea.KeyMsg{Type: k})
}

func openPalette() components.Palette {
	p := components.NewPalette(components.AuditCommands)
	p.Open()
	return p
}

func TestPaletteTabCompletesSharedPrefix(t *testing.T) {
	p := typeText(openPalette(), "cam")
	p, _ = press(p, tea.KeyTab)
	assert.Equal(t, "camera ", p.Value())
	assert.Len(t, p.Matches(), 3)

	p = typeText(openPalette(), "sig")
	p, _ = press(p, tea.KeyTab)
	assert.Equal(t, "sign:clear ", p.Value())
}

func TestPaletteKeepsArgumentsInMatches(t *testing.T) {
	p := typeText(openPalette(), "title 2 north wall")
	matches := p.Matches()
	require.Len(t, matches, 1)
	assert.Equal(t, "title", matches[0].Name)
}

func TestPaletteSubmitRecordsHistory(t *testing.T) {
	p := typeText(openPalette(), "  export ")
	p, cmd := press(p, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.Equal(t, components.PaletteSubmitMsg{Input: "export"}, cmd())
	assert.False(t, p.Visible())

	p.Open()
	p = typeText(p, "start")
	p, _ = press(p, tea.KeyEnter)
	assert.Equal(t, []string{"export", "start"}, p.History())

	p.Open()
	p, _ = press(p, tea.KeyUp)
	assert.Equal(t, "start", p.Value())
	p, _ = press(p, tea.KeyUp)
	assert.Equal(t, "export", p.Value())
	p, _ = press(p, tea.KeyUp)
	assert.Equal(t, "export", p.Value())
	p, _ = press(p, tea.KeyDown)
	p, _ = press(p, tea.KeyDown)
	assert.Equal(t, "", p.Value())
}

func TestPaletteEscCancels(t *testing.T) {
	p, cmd := press(openPalette(), tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.Equal(t, components.PaletteCancelMsg{}, cmd())
	assert.False(t, p.Visible())
	assert.Empty(t, p.History())
}
