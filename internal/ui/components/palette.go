package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"siteaudit/internal/ui/theme"
)

// PaletteSubmitMsg carries a confirmed command line.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the overlay is dismissed with esc.
type PaletteCancelMsg struct{}

const (
	maxHints   = 6
	maxHistory = 32
)

var (
	overlayStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	usageStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

// CommandHint describes one palette command. Name is what tab completes to.
type CommandHint struct {
	Name  string
	Usage string
}

// AuditCommands mirrors executePalette in app/model.go.
var AuditCommands = []CommandHint{
	{"start", "start"},
	{"capture", "capture [title]"},
	{"title", "title <n> <text>"},
	{"delete", "delete <n>"},
	{"annotate", "annotate <n>"},
	{"clear", "clear <n>"},
	{"inspector", "inspector <name>"},
	{"date", "date <YYYY-MM-DD>"},
	{"sign:clear", "sign:clear"},
	{"export", "export"},
	{"new", "new"},
	{"new!", "new!   discard captured images"},
	{"camera start", "camera start [device]"},
	{"camera stop", "camera stop"},
	{"camera devices", "camera devices"},
}

// Palette is a one-line command prompt with completion and recall.
type Palette struct {
	input    textinput.Model
	commands []CommandHint
	history  []string
	recall   int
	visible  bool
	width    int
}

// NewPalette returns a closed palette that offers the given commands.
func NewPalette(commands []CommandHint) Palette {
	ti := textinput.New()
	ti.Prompt = ": "
	ti.Placeholder = "command (tab completes, ↑ recalls)"
	ti.CharLimit = 256
	return Palette{input: ti, commands: commands}
}

func (p Palette) Visible() bool { return p.visible }

// Open shows the prompt with an empty line and focuses it.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.recall = len(p.history)
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

// Value is the line as currently typed.
func (p Palette) Value() string { return p.input.Value() }

// History returns submitted lines, oldest first.
func (p Palette) History() []string { return append([]string(nil), p.history...) }

func (p *Palette) close() {
	p.visible = false
	p.input.Blur()
}

func (p *Palette) remember(line string) {
	if line == "" {
		return
	}
	if n := len(p.history); n > 0 && p.history[n-1] == line {
		return
	}
	p.history = append(p.history, line)
	if len(p.history) > maxHistory {
		p.history = p.history[len(p.history)-maxHistory:]
	}
}

// step moves through history; delta is -1 for older and +1 for newer.
func (p *Palette) step(delta int) {
	next := p.recall + delta
	if next < 0 || next > len(p.history) {
		return
	}
	p.recall = next
	if next == len(p.history) {
		p.input.SetValue("")
	} else {
		p.input.SetValue(p.history[next])
	}
	p.input.CursorEnd()
}

// Matches lists the commands whose name starts with the typed text.
func (p Palette) Matches() []CommandHint {
	typed := strings.ToLower(strings.TrimLeft(p.input.Value(), " "))
	var out []CommandHint
	for _, c := range p.commands {
		if strings.HasPrefix(c.Name, typed) || (typed != "" && strings.HasPrefix(typed, c.Name+" ")) {
			out = append(out, c)
		}
	}
	return out
}

// complete extends the input to the longest name prefix shared by all matches.
func (p *Palette) complete() {
	matches := p.Matches()
	if len(matches) == 0 {
		return
	}
	common := matches[0].Name
	for _, m := range matches[1:] {
		for !strings.HasPrefix(m.Name, common) {
			common = common[:len(common)-1]
		}
	}
	if len(matches) == 1 {
		common += " "
	}
	if len(common) > len(p.input.Value()) {
		p.input.SetValue(common)
		p.input.CursorEnd()
	}
}

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			line := strings.TrimSpace(p.input.Value())
			p.remember(line)
			p.close()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: line} }
		case "tab":
			p.complete()
			return p, nil
		case "up":
			p.step(-1)
			return p, nil
		case "down":
			p.step(1)
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	lines := []string{theme.Title.Render("Command"), p.input.View()}
	matches := p.Matches()
	if len(matches) > maxHints {
		matches = matches[:maxHints]
	}
	if len(matches) > 0 {
		lines = append(lines, "")
	}
	for _, m := range matches {
		lines = append(lines, usageStyle.Render("  "+m.Usage))
	}
	w := p.width
	if w < 20 {
		w = 64
	}
	return overlayStyle.Width(w - 2).Render(strings.Join(lines, "\n"))
}
