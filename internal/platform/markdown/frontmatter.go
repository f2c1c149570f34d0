package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const separator = "---\n"

// SplitFrontmatter separates a YAML header from the note body. Notes
// without a header return an empty map. CRLF line endings are accepted and
// the blank line RenderFrontmatter puts after the header is dropped, so a
// rendered note splits back into the body it was rendered from.
func SplitFrontmatter(content string) (map[string]any, string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, separator) {
		return map[string]any{}, content, nil
	}
	rest := strings.TrimPrefix(content, separator)
	raw, body, ok := strings.Cut(rest, "\n"+separator)
	if !ok {
		return nil, "", fmt.Errorf("invalid frontmatter: missing closing separator")
	}

	decoded := map[string]any{}
	if err := yaml.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, "", fmt.Errorf("unmarshal frontmatter: %w", err)
	}
	return decoded, strings.TrimPrefix(body, "\n"), nil
}

// RenderFrontmatter writes meta as a YAML header followed by a blank line
// and body. Keys come out sorted.
func RenderFrontmatter(meta map[string]any, body string) (string, error) {
	raw, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	buf := bytes.Buffer{}
	buf.WriteString(separator)
	buf.Write(raw)
	buf.WriteString(separator)
	buf.WriteString("\n")
	buf.WriteString(strings.TrimLeft(body, "\n"))
	return buf.String(), nil
}
