package markdown

import "testing"

func TestReplaceManagedBlock(t *testing.T) {
	const start, end = "<!-- s -->", "<!-- e -->"
	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", start + "\nnew\n" + end + "\n"},
		{"append", "# Title\n", "# Title\n\n" + start + "\nnew\n" + end + "\n"},
		{"append no newline", "# Title", "# Title\n\n" + start + "\nnew\n" + end + "\n"},
		{"replace", "a\n" + start + "\nold\n" + end + "\nb\n", "a\n" + start + "\nnew\n" + end + "\nb\n"},
	}
	for _, tc := range cases {
		if got := ReplaceManagedBlock(tc.body, start, end, "new"); got != tc.want {
			t.Errorf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestFrontmatterRoundTrip(t *testing.T) {
	rendered, err := RenderFrontmatter(map[string]any{"inspector": "Ada"}, "body\n")
	if err != nil {
		t.Fatal(err)
	}
	meta, body, err := SplitFrontmatter(rendered)
	if err != nil {
		t.Fatal(err)
	}
	if meta["inspector"] != "Ada" || body != "body\n" {
		t.Fatalf("unexpected split: %v %q", meta, body)
	}
}

func TestSplitFrontmatterEdgeCases(t *testing.T) {
	meta, body, err := SplitFrontmatter("plain note\n")
	if err != nil || len(meta) != 0 || body != "plain note\n" {
		t.Fatalf("expected untouched body, got %v %q %v", meta, body, err)
	}

	meta, body, err = SplitFrontmatter("---\r\npages: 3\r\n---\r\n\r\nbody\r\n")
	if err != nil {
		t.Fatal(err)
	}
	if meta["pages"] != 3 || body != "body\n" {
		t.Fatalf("crlf split: %v %q", meta, body)
	}

	if _, _, err := SplitFrontmatter("---\npages: 3\n"); err == nil {
		t.Fatal("expected error for unterminated header")
	}
}
