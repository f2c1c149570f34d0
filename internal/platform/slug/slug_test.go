package slug

import (
	"strings"
	"testing"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Ada Lovelace":      "ada-lovelace",
		"  O'Brien & Sons ": "o-brien-sons",
		"":                  "untitled",
		"---":               "untitled",
		"José Müller":       "jose-muller",
		"Łukasz":            "ukasz",
	}
	for in, want := range cases {
		if got := Make(in); got != want {
			t.Errorf("Make(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMakeTruncates(t *testing.T) {
	got := Make(strings.Repeat("ab ", 40))
	if len(got) > maxLen || strings.HasSuffix(got, "-") {
		t.Fatalf("unexpected slug %q", got)
	}
}
