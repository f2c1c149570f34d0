package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxLen keeps report file names short enough for every filesystem the
// exports are copied to.
const maxLen = 48

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make turns a person or image name into a file-name fragment: accents are
// folded to ASCII, anything else becomes a dash. Empty results are
// "untitled".
func Make(input string) string {
	folded, _, err := transform.String(stripMarks, input)
	if err != nil {
		folded = input
	}
	s := strings.ToLower(strings.TrimSpace(folded))
	s = nonAlphaNum.ReplaceAllString(s, "-")
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	s = strings.Trim(s, "-")
	if s == "" {
		return "untitled"
	}
	return s
}
