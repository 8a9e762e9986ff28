// Package sanitize cleans free text that remote callers store in the index,
// such as time series titles. Stored titles are later returned to agents by
// the MCP tools, so markup that could be read as instructions is removed.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxTitleLength is the maximum title length in runes.
const MaxTitleLength = 200

var (
	// reXMLTag matches XML/HTML tags, with attributes or self-closing, and
	// processing instructions like <?xml ...?>.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	reBackticks  = regexp.MustCompile("`+")
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Title returns s as a single line: control characters, tags and backticks
// are removed, whitespace runs collapse to one space, and the result is cut
// to MaxTitleLength runes.
func Title(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	s = stripControlChars(s)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reBackticks.ReplaceAllString(s, "")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if utf8.RuneCountInString(s) > MaxTitleLength {
		s = strings.TrimSpace(string([]rune(s)[:MaxTitleLength]))
	}
	return s
}

// stripControlChars drops C0 control characters and DEL. Tabs and newlines
// become spaces.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteByte(' ')
		case r < 0x20 || r == 0x7f:
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
