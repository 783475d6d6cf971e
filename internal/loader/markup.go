package loader

import (
	"regexp"
	"strings"
)

var (
	headingRe     = regexp.MustCompile(`^ {0,3}#{1,6}(?:\s+|$)`)
	closingHashRe = regexp.MustCompile(`\s+#+\s*$`)
	codeSpanRe    = regexp.MustCompile("`+([^`]*)`+")
	linkRe        = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	boldStarRe    = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnderRe   = regexp.MustCompile(`__(.+?)__`)
	strikeRe      = regexp.MustCompile(`~~(.+?)~~`)
	italicStarRe  = regexp.MustCompile(`\*([^*\s](?:[^*]*[^*\s])?)\*`)
	italicUnderRe = regexp.MustCompile(`(^|[^\w])_([^_\s](?:[^_]*[^_\s])?)_([^\w]|$)`)
)

// StripMarkup removes lightweight markup from a single line: heading
// markers, emphasis pairs, link syntax (the text is kept) and code span
// fences. Text inside code spans is left as written.
func StripMarkup(line string) string {
	if loc := headingRe.FindStringIndex(line); loc != nil {
		line = closingHashRe.ReplaceAllString(line[loc[1]:], "")
	}

	spans := codeSpanRe.FindAllStringSubmatchIndex(line, -1)
	if len(spans) == 0 {
		return stripInline(line)
	}

	var b strings.Builder
	prev := 0
	for _, s := range spans {
		b.WriteString(stripInline(line[prev:s[0]]))
		b.WriteString(line[s[2]:s[3]])
		prev = s[1]
	}
	b.WriteString(stripInline(line[prev:]))
	return b.String()
}

func stripInline(s string) string {
	if s == "" {
		return s
	}
	s = linkRe.ReplaceAllString(s, "$1")
	s = boldStarRe.ReplaceAllString(s, "$1")
	s = boldUnderRe.ReplaceAllString(s, "$1")
	s = strikeRe.ReplaceAllString(s, "$1")
	s = italicStarRe.ReplaceAllString(s, "$1")
	s = italicUnderRe.ReplaceAllString(s, "$1$2$3")
	return s
}
