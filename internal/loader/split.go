package loader

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SplitLines cuts content at line feeds and returns the display lines.
// Each line is trimmed. Structured input is also stripped of markup and
// composed to NFC; plain lines keep their bytes.
// lines that end up empty are dropped, so display line numbers do not
// follow physical line numbers. The result is never nil.
func SplitLines(content string, kind Kind) []string {
	// Estimate initial capacity (assume ~80 bytes per line)
	lines := make([]string, 0, len(content)/80+1)

	rest := content
	for {
		idx := strings.IndexByte(rest, '\n')
		raw := rest
		if idx >= 0 {
			raw = rest[:idx]
		}

		if line := cleanLine(raw, kind); line != "" {
			lines = append(lines, line)
		}

		if idx < 0 {
			break
		}
		rest = rest[idx+1:]
	}
	return lines
}

func cleanLine(raw string, kind Kind) string {
	line := strings.TrimSpace(raw)
	if line == "" {
		return ""
	}
	if kind != KindStructured {
		return line
	}
	return norm.NFC.String(strings.TrimSpace(StripMarkup(line)))
}
