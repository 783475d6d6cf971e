package loader

import (
	"golang.org/x/net/html/charset"
)

// DefaultSniffBytes is how much of a file the sniffer looks at
const DefaultSniffBytes = 1024

// Sniff guesses the encoding of a document from its first bytes. Pure
// ASCII is reported as utf-8. The guess is only a default for the caller;
// an explicitly chosen encoding always wins.
func Sniff(prefix []byte) string {
	if isASCII(prefix) {
		return "utf-8"
	}
	_, name, _ := charset.DetermineEncoding(prefix, "text/plain")
	return name
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
