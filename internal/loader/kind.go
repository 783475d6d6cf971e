package loader

import (
	"path/filepath"
	"strings"
)

// Kind selects how lines are cleaned up
type Kind int

const (
	KindPlain Kind = iota
	KindStructured
)

func (k Kind) String() string {
	if k == KindStructured {
		return "structured"
	}
	return "plain"
}

// KindFor picks the kind from the file extension: .md and .markdown are
// structured, everything else is plain
func KindFor(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return KindStructured
	default:
		return KindPlain
	}
}
