package source

// LineSet holds the display lines of one loaded document and its name.
// It is never mutated after construction; a new load replaces it wholesale.
type LineSet struct {
	lines    []string
	fileName string
}

// NewLineSet creates a line set from a copy of lines
func NewLineSet(lines []string, fileName string) *LineSet {
	owned := make([]string, len(lines))
	copy(owned, lines)
	return &LineSet{
		lines:    owned,
		fileName: fileName,
	}
}

// LineCount returns total number of lines
func (s *LineSet) LineCount() int {
	if s == nil {
		return 0
	}
	return len(s.lines)
}

// Lines returns a copy of every line
func (s *LineSet) Lines() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// FileName returns the display name of the source file
func (s *LineSet) FileName() string {
	if s == nil {
		return ""
	}
	return s.fileName
}
