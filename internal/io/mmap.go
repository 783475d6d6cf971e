package io

import (
	"fmt"
	"io"

	"golang.org/x/exp/mmap"
)

// MappedFile provides memory-mapped read access to a document
type MappedFile struct {
	reader *mmap.ReaderAt
	path   string
}

// OpenMapped opens a file with memory mapping. Open errors are returned
// unwrapped so callers can test them with errors.Is.
func OpenMapped(path string) (*MappedFile, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	return &MappedFile{reader: reader, path: path}, nil
}

// ReadAt reads len(p) bytes at offset
func (m *MappedFile) ReadAt(p []byte, off int64) (int, error) {
	return m.reader.ReadAt(p, off)
}

// Size returns the file size
func (m *MappedFile) Size() int64 {
	return int64(m.reader.Len())
}

// Path returns the file path
func (m *MappedFile) Path() string {
	return m.path
}

// Close closes the memory mapping
func (m *MappedFile) Close() error {
	return m.reader.Close()
}

// ReadRange reads bytes from start to end
func (m *MappedFile) ReadRange(start, end int64) ([]byte, error) {
	if end > m.Size() {
		end = m.Size()
	}
	if start < 0 {
		start = 0
	}
	if start >= end {
		return nil, nil
	}

	buf := make([]byte, end-start)
	n, err := m.reader.ReadAt(buf, start)
	if err != nil && !(err == io.EOF && int64(n) == end-start) {
		return nil, fmt.Errorf("read %s: %w", m.path, err)
	}
	return buf, nil
}

// Prefix returns at most n bytes from the start of the file
func (m *MappedFile) Prefix(n int) ([]byte, error) {
	return m.ReadRange(0, int64(n))
}

// ReadAll copies the whole file out of the mapping
func (m *MappedFile) ReadAll() ([]byte, error) {
	if m.Size() == 0 {
		return []byte{}, nil
	}
	return m.ReadRange(0, m.Size())
}
