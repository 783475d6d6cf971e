package loader

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// CanonicalEncoding returns the WHATWG name for an encoding label, e.g.
// "GBK" -> "gbk", "latin1" -> "windows-1252"
func CanonicalEncoding(label string) (string, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	return name, nil
}

// Decode converts data to UTF-8 text under the named encoding. A byte
// order mark overrides the label. UTF-8 input is checked strictly: an
// invalid sequence is an ErrDecode, not a replacement character.
func Decode(data []byte, label string) (string, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	name, _ := htmlindex.Name(enc)

	hasUTF16BOM := bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE)
	if name == "utf-8" && !hasUTF16BOM {
		data = bytes.TrimPrefix(data, bomUTF8)
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: invalid utf-8 at byte %d", ErrDecode, invalidOffset(data))
		}
		return string(data), nil
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %s", ErrDecode, name, err)
	}
	return string(out), nil
}

func invalidOffset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(data)
}
