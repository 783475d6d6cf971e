package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimelordUK/novelreader/internal/config"
	"github.com/TimelordUK/novelreader/internal/protocol"
)

func writeDoc(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		encoding string
		want     string
	}{
		{"utf-8", []byte("héllo"), "utf-8", "héllo"},
		{"utf-8 label alias", []byte("plain"), "UTF8", "plain"},
		{"utf-8 bom dropped", append([]byte{0xEF, 0xBB, 0xBF}, "text"...), "utf-8", "text"},
		{"gbk", []byte{0xC4, 0xE3, 0xBA, 0xC3}, "gbk", "你好"},
		{"windows-1252", []byte("caf\xe9"), "windows-1252", "café"},
		{"latin1 alias", []byte("caf\xe9"), "latin1", "café"},
		{"utf-16le bom overrides label", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "utf-8", "hi"},
		{"shift_jis", []byte{0x82, 0xA0}, "shift_jis", "あ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data, tt.encoding)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeStrictUTF8(t *testing.T) {
	_, err := Decode([]byte("ok\xff\xfe bad"), "utf-8")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
	assert.Contains(t, err.Error(), "byte 2")
}

func TestDecodeUnknownEncoding(t *testing.T) {
	_, err := Decode([]byte("x"), "klingon-8")
	assert.ErrorIs(t, err, ErrUnknownEncoding)

	_, err = CanonicalEncoding("klingon-8")
	assert.ErrorIs(t, err, ErrUnknownEncoding)

	name, err := CanonicalEncoding("GB2312")
	require.NoError(t, err)
	assert.Equal(t, "gbk", name)
}

func TestSniff(t *testing.T) {
	assert.Equal(t, "utf-8", Sniff(nil))
	assert.Equal(t, "utf-8", Sniff([]byte("plain ascii text")))
	assert.Equal(t, "utf-8", Sniff([]byte("你好，世界")))
	assert.Equal(t, "utf-16le", Sniff([]byte{0xFF, 0xFE, 'h', 0}))
	assert.Equal(t, "windows-1252", Sniff([]byte("caf\xe9 cr\xe8me")))
}

func TestLoadStructuredFile(t *testing.T) {
	path := writeDoc(t, "book.md", []byte("# Title\n\nHello **world**\n"))

	res, err := LoadFile(path, Options{Encoding: "utf-8"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "Hello world"}, res.Set.Lines())
	assert.Equal(t, "book.md", res.Set.FileName())
	assert.Equal(t, KindStructured, res.Kind)
	assert.Equal(t, "utf-8", res.Encoding)
	assert.False(t, res.Sniffed)
}

func TestLoadPlainFile(t *testing.T) {
	path := writeDoc(t, "book.txt", []byte("# Title\n\nHello **world**\n"))

	res, err := LoadFile(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"# Title", "Hello **world**"}, res.Set.Lines())
	assert.Equal(t, KindPlain, res.Kind)
}

func TestLoadEmptyFile(t *testing.T) {
	res, err := LoadFile(writeDoc(t, "empty.txt", nil), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Set.LineCount())
	assert.NotNil(t, res.Set.Lines())
}

func TestLoadSniffsWhenNoEncodingGiven(t *testing.T) {
	path := writeDoc(t, "latin.txt", []byte("caf\xe9\ncr\xe8me\n"))
	opts := OptionsFromConfig(config.DefaultConfig().Loader, "")

	res, err := LoadFile(path, opts)
	require.NoError(t, err)
	assert.True(t, res.Sniffed)
	assert.Equal(t, "windows-1252", res.Encoding)
	assert.Equal(t, []string{"café", "crème"}, res.Set.Lines())
}

func TestLoadExplicitEncodingWins(t *testing.T) {
	path := writeDoc(t, "gbk.txt", []byte{0xC4, 0xE3, 0xBA, 0xC3, '\n'})
	opts := OptionsFromConfig(config.DefaultConfig().Loader, "GBK")

	res, err := LoadFile(path, opts)
	require.NoError(t, err)
	assert.False(t, res.Sniffed)
	assert.Equal(t, "gbk", res.Encoding)
	assert.Equal(t, []string{"你好"}, res.Set.Lines())
}

func TestLoadDecodeError(t *testing.T) {
	path := writeDoc(t, "broken.txt", []byte("ok\n\xff\n"))

	_, err := LoadFile(path, Options{Encoding: "utf-8"})
	assert.ErrorIs(t, err, ErrDecode)
	assert.NotErrorIs(t, err, ErrCancelled)
}

func TestLoadUnknownEncoding(t *testing.T) {
	path := writeDoc(t, "a.txt", []byte("a"))
	_, err := LoadFile(path, Options{Encoding: "nope"})
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestLoadPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file modes")
	}
	path := writeDoc(t, "secret.txt", []byte("x"))
	require.NoError(t, os.Chmod(path, 0))

	_, err := LoadFile(path, Options{})
	assert.ErrorIs(t, err, ErrPermission)
	assert.NotErrorIs(t, err, ErrDecode)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.txt"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

type fakePusher struct {
	lines    []string
	fileName string
	stored   map[string]any
	failKey  string
	calls    []string
}

func (f *fakePusher) CacheNovelForSession(_ context.Context, lines []string, fileName string) error {
	f.calls = append(f.calls, "cache")
	f.lines, f.fileName = lines, fileName
	return nil
}

func (f *fakePusher) SetStorage(_ context.Context, key string, value any) error {
	f.calls = append(f.calls, key)
	if key == f.failKey {
		return errors.New("store unavailable")
	}
	if f.stored == nil {
		f.stored = make(map[string]any)
	}
	f.stored[key] = value
	return nil
}

func TestPush(t *testing.T) {
	path := writeDoc(t, "book.md", []byte("# Title\n\nHello **world**\n"))
	res, err := LoadFile(path, Options{Encoding: "utf-8"})
	require.NoError(t, err)

	p := &fakePusher{}
	require.NoError(t, Push(context.Background(), p, res))

	assert.Equal(t, []string{"Title", "Hello world"}, p.lines)
	assert.Equal(t, "book.md", p.fileName)
	assert.Equal(t, "book.md", p.stored[protocol.KeyFileName])
	assert.Equal(t, "utf-8", p.stored[protocol.KeyFileEncoding])
	assert.Equal(t, 1, p.stored[protocol.KeyCurrentLine])
}

func TestPushResetsLineBeforeCaching(t *testing.T) {
	res, err := LoadFile(writeDoc(t, "a.txt", []byte("a\nb\n")), Options{})
	require.NoError(t, err)

	p := &fakePusher{}
	require.NoError(t, Push(context.Background(), p, res))
	assert.Equal(t, []string{protocol.KeyCurrentLine, "cache", protocol.KeyFileName, protocol.KeyFileEncoding}, p.calls)

	p = &fakePusher{failKey: protocol.KeyCurrentLine}
	require.Error(t, Push(context.Background(), p, res))
	assert.Nil(t, p.lines)
}

func TestPushSurfacesStoreFailure(t *testing.T) {
	res, err := LoadFile(writeDoc(t, "a.txt", []byte("a")), Options{})
	require.NoError(t, err)

	err = Push(context.Background(), &fakePusher{failKey: protocol.KeyFileEncoding}, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store unavailable")
}
