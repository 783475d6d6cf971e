package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/TimelordUK/novelreader/internal/config"
	nrio "github.com/TimelordUK/novelreader/internal/io"
	"github.com/TimelordUK/novelreader/internal/logging"
	"github.com/TimelordUK/novelreader/internal/source"
)

var log = logging.GetLogger("loader")

var (
	ErrDecode          = errors.New("decode failed")
	ErrPermission      = errors.New("permission denied")
	ErrUnknownEncoding = errors.New("unknown encoding")

	// ErrCancelled means the user closed file selection. It is not a
	// failure and should not be reported as one.
	ErrCancelled = errors.New("file selection cancelled")
)

// Options control how a file is decoded
type Options struct {
	Encoding        string // explicit choice, wins over sniffing
	Sniff           bool
	SniffBytes      int
	DefaultEncoding string
}

// OptionsFromConfig builds options from the [loader] section. An explicit
// encoding from the command line goes in encoding.
func OptionsFromConfig(cfg config.LoaderConfig, encoding string) Options {
	return Options{
		Encoding:        encoding,
		Sniff:           cfg.Sniff,
		SniffBytes:      cfg.SniffBytes,
		DefaultEncoding: cfg.DefaultEncoding,
	}
}

// Result is one loaded document
type Result struct {
	Set      *source.LineSet
	Encoding string // canonical name actually used
	Kind     Kind
	Sniffed  bool
}

// LoadFile reads path, decodes it and splits it into display lines. The
// LineSet carries the file's base name.
func LoadFile(path string, opts Options) (*Result, error) {
	file, err := nrio.OpenMapped(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrPermission, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	data, err := file.ReadAll()
	if err != nil {
		return nil, err
	}

	label, sniffed := chooseEncoding(file, opts)
	encoding, err := CanonicalEncoding(label)
	if err != nil {
		return nil, err
	}

	text, err := Decode(data, encoding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	kind := KindFor(path)
	name := filepath.Base(path)
	set := source.NewLineSet(SplitLines(text, kind), name)

	log.Infof("loaded %s: %d lines, %s, %s", name, set.LineCount(), encoding, kind)
	return &Result{
		Set:      set,
		Encoding: encoding,
		Kind:     kind,
		Sniffed:  sniffed,
	}, nil
}

func chooseEncoding(file *nrio.MappedFile, opts Options) (string, bool) {
	if opts.Encoding != "" {
		return opts.Encoding, false
	}
	if opts.Sniff {
		n := opts.SniffBytes
		if n <= 0 {
			n = DefaultSniffBytes
		}
		if prefix, err := file.Prefix(n); err == nil {
			name := Sniff(prefix)
			log.Debugf("sniffed %s as %s", file.Path(), name)
			return name, true
		}
	}
	if opts.DefaultEncoding != "" {
		return opts.DefaultEncoding, false
	}
	return "utf-8", false
}
