package locale

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

// ErrUnsupported is returned for a tag the reader has no strings for
var ErrUnsupported = errors.New("unsupported locale")

// Negotiator picks a display locale from the supported list
type Negotiator struct {
	supported []string
	fallback  string
	matcher   language.Matcher
}

// NewNegotiator creates a negotiator. The fallback is used when nothing
// matches; it is added to the supported list if missing.
func NewNegotiator(supported []string, fallback string) (*Negotiator, error) {
	if fallback == "" {
		fallback = "en"
	}

	names := make([]string, 0, len(supported)+1)
	tags := make([]language.Tag, 0, len(supported)+1)

	// fallback first, the matcher falls back to tag 0
	all := append([]string{fallback}, supported...)
	seen := make(map[string]bool, len(all))
	for _, s := range all {
		tag, err := language.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", s, err)
		}
		if seen[tag.String()] {
			continue
		}
		seen[tag.String()] = true
		names = append(names, s)
		tags = append(tags, tag)
	}

	return &Negotiator{
		supported: names,
		fallback:  fallback,
		matcher:   language.NewMatcher(tags),
	}, nil
}

// Supported returns the supported locales, fallback first
func (n *Negotiator) Supported() []string {
	out := make([]string, len(n.supported))
	copy(out, n.supported)
	return out
}

// Default returns the fallback locale
func (n *Negotiator) Default() string {
	return n.fallback
}

// Validate returns the supported spelling of tag, or ErrUnsupported
func (n *Negotiator) Validate(tag string) (string, error) {
	parsed, err := language.Parse(normalize(tag))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, tag)
	}
	_, idx, conf := n.matcher.Match(parsed)
	if conf < language.High {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, tag)
	}
	return n.supported[idx], nil
}

// Resolve returns the stored preference when it is usable, otherwise the
// best match for the environment.
func (n *Negotiator) Resolve(preferred string) string {
	if preferred != "" {
		if name, err := n.Validate(preferred); err == nil {
			return name
		}
	}
	return n.FromEnv()
}

// FromEnv matches LC_ALL, LC_MESSAGES or LANG against the supported list
func (n *Negotiator) FromEnv() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(key)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		tag, err := language.Parse(normalize(v))
		if err != nil {
			continue
		}
		_, idx, conf := n.matcher.Match(tag)
		if conf == language.No {
			return n.fallback
		}
		return n.supported[idx]
	}
	return n.fallback
}

// normalize turns a POSIX locale ("zh_CN.UTF-8@x") into a BCP 47 tag
func normalize(s string) string {
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	return strings.ReplaceAll(strings.TrimSpace(s), "_", "-")
}
