package reader

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/TimelordUK/novelreader/internal/logging"
	"github.com/TimelordUK/novelreader/internal/protocol"
	"github.com/TimelordUK/novelreader/internal/settings"
)

var log = logging.GetLogger("reader")

// DefaultJumpSize is how far a jump moves
const DefaultJumpSize = 5

// Client is the part of the router client a rendering context uses
type Client interface {
	GetStorage(ctx context.Context, key string, out any) (bool, error)
	SetStorage(ctx context.Context, key string, value any) error
	GetNovelLinesFromSessionCache(ctx context.Context) (protocol.SessionLines, error)
	GetCurrentLocale(ctx context.Context) (string, error)
}

// Reader is the state of one rendering context: a local copy of the
// LineSet and the position within it. The position is always inside the
// lines when there are any.
type Reader struct {
	client   Client
	jumpSize int

	writeMu sync.Mutex // orders currentLine writes

	mu       sync.Mutex
	lines    []string
	fileName string
	current  int
	visible  bool
	position protocol.Position
	locale   string
	settings settings.Record
}

// New creates a reader with no content
func New(client Client, jumpSize int) *Reader {
	if jumpSize < 1 {
		jumpSize = DefaultJumpSize
	}
	return &Reader{
		client:   client,
		jumpSize: jumpSize,
		locale:   "en",
		settings: settings.Defaults(),
	}
}

// Init restores settings, position, visibility and locale, then the
// content. Failures to restore presentation state fall back to defaults.
func (r *Reader) Init(ctx context.Context) error {
	rec, err := settings.Load(ctx, r.client)
	if err != nil {
		log.Warningf("settings: %s", err)
	}

	var pos protocol.Position
	if _, err := r.client.GetStorage(ctx, protocol.KeyReaderPosition, &pos); err != nil {
		log.Warningf("position: %s", err)
		pos = protocol.Position{}
	}

	// shown until the user hides it
	visible := true
	if _, err := r.client.GetStorage(ctx, protocol.KeyIsVisible, &visible); err != nil {
		log.Warningf("visibility: %s", err)
		visible = true
	}

	locale, err := r.client.GetCurrentLocale(ctx)
	if err != nil {
		log.Warningf("locale: %s", err)
	}

	r.mu.Lock()
	r.settings = rec
	r.position = pos
	r.visible = visible
	if locale != "" {
		r.locale = locale
	}
	r.mu.Unlock()

	return r.LoadContent(ctx)
}

// LoadContent fetches the session LineSet and the stored line number. With
// nothing cached the reader shows the placeholder.
func (r *Reader) LoadContent(ctx context.Context) error {
	snap, err := r.client.GetNovelLinesFromSessionCache(ctx)
	if err != nil {
		r.setLines(nil, "", 0)
		return fmt.Errorf("load content: %w", err)
	}

	var raw json.RawMessage
	if _, err := r.client.GetStorage(ctx, protocol.KeyCurrentLine, &raw); err != nil {
		log.Warningf("current line: %s", err)
	}

	name := ""
	if snap.FileName != nil {
		name = *snap.FileName
	}
	if !snap.Loaded() {
		log.Info("no content in session cache")
		r.setLines(nil, "", 0)
		return nil
	}
	r.setLines(snap.Lines, name, ParseLine(raw)-1)
	return nil
}

// ParseLine reads a stored 1-based line number that may be a number or a
// string. Anything unreadable is line 1.
func ParseLine(raw json.RawMessage) int {
	if len(raw) == 0 || string(raw) == "null" {
		return 1
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return lineInRange(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		// leading digits only, like parseInt
		s = strings.TrimSpace(s)
		end := 0
		for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && s[end] == '-') {
			end++
		}
		if v, err := strconv.Atoi(s[:end]); err == nil {
			return lineInRange(float64(v))
		}
	}
	return 1
}

// lineInRange converts n, treating anything outside int32 as unreadable
func lineInRange(n float64) int {
	if math.IsNaN(n) || n > math.MaxInt32 || n < math.MinInt32 {
		return 1
	}
	return int(n)
}

func (r *Reader) setLines(lines []string, fileName string, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lines == nil {
		r.lines = nil
	} else {
		r.lines = make([]string, len(lines))
		copy(r.lines, lines)
	}
	r.fileName = fileName
	r.current = index
	r.clamp()
}

// clamp keeps current inside the lines
func (r *Reader) clamp() {
	maxIndex := len(r.lines) - 1
	if maxIndex < 0 {
		maxIndex = 0
	}
	if r.current > maxIndex {
		r.current = maxIndex
	}
	if r.current < 0 {
		r.current = 0
	}
}

// Next moves forward one line. At the last line it does nothing and
// returns false.
func (r *Reader) Next() bool {
	return r.step(1) != 0
}

// Previous moves back one line. At the first line it does nothing and
// returns false.
func (r *Reader) Previous() bool {
	return r.step(-1) != 0
}

// JumpForward moves forward by the jump size, stopping at the last line
func (r *Reader) JumpForward() bool {
	return r.step(r.jumpSize) != 0
}

// JumpBack moves back by the jump size, stopping at the first line
func (r *Reader) JumpBack() bool {
	return r.step(-r.jumpSize) != 0
}

// step moves by delta within bounds and returns how far it actually moved
func (r *Reader) step(delta int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := r.current
	r.current += delta
	r.clamp()
	return r.current - before
}

// Persist stores the current line number, 1-based. Writes are serialised
// and each one reads the line only once it holds the writer lock, so the
// last write to finish always carries the latest line.
func (r *Reader) Persist(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.client.SetStorage(ctx, protocol.KeyCurrentLine, r.LineNumber())
}

// ToggleVisibility flips the overlay and stores the new state
func (r *Reader) ToggleVisibility(ctx context.Context) (bool, error) {
	r.mu.Lock()
	r.visible = !r.visible
	visible := r.visible
	r.mu.Unlock()
	return visible, r.client.SetStorage(ctx, protocol.KeyIsVisible, visible)
}

// MoveBy shifts the overlay, never past the top left corner
func (r *Reader) MoveBy(dx, dy int) protocol.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position.Left = max(0, r.position.Left+dx)
	r.position.Top = max(0, r.position.Top+dy)
	return r.position
}

// SavePosition stores the overlay offset
func (r *Reader) SavePosition(ctx context.Context) error {
	return r.client.SetStorage(ctx, protocol.KeyReaderPosition, r.Position())
}

// Apply updates local state from a broadcast. It reports whether the
// display needs refreshing.
func (r *Reader) Apply(n protocol.Notification) bool {
	switch n.Action {
	case protocol.ActionNovelLinesUpdated:
		lines := n.Lines
		if lines == nil {
			lines = []string{}
		}
		r.setLines(lines, n.FileName, 0)
		log.Infof("received %d lines for %q", len(lines), n.FileName)
		return true
	case protocol.ActionLocaleChanged:
		if n.Locale == "" {
			return false
		}
		r.mu.Lock()
		r.locale = n.Locale
		r.mu.Unlock()
		return true
	default:
		return false
	}
}

// SetSettings replaces the presentation record
func (r *Reader) SetSettings(rec settings.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = rec
}

// Text returns the line to display: the current line, or the localised
// placeholder when there is nothing to read
func (r *Reader) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lines) == 0 {
		return Placeholder(r.locale)
	}
	return strings.TrimSpace(r.lines[r.current])
}

// Index returns the 0-based position
func (r *Reader) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// LineNumber returns the 1-based position as stored
func (r *Reader) LineNumber() int {
	return r.Index() + 1
}

// Len returns the number of lines held
func (r *Reader) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

// HasContent reports whether a LineSet is held
func (r *Reader) HasContent() bool {
	return r.Len() > 0
}

func (r *Reader) FileName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fileName
}

func (r *Reader) Visible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

func (r *Reader) Position() protocol.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

func (r *Reader) Locale() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.locale
}

func (r *Reader) Settings() settings.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}
