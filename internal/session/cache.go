package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/TimelordUK/novelreader/internal/logging"
	"github.com/TimelordUK/novelreader/internal/protocol"
	"github.com/TimelordUK/novelreader/internal/source"
)

var log = logging.GetLogger("session")

// State of the cache
type State int

const (
	StateEmpty State = iota
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	default:
		return "empty"
	}
}

// Notifier fans a notification out to every listening context
type Notifier interface {
	Broadcast(ctx context.Context, n protocol.Notification)
}

// Cache holds the currently loaded document for the lifetime of the
// owning process. Nothing here is persisted.
type Cache struct {
	mu sync.RWMutex

	set *source.LineSet

	// generation changes on every Reset, i.e. every process start
	generation string

	notifier Notifier
}

// NewCache creates an empty cache. A nil notifier disables broadcasts.
func NewCache(notifier Notifier) *Cache {
	return &Cache{
		generation: uuid.NewString(),
		notifier:   notifier,
	}
}

// Store replaces the held document unconditionally and broadcasts the new
// lines to every connected context.
func (c *Cache) Store(ctx context.Context, lines []string, fileName string) {
	set := source.NewLineSet(lines, fileName)

	c.mu.Lock()
	c.set = set
	gen := c.generation
	c.mu.Unlock()

	log.Infof("cached %d lines for %q in session %s", set.LineCount(), fileName, gen)

	if c.notifier != nil {
		c.notifier.Broadcast(ctx, protocol.Notification{
			Action:   protocol.ActionNovelLinesUpdated,
			Lines:    set.Lines(),
			FileName: fileName,
		})
	}
}

// Lines returns the current snapshot, with nulls when nothing is loaded
func (c *Cache) Lines() protocol.SessionLines {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.set == nil {
		return protocol.SessionLines{}
	}
	name := c.set.FileName()
	return protocol.SessionLines{
		Lines:    c.set.Lines(),
		FileName: &name,
	}
}

// Clear drops the held document. Safe to call when already empty.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = nil
}

// Reset is the process-start event: the cache is emptied and a new
// generation begins.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.set = nil
	c.generation = uuid.NewString()
	gen := c.generation
	c.mu.Unlock()

	log.Noticef("session reset, generation %s", gen)
}

// State returns Empty or Loaded
func (c *Cache) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.set == nil {
		return StateEmpty
	}
	return StateLoaded
}
