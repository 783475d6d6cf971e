package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/TimelordUK/novelreader/internal/locale"
	"github.com/TimelordUK/novelreader/internal/logging"
	"github.com/TimelordUK/novelreader/internal/protocol"
	"github.com/TimelordUK/novelreader/internal/session"
	"github.com/TimelordUK/novelreader/internal/store"
)

var log = logging.GetLogger("rpc")

// HandlerFunc serves one action. The returned value becomes the response
// data; an error becomes the response error text.
type HandlerFunc func(ctx context.Context, msg protocol.Message) (any, error)

// Dispatcher maps actions to handlers in the owning process
type Dispatcher struct {
	store    store.Store
	cache    *session.Cache
	notifier session.Notifier
	locales  *locale.Negotiator

	handlers map[string]HandlerFunc
}

// NewDispatcher wires the eight request actions to the store, cache and
// notifier. A nil notifier disables the localeChanged broadcast.
func NewDispatcher(st store.Store, cache *session.Cache, notifier session.Notifier, locales *locale.Negotiator) *Dispatcher {
	d := &Dispatcher{
		store:    st,
		cache:    cache,
		notifier: notifier,
		locales:  locales,
	}
	d.handlers = map[string]HandlerFunc{
		protocol.ActionGetStorage:                    d.getStorage,
		protocol.ActionSetStorage:                    d.setStorage,
		protocol.ActionRemoveStorage:                 d.removeStorage,
		protocol.ActionGetCurrentLocale:              d.getCurrentLocale,
		protocol.ActionSetLocale:                     d.setLocale,
		protocol.ActionCacheNovelForSession:          d.cacheNovelForSession,
		protocol.ActionGetNovelLinesFromSessionCache: d.getNovelLines,
		protocol.ActionClearNovelSessionCache:        d.clearNovelSessionCache,
	}
	return d
}

// Actions returns the names of every registered action, sorted
func (d *Dispatcher) Actions() []string {
	out := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// DispatchRaw decodes a message and dispatches it. Undecodable input gets a
// failure response like any other malformed request.
func (d *Dispatcher) DispatchRaw(ctx context.Context, raw *json.RawMessage) protocol.Response {
	if raw == nil || len(*raw) == 0 {
		log.Noticef("request without params")
		return protocol.Fail(fmt.Errorf("%w: empty request", ErrInvalidPayload))
	}
	var msg protocol.Message
	if err := json.Unmarshal(*raw, &msg); err != nil {
		log.Noticef("undecodable request: %s", err)
		return protocol.Fail(fmt.Errorf("%w: %s", ErrInvalidPayload, err))
	}
	return d.Dispatch(ctx, msg)
}

// Dispatch validates the action and runs its handler. It always produces a
// response.
func (d *Dispatcher) Dispatch(ctx context.Context, msg protocol.Message) protocol.Response {
	if msg.Action == "" {
		log.Noticef("request without action")
		return protocol.Fail(ErrMissingAction)
	}

	h, ok := d.handlers[msg.Action]
	if !ok {
		log.Noticef("unknown action %q", msg.Action)
		return protocol.Fail(fmt.Errorf("%w: %q", ErrUnknownAction, msg.Action))
	}

	data, err := h(ctx, msg)
	if err != nil {
		log.Errorf("%s failed: %s", msg.Action, err)
		return protocol.Fail(err)
	}

	resp, err := protocol.OK(data)
	if err != nil {
		log.Errorf("%s: %s", msg.Action, err)
		return protocol.Fail(err)
	}
	return resp
}

func requireKey(msg protocol.Message) error {
	if msg.Key == "" {
		return fmt.Errorf("%w: %s requires a key", ErrInvalidPayload, msg.Action)
	}
	return nil
}

func (d *Dispatcher) getStorage(ctx context.Context, msg protocol.Message) (any, error) {
	if err := requireKey(msg); err != nil {
		return nil, err
	}
	v, err := d.store.Get(ctx, msg.Key)
	if err != nil {
		return nil, err
	}
	// a nil RawMessage encodes as null
	return v, nil
}

func (d *Dispatcher) setStorage(ctx context.Context, msg protocol.Message) (any, error) {
	if err := requireKey(msg); err != nil {
		return nil, err
	}
	if err := d.store.Set(ctx, msg.Key, msg.Value); err != nil {
		return nil, err
	}
	return true, nil
}

func (d *Dispatcher) removeStorage(ctx context.Context, msg protocol.Message) (any, error) {
	if err := requireKey(msg); err != nil {
		return nil, err
	}
	if err := d.store.Delete(ctx, msg.Key); err != nil {
		return nil, err
	}
	return true, nil
}

func (d *Dispatcher) storedLocale(ctx context.Context) (string, error) {
	raw, err := d.store.Get(ctx, protocol.KeyPreferredLocale)
	if err != nil || raw == nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// not a string, treat as unset
		return "", nil
	}
	return s, nil
}

func (d *Dispatcher) getCurrentLocale(ctx context.Context, _ protocol.Message) (any, error) {
	preferred, err := d.storedLocale(ctx)
	if err != nil {
		return nil, err
	}
	return d.locales.Resolve(preferred), nil
}

func (d *Dispatcher) setLocale(ctx context.Context, msg protocol.Message) (any, error) {
	var tag string
	if len(msg.Value) == 0 || json.Unmarshal(msg.Value, &tag) != nil {
		return nil, fmt.Errorf("%w: setLocale requires a locale string", ErrInvalidPayload)
	}
	name, err := d.locales.Validate(tag)
	if err != nil {
		return nil, err
	}

	raw, _ := json.Marshal(name)
	if err := d.store.Set(ctx, protocol.KeyPreferredLocale, raw); err != nil {
		return nil, err
	}

	log.Infof("locale set to %s", name)
	if d.notifier != nil {
		d.notifier.Broadcast(ctx, protocol.Notification{
			Action: protocol.ActionLocaleChanged,
			Locale: name,
		})
	}
	return true, nil
}

func (d *Dispatcher) cacheNovelForSession(ctx context.Context, msg protocol.Message) (any, error) {
	if msg.Lines == nil {
		return nil, fmt.Errorf("%w: lines must be an array of strings", ErrInvalidPayload)
	}
	var fileName string
	if msg.FileName != nil {
		fileName = *msg.FileName
	}
	d.cache.Store(ctx, msg.Lines, fileName)
	return true, nil
}

func (d *Dispatcher) getNovelLines(_ context.Context, _ protocol.Message) (any, error) {
	return d.cache.Lines(), nil
}

func (d *Dispatcher) clearNovelSessionCache(_ context.Context, _ protocol.Message) (any, error) {
	d.cache.Clear()
	return true, nil
}
