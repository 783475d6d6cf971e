package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrClosed is returned by every call after Close
var ErrClosed = errors.New("store closed")

// Store is durable key/value storage. Each key is read and written
// independently; concurrent writers to one key resolve last-write-wins.
type Store interface {
	// Get returns the stored JSON value, or nil when the key is absent
	Get(ctx context.Context, key string) (json.RawMessage, error)

	// Set stores a JSON value, replacing any previous one
	Set(ctx context.Context, key string, value json.RawMessage) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// normalize turns an empty value into JSON null
func normalize(value json.RawMessage) (json.RawMessage, error) {
	if len(value) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(value) {
		return nil, errors.New("value is not valid JSON")
	}
	out := make(json.RawMessage, len(value))
	copy(out, value)
	return out, nil
}
