package loader

import (
	"context"
	"fmt"

	"github.com/TimelordUK/novelreader/internal/protocol"
)

// Pusher is the part of the router client the loader needs
type Pusher interface {
	CacheNovelForSession(ctx context.Context, lines []string, fileName string) error
	SetStorage(ctx context.Context, key string, value any) error
}

// Push resets reading to line 1, hands the document to the session cache,
// then records its name and encoding. currentLine is written before the
// cache broadcasts, so a context reacting to the broadcast never pairs the
// new lines with the previous document's line number.
func Push(ctx context.Context, p Pusher, res *Result) error {
	name := res.Set.FileName()
	if err := p.SetStorage(ctx, protocol.KeyCurrentLine, 1); err != nil {
		return fmt.Errorf("store %s: %w", protocol.KeyCurrentLine, err)
	}
	if err := p.CacheNovelForSession(ctx, res.Set.Lines(), name); err != nil {
		return fmt.Errorf("cache %s: %w", name, err)
	}

	for _, kv := range []struct {
		key   string
		value any
	}{
		{protocol.KeyFileName, name},
		{protocol.KeyFileEncoding, res.Encoding},
	} {
		if err := p.SetStorage(ctx, kv.key, kv.value); err != nil {
			return fmt.Errorf("store %s: %w", kv.key, err)
		}
	}
	return nil
}
