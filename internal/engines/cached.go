package engines

import (
	"context"

	"github.com/studybuddy-ai/studybuddy/internal/cache"
	"github.com/studybuddy-ai/studybuddy/internal/speech"
)

type languager interface {
	Language() string
}

// CachedRenderer memoises a renderer's output in memory and, when a disk
// tier is attached, across restarts.
type CachedRenderer struct {
	next  speech.Renderer
	store *cache.Memory
	disk  *cache.Disk
}

// NewCached wraps next with store. store may be nil when only a disk tier
// is wanted.
func NewCached(next speech.Renderer, store *cache.Memory) *CachedRenderer {
	return &CachedRenderer{next: next, store: store}
}

// WithDisk adds a persistent tier behind the memory cache.
func (c *CachedRenderer) WithDisk(d *cache.Disk) *CachedRenderer {
	c.disk = d
	return c
}

// Name reports the wrapped renderer's name.
func (c *CachedRenderer) Name() string { return c.next.Name() }

// Render returns cached audio when present. Failures are not cached.
func (c *CachedRenderer) Render(ctx context.Context, text string) ([]byte, error) {
	lang := ""
	if l, ok := c.next.(languager); ok {
		lang = l.Language()
	}
	key := cache.Key(c.next.Name(), lang, text)

	if c.store != nil {
		if audio, ok := c.store.Get(key); ok {
			return audio, nil
		}
	}
	if c.disk != nil {
		if audio, ok := c.disk.Get(key); ok {
			c.put(key, audio, false)
			return audio, nil
		}
	}

	audio, err := c.next.Render(ctx, text)
	if err != nil {
		return nil, err
	}
	c.put(key, audio, true)
	return audio, nil
}

// too large to cache is fine, so put errors are dropped
func (c *CachedRenderer) put(key string, audio []byte, toDisk bool) {
	if c.store != nil {
		_ = c.store.Put(key, audio)
	}
	if toDisk && c.disk != nil {
		_ = c.disk.Put(key, audio)
	}
}

// Stats exposes the memory cache counters, or the disk ones when there is
// no memory tier.
func (c *CachedRenderer) Stats() cache.Stats {
	if c.store == nil && c.disk != nil {
		return c.disk.Stats()
	}
	if c.store == nil {
		return cache.Stats{}
	}
	return c.store.Stats()
}

// Close releases the disk tier.
func (c *CachedRenderer) Close() error {
	if c.disk != nil {
		return c.disk.Close()
	}
	return nil
}

var _ speech.Renderer = (*CachedRenderer)(nil)
