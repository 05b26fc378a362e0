package embedding

import (
	"context"
	"sync"

	"github.com/minio/highwayhash"
)

// Cached memoizes vectors of the wrapped encoder, keyed by a HighwayHash of the text.
type Cached struct {
	encoder Encoder

	mu    sync.RWMutex
	cache map[uint64][]float32
}

func NewCached(encoder Encoder) *Cached {
	return &Cached{encoder: encoder, cache: make(map[uint64][]float32)}
}

func (c *Cached) Dimensions() int {
	return c.encoder.Dimensions()
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := highwayhash.Sum64([]byte(text), hashKey)

	c.mu.RLock()
	vec, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return append([]float32(nil), vec...), nil
	}

	vec, err := c.encoder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = append([]float32(nil), vec...)
	c.mu.Unlock()
	return vec, nil
}

// Len reports the number of cached vectors.
func (c *Cached) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
