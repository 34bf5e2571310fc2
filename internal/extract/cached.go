package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"wealthnav/internal/cache"
	"wealthnav/internal/core"
)

// CachedExtractor memoizes successful extractions by image content, so a
// re-upload of the same screenshots after a cancelled confirmation does not
// call the model again.
type CachedExtractor struct {
	next  Extractor
	cache *cache.LRUCache[core.Entry]
}

func NewCachedExtractor(next Extractor, size int, ttl time.Duration) *CachedExtractor {
	return &CachedExtractor{next: next, cache: cache.NewLRUCache[core.Entry](size, ttl)}
}

// Cache exposes the underlying cache for periodic cleanup.
func (c *CachedExtractor) Cache() *cache.LRUCache[core.Entry] { return c.cache }

func (c *CachedExtractor) Extract(ctx context.Context, images ...Image) (core.Entry, error) {
	if err := checkImages(images); err != nil {
		return core.Entry{}, err
	}
	key := digest(images)
	if e, ok := c.cache.Get(key); ok {
		slog.Debug("Extraction cache hit", "key", key[:12])
		return e, nil
	}
	e, err := c.next.Extract(ctx, images...)
	if err != nil {
		return core.Entry{}, err
	}
	c.cache.Set(key, e)
	return e, nil
}

func digest(images []Image) string {
	h := sha256.New()
	for _, img := range images {
		h.Write([]byte(img.MIMEType))
		h.Write([]byte{0})
		h.Write(img.Data)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
