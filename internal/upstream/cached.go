package upstream

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"feedmirror/internal/cache"
	"feedmirror/internal/types"
)

// Cached puts a cache and request coalescing in front of a Source.
// Concurrent misses for the same key share one upstream call. Errors are
// never cached.
type Cached struct {
	src   Source
	items *cache.Typed[[]types.ContentItem]
	feeds *cache.Typed[types.Feed]
	ttl   cache.TTLConfig
	group singleflight.Group
	OnHit func(hit bool)
}

func NewCached(src Source, backend cache.Backend, ttl cache.TTLConfig) *Cached {
	return &Cached{
		src:   src,
		items: cache.NewTyped[[]types.ContentItem](backend, "list:"),
		feeds: cache.NewTyped[types.Feed](backend, "feed:"),
		ttl:   ttl,
	}
}

func (c *Cached) hit(ok bool) {
	if c.OnHit != nil {
		c.OnHit(ok)
	}
}

func (c *Cached) Feed(ctx context.Context, id string) (*types.Feed, error) {
	if f, ok := c.feeds.Get(ctx, id); ok {
		c.hit(true)
		return &f, nil
	}
	c.hit(false)

	v, err, shared := c.group.Do("feed:"+id, func() (any, error) {
		f, err := c.src.Feed(ctx, id)
		if err != nil {
			return nil, err
		}
		c.feeds.Set(ctx, id, *f, c.ttl.FeedTTL)
		return f, nil
	})
	if shared {
		slog.Debug("singleflight: shared feed fetch", "id", id)
	}
	if err != nil {
		return nil, err
	}
	return v.(*types.Feed), nil
}

func (c *Cached) HotReplies(ctx context.Context, id string) ([]types.ContentItem, error) {
	return c.list(ctx, "reply:"+id, func() ([]types.ContentItem, error) {
		return c.src.HotReplies(ctx, id)
	})
}

func (c *Cached) Headlines(ctx context.Context, page int) ([]types.ContentItem, error) {
	return c.list(ctx, fmt.Sprintf("headlines:%d", page), func() ([]types.ContentItem, error) {
		return c.src.Headlines(ctx, page)
	})
}

func (c *Cached) Tag(ctx context.Context, tag string, page int) ([]types.ContentItem, error) {
	return c.list(ctx, fmt.Sprintf("tag:%s:%d", tag, page), func() ([]types.ContentItem, error) {
		return c.src.Tag(ctx, tag, page)
	})
}

func (c *Cached) list(ctx context.Context, key string, fetch func() ([]types.ContentItem, error)) ([]types.ContentItem, error) {
	if items, ok := c.items.Get(ctx, key); ok {
		c.hit(true)
		return items, nil
	}
	c.hit(false)

	v, err, shared := c.group.Do(key, func() (any, error) {
		items, err := fetch()
		if err != nil {
			return nil, err
		}
		ttl := c.ttl.ListingTTL
		if len(items) == 0 {
			ttl = c.ttl.ListingEmptyTTL
		}
		c.items.Set(ctx, key, items, ttl)
		return items, nil
	})
	if shared {
		slog.Debug("singleflight: shared listing fetch", "key", key)
	}
	if err != nil {
		return nil, err
	}
	return v.([]types.ContentItem), nil
}

var _ Source = (*Cached)(nil)
var _ Source = (*Client)(nil)
