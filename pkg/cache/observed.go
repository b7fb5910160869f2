package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/taskplan/pkg/observability"
)

// observed reports hits, misses and writes to the registered cache hooks.
type observed struct {
	Cache
}

// WithHooks wraps c so every Get and Set is reported through
// observability.Cache(). The key type is the key's first colon-separated
// segment after any scope prefix, e.g. "solve".
func WithHooks(c Cache) Cache {
	return observed{Cache: c}
}

func (o observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := o.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, hit, err
}

func (o observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := o.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

func keyType(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[len(parts)-2]
}
