package layout

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowview/pkg/cache"
	"github.com/matzehuels/flowview/pkg/observability"
)

// CachedEngine memoises another engine. Results are keyed by the hash of
// the request (graph, size and options; not the id) and the engine name.
// Cache failures are logged and never fail a layout.
type CachedEngine struct {
	inner  Engine
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

// NewCachedEngine wraps inner. A nil keyer uses [cache.NewDefaultKeyer],
// a nil logger the default logger.
func NewCachedEngine(inner Engine, c cache.Cache, k cache.Keyer, logger *log.Logger) *CachedEngine {
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CachedEngine{inner: inner, cache: c, keyer: k, logger: logger}
}

// Name implements Engine.
func (e *CachedEngine) Name() string { return e.inner.Name() }

// Layout implements Engine.
func (e *CachedEngine) Layout(ctx context.Context, req Request) (*Result, error) {
	hash, err := cache.HashJSON(req)
	if err != nil {
		e.logger.Warn("layout request not hashable, skipping cache", "err", err)
		return e.inner.Layout(ctx, req)
	}
	key := e.keyer.LayoutKey(hash, cache.LayoutKeyOpts{Engine: e.inner.Name()})
	hooks := observability.Cache()

	data, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("layout cache read failed", "err", err)
	}
	if ok {
		var res Result
		if err := json.Unmarshal(data, &res); err == nil {
			hooks.OnCacheHit(ctx, "layout")
			e.logger.Debug("layout cache hit", "request", req.ID)
			res.RequestID = req.ID
			return &res, nil
		}
		e.logger.Warn("layout cache entry unreadable, recomputing", "key", key)
	}
	hooks.OnCacheMiss(ctx, "layout")

	res, err := e.inner.Layout(ctx, req)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(res); err == nil {
		if err := e.cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
			e.logger.Warn("layout cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, "layout", len(data))
		}
	}
	return res, nil
}
