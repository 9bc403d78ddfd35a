package resolve

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"scamwatch/internal/platform/cache"
	perr "scamwatch/internal/platform/errors"
	"scamwatch/internal/platform/logger"
)

const (
	defaultCacheSize  = 1000
	defaultCacheTTL   = time.Hour
	defaultBatchLimit = 10
)

// ChainConfig configures a Chain
type ChainConfig struct {
	// Resolvers are consulted in order; the first whose CanHandle
	// reports true wins. The generic fallback is appended implicitly
	Resolvers []Resolver
	// IgnoreDomains are hosts returned unexpanded, lowercased
	IgnoreDomains map[string]struct{}
	// CacheSize bounds the expansion cache; 0 means 1000
	CacheSize int
	// BatchLimit caps concurrent expansions in ExpandAll; 0 means 10
	BatchLimit int
}

// Chain picks a resolver per URL, caches successful expansions, and
// normalizes results
type Chain struct {
	resolvers []Resolver
	fallback  Resolver
	ignore    map[string]struct{}
	cache     *cache.LRU[string]
	limit     int
	log       logger.Logger
}

// NewChain creates a Chain. With no resolvers configured every URL goes
// through the generic redirect follower
func NewChain(cfg ChainConfig) *Chain {
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	limit := cfg.BatchLimit
	if limit <= 0 {
		limit = defaultBatchLimit
	}
	return &Chain{
		resolvers: cfg.Resolvers,
		fallback:  NewGeneric(nil),
		ignore:    cfg.IgnoreDomains,
		cache:     cache.NewLRU[string](size, defaultCacheTTL),
		limit:     limit,
		log:       *logger.Named("resolve"),
	}
}

// pick returns the first resolver claiming the URL, or the fallback
func (c *Chain) pick(rawURL string) Resolver {
	for _, r := range c.resolvers {
		if r.CanHandle(rawURL) {
			return r
		}
	}
	return c.fallback
}

// Expand resolves one URL to its cleaned final destination. Hosts on
// the ignore list come back unchanged
func (c *Chain) Expand(ctx context.Context, rawURL string) (string, error) {
	if !validate(rawURL) {
		return "", perr.Resolvef("invalid url %q", rawURL)
	}
	if _, ok := c.ignore[host(rawURL)]; ok {
		return rawURL, nil
	}
	if cached, ok := c.cache.Get(rawURL); ok {
		return cached, nil
	}

	r := c.pick(rawURL)
	expanded, err := r.Resolve(ctx, rawURL)
	if err != nil {
		c.log.Warn().Err(err).Str("url", rawURL).Msg("expansion failed")
		return "", err
	}
	cleaned := CleanURL(expanded)
	c.cache.Add(rawURL, cleaned)
	return cleaned, nil
}

// ExpandAll resolves a batch concurrently, at most limit in flight.
// Results come back in input order; per-URL failures land in the
// Result, never abort the batch
func (c *Chain) ExpandAll(ctx context.Context, urls []string) []Result {
	if len(urls) == 0 {
		return nil
	}
	results := make([]Result, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	for i, u := range urls {
		g.Go(func() error {
			expanded, err := c.Expand(ctx, u)
			if err != nil {
				results[i] = Result{Original: u, Expanded: u, Err: err}
				return nil
			}
			results[i] = Result{Original: u, Expanded: expanded}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
