package briefing

import (
	"context"
	"time"

	"github.com/dpup/prefab/logging"

	"github.com/atlascommand/chaincontrol/server/internal/metrics"
)

// DefaultCacheTTL is how long a drafted briefing is reused
const DefaultCacheTTL = 30 * time.Minute

// FallbackCacheTTL is how long a template briefing stands in for one the
// model failed to draft, so the model is retried soon after it recovers
const FallbackCacheTTL = 2 * time.Minute

// BriefingCache stores drafted briefings by content hash
type BriefingCache interface {
	GetBriefing(ctx context.Context, contentHash string) (Briefing, bool, error)
	SetBriefing(ctx context.Context, contentHash string, b Briefing, ttl time.Duration) error
}

// CachedWriter reuses briefings for requests with the same content hash
type CachedWriter struct {
	writer Writer
	cache  BriefingCache
	ttl    time.Duration
	// degradable is set when writer falls back to the template on failure
	degradable bool
}

// NewCachedWriter wraps writer with content-based caching
func NewCachedWriter(writer Writer, cache BriefingCache, ttl time.Duration) *CachedWriter {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	_, degradable := writer.(*fallbackWriter)
	return &CachedWriter{
		writer:     writer,
		cache:      cache,
		ttl:        ttl,
		degradable: degradable,
	}
}

// Draft returns a cached briefing when one exists for the same content,
// otherwise drafts and caches a new one
func (c *CachedWriter) Draft(ctx context.Context, req BriefingRequest) (Briefing, error) {
	contentHash := ContentHash(req)

	cached, found, err := c.cache.GetBriefing(ctx, contentHash)
	if err != nil {
		logging.Warnw(ctx, "Briefing cache read failed", "hash", contentHash[:8], "error", err)
	}
	if err == nil && found {
		metrics.CacheHits.WithLabelValues("briefing").Inc()
		metrics.BriefingsDrafted.WithLabelValues(SourceCache).Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues("briefing").Inc()

	b, err := c.writer.Draft(ctx, req)
	if err != nil {
		return b, err
	}

	ttl := c.ttl
	if c.degradable && b.Source == SourceTemplate && ttl > FallbackCacheTTL {
		ttl = FallbackCacheTTL
	}
	if err := c.cache.SetBriefing(ctx, contentHash, b, ttl); err != nil {
		logging.Warnw(ctx, "Failed to cache briefing", "hash", contentHash[:8], "error", err)
	}
	return b, nil
}
