package cache

import (
	"context"
	"time"

	"github.com/atlascommand/chaincontrol/server/internal/lib/briefing"
)

const briefingKeyPrefix = "briefing:"

// BriefingCacheAdapter makes any Store implement briefing.BriefingCache
type BriefingCacheAdapter struct {
	store Store
}

// NewBriefingCacheAdapter creates an adapter for briefing caching
func NewBriefingCacheAdapter(store Store) *BriefingCacheAdapter {
	return &BriefingCacheAdapter{store: store}
}

// GetBriefing implements briefing.BriefingCache
func (a *BriefingCacheAdapter) GetBriefing(ctx context.Context, contentHash string) (briefing.Briefing, bool, error) {
	var b briefing.Briefing
	found, err := a.store.Get(ctx, briefingKeyPrefix+contentHash, &b)
	if err != nil || !found {
		return briefing.Briefing{}, false, err
	}
	b.Source = briefing.SourceCache
	return b, true, nil
}

// SetBriefing implements briefing.BriefingCache
func (a *BriefingCacheAdapter) SetBriefing(ctx context.Context, contentHash string, b briefing.Briefing, ttl time.Duration) error {
	return a.store.Set(ctx, briefingKeyPrefix+contentHash, b, ttl)
}
