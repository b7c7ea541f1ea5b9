package services

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yungbote/replyloop-backend/internal/cache"
	"github.com/yungbote/replyloop-backend/internal/clients/xsearch"
	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/types"
)

// DefaultCacheTTL keeps search results fresh enough for reply curation
// while still letting concurrent users share one provider call.
const DefaultCacheTTL = 5 * time.Minute

// CacheStats is a point-in-time snapshot of the broker's hit/miss counters.
type CacheStats struct {
	Hits   int64
	Misses int64
}

// HitRate returns hits/(hits+misses), or 0 when nothing was looked up.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// SearchBroker builds provider queries from target configuration and
// answers them through the shared TTL cache.
type SearchBroker interface {
	BuildQuery(cfg types.TopicConfig) string
	Canonicalize(query string) string
	FetchCandidates(ctx context.Context, cfg types.TopicConfig, maxResults int) ([]types.CandidateItem, error)
	Stats() CacheStats
	ResetStats()
}

type searchBroker struct {
	log    *logger.Logger
	search xsearch.Client
	cache  cache.QueryCache
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewSearchBroker(baseLog *logger.Logger, search xsearch.Client, queryCache cache.QueryCache, ttl time.Duration) SearchBroker {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &searchBroker{
		log:    baseLog.With("service", "SearchBroker"),
		search: search,
		cache:  queryCache,
		ttl:    ttl,
	}
}

// BuildQuery combines the target's terms in a fixed clause order so that
// identical configurations always produce identical query strings:
// OR-joined keywords and hashtags, negated exclusions, then the fixed
// no-repost and language suffixes.
func (b *searchBroker) BuildQuery(cfg types.TopicConfig) string {
	terms := make([]string, 0, len(cfg.Keywords)+len(cfg.Hashtags))
	for _, kw := range cfg.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(kw, " ") {
			kw = `"` + kw + `"`
		}
		terms = append(terms, kw)
	}
	for _, tag := range cfg.Hashtags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		terms = append(terms, tag)
	}

	parts := make([]string, 0, 2+len(cfg.Exclusions))
	parts = append(parts, strings.Join(terms, " OR "))
	for _, ex := range cfg.Exclusions {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}
		if strings.Contains(ex, " ") {
			ex = `"` + ex + `"`
		}
		parts = append(parts, "-"+ex)
	}

	lang := strings.TrimSpace(cfg.Language)
	if lang == "" {
		lang = "en"
	}
	parts = append(parts, "-is:retweet", "lang:"+lang)

	return strings.Join(parts, " ")
}

// Canonicalize lowercases and collapses whitespace. Clauses are NOT
// reordered: provider query semantics are order-sensitive, so two
// configurations listing the same keywords in different orders do not
// share a cache entry. That tradeoff is deliberate.
func (b *searchBroker) Canonicalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func (b *searchBroker) FetchCandidates(ctx context.Context, cfg types.TopicConfig, maxResults int) ([]types.CandidateItem, error) {
	if maxResults <= 0 {
		maxResults = types.FetchSizeMin
	}

	query := b.BuildQuery(cfg)
	key := b.Canonicalize(query)

	cached, ok, err := b.cache.Get(ctx, key)
	if err != nil {
		// A broken cache read degrades to a provider call.
		b.log.Warn("Cache read failed", "key", key, "error", err)
	}
	if ok {
		b.hits.Add(1)
		return truncateItems(cached.Items, maxResults), nil
	}

	b.misses.Add(1)

	items, err := b.search.Search(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	// Best effort: a cache-write failure must not fail the fetch.
	entry := cache.CachedResult{
		Items:       items,
		ResultCount: len(items),
		StoredAt:    time.Now().UTC(),
	}
	if err := b.cache.Set(ctx, key, entry, b.ttl); err != nil {
		b.log.Warn("Cache write failed", "key", key, "error", err)
	}

	return truncateItems(items, maxResults), nil
}

func (b *searchBroker) Stats() CacheStats {
	return CacheStats{Hits: b.hits.Load(), Misses: b.misses.Load()}
}

func (b *searchBroker) ResetStats() {
	b.hits.Store(0)
	b.misses.Store(0)
}

func truncateItems(items []types.CandidateItem, max int) []types.CandidateItem {
	if len(items) <= max {
		return items
	}
	return items[:max]
}
