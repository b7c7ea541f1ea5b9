package cache

import (
	"context"
	"time"

	"github.com/yungbote/replyloop-backend/internal/types"
)

// CachedResult holds the full provider response for one canonical query.
// Entries are shared across users: a hit for one user's query serves any
// other user issuing the same canonical query.
type CachedResult struct {
	Items       []types.CandidateItem `json:"items"`
	ResultCount int                   `json:"result_count"`
	StoredAt    time.Time             `json:"stored_at"`
}

// QueryCache is the shared search-result cache keyed by canonical query.
// Set has upsert semantics; Get never returns an entry past its TTL.
type QueryCache interface {
	Get(ctx context.Context, key string) (*CachedResult, bool, error)
	Set(ctx context.Context, key string, result CachedResult, ttl time.Duration) error
}
