package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	pkgerrors "github.com/yungbote/replyloop-backend/internal/pkg/errors"
	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/repos"
	"github.com/yungbote/replyloop-backend/internal/types"
	"github.com/yungbote/replyloop-backend/internal/utils"
)

const (
	// DefaultCooldown keeps a user out of consecutive ticks so a single
	// user cannot monopolize provider calls.
	DefaultCooldown = 30 * time.Minute

	// DefaultBatchLimit caps how many users one tick serves.
	DefaultBatchLimit = 100

	// DefaultUserConcurrency bounds the per-tick worker pool.
	DefaultUserConcurrency = 4

	// itemConcurrency bounds draft generation within one user's attempt.
	itemConcurrency = 3

	// Success-rate smoothing and the reaction thresholds for fetch sizing.
	successRateSmoothing = 0.3
	fetchGrowThreshold   = 0.3
	fetchShrinkThreshold = 0.7
	fetchGrowStep        = 5
	fetchShrinkStep      = 2
)

// ProcessingResult summarizes one user's attempt within a batch tick.
type ProcessingResult struct {
	UserID     uuid.UUID
	TargetID   uuid.UUID
	Fetched    int
	Kept       int
	Curated    int
	Replies    int
	Skipped    bool
	SkipReason string
	Err        error
}

// BatchStats is the aggregate outcome of one tick, exposed on the status
// endpoint and persisted as an audit row.
type BatchStats struct {
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
	UsersSelected   int           `json:"users_selected"`
	UsersProcessed  int           `json:"users_processed"`
	TotalCandidates int           `json:"total_candidates"`
	TotalCurated    int           `json:"total_curated"`
	TotalReplies    int           `json:"total_replies"`
	CacheHits       int64         `json:"cache_hits"`
	CacheMisses     int64         `json:"cache_misses"`
	CacheHitRate    float64       `json:"cache_hit_rate"`
	Errors          []string      `json:"errors,omitempty"`
}

// BatchScheduler runs the curation pipeline for every eligible user.
// A batchSize of zero means the configured BATCH_USER_LIMIT.
type BatchScheduler interface {
	SelectEligibleUsers(ctx context.Context, now time.Time, batchSize int) ([]*types.UserProcessingState, error)
	ProcessUser(ctx context.Context, state *types.UserProcessingState, now time.Time) ProcessingResult
	ProcessBatch(ctx context.Context, batchSize int) BatchStats
	LastStats() *BatchStats
}

type batchScheduler struct {
	log       *logger.Logger
	states    repos.ProcessingStateRepo
	targets   repos.TargetRepo
	profiles  repos.VoiceProfileRepo
	runs      repos.BatchRunRepo
	broker    SearchBroker
	filter    QualityFilter
	generator ReplyGenerator

	cooldown    time.Duration
	batchLimit  int
	concurrency int
	now         func() time.Time

	mu        sync.Mutex
	lastStats *BatchStats
	resetDay  time.Time
}

func NewBatchScheduler(
	baseLog *logger.Logger,
	states repos.ProcessingStateRepo,
	targets repos.TargetRepo,
	profiles repos.VoiceProfileRepo,
	runs repos.BatchRunRepo,
	broker SearchBroker,
	filter QualityFilter,
	generator ReplyGenerator,
) BatchScheduler {
	log := baseLog.With("service", "BatchScheduler")
	cooldownMin := utils.GetEnvAsInt("USER_COOLDOWN_MINUTES", int(DefaultCooldown.Minutes()), log)
	if cooldownMin < 0 {
		cooldownMin = 0
	}
	limit := utils.GetEnvAsInt("BATCH_USER_LIMIT", DefaultBatchLimit, log)
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	concurrency := utils.GetEnvAsInt("BATCH_CONCURRENCY", DefaultUserConcurrency, log)
	if concurrency <= 0 {
		concurrency = DefaultUserConcurrency
	}
	return &batchScheduler{
		log:         log,
		states:      states,
		targets:     targets,
		profiles:    profiles,
		runs:        runs,
		broker:      broker,
		filter:      filter,
		generator:   generator,
		cooldown:    time.Duration(cooldownMin) * time.Minute,
		batchLimit:  limit,
		concurrency: concurrency,
		now:         time.Now,
	}
}

func (s *batchScheduler) SelectEligibleUsers(ctx context.Context, now time.Time, batchSize int) ([]*types.UserProcessingState, error) {
	if batchSize <= 0 {
		batchSize = s.batchLimit
	}
	return s.states.SelectEligible(ctx, nil, now, s.cooldown, batchSize)
}

// ProcessUser runs one full attempt: pick the next target round-robin,
// fetch through the broker, filter, draft and persist, then rewrite the
// state row. Whatever happens, last_served_at and the target cursor move
// forward so a failing user cannot hot-loop ahead of everyone else.
func (s *batchScheduler) ProcessUser(ctx context.Context, state *types.UserProcessingState, now time.Time) ProcessingResult {
	result := ProcessingResult{UserID: state.UserID}

	if state.RepliesLeftToday <= 0 {
		result.Skipped = true
		result.SkipReason = "quota exhausted"
		result.Err = pkgerrors.ErrQuotaExhausted
		return result
	}

	targets, err := s.targets.ListActiveByUser(ctx, nil, state.UserID)
	if err != nil {
		result.Err = fmt.Errorf("list targets: %w", err)
		s.advanceState(ctx, state, now, state.CurrentTargetIndex+1)
		return result
	}
	if len(targets) == 0 {
		result.Skipped = true
		result.SkipReason = "no active targets"
		result.Err = pkgerrors.ErrNoActiveTargets
		s.advanceState(ctx, state, now, state.CurrentTargetIndex)
		return result
	}

	idx := state.CurrentTargetIndex % len(targets)
	target := targets[idx]
	result.TargetID = target.ID

	topic, err := types.TopicConfigFromTarget(target)
	if err != nil {
		s.log.Warn("Target config invalid, pausing target",
			"user_id", state.UserID,
			"target_id", target.ID,
			"error", err,
		)
		if updErr := s.targets.UpdateStatus(ctx, nil, target.ID, types.TargetStatusPaused); updErr != nil {
			s.log.Error("Failed to pause invalid target", "target_id", target.ID, "error", updErr)
		}
		result.Err = fmt.Errorf("target config: %w", err)
		s.advanceState(ctx, state, now, state.CurrentTargetIndex+1)
		return result
	}

	items, err := s.broker.FetchCandidates(ctx, topic, state.FetchSize)
	if err != nil {
		result.Err = fmt.Errorf("fetch candidates: %w", err)
		s.advanceState(ctx, state, now, state.CurrentTargetIndex+1)
		return result
	}
	result.Fetched = len(items)

	scored := s.filter.FilterForQuality(ctx, topic, items)
	result.Kept = len(scored)

	budget := state.RepliesLeftToday
	if state.FetchSize < budget {
		budget = state.FetchSize
	}
	if len(scored) < budget {
		budget = len(scored)
	}

	var profile *types.VoiceProfile
	if budget > 0 {
		profile, err = s.profiles.GetByUserID(ctx, nil, state.UserID)
		if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
			s.log.Warn("Voice profile load failed, drafting with defaults",
				"user_id", state.UserID, "error", err)
		}
	}

	day := now.UTC().Truncate(24 * time.Hour)

	var (
		resMu   sync.Mutex
		curated int
		replies int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(itemConcurrency)
	for i := 0; i < budget; i++ {
		item := scored[i]
		g.Go(func() error {
			draft := s.generator.Generate(gctx, profile, item.Item)
			_, suggestion, perr := s.generator.Persist(gctx, state.UserID, target.ID, day, item, draft)
			if perr != nil {
				s.log.Warn("Curated post write failed",
					"user_id", state.UserID,
					"external_id", item.Item.ExternalID,
					"error", perr,
				)
				return nil
			}
			resMu.Lock()
			curated++
			if suggestion != nil {
				replies++
			}
			resMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	result.Curated = curated
	result.Replies = replies

	// The adaptive signal is fetch yield: how much of the requested page
	// survived filtering. Quota-limited curation must not bleed into it.
	raw := 0.0
	if state.FetchSize > 0 {
		raw = float64(result.Kept) / float64(state.FetchSize)
	}
	rate := (1-successRateSmoothing)*state.SuccessRate + successRateSmoothing*raw
	fetchSize := nextFetchSize(state.FetchSize, rate)

	repliesLeft := state.RepliesLeftToday - curated
	if repliesLeft < 0 {
		repliesLeft = 0
	}

	state.RepliesLeftToday = repliesLeft
	if err := s.states.UpdateAfterAttempt(ctx, nil, state.UserID, repos.StateUpdate{
		RepliesLeftToday:   repliesLeft,
		CurrentTargetIndex: state.CurrentTargetIndex + 1,
		FetchSize:          fetchSize,
		SuccessRate:        rate,
		LastServedAt:       now,
	}); err != nil {
		s.log.Error("State update failed", "user_id", state.UserID, "error", err)
		if result.Err == nil {
			result.Err = fmt.Errorf("update state: %w", err)
		}
	}
	return result
}

// advanceState is the failure-path state write: quota, success rate and
// fetch size stay where they were, but the cursor and last_served_at move.
func (s *batchScheduler) advanceState(ctx context.Context, state *types.UserProcessingState, now time.Time, nextIndex int) {
	if err := s.states.UpdateAfterAttempt(ctx, nil, state.UserID, repos.StateUpdate{
		RepliesLeftToday:   state.RepliesLeftToday,
		CurrentTargetIndex: nextIndex,
		FetchSize:          state.FetchSize,
		SuccessRate:        state.SuccessRate,
		LastServedAt:       now,
	}); err != nil {
		s.log.Error("State update failed", "user_id", state.UserID, "error", err)
	}
}

func nextFetchSize(current int, rate float64) int {
	next := current
	switch {
	case rate < fetchGrowThreshold:
		next = current + fetchGrowStep
	case rate > fetchShrinkThreshold:
		next = current - fetchShrinkStep
	}
	if next < types.FetchSizeMin {
		next = types.FetchSizeMin
	}
	if next > types.FetchSizeMax {
		next = types.FetchSizeMax
	}
	return next
}

// ProcessBatch runs one tick end to end. It never returns an error: per-user
// failures land in the stats, and a tick with zero eligible users is a
// normal, successful tick.
func (s *batchScheduler) ProcessBatch(ctx context.Context, batchSize int) BatchStats {
	now := s.now()
	stats := BatchStats{StartedAt: now}

	ctx, span := otel.Tracer("batch-scheduler").Start(ctx, "ProcessBatch")
	defer span.End()

	s.broker.ResetStats()
	s.maybeResetQuotas(ctx, now)

	eligible, err := s.SelectEligibleUsers(ctx, now, batchSize)
	if err != nil {
		s.log.Error("Eligibility query failed", "error", err)
		stats.Errors = append(stats.Errors, fmt.Sprintf("select eligible: %v", err))
		s.finishBatch(ctx, &stats, span)
		return stats
	}
	stats.UsersSelected = len(eligible)

	var statsMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, state := range eligible {
		state := state
		g.Go(func() error {
			res := s.ProcessUser(gctx, state, now)

			statsMu.Lock()
			defer statsMu.Unlock()
			stats.UsersProcessed++
			stats.TotalCandidates += res.Fetched
			stats.TotalCurated += res.Curated
			stats.TotalReplies += res.Replies
			if res.Err != nil && !res.Skipped {
				stats.Errors = append(stats.Errors, fmt.Sprintf("user %s: %v", res.UserID, res.Err))
			}
			return nil
		})
	}
	_ = g.Wait()

	s.finishBatch(ctx, &stats, span)
	return stats
}

func (s *batchScheduler) finishBatch(ctx context.Context, stats *BatchStats, span trace.Span) {
	cache := s.broker.Stats()
	stats.CacheHits = cache.Hits
	stats.CacheMisses = cache.Misses
	stats.CacheHitRate = cache.HitRate()
	stats.Duration = s.now().Sub(stats.StartedAt)

	if span != nil {
		span.SetAttributes(
			attribute.Int("batch.users_selected", stats.UsersSelected),
			attribute.Int("batch.users_processed", stats.UsersProcessed),
			attribute.Int("batch.total_curated", stats.TotalCurated),
			attribute.Int("batch.total_replies", stats.TotalReplies),
			attribute.Int64("batch.cache_hits", stats.CacheHits),
		)
	}

	s.log.Info("Batch tick complete",
		"users_selected", stats.UsersSelected,
		"users_processed", stats.UsersProcessed,
		"candidates", stats.TotalCandidates,
		"curated", stats.TotalCurated,
		"replies", stats.TotalReplies,
		"cache_hit_rate", stats.CacheHitRate,
		"duration", stats.Duration,
		"errors", len(stats.Errors),
	)

	s.recordRun(ctx, *stats)

	s.mu.Lock()
	snapshot := *stats
	s.lastStats = &snapshot
	s.mu.Unlock()
}

// maybeResetQuotas refills daily quotas the first time a tick crosses a UTC
// day boundary. The repo predicate makes the refill idempotent, so running
// it again within the same day is a no-op.
func (s *batchScheduler) maybeResetQuotas(ctx context.Context, now time.Time) {
	dayStart := now.UTC().Truncate(24 * time.Hour)

	s.mu.Lock()
	alreadyDone := s.resetDay.Equal(dayStart)
	s.mu.Unlock()
	if alreadyDone {
		return
	}

	refilled, err := s.states.ResetDailyQuotas(ctx, nil, dayStart)
	if err != nil {
		s.log.Error("Daily quota reset failed", "error", err)
		return
	}
	if refilled > 0 {
		s.log.Info("Daily quotas refilled", "users", refilled, "day", dayStart.Format("2006-01-02"))
	}

	s.mu.Lock()
	s.resetDay = dayStart
	s.mu.Unlock()
}

func (s *batchScheduler) recordRun(ctx context.Context, stats BatchStats) {
	if s.runs == nil {
		return
	}
	var errsJSON datatypes.JSON
	if len(stats.Errors) > 0 {
		if raw, err := json.Marshal(stats.Errors); err == nil {
			errsJSON = raw
		}
	}
	run := &types.BatchRun{
		ID:              uuid.New(),
		StartedAt:       stats.StartedAt,
		DurationMS:      stats.Duration.Milliseconds(),
		UsersProcessed:  stats.UsersProcessed,
		TotalCandidates: stats.TotalCandidates,
		TotalCurated:    stats.TotalCurated,
		TotalReplies:    stats.TotalReplies,
		CacheHits:       stats.CacheHits,
		CacheMisses:     stats.CacheMisses,
		Errors:          errsJSON,
	}
	if _, err := s.runs.Create(ctx, nil, run); err != nil {
		s.log.Warn("Audit row write failed", "error", err)
	}
}

// LastStats returns the most recent tick's stats, or nil before the first
// tick completes.
func (s *batchScheduler) LastStats() *BatchStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastStats == nil {
		return nil
	}
	snapshot := *s.lastStats
	return &snapshot
}
