package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/repos"
	"github.com/yungbote/replyloop-backend/internal/types"
)

// UserQuotaStatus is one user's remaining budget plus the adaptive knobs,
// shaped for the dashboard.
type UserQuotaStatus struct {
	UserID           uuid.UUID  `json:"user_id"`
	RepliesLeftToday int        `json:"replies_left_today"`
	DailyReplyQuota  int        `json:"daily_reply_quota"`
	FetchSize        int        `json:"fetch_size"`
	SuccessRate      float64    `json:"success_rate"`
	LastServedAt     *time.Time `json:"last_served_at,omitempty"`
	CuratedToday     int64      `json:"curated_today"`
}

// SystemQuotaStatus aggregates quota across every user.
type SystemQuotaStatus struct {
	Users            int64 `json:"users"`
	UsersWithQuota   int64 `json:"users_with_quota"`
	RepliesRemaining int64 `json:"replies_remaining"`
	PendingReviews   int64 `json:"pending_reviews"`
}

type QuotaStatusService interface {
	ForUser(ctx context.Context, userID uuid.UUID) (*UserQuotaStatus, error)
	System(ctx context.Context) (*SystemQuotaStatus, error)
}

type quotaStatusService struct {
	log         *logger.Logger
	states      repos.ProcessingStateRepo
	posts       repos.CuratedPostRepo
	suggestions repos.SuggestionRepo
	now         func() time.Time
}

func NewQuotaStatusService(baseLog *logger.Logger, states repos.ProcessingStateRepo, posts repos.CuratedPostRepo, suggestions repos.SuggestionRepo) QuotaStatusService {
	return &quotaStatusService{
		log:         baseLog.With("service", "QuotaStatusService"),
		states:      states,
		posts:       posts,
		suggestions: suggestions,
		now:         time.Now,
	}
}

func (q *quotaStatusService) ForUser(ctx context.Context, userID uuid.UUID) (*UserQuotaStatus, error) {
	state, err := q.states.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}

	day := q.now().UTC().Truncate(24 * time.Hour)
	curated, err := q.posts.CountForUserDay(ctx, nil, userID, day)
	if err != nil {
		q.log.Warn("Curated count failed", "user_id", userID, "error", err)
		curated = 0
	}

	return &UserQuotaStatus{
		UserID:           state.UserID,
		RepliesLeftToday: state.RepliesLeftToday,
		DailyReplyQuota:  state.DailyReplyQuota,
		FetchSize:        state.FetchSize,
		SuccessRate:      state.SuccessRate,
		LastServedAt:     state.LastServedAt,
		CuratedToday:     curated,
	}, nil
}

func (q *quotaStatusService) System(ctx context.Context) (*SystemQuotaStatus, error) {
	totals, err := q.states.Totals(ctx, nil)
	if err != nil {
		return nil, err
	}
	pending, err := q.suggestions.CountByStatus(ctx, nil, types.SuggestionStatusPending)
	if err != nil {
		q.log.Warn("Pending count failed", "error", err)
		pending = 0
	}
	return &SystemQuotaStatus{
		Users:            totals.Users,
		UsersWithQuota:   totals.UsersWithQuota,
		RepliesRemaining: totals.RepliesRemaining,
		PendingReviews:   pending,
	}, nil
}
