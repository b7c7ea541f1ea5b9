package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/replyloop-backend/internal/pkg/errors"
	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/types"
)

// StateUpdate carries every column the scheduler rewrites after one
// processing attempt. All fields are written; callers pass unchanged values
// through for the columns an attempt did not touch.
type StateUpdate struct {
	RepliesLeftToday   int
	CurrentTargetIndex int
	FetchSize          int
	SuccessRate        float64
	LastServedAt       time.Time
}

// QuotaTotals is an aggregate snapshot over all processing-state rows.
type QuotaTotals struct {
	Users            int64
	UsersWithQuota   int64
	RepliesRemaining int64
}

type ProcessingStateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, states []*types.UserProcessingState) ([]*types.UserProcessingState, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserProcessingState, error)
	SelectEligible(ctx context.Context, tx *gorm.DB, now time.Time, cooldown time.Duration, limit int) ([]*types.UserProcessingState, error)
	UpdateAfterAttempt(ctx context.Context, tx *gorm.DB, userID uuid.UUID, update StateUpdate) error
	ResetDailyQuotas(ctx context.Context, tx *gorm.DB, dayStart time.Time) (int64, error)
	Totals(ctx context.Context, tx *gorm.DB) (QuotaTotals, error)
}

type processingStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProcessingStateRepo(db *gorm.DB, baseLog *logger.Logger) ProcessingStateRepo {
	repoLog := baseLog.With("repo", "ProcessingStateRepo")
	return &processingStateRepo{db: db, log: repoLog}
}

func (pr *processingStateRepo) Create(ctx context.Context, tx *gorm.DB, states []*types.UserProcessingState) ([]*types.UserProcessingState, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if len(states) == 0 {
		return []*types.UserProcessingState{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}

func (pr *processingStateRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserProcessingState, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var state types.UserProcessingState
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &state, nil
}

// SelectEligible returns users with quota left, out of cooldown, and at
// least one active target, ordered oldest-served-first with never-served
// users ahead of everyone. The active-target check is part of the same
// query so eligibility costs one round-trip regardless of batch size.
func (pr *processingStateRepo) SelectEligible(ctx context.Context, tx *gorm.DB, now time.Time, cooldown time.Duration, limit int) ([]*types.UserProcessingState, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.UserProcessingState
	if limit <= 0 {
		return results, nil
	}

	cutoff := now.Add(-cooldown)

	if err := transaction.WithContext(ctx).
		Where("replies_left_today > 0").
		Where("last_served_at IS NULL OR last_served_at < ?", cutoff).
		Where(`EXISTS (
			SELECT 1 FROM monitoring_target t
			WHERE t.user_id = user_processing_state.user_id
			  AND t.status = ?
			  AND t.deleted_at IS NULL
		)`, types.TargetStatusActive).
		Order("last_served_at ASC NULLS FIRST").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *processingStateRepo) UpdateAfterAttempt(ctx context.Context, tx *gorm.DB, userID uuid.UUID, update StateUpdate) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.UserProcessingState{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"replies_left_today":   update.RepliesLeftToday,
			"current_target_index": update.CurrentTargetIndex,
			"fetch_size":           update.FetchSize,
			"success_rate":         update.SuccessRate,
			"last_served_at":       update.LastServedAt,
		}).Error
}

// ResetDailyQuotas refills replies_left_today for every row whose last
// reset predates dayStart. Returns the number of rows refilled.
func (pr *processingStateRepo) ResetDailyQuotas(ctx context.Context, tx *gorm.DB, dayStart time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	result := transaction.WithContext(ctx).
		Model(&types.UserProcessingState{}).
		Where("quota_reset_at < ?", dayStart).
		Updates(map[string]any{
			"replies_left_today": gorm.Expr("daily_reply_quota"),
			"quota_reset_at":     dayStart,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (pr *processingStateRepo) Totals(ctx context.Context, tx *gorm.DB) (QuotaTotals, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var totals QuotaTotals

	if err := transaction.WithContext(ctx).
		Model(&types.UserProcessingState{}).
		Count(&totals.Users).Error; err != nil {
		return totals, err
	}

	if err := transaction.WithContext(ctx).
		Model(&types.UserProcessingState{}).
		Where("replies_left_today > 0").
		Count(&totals.UsersWithQuota).Error; err != nil {
		return totals, err
	}

	var remaining struct {
		Total int64
	}
	if err := transaction.WithContext(ctx).
		Model(&types.UserProcessingState{}).
		Select("COALESCE(SUM(replies_left_today), 0) AS total").
		Scan(&remaining).Error; err != nil {
		return totals, err
	}
	totals.RepliesRemaining = remaining.Total

	return totals, nil
}
