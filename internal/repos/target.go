package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/types"
)

type TargetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, targets []*types.MonitoringTarget) ([]*types.MonitoringTarget, error)
	ListActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.MonitoringTarget, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, status string) error
}

type targetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTargetRepo(db *gorm.DB, baseLog *logger.Logger) TargetRepo {
	repoLog := baseLog.With("repo", "TargetRepo")
	return &targetRepo{db: db, log: repoLog}
}

func (tr *targetRepo) Create(ctx context.Context, tx *gorm.DB, targets []*types.MonitoringTarget) ([]*types.MonitoringTarget, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	if len(targets) == 0 {
		return []*types.MonitoringTarget{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&targets).Error; err != nil {
		return nil, err
	}
	return targets, nil
}

// ListActiveByUser orders by creation time so the round-robin cursor walks
// targets in a stable order between attempts.
func (tr *targetRepo) ListActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.MonitoringTarget, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var results []*types.MonitoringTarget
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("status = ?", types.TargetStatusActive).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *targetRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, targetID uuid.UUID, status string) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.MonitoringTarget{}).
		Where("id = ?", targetID).
		Update("status", status).Error
}
