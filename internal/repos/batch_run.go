package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/types"
)

type BatchRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, run *types.BatchRun) (*types.BatchRun, error)
	Latest(ctx context.Context, tx *gorm.DB, limit int) ([]*types.BatchRun, error)
}

type batchRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBatchRunRepo(db *gorm.DB, baseLog *logger.Logger) BatchRunRepo {
	repoLog := baseLog.With("repo", "BatchRunRepo")
	return &batchRunRepo{db: db, log: repoLog}
}

func (br *batchRunRepo) Create(ctx context.Context, tx *gorm.DB, run *types.BatchRun) (*types.BatchRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	if err := transaction.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (br *batchRunRepo) Latest(ctx context.Context, tx *gorm.DB, limit int) ([]*types.BatchRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}

	if limit <= 0 {
		limit = 1
	}

	var results []*types.BatchRun
	if err := transaction.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
