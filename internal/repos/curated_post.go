package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/types"
)

type CuratedPostRepo interface {
	Create(ctx context.Context, tx *gorm.DB, post *types.CuratedPost) (*types.CuratedPost, error)
	CountForUserDay(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time) (int64, error)
	ListForUserDay(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time) ([]*types.CuratedPost, error)
}

type curatedPostRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCuratedPostRepo(db *gorm.DB, baseLog *logger.Logger) CuratedPostRepo {
	repoLog := baseLog.With("repo", "CuratedPostRepo")
	return &curatedPostRepo{db: db, log: repoLog}
}

func (cr *curatedPostRepo) Create(ctx context.Context, tx *gorm.DB, post *types.CuratedPost) (*types.CuratedPost, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if err := transaction.WithContext(ctx).Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

func (cr *curatedPostRepo) CountForUserDay(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.CuratedPost{}).
		Where("user_id = ? AND day = ?", userID, day.Format("2006-01-02")).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (cr *curatedPostRepo) ListForUserDay(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time) ([]*types.CuratedPost, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.CuratedPost
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day.Format("2006-01-02")).
		Order("relevance_score DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
