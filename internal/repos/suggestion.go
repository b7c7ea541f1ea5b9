package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/replyloop-backend/internal/pkg/errors"
	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/types"
)

type SuggestionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, suggestion *types.ReplySuggestion) (*types.ReplySuggestion, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ReplySuggestion, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string, limit int) ([]*types.ReplySuggestion, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, editedText string) error
	CountByStatus(ctx context.Context, tx *gorm.DB, status string) (int64, error)
}

type suggestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSuggestionRepo(db *gorm.DB, baseLog *logger.Logger) SuggestionRepo {
	repoLog := baseLog.With("repo", "SuggestionRepo")
	return &suggestionRepo{db: db, log: repoLog}
}

func (sr *suggestionRepo) Create(ctx context.Context, tx *gorm.DB, suggestion *types.ReplySuggestion) (*types.ReplySuggestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	if err := transaction.WithContext(ctx).Create(suggestion).Error; err != nil {
		return nil, err
	}
	return suggestion, nil
}

func (sr *suggestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ReplySuggestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var suggestion types.ReplySuggestion
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&suggestion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &suggestion, nil
}

func (sr *suggestionRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string, limit int) ([]*types.ReplySuggestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	query := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*types.ReplySuggestion
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *suggestionRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, editedText string) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	updates := map[string]any{"status": status}
	if editedText != "" {
		updates["edited_text"] = editedText
	}

	result := transaction.WithContext(ctx).
		Model(&types.ReplySuggestion{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}

func (sr *suggestionRepo) CountByStatus(ctx context.Context, tx *gorm.DB, status string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ReplySuggestion{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
