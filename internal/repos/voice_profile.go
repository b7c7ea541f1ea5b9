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

type VoiceProfileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, profiles []*types.VoiceProfile) ([]*types.VoiceProfile, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.VoiceProfile, error)
}

type voiceProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVoiceProfileRepo(db *gorm.DB, baseLog *logger.Logger) VoiceProfileRepo {
	repoLog := baseLog.With("repo", "VoiceProfileRepo")
	return &voiceProfileRepo{db: db, log: repoLog}
}

func (vr *voiceProfileRepo) Create(ctx context.Context, tx *gorm.DB, profiles []*types.VoiceProfile) ([]*types.VoiceProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	if len(profiles) == 0 {
		return []*types.VoiceProfile{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (vr *voiceProfileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.VoiceProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var profile types.VoiceProfile
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}
