package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/replyloop-backend/internal/types"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, handle string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:          uuid.New(),
		Email:       handle + "@example.com",
		DisplayName: handle,
		Handle:      handle,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedState(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, repliesLeft int, lastServedAt *time.Time) *types.UserProcessingState {
	tb.Helper()
	s := &types.UserProcessingState{
		ID:               uuid.New(),
		UserID:           userID,
		RepliesLeftToday: repliesLeft,
		DailyReplyQuota:  10,
		FetchSize:        20,
		SuccessRate:      0.5,
		LastServedAt:     lastServedAt,
		QuotaResetAt:     time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed processing state: %v", err)
	}
	return s
}

func SeedTarget(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string, cfg types.TopicConfig) *types.MonitoringTarget {
	tb.Helper()
	raw, err := json.Marshal(cfg)
	if err != nil {
		tb.Fatalf("encode target config: %v", err)
	}
	t := &types.MonitoringTarget{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       "target",
		Status:     status,
		TargetType: types.TargetTypeTopic,
		Config:     datatypes.JSON(raw),
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed target: %v", err)
	}
	return t
}

func SeedCuratedPost(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, targetID uuid.UUID, day time.Time) *types.CuratedPost {
	tb.Helper()
	p := &types.CuratedPost{
		ID:           uuid.New(),
		UserID:       userID,
		TargetID:     targetID,
		Day:          day,
		ExternalID:   uuid.NewString(),
		AuthorHandle: "author",
		Text:         "post",
		PostedAt:     time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed curated post: %v", err)
	}
	return p
}
