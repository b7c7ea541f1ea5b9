package repos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/replyloop-backend/internal/pkg/errors"
	"github.com/yungbote/replyloop-backend/internal/repos/testutil"
	"github.com/yungbote/replyloop-backend/internal/types"
)

func TestProcessingStateRepo_GetByUserID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewProcessingStateRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "stateuser")
	testutil.SeedState(t, ctx, tx, user.ID, 5, nil)

	got, err := repo.GetByUserID(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got.RepliesLeftToday != 5 {
		t.Fatalf("expected 5 replies left, got %d", got.RepliesLeftToday)
	}

	if _, err := repo.GetByUserID(ctx, tx, uuid.New()); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProcessingStateRepo_SelectEligible(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewProcessingStateRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	old := now.Add(-2 * time.Hour)
	recent := now.Add(-5 * time.Minute)
	cfg := types.TopicConfig{Keywords: []string{"golang"}}

	neverServed := testutil.SeedUser(t, ctx, tx, "never-served")
	testutil.SeedState(t, ctx, tx, neverServed.ID, 5, nil)
	testutil.SeedTarget(t, ctx, tx, neverServed.ID, types.TargetStatusActive, cfg)

	cooledDown := testutil.SeedUser(t, ctx, tx, "cooled-down")
	testutil.SeedState(t, ctx, tx, cooledDown.ID, 5, &old)
	testutil.SeedTarget(t, ctx, tx, cooledDown.ID, types.TargetStatusActive, cfg)

	midCooldown := testutil.SeedUser(t, ctx, tx, "mid-cooldown")
	testutil.SeedState(t, ctx, tx, midCooldown.ID, 5, &recent)
	testutil.SeedTarget(t, ctx, tx, midCooldown.ID, types.TargetStatusActive, cfg)

	exhausted := testutil.SeedUser(t, ctx, tx, "exhausted")
	testutil.SeedState(t, ctx, tx, exhausted.ID, 0, &old)
	testutil.SeedTarget(t, ctx, tx, exhausted.ID, types.TargetStatusActive, cfg)

	noTargets := testutil.SeedUser(t, ctx, tx, "no-targets")
	testutil.SeedState(t, ctx, tx, noTargets.ID, 5, &old)

	pausedOnly := testutil.SeedUser(t, ctx, tx, "paused-only")
	testutil.SeedState(t, ctx, tx, pausedOnly.ID, 5, &old)
	testutil.SeedTarget(t, ctx, tx, pausedOnly.ID, types.TargetStatusPaused, cfg)

	got, err := repo.SelectEligible(ctx, tx, now, 30*time.Minute, 10)
	if err != nil {
		t.Fatalf("SelectEligible: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 eligible users, got %d", len(got))
	}
	// Never-served users sort ahead of previously served ones.
	if got[0].UserID != neverServed.ID {
		t.Fatalf("expected never-served user first, got %s", got[0].UserID)
	}
	if got[1].UserID != cooledDown.ID {
		t.Fatalf("expected cooled-down user second, got %s", got[1].UserID)
	}
}

func TestProcessingStateRepo_UpdateAfterAttempt(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewProcessingStateRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "update-user")
	testutil.SeedState(t, ctx, tx, user.ID, 5, nil)

	served := time.Now().UTC().Truncate(time.Second)
	if err := repo.UpdateAfterAttempt(ctx, tx, user.ID, StateUpdate{
		RepliesLeftToday:   3,
		CurrentTargetIndex: 7,
		FetchSize:          25,
		SuccessRate:        0.62,
		LastServedAt:       served,
	}); err != nil {
		t.Fatalf("UpdateAfterAttempt: %v", err)
	}

	got, err := repo.GetByUserID(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got.RepliesLeftToday != 3 || got.CurrentTargetIndex != 7 || got.FetchSize != 25 {
		t.Fatalf("unexpected state after update: %+v", got)
	}
	if got.LastServedAt == nil || !got.LastServedAt.Equal(served) {
		t.Fatalf("expected last_served_at %v, got %v", served, got.LastServedAt)
	}
}

func TestProcessingStateRepo_ResetDailyQuotas(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewProcessingStateRepo(db, testutil.Logger(t))

	dayStart := time.Now().UTC().Truncate(24 * time.Hour)

	staleUser := testutil.SeedUser(t, ctx, tx, "stale-quota")
	stale := testutil.SeedState(t, ctx, tx, staleUser.ID, 0, nil)
	if err := tx.Model(stale).Update("quota_reset_at", dayStart.Add(-24*time.Hour)).Error; err != nil {
		t.Fatalf("backdate quota_reset_at: %v", err)
	}

	freshUser := testutil.SeedUser(t, ctx, tx, "fresh-quota")
	fresh := testutil.SeedState(t, ctx, tx, freshUser.ID, 2, nil)
	if err := tx.Model(fresh).Update("quota_reset_at", dayStart.Add(time.Hour)).Error; err != nil {
		t.Fatalf("set quota_reset_at: %v", err)
	}

	refilled, err := repo.ResetDailyQuotas(ctx, tx, dayStart)
	if err != nil {
		t.Fatalf("ResetDailyQuotas: %v", err)
	}
	if refilled != 1 {
		t.Fatalf("expected 1 refilled row, got %d", refilled)
	}

	got, err := repo.GetByUserID(ctx, tx, staleUser.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got.RepliesLeftToday != got.DailyReplyQuota {
		t.Fatalf("expected refill to quota %d, got %d", got.DailyReplyQuota, got.RepliesLeftToday)
	}

	untouched, err := repo.GetByUserID(ctx, tx, freshUser.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if untouched.RepliesLeftToday != 2 {
		t.Fatalf("already-reset row must not change, got %d", untouched.RepliesLeftToday)
	}
}

func TestProcessingStateRepo_Totals(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewProcessingStateRepo(db, testutil.Logger(t))

	u1 := testutil.SeedUser(t, ctx, tx, "totals-a")
	testutil.SeedState(t, ctx, tx, u1.ID, 4, nil)
	u2 := testutil.SeedUser(t, ctx, tx, "totals-b")
	testutil.SeedState(t, ctx, tx, u2.ID, 0, nil)

	totals, err := repo.Totals(ctx, tx)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if totals.Users != 2 || totals.UsersWithQuota != 1 || totals.RepliesRemaining != 4 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}
