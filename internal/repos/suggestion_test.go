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

func TestSuggestionRepo_Lifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewSuggestionRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "suggestion-user")
	cfg := types.TopicConfig{Keywords: []string{"golang"}}
	target := testutil.SeedTarget(t, ctx, tx, user.ID, types.TargetStatusActive, cfg)
	post := testutil.SeedCuratedPost(t, ctx, tx, user.ID, target.ID, time.Now().UTC())

	created, err := repo.Create(ctx, tx, &types.ReplySuggestion{
		ID:            uuid.New(),
		CuratedPostID: post.ID,
		UserID:        user.ID,
		DraftText:     "a drafted reply",
		Confidence:    0.8,
		Status:        types.SuggestionStatusPending,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, tx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.SuggestionStatusPending {
		t.Fatalf("expected pending, got %q", got.Status)
	}

	listed, err := repo.ListByUser(ctx, tx, user.ID, types.SuggestionStatusPending, 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 pending suggestion, got %d", len(listed))
	}

	if err := repo.UpdateStatus(ctx, tx, created.ID, types.SuggestionStatusEdited, "reworded reply"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, err = repo.GetByID(ctx, tx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.SuggestionStatusEdited || got.EditedText != "reworded reply" {
		t.Fatalf("expected edited with text, got %+v", got)
	}

	count, err := repo.CountByStatus(ctx, tx, types.SuggestionStatusEdited)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 edited suggestion, got %d", count)
	}
}

func TestSuggestionRepo_UpdateStatusMissingRow(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewSuggestionRepo(db, testutil.Logger(t))

	if err := repo.UpdateStatus(ctx, tx, uuid.New(), types.SuggestionStatusApproved, ""); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSuggestionRepo_OneSuggestionPerPost(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewSuggestionRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "dupe-user")
	cfg := types.TopicConfig{Keywords: []string{"golang"}}
	target := testutil.SeedTarget(t, ctx, tx, user.ID, types.TargetStatusActive, cfg)
	post := testutil.SeedCuratedPost(t, ctx, tx, user.ID, target.ID, time.Now().UTC())

	if _, err := repo.Create(ctx, tx, &types.ReplySuggestion{
		ID:            uuid.New(),
		CuratedPostID: post.ID,
		UserID:        user.ID,
		DraftText:     "first",
		Status:        types.SuggestionStatusPending,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.Create(ctx, tx, &types.ReplySuggestion{
		ID:            uuid.New(),
		CuratedPostID: post.ID,
		UserID:        user.ID,
		DraftText:     "second",
		Status:        types.SuggestionStatusPending,
	}); err == nil {
		t.Fatalf("expected unique violation for second suggestion on one post")
	}
}
