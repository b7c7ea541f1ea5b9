package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/replyloop-backend/internal/pkg/errors"
	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/repos"
	"github.com/yungbote/replyloop-backend/internal/types"
)

// SuggestionReviewService drives the dashboard's review flow: listing drafts
// and moving them through the suggestion lifecycle.
type SuggestionReviewService interface {
	List(ctx context.Context, userID uuid.UUID, status string, limit int) ([]*types.ReplySuggestion, error)
	Review(ctx context.Context, id uuid.UUID, status string, editedText string) (*types.ReplySuggestion, error)
}

type suggestionReviewService struct {
	log         *logger.Logger
	suggestions repos.SuggestionRepo
}

func NewSuggestionReviewService(baseLog *logger.Logger, suggestions repos.SuggestionRepo) SuggestionReviewService {
	return &suggestionReviewService{
		log:         baseLog.With("service", "SuggestionReviewService"),
		suggestions: suggestions,
	}
}

func (s *suggestionReviewService) List(ctx context.Context, userID uuid.UUID, status string, limit int) ([]*types.ReplySuggestion, error) {
	if status != "" && !types.ValidSuggestionStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", pkgerrors.ErrInvalidArgument, status)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.suggestions.ListByUser(ctx, nil, userID, status, limit)
}

// Review applies one lifecycle transition. Only pending suggestions accept a
// transition; edited requires replacement text and the text is only stored
// on that transition.
func (s *suggestionReviewService) Review(ctx context.Context, id uuid.UUID, status string, editedText string) (*types.ReplySuggestion, error) {
	if !types.ValidSuggestionStatus(status) || status == types.SuggestionStatusPending {
		return nil, fmt.Errorf("%w: cannot transition to %q", pkgerrors.ErrInvalidArgument, status)
	}

	editedText = strings.TrimSpace(editedText)
	if status == types.SuggestionStatusEdited && editedText == "" {
		return nil, fmt.Errorf("%w: edited requires replacement text", pkgerrors.ErrInvalidArgument)
	}
	if status != types.SuggestionStatusEdited {
		editedText = ""
	}

	current, err := s.suggestions.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if current.Status != types.SuggestionStatusPending {
		return nil, fmt.Errorf("%w: suggestion already %s", pkgerrors.ErrInvalidArgument, current.Status)
	}

	if err := s.suggestions.UpdateStatus(ctx, nil, id, status, editedText); err != nil {
		return nil, err
	}

	s.log.Info("Suggestion reviewed", "suggestion_id", id, "status", status)
	return s.suggestions.GetByID(ctx, nil, id)
}
