package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/replyloop-backend/internal/pkg/errors"
	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/repos"
	"github.com/yungbote/replyloop-backend/internal/types"
)

// DefaultDailyReplyQuota is the per-day reply budget a new account starts with.
const DefaultDailyReplyQuota = 10

// RegisterUserInput is what onboarding needs to provision an account.
type RegisterUserInput struct {
	Email           string
	DisplayName     string
	Handle          string
	DailyReplyQuota int
}

// UserAccountService provisions accounts. Registration creates the user row
// together with its processing state so the next batch tick can pick the
// account up without any backfill step.
type UserAccountService interface {
	Register(ctx context.Context, input RegisterUserInput) (*types.User, *types.UserProcessingState, error)
	Get(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

type userAccountService struct {
	log    *logger.Logger
	users  repos.UserRepo
	states repos.ProcessingStateRepo
	now    func() time.Time
}

func NewUserAccountService(baseLog *logger.Logger, users repos.UserRepo, states repos.ProcessingStateRepo) UserAccountService {
	return &userAccountService{
		log:    baseLog.With("service", "UserAccountService"),
		users:  users,
		states: states,
		now:    time.Now,
	}
}

func (s *userAccountService) Register(ctx context.Context, input RegisterUserInput) (*types.User, *types.UserProcessingState, error) {
	email := strings.TrimSpace(input.Email)
	handle := strings.TrimSpace(strings.TrimPrefix(input.Handle, "@"))
	displayName := strings.TrimSpace(input.DisplayName)
	if email == "" || handle == "" {
		return nil, nil, fmt.Errorf("%w: email and handle are required", pkgerrors.ErrInvalidArgument)
	}
	if displayName == "" {
		displayName = handle
	}
	quota := input.DailyReplyQuota
	if quota <= 0 {
		quota = DefaultDailyReplyQuota
	}

	created, err := s.users.Create(ctx, nil, []*types.User{{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: displayName,
		Handle:      handle,
	}})
	if err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}
	user := created[0]

	dayStart := s.now().UTC().Truncate(24 * time.Hour)
	seeded, err := s.states.Create(ctx, nil, []*types.UserProcessingState{{
		ID:               uuid.New(),
		UserID:           user.ID,
		RepliesLeftToday: quota,
		DailyReplyQuota:  quota,
		FetchSize:        types.FetchSizeDefault,
		SuccessRate:      0.5,
		QuotaResetAt:     dayStart,
	}})
	if err != nil {
		return nil, nil, fmt.Errorf("create processing state: %w", err)
	}

	s.log.Info("User registered", "user_id", user.ID, "handle", handle, "daily_quota", quota)
	return user, seeded[0], nil
}

func (s *userAccountService) Get(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	users, err := s.users.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, pkgerrors.ErrNotFound
	}
	return users[0], nil
}
