package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/replyloop-backend/internal/clients/openai"
	pkgerrors "github.com/yungbote/replyloop-backend/internal/pkg/errors"
	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/repos"
	"github.com/yungbote/replyloop-backend/internal/types"
)

var (
	testLogOnce sync.Once
	testLog     *logger.Logger
	testLogErr  error
)

func testLogger(tb testing.TB) *logger.Logger {
	tb.Helper()
	testLogOnce.Do(func() {
		testLog, testLogErr = logger.New("test")
	})
	if testLogErr != nil {
		tb.Fatalf("failed to init logger: %v", testLogErr)
	}
	return testLog
}

// scriptedJudge scores with a caller-provided function.
type scriptedJudge struct {
	fn func(item types.CandidateItem) (float64, error)
}

func (j *scriptedJudge) Score(_ context.Context, _ types.TopicConfig, item types.CandidateItem) (float64, error) {
	return j.fn(item)
}

// fakeSearchClient counts provider calls and returns scripted items.
type fakeSearchClient struct {
	mu      sync.Mutex
	calls   int
	queries []string
	items   []types.CandidateItem
	err     error
}

func (f *fakeSearchClient) Search(_ context.Context, query string, maxResults int) ([]types.CandidateItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.items) > maxResults {
		return f.items[:maxResults], nil
	}
	return f.items, nil
}

func (f *fakeSearchClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeAIClient returns scripted scores and drafts.
type fakeAIClient struct {
	score    float64
	scoreErr error
	draft    openai.ReplyDraft
	draftErr error
}

func (f *fakeAIClient) ScoreCandidate(context.Context, openai.ScoreRequest) (float64, error) {
	return f.score, f.scoreErr
}

func (f *fakeAIClient) DraftReply(context.Context, openai.DraftRequest) (openai.ReplyDraft, error) {
	return f.draft, f.draftErr
}

// fakeCuratedPostRepo stores posts in memory.
type fakeCuratedPostRepo struct {
	mu        sync.Mutex
	posts     []*types.CuratedPost
	createErr error
}

func (f *fakeCuratedPostRepo) Create(_ context.Context, _ *gorm.DB, post *types.CuratedPost) (*types.CuratedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.posts = append(f.posts, post)
	return post, nil
}

func (f *fakeCuratedPostRepo) CountForUserDay(_ context.Context, _ *gorm.DB, userID uuid.UUID, day time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.posts {
		if p.UserID == userID && p.Day.Equal(day) {
			n++
		}
	}
	return n, nil
}

func (f *fakeCuratedPostRepo) ListForUserDay(_ context.Context, _ *gorm.DB, userID uuid.UUID, day time.Time) ([]*types.CuratedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.CuratedPost
	for _, p := range f.posts {
		if p.UserID == userID && p.Day.Equal(day) {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeSuggestionRepo stores suggestions in memory.
type fakeSuggestionRepo struct {
	mu          sync.Mutex
	suggestions map[uuid.UUID]*types.ReplySuggestion
	createErr   error
}

func newFakeSuggestionRepo() *fakeSuggestionRepo {
	return &fakeSuggestionRepo{suggestions: make(map[uuid.UUID]*types.ReplySuggestion)}
}

func (f *fakeSuggestionRepo) Create(_ context.Context, _ *gorm.DB, s *types.ReplySuggestion) (*types.ReplySuggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.suggestions[s.ID] = s
	return s, nil
}

func (f *fakeSuggestionRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.ReplySuggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.suggestions[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSuggestionRepo) ListByUser(_ context.Context, _ *gorm.DB, userID uuid.UUID, status string, limit int) ([]*types.ReplySuggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.ReplySuggestion
	for _, s := range f.suggestions {
		if s.UserID != userID {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSuggestionRepo) UpdateStatus(_ context.Context, _ *gorm.DB, id uuid.UUID, status string, editedText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.suggestions[id]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	s.Status = status
	if editedText != "" {
		s.EditedText = editedText
	}
	return nil
}

func (f *fakeSuggestionRepo) CountByStatus(_ context.Context, _ *gorm.DB, status string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.suggestions {
		if s.Status == status {
			n++
		}
	}
	return n, nil
}

// fakeStateRepo tracks the state rows the scheduler reads and writes.
type fakeStateRepo struct {
	mu      sync.Mutex
	states  map[uuid.UUID]*types.UserProcessingState
	updates []repos.StateUpdate
}

func newFakeStateRepo(states ...*types.UserProcessingState) *fakeStateRepo {
	m := make(map[uuid.UUID]*types.UserProcessingState, len(states))
	for _, s := range states {
		m[s.UserID] = s
	}
	return &fakeStateRepo{states: m}
}

func (f *fakeStateRepo) Create(_ context.Context, _ *gorm.DB, states []*types.UserProcessingState) ([]*types.UserProcessingState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range states {
		f.states[s.UserID] = s
	}
	return states, nil
}

func (f *fakeStateRepo) GetByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) (*types.UserProcessingState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[userID]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	return s, nil
}

func (f *fakeStateRepo) SelectEligible(_ context.Context, _ *gorm.DB, now time.Time, cooldown time.Duration, limit int) ([]*types.UserProcessingState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := now.Add(-cooldown)
	var out []*types.UserProcessingState
	for _, s := range f.states {
		if s.RepliesLeftToday <= 0 {
			continue
		}
		if s.LastServedAt != nil && !s.LastServedAt.Before(cutoff) {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStateRepo) UpdateAfterAttempt(_ context.Context, _ *gorm.DB, userID uuid.UUID, update repos.StateUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update)
	s, ok := f.states[userID]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	served := update.LastServedAt
	s.RepliesLeftToday = update.RepliesLeftToday
	s.CurrentTargetIndex = update.CurrentTargetIndex
	s.FetchSize = update.FetchSize
	s.SuccessRate = update.SuccessRate
	s.LastServedAt = &served
	return nil
}

func (f *fakeStateRepo) ResetDailyQuotas(_ context.Context, _ *gorm.DB, dayStart time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.states {
		if s.QuotaResetAt.Before(dayStart) {
			s.RepliesLeftToday = s.DailyReplyQuota
			s.QuotaResetAt = dayStart
			n++
		}
	}
	return n, nil
}

func (f *fakeStateRepo) Totals(context.Context, *gorm.DB) (repos.QuotaTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var totals repos.QuotaTotals
	for _, s := range f.states {
		totals.Users++
		if s.RepliesLeftToday > 0 {
			totals.UsersWithQuota++
		}
		totals.RepliesRemaining += int64(s.RepliesLeftToday)
	}
	return totals, nil
}

// fakeTargetRepo serves a fixed slice of targets per user.
type fakeTargetRepo struct {
	mu       sync.Mutex
	targets  map[uuid.UUID][]*types.MonitoringTarget
	statuses map[uuid.UUID]string
	listErr  error
}

func newFakeTargetRepo() *fakeTargetRepo {
	return &fakeTargetRepo{
		targets:  make(map[uuid.UUID][]*types.MonitoringTarget),
		statuses: make(map[uuid.UUID]string),
	}
}

func (f *fakeTargetRepo) Create(_ context.Context, _ *gorm.DB, targets []*types.MonitoringTarget) ([]*types.MonitoringTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range targets {
		f.targets[t.UserID] = append(f.targets[t.UserID], t)
	}
	return targets, nil
}

func (f *fakeTargetRepo) ListActiveByUser(_ context.Context, _ *gorm.DB, userID uuid.UUID) ([]*types.MonitoringTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*types.MonitoringTarget
	for _, t := range f.targets[userID] {
		if status, ok := f.statuses[t.ID]; ok && status != types.TargetStatusActive {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTargetRepo) UpdateStatus(_ context.Context, _ *gorm.DB, targetID uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[targetID] = status
	return nil
}

// fakeProfileRepo serves one optional profile per user.
type fakeProfileRepo struct {
	profiles map[uuid.UUID]*types.VoiceProfile
}

func (f *fakeProfileRepo) Create(_ context.Context, _ *gorm.DB, profiles []*types.VoiceProfile) ([]*types.VoiceProfile, error) {
	for _, p := range profiles {
		f.profiles[p.UserID] = p
	}
	return profiles, nil
}

func (f *fakeProfileRepo) GetByUserID(_ context.Context, _ *gorm.DB, userID uuid.UUID) (*types.VoiceProfile, error) {
	if f.profiles == nil {
		return nil, pkgerrors.ErrNotFound
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	return p, nil
}

// fakeRunRepo records audit rows.
type fakeRunRepo struct {
	mu   sync.Mutex
	runs []*types.BatchRun
}

func (f *fakeRunRepo) Create(_ context.Context, _ *gorm.DB, run *types.BatchRun) (*types.BatchRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return run, nil
}

func (f *fakeRunRepo) Latest(_ context.Context, _ *gorm.DB, limit int) ([]*types.BatchRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.runs) > limit {
		return f.runs[len(f.runs)-limit:], nil
	}
	return f.runs, nil
}

// fakeUserRepo stores users in memory.
type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*types.User
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*types.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, users []*types.User) ([]*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return users, nil
}

func (f *fakeUserRepo) GetByIDs(_ context.Context, _ *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.User
	for _, id := range userIDs {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}
