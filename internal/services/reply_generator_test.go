package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/replyloop-backend/internal/clients/openai"
	"github.com/yungbote/replyloop-backend/internal/types"
)

func testScoredItem() ScoredItem {
	return ScoredItem{
		Item: types.CandidateItem{
			ExternalID:   "ext-1",
			AuthorHandle: "someone",
			Text:         "What does everyone think about this?",
			PostedAt:     time.Now().Add(-time.Hour),
			LikeCount:    10,
			RepostCount:  4,
			ReplyCount:   2,
		},
		Score: 0.8,
	}
}

func TestGenerate_NilClientSkipsDrafting(t *testing.T) {
	g := NewReplyGenerator(testLogger(t), nil, &fakeCuratedPostRepo{}, newFakeSuggestionRepo())
	if draft := g.Generate(context.Background(), nil, testScoredItem().Item); draft != nil {
		t.Fatalf("expected nil draft without a client, got %+v", draft)
	}
}

func TestGenerate_RejectsEmptyAndOversizedDrafts(t *testing.T) {
	cases := []struct {
		name  string
		draft openai.ReplyDraft
	}{
		{"empty", openai.ReplyDraft{Text: "   "}},
		{"oversized", openai.ReplyDraft{Text: strings.Repeat("x", ReplyMaxLength+1)}},
	}
	for _, tc := range cases {
		ai := &fakeAIClient{draft: tc.draft}
		g := NewReplyGenerator(testLogger(t), ai, &fakeCuratedPostRepo{}, newFakeSuggestionRepo())
		if draft := g.Generate(context.Background(), nil, testScoredItem().Item); draft != nil {
			t.Fatalf("%s: expected rejection, got %+v", tc.name, draft)
		}
	}
}

func TestGenerate_DraftFailureReturnsNil(t *testing.T) {
	ai := &fakeAIClient{draftErr: errors.New("model unavailable")}
	g := NewReplyGenerator(testLogger(t), ai, &fakeCuratedPostRepo{}, newFakeSuggestionRepo())
	if draft := g.Generate(context.Background(), nil, testScoredItem().Item); draft != nil {
		t.Fatalf("expected nil draft on failure, got %+v", draft)
	}
}

func TestGenerate_UsesVoiceProfileTone(t *testing.T) {
	var captured openai.DraftRequest
	ai := &capturingAIClient{draft: openai.ReplyDraft{Text: "sounds right to me", Confidence: 0.7}, captured: &captured}
	g := NewReplyGenerator(testLogger(t), ai, &fakeCuratedPostRepo{}, newFakeSuggestionRepo())

	profile := &types.VoiceProfile{Tone: "dry and technical"}
	draft := g.Generate(context.Background(), profile, testScoredItem().Item)
	if draft == nil {
		t.Fatalf("expected draft")
	}
	if captured.Tone != "dry and technical" {
		t.Fatalf("expected profile tone, got %q", captured.Tone)
	}
	if captured.MaxLength != ReplyMaxLength {
		t.Fatalf("expected max length %d, got %d", ReplyMaxLength, captured.MaxLength)
	}
}

type capturingAIClient struct {
	draft    openai.ReplyDraft
	captured *openai.DraftRequest
}

func (c *capturingAIClient) ScoreCandidate(context.Context, openai.ScoreRequest) (float64, error) {
	return 0, errors.New("not used")
}

func (c *capturingAIClient) DraftReply(_ context.Context, req openai.DraftRequest) (openai.ReplyDraft, error) {
	*c.captured = req
	return c.draft, nil
}

func TestPersist_WritesPostAndPendingSuggestion(t *testing.T) {
	posts := &fakeCuratedPostRepo{}
	suggestions := newFakeSuggestionRepo()
	g := NewReplyGenerator(testLogger(t), &fakeAIClient{}, posts, suggestions)

	userID := uuid.New()
	targetID := uuid.New()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	item := testScoredItem()
	draft := &openai.ReplyDraft{Text: "worth trying the incremental approach", Confidence: 0.82}

	post, suggestion, err := g.Persist(context.Background(), userID, targetID, day, item, draft)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if post == nil || suggestion == nil {
		t.Fatalf("expected post and suggestion, got %v / %v", post, suggestion)
	}
	if post.RelevanceScore != item.Score {
		t.Fatalf("expected relevance %f, got %f", item.Score, post.RelevanceScore)
	}
	if suggestion.Status != types.SuggestionStatusPending {
		t.Fatalf("expected pending suggestion, got %q", suggestion.Status)
	}
	if suggestion.CuratedPostID != post.ID {
		t.Fatalf("suggestion not linked to post")
	}
	if suggestion.Confidence != 0.82 {
		t.Fatalf("expected confidence carried over, got %f", suggestion.Confidence)
	}
}

func TestPersist_NoDraftWritesPostOnly(t *testing.T) {
	posts := &fakeCuratedPostRepo{}
	suggestions := newFakeSuggestionRepo()
	g := NewReplyGenerator(testLogger(t), nil, posts, suggestions)

	post, suggestion, err := g.Persist(context.Background(), uuid.New(), uuid.New(), time.Now(), testScoredItem(), nil)
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if post == nil || suggestion != nil {
		t.Fatalf("expected post only, got %v / %v", post, suggestion)
	}
}

func TestPersist_SuggestionFailureKeepsPost(t *testing.T) {
	posts := &fakeCuratedPostRepo{}
	suggestions := newFakeSuggestionRepo()
	suggestions.createErr = errors.New("unique violation")
	g := NewReplyGenerator(testLogger(t), nil, posts, suggestions)

	post, suggestion, err := g.Persist(context.Background(), uuid.New(), uuid.New(), time.Now(), testScoredItem(), &openai.ReplyDraft{Text: "hello there"})
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if post == nil {
		t.Fatalf("expected post kept despite suggestion failure")
	}
	if suggestion != nil {
		t.Fatalf("expected nil suggestion, got %+v", suggestion)
	}
	if len(posts.posts) != 1 {
		t.Fatalf("expected 1 stored post, got %d", len(posts.posts))
	}
}

func TestPersist_PostFailurePropagates(t *testing.T) {
	posts := &fakeCuratedPostRepo{createErr: errors.New("db down")}
	g := NewReplyGenerator(testLogger(t), nil, posts, newFakeSuggestionRepo())

	if _, _, err := g.Persist(context.Background(), uuid.New(), uuid.New(), time.Now(), testScoredItem(), nil); err == nil {
		t.Fatalf("expected error when post write fails")
	}
}

func TestEngagementScore_WeightsAndLogScale(t *testing.T) {
	item := types.CandidateItem{LikeCount: 10, RepostCount: 5, ReplyCount: 3}
	// 10 + 2*5 + 3*3 = 29
	want := math.Log10(1 + 29)
	if got := EngagementScore(item); math.Abs(got-want) > 1e-9 {
		t.Fatalf("EngagementScore: got %f, want %f", got, want)
	}
	if EngagementScore(types.CandidateItem{}) != 0 {
		t.Fatalf("zero engagement should score 0")
	}
}
