package services

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yungbote/replyloop-backend/internal/clients/openai"
	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/repos"
	"github.com/yungbote/replyloop-backend/internal/types"
)

// ReplyMaxLength is the platform's hard reply length limit.
const ReplyMaxLength = 280

// ReplyGenerator drafts replies in the user's voice and persists curated
// post / suggestion pairs. Generate returns nil instead of an error: one
// failed draft must never abort the surrounding attempt.
type ReplyGenerator interface {
	Generate(ctx context.Context, profile *types.VoiceProfile, item types.CandidateItem) *openai.ReplyDraft
	Persist(ctx context.Context, userID, targetID uuid.UUID, day time.Time, item ScoredItem, draft *openai.ReplyDraft) (*types.CuratedPost, *types.ReplySuggestion, error)
}

type replyGenerator struct {
	log         *logger.Logger
	ai          openai.Client
	posts       repos.CuratedPostRepo
	suggestions repos.SuggestionRepo
}

func NewReplyGenerator(baseLog *logger.Logger, ai openai.Client, posts repos.CuratedPostRepo, suggestions repos.SuggestionRepo) ReplyGenerator {
	return &replyGenerator{
		log:         baseLog.With("service", "ReplyGenerator"),
		ai:          ai,
		posts:       posts,
		suggestions: suggestions,
	}
}

func (g *replyGenerator) Generate(ctx context.Context, profile *types.VoiceProfile, item types.CandidateItem) *openai.ReplyDraft {
	if g.ai == nil {
		return nil
	}

	req := openai.DraftRequest{
		OriginalText: item.Text,
		AuthorHandle: item.AuthorHandle,
		LikeCount:    item.LikeCount,
		RepostCount:  item.RepostCount,
		ReplyCount:   item.ReplyCount,
		Tone:         "conversational",
		MaxLength:    ReplyMaxLength,
	}
	if profile != nil {
		if strings.TrimSpace(profile.Tone) != "" {
			req.Tone = profile.Tone
		}
		req.StyleSamples = profile.SampleTexts()
		req.SignatureTopics = profile.SignatureTopics
	}

	draft, err := g.ai.DraftReply(ctx, req)
	if err != nil {
		g.log.Warn("Draft generation failed", "external_id", item.ExternalID, "error", err)
		return nil
	}
	if strings.TrimSpace(draft.Text) == "" {
		g.log.Debug("Draft rejected: empty", "external_id", item.ExternalID)
		return nil
	}
	if utf8.RuneCountInString(draft.Text) > ReplyMaxLength {
		g.log.Debug("Draft rejected: over length limit",
			"external_id", item.ExternalID,
			"length", utf8.RuneCountInString(draft.Text),
		)
		return nil
	}
	return &draft
}

// Persist writes the curated post and, when a draft exists, its pending
// suggestion. The two writes are independent: a failed suggestion write
// leaves the post curated without a draft, which is acceptable degraded
// output.
func (g *replyGenerator) Persist(ctx context.Context, userID, targetID uuid.UUID, day time.Time, item ScoredItem, draft *openai.ReplyDraft) (*types.CuratedPost, *types.ReplySuggestion, error) {
	post := &types.CuratedPost{
		ID:              uuid.New(),
		UserID:          userID,
		TargetID:        targetID,
		Day:             day,
		ExternalID:      item.Item.ExternalID,
		AuthorHandle:    item.Item.AuthorHandle,
		Text:            item.Item.Text,
		PostedAt:        item.Item.PostedAt,
		LikeCount:       item.Item.LikeCount,
		RepostCount:     item.Item.RepostCount,
		ReplyCount:      item.Item.ReplyCount,
		RelevanceScore:  item.Score,
		EngagementScore: EngagementScore(item.Item),
	}

	post, err := g.posts.Create(ctx, nil, post)
	if err != nil {
		return nil, nil, err
	}

	if draft == nil {
		return post, nil, nil
	}

	suggestion := &types.ReplySuggestion{
		ID:            uuid.New(),
		CuratedPostID: post.ID,
		UserID:        userID,
		DraftText:     draft.Text,
		Confidence:    draft.Confidence,
		Status:        types.SuggestionStatusPending,
	}
	suggestion, err = g.suggestions.Create(ctx, nil, suggestion)
	if err != nil {
		g.log.Warn("Suggestion write failed, post kept without draft",
			"curated_post_id", post.ID,
			"error", err,
		)
		return post, nil, nil
	}

	return post, suggestion, nil
}

// EngagementScore is a log-scaled weighted sum of the raw counters; reposts
// and replies signal reach better than likes do.
func EngagementScore(item types.CandidateItem) float64 {
	weighted := float64(item.LikeCount) + 2*float64(item.RepostCount) + 3*float64(item.ReplyCount)
	return math.Log10(1 + weighted)
}
