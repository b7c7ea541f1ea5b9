package services

import (
	"context"

	"github.com/yungbote/replyloop-backend/internal/clients/openai"
	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/types"
)

type llmJudge struct {
	log       *logger.Logger
	ai        openai.Client
	heuristic Judge
}

// NewLLMJudge scores candidates with the judgment service, passing the
// heuristic score along as a prior. Errors propagate so the filter can
// apply its neutral-fallback policy.
func NewLLMJudge(baseLog *logger.Logger, ai openai.Client) Judge {
	return &llmJudge{
		log:       baseLog.With("service", "LLMJudge"),
		ai:        ai,
		heuristic: NewHeuristicJudge(),
	}
}

func (j *llmJudge) Score(ctx context.Context, topic types.TopicConfig, item types.CandidateItem) (float64, error) {
	prior, _ := j.heuristic.Score(ctx, topic, item)

	score, err := j.ai.ScoreCandidate(ctx, openai.ScoreRequest{
		Text:           item.Text,
		AuthorHandle:   item.AuthorHandle,
		PostedAt:       item.PostedAt,
		LikeCount:      item.LikeCount,
		RepostCount:    item.RepostCount,
		ReplyCount:     item.ReplyCount,
		IsReply:        item.IsReply,
		TopicKeywords:  topic.Keywords,
		HeuristicScore: prior,
	})
	if err != nil {
		return 0, err
	}
	return clamp01(score), nil
}
