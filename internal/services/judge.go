package services

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/yungbote/replyloop-backend/internal/types"
)

// Judge scores a candidate's reply-worthiness in [0,1]. Implementations
// may call out to an external judgment service; the filter substitutes a
// neutral fallback when they fail.
type Judge interface {
	Score(ctx context.Context, topic types.TopicConfig, item types.CandidateItem) (float64, error)
}

type heuristicJudge struct {
	now func() time.Time
}

// NewHeuristicJudge returns the local, deterministic judge. It never fails.
func NewHeuristicJudge() Judge {
	return &heuristicJudge{now: time.Now}
}

func (j *heuristicJudge) Score(ctx context.Context, topic types.TopicConfig, item types.CandidateItem) (float64, error) {
	recency := j.recencyComponent(item)
	opportunity := engagementOpportunity(item)
	quality := contentQuality(topic, item)

	// Original posts leave far more room for a visible reply than replies
	// buried in someone else's thread.
	interaction := 1.0
	if item.IsReply {
		interaction = 0.3
	}

	score := 0.35*recency + 0.25*opportunity + 0.25*quality + 0.15*interaction
	return clamp01(score), nil
}

func (j *heuristicJudge) recencyComponent(item types.CandidateItem) float64 {
	age := j.now().Sub(item.PostedAt)
	if age < 0 {
		age = 0
	}
	return clamp01(1 - age.Hours()/24)
}

// engagementOpportunity favors moderate engagement. Raw counts are heavy
// tailed, so work on log10(1+total): under ~10 interactions the post may
// be noise, between ~10 and ~100 a reply is both seen and not drowned out,
// and far beyond that it would be buried.
func engagementOpportunity(item types.CandidateItem) float64 {
	m := math.Log10(1 + float64(item.EngagementTotal()))
	switch {
	case m <= 1:
		return 0.4 + 0.6*m
	case m <= 2:
		return 1.0
	default:
		return clamp01(1 - (m-2)/2)
	}
}

func contentQuality(topic types.TopicConfig, item types.CandidateItem) float64 {
	q := 0.5
	text := item.Text
	lowered := strings.ToLower(text)

	if strings.Contains(text, "?") {
		q += 0.2
	}

	for _, kw := range topic.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lowered, kw) {
			q += 0.2
			break
		}
	}

	var letters, uppers int
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	if letters >= 20 && float64(uppers)/float64(letters) > 0.7 {
		q -= 0.3
	}

	if strings.Count(text, "!") >= 3 {
		q -= 0.2
	}

	return clamp01(q)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
