package services

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
	"github.com/yungbote/replyloop-backend/internal/types"
)

const (
	// FreshnessWindow bounds how old a candidate may be; replying to stale
	// posts reads as bot behavior.
	FreshnessWindow = 24 * time.Hour
	// MinCandidateLength is the minimum rune count worth replying to.
	MinCandidateLength = 30
	// LinkMentionRatioMax drops candidates that are mostly links/mentions.
	LinkMentionRatioMax = 0.5
	// ScoreThreshold is the judged-score floor; items at or below it are
	// discarded unless they carry the neutral fallback.
	ScoreThreshold = 0.5
	// NeutralFallbackScore is assigned when the judge fails for an item.
	NeutralFallbackScore = 0.5
	// MaxSurvivors caps the filter's output per fetch.
	MaxSurvivors = 10
)

// ScoredItem is a candidate that survived the exclusion phase, with its
// judged score. Fallback marks items whose judge call failed and were kept
// at the neutral score: availability over precision.
type ScoredItem struct {
	Item     types.CandidateItem
	Score    float64
	Fallback bool
}

type QualityFilter interface {
	FilterForQuality(ctx context.Context, topic types.TopicConfig, items []types.CandidateItem) []ScoredItem
}

type qualityFilter struct {
	log      *logger.Logger
	judge    Judge
	patterns SpamPatterns
	now      func() time.Time
}

func NewQualityFilter(baseLog *logger.Logger, judge Judge, patterns SpamPatterns) QualityFilter {
	return &qualityFilter{
		log:      baseLog.With("service", "QualityFilter"),
		judge:    judge,
		patterns: patterns,
		now:      time.Now,
	}
}

func (f *qualityFilter) FilterForQuality(ctx context.Context, topic types.TopicConfig, items []types.CandidateItem) []ScoredItem {
	now := f.now()

	survivors := make([]types.CandidateItem, 0, len(items))
	for _, item := range items {
		if reason := f.excludeReason(now, topic, item); reason != "" {
			f.log.Debug("Excluding candidate", "external_id", item.ExternalID, "reason", reason)
			continue
		}
		survivors = append(survivors, item)
	}

	scored := make([]ScoredItem, 0, len(survivors))
	for _, item := range survivors {
		score, err := f.judge.Score(ctx, topic, item)
		if err != nil {
			f.log.Warn("Judge failed, assigning neutral fallback score",
				"external_id", item.ExternalID,
				"error", err,
			)
			scored = append(scored, ScoredItem{Item: item, Score: NeutralFallbackScore, Fallback: true})
			continue
		}
		if score <= ScoreThreshold {
			continue
		}
		scored = append(scored, ScoredItem{Item: item, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > MaxSurvivors {
		scored = scored[:MaxSurvivors]
	}
	return scored
}

func (f *qualityFilter) excludeReason(now time.Time, topic types.TopicConfig, item types.CandidateItem) string {
	if now.Sub(item.PostedAt) > FreshnessWindow {
		return "stale"
	}
	if utf8.RuneCountInString(strings.TrimSpace(item.Text)) < MinCandidateLength {
		return "too short"
	}
	if topic.MinEngagement > 0 && item.EngagementTotal() < topic.MinEngagement {
		return "below minimum engagement"
	}
	if phrase := matchesSpamPhrase(f.patterns, item.Text); phrase != "" {
		return "spam phrase: " + phrase
	}
	if hasExcessiveRepeats(item.Text) {
		return "excessive repeated symbols"
	}
	if linkMentionRatio(item.Text) > LinkMentionRatioMax {
		return "mostly links or mentions"
	}
	return ""
}

func matchesSpamPhrase(patterns SpamPatterns, text string) string {
	lowered := strings.ToLower(text)
	for _, p := range patterns.PromotionalPhrases {
		if strings.Contains(lowered, p) {
			return p
		}
	}
	for _, p := range patterns.FollowBaitPhrases {
		if strings.Contains(lowered, p) {
			return p
		}
	}
	return ""
}

// hasExcessiveRepeats reports runs of four or more identical symbol runes
// ("!!!!", "$$$$"). Letter runs are left alone; "soooo" is enthusiasm,
// not spam.
func hasExcessiveRepeats(text string) bool {
	var prev rune
	run := 1
	for _, r := range text {
		if r == prev {
			run++
			if run >= 4 && !isWordRune(r) && r != ' ' {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func linkMentionRatio(text string) float64 {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return 1
	}
	var linkish int
	for _, tok := range tokens {
		if strings.HasPrefix(tok, "http://") ||
			strings.HasPrefix(tok, "https://") ||
			strings.HasPrefix(tok, "@") ||
			strings.Contains(tok, "t.co/") {
			linkish++
		}
	}
	return float64(linkish) / float64(len(tokens))
}
