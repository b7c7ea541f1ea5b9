package services

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/replyloop-backend/internal/pkg/logger"
)

// SpamPatterns holds the phrase lists the exclusion phase matches against.
// The built-in defaults cover the usual promotional and follow-bait noise;
// operators can extend them with a YAML file (SPAM_PATTERNS_FILE).
type SpamPatterns struct {
	PromotionalPhrases []string `yaml:"promotional_phrases"`
	FollowBaitPhrases  []string `yaml:"follow_bait_phrases"`
}

func DefaultSpamPatterns() SpamPatterns {
	return SpamPatterns{
		PromotionalPhrases: []string{
			"buy now",
			"limited time offer",
			"limited offer",
			"promo code",
			"discount code",
			"use my code",
			"link in bio",
			"dm me for",
			"dm for details",
			"check out my",
			"giveaway",
			"free money",
			"act now",
			"sign up today",
		},
		FollowBaitPhrases: []string{
			"follow for follow",
			"follow back",
			"f4f",
			"l4l",
			"follow me and i",
			"retweet to win",
			"rt to win",
		},
	}
}

// LoadSpamPatterns merges the defaults with an optional YAML override file.
// A missing path returns the defaults; a malformed file is an error so a
// bad deploy is noticed rather than silently weakening the filter.
func LoadSpamPatterns(path string, log *logger.Logger) (SpamPatterns, error) {
	patterns := DefaultSpamPatterns()

	path = strings.TrimSpace(path)
	if path == "" {
		return patterns, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if log != nil {
				log.Warn("Spam patterns file not found, using defaults", "path", path)
			}
			return patterns, nil
		}
		return patterns, fmt.Errorf("read spam patterns file: %w", err)
	}

	var extra SpamPatterns
	if err := yaml.Unmarshal(raw, &extra); err != nil {
		return patterns, fmt.Errorf("parse spam patterns file: %w", err)
	}

	patterns.PromotionalPhrases = append(patterns.PromotionalPhrases, normalizePhrases(extra.PromotionalPhrases)...)
	patterns.FollowBaitPhrases = append(patterns.FollowBaitPhrases, normalizePhrases(extra.FollowBaitPhrases)...)

	if log != nil {
		log.Info("Loaded spam pattern overrides",
			"path", path,
			"promotional", len(extra.PromotionalPhrases),
			"follow_bait", len(extra.FollowBaitPhrases),
		)
	}
	return patterns, nil
}

func normalizePhrases(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
