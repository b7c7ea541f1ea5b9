package services

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSpamPatterns_EmptyPathUsesDefaults(t *testing.T) {
	patterns, err := LoadSpamPatterns("", testLogger(t))
	if err != nil {
		t.Fatalf("LoadSpamPatterns: %v", err)
	}
	if len(patterns.PromotionalPhrases) == 0 || len(patterns.FollowBaitPhrases) == 0 {
		t.Fatalf("expected built-in defaults, got %+v", patterns)
	}
}

func TestLoadSpamPatterns_MissingFileUsesDefaults(t *testing.T) {
	patterns, err := LoadSpamPatterns(filepath.Join(t.TempDir(), "nope.yaml"), testLogger(t))
	if err != nil {
		t.Fatalf("LoadSpamPatterns: %v", err)
	}
	defaults := DefaultSpamPatterns()
	if len(patterns.PromotionalPhrases) != len(defaults.PromotionalPhrases) {
		t.Fatalf("expected defaults unchanged, got %d promotional phrases", len(patterns.PromotionalPhrases))
	}
}

func TestLoadSpamPatterns_MergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spam.yaml")
	content := "promotional_phrases:\n  - \"  Exclusive Drop  \"\nfollow_bait_phrases:\n  - \"tag a friend\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	patterns, err := LoadSpamPatterns(path, testLogger(t))
	if err != nil {
		t.Fatalf("LoadSpamPatterns: %v", err)
	}

	if got := matchesSpamPhrase(patterns, "EXCLUSIVE DROP just landed, check it out"); got != "exclusive drop" {
		t.Fatalf("expected normalized override to match, got %q", got)
	}
	if got := matchesSpamPhrase(patterns, "tag a friend who needs this"); got != "tag a friend" {
		t.Fatalf("expected follow-bait override to match, got %q", got)
	}
	if got := matchesSpamPhrase(patterns, "buy now while stocks last"); got != "buy now" {
		t.Fatalf("expected defaults to survive the merge, got %q", got)
	}
}

func TestLoadSpamPatterns_MalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spam.yaml")
	if err := os.WriteFile(path, []byte("promotional_phrases: {not: [valid"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadSpamPatterns(path, testLogger(t)); err == nil {
		t.Fatalf("expected error for malformed file")
	}
}
