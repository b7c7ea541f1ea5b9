package types

import "time"

// CandidateItem is a raw post fetched from the search provider. It stays
// ephemeral until it survives filtering and becomes a CuratedPost.
type CandidateItem struct {
	ExternalID   string    `json:"external_id"`
	AuthorHandle string    `json:"author_handle"`
	Text         string    `json:"text"`
	PostedAt     time.Time `json:"posted_at"`
	LikeCount    int       `json:"like_count"`
	RepostCount  int       `json:"repost_count"`
	ReplyCount   int       `json:"reply_count"`
	IsReply      bool      `json:"is_reply"`
	Language     string    `json:"language"`
}

// EngagementTotal is the raw interaction count used by scoring heuristics.
func (c CandidateItem) EngagementTotal() int {
	return c.LikeCount + c.RepostCount + c.ReplyCount
}
