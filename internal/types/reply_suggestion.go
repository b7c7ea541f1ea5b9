package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SuggestionStatusPending  = "pending"
	SuggestionStatusApproved = "approved"
	SuggestionStatusEdited   = "edited"
	SuggestionStatusPosted   = "posted"
	SuggestionStatusSkipped  = "skipped"
)

// ValidSuggestionStatus reports whether s is one of the known lifecycle states.
func ValidSuggestionStatus(s string) bool {
	switch s {
	case SuggestionStatusPending, SuggestionStatusApproved, SuggestionStatusEdited,
		SuggestionStatusPosted, SuggestionStatusSkipped:
		return true
	}
	return false
}

// ReplySuggestion is a drafted reply tied to exactly one curated post,
// awaiting user action in the dashboard.
type ReplySuggestion struct {
	gorm.Model
	ID            uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CuratedPostID uuid.UUID    `gorm:"uniqueIndex;not null;column:curated_post_id" json:"curated_post_id"`
	CuratedPost   *CuratedPost `gorm:"constraint:OnDelete:CASCADE;foreignKey:CuratedPostID;references:ID" json:"-"`
	UserID        uuid.UUID    `gorm:"index;not null" json:"user_id"`
	User          *User        `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	DraftText     string       `gorm:"not null;column:draft_text" json:"draft_text"`
	EditedText    string       `gorm:"column:edited_text" json:"edited_text"`
	Confidence    float64      `gorm:"not null;default:0;column:confidence" json:"confidence"`
	Status        string       `gorm:"not null;default:pending;index;column:status" json:"status"`
	CreatedAt     time.Time    `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;default:now()" json:"updated_at"`
}

func (ReplySuggestion) TableName() string {
	return "reply_suggestion"
}
