package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Fetch size bounds mirror the search provider's page-size limits.
const (
	FetchSizeMin     = 10
	FetchSizeDefault = 20
	FetchSizeMax     = 50
)

// UserProcessingState is the per-user row the batch scheduler reads and
// writes. It is only ever mutated after that user's processing attempt;
// the eligibility query keeps users mid-cooldown out of a tick.
type UserProcessingState struct {
	gorm.Model
	ID                 uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID             uuid.UUID  `gorm:"uniqueIndex;not null" json:"user_id"`
	User               *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	RepliesLeftToday   int        `gorm:"not null;default:0;column:replies_left_today" json:"replies_left_today"`
	DailyReplyQuota    int        `gorm:"not null;default:10;column:daily_reply_quota" json:"daily_reply_quota"`
	CurrentTargetIndex int        `gorm:"not null;default:0;column:current_target_index" json:"current_target_index"`
	FetchSize          int        `gorm:"not null;default:20;column:fetch_size" json:"fetch_size"`
	SuccessRate        float64    `gorm:"not null;default:0.5;column:success_rate" json:"success_rate"`
	LastServedAt       *time.Time `gorm:"column:last_served_at" json:"last_served_at"`
	QuotaResetAt       time.Time  `gorm:"not null;default:now();column:quota_reset_at" json:"quota_reset_at"`
	CreatedAt          time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserProcessingState) TableName() string {
	return "user_processing_state"
}
