package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CuratedPost is a candidate that survived filtering, persisted for a
// specific user, target and day.
type CuratedPost struct {
	gorm.Model
	ID              uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID         `gorm:"index;not null" json:"user_id"`
	User            *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	TargetID        uuid.UUID         `gorm:"index;not null;column:target_id" json:"target_id"`
	Target          *MonitoringTarget `gorm:"constraint:OnDelete:CASCADE;foreignKey:TargetID;references:ID" json:"-"`
	Day             time.Time         `gorm:"type:date;not null;index;column:day" json:"day"`
	ExternalID      string            `gorm:"not null;index;column:external_id" json:"external_id"`
	AuthorHandle    string            `gorm:"not null;column:author_handle" json:"author_handle"`
	Text            string            `gorm:"not null;column:text" json:"text"`
	PostedAt        time.Time         `gorm:"not null;column:posted_at" json:"posted_at"`
	LikeCount       int               `gorm:"not null;default:0;column:like_count" json:"like_count"`
	RepostCount     int               `gorm:"not null;default:0;column:repost_count" json:"repost_count"`
	ReplyCount      int               `gorm:"not null;default:0;column:reply_count" json:"reply_count"`
	RelevanceScore  float64           `gorm:"not null;default:0;column:relevance_score" json:"relevance_score"`
	EngagementScore float64           `gorm:"not null;default:0;column:engagement_score" json:"engagement_score"`
	CreatedAt       time.Time         `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"not null;default:now()" json:"updated_at"`
}

func (CuratedPost) TableName() string {
	return "curated_post"
}
