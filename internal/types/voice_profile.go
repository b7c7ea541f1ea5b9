package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VoiceProfile captures how a user sounds so drafted replies match their
// register. StyleSamples are short posts the user wrote themselves.
type VoiceProfile struct {
	gorm.Model
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"uniqueIndex;not null" json:"user_id"`
	User            *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Tone            string         `gorm:"not null;default:conversational;column:tone" json:"tone"`
	StyleSamples    datatypes.JSON `gorm:"column:style_samples" json:"style_samples"`
	SignatureTopics string         `gorm:"column:signature_topics" json:"signature_topics"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (VoiceProfile) TableName() string {
	return "voice_profile"
}

// SampleTexts decodes StyleSamples, tolerating an empty or malformed column.
func (v *VoiceProfile) SampleTexts() []string {
	if v == nil || len(v.StyleSamples) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(v.StyleSamples, &out); err != nil {
		return nil
	}
	return out
}
