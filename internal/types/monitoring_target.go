package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TargetStatusActive   = "active"
	TargetStatusPaused   = "paused"
	TargetStatusArchived = "archived"

	TargetTypeTopic = "topic"
)

// MonitoringTarget is a user-defined filter describing content to monitor.
// Created and edited by the dashboard; the batch pipeline reads it only.
type MonitoringTarget struct {
	gorm.Model
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"index;not null" json:"user_id"`
	User       *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Name       string         `gorm:"not null;column:name" json:"name"`
	Status     string         `gorm:"not null;default:active;index;column:status" json:"status"`
	TargetType string         `gorm:"not null;default:topic;column:target_type" json:"target_type"`
	Config     datatypes.JSON `gorm:"column:config" json:"config"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (MonitoringTarget) TableName() string {
	return "monitoring_target"
}

// TopicConfig is the type-specific configuration for topic targets.
type TopicConfig struct {
	Keywords      []string `json:"keywords"`
	Hashtags      []string `json:"hashtags"`
	Exclusions    []string `json:"exclusions"`
	MinEngagement int      `json:"min_engagement"`
	Language      string   `json:"language"`
}

// TopicConfigFromTarget decodes and validates the target's config payload.
// A target with neither keywords nor hashtags has nothing to search for.
func TopicConfigFromTarget(t *MonitoringTarget) (TopicConfig, error) {
	var cfg TopicConfig
	if t == nil {
		return cfg, fmt.Errorf("target required")
	}
	if len(t.Config) == 0 {
		return cfg, fmt.Errorf("target %s has no configuration", t.ID)
	}
	if err := json.Unmarshal(t.Config, &cfg); err != nil {
		return cfg, fmt.Errorf("decode target %s config: %w", t.ID, err)
	}
	if len(cfg.Keywords) == 0 && len(cfg.Hashtags) == 0 {
		return cfg, fmt.Errorf("target %s config has no keywords or hashtags", t.ID)
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = "en"
	}
	return cfg, nil
}
