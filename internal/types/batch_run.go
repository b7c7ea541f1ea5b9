package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BatchRun is a best-effort audit row written after each tick. Writing it
// must never block or fail the pipeline itself.
type BatchRun struct {
	gorm.Model
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StartedAt       time.Time      `gorm:"not null;column:started_at" json:"started_at"`
	DurationMS      int64          `gorm:"not null;default:0;column:duration_ms" json:"duration_ms"`
	UsersProcessed  int            `gorm:"not null;default:0;column:users_processed" json:"users_processed"`
	TotalCandidates int            `gorm:"not null;default:0;column:total_candidates" json:"total_candidates"`
	TotalCurated    int            `gorm:"not null;default:0;column:total_curated" json:"total_curated"`
	TotalReplies    int            `gorm:"not null;default:0;column:total_replies" json:"total_replies"`
	CacheHits       int64          `gorm:"not null;default:0;column:cache_hits" json:"cache_hits"`
	CacheMisses     int64          `gorm:"not null;default:0;column:cache_misses" json:"cache_misses"`
	Errors          datatypes.JSON `gorm:"column:errors" json:"errors"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (BatchRun) TableName() string {
	return "batch_run"
}
