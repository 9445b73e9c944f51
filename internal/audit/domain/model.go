package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
)

// AuditLog records one mutating call. Rows are append-only.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID      *snowflake.ID     `gorm:"index" json:"org_id,omitempty"`
	ActorType  string            `gorm:"type:varchar(20);not null" json:"actor_type"`
	ActorID    *string           `gorm:"type:varchar(64)" json:"actor_id,omitempty"`
	Action     string            `gorm:"type:varchar(100);not null;index" json:"action"`
	TargetType string            `gorm:"type:varchar(100);not null" json:"target_type"`
	TargetID   *string           `gorm:"type:varchar(64)" json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
	IPAddress  *string           `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
	UserAgent  *string           `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	OrgID      snowflake.ID
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *AuditCursor
	Limit      int
}
