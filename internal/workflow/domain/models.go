package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// SystemStatusName is the protected first step of every country workflow.
const SystemStatusName = "New"

// Status is one step of a representing country's application process.
// StatusName links to a process template by name only and never changes.
type Status struct {
	ID                    snowflake.ID   `gorm:"primaryKey"`
	RepresentingCountryID snowflake.ID   `gorm:"not null;index;uniqueIndex:ux_rep_country_statuses_name,priority:1,where:deleted_at IS NULL"`
	StatusName            string         `gorm:"type:varchar(255);not null;uniqueIndex:ux_rep_country_statuses_name,priority:2,where:deleted_at IS NULL"`
	CustomName            *string        `gorm:"type:varchar(255)"`
	Notes                 *string        `gorm:"type:text"`
	Order                 int            `gorm:"column:status_order;not null"`
	IsActive              bool           `gorm:"not null"`
	CreatedAt             time.Time      `gorm:"not null"`
	UpdatedAt             time.Time      `gorm:"not null"`
	DeletedAt             gorm.DeletedAt `gorm:"index"`
}

func (Status) TableName() string { return "rep_country_statuses" }

// IsSystem reports whether the step is the protected "New" step.
func (s Status) IsSystem() bool { return s.StatusName == SystemStatusName }

// SubStatus is a finer-grained step under a Status.
type SubStatus struct {
	ID                 snowflake.ID   `gorm:"primaryKey"`
	RepCountryStatusID snowflake.ID   `gorm:"not null;index;uniqueIndex:ux_sub_statuses_name,priority:1,where:deleted_at IS NULL"`
	Name               string         `gorm:"type:varchar(255);not null;uniqueIndex:ux_sub_statuses_name,priority:2,where:deleted_at IS NULL"`
	Description        *string        `gorm:"type:text"`
	Order              int            `gorm:"column:sub_status_order;not null"`
	IsActive           bool           `gorm:"not null"`
	CreatedAt          time.Time      `gorm:"not null"`
	UpdatedAt          time.Time      `gorm:"not null"`
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (SubStatus) TableName() string { return "sub_statuses" }

// CountryRef identifies a live representing country and its owner.
type CountryRef struct {
	ID    snowflake.ID `gorm:"column:id"`
	OrgID snowflake.ID `gorm:"column:org_id"`
}
