package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ProcessTemplate is a shared catalog entry used to seed country workflows.
type ProcessTemplate struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null;uniqueIndex:ux_process_templates_name,where:deleted_at IS NULL" json:"name"`
	Slug        string         `gorm:"type:varchar(255);not null;uniqueIndex:ux_process_templates_slug,where:deleted_at IS NULL" json:"slug"`
	Color       string         `gorm:"type:varchar(16);not null" json:"color"`
	Description *string        `gorm:"type:text" json:"description,omitempty"`
	Order       int            `gorm:"column:template_order;not null" json:"order"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ProcessTemplate) TableName() string { return "process_templates" }
