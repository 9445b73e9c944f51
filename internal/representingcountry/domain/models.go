package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// RepresentingCountry is an organization's declaration that it represents
// a destination country. It owns that country's workflow.
type RepresentingCountry struct {
	ID                  snowflake.ID   `gorm:"primaryKey"`
	OrgID               snowflake.ID   `gorm:"not null;index;uniqueIndex:ux_representing_countries_org_country,priority:1,where:deleted_at IS NULL"`
	CountryCode         string         `gorm:"type:char(2);not null;uniqueIndex:ux_representing_countries_org_country,priority:2,where:deleted_at IS NULL"`
	MonthlyLivingCost   *string        `gorm:"type:numeric(12,2)"`
	Currency            *string        `gorm:"type:char(3)"`
	VisaRequirements    *string        `gorm:"type:text"`
	PartTimeWorkDetails *string        `gorm:"type:text"`
	CountryBenefits     *string        `gorm:"type:text"`
	IsActive            bool           `gorm:"not null"`
	CreatedAt           time.Time      `gorm:"not null"`
	UpdatedAt           time.Time      `gorm:"not null"`
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

func (RepresentingCountry) TableName() string { return "representing_countries" }
