package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Record is a representing country joined with its reference country name.
type Record struct {
	RepresentingCountry
	CountryName string `gorm:"column:country_name"`
}

type ListFilter struct {
	OrgID    snowflake.ID
	IsActive *bool
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, country *RepresentingCountry) error
	FindByID(ctx context.Context, orgID, id snowflake.ID) (*Record, error)
	FindByCountryCode(ctx context.Context, orgID snowflake.ID, code string) (*RepresentingCountry, error)
	List(ctx context.Context, filter ListFilter) ([]Record, error)
	Update(ctx context.Context, id snowflake.ID, fields map[string]any) error
	SoftDelete(ctx context.Context, orgID, id snowflake.ID) (int64, error)
}
