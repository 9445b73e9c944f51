package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindRepresentingCountry(ctx context.Context, orgID, representingCountryID snowflake.ID) (*CountryRef, error)
	ListRepresentingCountries(ctx context.Context) ([]CountryRef, error)

	ListStatuses(ctx context.Context, representingCountryID snowflake.ID, withTrashed bool) ([]Status, error)
	FindStatus(ctx context.Context, representingCountryID, statusID snowflake.ID) (*Status, error)
	FindStatusByID(ctx context.Context, statusID snowflake.ID) (*Status, error)
	FindStatusByName(ctx context.Context, representingCountryID snowflake.ID, name string) (*Status, error)
	// FindStatusesInOrg returns the live statuses among ids that belong to any
	// live representing country of the organization.
	FindStatusesInOrg(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) ([]Status, error)
	MaxStatusOrder(ctx context.Context, representingCountryID snowflake.ID) (int, error)
	InsertStatus(ctx context.Context, status *Status) error
	UpdateStatus(ctx context.Context, statusID snowflake.ID, fields map[string]any) error
	SoftDeleteStatus(ctx context.Context, statusID snowflake.ID) error
	SoftDeleteStatusesOfCountry(ctx context.Context, representingCountryID snowflake.ID) (int64, error)

	ListSubStatuses(ctx context.Context, statusIDs []snowflake.ID, withTrashed bool) ([]SubStatus, error)
	FindSubStatus(ctx context.Context, statusID, subStatusID snowflake.ID) (*SubStatus, error)
	FindSubStatusByName(ctx context.Context, statusID snowflake.ID, name string) (*SubStatus, error)
	CountSubStatuses(ctx context.Context, statusID snowflake.ID) (int64, error)
	InsertSubStatus(ctx context.Context, subStatus *SubStatus) error
	UpdateSubStatus(ctx context.Context, subStatusID snowflake.ID, fields map[string]any) error
	SoftDeleteSubStatus(ctx context.Context, subStatusID snowflake.ID) error
	SoftDeleteSubStatusesOf(ctx context.Context, statusID snowflake.ID) (int64, error)
	SoftDeleteSubStatusesOfCountry(ctx context.Context, representingCountryID snowflake.ID) (int64, error)
}
