package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrganization(ctx context.Context, org Organization) error
	FindOrganization(ctx context.Context, id snowflake.ID) (*Organization, error)
	AddMember(ctx context.Context, member OrganizationMember) error
	FindMember(ctx context.Context, orgID, userID snowflake.ID) (*OrganizationMember, error)
	ListMembers(ctx context.Context, orgID snowflake.ID) ([]OrganizationMember, error)
	UpdateMemberRole(ctx context.Context, orgID, userID snowflake.ID, role string) error
	RemoveMember(ctx context.Context, orgID, userID snowflake.ID) error
	CountMembersWithRole(ctx context.Context, orgID snowflake.ID, role string) (int64, error)
}
