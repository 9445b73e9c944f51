package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/internal/organization/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateOrganization(ctx context.Context, org domain.Organization) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO organizations (id, name, slug, is_default, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		org.ID,
		org.Name,
		org.Slug,
		org.IsDefault,
		org.CreatedAt,
		org.UpdatedAt,
	).Error
}

func (r *repository) FindOrganization(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repository) AddMember(ctx context.Context, member domain.OrganizationMember) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO organization_members (id, org_id, user_id, role, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		member.ID,
		member.OrgID,
		member.UserID,
		member.Role,
		member.CreatedAt,
	).Error
}

func (r *repository) FindMember(ctx context.Context, orgID, userID snowflake.ID) (*domain.OrganizationMember, error) {
	var member domain.OrganizationMember
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) ListMembers(ctx context.Context, orgID snowflake.ID) ([]domain.OrganizationMember, error) {
	var members []domain.OrganizationMember
	err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at ASC, id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) UpdateMemberRole(ctx context.Context, orgID, userID snowflake.ID, role string) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE organization_members SET role = ? WHERE org_id = ? AND user_id = ?`,
		role,
		orgID,
		userID,
	).Error
}

func (r *repository) RemoveMember(ctx context.Context, orgID, userID snowflake.ID) error {
	return r.db.WithContext(ctx).Exec(
		`DELETE FROM organization_members WHERE org_id = ? AND user_id = ?`,
		orgID,
		userID,
	).Error
}

func (r *repository) CountMembersWithRole(ctx context.Context, orgID snowflake.ID, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.OrganizationMember{}).
		Where("org_id = ? AND role = ?", orgID, role).
		Count(&count).Error
	return count, err
}

