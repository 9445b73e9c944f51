package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/internal/representingcountry/domain"
	"gorm.io/gorm"
)

const selectRecord = `SELECT rc.id, rc.org_id, rc.country_code, rc.monthly_living_cost, rc.currency,
	       rc.visa_requirements, rc.part_time_work_details, rc.country_benefits,
	       rc.is_active, rc.created_at, rc.updated_at,
	       COALESCE(c.name, rc.country_code) AS country_name
	FROM representing_countries rc
	LEFT JOIN countries c ON c.code = rc.country_code`

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, country *domain.RepresentingCountry) error {
	return r.db.WithContext(ctx).Create(country).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id snowflake.ID) (*domain.Record, error) {
	var rows []domain.Record
	err := r.db.WithContext(ctx).Raw(
		selectRecord+`
		WHERE rc.id = ? AND rc.org_id = ? AND rc.deleted_at IS NULL
		LIMIT 1`,
		id,
		orgID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repository) FindByCountryCode(ctx context.Context, orgID snowflake.ID, code string) (*domain.RepresentingCountry, error) {
	var country domain.RepresentingCountry
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND country_code = ?", orgID, code).
		First(&country).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &country, nil
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Record, error) {
	query := selectRecord + `
		WHERE rc.org_id = ? AND rc.deleted_at IS NULL`
	args := []any{filter.OrgID}
	if filter.IsActive != nil {
		query += ` AND rc.is_active = ?`
		args = append(args, *filter.IsActive)
	}
	query += ` ORDER BY country_name ASC, rc.id ASC`

	var rows []domain.Record
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&domain.RepresentingCountry{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repository) SoftDelete(ctx context.Context, orgID, id snowflake.ID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		Delete(&domain.RepresentingCountry{})
	return result.RowsAffected, result.Error
}
