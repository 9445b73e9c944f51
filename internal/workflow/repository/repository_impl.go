package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/internal/workflow/domain"
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

func (r *repository) FindRepresentingCountry(ctx context.Context, orgID, representingCountryID snowflake.ID) (*domain.CountryRef, error) {
	var rows []domain.CountryRef
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, org_id
		 FROM representing_countries
		 WHERE id = ? AND org_id = ? AND deleted_at IS NULL
		 LIMIT 1`,
		representingCountryID,
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

func (r *repository) ListRepresentingCountries(ctx context.Context) ([]domain.CountryRef, error) {
	var rows []domain.CountryRef
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, org_id
		 FROM representing_countries
		 WHERE deleted_at IS NULL
		 ORDER BY org_id ASC, id ASC`,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListStatuses(ctx context.Context, representingCountryID snowflake.ID, withTrashed bool) ([]domain.Status, error) {
	query := r.db.WithContext(ctx)
	if withTrashed {
		query = query.Unscoped()
	}

	var statuses []domain.Status
	err := query.
		Where("representing_country_id = ?", representingCountryID).
		Order("status_order ASC, id ASC").
		Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *repository) FindStatus(ctx context.Context, representingCountryID, statusID snowflake.ID) (*domain.Status, error) {
	var status domain.Status
	err := r.db.WithContext(ctx).
		Where("id = ? AND representing_country_id = ?", statusID, representingCountryID).
		First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *repository) FindStatusByID(ctx context.Context, statusID snowflake.ID) (*domain.Status, error) {
	var status domain.Status
	err := r.db.WithContext(ctx).Where("id = ?", statusID).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *repository) FindStatusByName(ctx context.Context, representingCountryID snowflake.ID, name string) (*domain.Status, error) {
	var status domain.Status
	err := r.db.WithContext(ctx).
		Where("representing_country_id = ? AND status_name = ?", representingCountryID, name).
		First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *repository) FindStatusesInOrg(ctx context.Context, orgID snowflake.ID, ids []snowflake.ID) ([]domain.Status, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var statuses []domain.Status
	err := r.db.WithContext(ctx).Raw(
		`SELECT s.id, s.representing_country_id, s.status_name, s.custom_name, s.notes,
		        s.status_order, s.is_active, s.created_at, s.updated_at
		 FROM rep_country_statuses s
		 JOIN representing_countries rc ON rc.id = s.representing_country_id
		 WHERE rc.org_id = ?
		   AND rc.deleted_at IS NULL
		   AND s.deleted_at IS NULL
		   AND s.id IN ?`,
		orgID,
		ids,
	).Scan(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *repository) MaxStatusOrder(ctx context.Context, representingCountryID snowflake.ID) (int, error) {
	var max struct {
		Value int `gorm:"column:value"`
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(status_order), 0) AS value
		 FROM rep_country_statuses
		 WHERE representing_country_id = ? AND deleted_at IS NULL`,
		representingCountryID,
	).Scan(&max).Error
	return max.Value, err
}

func (r *repository) InsertStatus(ctx context.Context, status *domain.Status) error {
	return r.db.WithContext(ctx).Create(status).Error
}

func (r *repository) UpdateStatus(ctx context.Context, statusID snowflake.ID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&domain.Status{}).
		Where("id = ?", statusID).
		Updates(fields).Error
}

func (r *repository) SoftDeleteStatus(ctx context.Context, statusID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("id = ?", statusID).Delete(&domain.Status{}).Error
}

func (r *repository) SoftDeleteStatusesOfCountry(ctx context.Context, representingCountryID snowflake.ID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("representing_country_id = ?", representingCountryID).
		Delete(&domain.Status{})
	return result.RowsAffected, result.Error
}

func (r *repository) ListSubStatuses(ctx context.Context, statusIDs []snowflake.ID, withTrashed bool) ([]domain.SubStatus, error) {
	if len(statusIDs) == 0 {
		return nil, nil
	}
	query := r.db.WithContext(ctx)
	if withTrashed {
		query = query.Unscoped()
	}

	var subStatuses []domain.SubStatus
	err := query.
		Where("rep_country_status_id IN ?", statusIDs).
		Order("sub_status_order ASC, id ASC").
		Find(&subStatuses).Error
	if err != nil {
		return nil, err
	}
	return subStatuses, nil
}

func (r *repository) FindSubStatus(ctx context.Context, statusID, subStatusID snowflake.ID) (*domain.SubStatus, error) {
	var subStatus domain.SubStatus
	err := r.db.WithContext(ctx).
		Where("id = ? AND rep_country_status_id = ?", subStatusID, statusID).
		First(&subStatus).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subStatus, nil
}

func (r *repository) FindSubStatusByName(ctx context.Context, statusID snowflake.ID, name string) (*domain.SubStatus, error) {
	var subStatus domain.SubStatus
	err := r.db.WithContext(ctx).
		Where("rep_country_status_id = ? AND name = ?", statusID, name).
		First(&subStatus).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subStatus, nil
}

func (r *repository) CountSubStatuses(ctx context.Context, statusID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.SubStatus{}).
		Where("rep_country_status_id = ?", statusID).
		Count(&count).Error
	return count, err
}

func (r *repository) InsertSubStatus(ctx context.Context, subStatus *domain.SubStatus) error {
	return r.db.WithContext(ctx).Create(subStatus).Error
}

func (r *repository) UpdateSubStatus(ctx context.Context, subStatusID snowflake.ID, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&domain.SubStatus{}).
		Where("id = ?", subStatusID).
		Updates(fields).Error
}

func (r *repository) SoftDeleteSubStatus(ctx context.Context, subStatusID snowflake.ID) error {
	return r.db.WithContext(ctx).Where("id = ?", subStatusID).Delete(&domain.SubStatus{}).Error
}

func (r *repository) SoftDeleteSubStatusesOf(ctx context.Context, statusID snowflake.ID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("rep_country_status_id = ?", statusID).
		Delete(&domain.SubStatus{})
	return result.RowsAffected, result.Error
}

func (r *repository) SoftDeleteSubStatusesOfCountry(ctx context.Context, representingCountryID snowflake.ID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where(
			`rep_country_status_id IN (
				SELECT id FROM rep_country_statuses
				WHERE representing_country_id = ? AND deleted_at IS NULL
			)`,
			representingCountryID,
		).
		Delete(&domain.SubStatus{})
	return result.RowsAffected, result.Error
}
