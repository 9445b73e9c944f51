package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/internal/processtemplate/domain"
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

func (r *repository) List(ctx context.Context) ([]domain.ProcessTemplate, error) {
	var templates []domain.ProcessTemplate
	err := r.db.WithContext(ctx).
		Order("template_order ASC, id ASC").
		Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.ProcessTemplate, error) {
	var template domain.ProcessTemplate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *repository) FindByName(ctx context.Context, name string) (*domain.ProcessTemplate, error) {
	var template domain.ProcessTemplate
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *repository) MaxOrder(ctx context.Context) (int, error) {
	var max struct {
		Value int `gorm:"column:value"`
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(template_order), 0) AS value
		 FROM process_templates
		 WHERE deleted_at IS NULL`,
	).Scan(&max).Error
	return max.Value, err
}

func (r *repository) Insert(ctx context.Context, template *domain.ProcessTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *repository) Update(ctx context.Context, template *domain.ProcessTemplate) error {
	return r.db.WithContext(ctx).Model(&domain.ProcessTemplate{}).
		Where("id = ?", template.ID).
		Updates(map[string]any{
			"color":          template.Color,
			"template_order": template.Order,
			"description":    template.Description,
			"updated_at":     template.UpdatedAt,
		}).Error
}

func (r *repository) UpdateDescription(ctx context.Context, id snowflake.ID, description *string, updatedAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.ProcessTemplate{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"description": description,
			"updated_at":  updatedAt,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) SoftDelete(ctx context.Context, id snowflake.ID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.ProcessTemplate{})
	return result.RowsAffected, result.Error
}
