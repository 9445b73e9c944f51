package reference

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/pathway/internal/reference/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) ListCountries(ctx context.Context) ([]domain.Country, error) {
	var countries []domain.Country
	err := r.db.WithContext(ctx).
		Select("code", "name").
		Order("name").
		Find(&countries).Error
	if err != nil {
		return nil, err
	}
	return countries, nil
}

func (r *repository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	var currencies []domain.Currency
	err := r.db.WithContext(ctx).
		Select("code", "name", "symbol", "minor_unit", "is_active").
		Where("is_active = ?", true).
		Order("code").
		Find(&currencies).Error
	if err != nil {
		return nil, err
	}
	return currencies, nil
}

func (r *repository) FindCountry(ctx context.Context, code string) (*domain.Country, error) {
	var country domain.Country
	err := r.db.WithContext(ctx).
		Where("code = ?", normalizeCode(code)).
		First(&country).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &country, nil
}

// FindActiveCurrency ignores retired currencies.
func (r *repository) FindActiveCurrency(ctx context.Context, code string) (*domain.Currency, error) {
	var currency domain.Currency
	err := r.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", normalizeCode(code), true).
		First(&currency).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &currency, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
