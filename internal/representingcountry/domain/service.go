package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	// Create registers the country and seeds its workflow atomically.
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	// Delete soft-deletes the country together with its whole workflow.
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	CountryCode         string  `json:"country_code"`
	MonthlyLivingCost   *string `json:"monthly_living_cost"`
	Currency            *string `json:"currency"`
	VisaRequirements    *string `json:"visa_requirements"`
	PartTimeWorkDetails *string `json:"part_time_work_details"`
	CountryBenefits     *string `json:"country_benefits"`
	IsActive            *bool   `json:"is_active"`
}

type UpdateRequest struct {
	MonthlyLivingCost   *string `json:"monthly_living_cost"`
	Currency            *string `json:"currency"`
	VisaRequirements    *string `json:"visa_requirements"`
	PartTimeWorkDetails *string `json:"part_time_work_details"`
	CountryBenefits     *string `json:"country_benefits"`
	IsActive            *bool   `json:"is_active"`
}

type ListRequest struct {
	IsActive *bool
}

type Response struct {
	ID                  string    `json:"id"`
	CountryCode         string    `json:"country_code"`
	CountryName         string    `json:"country_name"`
	MonthlyLivingCost   *string   `json:"monthly_living_cost,omitempty"`
	Currency            *string   `json:"currency,omitempty"`
	VisaRequirements    *string   `json:"visa_requirements,omitempty"`
	PartTimeWorkDetails *string   `json:"part_time_work_details,omitempty"`
	CountryBenefits     *string   `json:"country_benefits,omitempty"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidCountryCode  = errors.New("invalid_country_code")
	ErrInvalidCurrency     = errors.New("invalid_currency")
	ErrInvalidLivingCost   = errors.New("invalid_monthly_living_cost")
	ErrDuplicateCountry    = errors.New("duplicate_country_code")
	ErrNotFound            = errors.New("representing_country_not_found")
)
