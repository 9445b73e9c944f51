package domain

import "context"

// Repository reads the seeded ISO reference tables. Find methods return
// nil when the code is unknown.
type Repository interface {
	ListCountries(ctx context.Context) ([]Country, error)
	ListCurrencies(ctx context.Context) ([]Currency, error)
	FindCountry(ctx context.Context, code string) (*Country, error)
	FindActiveCurrency(ctx context.Context, code string) (*Currency, error)
}
