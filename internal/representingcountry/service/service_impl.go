package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/internal/clock"
	"github.com/smallbiznis/pathway/internal/orgcontext"
	referencedomain "github.com/smallbiznis/pathway/internal/reference/domain"
	"github.com/smallbiznis/pathway/internal/representingcountry/domain"
	workflowdomain "github.com/smallbiznis/pathway/internal/workflow/domain"
	dbpkg "github.com/smallbiznis/pathway/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	Reference   referencedomain.Repository
	WorkflowSvc workflowdomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	reference   referencedomain.Repository
	workflowSvc workflowdomain.Service
}

func NewService(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("representingcountry.service"),
		genID:       p.GenID,
		clock:       c,
		repo:        p.Repo,
		reference:   p.Reference,
		workflowSvc: p.WorkflowSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	code := strings.ToUpper(strings.TrimSpace(req.CountryCode))
	if len(code) != 2 {
		return nil, domain.ErrInvalidCountryCode
	}
	ref, err := s.reference.FindCountry(ctx, code)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, domain.ErrInvalidCountryCode
	}

	currency, err := s.normalizeCurrency(ctx, req.Currency)
	if err != nil {
		return nil, err
	}
	livingCost, err := normalizeLivingCost(req.MonthlyLivingCost)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByCountryCode(ctx, orgID, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateCountry
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := s.clock.Now()
	country := domain.RepresentingCountry{
		ID:                  s.genID.Generate(),
		OrgID:               orgID,
		CountryCode:         code,
		MonthlyLivingCost:   livingCost,
		Currency:            currency,
		VisaRequirements:    normalizeText(req.VisaRequirements),
		PartTimeWorkDetails: normalizeText(req.PartTimeWorkDetails),
		CountryBenefits:     normalizeText(req.CountryBenefits),
		IsActive:            isActive,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	var seeded workflowdomain.SeedResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Insert(ctx, &country); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateCountry
			}
			return err
		}
		var err error
		seeded, err = s.workflowSvc.SeedInTx(ctx, tx, orgID, country.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("representing country created",
		zap.String("org_id", orgID.String()),
		zap.String("representing_country_id", country.ID.String()),
		zap.String("country_code", code),
		zap.String("country_name", ref.Name),
		zap.Int("seeded_statuses", seeded.Created),
	)
	return s.Get(ctx, country.ID.String())
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	countryID, ok := orgcontext.ParseID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}

	record, err := s.repo.FindByID(ctx, orgID, countryID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	resp := toResponse(*record)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	records, err := s.repo.List(ctx, domain.ListFilter{OrgID: orgID, IsActive: req.IsActive})
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(records))
	for _, record := range records {
		resp = append(resp, toResponse(record))
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Response, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	countryID, _ := orgcontext.ParseID(current.ID)

	fields := map[string]any{}
	if req.MonthlyLivingCost != nil {
		cost, err := normalizeLivingCost(req.MonthlyLivingCost)
		if err != nil {
			return nil, err
		}
		fields["monthly_living_cost"] = cost
	}
	if req.Currency != nil {
		currency, err := s.normalizeCurrency(ctx, req.Currency)
		if err != nil {
			return nil, err
		}
		fields["currency"] = currency
	}
	if req.VisaRequirements != nil {
		fields["visa_requirements"] = normalizeText(req.VisaRequirements)
	}
	if req.PartTimeWorkDetails != nil {
		fields["part_time_work_details"] = normalizeText(req.PartTimeWorkDetails)
	}
	if req.CountryBenefits != nil {
		fields["country_benefits"] = normalizeText(req.CountryBenefits)
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if len(fields) == 0 {
		return current, nil
	}
	fields["updated_at"] = s.clock.Now()

	if err := s.repo.Update(ctx, countryID, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidOrganization
	}
	countryID, ok := orgcontext.ParseID(id)
	if !ok {
		return domain.ErrNotFound
	}

	record, err := s.repo.FindByID(ctx, orgID, countryID)
	if err != nil {
		return err
	}
	if record == nil {
		return domain.ErrNotFound
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.workflowSvc.DeleteAllInTx(ctx, tx, orgID, countryID); err != nil {
			return err
		}
		affected, err := s.repo.WithTx(tx).SoftDelete(ctx, orgID, countryID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("representing country deleted",
		zap.String("org_id", orgID.String()),
		zap.String("representing_country_id", countryID.String()),
	)
	return nil
}

func (s *Service) normalizeCurrency(ctx context.Context, raw *string) (*string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	code := strings.ToUpper(strings.TrimSpace(*raw))
	if len(code) != 3 {
		return nil, domain.ErrInvalidCurrency
	}
	currency, err := s.reference.FindActiveCurrency(ctx, code)
	if err != nil {
		return nil, err
	}
	if currency == nil {
		return nil, domain.ErrInvalidCurrency
	}
	return &code, nil
}

func normalizeLivingCost(raw *string) (*string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 || parsed >= 1e10 {
		return nil, domain.ErrInvalidLivingCost
	}
	return &value, nil
}

func normalizeText(raw *string) *string {
	if raw == nil {
		return nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil
	}
	return &value
}

func toResponse(record domain.Record) domain.Response {
	return domain.Response{
		ID:                  record.ID.String(),
		CountryCode:         record.CountryCode,
		CountryName:         record.CountryName,
		MonthlyLivingCost:   record.MonthlyLivingCost,
		Currency:            record.Currency,
		VisaRequirements:    record.VisaRequirements,
		PartTimeWorkDetails: record.PartTimeWorkDetails,
		CountryBenefits:     record.CountryBenefits,
		IsActive:            record.IsActive,
		CreatedAt:           record.CreatedAt,
		UpdatedAt:           record.UpdatedAt,
	}
}
