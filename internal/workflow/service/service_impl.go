package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/internal/cache"
	"github.com/smallbiznis/pathway/internal/clock"
	"github.com/smallbiznis/pathway/internal/observability/metrics"
	"github.com/smallbiznis/pathway/internal/orgcontext"
	templatedomain "github.com/smallbiznis/pathway/internal/processtemplate/domain"
	"github.com/smallbiznis/pathway/internal/workflow/domain"
	dbpkg "github.com/smallbiznis/pathway/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxNameLength = 255

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	TemplateRepo templatedomain.Repository
	Cache        cache.WorkflowCache `optional:"true"`
	Metrics      *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	templateRepo templatedomain.Repository
	cache        cache.WorkflowCache
	metrics      *metrics.Metrics
}

func NewService(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("workflow.service"),
		genID:        p.GenID,
		clock:        c,
		repo:         p.Repo,
		templateRepo: p.TemplateRepo,
		cache:        p.Cache,
		metrics:      p.Metrics,
	}
}

func (s *Service) ListWorkflow(ctx context.Context, representingCountryID string, req domain.ListWorkflowRequest) ([]domain.StatusWithSubStatuses, error) {
	country, err := s.resolveCountry(ctx, representingCountryID)
	if err != nil {
		return nil, err
	}

	cacheable := s.cache != nil && !req.WithTrashed && !req.ActiveOnly
	if cacheable {
		if payload, ok := s.cache.Get(ctx, country.OrgID.String(), country.ID.String()); ok {
			var cached []domain.StatusWithSubStatuses
			if err := json.Unmarshal(payload, &cached); err == nil {
				s.metrics.RecordCacheLookup(ctx, true)
				return cached, nil
			}
		}
		s.metrics.RecordCacheLookup(ctx, false)
	}

	workflow, err := s.loadWorkflow(ctx, s.repo, country.ID, req)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if payload, err := json.Marshal(workflow); err == nil {
			s.cache.Set(ctx, country.OrgID.String(), country.ID.String(), payload)
		}
	}
	return workflow, nil
}

func (s *Service) SeedWorkflow(ctx context.Context, representingCountryID string) ([]domain.StatusWithSubStatuses, error) {
	country, err := s.resolveCountry(ctx, representingCountryID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.SeedInTx(ctx, tx, country.OrgID, country.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, country, "seed")
	return s.loadWorkflow(ctx, s.repo, country.ID, domain.ListWorkflowRequest{})
}

func (s *Service) SeedInTx(ctx context.Context, tx *gorm.DB, orgID, representingCountryID snowflake.ID) (domain.SeedResult, error) {
	var result domain.SeedResult

	templates, err := s.templateRepo.WithTx(tx).List(ctx)
	if err != nil {
		return result, err
	}
	names := seedSequence(templates)

	repo := s.repo.WithTx(tx)
	existing, err := repo.ListStatuses(ctx, representingCountryID, false)
	if err != nil {
		return result, err
	}
	byName := make(map[string]domain.Status, len(existing))
	for _, status := range existing {
		byName[status.StatusName] = status
	}

	now := s.clock.Now()
	for i, name := range names {
		position := i + 1
		if current, ok := byName[name]; ok {
			if current.Order == position {
				continue
			}
			if err := repo.UpdateStatus(ctx, current.ID, map[string]any{
				"status_order": position,
				"updated_at":   now,
			}); err != nil {
				return result, err
			}
			result.Reordered++
			continue
		}

		if err := repo.InsertStatus(ctx, &domain.Status{
			ID:                    s.genID.Generate(),
			RepresentingCountryID: representingCountryID,
			StatusName:            name,
			Order:                 position,
			IsActive:              true,
			CreatedAt:             now,
			UpdatedAt:             now,
		}); err != nil {
			return result, err
		}
		result.Created++
	}

	s.metrics.RecordSeededStatuses(ctx, orgID.String(), result.Created)
	s.log.Info("workflow seeded",
		zap.String("org_id", orgID.String()),
		zap.String("representing_country_id", representingCountryID.String()),
		zap.Int("created", result.Created),
		zap.Int("reordered", result.Reordered),
	)
	return result, nil
}

func (s *Service) DeleteAllInTx(ctx context.Context, tx *gorm.DB, orgID, representingCountryID snowflake.ID) error {
	repo := s.repo.WithTx(tx)
	if _, err := repo.SoftDeleteSubStatusesOfCountry(ctx, representingCountryID); err != nil {
		return err
	}
	if _, err := repo.SoftDeleteStatusesOfCountry(ctx, representingCountryID); err != nil {
		return err
	}
	s.invalidate(ctx, orgID, representingCountryID)
	return nil
}

func (s *Service) BackfillAll(ctx context.Context) (domain.BackfillResult, error) {
	var result domain.BackfillResult

	countries, err := s.repo.ListRepresentingCountries(ctx)
	if err != nil {
		return result, err
	}

	for _, country := range countries {
		var seeded domain.SeedResult
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			seeded, err = s.SeedInTx(ctx, tx, country.OrgID, country.ID)
			return err
		})
		if err != nil {
			s.log.Error("workflow backfill failed",
				zap.String("org_id", country.OrgID.String()),
				zap.String("representing_country_id", country.ID.String()),
				zap.Error(err),
			)
			return result, err
		}
		s.invalidate(ctx, country.OrgID, country.ID)
		result.Countries++
		result.Created += seeded.Created
		result.Reordered += seeded.Reordered
	}
	return result, nil
}

func (s *Service) AddStatus(ctx context.Context, req domain.AddStatusRequest) (*domain.StatusResponse, error) {
	name, ok := normalizeName(req.StatusName)
	if !ok {
		return nil, domain.ErrInvalidStatusName
	}
	country, err := s.resolveCountry(ctx, req.RepresentingCountryID)
	if err != nil {
		return nil, err
	}

	var created domain.Status
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindStatusByName(ctx, country.ID, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicateStatusName
		}

		max, err := repo.MaxStatusOrder(ctx, country.ID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		created = domain.Status{
			ID:                    s.genID.Generate(),
			RepresentingCountryID: country.ID,
			StatusName:            name,
			Order:                 max + 1,
			IsActive:              true,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		if err := repo.InsertStatus(ctx, &created); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateStatusName
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, country, "add_status")
	resp := toStatusResponse(created)
	return &resp, nil
}

func (s *Service) RenameStatus(ctx context.Context, req domain.RenameStatusRequest) (*domain.StatusResponse, error) {
	country, status, err := s.resolveStatus(ctx, req.RepresentingCountryID, req.StatusID)
	if err != nil {
		return nil, err
	}
	customName, ok := normalizeName(req.CustomName)
	if !ok {
		return nil, domain.ErrInvalidCustomName
	}
	if status.IsSystem() {
		return nil, domain.ErrSystemStatusLocked
	}

	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, status.ID, map[string]any{
		"custom_name": customName,
		"updated_at":  now,
	}); err != nil {
		return nil, err
	}
	status.CustomName = &customName
	status.UpdatedAt = now

	s.afterMutation(ctx, country, "rename_status")
	resp := toStatusResponse(*status)
	return &resp, nil
}

func (s *Service) UpdateStatusNotes(ctx context.Context, req domain.UpdateStatusNotesRequest) (*domain.StatusResponse, error) {
	country, status, err := s.resolveStatus(ctx, req.RepresentingCountryID, req.StatusID)
	if err != nil {
		return nil, err
	}

	notes := normalizeText(req.Notes)
	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, status.ID, map[string]any{
		"notes":      notes,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}
	status.Notes = notes
	status.UpdatedAt = now

	s.afterMutation(ctx, country, "update_status_notes")
	resp := toStatusResponse(*status)
	return &resp, nil
}

// ToggleStatusActive flips is_active. The "New" step may be toggled too;
// activity is independent from its position lock.
func (s *Service) ToggleStatusActive(ctx context.Context, ref domain.StatusRef) (*domain.StatusResponse, error) {
	country, status, err := s.resolveStatus(ctx, ref.RepresentingCountryID, ref.StatusID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	status.IsActive = !status.IsActive
	status.UpdatedAt = now
	if err := s.repo.UpdateStatus(ctx, status.ID, map[string]any{
		"is_active":  status.IsActive,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, country, "toggle_status")
	resp := toStatusResponse(*status)
	return &resp, nil
}

func (s *Service) DeleteStatus(ctx context.Context, ref domain.StatusRef) error {
	country, status, err := s.resolveStatus(ctx, ref.RepresentingCountryID, ref.StatusID)
	if err != nil {
		return err
	}
	if status.IsSystem() {
		return domain.ErrSystemStatusLocked
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.SoftDeleteSubStatusesOf(ctx, status.ID); err != nil {
			return err
		}
		return repo.SoftDeleteStatus(ctx, status.ID)
	})
	if err != nil {
		return err
	}

	s.afterMutation(ctx, country, "delete_status")
	return nil
}

// ReorderStatuses applies the submitted positions entry by entry. The "New"
// step and statuses of other countries are skipped. No compaction happens,
// so a payload reusing a position leaves equal orders behind.
func (s *Service) ReorderStatuses(ctx context.Context, req domain.ReorderRequest) ([]domain.StatusWithSubStatuses, error) {
	if len(req.Orders) == 0 {
		return nil, domain.ErrInvalidStatusOrders
	}

	type entry struct {
		id    snowflake.ID
		order int
	}
	entries := make([]entry, 0, len(req.Orders))
	unique := make(map[snowflake.ID]struct{}, len(req.Orders))
	ids := make([]snowflake.ID, 0, len(req.Orders))
	for _, item := range req.Orders {
		if item.Order < 1 {
			return nil, domain.ErrInvalidOrder
		}
		id, ok := orgcontext.ParseID(item.ID)
		if !ok {
			return nil, domain.ErrInvalidStatusID
		}
		entries = append(entries, entry{id: id, order: item.Order})
		if _, seen := unique[id]; !seen {
			unique[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	country, err := s.resolveCountry(ctx, req.RepresentingCountryID)
	if err != nil {
		return nil, err
	}

	found, err := s.repo.FindStatusesInOrg(ctx, country.OrgID, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, domain.ErrInvalidStatusID
	}

	skipped := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := s.clock.Now()
		for _, item := range entries {
			status, err := repo.FindStatusByID(ctx, item.id)
			if err != nil {
				return err
			}
			if status == nil || status.IsSystem() || status.RepresentingCountryID != country.ID {
				skipped++
				continue
			}
			if err := repo.UpdateStatus(ctx, status.ID, map[string]any{
				"status_order": item.order,
				"updated_at":   now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("workflow reordered",
		zap.String("representing_country_id", country.ID.String()),
		zap.Int("entries", len(entries)),
		zap.Int("skipped", skipped),
	)
	s.afterMutation(ctx, country, "reorder_statuses")
	return s.loadWorkflow(ctx, s.repo, country.ID, domain.ListWorkflowRequest{})
}

func (s *Service) AddSubStatus(ctx context.Context, req domain.AddSubStatusRequest) (*domain.SubStatusResponse, error) {
	country, status, err := s.resolveStatus(ctx, req.RepresentingCountryID, req.StatusID)
	if err != nil {
		return nil, err
	}
	name, ok := normalizeName(req.Name)
	if !ok {
		return nil, domain.ErrInvalidSubStatusName
	}

	var created domain.SubStatus
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindSubStatusByName(ctx, status.ID, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicateSubStatusName
		}

		count, err := repo.CountSubStatuses(ctx, status.ID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		created = domain.SubStatus{
			ID:                 s.genID.Generate(),
			RepCountryStatusID: status.ID,
			Name:               name,
			Description:        normalizeText(req.Description),
			Order:              int(count) + 1,
			IsActive:           true,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := repo.InsertSubStatus(ctx, &created); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateSubStatusName
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, country, "add_sub_status")
	resp := toSubStatusResponse(created)
	return &resp, nil
}

func (s *Service) EditSubStatus(ctx context.Context, req domain.EditSubStatusRequest) (*domain.SubStatusResponse, error) {
	country, subStatus, err := s.resolveSubStatus(ctx, req.RepresentingCountryID, req.StatusID, req.SubStatusID)
	if err != nil {
		return nil, err
	}
	name, ok := normalizeName(req.Name)
	if !ok {
		return nil, domain.ErrInvalidSubStatusName
	}

	existing, err := s.repo.FindSubStatusByName(ctx, subStatus.RepCountryStatusID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != subStatus.ID {
		return nil, domain.ErrDuplicateSubStatusName
	}

	now := s.clock.Now()
	description := normalizeText(req.Description)
	if err := s.repo.UpdateSubStatus(ctx, subStatus.ID, map[string]any{
		"name":        name,
		"description": description,
		"updated_at":  now,
	}); err != nil {
		if dbpkg.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateSubStatusName
		}
		return nil, err
	}
	subStatus.Name = name
	subStatus.Description = description
	subStatus.UpdatedAt = now

	s.afterMutation(ctx, country, "edit_sub_status")
	resp := toSubStatusResponse(*subStatus)
	return &resp, nil
}

func (s *Service) ToggleSubStatusActive(ctx context.Context, ref domain.SubStatusRef) (*domain.SubStatusResponse, error) {
	country, subStatus, err := s.resolveSubStatus(ctx, ref.RepresentingCountryID, ref.StatusID, ref.SubStatusID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	subStatus.IsActive = !subStatus.IsActive
	subStatus.UpdatedAt = now
	if err := s.repo.UpdateSubStatus(ctx, subStatus.ID, map[string]any{
		"is_active":  subStatus.IsActive,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, country, "toggle_sub_status")
	resp := toSubStatusResponse(*subStatus)
	return &resp, nil
}

func (s *Service) DeleteSubStatus(ctx context.Context, ref domain.SubStatusRef) error {
	country, subStatus, err := s.resolveSubStatus(ctx, ref.RepresentingCountryID, ref.StatusID, ref.SubStatusID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDeleteSubStatus(ctx, subStatus.ID); err != nil {
		return err
	}
	s.afterMutation(ctx, country, "delete_sub_status")
	return nil
}

func (s *Service) resolveCountry(ctx context.Context, rawID string) (*domain.CountryRef, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	id, ok := orgcontext.ParseID(rawID)
	if !ok {
		return nil, domain.ErrRepresentingCountryNotFound
	}

	country, err := s.repo.FindRepresentingCountry(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if country == nil {
		return nil, domain.ErrRepresentingCountryNotFound
	}
	return country, nil
}

func (s *Service) resolveStatus(ctx context.Context, rawCountryID, rawStatusID string) (*domain.CountryRef, *domain.Status, error) {
	country, err := s.resolveCountry(ctx, rawCountryID)
	if err != nil {
		return nil, nil, err
	}
	statusID, ok := orgcontext.ParseID(rawStatusID)
	if !ok {
		return nil, nil, domain.ErrStatusNotFound
	}

	status, err := s.repo.FindStatus(ctx, country.ID, statusID)
	if err != nil {
		return nil, nil, err
	}
	if status == nil {
		return nil, nil, domain.ErrStatusNotFound
	}
	return country, status, nil
}

func (s *Service) resolveSubStatus(ctx context.Context, rawCountryID, rawStatusID, rawSubStatusID string) (*domain.CountryRef, *domain.SubStatus, error) {
	country, status, err := s.resolveStatus(ctx, rawCountryID, rawStatusID)
	if err != nil {
		return nil, nil, err
	}
	subStatusID, ok := orgcontext.ParseID(rawSubStatusID)
	if !ok {
		return nil, nil, domain.ErrSubStatusNotFound
	}

	subStatus, err := s.repo.FindSubStatus(ctx, status.ID, subStatusID)
	if err != nil {
		return nil, nil, err
	}
	if subStatus == nil {
		return nil, nil, domain.ErrSubStatusNotFound
	}
	return country, subStatus, nil
}

func (s *Service) loadWorkflow(ctx context.Context, repo domain.Repository, representingCountryID snowflake.ID, req domain.ListWorkflowRequest) ([]domain.StatusWithSubStatuses, error) {
	statuses, err := repo.ListStatuses(ctx, representingCountryID, req.WithTrashed)
	if err != nil {
		return nil, err
	}

	ids := make([]snowflake.ID, 0, len(statuses))
	for _, status := range statuses {
		ids = append(ids, status.ID)
	}
	subStatuses, err := repo.ListSubStatuses(ctx, ids, req.WithTrashed)
	if err != nil {
		return nil, err
	}

	children := make(map[snowflake.ID][]domain.SubStatusResponse, len(statuses))
	for _, subStatus := range subStatuses {
		if req.ActiveOnly && !subStatus.IsActive {
			continue
		}
		children[subStatus.RepCountryStatusID] = append(children[subStatus.RepCountryStatusID], toSubStatusResponse(subStatus))
	}

	workflow := make([]domain.StatusWithSubStatuses, 0, len(statuses))
	for _, status := range statuses {
		if req.ActiveOnly && !status.IsActive {
			continue
		}
		subs := children[status.ID]
		if subs == nil {
			subs = []domain.SubStatusResponse{}
		}
		workflow = append(workflow, domain.StatusWithSubStatuses{
			Status:      toStatusResponse(status),
			SubStatuses: subs,
		})
	}
	return workflow, nil
}

func (s *Service) afterMutation(ctx context.Context, country *domain.CountryRef, operation string) {
	s.invalidate(ctx, country.OrgID, country.ID)
	s.metrics.RecordWorkflowMutation(ctx, country.OrgID.String(), operation)
}

func (s *Service) invalidate(ctx context.Context, orgID, representingCountryID snowflake.ID) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, orgID.String(), representingCountryID.String())
}

// seedSequence puts "New" first, then the remaining templates in catalog order.
func seedSequence(templates []templatedomain.ProcessTemplate) []string {
	names := make([]string, 0, len(templates)+1)
	names = append(names, domain.SystemStatusName)
	seen := map[string]struct{}{domain.SystemStatusName: {}}
	for _, template := range templates {
		name := strings.TrimSpace(template.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func normalizeName(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return "", false
	}
	return name, true
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

func toStatusResponse(status domain.Status) domain.StatusResponse {
	displayName := status.StatusName
	if status.CustomName != nil && *status.CustomName != "" {
		displayName = *status.CustomName
	}
	return domain.StatusResponse{
		ID:                    status.ID.String(),
		RepresentingCountryID: status.RepresentingCountryID.String(),
		StatusName:            status.StatusName,
		CustomName:            status.CustomName,
		DisplayName:           displayName,
		Notes:                 status.Notes,
		Order:                 status.Order,
		IsActive:              status.IsActive,
		IsSystem:              status.IsSystem(),
		CreatedAt:             status.CreatedAt,
		UpdatedAt:             status.UpdatedAt,
		DeletedAt:             deletedAt(status.DeletedAt),
	}
}

func toSubStatusResponse(subStatus domain.SubStatus) domain.SubStatusResponse {
	return domain.SubStatusResponse{
		ID:          subStatus.ID.String(),
		StatusID:    subStatus.RepCountryStatusID.String(),
		Name:        subStatus.Name,
		Description: subStatus.Description,
		Order:       subStatus.Order,
		IsActive:    subStatus.IsActive,
		CreatedAt:   subStatus.CreatedAt,
		UpdatedAt:   subStatus.UpdatedAt,
		DeletedAt:   deletedAt(subStatus.DeletedAt),
	}
}

func deletedAt(value gorm.DeletedAt) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time
	return &t
}
