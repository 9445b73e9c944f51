package service

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/pathway/internal/clock"
	"github.com/smallbiznis/pathway/internal/config"
	"github.com/smallbiznis/pathway/internal/orgcontext"
	"github.com/smallbiznis/pathway/internal/processtemplate/domain"
	dbpkg "github.com/smallbiznis/pathway/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxNameLength = 255

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("processtemplate.service"),
		genID: p.GenID,
		clock: c,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	templates, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return toResponses(templates), nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return nil, domain.ErrInvalidName
	}
	color, err := normalizeColor(req.Color)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateName
	}

	order := 0
	if req.Order != nil {
		if *req.Order < 1 {
			return nil, domain.ErrInvalidOrder
		}
		order = *req.Order
	} else {
		max, err := s.repo.MaxOrder(ctx)
		if err != nil {
			return nil, err
		}
		order = max + 1
	}

	now := s.clock.Now()
	template := &domain.ProcessTemplate{
		ID:          s.genID.Generate(),
		Name:        name,
		Slug:        slug.Make(name),
		Color:       color,
		Description: normalizeText(req.Description),
		Order:       order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, template); err != nil {
		if dbpkg.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateName
		}
		return nil, err
	}

	s.log.Info("process template created",
		zap.String("process_template_id", template.ID.String()),
		zap.Int("order", template.Order),
	)
	resp := toResponse(*template)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Response, error) {
	templateID, ok := orgcontext.ParseID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}

	template, err := s.repo.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, domain.ErrNotFound
	}

	if req.Color != nil {
		color, err := normalizeColor(req.Color)
		if err != nil {
			return nil, err
		}
		template.Color = color
	}
	if req.Order != nil {
		if *req.Order < 1 {
			return nil, domain.ErrInvalidOrder
		}
		template.Order = *req.Order
	}
	if req.Description != nil {
		template.Description = normalizeText(req.Description)
	}
	template.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, template); err != nil {
		return nil, err
	}
	resp := toResponse(*template)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	templateID, ok := orgcontext.ParseID(id)
	if !ok {
		return domain.ErrNotFound
	}
	affected, err := s.repo.SoftDelete(ctx, templateID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	s.log.Info("process template deleted", zap.String("process_template_id", templateID.String()))
	return nil
}

func (s *Service) UpdateNotes(ctx context.Context, req domain.UpdateNotesRequest) ([]domain.Response, error) {
	if len(req.Notes) == 0 {
		return nil, domain.ErrInvalidNotes
	}

	ids := make(map[snowflake.ID]*string, len(req.Notes))
	for raw, note := range req.Notes {
		id, ok := orgcontext.ParseID(raw)
		if !ok {
			return nil, domain.ErrNotFound
		}
		value := note
		ids[id] = normalizeText(&value)
	}

	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for id, description := range ids {
			affected, err := repo.UpdateDescription(ctx, id, description, now)
			if err != nil {
				return err
			}
			if affected == 0 {
				return domain.ErrNotFound
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.List(ctx)
}

func (s *Service) EnsureCatalog(ctx context.Context, entries []config.CatalogEntry) (int, error) {
	created := 0
	now := s.clock.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.List(ctx)
		if err != nil {
			return err
		}
		byName := make(map[string]domain.ProcessTemplate, len(existing))
		for _, template := range existing {
			byName[template.Name] = template
		}

		for i, entry := range entries {
			name := strings.TrimSpace(entry.Name)
			if name == "" {
				continue
			}
			order := entry.Order
			if order < 1 {
				order = i + 1
			}
			color := strings.TrimSpace(entry.Color)
			if !colorPattern.MatchString(color) {
				color = domain.DefaultColor
			}

			if current, ok := byName[name]; ok {
				if current.Color == color && current.Order == order {
					continue
				}
				current.Color = color
				current.Order = order
				current.UpdatedAt = now
				if err := repo.Update(ctx, &current); err != nil {
					return err
				}
				continue
			}

			if err := repo.Insert(ctx, &domain.ProcessTemplate{
				ID:        s.genID.Generate(),
				Name:      name,
				Slug:      slug.Make(name),
				Color:     color,
				Order:     order,
				CreatedAt: now,
				UpdatedAt: now,
			}); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("process catalog ensured", zap.Int("created", created), zap.Int("entries", len(entries)))
	return created, nil
}

func normalizeColor(raw *string) (string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return domain.DefaultColor, nil
	}
	color := strings.TrimSpace(*raw)
	if !colorPattern.MatchString(color) {
		return "", domain.ErrInvalidColor
	}
	return strings.ToUpper(color), nil
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

func toResponses(templates []domain.ProcessTemplate) []domain.Response {
	resp := make([]domain.Response, 0, len(templates))
	for _, template := range templates {
		resp = append(resp, toResponse(template))
	}
	return resp
}

func toResponse(template domain.ProcessTemplate) domain.Response {
	return domain.Response{
		ID:          template.ID.String(),
		Name:        template.Name,
		Slug:        template.Slug,
		Color:       template.Color,
		Description: template.Description,
		Order:       template.Order,
		CreatedAt:   template.CreatedAt,
		UpdatedAt:   template.UpdatedAt,
	}
}
