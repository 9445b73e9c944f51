package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/pathway/internal/clock"
	"github.com/smallbiznis/pathway/internal/organization/domain"
	"github.com/smallbiznis/pathway/internal/orgcontext"
	dbpkg "github.com/smallbiznis/pathway/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	return &service{
		db:    p.DB,
		log:   p.Log.Named("organization.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: c,
	}
}

func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateOrganizationRequest) (*domain.OrganizationResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 255 {
		return nil, domain.ErrInvalidName
	}

	now := s.clock.Now()
	org := domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrganization(ctx, org); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateSlug
			}
			return err
		}
		return repo.AddMember(ctx, domain.OrganizationMember{
			ID:        s.genID.Generate(),
			OrgID:     org.ID,
			UserID:    userID,
			Role:      domain.RoleOwner,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("owner_user_id", userID.String()),
	)
	return toOrganizationResponse(org), nil
}

func (s *service) EnsureOrganization(ctx context.Context, id snowflake.ID, name string, isDefault bool) error {
	if id == 0 {
		return domain.ErrInvalidOrganization
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrInvalidName
	}

	existing, err := s.repo.FindOrganization(ctx, id)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	now := s.clock.Now()
	return s.repo.CreateOrganization(ctx, domain.Organization{
		ID:        id,
		Name:      name,
		Slug:      slug.Make(name),
		IsDefault: isDefault,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *service) Get(ctx context.Context) (*domain.OrganizationResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	org, err := s.repo.FindOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return toOrganizationResponse(*org), nil
}

func (s *service) ListMembers(ctx context.Context) ([]domain.MemberResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}

	members, err := s.repo.ListMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.MemberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, toMemberResponse(m))
	}
	return resp, nil
}

func (s *service) AddMember(ctx context.Context, req domain.AddMemberRequest) (*domain.MemberResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	userID, ok := orgcontext.ParseID(req.UserID)
	if !ok {
		return nil, domain.ErrInvalidUser
	}
	role := domain.NormalizeRole(req.Role)
	if role == "" {
		return nil, domain.ErrInvalidRole
	}

	existing, err := s.repo.FindMember(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateMember
	}

	member := domain.OrganizationMember{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		UserID:    userID,
		Role:      role,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		if dbpkg.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateMember
		}
		return nil, err
	}

	resp := toMemberResponse(member)
	return &resp, nil
}

func (s *service) UpdateMemberRole(ctx context.Context, req domain.UpdateMemberRoleRequest) (*domain.MemberResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidOrganization
	}
	userID, ok := orgcontext.ParseID(req.UserID)
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	role := domain.NormalizeRole(req.Role)
	if role == "" {
		return nil, domain.ErrInvalidRole
	}

	var updated *domain.OrganizationMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		member, err := repo.FindMember(ctx, orgID, userID)
		if err != nil {
			return err
		}
		if member == nil {
			return domain.ErrMemberNotFound
		}
		if member.Role == domain.RoleOwner && role != domain.RoleOwner {
			if err := ensureAnotherOwner(ctx, repo, orgID); err != nil {
				return err
			}
		}
		if err := repo.UpdateMemberRole(ctx, orgID, userID, role); err != nil {
			return err
		}
		member.Role = role
		updated = member
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toMemberResponse(*updated)
	return &resp, nil
}

func (s *service) RemoveMember(ctx context.Context, rawUserID string) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidOrganization
	}
	userID, ok := orgcontext.ParseID(rawUserID)
	if !ok {
		return domain.ErrMemberNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		member, err := repo.FindMember(ctx, orgID, userID)
		if err != nil {
			return err
		}
		if member == nil {
			return domain.ErrMemberNotFound
		}
		if member.Role == domain.RoleOwner {
			if err := ensureAnotherOwner(ctx, repo, orgID); err != nil {
				return err
			}
		}
		return repo.RemoveMember(ctx, orgID, userID)
	})
}

// ensureAnotherOwner keeps at least one owner on every organization.
func ensureAnotherOwner(ctx context.Context, repo domain.Repository, orgID snowflake.ID) error {
	owners, err := repo.CountMembersWithRole(ctx, orgID, domain.RoleOwner)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return domain.ErrLastOwner
	}
	return nil
}

func toOrganizationResponse(org domain.Organization) *domain.OrganizationResponse {
	return &domain.OrganizationResponse{
		ID:        org.ID.String(),
		Name:      org.Name,
		Slug:      org.Slug,
		IsDefault: org.IsDefault,
		CreatedAt: org.CreatedAt,
	}
}

func toMemberResponse(m domain.OrganizationMember) domain.MemberResponse {
	return domain.MemberResponse{
		UserID:    m.UserID.String(),
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
	}
}
