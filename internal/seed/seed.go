// Package seed bootstraps the platform organization and the shared
// process-template catalog.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/internal/config"
	organizationdomain "github.com/smallbiznis/pathway/internal/organization/domain"
	"github.com/smallbiznis/pathway/internal/orgcontext"
	processtemplatedomain "github.com/smallbiznis/pathway/internal/processtemplate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const platformOrgName = "Platform"

type Params struct {
	fx.In

	Cfg         config.Config
	Log         *zap.Logger
	Catalog     *config.ProcessCatalogHolder
	OrgSvc      organizationdomain.Service
	TemplateSvc processtemplatedomain.Service
}

type Seeder struct {
	cfg         config.Config
	log         *zap.Logger
	catalog     *config.ProcessCatalogHolder
	orgSvc      organizationdomain.Service
	templateSvc processtemplatedomain.Service
}

func New(p Params) *Seeder {
	return &Seeder{
		cfg:         p.Cfg,
		log:         p.Log.Named("seed"),
		catalog:     p.Catalog,
		orgSvc:      p.OrgSvc,
		templateSvc: p.TemplateSvc,
	}
}

// Bootstrap is idempotent: it is run on every start.
func (s *Seeder) Bootstrap(ctx context.Context) error {
	if err := s.EnsurePlatformOrg(ctx); err != nil {
		return err
	}
	_, err := s.EnsureProcessCatalog(ctx, s.catalog.Get())
	return err
}

// EnsurePlatformOrg creates DEFAULT_ORG and, when configured, makes the
// bootstrap admin its owner.
func (s *Seeder) EnsurePlatformOrg(ctx context.Context) error {
	if s.cfg.DefaultOrgID <= 0 {
		s.log.Warn("DEFAULT_ORG not set; process templates cannot be managed over HTTP")
		return nil
	}

	orgID := snowflake.ID(s.cfg.DefaultOrgID)
	if err := s.orgSvc.EnsureOrganization(ctx, orgID, platformOrgName, true); err != nil {
		return err
	}

	if s.cfg.BootstrapAdminUserID <= 0 {
		return nil
	}
	adminID := snowflake.ID(s.cfg.BootstrapAdminUserID)
	_, err := s.orgSvc.AddMember(orgcontext.WithOrgID(ctx, orgID), organizationdomain.AddMemberRequest{
		UserID: adminID.String(),
		Role:   organizationdomain.RoleOwner,
	})
	switch {
	case err == nil:
		s.log.Info("bootstrap admin added", zap.String("org_id", orgID.String()), zap.String("user_id", adminID.String()))
		return nil
	case errors.Is(err, organizationdomain.ErrDuplicateMember):
		return nil
	default:
		return err
	}
}

// EnsureProcessCatalog reconciles the process templates with the catalog.
func (s *Seeder) EnsureProcessCatalog(ctx context.Context, catalog config.ProcessCatalog) (int, error) {
	created, err := s.templateSvc.EnsureCatalog(ctx, catalog.Templates)
	if err != nil {
		return 0, err
	}
	s.log.Info("process catalog ensured", zap.Int("templates", len(catalog.Templates)), zap.Int("created", created))
	return created, nil
}

// WatchCatalog re-applies the catalog whenever the file changes.
func (s *Seeder) WatchCatalog() {
	s.catalog.OnChange(func(cfg config.ProcessCatalog) {
		if _, err := s.EnsureProcessCatalog(context.Background(), cfg); err != nil {
			s.log.Error("process catalog reload failed", zap.Error(err))
		}
	})
}
