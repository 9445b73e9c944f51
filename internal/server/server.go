package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	"github.com/smallbiznis/pathway/internal/authorization"
	"github.com/smallbiznis/pathway/internal/config"
	"github.com/smallbiznis/pathway/internal/observability"
	obsmiddleware "github.com/smallbiznis/pathway/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/pathway/internal/observability/metrics"
	obstracing "github.com/smallbiznis/pathway/internal/observability/tracing"
	organizationdomain "github.com/smallbiznis/pathway/internal/organization/domain"
	processtemplatedomain "github.com/smallbiznis/pathway/internal/processtemplate/domain"
	"github.com/smallbiznis/pathway/internal/ratelimit"
	referencedomain "github.com/smallbiznis/pathway/internal/reference/domain"
	representingcountrydomain "github.com/smallbiznis/pathway/internal/representingcountry/domain"
	workflowdomain "github.com/smallbiznis/pathway/internal/workflow/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterAPIRoutes() }),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine                 *gin.Engine
	cfg                    config.Config
	log                    *zap.Logger
	authzSvc               authorization.Service
	auditSvc               auditdomain.Service
	refrepo                referencedomain.Repository
	organizationSvc        organizationdomain.Service
	processTemplateSvc     processtemplatedomain.Service
	representingCountrySvc representingcountrydomain.Service
	workflowSvc            workflowdomain.Service
	limiter                writeLimiter
}

type ServerParams struct {
	fx.In

	Gin                    *gin.Engine
	Cfg                    config.Config
	Log                    *zap.Logger
	AuthzSvc               authorization.Service
	AuditSvc               auditdomain.Service
	RefRepo                referencedomain.Repository
	OrganizationSvc        organizationdomain.Service
	ProcessTemplateSvc     processtemplatedomain.Service
	RepresentingCountrySvc representingcountrydomain.Service
	WorkflowSvc            workflowdomain.Service
	WriteLimiter           *ratelimit.WriteLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:                 p.Gin,
		cfg:                    p.Cfg,
		log:                    p.Log.Named("http.server"),
		authzSvc:               p.AuthzSvc,
		auditSvc:               p.AuditSvc,
		refrepo:                p.RefRepo,
		organizationSvc:        p.OrganizationSvc,
		processTemplateSvc:     p.ProcessTemplateSvc,
		representingCountrySvc: p.RepresentingCountrySvc,
		workflowSvc:            p.WorkflowSvc,
	}
	if p.WriteLimiter.Enabled() {
		s.limiter = p.WriteLimiter
	}
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api", s.Identity(), s.ActorRequired())

	api.GET("/countries", s.ListCountries)
	api.GET("/countries/:code", s.GetCountry)
	api.GET("/currencies", s.ListCurrencies)

	api.POST("/organizations", s.CreateOrganization)

	org := api.Group("", s.OrgRequired(), s.WriteRateLimit())
	{
		org.GET("/organization", s.authorizeOrgAction(authorization.ObjectOrganizationMember, authorization.ActionOrganizationMemberView), s.GetOrganization)
		org.GET("/organization/members", s.authorizeOrgAction(authorization.ObjectOrganizationMember, authorization.ActionOrganizationMemberView), s.ListOrganizationMembers)
		org.POST("/organization/members", s.authorizeOrgAction(authorization.ObjectOrganizationMember, authorization.ActionOrganizationMemberManage), s.AddOrganizationMember)
		org.PATCH("/organization/members/:user_id", s.authorizeOrgAction(authorization.ObjectOrganizationMember, authorization.ActionOrganizationMemberManage), s.UpdateOrganizationMemberRole)
		org.DELETE("/organization/members/:user_id", s.authorizeOrgAction(authorization.ObjectOrganizationMember, authorization.ActionOrganizationMemberManage), s.RemoveOrganizationMember)

		org.GET("/audit-logs", s.authorizeOrgAction(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)

		org.GET("/process-templates", s.authorizeOrgAction(authorization.ObjectProcessTemplate, authorization.ActionProcessTemplateView), s.ListProcessTemplates)
		org.POST("/process-templates", s.authorizePlatformAction(authorization.ObjectProcessTemplate, authorization.ActionProcessTemplateManage), s.CreateProcessTemplate)
		org.PUT("/process-templates/notes", s.authorizePlatformAction(authorization.ObjectProcessTemplate, authorization.ActionProcessTemplateManage), s.UpdateProcessTemplateNotes)
		org.PATCH("/process-templates/:id", s.authorizePlatformAction(authorization.ObjectProcessTemplate, authorization.ActionProcessTemplateManage), s.UpdateProcessTemplate)
		org.DELETE("/process-templates/:id", s.authorizePlatformAction(authorization.ObjectProcessTemplate, authorization.ActionProcessTemplateManage), s.DeleteProcessTemplate)

		org.GET("/representing-countries", s.authorizeOrgAction(authorization.ObjectRepresentingCountry, authorization.ActionRepresentingCountryView), s.ListRepresentingCountries)
		org.POST("/representing-countries", s.authorizeOrgAction(authorization.ObjectRepresentingCountry, authorization.ActionRepresentingCountryCreate), s.CreateRepresentingCountry)
		org.GET("/representing-countries/:id", s.authorizeOrgAction(authorization.ObjectRepresentingCountry, authorization.ActionRepresentingCountryView), s.GetRepresentingCountry)
		org.PATCH("/representing-countries/:id", s.authorizeOrgAction(authorization.ObjectRepresentingCountry, authorization.ActionRepresentingCountryUpdate), s.UpdateRepresentingCountry)
		org.DELETE("/representing-countries/:id", s.authorizeOrgAction(authorization.ObjectRepresentingCountry, authorization.ActionRepresentingCountryDelete), s.DeleteRepresentingCountry)

		workflow := org.Group("/representing-countries/:id")
		{
			workflow.GET("/workflow", s.authorizeOrgAction(authorization.ObjectWorkflow, authorization.ActionWorkflowView), s.ListWorkflow)
			workflow.POST("/workflow/seed", s.authorizeOrgAction(authorization.ObjectWorkflow, authorization.ActionWorkflowManage), s.SeedWorkflow)

			workflow.POST("/statuses", s.authorizeOrgAction(authorization.ObjectWorkflow, authorization.ActionWorkflowManage), s.AddStatus)
			workflow.PUT("/statuses/order", s.authorizeOrgAction(authorization.ObjectWorkflow, authorization.ActionWorkflowManage), s.ReorderStatuses)
			workflow.PATCH("/statuses/:status_id/name", s.authorizeOrgAction(authorization.ObjectWorkflow, authorization.ActionWorkflowManage), s.RenameStatus)
			workflow.PATCH("/statuses/:status_id/notes", s.authorizeOrgAction(authorization.ObjectWorkflow, authorization.ActionWorkflowManage), s.UpdateStatusNotes)
			workflow.POST("/statuses/:status_id/toggle", s.authorizeOrgAction(authorization.ObjectWorkflow, authorization.ActionWorkflowManage), s.ToggleStatusActive)
			workflow.DELETE("/statuses/:status_id", s.authorizeOrgAction(authorization.ObjectWorkflow, authorization.ActionWorkflowManage), s.DeleteStatus)

			workflow.POST("/statuses/:status_id/sub-statuses", s.authorizeOrgAction(authorization.ObjectWorkflow, authorization.ActionWorkflowManage), s.AddSubStatus)
			workflow.PATCH("/statuses/:status_id/sub-statuses/:sub_status_id", s.authorizeOrgAction(authorization.ObjectWorkflow, authorization.ActionWorkflowManage), s.EditSubStatus)
			workflow.POST("/statuses/:status_id/sub-statuses/:sub_status_id/toggle", s.authorizeOrgAction(authorization.ObjectWorkflow, authorization.ActionWorkflowManage), s.ToggleSubStatusActive)
			workflow.DELETE("/statuses/:status_id/sub-statuses/:sub_status_id", s.authorizeOrgAction(authorization.ObjectWorkflow, authorization.ActionWorkflowManage), s.DeleteSubStatus)
		}
	}
}
