package workflow

import (
	"github.com/smallbiznis/pathway/internal/workflow/repository"
	"github.com/smallbiznis/pathway/internal/workflow/service"
	"go.uber.org/fx"
)

var Module = fx.Module("workflow.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
