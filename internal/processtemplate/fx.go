package processtemplate

import (
	"github.com/smallbiznis/pathway/internal/processtemplate/repository"
	"github.com/smallbiznis/pathway/internal/processtemplate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("processtemplate.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
