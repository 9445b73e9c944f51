package representingcountry

import (
	"github.com/smallbiznis/pathway/internal/representingcountry/repository"
	"github.com/smallbiznis/pathway/internal/representingcountry/service"
	"go.uber.org/fx"
)

var Module = fx.Module("representingcountry.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
