package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/internal/audit"
	"github.com/smallbiznis/pathway/internal/authorization"
	"github.com/smallbiznis/pathway/internal/cache"
	"github.com/smallbiznis/pathway/internal/clock"
	"github.com/smallbiznis/pathway/internal/config"
	"github.com/smallbiznis/pathway/internal/migration"
	"github.com/smallbiznis/pathway/internal/observability"
	"github.com/smallbiznis/pathway/internal/organization"
	"github.com/smallbiznis/pathway/internal/processtemplate"
	"github.com/smallbiznis/pathway/internal/ratelimit"
	"github.com/smallbiznis/pathway/internal/reference"
	"github.com/smallbiznis/pathway/internal/representingcountry"
	"github.com/smallbiznis/pathway/internal/seed"
	"github.com/smallbiznis/pathway/internal/workflow"
	"github.com/smallbiznis/pathway/pkg/db"
	"go.uber.org/fx"
)

// coreModules opens the database and brings its schema up to date.
func coreModules() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		migration.Module,
	)
}

func domainModules() fx.Option {
	return fx.Options(
		cache.Module,
		audit.Module,
		authorization.Module,
		reference.Module,
		organization.Module,
		processtemplate.Module,
		workflow.Module,
		representingcountry.Module,
		ratelimit.Module,
		seed.Module,
	)
}

func newSnowflakeNode(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
