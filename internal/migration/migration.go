package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	"github.com/smallbiznis/pathway/internal/config"
	organizationdomain "github.com/smallbiznis/pathway/internal/organization/domain"
	processtemplatedomain "github.com/smallbiznis/pathway/internal/processtemplate/domain"
	referencedomain "github.com/smallbiznis/pathway/internal/reference/domain"
	representingcountrydomain "github.com/smallbiznis/pathway/internal/representingcountry/domain"
	workflowdomain "github.com/smallbiznis/pathway/internal/workflow/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Models lists every table owned by the service, in dependency order.
var Models = []any{
	&referencedomain.Country{},
	&referencedomain.Currency{},
	&organizationdomain.Organization{},
	&organizationdomain.OrganizationMember{},
	&processtemplatedomain.ProcessTemplate{},
	&representingcountrydomain.RepresentingCountry{},
	&workflowdomain.Status{},
	&workflowdomain.SubStatus{},
	&auditdomain.AuditLog{},
}

// Migrate brings the schema up to date. Postgres runs the versioned SQL
// files; other dialects are for local development and use AutoMigrate.
func Migrate(conn *gorm.DB, cfg config.Config) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	if strings.EqualFold(strings.TrimSpace(cfg.DBType), "postgres") {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}
	return conn.AutoMigrate(Models...)
}

// RunMigrations applies the embedded SQL migrations to a postgres database.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB.

	return nil
}
