package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/smallbiznis/pathway/internal/config"
	"github.com/smallbiznis/pathway/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}

func TestWorkflowIndexesArePartial(t *testing.T) {
	raw, err := fs.ReadFile(embeddedMigrations, migrationsDir+"/000005_workflow_statuses.up.sql")
	require.NoError(t, err)

	sql := string(raw)
	assert.Contains(t, sql, "ON rep_country_statuses (representing_country_id, status_name) WHERE deleted_at IS NULL")
	assert.Contains(t, sql, "ON sub_statuses (rep_country_status_id, name) WHERE deleted_at IS NULL")
}

func TestMigrateAutoMigratesNonPostgres(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	require.NoError(t, Migrate(conn, config.Config{DBType: "sqlite"}))

	for _, table := range []string{"representing_countries", "rep_country_statuses", "sub_statuses", "process_templates", "audit_logs"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}
