package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "gorm", err: fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), want: true},
		{name: "pg unique", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "pg other", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: sub_statuses.name"), want: true},
		{name: "mysql", err: errors.New("Error 1062: Duplicate entry"), want: true},
		{name: "other", err: errors.New("connection refused"), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDuplicateKeyErr(tc.err))
		})
	}
}

type uniqueRow struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex"`
}

func TestNewTestReportsDuplicates(t *testing.T) {
	conn, err := NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&uniqueRow{}))

	require.NoError(t, conn.Create(&uniqueRow{ID: 1, Name: "New"}).Error)
	err = conn.Create(&uniqueRow{ID: 2, Name: "New"}).Error
	require.Error(t, err)
	assert.True(t, IsDuplicateKeyErr(err))
}
