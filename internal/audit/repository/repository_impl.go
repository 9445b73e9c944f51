package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/pathway/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

// List pages newest first. One extra row is fetched so the caller can tell
// whether another page exists.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.AuditLog, error) {
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.AuditLog{}), filter)
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}
	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	var logs []domain.AuditLog
	if err := stmt.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func applyFilter(stmt *gorm.DB, filter domain.ListFilter) *gorm.DB {
	stmt = stmt.Where("org_id = ?", filter.OrgID)

	equals := []struct {
		column string
		value  string
	}{
		{"actor_id", filter.ActorID},
		{"action", filter.Action},
		{"target_type", filter.TargetType},
		{"target_id", filter.TargetID},
	}
	for _, eq := range equals {
		if value := strings.TrimSpace(eq.value); value != "" {
			stmt = stmt.Where(eq.column+" = ?", value)
		}
	}

	if filter.StartAt != nil {
		stmt = stmt.Where("created_at >= ?", filter.StartAt.UTC())
	}
	if filter.EndAt != nil {
		stmt = stmt.Where("created_at <= ?", filter.EndAt.UTC())
	}
	return stmt
}
