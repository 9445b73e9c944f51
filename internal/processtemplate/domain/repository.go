package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]ProcessTemplate, error)
	FindByID(ctx context.Context, id snowflake.ID) (*ProcessTemplate, error)
	FindByName(ctx context.Context, name string) (*ProcessTemplate, error)
	MaxOrder(ctx context.Context) (int, error)
	Insert(ctx context.Context, template *ProcessTemplate) error
	Update(ctx context.Context, template *ProcessTemplate) error
	UpdateDescription(ctx context.Context, id snowflake.ID, description *string, updatedAt time.Time) (int64, error)
	SoftDelete(ctx context.Context, id snowflake.ID) (int64, error)
}
