package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *GenerationRecord) error
	ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID, limit, offset int) ([]GenerationRecord, error)
	CountByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (int64, error)
}
