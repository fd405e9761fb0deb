package repository

import (
	"context"

	"github.com/adcraftlabs/adcraft/internal/generation/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.GenerationRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO generations (id, account_id, kind, format, tone, prompt, image_url, thumbnail_url,
		                          status, credits_used, content, branding, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.AccountID,
		record.Kind,
		record.Format,
		record.Tone,
		record.Prompt,
		record.ImageURL,
		record.ThumbnailURL,
		record.Status,
		record.CreditsUsed,
		record.Content,
		record.Branding,
		record.ExpiresAt,
		record.CreatedAt,
	).Error
}

func (r *repo) ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID, limit, offset int) ([]domain.GenerationRecord, error) {
	var records []domain.GenerationRecord
	err := db.WithContext(ctx).
		Model(&domain.GenerationRecord{}).
		Where("account_id = ?", accountID).
		Order("created_at desc, id desc").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) CountByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.GenerationRecord{}).
		Where("account_id = ?", accountID).
		Count(&count).Error
	return count, err
}
