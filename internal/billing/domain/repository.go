package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type EventRepository interface {
	Insert(ctx context.Context, db *gorm.DB, record *EventRecord) error
	// FindByProviderEvent loads the stored delivery for a provider event
	// id, or nil when none exists.
	FindByProviderEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*EventRecord, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status EventStatus, processedAt *time.Time) error
}
