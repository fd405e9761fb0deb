package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *Account) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Account, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Account, error)
	FindByStripeCustomer(ctx context.Context, db *gorm.DB, customerID string) (*Account, error)
	// SetStripeCustomerIfEmpty writes customerID only when no reference is
	// stored yet and reports whether the write happened.
	SetStripeCustomerIfEmpty(ctx context.Context, db *gorm.DB, id snowflake.ID, customerID string) (bool, error)
	ApplyPlanChange(ctx context.Context, db *gorm.DB, id snowflake.ID, change PlanChange) (bool, error)
	// DebitForGeneration atomically spends one credit and bumps the usage
	// counters. It reports false when the balance was already empty.
	DebitForGeneration(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error)
	// BumpEditCounters updates the usage counters for an edit, which does
	// not consume credits.
	BumpEditCounters(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
}
