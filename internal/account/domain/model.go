// Package domain contains persistence models for user accounts and credit balances.
package domain

import (
	"time"

	"github.com/adcraftlabs/adcraft/internal/plan"
	"github.com/bwmarrin/snowflake"
)

// SubscriptionStatus represents the billing lifecycle state mirrored
// from the payment provider.
type SubscriptionStatus string

const (
	SubscriptionStatusNone      SubscriptionStatus = "none"
	SubscriptionStatusTrialing  SubscriptionStatus = "trialing"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Account is the credit ledger row for a single user.
type Account struct {
	ID                   snowflake.ID       `gorm:"primaryKey" json:"id"`
	Email                string             `gorm:"type:text;not null;uniqueIndex:ux_accounts_email" json:"email"`
	Name                 string             `gorm:"type:text;not null;default:''" json:"name"`
	Plan                 plan.Plan          `gorm:"type:text;not null;default:'free'" json:"plan"`
	Credits              int64              `gorm:"not null;default:3" json:"credits"`
	StripeCustomerID     *string            `gorm:"type:text" json:"-"`
	StripeSubscriptionID *string            `gorm:"type:text" json:"-"`
	SubscriptionStatus   SubscriptionStatus `gorm:"type:text;not null;default:'none'" json:"subscription_status"`
	CurrentPeriodStart   *time.Time         `gorm:"" json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time         `gorm:"" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
	TotalGenerations     int64              `gorm:"not null;default:0" json:"total_generations"`
	MonthlyGenerations   int64              `gorm:"not null;default:0" json:"monthly_generations"`
	LastGenerationAt     *time.Time         `gorm:"" json:"last_generation_at,omitempty"`
	CreditsResetAt       *time.Time         `gorm:"" json:"credits_reset_at,omitempty"`
	CreatedAt            time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }
