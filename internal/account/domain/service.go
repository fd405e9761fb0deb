package domain

import (
	"context"
	"errors"
	"time"

	"github.com/adcraftlabs/adcraft/internal/plan"
	"github.com/bwmarrin/snowflake"
)

type CreateAccountRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreditMode selects how a plan change touches the credit balance.
type CreditMode string

const (
	// CreditAdd stacks the credits on top of the current balance.
	CreditAdd CreditMode = "add"
	// CreditSet replaces the balance outright.
	CreditSet CreditMode = "set"
	// CreditKeep leaves the balance alone.
	CreditKeep CreditMode = "keep"
)

// PlanChange describes a ledger mutation driven by a billing event.
// Zero-value fields are left untouched: an empty Plan keeps the current
// plan, a nil pointer keeps the current column value. SubscriptionID
// pointing at an empty string clears the reference.
type PlanChange struct {
	Plan              plan.Plan
	CreditMode        CreditMode
	Credits           int64
	Status            SubscriptionStatus
	SubscriptionID    *string
	PeriodStart       *time.Time
	PeriodEnd         *time.Time
	CancelAtPeriodEnd *bool
	ResetAt           *time.Time
	// ResetMonthlyUsage zeroes the monthly generation counter, which
	// happens whenever a billing period begins.
	ResetMonthlyUsage bool
}

type Service interface {
	Create(ctx context.Context, req CreateAccountRequest) (Account, error)
	GetByID(ctx context.Context, id snowflake.ID) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByStripeCustomer(ctx context.Context, customerID string) (Account, error)
	// ClaimStripeCustomer records the payment-provider customer reference
	// for the account unless one is already set. It returns the reference
	// that won, which may differ from customerID when another writer got
	// there first.
	ClaimStripeCustomer(ctx context.Context, id snowflake.ID, customerID string) (string, error)
	ApplyPlanChange(ctx context.Context, id snowflake.ID, change PlanChange) error
}

var (
	ErrAccountNotFound     = errors.New("account_not_found")
	ErrEmailTaken          = errors.New("email_taken")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInsufficientCredits = errors.New("insufficient_credits")
)
