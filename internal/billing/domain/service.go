package domain

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/adcraftlabs/adcraft/internal/plan"
	"github.com/bwmarrin/snowflake"
)

type CheckoutRequest struct {
	AccountID snowflake.ID
	Plan      plan.Plan
}

type Service interface {
	// HandleWebhook verifies, stores and reconciles a provider webhook
	// delivery. Redeliveries of an already stored event return
	// ErrEventAlreadyProcessed.
	HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, accountID snowflake.ID) (string, error)
}

// WebhookParser validates and normalizes raw provider deliveries.
type WebhookParser interface {
	Verify(payload []byte, headers http.Header) error
	Parse(payload []byte) (*BillingEvent, error)
}

// ProviderSubscription is the slice of a provider subscription the
// reconciler needs when it re-fetches state on renewal.
type ProviderSubscription struct {
	ID                 string
	Status             string
	CancelAtPeriodEnd  bool
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	PriceID            string
	AccountID          snowflake.ID
	PlanID             string
}

type ProviderCheckoutRequest struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	AccountID  snowflake.ID
	Plan       plan.Plan
}

// ProviderClient is the outbound payment-provider API surface.
type ProviderClient interface {
	CreateCustomer(ctx context.Context, email, name string, accountID snowflake.ID) (string, error)
	CreateCheckoutSession(ctx context.Context, req ProviderCheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	GetSubscription(ctx context.Context, subscriptionID string) (ProviderSubscription, error)
}

var (
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrInvalidEvent          = errors.New("invalid_event")
	ErrEventIgnored          = errors.New("event_ignored")
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
	ErrUnknownPlan           = errors.New("unknown_plan")
	ErrNoBillingProfile      = errors.New("no_billing_profile")
	ErrNotConfigured         = errors.New("billing_not_configured")
)
