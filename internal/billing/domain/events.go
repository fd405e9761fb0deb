package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// EventType is the provider's event type string.
type EventType string

const (
	EventTypeCheckoutCompleted    EventType = "checkout.session.completed"
	EventTypeInvoicePaid          EventType = "invoice.paid"
	EventTypeInvoicePaymentFailed EventType = "invoice.payment_failed"
	EventTypeSubscriptionUpdated  EventType = "customer.subscription.updated"
	EventTypeSubscriptionDeleted  EventType = "customer.subscription.deleted"
)

// BillingEvent is a webhook payload normalized into the fields the
// reconciler acts on. AccountID is zero when the provider metadata did
// not carry one, in which case the customer reference is the fallback.
type BillingEvent struct {
	Provider        string
	ProviderEventID string
	Type            EventType
	OccurredAt      time.Time

	AccountID         snowflake.ID
	PlanID            string
	CustomerID        string
	SubscriptionID    string
	BillingReason     string
	Status            string
	CancelAtPeriodEnd bool
	PeriodEnd         *time.Time

	RawPayload []byte
}
