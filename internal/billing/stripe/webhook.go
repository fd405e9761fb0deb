// Package stripe implements the payment-provider adapter over Stripe's
// HTTP API and webhook format.
package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adcraftlabs/adcraft/internal/billing/domain"
	"github.com/bwmarrin/snowflake"
)

const Provider = "stripe"

type Webhook struct {
	secret string
}

func NewWebhook(secret string) *Webhook {
	return &Webhook{secret: strings.TrimSpace(secret)}
}

func (w *Webhook) Verify(payload []byte, headers http.Header) error {
	if w.secret == "" {
		return domain.ErrNotConfigured
	}

	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return domain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return domain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(w.secret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return domain.ErrInvalidSignature
}

func (w *Webhook) Parse(payload []byte) (*domain.BillingEvent, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}

	switch domain.EventType(strings.TrimSpace(event.Type)) {
	case domain.EventTypeCheckoutCompleted:
		return parseCheckoutSession(event, payload)
	case domain.EventTypeInvoicePaid, domain.EventTypeInvoicePaymentFailed:
		return parseInvoice(event, payload)
	case domain.EventTypeSubscriptionUpdated, domain.EventTypeSubscriptionDeleted:
		return parseSubscription(event, payload)
	default:
		return nil, domain.ErrEventIgnored
	}
}

type stripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    stripeEventData `json:"data"`
}

type stripeEventData struct {
	Object json.RawMessage `json:"object"`
}

type stripeCheckoutSession struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type stripeInvoice struct {
	ID            string `json:"id"`
	Customer      string `json:"customer"`
	Subscription  string `json:"subscription"`
	BillingReason string `json:"billing_reason"`
}

type stripeSubscription struct {
	ID                string            `json:"id"`
	Customer          string            `json:"customer"`
	Status            string            `json:"status"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64             `json:"current_period_end"`
	Metadata          map[string]string `json:"metadata"`
}

func parseCheckoutSession(event stripeEvent, payload []byte) (*domain.BillingEvent, error) {
	var session stripeCheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	return &domain.BillingEvent{
		Provider:        Provider,
		ProviderEventID: event.ID,
		Type:            domain.EventTypeCheckoutCompleted,
		OccurredAt:      timestamp(event.Created),
		AccountID:       metadataAccountID(session.Metadata),
		PlanID:          strings.TrimSpace(session.Metadata["plan"]),
		CustomerID:      strings.TrimSpace(session.Customer),
		SubscriptionID:  strings.TrimSpace(session.Subscription),
		RawPayload:      payload,
	}, nil
}

func parseInvoice(event stripeEvent, payload []byte) (*domain.BillingEvent, error) {
	var invoice stripeInvoice
	if err := json.Unmarshal(event.Data.Object, &invoice); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	return &domain.BillingEvent{
		Provider:        Provider,
		ProviderEventID: event.ID,
		Type:            domain.EventType(strings.TrimSpace(event.Type)),
		OccurredAt:      timestamp(event.Created),
		CustomerID:      strings.TrimSpace(invoice.Customer),
		SubscriptionID:  strings.TrimSpace(invoice.Subscription),
		BillingReason:   strings.TrimSpace(invoice.BillingReason),
		RawPayload:      payload,
	}, nil
}

func parseSubscription(event stripeEvent, payload []byte) (*domain.BillingEvent, error) {
	var sub stripeSubscription
	if err := json.Unmarshal(event.Data.Object, &sub); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	out := &domain.BillingEvent{
		Provider:          Provider,
		ProviderEventID:   event.ID,
		Type:              domain.EventType(strings.TrimSpace(event.Type)),
		OccurredAt:        timestamp(event.Created),
		AccountID:         metadataAccountID(sub.Metadata),
		PlanID:            strings.TrimSpace(sub.Metadata["plan"]),
		CustomerID:        strings.TrimSpace(sub.Customer),
		SubscriptionID:    strings.TrimSpace(sub.ID),
		Status:            strings.TrimSpace(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		RawPayload:        payload,
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		out.PeriodEnd = &end
	}
	return out, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func timestamp(created int64) time.Time {
	if created == 0 {
		return time.Now().UTC()
	}
	return time.Unix(created, 0).UTC()
}

func metadataAccountID(metadata map[string]string) snowflake.ID {
	raw := strings.TrimSpace(metadata["account_id"])
	if raw == "" {
		return 0
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0
	}
	return id
}
