package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"

	"github.com/adcraftlabs/adcraft/internal/billing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedHeaders(secret string, payload []byte) http.Header {
	ts := "1700000000"
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + string(payload)))
	headers := http.Header{}
	headers.Set("Stripe-Signature", fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
	return headers
}

func TestVerify(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"invoice.paid"}`)
	w := NewWebhook(secret)

	assert.NoError(t, w.Verify(payload, signedHeaders(secret, payload)))

	assert.ErrorIs(t, w.Verify(payload, signedHeaders("whsec_other", payload)),
		domain.ErrInvalidSignature)

	assert.ErrorIs(t, w.Verify(payload, http.Header{}), domain.ErrInvalidSignature)

	headers := http.Header{}
	headers.Set("Stripe-Signature", "garbage")
	assert.ErrorIs(t, w.Verify(payload, headers), domain.ErrInvalidSignature)

	tampered := []byte(`{"id":"evt_1","type":"invoice.paid","amount":999}`)
	assert.ErrorIs(t, w.Verify(tampered, signedHeaders(secret, payload)),
		domain.ErrInvalidSignature)
}

func TestParse_CheckoutSession(t *testing.T) {
	payload := []byte(`{
		"id": "evt_checkout",
		"type": "checkout.session.completed",
		"created": 1700000000,
		"data": {"object": {
			"id": "cs_1",
			"customer": "cus_42",
			"subscription": "sub_42",
			"metadata": {"account_id": "123", "plan": "starter"}
		}}
	}`)

	event, err := NewWebhook("whsec").Parse(payload)
	require.NoError(t, err)

	assert.Equal(t, domain.EventTypeCheckoutCompleted, event.Type)
	assert.Equal(t, "evt_checkout", event.ProviderEventID)
	assert.Equal(t, int64(123), int64(event.AccountID))
	assert.Equal(t, "starter", event.PlanID)
	assert.Equal(t, "cus_42", event.CustomerID)
	assert.Equal(t, "sub_42", event.SubscriptionID)
}

func TestParse_Invoice(t *testing.T) {
	payload := []byte(`{
		"id": "evt_invoice",
		"type": "invoice.paid",
		"data": {"object": {
			"id": "in_1",
			"customer": "cus_42",
			"subscription": "sub_42",
			"billing_reason": "subscription_cycle"
		}}
	}`)

	event, err := NewWebhook("whsec").Parse(payload)
	require.NoError(t, err)

	assert.Equal(t, domain.EventTypeInvoicePaid, event.Type)
	assert.Equal(t, "subscription_cycle", event.BillingReason)
	assert.Equal(t, "sub_42", event.SubscriptionID)
}

func TestParse_Subscription(t *testing.T) {
	payload := []byte(`{
		"id": "evt_sub",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_42",
			"customer": "cus_42",
			"status": "past_due",
			"cancel_at_period_end": true,
			"current_period_end": 1702592000,
			"metadata": {"account_id": "123"}
		}}
	}`)

	event, err := NewWebhook("whsec").Parse(payload)
	require.NoError(t, err)

	assert.Equal(t, domain.EventTypeSubscriptionUpdated, event.Type)
	assert.Equal(t, "past_due", event.Status)
	assert.True(t, event.CancelAtPeriodEnd)
	require.NotNil(t, event.PeriodEnd)
	assert.Equal(t, int64(1702592000), event.PeriodEnd.Unix())
}

func TestParse_UnhandledType(t *testing.T) {
	payload := []byte(`{"id":"evt_x","type":"charge.succeeded","data":{"object":{}}}`)

	_, err := NewWebhook("whsec").Parse(payload)
	assert.ErrorIs(t, err, domain.ErrEventIgnored)
}

func TestParse_Invalid(t *testing.T) {
	_, err := NewWebhook("whsec").Parse([]byte("not json"))
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)

	_, err = NewWebhook("whsec").Parse([]byte(`{"type":"invoice.paid"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
}
