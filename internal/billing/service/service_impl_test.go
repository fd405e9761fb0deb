package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	accountdomain "github.com/adcraftlabs/adcraft/internal/account/domain"
	accountrepository "github.com/adcraftlabs/adcraft/internal/account/repository"
	accountservice "github.com/adcraftlabs/adcraft/internal/account/service"
	"github.com/adcraftlabs/adcraft/internal/billing/domain"
	"github.com/adcraftlabs/adcraft/internal/billing/repository"
	"github.com/adcraftlabs/adcraft/internal/billing/stripe"
	"github.com/adcraftlabs/adcraft/internal/config"
	"github.com/adcraftlabs/adcraft/internal/plan"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test"

type fakeProviderClient struct {
	sub            domain.ProviderSubscription
	subErr         error
	getSubCalls    int
	createdCust    string
	checkoutURL    string
	portalURL      string
	checkoutCalled int
}

func (f *fakeProviderClient) CreateCustomer(ctx context.Context, email, name string, accountID snowflake.ID) (string, error) {
	if f.createdCust == "" {
		f.createdCust = "cus_created"
	}
	return f.createdCust, nil
}

func (f *fakeProviderClient) CreateCheckoutSession(ctx context.Context, req domain.ProviderCheckoutRequest) (string, error) {
	f.checkoutCalled++
	if f.checkoutURL == "" {
		return "https://checkout.stripe.test/session", nil
	}
	return f.checkoutURL, nil
}

func (f *fakeProviderClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if f.portalURL == "" {
		return "https://portal.stripe.test/session", nil
	}
	return f.portalURL, nil
}

func (f *fakeProviderClient) GetSubscription(ctx context.Context, subscriptionID string) (domain.ProviderSubscription, error) {
	f.getSubCalls++
	if f.subErr != nil {
		return domain.ProviderSubscription{}, f.subErr
	}
	return f.sub, nil
}

type billingFixture struct {
	svc        domain.Service
	accountSvc accountdomain.Service
	client     *fakeProviderClient
	db         *gorm.DB
	cfg        config.Config
}

func setupBillingTest(t *testing.T) *billingFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(&accountdomain.Account{}, &domain.EventRecord{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{
		AppURL: "http://localhost:3000",
		Stripe: config.StripeConfig{
			SecretKey:       "sk_test",
			WebhookSecret:   testWebhookSecret,
			PriceIDStarter:  "price_starter",
			PriceIDPro:      "price_pro",
			PriceIDBusiness: "price_business",
		},
	}

	accountSvc := accountservice.NewService(accountservice.Params{
		Log:  zap.NewNop(),
		DB:   gdb,
		Node: node,
		Repo: accountrepository.Provide(),
	})

	client := &fakeProviderClient{}
	svc := NewService(Params{
		Log:        zap.NewNop(),
		DB:         gdb,
		Node:       node,
		Cfg:        cfg,
		Events:     repository.Provide(),
		Parser:     stripe.NewWebhook(testWebhookSecret),
		Client:     client,
		AccountSvc: accountSvc,
	})

	return &billingFixture{svc: svc, accountSvc: accountSvc, client: client, db: gdb, cfg: cfg}
}

func (f *billingFixture) newAccount(t *testing.T, email string) accountdomain.Account {
	t.Helper()
	account, err := f.accountSvc.Create(context.Background(), accountdomain.CreateAccountRequest{Email: email})
	require.NoError(t, err)
	return account
}

func signPayload(payload []byte) http.Header {
	ts := "1700000000"
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(ts + "." + string(payload)))
	headers := http.Header{}
	headers.Set("Stripe-Signature", fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
	return headers
}

func checkoutPayload(eventID string, accountID snowflake.ID, planID, customer, subscription string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": "checkout.session.completed",
		"created": 1700000000,
		"data": {"object": {
			"id": "cs_1",
			"customer": %q,
			"subscription": %q,
			"metadata": {"account_id": %q, "plan": %q}
		}}
	}`, eventID, customer, subscription, accountID.String(), planID))
}

func TestHandleWebhook_CheckoutAddsCredits(t *testing.T) {
	f := setupBillingTest(t)
	ctx := context.Background()
	account := f.newAccount(t, "buyer@example.com")

	payload := checkoutPayload("evt_1", account.ID, "starter", "cus_1", "sub_1")
	require.NoError(t, f.svc.HandleWebhook(ctx, payload, signPayload(payload)))

	after, err := f.accountSvc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Starter, after.Plan)
	assert.Equal(t, int64(plan.InitialCredits)+plan.Credits(plan.Starter), after.Credits)
	assert.Equal(t, accountdomain.SubscriptionStatusActive, after.SubscriptionStatus)
	require.NotNil(t, after.StripeCustomerID)
	assert.Equal(t, "cus_1", *after.StripeCustomerID)
	require.NotNil(t, after.StripeSubscriptionID)
	assert.Equal(t, "sub_1", *after.StripeSubscriptionID)
	assert.NotNil(t, after.CreditsResetAt)
}

func TestHandleWebhook_ReplayIsNoOp(t *testing.T) {
	f := setupBillingTest(t)
	ctx := context.Background()
	account := f.newAccount(t, "replay@example.com")

	payload := checkoutPayload("evt_replay", account.ID, "starter", "cus_1", "sub_1")
	require.NoError(t, f.svc.HandleWebhook(ctx, payload, signPayload(payload)))

	err := f.svc.HandleWebhook(ctx, payload, signPayload(payload))
	assert.ErrorIs(t, err, domain.ErrEventAlreadyProcessed)

	after, err := f.accountSvc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(plan.InitialCredits)+plan.Credits(plan.Starter), after.Credits,
		"a redelivered checkout event must not grant credits twice")
}

// flakyAccountService fails the first plan change to simulate a ledger
// outage mid-reconcile, then behaves normally.
type flakyAccountService struct {
	accountdomain.Service
	failures int
}

func (f *flakyAccountService) ApplyPlanChange(ctx context.Context, id snowflake.ID, change accountdomain.PlanChange) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("ledger_unavailable")
	}
	return f.Service.ApplyPlanChange(ctx, id, change)
}

func TestHandleWebhook_RedeliveryRetriesFailedEvent(t *testing.T) {
	f := setupBillingTest(t)
	ctx := context.Background()
	account := f.newAccount(t, "retry@example.com")

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	svc := NewService(Params{
		Log:        zap.NewNop(),
		DB:         f.db,
		Node:       node,
		Cfg:        f.cfg,
		Events:     repository.Provide(),
		Parser:     stripe.NewWebhook(testWebhookSecret),
		Client:     f.client,
		AccountSvc: &flakyAccountService{Service: f.accountSvc, failures: 1},
	})

	payload := checkoutPayload("evt_retry", account.ID, "starter", "cus_retry", "sub_retry")
	require.Error(t, svc.HandleWebhook(ctx, payload, signPayload(payload)))

	// Stripe redelivers because the first response was not a 2xx. The
	// stored event is still unprocessed, so the retry must reconcile it
	// instead of treating it as a duplicate.
	require.NoError(t, svc.HandleWebhook(ctx, payload, signPayload(payload)))

	after, err := f.accountSvc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(plan.InitialCredits)+plan.Credits(plan.Starter), after.Credits)

	var stored domain.EventRecord
	require.NoError(t, f.db.Where("provider_event_id = ?", "evt_retry").First(&stored).Error)
	assert.Equal(t, domain.EventStatusProcessed, stored.Status)

	// A third delivery is now a genuine replay.
	err = svc.HandleWebhook(ctx, payload, signPayload(payload))
	assert.ErrorIs(t, err, domain.ErrEventAlreadyProcessed)
}

func TestHandleWebhook_CheckoutResetsMonthlyUsage(t *testing.T) {
	f := setupBillingTest(t)
	ctx := context.Background()
	account := f.newAccount(t, "usage@example.com")

	require.NoError(t, f.db.Exec(
		"UPDATE accounts SET monthly_generations = 7, total_generations = 12 WHERE id = ?", account.ID,
	).Error)

	payload := checkoutPayload("evt_usage", account.ID, "starter", "cus_usage", "sub_usage")
	require.NoError(t, f.svc.HandleWebhook(ctx, payload, signPayload(payload)))

	after, err := f.accountSvc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), after.MonthlyGenerations)
	assert.Equal(t, int64(12), after.TotalGenerations, "lifetime counter untouched")
}

func TestHandleWebhook_RenewalSetsCredits(t *testing.T) {
	f := setupBillingTest(t)
	ctx := context.Background()
	account := f.newAccount(t, "renew@example.com")

	_, err := f.accountSvc.ClaimStripeCustomer(ctx, account.ID, "cus_renew")
	require.NoError(t, err)
	subID := "sub_renew"
	require.NoError(t, f.accountSvc.ApplyPlanChange(ctx, account.ID, accountdomain.PlanChange{
		Plan:           plan.Pro,
		CreditMode:     accountdomain.CreditSet,
		Credits:        37,
		Status:         accountdomain.SubscriptionStatusActive,
		SubscriptionID: &subID,
	}))

	require.NoError(t, f.db.Exec("UPDATE accounts SET monthly_generations = 7 WHERE id = ?", account.ID).Error)

	periodStart := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	f.client.sub = domain.ProviderSubscription{
		ID:                 "sub_renew",
		Status:             "active",
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
		PriceID:            "price_pro",
		AccountID:          account.ID,
		PlanID:             "pro",
	}

	payload := []byte(`{
		"id": "evt_renewal",
		"type": "invoice.paid",
		"data": {"object": {
			"id": "in_1",
			"customer": "cus_renew",
			"subscription": "sub_renew",
			"billing_reason": "subscription_cycle"
		}}
	}`)
	require.NoError(t, f.svc.HandleWebhook(ctx, payload, signPayload(payload)))

	after, err := f.accountSvc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Credits(plan.Pro), after.Credits, "renewal replaces the balance, it does not stack")
	assert.Equal(t, int64(0), after.MonthlyGenerations, "a new billing period starts with a fresh usage counter")
	require.NotNil(t, after.CurrentPeriodStart)
	assert.Equal(t, periodStart.Unix(), after.CurrentPeriodStart.Unix())
	require.NotNil(t, after.CurrentPeriodEnd)
	assert.Equal(t, periodEnd.Unix(), after.CurrentPeriodEnd.Unix())
	assert.Equal(t, 1, f.client.getSubCalls)
}

func TestHandleWebhook_RenewalIgnoresInitialInvoice(t *testing.T) {
	f := setupBillingTest(t)
	ctx := context.Background()
	account := f.newAccount(t, "initial@example.com")

	payload := []byte(`{
		"id": "evt_initial",
		"type": "invoice.paid",
		"data": {"object": {
			"id": "in_1",
			"customer": "cus_x",
			"subscription": "sub_x",
			"billing_reason": "subscription_create"
		}}
	}`)
	require.NoError(t, f.svc.HandleWebhook(ctx, payload, signPayload(payload)))

	assert.Equal(t, 0, f.client.getSubCalls)

	after, err := f.accountSvc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(plan.InitialCredits), after.Credits)
}

func TestHandleWebhook_DeletedKeepsCredits(t *testing.T) {
	f := setupBillingTest(t)
	ctx := context.Background()
	account := f.newAccount(t, "churn@example.com")

	subID := "sub_gone"
	require.NoError(t, f.accountSvc.ApplyPlanChange(ctx, account.ID, accountdomain.PlanChange{
		Plan:           plan.Pro,
		CreditMode:     accountdomain.CreditSet,
		Credits:        42,
		Status:         accountdomain.SubscriptionStatusActive,
		SubscriptionID: &subID,
	}))

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_deleted",
		"type": "customer.subscription.deleted",
		"data": {"object": {
			"id": "sub_gone",
			"customer": "cus_gone",
			"status": "canceled",
			"metadata": {"account_id": %q}
		}}
	}`, account.ID.String()))
	require.NoError(t, f.svc.HandleWebhook(ctx, payload, signPayload(payload)))

	after, err := f.accountSvc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Free, after.Plan)
	assert.Equal(t, int64(42), after.Credits, "cancellation must not claw back remaining credits")
	assert.Equal(t, accountdomain.SubscriptionStatusCancelled, after.SubscriptionStatus)
	assert.Nil(t, after.StripeSubscriptionID)
	assert.False(t, after.CancelAtPeriodEnd)
}

func TestHandleWebhook_UpdatedMirrorsTrialing(t *testing.T) {
	f := setupBillingTest(t)
	ctx := context.Background()
	account := f.newAccount(t, "trial@example.com")

	_, err := f.accountSvc.ClaimStripeCustomer(ctx, account.ID, "cus_trial")
	require.NoError(t, err)

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_trial",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": "sub_trial",
			"customer": "cus_trial",
			"status": "trialing",
			"cancel_at_period_end": false,
			"metadata": {"account_id": %q}
		}}
	}`, account.ID.String()))
	require.NoError(t, f.svc.HandleWebhook(ctx, payload, signPayload(payload)))

	after, err := f.accountSvc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, accountdomain.SubscriptionStatusTrialing, after.SubscriptionStatus)
	assert.Equal(t, int64(plan.InitialCredits), after.Credits, "status sync never touches the balance")
}

func TestHandleWebhook_PaymentFailedMarksPastDue(t *testing.T) {
	f := setupBillingTest(t)
	ctx := context.Background()
	account := f.newAccount(t, "pastdue@example.com")

	_, err := f.accountSvc.ClaimStripeCustomer(ctx, account.ID, "cus_pd")
	require.NoError(t, err)

	payload := []byte(`{
		"id": "evt_failed",
		"type": "invoice.payment_failed",
		"data": {"object": {
			"id": "in_f",
			"customer": "cus_pd",
			"subscription": "sub_pd"
		}}
	}`)
	require.NoError(t, f.svc.HandleWebhook(ctx, payload, signPayload(payload)))

	after, err := f.accountSvc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, accountdomain.SubscriptionStatusPastDue, after.SubscriptionStatus)
	assert.Equal(t, int64(plan.InitialCredits), after.Credits)
}

func TestHandleWebhook_BadSignature(t *testing.T) {
	f := setupBillingTest(t)

	payload := []byte(`{"id":"evt_bad","type":"invoice.paid","data":{"object":{}}}`)
	headers := http.Header{}
	headers.Set("Stripe-Signature", "t=1700000000,v1=deadbeef")

	err := f.svc.HandleWebhook(context.Background(), payload, headers)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	var count int64
	f.db.Model(&domain.EventRecord{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestHandleWebhook_UnhandledTypeAcked(t *testing.T) {
	f := setupBillingTest(t)

	payload := []byte(`{"id":"evt_other","type":"charge.succeeded","data":{"object":{}}}`)
	require.NoError(t, f.svc.HandleWebhook(context.Background(), payload, signPayload(payload)))

	var count int64
	f.db.Model(&domain.EventRecord{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreateCheckoutSession(t *testing.T) {
	f := setupBillingTest(t)
	ctx := context.Background()
	account := f.newAccount(t, "checkout@example.com")

	url, err := f.svc.CreateCheckoutSession(ctx, domain.CheckoutRequest{AccountID: account.ID, Plan: plan.Pro})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/session", url)

	after, err := f.accountSvc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, after.StripeCustomerID)
	assert.Equal(t, "cus_created", *after.StripeCustomerID)
}

func TestCreateCheckoutSession_UnknownPlan(t *testing.T) {
	f := setupBillingTest(t)
	account := f.newAccount(t, "badplan@example.com")

	_, err := f.svc.CreateCheckoutSession(context.Background(), domain.CheckoutRequest{
		AccountID: account.ID,
		Plan:      plan.Plan("enterprise"),
	})
	assert.ErrorIs(t, err, domain.ErrUnknownPlan)

	_, err = f.svc.CreateCheckoutSession(context.Background(), domain.CheckoutRequest{
		AccountID: account.ID,
		Plan:      plan.Free,
	})
	assert.ErrorIs(t, err, domain.ErrUnknownPlan)
}

func TestCreatePortalSession_RequiresBillingProfile(t *testing.T) {
	f := setupBillingTest(t)
	ctx := context.Background()
	account := f.newAccount(t, "portal@example.com")

	_, err := f.svc.CreatePortalSession(ctx, account.ID)
	assert.ErrorIs(t, err, domain.ErrNoBillingProfile)

	_, err = f.accountSvc.ClaimStripeCustomer(ctx, account.ID, "cus_portal")
	require.NoError(t, err)

	url, err := f.svc.CreatePortalSession(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.stripe.test/session", url)
}
