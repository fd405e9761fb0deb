package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	accountdomain "github.com/adcraftlabs/adcraft/internal/account/domain"
	"github.com/adcraftlabs/adcraft/internal/billing/domain"
	"github.com/adcraftlabs/adcraft/internal/config"
	"github.com/adcraftlabs/adcraft/internal/metrics"
	"github.com/adcraftlabs/adcraft/internal/plan"
	"github.com/adcraftlabs/adcraft/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	DB         *gorm.DB
	Node       *snowflake.Node
	Cfg        config.Config
	Events     domain.EventRepository
	Parser     domain.WebhookParser
	Client     domain.ProviderClient
	AccountSvc accountdomain.Service
	Metrics    *metrics.Metrics `optional:"true"`
}

type service struct {
	log        *zap.Logger
	db         *gorm.DB
	node       *snowflake.Node
	cfg        config.Config
	events     domain.EventRepository
	parser     domain.WebhookParser
	client     domain.ProviderClient
	accountSvc accountdomain.Service
	metrics    *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &service{
		log:        p.Log.Named("billing.service"),
		db:         p.DB,
		node:       p.Node,
		cfg:        p.Cfg,
		events:     p.Events,
		parser:     p.Parser,
		client:     p.Client,
		accountSvc: p.AccountSvc,
		metrics:    p.Metrics,
	}
}

func (s *service) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if err := s.parser.Verify(payload, headers); err != nil {
		s.metrics.RecordWebhookEvent("unknown", "rejected")
		return err
	}

	event, err := s.parser.Parse(payload)
	if err != nil {
		if errors.Is(err, domain.ErrEventIgnored) {
			s.metrics.RecordWebhookEvent("unknown", "ignored")
			return nil
		}
		return err
	}

	record := &domain.EventRecord{
		ID:              s.node.Generate(),
		Provider:        event.Provider,
		ProviderEventID: event.ProviderEventID,
		EventType:       string(event.Type),
		Payload:         datatypes.JSON(event.RawPayload),
		Status:          domain.EventStatusReceived,
		ReceivedAt:      time.Now().UTC(),
	}
	if err := s.events.Insert(ctx, s.db, record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return s.handleRedelivery(ctx, event)
		}
		return err
	}

	return s.reconcileStored(ctx, event, record.ID)
}

// handleRedelivery runs when a delivery collides with a stored event.
// Replays of a processed event are no-ops, but a stored event whose
// reconciliation failed gets another attempt: the provider retries
// exactly because the previous response was not a 2xx.
func (s *service) handleRedelivery(ctx context.Context, event *domain.BillingEvent) error {
	stored, err := s.events.FindByProviderEvent(ctx, s.db, event.Provider, event.ProviderEventID)
	if err != nil {
		return err
	}
	if stored == nil || stored.Status == domain.EventStatusProcessed {
		s.metrics.RecordWebhookEvent(string(event.Type), "duplicate")
		return domain.ErrEventAlreadyProcessed
	}

	s.log.Info("retrying stored webhook event",
		zap.String("event_id", event.ProviderEventID),
		zap.String("status", string(stored.Status)),
	)
	return s.reconcileStored(ctx, event, stored.ID)
}

func (s *service) reconcileStored(ctx context.Context, event *domain.BillingEvent, recordID snowflake.ID) error {
	if err := s.reconcile(ctx, event); err != nil {
		_ = s.events.UpdateStatus(ctx, s.db, recordID, domain.EventStatusFailed, nil)
		s.metrics.RecordWebhookEvent(string(event.Type), "failed")
		return err
	}

	processedAt := time.Now().UTC()
	s.metrics.RecordWebhookEvent(string(event.Type), "processed")
	return s.events.UpdateStatus(ctx, s.db, recordID, domain.EventStatusProcessed, &processedAt)
}

func (s *service) reconcile(ctx context.Context, event *domain.BillingEvent) error {
	switch event.Type {
	case domain.EventTypeCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case domain.EventTypeInvoicePaid:
		return s.handleInvoicePaid(ctx, event)
	case domain.EventTypeInvoicePaymentFailed:
		return s.handleInvoicePaymentFailed(ctx, event)
	case domain.EventTypeSubscriptionUpdated:
		return s.handleSubscriptionUpdated(ctx, event)
	case domain.EventTypeSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event)
	default:
		return nil
	}
}

// handleCheckoutCompleted grants the purchased plan. The new allowance
// stacks on top of whatever balance is left so an upgrade never burns
// credits the user already paid for.
func (s *service) handleCheckoutCompleted(ctx context.Context, event *domain.BillingEvent) error {
	accountID, ok := s.resolveAccount(ctx, event.AccountID, event.CustomerID)
	if !ok {
		s.log.Warn("checkout completed for unknown account",
			zap.String("event_id", event.ProviderEventID),
			zap.String("customer_id", event.CustomerID),
		)
		return nil
	}

	purchased := plan.Plan(event.PlanID)
	if !plan.Valid(purchased) || purchased == plan.Free {
		s.log.Warn("checkout completed with unknown plan",
			zap.String("event_id", event.ProviderEventID),
			zap.String("plan", event.PlanID),
		)
		return nil
	}

	if event.CustomerID != "" {
		if _, err := s.accountSvc.ClaimStripeCustomer(ctx, accountID, event.CustomerID); err != nil {
			return err
		}
	}

	resetAt := event.OccurredAt.AddDate(0, 1, 0)
	subID := event.SubscriptionID
	change := accountdomain.PlanChange{
		Plan:              purchased,
		CreditMode:        accountdomain.CreditAdd,
		Credits:           plan.Credits(purchased),
		Status:            accountdomain.SubscriptionStatusActive,
		ResetAt:           &resetAt,
		ResetMonthlyUsage: true,
	}
	if subID != "" {
		change.SubscriptionID = &subID
	}

	if err := s.accountSvc.ApplyPlanChange(ctx, accountID, change); err != nil {
		return err
	}

	s.log.Info("plan activated",
		zap.String("account_id", accountID.String()),
		zap.String("plan", string(purchased)),
		zap.Int64("credits_added", plan.Credits(purchased)),
	)
	return nil
}

// handleInvoicePaid resets the monthly allowance on renewal. Only
// subscription_cycle invoices count: the first invoice of a new
// subscription is already covered by checkout.session.completed.
func (s *service) handleInvoicePaid(ctx context.Context, event *domain.BillingEvent) error {
	if event.BillingReason != "subscription_cycle" {
		return nil
	}
	if event.SubscriptionID == "" {
		return nil
	}

	sub, err := s.client.GetSubscription(ctx, event.SubscriptionID)
	if err != nil {
		return err
	}

	accountID, ok := s.resolveAccount(ctx, sub.AccountID, event.CustomerID)
	if !ok {
		s.log.Warn("renewal for unknown account",
			zap.String("event_id", event.ProviderEventID),
			zap.String("subscription_id", event.SubscriptionID),
		)
		return nil
	}

	renewed := plan.Plan(sub.PlanID)
	if !plan.Valid(renewed) || renewed == plan.Free {
		var found bool
		renewed, found = plan.FromPriceID(sub.PriceID, s.cfg.Stripe)
		if !found {
			s.log.Warn("renewal with unknown plan",
				zap.String("event_id", event.ProviderEventID),
				zap.String("price_id", sub.PriceID),
			)
			return nil
		}
	}

	change := accountdomain.PlanChange{
		Plan:              renewed,
		CreditMode:        accountdomain.CreditSet,
		Credits:           plan.Credits(renewed),
		Status:            accountdomain.SubscriptionStatusActive,
		CancelAtPeriodEnd: &sub.CancelAtPeriodEnd,
		ResetMonthlyUsage: true,
	}
	if !sub.CurrentPeriodStart.IsZero() {
		start := sub.CurrentPeriodStart
		change.PeriodStart = &start
	}
	if !sub.CurrentPeriodEnd.IsZero() {
		end := sub.CurrentPeriodEnd
		change.PeriodEnd = &end
		change.ResetAt = &end
	}

	if err := s.accountSvc.ApplyPlanChange(ctx, accountID, change); err != nil {
		return err
	}

	s.log.Info("plan renewed",
		zap.String("account_id", accountID.String()),
		zap.String("plan", string(renewed)),
		zap.Int64("credits", plan.Credits(renewed)),
	)
	return nil
}

func (s *service) handleInvoicePaymentFailed(ctx context.Context, event *domain.BillingEvent) error {
	accountID, ok := s.resolveAccount(ctx, event.AccountID, event.CustomerID)
	if !ok {
		return nil
	}

	return s.accountSvc.ApplyPlanChange(ctx, accountID, accountdomain.PlanChange{
		CreditMode: accountdomain.CreditKeep,
		Status:     accountdomain.SubscriptionStatusPastDue,
	})
}

func (s *service) handleSubscriptionUpdated(ctx context.Context, event *domain.BillingEvent) error {
	accountID, ok := s.resolveAccount(ctx, event.AccountID, event.CustomerID)
	if !ok {
		return nil
	}

	change := accountdomain.PlanChange{
		CreditMode:        accountdomain.CreditKeep,
		Status:            mapSubscriptionStatus(event.Status),
		CancelAtPeriodEnd: &event.CancelAtPeriodEnd,
		PeriodEnd:         event.PeriodEnd,
	}
	return s.accountSvc.ApplyPlanChange(ctx, accountID, change)
}

// handleSubscriptionDeleted downgrades to the free plan but leaves the
// remaining balance alone: paid-for credits survive churn.
func (s *service) handleSubscriptionDeleted(ctx context.Context, event *domain.BillingEvent) error {
	accountID, ok := s.resolveAccount(ctx, event.AccountID, event.CustomerID)
	if !ok {
		return nil
	}

	cleared := ""
	off := false
	if err := s.accountSvc.ApplyPlanChange(ctx, accountID, accountdomain.PlanChange{
		Plan:              plan.Free,
		CreditMode:        accountdomain.CreditKeep,
		Status:            accountdomain.SubscriptionStatusCancelled,
		SubscriptionID:    &cleared,
		CancelAtPeriodEnd: &off,
	}); err != nil {
		return err
	}

	s.log.Info("subscription cancelled", zap.String("account_id", accountID.String()))
	return nil
}

func (s *service) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	if s.cfg.Stripe.SecretKey == "" {
		return "", domain.ErrNotConfigured
	}

	priceID := plan.PriceID(req.Plan, s.cfg.Stripe)
	if priceID == "" {
		return "", domain.ErrUnknownPlan
	}

	account, err := s.accountSvc.GetByID(ctx, req.AccountID)
	if err != nil {
		return "", err
	}

	customerID := ""
	if account.StripeCustomerID != nil {
		customerID = *account.StripeCustomerID
	}
	if customerID == "" {
		created, err := s.client.CreateCustomer(ctx, account.Email, account.Name, account.ID)
		if err != nil {
			return "", err
		}
		customerID, err = s.accountSvc.ClaimStripeCustomer(ctx, account.ID, created)
		if err != nil {
			return "", err
		}
	}

	return s.client.CreateCheckoutSession(ctx, domain.ProviderCheckoutRequest{
		CustomerID: customerID,
		PriceID:    priceID,
		SuccessURL: s.cfg.AppURL + "/dashboard?success=true",
		CancelURL:  s.cfg.AppURL + "/pricing?canceled=true",
		AccountID:  account.ID,
		Plan:       req.Plan,
	})
}

func (s *service) CreatePortalSession(ctx context.Context, accountID snowflake.ID) (string, error) {
	if s.cfg.Stripe.SecretKey == "" {
		return "", domain.ErrNotConfigured
	}

	account, err := s.accountSvc.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if account.StripeCustomerID == nil || *account.StripeCustomerID == "" {
		return "", domain.ErrNoBillingProfile
	}

	return s.client.CreatePortalSession(ctx, *account.StripeCustomerID, s.cfg.AppURL+"/dashboard")
}

func (s *service) resolveAccount(ctx context.Context, accountID snowflake.ID, customerID string) (snowflake.ID, bool) {
	if accountID != 0 {
		if _, err := s.accountSvc.GetByID(ctx, accountID); err == nil {
			return accountID, true
		}
	}
	if customerID != "" {
		account, err := s.accountSvc.GetByStripeCustomer(ctx, customerID)
		if err == nil {
			return account.ID, true
		}
	}
	return 0, false
}

func mapSubscriptionStatus(status string) accountdomain.SubscriptionStatus {
	switch status {
	case "active":
		return accountdomain.SubscriptionStatusActive
	case "trialing":
		return accountdomain.SubscriptionStatusTrialing
	case "past_due", "unpaid", "incomplete":
		return accountdomain.SubscriptionStatusPastDue
	case "canceled", "incomplete_expired":
		return accountdomain.SubscriptionStatusCancelled
	default:
		return ""
	}
}
