package service

import (
	"context"
	"strings"
	"time"

	"github.com/adcraftlabs/adcraft/internal/account/domain"
	"github.com/adcraftlabs/adcraft/internal/plan"
	"github.com/adcraftlabs/adcraft/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	DB   *gorm.DB
	Node *snowflake.Node
	Repo domain.Repository
}

type service struct {
	log  *zap.Logger
	db   *gorm.DB
	node *snowflake.Node
	repo domain.Repository
}

func NewService(p Params) domain.Service {
	return &service{
		log:  p.Log.Named("account.service"),
		db:   p.DB,
		node: p.Node,
		repo: p.Repo,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateAccountRequest) (domain.Account, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Account{}, domain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:                 s.node.Generate(),
		Email:              email,
		Name:               strings.TrimSpace(req.Name),
		Plan:               plan.Free,
		Credits:            plan.InitialCredits,
		SubscriptionStatus: domain.SubscriptionStatusNone,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Insert(ctx, s.db, &account); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Account{}, domain.ErrEmailTaken
		}
		return domain.Account{}, err
	}

	s.log.Info("account created",
		zap.String("account_id", account.ID.String()),
		zap.String("email", account.Email),
	)
	return account, nil
}

func (s *service) GetByID(ctx context.Context, id snowflake.ID) (domain.Account, error) {
	account, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Account{}, err
	}
	if account == nil {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return *account, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	account, err := s.repo.FindByEmail(ctx, s.db, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.Account{}, err
	}
	if account == nil {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return *account, nil
}

func (s *service) GetByStripeCustomer(ctx context.Context, customerID string) (domain.Account, error) {
	account, err := s.repo.FindByStripeCustomer(ctx, s.db, customerID)
	if err != nil {
		return domain.Account{}, err
	}
	if account == nil {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return *account, nil
}

func (s *service) ClaimStripeCustomer(ctx context.Context, id snowflake.ID, customerID string) (string, error) {
	won, err := s.repo.SetStripeCustomerIfEmpty(ctx, s.db, id, customerID)
	if err != nil {
		return "", err
	}
	if won {
		return customerID, nil
	}

	account, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if account.StripeCustomerID == nil || *account.StripeCustomerID == "" {
		// Lost the conditional write but the column is still empty, which
		// means a concurrent transaction has not committed yet. Treat the
		// caller's reference as the winner.
		return customerID, nil
	}
	if *account.StripeCustomerID != customerID {
		s.log.Warn("stripe customer already claimed",
			zap.String("account_id", id.String()),
			zap.String("kept", *account.StripeCustomerID),
			zap.String("discarded", customerID),
		)
	}
	return *account.StripeCustomerID, nil
}

func (s *service) ApplyPlanChange(ctx context.Context, id snowflake.ID, change domain.PlanChange) error {
	ok, err := s.repo.ApplyPlanChange(ctx, s.db, id, change)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAccountNotFound
	}
	return nil
}
