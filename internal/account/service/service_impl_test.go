package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/adcraftlabs/adcraft/internal/account/domain"
	"github.com/adcraftlabs/adcraft/internal/account/repository"
	"github.com/adcraftlabs/adcraft/internal/plan"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAccountTest(t *testing.T) (domain.Service, domain.Repository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(&domain.Account{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo := repository.Provide()
	svc := NewService(Params{
		Log:  zap.NewNop(),
		DB:   gdb,
		Node: node,
		Repo: repo,
	})
	return svc, repo, gdb
}

func TestCreate_GrantsInitialCredits(t *testing.T) {
	svc, _, _ := setupAccountTest(t)
	ctx := context.Background()

	account, err := svc.Create(ctx, domain.CreateAccountRequest{Email: "Maker@Example.com", Name: "Maker"})
	require.NoError(t, err)

	assert.Equal(t, "maker@example.com", account.Email)
	assert.Equal(t, plan.Free, account.Plan)
	assert.Equal(t, int64(plan.InitialCredits), account.Credits)
	assert.Equal(t, domain.SubscriptionStatusNone, account.SubscriptionStatus)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc, _, _ := setupAccountTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateAccountRequest{Email: "maker@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateAccountRequest{Email: "maker@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestCreate_InvalidEmail(t *testing.T) {
	svc, _, _ := setupAccountTest(t)

	_, err := svc.Create(context.Background(), domain.CreateAccountRequest{Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestDebitForGeneration_NeverOverspends(t *testing.T) {
	svc, repo, gdb := setupAccountTest(t)
	ctx := context.Background()

	account, err := svc.Create(ctx, domain.CreateAccountRequest{Email: "spender@example.com"})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.DebitForGeneration(ctx, gdb, account.ID, time.Now().UTC())
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, plan.InitialCredits, succeeded)

	after, err := svc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), after.Credits)
	assert.Equal(t, int64(plan.InitialCredits), after.TotalGenerations)
	assert.Equal(t, int64(plan.InitialCredits), after.MonthlyGenerations)
	assert.NotNil(t, after.LastGenerationAt)

	ok, err := repo.DebitForGeneration(ctx, gdb, account.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClaimStripeCustomer_FirstWriterWins(t *testing.T) {
	svc, _, _ := setupAccountTest(t)
	ctx := context.Background()

	account, err := svc.Create(ctx, domain.CreateAccountRequest{Email: "claim@example.com"})
	require.NoError(t, err)

	got, err := svc.ClaimStripeCustomer(ctx, account.ID, "cus_first")
	require.NoError(t, err)
	assert.Equal(t, "cus_first", got)

	got, err = svc.ClaimStripeCustomer(ctx, account.ID, "cus_second")
	require.NoError(t, err)
	assert.Equal(t, "cus_first", got)

	reloaded, err := svc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.StripeCustomerID)
	assert.Equal(t, "cus_first", *reloaded.StripeCustomerID)
}

func TestApplyPlanChange_AddVersusSet(t *testing.T) {
	svc, _, _ := setupAccountTest(t)
	ctx := context.Background()

	account, err := svc.Create(ctx, domain.CreateAccountRequest{Email: "plans@example.com"})
	require.NoError(t, err)

	subID := "sub_123"
	err = svc.ApplyPlanChange(ctx, account.ID, domain.PlanChange{
		Plan:           plan.Starter,
		CreditMode:     domain.CreditAdd,
		Credits:        plan.Credits(plan.Starter),
		Status:         domain.SubscriptionStatusActive,
		SubscriptionID: &subID,
	})
	require.NoError(t, err)

	after, err := svc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Starter, after.Plan)
	assert.Equal(t, int64(plan.InitialCredits)+plan.Credits(plan.Starter), after.Credits)
	assert.Equal(t, domain.SubscriptionStatusActive, after.SubscriptionStatus)
	require.NotNil(t, after.StripeSubscriptionID)
	assert.Equal(t, "sub_123", *after.StripeSubscriptionID)

	err = svc.ApplyPlanChange(ctx, account.ID, domain.PlanChange{
		Plan:       plan.Pro,
		CreditMode: domain.CreditSet,
		Credits:    plan.Credits(plan.Pro),
		Status:     domain.SubscriptionStatusActive,
	})
	require.NoError(t, err)

	after, err = svc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Pro, after.Plan)
	assert.Equal(t, plan.Credits(plan.Pro), after.Credits)
}

func TestApplyPlanChange_ClearsSubscriptionRef(t *testing.T) {
	svc, _, _ := setupAccountTest(t)
	ctx := context.Background()

	account, err := svc.Create(ctx, domain.CreateAccountRequest{Email: "churn@example.com"})
	require.NoError(t, err)

	subID := "sub_gone"
	require.NoError(t, svc.ApplyPlanChange(ctx, account.ID, domain.PlanChange{
		Plan:           plan.Pro,
		CreditMode:     domain.CreditSet,
		Credits:        42,
		Status:         domain.SubscriptionStatusActive,
		SubscriptionID: &subID,
	}))

	cleared := ""
	off := false
	require.NoError(t, svc.ApplyPlanChange(ctx, account.ID, domain.PlanChange{
		Plan:              plan.Free,
		CreditMode:        domain.CreditKeep,
		Status:            domain.SubscriptionStatusCancelled,
		SubscriptionID:    &cleared,
		CancelAtPeriodEnd: &off,
	}))

	after, err := svc.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Free, after.Plan)
	assert.Equal(t, int64(42), after.Credits)
	assert.Equal(t, domain.SubscriptionStatusCancelled, after.SubscriptionStatus)
	assert.Nil(t, after.StripeSubscriptionID)
	assert.False(t, after.CancelAtPeriodEnd)
}

func TestApplyPlanChange_UnknownAccount(t *testing.T) {
	svc, _, _ := setupAccountTest(t)

	err := svc.ApplyPlanChange(context.Background(), snowflake.ID(999), domain.PlanChange{
		Status: domain.SubscriptionStatusPastDue,
	})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}
