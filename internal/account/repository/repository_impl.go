package repository

import (
	"context"
	"time"

	"github.com/adcraftlabs/adcraft/internal/account/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO accounts (id, email, name, plan, credits, subscription_status, cancel_at_period_end,
		                       total_generations, monthly_generations, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Email,
		account.Name,
		account.Plan,
		account.Credits,
		account.SubscriptionStatus,
		account.CancelAtPeriodEnd,
		account.TotalGenerations,
		account.MonthlyGenerations,
		account.CreatedAt,
		account.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM accounts WHERE id = ?`, id,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM accounts WHERE email = ?`, email,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) FindByStripeCustomer(ctx context.Context, db *gorm.DB, customerID string) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM accounts WHERE stripe_customer_id = ?`, customerID,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) SetStripeCustomerIfEmpty(ctx context.Context, db *gorm.DB, id snowflake.ID, customerID string) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE accounts SET stripe_customer_id = ?, updated_at = ?
		 WHERE id = ? AND stripe_customer_id IS NULL`,
		customerID,
		time.Now().UTC(),
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ApplyPlanChange(ctx context.Context, db *gorm.DB, id snowflake.ID, change domain.PlanChange) (bool, error) {
	updates := map[string]any{
		"updated_at": time.Now().UTC(),
	}

	if change.Plan != "" {
		updates["plan"] = change.Plan
	}
	if change.Status != "" {
		updates["subscription_status"] = change.Status
	}

	switch change.CreditMode {
	case domain.CreditAdd:
		updates["credits"] = gorm.Expr("credits + ?", change.Credits)
	case domain.CreditSet:
		updates["credits"] = change.Credits
	}

	if change.SubscriptionID != nil {
		if *change.SubscriptionID == "" {
			updates["stripe_subscription_id"] = nil
		} else {
			updates["stripe_subscription_id"] = *change.SubscriptionID
		}
	}
	if change.PeriodStart != nil {
		updates["current_period_start"] = *change.PeriodStart
	}
	if change.PeriodEnd != nil {
		updates["current_period_end"] = *change.PeriodEnd
	}
	if change.CancelAtPeriodEnd != nil {
		updates["cancel_at_period_end"] = *change.CancelAtPeriodEnd
	}
	if change.ResetAt != nil {
		updates["credits_reset_at"] = *change.ResetAt
	}
	if change.ResetMonthlyUsage {
		updates["monthly_generations"] = 0
	}

	res := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) DebitForGeneration(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE accounts
		 SET credits = credits - 1,
		     total_generations = total_generations + 1,
		     monthly_generations = monthly_generations + 1,
		     last_generation_at = ?,
		     updated_at = ?
		 WHERE id = ? AND credits >= 1`,
		at,
		at,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) BumpEditCounters(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE accounts
		 SET total_generations = total_generations + 1,
		     last_generation_at = ?,
		     updated_at = ?
		 WHERE id = ?`,
		at,
		at,
		id,
	).Error
}
