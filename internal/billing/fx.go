package billing

import (
	"github.com/adcraftlabs/adcraft/internal/billing/domain"
	"github.com/adcraftlabs/adcraft/internal/billing/repository"
	"github.com/adcraftlabs/adcraft/internal/billing/service"
	"github.com/adcraftlabs/adcraft/internal/billing/stripe"
	"github.com/adcraftlabs/adcraft/internal/config"
	"go.uber.org/fx"
)

func provideParser(cfg config.Config) domain.WebhookParser {
	return stripe.NewWebhook(cfg.Stripe.WebhookSecret)
}

func provideClient(cfg config.Config) domain.ProviderClient {
	return stripe.NewClient(cfg.Stripe.SecretKey)
}

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(provideParser),
	fx.Provide(provideClient),
	fx.Provide(service.NewService),
)
