package account

import (
	"github.com/adcraftlabs/adcraft/internal/account/repository"
	"github.com/adcraftlabs/adcraft/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
