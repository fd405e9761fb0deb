package generation

import (
	"github.com/adcraftlabs/adcraft/internal/generation/repository"
	"github.com/adcraftlabs/adcraft/internal/generation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("generation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
