package artifact

import (
	"github.com/adcraftlabs/adcraft/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideStore(cfg config.Config, log *zap.Logger) (Store, error) {
	return NewS3Store(cfg.R2, log)
}

var Module = fx.Module("artifact",
	fx.Provide(provideStore),
)
