package genai

import (
	"github.com/adcraftlabs/adcraft/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideGenerator(cfg config.Config, log *zap.Logger) ImageGenerator {
	return NewGemini(cfg.Gemini, log)
}

var Module = fx.Module("genai",
	fx.Provide(provideGenerator),
)
