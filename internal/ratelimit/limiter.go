package ratelimit

import (
	"context"

	"github.com/adcraftlabs/adcraft/internal/config"
	"github.com/adcraftlabs/adcraft/internal/metrics"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type GenerateLimiterParams struct {
	fx.In

	Log     *zap.Logger
	Cfg     config.Config
	Bucket  *TokenBucket     `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

// GenerateLimiter throttles generation requests per account. Without a
// Redis backend it admits everything, so local development does not
// need Redis running.
type GenerateLimiter struct {
	log     *zap.Logger
	bucket  *TokenBucket
	metrics *metrics.Metrics
	rate    float64
	burst   int
}

func NewGenerateLimiter(p GenerateLimiterParams) *GenerateLimiter {
	ratePerMin := p.Cfg.GenerateRatePerMin
	if ratePerMin <= 0 {
		ratePerMin = 10
	}
	burst := p.Cfg.GenerateBurst
	if burst <= 0 {
		burst = 5
	}
	return &GenerateLimiter{
		log:     p.Log.Named("ratelimit.generate"),
		bucket:  p.Bucket,
		metrics: p.Metrics,
		rate:    float64(ratePerMin) / 60.0,
		burst:   burst,
	}
}

// Allow reports whether the account may run another generation now.
// Limiter failures admit the request: billing correctness never depends
// on Redis being up.
func (l *GenerateLimiter) Allow(ctx context.Context, accountID snowflake.ID) (*Result, bool) {
	if l == nil || l.bucket == nil {
		return nil, true
	}

	result, err := l.bucket.Allow(ctx, "ratelimit:generate:"+accountID.String(), l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limiter unavailable, admitting request", zap.Error(err))
		return nil, true
	}

	if result.Allowed {
		l.metrics.RecordRateLimitAllowed("generate")
	} else {
		l.metrics.RecordRateLimitDenied("generate")
	}
	return result, result.Allowed
}
