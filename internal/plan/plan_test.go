package plan

import (
	"testing"

	"github.com/adcraftlabs/adcraft/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestCredits(t *testing.T) {
	assert.Equal(t, int64(0), Credits(Free))
	assert.Equal(t, int64(50), Credits(Starter))
	assert.Equal(t, int64(200), Credits(Pro))
	assert.Equal(t, int64(1000), Credits(Business))
	assert.Equal(t, int64(0), Credits(Plan("enterprise")))
}

func TestAllowsEditing(t *testing.T) {
	assert.False(t, AllowsEditing(Free))
	assert.True(t, AllowsEditing(Starter))
	assert.True(t, AllowsEditing(Pro))
	assert.True(t, AllowsEditing(Business))
	assert.False(t, AllowsEditing(Plan("unknown")))
}

func TestPriceIDRoundTrip(t *testing.T) {
	cfg := config.StripeConfig{
		PriceIDStarter:  "price_starter",
		PriceIDPro:      "price_pro",
		PriceIDBusiness: "price_business",
	}

	for _, p := range []Plan{Starter, Pro, Business} {
		id := PriceID(p, cfg)
		assert.NotEmpty(t, id)

		got, ok := FromPriceID(id, cfg)
		assert.True(t, ok)
		assert.Equal(t, p, got)
	}

	assert.Empty(t, PriceID(Free, cfg))

	_, ok := FromPriceID("price_other", cfg)
	assert.False(t, ok)

	_, ok = FromPriceID("", cfg)
	assert.False(t, ok)
}
