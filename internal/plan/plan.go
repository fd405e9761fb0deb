package plan

import "github.com/adcraftlabs/adcraft/internal/config"

// Plan identifies a subscription tier.
type Plan string

const (
	Free     Plan = "free"
	Starter  Plan = "starter"
	Pro      Plan = "pro"
	Business Plan = "business"
)

// InitialCredits is granted to every new account on signup.
const InitialCredits = 3

var monthlyCredits = map[Plan]int64{
	Free:     0,
	Starter:  50,
	Pro:      200,
	Business: 1000,
}

// Valid reports whether p is a known plan.
func Valid(p Plan) bool {
	_, ok := monthlyCredits[p]
	return ok
}

// Credits returns the monthly credit allowance for the plan.
// Unknown plans grant nothing.
func Credits(p Plan) int64 {
	return monthlyCredits[p]
}

// Paid reports whether the plan is a paying tier.
func Paid(p Plan) bool {
	return Valid(p) && p != Free
}

// AllowsEditing reports whether the plan may use the image edit flow.
func AllowsEditing(p Plan) bool {
	return Paid(p)
}

// PriceID resolves the Stripe price for a purchasable plan. The free
// plan has no price and resolves to the empty string.
func PriceID(p Plan, cfg config.StripeConfig) string {
	switch p {
	case Starter:
		return cfg.PriceIDStarter
	case Pro:
		return cfg.PriceIDPro
	case Business:
		return cfg.PriceIDBusiness
	default:
		return ""
	}
}

// FromPriceID maps a Stripe price back to its plan. The second return
// is false when the price is not one of ours.
func FromPriceID(priceID string, cfg config.StripeConfig) (Plan, bool) {
	if priceID == "" {
		return "", false
	}
	switch priceID {
	case cfg.PriceIDStarter:
		return Starter, true
	case cfg.PriceIDPro:
		return Pro, true
	case cfg.PriceIDBusiness:
		return Business, true
	default:
		return "", false
	}
}
