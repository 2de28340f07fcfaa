// Package cost decides whether a provider call is cheap enough to make
// unattended. Prices are per call in USD, keyed by provider model id.
package cost

import "github.com/rs/zerolog/log"

// DefaultThreshold is the maximum estimated cost per call that runs without
// review. It applies to every asset type.
const DefaultThreshold = 0.20

// PricingTable maps a provider model id to its estimated cost per call.
type PricingTable map[string]float64

// Decision is the outcome of evaluating one model against a threshold.
type Decision struct {
	EstimatedCost float64
	Proceed       bool
}

// Policy bundles the pricing table and threshold for one run. It is built
// once at startup and passed by value; there is no package-level pricing.
type Policy struct {
	Pricing   PricingTable
	Threshold float64
}

// NewPolicy returns a Policy, substituting DefaultThreshold for a
// non-positive threshold.
func NewPolicy(pricing PricingTable, threshold float64) Policy {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if pricing == nil {
		pricing = PricingTable{}
	}
	return Policy{Pricing: pricing, Threshold: threshold}
}

// Evaluate prices providerModel. Models missing from the table are treated
// as costing 0 and always proceed. The threshold is inclusive.
func Evaluate(providerModel string, pricing PricingTable, threshold float64) Decision {
	estimated := pricing[providerModel]
	return Decision{
		EstimatedCost: estimated,
		Proceed:       estimated <= threshold,
	}
}

// Evaluate prices providerModel against the policy and logs rejections.
func (p Policy) Evaluate(providerModel string) Decision {
	d := Evaluate(providerModel, p.Pricing, p.Threshold)
	if !d.Proceed {
		log.Warn().
			Str("model", providerModel).
			Float64("estimated_cost", d.EstimatedCost).
			Float64("threshold", p.Threshold).
			Msg("Estimated cost exceeds threshold, skipping provider call")
	}
	return d
}
