package policy

import "github.com/andresuchdata/replenish/internal/domain"

// Defaults returns the stock policy table. Non-normal multipliers widen or
// shrink the reorder posture: viral demand buys aggressively, supply
// disruption and economic uncertainty order smaller and more cautiously,
// competitor pressure captures share with a moderate bump.
func Defaults() map[domain.ScenarioKind]domain.PolicyParameters {
	return map[domain.ScenarioKind]domain.PolicyParameters{
		domain.ScenarioNormal: {
			SafetyStockMultiplier:  1.0,
			ReorderPointMultiplier: 1.0,
			MaxOrderQuantity:       5000,
		},
		domain.ScenarioViralDemand: {
			SafetyStockMultiplier:  2.5,
			ReorderPointMultiplier: 1.2,
			MaxOrderQuantity:       5000,
		},
		domain.ScenarioSupplyDisruption: {
			SafetyStockMultiplier:  1.8,
			ReorderPointMultiplier: 1.2,
			MaxOrderQuantity:       2500,
			CostConservatism:       true,
		},
		domain.ScenarioCompetitorPressure: {
			SafetyStockMultiplier:  1.5,
			ReorderPointMultiplier: 1.1,
			MaxOrderQuantity:       5000,
		},
		domain.ScenarioEconomicUncertainty: {
			SafetyStockMultiplier:  0.7,
			ReorderPointMultiplier: 0.9,
			MaxOrderQuantity:       1500,
			CostConservatism:       true,
		},
	}
}
