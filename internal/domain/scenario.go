package domain

import "strings"

// ScenarioKind identifies a classified market condition.
type ScenarioKind string

const (
	ScenarioNormal              ScenarioKind = "normal"
	ScenarioViralDemand         ScenarioKind = "viral_demand"
	ScenarioSupplyDisruption    ScenarioKind = "supply_disruption"
	ScenarioCompetitorPressure  ScenarioKind = "competitor_pressure"
	ScenarioEconomicUncertainty ScenarioKind = "economic_uncertainty"
)

var scenarioLabels = map[ScenarioKind]string{
	ScenarioNormal:              "Normal Operations",
	ScenarioViralDemand:         "Viral Demand Spike",
	ScenarioSupplyDisruption:    "Supply Chain Disruption",
	ScenarioCompetitorPressure:  "Competitor Pressure",
	ScenarioEconomicUncertainty: "Economic Uncertainty",
}

var scenarioKinds = map[string]ScenarioKind{
	"normal":               ScenarioNormal,
	"viral_demand":         ScenarioViralDemand,
	"supply_disruption":    ScenarioSupplyDisruption,
	"competitor_pressure":  ScenarioCompetitorPressure,
	"economic_uncertainty": ScenarioEconomicUncertainty,
}

// ScenarioLabel returns a human-readable label for a scenario kind.
func ScenarioLabel(kind ScenarioKind) string {
	if label, ok := scenarioLabels[kind]; ok {
		return label
	}

	return "Unknown"
}

// ParseScenarioKind returns the kind for a given name (case-insensitive).
func ParseScenarioKind(name string) (ScenarioKind, bool) {
	kind, ok := scenarioKinds[strings.ToLower(strings.TrimSpace(name))]

	return kind, ok
}

// KnownScenarioKinds lists every recognized kind, Normal first.
func KnownScenarioKinds() []ScenarioKind {
	return []ScenarioKind{
		ScenarioNormal,
		ScenarioViralDemand,
		ScenarioSupplyDisruption,
		ScenarioCompetitorPressure,
		ScenarioEconomicUncertainty,
	}
}

// ReasonCode explains why a decision ordered what it ordered.
type ReasonCode string

const (
	ReasonRoutineReorder         ReasonCode = "routine_reorder"
	ReasonScenarioEscalation     ReasonCode = "scenario_escalation"
	ReasonNoActionBelowThreshold ReasonCode = "no_action_below_threshold"
	ReasonCapEnforced            ReasonCode = "cap_enforced"
)

var reasonLabels = map[ReasonCode]string{
	ReasonRoutineReorder:         "Routine Reorder",
	ReasonScenarioEscalation:     "Scenario Escalation",
	ReasonNoActionBelowThreshold: "No Action Below Threshold",
	ReasonCapEnforced:            "Cap Enforced",
}

// ReasonLabel returns a human-readable label for a reason code.
func ReasonLabel(code ReasonCode) string {
	if label, ok := reasonLabels[code]; ok {
		return label
	}

	return "Unknown"
}
