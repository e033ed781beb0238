// Package plans resolves a user's subscription tier from the remote plan
// service and maps tiers to storage quotas.
package plans

// Plan is a subscription tier controlling the storage quota.
type Plan string

const (
	PlanDefault Plan = "DEFAULT"
	PlanBasic   Plan = "BASIC"
	PlanPro     Plan = "PRO"
	PlanTeam    Plan = "TEAM"
)

// QuotaBytes maps a plan to its byte budget for a given base unit.
// Unknown tiers get the single-unit default.
func QuotaBytes(p Plan, unit int64) int64 {
	switch p {
	case PlanBasic:
		return 100 * unit
	case PlanPro:
		return 1000 * unit
	case PlanTeam:
		return 5000 * unit
	default:
		return unit
	}
}
