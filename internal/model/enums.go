package model

// AccessStatus is the lifecycle state of a calendar access record.
// Transitions are forward-only: active -> expired, active -> revoked.
type AccessStatus string

const (
	AccessStatusActive  AccessStatus = "active"
	AccessStatusExpired AccessStatus = "expired"
	AccessStatusRevoked AccessStatus = "revoked"
)

// Plan is the purchased storefront plan. Closed enumeration: unknown
// values are rejected at the boundary instead of coerced.
type Plan string

const (
	PlanBasic   Plan = "basic"
	PlanPremium Plan = "premium"
)

// ParsePlan maps a wire value to a Plan. An empty value defaults to
// basic explicitly; anything else unknown is rejected.
func ParsePlan(s string) (Plan, bool) {
	switch Plan(s) {
	case PlanBasic, PlanPremium:
		return Plan(s), true
	case "":
		return PlanBasic, true
	default:
		return "", false
	}
}
