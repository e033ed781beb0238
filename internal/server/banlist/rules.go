package banlist

import "time"

// Rule maps an exact violation count to a ban. Thresholds are data, not
// code: the active table is loaded at startup and never mutated.
type Rule struct {
	// Count is compared for exact equality against the violation counter,
	// so each threshold fires at most once per user.
	Count int64
	// Duration is the human-readable label used in notifications.
	Duration string
	// TTL bounds the ban record; ignored when Lifetime is set.
	TTL time.Duration
	// Lifetime marks a permanent ban (no TTL on the record).
	Lifetime bool
	// Reason is included in the ban notification.
	Reason string
}

// DefaultRules returns the escalation table used when the config file does
// not override it: 24 hours at 5 violations, 30 days at 10, lifetime at 25.
func DefaultRules() []Rule {
	return []Rule{
		{Count: 5, Duration: "24 hours", TTL: 24 * time.Hour, Reason: "Repeated content policy violations"},
		{Count: 10, Duration: "30 days", TTL: 30 * 24 * time.Hour, Reason: "Persistent content policy violations"},
		{Count: 25, Duration: "permanent", Lifetime: true, Reason: "Systematic content policy violations"},
	}
}
