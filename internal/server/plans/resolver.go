package plans

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"filedepot/internal/logging"
)

// Resolver fetches plan tiers over HTTP behind a circuit breaker. A degraded
// plan service must never block storage admission, so every failure mode
// (timeout, bad status, open circuit) falls back to PlanBasic.
type Resolver struct {
	serviceURL string
	unit       int64
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker[Plan]
	logger     logging.Logger
}

// NewResolver creates a Resolver for the plan service at serviceURL. The
// breaker opens once at least 5 calls in a window have failed at a rate of
// 50% or more, and half-opens after 30 seconds.
func NewResolver(serviceURL string, unit int64, logger logging.Logger) *Resolver {
	breaker := gobreaker.NewCircuitBreaker[Plan](gobreaker.Settings{
		Name:    "plan-service",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
	})

	return &Resolver{
		serviceURL: serviceURL,
		unit:       unit,
		client:     &http.Client{Timeout: 3 * time.Second},
		breaker:    breaker,
		logger:     logger.With("module", "plans"),
	}
}

// Resolve returns the user's plan tier, or PlanBasic when the plan service
// is unreachable or the circuit is open.
func (r *Resolver) Resolve(ctx context.Context, userID, token string) Plan {
	plan, err := r.breaker.Execute(func() (Plan, error) {
		return r.fetch(ctx, userID, token)
	})
	if err != nil {
		r.logger.Warn(ctx, "plan service unavailable, defaulting to BASIC",
			"user_id", userID, "error", err)
		return PlanBasic
	}
	return plan
}

// QuotaBytes maps a plan to its byte budget using the configured base unit.
func (r *Resolver) QuotaBytes(p Plan) int64 {
	return QuotaBytes(p, r.unit)
}

func (r *Resolver) fetch(ctx context.Context, userID, token string) (Plan, error) {
	url := fmt.Sprintf("%s/%s", r.serviceURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("plan service returned %d", resp.StatusCode)
	}

	// The plan service serializes the tier as a bare JSON string, e.g. "PRO".
	var tier string
	if err := json.NewDecoder(resp.Body).Decode(&tier); err != nil {
		return "", fmt.Errorf("decoding plan response: %w", err)
	}

	return Plan(tier), nil
}
