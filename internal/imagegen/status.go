package imagegen

import (
	"context"

	"assistant-backend/internal/plans"
	"assistant-backend/internal/usage"
)

// approachingThreshold is the monthly usage percentage that flags a warning.
const approachingThreshold = 80

// Status is the read-only usage view.
type Status struct {
	Plan             plans.Plan       `json:"plan"`
	DailyUsed        int              `json:"dailyUsed"`
	DailyLimit       int              `json:"dailyLimit"`
	MonthlyLimit     int              `json:"monthlyLimit"`
	MonthlyUsed      int              `json:"monthlyUsed"`
	MonthlyRemaining int              `json:"monthlyRemaining"`
	UsagePercentage  float64          `json:"usagePercentage"`
	ApproachingLimit bool             `json:"approachingLimit"`
	CanGenerate      bool             `json:"canGenerate"`
	Features         plans.PlanLimits `json:"features"`
	History          []usage.Event    `json:"history"`
}

// Status reports usage for userID. Ledger failures degrade to zero counts and
// an empty history.
func (s *Service) Status(ctx context.Context, userID string, plan plans.Plan) Status {
	plan, limits := s.Catalog.Resolve(plan)
	now := s.now().UTC()

	daily := s.Ledger.CountForStatus(ctx, userID, usage.StartOfDay(now))
	monthly := s.Ledger.CountForStatus(ctx, userID, usage.StartOfMonth(now))
	history := s.Ledger.HistoryForStatus(ctx, userID)
	if history == nil {
		history = []usage.Event{}
	}

	st := Status{
		Plan:         plan,
		DailyUsed:    daily,
		DailyLimit:   limits.DailyLimit,
		MonthlyLimit: limits.MonthlyLimit,
		MonthlyUsed:  monthly,
		Features:     limits,
		History:      history,
	}
	if limits.MonthlyLimit == plans.Unlimited {
		st.MonthlyRemaining = plans.Unlimited
		st.CanGenerate = true
		return st
	}
	st.MonthlyRemaining = remaining(limits.MonthlyLimit, monthly)
	st.CanGenerate = st.MonthlyRemaining > 0
	if limits.MonthlyLimit > 0 {
		st.UsagePercentage = float64(monthly*100) / float64(limits.MonthlyLimit)
	}
	st.ApproachingLimit = st.UsagePercentage >= approachingThreshold
	return st
}
