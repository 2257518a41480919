package plans

import (
	"errors"
	"sort"
	"strings"
)

// Plan is a subscription tier.
type Plan string

const (
	Free   Plan = "free"
	Pro    Plan = "pro"
	ProMax Plan = "pro_max"
)

// Unlimited disables a single quota check.
const Unlimited = -1

const (
	QualityStandard = "standard"
	QualityHD       = "hd"
)

// ErrUnknownPlan is returned for plan values outside the known tiers.
var ErrUnknownPlan = errors.New("unknown plan")

// PlanLimits describes quota and feature configuration for a tier.
type PlanLimits struct {
	DisplayName         string   `json:"displayName"`
	PriceMonthly        float64  `json:"priceMonthly"`
	DailyLimit          int      `json:"dailyLimit"`
	MonthlyLimit        int      `json:"monthlyLimit"`
	CostPerUnit         float64  `json:"costPerUnit"`
	MaxPromptLength     int      `json:"maxPromptLength"`
	AllowedAspectRatios []string `json:"allowedAspectRatios"`
	Quality             string   `json:"quality"`
	Model               string   `json:"model"`
}

// AllowsAspectRatio reports whether ratio is enabled for the tier.
func (l PlanLimits) AllowsAspectRatio(ratio string) bool {
	for _, r := range l.AllowedAspectRatios {
		if r == ratio {
			return true
		}
	}
	return false
}

func (l PlanLimits) clone() PlanLimits {
	l.AllowedAspectRatios = append([]string(nil), l.AllowedAspectRatios...)
	return l
}

// Catalog is an immutable plan to limits table. Build it once at startup and
// share the pointer.
type Catalog struct {
	limits map[Plan]PlanLimits
}

// NewCatalog copies limits into a new Catalog. The free tier is required since
// it backs the unknown-plan fallback.
func NewCatalog(limits map[Plan]PlanLimits) (*Catalog, error) {
	if _, ok := limits[Free]; !ok {
		return nil, errors.New("catalog requires a free plan")
	}
	copied := make(map[Plan]PlanLimits, len(limits))
	for p, l := range limits {
		if !IsKnown(p) {
			return nil, ErrUnknownPlan
		}
		copied[p] = l.clone()
	}
	return &Catalog{limits: copied}, nil
}

// DefaultCatalog returns the production tier table.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(map[Plan]PlanLimits{
		Free: {
			DisplayName:         "Free",
			PriceMonthly:        0,
			DailyLimit:          1,
			MonthlyLimit:        10,
			CostPerUnit:         0.04,
			MaxPromptLength:     500,
			AllowedAspectRatios: []string{"1:1"},
			Quality:             QualityStandard,
			Model:               "dall-e-3",
		},
		Pro: {
			DisplayName:         "Pro",
			PriceMonthly:        9.99,
			DailyLimit:          20,
			MonthlyLimit:        300,
			CostPerUnit:         0.04,
			MaxPromptLength:     1000,
			AllowedAspectRatios: []string{"1:1", "16:9", "9:16"},
			Quality:             QualityStandard,
			Model:               "dall-e-3",
		},
		ProMax: {
			DisplayName:         "Pro Max",
			PriceMonthly:        19.99,
			DailyLimit:          Unlimited,
			MonthlyLimit:        1000,
			CostPerUnit:         0.08,
			MaxPromptLength:     2000,
			AllowedAspectRatios: []string{"1:1", "16:9", "9:16", "4:3", "3:4"},
			Quality:             QualityHD,
			Model:               "dall-e-3",
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// LimitsFor returns the limits of p or ErrUnknownPlan.
func (c *Catalog) LimitsFor(p Plan) (PlanLimits, error) {
	l, ok := c.limits[p]
	if !ok {
		return PlanLimits{}, ErrUnknownPlan
	}
	return l.clone(), nil
}

// Resolve returns p and its limits, falling back to the free tier for unknown
// values.
func (c *Catalog) Resolve(p Plan) (Plan, PlanLimits) {
	if l, err := c.LimitsFor(p); err == nil {
		return p, l
	}
	return Free, c.limits[Free].clone()
}

// Entry is one row of the public plan listing.
type Entry struct {
	Plan   Plan       `json:"plan"`
	Limits PlanLimits `json:"limits"`
}

// Plans lists the catalog ordered by monthly price.
func (c *Catalog) Plans() []Entry {
	out := make([]Entry, 0, len(c.limits))
	for p, l := range c.limits {
		out = append(out, Entry{Plan: p, Limits: l.clone()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Limits.PriceMonthly == out[j].Limits.PriceMonthly {
			return out[i].Plan < out[j].Plan
		}
		return out[i].Limits.PriceMonthly < out[j].Limits.PriceMonthly
	})
	return out
}

// ParsePlan normalizes raw into a Plan. Unknown values are returned as-is so
// callers can decide on the fallback.
func ParsePlan(raw string) Plan {
	return Plan(strings.ToLower(strings.TrimSpace(raw)))
}

// IsKnown reports whether p is one of the recognized tiers.
func IsKnown(p Plan) bool {
	switch p {
	case Free, Pro, ProMax:
		return true
	default:
		return false
	}
}
