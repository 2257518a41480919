package plans

import (
	"errors"
	"reflect"
	"testing"
)

func TestLimitsForUnknownPlan(t *testing.T) {
	c := DefaultCatalog()
	for _, raw := range []string{"", "enterprise", "PRO_MAXX", "free ", "gold"} {
		if _, err := c.LimitsFor(Plan(raw)); !errors.Is(err, ErrUnknownPlan) {
			t.Fatalf("LimitsFor(%q) expected ErrUnknownPlan, got %v", raw, err)
		}
	}
}

func TestResolveFallsBackToFree(t *testing.T) {
	c := DefaultCatalog()
	_, free := c.Resolve(Free)
	for _, raw := range []string{"", "enterprise", "basic", "💎"} {
		p, got := c.Resolve(Plan(raw))
		if p != Free {
			t.Fatalf("Resolve(%q) plan = %q, want free", raw, p)
		}
		if !reflect.DeepEqual(got, free) {
			t.Fatalf("Resolve(%q) limits = %+v, want free limits", raw, got)
		}
	}
}

func TestResolveKnownPlans(t *testing.T) {
	c := DefaultCatalog()
	tests := []struct {
		plan    Plan
		daily   int
		monthly int
		quality string
	}{
		{plan: Free, daily: 1, monthly: 10, quality: QualityStandard},
		{plan: Pro, daily: 20, monthly: 300, quality: QualityStandard},
		{plan: ProMax, daily: Unlimited, monthly: 1000, quality: QualityHD},
	}
	for _, tt := range tests {
		p, l := c.Resolve(tt.plan)
		if p != tt.plan {
			t.Fatalf("Resolve(%q) plan = %q", tt.plan, p)
		}
		if l.DailyLimit != tt.daily || l.MonthlyLimit != tt.monthly || l.Quality != tt.quality {
			t.Fatalf("Resolve(%q) = %+v", tt.plan, l)
		}
	}
}

func TestCatalogIsImmutable(t *testing.T) {
	src := map[Plan]PlanLimits{
		Free: {DailyLimit: 1, AllowedAspectRatios: []string{"1:1"}},
	}
	c, err := NewCatalog(src)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	src[Free] = PlanLimits{DailyLimit: 99}

	got, _ := c.LimitsFor(Free)
	got.AllowedAspectRatios[0] = "16:9"

	again, _ := c.LimitsFor(Free)
	if again.DailyLimit != 1 {
		t.Fatalf("expected catalog to keep its copy, got daily=%d", again.DailyLimit)
	}
	if again.AllowedAspectRatios[0] != "1:1" {
		t.Fatalf("expected aspect ratios to be copied, got %v", again.AllowedAspectRatios)
	}
}

func TestNewCatalogRequiresFree(t *testing.T) {
	if _, err := NewCatalog(map[Plan]PlanLimits{Pro: {}}); err == nil {
		t.Fatalf("expected error without free plan")
	}
	if _, err := NewCatalog(map[Plan]PlanLimits{Free: {}, "gold": {}}); !errors.Is(err, ErrUnknownPlan) {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
}

func TestPlansOrderedByPrice(t *testing.T) {
	entries := DefaultCatalog().Plans()
	if len(entries) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(entries))
	}
	want := []Plan{Free, Pro, ProMax}
	for i, e := range entries {
		if e.Plan != want[i] {
			t.Fatalf("entry %d = %q, want %q", i, e.Plan, want[i])
		}
	}
}

func TestParsePlan(t *testing.T) {
	if got := ParsePlan("  PRO_MAX "); got != ProMax {
		t.Fatalf("ParsePlan = %q", got)
	}
	if got := ParsePlan("Gold"); IsKnown(got) {
		t.Fatalf("expected gold to be unknown")
	}
}

func TestAllowsAspectRatio(t *testing.T) {
	_, free := DefaultCatalog().Resolve(Free)
	if !free.AllowsAspectRatio("1:1") {
		t.Fatalf("free should allow 1:1")
	}
	if free.AllowsAspectRatio("16:9") {
		t.Fatalf("free should not allow 16:9")
	}
}
