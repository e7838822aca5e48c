package designer

import (
	"regexp"
	"testing"

	"github.com/clinsim-ai/trialsim/pkg/common/models"
)

func TestCalculateSampleSizeParallel(t *testing.T) {
	d := New(42)

	// alpha=0.05, power=0.8, effect=0.5 is the textbook case: 63 per
	// group after ceiling, 126 total.
	n := d.CalculateSampleSize(0.05, 0.8, 0.5, "parallel")
	if n != 126 {
		t.Fatalf("expected 126 subjects, got %d", n)
	}

	small := d.CalculateSampleSize(0.05, 0.8, 0.8, "parallel")
	large := d.CalculateSampleSize(0.05, 0.8, 0.2, "parallel")
	if large <= small {
		t.Fatalf("smaller effect size must need more subjects: effect 0.2 -> %d, effect 0.8 -> %d", large, small)
	}

	if n%2 != 0 {
		t.Fatalf("parallel sample size must be even, got %d", n)
	}
}

func TestCalculateSampleSizeOutOfRangeParameters(t *testing.T) {
	d := New(42)

	// Out-of-range probabilities and non-positive effect sizes fall back
	// to the defaults instead of feeding the quantile function.
	cases := []struct {
		alpha, power, effect float64
	}{
		{2.5, 0.8, 0.5},
		{-0.1, 0.8, 0.5},
		{0.05, 1.5, 0.5},
		{0.05, 1.0, 0.5},
		{0.05, -0.2, 0.5},
		{0.05, 0.8, 0},
		{0.05, 0.8, -1},
	}
	for _, tc := range cases {
		if n := d.CalculateSampleSize(tc.alpha, tc.power, tc.effect, "parallel"); n != 126 {
			t.Fatalf("alpha=%v power=%v effect=%v: got %d, want default 126", tc.alpha, tc.power, tc.effect, n)
		}
	}
}

func TestDesignTrialToleratesBadParameters(t *testing.T) {
	d := New(7)

	for _, req := range []models.TrialDesignRequest{
		{Design: "parallel", Alpha: 2.5},
		{Design: "parallel", Power: 1.5},
		{Design: "parallel", EffectSize: -0.5},
	} {
		design := d.DesignTrial(req)
		if design.SampleSize != 126 {
			t.Fatalf("request %+v: sample size %d, want default 126", req, design.SampleSize)
		}
	}
}

func TestCalculateSampleSizeOtherDesigns(t *testing.T) {
	d := New(42)
	for _, design := range []string{"crossover", "factorial", "unknown"} {
		if n := d.CalculateSampleSize(0.05, 0.8, 0.5, design); n != 120 {
			t.Fatalf("design %q: expected 120, got %d", design, n)
		}
	}
}

func TestDesignTrialDefaults(t *testing.T) {
	d := New(7)
	design := d.DesignTrial(models.TrialDesignRequest{})

	if design.DesignType != "parallel" {
		t.Fatalf("expected parallel default, got %q", design.DesignType)
	}
	if design.SampleSize != 126 {
		t.Fatalf("expected default sample size 126, got %d", design.SampleSize)
	}
	if design.PrimaryEndpoint != "efficacy_score" {
		t.Fatalf("unexpected endpoint %q", design.PrimaryEndpoint)
	}
	if design.DurationWeeks != 12 {
		t.Fatalf("unexpected duration %d", design.DurationWeeks)
	}
	if design.Arms != 2 {
		t.Fatalf("unexpected arm count %d", design.Arms)
	}
	if len(design.InclusionCriteria) != 4 || len(design.ExclusionCriteria) != 4 {
		t.Fatalf("criteria counts: %d inclusion, %d exclusion", len(design.InclusionCriteria), len(design.ExclusionCriteria))
	}

	idPattern := regexp.MustCompile(`^TRIAL_\d{4}$`)
	if !idPattern.MatchString(design.TrialID) {
		t.Fatalf("trial id %q does not match TRIAL_NNNN", design.TrialID)
	}
}

func TestDesignTrialUnknownDesignFallsBack(t *testing.T) {
	d := New(7)
	design := d.DesignTrial(models.TrialDesignRequest{Design: "adaptive"})

	if design.DesignType != "adaptive" {
		t.Fatalf("request design type must be echoed, got %q", design.DesignType)
	}
	if design.Arms != 2 {
		t.Fatalf("fallback arms %d, want parallel's 2", design.Arms)
	}
	if design.StatisticalPlan["primary_analysis"] != "ANCOVA with baseline as covariate" {
		t.Fatalf("expected parallel statistical plan, got %v", design.StatisticalPlan)
	}
}

func TestStatisticalPlanPerDesign(t *testing.T) {
	if plan := StatisticalPlan("crossover"); plan["carryover_testing"] != true {
		t.Fatalf("crossover plan missing carryover testing: %v", plan)
	}
	if plan := StatisticalPlan("factorial"); plan["interaction_test"] != true {
		t.Fatalf("factorial plan missing interaction test: %v", plan)
	}
}

func TestTemplates(t *testing.T) {
	templates := Templates()
	for _, name := range []string{"parallel", "crossover", "factorial"} {
		if _, ok := templates[name]; !ok {
			t.Fatalf("missing template %q", name)
		}
	}
	if templates["crossover"].Periods != 2 {
		t.Fatalf("crossover periods %d", templates["crossover"].Periods)
	}
}
