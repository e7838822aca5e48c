package designer

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/clinsim-ai/trialsim/pkg/common/models"
	"gonum.org/v1/gonum/stat/distuv"
)

// DesignTemplate describes one supported trial design shape.
type DesignTemplate struct {
	Description   string
	Arms          int
	Randomization string
	Periods       int
	Factors       int
	Levels        int
}

var designTemplates = map[string]DesignTemplate{
	"parallel":  {Description: "Parallel group design", Arms: 2, Randomization: "1:1"},
	"crossover": {Description: "Crossover design", Arms: 2, Periods: 2},
	"factorial": {Description: "Factorial design", Arms: 2, Factors: 2, Levels: 2},
}

// TrialDesigner assembles trial protocols from statistical design
// parameters. The random source only feeds trial ID generation.
type TrialDesigner struct {
	rng *rand.Rand
}

func New(seed int64) *TrialDesigner {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TrialDesigner{rng: rand.New(rand.NewSource(seed))}
}

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// CalculateSampleSize returns the total number of subjects required.
// Parallel designs use the standard two-sample mean-comparison formula
// with two-sided alpha. Other designs return a flat 20%-uplifted
// placeholder; they are approximate stand-ins, not real calculations.
// Parameters outside their valid ranges fall back to the standard
// defaults; the normal quantile is undefined there.
func (d *TrialDesigner) CalculateSampleSize(alpha, power, effectSize float64, design string) int {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}
	if power <= 0 || power >= 1 {
		power = 0.8
	}
	if effectSize <= 0 {
		effectSize = 0.5
	}

	if design == "parallel" {
		zAlpha := stdNormal.Quantile(1 - alpha/2)
		zPower := stdNormal.Quantile(power)
		nPerGroup := 2 * math.Pow((zAlpha+zPower)/effectSize, 2)
		return int(math.Ceil(nPerGroup)) * 2
	}
	return int(math.Ceil(100 * 1.2))
}

// DesignTrial builds a full protocol from the request. An unrecognized
// design type silently falls back to the parallel template for both arm
// count and statistical plan; that fallback is documented behavior, not
// an error. Trial IDs are fresh opaque tokens per call.
func (d *TrialDesigner) DesignTrial(req models.TrialDesignRequest) models.TrialDesign {
	applyDefaults(&req)

	template, ok := designTemplates[req.Design]
	if !ok {
		template = designTemplates["parallel"]
	}

	return models.TrialDesign{
		TrialID:           fmt.Sprintf("TRIAL_%04d", 1000+d.rng.Intn(9000)),
		DesignType:        req.Design,
		SampleSize:        d.CalculateSampleSize(req.Alpha, req.Power, req.EffectSize, req.Design),
		PrimaryEndpoint:   req.PrimaryEndpoint,
		DurationWeeks:     req.DurationWeeks,
		Arms:              template.Arms,
		InclusionCriteria: InclusionCriteria(),
		ExclusionCriteria: ExclusionCriteria(),
		StatisticalPlan:   StatisticalPlan(req.Design),
	}
}

func applyDefaults(req *models.TrialDesignRequest) {
	if req.Design == "" {
		req.Design = "parallel"
	}
	if req.Alpha == 0 {
		req.Alpha = 0.05
	}
	if req.Power == 0 {
		req.Power = 0.8
	}
	if req.EffectSize == 0 {
		req.EffectSize = 0.5
	}
	if req.DurationWeeks == 0 {
		req.DurationWeeks = 12
	}
	if req.PrimaryEndpoint == "" {
		req.PrimaryEndpoint = "efficacy_score"
	}
}

func InclusionCriteria() []string {
	return []string{
		"Age 18-75 years",
		"Diagnosed with condition for at least 3 months",
		"Stable concomitant medications for 4 weeks",
		"Willing and able to provide informed consent",
	}
}

func ExclusionCriteria() []string {
	return []string{
		"Pregnancy or lactation",
		"Severe hepatic or renal impairment",
		"History of hypersensitivity to study drug components",
		"Participation in another clinical trial within 30 days",
	}
}

// StatisticalPlan returns the analysis plan template for a design type,
// falling back to the parallel plan for unrecognized types.
func StatisticalPlan(design string) map[string]interface{} {
	plans := map[string]map[string]interface{}{
		"parallel": {
			"primary_analysis":            "ANCOVA with baseline as covariate",
			"alpha":                       0.05,
			"multiple_testing_correction": "Bonferroni",
			"interim_analysis":            "At 50% enrollment",
		},
		"crossover": {
			"primary_analysis":  "Mixed effects model with period and sequence effects",
			"alpha":             0.05,
			"carryover_testing": true,
		},
		"factorial": {
			"primary_analysis": "Two-way ANOVA with interaction term",
			"alpha":            0.05,
			"interaction_test": true,
		},
	}
	if plan, ok := plans[design]; ok {
		return plan
	}
	return plans["parallel"]
}

// Templates exposes the supported design templates.
func Templates() map[string]DesignTemplate {
	return designTemplates
}
