package stats

import (
	"errors"
	"math"
	"sort"

	"github.com/clinsim-ai/trialsim/pkg/common/models"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrTooFewObservations = errors.New("at least two observations required")
	ErrZeroVariance       = errors.New("data has zero variance")
	ErrLengthMismatch     = errors.New("x_data and y_data must have same length")
	ErrTooFewGroups       = errors.New("at least two non-empty groups required")
)

// OneSampleTTest tests whether the mean of data differs from the
// reference value, two-sided.
func OneSampleTTest(data []float64, reference, alpha float64) (models.TTestResult, error) {
	n := len(data)
	if n < 2 {
		return models.TTestResult{}, ErrTooFewObservations
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}

	mean := stat.Mean(data, nil)
	sampleSD := math.Sqrt(stat.Variance(data, nil))
	if sampleSD == 0 {
		return models.TTestResult{}, ErrZeroVariance
	}

	t := (mean - reference) / (sampleSD / math.Sqrt(float64(n)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	p := 2 * dist.Survival(math.Abs(t))

	return models.TTestResult{
		TestType:    "one_sample_ttest",
		TStatistic:  roundTo(t, 4),
		PValue:      roundTo(p, 4),
		Significant: p < alpha,
		Alpha:       alpha,
		SampleSize:  n,
		Mean:        roundTo(mean, 4),
		StdDev:      roundTo(stat.PopStdDev(data, nil), 4),
	}, nil
}

// OneWayANOVA runs a one-way F test over named groups.
func OneWayANOVA(groups map[string][]float64) (models.AnovaResult, error) {
	names := make([]string, 0, len(groups))
	for name, values := range groups {
		if len(values) == 0 {
			return models.AnovaResult{}, ErrTooFewGroups
		}
		names = append(names, name)
	}
	if len(names) < 2 {
		return models.AnovaResult{}, ErrTooFewGroups
	}
	sort.Strings(names)

	var all []float64
	for _, name := range names {
		all = append(all, groups[name]...)
	}
	grandMean := stat.Mean(all, nil)

	k := float64(len(names))
	total := float64(len(all))
	if total-k < 1 {
		return models.AnovaResult{}, ErrTooFewObservations
	}

	var betweenSS, withinSS float64
	means := make(map[string]float64, len(names))
	stds := make(map[string]float64, len(names))
	for _, name := range names {
		values := groups[name]
		mean := stat.Mean(values, nil)
		means[name] = roundTo(mean, 4)
		stds[name] = roundTo(stat.PopStdDev(values, nil), 4)

		betweenSS += float64(len(values)) * (mean - grandMean) * (mean - grandMean)
		for _, value := range values {
			withinSS += (value - mean) * (value - mean)
		}
	}
	if withinSS == 0 {
		return models.AnovaResult{}, ErrZeroVariance
	}

	f := (betweenSS / (k - 1)) / (withinSS / (total - k))
	dist := distuv.F{D1: k - 1, D2: total - k}
	p := dist.Survival(f)

	return models.AnovaResult{
		TestType:   "anova",
		FStatistic: roundTo(f, 4),
		PValue:     roundTo(p, 4),
		Groups:     names,
		GroupMeans: means,
		GroupStds:  stds,
	}, nil
}

// PearsonCorrelation computes Pearson's r between two equal-length
// sequences, with a two-sided p-value from the t transform.
func PearsonCorrelation(x, y []float64) (models.CorrelationResult, error) {
	if len(x) != len(y) {
		return models.CorrelationResult{}, ErrLengthMismatch
	}
	n := len(x)
	if n < 3 {
		return models.CorrelationResult{}, ErrTooFewObservations
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return models.CorrelationResult{}, ErrZeroVariance
	}

	var p float64
	if math.Abs(r) >= 1 {
		p = 0
	} else {
		t := r * math.Sqrt(float64(n-2)/(1-r*r))
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
		p = 2 * dist.Survival(math.Abs(t))
	}

	return models.CorrelationResult{
		TestType:       "pearson_correlation",
		Correlation:    roundTo(r, 4),
		PValue:         roundTo(p, 4),
		SampleSize:     n,
		Interpretation: InterpretCorrelation(r),
	}, nil
}

// InterpretCorrelation buckets |r| into descriptive strength bands.
func InterpretCorrelation(r float64) string {
	abs := math.Abs(r)
	switch {
	case abs >= 0.8:
		return "Very strong"
	case abs >= 0.6:
		return "Strong"
	case abs >= 0.4:
		return "Moderate"
	case abs >= 0.2:
		return "Weak"
	default:
		return "Very weak"
	}
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
