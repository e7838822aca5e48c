package simulator

import (
	"github.com/clinsim-ai/trialsim/pkg/common/models"
)

// Probability that a lab draw takes the abnormality branch.
const labAbnormalProbability = 0.3

// GenerateLabResults samples the full panel for one patient. Values start
// uniform inside the normal range; with probability labAbnormalProbability
// the value is perturbed in the test's skew direction. The perturbation is
// multiplicative, so a perturbed value can still land inside the normal
// range. IsAbnormal is recomputed from the final value against the bounds
// regardless of which branch fired.
func (s *PatientSimulator) GenerateLabResults(demo models.Demographics) []models.LabResult {
	results := make([]models.LabResult, 0, len(s.vocab.LabPanel))
	for _, test := range s.vocab.LabPanel {
		value := s.uniform(test.NormalMin, test.NormalMax)

		if s.rng.Float64() < labAbnormalProbability {
			if test.AbnormalSkew == "low" {
				value *= s.uniform(0.4, 0.8)
			} else {
				value *= s.uniform(1.2, 2.0)
			}
		}
		value = roundTo(value, 2)

		results = append(results, models.LabResult{
			TestName:   test.Name,
			TestValue:  value,
			NormalMin:  test.NormalMin,
			NormalMax:  test.NormalMax,
			Unit:       test.Unit,
			IsAbnormal: value < test.NormalMin || value > test.NormalMax,
			TestDate:   s.pastDate(30),
		})
	}
	return results
}
