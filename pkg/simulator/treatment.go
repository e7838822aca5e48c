package simulator

import (
	"github.com/clinsim-ai/trialsim/pkg/common/models"
)

const (
	efficacyFloor   = 0.1
	efficacyCeiling = 0.95
)

// SimulateTreatmentResponse samples the outcome of assigning a treatment
// to one patient. Efficacy combines a uniform base draw with age and BMI
// factors, clamped to [0.1, 0.95]; the response category is derived from
// the clamped score, in that order, every time.
func (s *PatientSimulator) SimulateTreatmentResponse(demo models.Demographics, treatment string) models.TreatmentResponse {
	baseEfficacy := s.uniform(0.3, 0.9)

	// Linear decay past age 40; younger patients can push the factor
	// above 1.
	ageFactor := 1 - float64(demo.Age-40)*0.005

	bmiFactor := 0.9
	if demo.BMI < 25 {
		bmiFactor = 1.1
	}

	efficacy := baseEfficacy * ageFactor * bmiFactor
	if efficacy < efficacyFloor {
		efficacy = efficacyFloor
	}
	if efficacy > efficacyCeiling {
		efficacy = efficacyCeiling
	}
	efficacy = roundTo(efficacy, 2)

	sideEffects := []string{}
	if s.rng.Float64() < s.uniform(0.1, 0.4) {
		sideEffects = s.sample(s.vocab.SideEffects, s.uniformInt(1, 3))
	}

	return models.TreatmentResponse{
		Treatment:             treatment,
		EfficacyScore:         efficacy,
		ResponseCategory:      ResponseCategory(efficacy),
		SideEffects:           sideEffects,
		TreatmentDurationDays: s.uniformInt(30, 180),
	}
}

// ResponseCategory buckets a clamped efficacy score: Good above 0.7,
// Moderate above 0.4, Poor otherwise.
func ResponseCategory(efficacy float64) string {
	switch {
	case efficacy > 0.7:
		return "Good"
	case efficacy > 0.4:
		return "Moderate"
	default:
		return "Poor"
	}
}
