package simulator

import (
	"github.com/clinsim-ai/trialsim/pkg/common/models"
)

// Gender-conditioned sampling ranges. Weight in kg, height in cm.
var (
	maleWeight   = [2]float64{60, 100}
	maleHeight   = [2]float64{165, 190}
	femaleWeight = [2]float64{50, 85}
	femaleHeight = [2]float64{150, 175}
)

// GenerateDemographics samples one patient's baseline attributes. BMI is
// always derived from the sampled weight and height, never drawn on its
// own, so the three fields stay mutually consistent.
func (s *PatientSimulator) GenerateDemographics() models.Demographics {
	age := s.uniformInt(18, 85)
	gender := s.choice([]string{"Male", "Female"})

	weightRange, heightRange := maleWeight, maleHeight
	if gender == "Female" {
		weightRange, heightRange = femaleWeight, femaleHeight
	}
	weight := roundTo(s.uniform(weightRange[0], weightRange[1]), 1)
	height := roundTo(s.uniform(heightRange[0], heightRange[1]), 1)

	heightM := height / 100
	bmi := roundTo(weight/(heightM*heightM), 1)

	return models.Demographics{
		PatientID: s.newPatientID(),
		Age:       age,
		Gender:    gender,
		Weight:    weight,
		Height:    height,
		BMI:       bmi,
		Condition: s.choice(s.vocab.Conditions),
	}
}
