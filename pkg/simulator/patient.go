package simulator

import (
	"github.com/clinsim-ai/trialsim/pkg/common/models"
)

// GeneratePatientDataset produces numPatients complete records. Each
// record is assembled atomically: demographics first, then a treatment
// drawn from the condition's treatment list, then the dependent lab panel,
// treatment response, and adverse events. A request for zero patients
// returns an empty slice, not an error.
func (s *PatientSimulator) GeneratePatientDataset(numPatients int) []models.PatientRecord {
	dataset := make([]models.PatientRecord, 0, numPatients)
	for i := 0; i < numPatients; i++ {
		demo := s.GenerateDemographics()
		treatment := s.choice(s.vocab.Treatments[demo.Condition])

		dataset = append(dataset, models.PatientRecord{
			PatientID:         demo.PatientID,
			Age:               demo.Age,
			Gender:            demo.Gender,
			Weight:            demo.Weight,
			Height:            demo.Height,
			BMI:               demo.BMI,
			Condition:         demo.Condition,
			LabResults:        s.GenerateLabResults(demo),
			TreatmentResponse: s.SimulateTreatmentResponse(demo, treatment),
			AdverseEvents:     s.GenerateAdverseEvents(demo, treatment),
			CreatedAt:         s.now().UTC(),
		})
	}
	return dataset
}
