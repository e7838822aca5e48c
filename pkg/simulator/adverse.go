package simulator

import (
	"fmt"

	"github.com/clinsim-ai/trialsim/pkg/common/models"
)

// GenerateAdverseEvents samples zero or more events for one patient. A
// single base risk is drawn per patient, raised for patients over 65, then
// the severity tiers are walked in fixed Mild → Moderate → Severe order.
// Emitting from a tier halves the risk carried into the next tier, which
// biases output toward at most one or two events per patient. The tier
// order must not change: the halving is cumulative.
func (s *PatientSimulator) GenerateAdverseEvents(demo models.Demographics, treatment string) []models.AdverseEvent {
	risk := s.uniform(0.05, 0.2)
	if demo.Age > 65 {
		risk *= 1.5
	}

	events := []models.AdverseEvent{}
	for _, tier := range SeverityTiers {
		if s.rng.Float64() < risk {
			events = append(events, models.AdverseEvent{
				EventType:   s.choice(s.vocab.AdverseEvents[tier]),
				Severity:    tier,
				Description: fmt.Sprintf("Event reported during %s treatment", treatment),
				Resolved:    s.rng.Float64() < 0.5,
				EventDate:   s.pastDate(60),
			})
			risk /= 2
		}
	}
	return events
}
