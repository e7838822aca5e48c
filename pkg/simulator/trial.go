package simulator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/clinsim-ai/trialsim/pkg/common/models"
	"github.com/jaswdr/faker"
)

// VisitDays is the standard visit schedule for the longitudinal trial,
// in study days. The last entry is also the study duration.
var VisitDays = []int{0, 7, 14, 28, 56, 84}

const (
	trialSiteCount = 10
	// Lab draws always happen at mandatory visits; at the rest they
	// happen with this probability.
	visitLabProbability = 0.3
	// Abnormality rate for per-visit lab draws. Lower than the flat
	// generator: longitudinal panels re-sample the same subject.
	visitLabAbnormalProbability = 0.1
)

var mandatoryLabDays = map[int]bool{0: true, 28: true, 84: true}

// armEffect captures the per-arm treatment bias: blood-pressure deltas
// applied at every visit and the symptom-improvement cap and multiplier
// range. Active arms improve more than placebo.
type armEffect struct {
	improvementCap float64
	responseRange  [2]float64
	systolicDrop   [2]int
	diastolicDrop  [2]int
}

var armEffects = map[string]armEffect{
	"Drug_A": {improvementCap: 15, responseRange: [2]float64{0.6, 0.9}, systolicDrop: [2]int{5, 15}, diastolicDrop: [2]int{3, 8}},
	"Drug_B": {improvementCap: 12, responseRange: [2]float64{0.4, 0.7}, systolicDrop: [2]int{3, 10}, diastolicDrop: [2]int{2, 6}},
}

// placeboEffect is used for any arm without an entry in armEffects.
var placeboEffect = armEffect{improvementCap: 8, responseRange: [2]float64{0.1, 0.3}}

// TrialSimulator generates multi-visit clinical trial datasets: per-visit
// vitals, conditionally sampled lab panels, adverse-event reports, and a
// symptom-improvement trajectory per subject.
type TrialSimulator struct {
	vocab Vocabulary
	rng   *rand.Rand
	fake  faker.Faker
	now   func() time.Time
}

func NewTrialSimulator(vocab Vocabulary, seed int64) *TrialSimulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TrialSimulator{
		vocab: vocab,
		rng:   rand.New(rand.NewSource(seed)),
		fake:  faker.NewWithSeed(rand.NewSource(seed)),
		now:   time.Now,
	}
}

// GenerateTrialData produces a complete longitudinal dataset for
// numPatients subjects across the standard visit schedule.
func (t *TrialSimulator) GenerateTrialData(numPatients int) models.TrialDataset {
	lastDay := VisitDays[len(VisitDays)-1]
	dataset := models.TrialDataset{
		Patients:           []models.SubjectProfile{},
		LabResults:         []models.VisitLabPanel{},
		VitalSigns:         []models.VitalSigns{},
		AdverseEvents:      []models.VisitAdverseEvent{},
		TreatmentResponses: []models.SymptomAssessment{},
		Metadata: models.TrialMetadata{
			SimulationDate:    t.now().UTC().Format(time.RFC3339),
			NumberOfPatients:  numPatients,
			NumberOfSites:     trialSiteCount,
			TreatmentArms:     t.vocab.TrialArms,
			StudyDurationDays: lastDay,
		},
	}

	for i := 1; i <= numPatients; i++ {
		arm := t.vocab.TrialArms[t.rng.Intn(len(t.vocab.TrialArms))]
		subject := t.generateSubject(i, arm)
		dataset.Patients = append(dataset.Patients, subject)

		for _, day := range VisitDays {
			if mandatoryLabDays[day] || t.rng.Float64() < visitLabProbability {
				dataset.LabResults = append(dataset.LabResults, t.generateVisitLabs(subject.PatientID, day))
			}
			dataset.VitalSigns = append(dataset.VitalSigns, t.generateVitalSigns(subject.PatientID, day, arm))
			dataset.AdverseEvents = append(dataset.AdverseEvents, t.generateVisitAdverseEvent(subject.PatientID, day, arm))
		}

		dataset.TreatmentResponses = append(dataset.TreatmentResponses, t.generateSymptomCourse(subject.PatientID, arm, lastDay)...)
	}

	return dataset
}

func (t *TrialSimulator) generateSubject(seq int, arm string) models.SubjectProfile {
	weight := roundTo(t.uniform(50, 100), 1)
	height := 150 + t.rng.Intn(41)
	heightM := float64(height) / 100

	historySize := t.rng.Intn(3)
	history := make([]string, 0, historySize)
	for _, condition := range t.samplePrefix(t.vocab.Conditions, historySize) {
		history = append(history, condition)
	}

	screening := t.fake.Time().TimeBetween(t.now().AddDate(0, 0, -30), t.now())

	return models.SubjectProfile{
		PatientID:      fmt.Sprintf("PT%06d", seq),
		Age:            18 + t.rng.Intn(68),
		Gender:         []string{"Male", "Female"}[t.rng.Intn(2)],
		WeightKg:       weight,
		HeightCm:       height,
		BMI:            roundTo(weight/(heightM*heightM), 1),
		Ethnicity:      t.vocab.Ethnicities[t.rng.Intn(len(t.vocab.Ethnicities))],
		MedicalHistory: history,
		ScreeningDate:  screening.Format("2006-01-02"),
		SiteID:         fmt.Sprintf("SITE%03d", 1+t.rng.Intn(trialSiteCount)),
		TreatmentArm:   arm,
	}
}

func (t *TrialSimulator) generateVisitLabs(patientID string, day int) models.VisitLabPanel {
	elevated := make(map[string]bool, len(t.vocab.ElevatedWhenAbnormal))
	for _, name := range t.vocab.ElevatedWhenAbnormal {
		elevated[name] = true
	}

	results := make(map[string]float64, len(t.vocab.VisitLabRanges))
	for name, bounds := range t.vocab.VisitLabRanges {
		value := t.uniform(bounds[0], bounds[1])
		if t.rng.Float64() < visitLabAbnormalProbability {
			if elevated[name] {
				value *= t.uniform(1.3, 2.0)
			} else {
				value *= t.uniform(0.5, 0.8)
			}
		}
		results[name] = roundTo(value, 2)
	}

	return models.VisitLabPanel{
		PatientID:           patientID,
		VisitDay:            day,
		LabResults:          results,
		CollectionTimestamp: t.now().UTC().Format(time.RFC3339),
	}
}

func (t *TrialSimulator) generateVitalSigns(patientID string, day int, arm string) models.VitalSigns {
	systolic := 110 + t.rng.Intn(31)
	diastolic := 70 + t.rng.Intn(21)

	if effect, ok := armEffects[arm]; ok {
		systolic -= t.intBetween(effect.systolicDrop[0], effect.systolicDrop[1])
		diastolic -= t.intBetween(effect.diastolicDrop[0], effect.diastolicDrop[1])
	}

	return models.VitalSigns{
		PatientID:       patientID,
		VisitDay:        day,
		BloodPressure:   models.BloodPressure{Systolic: systolic, Diastolic: diastolic},
		HeartRate:       60 + t.rng.Intn(41),
		TemperatureC:    roundTo(t.uniform(36.1, 37.2), 1),
		RespiratoryRate: 12 + t.rng.Intn(9),
	}
}

func (t *TrialSimulator) generateVisitAdverseEvent(patientID string, day int, arm string) models.VisitAdverseEvent {
	probability := 0.08
	related := 0.3
	if arm != "Placebo" {
		probability = 0.15
		related = 0.7
	}

	if t.rng.Float64() >= probability {
		return models.VisitAdverseEvent{
			PatientID:    patientID,
			VisitDay:     day,
			AdverseEvent: "None",
			ActionTaken:  "None",
		}
	}

	tier := SeverityTiers[t.rng.Intn(len(SeverityTiers))]
	names := t.vocab.AdverseEvents[tier]

	return models.VisitAdverseEvent{
		PatientID:          patientID,
		VisitDay:           day,
		AdverseEvent:       names[t.rng.Intn(len(names))],
		Severity:           tier,
		RelatedToTreatment: t.rng.Float64() < related,
		ActionTaken:        t.vocab.AEActions[t.rng.Intn(len(t.vocab.AEActions))],
	}
}

// generateSymptomCourse builds the improvement trajectory for one
// subject. Improvement at day zero is exactly zero by construction; later
// visits scale the baseline by elapsed fraction of the study and a
// per-arm multiplier, capped at the arm's maximum improvement.
func (t *TrialSimulator) generateSymptomCourse(patientID, arm string, lastDay int) []models.SymptomAssessment {
	baseline := float64(15 + t.rng.Intn(11))

	effect, ok := armEffects[arm]
	if !ok {
		effect = placeboEffect
	}

	course := make([]models.SymptomAssessment, 0, len(VisitDays))
	for _, day := range VisitDays {
		var improvement float64
		if day > 0 {
			improvement = baseline * (float64(day) / float64(lastDay)) * t.uniform(effect.responseRange[0], effect.responseRange[1])
			improvement = math.Min(effect.improvementCap, improvement)
		}

		score := math.Max(0, roundTo(baseline-improvement, 1))

		course = append(course, models.SymptomAssessment{
			PatientID:                    patientID,
			VisitDay:                     day,
			SymptomScore:                 score,
			ImprovementFromBaseline:      roundTo(improvement, 1),
			PatientGlobalImpression:      t.vocab.Impressions[t.rng.Intn(len(t.vocab.Impressions))],
			InvestigatorGlobalImpression: t.vocab.Impressions[t.rng.Intn(len(t.vocab.Impressions))],
		})
	}
	return course
}

func (t *TrialSimulator) uniform(min, max float64) float64 {
	return min + t.rng.Float64()*(max-min)
}

func (t *TrialSimulator) intBetween(min, max int) int {
	return min + t.rng.Intn(max-min+1)
}

func (t *TrialSimulator) samplePrefix(items []string, n int) []string {
	if n > len(items) {
		n = len(items)
	}
	shuffled := make([]string, len(items))
	copy(shuffled, items)
	t.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
