package simulator

import "testing"

func TestGenerateTrialDataShape(t *testing.T) {
	sim := NewTrialSimulator(Default(), 42)
	dataset := sim.GenerateTrialData(20)

	if len(dataset.Patients) != 20 {
		t.Fatalf("expected 20 patients, got %d", len(dataset.Patients))
	}
	if dataset.Metadata.NumberOfPatients != 20 {
		t.Fatalf("metadata patient count %d", dataset.Metadata.NumberOfPatients)
	}
	if dataset.Metadata.StudyDurationDays != 84 {
		t.Fatalf("study duration %d, want 84", dataset.Metadata.StudyDurationDays)
	}

	wantVitals := 20 * len(VisitDays)
	if len(dataset.VitalSigns) != wantVitals {
		t.Fatalf("expected %d vital sign rows, got %d", wantVitals, len(dataset.VitalSigns))
	}
	if len(dataset.AdverseEvents) != wantVitals {
		t.Fatalf("expected one adverse event row per visit, got %d", len(dataset.AdverseEvents))
	}
	if len(dataset.TreatmentResponses) != wantVitals {
		t.Fatalf("expected one symptom assessment per visit, got %d", len(dataset.TreatmentResponses))
	}

	// Lab panels are mandatory on days 0, 28 and 84.
	labDays := map[string]map[int]bool{}
	for _, panel := range dataset.LabResults {
		if labDays[panel.PatientID] == nil {
			labDays[panel.PatientID] = map[int]bool{}
		}
		labDays[panel.PatientID][panel.VisitDay] = true
		if len(panel.LabResults) != len(sim.vocab.VisitLabRanges) {
			t.Fatalf("panel for %s day %d has %d tests", panel.PatientID, panel.VisitDay, len(panel.LabResults))
		}
	}
	for _, patient := range dataset.Patients {
		for _, day := range []int{0, 28, 84} {
			if !labDays[patient.PatientID][day] {
				t.Fatalf("patient %s missing mandatory lab draw on day %d", patient.PatientID, day)
			}
		}
	}
}

func TestSubjectProfileBMI(t *testing.T) {
	sim := NewTrialSimulator(Default(), 7)
	dataset := sim.GenerateTrialData(30)

	for _, subject := range dataset.Patients {
		heightM := float64(subject.HeightCm) / 100
		expected := roundTo(subject.WeightKg/(heightM*heightM), 1)
		if subject.BMI != expected {
			t.Fatalf("subject %s bmi %.1f, expected %.1f from weight %.1f height %d", subject.PatientID, subject.BMI, expected, subject.WeightKg, subject.HeightCm)
		}
	}
}

func TestSymptomCourseBaselineAndCaps(t *testing.T) {
	sim := NewTrialSimulator(Default(), 13)
	dataset := sim.GenerateTrialData(40)

	caps := map[string]float64{"Drug_A": 15, "Drug_B": 12, "Placebo": 8}
	armOf := map[string]string{}
	for _, subject := range dataset.Patients {
		armOf[subject.PatientID] = subject.TreatmentArm
	}

	for _, assessment := range dataset.TreatmentResponses {
		if assessment.VisitDay == 0 && assessment.ImprovementFromBaseline != 0 {
			t.Fatalf("day-zero improvement %.1f for %s", assessment.ImprovementFromBaseline, assessment.PatientID)
		}
		if assessment.SymptomScore < 0 {
			t.Fatalf("negative symptom score %.1f", assessment.SymptomScore)
		}
		limit := caps[armOf[assessment.PatientID]]
		if assessment.ImprovementFromBaseline > limit+0.05 {
			t.Fatalf("improvement %.1f exceeds %s cap %.1f", assessment.ImprovementFromBaseline, armOf[assessment.PatientID], limit)
		}
	}
}

func TestActiveArmImprovesMoreThanPlacebo(t *testing.T) {
	sim := NewTrialSimulator(Default(), 99)
	dataset := sim.GenerateTrialData(300)

	armOf := map[string]string{}
	for _, subject := range dataset.Patients {
		armOf[subject.PatientID] = subject.TreatmentArm
	}

	sums := map[string]float64{}
	counts := map[string]int{}
	for _, assessment := range dataset.TreatmentResponses {
		if assessment.VisitDay != 84 {
			continue
		}
		arm := armOf[assessment.PatientID]
		sums[arm] += assessment.ImprovementFromBaseline
		counts[arm]++
	}

	if counts["Drug_A"] == 0 || counts["Placebo"] == 0 {
		t.Fatal("expected both Drug_A and Placebo subjects in a 300-patient trial")
	}
	drugA := sums["Drug_A"] / float64(counts["Drug_A"])
	placebo := sums["Placebo"] / float64(counts["Placebo"])
	if drugA <= placebo {
		t.Fatalf("Drug_A mean improvement %.2f not above placebo %.2f", drugA, placebo)
	}
}

func TestVisitAdverseEventSentinel(t *testing.T) {
	sim := NewTrialSimulator(Default(), 5)
	dataset := sim.GenerateTrialData(50)

	sawNone, sawEvent := false, false
	for _, event := range dataset.AdverseEvents {
		if event.AdverseEvent == "None" {
			if event.Severity != "" || event.RelatedToTreatment {
				t.Fatalf("sentinel row carries event fields: %+v", event)
			}
			sawNone = true
			continue
		}
		if event.Severity != "Mild" && event.Severity != "Moderate" && event.Severity != "Severe" {
			t.Fatalf("unexpected severity %q", event.Severity)
		}
		sawEvent = true
	}
	if !sawNone || !sawEvent {
		t.Fatalf("expected both sentinel and real adverse event rows (none=%v event=%v)", sawNone, sawEvent)
	}
}
