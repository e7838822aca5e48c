package simulator

import (
	"math"
	"testing"
)

func newTestPatientSimulator(seed int64) *PatientSimulator {
	return NewPatientSimulator(Default(), seed)
}

func TestGenerateDemographicsBounds(t *testing.T) {
	sim := newTestPatientSimulator(42)

	for i := 0; i < 200; i++ {
		demo := sim.GenerateDemographics()

		if demo.Age < 18 || demo.Age > 85 {
			t.Fatalf("age %d out of range", demo.Age)
		}
		if demo.Gender != "Male" && demo.Gender != "Female" {
			t.Fatalf("unexpected gender %q", demo.Gender)
		}
		if demo.Gender == "Male" {
			if demo.Weight < 60 || demo.Weight > 100 {
				t.Fatalf("male weight %.1f out of range", demo.Weight)
			}
			if demo.Height < 165 || demo.Height > 190 {
				t.Fatalf("male height %.1f out of range", demo.Height)
			}
		} else {
			if demo.Weight < 50 || demo.Weight > 85 {
				t.Fatalf("female weight %.1f out of range", demo.Weight)
			}
			if demo.Height < 150 || demo.Height > 175 {
				t.Fatalf("female height %.1f out of range", demo.Height)
			}
		}

		heightM := demo.Height / 100
		expected := roundTo(demo.Weight/(heightM*heightM), 1)
		if math.Abs(demo.BMI-expected) > 0.05 {
			t.Fatalf("bmi %.1f does not match weight %.1f height %.1f (expected %.1f)", demo.BMI, demo.Weight, demo.Height, expected)
		}
	}
}

func TestGenerateLabResultsAbnormalFlag(t *testing.T) {
	sim := newTestPatientSimulator(7)
	demo := sim.GenerateDemographics()

	abnormal := 0
	for i := 0; i < 100; i++ {
		results := sim.GenerateLabResults(demo)
		if len(results) != len(sim.Vocab().LabPanel) {
			t.Fatalf("expected %d lab results, got %d", len(sim.Vocab().LabPanel), len(results))
		}
		for _, lab := range results {
			if lab.TestValue < 0 {
				t.Fatalf("%s: negative value %.2f", lab.TestName, lab.TestValue)
			}
			outside := lab.TestValue < lab.NormalMin || lab.TestValue > lab.NormalMax
			if lab.IsAbnormal != outside {
				t.Fatalf("%s: is_abnormal=%v but value %.2f against [%.2f, %.2f]", lab.TestName, lab.IsAbnormal, lab.TestValue, lab.NormalMin, lab.NormalMax)
			}
			if lab.IsAbnormal {
				abnormal++
			}
		}
	}
	if abnormal == 0 {
		t.Fatal("expected some abnormal lab values across 100 panels")
	}
}

func TestSimulateTreatmentResponseClamp(t *testing.T) {
	sim := newTestPatientSimulator(11)

	for i := 0; i < 300; i++ {
		demo := sim.GenerateDemographics()
		resp := sim.SimulateTreatmentResponse(demo, "Metformin")

		if resp.EfficacyScore < 0.1 || resp.EfficacyScore > 0.95 {
			t.Fatalf("efficacy %.2f outside clamp", resp.EfficacyScore)
		}
		if got := ResponseCategory(resp.EfficacyScore); got != resp.ResponseCategory {
			t.Fatalf("category %q does not match score %.2f (expected %q)", resp.ResponseCategory, resp.EfficacyScore, got)
		}
		if resp.SideEffects == nil {
			t.Fatal("side effects must be an empty slice, not nil")
		}
		if len(resp.SideEffects) > 3 {
			t.Fatalf("too many side effects: %d", len(resp.SideEffects))
		}
		if resp.TreatmentDurationDays < 30 || resp.TreatmentDurationDays > 180 {
			t.Fatalf("duration %d out of range", resp.TreatmentDurationDays)
		}
	}
}

func TestResponseCategoryBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.95, "Good"},
		{0.71, "Good"},
		{0.7, "Moderate"},
		{0.41, "Moderate"},
		{0.4, "Poor"},
		{0.1, "Poor"},
	}
	for _, tc := range cases {
		if got := ResponseCategory(tc.score); got != tc.want {
			t.Fatalf("ResponseCategory(%.2f) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestGenerateAdverseEventsTierOrder(t *testing.T) {
	sim := newTestPatientSimulator(23)
	rank := map[string]int{"Mild": 0, "Moderate": 1, "Severe": 2}

	sawEvents := false
	for i := 0; i < 500; i++ {
		demo := sim.GenerateDemographics()
		events := sim.GenerateAdverseEvents(demo, "Lisinopril")
		if len(events) > 3 {
			t.Fatalf("more events than severity tiers: %d", len(events))
		}
		for j := 1; j < len(events); j++ {
			if rank[events[j].Severity] <= rank[events[j-1].Severity] {
				t.Fatalf("severities out of order: %v", events)
			}
		}
		if len(events) > 0 {
			sawEvents = true
		}
	}
	if !sawEvents {
		t.Fatal("expected at least one adverse event across 500 patients")
	}
}

func TestGeneratePatientDataset(t *testing.T) {
	sim := newTestPatientSimulator(99)

	if got := sim.GeneratePatientDataset(0); len(got) != 0 {
		t.Fatalf("expected empty dataset for zero patients, got %d", len(got))
	}

	dataset := sim.GeneratePatientDataset(10)
	if len(dataset) != 10 {
		t.Fatalf("expected 10 patients, got %d", len(dataset))
	}

	seen := map[string]bool{}
	for _, patient := range dataset {
		if seen[patient.PatientID] {
			t.Fatalf("duplicate patient id %s", patient.PatientID)
		}
		seen[patient.PatientID] = true

		treatments := sim.Vocab().Treatments[patient.Condition]
		found := false
		for _, treatment := range treatments {
			if treatment == patient.TreatmentResponse.Treatment {
				found = true
			}
		}
		if !found {
			t.Fatalf("treatment %q not valid for condition %q", patient.TreatmentResponse.Treatment, patient.Condition)
		}
		if len(patient.LabResults) < 5 {
			t.Fatalf("patient %s has %d lab results, want at least 5", patient.PatientID, len(patient.LabResults))
		}
		if patient.CreatedAt.IsZero() {
			t.Fatalf("patient %s missing created_at", patient.PatientID)
		}
	}
}

func TestSeededReproducibility(t *testing.T) {
	a := newTestPatientSimulator(1234).GeneratePatientDataset(5)
	b := newTestPatientSimulator(1234).GeneratePatientDataset(5)

	if len(a) != len(b) {
		t.Fatalf("dataset lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].PatientID != b[i].PatientID {
			t.Fatalf("patient %d ids differ: %s vs %s", i, a[i].PatientID, b[i].PatientID)
		}
		if a[i].TreatmentResponse.EfficacyScore != b[i].TreatmentResponse.EfficacyScore {
			t.Fatalf("patient %d efficacy differs: %v vs %v", i, a[i].TreatmentResponse.EfficacyScore, b[i].TreatmentResponse.EfficacyScore)
		}
		if len(a[i].LabResults) != len(b[i].LabResults) {
			t.Fatalf("patient %d lab counts differ", i)
		}
		for j := range a[i].LabResults {
			if a[i].LabResults[j].TestValue != b[i].LabResults[j].TestValue {
				t.Fatalf("patient %d lab %d values differ", i, j)
			}
		}
	}
}
