package simulator

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LabTest describes one panel entry. AbnormalSkew is the direction a value
// moves when the abnormality branch fires: "high" or "low".
type LabTest struct {
	Name         string  `yaml:"name" json:"name"`
	NormalMin    float64 `yaml:"normal_min" json:"normal_min"`
	NormalMax    float64 `yaml:"normal_max" json:"normal_max"`
	Unit         string  `yaml:"unit" json:"unit"`
	AbnormalSkew string  `yaml:"abnormal_skew" json:"abnormal_skew"`
}

// Vocabulary holds every fixed enumeration the generators draw from.
// Loaded once at startup; tests substitute smaller tables.
type Vocabulary struct {
	Conditions  []string            `yaml:"conditions" json:"conditions"`
	Treatments  map[string][]string `yaml:"treatments" json:"treatments"`
	LabPanel    []LabTest           `yaml:"lab_panel" json:"lab_panel"`
	SideEffects []string            `yaml:"side_effects" json:"side_effects"`

	// Adverse-event names keyed by severity tier. Tier iteration order is
	// fixed by SeverityTiers, not map order.
	AdverseEvents map[string][]string `yaml:"adverse_events" json:"adverse_events"`

	TrialArms   []string `yaml:"trial_arms" json:"trial_arms"`
	Ethnicities []string `yaml:"ethnicities" json:"ethnicities"`
	Impressions []string `yaml:"impressions" json:"impressions"`
	AEActions   []string `yaml:"ae_actions" json:"ae_actions"`

	// Per-visit lab draws for the longitudinal trial. ElevatedWhenAbnormal
	// names the tests that shift high; everything else shifts low.
	VisitLabRanges       map[string][2]float64 `yaml:"visit_lab_ranges" json:"visit_lab_ranges"`
	ElevatedWhenAbnormal []string              `yaml:"elevated_when_abnormal" json:"elevated_when_abnormal"`
}

// SeverityTiers fixes the evaluation order for adverse-event generation.
// The risk-halving in the generator is cumulative, so this order matters.
var SeverityTiers = []string{"Mild", "Moderate", "Severe"}

func Load(path string) (Vocabulary, error) {
	if path == "" {
		return Default(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Vocabulary{}, err
	}
	var vocab Vocabulary
	if err := yaml.Unmarshal(content, &vocab); err != nil {
		return Vocabulary{}, err
	}
	if err := vocab.Validate(); err != nil {
		return Vocabulary{}, err
	}
	return vocab, nil
}

// Validate enforces the hard contracts downstream code relies on, most
// importantly the minimum panel size the validator checks against.
func (v Vocabulary) Validate() error {
	if len(v.Conditions) == 0 {
		return fmt.Errorf("vocabulary has no conditions")
	}
	if len(v.LabPanel) < 5 {
		return fmt.Errorf("lab panel must have at least 5 tests, got %d", len(v.LabPanel))
	}
	for _, test := range v.LabPanel {
		if test.NormalMin >= test.NormalMax {
			return fmt.Errorf("lab test %q has invalid normal range %v-%v", test.Name, test.NormalMin, test.NormalMax)
		}
	}
	for _, condition := range v.Conditions {
		if len(v.Treatments[condition]) == 0 {
			return fmt.Errorf("condition %q has no treatments", condition)
		}
	}
	for _, tier := range SeverityTiers {
		if len(v.AdverseEvents[tier]) == 0 {
			return fmt.Errorf("severity tier %q has no adverse events", tier)
		}
	}
	return nil
}

func Default() Vocabulary {
	return Vocabulary{
		Conditions: []string{"Hypertension", "Diabetes Type 2", "Asthma", "Arthritis", "Migraine"},
		Treatments: map[string][]string{
			"Hypertension":    {"Lisinopril", "Amlodipine", "Losartan"},
			"Diabetes Type 2": {"Metformin", "Glipizide", "Insulin Glargine"},
			"Asthma":          {"Albuterol", "Fluticasone", "Montelukast"},
			"Arthritis":       {"Ibuprofen", "Methotrexate", "Celecoxib"},
			"Migraine":        {"Sumatriptan", "Propranolol", "Topiramate"},
		},
		LabPanel: []LabTest{
			{Name: "WBC", NormalMin: 4.5, NormalMax: 11.0, Unit: "10^3/uL", AbnormalSkew: "high"},
			{Name: "Hemoglobin", NormalMin: 12.0, NormalMax: 17.5, Unit: "g/dL", AbnormalSkew: "low"},
			{Name: "Sodium", NormalMin: 135.0, NormalMax: 145.0, Unit: "mmol/L", AbnormalSkew: "low"},
			{Name: "Creatinine", NormalMin: 0.6, NormalMax: 1.2, Unit: "mg/dL", AbnormalSkew: "high"},
			{Name: "ALT", NormalMin: 10.0, NormalMax: 40.0, Unit: "U/L", AbnormalSkew: "high"},
			{Name: "Fasting Glucose", NormalMin: 70.0, NormalMax: 100.0, Unit: "mg/dL", AbnormalSkew: "high"},
		},
		SideEffects: []string{"Headache", "Nausea", "Fatigue", "Dizziness", "Dry mouth", "Insomnia"},
		AdverseEvents: map[string][]string{
			"Mild":     {"Headache", "Nausea", "Fatigue", "Rash"},
			"Moderate": {"Dizziness", "Vomiting", "Palpitations", "Joint pain"},
			"Severe":   {"Syncope", "Hepatotoxicity", "Arrhythmia"},
		},
		TrialArms:   []string{"Drug_A", "Drug_B", "Placebo"},
		Ethnicities: []string{"Caucasian", "African American", "Asian", "Hispanic"},
		Impressions: []string{"Very much improved", "Much improved", "Minimally improved", "No change", "Worse"},
		AEActions:   []string{"None", "Dose reduced", "Treatment interrupted", "Treatment discontinued"},
		VisitLabRanges: map[string][2]float64{
			"hdl_cholesterol": {40, 60},
			"ldl_cholesterol": {70, 130},
			"triglycerides":   {70, 150},
			"fasting_glucose": {70, 100},
			"hemoglobin_a1c":  {4.5, 6.5},
			"creatinine":      {0.6, 1.2},
			"alt":             {10, 40},
			"ast":             {10, 35},
		},
		ElevatedWhenAbnormal: []string{"ldl_cholesterol", "triglycerides", "fasting_glucose", "hemoglobin_a1c"},
	}
}
