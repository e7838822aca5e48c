package validator

import (
	"fmt"
	"math"
	"sort"

	"github.com/clinsim-ai/trialsim/pkg/common/models"
	"gonum.org/v1/gonum/stat"
)

// Record is the loose, field-keyed view validation runs against. Using a
// map rather than the typed record lets externally supplied datasets with
// missing or extra fields be checked the same way as generated ones.
type Record map[string]interface{}

type scalarRule struct {
	Min float64
	Max float64
}

// Validator re-checks records against the same range and consistency
// rules the generators honor. All methods are pure: input is never
// mutated, and validation findings are returned as data, not errors.
type Validator struct {
	scalarRules map[string]scalarRule
	// requiredFields fixes the field iteration order so error lists are
	// deterministic.
	requiredFields []string
	minLabTests    int
}

func New() *Validator {
	return &Validator{
		scalarRules: map[string]scalarRule{
			"age":    {Min: 18, Max: 100},
			"weight": {Min: 30, Max: 200},
			"height": {Min: 140, Max: 210},
			"bmi":    {Min: 15, Max: 50},
		},
		requiredFields: []string{"age", "weight", "height", "bmi", "lab_results"},
		minLabTests:    5,
	}
}

// ValidatePatient checks one record: every required field present, every
// present scalar inside its range, and the lab panel well formed. It
// returns whether the record passed and the full list of findings.
func (v *Validator) ValidatePatient(record Record) (bool, []string) {
	errors := []string{}

	for _, field := range v.requiredFields {
		value, present := record[field]
		if !present {
			errors = append(errors, fmt.Sprintf("Missing required field: %s", field))
			continue
		}
		if field == "lab_results" {
			continue
		}
		rule := v.scalarRules[field]
		if number, ok := numeric(value); ok {
			if number < rule.Min || number > rule.Max {
				errors = append(errors, fmt.Sprintf("%s out of range: %v", field, value))
			}
		} else {
			errors = append(errors, fmt.Sprintf("%s is not numeric: %v", field, value))
		}
	}

	if raw, present := record["lab_results"]; present {
		errors = append(errors, v.ValidateLabResults(labEntries(raw))...)
	}

	return len(errors) == 0, errors
}

// ValidateLabResults checks panel size, required keys per entry,
// non-negative values, and strict normal_min < normal_max.
func (v *Validator) ValidateLabResults(labs []Record) []string {
	errors := []string{}

	if len(labs) < v.minLabTests {
		errors = append(errors, fmt.Sprintf("Insufficient lab tests: %d", len(labs)))
	}

	requiredLabFields := []string{"test_name", "test_value", "normal_min", "normal_max", "unit"}
	for i, lab := range labs {
		for _, field := range requiredLabFields {
			if _, present := lab[field]; !present {
				errors = append(errors, fmt.Sprintf("Lab result %d missing field: %s", i, field))
			}
		}

		value, hasValue := numeric(lab["test_value"])
		min, hasMin := numeric(lab["normal_min"])
		max, hasMax := numeric(lab["normal_max"])
		if hasValue && hasMin && hasMax {
			if value < 0 {
				errors = append(errors, fmt.Sprintf("Lab value cannot be negative: %v", value))
			}
			if min >= max {
				errors = append(errors, fmt.Sprintf("Invalid normal range: %v-%v", min, max))
			}
		}
	}

	return errors
}

// ValidateDataset validates every record and aggregates counts, per-record
// findings, and dataset summary statistics. An empty dataset yields zeroed
// counts and empty summary stats.
func (v *Validator) ValidateDataset(dataset []Record) models.DatasetValidation {
	result := models.DatasetValidation{
		TotalPatients: len(dataset),
		Errors:        []models.PatientValidationError{},
	}

	for i, record := range dataset {
		valid, errors := v.ValidatePatient(record)
		if valid {
			result.ValidPatients++
			continue
		}
		result.InvalidPatients++
		result.Errors = append(result.Errors, models.PatientValidationError{
			PatientIndex: i,
			PatientID:    stringField(record, "patient_id", "Unknown"),
			Errors:       errors,
		})
	}

	if len(dataset) > 0 {
		result.SummaryStats = v.summarize(dataset)
	}

	return result
}

func (v *Validator) summarize(dataset []Record) models.SummaryStats {
	var ages, bmis []float64
	for _, record := range dataset {
		if age, ok := numeric(record["age"]); ok && age != 0 {
			ages = append(ages, age)
		}
		if bmi, ok := numeric(record["bmi"]); ok && bmi != 0 {
			bmis = append(bmis, bmi)
		}
	}

	stats := models.SummaryStats{
		AgeRange:              "N/A",
		ConditionDistribution: conditionDistribution(dataset),
	}
	if len(ages) > 0 {
		stats.MeanAge = roundTo(stat.Mean(ages, nil), 1)
		sorted := append([]float64(nil), ages...)
		sort.Float64s(sorted)
		stats.AgeRange = fmt.Sprintf("%v-%v", sorted[0], sorted[len(sorted)-1])
	}
	if len(bmis) > 0 {
		stats.MeanBMI = roundTo(stat.Mean(bmis, nil), 1)
	}
	return stats
}

func conditionDistribution(dataset []Record) map[string]int {
	distribution := make(map[string]int)
	for _, record := range dataset {
		distribution[stringField(record, "condition", "Unknown")]++
	}
	return distribution
}

// CheckDataQuality scores the dataset: completeness is the fraction of
// required scalar fields present across all records, validity the
// fraction of present scalars inside their range, overall their mean.
// All three land in [0, 100]; empty denominators score 0, not NaN.
func (v *Validator) CheckDataQuality(dataset []Record) models.QualityReport {
	var totalFields, missingFields, rangeChecks, validRanges int

	for _, record := range dataset {
		for field, rule := range v.scalarRules {
			totalFields++
			value, present := record[field]
			if !present {
				missingFields++
				continue
			}
			rangeChecks++
			if number, ok := numeric(value); ok && number >= rule.Min && number <= rule.Max {
				validRanges++
			}
		}
	}

	var completeness, validity float64
	if totalFields > 0 {
		completeness = 1 - float64(missingFields)/float64(totalFields)
	}
	if rangeChecks > 0 {
		validity = float64(validRanges) / float64(rangeChecks)
	}

	return models.QualityReport{
		CompletenessScore:   roundTo(completeness*100, 2),
		ValidityScore:       roundTo(validity*100, 2),
		OverallQualityScore: roundTo((completeness+validity)/2*100, 2),
	}
}

// RecordFromPatient converts a typed record into the loose view the
// validation rules consume.
func RecordFromPatient(p models.PatientRecord) Record {
	labs := make([]Record, 0, len(p.LabResults))
	for _, lab := range p.LabResults {
		labs = append(labs, Record{
			"test_name":   lab.TestName,
			"test_value":  lab.TestValue,
			"normal_min":  lab.NormalMin,
			"normal_max":  lab.NormalMax,
			"unit":        lab.Unit,
			"is_abnormal": lab.IsAbnormal,
		})
	}
	return Record{
		"patient_id":  p.PatientID,
		"age":         p.Age,
		"gender":      p.Gender,
		"weight":      p.Weight,
		"height":      p.Height,
		"bmi":         p.BMI,
		"condition":   p.Condition,
		"lab_results": labs,
	}
}

// RecordsFromPatients converts a typed dataset into loose views.
func RecordsFromPatients(patients []models.PatientRecord) []Record {
	records := make([]Record, 0, len(patients))
	for _, p := range patients {
		records = append(records, RecordFromPatient(p))
	}
	return records
}

func labEntries(raw interface{}) []Record {
	switch labs := raw.(type) {
	case []Record:
		return labs
	case []map[string]interface{}:
		entries := make([]Record, 0, len(labs))
		for _, lab := range labs {
			entries = append(entries, Record(lab))
		}
		return entries
	case []interface{}:
		entries := make([]Record, 0, len(labs))
		for _, item := range labs {
			if lab, ok := item.(map[string]interface{}); ok {
				entries = append(entries, Record(lab))
			} else {
				entries = append(entries, Record{})
			}
		}
		return entries
	default:
		return nil
	}
}

func numeric(value interface{}) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func stringField(record Record, key, fallback string) string {
	if s, ok := record[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
