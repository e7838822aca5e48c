package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/clinsim-ai/trialsim/pkg/common/models"
)

// PatientsJSON writes the full nested dataset, pretty-printed.
func PatientsJSON(path string, dataset []models.PatientRecord) error {
	return writeJSON(path, dataset)
}

// PatientsCSV writes one flattened row per patient. Treatment fields are
// promoted to scalar columns; labs and events are reduced to counts.
func PatientsCSV(path string, dataset []models.PatientRecord) error {
	rows := [][]string{{
		"patient_id", "age", "gender", "weight", "height", "bmi", "condition",
		"treatment", "efficacy_score", "response_category", "treatment_duration_days",
		"lab_test_count", "abnormal_lab_count", "adverse_event_count", "created_at",
	}}

	for _, p := range dataset {
		abnormal := 0
		for _, lab := range p.LabResults {
			if lab.IsAbnormal {
				abnormal++
			}
		}
		rows = append(rows, []string{
			p.PatientID,
			strconv.Itoa(p.Age),
			p.Gender,
			formatFloat(p.Weight),
			formatFloat(p.Height),
			formatFloat(p.BMI),
			p.Condition,
			p.TreatmentResponse.Treatment,
			formatFloat(p.TreatmentResponse.EfficacyScore),
			p.TreatmentResponse.ResponseCategory,
			strconv.Itoa(p.TreatmentResponse.TreatmentDurationDays),
			strconv.Itoa(len(p.LabResults)),
			strconv.Itoa(abnormal),
			strconv.Itoa(len(p.AdverseEvents)),
			p.CreatedAt.Format(time.RFC3339),
		})
	}

	return writeCSV(path, rows)
}

// TrialJSON writes the complete longitudinal dataset, pretty-printed.
func TrialJSON(path string, data models.TrialDataset) error {
	return writeJSON(path, data)
}

// TrialCSVs writes one CSV per entity set under dir, mirroring the flat
// row shape the storage collaborator consumes.
func TrialCSVs(dir string, data models.TrialDataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := writeCSV(filepath.Join(dir, "patients.csv"), subjectRows(data.Patients)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, "lab_results.csv"), visitLabRows(data.LabResults)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, "vital_signs.csv"), vitalRows(data.VitalSigns)); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, "adverse_events.csv"), visitAERows(data.AdverseEvents)); err != nil {
		return err
	}
	return writeCSV(filepath.Join(dir, "treatment_responses.csv"), assessmentRows(data.TreatmentResponses))
}

func subjectRows(subjects []models.SubjectProfile) [][]string {
	rows := [][]string{{
		"patient_id", "age", "gender", "weight_kg", "height_cm", "bmi",
		"ethnicity", "medical_history", "screening_date", "site_id", "treatment_arm",
	}}
	for _, s := range subjects {
		rows = append(rows, []string{
			s.PatientID,
			strconv.Itoa(s.Age),
			s.Gender,
			formatFloat(s.WeightKg),
			strconv.Itoa(s.HeightCm),
			formatFloat(s.BMI),
			s.Ethnicity,
			strings.Join(s.MedicalHistory, ";"),
			s.ScreeningDate,
			s.SiteID,
			s.TreatmentArm,
		})
	}
	return rows
}

func visitLabRows(panels []models.VisitLabPanel) [][]string {
	testNames := map[string]bool{}
	for _, panel := range panels {
		for name := range panel.LabResults {
			testNames[name] = true
		}
	}
	sorted := make([]string, 0, len(testNames))
	for name := range testNames {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	header := append([]string{"patient_id", "visit_day"}, sorted...)
	header = append(header, "collection_timestamp")
	rows := [][]string{header}

	for _, panel := range panels {
		row := []string{panel.PatientID, strconv.Itoa(panel.VisitDay)}
		for _, name := range sorted {
			if value, ok := panel.LabResults[name]; ok {
				row = append(row, formatFloat(value))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, panel.CollectionTimestamp)
		rows = append(rows, row)
	}
	return rows
}

func vitalRows(vitals []models.VitalSigns) [][]string {
	rows := [][]string{{
		"patient_id", "visit_day", "systolic", "diastolic",
		"heart_rate", "temperature_c", "respiratory_rate",
	}}
	for _, v := range vitals {
		rows = append(rows, []string{
			v.PatientID,
			strconv.Itoa(v.VisitDay),
			strconv.Itoa(v.BloodPressure.Systolic),
			strconv.Itoa(v.BloodPressure.Diastolic),
			strconv.Itoa(v.HeartRate),
			formatFloat(v.TemperatureC),
			strconv.Itoa(v.RespiratoryRate),
		})
	}
	return rows
}

func visitAERows(events []models.VisitAdverseEvent) [][]string {
	rows := [][]string{{
		"patient_id", "visit_day", "adverse_event", "severity",
		"related_to_treatment", "action_taken",
	}}
	for _, e := range events {
		rows = append(rows, []string{
			e.PatientID,
			strconv.Itoa(e.VisitDay),
			e.AdverseEvent,
			e.Severity,
			strconv.FormatBool(e.RelatedToTreatment),
			e.ActionTaken,
		})
	}
	return rows
}

func assessmentRows(assessments []models.SymptomAssessment) [][]string {
	rows := [][]string{{
		"patient_id", "visit_day", "symptom_score", "improvement_from_baseline",
		"patient_global_impression", "investigator_global_impression",
	}}
	for _, a := range assessments {
		rows = append(rows, []string{
			a.PatientID,
			strconv.Itoa(a.VisitDay),
			formatFloat(a.SymptomScore),
			formatFloat(a.ImprovementFromBaseline),
			a.PatientGlobalImpression,
			a.InvestigatorGlobalImpression,
		})
	}
	return rows
}

func writeJSON(path string, payload interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export payload: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
