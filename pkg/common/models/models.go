package models

import (
	"time"
)

// Patient dataset models
type Demographics struct {
	PatientID string  `json:"patient_id"`
	Age       int     `json:"age"`
	Gender    string  `json:"gender"`
	Weight    float64 `json:"weight"`
	Height    float64 `json:"height"`
	BMI       float64 `json:"bmi"`
	Condition string  `json:"condition"`
}

type LabResult struct {
	TestName   string  `json:"test_name"`
	TestValue  float64 `json:"test_value"`
	NormalMin  float64 `json:"normal_min"`
	NormalMax  float64 `json:"normal_max"`
	Unit       string  `json:"unit"`
	IsAbnormal bool    `json:"is_abnormal"`
	TestDate   string  `json:"test_date"` // YYYY-MM-DD
}

type TreatmentResponse struct {
	Treatment             string   `json:"treatment"`
	EfficacyScore         float64  `json:"efficacy_score"`
	ResponseCategory      string   `json:"response_category"` // Good, Moderate, Poor
	SideEffects           []string `json:"side_effects"`
	TreatmentDurationDays int      `json:"treatment_duration_days"`
}

type AdverseEvent struct {
	EventType   string `json:"event_type"`
	Severity    string `json:"severity"` // Mild, Moderate, Severe
	Description string `json:"description"`
	Resolved    bool   `json:"resolved"`
	EventDate   string `json:"event_date"` // YYYY-MM-DD
}

type PatientRecord struct {
	PatientID         string            `json:"patient_id"`
	Age               int               `json:"age"`
	Gender            string            `json:"gender"`
	Weight            float64           `json:"weight"`
	Height            float64           `json:"height"`
	BMI               float64           `json:"bmi"`
	Condition         string            `json:"condition"`
	LabResults        []LabResult       `json:"lab_results"`
	TreatmentResponse TreatmentResponse `json:"treatment_response"`
	AdverseEvents     []AdverseEvent    `json:"adverse_events"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Trial design models
type TrialDesignRequest struct {
	Design          string  `json:"design"`
	Alpha           float64 `json:"alpha"`
	Power           float64 `json:"power"`
	EffectSize      float64 `json:"effect_size"`
	DurationWeeks   int     `json:"duration_weeks"`
	PrimaryEndpoint string  `json:"primary_endpoint"`
}

type TrialDesign struct {
	TrialID           string                 `json:"trial_id"`
	DesignType        string                 `json:"design_type"`
	SampleSize        int                    `json:"sample_size"`
	PrimaryEndpoint   string                 `json:"primary_endpoint"`
	DurationWeeks     int                    `json:"duration_weeks"`
	Arms              int                    `json:"arms"`
	InclusionCriteria []string               `json:"inclusion_criteria"`
	ExclusionCriteria []string               `json:"exclusion_criteria"`
	StatisticalPlan   map[string]interface{} `json:"statistical_plan"`
}

// Longitudinal trial models
type SubjectProfile struct {
	PatientID      string   `json:"patient_id"`
	Age            int      `json:"age"`
	Gender         string   `json:"gender"`
	WeightKg       float64  `json:"weight_kg"`
	HeightCm       int      `json:"height_cm"`
	BMI            float64  `json:"bmi"`
	Ethnicity      string   `json:"ethnicity"`
	MedicalHistory []string `json:"medical_history"`
	ScreeningDate  string   `json:"screening_date"` // YYYY-MM-DD
	SiteID         string   `json:"site_id"`
	TreatmentArm   string   `json:"treatment_arm"`
}

type BloodPressure struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
}

type VitalSigns struct {
	PatientID       string        `json:"patient_id"`
	VisitDay        int           `json:"visit_day"`
	BloodPressure   BloodPressure `json:"blood_pressure"`
	HeartRate       int           `json:"heart_rate"`
	TemperatureC    float64       `json:"temperature_c"`
	RespiratoryRate int           `json:"respiratory_rate"`
}

type VisitLabPanel struct {
	PatientID           string             `json:"patient_id"`
	VisitDay            int                `json:"visit_day"`
	LabResults          map[string]float64 `json:"lab_results"`
	CollectionTimestamp string             `json:"collection_timestamp"` // RFC 3339
}

type VisitAdverseEvent struct {
	PatientID          string `json:"patient_id"`
	VisitDay           int    `json:"visit_day"`
	AdverseEvent       string `json:"adverse_event"` // event name or "None"
	Severity           string `json:"severity,omitempty"`
	RelatedToTreatment bool   `json:"related_to_treatment"`
	ActionTaken        string `json:"action_taken"`
}

type SymptomAssessment struct {
	PatientID                    string  `json:"patient_id"`
	VisitDay                     int     `json:"visit_day"`
	SymptomScore                 float64 `json:"symptom_score"`
	ImprovementFromBaseline      float64 `json:"improvement_from_baseline"`
	PatientGlobalImpression      string  `json:"patient_global_impression"`
	InvestigatorGlobalImpression string  `json:"investigator_global_impression"`
}

type TrialMetadata struct {
	SimulationDate    string   `json:"simulation_date"` // RFC 3339
	NumberOfPatients  int      `json:"number_of_patients"`
	NumberOfSites     int      `json:"number_of_sites"`
	TreatmentArms     []string `json:"treatment_arms"`
	StudyDurationDays int      `json:"study_duration_days"`
}

type TrialDataset struct {
	Patients           []SubjectProfile    `json:"patients"`
	LabResults         []VisitLabPanel     `json:"lab_results"`
	VitalSigns         []VitalSigns        `json:"vital_signs"`
	AdverseEvents      []VisitAdverseEvent `json:"adverse_events"`
	TreatmentResponses []SymptomAssessment `json:"treatment_responses"`
	Metadata           TrialMetadata       `json:"trial_metadata"`
}

// Validation models
type PatientValidationError struct {
	PatientIndex int      `json:"patient_index"`
	PatientID    string   `json:"patient_id"`
	Errors       []string `json:"errors"`
}

type SummaryStats struct {
	MeanAge               float64        `json:"mean_age"`
	MeanBMI               float64        `json:"mean_bmi"`
	AgeRange              string         `json:"age_range"`
	ConditionDistribution map[string]int `json:"condition_distribution"`
}

type DatasetValidation struct {
	TotalPatients   int                      `json:"total_patients"`
	ValidPatients   int                      `json:"valid_patients"`
	InvalidPatients int                      `json:"invalid_patients"`
	Errors          []PatientValidationError `json:"errors"`
	SummaryStats    SummaryStats             `json:"summary_stats"`
}

type QualityReport struct {
	CompletenessScore   float64 `json:"completeness_score"`
	ValidityScore       float64 `json:"validity_score"`
	OverallQualityScore float64 `json:"overall_quality_score"`
}

// Statistics models
type TTestRequest struct {
	Data           []float64 `json:"data"`
	ReferenceValue float64   `json:"reference_value"`
	Alpha          float64   `json:"alpha"`
}

type TTestResult struct {
	TestType    string  `json:"test_type"`
	TStatistic  float64 `json:"t_statistic"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
	Alpha       float64 `json:"alpha"`
	SampleSize  int     `json:"sample_size"`
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
}

type AnovaResult struct {
	TestType   string             `json:"test_type"`
	FStatistic float64            `json:"f_statistic"`
	PValue     float64            `json:"p_value"`
	Groups     []string           `json:"groups"`
	GroupMeans map[string]float64 `json:"group_means"`
	GroupStds  map[string]float64 `json:"group_stds"`
}

type CorrelationRequest struct {
	XData []float64 `json:"x_data"`
	YData []float64 `json:"y_data"`
}

type CorrelationResult struct {
	TestType       string  `json:"test_type"`
	Correlation    float64 `json:"correlation"`
	PValue         float64 `json:"p_value"`
	SampleSize     int     `json:"sample_size"`
	Interpretation string  `json:"interpretation"`
}

// Event bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // dataset_generated, trial_designed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}
