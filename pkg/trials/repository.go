package trials

import (
	"context"
	"encoding/json"
	"time"

	"github.com/clinsim-ai/trialsim/pkg/common/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type patientModel struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id"`
	PatientID string    `gorm:"column:patient_id;uniqueIndex"`
	Age       int       `gorm:"column:age"`
	Gender    string    `gorm:"column:gender"`
	Weight    float64   `gorm:"column:weight"`
	Height    float64   `gorm:"column:height"`
	BMI       float64   `gorm:"column:bmi"`
	Condition string    `gorm:"column:condition"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (patientModel) TableName() string { return "patients" }

type labResultModel struct {
	ID         uuid.UUID `gorm:"primaryKey;column:id"`
	PatientID  uuid.UUID `gorm:"column:patient_id;index"`
	TestName   string    `gorm:"column:test_name"`
	TestValue  float64   `gorm:"column:test_value"`
	NormalMin  float64   `gorm:"column:normal_min"`
	NormalMax  float64   `gorm:"column:normal_max"`
	Unit       string    `gorm:"column:unit"`
	IsAbnormal bool      `gorm:"column:is_abnormal"`
	TestDate   string    `gorm:"column:test_date"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (labResultModel) TableName() string { return "lab_results" }

type treatmentModel struct {
	ID                    uuid.UUID      `gorm:"primaryKey;column:id"`
	PatientID             uuid.UUID      `gorm:"column:patient_id;index"`
	TreatmentName         string         `gorm:"column:treatment_name"`
	Dosage                float64        `gorm:"column:dosage"`
	Frequency             string         `gorm:"column:frequency"`
	EfficacyScore         float64        `gorm:"column:efficacy_score"`
	ResponseCategory      string         `gorm:"column:response_category"`
	SideEffects           datatypes.JSON `gorm:"column:side_effects"`
	TreatmentDurationDays int            `gorm:"column:treatment_duration_days"`
	CreatedAt             time.Time      `gorm:"column:created_at"`
}

func (treatmentModel) TableName() string { return "treatments" }

type adverseEventModel struct {
	ID          uuid.UUID `gorm:"primaryKey;column:id"`
	PatientID   uuid.UUID `gorm:"column:patient_id;index"`
	EventType   string    `gorm:"column:event_type"`
	Severity    string    `gorm:"column:severity"`
	Description string    `gorm:"column:description"`
	Resolved    bool      `gorm:"column:resolved"`
	EventDate   string    `gorm:"column:event_date"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (adverseEventModel) TableName() string { return "adverse_events" }

type trialDesignModel struct {
	ID                uuid.UUID      `gorm:"primaryKey;column:id"`
	TrialID           string         `gorm:"column:trial_id;uniqueIndex"`
	DesignType        string         `gorm:"column:design_type"`
	SampleSize        int            `gorm:"column:sample_size"`
	PrimaryEndpoint   string         `gorm:"column:primary_endpoint"`
	DurationWeeks     int            `gorm:"column:duration_weeks"`
	Arms              int            `gorm:"column:arms"`
	InclusionCriteria datatypes.JSON `gorm:"column:inclusion_criteria"`
	ExclusionCriteria datatypes.JSON `gorm:"column:exclusion_criteria"`
	StatisticalPlan   datatypes.JSON `gorm:"column:statistical_plan"`
	CreatedAt         time.Time      `gorm:"column:created_at"`
}

func (trialDesignModel) TableName() string { return "trial_designs" }

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&patientModel{},
		&labResultModel{},
		&treatmentModel{},
		&adverseEventModel{},
		&trialDesignModel{},
	)
}

// SavePatients persists a generated dataset: one patients row plus flat
// child rows per lab result and adverse event, all inside one
// transaction. Row identifiers are generated here, not by the simulator.
func (r *Repository) SavePatients(ctx context.Context, dataset []models.PatientRecord) error {
	if len(dataset) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, patient := range dataset {
			rowID := uuid.New()
			now := time.Now().UTC()

			row := &patientModel{
				ID:        rowID,
				PatientID: patient.PatientID,
				Age:       patient.Age,
				Gender:    patient.Gender,
				Weight:    patient.Weight,
				Height:    patient.Height,
				BMI:       patient.BMI,
				Condition: patient.Condition,
				CreatedAt: patient.CreatedAt,
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}

			for _, lab := range patient.LabResults {
				labRow := &labResultModel{
					ID:         uuid.New(),
					PatientID:  rowID,
					TestName:   lab.TestName,
					TestValue:  lab.TestValue,
					NormalMin:  lab.NormalMin,
					NormalMax:  lab.NormalMax,
					Unit:       lab.Unit,
					IsAbnormal: lab.IsAbnormal,
					TestDate:   lab.TestDate,
					CreatedAt:  now,
				}
				if err := tx.Create(labRow).Error; err != nil {
					return err
				}
			}

			response := patient.TreatmentResponse
			sideEffects, err := json.Marshal(response.SideEffects)
			if err != nil {
				return err
			}
			treatmentRow := &treatmentModel{
				ID:                    uuid.New(),
				PatientID:             rowID,
				TreatmentName:         response.Treatment,
				Dosage:                1.0,
				Frequency:             "once daily",
				EfficacyScore:         response.EfficacyScore,
				ResponseCategory:      response.ResponseCategory,
				SideEffects:           datatypes.JSON(sideEffects),
				TreatmentDurationDays: response.TreatmentDurationDays,
				CreatedAt:             now,
			}
			if err := tx.Create(treatmentRow).Error; err != nil {
				return err
			}

			for _, event := range patient.AdverseEvents {
				eventRow := &adverseEventModel{
					ID:          uuid.New(),
					PatientID:   rowID,
					EventType:   event.EventType,
					Severity:    event.Severity,
					Description: event.Description,
					Resolved:    event.Resolved,
					EventDate:   event.EventDate,
					CreatedAt:   now,
				}
				if err := tx.Create(eventRow).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ListPatients reassembles stored patients with their labs, treatment,
// and adverse events, newest first.
func (r *Repository) ListPatients(ctx context.Context, limit, offset int) ([]models.PatientRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var rows []patientModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}

	patients := make([]models.PatientRecord, 0, len(rows))
	for i := range rows {
		patient, err := r.buildPatient(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	return patients, nil
}

func (r *Repository) buildPatient(ctx context.Context, row *patientModel) (models.PatientRecord, error) {
	patient := models.PatientRecord{
		PatientID: row.PatientID,
		Age:       row.Age,
		Gender:    row.Gender,
		Weight:    row.Weight,
		Height:    row.Height,
		BMI:       row.BMI,
		Condition: row.Condition,
		CreatedAt: row.CreatedAt,
	}

	var labs []labResultModel
	if err := r.db.WithContext(ctx).Where("patient_id = ?", row.ID).Order("test_name").Find(&labs).Error; err != nil {
		return models.PatientRecord{}, err
	}
	for _, lab := range labs {
		patient.LabResults = append(patient.LabResults, models.LabResult{
			TestName:   lab.TestName,
			TestValue:  lab.TestValue,
			NormalMin:  lab.NormalMin,
			NormalMax:  lab.NormalMax,
			Unit:       lab.Unit,
			IsAbnormal: lab.IsAbnormal,
			TestDate:   lab.TestDate,
		})
	}

	var treatment treatmentModel
	if err := r.db.WithContext(ctx).Where("patient_id = ?", row.ID).First(&treatment).Error; err == nil {
		var sideEffects []string
		if len(treatment.SideEffects) > 0 {
			_ = json.Unmarshal(treatment.SideEffects, &sideEffects)
		}
		patient.TreatmentResponse = models.TreatmentResponse{
			Treatment:             treatment.TreatmentName,
			EfficacyScore:         treatment.EfficacyScore,
			ResponseCategory:      treatment.ResponseCategory,
			SideEffects:           sideEffects,
			TreatmentDurationDays: treatment.TreatmentDurationDays,
		}
	}

	var events []adverseEventModel
	if err := r.db.WithContext(ctx).Where("patient_id = ?", row.ID).Find(&events).Error; err != nil {
		return models.PatientRecord{}, err
	}
	for _, event := range events {
		patient.AdverseEvents = append(patient.AdverseEvents, models.AdverseEvent{
			EventType:   event.EventType,
			Severity:    event.Severity,
			Description: event.Description,
			Resolved:    event.Resolved,
			EventDate:   event.EventDate,
		})
	}

	return patient, nil
}

func (r *Repository) SaveTrialDesign(ctx context.Context, design models.TrialDesign) error {
	inclusion, err := json.Marshal(design.InclusionCriteria)
	if err != nil {
		return err
	}
	exclusion, err := json.Marshal(design.ExclusionCriteria)
	if err != nil {
		return err
	}
	plan, err := json.Marshal(design.StatisticalPlan)
	if err != nil {
		return err
	}

	row := &trialDesignModel{
		ID:                uuid.New(),
		TrialID:           design.TrialID,
		DesignType:        design.DesignType,
		SampleSize:        design.SampleSize,
		PrimaryEndpoint:   design.PrimaryEndpoint,
		DurationWeeks:     design.DurationWeeks,
		Arms:              design.Arms,
		InclusionCriteria: datatypes.JSON(inclusion),
		ExclusionCriteria: datatypes.JSON(exclusion),
		StatisticalPlan:   datatypes.JSON(plan),
		CreatedAt:         time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// AnalyticsSummary aggregates dataset-wide counts and distributions.
type AnalyticsSummary struct {
	TotalPatients         int            `json:"total_patients"`
	TotalTrialDesigns     int            `json:"total_trial_designs"`
	AbnormalLabResults    int            `json:"abnormal_lab_results"`
	TotalAdverseEvents    int            `json:"total_adverse_events"`
	ConditionDistribution map[string]int `json:"condition_distribution"`
	MeanEfficacyScore     float64        `json:"mean_efficacy_score"`
}

func (r *Repository) AnalyticsSummary(ctx context.Context) (AnalyticsSummary, error) {
	summary := AnalyticsSummary{ConditionDistribution: map[string]int{}}

	var patients, designs, abnormalLabs, events int64
	if err := r.db.WithContext(ctx).Model(&patientModel{}).Count(&patients).Error; err != nil {
		return summary, err
	}
	if err := r.db.WithContext(ctx).Model(&trialDesignModel{}).Count(&designs).Error; err != nil {
		return summary, err
	}
	if err := r.db.WithContext(ctx).Model(&labResultModel{}).Where("is_abnormal = ?", true).Count(&abnormalLabs).Error; err != nil {
		return summary, err
	}
	if err := r.db.WithContext(ctx).Model(&adverseEventModel{}).Count(&events).Error; err != nil {
		return summary, err
	}
	summary.TotalPatients = int(patients)
	summary.TotalTrialDesigns = int(designs)
	summary.AbnormalLabResults = int(abnormalLabs)
	summary.TotalAdverseEvents = int(events)

	var conditions []struct {
		Condition string
		Count     int
	}
	if err := r.db.WithContext(ctx).Model(&patientModel{}).
		Select("condition, COUNT(*) AS count").
		Group("condition").
		Scan(&conditions).Error; err != nil {
		return summary, err
	}
	for _, row := range conditions {
		summary.ConditionDistribution[row.Condition] = row.Count
	}

	var meanEfficacy struct{ Mean float64 }
	r.db.WithContext(ctx).Raw(`SELECT COALESCE(AVG(efficacy_score), 0) AS mean FROM treatments`).Scan(&meanEfficacy)
	summary.MeanEfficacyScore = meanEfficacy.Mean

	return summary, nil
}

// ConditionEfficacy summarizes treatment efficacy for one condition.
type ConditionEfficacy struct {
	MeanEfficacy     float64 `json:"mean_efficacy"`
	SampleSize       int     `json:"sample_size"`
	GoodResponseRate float64 `json:"good_response_rate"`
}

func (r *Repository) EfficacyByCondition(ctx context.Context) (map[string]ConditionEfficacy, error) {
	var rows []struct {
		Condition    string
		MeanEfficacy float64
		SampleSize   int
		GoodCount    int
	}
	query := `
		SELECT p.condition,
		       AVG(t.efficacy_score) AS mean_efficacy,
		       COUNT(*) AS sample_size,
		       SUM(CASE WHEN t.efficacy_score > 0.7 THEN 1 ELSE 0 END) AS good_count
		FROM patients p
		JOIN treatments t ON t.patient_id = p.id
		GROUP BY p.condition`
	if err := r.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, err
	}

	analysis := make(map[string]ConditionEfficacy, len(rows))
	for _, row := range rows {
		rate := 0.0
		if row.SampleSize > 0 {
			rate = float64(row.GoodCount) / float64(row.SampleSize) * 100
		}
		analysis[row.Condition] = ConditionEfficacy{
			MeanEfficacy:     row.MeanEfficacy,
			SampleSize:       row.SampleSize,
			GoodResponseRate: rate,
		}
	}
	return analysis, nil
}

// SafetyProfile aggregates adverse events by type and severity.
type SafetyProfile struct {
	AdverseEvents       map[string]map[string]int `json:"adverse_events"`
	TotalPatients       int                       `json:"total_patients"`
	PatientsWithEvents  int                       `json:"patients_with_events"`
	TotalEvents         int                       `json:"total_events"`
	EventRatePerPatient float64                   `json:"event_rate_per_patient"`
}

func (r *Repository) SafetyProfile(ctx context.Context) (SafetyProfile, error) {
	profile := SafetyProfile{AdverseEvents: map[string]map[string]int{}}

	var rows []struct {
		EventType string
		Severity  string
		Count     int
	}
	if err := r.db.WithContext(ctx).Model(&adverseEventModel{}).
		Select("event_type, severity, COUNT(*) AS count").
		Group("event_type, severity").
		Scan(&rows).Error; err != nil {
		return profile, err
	}
	for _, row := range rows {
		if profile.AdverseEvents[row.EventType] == nil {
			profile.AdverseEvents[row.EventType] = map[string]int{}
		}
		profile.AdverseEvents[row.EventType][row.Severity] = row.Count
		profile.TotalEvents += row.Count
	}

	var patients int64
	if err := r.db.WithContext(ctx).Model(&patientModel{}).Count(&patients).Error; err != nil {
		return profile, err
	}
	profile.TotalPatients = int(patients)

	var withEvents struct{ Count int }
	r.db.WithContext(ctx).Raw(`SELECT COUNT(DISTINCT patient_id) AS count FROM adverse_events`).Scan(&withEvents)
	profile.PatientsWithEvents = withEvents.Count

	if profile.TotalPatients > 0 {
		profile.EventRatePerPatient = float64(profile.TotalEvents) / float64(profile.TotalPatients)
	}

	return profile, nil
}
