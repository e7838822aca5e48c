package trials

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/clinsim-ai/trialsim/pkg/common/kafka"
	"github.com/clinsim-ai/trialsim/pkg/common/logger"
	"github.com/clinsim-ai/trialsim/pkg/common/models"
	"github.com/clinsim-ai/trialsim/pkg/designer"
	"github.com/clinsim-ai/trialsim/pkg/export"
	"github.com/clinsim-ai/trialsim/pkg/simulator"
	"github.com/clinsim-ai/trialsim/pkg/validator"
	"github.com/redis/go-redis/v9"
)

const analyticsSummaryKey = "trialsim:analytics:summary"

// Service wires the generators, designer, and validator to storage, the
// event bus, and the analytics cache. Producer and cache may be nil;
// generation and validation work without them.
type Service struct {
	repo      *Repository
	patients  *simulator.PatientSimulator
	trial     *simulator.TrialSimulator
	designer  *designer.TrialDesigner
	validator *validator.Validator
	producer  *kafka.Producer
	cache     *redis.Client
	cacheTTL  time.Duration
	exportDir string
}

type ServiceOptions struct {
	Producer  *kafka.Producer
	Cache     *redis.Client
	CacheTTL  time.Duration
	ExportDir string
}

func NewService(repo *Repository, patients *simulator.PatientSimulator, trial *simulator.TrialSimulator, trialDesigner *designer.TrialDesigner, opts ServiceOptions) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "output"
	}
	return &Service{
		repo:      repo,
		patients:  patients,
		trial:     trial,
		designer:  trialDesigner,
		validator: validator.New(),
		producer:  opts.Producer,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		exportDir: opts.ExportDir,
	}
}

// GeneratePatients produces and persists a flat dataset. Event publishing
// is best effort: a bus failure is logged, not surfaced.
func (s *Service) GeneratePatients(ctx context.Context, count int) ([]models.PatientRecord, error) {
	dataset := s.patients.GeneratePatientDataset(count)

	if err := s.repo.SavePatients(ctx, dataset); err != nil {
		return nil, err
	}
	s.invalidateSummary(ctx)
	s.publish(ctx, "dataset_generated", map[string]interface{}{
		"patient_count": len(dataset),
	})

	return dataset, nil
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]models.PatientRecord, error) {
	return s.repo.ListPatients(ctx, limit, offset)
}

// DesignTrial assembles and persists a trial protocol.
func (s *Service) DesignTrial(ctx context.Context, req models.TrialDesignRequest) (models.TrialDesign, error) {
	design := s.designer.DesignTrial(req)

	if err := s.repo.SaveTrialDesign(ctx, design); err != nil {
		return models.TrialDesign{}, err
	}
	s.invalidateSummary(ctx)
	s.publish(ctx, "trial_designed", map[string]interface{}{
		"trial_id":    design.TrialID,
		"design_type": design.DesignType,
		"sample_size": design.SampleSize,
	})

	return design, nil
}

// ValidateDataset re-checks supplied records; it never stores anything.
func (s *Service) ValidateDataset(records []validator.Record) models.DatasetValidation {
	return s.validator.ValidateDataset(records)
}

func (s *Service) CheckDataQuality(records []validator.Record) models.QualityReport {
	return s.validator.CheckDataQuality(records)
}

// GenerateTrialData produces a longitudinal dataset and optionally
// exports it to the configured directory as JSON plus per-entity CSVs.
func (s *Service) GenerateTrialData(ctx context.Context, numPatients int, exportFiles bool) (models.TrialDataset, error) {
	dataset := s.trial.GenerateTrialData(numPatients)

	if exportFiles {
		if err := export.TrialJSON(s.exportDir+"/clinical_trial_data.json", dataset); err != nil {
			return models.TrialDataset{}, err
		}
		if err := export.TrialCSVs(s.exportDir, dataset); err != nil {
			return models.TrialDataset{}, err
		}
		logger.Log.WithField("dir", s.exportDir).Info("Trial dataset exported")
	}

	s.publish(ctx, "trial_dataset_generated", map[string]interface{}{
		"patient_count": numPatients,
		"visit_count":   len(simulator.VisitDays),
	})

	return dataset, nil
}

// AnalyticsSummary serves the dataset-wide aggregate, cached in Redis
// under a short TTL when a cache client is configured.
func (s *Service) AnalyticsSummary(ctx context.Context) (AnalyticsSummary, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, analyticsSummaryKey).Bytes(); err == nil {
			var summary AnalyticsSummary
			if err := json.Unmarshal(cached, &summary); err == nil {
				return summary, nil
			}
		}
	}

	summary, err := s.repo.AnalyticsSummary(ctx)
	if err != nil {
		return AnalyticsSummary{}, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, analyticsSummaryKey, data, s.cacheTTL).Err(); err != nil {
				logger.Log.WithError(err).Warn("Failed to cache analytics summary")
			}
		}
	}

	return summary, nil
}

func (s *Service) EfficacyByCondition(ctx context.Context) (map[string]ConditionEfficacy, error) {
	return s.repo.EfficacyByCondition(ctx)
}

// EventCount is one entry in the most-common-events ranking.
type EventCount struct {
	EventType string `json:"event_type"`
	Count     int    `json:"count"`
}

// SafetyProfileReport is the stored safety profile plus the top-3
// most common event types.
type SafetyProfileReport struct {
	AdverseEvents    map[string]map[string]int `json:"adverse_events"`
	Summary          map[string]interface{}    `json:"summary"`
	MostCommonEvents []EventCount              `json:"most_common_events"`
}

func (s *Service) SafetyProfile(ctx context.Context) (SafetyProfileReport, error) {
	profile, err := s.repo.SafetyProfile(ctx)
	if err != nil {
		return SafetyProfileReport{}, err
	}

	counts := make([]EventCount, 0, len(profile.AdverseEvents))
	for eventType, severities := range profile.AdverseEvents {
		total := 0
		for _, count := range severities {
			total += count
		}
		counts = append(counts, EventCount{EventType: eventType, Count: total})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].EventType < counts[j].EventType
	})
	if len(counts) > 3 {
		counts = counts[:3]
	}

	return SafetyProfileReport{
		AdverseEvents: profile.AdverseEvents,
		Summary: map[string]interface{}{
			"total_patients":         profile.TotalPatients,
			"patients_with_events":   profile.PatientsWithEvents,
			"total_events":           profile.TotalEvents,
			"event_rate_per_patient": profile.EventRatePerPatient,
		},
		MostCommonEvents: counts,
	}, nil
}

func (s *Service) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishEvent(ctx, eventType, "trial-service", data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Warn("Event publish failed")
	}
}

func (s *Service) invalidateSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, analyticsSummaryKey).Err(); err != nil {
		logger.Log.WithError(err).Warn("Failed to invalidate analytics summary cache")
	}
}
