package trials

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/clinsim-ai/trialsim/pkg/common/logger"
	"github.com/clinsim-ai/trialsim/pkg/common/models"
	"github.com/clinsim-ai/trialsim/pkg/stats"
	"github.com/clinsim-ai/trialsim/pkg/validator"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/patients/generate", h.handleGeneratePatients).Methods(http.MethodPost)
	r.HandleFunc("/patients", h.handleListPatients).Methods(http.MethodGet)
	r.HandleFunc("/designs", h.handleDesignTrial).Methods(http.MethodPost)
	r.HandleFunc("/validate", h.handleValidateDataset).Methods(http.MethodPost)
	r.HandleFunc("/quality", h.handleDataQuality).Methods(http.MethodPost)
	r.HandleFunc("/longitudinal/generate", h.handleGenerateTrialData).Methods(http.MethodPost)
	r.HandleFunc("/analytics/summary", h.handleAnalyticsSummary).Methods(http.MethodGet)
	r.HandleFunc("/analytics/efficacy-by-condition", h.handleEfficacyByCondition).Methods(http.MethodGet)
	r.HandleFunc("/analytics/safety-profile", h.handleSafetyProfile).Methods(http.MethodGet)
	r.HandleFunc("/statistics/t-test", h.handleTTest).Methods(http.MethodPost)
	r.HandleFunc("/statistics/anova", h.handleAnova).Methods(http.MethodPost)
	r.HandleFunc("/statistics/correlation", h.handleCorrelation).Methods(http.MethodPost)
}

func (h *Handler) handleGeneratePatients(w http.ResponseWriter, r *http.Request) {
	count := parseQueryInt(r, "count", 100)
	if count < 0 {
		http.Error(w, "count must not be negative", http.StatusBadRequest)
		return
	}

	dataset, err := h.service.GeneratePatients(r.Context(), count)
	if err != nil {
		logger.Log.WithError(err).Error("failed to generate patients")
		http.Error(w, "failed to generate patients", http.StatusInternalServerError)
		return
	}

	preview := dataset
	if len(preview) > 5 {
		preview = preview[:5]
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":         "Generated patients",
		"total_generated": len(dataset),
		"patients":        preview,
	})
}

func (h *Handler) handleListPatients(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryInt(r, "limit", 100)
	offset := parseQueryInt(r, "offset", 0)

	patients, err := h.service.ListPatients(r.Context(), limit, offset)
	if err != nil {
		logger.Log.WithError(err).Error("failed to list patients")
		http.Error(w, "failed to list patients", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"pagination": map[string]int{
			"limit":  limit,
			"offset": offset,
			"total":  len(patients),
		},
	})
}

func (h *Handler) handleDesignTrial(w http.ResponseWriter, r *http.Request) {
	var req models.TrialDesignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	design, err := h.service.DesignTrial(r.Context(), req)
	if err != nil {
		logger.Log.WithError(err).Error("failed to design trial")
		http.Error(w, "failed to design trial", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, design)
}

func (h *Handler) handleValidateDataset(w http.ResponseWriter, r *http.Request) {
	var records []validator.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.service.ValidateDataset(records))
}

func (h *Handler) handleDataQuality(w http.ResponseWriter, r *http.Request) {
	var records []validator.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.service.CheckDataQuality(records))
}

func (h *Handler) handleGenerateTrialData(w http.ResponseWriter, r *http.Request) {
	numPatients := parseQueryInt(r, "patients", 50)
	if numPatients < 0 {
		http.Error(w, "patients must not be negative", http.StatusBadRequest)
		return
	}
	exportFiles := r.URL.Query().Get("export") == "true"

	dataset, err := h.service.GenerateTrialData(r.Context(), numPatients, exportFiles)
	if err != nil {
		logger.Log.WithError(err).Error("failed to generate trial data")
		http.Error(w, "failed to generate trial data", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, dataset)
}

func (h *Handler) handleAnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.AnalyticsSummary(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to build analytics summary")
		http.Error(w, "failed to build analytics summary", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleEfficacyByCondition(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.service.EfficacyByCondition(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to analyze efficacy")
		http.Error(w, "failed to analyze efficacy", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *Handler) handleSafetyProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.SafetyProfile(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to build safety profile")
		http.Error(w, "failed to build safety profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleTTest(w http.ResponseWriter, r *http.Request) {
	var req models.TTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Alpha == 0 {
		req.Alpha = 0.05
	}

	result, err := stats.OneSampleTTest(req.Data, req.ReferenceValue, req.Alpha)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAnova(w http.ResponseWriter, r *http.Request) {
	var groups map[string][]float64
	if err := json.NewDecoder(r.Body).Decode(&groups); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	result, err := stats.OneWayANOVA(groups)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	var req models.CorrelationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	result, err := stats.PearsonCorrelation(req.XData, req.YData)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseQueryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
