package trials

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clinsim-ai/trialsim/pkg/common/logger"
	"github.com/clinsim-ai/trialsim/pkg/common/models"
	"github.com/gorilla/mux"
)

func newTestRouter() *mux.Router {
	logger.Init()
	service := NewService(nil, nil, nil, nil, ServiceOptions{})
	router := mux.NewRouter()
	NewHandler(service).Register(router.PathPrefix("/api/v1/trials").Subrouter())
	return router
}

func TestValidateEndpoint(t *testing.T) {
	router := newTestRouter()

	body := `[{"patient_id": "PT1", "age": 45, "weight": 70.0, "height": 175.0, "bmi": 22.9,
		"lab_results": [
			{"test_name": "WBC", "test_value": 5.0, "normal_min": 4.5, "normal_max": 11.0, "unit": "10^3/uL"},
			{"test_name": "Hemoglobin", "test_value": 14.0, "normal_min": 12.0, "normal_max": 17.5, "unit": "g/dL"},
			{"test_name": "Sodium", "test_value": 140.0, "normal_min": 135.0, "normal_max": 145.0, "unit": "mmol/L"},
			{"test_name": "Creatinine", "test_value": 1.0, "normal_min": 0.6, "normal_max": 1.2, "unit": "mg/dL"},
			{"test_name": "ALT", "test_value": 20.0, "normal_min": 10.0, "normal_max": 40.0, "unit": "U/L"}
		]}]`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/validate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var result models.DatasetValidation
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.TotalPatients != 1 || result.ValidPatients != 1 {
		t.Fatalf("unexpected validation counts: %+v", result)
	}
}

func TestValidateEndpointRejectsMalformedBody(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/validate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestQualityEndpoint(t *testing.T) {
	router := newTestRouter()

	body := `[{"age": 45, "weight": 70.0, "height": 175.0, "bmi": 22.9}]`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/quality", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var report models.QualityReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if report.CompletenessScore != 100 {
		t.Fatalf("completeness %v", report.CompletenessScore)
	}
}

func TestTTestEndpoint(t *testing.T) {
	router := newTestRouter()

	body := `{"data": [7.1, 7.3, 6.9, 7.2, 7.0], "reference_value": 5.0}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/statistics/t-test", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var result models.TTestResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.Significant {
		t.Fatalf("expected significant result: %+v", result)
	}
	if result.Alpha != 0.05 {
		t.Fatalf("alpha default %v", result.Alpha)
	}
}

func TestTTestEndpointRejectsTinySample(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/statistics/t-test", strings.NewReader(`{"data": [1.0]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestAnovaEndpoint(t *testing.T) {
	router := newTestRouter()

	body := `{"Drug_A": [8.0, 8.2, 7.9], "Placebo": [2.0, 2.1, 2.2]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/statistics/anova", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var result models.AnovaResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Groups) != 2 {
		t.Fatalf("groups %v", result.Groups)
	}
}

func TestCorrelationEndpoint(t *testing.T) {
	router := newTestRouter()

	body := `{"x_data": [1, 2, 3, 4], "y_data": [2, 4, 6, 8]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/statistics/correlation", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var result models.CorrelationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Interpretation != "Very strong" {
		t.Fatalf("interpretation %q for %v", result.Interpretation, result.Correlation)
	}
}

func TestCorrelationEndpointLengthMismatch(t *testing.T) {
	router := newTestRouter()

	body := `{"x_data": [1, 2, 3], "y_data": [2, 4]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/trials/statistics/correlation", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}
