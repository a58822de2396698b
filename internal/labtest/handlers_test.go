package labtest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/types"
)

func setupTestRouter(service *Service) *mux.Router {
	router := mux.NewRouter()
	service.setupRoutes(router)
	return router
}

func doRequest(router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateHandler_Created(t *testing.T) {
	service, mockRepo, mockDirectory, mockDispatcher := setupTestService()
	router := setupTestRouter(service)

	mockDirectory.On("PatientExists", "patient-1").Return(true, nil)
	mockDirectory.On("ServiceExists", "service-1").Return(true, nil)
	mockRepo.On("CodeExists", mock.AnythingOfType("string")).Return(false, nil)
	mockRepo.On("CreateTestProcess", mock.Anything).Return(nil)
	mockDispatcher.On("Enqueue", mock.Anything, mock.Anything).Return(nil)

	rec := doRequest(router, "POST", "/api/v1/test-processes", map[string]interface{}{
		"patient_id":  "patient-1",
		"service_id":  "service-1",
		"sample_type": "BLOOD",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var created types.TestProcess
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, types.StageOrdered, created.CurrentStage)
	assert.Regexp(t, codePattern, created.Code)
}

func TestCreateHandler_UnknownReferenceIs404(t *testing.T) {
	service, _, mockDirectory, _ := setupTestService()
	router := setupTestRouter(service)

	mockDirectory.On("PatientExists", "ghost").Return(false, nil)

	rec := doRequest(router, "POST", "/api/v1/test-processes", map[string]interface{}{
		"patient_id":  "ghost",
		"service_id":  "service-1",
		"sample_type": "BLOOD",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, types.ErrCodeReferenceNotFound, body["code"])
}

func TestCreateHandler_MissingFieldsIs400(t *testing.T) {
	service, _, _, _ := setupTestService()
	router := setupTestRouter(service)

	rec := doRequest(router, "POST", "/api/v1/test-processes", map[string]interface{}{
		"service_id": "service-1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransitionHandler_IllegalTransitionIs409(t *testing.T) {
	service, mockRepo, _, _ := setupTestService()
	router := setupTestRouter(service)

	process := orderedProcess()
	process.CurrentStage = types.StageProcessing
	mockRepo.On("GetTestProcessByID", "proc-1").Return(process, nil)

	rec := doRequest(router, "POST", "/api/v1/test-processes/proc-1/transition", map[string]interface{}{
		"target_stage": "CANCELLED",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, types.ErrCodeIllegalTransition, body["code"])
}

func TestTransitionHandler_MissingEvidenceIs400(t *testing.T) {
	service, mockRepo, _, _ := setupTestService()
	router := setupTestRouter(service)

	process := orderedProcess()
	mockRepo.On("GetTestProcessByID", "proc-1").Return(process, nil)

	rec := doRequest(router, "POST", "/api/v1/test-processes/proc-1/transition", map[string]interface{}{
		"target_stage": "SAMPLE_COLLECTION_SCHEDULED",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, types.ErrCodeMissingEvidence, body["code"])
}

func TestTransitionHandler_StageConflictIs409(t *testing.T) {
	service, mockRepo, _, _ := setupTestService()
	router := setupTestRouter(service)

	process := orderedProcess()
	mockRepo.On("GetTestProcessByID", "proc-1").Return(process, nil)
	mockRepo.On("UpdateStage", "proc-1", mock.Anything, mock.Anything).
		Return(types.NewStageConflictError("proc-1", types.StageOrdered))

	rec := doRequest(router, "POST", "/api/v1/test-processes/proc-1/transition", map[string]interface{}{
		"target_stage": "CANCELLED",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTransitionHandler_MissingTargetStageIs400(t *testing.T) {
	service, _, _, _ := setupTestService()
	router := setupTestRouter(service)

	rec := doRequest(router, "POST", "/api/v1/test-processes/proc-1/transition", map[string]interface{}{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHandler_NotFoundIs404(t *testing.T) {
	service, mockRepo, _, _ := setupTestService()
	router := setupTestRouter(service)

	mockRepo.On("GetTestProcessByID", "missing").Return(nil, types.NewProcessNotFoundError("missing"))

	rec := doRequest(router, "GET", "/api/v1/test-processes/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetByCodeHandler(t *testing.T) {
	service, mockRepo, _, _ := setupTestService()
	router := setupTestRouter(service)

	process := orderedProcess()
	mockRepo.On("GetTestProcessByCode", "STI123456ABC").Return(process, nil)

	rec := doRequest(router, "GET", "/api/v1/test-processes/code/STI123456ABC", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var got types.TestProcess
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "proc-1", got.ID)
}

func TestListHandler_ParsesFilters(t *testing.T) {
	service, mockRepo, _, _ := setupTestService()
	router := setupTestRouter(service)

	mockRepo.On("GetTestProcesses", mock.MatchedBy(func(f *types.TestProcessFilters) bool {
		return f.PatientID == "patient-1" &&
			f.Stage == types.StageProcessing &&
			f.Limit == 5 && f.Offset == 10
	})).Return([]*types.TestProcess{orderedProcess()}, 1, nil)

	rec := doRequest(router, "GET",
		"/api/v1/test-processes?patient_id=patient-1&stage=PROCESSING&limit=5&offset=10", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["total"])
}

func TestEstimateHandler(t *testing.T) {
	service, _, _, _ := setupTestService()
	router := setupTestRouter(service)

	rec := doRequest(router, "GET", "/api/v1/workflow/estimate?from=ORDERED&to=COMPLETED", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "3 days", body["estimate"])
}

func TestEstimateHandler_UnknownStageIs400(t *testing.T) {
	service, _, _, _ := setupTestService()
	router := setupTestRouter(service)

	rec := doRequest(router, "GET", "/api/v1/workflow/estimate?from=ORDERED&to=NOWHERE", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNextStepsHandler(t *testing.T) {
	service, _, _, _ := setupTestService()
	router := setupTestRouter(service)

	rec := doRequest(router, "GET", "/api/v1/workflow/next-steps?stage=ORDERED", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var steps []*types.WorkflowStep
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &steps))
	assert.Len(t, steps, 2)

	rec = doRequest(router, "GET", "/api/v1/workflow/next-steps?stage=NOWHERE", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatisticsHandler(t *testing.T) {
	service, mockRepo, _, _ := setupTestService()
	router := setupTestRouter(service)

	mockRepo.On("GetTestProcesses", mock.Anything).
		Return(processesInStages(types.StageProcessing, types.StageProcessing, types.StageOrdered), 3, nil)

	rec := doRequest(router, "GET", "/api/v1/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats types.TestStatistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, []string{"Processing"}, stats.Bottlenecks)
}

func TestDeleteHandler_InternalErrorIs500(t *testing.T) {
	service, mockRepo, _, _ := setupTestService()
	router := setupTestRouter(service)

	mockRepo.On("DeleteTestProcess", "proc-1").Return(fmt.Errorf("connection reset"))

	rec := doRequest(router, "DELETE", "/api/v1/test-processes/proc-1", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	service, _, _, _ := setupTestService()
	router := setupTestRouter(service)

	rec := doRequest(router, "GET", "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}
