package labtest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/monitoring"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/types"
)

// setupRoutes configures HTTP routes for the testing service
func (s *Service) setupRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	// Test process routes
	api.HandleFunc("/test-processes", s.createTestProcessHandler).Methods("POST")
	api.HandleFunc("/test-processes", s.getTestProcessesHandler).Methods("GET")
	api.HandleFunc("/test-processes/code/{code}", s.getTestProcessByCodeHandler).Methods("GET")
	api.HandleFunc("/test-processes/{id}", s.getTestProcessHandler).Methods("GET")
	api.HandleFunc("/test-processes/{id}", s.updateTestProcessHandler).Methods("PATCH")
	api.HandleFunc("/test-processes/{id}", s.deleteTestProcessHandler).Methods("DELETE")
	api.HandleFunc("/test-processes/{id}/transition", s.transitionHandler).Methods("POST")

	// Workflow reporting routes
	api.HandleFunc("/workflow/definition", s.getWorkflowDefinitionHandler).Methods("GET")
	api.HandleFunc("/workflow/next-steps", s.getNextStepsHandler).Methods("GET")
	api.HandleFunc("/workflow/estimate", s.getEstimateHandler).Methods("GET")
	api.HandleFunc("/statistics", s.getStatisticsHandler).Methods("GET")

	// Health check and metrics
	api.HandleFunc("/health", s.healthCheckHandler).Methods("GET")
	if s.config.Monitoring.Enabled {
		router.Handle(s.config.Monitoring.MetricsPath, monitoring.Handler()).Methods("GET")
	}

	s.logger.Info("Testing service routes configured")
}

// transitionRequest is the body of a stage transition call
type transitionRequest struct {
	TargetStage types.Stage       `json:"target_stage"`
	Evidence    map[string]string `json:"evidence"`
}

// createTestProcessHandler handles test process creation
func (s *Service) createTestProcessHandler(w http.ResponseWriter, r *http.Request) {
	var req types.CreateTestProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	process, err := s.CreateTestProcess(&req)
	if err != nil {
		s.writeDomainError(w, "Failed to create test process", err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, process)
}

// getTestProcessHandler handles test process retrieval by ID
func (s *Service) getTestProcessHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	process, err := s.GetTestProcess(vars["id"])
	if err != nil {
		s.writeDomainError(w, "Failed to get test process", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, process)
}

// getTestProcessByCodeHandler handles retrieval by tracking code
func (s *Service) getTestProcessByCodeHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	process, err := s.GetTestProcessByCode(vars["code"])
	if err != nil {
		s.writeDomainError(w, "Failed to get test process", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, process)
}

// getTestProcessesHandler handles filtered test process listing
func (s *Service) getTestProcessesHandler(w http.ResponseWriter, r *http.Request) {
	filters := s.parseFilters(r)

	processes, total, err := s.GetTestProcesses(filters)
	if err != nil {
		s.writeDomainError(w, "Failed to get test processes", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"items": processes,
		"total": total,
	})
}

// updateTestProcessHandler handles administrative field updates
func (s *Service) updateTestProcessHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var updates types.TestProcessUpdates
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := s.UpdateTestProcess(vars["id"], &updates); err != nil {
		s.writeDomainError(w, "Failed to update test process", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Test process updated successfully"})
}

// deleteTestProcessHandler handles hard deletion
func (s *Service) deleteTestProcessHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.DeleteTestProcess(vars["id"]); err != nil {
		s.writeDomainError(w, "Failed to delete test process", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Test process deleted successfully"})
}

// transitionHandler handles stage transition requests
func (s *Service) transitionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.TargetStage == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "target_stage is required", nil)
		return
	}

	process, err := s.TransitionTestProcess(vars["id"], req.TargetStage, req.Evidence)
	if err != nil {
		s.writeDomainError(w, "Failed to transition test process", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, process)
}

// getWorkflowDefinitionHandler returns the full workflow graph
func (s *Service) getWorkflowDefinitionHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, s.GetWorkflowDefinition())
}

// getNextStepsHandler returns the steps reachable from a stage
func (s *Service) getNextStepsHandler(w http.ResponseWriter, r *http.Request) {
	stage := types.Stage(r.URL.Query().Get("stage"))
	if _, ok := StepOf(stage); !ok {
		s.writeErrorResponse(w, http.StatusBadRequest, "unknown stage", nil)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, s.GetNextSteps(stage))
}

// getEstimateHandler returns the estimated duration between two stages
func (s *Service) getEstimateHandler(w http.ResponseWriter, r *http.Request) {
	from := types.Stage(r.URL.Query().Get("from"))
	to := types.Stage(r.URL.Query().Get("to"))

	estimate, err := s.GetEstimatedDuration(from, to)
	if err != nil {
		s.writeDomainError(w, "Failed to estimate duration", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{
		"from":     string(from),
		"to":       string(to),
		"estimate": estimate,
	})
}

// getStatisticsHandler returns stage statistics for the matching processes
func (s *Service) getStatisticsHandler(w http.ResponseWriter, r *http.Request) {
	filters := s.parseFilters(r)

	stats, err := s.GetStatistics(filters)
	if err != nil {
		s.writeDomainError(w, "Failed to compute statistics", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, stats)
}

// healthCheckHandler reports service and database health
func (s *Service) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "healthy"}
	code := http.StatusOK

	if s.db != nil {
		if err := s.db.Health(); err != nil {
			status["status"] = "unhealthy"
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}

	s.writeJSONResponse(w, code, status)
}

// parseFilters extracts test process filters from query parameters
func (s *Service) parseFilters(r *http.Request) *types.TestProcessFilters {
	q := r.URL.Query()

	filters := &types.TestProcessFilters{
		PatientID:  q.Get("patient_id"),
		ServiceID:  q.Get("service_id"),
		Stage:      types.Stage(q.Get("stage")),
		SampleType: types.SampleType(q.Get("sample_type")),
		Priority:   types.Priority(q.Get("priority")),
	}

	if from := q.Get("from_date"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filters.FromDate = t
		}
	}

	if to := q.Get("to_date"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filters.ToDate = t
		}
	}

	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			filters.Limit = n
		}
	}

	if offset := q.Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			filters.Offset = n
		}
	}

	return filters
}

// writeDomainError maps structured domain errors onto HTTP status codes
func (s *Service) writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case types.ErrCodeIllegalTransition, types.ErrCodeStageConflict,
			types.ErrCodeCodeAllocationExhausted, types.ErrCodeDuplicateCode:
			status = http.StatusConflict
		default:
			switch appErr.Type {
			case types.ErrorTypeNotFound:
				status = http.StatusNotFound
			case types.ErrorTypeValidation:
				status = http.StatusBadRequest
			}
		}
	}

	s.writeErrorResponse(w, status, message, err)
}

// writeJSONResponse writes a JSON response with the given status code
func (s *Service) writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeErrorResponse writes a JSON error response
func (s *Service) writeErrorResponse(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error": message,
	}

	if err != nil {
		response["details"] = err.Error()
		if code := types.ErrorCode(err); code != "" {
			response["code"] = code
		}
	}

	s.writeJSONResponse(w, status, response)
}
