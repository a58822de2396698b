package labtest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/config"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/database"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/interfaces"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/logger"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/monitoring"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/types"
)

// Service implements the TestProcessService interface
type Service struct {
	config     *config.Config
	logger     *logger.Logger
	repository interfaces.TestProcessRepository
	directory  interfaces.DirectoryService
	db         *database.DB
	server     *http.Server
	allocator  *CodeAllocator
	notifier   *ProcessNotificationManager
}

// New creates a new testing service
func New(cfg *config.Config, log *logger.Logger) interfaces.TestProcessService {
	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Error("Failed to connect to database")
		panic(err)
	}

	// Initialize repository
	repository := NewRepository(db, log)

	// Initialize collaborators
	directory := NewDirectoryClient(&cfg.Directory, log)
	dispatcher := NewDispatcher(log)
	notifier := NewProcessNotificationManager(dispatcher, &cfg.Notification, log)
	allocator := NewCodeAllocator(repository, log)

	return &Service{
		config:     cfg,
		logger:     log,
		repository: repository,
		directory:  directory,
		db:         db,
		allocator:  allocator,
		notifier:   notifier,
	}
}

// CreateTestProcess orders a new test: verifies every referenced entity,
// allocates a unique code and persists the aggregate in stage ORDERED.
// The creation notification is best-effort and never fails the call.
func (s *Service) CreateTestProcess(req *types.CreateTestProcessRequest) (*types.TestProcess, error) {
	s.logger.Infof("Creating test process for patient %s with service %s", req.PatientID, req.ServiceID)

	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	if err := s.verifyReferences(req); err != nil {
		return nil, err
	}

	code, err := s.allocator.Allocate()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate test code: %w", err)
	}

	now := time.Now()
	process := &types.TestProcess{
		ID:                   uuid.New().String(),
		Code:                 code,
		CurrentStage:         types.StageOrdered,
		SampleType:           req.SampleType,
		Priority:             req.Priority,
		PatientID:            req.PatientID,
		ServiceID:            req.ServiceID,
		AppointmentID:        req.AppointmentID,
		ConsultantID:         req.ConsultantID,
		RequiresConsultation: req.RequiresConsultation,
		IsConfidential:       req.IsConfidential,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if process.Priority == "" {
		process.Priority = types.PriorityNormal
	}

	// Nominal time until results, from the workflow estimates
	if hours, err := EstimatedHoursBetween(types.StageOrdered, types.StageResultReady); err == nil {
		estimated := now.Add(time.Duration(hours * float64(time.Hour)))
		process.EstimatedResultDate = &estimated
	}

	if err := s.repository.CreateTestProcess(process); err != nil {
		return nil, fmt.Errorf("failed to create test process: %w", err)
	}

	monitoring.RecordProcessCreated()

	if err := s.notifier.SendCreationNotification(process); err != nil {
		s.logger.WithError(err).Error("Failed to send creation notification")
	}

	s.logger.WithProcess(process.ID, process.Code).Info("Successfully created test process")
	return process, nil
}

// TransitionTestProcess applies a validated stage transition. The stage
// change commits before any notification is enqueued, so an announcement
// can never precede (or outlive a failure of) the state it announces.
func (s *Service) TransitionTestProcess(processID string, target types.Stage, evidence map[string]string) (*types.TestProcess, error) {
	process, err := s.repository.GetTestProcessByID(processID)
	if err != nil {
		return nil, err
	}

	current := process.CurrentStage

	if err := ValidateTransition(current, target, evidence); err != nil {
		monitoring.RecordTransition(string(current), string(target), false)
		s.logger.Transition(processID, string(current), string(target), false)
		return nil, err
	}

	if err := s.applyEvidence(process, target, evidence); err != nil {
		return nil, err
	}

	process.CurrentStage = target
	process.UpdatedAt = time.Now()

	// The one-time result email is gated by the persisted flag rather than
	// the transition itself: correction flows may re-enter RESULT_READY and
	// must not re-email the patient.
	sendResultEmail := target == types.StageResultReady && !process.ResultEmailSent
	if sendResultEmail {
		process.ResultEmailSent = true
	}

	if err := s.repository.UpdateStage(processID, current, process); err != nil {
		monitoring.RecordTransition(string(current), string(target), false)
		return nil, err
	}

	monitoring.RecordTransition(string(current), string(target), true)
	s.logger.Transition(processID, string(current), string(target), true)

	if err := s.notifier.SendStageNotification(process); err != nil {
		s.logger.WithError(err).Error("Failed to send stage notification")
	}

	if sendResultEmail {
		if err := s.notifier.SendResultEmail(process); err != nil {
			s.logger.WithError(err).Error("Failed to send result email")
		}
	}

	return process, nil
}

// UpdateTestProcess applies administrative updates to non-stage fields.
// Stage changes cannot route through here: the updates type carries no
// stage field, so the transition validator cannot be bypassed.
func (s *Service) UpdateTestProcess(processID string, updates *types.TestProcessUpdates) error {
	s.logger.Infof("Updating test process %s", processID)

	if err := s.repository.UpdateTestProcess(processID, updates); err != nil {
		return err
	}

	s.logger.Infof("Successfully updated test process %s", processID)
	return nil
}

// DeleteTestProcess hard deletes a test process
func (s *Service) DeleteTestProcess(processID string) error {
	s.logger.Infof("Deleting test process %s", processID)
	return s.repository.DeleteTestProcess(processID)
}

// GetTestProcess retrieves a test process by ID
func (s *Service) GetTestProcess(processID string) (*types.TestProcess, error) {
	return s.repository.GetTestProcessByID(processID)
}

// GetTestProcessByCode retrieves a test process by its tracking code
func (s *Service) GetTestProcessByCode(code string) (*types.TestProcess, error) {
	return s.repository.GetTestProcessByCode(code)
}

// GetTestProcesses retrieves test processes matching the filters
func (s *Service) GetTestProcesses(filters *types.TestProcessFilters) ([]*types.TestProcess, int, error) {
	return s.repository.GetTestProcesses(filters)
}

// GetWorkflowDefinition returns the full workflow graph
func (s *Service) GetWorkflowDefinition() []*types.WorkflowStep {
	return WorkflowDefinition()
}

// GetNextSteps returns the workflow steps reachable from a stage
func (s *Service) GetNextSteps(stage types.Stage) []*types.WorkflowStep {
	nextStages := NextStepsOf(stage)
	steps := make([]*types.WorkflowStep, 0, len(nextStages))
	for _, next := range nextStages {
		if step, ok := StepOf(next); ok {
			steps = append(steps, step)
		}
	}
	return steps
}

// GetStatistics buckets the matching processes by stage and flags bottlenecks
func (s *Service) GetStatistics(filters *types.TestProcessFilters) (*types.TestStatistics, error) {
	// Statistics cover the whole matching set, not a page
	unpaged := *filters
	unpaged.Limit = 0
	unpaged.Offset = 0

	processes, _, err := s.repository.GetTestProcesses(&unpaged)
	if err != nil {
		return nil, fmt.Errorf("failed to load processes for statistics: %w", err)
	}

	return ComputeStatistics(processes), nil
}

// GetEstimatedDuration renders the estimated duration between two stages
func (s *Service) GetEstimatedDuration(from, to types.Stage) (string, error) {
	return EstimatedDuration(from, to)
}

// Start starts the testing service HTTP server
func (s *Service) Start(addr string) error {
	router := mux.NewRouter()
	s.setupRoutes(router)

	s.server = &http.Server{
		Addr:    addr,
		Handler: router,
	}

	s.logger.Infof("Starting Testing Service on %s", addr)
	return s.server.ListenAndServe()
}

// Stop stops the testing service
func (s *Service) Stop() error {
	if s.server != nil {
		s.logger.Info("Stopping Testing Service")
		return s.server.Close()
	}
	return nil
}

// validateCreateRequest validates creation request data
func (s *Service) validateCreateRequest(req *types.CreateTestProcessRequest) error {
	if req.PatientID == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "patient ID is required")
	}

	if req.ServiceID == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "service ID is required")
	}

	if req.SampleType == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "sample type is required")
	}

	return nil
}

// verifyReferences confirms every referenced entity exists in the directory
func (s *Service) verifyReferences(req *types.CreateTestProcessRequest) error {
	found, err := s.directory.PatientExists(req.PatientID)
	if err != nil {
		return fmt.Errorf("failed to verify patient: %w", err)
	}
	if !found {
		return types.NewReferenceNotFoundError("patient", req.PatientID)
	}

	found, err = s.directory.ServiceExists(req.ServiceID)
	if err != nil {
		return fmt.Errorf("failed to verify service: %w", err)
	}
	if !found {
		return types.NewReferenceNotFoundError("service", req.ServiceID)
	}

	if req.AppointmentID != nil {
		found, err = s.directory.AppointmentExists(*req.AppointmentID)
		if err != nil {
			return fmt.Errorf("failed to verify appointment: %w", err)
		}
		if !found {
			return types.NewReferenceNotFoundError("appointment", *req.AppointmentID)
		}
	}

	if req.ConsultantID != nil {
		found, err = s.directory.ConsultantExists(*req.ConsultantID)
		if err != nil {
			return fmt.Errorf("failed to verify consultant: %w", err)
		}
		if !found {
			return types.NewReferenceNotFoundError("consultant", *req.ConsultantID)
		}
	}

	return nil
}

// applyEvidence maps validated evidence fields onto the aggregate's
// operational fields for the target stage
func (s *Service) applyEvidence(p *types.TestProcess, target types.Stage, evidence map[string]string) error {
	if v, ok := evidence[EvidenceAppointmentID]; ok && v != "" {
		appointmentID := v
		p.AppointmentID = &appointmentID
	}

	if v, ok := evidence[EvidenceCollectedBy]; ok && v != "" {
		p.SampleCollectedBy = v
	}

	if v, ok := evidence[EvidenceCollectionDate]; ok && v != "" {
		collected, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return types.NewValidationError(types.ErrCodeInvalidInput,
				fmt.Sprintf("invalid %s: %q is not an RFC 3339 timestamp", EvidenceCollectionDate, v))
		}
		p.SampleCollectionDate = &collected
	}

	if v, ok := evidence[EvidenceProcessedBy]; ok && v != "" {
		p.LabProcessedBy = v
	}

	if v, ok := evidence[EvidenceResultID]; ok && v != "" {
		resultID := v
		p.ResultID = &resultID
	}

	if v, ok := evidence[EvidenceConsultantID]; ok && v != "" {
		consultantID := v
		p.ConsultantID = &consultantID
	}

	if target == types.StageResultReady {
		now := time.Now()
		p.ActualResultDate = &now
	}

	return nil
}
