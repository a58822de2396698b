package interfaces

import (
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/types"
)

// TestProcessService defines the interface for the test-process lifecycle engine
type TestProcessService interface {
	// Lifecycle
	CreateTestProcess(req *types.CreateTestProcessRequest) (*types.TestProcess, error)
	TransitionTestProcess(processID string, target types.Stage, evidence map[string]string) (*types.TestProcess, error)
	UpdateTestProcess(processID string, updates *types.TestProcessUpdates) error
	DeleteTestProcess(processID string) error

	// Queries
	GetTestProcess(processID string) (*types.TestProcess, error)
	GetTestProcessByCode(code string) (*types.TestProcess, error)
	GetTestProcesses(filters *types.TestProcessFilters) ([]*types.TestProcess, int, error)

	// Reporting
	GetWorkflowDefinition() []*types.WorkflowStep
	GetNextSteps(stage types.Stage) []*types.WorkflowStep
	GetStatistics(filters *types.TestProcessFilters) (*types.TestStatistics, error)
	GetEstimatedDuration(from, to types.Stage) (string, error)

	// Service management
	Start(addr string) error
	Stop() error
}

// TestProcessRepository defines the interface for test process persistence
type TestProcessRepository interface {
	CreateTestProcess(process *types.TestProcess) error
	GetTestProcessByID(id string) (*types.TestProcess, error)
	GetTestProcessByCode(code string) (*types.TestProcess, error)
	UpdateTestProcess(id string, updates *types.TestProcessUpdates) error
	// UpdateStage persists a validated stage change together with any
	// evidence-mapped operational fields. The update is conditional on the
	// row still holding expectedStage; a lost race surfaces as a conflict.
	UpdateStage(id string, expectedStage types.Stage, process *types.TestProcess) error
	DeleteTestProcess(id string) error
	CodeExists(code string) (bool, error)
	GetTestProcesses(filters *types.TestProcessFilters) ([]*types.TestProcess, int, error)
}

// DirectoryService defines lookups against the platform's entity directory
type DirectoryService interface {
	PatientExists(id string) (bool, error)
	ServiceExists(id string) (bool, error)
	AppointmentExists(id string) (bool, error)
	ConsultantExists(id string) (bool, error)
}

// NotificationDispatcher accepts fire-and-forget notification jobs.
// Delivery is at-least-once and best-effort; enqueue errors are logged by
// callers and never fail the operation that produced them.
type NotificationDispatcher interface {
	Enqueue(job string, payload *types.NotificationPayload) error
}
