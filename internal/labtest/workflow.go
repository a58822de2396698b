package labtest

import (
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/types"
)

// Evidence field names required to enter specific stages
const (
	EvidenceAppointmentID  = "appointment_id"
	EvidenceCollectedBy    = "sample_collected_by"
	EvidenceCollectionDate = "sample_collection_date"
	EvidenceProcessedBy    = "processed_by"
	EvidenceResultID       = "result_id"
	EvidenceConsultantID   = "consultant_id"
)

// workflowOrder lists every stage in intended progression order
var workflowOrder = []types.Stage{
	types.StageOrdered,
	types.StageSampleCollectionScheduled,
	types.StageSampleCollected,
	types.StageProcessing,
	types.StageResultReady,
	types.StageResultDelivered,
	types.StageConsultationRequired,
	types.StageFollowUpScheduled,
	types.StageCompleted,
	types.StageCancelled,
}

// workflowSteps is the static transition graph. It is constructed once at
// package initialization and never mutated, so concurrent reads need no
// synchronization. All transition legality checks, next-step lookups and
// the path estimator share this single table.
var workflowSteps = map[types.Stage]*types.WorkflowStep{
	types.StageOrdered: {
		Stage:          types.StageOrdered,
		DisplayName:    "Test Ordered",
		Description:    "The test has been ordered and is awaiting sample collection scheduling",
		NextSteps:      []types.Stage{types.StageSampleCollectionScheduled, types.StageCancelled},
		EstimatedHours: "1",
	},
	types.StageSampleCollectionScheduled: {
		Stage:            types.StageSampleCollectionScheduled,
		DisplayName:      "Sample Collection Scheduled",
		Description:      "An appointment for sample collection has been booked",
		NextSteps:        []types.Stage{types.StageSampleCollected, types.StageCancelled},
		RequiredEvidence: []string{EvidenceAppointmentID},
		EstimatedHours:   "2-24",
	},
	types.StageSampleCollected: {
		Stage:            types.StageSampleCollected,
		DisplayName:      "Sample Collected",
		Description:      "The specimen has been collected from the patient",
		NextSteps:        []types.Stage{types.StageProcessing},
		RequiredEvidence: []string{EvidenceCollectedBy, EvidenceCollectionDate},
		EstimatedHours:   "1",
	},
	types.StageProcessing: {
		Stage:            types.StageProcessing,
		DisplayName:      "Processing",
		Description:      "The specimen is being analyzed in the laboratory",
		NextSteps:        []types.Stage{types.StageResultReady},
		RequiredEvidence: []string{EvidenceProcessedBy},
		EstimatedHours:   "24-72",
	},
	types.StageResultReady: {
		Stage:            types.StageResultReady,
		DisplayName:      "Result Ready",
		Description:      "Test results are available and the patient has been emailed once",
		NextSteps:        []types.Stage{types.StageResultDelivered},
		RequiredEvidence: []string{EvidenceResultID},
		EstimatedHours:   "1-4",
	},
	types.StageResultDelivered: {
		Stage:       types.StageResultDelivered,
		DisplayName: "Result Delivered",
		Description: "Results have been delivered to the patient",
		NextSteps: []types.Stage{
			types.StageConsultationRequired,
			types.StageFollowUpScheduled,
			types.StageCompleted,
		},
		EstimatedHours: "1",
	},
	types.StageConsultationRequired: {
		Stage:            types.StageConsultationRequired,
		DisplayName:      "Consultation Required",
		Description:      "Results require a consultation with a doctor",
		NextSteps:        []types.Stage{types.StageFollowUpScheduled, types.StageCompleted},
		RequiredEvidence: []string{EvidenceConsultantID},
		EstimatedHours:   "24-48",
	},
	types.StageFollowUpScheduled: {
		Stage:          types.StageFollowUpScheduled,
		DisplayName:    "Follow-up Scheduled",
		Description:    "A follow-up visit has been scheduled",
		NextSteps:      []types.Stage{types.StageCompleted},
		EstimatedHours: "48-168",
	},
	types.StageCompleted: {
		Stage:          types.StageCompleted,
		DisplayName:    "Completed",
		Description:    "The test process has finished",
		NextSteps:      []types.Stage{},
		EstimatedHours: "0",
	},
	types.StageCancelled: {
		Stage:          types.StageCancelled,
		DisplayName:    "Cancelled",
		Description:    "The test process was cancelled before completion",
		NextSteps:      []types.Stage{},
		EstimatedHours: "0",
	},
}

// WorkflowDefinition returns every workflow step in progression order
func WorkflowDefinition() []*types.WorkflowStep {
	steps := make([]*types.WorkflowStep, 0, len(workflowOrder))
	for _, stage := range workflowOrder {
		steps = append(steps, workflowSteps[stage])
	}
	return steps
}

// StepOf returns the workflow step for a stage
func StepOf(stage types.Stage) (*types.WorkflowStep, bool) {
	step, ok := workflowSteps[stage]
	return step, ok
}

// NextStepsOf returns the stages directly reachable from a stage.
// Terminal stages return an empty list.
func NextStepsOf(stage types.Stage) []types.Stage {
	step, ok := workflowSteps[stage]
	if !ok {
		return nil
	}
	return step.NextSteps
}

// CanTransition reports whether to is a declared next step of from
func CanTransition(from, to types.Stage) bool {
	for _, next := range NextStepsOf(from) {
		if next == to {
			return true
		}
	}
	return false
}

// StageLabel returns the human-readable label for a stage
func StageLabel(stage types.Stage) string {
	if step, ok := workflowSteps[stage]; ok {
		return step.DisplayName
	}
	return string(stage)
}
