package types

import "time"

// Stage represents one discrete step in the test-process lifecycle
type Stage string

const (
	StageOrdered                   Stage = "ORDERED"
	StageSampleCollectionScheduled Stage = "SAMPLE_COLLECTION_SCHEDULED"
	StageSampleCollected           Stage = "SAMPLE_COLLECTED"
	StageProcessing                Stage = "PROCESSING"
	StageResultReady               Stage = "RESULT_READY"
	StageResultDelivered           Stage = "RESULT_DELIVERED"
	StageConsultationRequired      Stage = "CONSULTATION_REQUIRED"
	StageFollowUpScheduled         Stage = "FOLLOW_UP_SCHEDULED"
	StageCompleted                 Stage = "COMPLETED"
	StageCancelled                 Stage = "CANCELLED"
)

// SampleType represents the specimen type collected for a test
type SampleType string

const (
	SampleBlood  SampleType = "BLOOD"
	SampleUrine  SampleType = "URINE"
	SampleSwab   SampleType = "SWAB"
	SampleSaliva SampleType = "SALIVA"
)

// Priority represents processing priority for a test process
type Priority string

const (
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// TestProcess represents a single specimen-testing request moving through the workflow
type TestProcess struct {
	ID                   string     `json:"id" db:"id"`
	Code                 string     `json:"code" db:"code"`
	CurrentStage         Stage      `json:"current_stage" db:"current_stage"`
	SampleType           SampleType `json:"sample_type" db:"sample_type"`
	Priority             Priority   `json:"priority" db:"priority"`
	PatientID            string     `json:"patient_id" db:"patient_id"`
	ServiceID            string     `json:"service_id" db:"service_id"`
	AppointmentID        *string    `json:"appointment_id,omitempty" db:"appointment_id"`
	ResultID             *string    `json:"result_id,omitempty" db:"result_id"`
	ConsultantID         *string    `json:"consultant_id,omitempty" db:"consultant_id"`
	EstimatedResultDate  *time.Time `json:"estimated_result_date,omitempty" db:"estimated_result_date"`
	ActualResultDate     *time.Time `json:"actual_result_date,omitempty" db:"actual_result_date"`
	SampleCollectionDate *time.Time `json:"sample_collection_date,omitempty" db:"sample_collection_date"`
	SampleCollectedBy    string     `json:"sample_collected_by,omitempty" db:"sample_collected_by"`
	LabProcessedBy       string     `json:"lab_processed_by,omitempty" db:"lab_processed_by"`
	CollectionNotes      string     `json:"collection_notes,omitempty" db:"collection_notes"`
	LabNotes             string     `json:"lab_notes,omitempty" db:"lab_notes"`
	RequiresConsultation bool       `json:"requires_consultation" db:"requires_consultation"`
	PatientNotified      bool       `json:"patient_notified" db:"patient_notified"`
	ResultEmailSent      bool       `json:"result_email_sent" db:"result_email_sent"`
	IsConfidential       bool       `json:"is_confidential" db:"is_confidential"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}

// IsTerminal reports whether the process sits in a stage with no outgoing transitions
func (p *TestProcess) IsTerminal() bool {
	return p.CurrentStage == StageCompleted || p.CurrentStage == StageCancelled
}

// CreateTestProcessRequest carries the fields needed to order a new test
type CreateTestProcessRequest struct {
	PatientID            string     `json:"patient_id"`
	ServiceID            string     `json:"service_id"`
	SampleType           SampleType `json:"sample_type"`
	Priority             Priority   `json:"priority"`
	AppointmentID        *string    `json:"appointment_id,omitempty"`
	ConsultantID         *string    `json:"consultant_id,omitempty"`
	RequiresConsultation bool       `json:"requires_consultation"`
	IsConfidential       bool       `json:"is_confidential"`
}

// TestProcessUpdates represents administrative updates to non-stage fields.
// The current stage is deliberately absent; stage changes go through the
// transition operation only.
type TestProcessUpdates struct {
	CollectionNotes      *string    `json:"collection_notes,omitempty"`
	LabNotes             *string    `json:"lab_notes,omitempty"`
	EstimatedResultDate  *time.Time `json:"estimated_result_date,omitempty"`
	RequiresConsultation *bool      `json:"requires_consultation,omitempty"`
	PatientNotified      *bool      `json:"patient_notified,omitempty"`
	IsConfidential       *bool      `json:"is_confidential,omitempty"`
}

// TestProcessFilters represents filters for test process queries
type TestProcessFilters struct {
	PatientID  string     `json:"patient_id,omitempty"`
	ServiceID  string     `json:"service_id,omitempty"`
	Stage      Stage      `json:"stage,omitempty"`
	SampleType SampleType `json:"sample_type,omitempty"`
	Priority   Priority   `json:"priority,omitempty"`
	FromDate   time.Time  `json:"from_date,omitempty"`
	ToDate     time.Time  `json:"to_date,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}

// WorkflowStep describes a stage in the workflow graph, its reachable next
// stages and the evidence required to enter it. Instances are built once at
// start-up and never mutated.
type WorkflowStep struct {
	Stage            Stage    `json:"stage"`
	DisplayName      string   `json:"display_name"`
	Description      string   `json:"description"`
	NextSteps        []Stage  `json:"next_steps"`
	RequiredEvidence []string `json:"required_evidence"`
	// EstimatedHours is either a fixed hour count ("2") or a min-max range ("24-48")
	EstimatedHours string `json:"estimated_hours"`
}

// TestStatistics aggregates a collection of processes by stage
type TestStatistics struct {
	Total   int           `json:"total"`
	ByStage map[Stage]int `json:"by_stage"`
	// Bottlenecks lists display names of stages that are both the most
	// populous and hold more than 30% of all processes. A heuristic
	// backlog signal, not a statistical test.
	Bottlenecks []string `json:"bottlenecks"`
}

// NotificationPayload is the job payload handed to the notification dispatcher
type NotificationPayload struct {
	RecipientID string `json:"recipient_id"`
	ProcessID   string `json:"process_id"`
	ProcessCode string `json:"process_code"`
	Template    string `json:"template"`
	Message     string `json:"message"`
}
