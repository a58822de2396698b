package labtest

import (
	"fmt"

	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/config"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/interfaces"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/logger"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/monitoring"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/types"
)

// stageMessages keys the patient-facing notification text by target stage
var stageMessages = map[types.Stage]string{
	types.StageSampleCollectionScheduled: "Your sample collection appointment has been scheduled.",
	types.StageSampleCollected:           "Your sample has been collected and sent to the laboratory.",
	types.StageProcessing:                "Your sample is being processed in the laboratory.",
	types.StageResultReady:               "Your test results are ready.",
	types.StageResultDelivered:           "Your test results have been delivered.",
	types.StageConsultationRequired:      "Your results require a consultation. A doctor will contact you.",
	types.StageFollowUpScheduled:         "A follow-up visit has been scheduled for you.",
	types.StageCompleted:                 "Your test process is complete. Thank you.",
	types.StageCancelled:                 "Your test process has been cancelled.",
}

// Dispatcher is the default notification dispatcher. It hands jobs to the
// platform's async queue; this implementation logs the enqueue, which is
// where a queue client (e.g. the platform's mail worker) plugs in.
type Dispatcher struct {
	logger *logger.Logger
}

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(log *logger.Logger) interfaces.NotificationDispatcher {
	return &Dispatcher{logger: log}
}

// Enqueue submits a fire-and-forget notification job
func (d *Dispatcher) Enqueue(job string, payload *types.NotificationPayload) error {
	d.logger.WithFields(map[string]interface{}{
		"job":          job,
		"recipient_id": payload.RecipientID,
		"process_id":   payload.ProcessID,
		"template":     payload.Template,
	}).Info("Notification job enqueued")
	return nil
}

// ProcessNotificationManager builds and enqueues process-related
// notifications. Enqueue failures are recorded and logged by callers but
// never propagate into the workflow.
type ProcessNotificationManager struct {
	dispatcher interfaces.NotificationDispatcher
	config     *config.NotificationConfig
	logger     *logger.Logger
}

// NewProcessNotificationManager creates a new process notification manager
func NewProcessNotificationManager(
	dispatcher interfaces.NotificationDispatcher,
	cfg *config.NotificationConfig,
	log *logger.Logger,
) *ProcessNotificationManager {
	return &ProcessNotificationManager{
		dispatcher: dispatcher,
		config:     cfg,
		logger:     log,
	}
}

// SendCreationNotification notifies the patient that a test was ordered
func (m *ProcessNotificationManager) SendCreationNotification(p *types.TestProcess) error {
	payload := &types.NotificationPayload{
		RecipientID: p.PatientID,
		ProcessID:   p.ID,
		ProcessCode: p.Code,
		Template:    "test_process_created",
		Message:     fmt.Sprintf("Your test has been ordered. Track it with code %s.", p.Code),
	}

	return m.enqueue(m.config.CreationJob, payload)
}

// SendStageNotification notifies the patient about a stage change
func (m *ProcessNotificationManager) SendStageNotification(p *types.TestProcess) error {
	message, ok := stageMessages[p.CurrentStage]
	if !ok {
		message = fmt.Sprintf("Your test process %s has been updated.", p.Code)
	}

	payload := &types.NotificationPayload{
		RecipientID: p.PatientID,
		ProcessID:   p.ID,
		ProcessCode: p.Code,
		Template:    "test_process_stage_changed",
		Message:     message,
	}

	return m.enqueue(m.config.StageJob, payload)
}

// SendResultEmail enqueues the one-time result summary email. Idempotence
// is enforced by the caller through the persisted result_email_sent flag,
// not here.
func (m *ProcessNotificationManager) SendResultEmail(p *types.TestProcess) error {
	payload := &types.NotificationPayload{
		RecipientID: p.PatientID,
		ProcessID:   p.ID,
		ProcessCode: p.Code,
		Template:    "test_result_summary",
		Message:     fmt.Sprintf("Results for test %s are ready. Please log in to view them.", p.Code),
	}

	return m.enqueue(m.config.ResultMailJob, payload)
}

func (m *ProcessNotificationManager) enqueue(job string, payload *types.NotificationPayload) error {
	err := m.dispatcher.Enqueue(job, payload)
	monitoring.RecordNotification(job, err == nil)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s job: %w", job, err)
	}
	return nil
}
