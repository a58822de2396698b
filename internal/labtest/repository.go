package labtest

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/database"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/interfaces"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/logger"
	"github.com/KietNT20/gender-healthcare-rest-sub002/pkg/types"
)

// Repository implements the TestProcessRepository interface
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new test process repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.TestProcessRepository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const testProcessColumns = `
	id, code, current_stage, sample_type, priority, patient_id, service_id,
	appointment_id, result_id, consultant_id,
	estimated_result_date, actual_result_date, sample_collection_date,
	sample_collected_by, lab_processed_by, collection_notes, lab_notes,
	requires_consultation, patient_notified, result_email_sent, is_confidential,
	created_at, updated_at`

// CreateTestProcess inserts a new test process. A store-level uniqueness
// violation on the code column surfaces as a duplicate-code conflict.
func (r *Repository) CreateTestProcess(p *types.TestProcess) error {
	query := `
		INSERT INTO test_processes (
			id, code, current_stage, sample_type, priority, patient_id, service_id,
			appointment_id, result_id, consultant_id,
			estimated_result_date, actual_result_date, sample_collection_date,
			sample_collected_by, lab_processed_by, collection_notes, lab_notes,
			requires_consultation, patient_notified, result_email_sent, is_confidential,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`

	_, err := r.db.Exec(query,
		p.ID,
		p.Code,
		p.CurrentStage,
		p.SampleType,
		p.Priority,
		p.PatientID,
		p.ServiceID,
		p.AppointmentID,
		p.ResultID,
		p.ConsultantID,
		p.EstimatedResultDate,
		p.ActualResultDate,
		p.SampleCollectionDate,
		p.SampleCollectedBy,
		p.LabProcessedBy,
		p.CollectionNotes,
		p.LabNotes,
		p.RequiresConsultation,
		p.PatientNotified,
		p.ResultEmailSent,
		p.IsConfidential,
		p.CreatedAt,
		p.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return types.NewDuplicateCodeError(p.Code)
		}
		r.logger.WithError(err).Error("Failed to create test process")
		return fmt.Errorf("failed to create test process: %w", err)
	}

	r.logger.WithProcess(p.ID, p.Code).Info("Created test process")
	return nil
}

// GetTestProcessByID retrieves a test process by ID
func (r *Repository) GetTestProcessByID(id string) (*types.TestProcess, error) {
	query := fmt.Sprintf(`SELECT %s FROM test_processes WHERE id = $1`, testProcessColumns)
	return r.getOne(query, id)
}

// GetTestProcessByCode retrieves a test process by its human-readable code
func (r *Repository) GetTestProcessByCode(code string) (*types.TestProcess, error) {
	query := fmt.Sprintf(`SELECT %s FROM test_processes WHERE code = $1`, testProcessColumns)
	return r.getOne(query, code)
}

func (r *Repository) getOne(query, arg string) (*types.TestProcess, error) {
	p := &types.TestProcess{}
	err := scanTestProcess(r.db.QueryRow(query, arg), p)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewProcessNotFoundError(arg)
		}
		r.logger.WithError(err).Errorf("Failed to get test process %s", arg)
		return nil, fmt.Errorf("failed to get test process: %w", err)
	}

	return p, nil
}

// UpdateTestProcess applies administrative non-stage field updates
func (r *Repository) UpdateTestProcess(id string, updates *types.TestProcessUpdates) error {
	setParts := []string{}
	args := []interface{}{}
	argIndex := 1

	if updates.CollectionNotes != nil {
		setParts = append(setParts, fmt.Sprintf("collection_notes = $%d", argIndex))
		args = append(args, *updates.CollectionNotes)
		argIndex++
	}

	if updates.LabNotes != nil {
		setParts = append(setParts, fmt.Sprintf("lab_notes = $%d", argIndex))
		args = append(args, *updates.LabNotes)
		argIndex++
	}

	if updates.EstimatedResultDate != nil {
		setParts = append(setParts, fmt.Sprintf("estimated_result_date = $%d", argIndex))
		args = append(args, *updates.EstimatedResultDate)
		argIndex++
	}

	if updates.RequiresConsultation != nil {
		setParts = append(setParts, fmt.Sprintf("requires_consultation = $%d", argIndex))
		args = append(args, *updates.RequiresConsultation)
		argIndex++
	}

	if updates.PatientNotified != nil {
		setParts = append(setParts, fmt.Sprintf("patient_notified = $%d", argIndex))
		args = append(args, *updates.PatientNotified)
		argIndex++
	}

	if updates.IsConfidential != nil {
		setParts = append(setParts, fmt.Sprintf("is_confidential = $%d", argIndex))
		args = append(args, *updates.IsConfidential)
		argIndex++
	}

	if len(setParts) == 0 {
		return types.NewValidationError(types.ErrCodeInvalidInput, "no updates provided")
	}

	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", argIndex))
	args = append(args, time.Now())
	argIndex++

	query := fmt.Sprintf("UPDATE test_processes SET %s WHERE id = $%d", strings.Join(setParts, ", "), argIndex)
	args = append(args, id)

	result, err := r.db.Exec(query, args...)
	if err != nil {
		r.logger.WithError(err).Errorf("Failed to update test process %s", id)
		return fmt.Errorf("failed to update test process: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return types.NewProcessNotFoundError(id)
	}

	r.logger.Infof("Updated test process %s", id)
	return nil
}

// UpdateStage persists a validated stage change together with the
// evidence-mapped operational fields. The WHERE predicate on the expected
// stage makes the update optimistic: a concurrent transition that moved
// the process first causes this one to fail with a stage conflict instead
// of silently overwriting.
func (r *Repository) UpdateStage(id string, expectedStage types.Stage, p *types.TestProcess) error {
	query := `
		UPDATE test_processes SET
			current_stage = $1,
			appointment_id = $2,
			result_id = $3,
			consultant_id = $4,
			sample_collected_by = $5,
			lab_processed_by = $6,
			sample_collection_date = $7,
			actual_result_date = $8,
			patient_notified = $9,
			result_email_sent = $10,
			updated_at = $11
		WHERE id = $12 AND current_stage = $13`

	result, err := r.db.Exec(query,
		p.CurrentStage,
		p.AppointmentID,
		p.ResultID,
		p.ConsultantID,
		p.SampleCollectedBy,
		p.LabProcessedBy,
		p.SampleCollectionDate,
		p.ActualResultDate,
		p.PatientNotified,
		p.ResultEmailSent,
		time.Now(),
		id,
		expectedStage,
	)

	if err != nil {
		r.logger.WithError(err).Errorf("Failed to update stage for test process %s", id)
		return fmt.Errorf("failed to update stage: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Distinguish a vanished row from a lost optimistic race
		if _, getErr := r.GetTestProcessByID(id); getErr != nil {
			return getErr
		}
		return types.NewStageConflictError(id, expectedStage)
	}

	return nil
}

// DeleteTestProcess hard deletes a test process
func (r *Repository) DeleteTestProcess(id string) error {
	result, err := r.db.Exec(`DELETE FROM test_processes WHERE id = $1`, id)
	if err != nil {
		r.logger.WithError(err).Errorf("Failed to delete test process %s", id)
		return fmt.Errorf("failed to delete test process: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return types.NewProcessNotFoundError(id)
	}

	r.logger.Infof("Deleted test process %s", id)
	return nil
}

// CodeExists checks whether a test code is already in use
func (r *Repository) CodeExists(code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM test_processes WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check code existence: %w", err)
	}
	return exists, nil
}

// GetTestProcesses retrieves test processes matching the filters along
// with the unpaginated total count
func (r *Repository) GetTestProcesses(filters *types.TestProcessFilters) ([]*types.TestProcess, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filters.PatientID != "" {
		where += fmt.Sprintf(" AND patient_id = $%d", argIndex)
		args = append(args, filters.PatientID)
		argIndex++
	}

	if filters.ServiceID != "" {
		where += fmt.Sprintf(" AND service_id = $%d", argIndex)
		args = append(args, filters.ServiceID)
		argIndex++
	}

	if filters.Stage != "" {
		where += fmt.Sprintf(" AND current_stage = $%d", argIndex)
		args = append(args, string(filters.Stage))
		argIndex++
	}

	if filters.SampleType != "" {
		where += fmt.Sprintf(" AND sample_type = $%d", argIndex)
		args = append(args, string(filters.SampleType))
		argIndex++
	}

	if filters.Priority != "" {
		where += fmt.Sprintf(" AND priority = $%d", argIndex)
		args = append(args, string(filters.Priority))
		argIndex++
	}

	if !filters.FromDate.IsZero() {
		where += fmt.Sprintf(" AND created_at >= $%d", argIndex)
		args = append(args, filters.FromDate)
		argIndex++
	}

	if !filters.ToDate.IsZero() {
		where += fmt.Sprintf(" AND created_at <= $%d", argIndex)
		args = append(args, filters.ToDate)
		argIndex++
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM test_processes" + where
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		r.logger.WithError(err).Error("Failed to count test processes")
		return nil, 0, fmt.Errorf("failed to count test processes: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM test_processes%s ORDER BY created_at DESC", testProcessColumns, where)

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filters.Limit)
		argIndex++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.WithError(err).Error("Failed to get test processes")
		return nil, 0, fmt.Errorf("failed to get test processes: %w", err)
	}
	defer rows.Close()

	var processes []*types.TestProcess
	for rows.Next() {
		p := &types.TestProcess{}
		if err := scanTestProcess(rows, p); err != nil {
			r.logger.WithError(err).Error("Failed to scan test process")
			return nil, 0, fmt.Errorf("failed to scan test process: %w", err)
		}
		processes = append(processes, p)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating test processes: %w", err)
	}

	return processes, total, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for the shared scan helper
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTestProcess(row rowScanner, p *types.TestProcess) error {
	return row.Scan(
		&p.ID,
		&p.Code,
		&p.CurrentStage,
		&p.SampleType,
		&p.Priority,
		&p.PatientID,
		&p.ServiceID,
		&p.AppointmentID,
		&p.ResultID,
		&p.ConsultantID,
		&p.EstimatedResultDate,
		&p.ActualResultDate,
		&p.SampleCollectionDate,
		&p.SampleCollectedBy,
		&p.LabProcessedBy,
		&p.CollectionNotes,
		&p.LabNotes,
		&p.RequiresConsultation,
		&p.PatientNotified,
		&p.ResultEmailSent,
		&p.IsConfidential,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}
