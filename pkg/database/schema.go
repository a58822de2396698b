package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the database schema for the testing service
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating database schema...")

	// Create extension for UUID generation
	if _, err := db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`); err != nil {
		return fmt.Errorf("failed to create extension: %w", err)
	}

	if _, err := db.ExecContext(ctx, createTestProcessesTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if _, err := db.ExecContext(ctx, createTestProcessesIndexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	db.logger.Info("Database schema created successfully")
	return nil
}

// SQL DDL statements for table creation.
// The UNIQUE constraint on code is the authoritative uniqueness guarantee;
// the allocator's pre-check only narrows the retry window.
const (
	createTestProcessesTable = `
		CREATE TABLE IF NOT EXISTS test_processes (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			code VARCHAR(20) UNIQUE NOT NULL,
			current_stage VARCHAR(50) NOT NULL DEFAULT 'ORDERED',
			sample_type VARCHAR(20) NOT NULL,
			priority VARCHAR(20) NOT NULL DEFAULT 'NORMAL',
			patient_id UUID NOT NULL,
			service_id UUID NOT NULL,
			appointment_id UUID,
			result_id UUID,
			consultant_id UUID,
			estimated_result_date TIMESTAMP WITH TIME ZONE,
			actual_result_date TIMESTAMP WITH TIME ZONE,
			sample_collection_date TIMESTAMP WITH TIME ZONE,
			sample_collected_by VARCHAR(255) NOT NULL DEFAULT '',
			lab_processed_by VARCHAR(255) NOT NULL DEFAULT '',
			collection_notes TEXT NOT NULL DEFAULT '',
			lab_notes TEXT NOT NULL DEFAULT '',
			requires_consultation BOOLEAN NOT NULL DEFAULT FALSE,
			patient_notified BOOLEAN NOT NULL DEFAULT FALSE,
			result_email_sent BOOLEAN NOT NULL DEFAULT FALSE,
			is_confidential BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createTestProcessesIndexes = `
		CREATE INDEX IF NOT EXISTS idx_test_processes_patient_id ON test_processes(patient_id);
		CREATE INDEX IF NOT EXISTS idx_test_processes_service_id ON test_processes(service_id);
		CREATE INDEX IF NOT EXISTS idx_test_processes_current_stage ON test_processes(current_stage);
		CREATE INDEX IF NOT EXISTS idx_test_processes_created_at ON test_processes(created_at);`
)
