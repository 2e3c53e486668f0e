package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"infrax/backend/internal/fault"
	"infrax/backend/pkg/models"
)

// PostgresStore is the Postgres implementation of Store. Step payloads,
// summaries, and errors are stored as JSONB documents.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the history tables if they do not exist.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS workflows (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL,
			input JSONB NOT NULL,
			steps JSONB NOT NULL,
			summary JSONB,
			error JSONB
		);
		CREATE TABLE IF NOT EXISTS code_versions (
			id BIGSERIAL PRIMARY KEY,
			workflow_id TEXT NOT NULL REFERENCES workflows(id),
			version INT NOT NULL,
			code TEXT NOT NULL,
			file_path TEXT,
			modified_by TEXT NOT NULL,
			change_description TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (workflow_id, version)
		);
		CREATE TABLE IF NOT EXISTS advisor_interactions (
			id BIGSERIAL PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			session_id TEXT,
			role TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// PutWorkflow saves a terminal workflow record.
func (s *PostgresStore) PutWorkflow(ctx context.Context, record *models.WorkflowRecord) error {
	input, err := json.Marshal(record.Input)
	if err != nil {
		return fault.Wrap(fault.PersistenceFailure, "failed to encode workflow input", err)
	}
	steps, err := json.Marshal(record.Steps)
	if err != nil {
		return fault.Wrap(fault.PersistenceFailure, "failed to encode workflow steps", err)
	}
	var summary, wfErr []byte
	if record.Summary != nil {
		if summary, err = json.Marshal(record.Summary); err != nil {
			return fault.Wrap(fault.PersistenceFailure, "failed to encode workflow summary", err)
		}
	}
	if record.Error != nil {
		if wfErr, err = json.Marshal(record.Error); err != nil {
			return fault.Wrap(fault.PersistenceFailure, "failed to encode workflow error", err)
		}
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO workflows (id, created_at, status, input, steps, summary, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, steps = EXCLUDED.steps,
		    summary = EXCLUDED.summary, error = EXCLUDED.error`,
		record.ID, record.CreatedAt, record.Status, input, steps, summary, wfErr)
	if err != nil {
		return fault.Wrap(fault.PersistenceFailure, "failed to save workflow", err)
	}
	return nil
}

// GetWorkflow retrieves a record by id.
func (s *PostgresStore) GetWorkflow(ctx context.Context, id string) (*models.WorkflowRecord, error) {
	var (
		record               models.WorkflowRecord
		input, steps         []byte
		summary, recordError []byte
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, created_at, status, input, steps, summary, error FROM workflows WHERE id = $1`, id).
		Scan(&record.ID, &record.CreatedAt, &record.Status, &input, &steps, &summary, &recordError)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.New(fault.NotFound, "workflow "+id+" not found")
	}
	if err != nil {
		return nil, fault.Wrap(fault.PersistenceFailure, "failed to load workflow", err)
	}

	if err := json.Unmarshal(input, &record.Input); err != nil {
		return nil, fault.Wrap(fault.PersistenceFailure, "failed to decode workflow input", err)
	}
	if err := json.Unmarshal(steps, &record.Steps); err != nil {
		return nil, fault.Wrap(fault.PersistenceFailure, "failed to decode workflow steps", err)
	}
	if len(summary) > 0 {
		record.Summary = &models.WorkflowSummary{}
		if err := json.Unmarshal(summary, record.Summary); err != nil {
			return nil, fault.Wrap(fault.PersistenceFailure, "failed to decode workflow summary", err)
		}
	}
	if len(recordError) > 0 {
		record.Error = &models.WorkflowError{}
		if err := json.Unmarshal(recordError, record.Error); err != nil {
			return nil, fault.Wrap(fault.PersistenceFailure, "failed to decode workflow error", err)
		}
	}
	return &record, nil
}

// ListWorkflows returns compact listings, most recent first.
func (s *PostgresStore) ListWorkflows(ctx context.Context) ([]models.WorkflowListing, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, created_at, status, input->>'prompt', summary FROM workflows ORDER BY created_at DESC`)
	if err != nil {
		return nil, fault.Wrap(fault.PersistenceFailure, "failed to list workflows", err)
	}
	defer rows.Close()

	var out []models.WorkflowListing
	for rows.Next() {
		var (
			listing models.WorkflowListing
			summary []byte
		)
		if err := rows.Scan(&listing.ID, &listing.CreatedAt, &listing.Status, &listing.Prompt, &summary); err != nil {
			return nil, fault.Wrap(fault.PersistenceFailure, "failed to scan workflow row", err)
		}
		if len(summary) > 0 {
			listing.Summary = &models.WorkflowSummary{}
			if err := json.Unmarshal(summary, listing.Summary); err != nil {
				return nil, fault.Wrap(fault.PersistenceFailure, "failed to decode workflow summary", err)
			}
		}
		out = append(out, listing)
	}
	return out, rows.Err()
}

// AppendCodeVersion assigns the next version number and stores the
// revision. The version assignment runs in a transaction so concurrent
// appends never reuse a number.
func (s *PostgresStore) AppendCodeVersion(ctx context.Context, v *models.CodeVersion) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fault.Wrap(fault.PersistenceFailure, "failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO code_versions (workflow_id, version, code, file_path, modified_by, change_description, created_at)
		VALUES ($1, (SELECT COALESCE(MAX(version), 0) + 1 FROM code_versions WHERE workflow_id = $1), $2, $3, $4, $5, $6)
		RETURNING id, version`,
		v.WorkflowID, v.Code, v.FilePath, v.ModifiedBy, v.ChangeDescription, v.CreatedAt).
		Scan(&v.ID, &v.Version)
	if err != nil {
		return fault.Wrap(fault.PersistenceFailure, "failed to save code version", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fault.Wrap(fault.PersistenceFailure, "failed to commit code version", err)
	}
	return nil
}

// ListCodeVersions returns revisions in ascending version order.
func (s *PostgresStore) ListCodeVersions(ctx context.Context, workflowID string) ([]models.CodeVersion, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, workflow_id, version, code, file_path, modified_by, change_description, created_at
		FROM code_versions WHERE workflow_id = $1 ORDER BY version`, workflowID)
	if err != nil {
		return nil, fault.Wrap(fault.PersistenceFailure, "failed to list code versions", err)
	}
	defer rows.Close()

	var out []models.CodeVersion
	for rows.Next() {
		var v models.CodeVersion
		if err := rows.Scan(&v.ID, &v.WorkflowID, &v.Version, &v.Code, &v.FilePath,
			&v.ModifiedBy, &v.ChangeDescription, &v.CreatedAt); err != nil {
			return nil, fault.Wrap(fault.PersistenceFailure, "failed to scan code version row", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// LatestCodeVersion returns the highest-numbered revision.
func (s *PostgresStore) LatestCodeVersion(ctx context.Context, workflowID string) (*models.CodeVersion, error) {
	var v models.CodeVersion
	err := s.db.QueryRow(ctx, `
		SELECT id, workflow_id, version, code, file_path, modified_by, change_description, created_at
		FROM code_versions WHERE workflow_id = $1 ORDER BY version DESC LIMIT 1`, workflowID).
		Scan(&v.ID, &v.WorkflowID, &v.Version, &v.Code, &v.FilePath,
			&v.ModifiedBy, &v.ChangeDescription, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.New(fault.NotFound, "no code versions for workflow "+workflowID)
	}
	if err != nil {
		return nil, fault.Wrap(fault.PersistenceFailure, "failed to load latest code version", err)
	}
	return &v, nil
}

// SaveInteraction records one advisor chat message.
func (s *PostgresStore) SaveInteraction(ctx context.Context, in *models.AdvisorInteraction) error {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO advisor_interactions (workflow_id, session_id, role, message, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		in.WorkflowID, in.SessionID, in.Role, in.Message, in.CreatedAt).Scan(&in.ID)
	if err != nil {
		return fault.Wrap(fault.PersistenceFailure, "failed to save advisor interaction", err)
	}
	return nil
}

// ListInteractions returns a workflow's advisor messages in order.
func (s *PostgresStore) ListInteractions(ctx context.Context, workflowID string) ([]models.AdvisorInteraction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, workflow_id, session_id, role, message, created_at
		FROM advisor_interactions WHERE workflow_id = $1 ORDER BY id`, workflowID)
	if err != nil {
		return nil, fault.Wrap(fault.PersistenceFailure, "failed to list advisor interactions", err)
	}
	defer rows.Close()

	var out []models.AdvisorInteraction
	for rows.Next() {
		var in models.AdvisorInteraction
		if err := rows.Scan(&in.ID, &in.WorkflowID, &in.SessionID, &in.Role, &in.Message, &in.CreatedAt); err != nil {
			return nil, fault.Wrap(fault.PersistenceFailure, "failed to scan advisor interaction row", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
