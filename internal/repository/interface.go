// Package repository persists workflow history, code versions, and
// advisor interactions. Two implementations exist: Postgres for real
// deployments and an in-memory store for tests and DB-less mode.
package repository

import (
	"context"

	"infrax/backend/pkg/models"
)

// Store is the workflow history store.
type Store interface {
	// PutWorkflow saves a terminal workflow record.
	PutWorkflow(ctx context.Context, record *models.WorkflowRecord) error
	// GetWorkflow retrieves a record by id. A missing id yields a
	// fault.NotFound error.
	GetWorkflow(ctx context.Context, id string) (*models.WorkflowRecord, error)
	// ListWorkflows returns compact listings, most recent first.
	ListWorkflows(ctx context.Context) ([]models.WorkflowListing, error)

	// AppendCodeVersion stores a new code revision for a workflow,
	// assigning the next version number (previous max plus one,
	// starting at 1). The assigned version is written back into v.
	AppendCodeVersion(ctx context.Context, v *models.CodeVersion) error
	// ListCodeVersions returns all revisions for a workflow in
	// ascending version order.
	ListCodeVersions(ctx context.Context, workflowID string) ([]models.CodeVersion, error)
	// LatestCodeVersion returns the highest-numbered revision, or a
	// fault.NotFound error when none exist.
	LatestCodeVersion(ctx context.Context, workflowID string) (*models.CodeVersion, error)

	// SaveInteraction records one advisor chat message.
	SaveInteraction(ctx context.Context, in *models.AdvisorInteraction) error
	// ListInteractions returns a workflow's advisor messages in
	// chronological order.
	ListInteractions(ctx context.Context, workflowID string) ([]models.AdvisorInteraction, error)
}
