package models

import (
	"time"
)

// WorkflowStatus is the terminal state of an orchestration run.
type WorkflowStatus string

const (
	WorkflowSucceeded WorkflowStatus = "SUCCEEDED"
	WorkflowFailed    WorkflowStatus = "FAILED"
)

// WorkflowInput is the caller-supplied request that started a run. Immutable.
type WorkflowInput struct {
	Prompt   string `json:"prompt"`
	Location string `json:"location,omitempty"`
	Dialect  string `json:"iac_tool"`
}

// WorkflowSteps holds each stage's result. Each entry is written once by
// its owning stage and never mutated afterwards.
type WorkflowSteps struct {
	Planning   *Plan            `json:"1_intelligent_planning,omitempty"`
	Cost       *CostAnalysis    `json:"2_cost_optimization,omitempty"`
	Refinement []ServiceChoice  `json:"3_service_refinement,omitempty"`
	IaC        *GeneratedCode   `json:"4_iac_generation,omitempty"`
	Diagram    *Diagram         `json:"5_diagram_generation,omitempty"`
}

// WorkflowSummary is the denormalized view of a successful run, computed
// once when the run concludes.
type WorkflowSummary struct {
	CloudProvider     string       `json:"cloud_provider"`
	Region            string       `json:"region"`
	LocationRationale string       `json:"location_rationale,omitempty"`
	IaCTool           string       `json:"iac_tool"`
	ServicesCount     int          `json:"services_count"`
	EstimatedSavings  float64      `json:"estimated_savings"`
	CodeFile          string       `json:"code_file"`
	CodePath          string       `json:"code_path"`
	Architecture      *Architecture `json:"architecture,omitempty"`
	MermaidDiagram    string       `json:"mermaid_diagram,omitempty"`
	DiagramFile       string       `json:"diagram_file,omitempty"`
	HTMLPreview       string       `json:"html_preview,omitempty"`
}

// WorkflowError records which stage aborted a failed run.
type WorkflowError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// WorkflowRecord is the durable result of one end-to-end pipeline run.
// Once Status is terminal the record is append-only; no field changes.
type WorkflowRecord struct {
	ID        string           `json:"workflow_id"`
	CreatedAt time.Time        `json:"created_at"`
	Status    WorkflowStatus   `json:"status"`
	Input     WorkflowInput    `json:"input"`
	Steps     WorkflowSteps    `json:"steps"`
	Summary   *WorkflowSummary `json:"summary,omitempty"`
	Error     *WorkflowError   `json:"error,omitempty"`
}

// WorkflowListing is the compact form returned by list endpoints.
type WorkflowListing struct {
	ID        string           `json:"workflow_id"`
	CreatedAt time.Time        `json:"created_at"`
	Status    WorkflowStatus   `json:"status"`
	Prompt    string           `json:"prompt"`
	Summary   *WorkflowSummary `json:"summary,omitempty"`
}

// Listing derives the compact view of a record.
func (r *WorkflowRecord) Listing() WorkflowListing {
	return WorkflowListing{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		Status:    r.Status,
		Prompt:    r.Input.Prompt,
		Summary:   r.Summary,
	}
}
