// Package orchestrator runs the five-stage generation pipeline:
// planning, cost optimization, service refinement, code generation,
// and diagram generation, strictly in that order.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"infrax/backend/internal/agents"
	"infrax/backend/internal/fault"
	"infrax/backend/internal/logging"
	"infrax/backend/internal/repository"
	"infrax/backend/pkg/models"
)

// Stage names as they appear in step payloads and failure records.
const (
	StagePlanning   = "1_intelligent_planning"
	StageCost       = "2_cost_optimization"
	StageRefinement = "3_service_refinement"
	StageIaC        = "4_iac_generation"
	StageDiagram    = "5_diagram_generation"
)

// DefaultDialect is used when the caller does not name an IaC tool.
const DefaultDialect = "terraform"

// Orchestrator coordinates the agents and persists finished runs.
type Orchestrator struct {
	planner  *agents.Planner
	cost     *agents.CostEstimator
	selector *agents.Selector
	codegen  *agents.CodeGenerator
	diagram  *agents.DiagramGenerator
	history  repository.Store
	logger   *logging.Logger
	runs     metric.Int64Counter
}

// New creates an Orchestrator over the given agents and history store.
func New(planner *agents.Planner, cost *agents.CostEstimator, selector *agents.Selector,
	codegen *agents.CodeGenerator, diagram *agents.DiagramGenerator,
	history repository.Store, logger *logging.Logger) *Orchestrator {
	runs, _ := otel.Meter("brahma/orchestrator").Int64Counter("workflow_runs",
		metric.WithDescription("Completed workflow runs by terminal status"))
	return &Orchestrator{
		planner:  planner,
		cost:     cost,
		selector: selector,
		codegen:  codegen,
		diagram:  diagram,
		history:  history,
		logger:   logger,
		runs:     runs,
	}
}

// Run executes one end-to-end generation for the prompt. Planning and
// code generation failures abort the run with a FAILED record; cost and
// refinement failures degrade to defaults; a diagram failure is recorded
// on an otherwise SUCCEEDED run. The finished record is persisted
// best-effort: a history write failure is logged and the record is
// still returned to the caller.
func (o *Orchestrator) Run(ctx context.Context, input models.WorkflowInput) (*models.WorkflowRecord, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, fault.New(fault.InvalidInput, "prompt must not be empty")
	}
	if input.Dialect == "" {
		input.Dialect = DefaultDialect
	}
	if !agents.SupportedDialect(input.Dialect) {
		return nil, fault.New(fault.UnsupportedDialect,
			"iac tool "+input.Dialect+" is not one of terraform, cloudformation, pulumi")
	}

	record := &models.WorkflowRecord{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Input:     input,
	}
	o.logger.Info("workflow started", "workflow_id", record.ID, "location", input.Location, "iac_tool", input.Dialect)

	// Stage 1: planning. Hard stage.
	plan, err := o.planner.Plan(ctx, input.Prompt, input.Location)
	if err != nil {
		return o.fail(ctx, record, StagePlanning, err)
	}
	record.Steps.Planning = plan
	o.logger.Info("planning complete", "workflow_id", record.ID,
		"provider", plan.CloudProvider, "region", plan.Region, "defaulted", plan.Defaulted)

	// Stage 2: cost optimization. Soft stage; a failure leaves a
	// zero-value analysis so later stages still have a payload to read.
	cost, err := o.cost.Analyze(ctx, agents.CostInput{
		CloudProvider: plan.CloudProvider,
		Services:      plan.Services,
	})
	if err != nil {
		o.logger.Warn("cost optimization failed, continuing with empty analysis",
			"workflow_id", record.ID, "error", err)
		cost = &models.CostAnalysis{CloudProvider: plan.CloudProvider}
	}
	record.Steps.Cost = cost

	// Stage 3: service refinement. Soft stage; the planner's service
	// list stands when refinement yields nothing.
	services := plan.Services
	refined, err := o.selector.Select(ctx, agents.SelectionInput{
		Description:   input.Prompt,
		WorkloadType:  plan.Requirements.AppType,
		Scale:         plan.Requirements.Scale,
		CloudProvider: plan.CloudProvider,
	})
	if err != nil {
		o.logger.Warn("service refinement failed, keeping planned services",
			"workflow_id", record.ID, "error", err)
	} else if len(refined) > 0 {
		services = refined
		record.Steps.Refinement = refined
	}

	// Stage 4: code generation. Hard stage.
	code, err := o.codegen.Generate(ctx, agents.CodegenInput{
		CloudProvider:     plan.CloudProvider,
		IaCTool:           input.Dialect,
		Services:          services,
		Description:       input.Prompt,
		Scale:             plan.Requirements.Scale,
		Region:            plan.Region,
		OptimizationNotes: cost.Strategies,
	})
	if err != nil {
		return o.fail(ctx, record, StageIaC, err)
	}
	record.Steps.IaC = code

	// Stage 5: diagram. Runs after the success criteria are already
	// met; a failure is recorded but never demotes the run.
	diagram, err := o.diagram.Generate(ctx, agents.DiagramInput{
		CloudProvider: plan.CloudProvider,
		Services:      services,
		Architecture:  plan.Architecture,
		Code:          code.Code,
	})
	if err != nil {
		o.logger.Warn("diagram generation failed", "workflow_id", record.ID, "error", err)
		diagram = &models.Diagram{Failed: err.Error()}
	}
	record.Steps.Diagram = diagram

	record.Status = models.WorkflowSucceeded
	record.Summary = summarize(record, services)
	o.persist(ctx, record)
	o.count(ctx, record)
	o.logger.Info("workflow succeeded", "workflow_id", record.ID, "code_file", code.Filename)
	return record, nil
}

// fail finalizes a record for an aborted run. The partial record is
// persisted so failed runs show up in history.
func (o *Orchestrator) fail(ctx context.Context, record *models.WorkflowRecord, stage string, err error) (*models.WorkflowRecord, error) {
	record.Status = models.WorkflowFailed
	record.Error = &models.WorkflowError{Stage: stage, Message: err.Error()}
	o.persist(ctx, record)
	o.count(ctx, record)
	o.logger.Error("workflow failed", "workflow_id", record.ID, "stage", stage, "error", err)
	return record, err
}

func (o *Orchestrator) persist(ctx context.Context, record *models.WorkflowRecord) {
	if o.history == nil {
		return
	}
	if err := o.history.PutWorkflow(ctx, record); err != nil {
		o.logger.Error("failed to persist workflow record, returning it anyway",
			"workflow_id", record.ID, "error", err)
	}
}

func (o *Orchestrator) count(ctx context.Context, record *models.WorkflowRecord) {
	o.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", string(record.Status))))
}

// summarize computes the denormalized view of a successful run.
func summarize(record *models.WorkflowRecord, services []models.ServiceChoice) *models.WorkflowSummary {
	plan := record.Steps.Planning
	code := record.Steps.IaC
	summary := &models.WorkflowSummary{
		CloudProvider:     plan.CloudProvider,
		Region:            plan.Region,
		LocationRationale: plan.LocationRationale,
		IaCTool:           code.IaCTool,
		ServicesCount:     len(services),
		CodeFile:          code.Filename,
		CodePath:          code.FilePath,
		Architecture:      plan.Architecture,
	}
	if cost := record.Steps.Cost; cost != nil {
		summary.EstimatedSavings = cost.EstimatedMonthlySavings
	}
	if d := record.Steps.Diagram; d != nil && d.Failed == "" {
		summary.MermaidDiagram = d.Code
		summary.DiagramFile = d.Filename
		summary.HTMLPreview = d.HTMLPreview
	}
	return summary
}
