package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"infrax/backend/internal/agents"
	"infrax/backend/internal/fault"
	"infrax/backend/pkg/models"
)

// currentCode resolves the artifact text the advisor should look at:
// the latest stored revision when edits exist, otherwise the originally
// generated code.
func (s *Server) currentCode(ctx context.Context, workflowID string) (string, *models.WorkflowRecord, error) {
	record, err := s.History.GetWorkflow(ctx, workflowID)
	if err != nil {
		return "", nil, err
	}
	if latest, err := s.History.LatestCodeVersion(ctx, workflowID); err == nil {
		return latest.Code, record, nil
	} else if fault.KindOf(err) != fault.NotFound {
		return "", nil, err
	}
	if record.Steps.IaC == nil {
		return "", nil, fault.New(fault.NotFound, "workflow "+workflowID+" has no generated code")
	}
	return record.Steps.IaC.Code, record, nil
}

func workflowContext(record *models.WorkflowRecord) *agents.WorkflowContext {
	wc := &agents.WorkflowContext{Prompt: record.Input.Prompt}
	if record.Summary != nil {
		wc.CloudProvider = record.Summary.CloudProvider
		wc.Region = record.Summary.Region
		wc.ServicesCount = record.Summary.ServicesCount
	}
	return wc
}

type chatRequest struct {
	WorkflowID string `json:"workflow_id"`
	SessionID  string `json:"session_id,omitempty"`
	Message    string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// AdvisorChat answers a conversational question about a workflow's code.
// (POST /api/v1/advisor/chat)
func (s *Server) AdvisorChat(c echo.Context) error {
	ctx := c.Request().Context()

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return s.problem(c, fault.Wrap(fault.InvalidInput, "invalid request body", err))
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	code, record, err := s.currentCode(ctx, req.WorkflowID)
	if err != nil {
		return s.problem(c, err)
	}

	reply, err := s.Advisor.Chat(ctx, req.SessionID, req.Message, code, workflowContext(record))
	if err != nil {
		return s.problem(c, err)
	}

	s.saveInteraction(ctx, req.WorkflowID, req.SessionID, "user", req.Message)
	s.saveInteraction(ctx, req.WorkflowID, req.SessionID, "assistant", reply)

	return c.JSON(http.StatusOK, chatResponse{SessionID: req.SessionID, Reply: reply})
}

// saveInteraction persists a chat message best-effort; a store failure
// never fails the chat itself.
func (s *Server) saveInteraction(ctx context.Context, workflowID, sessionID, role, message string) {
	err := s.History.SaveInteraction(ctx, &models.AdvisorInteraction{
		WorkflowID: workflowID,
		SessionID:  sessionID,
		Role:       role,
		Message:    message,
	})
	if err != nil {
		s.Logger.Warn("failed to persist advisor interaction", "workflow_id", workflowID, "error", err)
	}
}

type workflowRef struct {
	WorkflowID string `json:"workflow_id"`
}

// AdvisorAnalyze returns a free-form assessment of a workflow's code.
// (POST /api/v1/advisor/analyze)
func (s *Server) AdvisorAnalyze(c echo.Context) error {
	ctx := c.Request().Context()

	var req workflowRef
	if err := c.Bind(&req); err != nil {
		return s.problem(c, fault.Wrap(fault.InvalidInput, "invalid request body", err))
	}
	code, record, err := s.currentCode(ctx, req.WorkflowID)
	if err != nil {
		return s.problem(c, err)
	}

	analysis, err := s.Advisor.Analyze(ctx, code, workflowContext(record))
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"workflow_id": req.WorkflowID,
		"analysis":    analysis,
	})
}

// AdvisorSecurityScan runs a security scan over a workflow's code.
// (POST /api/v1/advisor/security-scan)
func (s *Server) AdvisorSecurityScan(c echo.Context) error {
	ctx := c.Request().Context()

	var req workflowRef
	if err := c.Bind(&req); err != nil {
		return s.problem(c, fault.Wrap(fault.InvalidInput, "invalid request body", err))
	}
	code, _, err := s.currentCode(ctx, req.WorkflowID)
	if err != nil {
		return s.problem(c, err)
	}

	report, err := s.Advisor.SecurityScan(ctx, code)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// AdvisorBestPractices checks a workflow's code against conventions.
// (POST /api/v1/advisor/best-practices)
func (s *Server) AdvisorBestPractices(c echo.Context) error {
	ctx := c.Request().Context()

	var req workflowRef
	if err := c.Bind(&req); err != nil {
		return s.problem(c, fault.Wrap(fault.InvalidInput, "invalid request body", err))
	}
	code, _, err := s.currentCode(ctx, req.WorkflowID)
	if err != nil {
		return s.problem(c, err)
	}

	report, err := s.Advisor.BestPractices(ctx, code)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// AdvisorResources extracts a structured resource inventory.
// (POST /api/v1/advisor/resources)
func (s *Server) AdvisorResources(c echo.Context) error {
	ctx := c.Request().Context()

	var req workflowRef
	if err := c.Bind(&req); err != nil {
		return s.problem(c, fault.Wrap(fault.InvalidInput, "invalid request body", err))
	}
	code, _, err := s.currentCode(ctx, req.WorkflowID)
	if err != nil {
		return s.problem(c, err)
	}

	inventory, err := s.Advisor.ParseResources(ctx, code)
	if err != nil {
		return s.problem(c, err)
	}
	insights := agents.Measure(code)
	return c.JSON(http.StatusOK, map[string]any{
		"workflow_id": req.WorkflowID,
		"inventory":   inventory,
		"metrics":     insights,
	})
}

type costForecastRequest struct {
	WorkflowID string  `json:"workflow_id"`
	Months     int     `json:"months,omitempty"`
	GrowthRate float64 `json:"growth_rate,omitempty"`
}

// AdvisorCostForecast projects the cost of a workflow's infrastructure.
// (POST /api/v1/advisor/cost-forecast)
func (s *Server) AdvisorCostForecast(c echo.Context) error {
	ctx := c.Request().Context()

	var req costForecastRequest
	if err := c.Bind(&req); err != nil {
		return s.problem(c, fault.Wrap(fault.InvalidInput, "invalid request body", err))
	}
	code, _, err := s.currentCode(ctx, req.WorkflowID)
	if err != nil {
		return s.problem(c, err)
	}

	analysis, forecast, err := s.Advisor.PredictiveCost(ctx, code, req.Months, req.GrowthRate)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"workflow_id": req.WorkflowID,
		"analysis":    analysis,
		"forecast":    forecast,
	})
}

type fixRequest struct {
	WorkflowID string `json:"workflow_id"`
	Issue      string `json:"issue"`
}

// AdvisorFix applies a targeted fix and stores the result as an
// advisor-authored code revision.
// (POST /api/v1/advisor/fix)
func (s *Server) AdvisorFix(c echo.Context) error {
	ctx := c.Request().Context()

	var req fixRequest
	if err := c.Bind(&req); err != nil {
		return s.problem(c, fault.Wrap(fault.InvalidInput, "invalid request body", err))
	}
	if req.Issue == "" {
		return s.problem(c, fault.New(fault.InvalidInput, "issue must not be empty"))
	}
	code, _, err := s.currentCode(ctx, req.WorkflowID)
	if err != nil {
		return s.problem(c, err)
	}

	fixed, explanation, err := s.Advisor.SuggestFix(ctx, code, req.Issue)
	if err != nil {
		return s.problem(c, err)
	}

	version := &models.CodeVersion{
		WorkflowID:        req.WorkflowID,
		Code:              fixed,
		ModifiedBy:        models.ActorAdvisor,
		ChangeDescription: req.Issue,
	}
	if err := s.History.AppendCodeVersion(ctx, version); err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"version":     version,
		"explanation": explanation,
	})
}
