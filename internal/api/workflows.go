package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"infrax/backend/internal/fault"
	"infrax/backend/pkg/models"
)

// CreateWorkflow runs the full generation pipeline for a prompt.
// (POST /api/v1/workflows)
func (s *Server) CreateWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	var input models.WorkflowInput
	if err := c.Bind(&input); err != nil {
		return s.problem(c, fault.Wrap(fault.InvalidInput, "invalid request body", err))
	}

	record, err := s.Orchestrator.Run(ctx, input)
	if err != nil {
		// a FAILED run still produced a record; surface it with the error
		if record != nil {
			return c.JSON(http.StatusOK, record)
		}
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// ListWorkflows returns compact listings of all runs.
// (GET /api/v1/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	listings, err := s.History.ListWorkflows(c.Request().Context())
	if err != nil {
		return s.problem(c, err)
	}
	if listings == nil {
		listings = []models.WorkflowListing{}
	}
	return c.JSON(http.StatusOK, listings)
}

// GetWorkflow returns a full workflow record.
// (GET /api/v1/workflows/:id)
func (s *Server) GetWorkflow(c echo.Context) error {
	record, err := s.History.GetWorkflow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// codeResponse is the current-artifact payload.
type codeResponse struct {
	WorkflowID string `json:"workflow_id"`
	Version    int    `json:"version"`
	Code       string `json:"code"`
	Filename   string `json:"filename,omitempty"`
	ModifiedBy string `json:"modified_by,omitempty"`
}

// GetCode returns the current artifact text: the latest stored code
// version when edits exist, otherwise the originally generated file.
// (GET /api/v1/workflows/:id/code)
func (s *Server) GetCode(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if latest, err := s.History.LatestCodeVersion(ctx, id); err == nil {
		return c.JSON(http.StatusOK, codeResponse{
			WorkflowID: id,
			Version:    latest.Version,
			Code:       latest.Code,
			ModifiedBy: latest.ModifiedBy,
		})
	} else if fault.KindOf(err) != fault.NotFound {
		return s.problem(c, err)
	}

	record, err := s.History.GetWorkflow(ctx, id)
	if err != nil {
		return s.problem(c, err)
	}
	if record.Steps.IaC == nil {
		return s.problem(c, fault.New(fault.NotFound, "workflow "+id+" has no generated code"))
	}
	return c.JSON(http.StatusOK, codeResponse{
		WorkflowID: id,
		Code:       record.Steps.IaC.Code,
		Filename:   record.Steps.IaC.Filename,
	})
}

type updateCodeRequest struct {
	Code              string `json:"code"`
	ChangeDescription string `json:"change_description,omitempty"`
}

// UpdateCode appends a user-authored code revision.
// (POST /api/v1/workflows/:id/code)
func (s *Server) UpdateCode(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	var req updateCodeRequest
	if err := c.Bind(&req); err != nil {
		return s.problem(c, fault.Wrap(fault.InvalidInput, "invalid request body", err))
	}
	if req.Code == "" {
		return s.problem(c, fault.New(fault.InvalidInput, "code must not be empty"))
	}
	if _, err := s.History.GetWorkflow(ctx, id); err != nil {
		return s.problem(c, err)
	}

	version := &models.CodeVersion{
		WorkflowID:        id,
		Code:              req.Code,
		ModifiedBy:        models.ActorUser,
		ChangeDescription: req.ChangeDescription,
	}
	if err := s.History.AppendCodeVersion(ctx, version); err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, version)
}

// ListCodeVersions returns a workflow's revision history.
// (GET /api/v1/workflows/:id/code/versions)
func (s *Server) ListCodeVersions(c echo.Context) error {
	versions, err := s.History.ListCodeVersions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.problem(c, err)
	}
	if versions == nil {
		versions = []models.CodeVersion{}
	}
	return c.JSON(http.StatusOK, versions)
}
