// Package api contains the HTTP handlers for the orchestration service.
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"infrax/backend/internal/agents"
	"infrax/backend/internal/artifacts"
	"infrax/backend/internal/fault"
	"infrax/backend/internal/logging"
	"infrax/backend/internal/orchestrator"
	"infrax/backend/internal/repository"
	"infrax/backend/pkg/models"
)

const serviceVersion = "1.0.0"

// Server holds the dependencies for the API server.
type Server struct {
	Orchestrator *orchestrator.Orchestrator
	Advisor      *agents.Advisor
	History      repository.Store
	Artifacts    *artifacts.Store
	Logger       *logging.Logger
}

// NewServer creates a new Server.
func NewServer(o *orchestrator.Orchestrator, advisor *agents.Advisor,
	history repository.Store, store *artifacts.Store, logger *logging.Logger) *Server {
	return &Server{
		Orchestrator: o,
		Advisor:      advisor,
		History:      history,
		Artifacts:    store,
		Logger:       logger,
	}
}

// RegisterRoutes mounts all API routes on the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/", s.Root)
	e.GET("/health", s.Health)

	v1 := e.Group("/api/v1")
	v1.POST("/workflows", s.CreateWorkflow)
	v1.GET("/workflows", s.ListWorkflows)
	v1.GET("/workflows/:id", s.GetWorkflow)
	v1.GET("/workflows/:id/code", s.GetCode)
	v1.POST("/workflows/:id/code", s.UpdateCode)
	v1.GET("/workflows/:id/code/versions", s.ListCodeVersions)

	advisor := v1.Group("/advisor")
	advisor.POST("/chat", s.AdvisorChat)
	advisor.POST("/analyze", s.AdvisorAnalyze)
	advisor.POST("/security-scan", s.AdvisorSecurityScan)
	advisor.POST("/best-practices", s.AdvisorBestPractices)
	advisor.POST("/resources", s.AdvisorResources)
	advisor.POST("/cost-forecast", s.AdvisorCostForecast)
	advisor.POST("/fix", s.AdvisorFix)
}

// Root returns the service banner.
func (s *Server) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "brahma",
		"message": "InfraX Brahma infrastructure orchestration API",
		"version": serviceVersion,
	})
}

// Health returns basic health status.
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthStatus{
		Status:    "ok",
		Service:   "brahma",
		Version:   serviceVersion,
		Timestamp: time.Now().UTC(),
	})
}

// httpStatus maps a failure kind to an HTTP status code.
func httpStatus(kind fault.Kind) int {
	switch kind {
	case fault.InvalidInput, fault.UnsupportedDialect, fault.UnsupportedProvider:
		return http.StatusBadRequest
	case fault.NotFound:
		return http.StatusNotFound
	case fault.UpstreamUnavailable:
		return http.StatusBadGateway
	case fault.PersistenceFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// problem writes an RFC 7807 problem-details response carrying the
// stable fault category.
func (s *Server) problem(c echo.Context, err error) error {
	kind := fault.KindOf(err)
	status := httpStatus(kind)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.JSON(status, models.ProblemDetails{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   err.Error(),
		Instance: c.Request().URL.Path,
		Fault:    string(kind),
	})
}
