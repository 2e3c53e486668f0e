package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infrax/backend/internal/agents"
	"infrax/backend/internal/artifacts"
	"infrax/backend/internal/llm"
	"infrax/backend/internal/logging"
	"infrax/backend/internal/orchestrator"
	"infrax/backend/internal/repository"
	"infrax/backend/pkg/models"
)

// workflowReplies scripts the oracle for one successful pipeline run.
var workflowReplies = []string{
	`{"recommended_provider": "aws", "recommended_region": "us-east-1",
	  "location_rationale": "default region",
	  "requirements": {"app_type": "web_app", "components": ["web server"], "scale": "small"}}`,
	`{"services": [{"component": "web server", "service": "EC2", "category": "compute"}]}`,
	`{"network_design": "VPC", "data_flow": "simple", "security_zones": ["Public"], "scalability": "ASG", "availability": "Multi-AZ"}`,
	"## Immediate Actions\nNothing urgent.",
	"## Recommended Services\n- Compute: EC2 - fine",
	"resource \"aws_instance\" \"web\" {}",
	"graph TD\n  A --> B",
}

func newTestServer(t *testing.T, oracle llm.Client) (*echo.Echo, *Server) {
	t.Helper()
	dir := t.TempDir()
	store, err := artifacts.NewStore(filepath.Join(dir, "code"), filepath.Join(dir, "diagrams"))
	require.NoError(t, err)

	logger := logging.NewNop()
	history := repository.NewMemoryStore()
	o := orchestrator.New(
		agents.NewPlanner(oracle, logger),
		agents.NewCostEstimator(oracle, logger),
		agents.NewSelector(oracle, logger),
		agents.NewCodeGenerator(oracle, store, logger),
		agents.NewDiagramGenerator(oracle, store, logger),
		history,
		logger,
	)
	server := NewServer(o, agents.NewAdvisor(oracle, logger), history, store, logger)

	e := echo.New()
	server.RegisterRoutes(e)
	return e, server
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func createWorkflow(t *testing.T, e *echo.Echo) models.WorkflowRecord {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/api/v1/workflows",
		`{"prompt": "a web app", "iac_tool": "terraform"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var record models.WorkflowRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	return record
}

func TestHealthEndpoint(t *testing.T) {
	e, _ := newTestServer(t, llm.NewFake())
	rec := doJSON(t, e, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var health models.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "brahma", health.Service)
}

func TestCreateWorkflowReturnsRecord(t *testing.T) {
	e, _ := newTestServer(t, llm.NewFake(workflowReplies...))
	record := createWorkflow(t, e)

	assert.Equal(t, models.WorkflowSucceeded, record.Status)
	assert.NotEmpty(t, record.ID)
	require.NotNil(t, record.Summary)
	assert.Equal(t, "aws", record.Summary.CloudProvider)
}

func TestCreateWorkflowEmptyPromptIs400(t *testing.T) {
	oracle := llm.NewFake(workflowReplies...)
	e, _ := newTestServer(t, oracle)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/workflows", `{"prompt": ""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem models.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "invalid_input", problem.Fault)
	assert.Zero(t, oracle.Calls())
}

func TestGetWorkflowUnknownIDIs404(t *testing.T) {
	e, _ := newTestServer(t, llm.NewFake())
	rec := doJSON(t, e, http.MethodGet, "/api/v1/workflows/nope", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	var problem models.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "not_found", problem.Fault)
}

func TestListWorkflowsAfterCreate(t *testing.T) {
	e, _ := newTestServer(t, llm.NewFake(workflowReplies...))
	record := createWorkflow(t, e)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/workflows", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listings []models.WorkflowListing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listings))
	require.Len(t, listings, 1)
	assert.Equal(t, record.ID, listings[0].ID)
	assert.Equal(t, "a web app", listings[0].Prompt)
}

func TestGetCodeFallsBackToGeneratedFile(t *testing.T) {
	e, _ := newTestServer(t, llm.NewFake(workflowReplies...))
	record := createWorkflow(t, e)

	rec := doJSON(t, e, http.MethodGet, "/api/v1/workflows/"+record.ID+"/code", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp codeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Code, "aws_instance")
	assert.Zero(t, resp.Version)
}

func TestUpdateCodeAppendsUserVersion(t *testing.T) {
	e, _ := newTestServer(t, llm.NewFake(workflowReplies...))
	record := createWorkflow(t, e)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/workflows/"+record.ID+"/code",
		`{"code": "resource \"aws_instance\" \"web\" { instance_type = \"t3.micro\" }", "change_description": "right-size"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var version models.CodeVersion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &version))
	assert.Equal(t, 1, version.Version)
	assert.Equal(t, models.ActorUser, version.ModifiedBy)

	// latest version now wins over the generated file
	rec = doJSON(t, e, http.MethodGet, "/api/v1/workflows/"+record.ID+"/code", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp codeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Version)
	assert.Contains(t, resp.Code, "t3.micro")
}

func TestUpdateCodeEmptyBodyIs400(t *testing.T) {
	e, _ := newTestServer(t, llm.NewFake(workflowReplies...))
	record := createWorkflow(t, e)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/workflows/"+record.ID+"/code", `{"code": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdvisorChatPersistsInteractions(t *testing.T) {
	replies := append(append([]string{}, workflowReplies...), "the instance type is t3.micro")
	e, server := newTestServer(t, llm.NewFake(replies...))
	record := createWorkflow(t, e)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/advisor/chat",
		`{"workflow_id": "`+record.ID+`", "message": "what instance type is used?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.NotEmpty(t, resp.Reply)

	interactions, err := server.History.ListInteractions(context.Background(), record.ID)
	require.NoError(t, err)
	require.Len(t, interactions, 2)
	assert.Equal(t, "user", interactions[0].Role)
	assert.Equal(t, "assistant", interactions[1].Role)
}

func TestAdvisorChatUnknownWorkflowIs404(t *testing.T) {
	e, _ := newTestServer(t, llm.NewFake())
	rec := doJSON(t, e, http.MethodPost, "/api/v1/advisor/chat",
		`{"workflow_id": "missing", "message": "hello"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdvisorSecurityScan(t *testing.T) {
	replies := append(append([]string{}, workflowReplies...),
		`{"critical": [{"issue": "open security group"}], "high": [], "medium": [], "low": [], "score": 40}`)
	e, _ := newTestServer(t, llm.NewFake(replies...))
	record := createWorkflow(t, e)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/advisor/security-scan",
		`{"workflow_id": "`+record.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var report agents.SecurityReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 40, report.Score)
	assert.Equal(t, 1, report.TotalIssues)
}

func TestAdvisorFixAppendsAdvisorVersion(t *testing.T) {
	replies := append(append([]string{}, workflowReplies...),
		"Fixed:\n```terraform\nresource \"aws_instance\" \"web\" { monitoring = true }\n```\nEnabled monitoring.")
	e, server := newTestServer(t, llm.NewFake(replies...))
	record := createWorkflow(t, e)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/advisor/fix",
		`{"workflow_id": "`+record.ID+`", "issue": "monitoring disabled"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	versions, err := server.History.ListCodeVersions(context.Background(), record.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, models.ActorAdvisor, versions[0].ModifiedBy)
	assert.Equal(t, 1, versions[0].Version)
	assert.Contains(t, versions[0].Code, "monitoring = true")
}

func TestAdvisorCostForecast(t *testing.T) {
	replies := append(append([]string{}, workflowReplies...),
		`{"resources": [{"type": "aws_instance", "name": "web", "category": "compute"}]}`,
		`{"base_monthly_cost": 500}`)
	e, _ := newTestServer(t, llm.NewFake(replies...))
	record := createWorkflow(t, e)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/advisor/cost-forecast",
		`{"workflow_id": "`+record.ID+`", "months": 3, "growth_rate": 0.1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Forecast models.CostForecast `json:"forecast"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Forecast.Months)
	require.Len(t, resp.Forecast.BaselineForecast, 3)
	assert.Equal(t, 550.0, resp.Forecast.BaselineForecast[0].Cost)
}
