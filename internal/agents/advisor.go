package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"infrax/backend/internal/fault"
	"infrax/backend/internal/llm"
	"infrax/backend/internal/logging"
	"infrax/backend/pkg/models"
)

// maxSessionMessages bounds the rolling chat window per session:
// five exchanges, ten messages.
const maxSessionMessages = 10

// Advisor answers ad hoc questions about a previously generated artifact
// and runs static analysis over it. Chat context is kept per session id
// so concurrent sessions never share history.
type Advisor struct {
	oracle llm.Client
	logger *logging.Logger

	mu       sync.Mutex
	sessions map[string][]llm.Message
}

// NewAdvisor creates an Advisor.
func NewAdvisor(oracle llm.Client, logger *logging.Logger) *Advisor {
	return &Advisor{
		oracle:   oracle,
		logger:   logger,
		sessions: make(map[string][]llm.Message),
	}
}

// WorkflowContext is the metadata attached to advisor prompts.
type WorkflowContext struct {
	CloudProvider string
	Region        string
	ServicesCount int
	Prompt        string
}

// Analyze returns a free-form assessment of the code.
func (a *Advisor) Analyze(ctx context.Context, code string, wc *WorkflowContext) (string, error) {
	system := `You are an expert infrastructure-as-code and cloud analyst.

Your role is to:
1. Analyze the code for best practices, security, and efficiency
2. Identify potential issues, vulnerabilities, and anti-patterns
3. Suggest specific improvements with code examples
4. Provide cost optimization opportunities

Analyze the code and provide an overall assessment, security analysis,
cost optimization opportunities, and specific actionable recommendations.`

	user := fmt.Sprintf("Analyze this infrastructure code:\n\n```terraform\n%s\n```\n", code)
	if wc != nil {
		user += contextBlock(wc)
	}
	user += "\nProvide a comprehensive analysis with specific recommendations."

	reply, err := a.oracle.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		Temperature: 0.3,
		MaxTokens:   2500,
	})
	if err != nil {
		return "", fmt.Errorf("analysis request failed: %w", err)
	}
	return reply, nil
}

// Chat answers a conversational question, threading the session's
// bounded history through the prompt and appending the new exchange.
func (a *Advisor) Chat(ctx context.Context, sessionID, message, code string, wc *WorkflowContext) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fault.New(fault.InvalidInput, "chat message is empty")
	}

	system := `You are an intelligent infrastructure analyst and advisor.

You help users understand their infrastructure by answering questions
about design decisions, explaining cloud services, suggesting
improvements, and providing security and cost-saving recommendations.
Be conversational and specific. When suggesting improvements, provide
code examples.`

	messages := []llm.Message{{Role: llm.RoleSystem, Content: system}}
	if code != "" {
		contextMsg := fmt.Sprintf("Infrastructure Context:\n\n```terraform\n%s\n```\n", truncate(code, 2000))
		if wc != nil {
			contextMsg += contextBlock(wc)
		}
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: contextMsg})
	}
	messages = append(messages, a.history(sessionID)...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	reply, err := a.oracle.Complete(ctx, llm.Request{
		Messages:    messages,
		Temperature: 0.4,
		MaxTokens:   1500,
	})
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}

	a.remember(sessionID, message, reply)
	return reply, nil
}

func (a *Advisor) history(sessionID string) []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]llm.Message(nil), a.sessions[sessionID]...)
}

func (a *Advisor) remember(sessionID, userMsg, assistantMsg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h := append(a.sessions[sessionID],
		llm.Message{Role: llm.RoleUser, Content: userMsg},
		llm.Message{Role: llm.RoleAssistant, Content: assistantMsg},
	)
	if len(h) > maxSessionMessages {
		h = h[len(h)-maxSessionMessages:]
	}
	a.sessions[sessionID] = h
}

// SessionLen reports the current window size for a session.
func (a *Advisor) SessionLen(sessionID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions[sessionID])
}

// ClearSession drops a session's history.
func (a *Advisor) ClearSession(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, sessionID)
}

// Resource is one entry in a parsed resource inventory.
type Resource struct {
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	FullName   string         `json:"full_name"`
	Category   string         `json:"category"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Inventory is the structural parse of an artifact.
type Inventory struct {
	Resources   []Resource `json:"resources"`
	Variables   []string   `json:"variables"`
	Outputs     []string   `json:"outputs"`
	DataSources []string   `json:"data_sources"`
	Modules     []string   `json:"modules"`
}

// ParseResources extracts a structured resource inventory from the code.
// An unparsable reply yields an empty inventory, not an error.
func (a *Advisor) ParseResources(ctx context.Context, code string) (*Inventory, error) {
	system := `You are an infrastructure code parser. Extract ALL resources from the code.

Return JSON format:
{
  "resources": [
    {"type": "aws_s3_bucket", "name": "data_bucket", "full_name": "aws_s3_bucket.data_bucket", "category": "storage", "properties": {}}
  ],
  "variables": ["names"],
  "outputs": ["names"],
  "data_sources": ["names"],
  "modules": ["names"]
}

Categories: compute, storage, network, database, security, monitoring, other`

	reply, err := a.oracle.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Parse this code:\n```terraform\n%s\n```", code)},
		},
		Temperature: 0.1,
		MaxTokens:   3000,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("resource parse request failed: %w", err)
	}

	var inv Inventory
	if err := llm.DecodeJSON(reply, &inv); err != nil {
		a.logger.Warn("resource inventory reply unparsable, returning empty inventory")
		return &Inventory{}, nil
	}
	return &inv, nil
}

// SecurityIssue is one finding from a security scan.
type SecurityIssue struct {
	Issue    string `json:"issue"`
	Resource string `json:"resource,omitempty"`
	LineHint string `json:"line_hint,omitempty"`
	Fix      string `json:"fix,omitempty"`
}

// SecurityReport buckets findings by severity with an overall score
// where 100 means no findings.
type SecurityReport struct {
	Score       int             `json:"score"`
	Critical    []SecurityIssue `json:"critical"`
	High        []SecurityIssue `json:"high"`
	Medium      []SecurityIssue `json:"medium"`
	Low         []SecurityIssue `json:"low"`
	TotalIssues int             `json:"total_issues"`
}

// SecurityScan checks the code for security issues.
func (a *Advisor) SecurityScan(ctx context.Context, code string) (*SecurityReport, error) {
	system := `You are an infrastructure security expert. Scan for security issues:

CRITICAL: hardcoded credentials, public storage buckets, unencrypted
storage, open security groups (0.0.0.0/0), missing least privilege,
disabled logging.
HIGH: HTTP instead of HTTPS, weak encryption, overly permissive policies.
MEDIUM: missing backups, no versioning, weak password policies.

Return JSON: {
  "critical": [{"issue": "", "resource": "", "line_hint": "", "fix": ""}],
  "high": [...],
  "medium": [...],
  "low": [...],
  "score": 0-100
}`

	reply, err := a.oracle.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Scan this code:\n```terraform\n%s\n```", code)},
		},
		Temperature: 0.2,
		MaxTokens:   2500,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("security scan request failed: %w", err)
	}

	var report SecurityReport
	if err := llm.DecodeJSON(reply, &report); err != nil {
		a.logger.Warn("security scan reply unparsable, returning empty report")
		return &SecurityReport{Score: 0}, nil
	}
	report.TotalIssues = len(report.Critical) + len(report.High) + len(report.Medium) + len(report.Low)
	return &report, nil
}

// PracticeFinding is one failed best-practice check.
type PracticeFinding struct {
	Check          string `json:"check"`
	Impact         string `json:"impact,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// PracticesReport is the best-practices compliance result.
type PracticesReport struct {
	Score    int               `json:"score"`
	Passed   []string          `json:"passed"`
	Failed   []PracticeFinding `json:"failed"`
	Warnings []PracticeFinding `json:"warnings"`
}

// BestPractices checks the code against common conventions.
func (a *Advisor) BestPractices(ctx context.Context, code string) (*PracticesReport, error) {
	system := `You are an infrastructure-as-code best practices expert. Check for:
code organization, naming conventions, state management, variable
management (descriptions, sensitive marks), resource tagging, and
documentation.

Return JSON: {
  "score": 0-100,
  "passed": ["checks"],
  "failed": [{"check": "", "impact": "", "recommendation": ""}],
  "warnings": [{"check": "", "recommendation": ""}]
}`

	reply, err := a.oracle.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Check best practices:\n```terraform\n%s\n```", code)},
		},
		Temperature: 0.2,
		MaxTokens:   2000,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("best practices request failed: %w", err)
	}

	var report PracticesReport
	if err := llm.DecodeJSON(reply, &report); err != nil {
		a.logger.Warn("best practices reply unparsable, returning empty report")
		return &PracticesReport{}, nil
	}
	return &report, nil
}

// CodeMetrics are local line-level counts; no backend call involved.
type CodeMetrics struct {
	TotalLines int `json:"total_lines"`
	Resources  int `json:"resources"`
	Variables  int `json:"variables"`
	Outputs    int `json:"outputs"`
}

// Insights is a quick summary combining local metrics and a short
// backend-written blurb.
type Insights struct {
	Summary string      `json:"summary"`
	Metrics CodeMetrics `json:"metrics"`
}

// QuickInsights computes line metrics locally and asks for a
// three-sentence summary.
func (a *Advisor) QuickInsights(ctx context.Context, code string) (*Insights, error) {
	metrics := Measure(code)

	system := `Provide a quick 3-sentence summary of this infrastructure code:
1. What it creates
2. One strength
3. One area for improvement`

	reply, err := a.oracle.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Quick analysis:\n```terraform\n%s\n```", truncate(code, 1000))},
		},
		Temperature: 0.3,
		MaxTokens:   200,
	})
	if err != nil {
		return nil, fmt.Errorf("insights request failed: %w", err)
	}

	return &Insights{Summary: reply, Metrics: metrics}, nil
}

// Measure counts resource, variable, and output declarations.
func Measure(code string) CodeMetrics {
	lines := strings.Split(code, "\n")
	m := CodeMetrics{TotalLines: len(lines)}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, `resource "`):
			m.Resources++
		case strings.HasPrefix(trimmed, `variable "`):
			m.Variables++
		case strings.HasPrefix(trimmed, `output "`):
			m.Outputs++
		}
	}
	return m
}

// SuggestFix asks for a corrected version of the code for one specific
// issue. The fixed code is pulled from the reply's fenced block; if no
// block is present the original code is returned unchanged with the
// prose explanation.
func (a *Advisor) SuggestFix(ctx context.Context, code, issue string) (fixed, explanation string, err error) {
	system := `You are an infrastructure code fixer. Given an issue, generate the fixed code.

Rules:
1. Fix ONLY the specific issue mentioned
2. Preserve all other code exactly as is
3. Add comments explaining the fix
4. Return the complete fixed code in a fenced code block
5. Explain what changed and why`

	user := fmt.Sprintf("Issue to fix: %s\n\nOriginal code:\n```terraform\n%s\n```", issue, code)

	reply, err := a.oracle.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		Temperature: 0.2,
		MaxTokens:   3000,
	})
	if err != nil {
		return "", "", fmt.Errorf("fix request failed: %w", err)
	}

	fixed = llm.ExtractFencedBlock(reply)
	if fixed == "" {
		fixed = code
	}
	return fixed, reply, nil
}

// PredictiveCost runs the resource parse and then asks for a cost
// projection over the forecast window. Also returns the deterministic
// local forecast for the same parameters.
func (a *Advisor) PredictiveCost(ctx context.Context, code string, months int, growthRate float64) (map[string]any, *models.CostForecast, error) {
	inv, err := a.ParseResources(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	system := `You are a cloud infrastructure cost forecasting expert.
Estimate monthly costs per resource and project them over the forecast
window, considering instance sizes, storage, data transfer, and managed
service fees.

Return JSON: {
  "base_monthly_cost": 0,
  "cost_breakdown": {"compute": 0, "storage": 0, "network": 0, "database": 0, "other": 0},
  "cost_drivers": ["strings"],
  "optimization_opportunities": ["strings"]
}`

	user := fmt.Sprintf(`Resources to analyze: %d parsed resources.

Resource types: %s

Forecast Parameters:
- Months: %d
- Growth Rate: %.1f%% per month

Provide cost predictions.`, len(inv.Resources), resourceTypes(inv), months, growthRate*100)

	reply, err := a.oracle.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		Temperature: 0.2,
		MaxTokens:   3500,
		JSONMode:    true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("cost prediction request failed: %w", err)
	}

	analysis := make(map[string]any)
	if err := llm.DecodeJSON(reply, &analysis); err != nil {
		a.logger.Warn("cost prediction reply unparsable, returning local forecast only")
		analysis = map[string]any{}
	}

	base, _ := analysis["base_monthly_cost"].(float64)
	if base <= 0 {
		base = 1000
	}
	return analysis, Forecast(base, growthRate, months), nil
}

func resourceTypes(inv *Inventory) string {
	seen := make(map[string]bool)
	var types []string
	for _, r := range inv.Resources {
		if r.Type != "" && !seen[r.Type] {
			seen[r.Type] = true
			types = append(types, r.Type)
		}
	}
	if len(types) == 0 {
		return "none detected"
	}
	return strings.Join(types, ", ")
}

func contextBlock(wc *WorkflowContext) string {
	return fmt.Sprintf("\nWorkflow Context:\n- Cloud Provider: %s\n- Region: %s\n- Services: %d\n- Purpose: %s\n",
		orDefault(wc.CloudProvider, "Unknown"), orDefault(wc.Region, "Unknown"),
		wc.ServicesCount, orDefault(wc.Prompt, "Unknown"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
