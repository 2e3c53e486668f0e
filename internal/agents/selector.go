package agents

import (
	"context"
	"fmt"
	"strings"

	"infrax/backend/internal/catalog"
	"infrax/backend/internal/llm"
	"infrax/backend/internal/logging"
	"infrax/backend/pkg/models"
)

// Selector refines a component list into concrete managed-service names
// for one provider.
type Selector struct {
	oracle llm.Client
	logger *logging.Logger
}

// NewSelector creates a Selector.
func NewSelector(oracle llm.Client, logger *logging.Logger) *Selector {
	return &Selector{oracle: oracle, logger: logger}
}

// SelectionInput describes the application the selector refines services for.
type SelectionInput struct {
	Description   string
	WorkloadType  string
	Scale         string
	CloudProvider string
}

// Select asks for service recommendations and matches the prose reply
// against the provider's catalog. An unparsable or empty reply yields an
// empty list and a nil error; callers treat that as "no refinement
// available", not a failure.
func (s *Selector) Select(ctx context.Context, in SelectionInput) ([]models.ServiceChoice, error) {
	provider := strings.ToLower(in.CloudProvider)
	if provider == "" {
		provider = catalog.DefaultProvider
	}

	system := fmt.Sprintf(`You are an expert cloud architect specializing in %s.
Your role is to analyze application requirements and recommend the most
appropriate cloud services.

Available %s services:
%s

Provide recommendations based on technical fit, cost-effectiveness,
scalability, security best practices, and operational simplicity.

Format your response as:
## Recommended Services
- [Service Category]: [Service Name] - [Brief reasoning]

## Architecture Overview
[Brief description of how services work together]`, upper(provider), upper(provider), catalog.ServicesJSON(provider))

	user := fmt.Sprintf(`I need to build the following application:

Description: %s

Requirements:
- Workload Type: %s
- Expected Scale: %s

Please recommend the most appropriate cloud services for this application.`,
		in.Description, orDefault(in.WorkloadType, "general"), orDefault(in.Scale, "medium"))

	reply, err := s.oracle.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		Temperature: 0.3,
		MaxTokens:   1500,
	})
	if err != nil {
		return nil, fmt.Errorf("service selection request failed: %w", err)
	}

	choices := matchCatalog(reply, provider)
	if len(choices) == 0 {
		s.logger.Warn("no catalog services matched selection reply", "provider", provider)
	}
	return choices, nil
}

// matchCatalog scans the prose reply for known service names. The reply
// shape is not contractually guaranteed, so substring matching against
// the catalog is the parse here.
func matchCatalog(reply, provider string) []models.ServiceChoice {
	lower := strings.ToLower(reply)

	var out []models.ServiceChoice
	seen := make(map[string]bool)
	for category, services := range catalog.Services(provider) {
		for _, service := range services {
			if !strings.Contains(lower, strings.ToLower(service)) {
				continue
			}
			key := category + "/" + service
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, models.ServiceChoice{
				Service:  service,
				Category: category,
			})
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
