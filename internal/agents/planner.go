// Package agents contains the prompt-shaping agents that sit between the
// orchestrator and the completion backend. Each agent formats one prompt,
// parses the reply with a documented fallback, and returns a typed result.
package agents

import (
	"context"
	"fmt"

	"infrax/backend/internal/catalog"
	"infrax/backend/internal/llm"
	"infrax/backend/internal/logging"
	"infrax/backend/pkg/models"
)

// Planner decides cloud provider, region, and component breakdown from a
// natural-language prompt.
type Planner struct {
	oracle llm.Client
	logger *logging.Logger
}

// NewPlanner creates a Planner.
func NewPlanner(oracle llm.Client, logger *logging.Logger) *Planner {
	return &Planner{oracle: oracle, logger: logger}
}

type plannerReply struct {
	RecommendedProvider string              `json:"recommended_provider"`
	RecommendedRegion   string              `json:"recommended_region"`
	LocationRationale   string              `json:"location_rationale"`
	Requirements        models.Requirements `json:"requirements"`
}

// Plan analyzes the prompt and produces a provider/region decision plus a
// service plan and architecture sketch. A malformed reply degrades to the
// documented default decision rather than failing; a backend failure is
// returned as-is and aborts the run upstream.
func (p *Planner) Plan(ctx context.Context, prompt, location string) (*models.Plan, error) {
	reply, err := p.oracle.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: plannerSystemPrompt()},
			{Role: llm.RoleUser, Content: plannerUserPrompt(prompt, location)},
		},
		Temperature: 0.3,
		MaxTokens:   1500,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("planning request failed: %w", err)
	}

	plan := p.parsePlan(reply)

	// Second call: concrete services per component. Unparsable replies
	// leave the service list empty, which downstream treats as "no
	// refinement available".
	services, err := p.serviceDecisions(ctx, plan, location)
	if err != nil {
		return nil, fmt.Errorf("service planning request failed: %w", err)
	}
	plan.Services = services

	arch, err := p.designArchitecture(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("architecture request failed: %w", err)
	}
	plan.Architecture = arch

	return plan, nil
}

// parsePlan applies the degrade-to-default policy for malformed replies.
func (p *Planner) parsePlan(reply string) *models.Plan {
	var out plannerReply
	if err := llm.DecodeJSON(reply, &out); err != nil || !catalog.KnownProvider(out.RecommendedProvider) {
		p.logger.Warn("planner reply unparsable, using default decision",
			"provider", catalog.DefaultProvider, "region", catalog.DefaultRegion)
		return &models.Plan{
			CloudProvider:     catalog.DefaultProvider,
			Region:            catalog.DefaultRegion,
			LocationRationale: "Defaulted after an unparsable planning response",
			Requirements:      models.Requirements{AppType: "general", Scale: "medium"},
			Defaulted:         true,
		}
	}
	return &models.Plan{
		CloudProvider:     out.RecommendedProvider,
		Region:            out.RecommendedRegion,
		LocationRationale: out.LocationRationale,
		Requirements:      out.Requirements,
	}
}

type servicePlanReply struct {
	Services []struct {
		Component     string `json:"component"`
		Service       string `json:"service"`
		Category      string `json:"category"`
		Rationale     string `json:"rationale"`
		Configuration struct {
			KeySettings []string `json:"key_settings"`
		} `json:"configuration"`
	} `json:"services"`
}

func (p *Planner) serviceDecisions(ctx context.Context, plan *models.Plan, location string) ([]models.ServiceChoice, error) {
	if location == "" {
		location = "Global"
	}
	system := fmt.Sprintf(`You are a %s solutions architect.
Create a detailed service plan specifying EXACT %s services for each component.

Available services:
%s

Respond in JSON format:
{
  "services": [
    {
      "component": "component name",
      "service": "exact service name",
      "category": "compute|database|storage|networking|security|analytics",
      "configuration": {"key_settings": ["important config items"]},
      "rationale": "why this service"
    }
  ]
}`, upper(plan.CloudProvider), upper(plan.CloudProvider), catalog.ServicesJSON(plan.CloudProvider))

	user := fmt.Sprintf(`Create a service plan for %s:

Application Type: %s
Components Needed: %s
Scale: %s
Location: %s`, upper(plan.CloudProvider), plan.Requirements.AppType,
		join(plan.Requirements.Components), plan.Requirements.Scale, location)

	reply, err := p.oracle.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		Temperature: 0.2,
		MaxTokens:   2000,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	var out servicePlanReply
	if err := llm.DecodeJSON(reply, &out); err != nil {
		p.logger.Warn("service plan reply unparsable, continuing without services")
		return nil, nil
	}

	services := make([]models.ServiceChoice, 0, len(out.Services))
	for _, s := range out.Services {
		services = append(services, models.ServiceChoice{
			Component: s.Component,
			Service:   s.Service,
			Category:  s.Category,
			Rationale: s.Rationale,
			Settings:  s.Configuration.KeySettings,
		})
	}
	return services, nil
}

// designArchitecture asks for a high-level design. Its fallback is a
// generic three-tier sketch.
func (p *Planner) designArchitecture(ctx context.Context, plan *models.Plan) (*models.Architecture, error) {
	system := `You are a cloud architect. Design a high-level architecture including:
- Network topology
- Data flow
- Security zones
- Scalability strategy
- Disaster recovery approach

Respond in JSON format:
{
  "network_design": "description",
  "data_flow": "how data moves through system",
  "security_zones": ["zone descriptions"],
  "scalability": "auto-scaling strategy",
  "availability": "HA/DR approach",
  "monitoring": "observability strategy"
}`

	user := fmt.Sprintf(`Design architecture for:

Provider: %s
Region: %s
Services: %d selected

Create a complete architecture design.`, upper(plan.CloudProvider), plan.Region, len(plan.Services))

	reply, err := p.oracle.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		Temperature: 0.3,
		MaxTokens:   1500,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	var arch models.Architecture
	if err := llm.DecodeJSON(reply, &arch); err != nil {
		return &models.Architecture{
			NetworkDesign: "VPC with public and private subnets",
			DataFlow:      "Standard 3-tier architecture",
			SecurityZones: []string{"Public", "Application", "Data"},
			Scalability:   "Auto-scaling groups",
			Availability:  "Multi-AZ deployment",
		}, nil
	}
	return &arch, nil
}

func plannerSystemPrompt() string {
	return fmt.Sprintf(`You are an expert cloud architect. Analyze the user's requirements and determine:

1. Cloud Provider Selection: choose aws, azure, or gcp based on geographic
   location, latency needs, service needs, and any technology stack mentioned.
2. Requirements Breakdown: application type, core components, scale, and
   special needs.
3. Location Strategy: if a location is given, pick the provider and region
   with the best presence there; otherwise infer from context.

Available providers and regions:
%s

Respond in JSON format:
{
  "recommended_provider": "aws|azure|gcp",
  "recommended_region": "specific-region-code",
  "location_rationale": "why this provider and region",
  "requirements": {
    "app_type": "type",
    "components": ["list of components"],
    "scale": "small|medium|large",
    "special_needs": ["any special requirements"]
  }
}`, catalog.ProviderRegionsJSON())
}

func plannerUserPrompt(prompt, location string) string {
	if location == "" {
		location = "Not specified - please infer or recommend"
	}
	return fmt.Sprintf(`Analyze this infrastructure requirement:

Prompt: %s
Target Location: %s

Provide a complete analysis and cloud provider recommendation.`, prompt, location)
}
