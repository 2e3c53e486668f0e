package agents

import (
	"context"
	"fmt"
	"strings"

	"infrax/backend/internal/artifacts"
	"infrax/backend/internal/catalog"
	"infrax/backend/internal/fault"
	"infrax/backend/internal/llm"
	"infrax/backend/internal/logging"
	"infrax/backend/pkg/models"
)

// dialectExtensions maps the supported IaC tools to file extensions.
var dialectExtensions = map[string]string{
	"terraform":      "tf",
	"cloudformation": "yaml",
	"pulumi":         "py",
}

// SupportedDialect reports whether tool is one of the three IaC dialects.
func SupportedDialect(tool string) bool {
	_, ok := dialectExtensions[strings.ToLower(tool)]
	return ok
}

// CodeGenerator produces IaC source text and writes each result to a new
// artifact file.
type CodeGenerator struct {
	oracle llm.Client
	store  *artifacts.Store
	logger *logging.Logger
}

// NewCodeGenerator creates a CodeGenerator.
func NewCodeGenerator(oracle llm.Client, store *artifacts.Store, logger *logging.Logger) *CodeGenerator {
	return &CodeGenerator{oracle: oracle, store: store, logger: logger}
}

// CodegenInput carries everything the generation prompt needs.
type CodegenInput struct {
	CloudProvider     string
	IaCTool           string
	Services          []models.ServiceChoice
	Description       string
	Scale             string
	Region            string
	OptimizationNotes map[string][]string
}

// Generate asks the backend for complete IaC source, strips markdown
// fencing, and saves the result to a fresh timestamped file. Re-running
// with identical input always yields a new file.
func (g *CodeGenerator) Generate(ctx context.Context, in CodegenInput) (*models.GeneratedCode, error) {
	provider := strings.ToLower(in.CloudProvider)
	tool := strings.ToLower(in.IaCTool)

	ext, ok := dialectExtensions[tool]
	if !ok {
		return nil, fault.New(fault.UnsupportedDialect,
			fmt.Sprintf("iac tool %q is not one of terraform, cloudformation, pulumi", in.IaCTool))
	}
	if !catalog.KnownProvider(provider) {
		return nil, fault.New(fault.UnsupportedProvider,
			fmt.Sprintf("cloud provider %q is not one of %s", in.CloudProvider, join(catalog.Providers())))
	}

	reply, err := g.oracle.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: codegenSystemPrompt(provider, tool)},
			{Role: llm.RoleUser, Content: codegenUserPrompt(in, provider, tool)},
		},
		Temperature: 0.2,
		MaxTokens:   3000,
	})
	if err != nil {
		return nil, fmt.Errorf("code generation request failed: %w", err)
	}

	code := llm.StripFences(reply)
	if code == "" {
		return nil, fault.New(fault.UnparsableResponse, "code generation returned an empty payload")
	}

	filename, path, err := g.store.WriteCode(code, provider, tool, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to save generated code: %w", err)
	}
	g.logger.Info("generated code saved", "file", filename, "provider", provider, "tool", tool)

	return &models.GeneratedCode{
		Code:          code,
		Filename:      filename,
		FilePath:      path,
		CloudProvider: provider,
		IaCTool:       tool,
		ServicesCount: len(in.Services),
	}, nil
}

func codegenSystemPrompt(provider, tool string) string {
	return fmt.Sprintf(`You are an expert DevOps engineer and Infrastructure as Code specialist.
You specialize in %s and %s.

Your task is to generate production-ready, well-documented infrastructure
code following these principles:

1. Security Best Practices: encryption at rest and in transit, least
   privilege access, logging and monitoring, minimal network exposure.
2. Cost Optimization: right-sized resources, auto-scaling where
   appropriate, storage tiers and lifecycle policies.
3. Reliability: multi-AZ deployment for production workloads, automated
   backups, health checks, proper tagging.
4. Code Quality: well-commented, proper variable definitions, clear
   resource naming, output important values, follow %s best practices.

Generate ONLY the code with inline comments. No explanations before or
after the code.`, upper(provider), tool, tool)
}

func codegenUserPrompt(in CodegenInput, provider, tool string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %s code for %s with the following requirements:\n\n", tool, upper(provider))
	fmt.Fprintf(&sb, "**Application Description:**\n%s\n\n**Required Services:**\n",
		orDefault(in.Description, "Cloud infrastructure"))
	for _, svc := range in.Services {
		fmt.Fprintf(&sb, "- %s: %s\n", svc.Category, svc.Service)
	}
	fmt.Fprintf(&sb, "\n**Scale:** %s\n**Region:** %s\n",
		orDefault(in.Scale, "medium"), orDefault(in.Region, "default"))

	if len(in.OptimizationNotes) > 0 {
		sb.WriteString("\n**Cost Optimization Considerations:**\n")
		count := 0
		for category, notes := range in.OptimizationNotes {
			if count >= 3 {
				break
			}
			if len(notes) > 0 {
				fmt.Fprintf(&sb, "- %s: %s\n", category, notes[0])
				count++
			}
		}
	}

	fmt.Fprintf(&sb, `
Please generate complete, production-ready %s code that:
1. Implements all required services
2. Follows security best practices
3. Includes proper networking
4. Has appropriate monitoring and logging
5. Uses variables for configurability
6. Includes output values for important resources
`, tool)
	return sb.String()
}
