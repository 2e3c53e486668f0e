package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"infrax/backend/internal/artifacts"
	"infrax/backend/internal/llm"
	"infrax/backend/internal/logging"
	"infrax/backend/pkg/models"
)

// DiagramGenerator produces a Mermaid architecture diagram and a static
// HTML preview document.
type DiagramGenerator struct {
	oracle llm.Client
	store  *artifacts.Store
	logger *logging.Logger
}

// NewDiagramGenerator creates a DiagramGenerator.
func NewDiagramGenerator(oracle llm.Client, store *artifacts.Store, logger *logging.Logger) *DiagramGenerator {
	return &DiagramGenerator{oracle: oracle, store: store, logger: logger}
}

// DiagramInput carries the context the diagram prompt is built from.
type DiagramInput struct {
	CloudProvider string
	Services      []models.ServiceChoice
	Architecture  *models.Architecture
	Code          string
}

// Generate asks for a Mermaid flowchart, saves it, and writes an HTML
// preview alongside. Callers treat a returned error as non-fatal; the
// diagram is the one stage allowed to fail after code generation.
func (d *DiagramGenerator) Generate(ctx context.Context, in DiagramInput) (*models.Diagram, error) {
	provider := strings.ToLower(in.CloudProvider)

	reply, err := d.oracle.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: diagramSystemPrompt()},
			{Role: llm.RoleUser, Content: diagramUserPrompt(in, provider)},
		},
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, fmt.Errorf("diagram request failed: %w", err)
	}

	code := llm.StripFences(reply)
	filename, path, err := d.store.WriteDiagram(code, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to save diagram: %w", err)
	}

	htmlPath, err := d.store.WriteHTML(diagramHTML(code, provider), provider)
	if err != nil {
		// the .mmd artifact already exists; the preview is optional
		d.logger.Warn("failed to write diagram html preview", "error", err)
		htmlPath = ""
	}

	return &models.Diagram{
		Code:        code,
		Filename:    filename,
		FilePath:    path,
		HTMLPreview: htmlPath,
	}, nil
}

func diagramSystemPrompt() string {
	return `You are an expert at creating Mermaid.js diagrams for cloud infrastructure.

Create a clear Mermaid flowchart that shows:
1. Network topology (VPC, subnets, zones)
2. All services and their relationships
3. Data flow between components
4. Security boundaries
5. Load balancers and gateways
6. Databases and storage
7. External connections (Internet, users, APIs)

Use appropriate Mermaid syntax:
- graph TD for top-down flow
- subgraph for grouping
- --> for connections with labels
- Different shapes for different service types

Output ONLY the Mermaid code, no explanations.`
}

func diagramUserPrompt(in DiagramInput, provider string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a Mermaid diagram for this %s infrastructure:\n\nServices:\n", upper(provider))
	for _, svc := range in.Services {
		fmt.Fprintf(&sb, "- %s: %s (%s)\n", orDefault(svc.Component, "component"), svc.Service, svc.Category)
	}
	if arch := in.Architecture; arch != nil {
		sb.WriteString("\nArchitecture:\n")
		fmt.Fprintf(&sb, "Network: %s\n", arch.NetworkDesign)
		fmt.Fprintf(&sb, "Security Zones: %s\n", join(arch.SecurityZones))
		fmt.Fprintf(&sb, "Scalability: %s\n", arch.Scalability)
		fmt.Fprintf(&sb, "Data Flow: %s\n", arch.DataFlow)
	}
	return sb.String()
}

// diagramHTML wraps a Mermaid diagram in a standalone page that renders
// it client-side via the mermaid CDN script.
func diagramHTML(diagram, provider string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s Infrastructure Diagram - Brahma</title>
    <script src="https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"></script>
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 20px; background: #f0f2f5; }
        .container { max-width: 1400px; margin: 0 auto; background: white; padding: 30px; border-radius: 10px; box-shadow: 0 4px 16px rgba(0,0,0,0.1); }
        h1 { color: #333; margin-bottom: 10px; }
        .badge { display: inline-block; padding: 5px 12px; background: #667eea; color: white; border-radius: 20px; font-size: 12px; margin-right: 10px; }
        .diagram-container { background: #f8f9fa; padding: 30px; border-radius: 8px; border: 2px solid #e0e0e0; overflow-x: auto; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 2px solid #e0e0e0; color: #666; font-size: 14px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Infrastructure Architecture Diagram</h1>
        <div>
            <span class="badge">%s</span>
            <span class="badge">Generated by Brahma</span>
        </div>
        <div class="diagram-container">
            <div class="mermaid">
%s
            </div>
        </div>
        <div class="footer">
            <strong>Generated:</strong> %s<br>
            <strong>Cloud Provider:</strong> %s
        </div>
    </div>
    <script>
        mermaid.initialize({ startOnLoad: true, theme: 'default', flowchart: { useMaxWidth: true, htmlLabels: true, curve: 'basis' } });
    </script>
</body>
</html>`, upper(provider), upper(provider), diagram, time.Now().UTC().Format("2006-01-02 15:04:05"), upper(provider))
}
