package agents

import (
	"context"
	"fmt"
	"math"
	"strings"

	"infrax/backend/internal/llm"
	"infrax/backend/internal/logging"
	"infrax/backend/pkg/models"
)

// Per-category flat savings credits. These are coarse placeholders, not
// priced estimates; the numbers come from no pricing source and must not
// be presented as accurate.
var savingsCredits = map[string]float64{
	"compute":    500,
	"database":   300,
	"storage":    200,
	"networking": 150,
}

// optimizationStrategies lists the playbook surfaced per service category.
var optimizationStrategies = map[string][]string{
	"compute": {
		"Right-sizing instances",
		"Using spot/preemptible instances",
		"Auto-scaling configuration",
		"Reserved instances for steady workloads",
		"Serverless for variable workloads",
	},
	"storage": {
		"Lifecycle policies",
		"Storage tiering",
		"Compression",
		"Deduplication",
		"Archive old data",
	},
	"database": {
		"Right-sizing database instances",
		"Read replicas optimization",
		"Connection pooling",
		"Query optimization",
		"Automated backups schedule",
	},
	"networking": {
		"CDN usage",
		"Data transfer optimization",
		"VPC endpoint usage",
		"Load balancer optimization",
	},
}

// CostEstimator produces a prose optimization report from the backend
// plus a local heuristic savings number.
type CostEstimator struct {
	oracle llm.Client
	logger *logging.Logger
}

// NewCostEstimator creates a CostEstimator.
func NewCostEstimator(oracle llm.Client, logger *logging.Logger) *CostEstimator {
	return &CostEstimator{oracle: oracle, logger: logger}
}

// CostInput describes the infrastructure under analysis.
type CostInput struct {
	CloudProvider string
	Services      []models.ServiceChoice
	UsagePatterns string
	CurrentCost   float64
}

// Analyze asks for an optimization narrative and computes the heuristic
// savings locally. The savings figure never comes from the backend.
func (c *CostEstimator) Analyze(ctx context.Context, in CostInput) (*models.CostAnalysis, error) {
	provider := strings.ToLower(in.CloudProvider)

	system := fmt.Sprintf(`You are an expert cloud cost optimization specialist for %s.
Your goal is to help organizations reduce their cloud spending while
maintaining performance.

Provide specific, actionable recommendations covering:
1. Immediate cost-saving opportunities
2. Right-sizing recommendations
3. Resource scheduling
4. Reserved capacity vs on-demand analysis
5. Serverless alternatives where applicable
6. Storage optimization
7. Network cost reduction

Format your response with:
## Immediate Actions (Quick wins)
## Short-term Optimizations (1-3 months)
## Long-term Strategy
## Estimated Total Savings`, upper(provider))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze costs for the following infrastructure:\n\nCurrent Monthly Cost: $%.2f\n\nServices in use:\n", in.CurrentCost)
	for _, svc := range in.Services {
		fmt.Fprintf(&sb, "- %s: %s\n", svc.Category, svc.Service)
	}
	fmt.Fprintf(&sb, "\nUsage Patterns: %s\n\nPlease provide detailed cost optimization recommendations.",
		orDefault(in.UsagePatterns, "Standard business hours"))

	reply, err := c.oracle.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: sb.String()},
		},
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, fmt.Errorf("cost analysis request failed: %w", err)
	}

	savings := EstimateSavings(in.Services)

	analysis := &models.CostAnalysis{
		CloudProvider:           provider,
		CurrentCost:             in.CurrentCost,
		EstimatedMonthlySavings: savings,
		Recommendations:         reply,
		Strategies:              relevantStrategies(in.Services),
	}
	if in.CurrentCost > 0 {
		analysis.SavingsPercentage = round2(savings / in.CurrentCost * 100)
	}
	return analysis, nil
}

// EstimateSavings sums the flat per-category credits for the service
// categories present. Deterministic and local; a placeholder, not a
// priced estimate.
func EstimateSavings(services []models.ServiceChoice) float64 {
	var total float64
	for _, svc := range services {
		total += savingsCredits[strings.ToLower(svc.Category)]
	}
	return round2(total)
}

func relevantStrategies(services []models.ServiceChoice) map[string][]string {
	out := make(map[string][]string)
	for _, svc := range services {
		cat := strings.ToLower(svc.Category)
		if strategies, ok := optimizationStrategies[cat]; ok {
			out[cat] = strategies
		}
	}
	return out
}

// Forecast projects current cost forward at a compounding growth rate.
// The optimized series is the baseline at a flat 50% multiplier, another
// documented placeholder.
func Forecast(currentCost, growthRate float64, months int) *models.CostForecast {
	if months <= 0 {
		months = 12
	}
	fc := &models.CostForecast{Months: months}
	for month := 1; month <= months; month++ {
		baseline := round2(currentCost * math.Pow(1+growthRate, float64(month)))
		optimized := round2(baseline * 0.5)
		fc.BaselineForecast = append(fc.BaselineForecast, models.ForecastPoint{Month: month, Cost: baseline})
		fc.OptimizedForecast = append(fc.OptimizedForecast, models.ForecastPoint{Month: month, Cost: optimized})
		fc.TotalBaselineCost += baseline
		fc.TotalOptimizedCost += optimized
	}
	fc.TotalBaselineCost = round2(fc.TotalBaselineCost)
	fc.TotalOptimizedCost = round2(fc.TotalOptimizedCost)
	fc.TotalSavings = round2(fc.TotalBaselineCost - fc.TotalOptimizedCost)
	return fc
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
