package models

// Requirements is the planner's breakdown of the user prompt.
type Requirements struct {
	AppType      string   `json:"app_type"`
	Components   []string `json:"components"`
	Scale        string   `json:"scale"`
	SpecialNeeds []string `json:"special_needs,omitempty"`
}

// Architecture is the planner's high-level design sketch.
type Architecture struct {
	NetworkDesign string   `json:"network_design"`
	DataFlow      string   `json:"data_flow"`
	SecurityZones []string `json:"security_zones"`
	Scalability   string   `json:"scalability"`
	Availability  string   `json:"availability"`
	Monitoring    string   `json:"monitoring,omitempty"`
}

// Plan is the planning stage result: provider and region decision plus
// the requirements analysis that justified it.
type Plan struct {
	CloudProvider     string          `json:"cloud_provider"`
	Region            string          `json:"region"`
	LocationRationale string          `json:"location_rationale"`
	Requirements      Requirements    `json:"requirements_analysis"`
	Services          []ServiceChoice `json:"services"`
	Architecture      *Architecture   `json:"architecture,omitempty"`
	Defaulted         bool            `json:"defaulted,omitempty"`
}

// ServiceChoice maps one application component to a concrete managed service.
type ServiceChoice struct {
	Component string   `json:"component,omitempty"`
	Service   string   `json:"service"`
	Category  string   `json:"category"`
	Rationale string   `json:"rationale,omitempty"`
	Settings  []string `json:"key_settings,omitempty"`
}

// CostAnalysis is the cost stage result. EstimatedMonthlySavings is a
// coarse per-category heuristic, not a priced estimate.
type CostAnalysis struct {
	CloudProvider           string              `json:"cloud_provider"`
	CurrentCost             float64             `json:"current_cost"`
	EstimatedMonthlySavings float64             `json:"estimated_monthly_savings"`
	SavingsPercentage       float64             `json:"savings_percentage"`
	Recommendations         string              `json:"optimization_recommendations,omitempty"`
	Strategies              map[string][]string `json:"strategies,omitempty"`
}

// ForecastPoint is one month of a cost projection series.
type ForecastPoint struct {
	Month int     `json:"month"`
	Cost  float64 `json:"cost"`
}

// CostForecast projects costs over time. The optimized series applies a
// flat placeholder multiplier to the baseline.
type CostForecast struct {
	Months             int             `json:"months"`
	BaselineForecast   []ForecastPoint `json:"baseline_forecast"`
	OptimizedForecast  []ForecastPoint `json:"optimized_forecast"`
	TotalBaselineCost  float64         `json:"total_baseline_cost"`
	TotalOptimizedCost float64         `json:"total_optimized_cost"`
	TotalSavings       float64         `json:"total_savings"`
}

// GeneratedCode is the code-generation stage result.
type GeneratedCode struct {
	Code          string `json:"code"`
	Filename      string `json:"filename"`
	FilePath      string `json:"file_path"`
	CloudProvider string `json:"cloud_provider"`
	IaCTool       string `json:"iac_tool"`
	ServicesCount int    `json:"services_count"`
}

// Diagram is the diagram stage result. Failed carries the error message
// when generation did not succeed; the run is still eligible to succeed.
type Diagram struct {
	Code        string `json:"diagram_code,omitempty"`
	Filename    string `json:"filename,omitempty"`
	FilePath    string `json:"file_path,omitempty"`
	HTMLPreview string `json:"html_preview,omitempty"`
	Failed      string `json:"error,omitempty"`
}
