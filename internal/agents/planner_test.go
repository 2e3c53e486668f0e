package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infrax/backend/internal/llm"
	"infrax/backend/internal/logging"
)

func TestPlannerParsesWellFormedReply(t *testing.T) {
	oracle := llm.NewFake(
		`{"recommended_provider": "gcp", "recommended_region": "asia-south1",
		  "location_rationale": "lowest latency for Indian users",
		  "requirements": {"app_type": "web_app", "components": ["web server", "database"], "scale": "medium"}}`,
		`{"services": [{"component": "web server", "service": "Cloud Run", "category": "compute",
		  "configuration": {"key_settings": ["min instances 1"]}, "rationale": "serverless containers"}]}`,
		`{"network_design": "VPC with regional subnets", "data_flow": "LB to Cloud Run to Cloud SQL",
		  "security_zones": ["Public", "Private"], "scalability": "request-based autoscaling",
		  "availability": "regional", "monitoring": "Cloud Monitoring"}`,
	)
	planner := NewPlanner(oracle, logging.NewNop())

	plan, err := planner.Plan(context.Background(), "a web app for users in Mumbai", "india")
	require.NoError(t, err)

	assert.Equal(t, "gcp", plan.CloudProvider)
	assert.Equal(t, "asia-south1", plan.Region)
	assert.False(t, plan.Defaulted)
	assert.Equal(t, "web_app", plan.Requirements.AppType)

	require.Len(t, plan.Services, 1)
	assert.Equal(t, "Cloud Run", plan.Services[0].Service)
	assert.Equal(t, []string{"min instances 1"}, plan.Services[0].Settings)

	require.NotNil(t, plan.Architecture)
	assert.Equal(t, "VPC with regional subnets", plan.Architecture.NetworkDesign)
	assert.Equal(t, 3, oracle.Calls())
}

func TestPlannerDefaultsOnMalformedReply(t *testing.T) {
	oracle := llm.NewFake(
		"I think AWS would be a great choice for this workload!",
		"not json either",
		"still not json",
	)
	planner := NewPlanner(oracle, logging.NewNop())

	plan, err := planner.Plan(context.Background(), "some app", "")
	require.NoError(t, err)

	assert.Equal(t, "aws", plan.CloudProvider)
	assert.Equal(t, "us-east-1", plan.Region)
	assert.True(t, plan.Defaulted)
	assert.NotEmpty(t, plan.LocationRationale)
}

func TestPlannerDefaultsOnUnknownProvider(t *testing.T) {
	oracle := llm.NewFake(
		`{"recommended_provider": "oracle-cloud", "recommended_region": "somewhere-1"}`,
		`{"services": []}`,
		`{}`,
	)
	planner := NewPlanner(oracle, logging.NewNop())

	plan, err := planner.Plan(context.Background(), "some app", "")
	require.NoError(t, err)

	assert.Equal(t, "aws", plan.CloudProvider)
	assert.Equal(t, "us-east-1", plan.Region)
	assert.True(t, plan.Defaulted)
}

func TestPlannerFencedJSONStillParses(t *testing.T) {
	oracle := llm.NewFake(
		"```json\n{\"recommended_provider\": \"azure\", \"recommended_region\": \"centralindia\", \"requirements\": {\"app_type\": \"api\", \"scale\": \"small\"}}\n```",
		`{"services": []}`,
		`{}`,
	)
	planner := NewPlanner(oracle, logging.NewNop())

	plan, err := planner.Plan(context.Background(), "an api", "india")
	require.NoError(t, err)

	assert.Equal(t, "azure", plan.CloudProvider)
	assert.Equal(t, "centralindia", plan.Region)
	assert.False(t, plan.Defaulted)
}

func TestPlannerPropagatesBackendError(t *testing.T) {
	oracle := llm.NewFake().Fail(0, assert.AnError)
	planner := NewPlanner(oracle, logging.NewNop())

	_, err := planner.Plan(context.Background(), "some app", "")
	require.Error(t, err)
	assert.Equal(t, 1, oracle.Calls())
}

func TestPlannerArchitectureFallback(t *testing.T) {
	oracle := llm.NewFake(
		`{"recommended_provider": "aws", "recommended_region": "us-east-1", "requirements": {"app_type": "web_app", "scale": "medium"}}`,
		`{"services": []}`,
		"prose, not a design document",
	)
	planner := NewPlanner(oracle, logging.NewNop())

	plan, err := planner.Plan(context.Background(), "some app", "")
	require.NoError(t, err)

	require.NotNil(t, plan.Architecture)
	assert.Contains(t, plan.Architecture.SecurityZones, "Public")
	assert.Equal(t, "Multi-AZ deployment", plan.Architecture.Availability)
}
