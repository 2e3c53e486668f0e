package agents

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infrax/backend/internal/fault"
	"infrax/backend/internal/llm"
	"infrax/backend/internal/logging"
)

const sampleTerraform = `resource "aws_s3_bucket" "data" {
  bucket = "my-data"
}

variable "region" {
  default = "us-east-1"
}

output "bucket_name" {
  value = aws_s3_bucket.data.bucket
}
`

func TestChatWindowIsBounded(t *testing.T) {
	oracle := llm.NewFake("reply")
	advisor := NewAdvisor(oracle, logging.NewNop())

	for i := 0; i < 8; i++ {
		_, err := advisor.Chat(context.Background(), "s1", fmt.Sprintf("question %d", i), "", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, maxSessionMessages, advisor.SessionLen("s1"))
}

func TestChatSessionsAreIsolated(t *testing.T) {
	oracle := llm.NewFake("reply")
	advisor := NewAdvisor(oracle, logging.NewNop())

	_, err := advisor.Chat(context.Background(), "alpha", "hello", "", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, advisor.SessionLen("alpha"))
	assert.Zero(t, advisor.SessionLen("beta"))

	advisor.ClearSession("alpha")
	assert.Zero(t, advisor.SessionLen("alpha"))
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	oracle := llm.NewFake("reply")
	advisor := NewAdvisor(oracle, logging.NewNop())

	_, err := advisor.Chat(context.Background(), "s1", "   ", "", nil)
	require.Error(t, err)
	assert.Equal(t, fault.InvalidInput, fault.KindOf(err))
	assert.Zero(t, oracle.Calls())
}

func TestSecurityScanParsesReport(t *testing.T) {
	oracle := llm.NewFake(`{
		"critical": [{"issue": "bucket is public", "resource": "aws_s3_bucket.data", "fix": "add acl private"}],
		"high": [],
		"medium": [{"issue": "no versioning"}],
		"low": [],
		"score": 55
	}`)
	advisor := NewAdvisor(oracle, logging.NewNop())

	report, err := advisor.SecurityScan(context.Background(), sampleTerraform)
	require.NoError(t, err)

	assert.Equal(t, 55, report.Score)
	assert.Len(t, report.Critical, 1)
	assert.Equal(t, 2, report.TotalIssues)
}

func TestSecurityScanUnparsableReplyYieldsEmptyReport(t *testing.T) {
	oracle := llm.NewFake("the code looks mostly fine to me")
	advisor := NewAdvisor(oracle, logging.NewNop())

	report, err := advisor.SecurityScan(context.Background(), sampleTerraform)
	require.NoError(t, err)
	assert.Zero(t, report.Score)
	assert.Zero(t, report.TotalIssues)
}

func TestParseResourcesUnparsableReplyYieldsEmptyInventory(t *testing.T) {
	oracle := llm.NewFake("no structured output here")
	advisor := NewAdvisor(oracle, logging.NewNop())

	inv, err := advisor.ParseResources(context.Background(), sampleTerraform)
	require.NoError(t, err)
	assert.Empty(t, inv.Resources)
}

func TestMeasureCountsDeclarations(t *testing.T) {
	m := Measure(sampleTerraform)
	assert.Equal(t, 1, m.Resources)
	assert.Equal(t, 1, m.Variables)
	assert.Equal(t, 1, m.Outputs)
	assert.Greater(t, m.TotalLines, 5)
}

func TestSuggestFixExtractsFencedBlock(t *testing.T) {
	oracle := llm.NewFake("Here is the fix:\n```terraform\nresource \"aws_s3_bucket\" \"data\" { acl = \"private\" }\n```\nThe bucket is now private.")
	advisor := NewAdvisor(oracle, logging.NewNop())

	fixed, explanation, err := advisor.SuggestFix(context.Background(), sampleTerraform, "public bucket")
	require.NoError(t, err)

	assert.Contains(t, fixed, `acl = "private"`)
	assert.Contains(t, explanation, "now private")
}

func TestSuggestFixWithoutFenceKeepsOriginal(t *testing.T) {
	oracle := llm.NewFake("I would suggest making the bucket private.")
	advisor := NewAdvisor(oracle, logging.NewNop())

	fixed, _, err := advisor.SuggestFix(context.Background(), sampleTerraform, "public bucket")
	require.NoError(t, err)
	assert.Equal(t, sampleTerraform, fixed)
}

func TestPredictiveCostReturnsLocalForecast(t *testing.T) {
	oracle := llm.NewFake(
		`{"resources": [{"type": "aws_instance", "name": "web", "category": "compute"}]}`,
		`{"base_monthly_cost": 2000, "cost_breakdown": {"compute": 2000}}`,
	)
	advisor := NewAdvisor(oracle, logging.NewNop())

	analysis, fc, err := advisor.PredictiveCost(context.Background(), sampleTerraform, 6, 0.05)
	require.NoError(t, err)

	assert.Equal(t, 2000.0, analysis["base_monthly_cost"])
	require.NotNil(t, fc)
	assert.Len(t, fc.BaselineForecast, 6)
	assert.Equal(t, 2100.0, fc.BaselineForecast[0].Cost)
}
