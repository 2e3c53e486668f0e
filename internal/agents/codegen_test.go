package agents

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infrax/backend/internal/artifacts"
	"infrax/backend/internal/fault"
	"infrax/backend/internal/llm"
	"infrax/backend/internal/logging"
	"infrax/backend/pkg/models"
)

func newTestStore(t *testing.T) *artifacts.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := artifacts.NewStore(filepath.Join(dir, "code"), filepath.Join(dir, "diagrams"))
	require.NoError(t, err)
	return store
}

func TestGenerateStripsFencesAndWritesFile(t *testing.T) {
	oracle := llm.NewFake("```terraform\nresource \"aws_s3_bucket\" \"b\" {}\n```")
	gen := NewCodeGenerator(oracle, newTestStore(t), logging.NewNop())

	out, err := gen.Generate(context.Background(), CodegenInput{
		CloudProvider: "aws",
		IaCTool:       "terraform",
		Services:      []models.ServiceChoice{{Service: "S3", Category: "storage"}},
		Description:   "a bucket",
	})
	require.NoError(t, err)

	assert.Equal(t, "resource \"aws_s3_bucket\" \"b\" {}", out.Code)
	assert.Equal(t, 1, out.ServicesCount)
	assert.Regexp(t, `^aws_terraform_\d{8}_\d{6}_\d{4}\.tf$`, out.Filename)

	saved, err := os.ReadFile(out.FilePath)
	require.NoError(t, err)
	assert.Equal(t, out.Code, string(saved))
}

func TestGenerateRejectsUnsupportedDialect(t *testing.T) {
	oracle := llm.NewFake("never called")
	gen := NewCodeGenerator(oracle, newTestStore(t), logging.NewNop())

	_, err := gen.Generate(context.Background(), CodegenInput{
		CloudProvider: "aws",
		IaCTool:       "ansible",
	})
	require.Error(t, err)
	assert.Equal(t, fault.UnsupportedDialect, fault.KindOf(err))
	assert.Zero(t, oracle.Calls())
}

func TestGenerateRejectsUnknownProvider(t *testing.T) {
	oracle := llm.NewFake("never called")
	gen := NewCodeGenerator(oracle, newTestStore(t), logging.NewNop())

	_, err := gen.Generate(context.Background(), CodegenInput{
		CloudProvider: "ibm",
		IaCTool:       "terraform",
	})
	require.Error(t, err)
	assert.Equal(t, fault.UnsupportedProvider, fault.KindOf(err))
	assert.Zero(t, oracle.Calls())
}

func TestGenerateEmptyReplyIsUnparsable(t *testing.T) {
	oracle := llm.NewFake("```\n```")
	gen := NewCodeGenerator(oracle, newTestStore(t), logging.NewNop())

	_, err := gen.Generate(context.Background(), CodegenInput{
		CloudProvider: "gcp",
		IaCTool:       "pulumi",
	})
	require.Error(t, err)
	assert.Equal(t, fault.UnparsableResponse, fault.KindOf(err))
}

func TestGenerateTwiceYieldsDistinctFiles(t *testing.T) {
	oracle := llm.NewFake("resource \"aws_instance\" \"web\" {}")
	gen := NewCodeGenerator(oracle, newTestStore(t), logging.NewNop())

	in := CodegenInput{CloudProvider: "aws", IaCTool: "terraform"}

	first, err := gen.Generate(context.Background(), in)
	require.NoError(t, err)
	second, err := gen.Generate(context.Background(), in)
	require.NoError(t, err)

	assert.NotEqual(t, first.Filename, second.Filename)
	assert.NotEqual(t, first.FilePath, second.FilePath)
}

func TestGenerateDialectExtensions(t *testing.T) {
	cases := map[string]string{
		"terraform":      ".tf",
		"cloudformation": ".yaml",
		"pulumi":         ".py",
	}
	for tool, ext := range cases {
		oracle := llm.NewFake("code body")
		gen := NewCodeGenerator(oracle, newTestStore(t), logging.NewNop())

		out, err := gen.Generate(context.Background(), CodegenInput{
			CloudProvider: "azure",
			IaCTool:       tool,
		})
		require.NoError(t, err, tool)
		assert.Equal(t, ext, filepath.Ext(out.Filename), tool)
	}
}
