package artifacts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "code"), filepath.Join(dir, "diagrams"))
	require.NoError(t, err)
	return store
}

func TestWriteCodeRoundTrip(t *testing.T) {
	store := newTestStore(t)
	code := "resource \"aws_instance\" \"web\" {\n  ami = \"ami-123\"\n}\n"

	filename, path, err := store.WriteCode(code, "aws", "terraform", "tf")
	require.NoError(t, err)
	assert.Contains(t, filename, "aws_terraform_")
	assert.Contains(t, filename, ".tf")

	got, err := store.ReadCode(path)
	require.NoError(t, err)
	assert.Equal(t, code, got)
}

func TestWriteCodeNeverOverwrites(t *testing.T) {
	store := newTestStore(t)

	_, p1, err := store.WriteCode("first", "aws", "terraform", "tf")
	require.NoError(t, err)
	_, p2, err := store.WriteCode("second", "aws", "terraform", "tf")
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2)

	got, err := store.ReadCode(p1)
	require.NoError(t, err)
	assert.Equal(t, "first", got)
}

func TestWriteDiagramAndHTML(t *testing.T) {
	store := newTestStore(t)

	filename, path, err := store.WriteDiagram("graph TD\n  A --> B", "gcp")
	require.NoError(t, err)
	assert.Contains(t, filename, "gcp_diagram_")
	assert.Contains(t, filename, ".mmd")

	got, err := store.ReadCode(path)
	require.NoError(t, err)
	assert.Equal(t, "graph TD\n  A --> B", got)

	htmlPath, err := store.WriteHTML("<html></html>", "gcp")
	require.NoError(t, err)
	assert.Contains(t, htmlPath, ".html")
}

func TestReadCodeMissingFile(t *testing.T) {
	store := newTestStore(t)
	_, err := store.ReadCode(filepath.Join(t.TempDir(), "nope.tf"))
	assert.Error(t, err)
}
