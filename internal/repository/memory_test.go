package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infrax/backend/internal/fault"
	"infrax/backend/pkg/models"
)

func newRecord(prompt string) *models.WorkflowRecord {
	return &models.WorkflowRecord{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Status:    models.WorkflowSucceeded,
		Input:     models.WorkflowInput{Prompt: prompt, Dialect: "terraform"},
	}
}

func TestMemoryStorePutAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	record := newRecord("a web app")
	record.Summary = &models.WorkflowSummary{CloudProvider: "aws", Region: "us-east-1"}
	require.NoError(t, store.PutWorkflow(ctx, record))

	got, err := store.GetWorkflow(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, "a web app", got.Input.Prompt)
	assert.Equal(t, "aws", got.Summary.CloudProvider)
}

func TestMemoryStoreGetMissingIsNotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.GetWorkflow(context.Background(), uuid.New().String())
	require.Error(t, err)
	assert.Equal(t, fault.NotFound, fault.KindOf(err))
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := newRecord("first")
	second := newRecord("second")
	require.NoError(t, store.PutWorkflow(ctx, first))
	require.NoError(t, store.PutWorkflow(ctx, second))

	listings, err := store.ListWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "second", listings[0].Prompt)
	assert.Equal(t, "first", listings[1].Prompt)
}

func TestMemoryStoreVersionNumbering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	record := newRecord("versioned")
	require.NoError(t, store.PutWorkflow(ctx, record))

	v1 := &models.CodeVersion{WorkflowID: record.ID, Code: "v1", ModifiedBy: models.ActorUser}
	v2 := &models.CodeVersion{WorkflowID: record.ID, Code: "v2", ModifiedBy: models.ActorAdvisor}
	v3 := &models.CodeVersion{WorkflowID: record.ID, Code: "v3", ModifiedBy: models.ActorUser}

	require.NoError(t, store.AppendCodeVersion(ctx, v1))
	require.NoError(t, store.AppendCodeVersion(ctx, v2))
	require.NoError(t, store.AppendCodeVersion(ctx, v3))

	assert.Equal(t, 1, v1.Version)
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, 3, v3.Version)

	versions, err := store.ListCodeVersions(ctx, record.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	for i, v := range versions {
		assert.Equal(t, i+1, v.Version)
	}

	latest, err := store.LatestCodeVersion(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "v3", latest.Code)
	assert.Equal(t, models.ActorUser, latest.ModifiedBy)
}

func TestMemoryStoreVersionsAreScopedPerWorkflow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	a := newRecord("a")
	b := newRecord("b")
	require.NoError(t, store.PutWorkflow(ctx, a))
	require.NoError(t, store.PutWorkflow(ctx, b))

	va := &models.CodeVersion{WorkflowID: a.ID, Code: "a1", ModifiedBy: models.ActorUser}
	vb := &models.CodeVersion{WorkflowID: b.ID, Code: "b1", ModifiedBy: models.ActorUser}
	require.NoError(t, store.AppendCodeVersion(ctx, va))
	require.NoError(t, store.AppendCodeVersion(ctx, vb))

	assert.Equal(t, 1, va.Version)
	assert.Equal(t, 1, vb.Version)
}

func TestMemoryStoreLatestVersionMissingIsNotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.LatestCodeVersion(context.Background(), uuid.New().String())
	require.Error(t, err)
	assert.Equal(t, fault.NotFound, fault.KindOf(err))
}

func TestMemoryStoreInteractions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	id := uuid.New().String()

	require.NoError(t, store.SaveInteraction(ctx, &models.AdvisorInteraction{
		WorkflowID: id, SessionID: "s1", Role: "user", Message: "is this secure?",
	}))
	require.NoError(t, store.SaveInteraction(ctx, &models.AdvisorInteraction{
		WorkflowID: id, SessionID: "s1", Role: "assistant", Message: "mostly",
	}))

	got, err := store.ListInteractions(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "user", got[0].Role)
	assert.Equal(t, "assistant", got[1].Role)
	assert.False(t, got[0].CreatedAt.IsZero())
}
