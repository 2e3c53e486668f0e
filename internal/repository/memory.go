package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"infrax/backend/internal/fault"
	"infrax/backend/pkg/models"
)

// MemoryStore keeps everything in process memory. Used by tests and by
// the server when the database is disabled.
type MemoryStore struct {
	mu           sync.RWMutex
	workflows    []*models.WorkflowRecord
	byID         map[string]*models.WorkflowRecord
	versions     map[string][]models.CodeVersion
	interactions map[string][]models.AdvisorInteraction
	nextVID      int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:         make(map[string]*models.WorkflowRecord),
		versions:     make(map[string][]models.CodeVersion),
		interactions: make(map[string][]models.AdvisorInteraction),
	}
}

// PutWorkflow saves a terminal workflow record.
func (s *MemoryStore) PutWorkflow(_ context.Context, record *models.WorkflowRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *record
	if _, exists := s.byID[record.ID]; !exists {
		s.workflows = append(s.workflows, &clone)
	}
	s.byID[record.ID] = &clone
	return nil
}

// GetWorkflow retrieves a record by id.
func (s *MemoryStore) GetWorkflow(_ context.Context, id string) (*models.WorkflowRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.byID[id]
	if !ok {
		return nil, fault.New(fault.NotFound, "workflow "+id+" not found")
	}
	clone := *record
	return &clone, nil
}

// ListWorkflows returns compact listings, most recent first.
func (s *MemoryStore) ListWorkflows(_ context.Context) ([]models.WorkflowListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.WorkflowListing, 0, len(s.workflows))
	for i := len(s.workflows) - 1; i >= 0; i-- {
		out = append(out, s.workflows[i].Listing())
	}
	return out, nil
}

// AppendCodeVersion assigns the next version number and stores the revision.
func (s *MemoryStore) AppendCodeVersion(_ context.Context, v *models.CodeVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.versions[v.WorkflowID]
	next := 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}
	s.nextVID++
	v.ID = s.nextVID
	v.Version = next
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	s.versions[v.WorkflowID] = append(existing, *v)
	return nil
}

// ListCodeVersions returns revisions in ascending version order.
func (s *MemoryStore) ListCodeVersions(_ context.Context, workflowID string) ([]models.CodeVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.CodeVersion(nil), s.versions[workflowID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// LatestCodeVersion returns the highest-numbered revision.
func (s *MemoryStore) LatestCodeVersion(_ context.Context, workflowID string) (*models.CodeVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	existing := s.versions[workflowID]
	if len(existing) == 0 {
		return nil, fault.New(fault.NotFound, "no code versions for workflow "+workflowID)
	}
	clone := existing[len(existing)-1]
	return &clone, nil
}

// SaveInteraction records one advisor chat message.
func (s *MemoryStore) SaveInteraction(_ context.Context, in *models.AdvisorInteraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	in.ID = int64(len(s.interactions[in.WorkflowID]) + 1)
	s.interactions[in.WorkflowID] = append(s.interactions[in.WorkflowID], *in)
	return nil
}

// ListInteractions returns a workflow's advisor messages in order.
func (s *MemoryStore) ListInteractions(_ context.Context, workflowID string) ([]models.AdvisorInteraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AdvisorInteraction(nil), s.interactions[workflowID]...), nil
}
