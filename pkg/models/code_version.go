package models

import "time"

// Actor tags who produced a code edit.
const (
	ActorUser    = "user"
	ActorAdvisor = "advisor"
)

// CodeVersion captures one edit to a generated artifact. Versions are
// 1-based, assigned as previous max plus one, and immutable once written.
type CodeVersion struct {
	ID                int64     `json:"id"`
	WorkflowID        string    `json:"workflow_id"`
	Version           int       `json:"version"`
	Code              string    `json:"code"`
	FilePath          string    `json:"file_path,omitempty"`
	ModifiedBy        string    `json:"modified_by"`
	ChangeDescription string    `json:"change_description,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// ChatTurn is one message in an advisor conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AdvisorInteraction is a persisted advisor chat message for a workflow.
type AdvisorInteraction struct {
	ID         int64     `json:"id"`
	WorkflowID string    `json:"workflow_id"`
	SessionID  string    `json:"session_id,omitempty"`
	Role       string    `json:"role"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
