package models

import "time"

// PerformerType classifies a raw performer specification on a task template.
type PerformerType string

const (
	// PerformerTypeUser assigns a fixed user id.
	PerformerTypeUser PerformerType = "user"
	// PerformerTypeField resolves to whoever was supplied in a USER- or
	// GROUP-typed field collected earlier in the workflow.
	PerformerTypeField PerformerType = "field"
	// PerformerTypeWorkflowStarter resolves to the user who ran the template.
	PerformerTypeWorkflowStarter PerformerType = "workflow_starter"
	// PerformerTypeGroup expands to the group's members at resolution time.
	PerformerTypeGroup PerformerType = "group"
)

// RawPerformerTemplate is one performer-assignment rule on a task template.
// It resolves to zero or more TaskPerformer rows when the task becomes
// current.
type RawPerformerTemplate struct {
	APIName string        `json:"api_name" validate:"required"`
	Type    PerformerType `json:"type"     validate:"required"`

	// UserID is set for PerformerTypeUser, GroupID for PerformerTypeGroup,
	// Field (a field api_name) for PerformerTypeField.
	UserID  string `json:"user_id,omitempty"`
	GroupID string `json:"group_id,omitempty"`
	Field   string `json:"field,omitempty"`
}

// TaskPerformer is one concrete user assigned to a running task. Each
// performer completes independently; the task completes when the thresholds
// implied by require_completion_by_all are met.
type TaskPerformer struct {
	UserID        string     `json:"user_id"`
	IsCompleted   bool       `json:"is_completed"`
	DateCompleted *time.Time `json:"date_completed,omitempty"`
}
