package models

import "time"

// DueDateRule anchors a task's due date.
type DueDateRule string

const (
	// DueDateAfterTaskStarted counts from the task's first start.
	DueDateAfterTaskStarted DueDateRule = "after_task_started"
	// DueDateAfterWorkflowStarted counts from the workflow's start.
	DueDateAfterWorkflowStarted DueDateRule = "after_workflow_started"
	// DueDateAfterField counts from a DATE-typed field's value.
	DueDateAfterField DueDateRule = "after_field"
)

// RawDueDate is the template-level due-date specification. The concrete due
// date is computed once, when the task starts.
type RawDueDate struct {
	APIName  string        `json:"api_name" validate:"required"`
	Rule     DueDateRule   `json:"rule"     validate:"required"`
	Duration time.Duration `json:"duration" validate:"min=0"`

	// SourceID is the referenced field api_name for DueDateAfterField.
	SourceID string `json:"source_id,omitempty"`
}
