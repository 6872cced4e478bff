package models

import "time"

// WorkflowStatus represents the lifecycle state of a running workflow.
type WorkflowStatus string

const (
	// WorkflowStatusActive means a task is current and awaiting performers.
	WorkflowStatusActive WorkflowStatus = "active"
	// WorkflowStatusDelayed suspends the workflow while a task delay elapses.
	// Completion actions are rejected until the workflow resumes.
	WorkflowStatusDelayed WorkflowStatus = "delayed"
	// WorkflowStatusDone means every task completed or was skipped.
	WorkflowStatusDone WorkflowStatus = "done"
	// WorkflowStatusEnded means an END_WORKFLOW condition fired.
	WorkflowStatusEnded WorkflowStatus = "ended"
	// WorkflowStatusTerminated means the run was stopped by its owner.
	WorkflowStatusTerminated WorkflowStatus = "terminated"
)

// IsTerminal reports whether no further task progression is possible.
func (s WorkflowStatus) IsTerminal() bool {
	return s == WorkflowStatusDone || s == WorkflowStatusEnded || s == WorkflowStatusTerminated
}

// Workflow is a running instance of a template version.
type Workflow struct {
	ID         string `json:"id"`
	AccountID  string `json:"account_id"`
	TemplateID string `json:"template_id"`
	Name       string `json:"name"`

	// Version is the template version this run is currently built from. It
	// moves forward when a live migration applies a newer snapshot.
	Version int `json:"version"`

	// StarterID is the user who ran the template.
	StarterID string         `json:"starter_id"`
	Status    WorkflowStatus `json:"status"`

	// CurrentTask is the authoritative 1-based "where are we" pointer. It
	// always names a non-completed, non-skipped task unless Status is
	// terminal.
	CurrentTask int `json:"current_task"`

	Tasks  []*Task     `json:"tasks"`
	Fields FieldValues `json:"fields"`

	// ResumeAt is set while Status is WorkflowStatusDelayed.
	ResumeAt *time.Time `json:"resume_at,omitempty"`

	DateCreated   time.Time  `json:"date_created"`
	DateCompleted *time.Time `json:"date_completed,omitempty"`
}

// CurrentTaskInstance returns the task CurrentTask points at, or nil for a
// terminal workflow.
func (w *Workflow) CurrentTaskInstance() *Task {
	return w.TaskByNumber(w.CurrentTask)
}

// TaskByNumber returns the task at the given 1-based position, if any.
func (w *Workflow) TaskByNumber(number int) *Task {
	for _, t := range w.Tasks {
		if t.Number == number {
			return t
		}
	}

	return nil
}

// TaskByAPIName returns the task with the given api_name, if any.
func (w *Workflow) TaskByAPIName(apiName string) *Task {
	for _, t := range w.Tasks {
		if t.APIName == apiName {
			return t
		}
	}

	return nil
}
