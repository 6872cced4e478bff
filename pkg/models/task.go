package models

import "time"

// TaskSkipReason records why a task was skipped.
type TaskSkipReason string

const (
	// TaskSkipCondition means a SKIP_TASK condition fired.
	TaskSkipCondition TaskSkipReason = "condition"
	// TaskSkipNoPerformers means performer resolution produced an empty set.
	// This is an outcome, not an error.
	TaskSkipNoPerformers TaskSkipReason = "no_performers"
)

// Task is a running instance of a TaskTemplate, materialized when the
// workflow starts and rewritten by template migrations while still pending.
type Task struct {
	APIName string `json:"api_name"`
	Number  int    `json:"number"`

	// Name and Description are the rendered strings shown to performers;
	// NameTemplate and DescriptionTemplate keep the raw placeholder form so
	// migrations and re-starts can re-render.
	Name                string `json:"name"`
	Description         string `json:"description"`
	NameTemplate        string `json:"name_template"`
	DescriptionTemplate string `json:"description_template"`

	RequireCompletionByAll bool          `json:"require_completion_by_all"`
	Delay                  time.Duration `json:"delay,omitempty"`
	RevertTask             string        `json:"revert_task,omitempty"`

	RawDueDate    *RawDueDate             `json:"raw_due_date,omitempty"`
	RawPerformers []*RawPerformerTemplate `json:"raw_performers"`
	Fields        []*FieldTemplate        `json:"fields"`
	Conditions    []*ConditionTemplate    `json:"conditions"`

	IsCompleted bool           `json:"is_completed"`
	IsSkipped   bool           `json:"is_skipped"`
	SkipReason  TaskSkipReason `json:"skip_reason,omitempty"`

	DateFirstStarted *time.Time `json:"date_first_started,omitempty"`
	DateStarted      *time.Time `json:"date_started,omitempty"`
	DateCompleted    *time.Time `json:"date_completed,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`

	Checklist       []*ChecklistItem `json:"checklist,omitempty"`
	ChecklistTotal  int              `json:"checklist_total"`
	ChecklistMarked int              `json:"checklist_marked"`

	Performers []*TaskPerformer `json:"performers"`
}

// ChecklistItem is one required checkbox on a task instance.
type ChecklistItem struct {
	Name       string     `json:"name"`
	IsMarked   bool       `json:"is_marked"`
	MarkedBy   string     `json:"marked_by,omitempty"`
	DateMarked *time.Time `json:"date_marked,omitempty"`
}

// ChecklistItemByName returns the checklist item with the given label, if any.
func (t *Task) ChecklistItemByName(name string) *ChecklistItem {
	for _, item := range t.Checklist {
		if item.Name == name {
			return item
		}
	}

	return nil
}

// PerformerByUserID returns the performer row for the given user, if any.
func (t *Task) PerformerByUserID(userID string) *TaskPerformer {
	for _, p := range t.Performers {
		if p.UserID == userID {
			return p
		}
	}

	return nil
}

// IncompletePerformers counts performers that have not completed their share.
func (t *Task) IncompletePerformers() int {
	n := 0
	for _, p := range t.Performers {
		if !p.IsCompleted {
			n++
		}
	}

	return n
}

// ResetProgress clears runtime completion state, keeping structure. Used when
// a revert or return-to reopens tasks between the target and the old current.
func (t *Task) ResetProgress() {
	t.IsCompleted = false
	t.IsSkipped = false
	t.SkipReason = ""
	t.DateStarted = nil
	t.DateCompleted = nil
	t.DueDate = nil
	t.Performers = nil
	t.ChecklistMarked = 0

	for _, item := range t.Checklist {
		item.IsMarked = false
		item.MarkedBy = ""
		item.DateMarked = nil
	}
}
