package engine

import (
	"time"

	"github.com/flowlineio/flowline/pkg/models"
)

// Date layouts accepted for DATE-typed field values, most specific first.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ComputeDueDate resolves a task's due date once, when the task starts.
// A nil result means the task has no due date: either no rule is configured
// or an after-field rule references an unset or unparseable date value.
func ComputeDueDate(raw *models.RawDueDate, wf *models.Workflow, task *models.Task) *time.Time {
	if raw == nil {
		return nil
	}

	var anchor time.Time

	switch raw.Rule {
	case models.DueDateAfterTaskStarted:
		if task.DateFirstStarted == nil {
			return nil
		}

		anchor = *task.DateFirstStarted
	case models.DueDateAfterWorkflowStarted:
		anchor = wf.DateCreated
	case models.DueDateAfterField:
		value, ok := wf.Fields[raw.SourceID]
		if !ok || value.IsEmpty() {
			return nil
		}

		parsed, ok := parseDate(value.Value)
		if !ok {
			return nil
		}

		anchor = parsed
	default:
		return nil
	}

	due := anchor.Add(raw.Duration)

	return &due
}

func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
