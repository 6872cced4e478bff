// Package engine implements the workflow task-progression core: predicate
// evaluation, condition resolution, performer resolution, the task graph and
// the state machine advancing a running workflow.
package engine

import (
	"strconv"
	"strings"

	"github.com/flowlineio/flowline/pkg/models"
)

// Snapshot is the field-value state a predicate is evaluated against, taken
// at the moment a task would become current.
type Snapshot struct {
	Values models.FieldValues

	// KickoffCompleted is true once the workflow has started; kickoff
	// COMPLETED predicates read it directly.
	KickoffCompleted bool

	// CompletedTasks holds the api_names of tasks completed so far.
	CompletedTasks map[string]bool
}

// SnapshotOf captures the evaluation state of a running workflow.
func SnapshotOf(wf *models.Workflow) Snapshot {
	completed := make(map[string]bool, len(wf.Tasks))

	for _, t := range wf.Tasks {
		if t.IsCompleted {
			completed[t.APIName] = true
		}
	}

	return Snapshot{
		Values:           wf.Fields,
		KickoffCompleted: true,
		CompletedTasks:   completed,
	}
}

// EvaluatePredicate evaluates a single predicate against the snapshot.
// Operator/field-type combinations are validated at template-save time, so
// the evaluator assumes it only ever sees valid ones.
func EvaluatePredicate(p *models.PredicateTemplate, snap Snapshot) bool {
	switch p.FieldType {
	case models.FieldTypeKickoff:
		return snap.KickoffCompleted
	case models.FieldTypeTask:
		return snap.CompletedTasks[p.Field]
	}

	value, ok := snap.Values[p.Field]
	if !ok {
		// A field that was never filled in evaluates as empty.
		value = models.FieldValue{Type: p.FieldType}
	}

	switch p.Operator {
	case models.OperatorExist:
		return !value.IsEmpty()
	case models.OperatorNotExist:
		return value.IsEmpty()
	case models.OperatorEqual:
		return equals(p, value)
	case models.OperatorNotEqual:
		return !equals(p, value)
	case models.OperatorMoreThan:
		return compareNumeric(p, value, func(a, b float64) bool { return a > b })
	case models.OperatorLessThan:
		return compareNumeric(p, value, func(a, b float64) bool { return a < b })
	case models.OperatorContain:
		return contains(p, value)
	case models.OperatorNotContain:
		return !contains(p, value)
	default:
		return false
	}
}

func literal(p *models.PredicateTemplate) string {
	if p.Value == nil {
		return ""
	}

	return *p.Value
}

func equals(p *models.PredicateTemplate, value models.FieldValue) bool {
	switch {
	case p.FieldType == models.FieldTypeNumber:
		// The literal was validated as numeric when the template was saved.
		want, err := strconv.ParseFloat(literal(p), 64)
		if err != nil {
			return false
		}

		got, ok := value.Number()

		return ok && got == want
	case p.FieldType.IsSelection():
		// Selection fields compare against selection api_names.
		for _, s := range value.Selections {
			if s == literal(p) {
				return true
			}
		}

		return false
	default:
		return value.Value == literal(p)
	}
}

func compareNumeric(p *models.PredicateTemplate, value models.FieldValue, cmp func(a, b float64) bool) bool {
	want, err := strconv.ParseFloat(literal(p), 64)
	if err != nil {
		return false
	}

	got, ok := value.Number()

	return ok && cmp(got, want)
}

func contains(p *models.PredicateTemplate, value models.FieldValue) bool {
	if p.FieldType.IsSelection() {
		for _, s := range value.Selections {
			if s == literal(p) {
				return true
			}
		}

		return false
	}

	return value.Value != "" && strings.Contains(value.Value, literal(p))
}
