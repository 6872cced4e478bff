package engine

import (
	"sort"

	"github.com/flowlineio/flowline/pkg/models"
)

// TaskAction is the outcome of resolving a task's conditions.
type TaskAction int

const (
	// ActionProceed means the task becomes current normally.
	ActionProceed TaskAction = iota
	// ActionSkip means the task is marked skipped and evaluation cascades to
	// the next task in sequence.
	ActionSkip
	// ActionEndWorkflow terminates the whole workflow.
	ActionEndWorkflow
)

// ResolveTaskAction evaluates the task's conditions in order and applies the
// first satisfied one. A condition is satisfied when any rule is satisfied;
// a rule is satisfied when all its predicates are true. With no satisfied
// condition the task proceeds. The second result is the winning condition,
// nil when none matched.
func ResolveTaskAction(conditions []*models.ConditionTemplate, snap Snapshot) (TaskAction, *models.ConditionTemplate) {
	ordered := make([]*models.ConditionTemplate, len(conditions))
	copy(ordered, conditions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	for _, cond := range ordered {
		if !conditionSatisfied(cond, snap) {
			continue
		}

		switch cond.Action {
		case models.ConditionActionSkipTask:
			return ActionSkip, cond
		case models.ConditionActionEndWorkflow:
			return ActionEndWorkflow, cond
		case models.ConditionActionStartTask:
			// START_TASK documents the dependency; the satisfied condition
			// simply lets the task become current.
			return ActionProceed, cond
		}
	}

	return ActionProceed, nil
}

func conditionSatisfied(cond *models.ConditionTemplate, snap Snapshot) bool {
	for _, rule := range cond.Rules {
		if ruleSatisfied(rule, snap) {
			return true
		}
	}

	return false
}

func ruleSatisfied(rule *models.RuleTemplate, snap Snapshot) bool {
	for _, p := range rule.Predicates {
		if !EvaluatePredicate(p, snap) {
			return false
		}
	}

	return len(rule.Predicates) > 0
}
