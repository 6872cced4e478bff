package engine

import (
	"sort"

	"github.com/flowlineio/flowline/pkg/models"
)

// The task graph is derived purely from TASK-type predicates inside a task's
// conditions: each referenced api_name is a parent. Linear ordering does not
// imply ancestry.

// Parents returns the direct ancestors of the task, sorted for determinism.
func Parents(tasks []*models.TaskTemplate, apiName string) []string {
	var task *models.TaskTemplate

	for _, t := range tasks {
		if t.APIName == apiName {
			task = t

			break
		}
	}

	if task == nil {
		return nil
	}

	seen := make(map[string]bool)

	var out []string

	for _, cond := range task.Conditions {
		for _, rule := range cond.Rules {
			for _, p := range rule.Predicates {
				if p.FieldType != models.FieldTypeTask || p.Field == "" || seen[p.Field] {
					continue
				}

				seen[p.Field] = true
				out = append(out, p.Field)
			}
		}
	}

	sort.Strings(out)

	return out
}

// Ancestors returns every task reachable through parent links, transitively.
func Ancestors(tasks []*models.TaskTemplate, apiName string) []string {
	seen := make(map[string]bool)

	var visit func(name string)

	visit = func(name string) {
		for _, parent := range Parents(tasks, name) {
			if seen[parent] {
				continue
			}

			seen[parent] = true
			visit(parent)
		}
	}

	visit(apiName)

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}

	sort.Strings(out)

	return out
}

// IsAncestor reports whether candidate is a strict ancestor of apiName.
func IsAncestor(tasks []*models.TaskTemplate, apiName, candidate string) bool {
	if apiName == candidate {
		return false
	}

	for _, a := range Ancestors(tasks, apiName) {
		if a == candidate {
			return true
		}
	}

	return false
}

// FindCycle walks parent links and returns one task api_name involved in a
// dependency cycle, or "" when the graph is a DAG. Self references count as
// cycles.
func FindCycle(tasks []*models.TaskTemplate) string {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)

	state := make(map[string]int, len(tasks))

	var visit func(name string) string

	visit = func(name string) string {
		switch state[name] {
		case visiting:
			return name
		case done:
			return ""
		}

		state[name] = visiting

		for _, parent := range Parents(tasks, name) {
			if offender := visit(parent); offender != "" {
				return offender
			}
		}

		state[name] = done

		return ""
	}

	for _, t := range tasks {
		if offender := visit(t.APIName); offender != "" {
			return offender
		}
	}

	return ""
}
