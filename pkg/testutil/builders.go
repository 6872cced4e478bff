// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowlineio/flowline/pkg/engine"
	"github.com/flowlineio/flowline/pkg/models"
)

// CreateTestTask creates a task template with default values that can be
// overridden.
func CreateTestTask(apiName string, number int, overrides ...func(*models.TaskTemplate)) *models.TaskTemplate {
	task := &models.TaskTemplate{
		APIName: apiName,
		Number:  number,
		Name:    fmt.Sprintf("Task %d", number),
		RawPerformers: []*models.RawPerformerTemplate{
			{APIName: apiName + "-starter", Type: models.PerformerTypeWorkflowStarter},
		},
	}

	for _, override := range overrides {
		override(task)
	}

	return task
}

// WithPerformers replaces the task's raw performers.
func WithPerformers(performers ...*models.RawPerformerTemplate) func(*models.TaskTemplate) {
	return func(t *models.TaskTemplate) {
		t.RawPerformers = performers
	}
}

// WithFields sets the task's output fields.
func WithFields(fields ...*models.FieldTemplate) func(*models.TaskTemplate) {
	return func(t *models.TaskTemplate) {
		t.Fields = fields
	}
}

// WithConditions sets the task's conditions.
func WithConditions(conditions ...*models.ConditionTemplate) func(*models.TaskTemplate) {
	return func(t *models.TaskTemplate) {
		t.Conditions = conditions
	}
}

// WithDelay sets the task's start delay.
func WithDelay(d time.Duration) func(*models.TaskTemplate) {
	return func(t *models.TaskTemplate) {
		t.Delay = d
	}
}

// WithRequireAll makes the task require completion by all performers.
func WithRequireAll() func(*models.TaskTemplate) {
	return func(t *models.TaskTemplate) {
		t.RequireCompletionByAll = true
	}
}

// WithChecklist sets the task's required checklist items.
func WithChecklist(items ...string) func(*models.TaskTemplate) {
	return func(t *models.TaskTemplate) {
		t.Checklist = items
	}
}

// WithRevertTask sets the task's revert edge.
func WithRevertTask(apiName string) func(*models.TaskTemplate) {
	return func(t *models.TaskTemplate) {
		t.RevertTask = apiName
	}
}

// SkipCondition builds a skip_task condition with a single rule comparing one
// field.
func SkipCondition(apiName string, fieldType models.FieldType, field string, op models.PredicateOperator, value *string) *models.ConditionTemplate {
	return &models.ConditionTemplate{
		APIName: apiName,
		Action:  models.ConditionActionSkipTask,
		Rules: []*models.RuleTemplate{
			{
				APIName: apiName + "-rule",
				Predicates: []*models.PredicateTemplate{
					{
						APIName:   apiName + "-pred",
						Operator:  op,
						FieldType: fieldType,
						Field:     field,
						Value:     value,
					},
				},
			},
		},
	}
}

// CreateTestTemplate creates a template with the given tasks and one starter
// owner.
func CreateTestTemplate(tasks []*models.TaskTemplate, overrides ...func(*models.Template)) *models.Template {
	tpl := &models.Template{
		ID:        uuid.NewString(),
		AccountID: "acct-1",
		Name:      "Test Template",
		IsActive:  true,
		Owners:    []string{"user-1"},
		Kickoff:   &models.KickoffTemplate{},
		Tasks:     tasks,
	}

	for _, override := range overrides {
		override(tpl)
	}

	return tpl
}

// CreateTestEnv builds an engine environment with two active users and one
// group containing both.
func CreateTestEnv(now time.Time) engine.Env {
	users := map[string]*models.User{
		"user-1": {ID: "user-1", AccountID: "acct-1", Email: "one@example.com", Name: "User One", Status: models.UserStatusActive},
		"user-2": {ID: "user-2", AccountID: "acct-1", Email: "two@example.com", Name: "User Two", Status: models.UserStatusActive},
	}

	return engine.Env{
		Now:    now,
		Users:  users,
		Groups: map[string][]string{"group-1": {"user-1", "user-2"}},
	}
}

// StringPtr returns a pointer to the given string literal.
func StringPtr(s string) *string {
	return &s
}
