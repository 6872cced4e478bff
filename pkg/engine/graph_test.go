package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowlineio/flowline/pkg/models"
)

func taskWithParents(apiName string, number int, parents ...string) *models.TaskTemplate {
	task := &models.TaskTemplate{APIName: apiName, Number: number, Name: apiName}

	if len(parents) == 0 {
		return task
	}

	rule := &models.RuleTemplate{APIName: apiName + "-rule"}
	for _, parent := range parents {
		rule.Predicates = append(rule.Predicates, &models.PredicateTemplate{
			APIName:   apiName + "-on-" + parent,
			Operator:  models.OperatorCompleted,
			FieldType: models.FieldTypeTask,
			Field:     parent,
		})
	}

	task.Conditions = []*models.ConditionTemplate{{
		APIName: apiName + "-start",
		Action:  models.ConditionActionStartTask,
		Rules:   []*models.RuleTemplate{rule},
	}}

	return task
}

func TestParents_SortedAndDeduplicated(t *testing.T) {
	tasks := []*models.TaskTemplate{
		taskWithParents("prepare", 1),
		taskWithParents("review", 2),
		taskWithParents("ship", 3, "review", "prepare", "review"),
	}

	assert.Equal(t, []string{"prepare", "review"}, Parents(tasks, "ship"))
	assert.Empty(t, Parents(tasks, "prepare"))
	assert.Nil(t, Parents(tasks, "unknown"))
}

func TestAncestors_Transitive(t *testing.T) {
	tasks := []*models.TaskTemplate{
		taskWithParents("a", 1),
		taskWithParents("b", 2, "a"),
		taskWithParents("c", 3, "b"),
		taskWithParents("d", 4, "c", "a"),
	}

	assert.Equal(t, []string{"a", "b", "c"}, Ancestors(tasks, "d"))
	assert.True(t, IsAncestor(tasks, "d", "a"))
	assert.False(t, IsAncestor(tasks, "a", "d"))
	assert.False(t, IsAncestor(tasks, "d", "d"))
}

func TestFindCycle_DetectsCycleAndSelfReference(t *testing.T) {
	acyclic := []*models.TaskTemplate{
		taskWithParents("a", 1),
		taskWithParents("b", 2, "a"),
	}
	assert.Empty(t, FindCycle(acyclic))

	cyclic := []*models.TaskTemplate{
		taskWithParents("a", 1, "b"),
		taskWithParents("b", 2, "a"),
	}
	assert.NotEmpty(t, FindCycle(cyclic))

	selfRef := []*models.TaskTemplate{
		taskWithParents("a", 1, "a"),
	}
	assert.Equal(t, "a", FindCycle(selfRef))
}
