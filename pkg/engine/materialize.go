package engine

import (
	"sort"

	"github.com/flowlineio/flowline/pkg/models"
)

// NewTaskFromTemplate materializes a runtime task from its template. The
// rendered Name and Description stay empty until the task starts; migrations
// re-render from the kept template strings.
func NewTaskFromTemplate(tt *models.TaskTemplate) *models.Task {
	c := tt.Clone()

	checklist := make([]*models.ChecklistItem, len(c.Checklist))
	for i, name := range c.Checklist {
		checklist[i] = &models.ChecklistItem{Name: name}
	}

	return &models.Task{
		APIName:                c.APIName,
		Number:                 c.Number,
		NameTemplate:           c.Name,
		DescriptionTemplate:    c.Description,
		RequireCompletionByAll: c.RequireCompletionByAll,
		Delay:                  c.Delay,
		RevertTask:             c.RevertTask,
		RawDueDate:             c.RawDueDate,
		RawPerformers:          c.RawPerformers,
		Fields:                 c.Fields,
		Conditions:             c.Conditions,
		Checklist:              checklist,
		ChecklistTotal:         len(checklist),
	}
}

// MaterializeTasks builds the workflow's task list from a version snapshot,
// normalizing numbers to a dense 1-based sequence.
func MaterializeTasks(data *models.VersionData) []*models.Task {
	templates := make([]*models.TaskTemplate, len(data.Tasks))
	copy(templates, data.Tasks)
	sort.SliceStable(templates, func(i, j int) bool { return templates[i].Number < templates[j].Number })

	tasks := make([]*models.Task, len(templates))
	for i, tt := range templates {
		tasks[i] = NewTaskFromTemplate(tt)
		tasks[i].Number = i + 1
	}

	return tasks
}

// ApplyTemplateToTask overwrites a pending task's structure from a newer
// snapshot while keeping its runtime state. Completed tasks are never passed
// here; migration freezes them.
func ApplyTemplateToTask(task *models.Task, tt *models.TaskTemplate) {
	c := tt.Clone()

	task.NameTemplate = c.Name
	task.DescriptionTemplate = c.Description
	task.RequireCompletionByAll = c.RequireCompletionByAll
	task.Delay = c.Delay
	task.RevertTask = c.RevertTask
	task.RawDueDate = c.RawDueDate
	task.RawPerformers = c.RawPerformers
	task.Fields = c.Fields
	task.Conditions = c.Conditions

	// Marks survive the edit for items whose label is still present.
	marked := make(map[string]*models.ChecklistItem, len(task.Checklist))
	for _, item := range task.Checklist {
		if item.IsMarked {
			marked[item.Name] = item
		}
	}

	task.Checklist = make([]*models.ChecklistItem, len(c.Checklist))
	task.ChecklistTotal = len(c.Checklist)
	task.ChecklistMarked = 0

	for i, name := range c.Checklist {
		if item, ok := marked[name]; ok {
			task.Checklist[i] = item
			task.ChecklistMarked++

			continue
		}

		task.Checklist[i] = &models.ChecklistItem{Name: name}
	}
}
