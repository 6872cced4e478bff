package version

import (
	"log/slog"
	"sort"

	"github.com/flowlineio/flowline/pkg/engine"
	"github.com/flowlineio/flowline/pkg/events"
	"github.com/flowlineio/flowline/pkg/models"
	"github.com/flowlineio/flowline/pkg/template"
	"github.com/google/uuid"
)

// ChangeSet is the explicit three-way diff between a live workflow's task set
// and a newer version snapshot, keyed by api_name.
type ChangeSet struct {
	// Insert lists snapshot tasks with no live counterpart.
	Insert []*models.TaskTemplate
	// Update lists snapshot tasks whose live counterpart is still pending or
	// active and gets its structure overwritten.
	Update []*models.TaskTemplate
	// Freeze lists api_names of completed live tasks: their stored name,
	// description, performers and fields are never touched again.
	Freeze []string
	// Delete lists api_names of live, not-yet-completed tasks absent from
	// the snapshot; removal cascades to their performers and fields.
	Delete []string
}

// Diff computes the changeset without applying anything.
func Diff(wf *models.Workflow, data *models.VersionData) ChangeSet {
	var cs ChangeSet

	for _, tt := range data.Tasks {
		live := wf.TaskByAPIName(tt.APIName)

		switch {
		case live == nil:
			cs.Insert = append(cs.Insert, tt)
		case live.IsCompleted:
			cs.Freeze = append(cs.Freeze, tt.APIName)
		default:
			cs.Update = append(cs.Update, tt)
		}
	}

	for _, live := range wf.Tasks {
		if data.TaskByAPIName(live.APIName) == nil && !live.IsCompleted {
			cs.Delete = append(cs.Delete, live.APIName)
		}
	}

	return cs
}

// Migrator re-applies a newer template version onto one running workflow.
// Each call is one atomic unit; the caller wraps it in the workflow's
// transaction and publishes the returned events after commit.
type Migrator struct {
	runner *engine.Runner
	logger *slog.Logger
}

func NewMigrator(logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Migrator{
		runner: engine.NewRunner(logger),
		logger: logger,
	}
}

// UpdateFromVersion rewrites the workflow's pending task rows from the new
// snapshot. Completed tasks are frozen, pending tasks are overwritten,
// snapshot-only tasks are inserted at position, live-only pending tasks are
// removed, and the current pointer and numbering are recomputed. Tasks are
// processed in ascending number order so dynamic performers referencing
// earlier tasks' fields resolve against already-migrated data.
func (m *Migrator) UpdateFromVersion(wf *models.Workflow, v *models.TemplateVersion, env engine.Env) ([]events.Event, error) {
	if wf.Status.IsTerminal() || v.Version <= wf.Version {
		return nil, nil
	}

	cs := Diff(wf, v.Data)

	deleted := make(map[string]bool, len(cs.Delete))
	for _, apiName := range cs.Delete {
		deleted[apiName] = true
	}

	oldCurrent := ""
	if cur := wf.CurrentTaskInstance(); cur != nil {
		oldCurrent = cur.APIName
	}

	merged := m.merge(wf, v.Data, deleted)

	for i, t := range merged {
		t.Number = i + 1
	}

	fromVersion := wf.Version
	wf.Tasks = merged
	wf.Version = v.Version

	evs := []events.Event{events.WorkflowMigrated{
		BaseEvent: events.BaseEvent{
			ID:         uuid.New().String(),
			Type:       events.WorkflowMigratedEvent,
			Timestamp:  env.Now,
			AccountID:  wf.AccountID,
			WorkflowID: wf.ID,
		},
		TemplateID:  wf.TemplateID,
		FromVersion: fromVersion,
		ToVersion:   v.Version,
	}}

	current := wf.TaskByAPIName(oldCurrent)
	if current != nil && !current.IsCompleted && !current.IsSkipped {
		wf.CurrentTask = current.Number

		if wf.Status == models.WorkflowStatusActive {
			m.refreshCurrent(wf, current, env, &evs)
		}

		return evs, nil
	}

	// The old current task is gone (or completed meanwhile); re-enter the
	// state machine at the first task that never ran.
	next := len(wf.Tasks) + 1

	for _, t := range wf.Tasks {
		if !t.IsCompleted && !t.IsSkipped {
			next = t.Number

			break
		}
	}

	started, err := m.runner.StartFrom(wf, next, env)
	if err != nil {
		return nil, err
	}

	return append(evs, started...), nil
}

// merge builds the migrated task list: the snapshot's order, with frozen
// completed tasks carried over untouched and completed tasks that the new
// version dropped kept at their old position.
func (m *Migrator) merge(wf *models.Workflow, data *models.VersionData, deleted map[string]bool) []*models.Task {
	ordered := make([]*models.TaskTemplate, len(data.Tasks))
	copy(ordered, data.Tasks)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Number < ordered[j].Number })

	merged := make([]*models.Task, 0, len(ordered))

	for _, tt := range ordered {
		live := wf.TaskByAPIName(tt.APIName)

		switch {
		case live == nil:
			merged = append(merged, engine.NewTaskFromTemplate(tt))
		case live.IsCompleted:
			merged = append(merged, live)
		default:
			engine.ApplyTemplateToTask(live, tt)
			merged = append(merged, live)
		}
	}

	// Completed tasks absent from the new version stay in history, anchored
	// near their old position.
	for _, live := range wf.Tasks {
		if data.TaskByAPIName(live.APIName) != nil || deleted[live.APIName] {
			continue
		}

		if !live.IsCompleted {
			continue
		}

		at := live.Number - 1
		if at > len(merged) {
			at = len(merged)
		}

		merged = append(merged[:at], append([]*models.Task{live}, merged[at:]...)...)
	}

	return merged
}

// refreshCurrent re-resolves the active task's performers against the new
// structure in place, defaulting to the workflow starter so an active task is
// never left with zero performers, and re-renders its strings and due date.
func (m *Migrator) refreshCurrent(wf *models.Workflow, task *models.Task, env engine.Env, evs *[]events.Event) {
	resolved := engine.ResolvePerformers(task.RawPerformers, wf.Fields, wf.StarterID, env)
	if len(resolved) == 0 {
		resolved = []string{wf.StarterID}
	}

	want := make(map[string]bool, len(resolved))
	for _, id := range resolved {
		want[id] = true
	}

	existing := make(map[string]*models.TaskPerformer, len(task.Performers))

	var removed []string

	for _, p := range task.Performers {
		existing[p.UserID] = p

		if !want[p.UserID] {
			removed = append(removed, p.UserID)
		}
	}

	var added []string

	performers := make([]*models.TaskPerformer, 0, len(resolved))

	for _, id := range resolved {
		if p, ok := existing[id]; ok {
			performers = append(performers, p)

			continue
		}

		added = append(added, id)
		performers = append(performers, &models.TaskPerformer{UserID: id})
	}

	task.Performers = performers
	task.DueDate = engine.ComputeDueDate(task.RawDueDate, wf, task)
	task.Name = template.Render(task.NameTemplate, wf.Fields, nil)
	task.Description = template.Render(task.DescriptionTemplate, wf.Fields, nil)

	if len(added) > 0 || len(removed) > 0 {
		m.logger.Info("migration rewrote current task performers",
			"workflow_id", wf.ID, "task", task.APIName, "added", added, "removed", removed)

		*evs = append(*evs, events.TaskPerformersChanged{
			BaseEvent: events.BaseEvent{
				ID:         uuid.New().String(),
				Type:       events.TaskPerformersChangedEvent,
				Timestamp:  env.Now,
				AccountID:  wf.AccountID,
				WorkflowID: wf.ID,
			},
			TaskAPIName: task.APIName,
			Added:       added,
			Removed:     removed,
		})
	}
}
