package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/flowlineio/flowline/pkg/events"
	"github.com/flowlineio/flowline/pkg/models"
	"github.com/flowlineio/flowline/pkg/template"
	"github.com/google/uuid"
)

// Runner is the workflow state machine. Its methods mutate the passed
// workflow in memory and return the lifecycle events the caller must publish
// after the surrounding transaction commits. The runner itself never touches
// persistence.
type Runner struct {
	logger *slog.Logger
}

func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{logger: logger}
}

// Start materializes a workflow from a version snapshot, stores kickoff
// outputs and advances to the first actionable task.
func (r *Runner) Start(wf *models.Workflow, data *models.VersionData, kickoff models.FieldValues, env Env) ([]events.Event, error) {
	if wf.Fields == nil {
		wf.Fields = make(models.FieldValues)
	}

	var kickoffFields []*models.FieldTemplate
	if data.Kickoff != nil {
		kickoffFields = data.Kickoff.Fields
	}

	if err := StoreOutputs(wf, kickoffFields, kickoff, env); err != nil {
		return nil, err
	}

	wf.Tasks = MaterializeTasks(data)
	wf.Status = models.WorkflowStatusActive
	wf.DateCreated = env.Now

	if wf.Name == "" {
		nameTemplate := data.WorkflowNameTemplate
		if nameTemplate == "" {
			nameTemplate = data.Name
		}

		wf.Name = template.Render(nameTemplate, wf.Fields, template.SystemVars(data.Name, env.Now))
	}

	evs := []events.Event{events.WorkflowStarted{
		BaseEvent:  r.base(wf, events.WorkflowStartedEvent, env.Now),
		TemplateID: wf.TemplateID,
		Version:    wf.Version,
		StarterID:  wf.StarterID,
	}}

	if err := r.advance(wf, 1, env, &evs); err != nil {
		return nil, err
	}

	return evs, nil
}

// CompleteTaskForUser records one performer's completion of the current task.
// With require_completion_by_all the workflow only advances once the last
// performer completes; otherwise the first completion advances it.
func (r *Runner) CompleteTaskForUser(wf *models.Workflow, userID string, values models.FieldValues, env Env) ([]events.Event, error) {
	if wf.Status == models.WorkflowStatusDelayed {
		return nil, ErrWorkflowDelayed
	}

	if wf.Status.IsTerminal() {
		return nil, ErrWorkflowFinished
	}

	task := wf.CurrentTaskInstance()
	if task == nil {
		return nil, fmt.Errorf("%w: no current task", ErrWorkflowFinished)
	}

	performer := task.PerformerByUserID(userID)
	if performer == nil {
		return nil, ErrNotCurrentPerformer
	}

	if performer.IsCompleted {
		return nil, ErrPerformerAlreadyCompleted
	}

	if task.ChecklistMarked < task.ChecklistTotal {
		return nil, fmt.Errorf("%w: %d of %d marked", ErrChecklistIncomplete, task.ChecklistMarked, task.ChecklistTotal)
	}

	// All rejections happen above this line; nothing is mutated on error.
	if err := StoreOutputs(wf, task.Fields, values, env); err != nil {
		return nil, err
	}

	now := env.Now
	performer.IsCompleted = true
	performer.DateCompleted = &now

	if task.RequireCompletionByAll && task.IncompletePerformers() > 0 {
		r.logger.Debug("performer completed, waiting for remaining performers",
			"workflow_id", wf.ID, "task", task.APIName, "remaining", task.IncompletePerformers())

		return []events.Event{events.TaskPerformerCompleted{
			BaseEvent:   r.base(wf, events.TaskPerformerCompletedEvent, now),
			TaskAPIName: task.APIName,
			UserID:      userID,
		}}, nil
	}

	task.IsCompleted = true
	task.DateCompleted = &now

	evs := []events.Event{events.TaskCompleted{
		BaseEvent:   r.base(wf, events.TaskCompletedEvent, now),
		TaskAPIName: task.APIName,
		TaskNumber:  task.Number,
		UserID:      userID,
	}}

	if err := r.advance(wf, task.Number+1, env, &evs); err != nil {
		return nil, err
	}

	return evs, nil
}

// MarkChecklistItem marks one required checklist item of the current task on
// behalf of a performer. Marking an already-marked item is a no-op.
func (r *Runner) MarkChecklistItem(wf *models.Workflow, userID, itemName string, env Env) ([]events.Event, error) {
	if wf.Status == models.WorkflowStatusDelayed {
		return nil, ErrWorkflowDelayed
	}

	if wf.Status.IsTerminal() {
		return nil, ErrWorkflowFinished
	}

	task := wf.CurrentTaskInstance()
	if task == nil {
		return nil, fmt.Errorf("%w: no current task", ErrWorkflowFinished)
	}

	if task.PerformerByUserID(userID) == nil {
		return nil, ErrNotCurrentPerformer
	}

	item := task.ChecklistItemByName(itemName)
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChecklistItem, itemName)
	}

	if item.IsMarked {
		return nil, nil
	}

	now := env.Now
	item.IsMarked = true
	item.MarkedBy = userID
	item.DateMarked = &now
	task.ChecklistMarked++

	return []events.Event{events.ChecklistItemMarked{
		BaseEvent:   r.base(wf, events.ChecklistItemMarkedEvent, now),
		TaskAPIName: task.APIName,
		Item:        itemName,
		UserID:      userID,
	}}, nil
}

// ReturnTo moves the current pointer back to an earlier completed task,
// reopening it and clearing completion state of everything between it and
// the old current task. Skip evaluation re-runs forward from the target so
// stale skip decisions are corrected.
func (r *Runner) ReturnTo(wf *models.Workflow, targetAPIName, userID string, env Env) ([]events.Event, error) {
	if wf.Status == models.WorkflowStatusDelayed {
		return nil, ErrWorkflowDelayed
	}

	if wf.Status.IsTerminal() {
		return nil, ErrWorkflowFinished
	}

	target := wf.TaskByAPIName(targetAPIName)
	if target == nil || target.Number >= wf.CurrentTask || !target.IsCompleted {
		return nil, fmt.Errorf("%w: %s", ErrInvalidReturnTarget, targetAPIName)
	}

	from := wf.CurrentTask

	for _, t := range wf.Tasks {
		if t.Number >= target.Number && t.Number <= from {
			t.ResetProgress()
		}
	}

	evs := []events.Event{events.TaskReturned{
		BaseEvent:     r.base(wf, events.TaskReturnedEvent, env.Now),
		TargetAPIName: targetAPIName,
		FromNumber:    from,
		UserID:        userID,
	}}

	if err := r.advance(wf, target.Number, env, &evs); err != nil {
		return nil, err
	}

	return evs, nil
}

// Revert sends control back along the current task's revert edge, or to the
// nearest earlier completed task when no edge is configured.
func (r *Runner) Revert(wf *models.Workflow, userID string, env Env) ([]events.Event, error) {
	if wf.Status == models.WorkflowStatusDelayed {
		return nil, ErrWorkflowDelayed
	}

	if wf.Status.IsTerminal() {
		return nil, ErrWorkflowFinished
	}

	task := wf.CurrentTaskInstance()
	if task == nil {
		return nil, fmt.Errorf("%w: no current task", ErrWorkflowFinished)
	}

	target := task.RevertTask
	if target == "" {
		for number := task.Number - 1; number >= 1; number-- {
			if prev := wf.TaskByNumber(number); prev != nil && prev.IsCompleted {
				target = prev.APIName

				break
			}
		}
	}

	if target == "" {
		return nil, ErrNoRevertTarget
	}

	return r.ReturnTo(wf, target, userID, env)
}

// Resume reactivates a delayed workflow once its delay has elapsed and starts
// the task that caused the suspension.
func (r *Runner) Resume(wf *models.Workflow, env Env) ([]events.Event, error) {
	if wf.Status != models.WorkflowStatusDelayed {
		return nil, ErrNotDelayed
	}

	task := wf.CurrentTaskInstance()
	if task == nil {
		return nil, fmt.Errorf("%w: no current task", ErrNotDelayed)
	}

	wf.Status = models.WorkflowStatusActive
	wf.ResumeAt = nil

	evs := []events.Event{events.WorkflowResumed{
		BaseEvent: r.base(wf, events.WorkflowResumedEvent, env.Now),
	}}

	if r.startTask(wf, task, env, &evs, true) {
		return evs, nil
	}

	if err := r.advance(wf, task.Number+1, env, &evs); err != nil {
		return nil, err
	}

	return evs, nil
}

// StartFrom advances the workflow from the given task number as if the
// previous task had just completed. Live migration uses it when the task the
// current pointer named no longer exists in the new version.
func (r *Runner) StartFrom(wf *models.Workflow, number int, env Env) ([]events.Event, error) {
	var evs []events.Event

	if err := r.advance(wf, number, env, &evs); err != nil {
		return nil, err
	}

	return evs, nil
}

// advance walks the task sequence from the given number, applying conditions
// and cascading over skipped tasks until a task starts, an END_WORKFLOW
// condition fires, the workflow suspends on a delay, or the list is
// exhausted.
func (r *Runner) advance(wf *models.Workflow, from int, env Env, evs *[]events.Event) error {
	for number := from; ; number++ {
		task := wf.TaskByNumber(number)
		if task == nil {
			now := env.Now
			wf.Status = models.WorkflowStatusDone
			wf.DateCompleted = &now

			*evs = append(*evs, events.WorkflowCompleted{
				BaseEvent:  r.base(wf, events.WorkflowCompletedEvent, now),
				TemplateID: wf.TemplateID,
			})

			return nil
		}

		// Settled tasks never re-enter. A migration can leave a frozen
		// completed task ordered after a pending one.
		if task.IsCompleted || task.IsSkipped {
			continue
		}

		// Conditions are evaluated exactly once, at the moment the task
		// would become current, against the values as of that moment.
		action, cond := ResolveTaskAction(task.Conditions, SnapshotOf(wf))

		switch action {
		case ActionEndWorkflow:
			now := env.Now
			wf.Status = models.WorkflowStatusEnded
			wf.DateCompleted = &now

			condAPIName := ""
			if cond != nil {
				condAPIName = cond.APIName
			}

			*evs = append(*evs, events.WorkflowEnded{
				BaseEvent:   r.base(wf, events.WorkflowEndedEvent, now),
				TaskAPIName: task.APIName,
				Condition:   condAPIName,
			})

			return nil

		case ActionSkip:
			task.IsSkipped = true
			task.SkipReason = models.TaskSkipCondition

			*evs = append(*evs, events.TaskSkipped{
				BaseEvent:   r.base(wf, events.TaskSkippedEvent, env.Now),
				TaskAPIName: task.APIName,
				TaskNumber:  task.Number,
				Reason:      models.TaskSkipCondition,
			})

		case ActionProceed:
			if r.startTask(wf, task, env, evs, false) {
				return nil
			}
		}
	}
}

// startTask activates a task: performers, due date, rendered name. It returns
// false when the task was skipped for lack of performers, letting advance
// continue the cascade. A configured delay suspends the workflow instead.
func (r *Runner) startTask(wf *models.Workflow, task *models.Task, env Env, evs *[]events.Event, afterDelay bool) bool {
	now := env.Now

	if task.Delay > 0 && !afterDelay && task.DateFirstStarted == nil {
		resumeAt := now.Add(task.Delay)
		wf.CurrentTask = task.Number
		wf.Status = models.WorkflowStatusDelayed
		wf.ResumeAt = &resumeAt

		*evs = append(*evs, events.WorkflowDelayed{
			BaseEvent:   r.base(wf, events.WorkflowDelayedEvent, now),
			TaskAPIName: task.APIName,
			ResumeAt:    resumeAt,
		})

		return true
	}

	performerIDs := ResolvePerformers(task.RawPerformers, wf.Fields, wf.StarterID, env)
	if len(performerIDs) == 0 {
		task.IsSkipped = true
		task.SkipReason = models.TaskSkipNoPerformers

		r.logger.Info("task skipped, no resolvable performers",
			"workflow_id", wf.ID, "task", task.APIName)

		*evs = append(*evs, events.TaskSkipped{
			BaseEvent:   r.base(wf, events.TaskSkippedEvent, now),
			TaskAPIName: task.APIName,
			TaskNumber:  task.Number,
			Reason:      models.TaskSkipNoPerformers,
		})

		return false
	}

	if task.DateFirstStarted == nil {
		task.DateFirstStarted = &now
	}

	task.DateStarted = &now
	task.Performers = make([]*models.TaskPerformer, len(performerIDs))

	for i, id := range performerIDs {
		task.Performers[i] = &models.TaskPerformer{UserID: id}
	}

	task.DueDate = ComputeDueDate(task.RawDueDate, wf, task)
	task.Name = template.Render(task.NameTemplate, wf.Fields, nil)
	task.Description = template.Render(task.DescriptionTemplate, wf.Fields, nil)

	wf.CurrentTask = task.Number
	wf.Status = models.WorkflowStatusActive

	*evs = append(*evs, events.TaskStarted{
		BaseEvent:   r.base(wf, events.TaskStartedEvent, now),
		TaskAPIName: task.APIName,
		TaskNumber:  task.Number,
		Performers:  performerIDs,
		DueDate:     task.DueDate,
	})

	return true
}

func (r *Runner) base(wf *models.Workflow, typ events.EventType, now time.Time) events.BaseEvent {
	return events.BaseEvent{
		ID:         uuid.New().String(),
		Type:       typ,
		Timestamp:  now,
		AccountID:  wf.AccountID,
		WorkflowID: wf.ID,
	}
}
