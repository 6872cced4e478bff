package engine_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowlineio/flowline/pkg/engine"
	"github.com/flowlineio/flowline/pkg/events"
	"github.com/flowlineio/flowline/pkg/models"
	"github.com/flowlineio/flowline/pkg/testutil"
)

func newRunner() *engine.Runner {
	return engine.NewRunner(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func newWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:         "wf-1",
		AccountID:  "acct-1",
		TemplateID: "tpl-1",
		Version:    1,
		StarterID:  "user-1",
	}
}

func versionData(tasks ...*models.TaskTemplate) *models.VersionData {
	return &models.VersionData{
		Name:    "Test Template",
		Kickoff: &models.KickoffTemplate{},
		Tasks:   tasks,
	}
}

func eventTypes(evs []events.Event) []events.EventType {
	out := make([]events.EventType, len(evs))
	for i, ev := range evs {
		out[i] = ev.GetType()
	}

	return out
}

func TestRunnerStart_ActivatesFirstTask(t *testing.T) {
	runner := newRunner()
	wf := newWorkflow()
	env := testutil.CreateTestEnv(time.Now().UTC())

	data := versionData(
		testutil.CreateTestTask("prepare", 1),
		testutil.CreateTestTask("review", 2),
	)

	evs, err := runner.Start(wf, data, nil, env)
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowStatusActive, wf.Status)
	assert.Equal(t, 1, wf.CurrentTask)
	require.Len(t, wf.Tasks, 2)

	first := wf.Tasks[0]
	require.Len(t, first.Performers, 1)
	assert.Equal(t, "user-1", first.Performers[0].UserID)
	assert.NotNil(t, first.DateStarted)

	assert.Equal(t, []events.EventType{
		events.WorkflowStartedEvent,
		events.TaskStartedEvent,
	}, eventTypes(evs))
}

func TestRunnerStart_RendersWorkflowName(t *testing.T) {
	runner := newRunner()
	wf := newWorkflow()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	env := testutil.CreateTestEnv(now)

	data := versionData(testutil.CreateTestTask("prepare", 1))
	data.WorkflowNameTemplate = "{{customer}} onboarding ({{date}})"
	data.Kickoff = &models.KickoffTemplate{Fields: []*models.FieldTemplate{
		{APIName: "customer", Name: "Customer", Type: models.FieldTypeString},
	}}

	kickoff := models.FieldValues{
		"customer": {Type: models.FieldTypeString, Value: "Acme"},
	}

	_, err := runner.Start(wf, data, kickoff, env)
	require.NoError(t, err)

	assert.Contains(t, wf.Name, "Acme onboarding")
	assert.Contains(t, wf.Name, "2024")
}

func TestRunnerStart_RejectsBadKickoff(t *testing.T) {
	runner := newRunner()
	env := testutil.CreateTestEnv(time.Now().UTC())

	data := versionData(testutil.CreateTestTask("prepare", 1))
	data.Kickoff = &models.KickoffTemplate{Fields: []*models.FieldTemplate{
		{APIName: "reason", Name: "Reason", Type: models.FieldTypeString, IsRequired: true},
	}}

	_, err := runner.Start(newWorkflow(), data, nil, env)
	assert.ErrorIs(t, err, engine.ErrRequiredFieldMissing)

	_, err = runner.Start(newWorkflow(), data, models.FieldValues{
		"reason":  {Type: models.FieldTypeString, Value: "because"},
		"unknown": {Type: models.FieldTypeString, Value: "nope"},
	}, env)
	assert.ErrorIs(t, err, engine.ErrUnknownField)
}

func TestRunnerCompleteTask_AdvancesToNext(t *testing.T) {
	runner := newRunner()
	wf := newWorkflow()
	env := testutil.CreateTestEnv(time.Now().UTC())

	data := versionData(
		testutil.CreateTestTask("prepare", 1),
		testutil.CreateTestTask("review", 2),
	)

	_, err := runner.Start(wf, data, nil, env)
	require.NoError(t, err)

	evs, err := runner.CompleteTaskForUser(wf, "user-1", nil, env)
	require.NoError(t, err)

	assert.True(t, wf.Tasks[0].IsCompleted)
	assert.Equal(t, 2, wf.CurrentTask)
	assert.Equal(t, []events.EventType{
		events.TaskCompletedEvent,
		events.TaskStartedEvent,
	}, eventTypes(evs))

	evs, err = runner.CompleteTaskForUser(wf, "user-1", nil, env)
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowStatusDone, wf.Status)
	assert.NotNil(t, wf.DateCompleted)
	assert.Equal(t, []events.EventType{
		events.TaskCompletedEvent,
		events.WorkflowCompletedEvent,
	}, eventTypes(evs))
}

func TestRunnerCompleteTask_Rejections(t *testing.T) {
	runner := newRunner()
	wf := newWorkflow()
	env := testutil.CreateTestEnv(time.Now().UTC())

	data := versionData(testutil.CreateTestTask("prepare", 1))

	_, err := runner.Start(wf, data, nil, env)
	require.NoError(t, err)

	_, err = runner.CompleteTaskForUser(wf, "user-2", nil, env)
	assert.ErrorIs(t, err, engine.ErrNotCurrentPerformer)

	_, err = runner.CompleteTaskForUser(wf, "user-1", nil, env)
	require.NoError(t, err)

	// The workflow is done now; further completions are rejected.
	_, err = runner.CompleteTaskForUser(wf, "user-1", nil, env)
	assert.ErrorIs(t, err, engine.ErrWorkflowFinished)
}

func TestRunnerCompleteTask_ChecklistGate(t *testing.T) {
	runner := newRunner()
	wf := newWorkflow()
	env := testutil.CreateTestEnv(time.Now().UTC())

	data := versionData(testutil.CreateTestTask("prepare", 1,
		testutil.WithChecklist("collect documents", "notify legal")))

	_, err := runner.Start(wf, data, nil, env)
	require.NoError(t, err)
	require.Equal(t, 2, wf.Tasks[0].ChecklistTotal)

	_, err = runner.CompleteTaskForUser(wf, "user-1", nil, env)
	assert.ErrorIs(t, err, engine.ErrChecklistIncomplete)

	// Only a current performer may mark items, and only defined ones.
	_, err = runner.MarkChecklistItem(wf, "user-2", "collect documents", env)
	assert.ErrorIs(t, err, engine.ErrNotCurrentPerformer)

	_, err = runner.MarkChecklistItem(wf, "user-1", "no-such-item", env)
	assert.ErrorIs(t, err, engine.ErrUnknownChecklistItem)

	evs, err := runner.MarkChecklistItem(wf, "user-1", "collect documents", env)
	require.NoError(t, err)
	assert.Equal(t, []events.EventType{events.ChecklistItemMarkedEvent}, eventTypes(evs))

	// Re-marking an already-marked item changes nothing.
	evs, err = runner.MarkChecklistItem(wf, "user-1", "collect documents", env)
	require.NoError(t, err)
	assert.Empty(t, evs)
	assert.Equal(t, 1, wf.Tasks[0].ChecklistMarked)

	_, err = runner.CompleteTaskForUser(wf, "user-1", nil, env)
	assert.ErrorIs(t, err, engine.ErrChecklistIncomplete)

	_, err = runner.MarkChecklistItem(wf, "user-1", "notify legal", env)
	require.NoError(t, err)

	_, err = runner.CompleteTaskForUser(wf, "user-1", nil, env)
	assert.NoError(t, err)
	assert.True(t, wf.Tasks[0].IsCompleted)
}

func TestRunnerCompleteTask_RequireCompletionByAll(t *testing.T) {
	runner := newRunner()
	wf := newWorkflow()
	env := testutil.CreateTestEnv(time.Now().UTC())

	data := versionData(
		testutil.CreateTestTask("sign-off", 1,
			testutil.WithRequireAll(),
			testutil.WithPerformers(
				&models.RawPerformerTemplate{APIName: "p1", Type: models.PerformerTypeUser, UserID: "user-1"},
				&models.RawPerformerTemplate{APIName: "p2", Type: models.PerformerTypeUser, UserID: "user-2"},
			),
		),
	)

	_, err := runner.Start(wf, data, nil, env)
	require.NoError(t, err)

	evs, err := runner.CompleteTaskForUser(wf, "user-1", nil, env)
	require.NoError(t, err)

	assert.False(t, wf.Tasks[0].IsCompleted)
	assert.Equal(t, []events.EventType{events.TaskPerformerCompletedEvent}, eventTypes(evs))

	_, err = runner.CompleteTaskForUser(wf, "user-1", nil, env)
	assert.ErrorIs(t, err, engine.ErrPerformerAlreadyCompleted)

	evs, err = runner.CompleteTaskForUser(wf, "user-2", nil, env)
	require.NoError(t, err)

	assert.True(t, wf.Tasks[0].IsCompleted)
	assert.Equal(t, models.WorkflowStatusDone, wf.Status)
	assert.Equal(t, []events.EventType{
		events.TaskCompletedEvent,
		events.WorkflowCompletedEvent,
	}, eventTypes(evs))
}

func TestRunnerAdvance_SkipConditionCascades(t *testing.T) {
	runner := newRunner()
	wf := newWorkflow()
	env := testutil.CreateTestEnv(time.Now().UTC())

	data := versionData(
		testutil.CreateTestTask("collect", 1, testutil.WithFields(
			&models.FieldTemplate{APIName: "urgent", Name: "Urgent", Type: models.FieldTypeString},
		)),
		testutil.CreateTestTask("triage", 2, testutil.WithConditions(
			testutil.SkipCondition("skip-triage", models.FieldTypeString, "urgent", models.OperatorExist, nil),
		)),
		testutil.CreateTestTask("escalate", 3, testutil.WithConditions(
			testutil.SkipCondition("skip-escalate", models.FieldTypeString, "urgent", models.OperatorExist, nil),
		)),
		testutil.CreateTestTask("resolve", 4),
	)

	_, err := runner.Start(wf, data, nil, env)
	require.NoError(t, err)

	values := models.FieldValues{
		"urgent": {Type: models.FieldTypeString, Value: "yes"},
	}

	evs, err := runner.CompleteTaskForUser(wf, "user-1", values, env)
	require.NoError(t, err)

	// Both conditional tasks skip in one cascade and the fourth task starts.
	assert.True(t, wf.Tasks[1].IsSkipped)
	assert.Equal(t, models.TaskSkipCondition, wf.Tasks[1].SkipReason)
	assert.True(t, wf.Tasks[2].IsSkipped)
	assert.Equal(t, 4, wf.CurrentTask)
	assert.Equal(t, []events.EventType{
		events.TaskCompletedEvent,
		events.TaskSkippedEvent,
		events.TaskSkippedEvent,
		events.TaskStartedEvent,
	}, eventTypes(evs))
}

func TestRunnerAdvance_EndWorkflowCondition(t *testing.T) {
	runner := newRunner()
	wf := newWorkflow()
	env := testutil.CreateTestEnv(time.Now().UTC())

	end := testutil.SkipCondition("stop-early", models.FieldTypeString, "rejected", models.OperatorExist, nil)
	end.Action = models.ConditionActionEndWorkflow

	data := versionData(
		testutil.CreateTestTask("review", 1, testutil.WithFields(
			&models.FieldTemplate{APIName: "rejected", Name: "Rejected", Type: models.FieldTypeString},
		)),
		testutil.CreateTestTask("provision", 2, testutil.WithConditions(end)),
	)

	_, err := runner.Start(wf, data, nil, env)
	require.NoError(t, err)

	values := models.FieldValues{
		"rejected": {Type: models.FieldTypeString, Value: "budget"},
	}

	evs, err := runner.CompleteTaskForUser(wf, "user-1", values, env)
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowStatusEnded, wf.Status)
	assert.NotNil(t, wf.DateCompleted)
	assert.False(t, wf.Tasks[1].IsCompleted)
	assert.Equal(t, []events.EventType{
		events.TaskCompletedEvent,
		events.WorkflowEndedEvent,
	}, eventTypes(evs))
}

func TestRunnerAdvance_NoPerformersSkips(t *testing.T) {
	runner := newRunner()
	wf := newWorkflow()
	env := testutil.CreateTestEnv(time.Now().UTC())

	data := versionData(
		testutil.CreateTestTask("orphan", 1, testutil.WithPerformers(
			&models.RawPerformerTemplate{APIName: "p1", Type: models.PerformerTypeField, Field: "assignee"},
		)),
		testutil.CreateTestTask("fallback", 2),
	)

	evs, err := runner.Start(wf, data, nil, env)
	require.NoError(t, err)

	assert.True(t, wf.Tasks[0].IsSkipped)
	assert.Equal(t, models.TaskSkipNoPerformers, wf.Tasks[0].SkipReason)
	assert.Equal(t, 2, wf.CurrentTask)
	assert.Equal(t, []events.EventType{
		events.WorkflowStartedEvent,
		events.TaskSkippedEvent,
		events.TaskStartedEvent,
	}, eventTypes(evs))
}

func TestRunnerDelay_SuspendsAndResumes(t *testing.T) {
	runner := newRunner()
	wf := newWorkflow()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	env := testutil.CreateTestEnv(now)

	data := versionData(
		testutil.CreateTestTask("wait", 1, testutil.WithDelay(2*time.Hour)),
	)

	evs, err := runner.Start(wf, data, nil, env)
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowStatusDelayed, wf.Status)
	require.NotNil(t, wf.ResumeAt)
	assert.Equal(t, now.Add(2*time.Hour), *wf.ResumeAt)
	assert.Equal(t, []events.EventType{
		events.WorkflowStartedEvent,
		events.WorkflowDelayedEvent,
	}, eventTypes(evs))

	// Completion is rejected while delayed.
	_, err = runner.CompleteTaskForUser(wf, "user-1", nil, env)
	assert.ErrorIs(t, err, engine.ErrWorkflowDelayed)

	env.Now = now.Add(2 * time.Hour)

	evs, err = runner.Resume(wf, env)
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowStatusActive, wf.Status)
	assert.Nil(t, wf.ResumeAt)
	assert.NotNil(t, wf.Tasks[0].DateStarted)
	assert.Equal(t, []events.EventType{
		events.WorkflowResumedEvent,
		events.TaskStartedEvent,
	}, eventTypes(evs))

	_, err = runner.Resume(wf, env)
	assert.ErrorIs(t, err, engine.ErrNotDelayed)
}

func TestRunnerReturnTo_ReopensRange(t *testing.T) {
	runner := newRunner()
	wf := newWorkflow()
	env := testutil.CreateTestEnv(time.Now().UTC())

	data := versionData(
		testutil.CreateTestTask("draft", 1),
		testutil.CreateTestTask("review", 2),
		testutil.CreateTestTask("publish", 3),
	)

	_, err := runner.Start(wf, data, nil, env)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = runner.CompleteTaskForUser(wf, "user-1", nil, env)
		require.NoError(t, err)
	}

	require.Equal(t, 3, wf.CurrentTask)

	evs, err := runner.ReturnTo(wf, "draft", "user-1", env)
	require.NoError(t, err)

	assert.Equal(t, 1, wf.CurrentTask)
	assert.False(t, wf.Tasks[0].IsCompleted)
	assert.False(t, wf.Tasks[1].IsCompleted)
	assert.Nil(t, wf.Tasks[1].Performers)
	assert.Equal(t, []events.EventType{
		events.TaskReturnedEvent,
		events.TaskStartedEvent,
	}, eventTypes(evs))

	// The reopened task keeps its first-start timestamp.
	assert.NotNil(t, wf.Tasks[0].DateFirstStarted)
}

func TestRunnerReturnTo_RejectsInvalidTargets(t *testing.T) {
	runner := newRunner()
	wf := newWorkflow()
	env := testutil.CreateTestEnv(time.Now().UTC())

	data := versionData(
		testutil.CreateTestTask("draft", 1),
		testutil.CreateTestTask("review", 2),
	)

	_, err := runner.Start(wf, data, nil, env)
	require.NoError(t, err)

	// Forward target.
	_, err = runner.ReturnTo(wf, "review", "user-1", env)
	assert.ErrorIs(t, err, engine.ErrInvalidReturnTarget)

	// Unknown target.
	_, err = runner.ReturnTo(wf, "missing", "user-1", env)
	assert.ErrorIs(t, err, engine.ErrInvalidReturnTarget)
}

func TestRunnerRevert_UsesEdgeThenNearestCompleted(t *testing.T) {
	runner := newRunner()
	wf := newWorkflow()
	env := testutil.CreateTestEnv(time.Now().UTC())

	data := versionData(
		testutil.CreateTestTask("draft", 1),
		testutil.CreateTestTask("review", 2),
		testutil.CreateTestTask("publish", 3, testutil.WithRevertTask("draft")),
	)

	_, err := runner.Start(wf, data, nil, env)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = runner.CompleteTaskForUser(wf, "user-1", nil, env)
		require.NoError(t, err)
	}

	// The configured edge on publish sends control all the way back to draft.
	_, err = runner.Revert(wf, "user-1", env)
	require.NoError(t, err)
	assert.Equal(t, 1, wf.CurrentTask)

	_, err = runner.CompleteTaskForUser(wf, "user-1", nil, env)
	require.NoError(t, err)
	require.Equal(t, 2, wf.CurrentTask)

	// review has no edge; it falls back to the nearest earlier completed task.
	_, err = runner.Revert(wf, "user-1", env)
	require.NoError(t, err)
	assert.Equal(t, 1, wf.CurrentTask)
}

func TestRunnerRevert_NoTarget(t *testing.T) {
	runner := newRunner()
	wf := newWorkflow()
	env := testutil.CreateTestEnv(time.Now().UTC())

	data := versionData(testutil.CreateTestTask("draft", 1))

	_, err := runner.Start(wf, data, nil, env)
	require.NoError(t, err)

	_, err = runner.Revert(wf, "user-1", env)
	assert.ErrorIs(t, err, engine.ErrNoRevertTarget)
}

func TestRunnerAdvance_ConditionReevaluatedAfterReturn(t *testing.T) {
	runner := newRunner()
	wf := newWorkflow()
	env := testutil.CreateTestEnv(time.Now().UTC())

	data := versionData(
		testutil.CreateTestTask("collect", 1, testutil.WithFields(
			&models.FieldTemplate{APIName: "fast-track", Name: "Fast track", Type: models.FieldTypeString},
		)),
		testutil.CreateTestTask("audit", 2, testutil.WithConditions(
			testutil.SkipCondition("skip-audit", models.FieldTypeString, "fast-track", models.OperatorExist, nil),
		)),
		testutil.CreateTestTask("close", 3),
	)

	_, err := runner.Start(wf, data, nil, env)
	require.NoError(t, err)

	// First pass: fast-track set, audit skipped.
	_, err = runner.CompleteTaskForUser(wf, "user-1", models.FieldValues{
		"fast-track": {Type: models.FieldTypeString, Value: "yes"},
	}, env)
	require.NoError(t, err)
	require.True(t, wf.Tasks[1].IsSkipped)
	require.Equal(t, 3, wf.CurrentTask)

	_, err = runner.ReturnTo(wf, "collect", "user-1", env)
	require.NoError(t, err)

	// Second pass: the field is cleared, so audit starts this time.
	_, err = runner.CompleteTaskForUser(wf, "user-1", models.FieldValues{
		"fast-track": {Type: models.FieldTypeString, Value: ""},
	}, env)
	require.NoError(t, err)

	assert.False(t, wf.Tasks[1].IsSkipped)
	assert.Equal(t, 2, wf.CurrentTask)
}
