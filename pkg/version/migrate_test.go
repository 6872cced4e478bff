package version_test

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
	"github.com/flowlineio/flowline/pkg/version"
)

func newData(tasks ...*models.TaskTemplate) *models.VersionData {
	return &models.VersionData{
		Name:    "Test Template",
		Kickoff: &models.KickoffTemplate{},
		Tasks:   tasks,
	}
}

func newVersion(n int, data *models.VersionData) *models.TemplateVersion {
	return &models.TemplateVersion{
		TemplateID: "tpl-1",
		Version:    n,
		Data:       data,
		CreatedAt:  time.Now().UTC(),
	}
}

// startWorkflow runs version 1 of the given data and completes the first
// `completed` tasks.
func startWorkflow(t *testing.T, data *models.VersionData, env engine.Env, completed int) *models.Workflow {
	t.Helper()

	runner := engine.NewRunner(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	wf := &models.Workflow{
		ID:         "wf-1",
		AccountID:  "acct-1",
		TemplateID: "tpl-1",
		Version:    1,
		StarterID:  "user-1",
	}

	_, err := runner.Start(wf, data, nil, env)
	require.NoError(t, err)

	for i := 0; i < completed; i++ {
		_, err = runner.CompleteTaskForUser(wf, "user-1", nil, env)
		require.NoError(t, err)
	}

	return wf
}

func newMigrator() *version.Migrator {
	return version.NewMigrator(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func TestDiff_Categories(t *testing.T) {
	env := testutil.CreateTestEnv(time.Now().UTC())

	wf := startWorkflow(t, newData(
		testutil.CreateTestTask("done", 1),
		testutil.CreateTestTask("pending", 2),
		testutil.CreateTestTask("dropped", 3),
	), env, 1)

	cs := version.Diff(wf, newData(
		testutil.CreateTestTask("done", 1),
		testutil.CreateTestTask("pending", 2),
		testutil.CreateTestTask("fresh", 3),
	))

	require.Len(t, cs.Insert, 1)
	assert.Equal(t, "fresh", cs.Insert[0].APIName)
	assert.Equal(t, []string{"done"}, cs.Freeze)
	require.Len(t, cs.Update, 1)
	assert.Equal(t, "pending", cs.Update[0].APIName)
	assert.Equal(t, []string{"dropped"}, cs.Delete)
}

func TestUpdateFromVersion_NoOpOnTerminalOrStale(t *testing.T) {
	env := testutil.CreateTestEnv(time.Now().UTC())
	m := newMigrator()

	wf := startWorkflow(t, newData(testutil.CreateTestTask("only", 1)), env, 1)
	require.Equal(t, models.WorkflowStatusDone, wf.Status)

	evs, err := m.UpdateFromVersion(wf, newVersion(2, newData(testutil.CreateTestTask("only", 1))), env)
	require.NoError(t, err)
	assert.Nil(t, evs)

	active := startWorkflow(t, newData(testutil.CreateTestTask("only", 1), testutil.CreateTestTask("more", 2)), env, 0)

	// Same version number: nothing to do.
	evs, err = m.UpdateFromVersion(active, newVersion(1, newData(testutil.CreateTestTask("only", 1))), env)
	require.NoError(t, err)
	assert.Nil(t, evs)
	assert.Equal(t, 1, active.Version)
}

func TestUpdateFromVersion_UpdatesPendingTasksInPlace(t *testing.T) {
	env := testutil.CreateTestEnv(time.Now().UTC())
	m := newMigrator()

	wf := startWorkflow(t, newData(
		testutil.CreateTestTask("draft", 1),
		testutil.CreateTestTask("review", 2),
	), env, 0)

	renamed := testutil.CreateTestTask("review", 2)
	renamed.Name = "Thorough review"

	evs, err := m.UpdateFromVersion(wf, newVersion(2, newData(
		testutil.CreateTestTask("draft", 1),
		renamed,
	)), env)
	require.NoError(t, err)

	assert.Equal(t, 2, wf.Version)
	assert.Equal(t, "Thorough review", wf.TaskByAPIName("review").NameTemplate)

	// The current task kept its identity and pointer.
	assert.Equal(t, 1, wf.CurrentTask)
	assert.Equal(t, "draft", wf.CurrentTaskInstance().APIName)

	types := make([]events.EventType, len(evs))
	for i, ev := range evs {
		types[i] = ev.GetType()
	}
	assert.Contains(t, types, events.WorkflowMigratedEvent)
}

func TestUpdateFromVersion_InsertBeforeCurrentRenumbers(t *testing.T) {
	env := testutil.CreateTestEnv(time.Now().UTC())
	m := newMigrator()

	wf := startWorkflow(t, newData(
		testutil.CreateTestTask("draft", 1),
		testutil.CreateTestTask("publish", 2),
	), env, 1)
	require.Equal(t, 2, wf.CurrentTask)

	_, err := m.UpdateFromVersion(wf, newVersion(2, newData(
		testutil.CreateTestTask("draft", 1),
		testutil.CreateTestTask("legal-check", 2),
		testutil.CreateTestTask("publish", 3),
	)), env)
	require.NoError(t, err)

	require.Len(t, wf.Tasks, 3)
	assert.Equal(t, "legal-check", wf.Tasks[1].APIName)
	assert.Equal(t, 2, wf.Tasks[1].Number)

	// The active task survives by api_name; the pointer follows it to its
	// new number. The inserted earlier task does not run retroactively.
	assert.Equal(t, 3, wf.CurrentTask)
	assert.Equal(t, "publish", wf.CurrentTaskInstance().APIName)
	assert.False(t, wf.Tasks[1].IsCompleted)
	assert.Nil(t, wf.Tasks[1].DateStarted)
}

func TestUpdateFromVersion_DeletesPendingDroppedKeepsCompletedDropped(t *testing.T) {
	env := testutil.CreateTestEnv(time.Now().UTC())
	m := newMigrator()

	wf := startWorkflow(t, newData(
		testutil.CreateTestTask("done-dropped", 1),
		testutil.CreateTestTask("current", 2),
		testutil.CreateTestTask("pending-dropped", 3),
	), env, 1)

	_, err := m.UpdateFromVersion(wf, newVersion(2, newData(
		testutil.CreateTestTask("current", 1),
	)), env)
	require.NoError(t, err)

	// The pending dropped task is gone; the completed dropped task survives
	// in history at its old position.
	assert.Nil(t, wf.TaskByAPIName("pending-dropped"))
	require.NotNil(t, wf.TaskByAPIName("done-dropped"))
	assert.True(t, wf.TaskByAPIName("done-dropped").IsCompleted)
	assert.Equal(t, 1, wf.TaskByAPIName("done-dropped").Number)

	assert.Equal(t, 2, wf.TaskByAPIName("current").Number)
	assert.Equal(t, 2, wf.CurrentTask)
}

func TestUpdateFromVersion_FreezesCompletedTasks(t *testing.T) {
	env := testutil.CreateTestEnv(time.Now().UTC())
	m := newMigrator()

	wf := startWorkflow(t, newData(
		testutil.CreateTestTask("done", 1),
		testutil.CreateTestTask("current", 2),
	), env, 1)

	frozen := testutil.CreateTestTask("done", 1)
	frozen.Name = "Rewritten title"

	_, err := m.UpdateFromVersion(wf, newVersion(2, newData(
		frozen,
		testutil.CreateTestTask("current", 2),
	)), env)
	require.NoError(t, err)

	// Completed history keeps the strings it was completed with.
	assert.Equal(t, "Task 1", wf.TaskByAPIName("done").NameTemplate)
	assert.True(t, wf.TaskByAPIName("done").IsCompleted)
}

func TestUpdateFromVersion_RefreshesCurrentPerformers(t *testing.T) {
	env := testutil.CreateTestEnv(time.Now().UTC())
	m := newMigrator()

	wf := startWorkflow(t, newData(testutil.CreateTestTask("current", 1)), env, 0)
	require.Equal(t, "user-1", wf.Tasks[0].Performers[0].UserID)

	reassigned := testutil.CreateTestTask("current", 1, testutil.WithPerformers(
		&models.RawPerformerTemplate{APIName: "p", Type: models.PerformerTypeUser, UserID: "user-2"},
	))

	evs, err := m.UpdateFromVersion(wf, newVersion(2, newData(reassigned)), env)
	require.NoError(t, err)

	require.Len(t, wf.Tasks[0].Performers, 1)
	assert.Equal(t, "user-2", wf.Tasks[0].Performers[0].UserID)

	var changed *events.TaskPerformersChanged
	for _, ev := range evs {
		if c, ok := ev.(events.TaskPerformersChanged); ok {
			changed = &c
		}
	}

	require.NotNil(t, changed)
	assert.Equal(t, []string{"user-2"}, changed.Added)
	assert.Equal(t, []string{"user-1"}, changed.Removed)
}

func TestUpdateFromVersion_StarterFallbackWhenNoPerformersResolve(t *testing.T) {
	env := testutil.CreateTestEnv(time.Now().UTC())
	m := newMigrator()

	wf := startWorkflow(t, newData(testutil.CreateTestTask("current", 1)), env, 0)

	unresolvable := testutil.CreateTestTask("current", 1, testutil.WithPerformers(
		&models.RawPerformerTemplate{APIName: "p", Type: models.PerformerTypeField, Field: "assignee"},
	))
	unresolvable.Fields = []*models.FieldTemplate{
		{APIName: "assignee", Name: "Assignee", Type: models.FieldTypeUser},
	}

	_, err := m.UpdateFromVersion(wf, newVersion(2, newData(unresolvable)), env)
	require.NoError(t, err)

	// An active task is never left without performers.
	require.Len(t, wf.Tasks[0].Performers, 1)
	assert.Equal(t, "user-1", wf.Tasks[0].Performers[0].UserID)
}

func TestUpdateFromVersion_CurrentRemovedStartsNextNeverRan(t *testing.T) {
	env := testutil.CreateTestEnv(time.Now().UTC())
	m := newMigrator()

	wf := startWorkflow(t, newData(
		testutil.CreateTestTask("done", 1),
		testutil.CreateTestTask("current", 2),
	), env, 1)

	evs, err := m.UpdateFromVersion(wf, newVersion(2, newData(
		testutil.CreateTestTask("done", 1),
		testutil.CreateTestTask("replacement", 2),
	)), env)
	require.NoError(t, err)

	assert.Nil(t, wf.TaskByAPIName("current"))
	assert.Equal(t, 2, wf.CurrentTask)
	assert.Equal(t, "replacement", wf.CurrentTaskInstance().APIName)
	assert.NotNil(t, wf.CurrentTaskInstance().DateStarted)

	started := false
	for _, ev := range evs {
		if ev.GetType() == events.TaskStartedEvent {
			started = true
		}
	}
	assert.True(t, started)
}

func TestUpdateFromVersion_InsertBeforeFrozenDoesNotReactivateIt(t *testing.T) {
	env := testutil.CreateTestEnv(time.Now().UTC())
	m := newMigrator()

	wf := startWorkflow(t, newData(
		testutil.CreateTestTask("done", 1),
		testutil.CreateTestTask("dropped", 2),
	), env, 1)

	// The new version drops the old current task and inserts a fresh one
	// ahead of the frozen completed task.
	_, err := m.UpdateFromVersion(wf, newVersion(2, newData(
		testutil.CreateTestTask("fresh", 1),
		testutil.CreateTestTask("done", 2),
	)), env)
	require.NoError(t, err)

	require.Equal(t, 1, wf.CurrentTask)
	require.Equal(t, "fresh", wf.CurrentTaskInstance().APIName)

	frozen := wf.TaskByAPIName("done")
	completedAt := frozen.DateCompleted

	runner := engine.NewRunner(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	// Completing the inserted task must step over the frozen task, not
	// restart it.
	evs, err := runner.CompleteTaskForUser(wf, "user-1", nil, env)
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowStatusDone, wf.Status)
	assert.True(t, frozen.IsCompleted)
	assert.Equal(t, completedAt, frozen.DateCompleted)

	for _, ev := range evs {
		if started, ok := ev.(events.TaskStarted); ok {
			assert.NotEqual(t, "done", started.TaskAPIName)
		}
	}
}

func TestUpdateFromVersion_ChecklistMarksSurviveByLabel(t *testing.T) {
	env := testutil.CreateTestEnv(time.Now().UTC())
	m := newMigrator()
	runner := engine.NewRunner(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	wf := startWorkflow(t, newData(
		testutil.CreateTestTask("current", 1, testutil.WithChecklist("sign", "file")),
	), env, 0)

	_, err := runner.MarkChecklistItem(wf, "user-1", "sign", env)
	require.NoError(t, err)

	_, err = m.UpdateFromVersion(wf, newVersion(2, newData(
		testutil.CreateTestTask("current", 1, testutil.WithChecklist("file", "sign", "archive")),
	)), env)
	require.NoError(t, err)

	task := wf.TaskByAPIName("current")
	require.Equal(t, 3, task.ChecklistTotal)
	assert.Equal(t, 1, task.ChecklistMarked)
	assert.True(t, task.ChecklistItemByName("sign").IsMarked)
	assert.False(t, task.ChecklistItemByName("file").IsMarked)
	assert.False(t, task.ChecklistItemByName("archive").IsMarked)
}

func TestUpdateFromVersion_AllTasksRemovedCompletesWorkflow(t *testing.T) {
	env := testutil.CreateTestEnv(time.Now().UTC())
	m := newMigrator()

	wf := startWorkflow(t, newData(
		testutil.CreateTestTask("done", 1),
		testutil.CreateTestTask("current", 2),
	), env, 1)

	_, err := m.UpdateFromVersion(wf, newVersion(2, newData(
		testutil.CreateTestTask("done", 1),
	)), env)
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowStatusDone, wf.Status)
	assert.NotNil(t, wf.DateCompleted)
}
