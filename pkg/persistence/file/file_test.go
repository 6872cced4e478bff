package file_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowlineio/flowline/pkg/models"
	"github.com/flowlineio/flowline/pkg/persistence"
	"github.com/flowlineio/flowline/pkg/persistence/file"
	"github.com/flowlineio/flowline/pkg/testutil"
)

func TestTemplateRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	tpl := testutil.CreateTestTemplate([]*models.TaskTemplate{
		testutil.CreateTestTask("draft", 1),
	})

	require.NoError(t, p.Templates().Save(ctx, tpl))

	loaded, err := p.Templates().GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.Name, loaded.Name)
	require.Len(t, loaded.Tasks, 1)
	assert.Equal(t, "draft", loaded.Tasks[0].APIName)

	_, err = p.Templates().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrTemplateNotFound)
	assert.True(t, persistence.IsNotFound(err))
}

func TestTemplateRepository_ListByAccount(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	mine := testutil.CreateTestTemplate([]*models.TaskTemplate{testutil.CreateTestTask("a", 1)})
	other := testutil.CreateTestTemplate(
		[]*models.TaskTemplate{testutil.CreateTestTask("b", 1)},
		func(tpl *models.Template) { tpl.AccountID = "acct-2" },
	)

	require.NoError(t, p.Templates().Save(ctx, mine))
	require.NoError(t, p.Templates().Save(ctx, other))

	listed, err := p.Templates().ListByAccount(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, mine.ID, listed[0].ID)
}

func TestTemplateRepository_Versions(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	tpl := testutil.CreateTestTemplate([]*models.TaskTemplate{testutil.CreateTestTask("a", 1)})

	_, err := p.Templates().LatestVersion(ctx, tpl.ID)
	assert.ErrorIs(t, err, persistence.ErrTemplateNotFound)

	// An unpublished template has no versions.
	require.NoError(t, p.Templates().Save(ctx, tpl))
	_, err = p.Templates().LatestVersion(ctx, tpl.ID)
	assert.ErrorIs(t, err, persistence.ErrVersionNotFound)

	for n := 1; n <= 2; n++ {
		require.NoError(t, p.Templates().SaveVersion(ctx, &models.TemplateVersion{
			TemplateID: tpl.ID,
			Version:    n,
			Data:       &models.VersionData{Name: tpl.Name, Tasks: tpl.Tasks},
			CreatedAt:  time.Now().UTC(),
		}))
	}

	tpl.Version = 2
	require.NoError(t, p.Templates().Save(ctx, tpl))

	latest, err := p.Templates().LatestVersion(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)

	first, err := p.Templates().VersionByNumber(ctx, tpl.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	_, err = p.Templates().VersionByNumber(ctx, tpl.ID, 9)
	assert.ErrorIs(t, err, persistence.ErrVersionNotFound)
}

func TestWorkflowRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	wf := &models.Workflow{
		ID:         "wf-1",
		AccountID:  "acct-1",
		TemplateID: "tpl-1",
		Status:     models.WorkflowStatusActive,
		Version:    1,
	}

	require.NoError(t, p.Workflows().Save(ctx, wf))

	loaded, err := p.Workflows().GetByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusActive, loaded.Status)

	_, err = p.Workflows().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

	require.NoError(t, p.Workflows().Delete(ctx, "wf-1"))

	_, err = p.Workflows().GetByID(ctx, "wf-1")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestWorkflowRepository_ListRunningByTemplate(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	workflows := []*models.Workflow{
		{ID: "wf-active", TemplateID: "tpl-1", Status: models.WorkflowStatusActive},
		{ID: "wf-delayed", TemplateID: "tpl-1", Status: models.WorkflowStatusDelayed},
		{ID: "wf-done", TemplateID: "tpl-1", Status: models.WorkflowStatusDone},
		{ID: "wf-other", TemplateID: "tpl-2", Status: models.WorkflowStatusActive},
	}

	for _, wf := range workflows {
		require.NoError(t, p.Workflows().Save(ctx, wf))
	}

	running, err := p.Workflows().ListRunningByTemplate(ctx, "tpl-1")
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, wf := range running {
		ids[wf.ID] = true
	}

	assert.Len(t, running, 2)
	assert.True(t, ids["wf-active"])
	assert.True(t, ids["wf-delayed"])
}

func TestWorkflowRepository_ListDelayedBefore(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	workflows := []*models.Workflow{
		{ID: "wf-due", Status: models.WorkflowStatusDelayed, ResumeAt: &past},
		{ID: "wf-exact", Status: models.WorkflowStatusDelayed, ResumeAt: &now},
		{ID: "wf-later", Status: models.WorkflowStatusDelayed, ResumeAt: &future},
		{ID: "wf-active", Status: models.WorkflowStatusActive},
	}

	for _, wf := range workflows {
		require.NoError(t, p.Workflows().Save(ctx, wf))
	}

	due, err := p.Workflows().ListDelayedBefore(ctx, now)
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, wf := range due {
		ids[wf.ID] = true
	}

	// The boundary is inclusive.
	assert.Len(t, due, 2)
	assert.True(t, ids["wf-due"])
	assert.True(t, ids["wf-exact"])
}

func TestAccountRepository_UsersAndGroups(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	user := &models.User{ID: "user-1", AccountID: "acct-1", Email: "one@example.com", Status: models.UserStatusActive}
	foreign := &models.User{ID: "user-9", AccountID: "acct-9", Email: "other@example.com", Status: models.UserStatusActive}
	group := &models.Group{ID: "group-1", AccountID: "acct-1", Name: "Team", UserIDs: []string{"user-1"}}

	require.NoError(t, p.Accounts().SaveUser(ctx, user))
	require.NoError(t, p.Accounts().SaveUser(ctx, foreign))
	require.NoError(t, p.Accounts().SaveGroup(ctx, group))

	loaded, err := p.Accounts().UserByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "one@example.com", loaded.Email)

	_, err = p.Accounts().UserByID(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrUserNotFound)

	users, err := p.Accounts().UsersByAccount(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "user-1", users[0].ID)

	groups, err := p.Accounts().GroupsByAccount(ctx, "acct-1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"user-1"}, groups[0].UserIDs)
}

func TestPersistence_HealthCheck(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	assert.NoError(t, p.HealthCheck(context.Background()))

	gone := file.NewPersistence("/nonexistent/flowline-test")
	assert.Error(t, gone.HealthCheck(context.Background()))
}
