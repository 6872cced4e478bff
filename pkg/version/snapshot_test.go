package version_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowlineio/flowline/pkg/models"
	"github.com/flowlineio/flowline/pkg/testutil"
	"github.com/flowlineio/flowline/pkg/version"
)

func TestSnapshot_NumbersTheNextVersion(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tpl := testutil.CreateTestTemplate([]*models.TaskTemplate{
		testutil.CreateTestTask("draft", 1),
	})
	tpl.Version = 3

	v, err := version.Snapshot(tpl, now)
	require.NoError(t, err)

	assert.Equal(t, tpl.ID, v.TemplateID)
	assert.Equal(t, 4, v.Version)
	assert.Equal(t, now, v.CreatedAt)
	assert.Equal(t, tpl.Name, v.Data.Name)
}

func TestSnapshot_SortsTasksByNumber(t *testing.T) {
	tpl := testutil.CreateTestTemplate([]*models.TaskTemplate{
		testutil.CreateTestTask("last", 3),
		testutil.CreateTestTask("first", 1),
		testutil.CreateTestTask("middle", 2),
	})

	v, err := version.Snapshot(tpl, time.Now().UTC())
	require.NoError(t, err)

	require.Len(t, v.Data.Tasks, 3)
	assert.Equal(t, "first", v.Data.Tasks[0].APIName)
	assert.Equal(t, "middle", v.Data.Tasks[1].APIName)
	assert.Equal(t, "last", v.Data.Tasks[2].APIName)
}

func TestSnapshot_IsDetachedFromTheTemplate(t *testing.T) {
	tpl := testutil.CreateTestTemplate([]*models.TaskTemplate{
		testutil.CreateTestTask("draft", 1),
	})

	v, err := version.Snapshot(tpl, time.Now().UTC())
	require.NoError(t, err)

	// Editing the template afterwards must not reach into the snapshot.
	tpl.Tasks[0].Name = "renamed"

	assert.NotEqual(t, "renamed", v.Data.Tasks[0].Name)
}
