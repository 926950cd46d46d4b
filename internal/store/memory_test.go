package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/crm-dashboard/internal/models"
)

func snapshot(records int) *models.Snapshot {
	return &models.Snapshot{
		LastUpdated: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Filter:      models.DateFilter{Preset: models.PresetWeek},
		Records:     records,
		Team:        []models.TeamMember{{ID: "u-1", Role: models.RoleSeller}},
	}
}

func TestStoreLifecycle(t *testing.T) {
	st := NewMemoryStore(false)
	assert.Equal(t, StatusLoading, st.State().Status)
	assert.False(t, st.Ready())
	assert.Equal(t, models.PresetMonth, st.Filter().Preset)

	gen := st.Begin()
	require.True(t, st.Save(gen, snapshot(3)))
	state := st.State()
	assert.Equal(t, StatusLive, state.Status)
	assert.Equal(t, 3, state.Snapshot.Records)
	assert.Equal(t, models.PresetWeek, st.Filter().Preset)
	assert.True(t, st.Ready())

	require.True(t, st.Fail(st.Begin(), errors.New("status 502")))
	state = st.State()
	assert.Equal(t, StatusError, state.Status)
	assert.Equal(t, "status 502", state.Error)
	require.NotNil(t, state.Snapshot)
	assert.Equal(t, 3, state.Snapshot.Records)
	assert.False(t, state.LastSuccess.IsZero())
}

func TestStoreLastWriteWins(t *testing.T) {
	st := NewMemoryStore(false)
	slow, fast := st.Begin(), st.Begin()
	require.True(t, st.Save(fast, snapshot(2)))
	require.True(t, st.Save(slow, snapshot(1)))
	assert.Equal(t, 1, st.Snapshot().Records)
}

func TestStoreDiscardsStaleCompletions(t *testing.T) {
	st := NewMemoryStore(true)
	slow, fast := st.Begin(), st.Begin()
	require.True(t, st.Save(fast, snapshot(2)))
	assert.False(t, st.Save(slow, snapshot(1)))
	assert.False(t, st.Fail(slow, errors.New("late")))
	assert.Equal(t, 2, st.Snapshot().Records)
	assert.Equal(t, StatusLive, st.State().Status)
	assert.Equal(t, fast, st.State().Generation)
}

func TestStoreRoleEdits(t *testing.T) {
	st := NewMemoryStore(false)
	assert.Error(t, st.SetRole("u-1", "Boss"))
	require.NoError(t, st.SetRole("u-1", models.RoleCloser))

	st.Save(st.Begin(), snapshot(1))
	require.NoError(t, st.SetRole("u-1", models.RoleSDRCloser))

	assert.Equal(t, models.RoleSDRCloser, st.Snapshot().Team[0].Role)
	roles := st.RoleOverrides()
	roles["u-2"] = models.RoleSDR
	assert.Len(t, st.RoleOverrides(), 1)
}

func TestStoreGoals(t *testing.T) {
	st := NewMemoryStore(false)
	_, ok := st.Goals()
	assert.False(t, ok)

	st.SetGoals(models.Goals{RevenueTarget: 10})
	g, ok := st.Goals()
	require.True(t, ok)
	assert.Equal(t, 10.0, g.RevenueTarget)
}
