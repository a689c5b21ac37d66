package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskProgress_CheckIn_DistinctDays(t *testing.T) {
	p := NewTaskProgress("usr-1", "task-1")
	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, p.CheckIn(day1, 3))
	// Same calendar day does not count twice.
	assert.False(t, p.CheckIn(day1.Add(6*time.Hour), 3))
	assert.Len(t, p.CheckinDays, 1)

	assert.True(t, p.CheckIn(day1.AddDate(0, 0, 1), 3))
	assert.False(t, p.IsCompleted())

	assert.True(t, p.CheckIn(day1.AddDate(0, 0, 2), 3))
	assert.True(t, p.IsCompleted())
	require.NotNil(t, p.CompletedAt)
	assert.Equal(t, TaskCompleted, p.Status)
}

func TestTaskProgress_CheckIn_AfterCompletion(t *testing.T) {
	p := NewTaskProgress("usr-1", "task-1")
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.True(t, p.CheckIn(day, 1))
	require.True(t, p.IsCompleted())

	assert.False(t, p.CheckIn(day.AddDate(0, 0, 1), 1))
	assert.Len(t, p.CheckinDays, 1)
}

func TestLevel_Rank(t *testing.T) {
	assert.Equal(t, 1, LevelBeginner.Rank())
	assert.Equal(t, 2, LevelIntermediate.Rank())
	assert.Equal(t, 3, LevelExpert.Rank())
	assert.Equal(t, 1, Level("").Rank()) // Unknown ranks as beginner

	assert.True(t, LevelExpert.AtLeast(LevelIntermediate))
	assert.False(t, LevelBeginner.AtLeast(LevelIntermediate))
}
