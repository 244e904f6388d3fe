package summary

import (
	"testing"
	"time"

	"devtime/agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(entity models.Entity, start time.Time, seconds int64) models.SummaryItem {
	return models.SummaryItem{
		Entity:   entity,
		StartAt:  start,
		EndAt:    start.Add(time.Duration(seconds) * time.Second),
		Duration: seconds,
	}
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil, 0))
}

func TestMerge_SameEntityWithinGrace(t *testing.T) {
	task := models.Entity{Type: models.EntityTask, ID: 42, Code: "TSK-2"}
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	merged := Merge([]models.SummaryItem{
		item(task, base, 300),
		// starts 2 minutes after the first one ends
		item(task, base.Add(7*time.Minute), 300),
	}, 5*time.Minute)

	require.Len(t, merged, 1)
	assert.Equal(t, base, merged[0].StartAt)
	assert.Equal(t, base.Add(12*time.Minute), merged[0].EndAt)
	// durations sum; the 2-minute gap is not counted as work
	assert.Equal(t, int64(600), merged[0].Duration)
}

func TestMerge_GapBeyondGraceSplits(t *testing.T) {
	task := models.Entity{Type: models.EntityTask, ID: 42, Code: "TSK-2"}
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	merged := Merge([]models.SummaryItem{
		item(task, base, 300),
		item(task, base.Add(11*time.Minute), 300),
	}, 5*time.Minute)

	require.Len(t, merged, 2)
}

func TestMerge_GapExactlyGraceMerges(t *testing.T) {
	task := models.Entity{Type: models.EntityTask, ID: 42, Code: "TSK-2"}
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	merged := Merge([]models.SummaryItem{
		item(task, base, 300),
		item(task, base.Add(10*time.Minute), 300),
	}, 5*time.Minute)

	require.Len(t, merged, 1)
}

func TestMerge_DifferentEntityStaysSplit(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	merged := Merge([]models.SummaryItem{
		item(models.Entity{Type: models.EntityTask, ID: 42}, base, 300),
		item(models.Entity{Type: models.EntityTicket, ID: 7}, base.Add(5*time.Minute), 300),
		item(models.Entity{Type: models.EntityTask, ID: 42}, base.Add(10*time.Minute), 300),
	}, 5*time.Minute)

	// adjacency is to the immediate predecessor only
	require.Len(t, merged, 3)
}

func TestMerge_IdentitylessNeverMerges(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for _, typ := range []models.EntityType{models.EntityLearning, models.EntityOther} {
		merged := Merge([]models.SummaryItem{
			item(models.Entity{Type: typ}, base, 300),
			item(models.Entity{Type: typ}, base.Add(6*time.Minute), 300),
		}, 5*time.Minute)
		assert.Len(t, merged, 2)
	}
}

func TestContinues(t *testing.T) {
	task := models.Entity{Type: models.EntityTask, ID: 42}
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	prev := models.SavedSummary{
		SummaryItem: item(task, base, 300),
		WorklogID:   11,
	}

	assert.True(t, Continues(prev, item(task, base.Add(8*time.Minute), 60), 5*time.Minute))
	assert.False(t, Continues(prev, item(task, base.Add(11*time.Minute), 60), 5*time.Minute))
	assert.False(t, Continues(prev, item(models.Entity{Type: models.EntityTask, ID: 99}, base.Add(8*time.Minute), 60), 5*time.Minute))
	assert.False(t, Continues(prev, item(models.Entity{Type: models.EntityOther}, base.Add(6*time.Minute), 60), 5*time.Minute))
}
