package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/12305/devTinder-Frontend/internal/models"
)

func TestRowsInsertsDaySeparators(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	msgs := []models.Message{
		{ID: "m3", Content: "older", CreatedAt: now.Add(-24 * time.Hour)},       // yesterday
		{ID: "m1", Content: "first today", CreatedAt: now.Add(-2 * time.Hour)},  // today
		{ID: "m2", Content: "second today", CreatedAt: now.Add(-1 * time.Hour)}, // today, later
	}

	rows := Rows(msgs, now)
	require.Len(t, rows, 5)
	assert.Equal(t, "Yesterday", rows[0].Separator)
	assert.Equal(t, "m3", rows[1].Message.ID)
	assert.Equal(t, "Today", rows[2].Separator)
	assert.Equal(t, "m1", rows[3].Message.ID)
	assert.Empty(t, rows[4].Separator) // no separator between same-day messages
	assert.Equal(t, "m2", rows[4].Message.ID)
}

func TestRowsLabelsOlderDaysWithDate(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	msgs := []models.Message{
		{ID: "m1", CreatedAt: time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC)},
	}

	rows := Rows(msgs, now)
	require.Len(t, rows, 2)
	assert.Equal(t, "April 30, 2024", rows[0].Separator)
}

func TestRowsEmptyTimeline(t *testing.T) {
	assert.Empty(t, Rows(nil, time.Now()))
}

func TestTimelineLoadSortsAscending(t *testing.T) {
	base := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	tl := newTimeline()
	tl.load([]models.Message{
		{ID: "m2", CreatedAt: base.Add(time.Minute)},
		{ID: "m1", CreatedAt: base},
	})

	msgs := tl.snapshot()
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m2", msgs[1].ID)
}

func TestTimelineDedupesByServerID(t *testing.T) {
	tl := newTimeline()
	tl.load([]models.Message{{ID: "m1", Content: "hi"}})

	// The same message replayed live lands exactly once.
	assert.False(t, tl.append(models.Message{ID: "m1", Content: "hi"}))
	assert.True(t, tl.append(models.Message{ID: "m2", Content: "new"}))
	assert.False(t, tl.append(models.Message{ID: "m2", Content: "new"}))
	assert.Len(t, tl.snapshot(), 2)

	// Messages without a server id cannot be deduplicated; they append.
	assert.True(t, tl.append(models.Message{Content: "no id"}))
	assert.True(t, tl.append(models.Message{Content: "no id"}))
}
