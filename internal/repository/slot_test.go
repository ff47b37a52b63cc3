package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adventjoy/calendar-server-go/internal/database"
	"github.com/adventjoy/calendar-server-go/internal/model"
)

func seedSlots(t *testing.T, db *database.DB, calendarID string, unlockAts []time.Time) SlotRepository {
	t.Helper()

	repo := NewSlotRepository(db.DB)
	params := make([]model.CreateDaySlotParams, 0, len(unlockAts))
	for i, at := range unlockAts {
		params = append(params, model.CreateDaySlotParams{
			CalendarID:        calendarID,
			DayNumber:         i + 1,
			ScheduledUnlockAt: at,
		})
	}
	require.NoError(t, repo.CreateBatch(context.Background(), params))
	return repo
}

func TestSlotRepository_FindByCalendar(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, _, calendarID := seedCalendar(t, db)
	now := time.Now()
	repo := seedSlots(t, db, calendarID, []time.Time{
		now.Add(-48 * time.Hour), now.Add(-24 * time.Hour), now.Add(24 * time.Hour),
	})

	slots, err := repo.FindByCalendar(context.Background(), calendarID)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	for i, slot := range slots {
		assert.Equal(t, i+1, slot.DayNumber)
		assert.Nil(t, slot.OpenedAt)
	}
}

func TestSlotRepository_Open(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, _, calendarID := seedCalendar(t, db)
	now := time.Now()
	repo := seedSlots(t, db, calendarID, []time.Time{
		now.Add(-time.Hour), now.Add(time.Hour),
	})
	ctx := context.Background()

	t.Run("opens an unlocked slot once", func(t *testing.T) {
		opened, err := repo.Open(ctx, calendarID, 1, now)
		require.NoError(t, err)
		assert.True(t, opened)

		slot, err := repo.FindByCalendarAndDay(ctx, calendarID, 1)
		require.NoError(t, err)
		require.NotNil(t, slot.OpenedAt)
		firstOpenedAt := *slot.OpenedAt

		// Re-open must not win or move the recorded instant.
		opened, err = repo.Open(ctx, calendarID, 1, now.Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, opened)

		slot, err = repo.FindByCalendarAndDay(ctx, calendarID, 1)
		require.NoError(t, err)
		assert.True(t, slot.OpenedAt.Equal(firstOpenedAt))
	})

	t.Run("refuses a slot whose instant has not passed", func(t *testing.T) {
		opened, err := repo.Open(ctx, calendarID, 2, now)
		require.NoError(t, err)
		assert.False(t, opened)

		slot, err := repo.FindByCalendarAndDay(ctx, calendarID, 2)
		require.NoError(t, err)
		assert.Nil(t, slot.OpenedAt)
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		slot, err := repo.FindByCalendarAndDay(ctx, calendarID, 2)
		require.NoError(t, err)

		opened, err := repo.Open(ctx, calendarID, 2, slot.ScheduledUnlockAt)
		require.NoError(t, err)
		assert.True(t, opened)
	})

	t.Run("reports no change for an unknown day", func(t *testing.T) {
		opened, err := repo.Open(ctx, calendarID, 24, now)
		require.NoError(t, err)
		assert.False(t, opened)
	})
}

func TestSlotRepository_SetContent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, _, calendarID := seedCalendar(t, db)
	repo := seedSlots(t, db, calendarID, []time.Time{time.Now().Add(time.Hour)})
	ctx := context.Background()

	mediaURL := "https://cdn.example.com/photo.jpg"
	require.NoError(t, repo.SetContent(ctx, calendarID, 1, "surprise!", &mediaURL))

	slot, err := repo.FindByCalendarAndDay(ctx, calendarID, 1)
	require.NoError(t, err)
	assert.Equal(t, "surprise!", slot.Content)
	require.NotNil(t, slot.MediaURL)
	assert.Equal(t, mediaURL, *slot.MediaURL)
}

func TestSlotRepository_ForceUnlockAll(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, _, calendarID := seedCalendar(t, db)
	now := time.Now()
	repo := seedSlots(t, db, calendarID, []time.Time{
		now.Add(-time.Hour), now.Add(24 * time.Hour), now.Add(48 * time.Hour),
	})
	ctx := context.Background()

	count, err := repo.ForceUnlockAll(ctx, calendarID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	slots, err := repo.FindByCalendar(ctx, calendarID)
	require.NoError(t, err)
	for _, slot := range slots {
		assert.False(t, slot.ScheduledUnlockAt.After(now.Add(time.Second)), "day %d", slot.DayNumber)
	}
}
