package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/adventjoy/calendar-server-go/internal/model"
)

// SlotRepository handles day slot operations. Opening a slot is a
// single atomic conditional update, never a read-then-write pair, so
// the store serializes concurrent open attempts.
type SlotRepository interface {
	CreateBatch(ctx context.Context, slots []model.CreateDaySlotParams) error
	FindByCalendar(ctx context.Context, calendarID string) ([]model.DaySlot, error)
	FindByCalendarAndDay(ctx context.Context, calendarID string, day int) (*model.DaySlot, error)
	Open(ctx context.Context, calendarID string, day int, now time.Time) (bool, error)
	SetContent(ctx context.Context, calendarID string, day int, content string, mediaURL *string) error
	ForceUnlockAll(ctx context.Context, calendarID string, now time.Time) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SlotRepository
}

type slotRepo struct {
	db DB
}

// NewSlotRepository creates a new slot repository
func NewSlotRepository(db *sqlx.DB) SlotRepository {
	return &slotRepo{db: db}
}

func (r *slotRepo) WithTx(tx *sqlx.Tx) SlotRepository {
	return &slotRepo{db: tx}
}

func (r *slotRepo) CreateBatch(ctx context.Context, slots []model.CreateDaySlotParams) error {
	for _, s := range slots {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO day_slots (calendar_id, day_number, scheduled_unlock_at, content, media_url)
			VALUES ($1, $2, $3, $4, $5)
		`, s.CalendarID, s.DayNumber, s.ScheduledUnlockAt, s.Content, s.MediaURL)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *slotRepo) FindByCalendar(ctx context.Context, calendarID string) ([]model.DaySlot, error) {
	var slots []model.DaySlot
	err := r.db.SelectContext(ctx, &slots, `
		SELECT * FROM day_slots
		WHERE calendar_id = $1
		ORDER BY day_number
	`, calendarID)
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *slotRepo) FindByCalendarAndDay(ctx context.Context, calendarID string, day int) (*model.DaySlot, error) {
	var slot model.DaySlot
	err := r.db.GetContext(ctx, &slot, `
		SELECT * FROM day_slots
		WHERE calendar_id = $1 AND day_number = $2
	`, calendarID, day)
	return HandleNotFound(&slot, err)
}

// Open sets opened_at if and only if the slot is still unopened and its
// scheduled instant has passed; the boundary is inclusive. Returns true
// when this call performed the first open. Two concurrent calls cannot
// both see true: the WHERE clause lets exactly one row update win.
func (r *slotRepo) Open(ctx context.Context, calendarID string, day int, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE day_slots
		SET opened_at = $3
		WHERE calendar_id = $1 AND day_number = $2
		AND opened_at IS NULL
		AND scheduled_unlock_at <= $3
	`, calendarID, day, now)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *slotRepo) SetContent(ctx context.Context, calendarID string, day int, content string, mediaURL *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE day_slots
		SET content = $3, media_url = $4
		WHERE calendar_id = $1 AND day_number = $2
	`, calendarID, day, content, mediaURL)
	return err
}

// ForceUnlockAll pulls every future unlock instant back to now. Admin
// only; not reachable from the normal open path.
func (r *slotRepo) ForceUnlockAll(ctx context.Context, calendarID string, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE day_slots
		SET scheduled_unlock_at = $2
		WHERE calendar_id = $1 AND scheduled_unlock_at > $2
	`, calendarID, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
