package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/adventjoy/calendar-server-go/internal/model"
)

// CalendarRepository handles calendar data operations
type CalendarRepository interface {
	Create(ctx context.Context, params model.CreateCalendarParams) (*model.Calendar, error)
	FindByID(ctx context.Context, id string) (*model.Calendar, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) CalendarRepository
}

type calendarRepo struct {
	db DB
}

// NewCalendarRepository creates a new calendar repository
func NewCalendarRepository(db *sqlx.DB) CalendarRepository {
	return &calendarRepo{db: db}
}

func (r *calendarRepo) WithTx(tx *sqlx.Tx) CalendarRepository {
	return &calendarRepo{db: tx}
}

func (r *calendarRepo) Create(ctx context.Context, params model.CreateCalendarParams) (*model.Calendar, error) {
	var cal model.Calendar
	err := r.db.GetContext(ctx, &cal, `
		INSERT INTO calendars (id, buyer_id, recipient_id, title, start_date, timezone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.ID, params.BuyerID, params.RecipientID, params.Title, params.StartDate, params.Timezone)
	if err != nil {
		return nil, err
	}
	return &cal, nil
}

func (r *calendarRepo) FindByID(ctx context.Context, id string) (*model.Calendar, error) {
	var cal model.Calendar
	err := r.db.GetContext(ctx, &cal, `
		SELECT * FROM calendars WHERE id = $1
	`, id)
	return HandleNotFound(&cal, err)
}
