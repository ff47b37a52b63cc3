package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/adventjoy/calendar-server-go/internal/database"
	"github.com/adventjoy/calendar-server-go/internal/model"
	"github.com/adventjoy/calendar-server-go/internal/repository"
)

// Mock repositories

type mockBuyerRepo struct {
	mock.Mock
}

func (m *mockBuyerRepo) Create(ctx context.Context, params model.CreateBuyerParams) (*model.Buyer, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Buyer), args.Error(1)
}

func (m *mockBuyerRepo) FindByID(ctx context.Context, id string) (*model.Buyer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Buyer), args.Error(1)
}

func (m *mockBuyerRepo) FindByEmail(ctx context.Context, email string) (*model.Buyer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Buyer), args.Error(1)
}

func (m *mockBuyerRepo) ConsumeLoginToken(ctx context.Context, digest string) (*model.Buyer, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Buyer), args.Error(1)
}

// fakeTransactor runs the transaction function directly; the mock
// repositories ignore the tx handle.
type fakeTransactor struct{}

func (fakeTransactor) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type mockRecipientRepo struct {
	mock.Mock
}

func (m *mockRecipientRepo) Create(ctx context.Context, params model.CreateRecipientParams) (*model.Recipient, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipient), args.Error(1)
}

func (m *mockRecipientRepo) FindByID(ctx context.Context, id string) (*model.Recipient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipient), args.Error(1)
}

func (m *mockRecipientRepo) WithTx(tx *sqlx.Tx) repository.RecipientRepository {
	return m
}

type mockCalendarRepo struct {
	mock.Mock
}

func (m *mockCalendarRepo) Create(ctx context.Context, params model.CreateCalendarParams) (*model.Calendar, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Calendar), args.Error(1)
}

func (m *mockCalendarRepo) FindByID(ctx context.Context, id string) (*model.Calendar, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Calendar), args.Error(1)
}

func (m *mockCalendarRepo) WithTx(tx *sqlx.Tx) repository.CalendarRepository {
	return m
}

type mockAccessRepo struct {
	mock.Mock
}

func (m *mockAccessRepo) Create(ctx context.Context, params model.CreateCalendarAccessParams) (*model.CalendarAccess, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CalendarAccess), args.Error(1)
}

func (m *mockAccessRepo) FindByID(ctx context.Context, id string) (*model.CalendarAccess, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CalendarAccess), args.Error(1)
}

func (m *mockAccessRepo) FindByTokenDigest(ctx context.Context, digest string) (*model.CalendarAccess, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CalendarAccess), args.Error(1)
}

func (m *mockAccessRepo) FindActiveByBuyerID(ctx context.Context, buyerID string) (*model.CalendarAccess, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CalendarAccess), args.Error(1)
}

func (m *mockAccessRepo) List(ctx context.Context, limit, offset int) ([]model.CalendarAccess, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CalendarAccess), args.Error(1)
}

func (m *mockAccessRepo) Revoke(ctx context.Context, id string, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccessRepo) MarkExpired(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAccessRepo) ExpireStale(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAccessRepo) WithTx(tx *sqlx.Tx) repository.AccessRepository {
	return m
}

type mockSlotRepo struct {
	mock.Mock
}

func (m *mockSlotRepo) CreateBatch(ctx context.Context, slots []model.CreateDaySlotParams) error {
	args := m.Called(ctx, slots)
	return args.Error(0)
}

func (m *mockSlotRepo) FindByCalendar(ctx context.Context, calendarID string) ([]model.DaySlot, error) {
	args := m.Called(ctx, calendarID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DaySlot), args.Error(1)
}

func (m *mockSlotRepo) FindByCalendarAndDay(ctx context.Context, calendarID string, day int) (*model.DaySlot, error) {
	args := m.Called(ctx, calendarID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DaySlot), args.Error(1)
}

func (m *mockSlotRepo) Open(ctx context.Context, calendarID string, day int, now time.Time) (bool, error) {
	args := m.Called(ctx, calendarID, day, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockSlotRepo) SetContent(ctx context.Context, calendarID string, day int, content string, mediaURL *string) error {
	args := m.Called(ctx, calendarID, day, content, mediaURL)
	return args.Error(0)
}

func (m *mockSlotRepo) ForceUnlockAll(ctx context.Context, calendarID string, now time.Time) (int64, error) {
	args := m.Called(ctx, calendarID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSlotRepo) WithTx(tx *sqlx.Tx) repository.SlotRepository {
	return m
}
