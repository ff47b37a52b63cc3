package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/adventjoy/calendar-server-go/internal/errors"
	"github.com/adventjoy/calendar-server-go/internal/model"
	"github.com/adventjoy/calendar-server-go/internal/repository"
	"github.com/adventjoy/calendar-server-go/internal/util"
)

// ScheduledUnlockAt computes the unlock instant for a day slot: local
// midnight of startDate + (day-1) days in the calendar's timezone. Not
// UTC midnight; the recipient's wall clock decides when a door opens.
func ScheduledUnlockAt(startDate time.Time, day int, loc *time.Location) time.Time {
	y, m, d := startDate.Year(), startDate.Month(), startDate.Day()
	return time.Date(y, m, d+day-1, 0, 0, 0, 0, loc)
}

// DayState is one day's openability as exposed to the recipient UI.
type DayState struct {
	DayNumber  int        `json:"dayNumber"`
	Openable   bool       `json:"openable"`
	Opened     bool       `json:"opened"`
	UnlockDate string     `json:"unlockDate"`
	OpenedAt   *time.Time `json:"openedAt,omitempty"`
}

// OpenResult is the outcome of a successful day open.
type OpenResult struct {
	Opened    bool    `json:"opened"`
	FirstTime bool    `json:"firstTime"`
	Content   string  `json:"content"`
	MediaURL  *string `json:"mediaUrl,omitempty"`
}

// UnlockService enforces the temporal unlock schedule over day slots.
type UnlockService struct {
	slotRepo      repository.SlotRepository
	calendarRepo  repository.CalendarRepository
	defaultTZ     string
	encryptionKey string
	now           func() time.Time
}

func NewUnlockService(
	slotRepo repository.SlotRepository,
	calendarRepo repository.CalendarRepository,
	defaultTZ, encryptionKey string,
) *UnlockService {
	return &UnlockService{
		slotRepo:      slotRepo,
		calendarRepo:  calendarRepo,
		defaultTZ:     defaultTZ,
		encryptionKey: encryptionKey,
		now:           time.Now,
	}
}

// CanOpen reports whether a slot may be opened now. The boundary
// instant is inclusive.
func (s *UnlockService) CanOpen(slot *model.DaySlot, now time.Time) bool {
	return slot.IsOpenable(now)
}

// ListDays returns the unlock state of all 24 slots. Only the unlock
// date (not the exact instant) is exposed for days still locked.
func (s *UnlockService) ListDays(ctx context.Context, calendarID string) ([]DayState, error) {
	slots, err := s.slotRepo.FindByCalendar(ctx, calendarID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	now := s.now()
	states := make([]DayState, 0, len(slots))
	for _, slot := range slots {
		states = append(states, DayState{
			DayNumber:  slot.DayNumber,
			Openable:   slot.IsOpenable(now),
			Opened:     slot.IsOpened(),
			UnlockDate: slot.ScheduledUnlockAt.Format("2006-01-02"),
			OpenedAt:   slot.OpenedAt,
		})
	}
	return states, nil
}

// TryOpen opens a day slot. Idempotent: re-opening an already-opened
// slot succeeds with FirstTime=false and does not mutate. A slot whose
// scheduled instant has not passed fails with Locked, distinct from
// NotFound. The first write wins via the store's conditional update.
func (s *UnlockService) TryOpen(ctx context.Context, calendarID string, day int) (*OpenResult, error) {
	slot, err := s.slotRepo.FindByCalendarAndDay(ctx, calendarID, day)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if slot == nil {
		return nil, apperrors.NotFound("Day")
	}

	now := s.now()

	if slot.IsOpened() {
		return s.result(slot, false)
	}

	if !s.CanOpen(slot, now) {
		return nil, apperrors.Locked()
	}

	firstTime, err := s.slotRepo.Open(ctx, calendarID, day, now)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	if firstTime {
		log.Info().
			Str("calendarId", calendarID).
			Int("day", day).
			Msg("day slot opened")
	}

	return s.result(slot, firstTime)
}

func (s *UnlockService) result(slot *model.DaySlot, firstTime bool) (*OpenResult, error) {
	content, err := s.decryptContent(slot.Content)
	if err != nil {
		return nil, apperrors.Internal("Failed to read day content").WithCause(err)
	}
	return &OpenResult{
		Opened:    true,
		FirstTime: firstTime,
		Content:   content,
		MediaURL:  slot.MediaURL,
	}, nil
}

// SetDayContentForBuyer stores a day's content after checking that the
// calendar belongs to the buyer. Content is encrypted at rest when an
// encryption key is configured.
func (s *UnlockService) SetDayContentForBuyer(ctx context.Context, buyerID, calendarID string, day int, content string, mediaURL *string) error {
	cal, err := s.calendarRepo.FindByID(ctx, calendarID)
	if err != nil {
		return apperrors.Database(err)
	}
	if cal == nil {
		return apperrors.NotFound("Calendar")
	}
	if cal.BuyerID != buyerID {
		return apperrors.Forbidden("Calendar belongs to another buyer")
	}

	slot, err := s.slotRepo.FindByCalendarAndDay(ctx, calendarID, day)
	if err != nil {
		return apperrors.Database(err)
	}
	if slot == nil {
		return apperrors.NotFound("Day")
	}

	stored := content
	if s.encryptionKey != "" {
		stored, err = util.Encrypt(s.encryptionKey, content)
		if err != nil {
			return apperrors.Internal("Failed to encrypt day content").WithCause(err)
		}
	}

	if err := s.slotRepo.SetContent(ctx, calendarID, day, stored, mediaURL); err != nil {
		return apperrors.Database(err)
	}
	return nil
}

// ForceUnlockAll makes every remaining slot openable immediately. This
// is a separately-authorized administrative operation; the normal open
// path cannot reach it.
func (s *UnlockService) ForceUnlockAll(ctx context.Context, calendarID string) (int64, error) {
	cal, err := s.calendarRepo.FindByID(ctx, calendarID)
	if err != nil {
		return 0, apperrors.Database(err)
	}
	if cal == nil {
		return 0, apperrors.NotFound("Calendar")
	}

	count, err := s.slotRepo.ForceUnlockAll(ctx, calendarID, s.now())
	if err != nil {
		return 0, apperrors.Database(err)
	}

	log.Warn().
		Str("calendarId", calendarID).
		Int64("slots", count).
		Msg("all slots force-unlocked")

	return count, nil
}

func (s *UnlockService) decryptContent(stored string) (string, error) {
	if s.encryptionKey == "" || stored == "" {
		return stored, nil
	}
	return util.Decrypt(s.encryptionKey, stored)
}
