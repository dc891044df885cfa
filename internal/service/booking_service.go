package service

import (
	"context"
	"time"

	"pawbook/internal/domain"
	"pawbook/internal/events"
	"pawbook/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo         domain.Repository
	eventBus     domain.EventPublisher
	sheetsWorker domain.SyncWorker
	notifier     domain.Notifier
	logger       *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, sheetsWorker domain.SyncWorker, notifier domain.Notifier, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:         repo,
		eventBus:     eventBus,
		sheetsWorker: sheetsWorker,
		notifier:     notifier,
		logger:       logger,
	}
}

// usualTransitions — привычный порядок статусов. Всё остальное допустимо,
// но логируется как необычный переход.
var usualTransitions = map[string][]string{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusCompleted, models.StatusCancelled},
	models.StatusCompleted: {},
	models.StatusCancelled: {},
}

func usualTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range usualTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *BookingService) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return err
	}

	s.publishEvent(events.EventBookingCreated, *booking, "", "user")
	s.enqueueSync(ctx, *booking, "upsert")

	if s.notifier != nil {
		if err := s.notifier.NotifyBookingCreated(ctx, booking); err != nil {
			s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("booking notification error")
		}
	}

	return nil
}

// SetStatus writes the given status unconditionally: the stored record always
// becomes whatever the caller asked for, whatever the current status is.
// Transitions outside the usual order are only logged.
func (s *BookingService) SetStatus(ctx context.Context, bookingID, status, changedBy string) error {
	current, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	oldStatus := current.Status

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, status); err != nil {
		return err
	}

	if !usualTransition(oldStatus, status) {
		s.logger.Warn().
			Str("booking_id", bookingID).
			Str("from", oldStatus).
			Str("to", status).
			Msg("unusual booking status transition")
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err == nil {
		s.publishEvent(events.EventBookingStatusChanged, *booking, oldStatus, changedBy)
		s.enqueueSync(ctx, *booking, "update_status")
		if s.notifier != nil && oldStatus != status {
			if err := s.notifier.NotifyBookingStatusChanged(ctx, booking, oldStatus); err != nil {
				s.logger.Error().Err(err).Str("booking_id", bookingID).Msg("status notification error")
			}
		}
	}

	return nil
}

func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, managerID string) error {
	return s.SetStatus(ctx, bookingID, models.StatusConfirmed, managerID)
}

func (s *BookingService) CompleteBooking(ctx context.Context, bookingID, managerID string) error {
	return s.SetStatus(ctx, bookingID, models.StatusCompleted, managerID)
}

func (s *BookingService) CancelBooking(ctx context.Context, bookingID, cancelledBy string) error {
	return s.SetStatus(ctx, bookingID, models.StatusCancelled, cancelledBy)
}

func (s *BookingService) UpdateNotes(ctx context.Context, bookingID, notes string) error {
	if err := s.repo.UpdateBookingNotes(ctx, bookingID, notes); err != nil {
		return err
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err == nil {
		s.enqueueSync(ctx, *booking, "upsert")
	}
	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) GetBookingsByClinic(ctx context.Context, clinicName string) ([]models.Booking, error) {
	return s.repo.GetBookingsByClinic(ctx, clinicName)
}

func (s *BookingService) GetBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.repo.GetBookingsByUser(ctx, userID)
}

func (s *BookingService) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	return s.repo.GetBookingsByDateRange(ctx, start, end)
}

func (s *BookingService) GetDailyBookings(ctx context.Context, start, end time.Time) (map[string][]models.Booking, error) {
	return s.repo.GetDailyBookings(ctx, start, end)
}

func (s *BookingService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountBookingsByStatus(ctx)
}

func (s *BookingService) publishEvent(eventType string, booking models.Booking, oldStatus, changedBy string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:  booking.ID,
		ClinicName: booking.ClinicName,
		UserID:     booking.UserID,
		Service:    booking.Service,
		Date:       booking.Date,
		Time:       booking.Time,
		Status:     booking.Status,
		OldStatus:  oldStatus,
		Notes:      booking.Notes,
		ChangedBy:  changedBy,
		ChangedAt:  time.Now(),
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, booking models.Booking, taskType string) {
	if s.sheetsWorker == nil {
		return
	}

	var status string
	if taskType == "update_status" {
		status = booking.Status
	}

	if err := s.sheetsWorker.EnqueueTask(ctx, taskType, booking.ID, &booking, status); err != nil {
		s.logger.Error().Err(err).Str("booking_id", booking.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
