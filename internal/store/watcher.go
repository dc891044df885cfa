package store

import (
	"context"
	"encoding/json"
	"sync"

	"pawbook/internal/domain"
	"pawbook/internal/events"
	"pawbook/internal/models"

	"github.com/rs/zerolog"
)

// ClinicSnapshot is one delivery on a clinic watch channel. Err is set when
// the refresh query failed; the consumer keeps its last good data.
type ClinicSnapshot struct {
	Clinics []models.Clinic
	Err     error
}

// BookingSnapshot is one delivery on a booking watch channel.
type BookingSnapshot struct {
	Bookings []models.Booking
	Err      error
}

// CancelFunc tears down a watch and closes its channel.
type CancelFunc func()

// Watcher turns domain events into fresh query snapshots. Each watch gets a
// buffered channel of size 1: if the consumer is slow, the stale pending
// snapshot is replaced with the latest one instead of blocking publishers.
type Watcher struct {
	repo   domain.Repository
	logger *zerolog.Logger

	mu             sync.Mutex
	nextID         int
	clinicWatches  map[int]chan ClinicSnapshot
	bookingWatches map[int]*bookingWatch
}

type bookingWatch struct {
	ch chan BookingSnapshot
	// Exactly one of these is set.
	clinicName string
	userID     string
}

func NewWatcher(repo domain.Repository, bus *events.EventBus, logger *zerolog.Logger) *Watcher {
	w := &Watcher{
		repo:           repo,
		logger:         logger,
		clinicWatches:  make(map[int]chan ClinicSnapshot),
		bookingWatches: make(map[int]*bookingWatch),
	}

	if bus != nil {
		clinicRefresh := func(_ *events.Event) error {
			w.refreshClinics(context.Background())
			return nil
		}
		bus.Subscribe(events.EventClinicCreated, clinicRefresh)
		bus.Subscribe(events.EventClinicUpdated, clinicRefresh)

		bookingRefresh := func(event *events.Event) error {
			w.refreshBookings(context.Background(), event)
			return nil
		}
		bus.Subscribe(events.EventBookingCreated, bookingRefresh)
		bus.Subscribe(events.EventBookingStatusChanged, bookingRefresh)
	}

	return w
}

// WatchClinics delivers the current clinic list immediately and again after
// every clinic change.
func (w *Watcher) WatchClinics(ctx context.Context) (<-chan ClinicSnapshot, CancelFunc) {
	ch := make(chan ClinicSnapshot, 1)

	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.clinicWatches[id] = ch
	w.mu.Unlock()

	clinics, err := w.repo.GetClinics(ctx)
	w.mu.Lock()
	if _, ok := w.clinicWatches[id]; ok {
		sendClinic(ch, ClinicSnapshot{Clinics: clinics, Err: err})
	}
	w.mu.Unlock()

	return ch, func() { w.cancelClinicWatch(id) }
}

// WatchClinicBookings follows the booking list of a single clinic.
func (w *Watcher) WatchClinicBookings(ctx context.Context, clinicName string) (<-chan BookingSnapshot, CancelFunc) {
	return w.watchBookings(ctx, &bookingWatch{clinicName: clinicName})
}

// WatchUserBookings follows all bookings made by a single user.
func (w *Watcher) WatchUserBookings(ctx context.Context, userID string) (<-chan BookingSnapshot, CancelFunc) {
	return w.watchBookings(ctx, &bookingWatch{userID: userID})
}

func (w *Watcher) watchBookings(ctx context.Context, watch *bookingWatch) (<-chan BookingSnapshot, CancelFunc) {
	watch.ch = make(chan BookingSnapshot, 1)

	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.bookingWatches[id] = watch
	w.mu.Unlock()

	bookings, err := w.queryBookings(ctx, watch)
	w.mu.Lock()
	if _, ok := w.bookingWatches[id]; ok {
		sendBooking(watch.ch, BookingSnapshot{Bookings: bookings, Err: err})
	}
	w.mu.Unlock()

	return watch.ch, func() { w.cancelBookingWatch(id) }
}

func (w *Watcher) queryBookings(ctx context.Context, watch *bookingWatch) ([]models.Booking, error) {
	if watch.clinicName != "" {
		return w.repo.GetBookingsByClinic(ctx, watch.clinicName)
	}
	return w.repo.GetBookingsByUser(ctx, watch.userID)
}

func (w *Watcher) refreshClinics(ctx context.Context) {
	w.mu.Lock()
	if len(w.clinicWatches) == 0 {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	clinics, err := w.repo.GetClinics(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to refresh clinics for watchers")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.clinicWatches {
		sendClinic(ch, ClinicSnapshot{Clinics: clinics, Err: err})
	}
}

func (w *Watcher) refreshBookings(ctx context.Context, event *events.Event) {
	var payload events.BookingEventPayload
	known := event != nil && json.Unmarshal(event.Payload, &payload) == nil

	w.mu.Lock()
	targets := make(map[int]*bookingWatch, len(w.bookingWatches))
	for id, watch := range w.bookingWatches {
		// Without a parseable payload refresh every booking watch.
		if known && payload.ClinicName != "" && watch.clinicName != "" && watch.clinicName != payload.ClinicName {
			continue
		}
		if known && payload.UserID != "" && watch.userID != "" && watch.userID != payload.UserID {
			continue
		}
		targets[id] = watch
	}
	w.mu.Unlock()

	for id, watch := range targets {
		bookings, err := w.queryBookings(ctx, watch)
		if err != nil {
			w.logger.Error().Err(err).Str("clinic", watch.clinicName).Str("user", watch.userID).
				Msg("Failed to refresh bookings for watcher")
		}

		w.mu.Lock()
		if _, ok := w.bookingWatches[id]; ok {
			sendBooking(watch.ch, BookingSnapshot{Bookings: bookings, Err: err})
		}
		w.mu.Unlock()
	}
}

func (w *Watcher) cancelClinicWatch(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ch, ok := w.clinicWatches[id]; ok {
		delete(w.clinicWatches, id)
		close(ch)
	}
}

func (w *Watcher) cancelBookingWatch(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if watch, ok := w.bookingWatches[id]; ok {
		delete(w.bookingWatches, id)
		close(watch.ch)
	}
}

// sendClinic replaces a stale undelivered snapshot with the latest one.
func sendClinic(ch chan ClinicSnapshot, snap ClinicSnapshot) {
	select {
	case ch <- snap:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func sendBooking(ch chan BookingSnapshot, snap BookingSnapshot) {
	select {
	case ch <- snap:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
