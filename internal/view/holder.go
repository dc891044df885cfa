package view

import (
	"sync"

	"pawbook/internal/listing"
	"pawbook/internal/models"
	"pawbook/internal/store"
)

// ClinicListState is what the clinic list screen renders. Loading is true
// from construction until the first snapshot lands. After a failed refresh
// Err is set and Clinics keeps the last successfully loaded list.
type ClinicListState struct {
	Loading bool
	Err     error
	Clinics []models.Clinic
}

// ClinicListHolder consumes a clinic watch channel on its own goroutine and
// exposes the latest state to any number of readers.
type ClinicListHolder struct {
	mu     sync.RWMutex
	state  ClinicListState
	cancel store.CancelFunc
	done   chan struct{}
}

func NewClinicListHolder(ch <-chan store.ClinicSnapshot, cancel store.CancelFunc) *ClinicListHolder {
	h := &ClinicListHolder{
		state:  ClinicListState{Loading: true},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go h.consume(ch)
	return h
}

func (h *ClinicListHolder) consume(ch <-chan store.ClinicSnapshot) {
	defer close(h.done)
	for snap := range ch {
		h.mu.Lock()
		h.state.Loading = false
		if snap.Err != nil {
			h.state.Err = snap.Err
		} else {
			h.state.Err = nil
			h.state.Clinics = snap.Clinics
		}
		h.mu.Unlock()
	}
}

// State returns a copy; the slice header is shared but snapshots are never
// mutated after delivery.
func (h *ClinicListHolder) State() ClinicListState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Filtered applies the listing options to the current clinic list.
func (h *ClinicListHolder) Filtered(opts listing.Options) []models.Clinic {
	return listing.Filter(h.State().Clinics, opts)
}

// Close cancels the watch and waits for the consume loop to drain.
func (h *ClinicListHolder) Close() {
	h.cancel()
	<-h.done
}

// BookingListState backs both the per-clinic and the per-user booking
// screens; the two differ only in which watch feeds them.
type BookingListState struct {
	Loading  bool
	Err      error
	Bookings []models.Booking
}

type BookingListHolder struct {
	mu     sync.RWMutex
	state  BookingListState
	cancel store.CancelFunc
	done   chan struct{}
}

func NewBookingListHolder(ch <-chan store.BookingSnapshot, cancel store.CancelFunc) *BookingListHolder {
	h := &BookingListHolder{
		state:  BookingListState{Loading: true},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go h.consume(ch)
	return h
}

func (h *BookingListHolder) consume(ch <-chan store.BookingSnapshot) {
	defer close(h.done)
	for snap := range ch {
		h.mu.Lock()
		h.state.Loading = false
		if snap.Err != nil {
			h.state.Err = snap.Err
		} else {
			h.state.Err = nil
			h.state.Bookings = snap.Bookings
		}
		h.mu.Unlock()
	}
}

func (h *BookingListHolder) State() BookingListState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// WithStatus returns the current bookings narrowed to one status.
func (h *BookingListHolder) WithStatus(status string) []models.Booking {
	state := h.State()
	out := make([]models.Booking, 0, len(state.Bookings))
	for _, b := range state.Bookings {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out
}

func (h *BookingListHolder) Close() {
	h.cancel()
	<-h.done
}
