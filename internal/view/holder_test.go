package view

import (
	"errors"
	"testing"
	"time"

	"pawbook/internal/listing"
	"pawbook/internal/models"
	"pawbook/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestClinicListHolderLoadsThenRenders(t *testing.T) {
	ch := make(chan store.ClinicSnapshot, 1)
	h := NewClinicListHolder(ch, func() { close(ch) })
	defer h.Close()

	assert.True(t, h.State().Loading)

	ch <- store.ClinicSnapshot{Clinics: []models.Clinic{{Name: "Cat Clinic", Rating: 4.8}}}
	waitFor(t, func() bool { return !h.State().Loading })

	state := h.State()
	require.NoError(t, state.Err)
	require.Len(t, state.Clinics, 1)
	assert.Equal(t, "Cat Clinic", state.Clinics[0].Name)
}

func TestClinicListHolderKeepsLastGoodOnError(t *testing.T) {
	ch := make(chan store.ClinicSnapshot, 1)
	h := NewClinicListHolder(ch, func() { close(ch) })
	defer h.Close()

	ch <- store.ClinicSnapshot{Clinics: []models.Clinic{{Name: "Paws Vet", Rating: 4.7}}}
	waitFor(t, func() bool { return len(h.State().Clinics) == 1 })

	ch <- store.ClinicSnapshot{Err: errors.New("store unavailable")}
	waitFor(t, func() bool { return h.State().Err != nil })

	state := h.State()
	assert.False(t, state.Loading)
	assert.EqualError(t, state.Err, "store unavailable")
	require.Len(t, state.Clinics, 1, "last good list must survive the error")
	assert.Equal(t, "Paws Vet", state.Clinics[0].Name)

	// Next good snapshot clears the error and replaces the list.
	ch <- store.ClinicSnapshot{Clinics: []models.Clinic{{Name: "Paws Vet"}, {Name: "Happy Tail"}}}
	waitFor(t, func() bool { return len(h.State().Clinics) == 2 })
	assert.NoError(t, h.State().Err)
}

func TestClinicListHolderFiltered(t *testing.T) {
	ch := make(chan store.ClinicSnapshot, 1)
	h := NewClinicListHolder(ch, func() { close(ch) })
	defer h.Close()

	ch <- store.ClinicSnapshot{Clinics: []models.Clinic{
		{Name: "Animal Clinic", Rating: 4.2, Location: "Cairo"},
		{Name: "Paws Vet", Rating: 4.7, Location: "Giza"},
	}}
	waitFor(t, func() bool { return !h.State().Loading })

	got := h.Filtered(listing.Options{Query: "giza"})
	require.Len(t, got, 1)
	assert.Equal(t, "Paws Vet", got[0].Name)
}

func TestBookingListHolder(t *testing.T) {
	ch := make(chan store.BookingSnapshot, 1)
	h := NewBookingListHolder(ch, func() { close(ch) })
	defer h.Close()

	assert.True(t, h.State().Loading)

	ch <- store.BookingSnapshot{Bookings: []models.Booking{
		{ID: "b-1", Status: models.StatusPending},
		{ID: "b-2", Status: models.StatusConfirmed},
	}}
	waitFor(t, func() bool { return len(h.State().Bookings) == 2 })

	pending := h.WithStatus(models.StatusPending)
	require.Len(t, pending, 1)
	assert.Equal(t, "b-1", pending[0].ID)
}

func TestBookingListHolderErrorRetainsBookings(t *testing.T) {
	ch := make(chan store.BookingSnapshot, 1)
	h := NewBookingListHolder(ch, func() { close(ch) })
	defer h.Close()

	ch <- store.BookingSnapshot{Bookings: []models.Booking{{ID: "b-1", Status: models.StatusPending}}}
	waitFor(t, func() bool { return len(h.State().Bookings) == 1 })

	ch <- store.BookingSnapshot{Err: errors.New("query failed")}
	waitFor(t, func() bool { return h.State().Err != nil })

	state := h.State()
	require.Len(t, state.Bookings, 1)
	assert.False(t, state.Loading)
}

func TestHolderCloseIsClean(t *testing.T) {
	ch := make(chan store.ClinicSnapshot, 1)
	h := NewClinicListHolder(ch, func() { close(ch) })
	h.Close() // must not hang or panic
}
