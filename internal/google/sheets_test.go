package google

import (
	"testing"
	"time"

	"pawbook/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRowCacheHelpers(t *testing.T) {
	s := &SheetsService{rowCache: make(map[string]int)}

	_, ok := s.getCachedRow("b-1")
	assert.False(t, ok)

	s.setCachedRow("b-1", 7)
	row, ok := s.getCachedRow("b-1")
	assert.True(t, ok)
	assert.Equal(t, 7, row)

	s.ClearCache()
	_, ok = s.getCachedRow("b-1")
	assert.False(t, ok)
}

func TestBookingRowValues(t *testing.T) {
	created := time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC)
	booking := &models.Booking{
		ID:         "b-42",
		ClinicName: "Cat Clinic",
		UserID:     "u-1",
		Service:    "Checkup",
		Date:       "2026-09-10",
		Time:       "14:30",
		Status:     models.StatusPending,
		Notes:      "first visit",
		CreatedAt:  created,
		UpdatedAt:  created,
	}

	row := bookingRowValues(booking)
	assert.Len(t, row, 10)
	assert.Equal(t, "b-42", row[0])
	assert.Equal(t, "Cat Clinic", row[1])
	assert.Equal(t, models.StatusPending, row[6])
	assert.Equal(t, "2026-09-01 10:30:00", row[8])
}
