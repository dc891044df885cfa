package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pawbook/internal/database"
	"pawbook/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSheets struct {
	mock.Mock
}

func (m *MockSheets) UpsertBooking(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockSheets) UpdateBookingStatus(ctx context.Context, bookingID string, status string) error {
	args := m.Called(ctx, bookingID, status)
	return args.Error(0)
}

func (m *MockSheets) ReplaceBookingsSheet(ctx context.Context, bookings []models.Booking) error {
	args := m.Called(ctx, bookings)
	return args.Error(0)
}

func setupWorker(t *testing.T, sheets *MockSheets, redisClient *redis.Client) (*SheetsWorker, *database.DB) {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSheetsWorker(db, sheets, redisClient, RetryPolicy{MaxRetries: 3}, &logger), db
}

func TestRetryPolicyNextDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	assert.Equal(t, 10*time.Second, p.NextDelay(10), "clamped to MaxDelay")
	assert.Equal(t, time.Second, p.NextDelay(0), "attempt below 1 treated as 1")
}

func TestEnqueueTaskPersistsAndPushesToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	w, db := setupWorker(t, &MockSheets{}, client)
	ctx := context.Background()

	booking := &models.Booking{ID: "b-1", ClinicName: "Cat Clinic", UserID: "u-1", Service: "Checkup", Date: "2026-09-10", Time: "10:00", Status: models.StatusPending}
	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, booking.ID, booking, ""))

	// Persisted in the DB queue
	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, TaskUpsert, tasks[0].TaskType)
	assert.Equal(t, "b-1", tasks[0].BookingID)

	// And pushed to the redis list
	raw, err := client.LRange(ctx, "sheets:queue", 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, raw, 1)
	var queued models.SyncTask
	require.NoError(t, json.Unmarshal([]byte(raw[0]), &queued))
	assert.Equal(t, "b-1", queued.BookingID)
}

func TestEnqueueTaskValidation(t *testing.T) {
	w, _ := setupWorker(t, &MockSheets{}, nil)
	ctx := context.Background()

	assert.Error(t, w.EnqueueTask(ctx, "", "b-1", nil, ""))
	assert.Error(t, w.EnqueueTask(ctx, TaskUpsert, "", nil, ""))
	// Resync needs no booking
	assert.NoError(t, w.EnqueueResync(ctx))
}

func TestProcessTaskUpsert(t *testing.T) {
	sheets := &MockSheets{}
	w, db := setupWorker(t, sheets, nil)
	ctx := context.Background()

	booking := &models.Booking{ID: "b-2", ClinicName: "Paws Vet", UserID: "u-2", Service: "Grooming", Date: "2026-09-11", Time: "12:00"}
	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, booking.ID, booking, ""))

	sheets.On("UpsertBooking", mock.Anything, mock.MatchedBy(func(b *models.Booking) bool {
		return b.ID == "b-2"
	})).Return(nil)

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	w.processTask(ctx, &tasks[0])
	sheets.AssertExpectations(t)

	remaining, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, remaining, "completed task leaves the pending queue")
}

func TestProcessTaskUpdateStatus(t *testing.T) {
	sheets := &MockSheets{}
	w, db := setupWorker(t, sheets, nil)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpdateStatus, "b-3", nil, models.StatusConfirmed))

	sheets.On("UpdateBookingStatus", mock.Anything, "b-3", models.StatusConfirmed).Return(nil)

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	w.processTask(ctx, &tasks[0])
	sheets.AssertExpectations(t)
}

func TestProcessTaskRetriesThenFails(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	sheets := &MockSheets{}
	sheets.On("UpdateBookingStatus", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("sheets unavailable"))

	w, db := setupWorker(t, sheets, client)
	ctx := context.Background()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpdateStatus, "b-4", nil, models.StatusCancelled))
	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	task := tasks[0]

	// First failures schedule a retry
	w.processTask(ctx, &task)
	task.RetryCount = 1
	w.processTask(ctx, &task)

	// Final attempt crosses MaxRetries: failed + dead letter
	task.RetryCount = 2
	w.processTask(ctx, &task)

	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].LastError)
	assert.Contains(t, *failed[0].LastError, "sheets unavailable")

	dead, err := client.LLen(ctx, "sheets:deadletter").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), dead)
}

func TestProcessTaskResync(t *testing.T) {
	sheets := &MockSheets{}
	w, db := setupWorker(t, sheets, nil)
	ctx := context.Background()

	booking := &models.Booking{ClinicName: "Cat Clinic", UserID: "u-1", Service: "Checkup", Date: time.Now().Format("2006-01-02"), Time: "10:00"}
	require.NoError(t, db.CreateBooking(ctx, booking))
	require.NoError(t, w.EnqueueResync(ctx))

	sheets.On("ReplaceBookingsSheet", mock.Anything, mock.MatchedBy(func(bs []models.Booking) bool {
		return len(bs) == 1
	})).Return(nil)

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	w.processTask(ctx, &tasks[0])
	sheets.AssertExpectations(t)
}

func TestUnknownTaskTypeGoesToFailed(t *testing.T) {
	w, db := setupWorker(t, &MockSheets{}, nil)
	ctx := context.Background()

	task := models.SyncTask{TaskType: "bogus", BookingID: "b-9", Payload: `{"booking_id":"b-9"}`, Status: "pending", CreatedAt: time.Now()}
	require.NoError(t, db.CreateSyncTask(ctx, &task))

	// bogus type never succeeds; with RetryCount at the cap it fails outright
	task.RetryCount = 2
	w.processTask(ctx, &task)

	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
}
