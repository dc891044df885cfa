package notify

import (
	"context"
	"errors"
	"testing"

	"pawbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent    []tgbotapi.MessageConfig
	failFor map[int64]error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable type")
	}
	if err := f.failFor[msg.ChatID]; err != nil {
		return tgbotapi.Message{}, err
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{}, nil
}

func testBooking() *models.Booking {
	return &models.Booking{
		ID:         "b-1",
		ClinicName: "Cat Clinic",
		UserID:     "u-1",
		Service:    "Checkup",
		Date:       "2026-09-10",
		Time:       "14:30",
		Status:     models.StatusPending,
	}
}

func TestNotifyBookingCreated(t *testing.T) {
	sender := &fakeSender{}
	logger := zerolog.Nop()
	n := NewTelegramNotifierWithSender(sender, []int64{100, 200}, &logger)

	require.NoError(t, n.NotifyBookingCreated(context.Background(), testBooking()))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, int64(100), sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "Cat Clinic")
	assert.Contains(t, sender.sent[0].Text, "2026-09-10 14:30")
}

func TestNotifyBookingStatusChanged(t *testing.T) {
	sender := &fakeSender{}
	logger := zerolog.Nop()
	n := NewTelegramNotifierWithSender(sender, []int64{100}, &logger)

	booking := testBooking()
	booking.Status = models.StatusConfirmed
	require.NoError(t, n.NotifyBookingStatusChanged(context.Background(), booking, models.StatusPending))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "pending → confirmed")
	assert.Contains(t, sender.sent[0].Text, "✅")
}

func TestBroadcastContinuesPastFailedChat(t *testing.T) {
	sender := &fakeSender{failFor: map[int64]error{100: errors.New("blocked")}}
	logger := zerolog.Nop()
	n := NewTelegramNotifierWithSender(sender, []int64{100, 200}, &logger)

	err := n.NotifyBookingCreated(context.Background(), testBooking())
	assert.Error(t, err, "last error is surfaced")
	require.Len(t, sender.sent, 1, "healthy chat still notified")
	assert.Equal(t, int64(200), sender.sent[0].ChatID)
}

func TestStatusIcon(t *testing.T) {
	assert.Equal(t, "✅", statusIcon(models.StatusConfirmed))
	assert.Equal(t, "🏁", statusIcon(models.StatusCompleted))
	assert.Equal(t, "❌", statusIcon(models.StatusCancelled))
	assert.Equal(t, "⏳", statusIcon(models.StatusPending))
}
