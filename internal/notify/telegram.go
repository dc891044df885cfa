package notify

import (
	"context"
	"fmt"

	"pawbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender is the part of the bot API the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier pushes booking updates to the clinic managers' chats.
// Delivery is best effort: a failed chat is logged and the rest still get
// their message.
type TelegramNotifier struct {
	bot     Sender
	chatIDs []int64
	logger  *zerolog.Logger
}

func NewTelegramNotifier(token string, chatIDs []int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs, logger: logger}, nil
}

// NewTelegramNotifierWithSender wires a custom sender, used in tests.
func NewTelegramNotifierWithSender(sender Sender, chatIDs []int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: sender, chatIDs: chatIDs, logger: logger}
}

func (n *TelegramNotifier) NotifyBookingCreated(ctx context.Context, booking *models.Booking) error {
	text := fmt.Sprintf(
		"🐾 New booking\n\nClinic: %s\nService: %s\nDate: %s %s\nBooking: %s",
		booking.ClinicName, booking.Service, booking.Date, booking.Time, booking.ID)
	if booking.Notes != "" {
		text += fmt.Sprintf("\nNotes: %s", booking.Notes)
	}
	return n.broadcast(ctx, text)
}

func (n *TelegramNotifier) NotifyBookingStatusChanged(ctx context.Context, booking *models.Booking, oldStatus string) error {
	icon := statusIcon(booking.Status)
	text := fmt.Sprintf(
		"%s Booking %s\n\nClinic: %s\nDate: %s %s\nStatus: %s → %s",
		icon, booking.ID, booking.ClinicName, booking.Date, booking.Time, oldStatus, booking.Status)
	return n.broadcast(ctx, text)
}

func (n *TelegramNotifier) broadcast(ctx context.Context, text string) error {
	var lastErr error
	for _, chatID := range n.chatIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("telegram send failed")
			lastErr = err
		}
	}
	return lastErr
}

func statusIcon(status string) string {
	switch status {
	case models.StatusConfirmed:
		return "✅"
	case models.StatusCompleted:
		return "🏁"
	case models.StatusCancelled:
		return "❌"
	default:
		return "⏳"
	}
}
