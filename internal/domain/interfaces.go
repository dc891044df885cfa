package domain

import (
	"context"
	"time"

	"pawbook/internal/models"
)

// Repository is the document-store boundary the services talk to.
type Repository interface {
	CreateClinic(ctx context.Context, clinic *models.Clinic) error
	ReplaceClinic(ctx context.Context, clinic *models.Clinic) error
	GetClinic(ctx context.Context, id string) (*models.Clinic, error)
	GetClinics(ctx context.Context) ([]models.Clinic, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status string) error
	UpdateBookingNotes(ctx context.Context, id string, notes string) error
	GetBookingsByClinic(ctx context.Context, clinicName string) ([]models.Booking, error)
	GetBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error)
	GetDailyBookings(ctx context.Context, start, end time.Time) (map[string][]models.Booking, error)
	CountBookingsByStatus(ctx context.Context) (map[string]int64, error)

	CreateUser(ctx context.Context, user *models.User) error
	ReplaceUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)

	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProducts(ctx context.Context) ([]models.Product, error)
}

// SessionRepository keeps auth sessions with a TTL. The redis implementation
// is primary; memory is the in-process fallback.
type SessionRepository interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, token string) error
}

// EventPublisher lets services emit domain events without knowing the bus.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// SyncWorker queues booking changes for the external Sheets mirror.
type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID string, booking *models.Booking, status string) error
}

// SheetsWriter mirrors bookings into a spreadsheet.
type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID string, status string) error
	ReplaceBookingsSheet(ctx context.Context, bookings []models.Booking) error
}

// Notifier pushes human-readable booking notifications to clinic managers.
type Notifier interface {
	NotifyBookingCreated(ctx context.Context, booking *models.Booking) error
	NotifyBookingStatusChanged(ctx context.Context, booking *models.Booking, oldStatus string) error
}

// BlobStore uploads opaque blobs and returns a public URL for the record.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, path string) (string, error)
}
