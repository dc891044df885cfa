package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pawbook/internal/models"
)

// CreateBooking вставляет новое бронирование со статусом pending
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.Service == "" {
		return fmt.Errorf("%w: service", ErrEmptyField)
	}
	if booking.Date == "" {
		return fmt.Errorf("%w: date", ErrEmptyField)
	}
	if booking.Time == "" {
		return fmt.Errorf("%w: time", ErrEmptyField)
	}

	// Новые заявки всегда стартуют в pending, что бы клиент ни прислал.
	booking.Status = models.StatusPending

	if booking.ID == "" {
		booking.ID = newID()
	}
	now := time.Now()

	query := `INSERT INTO bookings (id, clinic_name, user_id, service, date, time, status, notes, created_at, updated_at, version)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`
	_, err := db.ExecContext(ctx, query,
		booking.ID,
		booking.ClinicName,
		booking.UserID,
		booking.Service,
		booking.Date,
		booking.Time,
		booking.Status,
		booking.Notes,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

// GetBooking возвращает бронирование по ID
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := bookingSelect + ` WHERE id = ?`

	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return booking, nil
}

// UpdateBookingStatus overwrites the status unconditionally. Any valid status
// value is accepted regardless of the prior one; lifecycle checks live in the
// service layer and only warn.
func (db *DB) UpdateBookingStatus(ctx context.Context, id string, status string) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	query := `UPDATE bookings SET status = ?, updated_at = ?, version = version + 1 WHERE id = ?`
	res, err := db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateBookingNotes обновляет комментарий заявки
func (db *DB) UpdateBookingNotes(ctx context.Context, id string, notes string) error {
	query := `UPDATE bookings SET notes = ?, updated_at = ? WHERE id = ?`
	res, err := db.ExecContext(ctx, query, notes, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetBookingsByClinic возвращает заявки клиники
func (db *DB) GetBookingsByClinic(ctx context.Context, clinicName string) ([]models.Booking, error) {
	query := bookingSelect + ` WHERE clinic_name = ? ORDER BY date, time, created_at`
	return db.queryBookings(ctx, query, clinicName)
}

// GetBookingsByUser возвращает заявки пользователя
func (db *DB) GetBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	query := bookingSelect + ` WHERE user_id = ? ORDER BY created_at DESC`
	return db.queryBookings(ctx, query, userID)
}

// GetBookingsByDateRange возвращает бронирования за период (включительно)
func (db *DB) GetBookingsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]models.Booking, error) {
	query := bookingSelect + ` WHERE date BETWEEN ? AND ? ORDER BY date, time, created_at`
	return db.queryBookings(ctx, query,
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"))
}

// GetDailyBookings группирует бронирования за период по дате
func (db *DB) GetDailyBookings(ctx context.Context, startDate, endDate time.Time) (map[string][]models.Booking, error) {
	bookings, err := db.GetBookingsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	daily := make(map[string][]models.Booking)
	for _, b := range bookings {
		daily[b.Date] = append(daily[b.Date], b)
	}
	return daily, nil
}

// CountBookingsByStatus возвращает количество заявок по статусам
func (db *DB) CountBookingsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM bookings GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

const bookingSelect = `SELECT id, clinic_name, user_id, service, date, time, status, notes, created_at, updated_at, version FROM bookings`

func scanBooking(row rowScanner) (*models.Booking, error) {
	var booking models.Booking
	err := row.Scan(
		&booking.ID,
		&booking.ClinicName,
		&booking.UserID,
		&booking.Service,
		&booking.Date,
		&booking.Time,
		&booking.Status,
		&booking.Notes,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.Version,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
