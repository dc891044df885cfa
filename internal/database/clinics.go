package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pawbook/internal/models"
)

// validateClinic enforces the record invariants on every write path, not just
// the seed file: rating stays within [0,5], review counts never go negative.
func validateClinic(clinic *models.Clinic) error {
	if clinic.Name == "" {
		return fmt.Errorf("%w: name", ErrEmptyField)
	}
	if clinic.Rating < 0 || clinic.Rating > 5 {
		return fmt.Errorf("%w: rating %.2f outside [0,5]", ErrInvalidField, clinic.Rating)
	}
	if clinic.Reviews < 0 {
		return fmt.Errorf("%w: reviews %d negative", ErrInvalidField, clinic.Reviews)
	}
	return nil
}

// CreateClinic inserts a clinic and assigns it a store-generated ID.
func (db *DB) CreateClinic(ctx context.Context, clinic *models.Clinic) error {
	if err := validateClinic(clinic); err != nil {
		return err
	}

	services, err := encodeStrings(clinic.Services)
	if err != nil {
		return fmt.Errorf("encode services: %w", err)
	}

	if clinic.ID == "" {
		clinic.ID = newID()
	}
	now := time.Now()

	query := `INSERT INTO clinics (id, name, rating, is_open, location, reviews, phone, logo_url, license_url, services, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, query,
		clinic.ID,
		clinic.Name,
		clinic.Rating,
		clinic.IsOpen,
		clinic.Location,
		clinic.Reviews,
		clinic.Phone,
		clinic.LogoURL,
		clinic.LicenseURL,
		services,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create clinic: %w", err)
	}

	clinic.CreatedAt = now
	clinic.UpdatedAt = now
	return nil
}

// ReplaceClinic overwrites the whole clinic record. Clinics are immutable
// once constructed; edits replace them wholesale.
func (db *DB) ReplaceClinic(ctx context.Context, clinic *models.Clinic) error {
	if clinic.ID == "" {
		return fmt.Errorf("%w: id", ErrEmptyField)
	}
	if err := validateClinic(clinic); err != nil {
		return err
	}

	services, err := encodeStrings(clinic.Services)
	if err != nil {
		return fmt.Errorf("encode services: %w", err)
	}

	now := time.Now()
	query := `UPDATE clinics SET name = ?, rating = ?, is_open = ?, location = ?, reviews = ?,
                 phone = ?, logo_url = ?, license_url = ?, services = ?, updated_at = ?
              WHERE id = ?`
	res, err := db.ExecContext(ctx, query,
		clinic.Name,
		clinic.Rating,
		clinic.IsOpen,
		clinic.Location,
		clinic.Reviews,
		clinic.Phone,
		clinic.LogoURL,
		clinic.LicenseURL,
		services,
		now,
		clinic.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to replace clinic: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	clinic.UpdatedAt = now
	return nil
}

// GetClinic возвращает клинику по ID
func (db *DB) GetClinic(ctx context.Context, id string) (*models.Clinic, error) {
	query := clinicSelect + ` WHERE id = ?`

	clinic, err := scanClinic(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return clinic, nil
}

// GetClinics returns every clinic ordered by rating descending, creation
// order breaking ties. Filtering happens in the listing package.
func (db *DB) GetClinics(ctx context.Context) ([]models.Clinic, error) {
	query := clinicSelect + ` ORDER BY rating DESC, created_at ASC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get clinics: %w", err)
	}
	defer rows.Close()

	var clinics []models.Clinic
	for rows.Next() {
		clinic, err := scanClinic(rows)
		if err != nil {
			return nil, err
		}
		clinics = append(clinics, *clinic)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return clinics, nil
}

// SeedClinics inserts the seed list when the clinics table is empty.
func (db *DB) SeedClinics(ctx context.Context, clinics []models.Clinic) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clinics`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for i := range clinics {
		if err := db.CreateClinic(ctx, &clinics[i]); err != nil {
			return err
		}
	}
	db.logger.Info().Int("count", len(clinics)).Msg("seeded clinics")
	return nil
}

const clinicSelect = `SELECT id, name, rating, is_open, location, reviews, phone, logo_url, license_url, services, created_at, updated_at FROM clinics`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClinic(row rowScanner) (*models.Clinic, error) {
	var clinic models.Clinic
	var services sql.NullString
	err := row.Scan(
		&clinic.ID,
		&clinic.Name,
		&clinic.Rating,
		&clinic.IsOpen,
		&clinic.Location,
		&clinic.Reviews,
		&clinic.Phone,
		&clinic.LogoURL,
		&clinic.LicenseURL,
		&services,
		&clinic.CreatedAt,
		&clinic.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if services.Valid && services.String != "" {
		if err := json.Unmarshal([]byte(services.String), &clinic.Services); err != nil {
			return nil, fmt.Errorf("decode services: %w", err)
		}
	}
	return &clinic, nil
}

func encodeStrings(values []string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
