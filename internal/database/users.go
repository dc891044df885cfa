package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pawbook/internal/models"
)

// CreateUser inserts a new account. Email must be unique; the password field
// must already be hashed by the caller.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	if user.Email == "" {
		return fmt.Errorf("%w: email", ErrEmptyField)
	}
	if user.Password == "" {
		return fmt.Errorf("%w: password", ErrEmptyField)
	}

	pets, err := encodePets(user.Pets)
	if err != nil {
		return err
	}
	favorites, err := encodeStrings(user.Favorites)
	if err != nil {
		return err
	}

	if user.ID == "" {
		user.ID = newID()
	}
	now := time.Now()

	query := `INSERT INTO users (id, name, email, phone, password, pets, favorites, is_manager, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		strings.ToLower(user.Email),
		user.Phone,
		user.Password,
		pets,
		favorites,
		user.IsManager,
		now,
		now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// ReplaceUser overwrites the whole user record. Profile edits and favorite
// toggles go through here; there is no partial-field update.
func (db *DB) ReplaceUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return fmt.Errorf("%w: id", ErrEmptyField)
	}

	pets, err := encodePets(user.Pets)
	if err != nil {
		return err
	}
	favorites, err := encodeStrings(user.Favorites)
	if err != nil {
		return err
	}

	now := time.Now()
	query := `UPDATE users SET name = ?, email = ?, phone = ?, password = ?, pets = ?, favorites = ?, is_manager = ?, updated_at = ?
              WHERE id = ?`
	res, err := db.ExecContext(ctx, query,
		user.Name,
		strings.ToLower(user.Email),
		user.Phone,
		user.Password,
		pets,
		favorites,
		user.IsManager,
		now,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to replace user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	user.UpdatedAt = now
	return nil
}

// GetUserByID возвращает пользователя по ID
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx, userSelect+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetUserByEmail возвращает пользователя по email
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(db.QueryRowContext(ctx, userSelect+` WHERE email = ?`, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetAllUsers возвращает всех пользователей
func (db *DB) GetAllUsers(ctx context.Context) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, userSelect+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

const userSelect = `SELECT id, name, email, phone, password, pets, favorites, is_manager, created_at, updated_at FROM users`

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var pets, favorites sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Password,
		&pets,
		&favorites,
		&user.IsManager,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if pets.Valid && pets.String != "" {
		if err := json.Unmarshal([]byte(pets.String), &user.Pets); err != nil {
			return nil, fmt.Errorf("decode pets: %w", err)
		}
	}
	if favorites.Valid && favorites.String != "" {
		if err := json.Unmarshal([]byte(favorites.String), &user.Favorites); err != nil {
			return nil, fmt.Errorf("decode favorites: %w", err)
		}
	}
	return &user, nil
}

func encodePets(pets []models.Pet) (string, error) {
	if len(pets) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(pets)
	if err != nil {
		return "", fmt.Errorf("encode pets: %w", err)
	}
	return string(raw), nil
}
