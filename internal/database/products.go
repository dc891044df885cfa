package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pawbook/internal/models"
)

// CreateProduct вставляет товар в каталог
func (db *DB) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.Name == "" {
		return fmt.Errorf("%w: name", ErrEmptyField)
	}

	if product.ID == "" {
		product.ID = newID()
	}
	now := time.Now()

	query := `INSERT INTO products (id, name, price, description, image_url, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Price,
		product.Description,
		product.ImageURL,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	product.CreatedAt = now
	product.UpdatedAt = now
	return nil
}

// GetProduct возвращает товар по ID
func (db *DB) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := scanProduct(db.QueryRowContext(ctx, productSelect+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return product, nil
}

// GetProducts возвращает весь каталог
func (db *DB) GetProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := db.QueryContext(ctx, productSelect+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, rows.Err()
}

const productSelect = `SELECT id, name, price, description, image_url, created_at, updated_at FROM products`

func scanProduct(row rowScanner) (*models.Product, error) {
	var product models.Product
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.Description,
		&product.ImageURL,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &product, nil
}
