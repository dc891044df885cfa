package database

import (
	"context"
	"testing"

	"pawbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{
		Name:     "Sara",
		Email:    "Sara@Example.com",
		Phone:    "+20111111111",
		Password: "$2a$10$hash",
		Pets:     []models.Pet{{Type: "Cat"}, {Type: "Dog", ImageURL: "https://cdn/pets/d.png"}},
	}
	require.NoError(t, db.CreateUser(ctx, user))
	require.NotEmpty(t, user.ID)

	got, err := db.GetUserByEmail(ctx, "sara@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "sara@example.com", got.Email, "emails are stored lowercased")
	require.Len(t, got.Pets, 2)
	assert.Equal(t, "Dog", got.Pets[1].Type)

	byID, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Email, byID.Email)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := &models.User{Name: "A", Email: "dup@example.com", Password: "h"}
	require.NoError(t, db.CreateUser(ctx, first))

	second := &models.User{Name: "B", Email: "DUP@example.com", Password: "h"}
	err := db.CreateUser(ctx, second)
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestCreateUserRequiresEmailAndPassword(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.ErrorIs(t, db.CreateUser(ctx, &models.User{Password: "h"}), ErrEmptyField)
	require.ErrorIs(t, db.CreateUser(ctx, &models.User{Email: "a@b.c"}), ErrEmptyField)
}

func TestReplaceUserWholeRecord(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{Name: "Sara", Email: "sara@example.com", Password: "h"}
	require.NoError(t, db.CreateUser(ctx, user))

	user.Name = "Sara M."
	user.Favorites = []string{"clinic-1", "clinic-2"}
	user.Pets = models.ResizePets(user.Pets, 1)
	require.NoError(t, db.ReplaceUser(ctx, user))

	got, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sara M.", got.Name)
	assert.Equal(t, []string{"clinic-1", "clinic-2"}, got.Favorites)
	assert.Len(t, got.Pets, 1)
}

func TestReplaceUserNotFound(t *testing.T) {
	db := setupTestDB(t)
	err := db.ReplaceUser(context.Background(), &models.User{ID: "missing", Email: "x@y.z", Password: "h"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetUserNotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetUserByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}
