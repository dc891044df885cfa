package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pawbook/internal/database"
	"pawbook/internal/domain"
	"pawbook/internal/events"
	"pawbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	repo     domain.Repository
	sessions domain.SessionRepository
	eventBus domain.EventPublisher
	blobs    domain.BlobStore
	managers map[string]bool // emails with manager rights
	logger   *zerolog.Logger
}

func NewUserService(repo domain.Repository, sessions domain.SessionRepository, eventBus domain.EventPublisher, blobs domain.BlobStore, managerEmails []string, logger *zerolog.Logger) *UserService {
	managers := make(map[string]bool, len(managerEmails))
	for _, email := range managerEmails {
		managers[strings.ToLower(email)] = true
	}
	return &UserService{
		repo:     repo,
		sessions: sessions,
		eventBus: eventBus,
		blobs:    blobs,
		managers: managers,
		logger:   logger,
	}
}

// Register creates an account and opens a session. Only the bcrypt hash of
// the password is ever stored.
func (s *UserService) Register(ctx context.Context, user *models.User, password string) (*models.Session, error) {
	if user.Email == "" || password == "" {
		return nil, database.ErrEmptyField
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hash)
	user.IsManager = s.managers[strings.ToLower(user.Email)]

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return s.openSession(ctx, user)
}

// Login verifies the password against the stored hash and opens a session.
// A wrong password and an unknown email both come back as ErrInvalidPassword
// so the response does not leak which accounts exist.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, database.ErrInvalidPassword
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, database.ErrInvalidPassword
	}

	return s.openSession(ctx, user)
}

func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// Authenticate resolves a bearer token to its session, nil when unknown.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}
	return s.sessions.GetSession(ctx, token)
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) CountUsers(ctx context.Context) (int, error) {
	users, err := s.repo.GetAllUsers(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

// ReplaceProfile overwrites the stored user record with this one. An empty
// Password keeps the stored hash; anything else is treated as a new raw
// password and rehashed.
func (s *UserService) ReplaceProfile(ctx context.Context, user *models.User) error {
	current, err := s.repo.GetUserByID(ctx, user.ID)
	if err != nil {
		return err
	}

	if user.Password == "" {
		user.Password = current.Password
	} else if user.Password != current.Password {
		hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hash)
	}
	user.IsManager = current.IsManager

	if err := s.repo.ReplaceUser(ctx, user); err != nil {
		return err
	}

	s.publishUserEvent(user.ID)
	return nil
}

// ToggleFavorite flips the clinic in the user's favorites and stores the
// whole record back.
func (s *UserService) ToggleFavorite(ctx context.Context, userID, clinicID string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.ToggleFavorite(clinicID)
	if err := s.repo.ReplaceUser(ctx, user); err != nil {
		return nil, err
	}

	s.publishUserEvent(userID)
	return user, nil
}

// SetPetCount resizes the user's pet list, keeping entries by index.
func (s *UserService) SetPetCount(ctx context.Context, userID string, n int) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Pets = models.ResizePets(user.Pets, n)
	if err := s.repo.ReplaceUser(ctx, user); err != nil {
		return nil, err
	}

	s.publishUserEvent(userID)
	return user, nil
}

// UploadPetImage stores the image blob and points the pet at its URL.
func (s *UserService) UploadPetImage(ctx context.Context, userID string, petIndex int, data []byte) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if petIndex < 0 || petIndex >= len(user.Pets) {
		return nil, fmt.Errorf("pet index %d out of range", petIndex)
	}

	if s.blobs != nil && len(data) > 0 {
		url, err := s.blobs.Upload(ctx, data, fmt.Sprintf("users/%s/pets/%d.png", userID, petIndex))
		if err != nil {
			return nil, fmt.Errorf("failed to upload pet image: %w", err)
		}
		user.Pets[petIndex].ImageURL = url
	}

	if err := s.repo.ReplaceUser(ctx, user); err != nil {
		return nil, err
	}

	s.publishUserEvent(userID)
	return user, nil
}

func (s *UserService) openSession(ctx context.Context, user *models.User) (*models.Session, error) {
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		IsManager: user.IsManager,
		CreatedAt: time.Now(),
	}

	if err := s.sessions.SetSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return session, nil
}

func (s *UserService) publishUserEvent(userID string) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(events.EventUserUpdated, events.UserEventPayload{UserID: userID}); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("publish event error")
	}
}
