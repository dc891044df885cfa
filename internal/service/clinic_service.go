package service

import (
	"context"
	"fmt"

	"pawbook/internal/domain"
	"pawbook/internal/events"
	"pawbook/internal/listing"
	"pawbook/internal/models"

	"github.com/rs/zerolog"
)

type ClinicService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	blobs    domain.BlobStore
	logger   *zerolog.Logger
}

func NewClinicService(repo domain.Repository, eventBus domain.EventPublisher, blobs domain.BlobStore, logger *zerolog.Logger) *ClinicService {
	return &ClinicService{
		repo:     repo,
		eventBus: eventBus,
		blobs:    blobs,
		logger:   logger,
	}
}

// ListClinics returns the stored clinics narrowed and ordered per opts.
// With zero-value opts that is the full list, best rating first.
func (s *ClinicService) ListClinics(ctx context.Context, opts listing.Options) ([]models.Clinic, error) {
	clinics, err := s.repo.GetClinics(ctx)
	if err != nil {
		return nil, err
	}
	return listing.Filter(clinics, opts), nil
}

func (s *ClinicService) GetClinic(ctx context.Context, id string) (*models.Clinic, error) {
	return s.repo.GetClinic(ctx, id)
}

// CreateClinic stores the record, uploading logo and license blobs first when
// provided. Upload failures abort the create: a card must not reference a
// URL that was never written.
func (s *ClinicService) CreateClinic(ctx context.Context, clinic *models.Clinic, logo, license []byte) error {
	if err := s.uploadAssets(ctx, clinic, logo, license); err != nil {
		return err
	}

	if err := s.repo.CreateClinic(ctx, clinic); err != nil {
		return err
	}

	s.publishEvent(events.EventClinicCreated, clinic)
	return nil
}

// ReplaceClinic overwrites the whole stored record with this one.
func (s *ClinicService) ReplaceClinic(ctx context.Context, clinic *models.Clinic, logo, license []byte) error {
	if err := s.uploadAssets(ctx, clinic, logo, license); err != nil {
		return err
	}

	if err := s.repo.ReplaceClinic(ctx, clinic); err != nil {
		return err
	}

	s.publishEvent(events.EventClinicUpdated, clinic)
	return nil
}

func (s *ClinicService) uploadAssets(ctx context.Context, clinic *models.Clinic, logo, license []byte) error {
	if s.blobs == nil {
		return nil
	}

	if len(logo) > 0 {
		url, err := s.blobs.Upload(ctx, logo, fmt.Sprintf("clinics/%s/logo.png", clinic.Name))
		if err != nil {
			return fmt.Errorf("failed to upload logo: %w", err)
		}
		clinic.LogoURL = url
	}

	if len(license) > 0 {
		url, err := s.blobs.Upload(ctx, license, fmt.Sprintf("clinics/%s/license.pdf", clinic.Name))
		if err != nil {
			return fmt.Errorf("failed to upload license: %w", err)
		}
		clinic.LicenseURL = url
	}

	return nil
}

func (s *ClinicService) publishEvent(eventType string, clinic *models.Clinic) {
	if s.eventBus == nil {
		return
	}

	payload := events.ClinicEventPayload{ClinicID: clinic.ID, Name: clinic.Name}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("clinic", clinic.Name).Msg("publish event error")
	}
}
