package service

import (
	"context"
	"fmt"

	"pawbook/internal/domain"
	"pawbook/internal/events"
	"pawbook/internal/models"

	"github.com/rs/zerolog"
)

type ProductService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	blobs    domain.BlobStore
	logger   *zerolog.Logger
}

func NewProductService(repo domain.Repository, eventBus domain.EventPublisher, blobs domain.BlobStore, logger *zerolog.Logger) *ProductService {
	return &ProductService{
		repo:     repo,
		eventBus: eventBus,
		blobs:    blobs,
		logger:   logger,
	}
}

func (s *ProductService) GetProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetProducts(ctx)
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product, image []byte) error {
	if s.blobs != nil && len(image) > 0 {
		url, err := s.blobs.Upload(ctx, image, fmt.Sprintf("products/%s.png", product.Name))
		if err != nil {
			return fmt.Errorf("failed to upload product image: %w", err)
		}
		product.ImageURL = url
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return err
	}

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventProductCreated, map[string]string{"product_id": product.ID}); err != nil {
			s.logger.Error().Err(err).Str("product", product.Name).Msg("publish event error")
		}
	}

	return nil
}
