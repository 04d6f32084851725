package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/niksmo/marketplace/internal/core/domain"
	"github.com/niksmo/marketplace/internal/core/port"
)

var _ port.ProductsService = (*Products)(nil)

// Products implements product CRUD, listing and image attachment over
// the storage port.
type Products struct {
	storage port.CatalogStorage
	images  port.ImageStore
	events  port.CatalogEventsProducer
}

func NewProducts(
	storage port.CatalogStorage,
	images port.ImageStore,
	events port.CatalogEventsProducer,
) Products {
	return Products{storage, images, events}
}

func (s Products) Create(
	ctx context.Context, draft domain.ProductDraft,
) (domain.Product, error) {
	const op = "Products.Create"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if draft.ImageURL == "" {
		draft.ImageURL = domain.DefaultImageURL
	}

	p, err := s.storage.CreateProduct(ctx, draft)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, domain.EventProductCreated, p.ID, "")
	return p, nil
}

func (s Products) List(
	ctx context.Context, q domain.ProductQuery,
) ([]domain.Product, int, error) {
	const op = "Products.List"

	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	ps, total, err := s.storage.ListProducts(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return ps, total, nil
}

func (s Products) Get(ctx context.Context, id string) (domain.Product, error) {
	const op = "Products.Get"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.storage.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s Products) Update(
	ctx context.Context, id string, patch domain.ProductPatch,
) (domain.Product, error) {
	const op = "Products.Update"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.storage.UpdateProduct(ctx, id, patch)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, domain.EventProductUpdated, p.ID, "")
	return p, nil
}

func (s Products) Delete(ctx context.Context, id string) error {
	const op = "Products.Delete"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, domain.EventProductDeleted, id, "")
	return nil
}

// AttachImage stores the uploaded file and rewrites the product's
// imageUrl to the stored location.
func (s Products) AttachImage(
	ctx context.Context, id, fileName string, data io.Reader,
) (domain.Product, error) {
	const op = "Products.AttachImage"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	// the parent must exist before the file is stored
	if _, err := s.storage.GetProduct(ctx, id); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	url, err := s.images.SaveImage(ctx, id, fileName, data)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.storage.UpdateProduct(
		ctx, id, domain.ProductPatch{ImageURL: &url},
	)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, domain.EventProductUpdated, p.ID, "")
	return p, nil
}

// notify publishes a catalog event when the producer is wired.
// Publish failures never fail the request.
func (s Products) notify(
	ctx context.Context, eventType, productID, reviewID string,
) {
	notifyEvent(ctx, s.events, eventType, productID, reviewID)
}

func notifyEvent(
	ctx context.Context,
	events port.CatalogEventsProducer,
	eventType, productID, reviewID string,
) {
	if events == nil {
		return
	}

	evt := domain.CatalogEvent{
		Type:       eventType,
		ProductID:  productID,
		ReviewID:   reviewID,
		OccurredAt: time.Now(),
	}
	if err := events.ProduceEvent(ctx, evt); err != nil {
		slog.Error("failed to produce catalog event",
			"op", "service.notifyEvent", "type", eventType, "err", err,
		)
	}
}
