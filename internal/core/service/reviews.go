package service

import (
	"context"
	"fmt"

	"github.com/niksmo/marketplace/internal/core/domain"
	"github.com/niksmo/marketplace/internal/core/port"
)

var _ port.ReviewsService = (*Reviews)(nil)

// Reviews implements review CRUD scoped to a parent product.
// Parent existence and ownership checks live in the storage port.
type Reviews struct {
	storage port.CatalogStorage
	events  port.CatalogEventsProducer
}

func NewReviews(
	storage port.CatalogStorage, events port.CatalogEventsProducer,
) Reviews {
	return Reviews{storage, events}
}

func (s Reviews) Create(
	ctx context.Context, productID string, draft domain.ReviewDraft,
) (domain.Review, error) {
	const op = "Reviews.Create"

	if err := ctx.Err(); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	r, err := s.storage.CreateReview(ctx, productID, draft)
	if err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	notifyEvent(ctx, s.events, domain.EventReviewCreated, productID, r.ID)
	return r, nil
}

func (s Reviews) List(
	ctx context.Context, productID string,
) ([]domain.Review, error) {
	const op = "Reviews.List"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rs, err := s.storage.ListReviews(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rs, nil
}

func (s Reviews) Get(
	ctx context.Context, productID, reviewID string,
) (domain.Review, error) {
	const op = "Reviews.Get"

	if err := ctx.Err(); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	r, err := s.storage.GetReview(ctx, productID, reviewID)
	if err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

func (s Reviews) Update(
	ctx context.Context, productID, reviewID string, patch domain.ReviewPatch,
) (domain.Review, error) {
	const op = "Reviews.Update"

	if err := ctx.Err(); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	r, err := s.storage.UpdateReview(ctx, productID, reviewID, patch)
	if err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	notifyEvent(ctx, s.events, domain.EventReviewUpdated, productID, r.ID)
	return r, nil
}

func (s Reviews) Delete(
	ctx context.Context, productID, reviewID string,
) error {
	const op = "Reviews.Delete"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.DeleteReview(ctx, productID, reviewID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	notifyEvent(ctx, s.events, domain.EventReviewDeleted, productID, reviewID)
	return nil
}
