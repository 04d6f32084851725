package port

import (
	"context"
	"io"

	"github.com/niksmo/marketplace/internal/core/domain"
)

// CatalogStorage is the single persistence port. Both the PostgreSQL
// and the flat-file implementations satisfy it; services never branch
// on which one is active.
type CatalogStorage interface {
	ListProducts(context.Context, domain.ProductQuery) ([]domain.Product, int, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	CreateProduct(context.Context, domain.ProductDraft) (domain.Product, error)
	UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListReviews(ctx context.Context, productID string) ([]domain.Review, error)
	GetReview(ctx context.Context, productID, reviewID string) (domain.Review, error)
	CreateReview(ctx context.Context, productID string, draft domain.ReviewDraft) (domain.Review, error)
	UpdateReview(ctx context.Context, productID, reviewID string, patch domain.ReviewPatch) (domain.Review, error)
	DeleteReview(ctx context.Context, productID, reviewID string) error
}

// ImageStore keeps uploaded product images and returns the public
// location to persist on the product.
type ImageStore interface {
	SaveImage(ctx context.Context, productID, fileName string, data io.Reader) (url string, err error)
}

type CatalogEventsProducer interface {
	ProduceEvent(context.Context, domain.CatalogEvent) error
}

type ProductsService interface {
	Create(context.Context, domain.ProductDraft) (domain.Product, error)
	List(context.Context, domain.ProductQuery) ([]domain.Product, int, error)
	Get(ctx context.Context, id string) (domain.Product, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error)
	Delete(ctx context.Context, id string) error
	AttachImage(ctx context.Context, id, fileName string, data io.Reader) (domain.Product, error)
}

type ReviewsService interface {
	Create(ctx context.Context, productID string, draft domain.ReviewDraft) (domain.Review, error)
	List(ctx context.Context, productID string) ([]domain.Review, error)
	Get(ctx context.Context, productID, reviewID string) (domain.Review, error)
	Update(ctx context.Context, productID, reviewID string, patch domain.ReviewPatch) (domain.Review, error)
	Delete(ctx context.Context, productID, reviewID string) error
}
