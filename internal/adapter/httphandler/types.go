package httphandler

import (
	"time"

	"github.com/niksmo/marketplace/internal/core/domain"
)

type (
	Product struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Brand       string    `json:"brand"`
		Category    string    `json:"category"`
		ImageURL    string    `json:"imageUrl"`
		Price       float64   `json:"price"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	Review struct {
		ID        string    `json:"id"`
		ProductID string    `json:"productId"`
		Comment   string    `json:"comment"`
		Rate      int       `json:"rate"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
)

// Payload fields are pointers: absence and presence are distinct, so
// one shape serves both "create" (required tags) and "update" (all
// optional, bounds still enforced when present).
type (
	productPayload struct {
		Name        *string  `json:"name" validate:"required,min=1"`
		Description *string  `json:"description" validate:"required,min=1"`
		Brand       *string  `json:"brand" validate:"required,min=1"`
		Category    *string  `json:"category" validate:"required,min=1"`
		ImageURL    *string  `json:"imageUrl" validate:"omitempty,url"`
		Price       *float64 `json:"price" validate:"required,gte=0"`
	}

	productUpdatePayload struct {
		Name        *string  `json:"name" validate:"omitempty,min=1"`
		Description *string  `json:"description" validate:"omitempty,min=1"`
		Brand       *string  `json:"brand" validate:"omitempty,min=1"`
		Category    *string  `json:"category" validate:"omitempty,min=1"`
		ImageURL    *string  `json:"imageUrl" validate:"omitempty,url"`
		Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	}

	reviewPayload struct {
		Comment *string `json:"comment" validate:"required,min=1"`
		Rate    *int    `json:"rate" validate:"required,gte=1,lte=5"`
	}

	reviewUpdatePayload struct {
		Comment *string `json:"comment" validate:"omitempty,min=1"`
		Rate    *int    `json:"rate" validate:"omitempty,gte=1,lte=5"`
	}
)

type (
	createdResponse struct {
		ID string `json:"id"`
	}

	listProductsResponse struct {
		Links         map[string]string `json:"links"`
		Total         int               `json:"total"`
		NumberOfPages int               `json:"numberOfPages"`
		Products      []Product         `json:"products"`
	}

	errorResponse struct {
		Success    bool                `json:"success"`
		Message    string              `json:"message"`
		ErrorsList []domain.FieldError `json:"errorsList,omitempty"`
	}
)

func toProductView(p domain.Product) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductViews(ps []domain.Product) []Product {
	views := make([]Product, 0, len(ps))
	for _, p := range ps {
		views = append(views, toProductView(p))
	}
	return views
}

func toReviewView(r domain.Review) Review {
	return Review{
		ID:        r.ID,
		ProductID: r.ProductID,
		Comment:   r.Comment,
		Rate:      r.Rate,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toReviewViews(rs []domain.Review) []Review {
	views := make([]Review, 0, len(rs))
	for _, r := range rs {
		views = append(views, toReviewView(r))
	}
	return views
}

func (p productPayload) toDraft() domain.ProductDraft {
	d := domain.ProductDraft{
		Name:        *p.Name,
		Description: *p.Description,
		Brand:       *p.Brand,
		Category:    *p.Category,
		Price:       *p.Price,
	}
	if p.ImageURL != nil {
		d.ImageURL = *p.ImageURL
	}
	return d
}

func (p productUpdatePayload) toPatch() domain.ProductPatch {
	return domain.ProductPatch{
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
	}
}

func (p reviewPayload) toDraft() domain.ReviewDraft {
	return domain.ReviewDraft{Comment: *p.Comment, Rate: *p.Rate}
}

func (p reviewUpdatePayload) toPatch() domain.ReviewPatch {
	return domain.ReviewPatch{Comment: p.Comment, Rate: p.Rate}
}
