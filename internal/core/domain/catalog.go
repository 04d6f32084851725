package domain

import "time"

// DefaultImageURL is assigned to a product when the payload carries
// no imageUrl and no image has been uploaded yet.
const DefaultImageURL = "https://placehold.co/600x400?text=no+image"

type (
	Product struct {
		ID          string
		Name        string
		Description string
		Brand       string
		Category    string
		ImageURL    string
		Price       float64
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Review struct {
		ID        string
		ProductID string
		Comment   string
		Rate      int
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

// ProductDraft is a validated creation payload. The storage assigns
// id and timestamps.
type ProductDraft struct {
	Name        string
	Description string
	Brand       string
	Category    string
	ImageURL    string
	Price       float64
}

// ProductPatch carries the fields of a partial update.
// Nil fields are left unchanged by the merge.
type ProductPatch struct {
	Name        *string
	Description *string
	Brand       *string
	Category    *string
	ImageURL    *string
	Price       *float64
}

type ReviewDraft struct {
	Comment string
	Rate    int
}

type ReviewPatch struct {
	Comment *string
	Rate    *int
}

// ProductQuery describes the list filter and page window.
// Category matches case-insensitively; empty means no filter.
type ProductQuery struct {
	Category  string
	Limit     int
	Skip      int
	SortField string
	SortDesc  bool
}

type catalogEventType = string

const (
	EventProductCreated catalogEventType = "product.created"
	EventProductUpdated catalogEventType = "product.updated"
	EventProductDeleted catalogEventType = "product.deleted"
	EventReviewCreated  catalogEventType = "review.created"
	EventReviewUpdated  catalogEventType = "review.updated"
	EventReviewDeleted  catalogEventType = "review.deleted"
)

// CatalogEvent notifies downstream consumers about a catalog mutation.
type CatalogEvent struct {
	Type       catalogEventType
	ProductID  string
	ReviewID   string
	OccurredAt time.Time
}
