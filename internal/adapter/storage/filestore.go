package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/niksmo/marketplace/internal/core/domain"
	"github.com/niksmo/marketplace/internal/core/port"
)

var _ port.CatalogStorage = (*FileStorage)(nil)

const (
	productsFile = "products.json"
	reviewsFile  = "reviews.json"
)

type (
	productRecord struct {
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

	reviewRecord struct {
		ID        string    `json:"id"`
		ProductID string    `json:"productId"`
		Comment   string    `json:"comment"`
		Rate      int       `json:"rate"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
)

// FileStorage keeps the products and reviews collections as two flat
// JSON arrays. Every mutation is a read-modify-write of the whole
// collection serialized by a per-collection lock; the file is replaced
// atomically via a temp file and rename. Review operations hold
// productsMu before reviewsMu, the same order DeleteProduct acquires
// them, so a review can never outlive its parent.
type FileStorage struct {
	fs  afero.Fs
	dir string

	productsMu sync.RWMutex
	reviewsMu  sync.RWMutex
}

func NewFileStorage(fs afero.Fs, dir string) (*FileStorage, error) {
	const op = "NewFileStorage"

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &FileStorage{fs: fs, dir: dir}

	for _, name := range []string{productsFile, reviewsFile} {
		path := filepath.Join(dir, name)
		ok, err := afero.Exists(fs, path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			if err := s.writeFile(path, []byte("[]")); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
	}
	return s, nil
}

func (s *FileStorage) ListProducts(
	ctx context.Context, q domain.ProductQuery,
) ([]domain.Product, int, error) {
	const op = "FileStorage.ListProducts"

	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	s.productsMu.RLock()
	records, err := s.readProducts()
	s.productsMu.RUnlock()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var matched []productRecord
	for _, r := range records {
		if q.Category != "" && !strings.EqualFold(r.Category, q.Category) {
			continue
		}
		matched = append(matched, r)
	}

	sortProducts(matched, q.SortField, q.SortDesc)

	total := len(matched)
	lo := min(q.Skip, total)
	hi := total
	if q.Limit > 0 {
		hi = min(lo+q.Limit, total)
	}

	ps := make([]domain.Product, 0, hi-lo)
	for _, r := range matched[lo:hi] {
		ps = append(ps, r.toDomain())
	}
	return ps, total, nil
}

func (s *FileStorage) GetProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "FileStorage.GetProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.productsMu.RLock()
	defer s.productsMu.RUnlock()

	records, err := s.readProducts()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	for _, r := range records {
		if r.ID == id {
			return r.toDomain(), nil
		}
	}
	return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
}

func (s *FileStorage) CreateProduct(
	ctx context.Context, draft domain.ProductDraft,
) (domain.Product, error) {
	const op = "FileStorage.CreateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.productsMu.Lock()
	defer s.productsMu.Unlock()

	records, err := s.readProducts()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	r := productRecord{
		ID:          uuid.NewString(),
		Name:        draft.Name,
		Description: draft.Description,
		Brand:       draft.Brand,
		Category:    draft.Category,
		ImageURL:    draft.ImageURL,
		Price:       draft.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	records = append(records, r)
	if err := s.writeProducts(records); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return r.toDomain(), nil
}

func (s *FileStorage) UpdateProduct(
	ctx context.Context, id string, patch domain.ProductPatch,
) (domain.Product, error) {
	const op = "FileStorage.UpdateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.productsMu.Lock()
	defer s.productsMu.Unlock()

	records, err := s.readProducts()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	for i := range records {
		if records[i].ID != id {
			continue
		}
		records[i].merge(patch)
		if err := s.writeProducts(records); err != nil {
			return domain.Product{}, fmt.Errorf("%s: %w", op, err)
		}
		return records[i].toDomain(), nil
	}
	return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
}

// DeleteProduct removes the product and cascades to its reviews,
// so the reviews collection never holds orphans.
func (s *FileStorage) DeleteProduct(ctx context.Context, id string) error {
	const op = "FileStorage.DeleteProduct"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.productsMu.Lock()
	defer s.productsMu.Unlock()
	s.reviewsMu.Lock()
	defer s.reviewsMu.Unlock()

	records, err := s.readProducts()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	kept := records[:0]
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		return fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
	}
	if err := s.writeProducts(kept); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	reviews, err := s.readReviews()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	keptReviews := reviews[:0]
	for _, r := range reviews {
		if r.ProductID != id {
			keptReviews = append(keptReviews, r)
		}
	}
	if err := s.writeReviews(keptReviews); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *FileStorage) ListReviews(
	ctx context.Context, productID string,
) ([]domain.Review, error) {
	const op = "FileStorage.ListReviews"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.productsMu.RLock()
	defer s.productsMu.RUnlock()

	if err := s.checkProduct(productID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.reviewsMu.RLock()
	defer s.reviewsMu.RUnlock()

	records, err := s.readReviews()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rs := make([]domain.Review, 0)
	for _, r := range records {
		if r.ProductID == productID {
			rs = append(rs, r.toDomain())
		}
	}
	return rs, nil
}

func (s *FileStorage) GetReview(
	ctx context.Context, productID, reviewID string,
) (domain.Review, error) {
	const op = "FileStorage.GetReview"

	if err := ctx.Err(); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	s.productsMu.RLock()
	defer s.productsMu.RUnlock()

	if err := s.checkProduct(productID); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	s.reviewsMu.RLock()
	defer s.reviewsMu.RUnlock()

	records, err := s.readReviews()
	if err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	for _, r := range records {
		// ProductID must match the path's product: a review id
		// guessed under another product stays invisible.
		if r.ID == reviewID && r.ProductID == productID {
			return r.toDomain(), nil
		}
	}
	return domain.Review{}, fmt.Errorf("%s: %w", op, domain.ErrReviewNotFound)
}

func (s *FileStorage) CreateReview(
	ctx context.Context, productID string, draft domain.ReviewDraft,
) (domain.Review, error) {
	const op = "FileStorage.CreateReview"

	if err := ctx.Err(); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	s.productsMu.RLock()
	defer s.productsMu.RUnlock()

	if err := s.checkProduct(productID); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	s.reviewsMu.Lock()
	defer s.reviewsMu.Unlock()

	records, err := s.readReviews()
	if err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	r := reviewRecord{
		ID:        uuid.NewString(),
		ProductID: productID,
		Comment:   draft.Comment,
		Rate:      draft.Rate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	records = append(records, r)
	if err := s.writeReviews(records); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}
	return r.toDomain(), nil
}

func (s *FileStorage) UpdateReview(
	ctx context.Context, productID, reviewID string, patch domain.ReviewPatch,
) (domain.Review, error) {
	const op = "FileStorage.UpdateReview"

	if err := ctx.Err(); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	s.productsMu.RLock()
	defer s.productsMu.RUnlock()

	if err := s.checkProduct(productID); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	s.reviewsMu.Lock()
	defer s.reviewsMu.Unlock()

	records, err := s.readReviews()
	if err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	for i := range records {
		if records[i].ID != reviewID || records[i].ProductID != productID {
			continue
		}
		records[i].merge(patch)
		if err := s.writeReviews(records); err != nil {
			return domain.Review{}, fmt.Errorf("%s: %w", op, err)
		}
		return records[i].toDomain(), nil
	}
	return domain.Review{}, fmt.Errorf("%s: %w", op, domain.ErrReviewNotFound)
}

func (s *FileStorage) DeleteReview(
	ctx context.Context, productID, reviewID string,
) error {
	const op = "FileStorage.DeleteReview"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.productsMu.RLock()
	defer s.productsMu.RUnlock()

	if err := s.checkProduct(productID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.reviewsMu.Lock()
	defer s.reviewsMu.Unlock()

	records, err := s.readReviews()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	kept := records[:0]
	for _, r := range records {
		if r.ID != reviewID || r.ProductID != productID {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		return fmt.Errorf("%s: %w", op, domain.ErrReviewNotFound)
	}
	if err := s.writeReviews(kept); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// checkProduct verifies the parent exists. The caller must hold
// productsMu.
func (s *FileStorage) checkProduct(id string) error {
	records, err := s.readProducts()
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.ID == id {
			return nil
		}
	}
	return domain.ErrProductNotFound
}

func (s *FileStorage) readProducts() ([]productRecord, error) {
	var records []productRecord
	if err := s.readCollection(productsFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *FileStorage) writeProducts(records []productRecord) error {
	return s.writeCollection(productsFile, records)
}

func (s *FileStorage) readReviews() ([]reviewRecord, error) {
	var records []reviewRecord
	if err := s.readCollection(reviewsFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *FileStorage) writeReviews(records []reviewRecord) error {
	return s.writeCollection(reviewsFile, records)
}

func (s *FileStorage) readCollection(name string, dst any) error {
	data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func (s *FileStorage) writeCollection(name string, records any) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.writeFile(filepath.Join(s.dir, name), data)
}

// writeFile replaces the collection file as a whole, never in place.
func (s *FileStorage) writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return err
	}
	return s.fs.Rename(tmp, path)
}

func sortProducts(records []productRecord, field string, desc bool) {
	less := func(a, b productRecord) bool { return a.CreatedAt.Before(b.CreatedAt) }

	switch field {
	case "name":
		less = func(a, b productRecord) bool { return a.Name < b.Name }
	case "brand":
		less = func(a, b productRecord) bool { return a.Brand < b.Brand }
	case "category":
		less = func(a, b productRecord) bool { return a.Category < b.Category }
	case "price":
		less = func(a, b productRecord) bool { return a.Price < b.Price }
	}

	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

func (r productRecord) toDomain() domain.Product {
	return domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Brand:       r.Brand,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
		Price:       r.Price,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (r *productRecord) merge(patch domain.ProductPatch) {
	if patch.Name != nil {
		r.Name = *patch.Name
	}
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.Brand != nil {
		r.Brand = *patch.Brand
	}
	if patch.Category != nil {
		r.Category = *patch.Category
	}
	if patch.ImageURL != nil {
		r.ImageURL = *patch.ImageURL
	}
	if patch.Price != nil {
		r.Price = *patch.Price
	}
	r.UpdatedAt = time.Now()
}

func (r reviewRecord) toDomain() domain.Review {
	return domain.Review{
		ID:        r.ID,
		ProductID: r.ProductID,
		Comment:   r.Comment,
		Rate:      r.Rate,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *reviewRecord) merge(patch domain.ReviewPatch) {
	if patch.Comment != nil {
		r.Comment = *patch.Comment
	}
	if patch.Rate != nil {
		r.Rate = *patch.Rate
	}
	r.UpdatedAt = time.Now()
}
