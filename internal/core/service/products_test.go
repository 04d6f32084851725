package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niksmo/marketplace/internal/adapter/imagestore"
	"github.com/niksmo/marketplace/internal/adapter/storage"
	"github.com/niksmo/marketplace/internal/core/domain"
	"github.com/niksmo/marketplace/internal/core/service"
)

// eventRecorder captures produced events; failErr makes every
// ProduceEvent call fail.
type eventRecorder struct {
	mu      sync.Mutex
	events  []domain.CatalogEvent
	failErr error
}

func (r *eventRecorder) ProduceEvent(
	ctx context.Context, evt domain.CatalogEvent,
) error {
	if r.failErr != nil {
		return r.failErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ts := make([]string, 0, len(r.events))
	for _, e := range r.events {
		ts = append(ts, e.Type)
	}
	return ts
}

type fixture struct {
	products service.Products
	reviews  service.Reviews
	recorder *eventRecorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	fs := afero.NewMemMapFs()
	catalog, err := storage.NewFileStorage(fs, "/data")
	require.NoError(t, err)

	images, err := imagestore.New(fs, "/img", "http://localhost:8080/img")
	require.NoError(t, err)

	rec := &eventRecorder{}
	return fixture{
		products: service.NewProducts(catalog, images, rec),
		reviews:  service.NewReviews(catalog, rec),
		recorder: rec,
	}
}

func deskDraft() domain.ProductDraft {
	return domain.ProductDraft{
		Name:        "Desk",
		Description: "Oak desk",
		Brand:       "Acme",
		Category:    "furniture",
		Price:       199,
	}
}

func TestProductsService(t *testing.T) {
	t.Run("CreateAppliesDefaultImage", func(t *testing.T) {
		f := newFixture(t)

		p, err := f.products.Create(t.Context(), deskDraft())
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultImageURL, p.ImageURL)
	})

	t.Run("CreateKeepsExplicitImage", func(t *testing.T) {
		f := newFixture(t)

		draft := deskDraft()
		draft.ImageURL = "https://cdn.example/desk.png"
		p, err := f.products.Create(t.Context(), draft)
		require.NoError(t, err)
		assert.Equal(t, draft.ImageURL, p.ImageURL)
	})

	t.Run("MutationsNotifyEvents", func(t *testing.T) {
		f := newFixture(t)

		p, err := f.products.Create(t.Context(), deskDraft())
		require.NoError(t, err)

		price := 249.0
		_, err = f.products.Update(
			t.Context(), p.ID, domain.ProductPatch{Price: &price},
		)
		require.NoError(t, err)

		require.NoError(t, f.products.Delete(t.Context(), p.ID))

		assert.Equal(t, []string{
			domain.EventProductCreated,
			domain.EventProductUpdated,
			domain.EventProductDeleted,
		}, f.recorder.types())
	})

	t.Run("ProducerFailureDoesNotFailRequest", func(t *testing.T) {
		f := newFixture(t)
		f.recorder.failErr = errors.New("broker down")

		p, err := f.products.Create(t.Context(), deskDraft())
		require.NoError(t, err)
		require.NotEmpty(t, p.ID)
	})

	t.Run("NilProducerIsSkipped", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		catalog, err := storage.NewFileStorage(fs, "/data")
		require.NoError(t, err)
		images, err := imagestore.New(fs, "/img", "http://localhost:8080/img")
		require.NoError(t, err)

		products := service.NewProducts(catalog, images, nil)
		p, err := products.Create(t.Context(), deskDraft())
		require.NoError(t, err)
		require.NotEmpty(t, p.ID)
	})

	t.Run("AttachImageRewritesURL", func(t *testing.T) {
		f := newFixture(t)

		p, err := f.products.Create(t.Context(), deskDraft())
		require.NoError(t, err)

		updated, err := f.products.AttachImage(
			t.Context(), p.ID, "photo.png", strings.NewReader("bytes"),
		)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/img/"+p.ID+".png", updated.ImageURL)
	})

	t.Run("AttachImageChecksParentFirst", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.products.AttachImage(
			t.Context(), "absent", "photo.png", strings.NewReader("bytes"),
		)
		require.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.Empty(t, f.recorder.types())
	})
}

func TestReviewsService(t *testing.T) {
	t.Run("MutationsNotifyEvents", func(t *testing.T) {
		f := newFixture(t)

		p, err := f.products.Create(t.Context(), deskDraft())
		require.NoError(t, err)

		r, err := f.reviews.Create(
			t.Context(), p.ID, domain.ReviewDraft{Comment: "solid", Rate: 5},
		)
		require.NoError(t, err)

		rate := 4
		_, err = f.reviews.Update(
			t.Context(), p.ID, r.ID, domain.ReviewPatch{Rate: &rate},
		)
		require.NoError(t, err)

		require.NoError(t, f.reviews.Delete(t.Context(), p.ID, r.ID))

		assert.Equal(t, []string{
			domain.EventProductCreated,
			domain.EventReviewCreated,
			domain.EventReviewUpdated,
			domain.EventReviewDeleted,
		}, f.recorder.types())
	})

	t.Run("EventCarriesBothIDs", func(t *testing.T) {
		f := newFixture(t)

		p, err := f.products.Create(t.Context(), deskDraft())
		require.NoError(t, err)

		r, err := f.reviews.Create(
			t.Context(), p.ID, domain.ReviewDraft{Comment: "solid", Rate: 5},
		)
		require.NoError(t, err)

		last := f.recorder.events[len(f.recorder.events)-1]
		assert.Equal(t, domain.EventReviewCreated, last.Type)
		assert.Equal(t, p.ID, last.ProductID)
		assert.Equal(t, r.ID, last.ReviewID)
		assert.False(t, last.OccurredAt.IsZero())
	})

	t.Run("CreateRequiresParent", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.reviews.Create(
			t.Context(), "absent", domain.ReviewDraft{Comment: "ok", Rate: 3},
		)
		require.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.Empty(t, f.recorder.types())
	})
}
