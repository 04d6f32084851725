package httphandler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niksmo/marketplace/internal/adapter/httphandler"
	"github.com/niksmo/marketplace/internal/adapter/imagestore"
	"github.com/niksmo/marketplace/internal/adapter/storage"
	"github.com/niksmo/marketplace/internal/core/service"
)

const testBaseURL = "http://localhost:8080"

type (
	productView struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Brand       string  `json:"brand"`
		Category    string  `json:"category"`
		ImageURL    string  `json:"imageUrl"`
		Price       float64 `json:"price"`
	}

	reviewView struct {
		ID        string `json:"id"`
		ProductID string `json:"productId"`
		Comment   string `json:"comment"`
		Rate      int    `json:"rate"`
	}

	listView struct {
		Links         map[string]string `json:"links"`
		Total         int               `json:"total"`
		NumberOfPages int               `json:"numberOfPages"`
		Products      []productView     `json:"products"`
	}

	errorView struct {
		Success    bool   `json:"success"`
		Message    string `json:"message"`
		ErrorsList []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errorsList"`
	}
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()

	fs := afero.NewMemMapFs()

	catalog, err := storage.NewFileStorage(fs, "/data")
	require.NoError(t, err)

	images, err := imagestore.New(fs, "/img", testBaseURL+"/img")
	require.NoError(t, err)

	mux := http.NewServeMux()
	httphandler.RegisterProducts(
		mux, service.NewProducts(catalog, images, nil), testBaseURL,
	)
	httphandler.RegisterReviews(mux, service.NewReviews(catalog, nil))
	return mux
}

func doJSON(
	t *testing.T, mux *http.ServeMux, method, target, body string,
) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func createDesk(t *testing.T, mux *http.ServeMux) string {
	t.Helper()

	rec := doJSON(t, mux, http.MethodPost, "/products", `{
		"name": "Desk",
		"description": "Oak desk",
		"brand": "Acme",
		"category": "furniture",
		"price": 199
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decodeBody[struct {
		ID string `json:"id"`
	}](t, rec)
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestProductsCreate(t *testing.T) {
	t.Run("CreatedWithDefaultImage", func(t *testing.T) {
		mux := newTestMux(t)
		id := createDesk(t, mux)

		rec := doJSON(t, mux, http.MethodGet, "/products/"+id, "")
		require.Equal(t, http.StatusOK, rec.Code)

		p := decodeBody[productView](t, rec)
		assert.Equal(t, "Desk", p.Name)
		assert.Equal(t, 199.0, p.Price)
		assert.Equal(t, "https://placehold.co/600x400?text=no+image", p.ImageURL)
	})

	t.Run("MissingFieldsListedTogether", func(t *testing.T) {
		mux := newTestMux(t)

		rec := doJSON(t, mux, http.MethodPost, "/products", `{"name": "Desk"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		e := decodeBody[errorView](t, rec)
		assert.False(t, e.Success)
		assert.Equal(t, "errors during validation", e.Message)

		var fields []string
		for _, fe := range e.ErrorsList {
			fields = append(fields, fe.Field)
		}
		assert.ElementsMatch(
			t, []string{"description", "brand", "category", "price"}, fields,
		)
	})

	t.Run("WrongFieldType", func(t *testing.T) {
		mux := newTestMux(t)

		rec := doJSON(t, mux, http.MethodPost, "/products", `{
			"name": "Desk",
			"description": "Oak desk",
			"brand": "Acme",
			"category": "furniture",
			"price": "free"
		}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		e := decodeBody[errorView](t, rec)
		require.Len(t, e.ErrorsList, 1)
		assert.Equal(t, "price", e.ErrorsList[0].Field)
		assert.Equal(t, "must be of type number", e.ErrorsList[0].Message)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		mux := newTestMux(t)

		rec := doJSON(t, mux, http.MethodPost, "/products", `{not json`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		e := decodeBody[errorView](t, rec)
		require.Len(t, e.ErrorsList, 1)
		assert.Equal(t, "body", e.ErrorsList[0].Field)
	})

	t.Run("BadImageURL", func(t *testing.T) {
		mux := newTestMux(t)

		rec := doJSON(t, mux, http.MethodPost, "/products", `{
			"name": "Desk",
			"description": "Oak desk",
			"brand": "Acme",
			"category": "furniture",
			"imageUrl": "not-a-url",
			"price": 199
		}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		e := decodeBody[errorView](t, rec)
		require.Len(t, e.ErrorsList, 1)
		assert.Equal(t, "imageUrl", e.ErrorsList[0].Field)
	})
}

func TestProductsGet(t *testing.T) {
	t.Run("Absent", func(t *testing.T) {
		mux := newTestMux(t)

		rec := doJSON(t, mux, http.MethodGet, "/products/absent", "")
		require.Equal(t, http.StatusNotFound, rec.Code)

		e := decodeBody[errorView](t, rec)
		assert.False(t, e.Success)
		assert.Equal(t, "product not found", e.Message)
		assert.Empty(t, e.ErrorsList)
	})
}

func TestProductsUpdate(t *testing.T) {
	t.Run("PartialPatch", func(t *testing.T) {
		mux := newTestMux(t)
		id := createDesk(t, mux)

		rec := doJSON(t, mux, http.MethodPut, "/products/"+id, `{"price": 249}`)
		require.Equal(t, http.StatusOK, rec.Code)

		p := decodeBody[productView](t, rec)
		assert.Equal(t, 249.0, p.Price)
		assert.Equal(t, "Desk", p.Name)
	})

	t.Run("BoundsStillApply", func(t *testing.T) {
		mux := newTestMux(t)
		id := createDesk(t, mux)

		rec := doJSON(t, mux, http.MethodPut, "/products/"+id, `{"price": -1}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		e := decodeBody[errorView](t, rec)
		require.Len(t, e.ErrorsList, 1)
		assert.Equal(t, "price", e.ErrorsList[0].Field)
	})

	t.Run("Absent", func(t *testing.T) {
		mux := newTestMux(t)

		rec := doJSON(t, mux, http.MethodPut, "/products/absent", `{"price": 1}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestProductsDelete(t *testing.T) {
	mux := newTestMux(t)
	id := createDesk(t, mux)

	rec := doJSON(t, mux, http.MethodDelete, "/products/"+id, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, mux, http.MethodDelete, "/products/"+id, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductsList(t *testing.T) {
	seed := func(t *testing.T, mux *http.ServeMux) {
		t.Helper()
		for range 5 {
			createDesk(t, mux)
		}
	}

	t.Run("Paginated", func(t *testing.T) {
		mux := newTestMux(t)
		seed(t, mux)

		rec := doJSON(t, mux, http.MethodGet, "/products?limit=2&skip=2", "")
		require.Equal(t, http.StatusOK, rec.Code)

		l := decodeBody[listView](t, rec)
		assert.Equal(t, 5, l.Total)
		assert.Equal(t, 3, l.NumberOfPages)
		assert.Len(t, l.Products, 2)
		assert.Contains(t, l.Links, "prev")
		assert.Contains(t, l.Links, "next")
		assert.Contains(t, l.Links["next"], "skip=4")
	})

	t.Run("BadQueryNeverFails", func(t *testing.T) {
		mux := newTestMux(t)
		seed(t, mux)

		rec := doJSON(
			t, mux, http.MethodGet, "/products?limit=banana&skip=-2", "",
		)
		require.Equal(t, http.StatusOK, rec.Code)

		l := decodeBody[listView](t, rec)
		assert.Equal(t, 5, l.Total)
		assert.Len(t, l.Products, 5)
	})

	t.Run("UnknownCategoryIsEmptyNotError", func(t *testing.T) {
		mux := newTestMux(t)
		seed(t, mux)

		rec := doJSON(t, mux, http.MethodGet, "/products?category=toys", "")
		require.Equal(t, http.StatusOK, rec.Code)

		l := decodeBody[listView](t, rec)
		assert.Zero(t, l.Total)
		assert.Empty(t, l.Products)
	})
}

func TestProductsUpload(t *testing.T) {
	multipartImage := func(t *testing.T, fileName string) (io.Reader, string) {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("image", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake image bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return &buf, mw.FormDataContentType()
	}

	t.Run("RewritesImageURL", func(t *testing.T) {
		mux := newTestMux(t)
		id := createDesk(t, mux)

		body, contentType := multipartImage(t, "photo.png")
		req := httptest.NewRequest(
			http.MethodPost, "/products/"+id+"/upload", body,
		)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		p := decodeBody[productView](t, rec)
		assert.Equal(t, testBaseURL+"/img/"+id+".png", p.ImageURL)
	})

	t.Run("MissingFile", func(t *testing.T) {
		mux := newTestMux(t)
		id := createDesk(t, mux)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("comment", "no file here"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(
			http.MethodPost, "/products/"+id+"/upload", &buf,
		)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		e := decodeBody[errorView](t, rec)
		require.Len(t, e.ErrorsList, 1)
		assert.Equal(t, "image", e.ErrorsList[0].Field)
	})

	t.Run("AbsentProduct", func(t *testing.T) {
		mux := newTestMux(t)

		body, contentType := multipartImage(t, "photo.png")
		req := httptest.NewRequest(
			http.MethodPost, "/products/absent/upload", body,
		)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
