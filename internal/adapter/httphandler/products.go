package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/marketplace/internal/core/domain"
	"github.com/niksmo/marketplace/internal/core/port"
	"github.com/niksmo/marketplace/internal/core/validate"
)

// maxUploadSize caps a product image upload at 8 MiB.
const maxUploadSize = 8 << 20

type ProductsHandler struct {
	service port.ProductsService
	baseURL string
}

func RegisterProducts(
	mux *http.ServeMux, service port.ProductsService, baseURL string,
) {
	h := ProductsHandler{service, baseURL}
	mux.HandleFunc("POST /products", h.Create)
	mux.HandleFunc("GET /products", h.List)
	mux.HandleFunc("GET /products/{id}", h.Get)
	mux.HandleFunc("PUT /products/{id}", h.Update)
	mux.HandleFunc("DELETE /products/{id}", h.Delete)
	mux.HandleFunc("POST /products/{id}/upload", h.Upload)
}

func (h ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Create"
	log := slog.With("op", op)

	var payload productPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.service.Create(r.Context(), payload.toDraft())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createdResponse{ID: p.ID})
	log.Info("product created", "id", p.ID)
}

func (h ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parseProductQuery(r.URL.Query())

	ps, total, err := h.service.List(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listProductsResponse{
		Links:         pageLinks(h.baseURL+"/products", r.URL.Query(), q.Limit, q.Skip, total),
		Total:         total,
		NumberOfPages: numberOfPages(total, q.Limit),
		Products:      toProductViews(ps),
	})
}

func (h ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductView(p))
}

func (h ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Update"
	log := slog.With("op", op)

	var payload productUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.service.Update(r.Context(), r.PathValue("id"), payload.toPatch())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductView(p))
	log.Info("product updated", "id", p.ID)
}

func (h ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Delete"
	log := slog.With("op", op)

	id := r.PathValue("id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
	log.Info("product deleted", "id", id)
}

// Upload accepts a single multipart image in the "image" field.
func (h ProductsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Upload"
	log := slog.With("op", op)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, domain.ValidationErrors{{
			Field: "image", Message: "multipart form with image file is required",
		}})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, domain.ValidationErrors{{
			Field: "image", Message: "image file is required",
		}})
		return
	}
	defer file.Close()

	p, err := h.service.AttachImage(
		r.Context(), r.PathValue("id"), header.Filename, file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductView(p))
	log.Info("product image attached", "id", p.ID, "imageUrl", p.ImageURL)
}
