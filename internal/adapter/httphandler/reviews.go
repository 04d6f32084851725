package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/marketplace/internal/core/port"
	"github.com/niksmo/marketplace/internal/core/validate"
)

type ReviewsHandler struct {
	service port.ReviewsService
}

func RegisterReviews(mux *http.ServeMux, service port.ReviewsService) {
	h := ReviewsHandler{service}
	mux.HandleFunc("POST /products/{id}/reviews", h.Create)
	mux.HandleFunc("GET /products/{id}/reviews", h.List)
	mux.HandleFunc("GET /products/{id}/reviews/{rid}", h.Get)
	mux.HandleFunc("PUT /products/{id}/reviews/{rid}", h.Update)
	mux.HandleFunc("DELETE /products/{id}/reviews/{rid}", h.Delete)
}

func (h ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "ReviewsHandler.Create"
	log := slog.With("op", op)

	var payload reviewPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeError(w, err)
		return
	}

	review, err := h.service.Create(
		r.Context(), r.PathValue("id"), payload.toDraft(),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createdResponse{ID: review.ID})
	log.Info("review created", "id", review.ID, "productId", review.ProductID)
}

func (h ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.List(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewViews(reviews))
}

func (h ReviewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.Get(
		r.Context(), r.PathValue("id"), r.PathValue("rid"),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReviewView(review))
}

func (h ReviewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "ReviewsHandler.Update"
	log := slog.With("op", op)

	var payload reviewUpdatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeError(w, err)
		return
	}

	review, err := h.service.Update(
		r.Context(), r.PathValue("id"), r.PathValue("rid"), payload.toPatch(),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewView(review))
	log.Info("review updated", "id", review.ID, "productId", review.ProductID)
}

func (h ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "ReviewsHandler.Delete"
	log := slog.With("op", op)

	err := h.service.Delete(
		r.Context(), r.PathValue("id"), r.PathValue("rid"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
	log.Info("review deleted", "id", r.PathValue("rid"))
}
