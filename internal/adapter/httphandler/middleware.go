package httphandler

import (
	"mime"
	"net/http"
	"slices"
)

func AllowJSON(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		// parameters such as charset are irrelevant here
		mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

		if r.ContentLength == 0 || mt == "multipart/form-data" {
			next.ServeHTTP(w, r)
			return
		}

		if mt != "application/json" {
			http.Error(w, "invalid media type", http.StatusUnsupportedMediaType)
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

// AllowOrigins enforces the configured origin allow-list.
// Same-origin requests carry no Origin header and pass through;
// a non-listed origin is rejected with 400.
func AllowOrigins(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hf := func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !slices.Contains(allowed, origin) {
				writeJSON(w, http.StatusBadRequest, errorResponse{
					Message: "origin not allowed",
				})
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.Header().Set(
					"Access-Control-Allow-Methods",
					"GET, POST, PUT, DELETE, OPTIONS",
				)
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hf)
	}
}
