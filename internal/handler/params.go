package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/middleware"
)

// pathUUID binds a {name} path segment the way generated server wrappers do.
// On failure it writes a 422 and returns false.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("validation_error", "invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// pagination binds the optional ?page= and ?limit= query parameters.
func pagination(w http.ResponseWriter, r *http.Request) (domain.PaginationParams, bool) {
	var page, limit *int
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("validation_error", "invalid page"))
		return domain.PaginationParams{}, false
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("validation_error", "invalid limit"))
		return domain.PaginationParams{}, false
	}
	return domain.NewPaginationParams(page, limit), true
}

// caller returns the authenticated user. Routes are mounted behind the auth
// middleware, so a missing ID means the router was wired without it.
func caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized", "access token required"))
		return uuid.Nil, false
	}
	return id, true
}
