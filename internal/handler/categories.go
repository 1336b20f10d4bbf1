package handler

import (
	"net/http"

	"smart-pantry-api/internal/service"
	"smart-pantry-api/pkg/response"
)

// CategoryHandler handles category requests.
type CategoryHandler struct {
	svc *service.CategoryService
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(svc *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

// List handles GET /categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.List(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.List(w, cats, len(cats))
}

// Create handles POST /categories. Returns 201 for a new category and 200
// when one with the same name already exists.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if err := decodeJSON(r, &in, false); err != nil {
		response.Error(w, err)
		return
	}

	cat, created, err := h.svc.Create(r.Context(), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	if created {
		response.Created(w, cat)
		return
	}
	response.OK(w, cat)
}
