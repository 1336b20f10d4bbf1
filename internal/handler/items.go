package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"smart-pantry-api/internal/model"
	"smart-pantry-api/internal/service"
	"smart-pantry-api/pkg/apierror"
	"smart-pantry-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

const msgItemsNotArray = "Items must be an array"

// ItemHandler handles pantry item requests.
type ItemHandler struct {
	svc *service.PantryService
}

// NewItemHandler creates a new item handler.
func NewItemHandler(svc *service.PantryService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

// List handles GET /items
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListItems(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.List(w, items, len(items))
}

// Expiring handles GET /expiring
func (h *ItemHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ExpiringItems(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.List(w, items, len(items))
}

// Create handles POST /items
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.ItemInput
	if err := decodeJSON(r, &in, false); err != nil {
		response.Error(w, err)
		return
	}

	item, err := h.svc.CreateItem(r.Context(), in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, item)
}

// Update handles PUT /items/{id}
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.Error(w, apierror.BadRequest("id is required"))
		return
	}

	var in service.ItemInput
	if err := decodeJSON(r, &in, false); err != nil {
		response.Error(w, err)
		return
	}

	item, err := h.svc.UpdateItem(r.Context(), id, in)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, item)
}

// BulkImport handles POST /items/bulk. The body is {"items": [...]}; array
// elements that are not objects are passed on as empty records and rejected
// per-record.
func (h *ItemHandler) BulkImport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Items json.RawMessage `json:"items"`
	}
	if err := decodeJSON(r, &body, false); err != nil {
		response.Error(w, err)
		return
	}

	raw := bytes.TrimSpace(body.Items)
	if len(raw) == 0 || raw[0] != '[' {
		response.Error(w, apierror.BadRequest(msgItemsNotArray))
		return
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var elems []interface{}
	if err := dec.Decode(&elems); err != nil {
		response.Error(w, apierror.BadRequest(msgItemsNotArray))
		return
	}

	records := make([]model.RawImportRecord, len(elems))
	for i, e := range elems {
		if m, ok := e.(map[string]interface{}); ok {
			records[i] = model.RawImportRecord(m)
		}
	}

	outcome, err := h.svc.BulkImport(r.Context(), records)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, outcome)
}
