package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"smart-pantry-api/internal/config"
	"smart-pantry-api/internal/importer"
	"smart-pantry-api/internal/model"
	"smart-pantry-api/internal/repository"
	"smart-pantry-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *struct {
		Total int `json:"total"`
	} `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type testEnv struct {
	store  *repository.MemoryStore
	router chi.Router
	dairy  model.Category
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	im := importer.New(store)
	pantry := service.NewPantryService(store, im, config.ImportConfig{MaxBatchSize: 3, ExpiringWindow: 7 * 24 * time.Hour})
	categories := service.NewCategoryService(store, service.NewCategoryCache(store, nil, 0))

	dairy, _, err := categories.Create(context.Background(), service.CategoryInput{Name: "Dairy"})
	require.NoError(t, err)

	items := NewItemHandler(pantry)
	cats := NewCategoryHandler(categories)

	r := chi.NewRouter()
	r.Get("/items", items.List)
	r.Post("/items", items.Create)
	r.Put("/items/{id}", items.Update)
	r.Post("/items/bulk", items.BulkImport)
	r.Get("/expiring", items.Expiring)
	r.Get("/categories", cats.List)
	r.Post("/categories", cats.Create)

	return &testEnv{store: store, router: r, dairy: *dairy}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestBulkImport_MixedBatch(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/items/bulk", `{"items": [
		{"name": "Milk", "quantity": 2, "categoryName": "dairy", "expirationDate": "2026-05-01"},
		{"name": "Bread", "quantity": "1", "categoryName": "Bakery"},
		{"quantity": 3, "categoryName": "Dairy"}
	]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var outcome model.ImportOutcome
	require.NoError(t, json.Unmarshal(body.Data, &outcome))
	assert.Equal(t, 1, outcome.SuccessCount)
	assert.Equal(t, 2, outcome.FailedCount)
	require.Len(t, outcome.Errors, 2)
	assert.Equal(t, model.MissingField, outcome.Errors[0].Kind)
	assert.Equal(t, 2, outcome.Errors[0].Index)
	assert.Equal(t, model.UnknownCategory, outcome.Errors[1].Kind)
	require.Len(t, outcome.ImportedItems, 1)
	assert.Equal(t, "Milk", outcome.ImportedItems[0].Name)
	assert.Equal(t, env.dairy.ID, outcome.ImportedItems[0].CategoryID)
}

func TestBulkImport_NonObjectElementsAreRejectedPerRecord(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/items/bulk", `{"items": [42, "x", null]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var outcome model.ImportOutcome
	require.NoError(t, json.Unmarshal(body.Data, &outcome))
	assert.Equal(t, 0, outcome.SuccessCount)
	assert.Equal(t, 3, outcome.FailedCount)
}

func TestBulkImport_ItemsMustBeArray(t *testing.T) {
	env := newTestEnv(t)

	for _, payload := range []string{`{}`, `{"items": null}`, `{"items": {"name": "Milk"}}`, `{"items": "[]"}`} {
		rec, body := env.do(t, http.MethodPost, "/items/bulk", payload)
		assert.Equal(t, http.StatusBadRequest, rec.Code, payload)
		require.NotNil(t, body.Error)
		assert.Equal(t, msgItemsNotArray, body.Error.Message)
	}
}

func TestBulkImport_EmptyArray(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/items/bulk", `{"items": []}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"successCount":0,"failedCount":0,"errors":[],"importedItems":[]}`, string(body.Data))
}

func TestBulkImport_TooManyItems(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/items/bulk", `{"items": [{}, {}, {}, {}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkImport_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/items/bulk", `{"items": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", body.Error.Code)
}

func TestItems_CreateListUpdate(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/items",
		`{"name": "Yogurt", "quantity": 4, "categoryId": "`+env.dairy.ID+`", "expirationDate": "2026-01-02"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.PantryItem
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "Dairy", created.Category.Name)

	rec, body = env.do(t, http.MethodGet, "/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, body.Meta)
	assert.Equal(t, 1, body.Meta.Total)

	rec, body = env.do(t, http.MethodPut, "/items/"+created.ID,
		`{"name": "Greek Yogurt", "quantity": 3, "categoryId": "`+env.dairy.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated model.PantryItem
	require.NoError(t, json.Unmarshal(body.Data, &updated))
	assert.Equal(t, "Greek Yogurt", updated.Name)
	assert.Nil(t, updated.ExpirationDate)
}

func TestItems_CreateMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/items", `{"name": "Yogurt"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields", body.Error.Message)
}

func TestItems_UpdateUnknownID(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPut, "/items/nope",
		`{"name": "X", "quantity": 1, "categoryId": "`+env.dairy.ID+`"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategories_CreateThenExisting(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/categories", `{"name": "Spices"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, body := env.do(t, http.MethodPost, "/categories", `{"name": "dairy"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	var cat model.Category
	require.NoError(t, json.Unmarshal(body.Data, &cat))
	assert.Equal(t, env.dairy.ID, cat.ID)

	rec, body = env.do(t, http.MethodGet, "/categories", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, body.Meta.Total)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func TestReady(t *testing.T) {
	tests := []struct {
		name   string
		store  error
		cache  error
		status int
	}{
		{"all ok", nil, nil, http.StatusOK},
		{"cache down still ready", nil, errors.New("redis down"), http.StatusOK},
		{"store down", errors.New("db down"), nil, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New("1.2.3", stubPinger{tt.store}, stubPinger{tt.cache})
			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHealth_ReportsVersion(t *testing.T) {
	h := New("1.2.3", stubPinger{}, nil)
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	var body struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1.2.3", body.Data.Version)
}

func TestAdminStats(t *testing.T) {
	h := NewAdminHandler(repository.NewMemoryStore(), "memory", "memory", config.ImportConfig{MaxBatchSize: 5000})
	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "memory", body.Data["store_type"])
	assert.Equal(t, "connected", body.Data["store"].(map[string]interface{})["status"])
}
