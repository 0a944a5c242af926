package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendra/catalog/internal/domain/catalog"
)

// mockCatalog records calls and returns canned results.
type mockCatalog struct {
	createIn  catalog.CreateInput
	updateID  string
	updateIn  catalog.UpdateInput
	removedID string
	listPage  catalog.Page

	product catalog.PlainProduct
	list    []catalog.PlainProduct
	err     error
}

func (m *mockCatalog) Create(_ context.Context, in catalog.CreateInput) (catalog.PlainProduct, error) {
	m.createIn = in
	return m.product, m.err
}

func (m *mockCatalog) List(_ context.Context, page catalog.Page) ([]catalog.PlainProduct, error) {
	m.listPage = page
	return m.list, m.err
}

func (m *mockCatalog) FindOnePlain(_ context.Context, term string) (catalog.PlainProduct, error) {
	return m.product, m.err
}

func (m *mockCatalog) Update(_ context.Context, id string, in catalog.UpdateInput) (catalog.PlainProduct, error) {
	m.updateID = id
	m.updateIn = in
	return m.product, m.err
}

func (m *mockCatalog) Remove(_ context.Context, id string) error {
	m.removedID = id
	return m.err
}

func newServer(m *mockCatalog) *httptest.Server {
	mux := http.NewServeMux()
	NewHandler(m).Register(mux)
	return httptest.NewServer(mux)
}

func plainProduct() catalog.PlainProduct {
	return catalog.PlainProduct{
		ID:     "6d2e5f1a-0000-4000-8000-000000000001",
		Title:  "Widget",
		Price:  decimal.RequireFromString("19.99"),
		Slug:   "widget",
		Stock:  3,
		Sizes:  []string{"M"},
		Gender: "men",
		Tags:   []string{"shirt"},
		Images: []string{"a.png"},
	}
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestListProducts(t *testing.T) {
	m := &mockCatalog{list: []catalog.PlainProduct{plainProduct()}}
	srv := newServer(m)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/products?limit=2&offset=1")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, catalog.Page{Limit: 2, Offset: 1}, m.listPage)

	out := decodeBody[[]productResponse](t, resp)
	require.Len(t, out, 1)
	assert.Equal(t, "widget", out[0].Slug)
	assert.InDelta(t, 19.99, out[0].Price, 0.001)
	assert.Equal(t, []string{"a.png"}, out[0].Images)
}

func TestListProducts_BadLimit(t *testing.T) {
	srv := newServer(&mockCatalog{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/products?limit=zero")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetProduct_NotFound(t *testing.T) {
	srv := newServer(&mockCatalog{err: catalog.ErrNotFound})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/products/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decodeBody[errorResponse](t, resp)
	assert.Equal(t, http.StatusNotFound, body.Code)
}

func TestCreateProduct(t *testing.T) {
	m := &mockCatalog{product: plainProduct()}
	srv := newServer(m)
	defer srv.Close()

	body := `{"title":"Widget","price":19.99,"gender":"men","sizes":["M"],"images":["a.png"]}`
	resp, err := http.Post(srv.URL+"/api/products", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Widget", m.createIn.Title)
	assert.Equal(t, []string{"a.png"}, m.createIn.Images)
	assert.True(t, decimal.RequireFromString("19.99").Equal(m.createIn.Price))
}

func TestCreateProduct_MissingTitle(t *testing.T) {
	srv := newServer(&mockCatalog{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/products", "application/json",
		strings.NewReader(`{"gender":"men"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateProduct_Conflict(t *testing.T) {
	m := &mockCatalog{err: &catalog.ConflictError{Detail: "Key (title)=(Widget) already exists."}}
	srv := newServer(m)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/products", "application/json",
		strings.NewReader(`{"title":"Widget","gender":"men"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[errorResponse](t, resp)
	assert.Contains(t, body.Message, "already exists")
}

func TestUpdateProduct_ImagePresence(t *testing.T) {
	m := &mockCatalog{product: plainProduct()}
	srv := newServer(m)
	defer srv.Close()

	// Absent images field stays nil: no replacement.
	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/products/p1",
		strings.NewReader(`{"title":"Widget Pro"}`))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, m.updateIn.Images)

	// An explicit empty array clears the image set.
	req, _ = http.NewRequest(http.MethodPatch, srv.URL+"/api/products/p1",
		strings.NewReader(`{"images":[]}`))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, m.updateIn.Images)
	assert.Empty(t, m.updateIn.Images)
	assert.Equal(t, "p1", m.updateID)
}

func TestUpdateProduct_InternalError(t *testing.T) {
	m := &mockCatalog{err: catalog.ErrInternal}
	srv := newServer(m)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/products/p1",
		strings.NewReader(`{}`))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeBody[errorResponse](t, resp)
	assert.NotContains(t, body.Message, "pgx", "storage internals must not leak")
}

func TestDeleteProduct(t *testing.T) {
	m := &mockCatalog{}
	srv := newServer(m)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/products/p1", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "p1", m.removedID)
}
