package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/vendra/catalog/internal/domain/catalog"
)

// productResponse is the wire shape of a plain product projection.
type productResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Description string   `json:"description,omitempty"`
	Slug        string   `json:"slug"`
	Stock       int      `json:"stock"`
	Sizes       []string `json:"sizes"`
	Gender      string   `json:"gender"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
}

func toProductResponse(p catalog.PlainProduct) productResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return productResponse{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price.InexactFloat64(),
		Description: p.Description,
		Slug:        p.Slug,
		Stock:       p.Stock,
		Sizes:       p.Sizes,
		Gender:      p.Gender,
		Tags:        p.Tags,
		Images:      images,
	}
}

// createProductRequest mirrors CreateInput; images are plain URLs.
type createProductRequest struct {
	Title       string   `json:"title"`
	Price       *float64 `json:"price"`
	Description string   `json:"description"`
	Slug        string   `json:"slug"`
	Stock       *int     `json:"stock"`
	Sizes       []string `json:"sizes"`
	Gender      string   `json:"gender"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
}

// updateProductRequest carries a partial update; absent fields stay nil.
type updateProductRequest struct {
	Title       *string  `json:"title"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Slug        *string  `json:"slug"`
	Stock       *int     `json:"stock"`
	Sizes       []string `json:"sizes"`
	Gender      *string  `json:"gender"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, ok := pageFromQuery(w, r)
	if !ok {
		return
	}

	products, err := h.svc.List(r.Context(), page)
	if err != nil {
		h.mapError(w, r, err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.FindOnePlain(r.Context(), r.PathValue("term"))
	if err != nil {
		h.mapError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProductResponse(p))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}
	if req.Gender == "" {
		writeError(w, r, http.StatusBadRequest, "gender is required")
		return
	}
	if req.Price != nil && *req.Price < 0 {
		writeError(w, r, http.StatusBadRequest, "price must not be negative")
		return
	}
	if req.Stock != nil && *req.Stock < 0 {
		writeError(w, r, http.StatusBadRequest, "stock must not be negative")
		return
	}

	in := catalog.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Slug:        req.Slug,
		Sizes:       req.Sizes,
		Gender:      req.Gender,
		Tags:        req.Tags,
		Images:      req.Images,
	}
	if req.Price != nil {
		in.Price = decimal.NewFromFloat(*req.Price)
	}
	if req.Stock != nil {
		in.Stock = *req.Stock
	}

	p, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.mapError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toProductResponse(p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Price != nil && *req.Price < 0 {
		writeError(w, r, http.StatusBadRequest, "price must not be negative")
		return
	}
	if req.Stock != nil && *req.Stock < 0 {
		writeError(w, r, http.StatusBadRequest, "stock must not be negative")
		return
	}

	in := catalog.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Slug:        req.Slug,
		Stock:       req.Stock,
		Sizes:       req.Sizes,
		Gender:      req.Gender,
		Tags:        req.Tags,
		Images:      req.Images,
	}
	if req.Price != nil {
		price := decimal.NewFromFloat(*req.Price)
		in.Price = &price
	}

	p, err := h.svc.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.mapError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toProductResponse(p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Remove(r.Context(), r.PathValue("id")); err != nil {
		h.mapError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mapError converts domain errors to HTTP responses. Conflicts surface their
// constraint detail; internal failures stay opaque.
func (h *Handler) mapError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *catalog.ConflictError
	switch {
	case errors.As(err, &conflict):
		writeError(w, r, http.StatusBadRequest, conflict.Detail)
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "product not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "unexpected error, check server logs")
	}
}

func pageFromQuery(w http.ResponseWriter, r *http.Request) (catalog.Page, bool) {
	var page catalog.Page
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return page, false
		}
		page.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "offset must be a non-negative integer")
			return page, false
		}
		page.Offset = n
	}
	return page, true
}
