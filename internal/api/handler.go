// Package api exposes the catalog service over HTTP. It owns only DTO
// shaping and status mapping; all invariants live in the domain service.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/vendra/catalog/internal/domain/catalog"
)

// Catalog is the service surface the handlers depend on.
type Catalog interface {
	Create(ctx context.Context, in catalog.CreateInput) (catalog.PlainProduct, error)
	List(ctx context.Context, page catalog.Page) ([]catalog.PlainProduct, error)
	FindOnePlain(ctx context.Context, term string) (catalog.PlainProduct, error)
	Update(ctx context.Context, id string, in catalog.UpdateInput) (catalog.PlainProduct, error)
	Remove(ctx context.Context, id string) error
}

var _ Catalog = (*catalog.Service)(nil)

// Handler serves the product catalog routes.
type Handler struct {
	svc Catalog
}

// NewHandler constructs a Handler over the catalog service.
func NewHandler(svc Catalog) *Handler {
	return &Handler{svc: svc}
}

// Register attaches the catalog routes to the mux under /api/products.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("POST /api/products", h.createProduct)
	mux.HandleFunc("GET /api/products/{term}", h.getProduct)
	mux.HandleFunc("PATCH /api/products/{id}", h.updateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.deleteProduct)
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Code: status, Message: msg})
}
