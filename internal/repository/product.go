package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/vendra/catalog/internal/domain/catalog"
)

const (
	productColumns = `id, title, price, description, slug, stock, sizes, gender, tags, created_at`

	insertProductSQL = `INSERT INTO products (id, title, price, description, slug, stock, sizes, gender, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductByTermSQL = `SELECT ` + productColumns + ` FROM products
		WHERE LOWER(title) = LOWER($1) OR slug = LOWER($1) LIMIT 1`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		ORDER BY created_at, id LIMIT $1 OFFSET $2`

	saveProductSQL = `UPDATE products SET title = $2, price = $3, description = $4,
		slug = $5, stock = $6, sizes = $7, gender = $8, tags = $9 WHERE id = $1`

	deleteProductSQL     = `DELETE FROM products WHERE id = $1`
	deleteAllProductsSQL = `DELETE FROM products`
)

var _ catalog.ProductStore = (*ProductStore)(nil)

// ProductStore implements catalog.ProductStore backed by PostgreSQL. It
// works against a pool or an open transaction, whichever db it was bound to.
type ProductStore struct {
	db DB
}

// NewProductStore returns a ProductStore bound to the given connection scope.
func NewProductStore(db DB) *ProductStore {
	return &ProductStore{db: db}
}

// Create inserts a new product row.
func (s *ProductStore) Create(ctx context.Context, p *catalog.Product) error {
	_, err := s.db.Exec(ctx, insertProductSQL,
		p.ID, p.Title, p.Price, nullable(p.Description), p.Slug,
		p.Stock, p.Sizes, p.Gender, p.Tags,
	)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.Title, err)
	}
	return nil
}

// GetByID returns a single product with its images, in insertion order.
func (s *ProductStore) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	return s.getOne(ctx, getProductByIDSQL, id)
}

// GetByTerm resolves a term to a product. A term that is syntactically a
// UUID is looked up by id only — a miss is a miss, there is no fallback to
// the title/slug search. Any other term matches the title case-insensitively
// or the slug exactly (slugs are stored lower-cased).
func (s *ProductStore) GetByTerm(ctx context.Context, term string) (*catalog.Product, error) {
	if uuid.Validate(term) == nil {
		return s.getOne(ctx, getProductByIDSQL, term)
	}
	return s.getOne(ctx, getProductByTermSQL, term)
}

func (s *ProductStore) getOne(ctx context.Context, sql, arg string) (*catalog.Product, error) {
	rows, err := s.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", arg, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", arg, err)
	}

	images, err := imagesByProduct(ctx, s.db, []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.Images = images[p.ID]
	return &p, nil
}

// List returns one page of products in insertion order, images included.
func (s *ProductStore) List(ctx context.Context, page catalog.Page) ([]catalog.Product, error) {
	rows, err := s.db.Query(ctx, listProductsSQL, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	if len(products) == 0 {
		return products, nil
	}

	ids := make([]string, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	images, err := imagesByProduct(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Images = images[products[i].ID]
	}
	return products, nil
}

// Save writes every scalar field of an existing row. It returns
// catalog.ErrNotFound when the row has disappeared since preload.
func (s *ProductStore) Save(ctx context.Context, p *catalog.Product) error {
	tag, err := s.db.Exec(ctx, saveProductSQL,
		p.ID, p.Title, p.Price, nullable(p.Description), p.Slug,
		p.Stock, p.Sizes, p.Gender, p.Tags,
	)
	if err != nil {
		return fmt.Errorf("saving product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Delete removes the row. Image rows go away via the FK cascade, so the
// whole removal is atomic at the storage layer without an explicit
// transaction.
func (s *ProductStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// DeleteAll unconditionally removes every product row and reports the count.
func (s *ProductStore) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, deleteAllProductsSQL)
	if err != nil {
		return 0, fmt.Errorf("deleting all products: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p           catalog.Product
		price       decimal.Decimal
		description *string
	)
	err := row.Scan(
		&p.ID, &p.Title, &price, &description, &p.Slug,
		&p.Stock, &p.Sizes, &p.Gender, &p.Tags, &p.CreatedAt,
	)
	p.Price = price
	if description != nil {
		p.Description = *description
	}
	return p, err
}

// nullable maps an empty string to SQL NULL for the description column.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
