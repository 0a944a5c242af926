package catalog

import "context"

// ProductStore defines persistence operations for product rows. Lookups
// return ErrNotFound when no row matches; every other failure is the
// storage adapter's raw error, classified once by the Service.
type ProductStore interface {
	// Create inserts a new product row. Image rows are owned by ImageStore.
	Create(ctx context.Context, p *Product) error

	// GetByID returns the product with the given identifier, images included.
	GetByID(ctx context.Context, id string) (*Product, error)

	// GetByTerm resolves a caller-supplied term: a syntactically valid UUID
	// is looked up by id (no fallback when absent), anything else matches
	// title case-insensitively or slug exactly (term lower-cased).
	GetByTerm(ctx context.Context, term string) (*Product, error)

	// List returns one bounded page of products in insertion order.
	List(ctx context.Context, page Page) ([]Product, error)

	// Save writes every scalar field of an existing row.
	Save(ctx context.Context, p *Product) error

	// Delete removes the row; its images go away via cascade.
	Delete(ctx context.Context, id string) error

	// DeleteAll unconditionally removes every product row and reports how
	// many were removed. Gating belongs to the caller.
	DeleteAll(ctx context.Context) (int64, error)
}

// ImageStore defines persistence operations for image rows scoped to one
// product.
type ImageStore interface {
	// CreateFor inserts one row per URL, preserving order, and returns the
	// created rows.
	CreateFor(ctx context.Context, productID string, urls []string) ([]Image, error)

	// DeleteAllFor removes every image row owned by the product.
	DeleteAllFor(ctx context.Context, productID string) error
}

// Tx is a single storage transaction. The stores it hands out are bound to
// the transaction scope; nothing they write is visible until Commit.
// Rollback after Commit is a no-op, so `defer tx.Rollback(ctx)` releases the
// resource on every exit path.
type Tx interface {
	Products() ProductStore
	Images() ImageStore
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxRunner opens transaction scopes for writes that touch both stores.
type TxRunner interface {
	Begin(ctx context.Context) (Tx, error)
}

// ErrorClassifier lets the service translate storage failures without
// knowing the storage engine. Uniqueness violations are detected from the
// error itself, never by pre-checking existence.
type ErrorClassifier interface {
	// UniqueViolation reports whether err is a uniqueness constraint
	// violation and returns the constraint detail when it is.
	UniqueViolation(err error) (detail string, ok bool)
}
