package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Service is the public contract of the catalog. It orchestrates the product
// and image stores under a single transaction scope for writes that touch
// both, and translates storage failures into the caller-facing error set.
type Service struct {
	products ProductStore
	images   ImageStore
	tx       TxRunner
	errs     ErrorClassifier
	lg       *zap.Logger
}

// NewService creates a Service with the required storage dependencies.
func NewService(
	products ProductStore,
	images ImageStore,
	tx TxRunner,
	errs ErrorClassifier,
	lg *zap.Logger,
) *Service {
	return &Service{
		products: products,
		images:   images,
		tx:       tx,
		errs:     errs,
		lg:       lg,
	}
}

// Create persists a product together with its initial image set as one unit.
// A violated title or slug constraint surfaces as *ConflictError.
func (s *Service) Create(ctx context.Context, in CreateInput) (PlainProduct, error) {
	p := in.product()

	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return PlainProduct{}, s.storageError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.Products().Create(ctx, p); err != nil {
		return PlainProduct{}, s.storageError(err)
	}
	if len(in.Images) > 0 {
		imgs, err := tx.Images().CreateFor(ctx, p.ID, in.Images)
		if err != nil {
			return PlainProduct{}, s.storageError(err)
		}
		p.Images = imgs
	}
	if err := tx.Commit(ctx); err != nil {
		return PlainProduct{}, s.storageError(err)
	}

	return p.Plain(), nil
}

// List returns one bounded page of products with images flattened to URLs.
func (s *Service) List(ctx context.Context, page Page) ([]PlainProduct, error) {
	products, err := s.products.List(ctx, page.Normalize())
	if err != nil {
		return nil, s.storageError(err)
	}

	out := make([]PlainProduct, len(products))
	for i := range products {
		out[i] = products[i].Plain()
	}
	return out, nil
}

// FindOne resolves a term (UUID, title, or slug) to a product with its full
// image rows. Returns ErrNotFound when nothing matches.
func (s *Service) FindOne(ctx context.Context, term string) (*Product, error) {
	p, err := s.products.GetByTerm(ctx, term)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.storageError(err)
	}
	return p, nil
}

// FindOnePlain is FindOne with the images flattened to URL strings.
func (s *Service) FindOnePlain(ctx context.Context, term string) (PlainProduct, error) {
	p, err := s.FindOne(ctx, term)
	if err != nil {
		return PlainProduct{}, err
	}
	return p.Plain(), nil
}

// Update merges the supplied fields onto the stored row and saves it inside
// a transaction. A supplied image set — even an empty one — replaces the
// whole stored set; deletion happens before re-creation and before commit.
// On any failure the transaction rolls back, leaving no partial state, and
// the resource is released regardless.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (PlainProduct, error) {
	// Preload: merge in memory before anything is written, so a missing id
	// surfaces before the transaction opens.
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return PlainProduct{}, ErrNotFound
		}
		return PlainProduct{}, s.storageError(err)
	}
	in.Apply(p)

	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return PlainProduct{}, s.storageError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if in.Images != nil {
		if err := tx.Images().DeleteAllFor(ctx, id); err != nil {
			return PlainProduct{}, s.storageError(err)
		}
		imgs, err := tx.Images().CreateFor(ctx, id, in.Images)
		if err != nil {
			return PlainProduct{}, s.storageError(err)
		}
		p.Images = imgs
	}

	if err := tx.Products().Save(ctx, p); err != nil {
		return PlainProduct{}, s.storageError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return PlainProduct{}, s.storageError(err)
	}

	// Fresh read rather than the in-memory row, so store-applied defaults
	// are reflected.
	cur, err := s.products.GetByID(ctx, id)
	if err != nil {
		return PlainProduct{}, s.storageError(err)
	}
	return cur.Plain(), nil
}

// Remove deletes a product and, via cascade, all of its images. The lookup
// runs first so a missing product surfaces as ErrNotFound before any delete
// is attempted.
func (s *Service) Remove(ctx context.Context, id string) error {
	p, err := s.FindOne(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, p.ID); err != nil {
		return s.storageError(err)
	}
	return nil
}

// DeleteAllProducts wipes the whole catalog and reports the number of
// products removed. Confirmation gating belongs to the caller.
func (s *Service) DeleteAllProducts(ctx context.Context) (int64, error) {
	count, err := s.products.DeleteAll(ctx)
	if err != nil {
		return 0, s.storageError(err)
	}
	return count, nil
}

// storageError is the single classification point for storage failures.
// Uniqueness violations become *ConflictError with the constraint detail;
// everything else is logged in full and surfaced as the opaque ErrInternal.
func (s *Service) storageError(err error) error {
	if detail, ok := s.errs.UniqueViolation(err); ok {
		return &ConflictError{Detail: detail}
	}
	s.lg.Error("unexpected storage error", zap.Error(err))
	return ErrInternal
}
