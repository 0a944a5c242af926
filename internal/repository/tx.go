package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendra/catalog/internal/domain/catalog"
)

var (
	_ catalog.TxRunner = (*TxRunner)(nil)
	_ catalog.Tx       = (*tx)(nil)
)

// TxRunner implements catalog.TxRunner on a pgx connection pool.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner returns a TxRunner that opens transactions on the given pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Begin opens a transaction and returns stores bound to it. The caller owns
// the scope exclusively and must release it exactly once; deferring Rollback
// is safe because rolling back a committed transaction is a no-op.
func (r *TxRunner) Begin(ctx context.Context) (catalog.Tx, error) {
	pgxTx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &tx{
		tx:       pgxTx,
		products: NewProductStore(pgxTx),
		images:   NewImageStore(pgxTx),
	}, nil
}

type tx struct {
	tx       pgx.Tx
	products *ProductStore
	images   *ImageStore
}

func (t *tx) Products() catalog.ProductStore { return t.products }
func (t *tx) Images() catalog.ImageStore     { return t.images }

func (t *tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
