package catalog

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors surfaced to callers.
var (
	// ErrNotFound is returned when a lookup by id or term matches no product.
	ErrNotFound = errors.New("product not found")

	// ErrInternal is the opaque failure for storage errors the service does
	// not recognize. The original error is logged, never surfaced.
	ErrInternal = errors.New("unexpected error, check server logs")
)

// ConflictError reports a violated uniqueness constraint (title or slug).
// Detail carries the constraint violation detail from the storage engine.
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Detail)
}
