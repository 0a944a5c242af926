package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vendra/catalog/internal/domain/catalog"
)

const (
	insertImageSQL = `INSERT INTO product_images (product_id, url) VALUES ($1, $2) RETURNING id`

	imagesByProductSQL = `SELECT product_id, id, url FROM product_images
		WHERE product_id = ANY($1) ORDER BY id`

	deleteImagesForSQL = `DELETE FROM product_images WHERE product_id = $1`
)

var _ catalog.ImageStore = (*ImageStore)(nil)

// ImageStore implements catalog.ImageStore backed by PostgreSQL. Bound to a
// transaction scope it composes with ProductStore writes.
type ImageStore struct {
	db DB
}

// NewImageStore returns an ImageStore bound to the given connection scope.
func NewImageStore(db DB) *ImageStore {
	return &ImageStore{db: db}
}

// CreateFor inserts one image row per URL in a single round trip, preserving
// the supplied order, and returns the created rows.
func (s *ImageStore) CreateFor(ctx context.Context, productID string, urls []string) ([]catalog.Image, error) {
	if len(urls) == 0 {
		return []catalog.Image{}, nil
	}

	batch := &pgx.Batch{}
	for _, url := range urls {
		batch.Queue(insertImageSQL, productID, url)
	}

	images := make([]catalog.Image, len(urls))
	results := s.db.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for i, url := range urls {
		if err := results.QueryRow().Scan(&images[i].ID); err != nil {
			return nil, fmt.Errorf("creating image for product %q: %w", productID, err)
		}
		images[i].URL = url
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("creating images for product %q: %w", productID, err)
	}
	return images, nil
}

// DeleteAllFor removes every image row owned by the product.
func (s *ImageStore) DeleteAllFor(ctx context.Context, productID string) error {
	if _, err := s.db.Exec(ctx, deleteImagesForSQL, productID); err != nil {
		return fmt.Errorf("deleting images for product %q: %w", productID, err)
	}
	return nil
}

// imagesByProduct loads the image rows for the given products in insertion
// order, grouped by owning product id.
func imagesByProduct(ctx context.Context, db DB, productIDs []string) (map[string][]catalog.Image, error) {
	rows, err := db.Query(ctx, imagesByProductSQL, productIDs)
	if err != nil {
		return nil, fmt.Errorf("loading product images: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]catalog.Image, len(productIDs))
	for rows.Next() {
		var (
			productID string
			img       catalog.Image
		)
		if err := rows.Scan(&productID, &img.ID, &img.URL); err != nil {
			return nil, fmt.Errorf("scanning product image: %w", err)
		}
		out[productID] = append(out[productID], img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading product images: %w", err)
	}
	return out, nil
}
