// Package catalog holds the product catalog entities, the service that
// orchestrates them, and the storage ports the service depends on.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog item together with its owned image rows.
// Title and Slug are unique across the whole catalog.
type Product struct {
	ID          string
	Title       string
	Price       decimal.Decimal
	Description string
	Slug        string
	Stock       int
	Sizes       []string
	Gender      string
	Tags        []string
	Images      []Image
	CreatedAt   time.Time
}

// Image is a single image row owned by a product. Rows keep insertion
// order; there is no explicit position field.
type Image struct {
	ID  int64
	URL string
}

// PlainProduct is the projection of a Product where the image relation is
// flattened to the URL strings.
type PlainProduct struct {
	ID          string
	Title       string
	Price       decimal.Decimal
	Description string
	Slug        string
	Stock       int
	Sizes       []string
	Gender      string
	Tags        []string
	Images      []string
}

// Plain flattens the product's images to their URLs.
func (p *Product) Plain() PlainProduct {
	urls := make([]string, len(p.Images))
	for i, img := range p.Images {
		urls[i] = img.URL
	}
	return PlainProduct{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		Slug:        p.Slug,
		Stock:       p.Stock,
		Sizes:       p.Sizes,
		Gender:      p.Gender,
		Tags:        p.Tags,
		Images:      urls,
	}
}

// CreateInput carries the already-validated attributes for a new product.
// Images holds plain URLs; the rows are created together with the product.
type CreateInput struct {
	Title       string
	Price       decimal.Decimal
	Description string
	Slug        string
	Stock       int
	Sizes       []string
	Gender      string
	Tags        []string
	Images      []string
}

// product builds the entity to persist. The slug defaults to the title when
// absent and is normalized either way. Nil slices become empty ones so they
// never reach the NOT NULL array columns as NULL.
func (in CreateInput) product() *Product {
	slug := in.Slug
	if slug == "" {
		slug = in.Title
	}
	sizes := in.Sizes
	if sizes == nil {
		sizes = []string{}
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	return &Product{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Price:       in.Price,
		Description: in.Description,
		Slug:        NormalizeSlug(slug),
		Stock:       in.Stock,
		Sizes:       sizes,
		Gender:      in.Gender,
		Tags:        tags,
	}
}

// UpdateInput carries a partial update. Nil pointer fields and nil slices
// are absent. Images is special: a non-nil slice, even empty, replaces the
// whole image set; nil leaves the images untouched.
type UpdateInput struct {
	Title       *string
	Price       *decimal.Decimal
	Description *string
	Slug        *string
	Stock       *int
	Sizes       []string
	Gender      *string
	Tags        []string
	Images      []string
}

// Apply merges the supplied fields onto p in memory, re-normalizing the slug
// when one is supplied. Images are handled by the update transaction, not
// here.
func (in UpdateInput) Apply(p *Product) {
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Slug != nil {
		p.Slug = NormalizeSlug(*in.Slug)
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Sizes != nil {
		p.Sizes = in.Sizes
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.Tags != nil {
		p.Tags = in.Tags
	}
}

const (
	// DefaultLimit bounds a listing page when the caller omits a limit.
	DefaultLimit = 10
)

// Page is a bounded listing window. Zero values fall back to the defaults,
// so the store never returns unbounded results.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page to its defaults.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
