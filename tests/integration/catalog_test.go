//go:build integration

package integration

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/vendra/catalog/internal/domain/catalog"
	"github.com/vendra/catalog/internal/repository"
)

var pool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "catalog",
				"POSTGRES_PASSWORD": "catalog",
				"POSTGRES_DB":       "catalog",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := container.Terminate(context.Background()); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	url := fmt.Sprintf("postgres://catalog:catalog@%s:%s/catalog?sslmode=disable", host, port.Port())

	pool, err = repository.NewPool(ctx, url)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	return m.Run()
}

func newService(t *testing.T) *catalog.Service {
	t.Helper()

	svc := catalog.NewService(
		repository.NewProductStore(pool),
		repository.NewImageStore(pool),
		repository.NewTxRunner(pool),
		repository.Classifier{},
		zaptest.NewLogger(t),
	)

	t.Cleanup(func() {
		if _, err := svc.DeleteAllProducts(context.Background()); err != nil {
			t.Errorf("cleanup: %v", err)
		}
	})
	return svc
}

func createProduct(t *testing.T, svc *catalog.Service, in catalog.CreateInput) catalog.PlainProduct {
	t.Helper()
	p, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	return p
}

func TestCreateAndFind(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created := createProduct(t, svc, catalog.CreateInput{
		Title:  "Men's Hat",
		Price:  decimal.RequireFromString("24.50"),
		Gender: "men",
		Sizes:  []string{"M", "L"},
		Images: []string{"hat-front.png", "hat-back.png"},
	})
	assert.Equal(t, "mens_hat", created.Slug)
	assert.Equal(t, []string{"hat-front.png", "hat-back.png"}, created.Images)
	assert.True(t, decimal.RequireFromString("24.50").Equal(created.Price),
		"numeric price must round-trip exactly, got %s", created.Price)

	t.Run("by id", func(t *testing.T) {
		got, err := svc.FindOnePlain(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("by slug", func(t *testing.T) {
		got, err := svc.FindOnePlain(ctx, "mens_hat")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("by title case insensitive", func(t *testing.T) {
		for _, term := range []string{"Men's Hat", "MEN'S HAT", "men's hat"} {
			got, err := svc.FindOnePlain(ctx, term)
			require.NoError(t, err, "term %q", term)
			assert.Equal(t, created.ID, got.ID)
		}
	})

	t.Run("unknown term", func(t *testing.T) {
		_, err := svc.FindOnePlain(ctx, "mens hat")
		assert.ErrorIs(t, err, catalog.ErrNotFound,
			"the raw spelling matches neither the title nor the slug")
	})

	t.Run("uuid shaped term never falls back", func(t *testing.T) {
		_, err := svc.FindOnePlain(ctx, "00000000-0000-4000-8000-000000000000")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})
}

func TestCreateAndFind_TitleLookup(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created := createProduct(t, svc, catalog.CreateInput{
		Title:  "Blue Shirt",
		Gender: "men",
	})

	for _, term := range []string{"Blue Shirt", "blue shirt", "BLUE SHIRT", "blue_shirt"} {
		got, err := svc.FindOnePlain(ctx, term)
		require.NoError(t, err, "term %q", term)
		assert.Equal(t, created.ID, got.ID)
	}
}

func TestDuplicateTitleConflict(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	createProduct(t, svc, catalog.CreateInput{Title: "Widget", Gender: "men"})

	_, err := svc.Create(ctx, catalog.CreateInput{
		Title:  "Widget",
		Slug:   "widget-2",
		Gender: "men",
	})
	var conflict *catalog.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Detail, "Widget")

	// The failed insert must not leave a partial row behind.
	list, err := svc.List(ctx, catalog.Page{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpdate_ImageReplacement(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created := createProduct(t, svc, catalog.CreateInput{
		Title:  "Jacket",
		Gender: "women",
		Images: []string{"old-1.png", "old-2.png", "old-3.png"},
	})

	t.Run("scalar update leaves images and slug alone", func(t *testing.T) {
		title := "Winter Jacket"
		got, err := svc.Update(ctx, created.ID, catalog.UpdateInput{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Winter Jacket", got.Title)
		assert.Equal(t, "jacket", got.Slug, "the stored slug is not re-derived from the title")
		assert.Equal(t, []string{"old-1.png", "old-2.png", "old-3.png"}, got.Images)
	})

	t.Run("supplied slug is normalized", func(t *testing.T) {
		slug := "Winter Jacket"
		got, err := svc.Update(ctx, created.ID, catalog.UpdateInput{Slug: &slug})
		require.NoError(t, err)
		assert.Equal(t, "winter_jacket", got.Slug)
	})

	t.Run("new set replaces the old one exactly", func(t *testing.T) {
		got, err := svc.Update(ctx, created.ID, catalog.UpdateInput{
			Images: []string{"new-1.png"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"new-1.png"}, got.Images)
	})

	t.Run("empty set clears", func(t *testing.T) {
		got, err := svc.Update(ctx, created.ID, catalog.UpdateInput{
			Images: []string{},
		})
		require.NoError(t, err)
		assert.Empty(t, got.Images)
	})
}

func TestUpdate_SlugConflictRollsBack(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	createProduct(t, svc, catalog.CreateInput{Title: "First", Gender: "men"})
	second := createProduct(t, svc, catalog.CreateInput{
		Title:  "Second",
		Gender: "men",
		Images: []string{"second.png"},
	})

	slug := "first"
	_, err := svc.Update(ctx, second.ID, catalog.UpdateInput{
		Slug:   &slug,
		Images: []string{"replacement.png"},
	})
	var conflict *catalog.ConflictError
	require.ErrorAs(t, err, &conflict)

	// The image replacement ran inside the same transaction, so the old set
	// must survive the rollback.
	got, err := svc.FindOnePlain(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Slug)
	assert.Equal(t, []string{"second.png"}, got.Images)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newService(t)

	title := "Ghost"
	_, err := svc.Update(context.Background(), "00000000-0000-4000-8000-000000000000",
		catalog.UpdateInput{Title: &title})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestList_Pagination(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		createProduct(t, svc, catalog.CreateInput{Title: title, Gender: "unisex"})
	}

	page, err := svc.List(ctx, catalog.Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Beta", page[0].Title, "insertion order is stable")

	rest, err := svc.List(ctx, catalog.Page{Limit: 10, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "Gamma", rest[0].Title)
}

func TestRemove_CascadesImages(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created := createProduct(t, svc, catalog.CreateInput{
		Title:  "Doomed",
		Gender: "kid",
		Images: []string{"a.png", "b.png"},
	})

	require.NoError(t, svc.Remove(ctx, created.ID))

	_, err := svc.FindOnePlain(ctx, created.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	var orphans int
	err = pool.QueryRow(ctx, "SELECT COUNT(*) FROM product_images WHERE product_id = $1",
		created.ID).Scan(&orphans)
	require.NoError(t, err)
	assert.Zero(t, orphans, "deleting a product must cascade to its images")

	assert.ErrorIs(t, svc.Remove(ctx, created.ID), catalog.ErrNotFound)
}

func TestDeleteAllProducts(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	createProduct(t, svc, catalog.CreateInput{Title: "One", Gender: "men"})
	createProduct(t, svc, catalog.CreateInput{Title: "Two", Gender: "men"})

	n, err := svc.DeleteAllProducts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	list, err := svc.List(ctx, catalog.Page{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, list)
}
