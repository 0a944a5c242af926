// Command seed-catalog wipes the catalog and loads the seed products,
// images included, through the same write path the API uses.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vendra/catalog/internal/domain/catalog"
	"github.com/vendra/catalog/internal/repository"
)

type productJSON struct {
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Slug        string          `json:"slug"`
	Stock       int             `json:"stock"`
	Sizes       []string        `json:"sizes"`
	Gender      string          `json:"gender"`
	Tags        []string        `json:"tags"`
	Images      []string        `json:"images"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		confirmed    bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.BoolVar(&confirmed, "yes", false, "confirm wiping all existing products")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if !confirmed {
		slog.Error("seeding deletes every existing product; re-run with --yes to confirm")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	svc := catalog.NewService(
		repository.NewProductStore(pool),
		repository.NewImageStore(pool),
		repository.NewTxRunner(pool),
		repository.Classifier{},
		zap.NewNop(),
	)

	deleted, err := svc.DeleteAllProducts(ctx)
	if err != nil {
		return errors.Wrap(err, "delete existing products")
	}
	slog.Info("wiped existing products", slog.Int64("deleted", deleted))

	return seedProducts(ctx, svc, productsFile)
}

func seedProducts(ctx context.Context, svc *catalog.Service, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("creating products", slog.Int("count", len(products)))

	for _, p := range products {
		created, err := svc.Create(ctx, catalog.CreateInput{
			Title:       p.Title,
			Price:       p.Price,
			Description: p.Description,
			Slug:        p.Slug,
			Stock:       p.Stock,
			Sizes:       p.Sizes,
			Gender:      p.Gender,
			Tags:        p.Tags,
			Images:      p.Images,
		})
		if err != nil {
			return errors.Wrapf(err, "create product %q", p.Title)
		}

		slog.Info("created product",
			slog.String("id", created.ID),
			slog.String("slug", created.Slug),
			slog.Int("images", len(created.Images)),
		)
	}

	return nil
}
