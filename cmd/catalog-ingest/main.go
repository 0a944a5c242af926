// Command catalog-ingest bulk-imports product dumps into the catalog. Each
// input file is a gzip-compressed JSONL stream, one product per line. Slugs
// already seen — in the input or in an earlier file — are skipped up front
// via a bloom filter; slugs already present in the database from earlier
// runs are rejected by the unique constraint and counted, not fatal.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vendra/catalog/internal/domain/catalog"
	"github.com/vendra/catalog/internal/repository"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000
)

// fileResult holds the products parsed from a single input file.
type fileResult struct {
	path     string
	products []catalog.CreateInput
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		slog.Error("no input files: pass one or more products.jsonl.gz paths")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, flag.Args()); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Pass 1: parse all files concurrently.
	slog.Info("pass 1: parsing input files", slog.Int("files", len(files)))

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(parseFile(gctx, i, f, results))
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "parse input files")
	}

	// Pass 2: dedupe by slug and write through the service.
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

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

	return writeProducts(ctx, svc, results)
}

// parseFile streams one gzip-compressed JSONL file into results[idx].
func parseFile(ctx context.Context, idx int, path string, results []fileResult) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		var (
			products []catalog.CreateInput
			line     uint64
		)
		scanner := bufio.NewScanner(gz)
		scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				return err
			}
			line++

			if len(scanner.Bytes()) == 0 {
				continue
			}
			in, err := decodeProduct(scanner.Bytes())
			if err != nil {
				return errors.Wrapf(err, "%s line %d", path, line)
			}
			products = append(products, in)

			if line%progressEvery == 0 {
				slog.Info("parse progress", slog.String("file", path), slog.Uint64("lines", line))
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("parsed file", slog.String("file", path), slog.Int("products", len(products)))

		results[idx] = fileResult{path: path, products: products}
		return nil
	}
}

// decodeProduct parses a single JSONL line.
func decodeProduct(data []byte) (catalog.CreateInput, error) {
	var in catalog.CreateInput

	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "title":
			v, err := d.Str()
			in.Title = v
			return err
		case "price":
			raw, err := d.Num()
			if err != nil {
				return err
			}
			price, err := decimal.NewFromString(raw.String())
			in.Price = price
			return err
		case "description":
			v, err := d.Str()
			in.Description = v
			return err
		case "slug":
			v, err := d.Str()
			in.Slug = v
			return err
		case "stock":
			v, err := d.Int()
			in.Stock = v
			return err
		case "sizes":
			return decodeStrings(d, &in.Sizes)
		case "gender":
			v, err := d.Str()
			in.Gender = v
			return err
		case "tags":
			return decodeStrings(d, &in.Tags)
		case "images":
			return decodeStrings(d, &in.Images)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return in, err
	}
	if in.Title == "" {
		return in, errors.New("missing title")
	}
	return in, nil
}

func decodeStrings(d *jx.Decoder, out *[]string) error {
	return d.Arr(func(d *jx.Decoder) error {
		v, err := d.Str()
		if err != nil {
			return err
		}
		*out = append(*out, v)
		return nil
	})
}

// writeProducts creates every parsed product, skipping duplicate slugs.
func writeProducts(ctx context.Context, svc *catalog.Service, results []fileResult) error {
	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

	var created, skipped, conflicts int
	for _, r := range results {
		for _, in := range r.products {
			slug := in.Slug
			if slug == "" {
				slug = in.Title
			}
			slug = catalog.NormalizeSlug(slug)

			if seen.TestOrAddString(slug) {
				skipped++
				continue
			}

			if _, err := svc.Create(ctx, in); err != nil {
				var conflict *catalog.ConflictError
				if errors.As(err, &conflict) {
					conflicts++
					continue
				}
				return errors.Wrapf(err, "create product %q", in.Title)
			}
			created++

			if created%progressEvery == 0 {
				slog.Info("write progress", slog.Int("created", created))
			}
		}
	}

	slog.Info("ingest summary",
		slog.Int("created", created),
		slog.Int("skipped_duplicate_slug", skipped),
		slog.Int("conflicts", conflicts),
	)

	return nil
}
