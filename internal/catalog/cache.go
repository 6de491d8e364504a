package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/kleankickx/storefront-api/internal/domain"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

var ErrNotCached = errors.New("service not in local catalog cache")

// Cache is a local sqlite read model of the backend service catalog.
// Successful lookups refresh it; when the backend is unreachable it
// answers with the last known entry so the storefront can still render.
type Cache struct {
	db *sql.DB
}

func NewCache(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Cache{db: db}, nil
}

func (c *Cache) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(c.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (c *Cache) Get(ctx context.Context, id string) (*domain.Service, error) {
	query := `
		SELECT id, name, description, price, image_url, is_bundle, fetched_at
		FROM services
		WHERE id = $1
	`

	row := c.db.QueryRowContext(ctx, query, id)

	var (
		svc       domain.Service
		price     string
		isBundle  int
		fetchedAt time.Time
	)
	err := row.Scan(&svc.ID, &svc.Name, &svc.Description, &price, &svc.ImageURL, &isBundle, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan service: %w", err)
	}

	svc.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cached price: %w", err)
	}
	svc.IsBundle = isBundle != 0
	svc.CreatedAt = fetchedAt

	return &svc, nil
}

func (c *Cache) Put(ctx context.Context, svc domain.Service) error {
	query := `
		INSERT INTO services (id, name, description, price, image_url, is_bundle, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			price = excluded.price,
			image_url = excluded.image_url,
			is_bundle = excluded.is_bundle,
			fetched_at = excluded.fetched_at
	`

	isBundle := 0
	if svc.IsBundle {
		isBundle = 1
	}

	_, err := c.db.ExecContext(ctx, query,
		svc.ID, svc.Name, svc.Description, svc.Price.String(), svc.ImageURL, isBundle, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert service: %w", err)
	}

	return nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}
