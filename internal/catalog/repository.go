package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Catalog is the read-only product lookup the API serves from.
type Catalog interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	CategoryByID(ctx context.Context, id string) (*domain.Category, error)
	Products(ctx context.Context) ([]domain.Product, error)
	ProductByID(ctx context.Context, id string) (*domain.Product, error)
	ProductsByCategory(ctx context.Context, categoryID string) ([]domain.Product, error)
	Search(ctx context.Context, query string) ([]domain.Product, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every :memory: connection is a separate database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

const productColumns = `
	SELECT id, name, price, category_id, description, image_url,
	       is_on_sale, original_price, rating, review_count
	FROM products`

func (r *Repository) Categories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return categories, nil
}

func (r *Repository) CategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &c, nil
}

func (r *Repository) Products(ctx context.Context) ([]domain.Product, error) {
	return r.queryProducts(ctx, productColumns+` ORDER BY position`)
}

func (r *Repository) ProductsByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	return r.queryProducts(ctx, productColumns+` WHERE category_id = ? ORDER BY position`, categoryID)
}

func (r *Repository) ProductByID(ctx context.Context, id string) (*domain.Product, error) {
	products, err := r.queryProducts(ctx, productColumns+` WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrProductNotFound
	}
	return &products[0], nil
}

func (r *Repository) Search(ctx context.Context, query string) ([]domain.Product, error) {
	products, err := r.Products(ctx)
	if err != nil {
		return nil, err
	}
	return Search(products, query), nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var (
			p             domain.Product
			price         string
			originalPrice sql.NullString
		)
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&price,
			&p.Category,
			&p.Description,
			&p.ImageURL,
			&p.IsOnSale,
			&originalPrice,
			&p.Rating,
			&p.ReviewCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}

		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("product %s has invalid price: %w", p.ID, err)
		}
		if originalPrice.Valid {
			op, err := decimal.NewFromString(originalPrice.String)
			if err != nil {
				return nil, fmt.Errorf("product %s has invalid original price: %w", p.ID, err)
			}
			p.OriginalPrice = &op
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}
