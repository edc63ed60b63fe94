package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adriajofre19/nidees-artplastic/internal/catalog"
	"github.com/adriajofre19/nidees-artplastic/pkg/database"
	apperrors "github.com/adriajofre19/nidees-artplastic/pkg/errors"
)

// CatalogRepository implements catalog.Lookup using PostgreSQL.
type CatalogRepository struct {
	pool database.DBTX
}

// NewCatalogRepository creates a new PostgreSQL-backed catalog lookup.
func NewCatalogRepository(pool database.DBTX) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// GetProduct retrieves a product by its ID.
func (r *CatalogRepository) GetProduct(ctx context.Context, productID string) (*catalog.Product, error) {
	query := `
		SELECT id, name, price, image_url
		FROM products
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	var p catalog.Product
	err := r.pool.QueryRow(ctx, query, productID).Scan(&p.ID, &p.Name, &p.UnitPrice, &p.ImageURL)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", productID)
		}
		return nil, fmt.Errorf("select product: %w", err)
	}

	return &p, nil
}

// GetProducts resolves a batch of product IDs in one query. IDs the catalog
// no longer knows are absent from the result map.
func (r *CatalogRepository) GetProducts(ctx context.Context, productIDs []string) (map[string]catalog.Product, error) {
	if len(productIDs) == 0 {
		return map[string]catalog.Product{}, nil
	}

	query := `
		SELECT id, name, price, image_url
		FROM products
		WHERE id = ANY($1)`

	ctx, end := database.TraceQuery(ctx, "GetProducts", query)
	rows, err := r.pool.Query(ctx, query, productIDs)
	if err != nil {
		end(err)
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	products := make(map[string]catalog.Product, len(productIDs))
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.UnitPrice, &p.ImageURL); err != nil {
			end(err)
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		end(err)
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	end(nil)

	return products, nil
}
