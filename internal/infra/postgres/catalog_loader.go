package postgres

import (
	"context"
	"fmt"

	"city-quiz-service/internal/catalog"
	"city-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader loads catalog rows from Postgres in their stored order.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadCatalog(ctx context.Context, catalogID string) (*catalog.Catalog, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT name, description, map_ref FROM cities WHERE catalog_id=$1 ORDER BY position`, catalogID)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	var cities []domain.City
	for rows.Next() {
		var city domain.City
		if err := rows.Scan(&city.Name, &city.Description, &city.MapRef); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, city)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if len(cities) == 0 {
		return nil, fmt.Errorf("%q: %w", catalogID, domain.ErrCatalogNotFound)
	}
	return catalog.New(catalogID, cities)
}
