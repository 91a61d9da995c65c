package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"city-quiz-service/internal/catalog"
	"city-quiz-service/internal/infra/postgres/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

type cityRow struct {
	bun.BaseModel `bun:"table:cities"`

	CatalogID   string `bun:"catalog_id,pk"`
	Name        string `bun:"name,pk"`
	Position    int    `bun:"position,notnull"`
	Description string `bun:"description,notnull"`
	MapRef      string `bun:"map_ref,notnull"`
}

// OpenBun opens a bun handle over the pgdriver connector.
func OpenBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Migrate applies every pending schema migration.
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, err
	}
	return migrator.Migrate(ctx)
}

// Seed replaces the stored rows of c's catalog id with c, keeping its order.
func Seed(ctx context.Context, db *bun.DB, c *catalog.Catalog) error {
	rows := make([]cityRow, 0, c.Len())
	for i, city := range c.All() {
		rows = append(rows, cityRow{
			CatalogID:   c.ID(),
			Name:        city.Name,
			Position:    i,
			Description: city.Description,
			MapRef:      city.MapRef,
		})
	}

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*cityRow)(nil)).
			Where("catalog_id = ?", c.ID()).
			Exec(ctx); err != nil {
			return fmt.Errorf("clear catalog %q: %w", c.ID(), err)
		}
		if len(rows) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert catalog %q: %w", c.ID(), err)
		}
		return nil
	})
}
