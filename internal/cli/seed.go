package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"city-quiz-service/internal/catalog"
	"city-quiz-service/internal/infra/postgres"
)

// NewSeedCmd writes a catalog into Postgres so the server can load it from there.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store the city catalog in Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if file == "" {
				file = cfg.Catalog.File
			}
			c, err := readCatalog(cfg.Catalog.ID, file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
				return err
			}
			db := postgres.OpenBun(cfg.Postgres.URL)
			defer db.Close()
			if err := postgres.Seed(ctx, db, c); err != nil {
				return err
			}
			logger.Info().Str("catalog", c.ID()).Int("cities", c.Len()).Msg("catalog seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON catalog to seed instead of the embedded one")
	return cmd
}

// readCatalog decodes file under id, or returns the embedded catalog when file is empty.
func readCatalog(id, file string) (*catalog.Catalog, error) {
	if file == "" {
		c, err := catalog.Embedded()
		if err != nil {
			return nil, err
		}
		if id == "" || id == c.ID() {
			return c, nil
		}
		return catalog.New(id, c.Cities())
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if id == "" {
		id = catalog.DefaultID
	}
	return catalog.Decode(id, f)
}
