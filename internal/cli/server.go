package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"city-quiz-service/internal/app"
	"city-quiz-service/internal/config"
	"city-quiz-service/internal/domain"
	"city-quiz-service/internal/infra/memory"
	"city-quiz-service/internal/infra/postgres"
	redisinfra "city-quiz-service/internal/infra/redis"
	transport "city-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode, err := domain.ParseMode(cfg.Quiz.Mode)
	if err != nil {
		return err
	}
	difficulty, err := domain.ParseDifficulty(cfg.Quiz.Difficulty)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	checks := map[string]transport.Checker{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		checks["redis"] = transport.CheckerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		checks["postgres"] = transport.CheckerFunc(pool.Ping)
	}

	loader, err := newCatalogLoader(cfg, pool)
	if err != nil {
		return err
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalogs app.CatalogRepository
	if redisClient != nil {
		catalogs = redisinfra.NewCatalogRepository(redisClient, loader, catalogTTL)
	} else {
		catalogs = memory.NewCatalogRepository(loader, catalogTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		idleTTL := config.TTLDuration(cfg.Quiz.IdleTTL, 30*time.Minute)
		store = redisinfra.NewSessionStore(redisClient, idleTTL)
	} else {
		store = memory.NewSessionStore()
	}

	service := app.NewQuizService(store, catalogs, app.Options{
		CatalogID:  cfg.Catalog.ID,
		Mode:       mode,
		Difficulty: difficulty,
		Logger:     &logger,
	})
	// Fail fast on a catalog that cannot be loaded or is too small to play.
	if _, err := service.Cities(ctx); err != nil {
		return err
	}

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(service, transport.NewWSHandler(service, logger), checks, logger, cfg.Server.AllowedOrigins...),
		ReadTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Str("catalog", cfg.Catalog.ID).Msg("starting city quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newCatalogLoader prefers Postgres, then a JSON file, then the embedded catalog.
func newCatalogLoader(cfg config.Config, pool *pgxpool.Pool) (memory.CatalogLoader, error) {
	switch {
	case pool != nil:
		return postgres.NewCatalogLoader(pool), nil
	case cfg.Catalog.File != "":
		return memory.NewFileCatalogLoader(cfg.Catalog.File), nil
	}
	c, err := readCatalog(cfg.Catalog.ID, "")
	if err != nil {
		return nil, err
	}
	return memory.NewStaticCatalogLoader(c), nil
}
