package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/medbook/backend/internal/adapters/database"
	"github.com/medbook/backend/internal/application/services"
	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/internal/infrastructure/clients/embedding"
	"github.com/medbook/backend/internal/infrastructure/clients/postgres"
	"github.com/medbook/backend/internal/infrastructure/observability"
	"github.com/medbook/backend/pkg/config"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "backfill",
		Usage: "Compute embeddings for catalog rows that have none",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "entity",
				Aliases: []string{"e"},
				Usage:   "Catalog to backfill (treatment, doctor, clinic); repeat for several, default all",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent workers",
				Value: 3,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Embedding attempts per row",
				Value: 3,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: func(c *cli.Context) error {
			return observability.InitConsoleLogger(c.App.ErrWriter, c.String("log-level"))
		},
		Action: run,
	}
}

func parseEntities(values []string) ([]entities.SearchEntity, error) {
	if len(values) == 0 {
		return services.EmbeddableEntities, nil
	}
	out := make([]entities.SearchEntity, 0, len(values))
	for _, v := range values {
		entity := entities.SearchEntity(v)
		switch entity {
		case entities.SearchEntityTreatment, entities.SearchEntityDoctor, entities.SearchEntityClinic:
			out = append(out, entity)
		default:
			return nil, fmt.Errorf("cannot backfill %q: only treatment, doctor and clinic rows carry embeddings", v)
		}
	}
	return out, nil
}

func run(c *cli.Context) error {
	logger := observability.GetLogger()

	targets, err := parseEntities(c.StringSlice("entity"))
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	embedder, err := embedding.NewClient(&cfg.Embedding)
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(c.Context, &cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	svc := services.NewEmbeddingBackfillService(
		database.NewCatalogEmbeddingAdapter(pgClient),
		embedder,
		c.Int("workers"),
		c.Int("max-retries"),
	)

	results := make(map[entities.SearchEntity]*services.BackfillSummary, len(targets))
	for _, entity := range targets {
		start := time.Now()
		logger.Info().Str("entity", string(entity)).Int("workers", c.Int("workers")).Msg("Starting embedding backfill")

		summary, err := svc.BackfillAll(c.Context, entity)
		if summary != nil {
			results[entity] = summary
			logger.Info().
				Str("entity", string(entity)).
				Dur("elapsed", time.Since(start)).
				Int("processed", summary.TotalProcessed).
				Int("success", summary.SuccessCount).
				Int("failed", summary.FailureCount).
				Msg("Backfill complete")
		}
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
