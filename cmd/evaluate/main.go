package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/medbook/backend/internal/adapters/database"
	"github.com/medbook/backend/internal/application/services"
	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/internal/domain/providers"
	"github.com/medbook/backend/internal/evaluation"
	"github.com/medbook/backend/internal/infrastructure/clients/embedding"
	"github.com/medbook/backend/internal/infrastructure/clients/openai"
	"github.com/medbook/backend/internal/infrastructure/clients/postgres"
	"github.com/medbook/backend/internal/infrastructure/observability"
	"github.com/medbook/backend/pkg/config"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "evaluate",
		Usage: "Score search relevance against a golden query set",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "golden",
				Aliases: []string{"g"},
				Usage:   "Path to the golden query JSON file",
				Value:   "config/golden_queries.json",
				EnvVars: []string{"EVAL_GOLDEN_QUERIES"},
			},
			&cli.IntFlag{
				Name:    "k",
				Usage:   "Rank cutoff for recall and MRR",
				Value:   10,
				EnvVars: []string{"EVAL_K"},
			},
			&cli.Float64Flag{
				Name:  "threshold",
				Usage: "Minimum score passed to the ranking (unset uses the configured default)",
			},
			&cli.Float64Flag{
				Name:    "min-recall",
				Usage:   "Fail when average recall@k is below this value",
				EnvVars: []string{"EVAL_MIN_RECALL"},
			},
			&cli.Float64Flag{
				Name:    "min-mrr",
				Usage:   "Fail when average MRR@k is below this value",
				EnvVars: []string{"EVAL_MIN_MRR"},
			},
			&cli.IntFlag{
				Name:  "max-failed",
				Usage: "Number of queries allowed to error",
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

func run(c *cli.Context) error {
	logger := observability.GetLogger()

	queries, err := evaluation.LoadGoldenQueries(c.String("golden"))
	if err != nil {
		return err
	}
	if err := evaluation.ValidateGoldenQueries(queries); err != nil {
		return fmt.Errorf("invalid golden query set: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	pgClient, err := postgres.NewClient(c.Context, &cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	var embedder providers.EmbeddingProvider
	if client, err := embedding.NewClient(&cfg.Embedding); err != nil {
		logger.Warn().Err(err).Msg("Embedding service not configured, vector queries will fail")
	} else {
		embedder = client
	}

	llm, err := openai.NewSimilarityLLM(&cfg.OpenAI)
	if err != nil {
		logger.Warn().Err(err).Msg("Similarity LLM not configured, ai queries will fail")
	}

	searchService, err := services.NewGlobalSearchService(embedder, llm, cfg.Search)
	if err != nil {
		return err
	}
	defer searchService.Close()

	searcher := evaluation.NewServiceSearcher(searchService, database.NewSearchCatalogAdapter(pgClient), cfg.Search.CandidateLimit, thresholdFlag(c))
	summary, err := evaluation.NewRunner(searcher, c.Int("k")).Run(c.Context, queries)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	logger.Info().
		Int("queries", summary.TotalQueries).
		Float64("recall", summary.AvgRecallAtK).
		Float64("mrr", summary.AvgMRRAtK).
		Int("failed", summary.FailedQueries).
		Msg("Evaluation complete")

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return err
	}

	guardrails := evaluation.NewGuardrails(evaluation.GuardrailConfig{
		MinRecallAtK:     c.Float64("min-recall"),
		MinMRRAtK:        c.Float64("min-mrr"),
		MaxFailedQueries: c.Int("max-failed"),
	})
	if violations := guardrails.Check(summary); len(violations) > 0 {
		return fmt.Errorf("relevance guardrails failed: %s", strings.Join(violations, "; "))
	}
	return nil
}

func thresholdFlag(c *cli.Context) *float64 {
	if !c.IsSet("threshold") {
		return nil
	}
	return entities.ScoreThreshold(c.Float64("threshold"))
}
