package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/medbook/backend/internal/application/services"
	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/internal/domain/providers"
	"github.com/medbook/backend/internal/infrastructure/clients/embedding"
	"github.com/medbook/backend/internal/infrastructure/clients/openai"
	"github.com/medbook/backend/internal/infrastructure/observability"
	"github.com/medbook/backend/pkg/config"
	"github.com/medbook/backend/pkg/textsim"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var searchFlags = []cli.Flag{
	&cli.StringFlag{
		Name:     "rows",
		Aliases:  []string{"r"},
		Usage:    "Path to a JSON array of catalog rows",
		Required: true,
	},
	&cli.StringFlag{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "Free-text search query",
	},
	&cli.Float64Flag{
		Name:  "threshold",
		Usage: "Minimum score (unset uses the configured default)",
	},
	&cli.IntFlag{
		Name:  "top-n",
		Usage: "Keep at most N results (0 keeps all)",
	},
	&cli.StringFlag{
		Name:  "lang",
		Usage: "Result language (en or sv)",
		Value: "en",
	},
	&cli.BoolFlag{
		Name:  "ai",
		Usage: "Rank with the LLM instead of embeddings (doctors, clinics)",
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "searchctl",
		Usage: "Rank catalog rows offline for relevance spot checks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: func(c *cli.Context) error {
			return observability.InitConsoleLogger(c.App.ErrWriter, c.String("log-level"))
		},
		Commands: []*cli.Command{
			{
				Name:   "treatments",
				Usage:  "Rank treatments by embedding similarity",
				Flags:  searchFlags,
				Action: treatmentsCommand,
			},
			{
				Name:   "doctors",
				Usage:  "Rank doctors by embedding similarity or with --ai",
				Flags:  searchFlags,
				Action: doctorsCommand,
			},
			{
				Name:   "clinics",
				Usage:  "Rank clinics by embedding similarity or with --ai",
				Flags:  searchFlags,
				Action: clinicsCommand,
			},
			{
				Name:   "devices",
				Usage:  "Rank devices with the LLM",
				Flags:  searchFlags,
				Action: devicesCommand,
			},
			{
				Name:   "embed",
				Usage:  "Print the embedding vector for a text",
				Action: embedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Required: true},
				},
			},
			{
				Name:   "lexical",
				Usage:  "Print the local edit-distance signals between a query and a text",
				Action: lexicalCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Required: true},
					&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Required: true},
				},
			},
		},
	}
}

// commandEnv holds what every ranking command needs.
type commandEnv struct {
	service *services.GlobalSearchService
	query   string
	opts    entities.SearchOptions
	out     io.Writer
}

func newCommandEnv(c *cli.Context, needEmbedder, needLLM bool) (*commandEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	var embedder providers.EmbeddingProvider
	if needEmbedder && c.String("query") != "" {
		client, err := embedding.NewClient(&cfg.Embedding)
		if err != nil {
			return nil, err
		}
		embedder = client
	}

	var llm providers.SimilarityLLM
	if needLLM {
		llm, err = openai.NewSimilarityLLM(&cfg.OpenAI)
		if err != nil {
			return nil, err
		}
	}

	service, err := services.NewGlobalSearchService(embedder, llm, cfg.Search)
	if err != nil {
		return nil, err
	}

	return &commandEnv{
		service: service,
		query:   c.String("query"),
		opts: entities.SearchOptions{
			Threshold: thresholdFlag(c),
			TopN:      c.Int("top-n"),
			Language:  entities.ParseLanguage(c.String("lang")),
		},
		out: c.App.Writer,
	}, nil
}

func treatmentsCommand(c *cli.Context) error {
	rows, err := loadRows[entities.Treatment](c.String("rows"))
	if err != nil {
		return err
	}
	env, err := newCommandEnv(c, true, false)
	if err != nil {
		return err
	}
	defer env.service.Close()

	results, err := env.service.TreatmentsVectorResult(c.Context, rows, env.query, env.opts)
	if err != nil {
		return err
	}
	return writeJSON(env.out, results)
}

func doctorsCommand(c *cli.Context) error {
	rows, err := loadRows[entities.Doctor](c.String("rows"))
	if err != nil {
		return err
	}
	ai := c.Bool("ai")
	env, err := newCommandEnv(c, !ai, ai)
	if err != nil {
		return err
	}
	defer env.service.Close()

	var results []*entities.Doctor
	if ai {
		results, err = env.service.DoctorsAIResult(c.Context, rows, env.query, env.opts.Language)
	} else {
		results, err = env.service.DoctorsVectorResult(c.Context, rows, env.query, env.opts)
	}
	if err != nil {
		return err
	}
	return writeJSON(env.out, results)
}

func clinicsCommand(c *cli.Context) error {
	rows, err := loadRows[entities.Clinic](c.String("rows"))
	if err != nil {
		return err
	}
	ai := c.Bool("ai")
	env, err := newCommandEnv(c, !ai, ai)
	if err != nil {
		return err
	}
	defer env.service.Close()

	var results []*entities.Clinic
	if ai {
		results, err = env.service.ClinicsAIResult(c.Context, rows, env.query, env.opts.Language)
	} else {
		results, err = env.service.ClinicsVectorResult(c.Context, rows, env.query, env.opts)
	}
	if err != nil {
		return err
	}
	return writeJSON(env.out, results)
}

func devicesCommand(c *cli.Context) error {
	if c.String("query") == "" {
		return errors.New("--query is required for devices")
	}
	rows, err := loadRows[entities.Device](c.String("rows"))
	if err != nil {
		return err
	}
	env, err := newCommandEnv(c, false, true)
	if err != nil {
		return err
	}
	defer env.service.Close()

	results, err := env.service.DevicesAIResult(c.Context, rows, env.query, env.opts)
	if err != nil {
		return err
	}
	return writeJSON(env.out, results)
}

func embedCommand(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client, err := embedding.NewClient(&cfg.Embedding)
	if err != nil {
		return err
	}
	vector, err := client.Embed(c.Context, c.String("text"))
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, vector)
}

// lexicalReport shows how a query relates to a text without any model.
type lexicalReport struct {
	Query             string  `json:"query"`
	Text              string  `json:"text"`
	EditDistance      int     `json:"edit_distance"`
	PhraseSimilarity  float64 `json:"phrase_similarity"`
	ReverseSimilarity float64 `json:"reverse_phrase_similarity"`
	BestTokenMatch    float64 `json:"best_token_match"`
	KeywordBoost      float64 `json:"keyword_boost"`
}

func lexicalCommand(c *cli.Context) error {
	query := strings.ToLower(strings.TrimSpace(c.String("query")))
	text := strings.ToLower(strings.TrimSpace(c.String("text")))
	boost, best := services.KeywordBoost(0, query, text)

	return writeJSON(c.App.Writer, lexicalReport{
		Query:             query,
		Text:              text,
		EditDistance:      textsim.EditDistance(query, text),
		PhraseSimilarity:  textsim.PhraseSimilarity(query, text),
		ReverseSimilarity: textsim.PhraseSimilarity(text, query),
		BestTokenMatch:    best,
		KeywordBoost:      boost,
	})
}

func loadRows[T any](path string) ([]*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows file: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("rows file must be a JSON array: %w", err)
	}

	rows := make([]*T, 0, len(raw))
	for i, item := range raw {
		row, err := decodeRow[T](item)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type embeddingFields struct {
	Embeddings     []float64 `json:"embeddings"`
	NameEmbeddings []float64 `json:"name_embeddings"`
}

// decodeRow decodes the visible fields through the entity's own JSON tags
// and then attaches the embedding arrays, which those tags hide.
func decodeRow[T any](data json.RawMessage) (*T, error) {
	row := new(T)
	if err := json.Unmarshal(data, row); err != nil {
		return nil, err
	}

	var emb embeddingFields
	if err := json.Unmarshal(data, &emb); err != nil {
		return nil, err
	}

	switch r := any(row).(type) {
	case *entities.Treatment:
		r.Embeddings = emb.Embeddings
		r.NameEmbeddings = emb.NameEmbeddings
	case *entities.Doctor:
		r.Embeddings = emb.Embeddings
	case *entities.Clinic:
		r.Embeddings = emb.Embeddings
	}
	return row, nil
}

// thresholdFlag is nil unless --threshold was given, so 0 stays a real
// threshold.
func thresholdFlag(c *cli.Context) *float64 {
	if !c.IsSet("threshold") {
		return nil
	}
	return entities.ScoreThreshold(c.Float64("threshold"))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
