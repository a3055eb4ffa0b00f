package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/medbook/backend/pkg/config"
)

// Client requests text embeddings from an Ollama-style HTTP endpoint.
type Client struct {
	url        string
	model      string
	httpClient *http.Client
}

// NewClient creates an embedding client from config.
func NewClient(cfg *config.EmbeddingConfig) (*Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errors.New("embedding url is required")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url:        cfg.URL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embeddingRequest{Model: c.model, Prompt: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(ctx, 0, time.Since(start), err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("embedding request failed with status %d", resp.StatusCode)
		c.record(ctx, resp.StatusCode, time.Since(start), err)
		return nil, err
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.record(ctx, resp.StatusCode, time.Since(start), err)
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		err := errors.New("embedding response is empty")
		c.record(ctx, resp.StatusCode, time.Since(start), err)
		return nil, err
	}

	c.record(ctx, resp.StatusCode, time.Since(start), nil)
	return parsed.Embedding, nil
}

type embeddingMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metrics     *embeddingMetrics
)

func ensureMetrics() *embeddingMetrics {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/medbook/backend/embedding")

		requestCount, err := meter.Int64Counter("ai.embedding.request.count",
			metric.WithDescription("Number of embedding requests"))
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram("ai.embedding.request.duration",
			metric.WithDescription("Embedding request duration in milliseconds"),
			metric.WithUnit("ms"))
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter("ai.embedding.request.errors",
			metric.WithDescription("Number of embedding request errors"))
		if err != nil {
			return
		}
		metrics = &embeddingMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
		}
	})
	return metrics
}

func (c *Client) record(ctx context.Context, statusCode int, duration time.Duration, err error) {
	m := ensureMetrics()
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("ai.model", c.model)}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}
	m.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		m.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
