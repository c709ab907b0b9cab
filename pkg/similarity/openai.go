package similarity

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OpenAIConfig defines configuration options for the embeddings-based scorer.
type OpenAIConfig struct {
	APIKey string
	Model  openai.EmbeddingModel
	Logger zerolog.Logger
}

// OpenAIScorer implements Scorer using OpenAI embeddings and cosine
// similarity. It is the drop-in alternative provider to the Hugging Face
// sentence-similarity endpoint.
type OpenAIScorer struct {
	client *openai.Client
	model  openai.EmbeddingModel
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIScorer builds an embeddings scorer using the provided configuration.
func NewOpenAIScorer(cfg OpenAIConfig) (*OpenAIScorer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = openai.SmallEmbedding3
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &OpenAIScorer{
		client: openai.NewClient(cfg.APIKey),
		model:  model,
		tracer: otel.Tracer("github.com/sage-edu/sage-go-api/pkg/similarity/openai"),
		logger: logger.With().Str("component", "openai_scorer").Logger(),
	}, nil
}

// Score embeds both texts in one request and returns their clamped cosine
// similarity.
func (s *OpenAIScorer) Score(parent context.Context, candidate, reference string) (float64, error) {
	ctx, span := s.tracer.Start(parent, "similarity.score", trace.WithAttributes(
		attribute.String("provider", "openai"),
		attribute.String("model", string(s.model)),
	))
	defer span.End()

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{candidate, reference},
		Model: s.model,
	})
	if err != nil {
		return 0, s.unavailable(span, fmt.Errorf("create embeddings: %w", err))
	}

	if len(resp.Data) != 2 {
		return 0, s.unavailable(span, fmt.Errorf("expected 2 embeddings, got %d", len(resp.Data)))
	}

	cos, err := cosineSimilarity(resp.Data[0].Embedding, resp.Data[1].Embedding)
	if err != nil {
		return 0, s.unavailable(span, err)
	}

	clamped := Clamp(cos)
	span.SetAttributes(attribute.Float64("similarity.score", clamped))

	return clamped, nil
}

func (s *OpenAIScorer) unavailable(span trace.Span, err error) error {
	scoreFailures.WithLabelValues("openai").Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Warn().Err(err).Msg("embedding request failed")
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimensions mismatch: %d vs %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("zero-magnitude embedding")
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
