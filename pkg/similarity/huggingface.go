package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	scoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sage",
		Subsystem: "similarity",
		Name:      "request_duration_seconds",
		Help:      "Duration of similarity scoring requests",
	}, []string{"provider"})

	scoreFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sage",
		Subsystem: "similarity",
		Name:      "request_failures_total",
		Help:      "Number of failed similarity scoring requests",
	}, []string{"provider"})
)

// HuggingFaceConfig defines configuration options for the inference API client.
type HuggingFaceConfig struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
	Logger   zerolog.Logger
}

// HuggingFaceScorer implements Scorer against a Hugging Face sentence-similarity
// inference endpoint.
type HuggingFaceScorer struct {
	endpoint string
	token    string
	client   *http.Client
	tracer   trace.Tracer
	logger   zerolog.Logger
}

type hfRequest struct {
	Inputs  hfInputs  `json:"inputs"`
	Options hfOptions `json:"options"`
}

type hfInputs struct {
	SourceSentence string   `json:"source_sentence"`
	Sentences      []string `json:"sentences"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// NewHuggingFaceScorer builds a scorer using the provided configuration.
func NewHuggingFaceScorer(cfg HuggingFaceConfig) (*HuggingFaceScorer, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("similarity endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &HuggingFaceScorer{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		client:   &http.Client{Timeout: timeout},
		tracer:   otel.Tracer("github.com/sage-edu/sage-go-api/pkg/similarity/huggingface"),
		logger:   logger.With().Str("component", "huggingface_scorer").Logger(),
	}, nil
}

// Score sends one similarity request comparing candidate against reference.
// wait_for_model keeps a cold model from failing the request prematurely.
// Any transport error, non-2xx status, or non-numeric payload is reported as
// ErrUnavailable; the result is clamped into [0,1].
func (s *HuggingFaceScorer) Score(parent context.Context, candidate, reference string) (float64, error) {
	ctx, span := s.tracer.Start(parent, "similarity.score", trace.WithAttributes(
		attribute.String("provider", "huggingface"),
	))
	defer span.End()

	payload := hfRequest{
		Inputs: hfInputs{
			SourceSentence: candidate,
			Sentences:      []string{reference},
		},
		Options: hfOptions{WaitForModel: true},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, s.unavailable(span, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, s.unavailable(span, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	scoreDuration.WithLabelValues("huggingface").Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, s.unavailable(span, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, s.unavailable(span, fmt.Errorf("unexpected status %s", resp.Status))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, s.unavailable(span, fmt.Errorf("read response: %w", err))
	}

	score, err := parseScorePayload(raw)
	if err != nil {
		return 0, s.unavailable(span, err)
	}

	clamped := Clamp(score)
	span.SetAttributes(attribute.Float64("similarity.score", clamped))

	return clamped, nil
}

func (s *HuggingFaceScorer) unavailable(span trace.Span, err error) error {
	scoreFailures.WithLabelValues("huggingface").Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Warn().Err(err).Msg("similarity request failed")
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// parseScorePayload accepts either a bare number or an array with one number,
// the two shapes the sentence-similarity pipeline returns.
func parseScorePayload(raw []byte) (float64, error) {
	var array []float64
	if err := json.Unmarshal(raw, &array); err == nil {
		if len(array) == 0 {
			return 0, fmt.Errorf("empty score array")
		}
		return array[0], nil
	}

	var single float64
	if err := json.Unmarshal(raw, &single); err == nil {
		return single, nil
	}

	return 0, fmt.Errorf("non-numeric score payload")
}
