// Package extract wraps an external text-extraction capability exposed by an
// Apache Tika compatible server. Extraction is best effort: empty text is a
// valid success, any transport or provider error is reported as a typed
// Failure the caller can degrade on.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
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
	extractDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "atrium",
		Subsystem: "extract",
		Name:      "duration_seconds",
		Help:      "Duration of text extraction requests",
	})

	extractFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atrium",
		Subsystem: "extract",
		Name:      "failures_total",
		Help:      "Number of text extraction failures",
	}, []string{"stage"})
)

// maxExtractedBytes bounds how much extracted text is read from the server.
const maxExtractedBytes = 4 << 20

// Extractor describes a text extraction capability.
type Extractor interface {
	Extract(ctx context.Context, location string, mediaType string) (string, error)
}

// Failure is returned for any transport or provider error during extraction.
type Failure struct {
	Stage string
	Err   error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", f.Stage, f.Err)
	}
	return fmt.Sprintf("extraction failed: %s", f.Stage)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Config contains connection settings for the extraction server.
type Config struct {
	ServerURL string
	Timeout   time.Duration
	Logger    zerolog.Logger
}

// Client implements Extractor against a Tika-style HTTP extraction server.
type Client struct {
	serverURL string
	http      *http.Client
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// New constructs an extraction client.
func New(cfg Config) (*Client, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("extraction server url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &Client{
		serverURL: strings.TrimSuffix(cfg.ServerURL, "/"),
		http:      &http.Client{Timeout: timeout},
		tracer:    otel.Tracer("github.com/atrium-edu/atrium-go-api/pkg/extract"),
		logger:    logger.With().Str("component", "extract").Logger(),
	}, nil
}

// Extract fetches the artifact at location and asks the extraction server for
// its plain text. "No text found" is a valid empty result, not an error.
func (c *Client) Extract(parent context.Context, location string, mediaType string) (string, error) {
	ctx, span := c.tracer.Start(parent, "extract.text", trace.WithAttributes(
		attribute.String("extract.media_type", mediaType),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		extractDuration.Observe(time.Since(start).Seconds())
	}()

	artifact, err := c.fetchArtifact(ctx, location)
	if err != nil {
		extractFailures.WithLabelValues("fetch").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "artifact fetch failed")
		return "", err
	}
	defer artifact.Close()

	request, err := http.NewRequestWithContext(ctx, http.MethodPut, c.serverURL+"/tika", artifact)
	if err != nil {
		extractFailures.WithLabelValues("request").Inc()
		span.RecordError(err)
		return "", &Failure{Stage: "build request", Err: err}
	}
	if mediaType != "" {
		request.Header.Set("Content-Type", mediaType)
	}
	request.Header.Set("Accept", "text/plain")

	response, err := c.http.Do(request)
	if err != nil {
		extractFailures.WithLabelValues("transport").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction transport failed")
		return "", &Failure{Stage: "transport", Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		failure := &Failure{Stage: "provider", Err: fmt.Errorf("unexpected status %d", response.StatusCode)}
		extractFailures.WithLabelValues("provider").Inc()
		span.RecordError(failure)
		span.SetStatus(codes.Error, failure.Error())
		return "", failure
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxExtractedBytes))
	if err != nil {
		extractFailures.WithLabelValues("read").Inc()
		span.RecordError(err)
		return "", &Failure{Stage: "read response", Err: err}
	}

	text := strings.TrimSpace(string(body))
	span.SetAttributes(attribute.Int("extract.text_length", len(text)))

	return text, nil
}

func (c *Client) fetchArtifact(ctx context.Context, location string) (io.ReadCloser, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, &Failure{Stage: "fetch artifact", Err: err}
	}

	response, err := c.http.Do(request)
	if err != nil {
		return nil, &Failure{Stage: "fetch artifact", Err: err}
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		_ = response.Body.Close()
		return nil, &Failure{Stage: "fetch artifact", Err: fmt.Errorf("unexpected status %d", response.StatusCode)}
	}

	return response.Body, nil
}
