package scanning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultGeminiModels are tried in order until one returns a usable record
var DefaultGeminiModels = []string{"gemini-2.0-flash", "gemini-flash-latest", "gemini-1.5-flash-latest"}

// generateFunc sends parts to the named model and returns the response text
type generateFunc func(ctx context.Context, model string, parts ...genai.Part) (string, error)

// Gemini implements the Parser interface using Google Gemini
type Gemini struct {
	client     *genai.Client
	models     []string
	generate   generateFunc
	limiter    *rate.Limiter
	maxRetries int
	backoff    func(attempt int) time.Duration
	timeout    time.Duration
}

// GeminiOption configures a Gemini parser
type GeminiOption func(*Gemini)

// WithRequestsPerSecond sets the client-side request rate limit
func WithRequestsPerSecond(rps float64) GeminiOption {
	return func(g *Gemini) {
		if rps > 0 {
			g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetries sets how many times a transient failure is retried per model
func WithRetries(n int) GeminiOption {
	return func(g *Gemini) {
		if n >= 0 {
			g.maxRetries = n
		}
	}
}

// NewGemini creates a new Gemini Parser instance
func NewGemini(apiKey string, modelNames []string, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if len(modelNames) == 0 {
		modelNames = DefaultGeminiModels
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	g := newGemini(modelNames, func(ctx context.Context, model string, parts ...genai.Part) (string, error) {
		resp, err := client.GenerativeModel(model).GenerateContent(ctx, parts...)
		if err != nil {
			return "", err
		}
		return responseText(resp)
	}, opts...)
	g.client = client
	return g, nil
}

func newGemini(models []string, generate generateFunc, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		models:     models,
		generate:   generate,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		maxRetries: 3,
		backoff:    exponentialBackoff(5 * time.Second),
		timeout:    60 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Parse analyzes a travel document, falling back through the configured models
func (g *Gemini) Parse(ctx context.Context, doc Document) (*ParsedRecord, error) {
	parts, err := g.parts(doc)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, model := range g.models {
		text, err := g.generateWithRetry(ctx, model, parts)
		if err != nil {
			slog.Warn("Gemini model failed", "model", model, "error", err)
			lastErr = err
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrParseFailure, ctx.Err())
			}
			continue
		}

		record, err := parseRecordJSON(text)
		if err != nil {
			slog.Warn("Gemini returned unparseable record", "model", model, "error", err)
			lastErr = err
			continue
		}
		if !hasContent(record) {
			slog.Warn("Gemini returned incomplete record", "model", model)
			lastErr = fmt.Errorf("%w: model %s returned an incomplete record", ErrParseUnavailable, model)
			continue
		}
		slog.Debug("Gemini parsed document", "model", model, "type", record.Type)
		return record, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no gemini models configured", ErrParseUnavailable)
	}
	return nil, lastErr
}

func (g *Gemini) parts(doc Document) ([]genai.Part, error) {
	if !doc.IsMultimodal() {
		return []genai.Part{genai.Text(textPrompt(doc.Text))}, nil
	}

	data, err := decode(doc)
	if err != nil {
		return nil, err
	}
	mimeType := normalizeMIMEType(doc.MIMEType)
	if mimeType == "application/pdf" {
		// Gemini reads multi-page PDFs natively
		return []genai.Part{
			genai.Text(documentParsePrompt),
			genai.Blob{MIMEType: mimeType, Data: data},
		}, nil
	}

	pngData, _, err := prepareImageData(data, mimeType)
	if err != nil {
		return nil, err
	}
	// genai.ImageData expects the format suffix, not the full MIME type
	return []genai.Part{
		genai.Text(documentParsePrompt),
		genai.ImageData("png", pngData),
	}, nil
}

func (g *Gemini) generateWithRetry(ctx context.Context, model string, parts []genai.Part) (string, error) {
	for attempt := 0; ; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: waiting for rate limiter: %v", ErrParseFailure, err)
		}

		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		text, err := g.generate(callCtx, model, parts...)
		cancel()
		if err == nil {
			return text, nil
		}

		if isNotFound(err) {
			return "", fmt.Errorf("%w: model %s: %v", ErrParseUnavailable, model, err)
		}
		if !isTransient(err) {
			return "", fmt.Errorf("%w: generating content: %v", ErrParseUnavailable, err)
		}
		if attempt >= g.maxRetries {
			return "", fmt.Errorf("%w: generating content after %d attempts: %v", ErrParseFailure, attempt+1, err)
		}

		wait := g.backoff(attempt)
		slog.Warn("Gemini rate limited or unavailable, retrying", "model", model, "attempt", attempt+1, "wait", wait)
		if !sleepCtx(ctx, wait) {
			return "", fmt.Errorf("%w: %v", ErrParseFailure, ctx.Err())
		}
	}
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no response from gemini", ErrParseUnavailable)
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

// isTransient reports rate limiting and server-side failures worth retrying
func isTransient(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "500", "503", "resource exhausted", "unavailable"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "404") || strings.Contains(msg, "not found")
}

// exponentialBackoff doubles the base delay on every attempt
func exponentialBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base * time.Duration(1<<attempt)
	}
}

// sleepCtx waits for d or returns false early if ctx is done
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
