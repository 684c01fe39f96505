package itinerary

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/zombor/trip-planner/internal/scanning"
)

// Extractor returns the plain text of a non-multimodal document
type Extractor interface {
	ExtractText(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// Encoder prepares a multimodal document for upload to a parser
type Encoder interface {
	Encode(data []byte, contentType string) (scanning.Document, error)
}

// EncoderFunc adapts a function to Encoder
type EncoderFunc func(data []byte, contentType string) (scanning.Document, error)

func (f EncoderFunc) Encode(data []byte, contentType string) (scanning.Document, error) {
	return f(data, contentType)
}

// LegacyParser is the deterministic text-only fallback parser
type LegacyParser interface {
	Parse(text string) *scanning.ParsedRecord
}

// ThrottlePolicy returns the delay before the attempt-th processed file
type ThrottlePolicy func(attempt int) time.Duration

// FixedThrottle waits d before every file after the first
func FixedThrottle(d time.Duration) ThrottlePolicy {
	return func(int) time.Duration { return d }
}

// DefaultThrottle is the delay between parser calls
const DefaultThrottle = time.Second

// Result is the outcome of one batch
type Result struct {
	Update   ItineraryUpdate `json:"update"`
	Files    []AnalyzedFile  `json:"files"`
	Skipped  []string        `json:"skipped,omitempty"`
	Conflict *DateConflict   `json:"conflict,omitempty"`
	Accepted bool            `json:"accepted,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Controller runs batches of uploaded documents through the parsers and
// reconciles the results into one itinerary update
type Controller struct {
	extractor Extractor
	encoder   Encoder
	parser    scanning.Parser
	legacy    LegacyParser
	home      []string
	throttle  ThrottlePolicy
	onStatus  func([]AnalyzedFile)
	metrics   *Metrics
}

// Option configures a Controller
type Option func(*Controller)

// WithHomeAirports replaces the home airport set
func WithHomeAirports(home []string) Option {
	return func(c *Controller) {
		c.home = home
	}
}

// WithThrottle replaces the delay policy between files
func WithThrottle(p ThrottlePolicy) Option {
	return func(c *Controller) {
		c.throttle = p
	}
}

// WithStatusObserver registers a callback that receives the status list
// every time it changes
func WithStatusObserver(fn func([]AnalyzedFile)) Option {
	return func(c *Controller) {
		c.onStatus = fn
	}
}

// WithMetrics records batch outcomes in m
func WithMetrics(m *Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// NewController creates a new Controller
func NewController(extractor Extractor, encoder Encoder, parser scanning.Parser, legacy LegacyParser, opts ...Option) *Controller {
	c := &Controller{
		extractor: extractor,
		encoder:   encoder,
		parser:    parser,
		legacy:    legacy,
		home:      DefaultHomeAirports,
		throttle:  FixedThrottle(DefaultThrottle),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Process analyzes files one at a time and reconciles them against base.
// Files whose names already appear in existing or earlier in files are
// skipped. Per-file failures only mark that file as error; an error is
// returned only when ctx ends, together with the result accumulated so far.
func (c *Controller) Process(ctx context.Context, base Itinerary, existing []AnalyzedFile, files []File, resolver ConflictResolver) (*Result, error) {
	start := time.Now()
	defer func() { c.metrics.observeBatch(time.Since(start)) }()

	result := &Result{Files: append([]AnalyzedFile(nil), existing...)}
	seen := make(map[string]bool, len(existing)+len(files))
	for _, f := range existing {
		seen[f.Name] = true
	}

	working := base.Clone()
	var (
		sawFlight bool
		attempt   int
		batchErr  error
	)

	for _, file := range files {
		if seen[file.Name] {
			slog.Info("File already added, skipping", "file", file.Name)
			result.Skipped = append(result.Skipped, file.Name)
			continue
		}
		seen[file.Name] = true

		if attempt > 0 {
			if err := sleepCtx(ctx, c.throttle(attempt)); err != nil {
				batchErr = err
				break
			}
		}
		attempt++

		idx := len(result.Files)
		result.Files = append(result.Files, AnalyzedFile{Name: file.Name, Status: StatusLoading})
		c.notify(result.Files)

		analyzed, rec, err := c.analyze(ctx, file)
		result.Files[idx] = analyzed
		c.metrics.observeFile(analyzed.Status)
		c.notify(result.Files)

		if err != nil {
			batchErr = err
			break
		}
		if rec == nil {
			continue
		}

		var warnings []string
		working, warnings = ApplyRecord(working, rec, file.Name, c.home)
		result.Warnings = append(result.Warnings, warnings...)
		if rec.Type == scanning.RecordFlight {
			sawFlight = true
		}
	}

	if sawFlight {
		var warnings []string
		working, warnings = ReconcileRoundTrip(working, c.home)
		result.Warnings = append(result.Warnings, warnings...)
	}

	working, result.Conflict, result.Accepted = resolveDates(base, working, resolver)
	if result.Conflict != nil {
		c.metrics.observeConflict(result.Accepted)
		slog.Info("Date conflict resolved",
			"old_start", result.Conflict.Old.StartDate, "old_end", result.Conflict.Old.EndDate,
			"new_start", result.Conflict.New.StartDate, "new_end", result.Conflict.New.EndDate,
			"accepted", result.Accepted,
		)
	}

	result.Update = Diff(base, working)
	for _, w := range result.Warnings {
		slog.Warn("Itinerary warning", "warning", w)
	}
	return result, batchErr
}

// analyze runs one file through extraction and parsing. The returned error
// is non-nil only when ctx ended while the file was in flight.
func (c *Controller) analyze(ctx context.Context, file File) (AnalyzedFile, *scanning.ParsedRecord, error) {
	analyzed := AnalyzedFile{Name: file.Name, Status: StatusError}

	fail := func(stage string, err error) (AnalyzedFile, *scanning.ParsedRecord, error) {
		slog.Error("Failed to analyze file",
			"file", file.Name,
			"content_type", file.ContentType,
			"stage", stage,
			"error", err,
		)
		analyzed.Error = err.Error()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return analyzed, nil, ctxErr
		}
		return analyzed, nil, nil
	}

	if scanning.IsMultimodal(file.ContentType) {
		doc, err := c.encoder.Encode(file.Data, file.ContentType)
		if err != nil {
			return fail("encode", err)
		}
		rec, err := c.parser.Parse(ctx, doc)
		if err != nil {
			return fail("parse", err)
		}
		analyzed.Status = StatusDone
		analyzed.Text = scanning.Value(rec.Summary)
		analyzed.ParsedData = rec
		return analyzed, rec, nil
	}

	text, err := c.extractor.ExtractText(ctx, file.Name, file.ContentType, file.Data)
	if err != nil {
		return fail("extract", err)
	}
	analyzed.Text = text

	rec, err := c.parser.Parse(ctx, scanning.Document{Text: text})
	if err != nil {
		if ctx.Err() != nil {
			return fail("parse", err)
		}
		slog.Warn("AI parse failed, using legacy parser",
			"file", file.Name,
			"transient", errors.Is(err, scanning.ErrParseFailure),
			"error", err,
		)
		c.metrics.observeFallback()
		rec = c.legacy.Parse(text)
	}

	analyzed.Status = StatusDone
	analyzed.ParsedData = rec
	return analyzed, rec, nil
}

func (c *Controller) notify(files []AnalyzedFile) {
	if c.onStatus == nil {
		return
	}
	c.onStatus(append([]AnalyzedFile(nil), files...))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
