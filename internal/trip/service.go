package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/trip-planner/internal/itinerary"
)

// ErrInvalidTrip is returned for trips that cannot be created as requested
var ErrInvalidTrip = errors.New("invalid trip")

var (
	unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// IDGenerator generates unique IDs for trips
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// Processor reconciles a batch of documents into an itinerary
type Processor interface {
	Process(ctx context.Context, base itinerary.Itinerary, existing []itinerary.AnalyzedFile, files []itinerary.File, resolver itinerary.ConflictResolver) (*itinerary.Result, error)
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles trip operations
type Service struct {
	db          DB
	processor   Processor
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource

	// one batch at a time; the processor owns its state for the whole run
	batchMu sync.Mutex
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, processor Processor, storage Storage) *Service {
	return NewServiceWithDeps(db, processor, storage, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, processor Processor, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		processor:   processor,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// sanitizeFilename strips characters that do not belong in a stored filename
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(repeatedSpaces.ReplaceAllString(base, " "))

	if r := []rune(base); len(r) > 50 {
		base = string(r[:50])
	}
	if base == "" {
		base = "document"
	}
	return base + strings.ToLower(ext)
}

// CreateTrip creates an empty trip
func (s *Service) CreateTrip(name string) (*Trip, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTrip)
	}

	now := s.timeSource.Now()
	trip := &Trip{
		ID:        s.idGenerator.Generate(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.SaveTrip(trip); err != nil {
		return nil, fmt.Errorf("saving trip to database: %w", err)
	}
	return trip, nil
}

// GetTrip retrieves a trip by ID
func (s *Service) GetTrip(id string) (*Trip, error) {
	trip, err := s.db.GetTrip(id)
	if err != nil {
		return nil, fmt.Errorf("getting trip: %w", err)
	}
	return trip, nil
}

// ListTrips returns all trips
func (s *Service) ListTrips() ([]*Trip, error) {
	trips, err := s.db.ListTrips()
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	return trips, nil
}

// DeleteTrip removes a trip and its documents
func (s *Service) DeleteTrip(id string) error {
	if _, err := s.db.GetTrip(id); err != nil {
		return fmt.Errorf("getting trip for deletion: %w", err)
	}

	if err := s.storage.DeleteTrip(id); err != nil {
		slog.Warn("Failed to delete trip documents", "trip", id, "error", err)
	}

	if err := s.db.DeleteTrip(id); err != nil {
		return fmt.Errorf("deleting trip from database: %w", err)
	}
	return nil
}

// AnalyzeDocuments stores new documents, runs them through the processor and
// persists the reconciled itinerary together with the file statuses. The
// trip is saved even when ctx ends mid-batch, in which case the context
// error is returned alongside it.
func (s *Service) AnalyzeDocuments(ctx context.Context, id string, files []itinerary.File, resolver itinerary.ConflictResolver) (*Trip, *itinerary.Result, error) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	trip, err := s.db.GetTrip(id)
	if err != nil {
		return nil, nil, fmt.Errorf("getting trip: %w", err)
	}

	analyzed := make(map[string]bool, len(trip.Files))
	for _, f := range trip.Files {
		analyzed[f.Name] = true
	}

	for _, f := range files {
		if analyzed[f.Name] {
			continue
		}
		if _, ok := trip.document(f.Name); ok {
			continue
		}
		path, err := s.storage.Save(trip.ID, fmt.Sprintf("%03d_%s", len(trip.Documents)+1, sanitizeFilename(f.Name)), f.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("saving document %s: %w", f.Name, err)
		}
		trip.Documents = append(trip.Documents, Document{
			Name:        f.Name,
			Path:        path,
			ContentType: f.ContentType,
			Size:        len(f.Data),
		})
	}

	result, procErr := s.processor.Process(ctx, trip.Itinerary, trip.Files, files, resolver)
	if result == nil {
		return nil, nil, fmt.Errorf("processing documents: %w", procErr)
	}

	trip.Itinerary = result.Update.Apply(trip.Itinerary)
	trip.Files = result.Files
	trip.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveTrip(trip); err != nil {
		return nil, nil, fmt.Errorf("saving trip to database: %w", err)
	}
	if procErr != nil {
		return trip, result, fmt.Errorf("processing documents: %w", procErr)
	}
	return trip, result, nil
}

// GetDocument returns the original bytes of an uploaded document
func (s *Service) GetDocument(id, name string) ([]byte, string, error) {
	trip, err := s.db.GetTrip(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting trip: %w", err)
	}

	doc, ok := trip.document(name)
	if !ok {
		return nil, "", fmt.Errorf("%w: document %s", ErrNotFound, name)
	}

	data, err := s.storage.Get(doc.Path)
	if err != nil {
		return nil, "", fmt.Errorf("getting document: %w", err)
	}
	return data, doc.ContentType, nil
}
