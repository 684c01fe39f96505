package trip

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/trip-planner/internal/itinerary"
)

// mockDB is a mock implementation of DB
type mockDB struct {
	trips   map[string]*Trip
	saveErr error
	listErr error
}

func newMockDB() *mockDB {
	return &mockDB{trips: make(map[string]*Trip)}
}

func (m *mockDB) SaveTrip(trip *Trip) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *trip
	m.trips[trip.ID] = &copied
	return nil
}

func (m *mockDB) GetTrip(id string) (*Trip, error) {
	trip, ok := m.trips[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	copied := *trip
	return &copied, nil
}

func (m *mockDB) ListTrips() ([]*Trip, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	trips := make([]*Trip, 0, len(m.trips))
	for _, t := range m.trips {
		trips = append(trips, t)
	}
	return trips, nil
}

func (m *mockDB) DeleteTrip(id string) error {
	if _, ok := m.trips[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.trips, id)
	return nil
}

func (m *mockDB) Close() error {
	return nil
}

// mockStorage is a mock implementation of Storage
type mockStorage struct {
	files   map[string][]byte
	deleted []string
	saveErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{files: make(map[string][]byte)}
}

func (m *mockStorage) Save(tripID, filename string, data []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	path := tripID + "/" + filename
	m.files[path] = data
	return path, nil
}

func (m *mockStorage) Get(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

func (m *mockStorage) DeleteTrip(tripID string) error {
	m.deleted = append(m.deleted, tripID)
	return nil
}

// mockProcessor records its inputs and returns a canned result
type mockProcessor struct {
	base     itinerary.Itinerary
	existing []itinerary.AnalyzedFile
	files    []itinerary.File
	resolver itinerary.ConflictResolver
	result   *itinerary.Result
	err      error
}

func (m *mockProcessor) Process(_ context.Context, base itinerary.Itinerary, existing []itinerary.AnalyzedFile, files []itinerary.File, resolver itinerary.ConflictResolver) (*itinerary.Result, error) {
	m.base, m.existing, m.files, m.resolver = base, existing, files, resolver
	return m.result, m.err
}

type fixedIDGenerator struct{ id string }

func (g *fixedIDGenerator) Generate() string { return g.id }

type fixedTimeSource struct{ t time.Time }

func (t *fixedTimeSource) Now() time.Time { return t.t }

var _ = Describe("Service", func() {
	var (
		db        *mockDB
		storage   *mockStorage
		processor *mockProcessor
		now       time.Time
		service   *Service
	)

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		processor = &mockProcessor{}
		now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		service = NewServiceWithDeps(db, processor, storage, &fixedIDGenerator{id: "trip-1"}, &fixedTimeSource{t: now})
	})

	Describe("CreateTrip", func() {
		It("saves an empty trip", func() {
			trip, err := service.CreateTrip("  Okinawa ")
			Expect(err).NotTo(HaveOccurred())
			Expect(trip.ID).To(Equal("trip-1"))
			Expect(trip.Name).To(Equal("Okinawa"))
			Expect(trip.CreatedAt).To(Equal(now))
			Expect(db.trips).To(HaveKey("trip-1"))
		})

		It("requires a name", func() {
			_, err := service.CreateTrip(" ")
			Expect(errors.Is(err, ErrInvalidTrip)).To(BeTrue())
		})

		It("wraps database errors", func() {
			db.saveErr = errors.New("disk full")
			_, err := service.CreateTrip("Okinawa")
			Expect(err).To(MatchError(ContainSubstring("disk full")))
		})
	})

	Describe("DeleteTrip", func() {
		It("removes the trip and its documents", func() {
			db.trips["trip-1"] = &Trip{ID: "trip-1"}
			Expect(service.DeleteTrip("trip-1")).To(Succeed())
			Expect(db.trips).NotTo(HaveKey("trip-1"))
			Expect(storage.deleted).To(Equal([]string{"trip-1"}))
		})

		It("fails for a missing trip", func() {
			Expect(errors.Is(service.DeleteTrip("missing"), ErrNotFound)).To(BeTrue())
		})
	})

	Describe("AnalyzeDocuments", func() {
		var (
			files  []itinerary.File
			trip   *Trip
			result *itinerary.Result
			err    error
		)

		BeforeEach(func() {
			db.trips["trip-1"] = &Trip{
				ID:        "trip-1",
				Itinerary: itinerary.Itinerary{DeparturePoint: "ICN", StartDate: "2025-04-10"},
				Files:     []itinerary.AnalyzedFile{{Name: "old.pdf", Status: itinerary.StatusDone}},
				Documents: []Document{{Name: "old.pdf", Path: "trip-1/001_old.pdf"}},
			}
			files = []itinerary.File{
				{Name: "old.pdf", ContentType: "application/pdf", Data: []byte("old")},
				{Name: "Return ticket!.PNG", ContentType: "image/png", Data: []byte("new")},
			}
			endDate := "2025-04-15"
			processor.result = &itinerary.Result{
				Update: itinerary.ItineraryUpdate{EndDate: &endDate},
				Files: []itinerary.AnalyzedFile{
					{Name: "old.pdf", Status: itinerary.StatusDone},
					{Name: "Return ticket!.PNG", Status: itinerary.StatusDone},
				},
			}
		})

		JustBeforeEach(func() {
			trip, result, err = service.AnalyzeDocuments(context.Background(), "trip-1", files, itinerary.DeclineAll)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(BeIdenticalTo(processor.result))
		})

		It("passes the stored itinerary and statuses to the processor", func() {
			Expect(processor.base.StartDate).To(Equal("2025-04-10"))
			Expect(processor.existing).To(HaveLen(1))
			Expect(processor.files).To(Equal(files))
		})

		It("stores only documents it has not seen", func() {
			Expect(storage.files).To(HaveLen(1))
			Expect(storage.files).To(HaveKeyWithValue("trip-1/002_Return ticket.png", []byte("new")))
			Expect(trip.Documents).To(HaveLen(2))
			Expect(trip.Documents[1].ContentType).To(Equal("image/png"))
		})

		It("persists the applied update and statuses", func() {
			saved := db.trips["trip-1"]
			Expect(saved.Itinerary.StartDate).To(Equal("2025-04-10"))
			Expect(saved.Itinerary.EndDate).To(Equal("2025-04-15"))
			Expect(saved.Files).To(HaveLen(2))
			Expect(saved.UpdatedAt).To(Equal(now))
		})

		When("the batch is interrupted", func() {
			BeforeEach(func() {
				processor.err = context.Canceled
			})

			It("still saves what was reconciled", func() {
				Expect(errors.Is(err, context.Canceled)).To(BeTrue())
				Expect(trip).NotTo(BeNil())
				Expect(db.trips["trip-1"].Itinerary.EndDate).To(Equal("2025-04-15"))
			})
		})

		When("the trip does not exist", func() {
			BeforeEach(func() {
				delete(db.trips, "trip-1")
			})

			It("returns ErrNotFound", func() {
				Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
			})
		})

		When("storage fails", func() {
			BeforeEach(func() {
				storage.saveErr = errors.New("read-only")
			})

			It("does not run the batch", func() {
				Expect(err).To(HaveOccurred())
				Expect(processor.files).To(BeNil())
			})
		})
	})

	Describe("GetDocument", func() {
		BeforeEach(func() {
			db.trips["trip-1"] = &Trip{
				ID:        "trip-1",
				Documents: []Document{{Name: "a.pdf", Path: "trip-1/001_a.pdf", ContentType: "application/pdf"}},
			}
			storage.files["trip-1/001_a.pdf"] = []byte("pdf")
		})

		It("returns the stored bytes", func() {
			data, contentType, err := service.GetDocument("trip-1", "a.pdf")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("pdf")))
			Expect(contentType).To(Equal("application/pdf"))
		})

		It("fails for an unknown document", func() {
			_, _, err := service.GetDocument("trip-1", "b.pdf")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})
	})
})

var _ = Describe("sanitizeFilename", func() {
	DescribeTable("cleans names",
		func(in, expected string) {
			Expect(sanitizeFilename(in)).To(Equal(expected))
		},
		Entry("punctuation", "Return ticket!.PNG", "Return ticket.png"),
		Entry("korean is kept", "항공권 (왕복).pdf", "항공권 왕복.pdf"),
		Entry("directories are dropped", "../../etc/passwd", "passwd"),
		Entry("nothing left", "!!!.jpg", "document.jpg"),
	)
})
