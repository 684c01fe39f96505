package itinerary

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/zombor/trip-planner/internal/scanning"
)

type fakeExtractor struct {
	texts map[string]string
	calls []string
}

func (f *fakeExtractor) ExtractText(_ context.Context, filename, _ string, _ []byte) (string, error) {
	f.calls = append(f.calls, filename)
	text, ok := f.texts[filename]
	if !ok {
		return "", fmt.Errorf("%w: %s", scanning.ErrExtraction, filename)
	}
	return text, nil
}

// fakeParser answers by document text, or by the base64 payload for
// multimodal documents
type fakeParser struct {
	records map[string]*scanning.ParsedRecord
	errs    map[string]error
	calls   int
	onParse func()
}

func (f *fakeParser) Parse(_ context.Context, doc scanning.Document) (*scanning.ParsedRecord, error) {
	f.calls++
	if f.onParse != nil {
		f.onParse()
	}
	key := doc.Text
	if doc.IsMultimodal() {
		key = doc.Base64
	}
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if rec, ok := f.records[key]; ok {
		return rec, nil
	}
	return nil, fmt.Errorf("%w: no record for %q", scanning.ErrParseUnavailable, key)
}

func (f *fakeParser) Close() error { return nil }

type fakeLegacy struct {
	calls []string
	rec   *scanning.ParsedRecord
}

func (f *fakeLegacy) Parse(text string) *scanning.ParsedRecord {
	f.calls = append(f.calls, text)
	return f.rec
}

// rawEncoder stores the file bytes as the payload so the fake parser can
// look them up
var rawEncoder = EncoderFunc(func(data []byte, contentType string) (scanning.Document, error) {
	if len(data) == 0 {
		return scanning.Document{}, errors.New("empty file")
	}
	return scanning.Document{Base64: string(data), MIMEType: contentType}, nil
})

var _ = Describe("Controller", func() {
	var (
		extractor *fakeExtractor
		parser    *fakeParser
		legacy    *fakeLegacy
		attempts  []int
		statuses  [][]AnalyzedFile
		registry  *prometheus.Registry
		metrics   *Metrics
		ctrl      *Controller

		ctx      context.Context
		base     Itinerary
		existing []AnalyzedFile
		files    []File
		resolver ConflictResolver
		result   *Result
		err      error
	)

	outbound := flightRecord("ICN", "OKA", "2025-04-10", "7C1802")
	inbound := flightRecord("OKA", "ICN", "2025-04-15", "7C1805")

	BeforeEach(func() {
		extractor = &fakeExtractor{texts: map[string]string{}}
		parser = &fakeParser{records: map[string]*scanning.ParsedRecord{}, errs: map[string]error{}}
		legacy = &fakeLegacy{}
		attempts = nil
		statuses = nil
		registry = prometheus.NewRegistry()
		metrics = NewMetrics(registry)

		ctx = context.Background()
		base = Itinerary{}
		existing = nil
		files = nil
		resolver = AcceptAll
	})

	JustBeforeEach(func() {
		ctrl = NewController(extractor, rawEncoder, parser, legacy,
			WithHomeAirports([]string{"ICN", "GMP"}),
			WithThrottle(func(attempt int) time.Duration {
				attempts = append(attempts, attempt)
				return 0
			}),
			WithStatusObserver(func(list []AnalyzedFile) {
				statuses = append(statuses, list)
			}),
			WithMetrics(metrics),
		)
		result, err = ctrl.Process(ctx, base, existing, files, resolver)
	})

	When("a round trip is uploaded as two images", func() {
		BeforeEach(func() {
			parser.records["return"] = inbound
			parser.records["out"] = outbound
			files = []File{
				{Name: "return.jpg", ContentType: "image/jpeg", Data: []byte("return")},
				{Name: "out.jpg", ContentType: "image/jpeg", Data: []byte("out")},
			}
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("marks both files done", func() {
			Expect(result.Files).To(HaveLen(2))
			for _, f := range result.Files {
				Expect(f.Status).To(Equal(StatusDone))
				Expect(f.ParsedData).NotTo(BeNil())
			}
		})

		It("places each leg on its side", func() {
			Expect(result.Update.OutboundFlights).To(HaveLen(1))
			Expect(result.Update.OutboundFlights[0].FlightNumber).To(Equal("7C1802"))
			Expect(result.Update.InboundFlights).To(HaveLen(1))
			Expect(result.Update.InboundFlights[0].LinkedFileID).To(Equal("return.jpg"))
		})

		It("summarizes the trip dates", func() {
			Expect(*result.Update.StartDate).To(Equal("2025-04-10"))
			Expect(*result.Update.EndDate).To(Equal("2025-04-15"))
		})

		It("throttles before every file after the first", func() {
			Expect(attempts).To(Equal([]int{1}))
		})

		It("reports progress as each file loads and finishes", func() {
			Expect(statuses).To(HaveLen(4))
			Expect(statuses[0]).To(HaveLen(1))
			Expect(statuses[0][0].Status).To(Equal(StatusLoading))
			Expect(statuses[1][0].Status).To(Equal(StatusDone))
			Expect(statuses[2][1].Status).To(Equal(StatusLoading))
		})

		It("counts the files", func() {
			Expect(testutil.ToFloat64(metrics.files.WithLabelValues("done"))).To(Equal(2.0))
		})
	})

	When("the same file appears twice", func() {
		BeforeEach(func() {
			parser.records["out"] = outbound
			files = []File{
				{Name: "out.jpg", ContentType: "image/jpeg", Data: []byte("out")},
				{Name: "out.jpg", ContentType: "image/jpeg", Data: []byte("out")},
			}
		})

		It("processes it once", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(parser.calls).To(Equal(1))
			Expect(result.Files).To(HaveLen(1))
			Expect(result.Skipped).To(Equal([]string{"out.jpg"}))
			Expect(result.Update.OutboundFlights).To(HaveLen(1))
		})

		It("does not throttle for the skipped file", func() {
			Expect(attempts).To(BeEmpty())
		})
	})

	When("a file was analyzed in an earlier batch", func() {
		BeforeEach(func() {
			parser.records["out"] = outbound
			existing = []AnalyzedFile{{Name: "out.jpg", Status: StatusDone}}
			files = []File{{Name: "out.jpg", ContentType: "image/jpeg", Data: []byte("out")}}
		})

		It("skips it and keeps the earlier status", func() {
			Expect(parser.calls).To(BeZero())
			Expect(result.Files).To(Equal(existing))
			Expect(result.Update.IsEmpty()).To(BeTrue())
		})
	})

	When("the AI parser fails on a text file", func() {
		legacyRecord := &scanning.ParsedRecord{
			Type:    scanning.RecordAccommodation,
			Name:    scanning.Ptr("Hotel Orion"),
			Summary: scanning.Ptr("voucher"),
		}

		BeforeEach(func() {
			extractor.texts["voucher.html"] = "Hotel Orion voucher"
			parser.errs["Hotel Orion voucher"] = fmt.Errorf("%w: rate limited", scanning.ErrParseFailure)
			legacy.rec = legacyRecord
			files = []File{{Name: "voucher.html", ContentType: "text/html", Data: []byte("<p>Hotel Orion voucher</p>")}}
		})

		It("uses the legacy parser", func() {
			Expect(legacy.calls).To(Equal([]string{"Hotel Orion voucher"}))
			Expect(result.Files[0].Status).To(Equal(StatusDone))
			Expect(result.Files[0].ParsedData).To(BeIdenticalTo(legacyRecord))
			Expect(result.Update.Accommodations).To(HaveLen(1))
		})

		It("counts the fallback", func() {
			Expect(testutil.ToFloat64(metrics.fallbacks)).To(Equal(1.0))
		})
	})

	When("the AI parser fails on an image", func() {
		BeforeEach(func() {
			parser.errs["blurry"] = scanning.ErrParseUnavailable
			parser.records["out"] = outbound
			files = []File{
				{Name: "blurry.png", ContentType: "image/png", Data: []byte("blurry")},
				{Name: "out.png", ContentType: "image/png", Data: []byte("out")},
			}
		})

		It("marks the file as error and continues", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(legacy.calls).To(BeEmpty())
			Expect(result.Files[0].Status).To(Equal(StatusError))
			Expect(result.Files[0].Error).NotTo(BeEmpty())
			Expect(result.Files[1].Status).To(Equal(StatusDone))
			Expect(result.Update.OutboundFlights).To(HaveLen(1))
		})
	})

	When("every file fails", func() {
		BeforeEach(func() {
			files = []File{
				{Name: "a.docx", ContentType: "application/msword", Data: []byte("x")},
				{Name: "b.png", ContentType: "image/png", Data: nil},
			}
		})

		It("returns an empty update with every status error", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Update.IsEmpty()).To(BeTrue())
			Expect(result.Files).To(HaveLen(2))
			for _, f := range result.Files {
				Expect(f.Status).To(Equal(StatusError))
			}
			Expect(testutil.ToFloat64(metrics.files.WithLabelValues("error"))).To(Equal(2.0))
		})
	})

	When("new dates disagree with confirmed ones", func() {
		BeforeEach(func() {
			base = Itinerary{StartDate: "2025-03-01", Airline: "Asiana"}
			parser.records["out"] = flightRecord("ICN", "OKA", "2025-03-02", "7C1802")
			files = []File{{Name: "out.jpg", ContentType: "image/jpeg", Data: []byte("out")}}
		})

		Context("and the change is declined", func() {
			BeforeEach(func() {
				resolver = DeclineAll
			})

			It("leaves the start date alone but applies everything else", func() {
				Expect(result.Conflict).NotTo(BeNil())
				Expect(result.Accepted).To(BeFalse())
				Expect(result.Update.StartDate).To(BeNil())
				Expect(*result.Update.Airline).To(Equal("Jeju Air"))
				Expect(result.Update.OutboundFlights).To(HaveLen(1))
				Expect(testutil.ToFloat64(metrics.conflicts.WithLabelValues("declined"))).To(Equal(1.0))
			})
		})

		Context("and the change is accepted", func() {
			It("applies the new start date", func() {
				Expect(result.Accepted).To(BeTrue())
				Expect(*result.Update.StartDate).To(Equal("2025-03-02"))
			})
		})
	})

	When("the return ticket arrives in a later batch", func() {
		BeforeEach(func() {
			first := flightRecord("ICN", "OKA", "2025-04-10", "KE755")
			first.Flight.Airline = scanning.Ptr("Korean Air")
			base, _ = ApplyRecord(Itinerary{}, first, "out.jpg", []string{"ICN", "GMP"})
			existing = []AnalyzedFile{{Name: "out.jpg", Status: StatusDone}}

			parser.records["return"] = inbound
			files = []File{{Name: "return.jpg", ContentType: "image/jpeg", Data: []byte("return")}}
			resolver = DeclineAll
		})

		It("fills the return side without touching the outbound summary", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Conflict).To(BeNil())
			Expect(result.Update.Airline).To(BeNil())
			Expect(result.Update.FlightNumber).To(BeNil())
			Expect(result.Update.DeparturePoint).To(BeNil())
			Expect(result.Update.StartDate).To(BeNil())
			Expect(*result.Update.EndDate).To(Equal("2025-04-15"))
			Expect(*result.Update.ReturnFlightNumber).To(Equal("7C1805"))

			it := result.Update.Apply(base)
			Expect(it.Airline).To(Equal("Korean Air"))
			Expect(it.DeparturePoint).To(ContainSubstring("ICN"))
			Expect(it.InboundFlights).To(HaveLen(1))
		})
	})

	When("three legs are uploaded", func() {
		BeforeEach(func() {
			parser.records["out"] = outbound
			parser.records["hop"] = flightRecord("OKA", "ISG", "2025-04-12", "NU601")
			parser.records["return"] = inbound
			files = []File{
				{Name: "out.jpg", ContentType: "image/jpeg", Data: []byte("out")},
				{Name: "hop.jpg", ContentType: "image/jpeg", Data: []byte("hop")},
				{Name: "return.jpg", ContentType: "image/jpeg", Data: []byte("return")},
			}
		})

		It("warns instead of guessing silently", func() {
			Expect(result.Warnings).NotTo(BeEmpty())
			Expect(*result.Update.EndDate).To(Equal("2025-04-15"))
		})
	})

	When("the context is cancelled mid-batch", func() {
		BeforeEach(func() {
			cctx, cancel := context.WithCancel(context.Background())
			ctx = cctx
			parser.records["out"] = outbound
			parser.records["return"] = inbound
			parser.onParse = cancel
			files = []File{
				{Name: "out.jpg", ContentType: "image/jpeg", Data: []byte("out")},
				{Name: "return.jpg", ContentType: "image/jpeg", Data: []byte("return")},
			}
		})

		It("returns what was merged so far with the context error", func() {
			Expect(err).To(MatchError(context.Canceled))
			Expect(result.Files).To(HaveLen(1))
			Expect(result.Update.OutboundFlights).To(HaveLen(1))
			Expect(parser.calls).To(Equal(1))
		})
	})
})

var _ = Describe("sleepCtx", func() {
	It("returns early when the context ends", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(sleepCtx(ctx, time.Hour)).To(MatchError(context.Canceled))
	})
})
