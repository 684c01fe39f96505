package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"

	"github.com/zombor/trip-planner/internal/itinerary"
	"github.com/zombor/trip-planner/internal/scanning"
	"github.com/zombor/trip-planner/internal/trip"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	fs := ff.NewFlagSet("trip-planner")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "trip-planner.db", "Database file path")
		storagePath  = fs.StringLong("storage", "./documents", "Directory for uploaded documents")
		parserType   = fs.StringLong("parser", "gemini", "Document parser: 'gemini' or 'ollama'")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModels = fs.StringLong("gemini-models", strings.Join(scanning.DefaultGeminiModels, ","), "Comma-separated Gemini models, tried in order")
		geminiRPM    = fs.IntLong("gemini-rpm", 60, "Gemini requests per minute")
		ollamaURL    = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel  = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl)")
		homeAirports = fs.StringLong("home-airports", strings.Join(itinerary.DefaultHomeAirports, ","), "Comma-separated airports treated as home")
		throttle     = fs.DurationLong("throttle", itinerary.DefaultThrottle, "Delay between documents in a batch")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel     = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("TRIP_PLANNER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logger, err := newLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	slog.SetDefault(slog.New(zapslog.NewHandler(logger.Core(), zapslog.WithCaller(true))))

	slog.Info("Initializing database...")
	db, err := trip.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var parser scanning.Parser
	switch *parserType {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		models := splitList(*geminiModels)
		slog.Info("Initializing Gemini parser...", "models", models, "rpm", *geminiRPM)
		parser, err = scanning.NewGemini(apiKey, models,
			scanning.WithRequestsPerSecond(float64(*geminiRPM)/60),
		)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama parser...", "url", *ollamaURL, "model", *ollamaModel)
		parser, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid parser type", "type", *parserType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer parser.Close()

	slog.Info("Initializing storage...")
	store, err := trip.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	controller := itinerary.NewController(
		scanning.NewTextExtractor(),
		itinerary.EncoderFunc(scanning.Encode),
		parser,
		scanning.NewLegacy(),
		itinerary.WithHomeAirports(splitList(*homeAirports)),
		itinerary.WithThrottle(itinerary.FixedThrottle(*throttle)),
		itinerary.WithMetrics(itinerary.NewMetrics(registry)),
		itinerary.WithStatusObserver(func(files []itinerary.AnalyzedFile) {
			last := files[len(files)-1]
			slog.Debug("File status", "file", last.Name, "status", last.Status)
		}),
	)

	tripService := trip.NewService(db, controller, store)

	basicAuth := trip.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := trip.NewServer(tripService, basicAuth,
		trip.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	)

	addr := fmt.Sprintf(":%d", *port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("Starting server", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown error", "error", err)
	}
}

// newLogger builds a JSON production logger with ISO8601 timestamps
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	config := zap.NewProductionConfig()
	config.EncoderConfig = encoderConfig
	config.Level = zap.NewAtomicLevelAt(lvl)
	return config.Build()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
