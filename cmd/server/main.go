package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tourpulse/feedbackanalyzer/internal/api"
	"github.com/tourpulse/feedbackanalyzer/internal/classifier"
	"github.com/tourpulse/feedbackanalyzer/internal/feedback"
	"github.com/tourpulse/feedbackanalyzer/internal/queue"
	"github.com/tourpulse/feedbackanalyzer/internal/store"
	"github.com/tourpulse/feedbackanalyzer/pkg/logging"
	"github.com/tourpulse/feedbackanalyzer/pkg/tracing"
)

func main() {
	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("feedbackanalyzer service initializing", "version", "1.0.0")

	// Initialize tracing
	tp, err := tracing.InitTracer("feedbackanalyzer")
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
	}

	// Get default values from environment variables, with fallbacks
	portDefault := getEnv("PORT", "8080")
	dbPathDefault := getEnv("DB_PATH", "feedback.db")
	ollamaURLDefault := getEnv("OLLAMA_URL", "http://localhost:11434")
	ollamaModelDefault := getEnv("OLLAMA_MODEL", classifier.DefaultModel)
	useOllamaDefault := getEnvBool("USE_OLLAMA", true)
	redisAddrDefault := getEnv("REDIS_ADDR", "")
	concurrencyDefault := getEnvInt("WORKER_CONCURRENCY", 5)

	var (
		port        = flag.String("port", portDefault, "Server port (env: PORT)")
		dbPath      = flag.String("db", dbPathDefault, "Database file path (env: DB_PATH)")
		ollamaURL   = flag.String("ollama-url", ollamaURLDefault, "Ollama API URL (env: OLLAMA_URL)")
		ollamaModel = flag.String("ollama-model", ollamaModelDefault, "Ollama model to use (env: OLLAMA_MODEL)")
		useOllama   = flag.Bool("use-ollama", useOllamaDefault, "Enable Ollama for sentiment classification (env: USE_OLLAMA)")
		redisAddr   = flag.String("redis-addr", redisAddrDefault, "Redis address for the task queue, empty disables it (env: REDIS_ADDR)")
		concurrency = flag.Int("worker-concurrency", concurrencyDefault, "Queue worker concurrency (env: WORKER_CONCURRENCY)")
	)
	flag.Parse()

	// Initialize the feedback store
	db, err := store.New(*dbPath)
	if err != nil {
		logger.Error("failed to initialize store", "error", err, "database_path", *dbPath)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize the sentiment classifier
	var sentimentClassifier *classifier.Client
	if *useOllama {
		sentimentClassifier, err = classifier.New(*ollamaURL, *ollamaModel)
		if err != nil {
			logger.Warn("failed to initialize classifier, feedback will be stored without sentiment",
				"error", err,
				"ollama_url", *ollamaURL,
				"ollama_model", *ollamaModel,
			)
			sentimentClassifier = nil
		} else {
			logger.Info("sentiment classifier initialized", "model", *ollamaModel, "url", *ollamaURL)
		}
	} else {
		logger.Info("Ollama disabled, feedback will be stored without sentiment")
	}

	var serviceClassifier feedback.Classifier
	var apiClassifier api.Classifier
	if sentimentClassifier != nil {
		serviceClassifier = sentimentClassifier
		apiClassifier = sentimentClassifier
	}

	service := feedback.NewService(db, serviceClassifier)

	// Initialize the task queue when Redis is configured
	var queueClient api.QueueClient
	if *redisAddr != "" {
		qc := queue.NewClient(queue.ClientConfig{RedisAddr: *redisAddr})
		defer qc.Close()
		queueClient = qc

		worker := queue.NewWorker(queue.WorkerConfig{
			RedisAddr:   *redisAddr,
			Concurrency: *concurrency,
		}, service)
		go func() {
			if err := worker.Start(); err != nil {
				logger.Error("queue worker failed", "error", err)
			}
		}()
		defer worker.Shutdown()

		logger.Info("task queue initialized", "redis_addr", *redisAddr, "concurrency", *concurrency)
	}

	// Initialize API handler
	apiHandler := api.NewHandler(service, apiClassifier, queueClient)

	// Wrap handler with middleware chain: HTTP logging -> tracing -> handlers
	handler := logging.HTTPLoggingMiddleware(logger)(
		tracing.HTTPMiddleware("feedbackanalyzer")(apiHandler),
	)

	// Create server with extended timeouts: a submission can spend three
	// sequential classifier round-trips before responding.
	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 420 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("feedbackanalyzer service starting",
			"port", *port,
			"database", *dbPath,
			"ollama_enabled", *useOllama,
			"ollama_url", *ollamaURL,
			"ollama_model", *ollamaModel,
			"queue_enabled", *redisAddr != "",
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
