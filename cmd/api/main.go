package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"clipscan/internal/application"
	appanalysis "clipscan/internal/application/analysis"
	"clipscan/internal/config"
	"clipscan/internal/coordinator"
	"clipscan/internal/detect"
	domain "clipscan/internal/domain/analysis"
	"clipscan/internal/infra/ai/openai"
	"clipscan/internal/infra/captions"
	mysqlp "clipscan/internal/infra/db/mysql"
	postgresp "clipscan/internal/infra/db/postgres"
	"clipscan/internal/infra/httpserver"
	minioStore "clipscan/internal/infra/storage"
	"clipscan/internal/middleware"
	"clipscan/internal/prefilter"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load(path)
	if err != nil {
		log.Error("config load error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// connect database per configured driver
	var db *sql.DB
	var verdicts domain.VerdictRepository
	var jobs domain.JobQueue
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Error("postgres connect error", "error", err)
			os.Exit(1)
		}
		verdicts = postgresp.NewVerdictRepository(db)
		jobs = postgresp.NewJobRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Error("mysql connect error", "error", err)
			os.Exit(1)
		}
		verdicts = mysqlp.NewVerdictRepository(db)
		jobs = mysqlp.NewJobRepository(db)
	}
	defer db.Close()

	// init object store (media source + report artifacts)
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Error("minio init error", "error", err)
		os.Exit(1)
	}

	// init providers
	ai := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.TranscribeModel)
	caps := captions.NewClient(cfg.Captions.BaseURL)

	// init detector adapters
	a := cfg.Analysis
	frames := detect.NewFrameScanner(store, ai, log.With("detector", "frame"),
		a.FrameIntervalSeconds, a.MaxDurationSeconds)
	audio := detect.NewAudioScanner(store, ai, log.With("detector", "audio"),
		a.AudioWindowSeconds, a.MaxDurationSeconds, a.LaughterKeywords, a.SuspiciousKeywords)
	transcript := detect.NewTranscriptScanner(caps, log.With("detector", "transcript"),
		cfg.Captions.PreferredLanguage, a.LaughterKeywords)

	clock := application.SystemClock{}

	// init coordinator
	coord := coordinator.New(frames, audio, transcript, clock, log.With("component", "coordinator"), coordinator.Config{
		AnchorWaitTimeout:      time.Duration(a.AnchorWaitSeconds) * time.Second,
		AnchorPollInterval:     time.Duration(a.AnchorPollSeconds) * time.Second,
		FullWaitTimeout:        time.Duration(a.FullWaitSeconds) * time.Second,
		FullPollInterval:       time.Duration(a.FullPollSeconds) * time.Second,
		TargetedLeadSeconds:    a.TargetedLeadSeconds,
		TargetedWindowSeconds:  a.TargetedWindowSeconds,
		TargetedStepSeconds:    a.TargetedStepSeconds,
		MaxTargetedConcurrency: a.MaxTargetedConcurrency,
	})

	// init service
	svc := &appanalysis.Service{
		Gate:        prefilter.NewGate(ai, log.With("component", "prefilter")),
		Coordinator: coord,
		Verdicts:    verdicts,
		Jobs:        jobs,
		Reports:     store,
		Clock:       clock,
		Log:         log.With("component", "service"),
	}

	// init router + middleware chain
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	mux.Use(middleware.RequestLogger(log.With("component", "http")))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(60, 1))
	if len(cfg.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.APIKeys))
	}
	mux.Get("/healthz", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database":     &middleware.DatabaseHealthChecker{DB: db},
		"object_store": middleware.CheckerFunc(store.Ping),
	}))
	mux.Mount("/", httpserver.NewRouter(svc, log.With("component", "router")))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warn("shutdown error", "error", err)
	}
}
