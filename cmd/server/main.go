package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"runtime"
	"strings"
	"time"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"

	"bookstore/internal/feed"
	"bookstore/internal/importer"
	"bookstore/internal/logger"
	"bookstore/internal/response"
	"bookstore/internal/scheduler"
	"bookstore/internal/search"
	"bookstore/internal/server"
	"bookstore/internal/storage/authors"
	"bookstore/internal/storage/books"
	"bookstore/internal/storage/genres"
	"bookstore/internal/storage/reviews"
	"bookstore/internal/storage/runs"
)

func getEnvOrDefault(key, default_ string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}

	return default_
}

func getBoolEnv(key string) bool {
	if val := strings.ToLower(os.Getenv(key)); val == "yes" || val == "on" || val == "true" {
		return true
	}

	return false
}

var (
	logLevel       = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "debug"))
	dbConnStr      = os.Getenv("DATABASE_URL")
	bindAddr       = getEnvOrDefault("BIND_ADDR", ":8080")
	debugMode      = getBoolEnv("DEBUG_MODE")
	feedUrl        = os.Getenv("FEED_URL")
	feedFormat     = strings.ToLower(getEnvOrDefault("FEED_FORMAT", "json"))
	importInterval = getEnvOrDefault("IMPORT_INTERVAL", "1h")
)

func main() {
	_, thisFile, _, _ := runtime.Caller(0)

	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(logLevel))
	if err != nil {
		lvl = slog.LevelDebug
	}
	logger.SetupSLog(lvl, path.Dir(path.Dir(path.Dir(thisFile))), middleware.RequestIDKey)

	if err != nil {
		slog.Error("Invalid log level specified in LOG_LEVEL, one of debug, info, warn or error expected")
		os.Exit(1)
	}

	if feedUrl == "" {
		slog.Error("You need to specify FEED_URL env var")
		os.Exit(1)
	}

	urlFeed, err := url.Parse(feedUrl)
	if err != nil {
		slog.Error("Invalid URL in FEED_URL: " + err.Error())
		os.Exit(1)
	}

	every, err := time.ParseDuration(importInterval)
	if err != nil {
		slog.Error("Invalid duration in IMPORT_INTERVAL: " + err.Error())
		os.Exit(1)
	}

	cfg, err := pgxpool.ParseConfig(dbConnStr)
	if err != nil {
		slog.Error("Failed to parse DATABASE_URL: " + err.Error())
		os.Exit(1)
	}

	cfg.ConnConfig.Tracer = logger.NewPGXTracer()

	pg, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to create postgres pool: " + err.Error())
		os.Exit(1)
	}

	var catalogFeed feed.Feed
	switch feedFormat {
	case "json":
		catalogFeed = &feed.JSONFeed{Client: http.DefaultClient, URL: urlFeed, Logger: slog.Default()}
	case "opds":
		catalogFeed = &feed.OPDSFeed{Client: http.DefaultClient, URL: urlFeed, Logger: slog.Default()}
	default:
		slog.Error("FEED_FORMAT must be json or opds")
		os.Exit(1)
	}

	bookRepo := books.NewPGXRepository(pg, slog.Default())
	authorRepo := authors.NewPGXRepository(pg, slog.Default())
	genreRepo := genres.NewPGXRepository(pg, slog.Default())

	pipeline := &importer.Pipeline{
		Feed:  catalogFeed,
		Books: bookRepo,
		Resolver: &importer.Resolver{
			Authors: authorRepo,
			Genres:  genreRepo,
			Logger:  slog.Default(),
		},
		Logger: slog.Default(),
	}

	sched := &scheduler.Scheduler{
		Every:   every,
		Trigger: pipeline.ImportBooks,
		Runs:    runs.NewPGXRepository(pg, slog.Default()),
		Logger:  slog.Default(),
	}

	go sched.Run(context.Background())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Mount("/api", server.Handler(
		bookRepo,
		authorRepo,
		genreRepo,
		reviews.NewPGXRepository(pg, slog.Default()),
		runs.NewPGXRepository(pg, slog.Default()),
		search.NewPGXEngine(pg, slog.Default()),
		sched,
		&response.Responder{DebugMode: debugMode},
	))

	slog.Error("aborting: " + http.ListenAndServe(bindAddr, r).Error())
	os.Exit(1)
}
