package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"runtime"
	"strings"
	"time"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"

	"bookstore/internal/feed"
	"bookstore/internal/importer"
	"bookstore/internal/logger"
	"bookstore/internal/storage/authors"
	"bookstore/internal/storage/books"
	"bookstore/internal/storage/genres"
	"bookstore/internal/storage/runs"
)

func getEnvOrDefault(key, default_ string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}

	return default_
}

var (
	logLevel   = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "debug"))
	dbConnStr  = os.Getenv("DATABASE_URL")
	feedUrl    = os.Getenv("FEED_URL")
	feedFormat = strings.ToLower(getEnvOrDefault("FEED_FORMAT", "json"))
)

func main() {
	_, thisFile, _, _ := runtime.Caller(0)

	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(logLevel))
	if err != nil {
		lvl = slog.LevelDebug
	}
	logger.SetupSLog(lvl, path.Dir(path.Dir(path.Dir(thisFile))), struct{}{})

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

	pipeline := &importer.Pipeline{
		Feed:  catalogFeed,
		Books: books.NewPGXRepository(pg, slog.Default()),
		Resolver: &importer.Resolver{
			Authors: authors.NewPGXRepository(pg, slog.Default()),
			Genres:  genres.NewPGXRepository(pg, slog.Default()),
			Logger:  slog.Default(),
		},
		Logger: slog.Default(),
	}

	rec := &runs.Record{StartedAt: time.Now()}

	added, err := pipeline.ImportBooks(context.Background())

	rec.FinishedAt = time.Now()
	rec.Added = added
	if err != nil {
		rec.Error = err.Error()
	}

	if saveErr := runs.NewPGXRepository(pg, slog.Default()).Save(context.Background(), rec); saveErr != nil {
		slog.Warn("Failed to record import run: " + saveErr.Error())
	}

	if err != nil {
		slog.Error("Import failed: " + err.Error())
		os.Exit(1)
	}

	slog.Info(fmt.Sprintf("Imported %d books", added))
}
