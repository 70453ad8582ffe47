package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/water-risk-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/water-risk-etl/internal/adapter/kafka"
	"github.com/couchcryptid/water-risk-etl/internal/adapter/textcache"
	"github.com/couchcryptid/water-risk-etl/internal/config"
	"github.com/couchcryptid/water-risk-etl/internal/domain"
	"github.com/couchcryptid/water-risk-etl/internal/observability"
	"github.com/couchcryptid/water-risk-etl/internal/pipeline"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	extractor, err := newExtractor(cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to load lexicon", "error", err, "path", cfg.LexiconPath)
		os.Exit(1)
	}
	assessor := domain.NewAssessor(domain.WithExtractor(extractor))

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(assessor, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	assess := httpadapter.NewAssessHandler(assessor, metrics, cfg.MaxReportBytes, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, assess, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// newExtractor builds the report extractor from LEXICON_PATH, wrapped in an
// LRU cache unless EXTRACT_CACHE_SIZE is 0.
func newExtractor(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (domain.TextExtractor, error) {
	lex := domain.DefaultLexicon()
	if cfg.LexiconPath != "" {
		var err error
		if lex, err = domain.LoadLexiconFile(cfg.LexiconPath); err != nil {
			return nil, err
		}
		logger.Info("custom lexicon loaded", "path", cfg.LexiconPath, "sources", len(lex.Sources()))
	}

	var extractor domain.TextExtractor = domain.NewExtractor(lex)
	if cfg.ExtractCacheSize > 0 {
		extractor = textcache.New(extractor, cfg.ExtractCacheSize, metrics)
		logger.Info("report extraction cache enabled", "cache_size", cfg.ExtractCacheSize)
	} else {
		logger.Info("report extraction cache disabled")
	}
	return extractor, nil
}
