package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/creator-search/internal/directory"
	"github.com/xaenox/creator-search/internal/parser"
	"github.com/xaenox/creator-search/internal/search"
	"github.com/xaenox/creator-search/internal/semantic"
	"github.com/xaenox/creator-search/internal/server"
	"github.com/xaenox/creator-search/internal/storage"
	"github.com/xaenox/creator-search/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store, err = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		}
		store, err = storage.NewPostgresStorage(dbConfig, logger)
	}
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	// Initialize the extraction parser; with no API key it degrades to the
	// keyword fallback without touching the network.
	gpt := parser.NewGPTParser(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.MaxTokens,
		cfg.OpenAI.Temperature,
		logger,
	)

	// The semantic retrieval step only exists when an embedding provider is
	// configured.
	var retriever *semantic.Retriever
	if cfg.OpenAI.APIKey != "" {
		embedder := semantic.NewOpenAIEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel)
		retriever = semantic.NewRetriever(embedder, store, semantic.Config{
			SimilarityThreshold: cfg.Scoring.SimilarityThreshold,
			MinExemplarScore:    cfg.Scoring.MinExemplarScore,
			MaxResults:          cfg.Scoring.MaxSimilarQueries,
		}, logger)
	} else {
		logger.Info("No OpenAI API key configured, running keyword fallback only")
	}

	svc := search.NewService(store, gpt, retriever, search.Config{
		Weights: search.ScoreWeights{
			Click:    cfg.Scoring.ClickWeight,
			NoRefine: cfg.Scoring.NoRefineWeight,
			Results:  cfg.Scoring.ResultsWeight,
		},
		EmbeddingBackfillThreshold: cfg.Scoring.EmbeddingBackfillThreshold,
		PatternConfidence:          cfg.Scoring.PatternConfidence,
		MaxLearnedPatterns:         cfg.Scoring.MaxLearnedPatterns,
	}, logger)

	// Load the creator directory snapshot
	var dir directory.Directory
	if cfg.Creators.File != "" {
		dir, err = directory.LoadFile(cfg.Creators.File)
		if err != nil {
			logger.Fatal("Failed to load creator directory", zap.Error(err))
		}
	} else {
		logger.Info("No creator directory configured, serving empty list")
		dir = directory.Static(nil)
	}

	handler := server.New(svc, dir, logger)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("Listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
}
