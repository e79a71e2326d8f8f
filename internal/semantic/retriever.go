package semantic

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/creator-search/internal/models"
)

// PatternStore is the slice of storage the retriever needs.
type PatternStore interface {
	SaveQueryEmbedding(ctx context.Context, qe *models.QueryEmbedding) error
	SimilarQueries(ctx context.Context, embedding []float32, minScore float64, limit int) ([]models.SimilarQuery, error)
}

// Config tunes the retrieval step. Zero values fall back to the defaults the
// scoring model was tuned against.
type Config struct {
	// SimilarityThreshold is the minimum cosine similarity for a past query
	// to count as an exemplar.
	SimilarityThreshold float64
	// MinExemplarScore is the success score a past session must exceed
	// before it is credible few-shot material.
	MinExemplarScore float64
	// MaxResults caps how many exemplars are returned.
	MaxResults int
}

func (c Config) withDefaults() Config {
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = 0.7
	}
	if c.MinExemplarScore == 0 {
		c.MinExemplarScore = 0.3
	}
	if c.MaxResults == 0 {
		c.MaxResults = 3
	}
	return c
}

// Retriever embeds a query, records the embedding against its session, and
// looks up nearest neighbors among past successful queries. Every failure
// inside it is a loss of context, never an error: the extraction step still
// runs, just with fewer examples.
type Retriever struct {
	embedder Embedder
	store    PatternStore
	config   Config
	logger   *zap.Logger
}

func NewRetriever(embedder Embedder, store PatternStore, config Config, logger *zap.Logger) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
		config:   config.withDefaults(),
		logger:   logger,
	}
}

// RetrieveSimilar returns up to MaxResults past queries above the similarity
// threshold, most similar first. The query's own embedding is persisted with
// a zero success score for the feedback loop to back-fill later.
func (r *Retriever) RetrieveSimilar(ctx context.Context, sessionID, query string) []models.SimilarQuery {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		r.logger.Warn("embedding provider unavailable, searching without semantic context",
			zap.Error(err),
			zap.String("session_id", sessionID))
		return nil
	}

	qe := &models.QueryEmbedding{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		QueryText: query,
		Embedding: vector,
	}
	if err := r.store.SaveQueryEmbedding(ctx, qe); err != nil {
		r.logger.Error("failed to persist query embedding",
			zap.Error(err),
			zap.String("session_id", sessionID))
	}

	neighbors, err := r.store.SimilarQueries(ctx, vector, r.config.MinExemplarScore, r.config.MaxResults)
	if err != nil {
		r.logger.Warn("similar-query lookup unavailable, searching without semantic context",
			zap.Error(err),
			zap.String("session_id", sessionID))
		return nil
	}

	out := neighbors[:0]
	for _, n := range neighbors {
		if n.Similarity > r.config.SimilarityThreshold {
			out = append(out, n)
		}
	}
	return out
}
