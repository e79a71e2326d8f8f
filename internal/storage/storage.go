package storage

import (
	"context"
	"errors"

	"github.com/xaenox/creator-search/internal/models"
)

// ErrNotFound is returned when a referenced session or row does not exist.
var ErrNotFound = errors.New("not found")

// SessionFeedbackUpdate is a partial update of a session's feedback state.
// Nil fields are left untouched, so racing feedback calls converge field by
// field instead of clobbering each other. SuccessScore is always written: it
// is recomputed from the full accumulated flag set on every call.
type SessionFeedbackUpdate struct {
	Clicked         *bool
	Refined         *bool
	ResultsCount    *int
	DurationSeconds *int64
	SuccessScore    float64
}

// Storage persists search sessions, query embeddings, learned patterns and
// interaction records.
type Storage interface {
	CreateSession(ctx context.Context, session *models.SearchSession) error
	GetSession(ctx context.Context, id string) (*models.SearchSession, error)
	UpdateSessionFilters(ctx context.Context, id string, filters models.FilterModel) error
	UpdateSessionFeedback(ctx context.Context, id string, upd SessionFeedbackUpdate) error

	// SaveQueryEmbedding upserts the embedding row for the session the
	// embedding belongs to; a session keeps at most one embedding row.
	SaveQueryEmbedding(ctx context.Context, qe *models.QueryEmbedding) error
	UpdateQueryEmbeddingScore(ctx context.Context, sessionID string, score float64) error

	// SimilarQueries returns past queries with success score above minScore,
	// ranked by cosine similarity to embedding, at most limit results. The
	// similarity threshold is the caller's policy, not the store's.
	SimilarQueries(ctx context.Context, embedding []float32, minScore float64, limit int) ([]models.SimilarQuery, error)

	SaveInteraction(ctx context.Context, interaction *models.SearchInteraction) error

	SaveLearnedPattern(ctx context.Context, pattern *models.LearnedPattern) error
	TopLearnedPatterns(ctx context.Context, limit int) ([]models.LearnedPattern, error)
	// TouchLearnedPattern bumps usage count and recency after a pattern was
	// included in an extraction prompt.
	TouchLearnedPattern(ctx context.Context, id string) error

	Close() error
}
