package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/xaenox/creator-search/internal/models"
)

// MemoryStorage keeps everything in process: plain maps for the record types
// and an embedded chromem collection as the nearest-neighbor index over query
// embeddings. Used for development and tests.
type MemoryStorage struct {
	mu           sync.RWMutex
	sessions     map[string]*models.SearchSession
	embeddings   map[string]*models.QueryEmbedding // keyed by session id
	patterns     map[string]*models.LearnedPattern
	interactions map[string][]*models.SearchInteraction
	vectors      *chromem.Collection
}

func NewMemoryStorage() (*MemoryStorage, error) {
	db := chromem.NewDB()
	// Embeddings always arrive precomputed; the collection must never embed
	// on its own.
	collection, err := db.CreateCollection("query_embeddings", nil,
		func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("embeddings are computed upstream")
		})
	if err != nil {
		return nil, fmt.Errorf("error creating vector collection: %w", err)
	}

	return &MemoryStorage{
		sessions:     make(map[string]*models.SearchSession),
		embeddings:   make(map[string]*models.QueryEmbedding),
		patterns:     make(map[string]*models.LearnedPattern),
		interactions: make(map[string][]*models.SearchInteraction),
		vectors:      collection,
	}, nil
}

func (s *MemoryStorage) CreateSession(ctx context.Context, session *models.SearchSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}

	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

func (s *MemoryStorage) GetSession(ctx context.Context, id string) (*models.SearchSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *MemoryStorage) UpdateSessionFilters(ctx context.Context, id string, filters models.FilterModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists {
		return ErrNotFound
	}
	session.ParsedFilters = filters
	session.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStorage) UpdateSessionFeedback(ctx context.Context, id string, upd SessionFeedbackUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists {
		return ErrNotFound
	}
	if upd.Clicked != nil {
		session.UserClicked = *upd.Clicked
	}
	if upd.Refined != nil {
		session.UserRefined = *upd.Refined
	}
	if upd.ResultsCount != nil {
		session.ResultsCount = *upd.ResultsCount
	}
	if upd.DurationSeconds != nil {
		d := *upd.DurationSeconds
		session.DurationSeconds = &d
	}
	session.SuccessScore = upd.SuccessScore
	session.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStorage) SaveQueryEmbedding(ctx context.Context, qe *models.QueryEmbedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// One embedding row per session: replace any previous vector for it.
	if _, exists := s.embeddings[qe.SessionID]; exists {
		if err := s.vectors.Delete(ctx, nil, nil, qe.SessionID); err != nil {
			return fmt.Errorf("error replacing embedding: %w", err)
		}
	}

	err := s.vectors.AddDocuments(ctx, []chromem.Document{
		{
			ID:        qe.SessionID,
			Content:   qe.QueryText,
			Embedding: qe.Embedding,
			Metadata:  map[string]string{"session_id": qe.SessionID},
		},
	}, 1)
	if err != nil {
		return fmt.Errorf("error indexing embedding: %w", err)
	}

	qe.CreatedAt = time.Now()
	copied := *qe
	s.embeddings[qe.SessionID] = &copied
	return nil
}

func (s *MemoryStorage) UpdateQueryEmbeddingScore(ctx context.Context, sessionID string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	qe, exists := s.embeddings[sessionID]
	if !exists {
		return ErrNotFound
	}
	qe.SuccessScore = score
	return nil
}

func (s *MemoryStorage) SimilarQueries(ctx context.Context, embedding []float32, minScore float64, limit int) ([]models.SimilarQuery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// chromem caps nResults at the collection size; ask for everything and
	// apply the success-score filter on the way out.
	count := s.vectors.Count()
	if count == 0 {
		return nil, nil
	}

	hits, err := s.vectors.QueryEmbedding(ctx, embedding, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("error querying vector index: %w", err)
	}

	var results []models.SimilarQuery
	for _, hit := range hits {
		qe, exists := s.embeddings[hit.ID]
		if !exists || qe.SuccessScore <= minScore {
			continue
		}
		session, exists := s.sessions[qe.SessionID]
		if !exists {
			continue
		}
		results = append(results, models.SimilarQuery{
			QueryText:    qe.QueryText,
			Filters:      session.ParsedFilters,
			SuccessScore: qe.SuccessScore,
			Similarity:   float64(hit.Similarity),
		})
		if limit > 0 && len(results) == limit {
			break
		}
	}

	return results, nil
}

func (s *MemoryStorage) SaveInteraction(ctx context.Context, interaction *models.SearchInteraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[interaction.SessionID]; !exists {
		return ErrNotFound
	}

	interaction.CreatedAt = time.Now()
	copied := *interaction
	s.interactions[interaction.SessionID] = append(s.interactions[interaction.SessionID], &copied)
	return nil
}

// InteractionsBySession returns the append-only interaction log for a
// session, oldest first.
func (s *MemoryStorage) InteractionsBySession(sessionID string) []*models.SearchInteraction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.interactions[sessionID]
	out := make([]*models.SearchInteraction, len(records))
	for i, r := range records {
		copied := *r
		out[i] = &copied
	}
	return out
}

func (s *MemoryStorage) SaveLearnedPattern(ctx context.Context, pattern *models.LearnedPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pattern.CreatedAt = time.Now()
	if pattern.LastUsedAt.IsZero() {
		pattern.LastUsedAt = pattern.CreatedAt
	}
	copied := *pattern
	s.patterns[pattern.ID] = &copied
	return nil
}

func (s *MemoryStorage) TopLearnedPatterns(ctx context.Context, limit int) ([]models.LearnedPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patterns := make([]models.LearnedPattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		patterns = append(patterns, *p)
	}
	// Confidence first, recency second.
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].ConfidenceScore != patterns[j].ConfidenceScore {
			return patterns[i].ConfidenceScore > patterns[j].ConfidenceScore
		}
		return patterns[i].LastUsedAt.After(patterns[j].LastUsedAt)
	})
	if limit > 0 && len(patterns) > limit {
		patterns = patterns[:limit]
	}
	return patterns, nil
}

func (s *MemoryStorage) TouchLearnedPattern(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pattern, exists := s.patterns[id]
	if !exists {
		return ErrNotFound
	}
	pattern.UsageCount++
	pattern.LastUsedAt = time.Now()
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
