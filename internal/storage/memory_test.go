package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/creator-search/internal/models"
)

func newTestStorage(t *testing.T) *MemoryStorage {
	t.Helper()
	s, err := NewMemoryStorage()
	require.NoError(t, err)
	return s
}

func newTestSession(id, query string) *models.SearchSession {
	return &models.SearchSession{
		ID:        id,
		UserQuery: query,
		Owner:     models.OwnerRef{GuestID: "guest-1"},
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, newTestSession("s1", "fitness creators")))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "fitness creators", got.UserQuery)
	assert.Zero(t, got.SuccessScore)
	assert.False(t, got.CreatedAt.IsZero())

	filters := models.FilterModel{Niches: []string{"fitness"}}
	require.NoError(t, s.UpdateSessionFilters(ctx, "s1", filters))

	got, err = s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, filters, got.ParsedFilters)
}

func TestSessionNotFound(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.UpdateSessionFilters(ctx, "missing", models.FilterModel{})
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.UpdateSessionFeedback(ctx, "missing", SessionFeedbackUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateSessionRejectsDuplicateID(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSession(ctx, newTestSession("s1", "a")))
	assert.Error(t, s.CreateSession(ctx, newTestSession("s1", "b")))
}

func TestUpdateSessionFeedbackIsPartial(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.CreateSession(ctx, newTestSession("s1", "q")))

	clicked := true
	require.NoError(t, s.UpdateSessionFeedback(ctx, "s1", SessionFeedbackUpdate{
		Clicked:      &clicked,
		SuccessScore: 1.0,
	}))

	count := 7
	require.NoError(t, s.UpdateSessionFeedback(ctx, "s1", SessionFeedbackUpdate{
		ResultsCount: &count,
		SuccessScore: 1.0,
	}))

	got, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	// The click from the first update survives the second, count-only update.
	assert.True(t, got.UserClicked)
	assert.False(t, got.UserRefined)
	assert.Equal(t, 7, got.ResultsCount)
	assert.Equal(t, 1.0, got.SuccessScore)
	assert.Nil(t, got.DurationSeconds)
}

func TestGetSessionReturnsCopy(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.CreateSession(ctx, newTestSession("s1", "q")))

	first, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	first.UserQuery = "mutated"

	second, err := s.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "q", second.UserQuery)
}

func saveEmbedding(t *testing.T, s *MemoryStorage, sessionID, query string, vector []float32, score float64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateSession(ctx, newTestSession(sessionID, query)))
	require.NoError(t, s.UpdateSessionFilters(ctx, sessionID, models.FilterModel{Niches: []string{query}}))
	require.NoError(t, s.SaveQueryEmbedding(ctx, &models.QueryEmbedding{
		ID:        sessionID + "-emb",
		SessionID: sessionID,
		QueryText: query,
		Embedding: vector,
	}))
	if score != 0 {
		require.NoError(t, s.UpdateQueryEmbeddingScore(ctx, sessionID, score))
	}
}

func TestSimilarQueriesRankingAndFiltering(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	saveEmbedding(t, s, "s1", "fitness creators", []float32{1, 0, 0}, 0.9)
	saveEmbedding(t, s, "s2", "fitness influencers", []float32{0.9, 0.43, 0}, 0.6)
	saveEmbedding(t, s, "s3", "tax advice", []float32{0, 0, 1}, 0.8)
	// Below the exemplar floor, never returned.
	saveEmbedding(t, s, "s4", "fresh query", []float32{1, 0.01, 0}, 0)

	got, err := s.SimilarQueries(ctx, []float32{1, 0, 0}, 0.3, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "fitness creators", got[0].QueryText)
	assert.InDelta(t, 1.0, got[0].Similarity, 1e-4)
	assert.Equal(t, 0.9, got[0].SuccessScore)
	assert.Equal(t, []string{"fitness creators"}, got[0].Filters.Niches)

	assert.Equal(t, "fitness influencers", got[1].QueryText)
	assert.Greater(t, got[0].Similarity, got[1].Similarity)

	assert.Equal(t, "tax advice", got[2].QueryText)
}

func TestSimilarQueriesLimit(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	saveEmbedding(t, s, "s1", "one", []float32{1, 0}, 0.9)
	saveEmbedding(t, s, "s2", "two", []float32{0.9, 0.1}, 0.9)
	saveEmbedding(t, s, "s3", "three", []float32{0.8, 0.2}, 0.9)

	got, err := s.SimilarQueries(ctx, []float32{1, 0}, 0.3, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSimilarQueriesEmptyIndex(t *testing.T) {
	s := newTestStorage(t)
	got, err := s.SimilarQueries(context.Background(), []float32{1, 0}, 0.3, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveQueryEmbeddingUpsertsPerSession(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	saveEmbedding(t, s, "s1", "first wording", []float32{1, 0}, 0.9)
	require.NoError(t, s.SaveQueryEmbedding(ctx, &models.QueryEmbedding{
		ID:        "replacement",
		SessionID: "s1",
		QueryText: "second wording",
		Embedding: []float32{0, 1},
	}))
	require.NoError(t, s.UpdateQueryEmbeddingScore(ctx, "s1", 0.9))

	got, err := s.SimilarQueries(ctx, []float32{0, 1}, 0.3, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "second wording", got[0].QueryText)
}

func TestUpdateQueryEmbeddingScoreMissingSession(t *testing.T) {
	s := newTestStorage(t)
	err := s.UpdateQueryEmbeddingScore(context.Background(), "missing", 0.9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInteractionsAppendOnly(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	require.NoError(t, s.CreateSession(ctx, newTestSession("s1", "q")))

	for _, action := range []models.FeedbackAction{models.ActionClick, models.ActionOutreach} {
		require.NoError(t, s.SaveInteraction(ctx, &models.SearchInteraction{
			ID:        string(action) + "-1",
			SessionID: "s1",
			CreatorID: "creator-9",
			Action:    action,
		}))
	}

	records := s.InteractionsBySession("s1")
	require.Len(t, records, 2)
	assert.Equal(t, models.ActionClick, records[0].Action)
	assert.Equal(t, models.ActionOutreach, records[1].Action)

	err := s.SaveInteraction(ctx, &models.SearchInteraction{ID: "x", SessionID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTopLearnedPatternsRanking(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	now := time.Now()
	patterns := []*models.LearnedPattern{
		{ID: "p1", InputText: "old high", ConfidenceScore: 0.9, LastUsedAt: now.Add(-time.Hour)},
		{ID: "p2", InputText: "recent low", ConfidenceScore: 0.5, LastUsedAt: now},
		{ID: "p3", InputText: "recent high", ConfidenceScore: 0.9, LastUsedAt: now},
	}
	for _, p := range patterns {
		require.NoError(t, s.SaveLearnedPattern(ctx, p))
	}

	got, err := s.TopLearnedPatterns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "recent high", got[0].InputText)
	assert.Equal(t, "old high", got[1].InputText)
}

func TestTouchLearnedPattern(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	p := &models.LearnedPattern{
		ID:              "p1",
		PatternType:     models.PatternTypeSuccessfulQuery,
		InputText:       "fitness creators",
		ConfidenceScore: 0.8,
		UsageCount:      1,
		LastUsedAt:      time.Now().Add(-time.Hour),
	}
	require.NoError(t, s.SaveLearnedPattern(ctx, p))
	require.NoError(t, s.TouchLearnedPattern(ctx, "p1"))

	got, err := s.TopLearnedPatterns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].UsageCount)
	assert.WithinDuration(t, time.Now(), got[0].LastUsedAt, time.Minute)

	assert.ErrorIs(t, s.TouchLearnedPattern(ctx, "missing"), ErrNotFound)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, cosineSimilarity(nil, nil))
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 2}))
}
