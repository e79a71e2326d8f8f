// Package search orchestrates the query pipeline: session bookkeeping,
// semantic retrieval, filter extraction, and the feedback/learning loop.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/creator-search/internal/models"
	"github.com/xaenox/creator-search/internal/parser"
	"github.com/xaenox/creator-search/internal/semantic"
	"github.com/xaenox/creator-search/internal/storage"
)

// Config tunes the service. Zero values take the documented defaults.
type Config struct {
	Weights ScoreWeights
	// EmbeddingBackfillThreshold is the success score above which the
	// session's query embedding gets the score written back, making it
	// eligible as a future retrieval exemplar.
	EmbeddingBackfillThreshold float64
	// PatternConfidence is the confidence assigned to freshly promoted
	// learned patterns.
	PatternConfidence float64
	// MaxLearnedPatterns caps how many patterns feed the extraction prompt.
	MaxLearnedPatterns int
}

func (c Config) withDefaults() Config {
	if c.Weights == (ScoreWeights{}) {
		c.Weights = DefaultScoreWeights()
	}
	if c.EmbeddingBackfillThreshold == 0 {
		c.EmbeddingBackfillThreshold = 0.5
	}
	if c.PatternConfidence == 0 {
		c.PatternConfidence = 0.8
	}
	if c.MaxLearnedPatterns == 0 {
		c.MaxLearnedPatterns = 3
	}
	return c
}

// Result is what a search invocation hands back to the caller: the cleaned
// search term, the filters to apply, and the session id to thread into
// subsequent feedback calls.
type Result struct {
	SearchTerm string             `json:"search_term"`
	Filters    models.FilterModel `json:"filters"`
	SessionID  string             `json:"session_id"`
}

// Feedback is one user interaction against a session.
type Feedback struct {
	SessionID       string
	Action          models.FeedbackAction
	CreatorID       string
	ResultsCount    *int
	DurationSeconds *int64
}

// Service runs searches and records feedback. A nil retriever disables the
// semantic step (no embedding provider configured); the parser handles its
// own degradation to the keyword fallback.
type Service struct {
	store     storage.Storage
	parser    parser.Parser
	retriever *semantic.Retriever
	config    Config
	logger    *zap.Logger
}

func NewService(store storage.Storage, p parser.Parser, retriever *semantic.Retriever, config Config, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		parser:    p,
		retriever: retriever,
		config:    config.withDefaults(),
		logger:    logger,
	}
}

// Search resolves a query to structured filters. With no sessionID a new
// session is created for the browsing sequence, owned by exactly one of user
// or guest id. Persistence failures are logged and swallowed: the caller
// always gets usable filters, even with every provider down.
func (s *Service) Search(ctx context.Context, query, sessionID string, owner models.OwnerRef) (Result, error) {
	query = strings.TrimSpace(query)

	if sessionID == "" {
		if err := owner.Validate(); err != nil {
			return Result{}, err
		}
		sessionID = uuid.New().String()
		session := &models.SearchSession{
			ID:        sessionID,
			UserQuery: query,
			Owner:     owner,
		}
		if err := s.store.CreateSession(ctx, session); err != nil {
			s.logger.Error("failed to create search session",
				zap.Error(err),
				zap.String("session_id", sessionID))
		}
	}

	var ectx parser.ExtractionContext
	if s.parser.Enabled() {
		if s.retriever != nil {
			ectx.SimilarQueries = s.retriever.RetrieveSimilar(ctx, sessionID, query)
		}

		// Learned patterns feed the extraction prompt regardless of whether
		// the embedding provider is up.
		patterns, err := s.store.TopLearnedPatterns(ctx, s.config.MaxLearnedPatterns)
		if err != nil {
			s.logger.Warn("failed to load learned patterns",
				zap.Error(err),
				zap.String("session_id", sessionID))
		} else {
			ectx.LearnedPatterns = patterns
		}
	}

	filters := s.parser.ExtractFilters(ctx, query, ectx)

	if err := s.store.UpdateSessionFilters(ctx, sessionID, filters); err != nil {
		s.logger.Error("failed to persist parsed filters",
			zap.Error(err),
			zap.String("session_id", sessionID))
	}

	for _, p := range ectx.LearnedPatterns {
		if err := s.store.TouchLearnedPattern(ctx, p.ID); err != nil {
			s.logger.Warn("failed to bump learned pattern usage",
				zap.Error(err),
				zap.String("pattern_id", p.ID))
		}
	}

	return Result{SearchTerm: query, Filters: filters, SessionID: sessionID}, nil
}

// RecordFeedback appends an interaction record where the action carries a
// creator, updates the session's accumulated flags, and recomputes the
// success score from scratch. Above the backfill threshold the score is also
// written onto the session's query embedding so the session becomes a
// retrieval exemplar.
func (s *Service) RecordFeedback(ctx context.Context, fb Feedback) error {
	if !fb.Action.Valid() {
		return fmt.Errorf("unknown feedback action %q", fb.Action)
	}

	session, err := s.store.GetSession(ctx, fb.SessionID)
	if err != nil {
		return fmt.Errorf("loading session %s: %w", fb.SessionID, err)
	}

	if fb.CreatorID != "" && fb.Action != models.ActionViewResults {
		interaction := &models.SearchInteraction{
			ID:        uuid.New().String(),
			SessionID: fb.SessionID,
			CreatorID: fb.CreatorID,
			Action:    fb.Action,
		}
		if err := s.store.SaveInteraction(ctx, interaction); err != nil {
			s.logger.Error("failed to save interaction",
				zap.Error(err),
				zap.String("session_id", fb.SessionID),
				zap.String("creator_id", fb.CreatorID))
		}
	}

	clicked := session.UserClicked
	refined := session.UserRefined
	results := session.ResultsCount

	var upd storage.SessionFeedbackUpdate
	switch fb.Action {
	case models.ActionClick, models.ActionOutreach, models.ActionSave:
		clicked = true
		upd.Clicked = &clicked
	case models.ActionRefine:
		refined = true
		upd.Refined = &refined
	case models.ActionViewResults:
		if fb.ResultsCount != nil {
			results = *fb.ResultsCount
			upd.ResultsCount = fb.ResultsCount
		}
	}
	if fb.DurationSeconds != nil {
		upd.DurationSeconds = fb.DurationSeconds
	}

	score := s.config.Weights.Score(clicked, refined, results)
	upd.SuccessScore = score

	if err := s.store.UpdateSessionFeedback(ctx, fb.SessionID, upd); err != nil {
		return fmt.Errorf("updating session %s: %w", fb.SessionID, err)
	}

	if score > s.config.EmbeddingBackfillThreshold {
		err := s.store.UpdateQueryEmbeddingScore(ctx, fb.SessionID, score)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("failed to back-fill embedding score",
				zap.Error(err),
				zap.String("session_id", fb.SessionID))
		}
	}

	return nil
}

// LearnFromSuccess promotes a (query, filters) pair into a learned pattern.
// It always inserts a fresh pattern; near-duplicates are tolerated because
// retrieval ranks by confidence and recency anyway.
func (s *Service) LearnFromSuccess(ctx context.Context, sessionID, query string, filters models.FilterModel) error {
	pattern := &models.LearnedPattern{
		ID:              uuid.New().String(),
		PatternType:     models.PatternTypeSuccessfulQuery,
		InputText:       query,
		OutputStructure: filters,
		ConfidenceScore: s.config.PatternConfidence,
		UsageCount:      1,
		LastUsedAt:      time.Now(),
	}
	if err := s.store.SaveLearnedPattern(ctx, pattern); err != nil {
		return fmt.Errorf("saving learned pattern for session %s: %w", sessionID, err)
	}

	s.logger.Info("promoted successful query to learned pattern",
		zap.String("session_id", sessionID),
		zap.String("pattern_id", pattern.ID))
	return nil
}
