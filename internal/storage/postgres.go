package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/xaenox/creator-search/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *PostgresStorage) CreateSession(ctx context.Context, session *models.SearchSession) error {
	filters, err := json.Marshal(session.ParsedFilters)
	if err != nil {
		return fmt.Errorf("error encoding filters: %w", err)
	}

	query := `
		INSERT INTO search_sessions
			(id, user_query, parsed_filters, results_count, user_clicked_results,
			 user_refined_search, session_duration_seconds, success_score, user_id, guest_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err = s.db.QueryRowContext(ctx, query,
		session.ID,
		session.UserQuery,
		string(filters), // lib/pq sends []byte as bytea, not jsonb
		session.ResultsCount,
		session.UserClicked,
		session.UserRefined,
		nullInt64(session.DurationSeconds),
		session.SuccessScore,
		nullString(session.Owner.UserID),
		nullString(session.Owner.GuestID),
	).Scan(&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating search session: %w", err)
	}

	return nil
}

func (s *PostgresStorage) GetSession(ctx context.Context, id string) (*models.SearchSession, error) {
	query := `
		SELECT id, user_query, parsed_filters, results_count, user_clicked_results,
		       user_refined_search, session_duration_seconds, success_score,
		       user_id, guest_user_id, created_at, updated_at
		FROM search_sessions
		WHERE id = $1`

	var (
		session  models.SearchSession
		filters  []byte
		duration sql.NullInt64
		userID   sql.NullString
		guestID  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.UserQuery,
		&filters,
		&session.ResultsCount,
		&session.UserClicked,
		&session.UserRefined,
		&duration,
		&session.SuccessScore,
		&userID,
		&guestID,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying search session: %w", err)
	}

	if err := json.Unmarshal(filters, &session.ParsedFilters); err != nil {
		return nil, fmt.Errorf("error decoding session filters: %w", err)
	}
	if duration.Valid {
		session.DurationSeconds = &duration.Int64
	}
	session.Owner = models.OwnerRef{UserID: userID.String, GuestID: guestID.String}

	return &session, nil
}

func (s *PostgresStorage) UpdateSessionFilters(ctx context.Context, id string, filters models.FilterModel) error {
	encoded, err := json.Marshal(filters)
	if err != nil {
		return fmt.Errorf("error encoding filters: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE search_sessions
		SET parsed_filters = $1, updated_at = $2
		WHERE id = $3`,
		string(encoded), time.Now(), id)
	if err != nil {
		return fmt.Errorf("error updating session filters: %w", err)
	}

	return checkFound(result)
}

func (s *PostgresStorage) UpdateSessionFeedback(ctx context.Context, id string, upd SessionFeedbackUpdate) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE search_sessions
		SET user_clicked_results = COALESCE($1, user_clicked_results),
		    user_refined_search = COALESCE($2, user_refined_search),
		    results_count = COALESCE($3, results_count),
		    session_duration_seconds = COALESCE($4, session_duration_seconds),
		    success_score = $5,
		    updated_at = $6
		WHERE id = $7`,
		nullBool(upd.Clicked),
		nullBool(upd.Refined),
		nullInt(upd.ResultsCount),
		nullInt64(upd.DurationSeconds),
		upd.SuccessScore,
		time.Now(),
		id)
	if err != nil {
		return fmt.Errorf("error updating session feedback: %w", err)
	}

	return checkFound(result)
}

func (s *PostgresStorage) SaveQueryEmbedding(ctx context.Context, qe *models.QueryEmbedding) error {
	query := `
		INSERT INTO query_embeddings (id, session_id, query_text, embedding, success_score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id) DO UPDATE
		SET query_text = EXCLUDED.query_text,
		    embedding = EXCLUDED.embedding,
		    success_score = EXCLUDED.success_score
		RETURNING created_at`

	err := s.db.QueryRowContext(ctx, query,
		qe.ID,
		qe.SessionID,
		qe.QueryText,
		pq.Array(float32sTo64(qe.Embedding)),
		qe.SuccessScore,
	).Scan(&qe.CreatedAt)
	if err != nil {
		return fmt.Errorf("error saving query embedding: %w", err)
	}

	return nil
}

func (s *PostgresStorage) UpdateQueryEmbeddingScore(ctx context.Context, sessionID string, score float64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE query_embeddings
		SET success_score = $1
		WHERE session_id = $2`,
		score, sessionID)
	if err != nil {
		return fmt.Errorf("error updating embedding score: %w", err)
	}
	return checkFound(result)
}

// SimilarQueries loads score-qualified embeddings and ranks them by cosine
// similarity in process. Without a vector extension the database cannot rank
// for us; the corpus here is one row per language-model search, so a full
// scan of the qualified slice stays cheap.
func (s *PostgresStorage) SimilarQueries(ctx context.Context, embedding []float32, minScore float64, limit int) ([]models.SimilarQuery, error) {
	query := `
		SELECT qe.query_text, ss.parsed_filters, qe.success_score, qe.embedding
		FROM query_embeddings qe
		JOIN search_sessions ss ON ss.id = qe.session_id
		WHERE qe.success_score > $1`

	rows, err := s.db.QueryContext(ctx, query, minScore)
	if err != nil {
		return nil, fmt.Errorf("error querying similar queries: %w", err)
	}
	defer rows.Close()

	var results []models.SimilarQuery
	for rows.Next() {
		var (
			sq      models.SimilarQuery
			filters []byte
			vector  pq.Float64Array
		)
		if err := rows.Scan(&sq.QueryText, &filters, &sq.SuccessScore, &vector); err != nil {
			return nil, fmt.Errorf("error scanning similar query: %w", err)
		}
		if err := json.Unmarshal(filters, &sq.Filters); err != nil {
			return nil, fmt.Errorf("error decoding similar query filters: %w", err)
		}
		sq.Similarity = cosineSimilarity(embedding, float64sTo32(vector))
		results = append(results, sq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating similar queries: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	s.logger.Debug("ranked similar queries",
		zap.Int("results", len(results)),
		zap.Float64("min_score", minScore))

	return results, nil
}

func (s *PostgresStorage) SaveInteraction(ctx context.Context, interaction *models.SearchInteraction) error {
	query := `
		INSERT INTO search_interactions (id, session_id, creator_id, action)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := s.db.QueryRowContext(ctx, query,
		interaction.ID,
		interaction.SessionID,
		interaction.CreatorID,
		string(interaction.Action),
	).Scan(&interaction.CreatedAt)
	if err != nil {
		return fmt.Errorf("error saving interaction: %w", err)
	}

	return nil
}

func (s *PostgresStorage) SaveLearnedPattern(ctx context.Context, pattern *models.LearnedPattern) error {
	output, err := json.Marshal(pattern.OutputStructure)
	if err != nil {
		return fmt.Errorf("error encoding pattern output: %w", err)
	}

	query := `
		INSERT INTO learned_patterns
			(id, pattern_type, input_text, output_structure, confidence_score, usage_count, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err = s.db.QueryRowContext(ctx, query,
		pattern.ID,
		pattern.PatternType,
		pattern.InputText,
		string(output),
		pattern.ConfidenceScore,
		pattern.UsageCount,
		pattern.LastUsedAt,
	).Scan(&pattern.CreatedAt)
	if err != nil {
		return fmt.Errorf("error saving learned pattern: %w", err)
	}

	return nil
}

func (s *PostgresStorage) TopLearnedPatterns(ctx context.Context, limit int) ([]models.LearnedPattern, error) {
	query := `
		SELECT id, pattern_type, input_text, output_structure, confidence_score,
		       usage_count, last_used_at, created_at
		FROM learned_patterns
		ORDER BY confidence_score DESC, last_used_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying learned patterns: %w", err)
	}
	defer rows.Close()

	var patterns []models.LearnedPattern
	for rows.Next() {
		var (
			p      models.LearnedPattern
			output []byte
		)
		if err := rows.Scan(
			&p.ID,
			&p.PatternType,
			&p.InputText,
			&output,
			&p.ConfidenceScore,
			&p.UsageCount,
			&p.LastUsedAt,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning learned pattern: %w", err)
		}
		if err := json.Unmarshal(output, &p.OutputStructure); err != nil {
			return nil, fmt.Errorf("error decoding pattern output: %w", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating learned patterns: %w", err)
	}

	return patterns, nil
}

func (s *PostgresStorage) TouchLearnedPattern(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE learned_patterns
		SET usage_count = usage_count + 1, last_used_at = $1
		WHERE id = $2`,
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("error touching learned pattern: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func checkFound(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}
