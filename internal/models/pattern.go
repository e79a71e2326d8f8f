package models

import "time"

// QueryEmbedding caches the embedding vector of one searched query, tied to
// the session that produced it. Its success score starts at 0 and is
// back-filled by the feedback loop once the session proves out.
type QueryEmbedding struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	QueryText    string    `json:"query_text"`
	Embedding    []float32 `json:"embedding"`
	SuccessScore float64   `json:"success_score"`
	CreatedAt    time.Time `json:"created_at"`
}

// PatternTypeSuccessfulQuery is the only pattern type currently promoted.
const PatternTypeSuccessfulQuery = "successful_query"

// LearnedPattern is a promoted (query -> filters) exemplar reused as few-shot
// context for future extractions. Near-duplicate input texts are allowed;
// retrieval ranks by confidence and recency rather than enforcing uniqueness.
type LearnedPattern struct {
	ID              string      `json:"id"`
	PatternType     string      `json:"pattern_type"`
	InputText       string      `json:"input_text"`
	OutputStructure FilterModel `json:"output_structure"`
	ConfidenceScore float64     `json:"confidence_score"`
	UsageCount      int         `json:"usage_count"`
	LastUsedAt      time.Time   `json:"last_used_at"`
	CreatedAt       time.Time   `json:"created_at"`
}

// SimilarQuery is a nearest-neighbor hit from the embedding store: a past
// successful query, the filters it resolved to, and how close it sits to the
// incoming query.
type SimilarQuery struct {
	QueryText    string      `json:"query_text"`
	Filters      FilterModel `json:"filters"`
	SuccessScore float64     `json:"success_score"`
	Similarity   float64     `json:"similarity"`
}
