package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/creator-search/internal/models"
)

// ExtractionContext carries the few-shot material assembled before an
// extraction call: nearest-neighbor past queries and top learned patterns.
type ExtractionContext struct {
	SimilarQueries  []models.SimilarQuery
	LearnedPatterns []models.LearnedPattern
}

const (
	maxPromptSimilar  = 3
	maxPromptPatterns = 3
)

// chatCompleter is the slice of the OpenAI client the parser needs.
// *openai.Client satisfies it; tests inject fakes.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// GPTParser extracts structured filters from a free-text query with one
// low-temperature chat completion. Every failure path (no client, transport
// error, unparseable response) degrades to ParseBasic, so callers always
// receive a usable FilterModel.
type GPTParser struct {
	client      chatCompleter
	model       string
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

func NewGPTParser(apiKey string, model string, maxTokens int, temperature float64, logger *zap.Logger) *GPTParser {
	p := &GPTParser{
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
	if apiKey != "" {
		p.client = openai.NewClient(apiKey)
	}
	return p
}

// Enabled reports whether a provider is configured. When false, extraction
// never touches the network.
func (p *GPTParser) Enabled() bool {
	return p.client != nil
}

func (p *GPTParser) ExtractFilters(ctx context.Context, query string, ectx ExtractionContext) models.FilterModel {
	if p.client == nil {
		return ParseBasic(query)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: p.systemPrompt(ectx),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: query,
			},
		},
		MaxTokens:   p.maxTokens,
		Temperature: float32(p.temperature),
	})
	if err != nil {
		p.logger.Error("filter extraction request failed, using keyword parser",
			zap.Error(err),
			zap.String("query", query))
		return ParseBasic(query)
	}
	if len(resp.Choices) == 0 {
		p.logger.Error("filter extraction returned no choices, using keyword parser",
			zap.String("query", query))
		return ParseBasic(query)
	}

	raw := stripCodeFence(resp.Choices[0].Message.Content)
	filters, err := models.DecodeFilterModel([]byte(raw))
	if err != nil {
		p.logger.Error("failed to parse extraction response, using keyword parser",
			zap.Error(err),
			zap.String("response", raw))
		return ParseBasic(query)
	}
	return filters
}

func (p *GPTParser) systemPrompt(ectx ExtractionContext) string {
	var b strings.Builder
	b.WriteString(`You convert influencer-marketing search queries into structured creator filters.

Return ONLY a JSON object with this structure (omit any field the query does not constrain; 0 means unbounded):
{
    "platforms": ["instagram", "tiktok", ...],
    "followers": {"min": 0, "max": 0},
    "engagement": {"min": 0, "max": 0},
    "niches": ["fitness", "tech", ...],
    "locations": ["country or city names"],
    "price_range": {"min": 0, "max": 0},
    "verified": true
}

`)
	fmt.Fprintf(&b, "Recognized platforms: %s\n", strings.Join(KnownPlatforms, ", "))
	fmt.Fprintf(&b, "Recognized niches: %s\n", strings.Join(KnownNiches, ", "))

	similar := ectx.SimilarQueries
	if len(similar) > maxPromptSimilar {
		similar = similar[:maxPromptSimilar]
	}
	if len(similar) > 0 {
		b.WriteString("\nSimilar past queries that satisfied users:\n")
		for _, sq := range similar {
			fmt.Fprintf(&b, "- %q -> %s (success %.2f, similarity %.2f)\n",
				sq.QueryText, mustJSON(sq.Filters), sq.SuccessScore, sq.Similarity)
		}
	}

	patterns := topPatterns(ectx.LearnedPatterns, maxPromptPatterns)
	if len(patterns) > 0 {
		b.WriteString("\nLearned query patterns:\n")
		for _, lp := range patterns {
			fmt.Fprintf(&b, "- %q -> %s (confidence %.2f)\n",
				lp.InputText, mustJSON(lp.OutputStructure), lp.ConfidenceScore)
		}
	}

	return b.String()
}

// topPatterns returns up to n patterns ordered by confidence descending.
func topPatterns(patterns []models.LearnedPattern, n int) []models.LearnedPattern {
	out := make([]models.LearnedPattern, len(patterns))
	copy(out, patterns)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ConfidenceScore > out[j].ConfidenceScore
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func mustJSON(f models.FilterModel) string {
	data, err := json.Marshal(f)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// stripCodeFence removes a surrounding markdown code fence, which chat models
// emit around JSON regardless of instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
