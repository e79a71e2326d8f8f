package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Creators CreatorsConfig `mapstructure:"creators"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type OpenAIConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature"`
}

// ScoringConfig exposes the success-score weights and pipeline thresholds as
// tunables. The defaults are the values the learning loop was built around;
// changing them shifts how aggressively past sessions are reused.
type ScoringConfig struct {
	ClickWeight                float64 `mapstructure:"click_weight"`
	NoRefineWeight             float64 `mapstructure:"no_refine_weight"`
	ResultsWeight              float64 `mapstructure:"results_weight"`
	SimilarityThreshold        float64 `mapstructure:"similarity_threshold"`
	MinExemplarScore           float64 `mapstructure:"min_exemplar_score"`
	EmbeddingBackfillThreshold float64 `mapstructure:"embedding_backfill_threshold"`
	PatternConfidence          float64 `mapstructure:"pattern_confidence"`
	MaxSimilarQueries          int     `mapstructure:"max_similar_queries"`
	MaxLearnedPatterns         int     `mapstructure:"max_learned_patterns"`
}

type CreatorsConfig struct {
	File string `mapstructure:"file"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	// Remove leading slash from path to get database name
	dbName := strings.TrimPrefix(u.Path, "/")

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  "disable",
	}, nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("server.addr", ":8090")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("openai.max_tokens", 300)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("scoring.click_weight", 0.5)
	v.SetDefault("scoring.no_refine_weight", 0.3)
	v.SetDefault("scoring.results_weight", 0.2)
	v.SetDefault("scoring.similarity_threshold", 0.7)
	v.SetDefault("scoring.min_exemplar_score", 0.3)
	v.SetDefault("scoring.embedding_backfill_threshold", 0.5)
	v.SetDefault("scoring.pattern_confidence", 0.8)
	v.SetDefault("scoring.max_similar_queries", 3)
	v.SetDefault("scoring.max_learned_patterns", 3)

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file; a missing file just means defaults + env.
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		config.Database = dbConfig
	}

	// Get other environment variables
	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}

	return &config, nil
}
