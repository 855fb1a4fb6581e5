package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string

	// External language model (optional; engines fall back when unset)
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Market data providers (optional; quotes unavailable when unset)
	AlphaVantageAPIKey string
	FinnhubAPIKey      string

	Ranking RankingConfig
}

// RankingConfig holds the feed ranking parameters. The weights and the
// freshness window are product decisions, not derived laws, so they are
// configurable rather than hard-coded in the engine.
type RankingConfig struct {
	QualityWeight         float64
	FreshnessWeight       float64
	ReputationWeight      float64
	SentimentWeight       float64
	TimeSensitivityWeight float64
	FreshnessWindowHours  float64
	CandidateMultiplier   int
	DefaultLimit          int
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		OpenAIAPIKey:            getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:           getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:             getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AlphaVantageAPIKey:      getEnv("ALPHA_VANTAGE_API_KEY", ""),
		FinnhubAPIKey:           getEnv("FINNHUB_API_KEY", ""),
		Ranking: RankingConfig{
			QualityWeight:         getEnvFloat("RANKING_QUALITY_WEIGHT", 0.30),
			FreshnessWeight:       getEnvFloat("RANKING_FRESHNESS_WEIGHT", 0.20),
			ReputationWeight:      getEnvFloat("RANKING_REPUTATION_WEIGHT", 0.20),
			SentimentWeight:       getEnvFloat("RANKING_SENTIMENT_WEIGHT", 0.15),
			TimeSensitivityWeight: getEnvFloat("RANKING_TIME_SENSITIVITY_WEIGHT", 0.15),
			FreshnessWindowHours:  getEnvFloat("RANKING_FRESHNESS_WINDOW_HOURS", 168),
			CandidateMultiplier:   getEnvInt("RANKING_CANDIDATE_MULTIPLIER", 2),
			DefaultLimit:          getEnvInt("RANKING_DEFAULT_LIMIT", 50),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
