// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Records  RecordsConfig  `mapstructure:"records"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Coalesce CoalesceConfig `mapstructure:"coalesce"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer"`
	Budget   BudgetConfig   `mapstructure:"budget"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RecordsConfig selects the Record Store backing source.
type RecordsConfig struct {
	// Provider is one of: memory, file, postgres.
	Provider string `mapstructure:"provider"`
	// Dir is the fixture directory for the file provider (<dir>/<kind>.json).
	Dir string `mapstructure:"dir"`
}

// CacheConfig holds the tiered cache TTLs. Values are empirically tuned in
// the original system; kept as configuration to stay reproducible.
type CacheConfig struct {
	ReferenceTTL   int `mapstructure:"reference_ttl"`    // seconds; slow-changing roster data
	OperationalTTL int `mapstructure:"operational_ttl"`  // seconds; tasks, shifts
	QueryTTL       int `mapstructure:"query_ttl"`        // seconds; composed query results
	DateScopedTTL  int `mapstructure:"date_scoped_ttl"`  // seconds; date-ranged filter keys
}

type CoalesceConfig struct {
	WindowMillis int `mapstructure:"window_millis"`
}

// AnalyzerConfig carries the assistant-switch constants from the original
// system (kept reproducible, not re-derived).
type AnalyzerConfig struct {
	AssistantConfidenceThreshold float64 `mapstructure:"assistant_confidence_threshold"`
	DomainScoreMargin            float64 `mapstructure:"domain_score_margin"`
}

type BudgetConfig struct {
	ContextWindow     int     `mapstructure:"context_window"`     // tokens
	SafetyBuffer      int     `mapstructure:"safety_buffer"`      // tokens
	InstructionsRatio float64 `mapstructure:"instructions_ratio"` // share of effective window
	DataRatio         float64 `mapstructure:"data_ratio"`
	HistoryRatio      float64 `mapstructure:"history_ratio"`
	OptimizeThreshold float64 `mapstructure:"optimize_threshold"`  // usage ratio
	SummarizeThreshold float64 `mapstructure:"summarize_threshold"`
}

type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}
