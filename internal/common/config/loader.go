// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like LLM_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, merged if present.
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns a Config with every default applied and no files read.
// Used by tests and by the demo binary when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion.
func overrideEmptyConfig(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		if val := os.Getenv("LLM_API_KEY"); val != "" {
			cfg.LLM.APIKey = val
		}
	}
	if cfg.LLM.APIKey == "" {
		if val := os.Getenv("OPENAI_API_KEY"); val != "" {
			cfg.LLM.APIKey = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// applyDefaults fills every tuned constant with the values the original
// system shipped with. The thresholds have no documented rationale beyond
// reproduced behavior, so they stay here rather than in code.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "hr-assistant"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Records.Provider == "" {
		cfg.Records.Provider = "memory"
	}
	if cfg.Records.Dir == "" {
		cfg.Records.Dir = "./data"
	}
	if cfg.Cache.ReferenceTTL == 0 {
		cfg.Cache.ReferenceTTL = 15 * 60
	}
	if cfg.Cache.OperationalTTL == 0 {
		cfg.Cache.OperationalTTL = 5 * 60
	}
	if cfg.Cache.QueryTTL == 0 {
		cfg.Cache.QueryTTL = 5 * 60
	}
	if cfg.Cache.DateScopedTTL == 0 {
		cfg.Cache.DateScopedTTL = 2 * 60
	}
	if cfg.Coalesce.WindowMillis == 0 {
		cfg.Coalesce.WindowMillis = 50
	}
	if cfg.Analyzer.AssistantConfidenceThreshold == 0 {
		cfg.Analyzer.AssistantConfidenceThreshold = 0.6
	}
	if cfg.Analyzer.DomainScoreMargin == 0 {
		cfg.Analyzer.DomainScoreMargin = 0.3
	}
	if cfg.Budget.ContextWindow == 0 {
		cfg.Budget.ContextWindow = 16000
	}
	if cfg.Budget.SafetyBuffer == 0 {
		cfg.Budget.SafetyBuffer = 1000
	}
	if cfg.Budget.InstructionsRatio == 0 {
		cfg.Budget.InstructionsRatio = 0.15
	}
	if cfg.Budget.DataRatio == 0 {
		cfg.Budget.DataRatio = 0.35
	}
	if cfg.Budget.HistoryRatio == 0 {
		cfg.Budget.HistoryRatio = 0.50
	}
	if cfg.Budget.OptimizeThreshold == 0 {
		cfg.Budget.OptimizeThreshold = 0.6
	}
	if cfg.Budget.SummarizeThreshold == 0 {
		cfg.Budget.SummarizeThreshold = 0.8
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9102"
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Records.Provider {
	case "memory", "file", "postgres":
	default:
		return fmt.Errorf("unknown records provider %q", cfg.Records.Provider)
	}
	if cfg.Records.Provider == "postgres" && cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("records provider is postgres but database.postgres.host is empty")
	}
	if cfg.Budget.SafetyBuffer >= cfg.Budget.ContextWindow {
		return fmt.Errorf("budget.safety_buffer must be smaller than budget.context_window")
	}
	total := cfg.Budget.InstructionsRatio + cfg.Budget.DataRatio + cfg.Budget.HistoryRatio
	if total > 1.0001 {
		return fmt.Errorf("budget ratios sum to %.2f, must not exceed 1.0", total)
	}
	return nil
}
