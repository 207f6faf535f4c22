package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Dedup  DedupConfig  `yaml:"dedup" mapstructure:"dedup"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Import ImportConfig `yaml:"import" mapstructure:"import"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// DedupConfig configures the duplicate matcher. The thresholds are
// hand-tuned defaults, not validated optima; they live in configuration
// rather than literals so product can tune them against observed
// false-positive/negative rates.
type DedupConfig struct {
	// CandidateThreshold is the minimum normalized score for a pair to be
	// reported as a duplicate candidate.
	CandidateThreshold float64 `yaml:"candidate_threshold" mapstructure:"candidate_threshold"`
	// ReviewThreshold is the minimum score for a manual_review suggestion.
	ReviewThreshold float64 `yaml:"review_threshold" mapstructure:"review_threshold"`
	// AutoMergeThreshold is the minimum score for a merge suggestion.
	AutoMergeThreshold float64 `yaml:"auto_merge_threshold" mapstructure:"auto_merge_threshold"`
	// PhoneticScore caps phonetic rule results below exact/fuzzy confidence.
	PhoneticScore float64 `yaml:"phonetic_score" mapstructure:"phonetic_score"`
	// MaxLeads bounds how many leads are fetched per account scan. Accounts
	// above the bound get a partial scan.
	MaxLeads int `yaml:"max_leads" mapstructure:"max_leads"`
	// RulesPath optionally points at a YAML rule set overriding the defaults.
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// BatchConfig configures batch auto-resolution.
type BatchConfig struct {
	MergesPerSecond float64 `yaml:"merges_per_second" mapstructure:"merges_per_second"`
	Burst           int     `yaml:"burst" mapstructure:"burst"`
}

// ImportConfig configures lead file import.
type ImportConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadscope.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("dedup.candidate_threshold", 0.70)
	v.SetDefault("dedup.review_threshold", 0.85)
	v.SetDefault("dedup.auto_merge_threshold", 0.95)
	v.SetDefault("dedup.phonetic_score", 0.9)
	v.SetDefault("dedup.max_leads", 10_000)
	v.SetDefault("batch.merges_per_second", 5.0)
	v.SetDefault("batch.burst", 1)
	v.SetDefault("import.max_concurrent", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
