// Package config collects all runtime configuration into one explicit
// struct, constructed once at startup and injected into services.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pantryops/restock/internal/common"
)

// Budget holds spending ceilings and token pricing for the model capability.
type Budget struct {
	UserMonthlyCap      float64 // dollars per user per month
	SystemDailyCap      float64 // dollars system-wide per day
	InputRatePer1K      float64 // dollars per 1000 input tokens
	OutputRatePer1K     float64 // dollars per 1000 output tokens
	EstimatedCallTokens int     // pre-flight input token estimate per line
}

// Cache holds normalization cache tuning.
type Cache struct {
	Retention time.Duration // durable entry retention window
	Capacity  int           // in-process LRU capacity
	PrewarmN  int           // durable entries loaded at startup
}

// Prediction holds the run-out prediction parameters.
type Prediction struct {
	SmoothingAlpha  float64       // exponential smoothing factor
	ZScoreThreshold float64       // interval outlier cutoff
	RecentWindow    time.Duration // "last purchase is recent" window
}

// LLM holds the model client settings.
type LLM struct {
	Provider    string
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	RateLimit   int // requests per minute
	MaxTokens   int
	Temperature float64
}

// Config is the complete application configuration.
type Config struct {
	DBPath      string
	KVPath      string
	LLM         LLM
	Budget      Budget
	Cache       Cache
	Prediction  Prediction
	BatchWorker int // concurrent lines per upload
}

// Load reads configuration from viper with defaults applied.
func Load(v *viper.Viper) (Config, error) {
	v.SetDefault("budget.user_monthly_cap", 5.0)
	v.SetDefault("budget.system_daily_cap", 50.0)
	v.SetDefault("budget.input_rate_per_1k", 0.003)
	v.SetDefault("budget.output_rate_per_1k", 0.015)
	v.SetDefault("budget.estimated_call_tokens", 600)

	v.SetDefault("cache.retention", "2160h") // 90 days
	v.SetDefault("cache.capacity", 1000)
	v.SetDefault("cache.prewarm", 1000)

	v.SetDefault("prediction.smoothing_alpha", 0.3)
	v.SetDefault("prediction.zscore_threshold", 2.0)
	v.SetDefault("prediction.recent_window", "720h") // 30 days

	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", "1s")
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.temperature", 0.1)

	v.SetDefault("engine.batch_workers", 4)

	cfg := Config{
		DBPath: v.GetString("database.path"),
		KVPath: v.GetString("kv.path"),
		Budget: Budget{
			UserMonthlyCap:      v.GetFloat64("budget.user_monthly_cap"),
			SystemDailyCap:      v.GetFloat64("budget.system_daily_cap"),
			InputRatePer1K:      v.GetFloat64("budget.input_rate_per_1k"),
			OutputRatePer1K:     v.GetFloat64("budget.output_rate_per_1k"),
			EstimatedCallTokens: v.GetInt("budget.estimated_call_tokens"),
		},
		Cache: Cache{
			Retention: v.GetDuration("cache.retention"),
			Capacity:  v.GetInt("cache.capacity"),
			PrewarmN:  v.GetInt("cache.prewarm"),
		},
		Prediction: Prediction{
			SmoothingAlpha:  v.GetFloat64("prediction.smoothing_alpha"),
			ZScoreThreshold: v.GetFloat64("prediction.zscore_threshold"),
			RecentWindow:    v.GetDuration("prediction.recent_window"),
		},
		LLM: LLM{
			Provider:    v.GetString("llm.provider"),
			APIKey:      v.GetString("llm.api_key"),
			Model:       v.GetString("llm.model"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			RetryDelay:  v.GetDuration("llm.retry_delay"),
			RateLimit:   v.GetInt("llm.rate_limit"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			Temperature: v.GetFloat64("llm.temperature"),
		},
		BatchWorker: v.GetInt("engine.batch_workers"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that configured values are usable.
func (c Config) Validate() error {
	if c.Budget.UserMonthlyCap < 0 || c.Budget.SystemDailyCap < 0 {
		return fmt.Errorf("%w: budget caps must be non-negative", common.ErrInvalidConfig)
	}
	if c.Budget.InputRatePer1K < 0 || c.Budget.OutputRatePer1K < 0 {
		return fmt.Errorf("%w: token rates must be non-negative", common.ErrInvalidConfig)
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("%w: cache capacity must be positive", common.ErrInvalidConfig)
	}
	if c.Prediction.SmoothingAlpha <= 0 || c.Prediction.SmoothingAlpha > 1 {
		return fmt.Errorf("%w: smoothing alpha must be in (0, 1]", common.ErrInvalidConfig)
	}
	if c.Prediction.ZScoreThreshold <= 0 {
		return fmt.Errorf("%w: z-score threshold must be positive", common.ErrInvalidConfig)
	}
	if c.BatchWorker <= 0 {
		return fmt.Errorf("%w: batch workers must be positive", common.ErrInvalidConfig)
	}
	return nil
}
