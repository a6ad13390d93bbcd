package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/ember/internal/domain"
	"github.com/davidbz/ember/internal/observability"
	"github.com/davidbz/ember/internal/provider/anthropic"
	"github.com/davidbz/ember/internal/provider/openai"
)

// Config represents the completion client configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	LLM       LLMConfig
	Anthropic anthropic.Config
	OpenAI    openai.Config
	Redis     RedisConfig
	Metrics   MetricsConfig
	Log       observability.LogConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"120"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// LLMConfig selects the provider and the defaults applied to every request.
type LLMConfig struct {
	Provider    string  `env:"LLM_PROVIDER"     envDefault:"auto"`
	Model       string  `env:"LLM_MODEL"        envDefault:"claude-sonnet-4-5"`
	MaxTokens   int     `env:"LLM_MAX_TOKENS"   envDefault:"4096"`
	Temperature float64 `env:"LLM_TEMPERATURE"  envDefault:"0.7"`
	Timeout     int     `env:"LLM_TIMEOUT"      envDefault:"30"`
	PricingFile string  `env:"LLM_PRICING_FILE"`
}

// EngineConfig returns the engine defaults.
func (c LLMConfig) EngineConfig() domain.EngineConfig {
	return domain.EngineConfig{
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}
}

// RequestTimeout returns the per-request timeout reported by the error translator.
func (c LLMConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// RedisConfig contains the usage event stream settings. An empty URL disables it.
type RedisConfig struct {
	URL          string `env:"REDIS_URL"`
	UsageStream  string `env:"REDIS_USAGE_STREAM"  envDefault:"ember:usage"`
	StreamMaxLen int64  `env:"REDIS_STREAM_MAXLEN" envDefault:"10000"`
}

// MetricsConfig contains Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH"    envDefault:"/metrics"`
}

// DepConfig is used for dependency injection with dig.
// Provider configs share the type name Config, so fields are named.
type DepConfig struct {
	dig.Out

	Server    *ServerConfig
	CORS      *CORSConfig
	LLM       *LLMConfig
	Anthropic *anthropic.Config
	OpenAI    *openai.Config
	Redis     *RedisConfig
	Metrics   *MetricsConfig
	Log       *observability.LogConfig
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		Out:       dig.Out{},
		Server:    &cfg.Server,
		CORS:      &cfg.CORS,
		LLM:       &cfg.LLM,
		Anthropic: &cfg.Anthropic,
		OpenAI:    &cfg.OpenAI,
		Redis:     &cfg.Redis,
		Metrics:   &cfg.Metrics,
		Log:       &cfg.Log,
	}
}
