// Package config loads application configuration from the environment
// and an optional .env file, grounded on the teacher's internal/config
// viper+godotenv pattern (mapstructure-tagged nested sections, a
// process-wide Get() singleton, setDefaults/bindEnvironmentVariables/
// validateConfig staged initialization), scoped to the spec's own
// Research section (spec 6's configuration list).
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      App      `mapstructure:"app"`
	Research Research `mapstructure:"research"`
	Logging  Logging  `mapstructure:"logging"`
}

// App holds process-wide behavior flags.
type App struct {
	Debug bool `mapstructure:"debug"`
}

// Logging holds the log level and format read from config and the
// LOG_LEVEL/LOG_FORMAT environment variables. internal/logger does not
// read these values; it always logs JSON at debug level.
type Logging struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Research holds every setting the pipeline's stages and memory
// subsystem read, per spec 6's configuration list.
type Research struct {
	// LLM provider credentials and tuning.
	GeminiAPIKey   string  `mapstructure:"gemini_api_key"` // stands in for spec's GROQ_API_KEY slot
	LLMModel       string  `mapstructure:"llm_model"`
	LLMTemperature float64 `mapstructure:"llm_temperature"`
	LLMMaxTokens   int     `mapstructure:"llm_max_tokens"`
	EmbeddingModel string  `mapstructure:"embedding_model"`

	// Search provider credentials.
	SerperAPIKey string `mapstructure:"serper_api_key"`
	TavilyAPIKey string `mapstructure:"tavily_api_key"`
	BraveAPIKey  string `mapstructure:"brave_api_key"`

	// Pipeline-wide tuning.
	MaxSources            int           `mapstructure:"max_sources"`
	SearchTimeout         time.Duration `mapstructure:"search_timeout"`
	MaxConcurrentRequests int           `mapstructure:"max_concurrent_requests"`
	CacheTTL              time.Duration `mapstructure:"cache_ttl"`

	// Memory subsystem storage location.
	MemoryDBPath string `mapstructure:"memory_db_path"`
}

var global *Config

// Load reads configuration from configFile (if non-empty), a .env file
// in the working directory, and the environment, in that precedence
// order (environment wins), validates it, and sets it as the process
// singleton.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load() // .env is optional; ignore a missing file

	v := viper.New()
	setDefaults(v)
	bindEnvironmentVariables(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("config: read %s: %w", configFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	global = &cfg
	return &cfg, nil
}

// Get returns the process-wide Config set by the last successful Load.
func Get() *Config {
	if global == nil {
		panic("config: Get called before a successful Load")
	}
	return global
}

// Reset clears the process-wide singleton; used by tests.
func Reset() {
	global = nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("research.llm_model", "llama-3.1-8b-instant")
	v.SetDefault("research.llm_temperature", 0.1)
	v.SetDefault("research.llm_max_tokens", 4000)
	v.SetDefault("research.embedding_model", "all-MiniLM-L6-v2")
	v.SetDefault("research.max_sources", 20)
	v.SetDefault("research.search_timeout", 30*time.Second)
	v.SetDefault("research.max_concurrent_requests", 10)
	v.SetDefault("research.cache_ttl", 3600*time.Second)
	v.SetDefault("research.memory_db_path", "briefly_memory.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func bindEnvironmentVariables(v *viper.Viper) {
	bindings := map[string]string{
		"research.gemini_api_key":          "GEMINI_API_KEY",
		"research.serper_api_key":          "SERPER_API_KEY",
		"research.tavily_api_key":          "TAVILY_API_KEY",
		"research.brave_api_key":           "BRAVE_API_KEY",
		"research.llm_model":               "LLM_MODEL",
		"research.llm_temperature":         "LLM_TEMPERATURE",
		"research.llm_max_tokens":          "LLM_MAX_TOKENS",
		"research.embedding_model":         "EMBEDDING_MODEL",
		"research.max_sources":             "MAX_SOURCES",
		"research.search_timeout":          "SEARCH_TIMEOUT",
		"research.max_concurrent_requests": "MAX_CONCURRENT_REQUESTS",
		"research.cache_ttl":               "CACHE_TTL",
		"research.memory_db_path":          "MEMORY_DB_PATH",
		"app.debug":                        "DEBUG",
		"logging.level":                    "LOG_LEVEL",
		"logging.format":                   "LOG_FORMAT",
	}
	for key, env := range bindings {
		_ = v.BindEnv(key, env)
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Research.GeminiAPIKey == "" {
		return &configValidationError{Reason: "GEMINI_API_KEY is required"}
	}
	if cfg.Research.SerperAPIKey == "" && cfg.Research.TavilyAPIKey == "" && cfg.Research.BraveAPIKey == "" {
		return &configValidationError{Reason: "at least one of SERPER_API_KEY, TAVILY_API_KEY, BRAVE_API_KEY is required"}
	}
	return nil
}

// configValidationError reports a missing or invalid configuration
// value. It mirrors core.ConfigError's message shape but is a separate
// type, so Load never returns a *core.ConfigError.
type configValidationError struct {
	Reason string
}

func (e *configValidationError) Error() string {
	return fmt.Sprintf("config error: %s", e.Reason)
}

// ConfiguredSearchProviders reports which search provider env vars are
// present, in the spec's preferred order (serper, tavily, brave).
func (c *Config) ConfiguredSearchProviders() []string {
	var names []string
	if c.Research.SerperAPIKey != "" {
		names = append(names, "serper")
	}
	if c.Research.TavilyAPIKey != "" {
		names = append(names, "tavily")
	}
	if c.Research.BraveAPIKey != "" {
		names = append(names, "brave")
	}
	return names
}

// IsDebugMode reports whether the app-wide debug flag is set.
func IsDebugMode() bool { return Get().App.Debug }
