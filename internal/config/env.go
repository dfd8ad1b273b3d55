package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type EnvVars struct {
	AppEnv       string        `envconfig:"APP_ENV" default:"dev"`
	Port         int           `envconfig:"PORT" default:"9090"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`

	// LiteLLM-style proxy defaults, used by ready checks and the model list.
	APIBase string `envconfig:"API_BASE" default:"http://127.0.0.1:4000"`
	APIKey  string `envconfig:"API_KEY"`

	LLMTimeout time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`

	BenchWorkers int           `envconfig:"BENCH_WORKERS" default:"4"`
	BenchStagger time.Duration `envconfig:"BENCH_STAGGER" default:"100ms"`

	// Ollama (local LLM) configuration
	OllamaBaseURL string `envconfig:"OLLAMA_BASE_URL" default:"http://localhost:11434"`
	OllamaModel   string `envconfig:"OLLAMA_MODEL" default:"qwen3:0.6b"`

	// Optional response cache. Empty addr disables it.
	RedisAddr string        `envconfig:"REDIS_ADDR"`
	RedisTTL  time.Duration `envconfig:"REDIS_TTL" default:"1h"`

	DBPath         string `envconfig:"DB_PATH" default:"tokens.db"`
	DefinitionsDir string `envconfig:"DEFINITIONS_DIR" default:"definitions"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadEnv reads .env when present (dev convenience) and then the process
// environment.
func LoadEnv() (*EnvVars, error) {
	_ = godotenv.Load()

	var v EnvVars
	if err := envconfig.Process("", &v); err != nil {
		return nil, err
	}
	return &v, nil
}
