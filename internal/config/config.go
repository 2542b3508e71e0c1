// Package config loads bot configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Telegram TelegramConfig
	LLM      LLMConfig
	Quiz     QuizConfig
	Redis    RedisConfig
	Server   ServerConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// TelegramConfig holds bot API settings.
type TelegramConfig struct {
	Token string `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
	Debug bool   `env:"BOT_DEBUG" envDefault:"false"`
}

// LLMConfig selects the question generator.
type LLMConfig struct {
	Provider     string `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash-lite"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
}

// QuizConfig holds quiz pacing.
type QuizConfig struct {
	QuestionCount     int           `env:"QUIZ_QUESTION_COUNT" envDefault:"5"`
	NextQuestionDelay time.Duration `env:"NEXT_QUESTION_DELAY" envDefault:"3s"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"60s"`
	ShuffleOptions    bool          `env:"SHUFFLE_OPTIONS" envDefault:"false"`
}

// RedisConfig holds leaderboard storage settings. An empty Addr keeps the
// leaderboard in memory.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// ServerConfig holds HTTP liveness server settings.
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"3000"`
}

// APIKey returns the key for the selected provider.
func (c LLMConfig) APIKey() string {
	if c.Provider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// Model returns the model name for the selected provider.
func (c LLMConfig) Model() string {
	if c.Provider == "openai" {
		return c.OpenAIModel
	}
	return c.GeminiModel
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case "gemini", "openai":
		if c.LLM.APIKey() == "" {
			errs = append(errs, fmt.Errorf("api key for llm provider %q is not set", c.LLM.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider))
	}
	if c.Quiz.QuestionCount < 1 || c.Quiz.QuestionCount > 20 {
		errs = append(errs, fmt.Errorf("QUIZ_QUESTION_COUNT must be between 1 and 20, got %d", c.Quiz.QuestionCount))
	}
	if c.Quiz.NextQuestionDelay < 0 {
		errs = append(errs, errors.New("NEXT_QUESTION_DELAY must not be negative"))
	}
	if c.Quiz.GenerationTimeout <= 0 {
		errs = append(errs, errors.New("GENERATION_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}
