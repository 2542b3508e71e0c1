// Package generator produces quiz questions with a large language model.
package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/PoluyanbIch/GoQuizBot/internal/service"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type ModelConfig struct {
	Provider string
	APIKey   string
	Model    string
}

// NewModel builds the langchaingo client for the configured provider.
func NewModel(ctx context.Context, cfg ModelConfig) (llms.Model, error) {
	switch cfg.Provider {
	case ProviderGemini:
		llm, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		return llm, nil
	case ProviderOpenAI:
		llm, err := openai.New(
			openai.WithModel(cfg.Model),
			openai.WithToken(cfg.APIKey),
		)
		if err != nil {
			return nil, fmt.Errorf("init openai client: %w", err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// LLMProvider implements service.QuestionProvider on top of a langchaingo model.
type LLMProvider struct {
	model  llms.Model
	logger *zap.Logger
}

func NewLLMProvider(model llms.Model, logger *zap.Logger) *LLMProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMProvider{model: model, logger: logger}
}

func (p *LLMProvider) Generate(ctx context.Context, spec service.CategorySpec, count int) ([]service.QuizQuestion, error) {
	prompt := BuildPrompt(spec, count)

	start := time.Now()
	p.logger.Debug("calling llm for quiz generation",
		zap.String("category", string(spec.Category)),
		zap.Int("count", count))

	text, err := llms.GenerateFromSinglePrompt(ctx, p.model, prompt, llms.WithJSONMode())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrGenerationFailed, err)
	}

	questions, err := ParseQuizQuestions(text)
	if err != nil {
		p.logger.Warn("unparseable llm output",
			zap.String("category", string(spec.Category)),
			zap.Int("bytes", len(text)),
			zap.Error(err))
		return nil, err
	}

	p.logger.Info("quiz generated",
		zap.String("category", string(spec.Category)),
		zap.Int("questions", len(questions)),
		zap.Duration("took", time.Since(start)))
	return questions, nil
}
