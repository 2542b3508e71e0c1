package service

import (
	"context"
	"fmt"
	"strings"
)

// QuestionProvider generates the questions for one quiz. Implementations may be slow
// and may fail; failures should wrap ErrGenerationFailed or ErrMalformedResponse.
type QuestionProvider interface {
	Generate(ctx context.Context, spec CategorySpec, count int) ([]QuizQuestion, error)
}

// ValidateQuestions checks provider output before it can become a session. Questions
// beyond count are dropped.
func ValidateQuestions(questions []QuizQuestion, count int) ([]QuizQuestion, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrMalformedResponse)
	}
	if count > 0 && len(questions) > count {
		questions = questions[:count]
	}

	out := make([]QuizQuestion, 0, len(questions))
	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("%w: question %d has no text", ErrMalformedResponse, i+1)
		}
		if len(q.Options) != OptionCount {
			return nil, fmt.Errorf("%w: question %d has %d options, want %d",
				ErrMalformedResponse, i+1, len(q.Options), OptionCount)
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return nil, fmt.Errorf("%w: question %d option %d is empty", ErrMalformedResponse, i+1, j+1)
			}
		}
		if q.Correct < 0 || q.Correct >= len(q.Options) {
			return nil, fmt.Errorf("%w: question %d correct index %d out of range",
				ErrMalformedResponse, i+1, q.Correct)
		}

		options := make([]string, len(q.Options))
		copy(options, q.Options)
		q.Options = options
		if q.ID == 0 {
			q.ID = i + 1
		}
		out = append(out, q)
	}
	return out, nil
}
