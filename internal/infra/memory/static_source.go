package memory

import (
	"context"
	"fmt"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"
)

// StaticSource serves questions without any external call. It backs demos and tests,
// and acts as the last-resort fallback when the generator is down.
type StaticSource struct {
	questions []domain.Question
}

// NewStaticSource serves the given questions for every topic.
func NewStaticSource(questions []domain.Question) *StaticSource {
	return &StaticSource{questions: questions}
}

// Fetch returns the fixed questions, or placeholder questions about the topic when the
// source was built without any.
func (s *StaticSource) Fetch(_ context.Context, topic, _ string, count int) ([]domain.Question, error) {
	if len(s.questions) > 0 {
		if count > 0 && len(s.questions) > count {
			return copyBatch(s.questions[:count]), nil
		}
		return copyBatch(s.questions), nil
	}
	return PlaceholderQuestions(topic, count), nil
}

// PlaceholderQuestions builds count generic questions whose first option is correct.
func PlaceholderQuestions(topic string, count int) []domain.Question {
	out := make([]domain.Question, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, domain.Question{
			Text:          fmt.Sprintf("Sample question %d about %s?", i+1, topic),
			Options:       []string{"A) Option 1", "B) Option 2", "C) Option 3", "D) Option 4"},
			CorrectOption: "A) Option 1",
			Explanation:   "This is a fallback question.",
		})
	}
	return out
}

// FallbackSource asks primary first and falls back to secondary if primary fails or
// returns nothing usable.
type FallbackSource struct {
	primary   app.QuestionSource
	secondary app.QuestionSource
	onError   func(err error)
}

func NewFallbackSource(primary, secondary app.QuestionSource, onError func(err error)) *FallbackSource {
	return &FallbackSource{primary: primary, secondary: secondary, onError: onError}
}

func (f *FallbackSource) Fetch(ctx context.Context, topic, difficulty string, count int) ([]domain.Question, error) {
	batch, err := f.primary.Fetch(ctx, topic, difficulty, count)
	if err == nil {
		if _, err = domain.ValidateBatch(batch, count); err == nil {
			return batch, nil
		}
	}
	if f.onError != nil {
		f.onError(err)
	}
	return f.secondary.Fetch(ctx, topic, difficulty, count)
}
