package domain

import (
	"strings"

	"github.com/samber/lo"
)

// OptionsPerQuestion is the fixed number of choices for every question.
const OptionsPerQuestion = 4

// Question is a multiple-choice item. JSON tags follow the generator's output format.
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// RedactedQuestion is safe to send before the round ends.
type RedactedQuestion struct {
	Text    string   `json:"question"`
	Options []string `json:"options"`
}

// Redacted drops the correct option and explanation.
func (q Question) Redacted() RedactedQuestion {
	return RedactedQuestion{
		Text:    q.Text,
		Options: append([]string(nil), q.Options...),
	}
}

// Valid reports whether the question has text, four options and a correct option
// that matches one of them exactly.
func (q Question) Valid() bool {
	if strings.TrimSpace(q.Text) == "" || len(q.Options) != OptionsPerQuestion {
		return false
	}
	return q.CorrectOption != "" && lo.Contains(q.Options, q.CorrectOption)
}

// ValidateBatch discards invalid questions and trims the result to count.
// A batch without any valid question yields ErrNoValidQuestions.
func ValidateBatch(batch []Question, count int) ([]Question, error) {
	valid := lo.Filter(batch, func(q Question, _ int) bool { return q.Valid() })
	if len(valid) == 0 {
		return nil, ErrNoValidQuestions
	}
	if count > 0 && len(valid) > count {
		valid = valid[:count]
	}
	return valid, nil
}

// RedactAll maps a question list to its client-safe form.
func RedactAll(questions []Question) []RedactedQuestion {
	return lo.Map(questions, func(q Question, _ int) RedactedQuestion { return q.Redacted() })
}
