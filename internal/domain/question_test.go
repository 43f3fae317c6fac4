package domain

import (
	"errors"
	"testing"
)

func validQuestion(text string) Question {
	return Question{
		Text:          text,
		Options:       []string{"A) red", "B) green", "C) blue", "D) pink"},
		CorrectOption: "C) blue",
		Explanation:   "The sky.",
	}
}

func TestQuestionValid(t *testing.T) {
	cases := map[string]struct {
		mutate func(*Question)
		want   bool
	}{
		"well formed":          {func(*Question) {}, true},
		"blank text":           {func(q *Question) { q.Text = "  " }, false},
		"three options":        {func(q *Question) { q.Options = q.Options[:3] }, false},
		"five options":         {func(q *Question) { q.Options = append(q.Options, "E) grey") }, false},
		"correct not listed":   {func(q *Question) { q.CorrectOption = "blue" }, false},
		"correct option empty": {func(q *Question) { q.CorrectOption = "" }, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			q := validQuestion("What colour is the sky?")
			q.Options = append([]string(nil), q.Options...)
			tc.mutate(&q)
			if got := q.Valid(); got != tc.want {
				t.Fatalf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidateBatch(t *testing.T) {
	broken := validQuestion("broken")
	broken.CorrectOption = "nope"
	batch := []Question{validQuestion("one"), broken, validQuestion("two"), validQuestion("three")}

	got, err := ValidateBatch(batch, 2)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(got) != 2 || got[0].Text != "one" || got[1].Text != "two" {
		t.Fatalf("unexpected batch: %+v", got)
	}

	if _, err := ValidateBatch([]Question{broken}, 20); !errors.Is(err, ErrNoValidQuestions) {
		t.Fatalf("expected ErrNoValidQuestions, got %v", err)
	}
}

func TestRedactedDropsAnswer(t *testing.T) {
	q := validQuestion("What colour is the sky?")
	r := q.Redacted()
	if r.Text != q.Text || len(r.Options) != OptionsPerQuestion {
		t.Fatalf("unexpected redaction: %+v", r)
	}
	r.Options[0] = "changed"
	if q.Options[0] == "changed" {
		t.Fatalf("redacted options share storage with the question")
	}
}

func TestPublicError(t *testing.T) {
	wrapped := errors.Join(ErrQuestionGenerationFailed, errors.New("timeout talking to upstream"))
	public, ok := PublicError(wrapped)
	if !ok || public != ErrQuestionGenerationFailed {
		t.Fatalf("expected generation failure to be public, got %v %v", public, ok)
	}
	for _, err := range []error{ErrUnauthorized, ErrDuplicateAnswer, ErrNotPlaying, ErrNotWaiting} {
		if _, ok := PublicError(err); ok {
			t.Fatalf("%v should be silent", err)
		}
	}
}
