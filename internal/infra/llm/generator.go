package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"quizroom-service/internal/domain"
)

const (
	DefaultURL   = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel = "llama-3.3-70b-versatile"

	systemPrompt = "You are a quiz question generator. Always respond with valid JSON only, no markdown or extra text."
)

// Options configure the chat-completions client.
type Options struct {
	URL         string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
}

// Generator asks an OpenAI-compatible chat-completions endpoint for quiz questions.
type Generator struct {
	opts Options
}

func NewGenerator(opts Options) *Generator {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 4000
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &Generator{opts: opts}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Fetch implements app.QuestionSource. Entries that are not well-formed are dropped;
// a reply with no usable entry is an error.
func (g *Generator) Fetch(ctx context.Context, topic, difficulty string, count int) ([]domain.Question, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: Prompt(topic, difficulty, count)},
		},
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.opts.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.opts.APIKey)
	}

	resp, err := g.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call generator: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read generator response: %w", err)
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode generator response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return nil, fmt.Errorf("generator returned %d: %s", resp.StatusCode, msg)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("generator returned no choices")
	}

	questions, err := ParseQuestions(decoded.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return domain.ValidateBatch(questions, count)
}

var fence = regexp.MustCompile("```(?:json)?\\n?|\\n?```")

// ParseQuestions decodes the JSON array in a model reply, tolerating markdown fences.
func ParseQuestions(content string) ([]domain.Question, error) {
	cleaned := strings.TrimSpace(fence.ReplaceAllString(content, ""))
	var questions []domain.Question
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoValidQuestions
	}
	return questions, nil
}

// Prompt builds the user message for a batch.
func Prompt(topic, difficulty string, count int) string {
	audience := "Keep questions easy and fun for elementary students"
	if difficulty == domain.DifficultyHard {
		audience = "Make questions challenging for middle/high school students"
	}
	return fmt.Sprintf(`Generate exactly %d %s difficulty multiple-choice quiz questions about %q for school students.

Return ONLY a valid JSON array with this exact format (no markdown, no explanation):
[
  {
    "question": "Question text here?",
    "options": ["A) Option 1", "B) Option 2", "C) Option 3", "D) Option 4"],
    "correctAnswer": "A) Option 1",
    "explanation": "Brief explanation"
  }
]

Rules:
- %s
- Each question MUST have exactly 4 options labeled A), B), C), D)
- correctAnswer MUST match one of the options EXACTLY
- Keep explanations short (1-2 sentences)
- Make questions engaging and educational
- Return ONLY the JSON array, nothing else`, count, difficulty, topic, audience)
}
