package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"quizroom-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionBank serves curated questions stored as JSONB rows in question_bank.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

// Fetch picks up to count random questions for the topic and difficulty.
func (b *QuestionBank) Fetch(ctx context.Context, topic, difficulty string, count int) ([]domain.Question, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT data FROM question_bank
		WHERE lower(topic) = lower($1) AND difficulty = $2
		ORDER BY random()
		LIMIT $3`, topic, difficulty, count)
	if err != nil {
		return nil, fmt.Errorf("query question bank: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("question bank has nothing for %q (%s): %w", topic, difficulty, domain.ErrNoValidQuestions)
	}
	return out, nil
}

// AddQuestions stores questions in the bank for later rounds.
func (b *QuestionBank) AddQuestions(ctx context.Context, topic, difficulty string, questions []domain.Question) error {
	for _, q := range questions {
		data, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("marshal question: %w", err)
		}
		if _, err := b.pool.Exec(ctx, `INSERT INTO question_bank (topic, difficulty, data) VALUES ($1, $2, $3)`, topic, difficulty, data); err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}
	return nil
}
