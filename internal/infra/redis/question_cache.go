package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"
	"quizroom-service/internal/infra/memory"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionCache stores generated batches in Redis so every instance and restart can reuse
// them: SET questions:{difficulty}:{count}:{topic} <json batch> EX ttl.
// It falls back to the wrapped source on a miss or on Redis errors.
type QuestionCache struct {
	client *redis.Client
	source app.QuestionSource
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionCache(client *redis.Client, source app.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Fetch(ctx context.Context, topic, difficulty string, count int) ([]domain.Question, error) {
	key := c.key(topic, difficulty, count)
	if batch, ok := c.lookup(ctx, key); ok {
		return batch, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if batch, ok := c.lookup(ctx, key); ok {
			return batch, nil
		}

		batch, err := c.source.Fetch(ctx, topic, difficulty, count)
		if err != nil {
			return nil, err
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			if data, err := json.Marshal(batch); err == nil {
				_ = c.client.Set(ctx, key, data, ttl).Err()
			}
		}
		return batch, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Question(nil), result.([]domain.Question)...), nil
}

func (c *QuestionCache) lookup(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var batch []domain.Question
	if err := json.Unmarshal(data, &batch); err != nil || len(batch) == 0 {
		return nil, false
	}
	return batch, true
}

func (c *QuestionCache) key(topic, difficulty string, count int) string {
	return "questions:" + memory.BatchKey(topic, difficulty, count)
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
