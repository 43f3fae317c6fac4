package memory

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// QuestionCache keeps recent batches per topic and difficulty so popular topics do not
// hit the generator every round. Concurrent misses for the same key share one fetch.
// A zero TTL disables caching but still collapses concurrent identical fetches.
type QuestionCache struct {
	source app.QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedBatch
}

type cachedBatch struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(source app.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBatch),
	}
}

func (c *QuestionCache) Fetch(ctx context.Context, topic, difficulty string, count int) ([]domain.Question, error) {
	key := BatchKey(topic, difficulty, count)
	if batch, ok := c.lookup(key); ok {
		return batch, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if batch, ok := c.lookup(key); ok {
			return batch, nil
		}

		batch, err := c.source.Fetch(ctx, topic, difficulty, count)
		if err != nil {
			return nil, err
		}

		if ttl := c.ttlWithJitter(); ttl > 0 {
			c.mu.Lock()
			c.cache[key] = cachedBatch{questions: batch, expiresAt: c.clock().Add(ttl)}
			c.mu.Unlock()
		}
		return batch, nil
	})
	if err != nil {
		return nil, err
	}
	return copyBatch(result.([]domain.Question)), nil
}

func (c *QuestionCache) lookup(key string) ([]domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return copyBatch(entry.questions), true
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// BatchKey identifies a batch request independent of topic casing and spacing.
func BatchKey(topic, difficulty string, count int) string {
	topic = strings.Join(strings.Fields(strings.ToLower(topic)), " ")
	return strings.ToLower(difficulty) + ":" + strconv.Itoa(count) + ":" + topic
}

// copyBatch detaches callers from the cached slice; option slices are never mutated.
func copyBatch(batch []domain.Question) []domain.Question {
	return append([]domain.Question(nil), batch...)
}
