package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizmaster/internal/domain"
)

// QuestionSetStore is the backing collection the cache sits in front of.
type QuestionSetStore interface {
	LoadQuestionSets(ctx context.Context) ([]domain.QuestionSet, error)
	SaveQuestionSets(ctx context.Context, sets []domain.QuestionSet) error
}

// QuestionSetCache caches the question-set collection in a Redis hash and falls back
// to the backing store on a miss. Sets are stored as:
// HSET quiz:question-sets {position} {json}
// An empty collection is never cached.
type QuestionSetCache struct {
	client  *redis.Client
	backing QuestionSetStore
	ttl     time.Duration
	sf      singleflight.Group
	rnd     *rand.Rand
}

const questionSetsHash = "quiz:question-sets"

func NewQuestionSetCache(client *redis.Client, backing QuestionSetStore, ttl time.Duration) *QuestionSetCache {
	return &QuestionSetCache{
		client:  client,
		backing: backing,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionSetCache) LoadQuestionSets(ctx context.Context) ([]domain.QuestionSet, error) {
	if sets, ok := c.cached(ctx); ok {
		return sets, nil
	}

	result, err, _ := c.sf.Do(questionSetsHash, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if sets, ok := c.cached(ctx); ok {
			return sets, nil
		}

		sets, err := c.backing.LoadQuestionSets(ctx)
		if err != nil {
			return nil, err
		}
		c.fill(ctx, sets)
		return sets, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuestionSet), nil
}

func (c *QuestionSetCache) SaveQuestionSets(ctx context.Context, sets []domain.QuestionSet) error {
	if err := c.backing.SaveQuestionSets(ctx, sets); err != nil {
		return err
	}
	c.fill(ctx, sets)
	return nil
}

func (c *QuestionSetCache) cached(ctx context.Context) ([]domain.QuestionSet, bool) {
	entries, err := c.client.HGetAll(ctx, questionSetsHash).Result()
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	sets, err := decodeCachedSets(entries)
	if err != nil {
		return nil, false
	}
	return sets, true
}

// fill replaces the hash in one pipeline. Failures only cost a later miss.
func (c *QuestionSetCache) fill(ctx context.Context, sets []domain.QuestionSet) {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, questionSetsHash)
	for i, set := range sets {
		raw, err := json.Marshal(set)
		if err != nil {
			return
		}
		pipe.HSet(ctx, questionSetsHash, fmt.Sprintf("%06d", i), raw)
	}
	if ttl := c.ttlWithJitter(); ttl > 0 && len(sets) > 0 {
		pipe.Expire(ctx, questionSetsHash, ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func decodeCachedSets(entries map[string]string) ([]domain.QuestionSet, error) {
	positions := make([]string, 0, len(entries))
	for pos := range entries {
		positions = append(positions, pos)
	}
	sort.Strings(positions)

	sets := make([]domain.QuestionSet, 0, len(entries))
	for _, pos := range positions {
		var set domain.QuestionSet
		if err := json.Unmarshal([]byte(entries[pos]), &set); err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func (c *QuestionSetCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
