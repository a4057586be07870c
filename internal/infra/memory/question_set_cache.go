package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizmaster/internal/domain"
)

// QuestionSetStore is the backing collection the cache sits in front of.
type QuestionSetStore interface {
	LoadQuestionSets(ctx context.Context) ([]domain.QuestionSet, error)
	SaveQuestionSets(ctx context.Context, sets []domain.QuestionSet) error
}

// QuestionSetCache caches the question-set collection with TTL to avoid repeated
// DB hits. Saves write through and refresh the cached copy.
type QuestionSetCache struct {
	backing QuestionSetStore
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand

	mu        sync.RWMutex
	sets      []domain.QuestionSet
	expiresAt time.Time
	loaded    bool
}

func NewQuestionSetCache(backing QuestionSetStore, ttl time.Duration) *QuestionSetCache {
	return &QuestionSetCache{
		backing: backing,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const collectionKey = "question-sets"

func (c *QuestionSetCache) LoadQuestionSets(ctx context.Context) ([]domain.QuestionSet, error) {
	if sets, ok := c.cached(c.clock()); ok {
		return sets, nil
	}

	result, err, _ := c.sf.Do(collectionKey, func() (interface{}, error) {
		now := c.clock()
		if sets, ok := c.cached(now); ok {
			return sets, nil
		}

		sets, err := c.backing.LoadQuestionSets(ctx)
		if err != nil {
			return nil, err
		}
		c.store(sets, now)
		return sets, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneSets(result.([]domain.QuestionSet)), nil
}

func (c *QuestionSetCache) SaveQuestionSets(ctx context.Context, sets []domain.QuestionSet) error {
	if err := c.backing.SaveQuestionSets(ctx, sets); err != nil {
		c.Invalidate()
		return err
	}
	c.store(sets, c.clock())
	return nil
}

// Invalidate drops the cached collection.
func (c *QuestionSetCache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.sets = nil
	c.mu.Unlock()
}

func (c *QuestionSetCache) cached(now time.Time) ([]domain.QuestionSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded || !c.expiresAt.After(now) {
		return nil, false
	}
	return cloneSets(c.sets), true
}

func (c *QuestionSetCache) store(sets []domain.QuestionSet, now time.Time) {
	c.mu.Lock()
	c.sets = cloneSets(sets)
	c.expiresAt = now.Add(c.ttlWithJitter())
	c.loaded = true
	c.mu.Unlock()
}

func (c *QuestionSetCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
