package cart

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

// MemoryStore keeps carts in process memory. Carts idle longer than the TTL
// are removed by Sweep.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]*models.Cart
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates a store whose carts expire after ttl of inactivity.
// A zero ttl disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		carts: make(map[string]*models.Cart),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[sessionID]
	if !ok || s.expired(c) {
		return emptyCart(sessionID), nil
	}
	return cloneCart(c), nil
}

func (s *MemoryStore) Save(ctx context.Context, c *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneCart(c)
	stored.UpdatedAt = s.now()
	c.UpdatedAt = stored.UpdatedAt
	s.carts[c.SessionID] = stored
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}

// Sweep removes expired carts and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, c := range s.carts {
		if s.expired(c) {
			delete(s.carts, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored carts, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.carts)
}

// ScheduleSweep registers Sweep on c on the given cron schedule.
func (s *MemoryStore) ScheduleSweep(c *cron.Cron, schedule string, log *zap.Logger) error {
	_, err := c.AddFunc(schedule, func() {
		if n := s.Sweep(); n > 0 {
			log.Info("expired carts removed", zap.Int("count", n))
		}
	})
	return err
}

func (s *MemoryStore) expired(c *models.Cart) bool {
	return s.ttl > 0 && s.now().Sub(c.UpdatedAt) > s.ttl
}
