package session

import (
	"fmt"
	"time"

	"sevapay/internal/logger"
	"sevapay/internal/workflow"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Session is one payment form instance with its own controller.
type Session struct {
	ID         string
	Controller *workflow.Controller
	CreatedAt  time.Time
}

// Store keeps the most recently used sessions. An evicted session is reset
// so a pending checkout cannot complete against it.
type Store struct {
	cache *lru.Cache[string, *Session]
}

func NewStore(capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = 1000
	}

	cache, err := lru.NewWithEvict[string, *Session](capacity, func(id string, s *Session) {
		logger.L().Info("session evicted", zap.String("session_id", id))
		s.Controller.Reset()
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}

	return &Store{cache: cache}, nil
}

func (s *Store) Create(c *workflow.Controller) *Session {
	sess := &Session{
		ID:         uuid.NewString(),
		Controller: c,
		CreatedAt:  time.Now(),
	}
	s.cache.Add(sess.ID, sess)
	return sess
}

func (s *Store) Get(id string) (*Session, bool) {
	return s.cache.Get(id)
}

func (s *Store) Delete(id string) {
	s.cache.Remove(id)
}

func (s *Store) Len() int {
	return s.cache.Len()
}
