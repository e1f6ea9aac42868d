// Package session живые сессии оформления в памяти, по одной на пользователя.
package session

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/gogazub/miniapp-checkout/internal/checkout"
	"github.com/gogazub/miniapp-checkout/internal/model"
)

const DefaultCapacity = 1000

// ErrNoSession у пользователя нет открытого оформления.
var ErrNoSession = fmt.Errorf("checkout session: %w", model.ErrNotFound)

// Store ограниченное хранилище сессий. При переполнении вытесняется давно не тронутая.
type Store struct {
	// mu делает Put и Release атомарными друг относительно друга
	mu    sync.Mutex
	cache *lru.Cache
}

func NewStore(capacity int, log *zap.Logger) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.NewWithEvict(capacity, func(key, _ interface{}) {
		log.Debug("checkout session evicted", zap.Any("user_id", key))
	})
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}
	return &Store{cache: c}, nil
}

// Put кладет сессию, заменяя прежнюю сессию пользователя.
func (s *Store) Put(ctx context.Context, sess *checkout.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cache.Add(sess.UserID, sess)
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(ctx context.Context, userID int64) (*checkout.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := s.cache.Get(userID)
	if !ok {
		return nil, ErrNoSession
	}
	return v.(*checkout.Session), nil
}

// Delete черновик выбрасывается, как при уходе со страницы оформления.
func (s *Store) Delete(ctx context.Context, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Remove(userID)
	return nil
}

// Release удаляет сессию, только если у пользователя все еще именно она.
// Новое оформление, открытое параллельно, остается на месте.
func (s *Store) Release(ctx context.Context, sess *checkout.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.cache.Peek(sess.UserID); ok && v.(*checkout.Session) == sess {
		s.cache.Remove(sess.UserID)
	}
	return nil
}

func (s *Store) Len() int {
	return s.cache.Len()
}
