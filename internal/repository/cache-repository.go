package repository

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/gogazub/miniapp-checkout/internal/model"
)

// DefaultCacheSize сколько записей журнала держим в памяти
const DefaultCacheSize = 10000

// CacheRepository последние записи журнала в памяти, вытесняются давно не читанные.
type CacheRepository struct {
	cache *lru.Cache
}

func NewCacheRepository(size int) (*CacheRepository, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create journal cache: %w", err)
	}
	return &CacheRepository{cache: c}, nil
}

// Warm заполняет кэш последними записями из БД. Ошибка БД не фатальна, кэш просто остается пустым.
func (r *CacheRepository) Warm(ctx context.Context, db IDBRepository, limit int, log *zap.Logger) {
	events, err := db.GetRecent(ctx, limit)
	if err != nil {
		log.Warn("warm journal cache", zap.Error(err))
		return
	}
	// от старых к новым, чтобы свежие оказались последними в очереди на вытеснение
	for i := len(events) - 1; i >= 0; i-- {
		r.cache.Add(events[i].ID, events[i])
	}
	log.Info("journal cache warmed", zap.Int("events", len(events)))
}

// Save сохраняет запись в кэше по ID
func (r *CacheRepository) Save(ctx context.Context, ev *model.CheckoutEvent) error {
	// Быстрый отказ, если контекст уже отменен
	if err := ctx.Err(); err != nil {
		return err
	}
	r.cache.Add(ev.ID, ev)
	return nil
}

// GetByID запись журнала из кэша
func (r *CacheRepository) GetByID(ctx context.Context, id string) (*model.CheckoutEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("journal %s in cache: %w", id, model.ErrNotFound)
	}
	return v.(*model.CheckoutEvent), nil
}

func (r *CacheRepository) Len() int {
	return r.cache.Len()
}
