// Package catalog каталог товаров и категорий поверх бэкенда с кэшем в redis.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogazub/miniapp-checkout/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	keyItems      = "items"
	keyCategories = "categories"
)

// Source откуда каталог берется на промахе кэша.
type Source interface {
	Items(ctx context.Context) ([]model.Item, error)
	Categories(ctx context.Context) ([]model.Category, error)
}

type Service struct {
	source Source
	cache  Cache
	sfg    singleflight.Group
	log    *zap.Logger
}

// NewService cache может быть nil, тогда каждый запрос идет в бэкенд.
func NewService(source Source, cache Cache, log *zap.Logger) *Service {
	return &Service{source: source, cache: cache, log: log}
}

// Items товары, отфильтрованные по имени категории. Пустая категория значит все товары.
func (s *Service) Items(ctx context.Context, category string) ([]model.Item, error) {
	items, err := s.allItems(ctx)
	if err != nil {
		return nil, err
	}
	if category == "" {
		return items, nil
	}
	if _, err := s.Category(ctx, category); err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if it.InCategory(category) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Service) Item(ctx context.Context, id int64) (*model.Item, error) {
	items, err := s.allItems(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			it := items[i]
			return &it, nil
		}
	}
	return nil, fmt.Errorf("item %d: %w", id, model.ErrNotFound)
}

func (s *Service) Categories(ctx context.Context) ([]model.Category, error) {
	v, err := s.load(ctx, keyCategories, func(ctx context.Context) (any, error) {
		var cats []model.Category
		if err := s.cachedGet(ctx, keyCategories, &cats); err == nil {
			return cats, nil
		}
		cats, err := s.source.Categories(ctx)
		if err != nil {
			return nil, err
		}
		s.cachedSet(ctx, keyCategories, cats)
		return cats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Category), nil
}

// Category категория по имени, ErrNotFound если такой нет.
func (s *Service) Category(ctx context.Context, name string) (*model.Category, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cats {
		if cats[i].Name == name {
			c := cats[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("category %q: %w", name, model.ErrNotFound)
}

// Invalidate сбрасывает кэш каталога.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, keyItems, keyCategories)
}

func (s *Service) allItems(ctx context.Context) ([]model.Item, error) {
	v, err := s.load(ctx, keyItems, func(ctx context.Context) (any, error) {
		var items []model.Item
		if err := s.cachedGet(ctx, keyItems, &items); err == nil {
			return items, nil
		}
		items, err := s.source.Items(ctx)
		if err != nil {
			return nil, err
		}
		s.cachedSet(ctx, keyItems, items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.Item), nil
}

// load один запрос к источнику на ключ, остальные ждут его результат.
func (s *Service) load(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	v, err, _ := s.sfg.Do(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	return v, err
}

func (s *Service) cachedGet(ctx context.Context, key string, dst any) error {
	if s.cache == nil {
		return ErrCacheMiss
	}
	err := s.cache.Get(ctx, key, dst)
	if err != nil && !errors.Is(err, ErrCacheMiss) {
		s.log.Warn("catalog cache get", zap.String("key", key), zap.Error(err))
	}
	return err
}

func (s *Service) cachedSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v); err != nil {
		s.log.Warn("catalog cache set", zap.String("key", key), zap.Error(err))
	}
}
