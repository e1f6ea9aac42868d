// Package service журнал оформлений поверх БД и кэша.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/gogazub/miniapp-checkout/internal/model"
	repo "github.com/gogazub/miniapp-checkout/internal/repository"
)

type IService interface {
	SaveEvent(ctx context.Context, ev *model.CheckoutEvent) error
	GetEventByID(ctx context.Context, id string) (*model.CheckoutEvent, error)
	ListUserEvents(ctx context.Context, userID int64, limit int) ([]*model.CheckoutEvent, error)
}

const maxListLimit = 100

type Service struct {
	psqlRepo  repo.IDBRepository
	cacheRepo repo.ICacheRepository
	log       *zap.Logger
}

func NewService(psqlRepo repo.IDBRepository, cacheRepo repo.ICacheRepository, log *zap.Logger) *Service {
	return &Service{
		psqlRepo:  psqlRepo,
		cacheRepo: cacheRepo,
		log:       log,
	}
}

// SaveEvent сначала БД, потом кэш. Кэш не должен знать о записях, которых нет в БД.
func (s *Service) SaveEvent(ctx context.Context, ev *model.CheckoutEvent) error {
	if err := s.psqlRepo.Save(ctx, ev); err != nil {
		return err
	}
	if err := s.cacheRepo.Save(ctx, ev); err != nil {
		return err
	}
	return nil
}

// GetEventByID ищет в кэше, на промахе в БД, найденное кладет в кэш.
func (s *Service) GetEventByID(ctx context.Context, id string) (*model.CheckoutEvent, error) {
	ev, err := s.cacheRepo.GetByID(ctx, id)
	if err == nil {
		return ev, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	ev, err = s.psqlRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cacheRepo.Save(ctx, ev); err != nil {
		s.log.Warn("cache journal event", zap.String("id", id), zap.Error(err))
	}
	return ev, nil
}

// ListUserEvents последние записи пользователя прямо из БД.
func (s *Service) ListUserEvents(ctx context.Context, userID int64, limit int) ([]*model.CheckoutEvent, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return s.psqlRepo.ListByUser(ctx, userID, limit)
}
