package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogazub/miniapp-checkout/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backend часть REST бэкенда, нужная оформлению.
type Backend interface {
	Basket(ctx context.Context, userID int64) (*model.Basket, error)
	CreateOrderFromBasket(ctx context.Context, userID int64, req model.OrderRequest) (*model.Order, error)
}

// Recorder журнал исходов оформления.
type Recorder interface {
	Record(ctx context.Context, ev model.CheckoutEvent) error
}

const recordTimeout = 5 * time.Second

type Service struct {
	engine   *Engine
	backend  Backend
	recorder Recorder
	log      *zap.Logger
	now      func() time.Time

	// записи журнала в полете
	pending sync.WaitGroup
}

// NewService recorder может быть nil, тогда журнал не пишется.
func NewService(engine *Engine, backend Backend, recorder Recorder, log *zap.Logger) *Service {
	return &Service{
		engine:   engine,
		backend:  backend,
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) Engine() *Engine { return s.engine }

// Wait дожидается записей журнала, отправленных в фоне. Вызывать при остановке.
func (s *Service) Wait() {
	s.pending.Wait()
}

// Open загружает корзину и возвращает сессию в состоянии Editing.
func (s *Service) Open(ctx context.Context, userID int64) (*Session, error) {
	form := s.engine.NewForm()
	basket, err := s.backend.Basket(ctx, userID)
	if err != nil {
		s.log.Warn("load basket for checkout", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	if err := form.Update(CartLoaded{Cart: SnapshotFromBasket(*basket)}); err != nil {
		return nil, err
	}
	return NewSession(userID, form), nil
}

// Submit отправляет черновик сессии. Запрос на бэкенд не отменяется вместе с ctx:
// ответ, пришедший после ухода пользователя, просто применяется к форме.
func (s *Service) Submit(ctx context.Context, sess *Session) (*model.Order, error) {
	var (
		req model.OrderRequest
		ev  model.CheckoutEvent
	)
	err := sess.Do(func(f *Form) error {
		r, err := f.Submit()
		if err != nil {
			return err
		}
		req = r
		ev = model.CheckoutEvent{
			ID:           uuid.NewString(),
			UserID:       sess.UserID,
			Delivery:     r.Delivery,
			Payment:      r.Payment,
			Address:      r.Address,
			Subtotal:     f.Subtotal(),
			DeliveryCost: f.DeliveryCost(),
			Total:        f.FinalTotal(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	bctx := context.WithoutCancel(ctx)
	order, err := s.backend.CreateOrderFromBasket(bctx, sess.UserID, req)
	if errors.Is(err, model.ErrNotFound) {
		// 404 на создании заказа это отказ бэкенда (например, нет пользователя), а не пропавший ресурс BFF
		err = fmt.Errorf("%w: %w", model.ErrValidationRejected, err)
	}
	ev.OccurredAt = s.now().UTC()
	switch {
	case err == nil:
		ev.Outcome = model.OutcomeSubmitted
		ev.OrderID = order.ID
		ev.Message = SuccessMessage
	case errors.Is(err, model.ErrValidationRejected):
		ev.Outcome = model.OutcomeRejected
		ev.Message = UserMessage(err)
	default:
		ev.Outcome = model.OutcomeUnavailable
		ev.Message = UserMessage(err)
	}

	_ = sess.Do(func(f *Form) error {
		if err != nil {
			f.Fail(err)
		} else {
			f.Complete(*order)
		}
		return nil
	})
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.record(bctx, ev)
	}()

	if err != nil {
		s.log.Warn("create order", zap.Int64("user_id", sess.UserID),
			zap.String("outcome", string(ev.Outcome)), zap.Error(err))
		return nil, err
	}
	s.log.Info("order created", zap.Int64("user_id", sess.UserID), zap.Int64("order_id", order.ID),
		zap.String("delivery", req.Delivery), zap.String("total", ev.Total.String()))
	return order, nil
}

func (s *Service) record(ctx context.Context, ev model.CheckoutEvent) {
	if s.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()
	if err := s.recorder.Record(ctx, ev); err != nil {
		s.log.Error("record checkout event", zap.String("id", ev.ID), zap.Error(err))
	}
}
