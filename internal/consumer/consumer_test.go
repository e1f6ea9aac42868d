package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gogazub/miniapp-checkout/internal/model"
)

type fakeService struct {
	mu    sync.Mutex
	saved []*model.CheckoutEvent
	err   error
}

func (s *fakeService) SaveEvent(_ context.Context, ev *model.CheckoutEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, ev)
	return nil
}

func (s *fakeService) GetEventByID(context.Context, string) (*model.CheckoutEvent, error) {
	return nil, model.ErrNotFound
}

func (s *fakeService) ListUserEvents(context.Context, int64, int) ([]*model.CheckoutEvent, error) {
	return nil, nil
}

func (s *fakeService) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

// fakeReader отдает сообщения по очереди, потом ждет отмены контекста
type fakeReader struct {
	msgs   chan kafka.Message
	errs   chan error
	closed bool
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	r := &fakeReader{msgs: make(chan kafka.Message, len(msgs)), errs: make(chan error, 1)}
	for _, m := range msgs {
		r.msgs <- m
	}
	return r
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case err := <-r.errs:
		return kafka.Message{}, err
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func eventJSON(t *testing.T, mutate func(m map[string]any)) []byte {
	t.Helper()
	m := map[string]any{
		"id":            uuid.NewString(),
		"user_id":       42,
		"delivery":      "Самовывоз",
		"payment":       "Наличные",
		"address":       "г. Минск, пр-т Независимости, 58 (пункт самовывоза)",
		"subtotal":      50,
		"delivery_cost": 0,
		"total":         50,
		"outcome":       "submitted",
		"order_id":      11,
		"occurred_at":   time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	if mutate != nil {
		mutate(m)
	}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return b
}

/*
 1. Валидное сообщение сохраняется
 2. Неизвестное поле отклоняется
 3. Невалидный outcome / отрицательная сумма / пустой id
 4. total != subtotal + delivery_cost
 5. Ошибка сервиса пробрасывается
*/
func TestConsumer_ProcessMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		s := &fakeService{}
		c := NewConsumer(s, newFakeReader(), zap.NewNop())
		require.NoError(t, c.processMessage(ctx, kafka.Message{Value: eventJSON(t, nil)}))
		require.Equal(t, 1, s.count())
		assert.True(t, s.saved[0].Total.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, int64(11), s.saved[0].OrderID)
	})

	invalid := []struct {
		name   string
		mutate func(m map[string]any)
	}{
		{"unknown field", func(m map[string]any) { m["extra"] = true }},
		{"bad outcome", func(m map[string]any) { m["outcome"] = "lost" }},
		{"negative subtotal", func(m map[string]any) { m["subtotal"] = -5; m["total"] = -5 }},
		{"not uuid", func(m map[string]any) { m["id"] = "42" }},
		{"missing user", func(m map[string]any) { delete(m, "user_id") }},
		{"total mismatch", func(m map[string]any) { m["total"] = 58 }},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeService{}
			c := NewConsumer(s, newFakeReader(), zap.NewNop())
			assert.Error(t, c.processMessage(ctx, kafka.Message{Value: eventJSON(t, tt.mutate)}))
			assert.Zero(t, s.count())
		})
	}

	t.Run("garbage", func(t *testing.T) {
		c := NewConsumer(&fakeService{}, newFakeReader(), zap.NewNop())
		assert.Error(t, c.processMessage(ctx, kafka.Message{Value: []byte("{not json")}))
	})

	t.Run("service error", func(t *testing.T) {
		c := NewConsumer(&fakeService{err: errors.New("db down")}, newFakeReader(), zap.NewNop())
		err := c.processMessage(ctx, kafka.Message{Value: eventJSON(t, nil)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
	})
}

func TestConsumer_Start(t *testing.T) {
	s := &fakeService{}
	r := newFakeReader(
		kafka.Message{Value: eventJSON(t, nil)},
		kafka.Message{Value: []byte("broken")},
		kafka.Message{Value: eventJSON(t, nil)},
	)
	r.errs <- errors.New("rebalance")
	c := NewConsumer(s, r, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return s.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	require.NoError(t, c.Close())
	assert.True(t, r.closed)
}
