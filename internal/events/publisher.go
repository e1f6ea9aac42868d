// Package events публикует исходы оформления в kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/gogazub/miniapp-checkout/internal/model"
)

// IWriter kafka writer, вынесен в интерфейс для фейков в тестах
type IWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers []string
	Topic   string
}

// NewWriter writer с ключевым балансировщиком: события одного пользователя попадают в одну партицию.
func NewWriter(cfg Config) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

type Publisher struct {
	writer   IWriter
	validate *validator.Validate
	log      *zap.Logger
}

func NewPublisher(writer IWriter, log *zap.Logger) *Publisher {
	return &Publisher{writer: writer, validate: model.NewValidator(), log: log}
}

// Record валидирует и отправляет событие. Ключ сообщения user_id.
func (p *Publisher) Record(ctx context.Context, ev model.CheckoutEvent) error {
	if err := p.validate.Struct(ev); err != nil {
		return fmt.Errorf("invalid checkout event: %w", err)
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal checkout event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.UserID, 10)),
		Value: b,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(ev.ID)},
			{Key: "outcome", Value: []byte(ev.Outcome)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write checkout event %s: %w", ev.ID, err)
	}
	p.log.Debug("checkout event published", zap.String("id", ev.ID), zap.String("outcome", string(ev.Outcome)))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
