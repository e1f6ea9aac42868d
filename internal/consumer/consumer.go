// Package consumer читает журнал оформлений из kafka и сохраняет валидные события
package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/gogazub/miniapp-checkout/internal/model"
	svc "github.com/gogazub/miniapp-checkout/internal/service"
)

// Config конфигурация consumer для подключения к kafka.
type Config struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
}

// IReader вынесен в интерфейс для фейков при тестировании
type IReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// NewReader kafka reader по конфигу
func NewReader(cfg Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
}

// Consumer получает сообщения из reader, валидирует их и передает валидные в service
type Consumer struct {
	reader   IReader
	service  svc.IService
	validate *validator.Validate
	log      *zap.Logger
}

func NewConsumer(service svc.IService, reader IReader, log *zap.Logger) *Consumer {
	return &Consumer{
		reader:   reader,
		service:  service,
		validate: model.NewValidator(),
		log:      log,
	}
}

// Start обрабатывает сообщения до отмены ctx. Битое сообщение логируется и пропускается.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.handleError("reading message error", err)
			continue
		}
		if err := c.processMessage(ctx, msg); err != nil {
			c.handleError("processing message error", err,
				zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset))
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var ev model.CheckoutEvent
	decoder := json.NewDecoder(bytes.NewReader(msg.Value))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&ev); err != nil {
		return fmt.Errorf("decode checkout event: %w", err)
	}

	if err := c.validate.Struct(ev); err != nil {
		return fmt.Errorf("validate checkout event: %w", err)
	}
	if !ev.Total.Equal(ev.Subtotal.Add(ev.DeliveryCost)) {
		return fmt.Errorf("validate checkout event %s: total %s != subtotal %s + delivery %s",
			ev.ID, ev.Total, ev.Subtotal, ev.DeliveryCost)
	}

	if err := c.service.SaveEvent(ctx, &ev); err != nil {
		return fmt.Errorf("save checkout event %s: %w", ev.ID, err)
	}
	c.log.Debug("checkout event saved", zap.String("id", ev.ID))
	return nil
}

// Close закрывает подключение к kafka
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) handleError(msg string, err error, fields ...zap.Field) {
	c.log.Error(msg, append(fields, zap.Error(err))...)
}
