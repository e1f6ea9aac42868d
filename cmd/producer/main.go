// Producer вспомогательная утилита: генерирует события журнала оформлений и отправляет их в kafka.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gogazub/miniapp-checkout/internal/checkout"
	"github.com/gogazub/miniapp-checkout/internal/delivery"
	"github.com/gogazub/miniapp-checkout/internal/events"
	"github.com/gogazub/miniapp-checkout/internal/model"
)

func main() {
	brokers := flag.String("brokers", "localhost:9092", "comma-separated list of kafka brokers")
	topic := flag.String("topic", "checkout-events", "kafka topic")
	count := flag.Int("n", 10, "how many messages to send (0 - infinite)")
	interval := flag.Duration("interval", time.Second, "interval between messages")
	users := flag.Int64("users", 5, "how many distinct users to simulate")
	flag.Parse()

	var brokerList []string
	for _, b := range strings.Split(*brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokerList = append(brokerList, b)
		}
	}
	if len(brokerList) == 0 {
		log.Fatal("no brokers provided")
	}
	if *users <= 0 {
		*users = 1
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	pub := events.NewPublisher(events.NewWriter(events.Config{Brokers: brokerList, Topic: *topic}), logger)
	defer func() {
		if err := pub.Close(); err != nil {
			logger.Warn("error closing kafka writer", zap.Error(err))
		}
	}()
	logger.Info("producer config", zap.Strings("brokers", brokerList), zap.String("topic", *topic))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	registry := delivery.DefaultRegistry()
	sent := 0
	for {
		if *count > 0 && sent >= *count {
			logger.Info("done", zap.Int("sent", sent))
			return
		}

		ev := generateEvent(registry, *users)
		writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := pub.Record(writeCtx, ev)
		cancel()
		if err != nil {
			logger.Warn("failed to write message", zap.Error(err))
		} else {
			sent++
			logger.Info("sent event", zap.Int("n", sent), zap.String("id", ev.ID),
				zap.String("outcome", string(ev.Outcome)))
		}

		select {
		case <-ctx.Done():
			logger.Info("signal received, stopping")
			return
		case <-time.After(*interval):
		}
	}
}

var outcomes = []model.CheckoutOutcome{model.OutcomeSubmitted, model.OutcomeSubmitted, model.OutcomeRejected, model.OutcomeUnavailable}

func generateEvent(registry *delivery.Registry, users int64) model.CheckoutEvent {
	methods := registry.Methods()
	desc := methods[rand.IntN(len(methods))]

	subtotal := decimal.New(int64(rand.IntN(15000)+500), -2)
	cost := desc.Fee(subtotal)
	payment := checkout.PaymentCash
	if rand.IntN(2) == 0 {
		payment = checkout.PaymentCard
	}

	ev := model.CheckoutEvent{
		ID:           uuid.NewString(),
		UserID:       rand.Int64N(users) + 1,
		Delivery:     desc.Label,
		Payment:      string(payment),
		Address:      desc.FixedAddressText,
		Subtotal:     subtotal,
		DeliveryCost: cost,
		Total:        subtotal.Add(cost),
		Outcome:      outcomes[rand.IntN(len(outcomes))],
		OccurredAt:   time.Now().UTC(),
	}
	switch ev.Outcome {
	case model.OutcomeSubmitted:
		ev.OrderID = rand.Int64N(100000) + 1
		ev.Message = checkout.SuccessMessage
	case model.OutcomeRejected:
		ev.Message = "Промокод недействителен"
	default:
		ev.Message = checkout.FailureMessage
	}
	return ev
}
