package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutOutcome чем закончилась отправка заказа.
type CheckoutOutcome string

const (
	OutcomeSubmitted   CheckoutOutcome = "submitted"
	OutcomeRejected    CheckoutOutcome = "rejected"
	OutcomeUnavailable CheckoutOutcome = "unavailable"
)

// CheckoutEvent запись журнала оформлений. Публикуется в kafka после каждой отправки на бэкенд.
type CheckoutEvent struct {
	ID           string          `json:"id"            db:"id"            validate:"required,uuid"`
	UserID       int64           `json:"user_id"       db:"user_id"       validate:"required"`
	Delivery     string          `json:"delivery"      db:"delivery"      validate:"required"`
	Payment      string          `json:"payment"       db:"payment"       validate:"required"`
	Address      string          `json:"address"       db:"address"`
	Subtotal     decimal.Decimal `json:"subtotal"      db:"subtotal"      validate:"gte=0"`
	DeliveryCost decimal.Decimal `json:"delivery_cost" db:"delivery_cost" validate:"gte=0"`
	Total        decimal.Decimal `json:"total"         db:"total"         validate:"gte=0"`
	Outcome      CheckoutOutcome `json:"outcome"       db:"outcome"       validate:"required,oneof=submitted rejected unavailable"`
	OrderID      int64           `json:"order_id,omitempty" db:"order_id" validate:"gte=0"`
	Message      string          `json:"message,omitempty"  db:"message"`
	OccurredAt   time.Time       `json:"occurred_at"   db:"occurred_at"   validate:"required"`
}
