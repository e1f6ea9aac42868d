package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRequest тело POST /orders/from_basket/{userId}: черновик заказа плюс рассчитанная доставка.
type OrderRequest struct {
	Payment        string          `json:"payment"          validate:"required"`
	Delivery       string          `json:"delivery"         validate:"required"`
	Address        string          `json:"address"`
	MetroLine      string          `json:"metro_line,omitempty"`
	MetroStation   string          `json:"metro_station,omitempty"`
	PreferredTime  string          `json:"preferred_time,omitempty"`
	TimeSlot       string          `json:"time_slot,omitempty"`
	PostalFullName string          `json:"postal_full_name,omitempty"`
	PostalPhone    string          `json:"postal_phone,omitempty"`
	PostalAddress  string          `json:"postal_address,omitempty"`
	PostalIndex    string          `json:"postal_index,omitempty"`
	PromoCode      string          `json:"promocode,omitempty"`
	DeliveryCost   decimal.Decimal `json:"delivery_cost"`
}

// OrderLine позиция заказа в истории.
type OrderLine struct {
	ItemID        int64           `json:"item_id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	PricePerItem  decimal.Decimal `json:"price_per_item"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	SelectedTaste string          `json:"selected_taste,omitempty"`
	Tastes        []string        `json:"tastes,omitempty"`
}

// Order заказ в том виде, в котором его отдает бэкенд.
type Order struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Items         []OrderLine     `json:"items"`
	Payment       string          `json:"payment"`
	Delivery      string          `json:"delivery"`
	Address       string          `json:"address"`
	Telephone     string          `json:"telephone,omitempty"`
	MetroLine     string          `json:"metro_line,omitempty"`
	MetroStation  string          `json:"metro_station,omitempty"`
	PreferredTime string          `json:"preferred_time,omitempty"`
	TimeSlot      string          `json:"time_slot,omitempty"`
	DeliveryCost  decimal.Decimal `json:"delivery_cost"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Discount      int             `json:"discount"`
	PromoCode     string          `json:"promocode,omitempty"`
	Status        OrderStatus     `json:"status,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderStatus статус заказа на стороне бэкенда.
type OrderStatus string

const (
	StatusWaitingForCourier OrderStatus = "waiting_for_courier"
	StatusInDelivery        OrderStatus = "in_delivery"
	StatusDelivered         OrderStatus = "delivered"
	StatusCompleted         OrderStatus = "completed"
	StatusCanceled          OrderStatus = "canceled"
)

var statusText = map[OrderStatus]string{
	StatusWaitingForCourier: "⏳ Ожидает курьера",
	StatusInDelivery:        "🚗 В доставке",
	StatusDelivered:         "✅ Доставлен",
	StatusCompleted:         "🏁 Завершен",
	StatusCanceled:          "❌ Отменен",
}

// Text подпись статуса для карточки заказа. Неизвестный статус отдается как есть.
func (s OrderStatus) Text() string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return string(s)
}

// Valid true для статусов, которые принимает PATCH /orders/{id}/status.
func (s OrderStatus) Valid() bool {
	_, ok := statusText[s]
	return ok
}

// DateLayout формат даты в истории заказов (ru-RU, день.месяц.год часы:минуты).
const DateLayout = "02.01.2006 15:04"
