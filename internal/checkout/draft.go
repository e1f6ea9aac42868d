// Package checkout движок оформления заказа: черновик, его переходы и сборка запроса на бэкенд.
package checkout

import (
	"strings"

	"github.com/gogazub/miniapp-checkout/internal/delivery"
	"github.com/gogazub/miniapp-checkout/internal/model"
	"github.com/shopspring/decimal"
)

// Payment способ оплаты. Значения уходят на бэкенд как есть.
type Payment string

const (
	PaymentCash Payment = "Наличные"
	PaymentCard Payment = "Карта"
)

// Draft черновик заказа. Поля способа доставки сбрасываются при его смене.
type Draft struct {
	Method         delivery.Method `json:"delivery"`
	Address        string          `json:"address"`
	MetroLine      string          `json:"metro_line"`
	MetroStation   string          `json:"metro_station"`
	PreferredTime  string          `json:"preferred_time"`
	TimeSlot       string          `json:"time_slot"`
	PostalFullName string          `json:"postal_full_name"`
	PostalPhone    string          `json:"postal_phone"`
	PostalAddress  string          `json:"postal_address"`
	PostalIndex    string          `json:"postal_index"`
	Payment        Payment         `json:"payment"   validate:"required,oneof=Наличные Карта"`
	PromoCode      string          `json:"promocode" validate:"max=64"`
}

// Get значение поля способа доставки.
func (d Draft) Get(f delivery.Field) string {
	if p := d.field(f); p != nil {
		return *p
	}
	return ""
}

func (d *Draft) set(f delivery.Field, v string) {
	if p := d.field(f); p != nil {
		*p = v
	}
}

func (d *Draft) field(f delivery.Field) *string {
	switch f {
	case delivery.FieldAddress:
		return &d.Address
	case delivery.FieldMetroLine:
		return &d.MetroLine
	case delivery.FieldMetroStation:
		return &d.MetroStation
	case delivery.FieldPreferredTime:
		return &d.PreferredTime
	case delivery.FieldTimeSlot:
		return &d.TimeSlot
	case delivery.FieldPostalFullName:
		return &d.PostalFullName
	case delivery.FieldPostalPhone:
		return &d.PostalPhone
	case delivery.FieldPostalAddress:
		return &d.PostalAddress
	case delivery.FieldPostalIndex:
		return &d.PostalIndex
	}
	return nil
}

func (d *Draft) clearMethodFields() {
	for _, f := range delivery.MethodFields {
		d.set(f, "")
	}
}

// missing обязательные поля, которые пусты или состоят из пробелов.
func (d Draft) missing(desc delivery.Descriptor) []delivery.Field {
	var out []delivery.Field
	for _, f := range desc.RequiredFields {
		if strings.TrimSpace(d.Get(f)) == "" {
			out = append(out, f)
		}
	}
	return out
}

// CartLine строка корзины в момент открытия оформления.
type CartLine struct {
	ID            int64           `json:"id"`
	ItemID        int64           `json:"item_id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	SelectedTaste string          `json:"selected_taste,omitempty"`
}

// CartSnapshot корзина только для чтения. Subtotal берется у бэкенда, локально не пересчитывается.
type CartSnapshot struct {
	Lines    []CartLine      `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Empty корзина без позиций. Это состояние, а не ошибка.
func (c CartSnapshot) Empty() bool {
	return len(c.Lines) == 0
}

// SnapshotFromBasket снимок корзины из ответа бэкенда.
func SnapshotFromBasket(b model.Basket) CartSnapshot {
	lines := make([]CartLine, 0, len(b.Items))
	for _, it := range b.Items {
		price := it.Price
		if it.DiscountedPrice != nil {
			price = *it.DiscountedPrice
		}
		lines = append(lines, CartLine{
			ID:            it.ID,
			ItemID:        it.ItemID,
			Name:          it.Name,
			UnitPrice:     price,
			Quantity:      it.Quantity,
			SelectedTaste: it.SelectedTaste,
		})
	}
	return CartSnapshot{Lines: lines, Subtotal: b.TotalPrice}
}
