package delivery

import (
	"github.com/shopspring/decimal"
)

// CostRule превращает сумму корзины в стоимость доставки.
type CostRule interface {
	Fee(subtotal decimal.Decimal) decimal.Decimal
}

// FlatFee фиксированная стоимость независимо от корзины.
type FlatFee struct {
	Amount decimal.Decimal
}

func (r FlatFee) Fee(decimal.Decimal) decimal.Decimal {
	return r.Amount
}

// FreeOver платная доставка, бесплатная начиная с Threshold включительно.
type FreeOver struct {
	Amount    decimal.Decimal
	Threshold decimal.Decimal
}

func (r FreeOver) Fee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(r.Threshold) {
		return decimal.Zero
	}
	return r.Amount
}

// Правила по умолчанию.
// Белпочта в тексте для пользователя "3–5 BYN, определяет перевозчик", а списываем нижнюю границу 3.
// Расхождение известное, окончательный расчет делает перевозчик.
var defaultRules = map[Method]CostRule{
	CourierToAddress:  FreeOver{Amount: decimal.NewFromInt(8), Threshold: decimal.NewFromInt(80)},
	SelfPickup:        FlatFee{Amount: decimal.Zero},
	ToMetroStation:    FlatFee{Amount: decimal.Zero},
	ThirdPartyCourier: FlatFee{Amount: decimal.Zero},
	PostalServiceA:    FlatFee{Amount: decimal.NewFromInt(5)},
	PostalServiceB:    FlatFee{Amount: decimal.NewFromInt(3)},
}

// Cost стоимость доставки по правилам по умолчанию.
func Cost(m Method, subtotal decimal.Decimal) (decimal.Decimal, error) {
	rule, ok := defaultRules[m]
	if !ok {
		return decimal.Zero, ErrUnknownMethod
	}
	return nonNegative(rule.Fee(subtotal)), nil
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
