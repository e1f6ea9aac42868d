// Package money хранит денежные суммы в фиксированной точке и форматирует их для пользователя.
package money

import "github.com/shopspring/decimal"

// Zero нулевая сумма.
var Zero = decimal.Zero

// FromInt сумма из целого числа единиц валюты.
func FromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// MustParse разбирает строку вида "79.99". Паникует на мусоре, поэтому только для констант и тестов.
func MustParse(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Formatter единственное место, где сумма превращается в строку для человека.
type Formatter struct {
	Currency string
	Places   int32
}

// NewFormatter конструктор. places < 0 трактуется как 2.
func NewFormatter(currency string, places int32) Formatter {
	if places < 0 {
		places = 2
	}
	return Formatter{Currency: currency, Places: places}
}

// Format возвращает "58 BYN" для целых сумм и "79.99 BYN" для дробных.
func (f Formatter) Format(amount decimal.Decimal) string {
	var s string
	if amount.Equal(amount.Truncate(0)) {
		s = amount.Truncate(0).String()
	} else {
		s = amount.StringFixed(f.Places)
	}
	if f.Currency == "" {
		return s
	}
	return s + " " + f.Currency
}
