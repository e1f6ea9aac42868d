// Package loyalty карточка программы лояльности: уровень, штампы и подписи.
package loyalty

import (
	"fmt"

	"github.com/gogazub/miniapp-checkout/internal/model"
)

// Level уровень карты.
type Level string

const (
	White    Level = "White"
	Platinum Level = "Platinum"
	Black    Level = "Black"
)

// Slots штампов на карте. Шестая покупка со скидкой.
const Slots = 6

// discountStamps при стольких штампах текущая покупка идет со скидкой
const discountStamps = Slots - 1

var defaultDiscount = map[Level]int{
	White:    25,
	Platinum: 30,
	Black:    35,
}

const (
	headlineDiscountNow = "🎉 На эту покупку у вас скидка!"
	headlineAvailable   = "Скидка доступна!"
	footerBlack         = "🎉 Максимальный уровень! Скидка навсегда на каждый 6-й товар"
	footerDefault       = "Покупайте больше, получайте больше скидок!"
)

type Stamp struct {
	Number      int  `json:"number"`
	Filled      bool `json:"filled"`
	Highlighted bool `json:"highlighted"`
}

// Card то, что рисует клиент.
type Card struct {
	Level              Level   `json:"level"`
	Title              string  `json:"title"`
	DiscountPercentage int     `json:"discount_percentage"`
	Stamps             []Stamp `json:"stamps"`
	Headline           string  `json:"headline"`
	Footer             string  `json:"footer"`
	DiscountActive     bool    `json:"discount_active"`
}

// ParseLevel неизвестный уровень рисуется как White.
func ParseLevel(s string) Level {
	switch l := Level(s); l {
	case White, Platinum, Black:
		return l
	}
	return White
}

// NewCard собирает карточку из ответа бэкенда.
func NewCard(l model.Loyalty) Card {
	level := ParseLevel(l.LoyaltyLevel)
	active := l.Stamps == discountStamps

	discount := l.DiscountPercentage
	if discount == 0 {
		discount = defaultDiscount[level]
	}

	stamps := make([]Stamp, Slots)
	for i := range stamps {
		stamps[i] = Stamp{
			Number:      i + 1,
			Filled:      i < l.Stamps,
			Highlighted: i == Slots-1 && active,
		}
	}

	footer := footerDefault
	// сравниваем сырое значение: неизвестный уровень не получает подпись Black
	if Level(l.LoyaltyLevel) == Black {
		footer = footerBlack
	}

	return Card{
		Level:              level,
		Title:              string(level) + " Card",
		DiscountPercentage: discount,
		Stamps:             stamps,
		Headline:           headline(l),
		Footer:             footer,
		DiscountActive:     active,
	}
}

func headline(l model.Loyalty) string {
	switch {
	case l.Stamps == discountStamps:
		return headlineDiscountNow
	case l.StampsUntilDiscount > 0:
		word := "покупки"
		if l.StampsUntilDiscount == 1 {
			word = "покупка"
		}
		return fmt.Sprintf("Еще %d %s для скидки на 6-й заказ", l.StampsUntilDiscount, word)
	default:
		return headlineAvailable
	}
}
