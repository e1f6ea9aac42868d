package model

import "github.com/shopspring/decimal"

// BasketLine строка корзины. ID строки корзины, ItemID товара.
type BasketLine struct {
	ID                 int64            `json:"id"`
	ItemID             int64            `json:"item_id"`
	Name               string           `json:"name"`
	Image              string           `json:"image,omitempty"`
	Price              decimal.Decimal  `json:"price"`
	DiscountedPrice    *decimal.Decimal `json:"discounted_price,omitempty"`
	DiscountPercentage int              `json:"discount_percentage,omitempty"`
	DiscountedQuantity int              `json:"discounted_quantity,omitempty"`
	Quantity           int              `json:"quantity"`
	SelectedTaste      string           `json:"selected_taste,omitempty"`
}

// Basket ответ POST /basket/{userId}. TotalPrice считает бэкенд с учетом лояльности.
type Basket struct {
	UserID                    int64           `json:"user_id"`
	Items                     []BasketLine    `json:"items"`
	TotalPrice                decimal.Decimal `json:"total_price"`
	LoyaltyDiscountApplied    bool            `json:"loyalty_discount_applied"`
	LoyaltyDiscountPercentage int             `json:"loyalty_discount_percentage"`
}

// AddBasketItem тело POST /basket/{userId}/items.
type AddBasketItem struct {
	ItemID        int64  `json:"item_id"                  validate:"required,gte=1"`
	Quantity      int    `json:"quantity,omitempty"       validate:"omitempty,gte=1"`
	SelectedTaste string `json:"selected_taste,omitempty"`
}
