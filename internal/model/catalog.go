package model

import "github.com/shopspring/decimal"

type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type Taste struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Item товар каталога. Характеристики опциональны и зависят от категории.
type Item struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    *Category       `json:"category,omitempty"`
	Tastes      []Taste         `json:"tastes,omitempty"`
	Strength    string          `json:"strength,omitempty"`
	Puffs       string          `json:"puffs,omitempty"`
	VgPg        string          `json:"vg_pg,omitempty"`
	TankVolume  string          `json:"tank_volume,omitempty"`
}

// InCategory сравнивает по имени категории, товар без категории не входит ни в одну.
func (i Item) InCategory(name string) bool {
	return i.Category != nil && i.Category.Name == name
}

type ItemsResponse struct {
	Items []Item `json:"items"`
}

type CategoriesResponse struct {
	Categories []Category `json:"categories"`
}
