package model

// RegisterUser тело POST /users/register. Ключ telegramId в camelCase так принимает бэкенд.
type RegisterUser struct {
	TelegramID int64  `json:"telegramId" validate:"required"`
	Username   string `json:"username,omitempty"`
}

type RegisterResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Loyalty ответ GET /users/{userId}/loyalty.
type Loyalty struct {
	TelegramID          int64  `json:"telegram_id,omitempty"`
	Username            string `json:"username,omitempty"`
	LoyaltyLevel        string `json:"loyalty_level"`
	Stamps              int    `json:"stamps"`
	DiscountPercentage  int    `json:"discount_percentage"`
	TotalItemsPurchased int    `json:"total_items_purchased,omitempty"`
	StampsUntilDiscount int    `json:"stamps_until_discount"`
}
