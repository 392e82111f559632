package model

import "time"

type Account struct {
	UserID             string    `json:"user_id"`
	DisplayName        string    `json:"display_name"`
	Credits            int64     `json:"credits"`
	TotalSearches      int64     `json:"total_searches"`
	SuccessfulSearches int64     `json:"successful_searches"`
	CreatedAt          time.Time `json:"created_at"`
}

type BalanceSummary struct {
	Credits            int64 `json:"credits"`
	TotalSearches      int64 `json:"total_searches"`
	SuccessfulSearches int64 `json:"successful_searches"`
}

// CreditPackage is a published top-up bundle. Payment itself is handled
// manually by an operator; the core only exposes the price list.
type CreditPackage struct {
	Credits  int64  `json:"credits"`
	PriceRUB int64  `json:"price_rub"`
	Label    string `json:"label"`
}

var Packages = []CreditPackage{
	{Credits: 50, PriceRUB: 499, Label: "50 credits - 499 RUB"},
	{Credits: 250, PriceRUB: 1990, Label: "250 credits - 1990 RUB"},
	{Credits: 750, PriceRUB: 4990, Label: "750 credits - 4990 RUB"},
}
