package model

// CalculationRow is one signed entry of a pricing sheet. Amounts are in the
// minor unit of the row's currency. Rows are append-only once persisted.
type CalculationRow struct {
	Category     string         `json:"category"`
	Amount       int64          `json:"amount"`
	CurrencyCode string         `json:"currencyCode"`
	IsTaxable    bool           `json:"isTaxable,omitempty"`
	IsNetPrice   bool           `json:"isNetPrice,omitempty"`
	DiscountID   string         `json:"discountId,omitempty"`
	BaseCategory string         `json:"baseCategory,omitempty"`
	Rate         float64        `json:"rate,omitempty"`
	Meta         map[string]any `json:"meta,omitempty"`
}
