package dto

type CreateCartRequest struct {
	UserID      string `json:"userId"`
	Currency    string `json:"currency"`
	CountryCode string `json:"countryCode"`
}

type AddPositionRequest struct {
	ProductID     string         `json:"productId"`
	Quantity      int            `json:"quantity"`
	QuotationID   string         `json:"quotationId,omitempty"`
	Configuration map[string]any `json:"configuration,omitempty"`
}

type SetProviderRequest struct {
	ProviderID string `json:"providerId"`
}

type AddDiscountCodeRequest struct {
	Code string `json:"code"`
}

// CheckoutRequest carries gateway-specific transaction data such as a
// payment method nonce.
type CheckoutRequest struct {
	Transaction map[string]any `json:"transaction,omitempty"`
}

type OverrideRequest struct {
	Transaction map[string]any `json:"transaction,omitempty"`
}
