package plugins

// AdapterType tags group registered adapters by the domain they serve.
type AdapterType string

const (
	TypePayment     AdapterType = "payment"
	TypeDelivery    AdapterType = "delivery"
	TypeWarehousing AdapterType = "warehousing"
	TypeEnrollment  AdapterType = "enrollment"
	TypeQuotation   AdapterType = "quotation"
	TypeDiscount    AdapterType = "discount"
	TypeFilter      AdapterType = "filter"

	TypeOrderPricing    AdapterType = "order-pricing"
	TypeProductPricing  AdapterType = "product-pricing"
	TypeDeliveryPricing AdapterType = "delivery-pricing"
	TypePaymentPricing  AdapterType = "payment-pricing"
)

// Adapter is the descriptor every pluggable strategy implements. Identity is
// the key; adapters of one type are evaluated in ascending OrderIndex.
type Adapter interface {
	Key() string
	Label() string
	Version() string
	OrderIndex() int
	Type() AdapterType
}

// Meta is the immutable descriptor part of an adapter, meant to be embedded.
type Meta struct {
	AdapterKey     string
	AdapterLabel   string
	AdapterVersion string
	AdapterType    AdapterType
	SortIndex      int
}

func (m Meta) Key() string       { return m.AdapterKey }
func (m Meta) Label() string     { return m.AdapterLabel }
func (m Meta) Version() string   { return m.AdapterVersion }
func (m Meta) OrderIndex() int   { return m.SortIndex }
func (m Meta) Type() AdapterType { return m.AdapterType }

// ErrorCode classifies configuration problems reported by read-only probes.
// Probes return codes as values and never fail the caller.
type ErrorCode string

const (
	ErrCodeNone                    ErrorCode = ""
	ErrCodeAdapterNotFound         ErrorCode = "ADAPTER_NOT_FOUND"
	ErrCodeNotImplemented          ErrorCode = "NOT_IMPLEMENTED"
	ErrCodeIncompleteConfiguration ErrorCode = "INCOMPLETE_CONFIGURATION"
	ErrCodeWrongCredentials        ErrorCode = "WRONG_CREDENTIALS"
)
