package payment

import (
	"context"

	"commerce-engine/internal/model"
	"commerce-engine/internal/plugins"
)

// Context binds a payment adapter to one order payment. Transaction carries
// caller-supplied data such as gateway nonces.
type Context struct {
	Order        *model.Order
	OrderPayment *model.OrderPayment
	Provider     *model.PaymentProvider
	User         *model.User
	Transaction  map[string]any
}

// ChargeResult reports the outcome of a successful charge call. Settled
// means the payment is paid immediately; pay-later adapters leave it unset.
type ChargeResult struct {
	Settled       bool
	TransactionID string
	Info          map[string]any
}

// Adapter is a payment strategy. IsActiveFor, ConfigurationError and
// IsPayLaterAllowed are read-only probes; Charge and Cancel mutate gateway
// state and may fail the surrounding transaction.
type Adapter interface {
	plugins.Adapter

	IsActiveFor(ctx context.Context, paymentContext *Context) bool
	ConfigurationError(paymentContext *Context) plugins.ErrorCode
	IsPayLaterAllowed(ctx context.Context, paymentContext *Context) bool

	Charge(ctx context.Context, paymentContext *Context) (*ChargeResult, error)
	Cancel(ctx context.Context, paymentContext *Context) error
}
