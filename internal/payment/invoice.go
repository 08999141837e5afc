package payment

import (
	"context"

	"commerce-engine/internal/plugins"
)

const InvoiceAdapterKey = "shop.payment.invoice"

type invoiceAdapter struct {
	plugins.Meta
}

// NewInvoiceAdapter is the pay-later default: charging settles nothing, the
// payment stays OPEN until marked paid out of band.
func NewInvoiceAdapter() Adapter {
	return invoiceAdapter{Meta: plugins.Meta{
		AdapterKey:     InvoiceAdapterKey,
		AdapterLabel:   "Invoice",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypePayment,
		SortIndex:      0,
	}}
}

func (a invoiceAdapter) IsActiveFor(ctx context.Context, paymentContext *Context) bool {
	return true
}

func (a invoiceAdapter) ConfigurationError(paymentContext *Context) plugins.ErrorCode {
	return plugins.ErrCodeNone
}

func (a invoiceAdapter) IsPayLaterAllowed(ctx context.Context, paymentContext *Context) bool {
	return true
}

func (a invoiceAdapter) Charge(ctx context.Context, paymentContext *Context) (*ChargeResult, error) {
	return &ChargeResult{Settled: false}, nil
}

func (a invoiceAdapter) Cancel(ctx context.Context, paymentContext *Context) error {
	return nil
}
