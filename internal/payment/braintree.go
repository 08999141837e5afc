package payment

import (
	"context"
	"fmt"

	"commerce-engine/internal/client"
	"commerce-engine/internal/config"
	"commerce-engine/internal/plugins"
	"commerce-engine/internal/pricing"
)

const BraintreeAdapterKey = "shop.payment.braintree"

type braintreeAdapter struct {
	plugins.Meta
	client client.BraintreeClient
	cfg    config.Braintree
}

// NewBraintreeAdapter charges cards through the Braintree gateway. The
// frontend passes the payment method nonce in the transaction context.
func NewBraintreeAdapter(btClient client.BraintreeClient, cfg config.Braintree) Adapter {
	return braintreeAdapter{
		Meta: plugins.Meta{
			AdapterKey:     BraintreeAdapterKey,
			AdapterLabel:   "Braintree",
			AdapterVersion: "1.0.0",
			AdapterType:    plugins.TypePayment,
			SortIndex:      10,
		},
		client: btClient,
		cfg:    cfg,
	}
}

func (a braintreeAdapter) IsActiveFor(ctx context.Context, paymentContext *Context) bool {
	return a.ConfigurationError(paymentContext) == plugins.ErrCodeNone
}

func (a braintreeAdapter) ConfigurationError(paymentContext *Context) plugins.ErrorCode {
	if a.cfg.MerchantID == "" || a.cfg.PublicKey == "" || a.cfg.PrivateKey == "" {
		return plugins.ErrCodeIncompleteConfiguration
	}
	return plugins.ErrCodeNone
}

func (a braintreeAdapter) IsPayLaterAllowed(ctx context.Context, paymentContext *Context) bool {
	return false
}

func (a braintreeAdapter) Charge(ctx context.Context, paymentContext *Context) (*ChargeResult, error) {
	nonce, _ := paymentContext.Transaction["paymentMethodNonce"].(string)
	if nonce == "" {
		return nil, fmt.Errorf("braintree: payment method nonce missing in transaction context")
	}

	order := paymentContext.Order
	total := pricing.NewOrderSheet(order.Currency, order.Calculation).Total(pricing.TotalFilter{})
	if total.Amount <= 0 {
		return &ChargeResult{Settled: true}, nil
	}

	transactionID, err := a.client.Charge(ctx, nonce, total.Amount, total.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("braintree: charge order %s: %w", order.ID, err)
	}

	return &ChargeResult{
		Settled:       true,
		TransactionID: transactionID,
		Info:          map[string]any{"gateway": "braintree"},
	}, nil
}

func (a braintreeAdapter) Cancel(ctx context.Context, paymentContext *Context) error {
	if paymentContext.OrderPayment == nil || paymentContext.OrderPayment.TransactionID == "" {
		return nil
	}
	return a.client.Refund(ctx, paymentContext.OrderPayment.TransactionID)
}
