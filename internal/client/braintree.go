package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"

	"commerce-engine/internal/config"
)

// --- INTERFACE ---

type BraintreeClient interface {
	// Charge submits a sale for a frontend nonce, amount in minor currency
	// units, and captures the funds immediately.
	Charge(ctx context.Context, nonce string, amount int64, currency string) (string, error)

	// Refund reverses a settled transaction.
	Refund(ctx context.Context, transactionID string) error
}

// --- IMPLEMENTATION ---

type braintreeClientImpl struct {
	gateway *braintree.Braintree
}

// NewBraintreeClient initializes the Braintree SDK gateway
func NewBraintreeClient(cfg *config.Braintree) BraintreeClient {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
	}
}

// --- METHODS ---

// minor-unit exponents per ISO 4217; unlisted currencies use 2.
var currencyExponents = map[string]int32{
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"BHD": 3,
	"KWD": 3,
	"TND": 3,
}

func currencyExponent(currency string) int32 {
	if exp, ok := currencyExponents[strings.ToUpper(currency)]; ok {
		return exp
	}
	return 2
}

// gatewayAmount converts a minor-unit amount into the gateway's scaled
// decimal, e.g. 5000 CHF -> "50.00", 5000 JPY -> "5000".
func gatewayAmount(amount int64, currency string) (*braintree.Decimal, error) {
	exp := currencyExponent(currency)
	major := decimal.New(amount, -exp)

	btAmount := &braintree.Decimal{}
	if err := btAmount.UnmarshalText([]byte(major.StringFixed(exp))); err != nil {
		return nil, fmt.Errorf("formatting %d %s for the gateway: %w", amount, currency, err)
	}
	return btAmount, nil
}

func (c *braintreeClientImpl) Charge(ctx context.Context, nonce string, amount int64, currency string) (string, error) {
	btAmount, err := gatewayAmount(amount, currency)
	if err != nil {
		return "", err
	}

	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             btAmount,
		PaymentMethodNonce: nonce,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("transaction creation failed: %w", err)
	}

	if tx.Status == braintree.TransactionStatusProcessorDeclined {
		return "", fmt.Errorf("transaction declined by processor: %s", tx.ProcessorResponseText)
	}

	return tx.Id, nil
}

func (c *braintreeClientImpl) Refund(ctx context.Context, transactionID string) error {
	if _, err := c.gateway.Transaction().Refund(ctx, transactionID); err != nil {
		return fmt.Errorf("failed to refund transaction: %w", err)
	}
	return nil
}
