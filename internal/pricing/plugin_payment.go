package pricing

import (
	"context"
	"strconv"

	"commerce-engine/internal/model"
	"commerce-engine/internal/plugins"
)

const (
	PaymentFeesAdapterKey = "shop.pricing.payment-fees"
	PaymentTaxAdapterKey  = "shop.pricing.payment-tax"
)

type paymentFeesAdapter struct {
	plugins.Meta
}

// NewPaymentFeesAdapter charges the flat fee configured on the order's
// payment provider ("fee", minor units).
func NewPaymentFeesAdapter() Adapter[PaymentContext] {
	return paymentFeesAdapter{Meta: plugins.Meta{
		AdapterKey:     PaymentFeesAdapterKey,
		AdapterLabel:   "Payment Fees",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypePaymentPricing,
		SortIndex:      0,
	}}
}

func (a paymentFeesAdapter) IsActivatedFor(ctx context.Context, calculationContext PaymentContext) bool {
	return calculationContext.Provider != nil
}

func (a paymentFeesAdapter) Calculate(ctx context.Context, calculation Calculation[PaymentContext]) ([]model.CalculationRow, error) {
	fee, err := strconv.ParseInt(calculation.Context.Provider.Configuration["fee"], 10, 64)
	if err != nil || fee == 0 {
		return nil, nil
	}
	return []model.CalculationRow{{
		Category:  PaymentRowFee,
		Amount:    fee,
		IsTaxable: true,
		Meta:      map[string]any{"adapter": a.Key()},
	}}, nil
}

type paymentTaxAdapter struct {
	plugins.Meta
}

// NewPaymentTaxAdapter extracts VAT from taxable payment fee rows.
func NewPaymentTaxAdapter() Adapter[PaymentContext] {
	return paymentTaxAdapter{Meta: plugins.Meta{
		AdapterKey:     PaymentTaxAdapterKey,
		AdapterLabel:   "Payment VAT",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypePaymentPricing,
		SortIndex:      20,
	}}
}

func (a paymentTaxAdapter) IsActivatedFor(ctx context.Context, calculationContext PaymentContext) bool {
	return TaxRateForCountry(calculationContext.CountryCode) > 0
}

func (a paymentTaxAdapter) Calculate(ctx context.Context, calculation Calculation[PaymentContext]) ([]model.CalculationRow, error) {
	rate := TaxRateForCountry(calculation.Context.CountryCode)
	return taxRows(calculation.Sheet, PaymentRowTax, rate, a.Key()), nil
}
