package pricing

import (
	"context"
	"strconv"

	"commerce-engine/internal/model"
	"commerce-engine/internal/plugins"
)

const (
	DeliveryFeesAdapterKey     = "shop.pricing.delivery-fees"
	DeliveryDiscountAdapterKey = "shop.pricing.delivery-discount"
	DeliveryTaxAdapterKey      = "shop.pricing.delivery-tax"
)

type deliveryFeesAdapter struct {
	plugins.Meta
}

// NewDeliveryFeesAdapter charges the flat fee configured on the order's
// delivery provider ("fee", minor units).
func NewDeliveryFeesAdapter() Adapter[DeliveryContext] {
	return deliveryFeesAdapter{Meta: plugins.Meta{
		AdapterKey:     DeliveryFeesAdapterKey,
		AdapterLabel:   "Delivery Fees",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeDeliveryPricing,
		SortIndex:      0,
	}}
}

func (a deliveryFeesAdapter) IsActivatedFor(ctx context.Context, calculationContext DeliveryContext) bool {
	return calculationContext.Provider != nil
}

func (a deliveryFeesAdapter) Calculate(ctx context.Context, calculation Calculation[DeliveryContext]) ([]model.CalculationRow, error) {
	fee, err := strconv.ParseInt(calculation.Context.Provider.Configuration["fee"], 10, 64)
	if err != nil || fee == 0 {
		return nil, nil
	}
	return []model.CalculationRow{{
		Category:  DeliveryRowFee,
		Amount:    fee,
		IsTaxable: true,
		Meta:      map[string]any{"adapter": a.Key()},
	}}, nil
}

type deliveryDiscountAdapter struct {
	plugins.Meta
}

// NewDeliveryDiscountAdapter applies resolved discount configurations
// against the delivery fees accumulated so far.
func NewDeliveryDiscountAdapter() Adapter[DeliveryContext] {
	return deliveryDiscountAdapter{Meta: plugins.Meta{
		AdapterKey:     DeliveryDiscountAdapterKey,
		AdapterLabel:   "Delivery Discounts",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeDeliveryPricing,
		SortIndex:      10,
	}}
}

func (a deliveryDiscountAdapter) IsActivatedFor(ctx context.Context, calculationContext DeliveryContext) bool {
	return true
}

func (a deliveryDiscountAdapter) Calculate(ctx context.Context, calculation Calculation[DeliveryContext]) ([]model.CalculationRow, error) {
	var rows []model.CalculationRow
	for _, discount := range calculation.Discounts {
		amount := discountAmount(calculation.Sheet.Sum(ByCategory(DeliveryRowFee)), discount.Configuration)
		if amount == 0 {
			continue
		}
		rows = append(rows, model.CalculationRow{
			Category:   DeliveryRowDiscount,
			Amount:     amount,
			DiscountID: discount.DiscountID,
			IsTaxable:  true,
			Meta:       map[string]any{"adapter": a.Key()},
		})
	}
	return rows, nil
}

type deliveryTaxAdapter struct {
	plugins.Meta
}

// NewDeliveryTaxAdapter extracts VAT from taxable delivery rows.
func NewDeliveryTaxAdapter() Adapter[DeliveryContext] {
	return deliveryTaxAdapter{Meta: plugins.Meta{
		AdapterKey:     DeliveryTaxAdapterKey,
		AdapterLabel:   "Delivery VAT",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeDeliveryPricing,
		SortIndex:      20,
	}}
}

func (a deliveryTaxAdapter) IsActivatedFor(ctx context.Context, calculationContext DeliveryContext) bool {
	return TaxRateForCountry(calculationContext.CountryCode) > 0
}

func (a deliveryTaxAdapter) Calculate(ctx context.Context, calculation Calculation[DeliveryContext]) ([]model.CalculationRow, error) {
	rate := TaxRateForCountry(calculation.Context.CountryCode)
	return taxRows(calculation.Sheet, DeliveryRowTax, rate, a.Key()), nil
}
