package pricing

import (
	"context"
	"math"

	"commerce-engine/internal/model"
	"commerce-engine/internal/plugins"
)

const (
	OrderItemsAdapterKey     = "shop.pricing.order-items"
	OrderDeliveryAdapterKey  = "shop.pricing.order-delivery"
	OrderPaymentAdapterKey   = "shop.pricing.order-payment"
	OrderDiscountsAdapterKey = "shop.pricing.order-discounts"
)

type orderItemsAdapter struct {
	plugins.Meta
}

// NewOrderItemsAdapter folds the already calculated position sheets into the
// order's ITEMS and TAXES categories.
func NewOrderItemsAdapter() Adapter[OrderContext] {
	return orderItemsAdapter{Meta: plugins.Meta{
		AdapterKey:     OrderItemsAdapterKey,
		AdapterLabel:   "Order Items",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeOrderPricing,
		SortIndex:      0,
	}}
}

func (a orderItemsAdapter) IsActivatedFor(ctx context.Context, calculationContext OrderContext) bool {
	return len(calculationContext.Positions) > 0
}

func (a orderItemsAdapter) Calculate(ctx context.Context, calculation Calculation[OrderContext]) ([]model.CalculationRow, error) {
	var gross, tax int64
	for _, position := range calculation.Context.Positions {
		sheet := NewProductSheet(calculation.Context.Currency, position.Quantity, position.Calculation)
		gross += sheet.Gross()
		tax += sheet.TaxSum()
	}

	rows := []model.CalculationRow{{
		Category: OrderRowItems,
		Amount:   gross,
		Meta:     map[string]any{"adapter": a.Key()},
	}}
	if tax != 0 {
		rows = append(rows, model.CalculationRow{
			Category:     OrderRowTaxes,
			Amount:       tax,
			BaseCategory: OrderRowItems,
			Meta:         map[string]any{"adapter": a.Key()},
		})
	}
	return rows, nil
}

type orderDeliveryAdapter struct {
	plugins.Meta
}

// NewOrderDeliveryAdapter folds the delivery sheet into the order sheet.
func NewOrderDeliveryAdapter() Adapter[OrderContext] {
	return orderDeliveryAdapter{Meta: plugins.Meta{
		AdapterKey:     OrderDeliveryAdapterKey,
		AdapterLabel:   "Order Delivery",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeOrderPricing,
		SortIndex:      10,
	}}
}

func (a orderDeliveryAdapter) IsActivatedFor(ctx context.Context, calculationContext OrderContext) bool {
	return calculationContext.Delivery != nil
}

func (a orderDeliveryAdapter) Calculate(ctx context.Context, calculation Calculation[OrderContext]) ([]model.CalculationRow, error) {
	sheet := NewDeliverySheet(calculation.Context.Currency, calculation.Context.Delivery.Calculation)
	rows := []model.CalculationRow{{
		Category: OrderRowDelivery,
		Amount:   sheet.Gross(),
		Meta:     map[string]any{"adapter": a.Key()},
	}}
	if tax := sheet.TaxSum(); tax != 0 {
		rows = append(rows, model.CalculationRow{
			Category:     OrderRowTaxes,
			Amount:       tax,
			BaseCategory: OrderRowDelivery,
			Meta:         map[string]any{"adapter": a.Key()},
		})
	}
	return rows, nil
}

type orderPaymentAdapter struct {
	plugins.Meta
}

// NewOrderPaymentAdapter folds the payment sheet into the order sheet.
func NewOrderPaymentAdapter() Adapter[OrderContext] {
	return orderPaymentAdapter{Meta: plugins.Meta{
		AdapterKey:     OrderPaymentAdapterKey,
		AdapterLabel:   "Order Payment",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeOrderPricing,
		SortIndex:      20,
	}}
}

func (a orderPaymentAdapter) IsActivatedFor(ctx context.Context, calculationContext OrderContext) bool {
	return calculationContext.Payment != nil
}

func (a orderPaymentAdapter) Calculate(ctx context.Context, calculation Calculation[OrderContext]) ([]model.CalculationRow, error) {
	sheet := NewPaymentSheet(calculation.Context.Currency, calculation.Context.Payment.Calculation)
	rows := []model.CalculationRow{{
		Category: OrderRowPayment,
		Amount:   sheet.Gross(),
		Meta:     map[string]any{"adapter": a.Key()},
	}}
	if tax := sheet.TaxSum(); tax != 0 {
		rows = append(rows, model.CalculationRow{
			Category:     OrderRowTaxes,
			Amount:       tax,
			BaseCategory: OrderRowPayment,
			Meta:         map[string]any{"adapter": a.Key()},
		})
	}
	return rows, nil
}

type orderDiscountsAdapter struct {
	plugins.Meta
}

// NewOrderDiscountsAdapter applies order-level discount configurations
// against the gross accumulated so far and attributes their tax impact
// proportionally through the sheet's tax divisor.
func NewOrderDiscountsAdapter() Adapter[OrderContext] {
	return orderDiscountsAdapter{Meta: plugins.Meta{
		AdapterKey:     OrderDiscountsAdapterKey,
		AdapterLabel:   "Order Discounts",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeOrderPricing,
		SortIndex:      30,
	}}
}

func (a orderDiscountsAdapter) IsActivatedFor(ctx context.Context, calculationContext OrderContext) bool {
	return true
}

func (a orderDiscountsAdapter) Calculate(ctx context.Context, calculation Calculation[OrderContext]) ([]model.CalculationRow, error) {
	var rows []model.CalculationRow
	sheet := calculation.Sheet
	for _, discount := range calculation.Discounts {
		amount := discountAmount(sheet.Gross(), discount.Configuration)
		if amount == 0 {
			continue
		}
		rows = append(rows, model.CalculationRow{
			Category:   OrderRowDiscounts,
			Amount:     amount,
			DiscountID: discount.DiscountID,
			IsTaxable:  true,
			Meta:       map[string]any{"adapter": a.Key()},
		})

		resolved := ResolveRatioAndTaxDivisor(sheet, sheet.Gross())
		if resolved.TaxDivisor > 0 && resolved.TaxDivisor != 1 {
			tax := amount - int64(math.Round(float64(amount)/resolved.TaxDivisor))
			if tax != 0 {
				rows = append(rows, model.CalculationRow{
					Category:     OrderRowTaxes,
					Amount:       tax,
					BaseCategory: OrderRowDiscounts,
					DiscountID:   discount.DiscountID,
					Meta:         map[string]any{"adapter": a.Key()},
				})
			}
		}
	}
	return rows, nil
}
