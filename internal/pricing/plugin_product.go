package pricing

import (
	"context"
	"math"

	"commerce-engine/internal/model"
	"commerce-engine/internal/plugins"
)

// Pricing adapter keys of the product chain. Discount adapters reference
// these keys when contributing configurations.
const (
	ProductCatalogPriceAdapterKey = "shop.pricing.product-catalog-price"
	ProductDiscountAdapterKey     = "shop.pricing.product-discount"
	ProductTaxAdapterKey          = "shop.pricing.product-tax"
)

type productCatalogPriceAdapter struct {
	plugins.Meta
}

// NewProductCatalogPriceAdapter prices a position off the catalog price of
// its product, multiplied by quantity.
func NewProductCatalogPriceAdapter() Adapter[ProductContext] {
	return productCatalogPriceAdapter{Meta: plugins.Meta{
		AdapterKey:     ProductCatalogPriceAdapterKey,
		AdapterLabel:   "Product Catalog Price",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeProductPricing,
		SortIndex:      0,
	}}
}

func (a productCatalogPriceAdapter) IsActivatedFor(ctx context.Context, calculationContext ProductContext) bool {
	return calculationContext.Product != nil && calculationContext.Quantity > 0
}

func (a productCatalogPriceAdapter) Calculate(ctx context.Context, calculation Calculation[ProductContext]) ([]model.CalculationRow, error) {
	product := calculation.Context.Product
	return []model.CalculationRow{{
		Category:   ProductRowItem,
		Amount:     product.Price * int64(calculation.Context.Quantity),
		IsTaxable:  product.IsTaxable,
		IsNetPrice: product.IsNetPrice,
		Meta:       map[string]any{"adapter": a.Key()},
	}}, nil
}

type productDiscountAdapter struct {
	plugins.Meta
}

// NewProductDiscountAdapter applies the discount configurations resolved for
// its key against the item rows emitted by earlier adapters.
func NewProductDiscountAdapter() Adapter[ProductContext] {
	return productDiscountAdapter{Meta: plugins.Meta{
		AdapterKey:     ProductDiscountAdapterKey,
		AdapterLabel:   "Product Discounts",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeProductPricing,
		SortIndex:      10,
	}}
}

func (a productDiscountAdapter) IsActivatedFor(ctx context.Context, calculationContext ProductContext) bool {
	return true
}

func (a productDiscountAdapter) Calculate(ctx context.Context, calculation Calculation[ProductContext]) ([]model.CalculationRow, error) {
	var rows []model.CalculationRow
	for _, discount := range calculation.Discounts {
		amount := discountAmount(calculation.Sheet.Sum(ByCategory(ProductRowItem)), discount.Configuration)
		if amount == 0 {
			continue
		}
		rows = append(rows, model.CalculationRow{
			Category:   ProductRowDiscount,
			Amount:     amount,
			DiscountID: discount.DiscountID,
			IsTaxable:  true,
			Meta:       map[string]any{"adapter": a.Key()},
		})
	}
	return rows, nil
}

type productTaxAdapter struct {
	plugins.Meta
}

// NewProductTaxAdapter extracts VAT from the taxable rows accumulated so
// far, linked back through BaseCategory. Net-priced rows additionally get a
// conversion row so the sheet's gross stays tax inclusive.
func NewProductTaxAdapter() Adapter[ProductContext] {
	return productTaxAdapter{Meta: plugins.Meta{
		AdapterKey:     ProductTaxAdapterKey,
		AdapterLabel:   "Product VAT",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeProductPricing,
		SortIndex:      20,
	}}
}

func (a productTaxAdapter) IsActivatedFor(ctx context.Context, calculationContext ProductContext) bool {
	return TaxRateForCountry(calculationContext.CountryCode) > 0
}

func (a productTaxAdapter) Calculate(ctx context.Context, calculation Calculation[ProductContext]) ([]model.CalculationRow, error) {
	rate := TaxRateForCountry(calculation.Context.CountryCode)
	return taxRows(calculation.Sheet, ProductRowTax, rate, a.Key()), nil
}

// discountAmount turns a configuration into a signed row amount against the
// given base. Rates win over fixed amounts when both are set.
func discountAmount(base int64, configuration *DiscountConfiguration) int64 {
	if configuration == nil {
		return 0
	}
	if configuration.Rate != 0 {
		return -int64(math.Round(float64(base) * configuration.Rate))
	}
	if configuration.FixedAmount != 0 {
		return -configuration.FixedAmount
	}
	return 0
}

// taxRows emits one tax row per taxable non-tax row of the sheet, plus a
// gross conversion row for net-priced sources.
func taxRows(sheet *Sheet, taxCategory string, rate float64, adapterKey string) []model.CalculationRow {
	var rows []model.CalculationRow
	for _, row := range sheet.Rows() {
		if row.Category == taxCategory || !row.IsTaxable {
			continue
		}
		var tax int64
		if row.IsNetPrice {
			tax = taxOnNet(row.Amount, rate)
			if tax != 0 {
				rows = append(rows, model.CalculationRow{
					Category:   row.Category,
					Amount:     tax,
					DiscountID: row.DiscountID,
					Meta:       map[string]any{"adapter": adapterKey, "grossConversion": true},
				})
			}
		} else {
			tax = taxFromGross(row.Amount, rate)
		}
		if tax == 0 {
			continue
		}
		rows = append(rows, model.CalculationRow{
			Category:     taxCategory,
			Amount:       tax,
			BaseCategory: row.Category,
			DiscountID:   row.DiscountID,
			Rate:         rate,
			Meta:         map[string]any{"adapter": adapterKey},
		})
	}
	return rows
}
