package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-engine/internal/model"
)

func TestSheet_GrossEqualsNetPlusTax(t *testing.T) {
	sheet := NewOrderSheet("CHF", nil)
	sheet.AddItems(10000, nil)
	sheet.AddDelivery(500, nil)
	sheet.AddTax(750, OrderRowItems, "", 0.081, nil)
	sheet.AddTax(37, OrderRowDelivery, "", 0.081, nil)
	sheet.AddDiscount(-1000, "discount-1", nil)

	assert.Equal(t, sheet.Gross(), sheet.Net()+sheet.TaxSum())
	assert.Equal(t, int64(9500), sheet.Gross())
	assert.Equal(t, int64(787), sheet.TaxSum())
}

func TestSheet_TotalUnfilteredIsGross(t *testing.T) {
	sheet := NewOrderSheet("CHF", nil)
	sheet.AddItems(10000, nil)
	sheet.AddTax(750, OrderRowItems, "", 0.081, nil)

	assert.Equal(t, Price{Amount: 10000, CurrencyCode: "CHF"}, sheet.Total(TotalFilter{}))
	assert.Equal(t, Price{Amount: 9250, CurrencyCode: "CHF"}, sheet.Total(TotalFilter{UseNetPrice: true}))
}

func TestSheet_TotalFilteredReportsNet(t *testing.T) {
	sheet := NewOrderSheet("CHF", nil)
	sheet.AddItems(10000, nil)
	sheet.AddDelivery(500, nil)
	sheet.AddTax(750, OrderRowItems, "", 0.081, nil)
	sheet.AddTax(37, OrderRowDelivery, "", 0.081, nil)

	// filtered totals reconcile the category through its linked tax rows
	assert.Equal(t, int64(9250), sheet.Total(TotalFilter{Category: OrderRowItems}).Amount)
	assert.Equal(t, int64(463), sheet.Total(TotalFilter{Category: OrderRowDelivery}).Amount)
}

func TestSheet_TotalUnknownCategoryIsZero(t *testing.T) {
	sheet := NewOrderSheet("CHF", nil)
	sheet.AddItems(10000, nil)

	assert.Equal(t, int64(0), sheet.Total(TotalFilter{Category: "NOPE"}).Amount)
}

func TestSheet_TotalByDiscount(t *testing.T) {
	sheet := NewOrderSheet("CHF", nil)
	sheet.AddItems(10000, nil)
	sheet.AddDiscount(-1000, "d1", nil)
	sheet.AddDiscount(-500, "d2", nil)
	sheet.AddTax(-75, OrderRowDiscounts, "d1", 0.081, nil)

	assert.Equal(t, int64(-925), sheet.Total(TotalFilter{DiscountID: "d1"}).Amount)
	assert.Equal(t, int64(-500), sheet.Total(TotalFilter{DiscountID: "d2"}).Amount)
}

func TestSheet_CurrencyStampedOnRows(t *testing.T) {
	sheet := NewProductSheet("EUR", 2, nil)
	sheet.AddItem(400, true, false, nil)

	rows := sheet.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "EUR", rows[0].CurrencyCode)
}

func TestSheet_RebuildFromPersistedRows(t *testing.T) {
	original := NewProductSheet("CHF", 3, nil)
	original.AddItem(3000, true, false, nil)
	original.AddTax(225, ProductRowItem, "", 0.081, nil)

	restored := NewProductSheet("CHF", 3, original.Rows())
	assert.Equal(t, original.Gross(), restored.Gross())
	assert.Equal(t, original.TaxSum(), restored.TaxSum())
	assert.Equal(t, Price{Amount: 1000, CurrencyCode: "CHF"}, restored.UnitPrice())
}

func TestResolveRatioAndTaxDivisor(t *testing.T) {
	tests := []struct {
		name  string
		sheet func() *Sheet
		total int64
		want  RatioAndTaxDivisor
	}{
		{
			name:  "zero total yields neutral factors",
			sheet: func() *Sheet { return NewOrderSheet("CHF", nil).Sheet },
			total: 0,
			want:  RatioAndTaxDivisor{Ratio: 1, TaxDivisor: 1},
		},
		{
			name:  "nil sheet yields neutral factors",
			sheet: func() *Sheet { return nil },
			total: 100,
			want:  RatioAndTaxDivisor{Ratio: 1, TaxDivisor: 1},
		},
		{
			name: "fully discounted sheet yields zero factors",
			sheet: func() *Sheet {
				s := NewOrderSheet("CHF", nil)
				s.AddItems(100, nil)
				s.AddTax(100, OrderRowItems, "", 1, nil)
				return s.Sheet
			},
			total: 100,
			want:  RatioAndTaxDivisor{Ratio: 0, TaxDivisor: 0},
		},
		{
			name: "regular sheet",
			sheet: func() *Sheet {
				s := NewOrderSheet("CHF", nil)
				s.AddItems(1000, nil)
				s.AddTax(200, OrderRowItems, "", 0.25, nil)
				return s.Sheet
			},
			total: 2000,
			want:  RatioAndTaxDivisor{Ratio: 0.5, TaxDivisor: 1.25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRatioAndTaxDivisor(tt.sheet(), tt.total))
		})
	}
}

func TestTaxRows_NetPriceGetsGrossConversion(t *testing.T) {
	sheet := NewProductSheet("DE", 1, []model.CalculationRow{
		{Category: ProductRowItem, Amount: 1000, IsTaxable: true, IsNetPrice: true},
	})

	rows := taxRows(sheet.Sheet, ProductRowTax, 0.19, "test")
	require.Len(t, rows, 2)
	assert.Equal(t, ProductRowItem, rows[0].Category)
	assert.Equal(t, int64(190), rows[0].Amount)
	assert.Equal(t, ProductRowTax, rows[1].Category)
	assert.Equal(t, int64(190), rows[1].Amount)

	for _, row := range rows {
		sheet.Add(row)
	}
	assert.Equal(t, int64(1190), sheet.Gross())
	assert.Equal(t, int64(1000), sheet.Net())
}
