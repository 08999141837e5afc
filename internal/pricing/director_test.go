package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-engine/internal/model"
	"commerce-engine/internal/plugins"
)

type stubAdapter struct {
	plugins.Meta
	active    bool
	rows      []model.CalculationRow
	err       error
	panicking bool
	seenKeys  *[]string
	calcFn    func(calculation Calculation[OrderContext]) []model.CalculationRow
}

func (a *stubAdapter) IsActivatedFor(ctx context.Context, calculationContext OrderContext) bool {
	return a.active
}

func (a *stubAdapter) Calculate(ctx context.Context, calculation Calculation[OrderContext]) ([]model.CalculationRow, error) {
	if a.seenKeys != nil {
		*a.seenKeys = append(*a.seenKeys, a.Key())
	}
	if a.panicking {
		panic("misbehaving adapter")
	}
	if a.calcFn != nil {
		return a.calcFn(calculation), a.err
	}
	return a.rows, a.err
}

func newStub(key string, orderIndex int, rows []model.CalculationRow) *stubAdapter {
	return &stubAdapter{
		Meta: plugins.Meta{
			AdapterKey:     key,
			AdapterLabel:   key,
			AdapterVersion: "1.0.0",
			AdapterType:    plugins.TypeOrderPricing,
			SortIndex:      orderIndex,
		},
		active: true,
		rows:   rows,
	}
}

func TestDirector_FoldsAdaptersInOrder(t *testing.T) {
	registry := plugins.NewRegistry()
	var order []string

	second := newStub("second", 20, []model.CalculationRow{{Category: OrderRowDelivery, Amount: 50}})
	second.seenKeys = &order
	first := newStub("first", 10, []model.CalculationRow{{Category: OrderRowItems, Amount: 100}})
	first.seenKeys = &order
	registry.RegisterAdapter(second)
	registry.RegisterAdapter(first)

	director := NewDirector[OrderContext](registry, plugins.TypeOrderPricing)
	sheet := director.Calculate(context.Background(), OrderContext{}, NewOrderSheet("CHF", nil).Sheet, nil)

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, int64(150), sheet.Gross())
}

func TestDirector_LaterAdaptersSeeEarlierRows(t *testing.T) {
	registry := plugins.NewRegistry()
	registry.RegisterAdapter(newStub("base", 0, []model.CalculationRow{{Category: OrderRowItems, Amount: 1000}}))

	halver := newStub("halver", 10, nil)
	halver.calcFn = func(calculation Calculation[OrderContext]) []model.CalculationRow {
		base := calculation.Sheet.Sum(ByCategory(OrderRowItems))
		return []model.CalculationRow{{Category: OrderRowDiscounts, Amount: -base / 2}}
	}
	registry.RegisterAdapter(halver)

	director := NewDirector[OrderContext](registry, plugins.TypeOrderPricing)
	sheet := director.Calculate(context.Background(), OrderContext{}, NewOrderSheet("CHF", nil).Sheet, nil)

	assert.Equal(t, int64(500), sheet.Gross())
}

func TestDirector_FailingAdapterKeepsPreviousResult(t *testing.T) {
	registry := plugins.NewRegistry()
	registry.RegisterAdapter(newStub("ok", 0, []model.CalculationRow{{Category: OrderRowItems, Amount: 100}}))

	failing := newStub("failing", 10, []model.CalculationRow{{Category: OrderRowItems, Amount: 9999}})
	failing.err = errors.New("gateway down")
	registry.RegisterAdapter(failing)

	registry.RegisterAdapter(newStub("after", 20, []model.CalculationRow{{Category: OrderRowDelivery, Amount: 10}}))

	director := NewDirector[OrderContext](registry, plugins.TypeOrderPricing)
	sheet := director.Calculate(context.Background(), OrderContext{}, NewOrderSheet("CHF", nil).Sheet, nil)

	assert.Equal(t, int64(110), sheet.Gross(), "failed step contributes nothing, chain continues")
}

func TestDirector_PanickingAdapterIsIsolated(t *testing.T) {
	registry := plugins.NewRegistry()
	registry.RegisterAdapter(newStub("ok", 0, []model.CalculationRow{{Category: OrderRowItems, Amount: 100}}))

	bad := newStub("bad", 10, nil)
	bad.panicking = true
	registry.RegisterAdapter(bad)

	director := NewDirector[OrderContext](registry, plugins.TypeOrderPricing)
	require.NotPanics(t, func() {
		sheet := director.Calculate(context.Background(), OrderContext{}, NewOrderSheet("CHF", nil).Sheet, nil)
		assert.Equal(t, int64(100), sheet.Gross())
	})
}

func TestDirector_InactiveAdapterSkipped(t *testing.T) {
	registry := plugins.NewRegistry()
	inactive := newStub("inactive", 0, []model.CalculationRow{{Category: OrderRowItems, Amount: 100}})
	inactive.active = false
	registry.RegisterAdapter(inactive)

	director := NewDirector[OrderContext](registry, plugins.TypeOrderPricing)
	sheet := director.Calculate(context.Background(), OrderContext{}, NewOrderSheet("CHF", nil).Sheet, nil)

	assert.False(t, sheet.IsValid())
}

func TestDirector_DiscountsResolvedPerAdapterKey(t *testing.T) {
	registry := plugins.NewRegistry()
	registry.RegisterAdapter(newStub("a", 0, nil))
	registry.RegisterAdapter(newStub("b", 10, nil))

	var askedFor []string
	resolver := func(ctx context.Context, pricingAdapterKey string, sheet *Sheet) []Discount {
		askedFor = append(askedFor, pricingAdapterKey)
		return nil
	}

	director := NewDirector[OrderContext](registry, plugins.TypeOrderPricing)
	director.Calculate(context.Background(), OrderContext{}, NewOrderSheet("CHF", nil).Sheet, resolver)

	assert.Equal(t, []string{"a", "b"}, askedFor)
}
