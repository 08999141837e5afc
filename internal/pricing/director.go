package pricing

import (
	"context"
	"fmt"
	"log"

	"commerce-engine/internal/model"
	"commerce-engine/internal/plugins"
)

// DiscountConfiguration is what a discount adapter contributes for one
// pricing adapter key. Either a proportional rate or a fixed amount applies.
type DiscountConfiguration struct {
	Rate        float64
	FixedAmount int64
	IsNetPrice  bool
}

// Discount pairs an order discount id with the configuration its adapter
// contributed for the pricing adapter about to run.
type Discount struct {
	DiscountID    string
	Configuration *DiscountConfiguration
}

// DiscountResolver returns the discounts applicable to one pricing adapter,
// given a read-only view of the sheet built so far. A nil resolver means no
// discounts participate.
type DiscountResolver func(ctx context.Context, pricingAdapterKey string, sheet *Sheet) []Discount

// Calculation is the unit of work handed to a pricing adapter: the domain
// context, the sheet accumulated by earlier adapters and the applicable
// discounts.
type Calculation[C any] struct {
	Context   C
	Sheet     *Sheet
	Discounts []Discount
}

// Adapter is a pricing strategy contributing rows to a running sheet.
type Adapter[C any] interface {
	plugins.Adapter
	IsActivatedFor(ctx context.Context, calculationContext C) bool
	Calculate(ctx context.Context, calculation Calculation[C]) ([]model.CalculationRow, error)
}

// Director folds the registered pricing adapters of one domain over an
// accumulating sheet. Adapters run in ascending order index; later adapters
// see the rows emitted by earlier ones.
type Director[C any] struct {
	registry    *plugins.Registry
	adapterType plugins.AdapterType
}

func NewDirector[C any](registry *plugins.Registry, adapterType plugins.AdapterType) *Director[C] {
	return &Director[C]{registry: registry, adapterType: adapterType}
}

// Calculate runs the adapter chain for the given context, appending each
// adapter's rows to sheet. A failing adapter is logged and the previously
// accumulated result kept; the step is not retried.
func (d *Director[C]) Calculate(ctx context.Context, calculationContext C, sheet *Sheet, resolve DiscountResolver) *Sheet {
	for _, registered := range d.registry.AdaptersOf(d.adapterType) {
		adapter, ok := registered.(Adapter[C])
		if !ok {
			log.Printf("pricing: adapter %s does not implement the %s contract, skipping", registered.Key(), d.adapterType)
			continue
		}
		if !isActivated(ctx, adapter, calculationContext) {
			continue
		}

		var discounts []Discount
		if resolve != nil {
			discounts = resolve(ctx, adapter.Key(), sheet)
		}

		rows, err := calculate(ctx, adapter, Calculation[C]{
			Context:   calculationContext,
			Sheet:     sheet,
			Discounts: discounts,
		})
		if err != nil {
			log.Printf("pricing: adapter %s failed, keeping previous calculation: %v", adapter.Key(), err)
			continue
		}
		for _, row := range rows {
			sheet.Add(row)
		}
	}
	return sheet
}

func isActivated[C any](ctx context.Context, adapter Adapter[C], calculationContext C) (active bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("pricing: activation probe of %s panicked: %v", adapter.Key(), r)
			active = false
		}
	}()
	return adapter.IsActivatedFor(ctx, calculationContext)
}

func calculate[C any](ctx context.Context, adapter Adapter[C], calculation Calculation[C]) (rows []model.CalculationRow, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("adapter panicked: %v", r)
		}
	}()
	return adapter.Calculate(ctx, calculation)
}
