package discount

import (
	"context"
	"log"

	"commerce-engine/internal/model"
	"commerce-engine/internal/pricing"
	"commerce-engine/internal/plugins"
)

// Director evaluates the registered discount adapters for an order.
type Director struct {
	registry *plugins.Registry
}

func NewDirector(registry *plugins.Registry) *Director {
	return &Director{registry: registry}
}

func (d *Director) adapters() []Adapter {
	registered := d.registry.AdaptersOf(plugins.TypeDiscount)
	adapters := make([]Adapter, 0, len(registered))
	for _, candidate := range registered {
		if adapter, ok := candidate.(Adapter); ok {
			adapters = append(adapters, adapter)
		}
	}
	return adapters
}

// AdapterByKey resolves the adapter a persisted order discount was created
// through.
func (d *Director) AdapterByKey(key string) (Adapter, error) {
	registered, err := d.registry.AdapterByKey(plugins.TypeDiscount, key)
	if err != nil {
		return nil, err
	}
	adapter, ok := registered.(Adapter)
	if !ok {
		return nil, plugins.ErrAdapterNotFound
	}
	return adapter, nil
}

// FindSystemDiscounts returns the keys of adapters that want to attach
// themselves to the order right now. Probe failures only exclude the
// failing adapter.
func (d *Director) FindSystemDiscounts(ctx context.Context, discountContext *Context) []string {
	var keys []string
	for _, adapter := range d.adapters() {
		if isValidForSystem(ctx, adapter, discountContext) {
			keys = append(keys, adapter.Key())
		}
	}
	return keys
}

// IsValidCode reports whether code activates the adapter.
func (d *Director) IsValidCode(ctx context.Context, adapter Adapter, discountContext *Context) (valid bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("discount: code probe of %s panicked: %v", adapter.Key(), r)
			valid = false
		}
	}()
	return adapter.IsValidForCodeTriggering(ctx, discountContext)
}

// FindAdapterForCode returns the first adapter activated by the entered
// code, in ascending order index.
func (d *Director) FindAdapterForCode(ctx context.Context, discountContext *Context) (Adapter, error) {
	for _, adapter := range d.adapters() {
		if d.IsValidCode(ctx, adapter, discountContext) {
			return adapter, nil
		}
	}
	return nil, plugins.ErrAdapterNotFound
}

// IsStillValid re-judges a persisted discount during calculation. System
// discounts re-run the system predicate, user discounts the code predicate.
func (d *Director) IsStillValid(ctx context.Context, orderDiscount *model.OrderDiscount, discountContext *Context) bool {
	adapter, err := d.AdapterByKey(orderDiscount.DiscountKey)
	if err != nil {
		log.Printf("discount: adapter %s of persisted discount %s not registered", orderDiscount.DiscountKey, orderDiscount.ID)
		return false
	}
	if orderDiscount.Trigger == model.DiscountTriggerSystem {
		return isValidForSystem(ctx, adapter, discountContext)
	}
	return d.IsValidCode(ctx, adapter, discountContext)
}

// Release undoes external reservations of a discount about to be dropped.
// Failures are logged; the discount is removed regardless.
func (d *Director) Release(ctx context.Context, orderDiscount *model.OrderDiscount, discountContext *Context) {
	adapter, err := d.AdapterByKey(orderDiscount.DiscountKey)
	if err != nil {
		return
	}
	if err := adapter.Release(ctx, discountContext); err != nil {
		log.Printf("discount: releasing %s failed: %v", orderDiscount.DiscountKey, err)
	}
}

// Resolver builds the pricing callback for one calculation pass: each
// pricing adapter asks which of the order's discounts contribute to it.
func (d *Director) Resolver(order *model.Order, orderDiscounts []model.OrderDiscount, user *model.User, positions []model.OrderPosition) pricing.DiscountResolver {
	return func(ctx context.Context, pricingAdapterKey string, sheet *pricing.Sheet) []pricing.Discount {
		var applicable []pricing.Discount
		for i := range orderDiscounts {
			orderDiscount := &orderDiscounts[i]
			adapter, err := d.AdapterByKey(orderDiscount.DiscountKey)
			if err != nil {
				continue
			}
			configuration := configurationFor(ctx, adapter, &Context{
				Order:     order,
				Discount:  orderDiscount,
				Code:      orderDiscount.Code,
				User:      user,
				Positions: positions,
			}, pricingAdapterKey, sheet)
			if configuration == nil {
				continue
			}
			applicable = append(applicable, pricing.Discount{
				DiscountID:    orderDiscount.ID,
				Configuration: configuration,
			})
		}
		return applicable
	}
}

func isValidForSystem(ctx context.Context, adapter Adapter, discountContext *Context) (valid bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("discount: system probe of %s panicked: %v", adapter.Key(), r)
			valid = false
		}
	}()
	return adapter.IsValidForSystemTriggering(ctx, discountContext)
}

func configurationFor(ctx context.Context, adapter Adapter, discountContext *Context, pricingAdapterKey string, sheet *pricing.Sheet) (configuration *pricing.DiscountConfiguration) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("discount: configuration probe of %s panicked: %v", adapter.Key(), r)
			configuration = nil
		}
	}()
	return adapter.DiscountForPricingAdapterKey(ctx, discountContext, pricingAdapterKey, sheet)
}
