package discount

import (
	"context"
	"strings"

	"commerce-engine/internal/pricing"
	"commerce-engine/internal/plugins"
)

const (
	FreeDeliveryAdapterKey = "shop.discount.free-delivery"
	HalfPriceAdapterKey    = "shop.discount.half-price"
	EarlyBirdAdapterKey    = "shop.discount.early-bird"
)

// freeDeliveryAdapter waives the delivery fee once the items total reaches a
// threshold. System triggered, it attaches and detaches itself as the cart
// crosses the threshold.
type freeDeliveryAdapter struct {
	plugins.Meta
	threshold int64
}

func NewFreeDeliveryAdapter(threshold int64) Adapter {
	return freeDeliveryAdapter{
		Meta: plugins.Meta{
			AdapterKey:     FreeDeliveryAdapterKey,
			AdapterLabel:   "Free Delivery",
			AdapterVersion: "1.0.0",
			AdapterType:    plugins.TypeDiscount,
			SortIndex:      0,
		},
		threshold: threshold,
	}
}

func (a freeDeliveryAdapter) itemsTotal(discountContext *Context) int64 {
	if discountContext.Order == nil {
		return 0
	}
	sheet := pricing.NewOrderSheet(discountContext.Order.Currency, discountContext.Order.Calculation)
	return sheet.ItemsSum()
}

func (a freeDeliveryAdapter) IsValidForSystemTriggering(ctx context.Context, discountContext *Context) bool {
	return a.itemsTotal(discountContext) >= a.threshold
}

func (a freeDeliveryAdapter) IsValidForCodeTriggering(ctx context.Context, discountContext *Context) bool {
	return false
}

func (a freeDeliveryAdapter) DiscountForPricingAdapterKey(ctx context.Context, discountContext *Context, pricingAdapterKey string, sheet *pricing.Sheet) *pricing.DiscountConfiguration {
	if pricingAdapterKey != pricing.DeliveryDiscountAdapterKey {
		return nil
	}
	return &pricing.DiscountConfiguration{Rate: 1.0}
}

func (a freeDeliveryAdapter) Release(ctx context.Context, discountContext *Context) error {
	return nil
}

// halfPriceAdapter halves every item's price when the HALFPRICE code is
// entered.
type halfPriceAdapter struct {
	plugins.Meta
}

func NewHalfPriceAdapter() Adapter {
	return halfPriceAdapter{Meta: plugins.Meta{
		AdapterKey:     HalfPriceAdapterKey,
		AdapterLabel:   "Half Price",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeDiscount,
		SortIndex:      10,
	}}
}

func (a halfPriceAdapter) IsValidForSystemTriggering(ctx context.Context, discountContext *Context) bool {
	return false
}

func (a halfPriceAdapter) IsValidForCodeTriggering(ctx context.Context, discountContext *Context) bool {
	return strings.EqualFold(discountContext.Code, "HALFPRICE")
}

func (a halfPriceAdapter) DiscountForPricingAdapterKey(ctx context.Context, discountContext *Context, pricingAdapterKey string, sheet *pricing.Sheet) *pricing.DiscountConfiguration {
	if pricingAdapterKey != pricing.ProductDiscountAdapterKey {
		return nil
	}
	return &pricing.DiscountConfiguration{Rate: 0.5}
}

func (a halfPriceAdapter) Release(ctx context.Context, discountContext *Context) error {
	return nil
}

// earlyBirdAdapter takes ten percent off the order total for the EARLYBIRD
// code.
type earlyBirdAdapter struct {
	plugins.Meta
}

func NewEarlyBirdAdapter() Adapter {
	return earlyBirdAdapter{Meta: plugins.Meta{
		AdapterKey:     EarlyBirdAdapterKey,
		AdapterLabel:   "Early Bird",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeDiscount,
		SortIndex:      20,
	}}
}

func (a earlyBirdAdapter) IsValidForSystemTriggering(ctx context.Context, discountContext *Context) bool {
	return false
}

func (a earlyBirdAdapter) IsValidForCodeTriggering(ctx context.Context, discountContext *Context) bool {
	return strings.EqualFold(discountContext.Code, "EARLYBIRD")
}

func (a earlyBirdAdapter) DiscountForPricingAdapterKey(ctx context.Context, discountContext *Context, pricingAdapterKey string, sheet *pricing.Sheet) *pricing.DiscountConfiguration {
	if pricingAdapterKey != pricing.OrderDiscountsAdapterKey {
		return nil
	}
	return &pricing.DiscountConfiguration{Rate: 0.1}
}

func (a earlyBirdAdapter) Release(ctx context.Context, discountContext *Context) error {
	return nil
}
