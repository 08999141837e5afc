package discount

import (
	"context"

	"commerce-engine/internal/model"
	"commerce-engine/internal/pricing"
	"commerce-engine/internal/plugins"
)

// Context is the order-scoped view a discount adapter judges.
type Context struct {
	Order     *model.Order
	Discount  *model.OrderDiscount
	Code      string
	User      *model.User
	Positions []model.OrderPosition
}

// Adapter is a discount strategy. Validity probes decide whether a
// pending or persisted discount (still) applies; the pricing contribution
// is keyed by the pricing adapter about to run.
type Adapter interface {
	plugins.Adapter

	// IsValidForSystemTriggering reports whether the discount should be
	// attached to the order automatically during calculation.
	IsValidForSystemTriggering(ctx context.Context, discountContext *Context) bool

	// IsValidForCodeTriggering reports whether the given user-entered code
	// activates this discount.
	IsValidForCodeTriggering(ctx context.Context, discountContext *Context) bool

	// DiscountForPricingAdapterKey returns the configuration this discount
	// contributes to the named pricing adapter, judged against the sheet
	// built so far. Nil means no contribution.
	DiscountForPricingAdapterKey(ctx context.Context, discountContext *Context, pricingAdapterKey string, sheet *pricing.Sheet) *pricing.DiscountConfiguration

	// Release reverses external reservations held by the discount (coupon
	// redemption counters and the like). Mutating, errors propagate.
	Release(ctx context.Context, discountContext *Context) error
}
