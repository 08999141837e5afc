package delivery

import (
	"context"

	"commerce-engine/internal/plugins"
)

const (
	ShippingAdapterKey = "shop.delivery.shipping"
	PickupAdapterKey   = "shop.delivery.pickup"
)

type shippingAdapter struct {
	plugins.Meta
}

// NewShippingAdapter hands shipments to a carrier. Auto release is
// controlled per provider through the "autoRelease" configuration flag;
// dispatching marks the delivery as handed over.
func NewShippingAdapter() Adapter {
	return shippingAdapter{Meta: plugins.Meta{
		AdapterKey:     ShippingAdapterKey,
		AdapterLabel:   "Shipping",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeDelivery,
		SortIndex:      0,
	}}
}

func (a shippingAdapter) IsActiveFor(ctx context.Context, deliveryContext *Context) bool {
	return true
}

func (a shippingAdapter) ConfigurationError(deliveryContext *Context) plugins.ErrorCode {
	return plugins.ErrCodeNone
}

func (a shippingAdapter) IsAutoReleaseAllowed(ctx context.Context, deliveryContext *Context) bool {
	return deliveryContext.Provider.Configuration["autoRelease"] == "true"
}

func (a shippingAdapter) Send(ctx context.Context, deliveryContext *Context) (*SendResult, error) {
	return &SendResult{
		Delivered: true,
		Info:      map[string]any{"carrier": deliveryContext.Provider.Configuration["carrier"]},
	}, nil
}

type pickupAdapter struct {
	plugins.Meta
}

// NewPickupAdapter models in-store pickup: orders release automatically but
// the delivery stays OPEN until the customer collects it.
func NewPickupAdapter() Adapter {
	return pickupAdapter{Meta: plugins.Meta{
		AdapterKey:     PickupAdapterKey,
		AdapterLabel:   "Pickup",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeDelivery,
		SortIndex:      10,
	}}
}

func (a pickupAdapter) IsActiveFor(ctx context.Context, deliveryContext *Context) bool {
	return true
}

func (a pickupAdapter) ConfigurationError(deliveryContext *Context) plugins.ErrorCode {
	return plugins.ErrCodeNone
}

func (a pickupAdapter) IsAutoReleaseAllowed(ctx context.Context, deliveryContext *Context) bool {
	return true
}

func (a pickupAdapter) Send(ctx context.Context, deliveryContext *Context) (*SendResult, error) {
	return &SendResult{Delivered: false}, nil
}
