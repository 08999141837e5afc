package delivery

import (
	"context"

	"commerce-engine/internal/model"
	"commerce-engine/internal/plugins"
)

// Context binds a delivery adapter to one order delivery.
type Context struct {
	Order         *model.Order
	OrderDelivery *model.OrderDelivery
	Provider      *model.DeliveryProvider
	Positions     []*model.OrderPosition
	User          *model.User
	Transaction   map[string]any
}

// SendResult reports a dispatch. Delivered means the shipment is considered
// handed over and the order delivery can be marked DELIVERED.
type SendResult struct {
	Delivered bool
	Info      map[string]any
}

// Adapter is a delivery strategy. IsActiveFor, ConfigurationError and
// IsAutoReleaseAllowed are read-only probes; Send dispatches the shipment
// and may fail the surrounding checkout.
type Adapter interface {
	plugins.Adapter

	IsActiveFor(ctx context.Context, deliveryContext *Context) bool
	ConfigurationError(deliveryContext *Context) plugins.ErrorCode
	IsAutoReleaseAllowed(ctx context.Context, deliveryContext *Context) bool

	Send(ctx context.Context, deliveryContext *Context) (*SendResult, error)
}
