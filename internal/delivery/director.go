package delivery

import (
	"context"
	"fmt"
	"log"

	"commerce-engine/internal/plugins"
)

// Director dispatches delivery operations to the adapter referenced by the
// order's delivery provider.
type Director struct {
	registry *plugins.Registry
}

func NewDirector(registry *plugins.Registry) *Director {
	return &Director{registry: registry}
}

func (d *Director) adapter(deliveryContext *Context) (Adapter, error) {
	if deliveryContext.Provider == nil {
		return nil, plugins.ErrAdapterNotFound
	}
	registered, err := d.registry.AdapterByKey(plugins.TypeDelivery, deliveryContext.Provider.AdapterKey)
	if err != nil {
		return nil, err
	}
	adapter, ok := registered.(Adapter)
	if !ok {
		return nil, fmt.Errorf("adapter %s is not a delivery adapter", deliveryContext.Provider.AdapterKey)
	}
	return adapter, nil
}

func (d *Director) IsActive(ctx context.Context, deliveryContext *Context) (active bool) {
	adapter, err := d.adapter(deliveryContext)
	if err != nil {
		log.Printf("delivery: adapter lookup failed: %v", err)
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("delivery: IsActive probe of %s panicked: %v", adapter.Key(), r)
			active = false
		}
	}()
	return adapter.IsActiveFor(ctx, deliveryContext)
}

func (d *Director) ConfigurationError(deliveryContext *Context) (code plugins.ErrorCode) {
	adapter, err := d.adapter(deliveryContext)
	if err != nil {
		return plugins.ErrCodeAdapterNotFound
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("delivery: ConfigurationError probe of %s panicked: %v", adapter.Key(), r)
			code = plugins.ErrCodeNotImplemented
		}
	}()
	return adapter.ConfigurationError(deliveryContext)
}

func (d *Director) IsAutoReleaseAllowed(ctx context.Context, deliveryContext *Context) (allowed bool) {
	adapter, err := d.adapter(deliveryContext)
	if err != nil {
		log.Printf("delivery: adapter lookup failed: %v", err)
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("delivery: IsAutoReleaseAllowed probe of %s panicked: %v", adapter.Key(), r)
			allowed = false
		}
	}()
	return adapter.IsAutoReleaseAllowed(ctx, deliveryContext)
}

// SendOrderDelivery dispatches the shipment. Errors propagate and abort the
// surrounding checkout.
func (d *Director) SendOrderDelivery(ctx context.Context, deliveryContext *Context) (*SendResult, error) {
	adapter, err := d.adapter(deliveryContext)
	if err != nil {
		return nil, err
	}
	return adapter.Send(ctx, deliveryContext)
}
