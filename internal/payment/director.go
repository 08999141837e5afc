package payment

import (
	"context"
	"fmt"
	"log"

	"commerce-engine/internal/plugins"
)

// Director dispatches payment operations to the adapter referenced by the
// order's payment provider. Probes never propagate adapter failures; charge
// and cancel do.
type Director struct {
	registry *plugins.Registry
}

func NewDirector(registry *plugins.Registry) *Director {
	return &Director{registry: registry}
}

func (d *Director) adapter(paymentContext *Context) (Adapter, error) {
	if paymentContext.Provider == nil {
		return nil, plugins.ErrAdapterNotFound
	}
	registered, err := d.registry.AdapterByKey(plugins.TypePayment, paymentContext.Provider.AdapterKey)
	if err != nil {
		return nil, err
	}
	adapter, ok := registered.(Adapter)
	if !ok {
		return nil, fmt.Errorf("adapter %s is not a payment adapter", paymentContext.Provider.AdapterKey)
	}
	return adapter, nil
}

func (d *Director) IsActive(ctx context.Context, paymentContext *Context) (active bool) {
	adapter, err := d.adapter(paymentContext)
	if err != nil {
		log.Printf("payment: adapter lookup failed: %v", err)
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("payment: IsActive probe of %s panicked: %v", adapter.Key(), r)
			active = false
		}
	}()
	return adapter.IsActiveFor(ctx, paymentContext)
}

func (d *Director) ConfigurationError(paymentContext *Context) (code plugins.ErrorCode) {
	adapter, err := d.adapter(paymentContext)
	if err != nil {
		return plugins.ErrCodeAdapterNotFound
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("payment: ConfigurationError probe of %s panicked: %v", adapter.Key(), r)
			code = plugins.ErrCodeNotImplemented
		}
	}()
	return adapter.ConfigurationError(paymentContext)
}

func (d *Director) IsPayLaterAllowed(ctx context.Context, paymentContext *Context) (allowed bool) {
	adapter, err := d.adapter(paymentContext)
	if err != nil {
		log.Printf("payment: adapter lookup failed: %v", err)
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("payment: IsPayLaterAllowed probe of %s panicked: %v", adapter.Key(), r)
			allowed = false
		}
	}()
	return adapter.IsPayLaterAllowed(ctx, paymentContext)
}

// ChargeOrderPayment charges the order payment through its provider adapter.
// Errors propagate and abort the surrounding checkout transaction.
func (d *Director) ChargeOrderPayment(ctx context.Context, paymentContext *Context) (*ChargeResult, error) {
	adapter, err := d.adapter(paymentContext)
	if err != nil {
		return nil, err
	}
	return adapter.Charge(ctx, paymentContext)
}

// CancelOrderPayment voids or refunds the order payment. Callers treat
// failures as best-effort cleanup.
func (d *Director) CancelOrderPayment(ctx context.Context, paymentContext *Context) error {
	adapter, err := d.adapter(paymentContext)
	if err != nil {
		return err
	}
	return adapter.Cancel(ctx, paymentContext)
}
