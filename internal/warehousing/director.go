package warehousing

import (
	"context"
	"fmt"
	"log"
	"time"

	"commerce-engine/internal/model"
	"commerce-engine/internal/plugins"
)

// Director dispatches warehousing operations across the registered adapters
// of the configured providers.
type Director struct {
	registry *plugins.Registry
}

func NewDirector(registry *plugins.Registry) *Director {
	return &Director{registry: registry}
}

func (d *Director) adapter(provider *model.WarehousingProvider) (Adapter, error) {
	if provider == nil {
		return nil, plugins.ErrAdapterNotFound
	}
	registered, err := d.registry.AdapterByKey(plugins.TypeWarehousing, provider.AdapterKey)
	if err != nil {
		return nil, err
	}
	adapter, ok := registered.(Adapter)
	if !ok {
		return nil, fmt.Errorf("adapter %s is not a warehousing adapter", provider.AdapterKey)
	}
	return adapter, nil
}

func (d *Director) IsActive(ctx context.Context, warehousingContext *Context) (active bool) {
	adapter, err := d.adapter(warehousingContext.Provider)
	if err != nil {
		log.Printf("warehousing: adapter lookup failed: %v", err)
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("warehousing: IsActive probe of %s panicked: %v", adapter.Key(), r)
			active = false
		}
	}()
	return adapter.IsActiveFor(ctx, warehousingContext)
}

// EstimatedDispatch probes the shipping estimate for a position through one
// provider. Failures fall back to a zero estimate.
func (d *Director) EstimatedDispatch(ctx context.Context, warehousingContext *Context) (estimate time.Duration) {
	adapter, err := d.adapter(warehousingContext.Provider)
	if err != nil {
		log.Printf("warehousing: adapter lookup failed: %v", err)
		return 0
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("warehousing: EstimatedDispatch probe of %s panicked: %v", adapter.Key(), r)
			estimate = 0
		}
	}()
	duration, err := adapter.EstimatedDispatch(ctx, warehousingContext)
	if err != nil {
		log.Printf("warehousing: EstimatedDispatch probe of %s failed: %v", adapter.Key(), err)
		return 0
	}
	return duration
}

// TokenizeOrderPosition converts one position into token descriptors through
// a single provider. Errors propagate and abort the surrounding checkout;
// callers iterate providers serially so serial numbers never collide.
func (d *Director) TokenizeOrderPosition(ctx context.Context, warehousingContext *Context) ([]*TokenDescriptor, error) {
	adapter, err := d.adapter(warehousingContext.Provider)
	if err != nil {
		return nil, err
	}
	return adapter.Tokenize(ctx, warehousingContext)
}
