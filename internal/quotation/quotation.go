package quotation

import (
	"context"
	"fmt"
	"log"
	"time"

	"commerce-engine/internal/model"
	"commerce-engine/internal/plugins"
)

// Context carries the quotation a position was negotiated through.
type Context struct {
	Order     *model.Order
	Position  *model.OrderPosition
	Product   *model.Product
	Quotation *model.Quotation
	User      *model.User
}

// Adapter is a quotation workflow strategy. Fulfillment is a mutating call
// and propagates errors; validity probes are error isolated.
type Adapter interface {
	plugins.Adapter

	IsActivatedFor(ctx context.Context, quotation *model.Quotation) bool
	ConfigurationError(quotationContext *Context) plugins.ErrorCode

	// IsStillValid reports whether a proposed quotation may still be
	// checked out at the reference time.
	IsStillValid(ctx context.Context, quotation *model.Quotation, at time.Time) bool

	// Fulfill marks the quotation consumed by a confirmed order and returns
	// workflow metadata recorded on the quotation.
	Fulfill(ctx context.Context, quotationContext *Context) (map[string]any, error)
}

type Director struct {
	registry *plugins.Registry
}

func NewDirector(registry *plugins.Registry) *Director {
	return &Director{registry: registry}
}

func (d *Director) adapter(ctx context.Context, quotation *model.Quotation) (Adapter, error) {
	for _, registered := range d.registry.AdaptersOf(plugins.TypeQuotation) {
		adapter, ok := registered.(Adapter)
		if !ok {
			continue
		}
		if isActivated(ctx, adapter, quotation) {
			return adapter, nil
		}
	}
	return nil, plugins.ErrAdapterNotFound
}

func isActivated(ctx context.Context, adapter Adapter, quotation *model.Quotation) (active bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("quotation: activation probe of %s panicked: %v", adapter.Key(), r)
			active = false
		}
	}()
	return adapter.IsActivatedFor(ctx, quotation)
}

// IsValidForCheckout is the pre-checkout gate for quoted positions. Missing
// adapters and panics count as invalid.
func (d *Director) IsValidForCheckout(ctx context.Context, quotation *model.Quotation, at time.Time) (valid bool) {
	adapter, err := d.adapter(ctx, quotation)
	if err != nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("quotation: validity probe of %s panicked: %v", adapter.Key(), r)
			valid = false
		}
	}()
	return adapter.IsStillValid(ctx, quotation, at)
}

// FulfillQuotation transitions the quoted position's quotation after the
// order is confirmed. Errors propagate.
func (d *Director) FulfillQuotation(ctx context.Context, quotationContext *Context) (map[string]any, error) {
	adapter, err := d.adapter(ctx, quotationContext.Quotation)
	if err != nil {
		return nil, fmt.Errorf("no quotation adapter for %s: %w", quotationContext.Quotation.ID, err)
	}
	return adapter.Fulfill(ctx, quotationContext)
}

const ManualAdapterKey = "shop.quotation.manual"

type manualAdapter struct {
	plugins.Meta
}

// NewManualAdapter handles every quotation: proposals are authored by staff
// and honored as long as they have not expired.
func NewManualAdapter() Adapter {
	return manualAdapter{Meta: plugins.Meta{
		AdapterKey:     ManualAdapterKey,
		AdapterLabel:   "Manual Quotations",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeQuotation,
		SortIndex:      0,
	}}
}

func (a manualAdapter) IsActivatedFor(ctx context.Context, quotation *model.Quotation) bool {
	return quotation != nil
}

func (a manualAdapter) ConfigurationError(quotationContext *Context) plugins.ErrorCode {
	return plugins.ErrCodeNone
}

func (a manualAdapter) IsStillValid(ctx context.Context, quotation *model.Quotation, at time.Time) bool {
	return quotation.Status == model.QuotationStatusProposed && !quotation.IsExpired(at)
}

func (a manualAdapter) Fulfill(ctx context.Context, quotationContext *Context) (map[string]any, error) {
	if quotationContext.Quotation.Status != model.QuotationStatusProposed {
		return nil, fmt.Errorf("quotation %s is %s, expected %s",
			quotationContext.Quotation.ID, quotationContext.Quotation.Status, model.QuotationStatusProposed)
	}
	return map[string]any{
		"orderId":         quotationContext.Order.ID,
		"orderPositionId": quotationContext.Position.ID,
	}, nil
}
