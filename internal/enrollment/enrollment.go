package enrollment

import (
	"context"
	"fmt"
	"log"
	"time"

	"commerce-engine/internal/model"
	"commerce-engine/internal/plugins"
)

// Context describes the plan-type position an enrollment is generated from.
type Context struct {
	Order    *model.Order
	Position *model.OrderPosition
	Product  *model.Product
	User     *model.User
}

// Adapter is an enrollment strategy. The first adapter (by order index)
// whose activation predicate matches the product handles the position.
type Adapter interface {
	plugins.Adapter

	IsActivatedFor(ctx context.Context, product *model.Product) bool
	ConfigurationError(enrollmentContext *Context) plugins.ErrorCode

	// Transform builds the enrollment document created at order
	// confirmation. Errors propagate and abort the checkout.
	Transform(ctx context.Context, enrollmentContext *Context) (*model.Enrollment, error)
}

// Director selects the enrollment adapter for a product and produces the
// enrollment to persist.
type Director struct {
	registry *plugins.Registry
}

func NewDirector(registry *plugins.Registry) *Director {
	return &Director{registry: registry}
}

// AdapterForProduct returns the first activated adapter, in ascending order
// index. Activation probes are error isolated.
func (d *Director) AdapterForProduct(ctx context.Context, product *model.Product) (Adapter, error) {
	for _, registered := range d.registry.AdaptersOf(plugins.TypeEnrollment) {
		adapter, ok := registered.(Adapter)
		if !ok {
			continue
		}
		if isActivated(ctx, adapter, product) {
			return adapter, nil
		}
	}
	return nil, plugins.ErrAdapterNotFound
}

func isActivated(ctx context.Context, adapter Adapter, product *model.Product) (active bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("enrollment: activation probe of %s panicked: %v", adapter.Key(), r)
			active = false
		}
	}()
	return adapter.IsActivatedFor(ctx, product)
}

// CreateFromPosition turns a checked-out plan position into an enrollment
// document. Errors propagate.
func (d *Director) CreateFromPosition(ctx context.Context, enrollmentContext *Context) (*model.Enrollment, error) {
	adapter, err := d.AdapterForProduct(ctx, enrollmentContext.Product)
	if err != nil {
		return nil, fmt.Errorf("no enrollment adapter for product %s: %w", enrollmentContext.Product.ID, err)
	}
	return adapter.Transform(ctx, enrollmentContext)
}

const LicensedAdapterKey = "shop.enrollment.licensed"

type licensedAdapter struct {
	plugins.Meta
}

// NewLicensedAdapter enrolls plan products with a duration taken from the
// product's plan configuration ("durationDays", default 30).
func NewLicensedAdapter() Adapter {
	return licensedAdapter{Meta: plugins.Meta{
		AdapterKey:     LicensedAdapterKey,
		AdapterLabel:   "Licensed Enrollments",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeEnrollment,
		SortIndex:      0,
	}}
}

func (a licensedAdapter) IsActivatedFor(ctx context.Context, product *model.Product) bool {
	return product != nil && product.Type == model.ProductTypePlan
}

func (a licensedAdapter) ConfigurationError(enrollmentContext *Context) plugins.ErrorCode {
	return plugins.ErrCodeNone
}

func (a licensedAdapter) Transform(ctx context.Context, enrollmentContext *Context) (*model.Enrollment, error) {
	days := 30.0
	if configured, ok := enrollmentContext.Product.PlanConfig["durationDays"].(float64); ok && configured > 0 {
		days = configured
	}
	expires := time.Now().Add(time.Duration(days) * 24 * time.Hour)

	return &model.Enrollment{
		UserID:        enrollmentContext.Order.UserID,
		ProductID:     enrollmentContext.Product.ID,
		OrderID:       enrollmentContext.Order.ID,
		Quantity:      enrollmentContext.Position.Quantity,
		Status:        model.EnrollmentStatusInitial,
		Currency:      enrollmentContext.Order.Currency,
		CountryCode:   enrollmentContext.Order.CountryCode,
		Configuration: enrollmentContext.Position.Configuration,
		ExpiresAt:     &expires,
	}, nil
}
