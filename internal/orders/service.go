package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"commerce-engine/internal/delivery"
	"commerce-engine/internal/discount"
	"commerce-engine/internal/enrollment"
	"commerce-engine/internal/events"
	"commerce-engine/internal/lock"
	"commerce-engine/internal/model"
	"commerce-engine/internal/payment"
	"commerce-engine/internal/pricing"
	"commerce-engine/internal/plugins"
	"commerce-engine/internal/quotation"
	"commerce-engine/internal/repository"
	"commerce-engine/internal/warehousing"
)

// Checkout validation failures. All are raised before the order lock is
// taken.
var (
	ErrWrongStatus             = errors.New("order is not in a status allowing this transition")
	ErrCartEmpty               = errors.New("cart has no positions")
	ErrContactMissing          = errors.New("order has no contact information")
	ErrBillingAddressMissing   = errors.New("order has no billing address")
	ErrDeliveryProviderMissing = errors.New("order has no delivery provider selected")
	ErrPaymentProviderMissing  = errors.New("order has no payment provider selected")
	ErrQuotationExpired        = errors.New("a quoted position's quotation is no longer valid")
	ErrInvalidDiscountCode     = errors.New("no discount accepts this code")
)

// Stores groups the persistence dependencies of the order services.
type Stores struct {
	Orders               repository.OrderRepository
	Positions            repository.OrderPositionRepository
	Deliveries           repository.OrderDeliveryRepository
	Payments             repository.OrderPaymentRepository
	Discounts            repository.OrderDiscountRepository
	Products             repository.ProductRepository
	Users                repository.UserRepository
	PaymentProviders     repository.PaymentProviderRepository
	DeliveryProviders    repository.DeliveryProviderRepository
	WarehousingProviders repository.WarehousingProviderRepository
	Enrollments          repository.EnrollmentRepository
	Quotations           repository.QuotationRepository
	Tokens               repository.TokenRepository
}

// Directors groups the domain directors the order services drive.
type Directors struct {
	Payment     *payment.Director
	Delivery    *delivery.Director
	Warehousing *warehousing.Director
	Enrollment  *enrollment.Director
	Quotation   *quotation.Director
	Discount    *discount.Director
}

// NewDirectors builds all domain directors against one registry.
func NewDirectors(registry *plugins.Registry) Directors {
	return Directors{
		Payment:     payment.NewDirector(registry),
		Delivery:    delivery.NewDirector(registry),
		Warehousing: warehousing.NewDirector(registry),
		Enrollment:  enrollment.NewDirector(registry),
		Quotation:   quotation.NewDirector(registry),
		Discount:    discount.NewDirector(registry),
	}
}

// Pricers groups the four pricing chains.
type Pricers struct {
	Product  *pricing.Director[pricing.ProductContext]
	Delivery *pricing.Director[pricing.DeliveryContext]
	Payment  *pricing.Director[pricing.PaymentContext]
	Order    *pricing.Director[pricing.OrderContext]
}

func NewPricers(registry *plugins.Registry) Pricers {
	return Pricers{
		Product:  pricing.NewDirector[pricing.ProductContext](registry, plugins.TypeProductPricing),
		Delivery: pricing.NewDirector[pricing.DeliveryContext](registry, plugins.TypeDeliveryPricing),
		Payment:  pricing.NewDirector[pricing.PaymentContext](registry, plugins.TypePaymentPricing),
		Order:    pricing.NewDirector[pricing.OrderContext](registry, plugins.TypeOrderPricing),
	}
}

type Service interface {
	FindOrder(ctx context.Context, orderID string) (*model.Order, error)
	CreateCart(ctx context.Context, userID, currency, countryCode string) (*model.Order, error)
	AddCartPosition(ctx context.Context, orderID, productID string, quantity int, quotationID string, configuration map[string]any) (*model.OrderPosition, error)
	SetDeliveryProvider(ctx context.Context, orderID, providerID string) (*model.Order, error)
	SetPaymentProvider(ctx context.Context, orderID, providerID string) (*model.Order, error)
	AddDiscountCode(ctx context.Context, orderID, code string) (*model.OrderDiscount, error)

	UpdateCalculation(ctx context.Context, orderID string) (*model.Order, error)
	CheckoutOrder(ctx context.Context, orderID string, transaction map[string]any) (*model.Order, error)
	ConfirmOrder(ctx context.Context, orderID string, transaction map[string]any) (*model.Order, error)
	RejectOrder(ctx context.Context, orderID string, transaction map[string]any) (*model.Order, error)
}

type serviceImpl struct {
	stores      Stores
	directors   Directors
	pricers     Pricers
	locker      lock.Locker
	events      events.Publisher
	autoConfirm bool
}

func NewService(stores Stores, directors Directors, pricers Pricers, locker lock.Locker, publisher events.Publisher, autoConfirm bool) Service {
	return &serviceImpl{
		stores:      stores,
		directors:   directors,
		pricers:     pricers,
		locker:      locker,
		events:      publisher,
		autoConfirm: autoConfirm,
	}
}

func (s *serviceImpl) FindOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return s.stores.Orders.FindByID(ctx, orderID)
}

func (s *serviceImpl) CreateCart(ctx context.Context, userID, currency, countryCode string) (*model.Order, error) {
	order := &model.Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		Status:      model.OrderStatusOpen,
		Currency:    currency,
		CountryCode: countryCode,
	}
	if err := s.stores.Orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *serviceImpl) AddCartPosition(ctx context.Context, orderID, productID string, quantity int, quotationID string, configuration map[string]any) (*model.OrderPosition, error) {
	order, err := s.stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsCart() {
		return nil, ErrWrongStatus
	}
	if _, err := s.stores.Products.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	position := &model.OrderPosition{
		OrderID:       order.ID,
		ProductID:     productID,
		Quantity:      quantity,
		QuotationID:   quotationID,
		Configuration: configuration,
	}
	if err := s.stores.Positions.Create(ctx, position); err != nil {
		return nil, err
	}
	if _, err := s.UpdateCalculation(ctx, order.ID); err != nil {
		return nil, err
	}
	return position, nil
}

func (s *serviceImpl) SetDeliveryProvider(ctx context.Context, orderID, providerID string) (*model.Order, error) {
	order, err := s.stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsCart() {
		return nil, ErrWrongStatus
	}
	provider, err := s.stores.DeliveryProviders.FindByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	if order.DeliveryID == "" {
		orderDelivery := &model.OrderDelivery{OrderID: order.ID, DeliveryProviderID: provider.ID}
		if err := s.stores.Deliveries.Create(ctx, orderDelivery); err != nil {
			return nil, err
		}
		if err := s.stores.Orders.SetDeliveryAndPayment(ctx, order.ID, orderDelivery.ID, order.PaymentID); err != nil {
			return nil, err
		}
	} else if err := s.stores.Deliveries.SetProvider(ctx, order.DeliveryID, provider.ID); err != nil {
		return nil, err
	}
	return s.UpdateCalculation(ctx, order.ID)
}

func (s *serviceImpl) SetPaymentProvider(ctx context.Context, orderID, providerID string) (*model.Order, error) {
	order, err := s.stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsCart() {
		return nil, ErrWrongStatus
	}
	provider, err := s.stores.PaymentProviders.FindByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	if order.PaymentID == "" {
		orderPayment := &model.OrderPayment{OrderID: order.ID, PaymentProviderID: provider.ID}
		if err := s.stores.Payments.Create(ctx, orderPayment); err != nil {
			return nil, err
		}
		if err := s.stores.Orders.SetDeliveryAndPayment(ctx, order.ID, order.DeliveryID, orderPayment.ID); err != nil {
			return nil, err
		}
	} else if err := s.stores.Payments.SetProvider(ctx, order.PaymentID, provider.ID); err != nil {
		return nil, err
	}
	return s.UpdateCalculation(ctx, order.ID)
}

// AddDiscountCode attaches a user-triggered discount to the cart. The first
// adapter accepting the code wins.
func (s *serviceImpl) AddDiscountCode(ctx context.Context, orderID, code string) (*model.OrderDiscount, error) {
	order, err := s.stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsCart() {
		return nil, ErrWrongStatus
	}

	adapter, err := s.directors.Discount.FindAdapterForCode(ctx, &discount.Context{
		Order: order,
		Code:  code,
		User:  s.findUser(ctx, order.UserID),
	})
	if err != nil {
		return nil, ErrInvalidDiscountCode
	}

	exists, err := s.stores.Discounts.ExistsByKey(ctx, order.ID, adapter.Key())
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrInvalidDiscountCode
	}

	orderDiscount := &model.OrderDiscount{
		OrderID:     order.ID,
		DiscountKey: adapter.Key(),
		Trigger:     model.DiscountTriggerUser,
		Code:        code,
	}
	if err := s.stores.Discounts.Create(ctx, orderDiscount); err != nil {
		return nil, err
	}
	if _, err := s.UpdateCalculation(ctx, order.ID); err != nil {
		return nil, err
	}
	return orderDiscount, nil
}

// findUser resolves the order's user, tolerating guest orders without a
// persisted user record.
func (s *serviceImpl) findUser(ctx context.Context, userID string) *model.User {
	if userID == "" {
		return nil
	}
	user, err := s.stores.Users.FindByID(ctx, userID)
	if err != nil {
		return nil
	}
	return user
}
