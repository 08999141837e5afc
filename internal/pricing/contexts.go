package pricing

import "commerce-engine/internal/model"

// The calculation contexts below are pure data assemblies handed to pricing
// adapters; building them has no side effects.

type ProductContext struct {
	Product     *model.Product
	Position    *model.OrderPosition
	Order       *model.Order
	User        *model.User
	Quantity    int
	Currency    string
	CountryCode string
}

type DeliveryContext struct {
	Order         *model.Order
	OrderDelivery *model.OrderDelivery
	Provider      *model.DeliveryProvider
	Positions     []*model.OrderPosition
	User          *model.User
	Currency      string
	CountryCode   string
}

type PaymentContext struct {
	Order        *model.Order
	OrderPayment *model.OrderPayment
	Provider     *model.PaymentProvider
	User         *model.User
	Currency     string
	CountryCode  string
}

type OrderContext struct {
	Order       *model.Order
	Positions   []*model.OrderPosition
	Delivery    *model.OrderDelivery
	Payment     *model.OrderPayment
	Discounts   []*model.OrderDiscount
	User        *model.User
	Currency    string
	CountryCode string
}
