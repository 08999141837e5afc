package model

import "time"

type OrderStatus string

const (
	// OrderStatusOpen marks a cart that has not entered checkout yet.
	OrderStatusOpen      OrderStatus = ""
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusFulfilled OrderStatus = "FULFILLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

// IsTerminal reports whether no further transition is processed for s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFulfilled || s == OrderStatusRejected
}

type Address struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	AddressLine string `json:"addressLine,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

type Contact struct {
	EmailAddress string `json:"emailAddress,omitempty"`
	TelNumber    string `json:"telNumber,omitempty"`
}

type Order struct {
	ID                 string           `gorm:"primaryKey;size:64;not null"`
	UserID             string           `gorm:"size:64;index;not null"`
	Status             OrderStatus      `gorm:"size:32;index"`
	OrderNumber        string           `gorm:"size:64;index"`
	Currency           string           `gorm:"size:8;not null"`
	CountryCode        string           `gorm:"size:8;not null"`
	DeliveryID         string           `gorm:"size:64;index"`
	PaymentID          string           `gorm:"size:64;index"`
	OriginEnrollmentID string           `gorm:"size:64"`
	BillingAddress     *Address         `gorm:"serializer:json"`
	Contact            *Contact         `gorm:"serializer:json"`
	Context            map[string]any   `gorm:"serializer:json"`
	Calculation        []CalculationRow `gorm:"serializer:json"`
	Ordered            *time.Time
	Confirmed          *time.Time
	Fulfilled          *time.Time
	Rejected           *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsCart reports whether the order is still an open cart.
func (o *Order) IsCart() bool {
	return o.Status == OrderStatusOpen
}

// Dispatch describes the expected hand-off of one position through a
// warehousing/delivery provider pair.
type Dispatch struct {
	WarehousingProviderID string     `json:"warehousingProviderId"`
	DeliveryProviderID    string     `json:"deliveryProviderId"`
	ShippingEstimate      *time.Time `json:"shippingEstimate,omitempty"`
}

type OrderPosition struct {
	ID            string           `gorm:"primaryKey;size:64;not null"`
	OrderID       string           `gorm:"size:64;index;not null"`
	ProductID     string           `gorm:"size:64;index;not null"`
	Quantity      int              `gorm:"not null"`
	QuotationID   string           `gorm:"size:64;index"`
	Configuration map[string]any   `gorm:"serializer:json"`
	Calculation   []CalculationRow `gorm:"serializer:json"`
	Scheduling    []Dispatch       `gorm:"serializer:json"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderDeliveryStatus string

const (
	OrderDeliveryStatusOpen      OrderDeliveryStatus = "OPEN"
	OrderDeliveryStatusDelivered OrderDeliveryStatus = "DELIVERED"
)

type OrderDelivery struct {
	ID                 string              `gorm:"primaryKey;size:64;not null"`
	OrderID            string              `gorm:"size:64;index;not null"`
	DeliveryProviderID string              `gorm:"size:64;index;not null"`
	Status             OrderDeliveryStatus `gorm:"size:32;index;not null"`
	Context            map[string]any      `gorm:"serializer:json"`
	Calculation        []CalculationRow    `gorm:"serializer:json"`
	Delivered          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type OrderPaymentStatus string

const (
	OrderPaymentStatusOpen     OrderPaymentStatus = "OPEN"
	OrderPaymentStatusPaid     OrderPaymentStatus = "PAID"
	OrderPaymentStatusRefunded OrderPaymentStatus = "REFUNDED"
)

type OrderPayment struct {
	ID                string             `gorm:"primaryKey;size:64;not null"`
	OrderID           string             `gorm:"size:64;index;not null"`
	PaymentProviderID string             `gorm:"size:64;index;not null"`
	Status            OrderPaymentStatus `gorm:"size:32;index;not null"`
	TransactionID     string             `gorm:"size:128"`
	Context           map[string]any     `gorm:"serializer:json"`
	Calculation       []CalculationRow   `gorm:"serializer:json"`
	Paid              *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type DiscountTrigger string

const (
	// DiscountTriggerSystem discounts are recomputed on every calculation pass.
	DiscountTriggerSystem DiscountTrigger = "SYSTEM"
	// DiscountTriggerUser discounts persist until released or found invalid.
	DiscountTriggerUser DiscountTrigger = "USER"
)

type OrderDiscount struct {
	ID          string          `gorm:"primaryKey;size:64;not null"`
	OrderID     string          `gorm:"size:64;index;not null"`
	DiscountKey string          `gorm:"size:128;index;not null"`
	Trigger     DiscountTrigger `gorm:"size:16;not null"`
	Code        string          `gorm:"size:64"`
	CreatedAt   time.Time
}
