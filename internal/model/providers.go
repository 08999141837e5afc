package model

import "time"

type PaymentProviderType string

const (
	PaymentProviderTypeCard    PaymentProviderType = "CARD"
	PaymentProviderTypeInvoice PaymentProviderType = "INVOICE"
	PaymentProviderTypeGeneric PaymentProviderType = "GENERIC"
)

type PaymentProvider struct {
	ID            string              `gorm:"primaryKey;size:64;not null"`
	AdapterKey    string              `gorm:"size:128;index;not null"`
	Type          PaymentProviderType `gorm:"size:32;index;not null"`
	Configuration map[string]string   `gorm:"serializer:json"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type DeliveryProviderType string

const (
	DeliveryProviderTypeShipping DeliveryProviderType = "SHIPPING"
	DeliveryProviderTypePickup   DeliveryProviderType = "PICKUP"
)

type DeliveryProvider struct {
	ID            string               `gorm:"primaryKey;size:64;not null"`
	AdapterKey    string               `gorm:"size:128;index;not null"`
	Type          DeliveryProviderType `gorm:"size:32;index;not null"`
	Configuration map[string]string    `gorm:"serializer:json"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type WarehousingProviderType string

const (
	WarehousingProviderTypePhysical WarehousingProviderType = "PHYSICAL"
	WarehousingProviderTypeVirtual  WarehousingProviderType = "VIRTUAL"
)

type WarehousingProvider struct {
	ID            string                  `gorm:"primaryKey;size:64;not null"`
	AdapterKey    string                  `gorm:"size:128;index;not null"`
	Type          WarehousingProviderType `gorm:"size:32;index;not null"`
	Configuration map[string]string       `gorm:"serializer:json"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
