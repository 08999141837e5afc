package model

import "time"

type ProductType string

const (
	ProductTypeSimple    ProductType = "SIMPLE"
	ProductTypeTokenized ProductType = "TOKENIZED"
	ProductTypePlan      ProductType = "PLAN"
)

type Product struct {
	ID          string         `gorm:"primaryKey;size:64;not null"` // sku
	Title       string         `gorm:"size:255"`
	Type        ProductType    `gorm:"size:32;index;not null"`
	Price       int64          `gorm:"not null"` // minor currency unit
	Currency    string         `gorm:"size:8;not null"`
	IsTaxable   bool           `gorm:"not null;default:true"`
	IsNetPrice  bool           `gorm:"not null;default:false"`
	PlanConfig  map[string]any `gorm:"serializer:json"`
	TokenConfig map[string]any `gorm:"serializer:json"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type User struct {
	ID        string   `gorm:"primaryKey;size:64;not null"`
	Username  string   `gorm:"size:128;index"`
	Email     string   `gorm:"size:255;index"`
	Tags      []string `gorm:"serializer:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type EnrollmentStatus string

const (
	EnrollmentStatusInitial    EnrollmentStatus = "INITIAL"
	EnrollmentStatusActive     EnrollmentStatus = "ACTIVE"
	EnrollmentStatusTerminated EnrollmentStatus = "TERMINATED"
)

// Enrollment is a recurring relationship generated from a plan-type order
// position at confirmation time.
type Enrollment struct {
	ID            string           `gorm:"primaryKey;size:64;not null"`
	UserID        string           `gorm:"size:64;index;not null"`
	ProductID     string           `gorm:"size:64;index;not null"`
	OrderID       string           `gorm:"size:64;index"`
	Quantity      int              `gorm:"not null"`
	Status        EnrollmentStatus `gorm:"size:32;index;not null"`
	Currency      string           `gorm:"size:8"`
	CountryCode   string           `gorm:"size:8"`
	Configuration map[string]any   `gorm:"serializer:json"`
	ExpiresAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type QuotationStatus string

const (
	QuotationStatusRequested QuotationStatus = "REQUESTED"
	QuotationStatusProposed  QuotationStatus = "PROPOSED"
	QuotationStatusFulfilled QuotationStatus = "FULFILLED"
	QuotationStatusRejected  QuotationStatus = "REJECTED"
)

type Quotation struct {
	ID            string          `gorm:"primaryKey;size:64;not null"`
	UserID        string          `gorm:"size:64;index;not null"`
	ProductID     string          `gorm:"size:64;index;not null"`
	Status        QuotationStatus `gorm:"size:32;index;not null"`
	Price         int64
	Currency      string         `gorm:"size:8"`
	Configuration map[string]any `gorm:"serializer:json"`
	Context       map[string]any `gorm:"serializer:json"`
	Expires       *time.Time
	Fulfilled     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsExpired reports whether the quotation proposal has lapsed at the given
// reference time.
func (q *Quotation) IsExpired(at time.Time) bool {
	return q.Expires != nil && q.Expires.Before(at)
}

// Token is the tracked record of one tokenized unit of a purchased virtual
// good, created by a virtual warehousing adapter at confirmation.
type Token struct {
	ID                    string         `gorm:"primaryKey;size:64;not null"`
	UserID                string         `gorm:"size:64;index;not null"`
	ProductID             string         `gorm:"size:64;index;not null"`
	OrderPositionID       string         `gorm:"size:64;index;not null"`
	WarehousingProviderID string         `gorm:"size:64;index;not null"`
	SerialNumber          int64          `gorm:"uniqueIndex;not null"`
	Signature             string         `gorm:"size:1024"`
	Meta                  map[string]any `gorm:"serializer:json"`
	CreatedAt             time.Time
}
