package warehousing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"commerce-engine/internal/model"
	"commerce-engine/internal/plugins"
)

const (
	StoreAdapterKey   = "shop.warehousing.store"
	VirtualAdapterKey = "shop.warehousing.virtual"
)

type storeAdapter struct {
	plugins.Meta
}

// NewStoreAdapter models a physical warehouse; the dispatch estimate comes
// from the provider's "throughputHours" configuration.
func NewStoreAdapter() Adapter {
	return storeAdapter{Meta: plugins.Meta{
		AdapterKey:     StoreAdapterKey,
		AdapterLabel:   "Physical Store",
		AdapterVersion: "1.0.0",
		AdapterType:    plugins.TypeWarehousing,
		SortIndex:      0,
	}}
}

func (a storeAdapter) IsActiveFor(ctx context.Context, warehousingContext *Context) bool {
	return warehousingContext.Product != nil && warehousingContext.Product.Type != model.ProductTypePlan
}

func (a storeAdapter) ConfigurationError(warehousingContext *Context) plugins.ErrorCode {
	return plugins.ErrCodeNone
}

func (a storeAdapter) EstimatedDispatch(ctx context.Context, warehousingContext *Context) (time.Duration, error) {
	hours, err := strconv.Atoi(warehousingContext.Provider.Configuration["throughputHours"])
	if err != nil {
		return 24 * time.Hour, nil
	}
	return time.Duration(hours) * time.Hour, nil
}

func (a storeAdapter) Tokenize(ctx context.Context, warehousingContext *Context) ([]*TokenDescriptor, error) {
	return nil, fmt.Errorf("%s does not tokenize", a.Key())
}

type virtualAdapter struct {
	plugins.Meta
	secret []byte
}

// NewVirtualAdapter tokenizes virtual goods: one token per unit, each with a
// pre-allocated serial number and an HS256-signed voucher claim set.
func NewVirtualAdapter(secret string) Adapter {
	return virtualAdapter{
		Meta: plugins.Meta{
			AdapterKey:     VirtualAdapterKey,
			AdapterLabel:   "Virtual Warehouse",
			AdapterVersion: "1.0.0",
			AdapterType:    plugins.TypeWarehousing,
			SortIndex:      10,
		},
		secret: []byte(secret),
	}
}

func (a virtualAdapter) IsActiveFor(ctx context.Context, warehousingContext *Context) bool {
	return warehousingContext.Product != nil && warehousingContext.Product.Type == model.ProductTypeTokenized
}

func (a virtualAdapter) ConfigurationError(warehousingContext *Context) plugins.ErrorCode {
	if len(a.secret) == 0 {
		return plugins.ErrCodeIncompleteConfiguration
	}
	return plugins.ErrCodeNone
}

func (a virtualAdapter) EstimatedDispatch(ctx context.Context, warehousingContext *Context) (time.Duration, error) {
	// virtual goods dispatch instantly
	return 0, nil
}

func (a virtualAdapter) Tokenize(ctx context.Context, warehousingContext *Context) ([]*TokenDescriptor, error) {
	if code := a.ConfigurationError(warehousingContext); code != plugins.ErrCodeNone {
		return nil, fmt.Errorf("virtual warehousing misconfigured: %s", code)
	}
	if len(warehousingContext.SerialNumbers) < warehousingContext.Quantity {
		return nil, fmt.Errorf("virtual warehousing: %d serial numbers allocated for quantity %d",
			len(warehousingContext.SerialNumbers), warehousingContext.Quantity)
	}

	descriptors := make([]*TokenDescriptor, 0, warehousingContext.Quantity)
	for i := 0; i < warehousingContext.Quantity; i++ {
		serial := warehousingContext.SerialNumbers[i]
		signature, err := a.sign(warehousingContext, serial)
		if err != nil {
			return nil, fmt.Errorf("sign voucher for serial %d: %w", serial, err)
		}
		descriptors = append(descriptors, &TokenDescriptor{
			SerialNumber: serial,
			Signature:    signature,
			Meta: map[string]any{
				"productId": warehousingContext.Product.ID,
			},
		})
	}
	return descriptors, nil
}

func (a virtualAdapter) sign(warehousingContext *Context, serial int64) (string, error) {
	claims := jwt.MapClaims{
		"sub": warehousingContext.Order.UserID,
		"iat": warehousingContext.ReferenceDate.Unix(),
		"tokenSerialNumber": serial,
		"productId":         warehousingContext.Product.ID,
		"orderPositionId":   warehousingContext.Position.ID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
