package warehousing

import (
	"context"
	"time"

	"commerce-engine/internal/model"
	"commerce-engine/internal/plugins"
)

// Context binds a warehousing adapter to one order position. SerialNumbers
// are pre-allocated by the caller before Tokenize runs.
type Context struct {
	Product       *model.Product
	Position      *model.OrderPosition
	Provider      *model.WarehousingProvider
	Order         *model.Order
	User          *model.User
	Quantity      int
	SerialNumbers []int64
	ReferenceDate time.Time
}

// TokenDescriptor describes one token to persist after tokenization.
type TokenDescriptor struct {
	SerialNumber int64
	Signature    string
	Meta         map[string]any
}

// Adapter is a warehousing strategy. EstimatedDispatch is a read-only probe
// feeding position scheduling; Tokenize mutates provider state and must run
// serially across providers to keep serial numbers distinct.
type Adapter interface {
	plugins.Adapter

	IsActiveFor(ctx context.Context, warehousingContext *Context) bool
	ConfigurationError(warehousingContext *Context) plugins.ErrorCode
	EstimatedDispatch(ctx context.Context, warehousingContext *Context) (time.Duration, error)

	Tokenize(ctx context.Context, warehousingContext *Context) ([]*TokenDescriptor, error)
}
