package orders

import (
	"context"
	"errors"
	"log"
	"time"

	"commerce-engine/internal/delivery"
	"commerce-engine/internal/enrollment"
	"commerce-engine/internal/events"
	"commerce-engine/internal/model"
	"commerce-engine/internal/payment"
	"commerce-engine/internal/quotation"
	"commerce-engine/internal/repository"
	"commerce-engine/internal/warehousing"
)

const (
	lockPurposeCheckout = "checkout"
	lockPurposeOverride = "confirm-reject"
)

// CheckoutOrder turns a validated cart into a PENDING order: the payment is
// charged, the status persisted, and the state machine advanced as far as
// the settlement gates allow. Runs under the order-scoped lock.
func (s *serviceImpl) CheckoutOrder(ctx context.Context, orderID string, transaction map[string]any) (*model.Order, error) {
	order, err := s.stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsCart() {
		return nil, ErrWrongStatus
	}
	if err := s.validateCheckout(ctx, order); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, order.ID, lockPurposeCheckout)
	if err != nil {
		return nil, err
	}
	defer release()

	// status may have moved while waiting for the lock
	order, err = s.stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsCart() {
		return nil, ErrWrongStatus
	}

	order, err = s.UpdateCalculation(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	orderPayment, paymentProvider, err := s.paymentState(ctx, order)
	if err != nil {
		return nil, err
	}
	user := s.findUser(ctx, order.UserID)

	result, err := s.directors.Payment.ChargeOrderPayment(ctx, &payment.Context{
		Order:        order,
		OrderPayment: orderPayment,
		Provider:     paymentProvider,
		User:         user,
		Transaction:  transaction,
	})
	if err != nil {
		return nil, err
	}
	if result != nil && result.Settled {
		if _, err := s.stores.Payments.UpdateStatus(ctx, orderPayment.ID, model.OrderPaymentStatusPaid, result.TransactionID); err != nil {
			return nil, err
		}
	}

	order, err = s.stores.Orders.UpdateStatus(ctx, order.ID, model.OrderStatusPending, lockPurposeCheckout)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TopicOrderCheckout, order)

	if !s.autoConfirm {
		return order, nil
	}
	return s.advance(ctx, order, model.OrderStatusOpen)
}

// ConfirmOrder is the explicit operator override: the PENDING order is
// CONFIRMED regardless of the settlement gates.
func (s *serviceImpl) ConfirmOrder(ctx context.Context, orderID string, transaction map[string]any) (*model.Order, error) {
	return s.override(ctx, orderID, model.OrderStatusConfirmed)
}

// RejectOrder terminates a PENDING order. An already-settled payment is
// cancelled best effort.
func (s *serviceImpl) RejectOrder(ctx context.Context, orderID string, transaction map[string]any) (*model.Order, error) {
	return s.override(ctx, orderID, model.OrderStatusRejected)
}

func (s *serviceImpl) override(ctx context.Context, orderID string, target model.OrderStatus) (*model.Order, error) {
	release, err := s.locker.Acquire(ctx, orderID, lockPurposeOverride)
	if err != nil {
		return nil, err
	}
	defer release()

	order, err := s.stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return order, nil
	}
	if order.Status != model.OrderStatusPending {
		return nil, ErrWrongStatus
	}

	if target == model.OrderStatusRejected {
		s.cancelPayment(ctx, order)
		order, err = s.stores.Orders.UpdateStatus(ctx, order.ID, model.OrderStatusRejected, lockPurposeOverride)
		if err != nil {
			return nil, err
		}
		s.publish(ctx, events.TopicOrderRejected, order)
		return order, nil
	}
	return s.advance(ctx, order, target)
}

// advance walks the order forward until findNextStatus reports no further
// transition. An explicit target bypasses the PENDING settlement gates once.
func (s *serviceImpl) advance(ctx context.Context, order *model.Order, explicit model.OrderStatus) (*model.Order, error) {
	for {
		next, err := s.findNextStatus(ctx, order, explicit)
		if err != nil {
			return nil, err
		}
		explicit = model.OrderStatusOpen
		if next == order.Status {
			return order, nil
		}

		switch next {
		case model.OrderStatusConfirmed:
			firstConfirmation := order.Confirmed == nil
			order, err = s.stores.Orders.UpdateStatus(ctx, order.ID, model.OrderStatusConfirmed, "")
			if err != nil {
				return nil, err
			}
			if firstConfirmation {
				if err := s.processConfirmation(ctx, order); err != nil {
					return nil, err
				}
			}
			s.publish(ctx, events.TopicOrderConfirmed, order)

		case model.OrderStatusFulfilled:
			order, err = s.stores.Orders.UpdateStatus(ctx, order.ID, model.OrderStatusFulfilled, "")
			if err != nil {
				return nil, err
			}
			s.publish(ctx, events.TopicOrderFulfilled, order)
			return order, nil

		default:
			return order, nil
		}
	}
}

// findNextStatus decides the next transition from the persisted state.
// PENDING orders confirm once payment is settled (or may settle later) and
// delivery is dispatched (or may auto release); CONFIRMED orders fulfill
// once both actually settled. Terminal states absorb.
func (s *serviceImpl) findNextStatus(ctx context.Context, order *model.Order, explicit model.OrderStatus) (model.OrderStatus, error) {
	if order.Status.IsTerminal() {
		return order.Status, nil
	}

	switch order.Status {
	case model.OrderStatusPending:
		if explicit == model.OrderStatusConfirmed {
			return model.OrderStatusConfirmed, nil
		}
		paymentReady, deliveryReady, err := s.settlementGates(ctx, order)
		if err != nil {
			return order.Status, err
		}
		if paymentReady && deliveryReady {
			return model.OrderStatusConfirmed, nil
		}
		return model.OrderStatusPending, nil

	case model.OrderStatusConfirmed:
		paid, delivered, err := s.settlementState(ctx, order)
		if err != nil {
			return order.Status, err
		}
		if paid && delivered {
			return model.OrderStatusFulfilled, nil
		}
		return model.OrderStatusConfirmed, nil
	}
	return order.Status, nil
}

// settlementGates evaluates the PENDING -> CONFIRMED dual gate: each leg is
// satisfied by actual settlement or by the adapter allowing deferral.
func (s *serviceImpl) settlementGates(ctx context.Context, order *model.Order) (paymentReady, deliveryReady bool, err error) {
	orderPayment, paymentProvider, err := s.paymentState(ctx, order)
	if err != nil {
		return false, false, err
	}
	user := s.findUser(ctx, order.UserID)

	paymentReady = orderPayment.Status == model.OrderPaymentStatusPaid ||
		s.directors.Payment.IsPayLaterAllowed(ctx, &payment.Context{
			Order:        order,
			OrderPayment: orderPayment,
			Provider:     paymentProvider,
			User:         user,
		})

	orderDelivery, deliveryProvider, err := s.deliveryState(ctx, order)
	if err != nil {
		return false, false, err
	}
	deliveryReady = orderDelivery.Status == model.OrderDeliveryStatusDelivered ||
		s.directors.Delivery.IsAutoReleaseAllowed(ctx, &delivery.Context{
			Order:         order,
			OrderDelivery: orderDelivery,
			Provider:      deliveryProvider,
			User:          user,
		})
	return paymentReady, deliveryReady, nil
}

func (s *serviceImpl) settlementState(ctx context.Context, order *model.Order) (paid, delivered bool, err error) {
	orderPayment, _, err := s.paymentState(ctx, order)
	if err != nil {
		return false, false, err
	}
	orderDelivery, _, err := s.deliveryState(ctx, order)
	if err != nil {
		return false, false, err
	}
	return orderPayment.Status == model.OrderPaymentStatusPaid,
		orderDelivery.Status == model.OrderDeliveryStatusDelivered, nil
}

// processConfirmation runs the one-time confirmation side effects: dispatch
// the delivery, tokenize virtual positions, create enrollments and fulfill
// quotations. Any failure propagates and leaves the order CONFIRMED for a
// retried confirmation.
func (s *serviceImpl) processConfirmation(ctx context.Context, order *model.Order) error {
	positions, err := s.stores.Positions.FindByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	user := s.findUser(ctx, order.UserID)

	if err := s.sendDelivery(ctx, order, positions, user); err != nil {
		return err
	}
	if err := s.tokenizePositions(ctx, order, positions, user); err != nil {
		return err
	}
	if err := s.createEnrollments(ctx, order, positions, user); err != nil {
		return err
	}
	return s.fulfillQuotations(ctx, order, positions, user)
}

func (s *serviceImpl) sendDelivery(ctx context.Context, order *model.Order, positions []*model.OrderPosition, user *model.User) error {
	orderDelivery, deliveryProvider, err := s.deliveryState(ctx, order)
	if err != nil {
		return err
	}
	if orderDelivery.Status == model.OrderDeliveryStatusDelivered {
		return nil
	}

	result, err := s.directors.Delivery.SendOrderDelivery(ctx, &delivery.Context{
		Order:         order,
		OrderDelivery: orderDelivery,
		Provider:      deliveryProvider,
		Positions:     positions,
		User:          user,
	})
	if err != nil {
		return err
	}
	if result != nil && result.Delivered {
		if _, err := s.stores.Deliveries.UpdateStatus(ctx, orderDelivery.ID, model.OrderDeliveryStatusDelivered); err != nil {
			return err
		}
	}
	return nil
}

// maxSerialAllocationRetries bounds re-allocation when a concurrent
// checkout claims the same serial numbers first.
const maxSerialAllocationRetries = 3

// tokenizePositions converts tokenized-product positions into signed tokens.
// Every active virtual provider tokenizes each position; providers run
// serially so each one gets its own distinct serial numbers.
func (s *serviceImpl) tokenizePositions(ctx context.Context, order *model.Order, positions []*model.OrderPosition, user *model.User) error {
	providers, err := s.stores.WarehousingProviders.FindByType(ctx, model.WarehousingProviderTypeVirtual)
	if err != nil {
		return err
	}

	for _, position := range positions {
		product, err := s.stores.Products.FindByID(ctx, position.ProductID)
		if err != nil {
			return err
		}
		if product.Type != model.ProductTypeTokenized {
			continue
		}

		for _, provider := range providers {
			existing, err := s.stores.Tokens.FindByPositionAndProvider(ctx, position.ID, provider.ID)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				continue
			}

			warehousingContext := &warehousing.Context{
				Product:       product,
				Position:      position,
				Provider:      provider,
				Order:         order,
				User:          user,
				Quantity:      position.Quantity,
				ReferenceDate: time.Now(),
			}
			if !s.directors.Warehousing.IsActive(ctx, warehousingContext) {
				continue
			}

			if err := s.tokenizeWithProvider(ctx, order, position, product, provider, warehousingContext); err != nil {
				return err
			}
		}
	}
	return nil
}

// tokenizeWithProvider allocates serials, signs and persists the tokens of
// one position for one provider. A serial collision with a concurrent
// checkout re-allocates and signs again.
func (s *serviceImpl) tokenizeWithProvider(ctx context.Context, order *model.Order, position *model.OrderPosition, product *model.Product, provider *model.WarehousingProvider, warehousingContext *warehousing.Context) error {
	for attempt := 0; ; attempt++ {
		serials, err := s.stores.Tokens.NextSerialNumbers(ctx, position.Quantity)
		if err != nil {
			return err
		}
		warehousingContext.SerialNumbers = serials

		descriptors, err := s.directors.Warehousing.TokenizeOrderPosition(ctx, warehousingContext)
		if err != nil {
			return err
		}
		tokens := make([]*model.Token, len(descriptors))
		for i, descriptor := range descriptors {
			tokens[i] = &model.Token{
				UserID:                order.UserID,
				ProductID:             product.ID,
				OrderPositionID:       position.ID,
				WarehousingProviderID: provider.ID,
				SerialNumber:          descriptor.SerialNumber,
				Signature:             descriptor.Signature,
				Meta:                  descriptor.Meta,
			}
		}

		err = s.stores.Tokens.CreateBatch(ctx, tokens)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrSerialNumberTaken) || attempt+1 >= maxSerialAllocationRetries {
			return err
		}
		log.Printf("orders: serials of position %s claimed concurrently, re-allocating", position.ID)
	}
}

func (s *serviceImpl) createEnrollments(ctx context.Context, order *model.Order, positions []*model.OrderPosition, user *model.User) error {
	// orders generated out of an enrollment never spawn a new one
	if order.OriginEnrollmentID != "" {
		return nil
	}
	for _, position := range positions {
		product, err := s.stores.Products.FindByID(ctx, position.ProductID)
		if err != nil {
			return err
		}
		if product.Type != model.ProductTypePlan {
			continue
		}
		created, err := s.directors.Enrollment.CreateFromPosition(ctx, &enrollment.Context{
			Order:    order,
			Position: position,
			Product:  product,
			User:     user,
		})
		if err != nil {
			return err
		}
		if err := s.stores.Enrollments.Create(ctx, created); err != nil {
			return err
		}
	}
	return nil
}

func (s *serviceImpl) fulfillQuotations(ctx context.Context, order *model.Order, positions []*model.OrderPosition, user *model.User) error {
	for _, position := range positions {
		if position.QuotationID == "" {
			continue
		}
		quoted, err := s.stores.Quotations.FindByID(ctx, position.QuotationID)
		if err != nil {
			return err
		}
		if quoted.Status == model.QuotationStatusFulfilled {
			continue
		}
		product, err := s.stores.Products.FindByID(ctx, position.ProductID)
		if err != nil {
			return err
		}

		info, err := s.directors.Quotation.FulfillQuotation(ctx, &quotation.Context{
			Order:     order,
			Position:  position,
			Product:   product,
			Quotation: quoted,
			User:      user,
		})
		if err != nil {
			return err
		}
		if _, err := s.stores.Quotations.UpdateStatus(ctx, quoted.ID, model.QuotationStatusFulfilled, info); err != nil {
			return err
		}
	}
	return nil
}

// validateCheckout raises typed errors for everything a cart must carry
// before checkout. Runs before the order lock is taken.
func (s *serviceImpl) validateCheckout(ctx context.Context, order *model.Order) error {
	count, err := s.stores.Positions.Count(ctx, order.ID)
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrCartEmpty
	}
	if order.Contact == nil || order.Contact.EmailAddress == "" {
		return ErrContactMissing
	}
	if order.BillingAddress == nil {
		return ErrBillingAddressMissing
	}
	if order.DeliveryID == "" {
		return ErrDeliveryProviderMissing
	}
	if order.PaymentID == "" {
		return ErrPaymentProviderMissing
	}

	positions, err := s.stores.Positions.FindByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, position := range positions {
		if position.QuotationID == "" {
			continue
		}
		quoted, err := s.stores.Quotations.FindByID(ctx, position.QuotationID)
		if err != nil {
			return err
		}
		if !s.directors.Quotation.IsValidForCheckout(ctx, quoted, now) {
			return ErrQuotationExpired
		}
	}
	return nil
}

func (s *serviceImpl) paymentState(ctx context.Context, order *model.Order) (*model.OrderPayment, *model.PaymentProvider, error) {
	orderPayment, err := s.stores.Payments.FindByID(ctx, order.PaymentID)
	if err != nil {
		return nil, nil, err
	}
	provider, err := s.stores.PaymentProviders.FindByID(ctx, orderPayment.PaymentProviderID)
	if err != nil {
		return nil, nil, err
	}
	return orderPayment, provider, nil
}

func (s *serviceImpl) deliveryState(ctx context.Context, order *model.Order) (*model.OrderDelivery, *model.DeliveryProvider, error) {
	orderDelivery, err := s.stores.Deliveries.FindByID(ctx, order.DeliveryID)
	if err != nil {
		return nil, nil, err
	}
	provider, err := s.stores.DeliveryProviders.FindByID(ctx, orderDelivery.DeliveryProviderID)
	if err != nil {
		return nil, nil, err
	}
	return orderDelivery, provider, nil
}

// cancelPayment refunds or voids a settled payment on rejection. Best
// effort: gateway failures do not block the terminal transition.
func (s *serviceImpl) cancelPayment(ctx context.Context, order *model.Order) {
	orderPayment, provider, err := s.paymentState(ctx, order)
	if err != nil {
		log.Printf("orders: loading payment of %s for cancellation failed: %v", order.ID, err)
		return
	}
	if orderPayment.Status != model.OrderPaymentStatusPaid {
		return
	}
	if err := s.directors.Payment.CancelOrderPayment(ctx, &payment.Context{
		Order:        order,
		OrderPayment: orderPayment,
		Provider:     provider,
		User:         s.findUser(ctx, order.UserID),
	}); err != nil {
		log.Printf("orders: cancelling payment of %s failed: %v", order.ID, err)
		return
	}
	if _, err := s.stores.Payments.UpdateStatus(ctx, orderPayment.ID, model.OrderPaymentStatusRefunded, ""); err != nil {
		log.Printf("orders: marking payment of %s refunded failed: %v", order.ID, err)
	}
}

func (s *serviceImpl) publish(ctx context.Context, topic string, order *model.Order) {
	if err := s.events.Publish(ctx, topic, map[string]any{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"userId":      order.UserID,
		"status":      order.Status,
	}); err != nil {
		log.Printf("orders: publishing %s for %s failed: %v", topic, order.ID, err)
	}
}
