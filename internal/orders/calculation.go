package orders

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"commerce-engine/internal/delivery"
	"commerce-engine/internal/discount"
	"commerce-engine/internal/model"
	"commerce-engine/internal/payment"
	"commerce-engine/internal/pricing"
	"commerce-engine/internal/warehousing"
)

// maxRevalidations bounds the recalculation loop: each pass may change the
// attached discount set or the provider selection (a discount crossing its
// own threshold, a provider deactivating under the new totals), which
// changes the totals the next pass is judged on.
const maxRevalidations = 5

// UpdateCalculation rebuilds all pricing sheets of a cart. Orders past
// checkout keep their frozen calculation and are returned unchanged.
func (s *serviceImpl) UpdateCalculation(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.stores.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsCart() {
		return order, nil
	}

	for attempt := 0; attempt < maxRevalidations; attempt++ {
		if err := s.calculateSheets(ctx, order); err != nil {
			return nil, err
		}
		discountsChanged, err := s.reconcileDiscounts(ctx, order)
		if err != nil {
			return nil, err
		}
		providersChanged, err := s.revalidateProviders(ctx, order)
		if err != nil {
			return nil, err
		}
		if !discountsChanged && !providersChanged {
			break
		}
	}
	return order, nil
}

// revalidateProviders probes the assigned delivery and payment providers
// against the freshly calculated totals. A provider that deactivated is
// replaced by the first active one; the switch triggers another pass.
func (s *serviceImpl) revalidateProviders(ctx context.Context, order *model.Order) (bool, error) {
	user := s.findUser(ctx, order.UserID)
	positions, err := s.stores.Positions.FindByOrder(ctx, order.ID)
	if err != nil {
		return false, err
	}

	changed := false
	if order.DeliveryID != "" {
		orderDelivery, provider, err := s.deliveryState(ctx, order)
		if err != nil {
			return false, err
		}
		deliveryContext := &delivery.Context{
			Order:         order,
			OrderDelivery: orderDelivery,
			Provider:      provider,
			Positions:     positions,
			User:          user,
		}
		if !s.directors.Delivery.IsActive(ctx, deliveryContext) {
			candidates, err := s.stores.DeliveryProviders.FindAll(ctx)
			if err != nil {
				return false, err
			}
			replaced := false
			for _, candidate := range candidates {
				if candidate.ID == provider.ID {
					continue
				}
				deliveryContext.Provider = candidate
				if !s.directors.Delivery.IsActive(ctx, deliveryContext) {
					continue
				}
				if err := s.stores.Deliveries.SetProvider(ctx, orderDelivery.ID, candidate.ID); err != nil {
					return false, err
				}
				log.Printf("orders: delivery provider of %s switched from %s to %s", order.ID, provider.ID, candidate.ID)
				replaced = true
				changed = true
				break
			}
			if !replaced {
				log.Printf("orders: delivery provider %s of %s inactive, no active replacement", provider.ID, order.ID)
			}
		}
	}

	if order.PaymentID != "" {
		orderPayment, provider, err := s.paymentState(ctx, order)
		if err != nil {
			return false, err
		}
		paymentContext := &payment.Context{
			Order:        order,
			OrderPayment: orderPayment,
			Provider:     provider,
			User:         user,
		}
		if !s.directors.Payment.IsActive(ctx, paymentContext) {
			candidates, err := s.stores.PaymentProviders.FindAll(ctx)
			if err != nil {
				return false, err
			}
			replaced := false
			for _, candidate := range candidates {
				if candidate.ID == provider.ID {
					continue
				}
				paymentContext.Provider = candidate
				if !s.directors.Payment.IsActive(ctx, paymentContext) {
					continue
				}
				if err := s.stores.Payments.SetProvider(ctx, orderPayment.ID, candidate.ID); err != nil {
					return false, err
				}
				log.Printf("orders: payment provider of %s switched from %s to %s", order.ID, provider.ID, candidate.ID)
				replaced = true
				changed = true
				break
			}
			if !replaced {
				log.Printf("orders: payment provider %s of %s inactive, no active replacement", provider.ID, order.ID)
			}
		}
	}
	return changed, nil
}

// reconcileDiscounts drops discounts that no longer apply and attaches
// system discounts that newly do, judged against the freshly calculated
// totals. Reports whether the discount set changed.
func (s *serviceImpl) reconcileDiscounts(ctx context.Context, order *model.Order) (bool, error) {
	user := s.findUser(ctx, order.UserID)
	positions, err := s.positionValues(ctx, order.ID)
	if err != nil {
		return false, err
	}

	persisted, err := s.stores.Discounts.FindByOrder(ctx, order.ID)
	if err != nil {
		return false, err
	}

	changed := false
	for _, orderDiscount := range persisted {
		discountContext := &discount.Context{
			Order:     order,
			Discount:  orderDiscount,
			Code:      orderDiscount.Code,
			User:      user,
			Positions: positions,
		}
		if s.directors.Discount.IsStillValid(ctx, orderDiscount, discountContext) {
			continue
		}
		if orderDiscount.Trigger == model.DiscountTriggerUser {
			s.directors.Discount.Release(ctx, orderDiscount, discountContext)
		}
		if err := s.stores.Discounts.Delete(ctx, orderDiscount.ID); err != nil {
			return false, err
		}
		changed = true
	}

	systemKeys := s.directors.Discount.FindSystemDiscounts(ctx, &discount.Context{
		Order:     order,
		User:      user,
		Positions: positions,
	})
	for _, key := range systemKeys {
		exists, err := s.stores.Discounts.ExistsByKey(ctx, order.ID, key)
		if err != nil {
			return false, err
		}
		if exists {
			continue
		}
		if err := s.stores.Discounts.Create(ctx, &model.OrderDiscount{
			OrderID:     order.ID,
			DiscountKey: key,
			Trigger:     model.DiscountTriggerSystem,
		}); err != nil {
			return false, err
		}
		changed = true
	}
	return changed, nil
}

// calculateSheets runs the four pricing chains bottom-up and persists each
// resulting sheet: positions first (concurrently), then delivery and
// payment, scheduling, and finally the order aggregate.
func (s *serviceImpl) calculateSheets(ctx context.Context, order *model.Order) error {
	positions, err := s.stores.Positions.FindByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	orderDiscounts, err := s.stores.Discounts.FindByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	user := s.findUser(ctx, order.UserID)

	discountValues := make([]model.OrderDiscount, len(orderDiscounts))
	positionValues := make([]model.OrderPosition, len(positions))
	for i, orderDiscount := range orderDiscounts {
		discountValues[i] = *orderDiscount
	}
	for i, position := range positions {
		positionValues[i] = *position
	}
	resolve := s.directors.Discount.Resolver(order, discountValues, user, positionValues)

	group, groupCtx := errgroup.WithContext(ctx)
	for _, position := range positions {
		position := position
		group.Go(func() error {
			product, err := s.stores.Products.FindByID(groupCtx, position.ProductID)
			if err != nil {
				return err
			}
			sheet := pricing.NewProductSheet(order.Currency, position.Quantity, nil)
			s.pricers.Product.Calculate(groupCtx, pricing.ProductContext{
				Product:     product,
				Position:    position,
				Order:       order,
				User:        user,
				Quantity:    position.Quantity,
				Currency:    order.Currency,
				CountryCode: order.CountryCode,
			}, sheet.Sheet, resolve)
			position.Calculation = sheet.Rows()
			return s.stores.Positions.UpdateCalculation(groupCtx, position.ID, position.Calculation)
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	var orderDelivery *model.OrderDelivery
	if order.DeliveryID != "" {
		orderDelivery, err = s.stores.Deliveries.FindByID(ctx, order.DeliveryID)
		if err != nil {
			return err
		}
		provider, err := s.stores.DeliveryProviders.FindByID(ctx, orderDelivery.DeliveryProviderID)
		if err != nil {
			return err
		}
		sheet := pricing.NewDeliverySheet(order.Currency, nil)
		s.pricers.Delivery.Calculate(ctx, pricing.DeliveryContext{
			Order:         order,
			OrderDelivery: orderDelivery,
			Provider:      provider,
			Positions:     positions,
			User:          user,
			Currency:      order.Currency,
			CountryCode:   order.CountryCode,
		}, sheet.Sheet, resolve)
		orderDelivery.Calculation = sheet.Rows()
		if err := s.stores.Deliveries.UpdateCalculation(ctx, orderDelivery.ID, orderDelivery.Calculation); err != nil {
			return err
		}
	}

	var orderPayment *model.OrderPayment
	if order.PaymentID != "" {
		orderPayment, err = s.stores.Payments.FindByID(ctx, order.PaymentID)
		if err != nil {
			return err
		}
		provider, err := s.stores.PaymentProviders.FindByID(ctx, orderPayment.PaymentProviderID)
		if err != nil {
			return err
		}
		sheet := pricing.NewPaymentSheet(order.Currency, nil)
		s.pricers.Payment.Calculate(ctx, pricing.PaymentContext{
			Order:        order,
			OrderPayment: orderPayment,
			Provider:     provider,
			User:         user,
			Currency:     order.Currency,
			CountryCode:  order.CountryCode,
		}, sheet.Sheet, resolve)
		orderPayment.Calculation = sheet.Rows()
		if err := s.stores.Payments.UpdateCalculation(ctx, orderPayment.ID, orderPayment.Calculation); err != nil {
			return err
		}
	}

	if err := s.updateScheduling(ctx, order, positions, orderDelivery, user); err != nil {
		return err
	}

	sheet := pricing.NewOrderSheet(order.Currency, nil)
	s.pricers.Order.Calculate(ctx, pricing.OrderContext{
		Order:       order,
		Positions:   positions,
		Delivery:    orderDelivery,
		Payment:     orderPayment,
		Discounts:   orderDiscounts,
		User:        user,
		Currency:    order.Currency,
		CountryCode: order.CountryCode,
	}, sheet.Sheet, resolve)
	order.Calculation = sheet.Rows()
	return s.stores.Orders.UpdateCalculation(ctx, order.ID, order.Calculation)
}

// updateScheduling probes every warehousing provider for each position and
// records the resulting dispatch plan. Probe failures degrade to a zero
// estimate and never fail the calculation.
func (s *serviceImpl) updateScheduling(ctx context.Context, order *model.Order, positions []*model.OrderPosition, orderDelivery *model.OrderDelivery, user *model.User) error {
	if orderDelivery == nil {
		return nil
	}
	providers, err := s.stores.WarehousingProviders.FindAll(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, position := range positions {
		product, err := s.stores.Products.FindByID(ctx, position.ProductID)
		if err != nil {
			return err
		}

		var dispatches []model.Dispatch
		for _, provider := range providers {
			warehousingContext := &warehousing.Context{
				Product:       product,
				Position:      position,
				Provider:      provider,
				Order:         order,
				User:          user,
				Quantity:      position.Quantity,
				ReferenceDate: now,
			}
			if !s.directors.Warehousing.IsActive(ctx, warehousingContext) {
				continue
			}
			estimate := now.Add(s.directors.Warehousing.EstimatedDispatch(ctx, warehousingContext))
			dispatches = append(dispatches, model.Dispatch{
				WarehousingProviderID: provider.ID,
				DeliveryProviderID:    orderDelivery.DeliveryProviderID,
				ShippingEstimate:      &estimate,
			})
		}
		position.Scheduling = dispatches
		if err := s.stores.Positions.UpdateScheduling(ctx, position.ID, dispatches); err != nil {
			return err
		}
	}
	return nil
}

func (s *serviceImpl) positionValues(ctx context.Context, orderID string) ([]model.OrderPosition, error) {
	positions, err := s.stores.Positions.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	values := make([]model.OrderPosition, len(positions))
	for i, position := range positions {
		values[i] = *position
	}
	return values, nil
}
