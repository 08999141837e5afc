package orders

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

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

const (
	instantPaymentKey = "test.payment.instant"
	strictPaymentKey  = "test.payment.strict"
	cappedDeliveryKey = "test.delivery.capped"
	deliveryItemsCap  = int64(5000)
)

// stubPaymentAdapter drives the settlement gates from tests: instant
// settles on charge, strict neither settles nor allows pay later.
type stubPaymentAdapter struct {
	plugins.Meta
	settle    bool
	payLater  bool
	mu        sync.Mutex
	cancelled int
}

func (a *stubPaymentAdapter) IsActiveFor(ctx context.Context, paymentContext *payment.Context) bool {
	return true
}

func (a *stubPaymentAdapter) ConfigurationError(paymentContext *payment.Context) plugins.ErrorCode {
	return plugins.ErrCodeNone
}

func (a *stubPaymentAdapter) IsPayLaterAllowed(ctx context.Context, paymentContext *payment.Context) bool {
	return a.payLater
}

func (a *stubPaymentAdapter) Charge(ctx context.Context, paymentContext *payment.Context) (*payment.ChargeResult, error) {
	if !a.settle {
		return &payment.ChargeResult{Settled: false}, nil
	}
	return &payment.ChargeResult{Settled: true, TransactionID: "txn-" + uuid.NewString()}, nil
}

func (a *stubPaymentAdapter) Cancel(ctx context.Context, paymentContext *payment.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelled++
	return nil
}

func (a *stubPaymentAdapter) cancelCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancelled
}

// cappedDeliveryAdapter deactivates once the cart's items total exceeds its
// cap, forcing the calculation to pick another provider.
type cappedDeliveryAdapter struct {
	plugins.Meta
	cap int64
}

func (a *cappedDeliveryAdapter) IsActiveFor(ctx context.Context, deliveryContext *delivery.Context) bool {
	sheet := pricing.NewOrderSheet(deliveryContext.Order.Currency, deliveryContext.Order.Calculation)
	return sheet.ItemsSum() <= a.cap
}

func (a *cappedDeliveryAdapter) ConfigurationError(deliveryContext *delivery.Context) plugins.ErrorCode {
	return plugins.ErrCodeNone
}

func (a *cappedDeliveryAdapter) IsAutoReleaseAllowed(ctx context.Context, deliveryContext *delivery.Context) bool {
	return true
}

func (a *cappedDeliveryAdapter) Send(ctx context.Context, deliveryContext *delivery.Context) (*delivery.SendResult, error) {
	return &delivery.SendResult{Delivered: true}, nil
}

type testEnv struct {
	t        *testing.T
	service  Service
	stores   Stores
	registry *plugins.Registry
	instant  *stubPaymentAdapter
	strict   *stubPaymentAdapter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Order{}, &model.OrderPosition{}, &model.OrderDelivery{},
		&model.OrderPayment{}, &model.OrderDiscount{},
		&model.Product{}, &model.User{},
		&model.PaymentProvider{}, &model.DeliveryProvider{}, &model.WarehousingProvider{},
		&model.Enrollment{}, &model.Quotation{}, &model.Token{},
	))

	registry := plugins.NewRegistry()
	for _, adapter := range []plugins.Adapter{
		pricing.NewProductCatalogPriceAdapter(),
		pricing.NewProductDiscountAdapter(),
		pricing.NewProductTaxAdapter(),
		pricing.NewDeliveryFeesAdapter(),
		pricing.NewDeliveryDiscountAdapter(),
		pricing.NewDeliveryTaxAdapter(),
		pricing.NewPaymentFeesAdapter(),
		pricing.NewPaymentTaxAdapter(),
		pricing.NewOrderItemsAdapter(),
		pricing.NewOrderDeliveryAdapter(),
		pricing.NewOrderPaymentAdapter(),
		pricing.NewOrderDiscountsAdapter(),
		payment.NewInvoiceAdapter(),
		delivery.NewShippingAdapter(),
		delivery.NewPickupAdapter(),
		warehousing.NewStoreAdapter(),
		warehousing.NewVirtualAdapter("test-secret"),
		enrollment.NewLicensedAdapter(),
		quotation.NewManualAdapter(),
		discount.NewFreeDeliveryAdapter(10000),
		discount.NewHalfPriceAdapter(),
		discount.NewEarlyBirdAdapter(),
	} {
		registry.RegisterAdapter(adapter)
	}

	instant := &stubPaymentAdapter{
		Meta:     plugins.Meta{AdapterKey: instantPaymentKey, AdapterType: plugins.TypePayment},
		settle:   true,
		payLater: false,
	}
	strict := &stubPaymentAdapter{
		Meta: plugins.Meta{AdapterKey: strictPaymentKey, AdapterType: plugins.TypePayment},
	}
	registry.RegisterAdapter(instant)
	registry.RegisterAdapter(strict)
	registry.RegisterAdapter(&cappedDeliveryAdapter{
		Meta: plugins.Meta{AdapterKey: cappedDeliveryKey, AdapterType: plugins.TypeDelivery},
		cap:  deliveryItemsCap,
	})

	stores := Stores{
		Orders:               repository.NewOrderRepository(db),
		Positions:            repository.NewOrderPositionRepository(db),
		Deliveries:           repository.NewOrderDeliveryRepository(db),
		Payments:             repository.NewOrderPaymentRepository(db),
		Discounts:            repository.NewOrderDiscountRepository(db),
		Products:             repository.NewProductRepository(db),
		Users:                repository.NewUserRepository(db),
		PaymentProviders:     repository.NewPaymentProviderRepository(db),
		DeliveryProviders:    repository.NewDeliveryProviderRepository(db),
		WarehousingProviders: repository.NewWarehousingProviderRepository(db),
		Enrollments:          repository.NewEnrollmentRepository(db),
		Quotations:           repository.NewQuotationRepository(db),
		Tokens:               repository.NewTokenRepository(db),
	}

	service := NewService(stores, NewDirectors(registry), NewPricers(registry),
		lock.NewMemoryLocker(2*time.Second), events.NopPublisher{}, true)

	return &testEnv{
		t:        t,
		service:  service,
		stores:   stores,
		registry: registry,
		instant:  instant,
		strict:   strict,
	}
}

func (e *testEnv) seedProduct(price int64, productType model.ProductType) *model.Product {
	e.t.Helper()
	product := &model.Product{
		ID:        "product-" + uuid.NewString(),
		Title:     "Test Product",
		Type:      productType,
		Price:     price,
		Currency:  "CHF",
		IsTaxable: true,
	}
	require.NoError(e.t, e.stores.Products.Create(context.Background(), product))
	return product
}

func (e *testEnv) seedUser() *model.User {
	e.t.Helper()
	user := &model.User{ID: "user-" + uuid.NewString(), Username: "tester"}
	require.NoError(e.t, e.stores.Users.Create(context.Background(), user))
	return user
}

type cartOptions struct {
	paymentKey     string
	deliveryConfig map[string]string
}

// readyCart builds a cart with contact, billing address and provider
// selection so it passes checkout validation.
func (e *testEnv) readyCart(opts cartOptions) *model.Order {
	e.t.Helper()
	ctx := context.Background()
	user := e.seedUser()

	order, err := e.service.CreateCart(ctx, user.ID, "CHF", "CH")
	require.NoError(e.t, err)

	order.Contact = &model.Contact{EmailAddress: "buyer@example.com"}
	order.BillingAddress = &model.Address{FirstName: "Max", City: "Zurich", CountryCode: "CH"}
	require.NoError(e.t, e.stores.Orders.Update(ctx, order))

	if opts.deliveryConfig == nil {
		opts.deliveryConfig = map[string]string{"fee": "500", "autoRelease": "true"}
	}
	deliveryProvider := &model.DeliveryProvider{
		AdapterKey:    delivery.ShippingAdapterKey,
		Type:          model.DeliveryProviderTypeShipping,
		Configuration: opts.deliveryConfig,
	}
	require.NoError(e.t, e.stores.DeliveryProviders.Create(ctx, deliveryProvider))
	_, err = e.service.SetDeliveryProvider(ctx, order.ID, deliveryProvider.ID)
	require.NoError(e.t, err)

	if opts.paymentKey == "" {
		opts.paymentKey = payment.InvoiceAdapterKey
	}
	paymentProvider := &model.PaymentProvider{
		AdapterKey: opts.paymentKey,
		Type:       model.PaymentProviderTypeGeneric,
	}
	require.NoError(e.t, e.stores.PaymentProviders.Create(ctx, paymentProvider))
	_, err = e.service.SetPaymentProvider(ctx, order.ID, paymentProvider.ID)
	require.NoError(e.t, err)

	fresh, err := e.stores.Orders.FindByID(ctx, order.ID)
	require.NoError(e.t, err)
	return fresh
}

func (e *testEnv) addPosition(orderID string, product *model.Product, quantity int) *model.OrderPosition {
	e.t.Helper()
	position, err := e.service.AddCartPosition(context.Background(), orderID, product.ID, quantity, "", nil)
	require.NoError(e.t, err)
	return position
}

func (e *testEnv) seedVirtualProvider() *model.WarehousingProvider {
	e.t.Helper()
	provider := &model.WarehousingProvider{
		AdapterKey: warehousing.VirtualAdapterKey,
		Type:       model.WarehousingProviderTypeVirtual,
	}
	require.NoError(e.t, e.stores.WarehousingProviders.Create(context.Background(), provider))
	return provider
}

func rowsJSON(t *testing.T, rows []model.CalculationRow) string {
	t.Helper()
	encoded, err := json.Marshal(rows)
	require.NoError(t, err)
	return string(encoded)
}

func TestUpdateCalculationIsRepeatable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.readyCart(cartOptions{})
	env.addPosition(order.ID, env.seedProduct(2500, model.ProductTypeSimple), 2)

	first, err := env.service.UpdateCalculation(ctx, order.ID)
	require.NoError(t, err)
	second, err := env.service.UpdateCalculation(ctx, order.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, first.Calculation)
	assert.Equal(t, rowsJSON(t, first.Calculation), rowsJSON(t, second.Calculation))

	sheet := pricing.NewOrderSheet(first.Currency, first.Calculation)
	assert.Equal(t, sheet.Gross(), sheet.Net()+sheet.TaxSum())
	assert.Equal(t, int64(5000), sheet.ItemsSum())
	assert.Equal(t, int64(500), sheet.DeliverySum())
}

func TestFreeDeliveryAttachesAboveThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.readyCart(cartOptions{})
	env.addPosition(order.ID, env.seedProduct(6000, model.ProductTypeSimple), 2)

	updated, err := env.service.UpdateCalculation(ctx, order.ID)
	require.NoError(t, err)

	discounts, err := env.stores.Discounts.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, discounts, 1)
	assert.Equal(t, discount.FreeDeliveryAdapterKey, discounts[0].DiscountKey)
	assert.Equal(t, model.DiscountTriggerSystem, discounts[0].Trigger)

	orderDelivery, err := env.stores.Deliveries.FindByID(ctx, updated.DeliveryID)
	require.NoError(t, err)
	deliverySheet := pricing.NewDeliverySheet(updated.Currency, orderDelivery.Calculation)
	assert.Equal(t, int64(500), deliverySheet.FeeSum())
	assert.Equal(t, int64(-500), deliverySheet.DiscountSum())

	orderSheet := pricing.NewOrderSheet(updated.Currency, updated.Calculation)
	assert.Equal(t, int64(0), orderSheet.DeliverySum())
}

func TestFreeDeliveryDetachesBelowThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.readyCart(cartOptions{})
	env.addPosition(order.ID, env.seedProduct(15000, model.ProductTypeSimple), 1)
	_, err := env.service.UpdateCalculation(ctx, order.ID)
	require.NoError(t, err)

	discounts, err := env.stores.Discounts.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, discounts, 1)

	// shrink the cart below the threshold
	require.NoError(t, env.stores.Positions.DeleteByOrder(ctx, order.ID))
	env.addPosition(order.ID, env.seedProduct(1000, model.ProductTypeSimple), 1)

	discounts, err = env.stores.Discounts.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, discounts)
}

func TestCalculationReplacesInactiveDeliveryProvider(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.readyCart(cartOptions{})
	capped := &model.DeliveryProvider{
		AdapterKey:    cappedDeliveryKey,
		Type:          model.DeliveryProviderTypeShipping,
		Configuration: map[string]string{"fee": "300"},
	}
	require.NoError(t, env.stores.DeliveryProviders.Create(ctx, capped))
	updated, err := env.service.SetDeliveryProvider(ctx, order.ID, capped.ID)
	require.NoError(t, err)

	env.addPosition(order.ID, env.seedProduct(2000, model.ProductTypeSimple), 1)
	orderDelivery, err := env.stores.Deliveries.FindByID(ctx, updated.DeliveryID)
	require.NoError(t, err)
	assert.Equal(t, capped.ID, orderDelivery.DeliveryProviderID)

	// totals crossing the cap deactivate the provider, the recalculation
	// switches to the remaining active one
	env.addPosition(order.ID, env.seedProduct(9000, model.ProductTypeSimple), 1)
	orderDelivery, err = env.stores.Deliveries.FindByID(ctx, updated.DeliveryID)
	require.NoError(t, err)
	require.NotEqual(t, capped.ID, orderDelivery.DeliveryProviderID)

	replacement, err := env.stores.DeliveryProviders.FindByID(ctx, orderDelivery.DeliveryProviderID)
	require.NoError(t, err)
	assert.Equal(t, delivery.ShippingAdapterKey, replacement.AdapterKey)
}

func TestAddDiscountCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.readyCart(cartOptions{})
	env.addPosition(order.ID, env.seedProduct(2000, model.ProductTypeSimple), 1)

	_, err := env.service.AddDiscountCode(ctx, order.ID, "NOPE")
	assert.ErrorIs(t, err, ErrInvalidDiscountCode)

	orderDiscount, err := env.service.AddDiscountCode(ctx, order.ID, "HALFPRICE")
	require.NoError(t, err)
	assert.Equal(t, discount.HalfPriceAdapterKey, orderDiscount.DiscountKey)
	assert.Equal(t, model.DiscountTriggerUser, orderDiscount.Trigger)

	// same code twice is rejected
	_, err = env.service.AddDiscountCode(ctx, order.ID, "HALFPRICE")
	assert.ErrorIs(t, err, ErrInvalidDiscountCode)

	updated, err := env.stores.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	sheet := pricing.NewOrderSheet(updated.Currency, updated.Calculation)
	assert.Equal(t, int64(1000), sheet.ItemsSum())
}

func TestCheckoutValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.seedUser()

	empty, err := env.service.CreateCart(ctx, user.ID, "CHF", "CH")
	require.NoError(t, err)
	_, err = env.service.CheckoutOrder(ctx, empty.ID, nil)
	assert.ErrorIs(t, err, ErrCartEmpty)

	product := env.seedProduct(1000, model.ProductTypeSimple)
	withPosition, err := env.service.CreateCart(ctx, user.ID, "CHF", "CH")
	require.NoError(t, err)
	env.addPosition(withPosition.ID, product, 1)
	_, err = env.service.CheckoutOrder(ctx, withPosition.ID, nil)
	assert.ErrorIs(t, err, ErrContactMissing)

	withPosition.Contact = &model.Contact{EmailAddress: "buyer@example.com"}
	require.NoError(t, env.stores.Orders.Update(ctx, withPosition))
	_, err = env.service.CheckoutOrder(ctx, withPosition.ID, nil)
	assert.ErrorIs(t, err, ErrBillingAddressMissing)

	withPosition.BillingAddress = &model.Address{City: "Zurich"}
	require.NoError(t, env.stores.Orders.Update(ctx, withPosition))
	_, err = env.service.CheckoutOrder(ctx, withPosition.ID, nil)
	assert.ErrorIs(t, err, ErrDeliveryProviderMissing)
}

func TestCheckoutPayLaterWithAutoRelease(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.readyCart(cartOptions{})
	env.addPosition(order.ID, env.seedProduct(2000, model.ProductTypeSimple), 1)

	confirmed, err := env.service.CheckoutOrder(ctx, order.ID, nil)
	require.NoError(t, err)

	// invoice allows pay later, shipping auto releases and marks delivered
	assert.Equal(t, model.OrderStatusConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.Ordered)
	assert.NotNil(t, confirmed.Confirmed)
	assert.Nil(t, confirmed.Fulfilled)

	orderDelivery, err := env.stores.Deliveries.FindByID(ctx, confirmed.DeliveryID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDeliveryStatusDelivered, orderDelivery.Status)

	orderPayment, err := env.stores.Payments.FindByID(ctx, confirmed.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaymentStatusOpen, orderPayment.Status)

	// a checked-out order cannot be checked out again
	_, err = env.service.CheckoutOrder(ctx, order.ID, nil)
	assert.ErrorIs(t, err, ErrWrongStatus)
}

func TestCheckoutSettledPaymentFulfills(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.readyCart(cartOptions{paymentKey: instantPaymentKey})
	env.addPosition(order.ID, env.seedProduct(2000, model.ProductTypeSimple), 1)

	fulfilled, err := env.service.CheckoutOrder(ctx, order.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusFulfilled, fulfilled.Status)
	assert.NotNil(t, fulfilled.Fulfilled)

	orderPayment, err := env.stores.Payments.FindByID(ctx, fulfilled.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaymentStatusPaid, orderPayment.Status)
	assert.NotEmpty(t, orderPayment.TransactionID)
}

func TestCheckoutStaysPendingWithoutGates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.readyCart(cartOptions{paymentKey: strictPaymentKey})
	env.addPosition(order.ID, env.seedProduct(2000, model.ProductTypeSimple), 1)

	pending, err := env.service.CheckoutOrder(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, pending.Status)

	// the explicit override confirms regardless of the gates
	confirmed, err := env.service.ConfirmOrder(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, confirmed.Status)

	orderDelivery, err := env.stores.Deliveries.FindByID(ctx, confirmed.DeliveryID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDeliveryStatusDelivered, orderDelivery.Status)
}

func TestRejectIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.readyCart(cartOptions{paymentKey: strictPaymentKey})
	env.addPosition(order.ID, env.seedProduct(2000, model.ProductTypeSimple), 1)

	_, err := env.service.CheckoutOrder(ctx, order.ID, nil)
	require.NoError(t, err)

	rejected, err := env.service.RejectOrder(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRejected, rejected.Status)
	assert.NotNil(t, rejected.Rejected)

	// terminal states absorb further transitions
	again, err := env.service.RejectOrder(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRejected, again.Status)

	confirmAttempt, err := env.service.ConfirmOrder(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRejected, confirmAttempt.Status)
}

func TestRejectRefundsSettledPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// settled payment, delivery neither delivered nor auto released: the
	// order parks in PENDING with money already captured
	order := env.readyCart(cartOptions{
		paymentKey:     instantPaymentKey,
		deliveryConfig: map[string]string{"fee": "500", "autoRelease": "false"},
	})
	env.addPosition(order.ID, env.seedProduct(2000, model.ProductTypeSimple), 1)

	pending, err := env.service.CheckoutOrder(ctx, order.ID, nil)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusPending, pending.Status)

	_, err = env.service.RejectOrder(ctx, order.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, env.instant.cancelCount())
	orderPayment, err := env.stores.Payments.FindByID(ctx, pending.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaymentStatusRefunded, orderPayment.Status)
}

func TestConcurrentCheckoutSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.readyCart(cartOptions{})
	env.addPosition(order.ID, env.seedProduct(2000, model.ProductTypeSimple), 1)

	const attempts = 6
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.service.CheckoutOrder(ctx, order.ID, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrWrongStatus)
		}
	}
	assert.Equal(t, 1, succeeded)

	final, err := env.stores.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, final.Status)
}

func TestTokenizationAtConfirmation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedVirtualProvider()

	order := env.readyCart(cartOptions{})
	product := env.seedProduct(3000, model.ProductTypeTokenized)
	position := env.addPosition(order.ID, product, 3)

	confirmed, err := env.service.CheckoutOrder(ctx, order.ID, nil)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusConfirmed, confirmed.Status)

	tokens, err := env.stores.Tokens.FindByPosition(ctx, position.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 3)

	seen := map[int64]bool{}
	var previous int64
	for _, token := range tokens {
		assert.False(t, seen[token.SerialNumber])
		seen[token.SerialNumber] = true
		assert.Greater(t, token.SerialNumber, previous)
		previous = token.SerialNumber
		assert.NotEmpty(t, token.Signature)
		assert.Equal(t, product.ID, token.ProductID)
	}
}

func TestTokenizationCoversAllActiveVirtualProviders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.seedVirtualProvider()
	second := env.seedVirtualProvider()

	order := env.readyCart(cartOptions{})
	product := env.seedProduct(3000, model.ProductTypeTokenized)
	position := env.addPosition(order.ID, product, 2)

	confirmed, err := env.service.CheckoutOrder(ctx, order.ID, nil)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusConfirmed, confirmed.Status)

	tokens, err := env.stores.Tokens.FindByPosition(ctx, position.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 4)

	serials := map[int64]bool{}
	perProvider := map[string]int{}
	for _, token := range tokens {
		assert.False(t, serials[token.SerialNumber])
		serials[token.SerialNumber] = true
		perProvider[token.WarehousingProviderID]++
	}
	assert.Equal(t, 2, perProvider[first.ID])
	assert.Equal(t, 2, perProvider[second.ID])
}

// collidingTokenStore makes the first batch insert lose the serial race by
// persisting a conflicting token right before it.
type collidingTokenStore struct {
	repository.TokenRepository
	mu       sync.Mutex
	collided bool
}

func (s *collidingTokenStore) CreateBatch(ctx context.Context, tokens []*model.Token) error {
	s.mu.Lock()
	first := !s.collided
	s.collided = true
	s.mu.Unlock()

	if first && len(tokens) > 0 {
		conflict := &model.Token{
			UserID:                "other-user",
			ProductID:             tokens[0].ProductID,
			OrderPositionID:       "other-position",
			WarehousingProviderID: tokens[0].WarehousingProviderID,
			SerialNumber:          tokens[0].SerialNumber,
			Signature:             "other-signature",
		}
		if err := s.TokenRepository.Create(ctx, conflict); err != nil {
			return err
		}
	}
	return s.TokenRepository.CreateBatch(ctx, tokens)
}

func TestTokenSerialAllocationRetriesOnCollision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	provider := env.seedVirtualProvider()

	colliding := &collidingTokenStore{TokenRepository: env.stores.Tokens}
	stores := env.stores
	stores.Tokens = colliding
	service := NewService(stores, NewDirectors(env.registry), NewPricers(env.registry),
		lock.NewMemoryLocker(2*time.Second), events.NopPublisher{}, true)

	order := env.readyCart(cartOptions{})
	product := env.seedProduct(3000, model.ProductTypeTokenized)
	position := env.addPosition(order.ID, product, 2)

	confirmed, err := service.CheckoutOrder(ctx, order.ID, nil)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusConfirmed, confirmed.Status)

	tokens, err := env.stores.Tokens.FindByPositionAndProvider(ctx, position.ID, provider.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	// the conflicting token kept the first allocation, the retry moved on
	for _, token := range tokens {
		assert.Greater(t, token.SerialNumber, int64(1))
	}
}

func TestEnrollmentCreatedForPlanPosition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.readyCart(cartOptions{})
	plan := &model.Product{
		ID:         "product-" + uuid.NewString(),
		Type:       model.ProductTypePlan,
		Price:      9900,
		Currency:   "CHF",
		IsTaxable:  true,
		PlanConfig: map[string]any{"durationDays": float64(7)},
	}
	require.NoError(t, env.stores.Products.Create(ctx, plan))
	env.addPosition(order.ID, plan, 1)

	confirmed, err := env.service.CheckoutOrder(ctx, order.ID, nil)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusConfirmed, confirmed.Status)

	enrollments, err := env.stores.Enrollments.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, plan.ID, enrollments[0].ProductID)
	assert.Equal(t, model.EnrollmentStatusInitial, enrollments[0].Status)
	assert.NotNil(t, enrollments[0].ExpiresAt)
}

func TestEnrollmentSkippedForEnrollmentOriginatedOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.readyCart(cartOptions{})
	order.OriginEnrollmentID = "enrollment-origin"
	require.NoError(t, env.stores.Orders.Update(ctx, order))

	env.addPosition(order.ID, env.seedProduct(9900, model.ProductTypePlan), 1)

	_, err := env.service.CheckoutOrder(ctx, order.ID, nil)
	require.NoError(t, err)

	enrollments, err := env.stores.Enrollments.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, enrollments)
}

func TestQuotationGateAndFulfillment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := env.seedProduct(50000, model.ProductTypeSimple)

	expired := time.Now().Add(-time.Hour)
	expiredQuotation := &model.Quotation{
		UserID:    "user-q",
		ProductID: product.ID,
		Status:    model.QuotationStatusProposed,
		Expires:   &expired,
	}
	require.NoError(t, env.stores.Quotations.Create(ctx, expiredQuotation))

	order := env.readyCart(cartOptions{})
	_, err := env.service.AddCartPosition(ctx, order.ID, product.ID, 1, expiredQuotation.ID, nil)
	require.NoError(t, err)
	_, err = env.service.CheckoutOrder(ctx, order.ID, nil)
	assert.ErrorIs(t, err, ErrQuotationExpired)

	valid := time.Now().Add(time.Hour)
	validQuotation := &model.Quotation{
		UserID:    "user-q",
		ProductID: product.ID,
		Status:    model.QuotationStatusProposed,
		Expires:   &valid,
	}
	require.NoError(t, env.stores.Quotations.Create(ctx, validQuotation))

	second := env.readyCart(cartOptions{})
	position, err := env.service.AddCartPosition(ctx, second.ID, product.ID, 1, validQuotation.ID, nil)
	require.NoError(t, err)

	confirmed, err := env.service.CheckoutOrder(ctx, second.ID, nil)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusConfirmed, confirmed.Status)

	fulfilled, err := env.stores.Quotations.FindByID(ctx, validQuotation.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QuotationStatusFulfilled, fulfilled.Status)
	assert.NotNil(t, fulfilled.Fulfilled)
	assert.Equal(t, position.ID, fulfilled.Context["orderPositionId"])
}

func TestCalculationFrozenAfterCheckout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.readyCart(cartOptions{})
	product := env.seedProduct(2000, model.ProductTypeSimple)
	env.addPosition(order.ID, product, 1)

	confirmed, err := env.service.CheckoutOrder(ctx, order.ID, nil)
	require.NoError(t, err)
	frozen := rowsJSON(t, confirmed.Calculation)

	after, err := env.service.UpdateCalculation(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, frozen, rowsJSON(t, after.Calculation))
}
