package pricing

import "commerce-engine/internal/model"

// Row categories per pricing domain. Each domain sheet shares the base
// sheet's aggregate math and only adds category-tagged mutators.

const (
	OrderRowItems     = "ITEMS"
	OrderRowDiscounts = "DISCOUNTS"
	OrderRowTaxes     = "TAXES"
	OrderRowDelivery  = "DELIVERY"
	OrderRowPayment   = "PAYMENT"
)

type OrderSheet struct {
	*Sheet
}

func NewOrderSheet(currency string, rows []model.CalculationRow) *OrderSheet {
	return &OrderSheet{Sheet: NewSheet(currency, 1, OrderRowTaxes, rows)}
}

func (s *OrderSheet) AddItems(amount int64, meta map[string]any) {
	s.Add(model.CalculationRow{Category: OrderRowItems, Amount: amount, Meta: meta})
}

func (s *OrderSheet) AddDiscount(amount int64, discountID string, meta map[string]any) {
	s.Add(model.CalculationRow{Category: OrderRowDiscounts, Amount: amount, DiscountID: discountID, IsTaxable: true, Meta: meta})
}

func (s *OrderSheet) AddTax(amount int64, baseCategory string, discountID string, rate float64, meta map[string]any) {
	s.Add(model.CalculationRow{Category: OrderRowTaxes, Amount: amount, BaseCategory: baseCategory, DiscountID: discountID, Rate: rate, Meta: meta})
}

func (s *OrderSheet) AddDelivery(amount int64, meta map[string]any) {
	s.Add(model.CalculationRow{Category: OrderRowDelivery, Amount: amount, Meta: meta})
}

func (s *OrderSheet) AddPayment(amount int64, meta map[string]any) {
	s.Add(model.CalculationRow{Category: OrderRowPayment, Amount: amount, Meta: meta})
}

func (s *OrderSheet) ItemsSum() int64    { return s.Sum(ByCategory(OrderRowItems)) }
func (s *OrderSheet) DiscountSum() int64 { return s.Sum(ByCategory(OrderRowDiscounts)) }
func (s *OrderSheet) DeliverySum() int64 { return s.Sum(ByCategory(OrderRowDelivery)) }
func (s *OrderSheet) PaymentSum() int64  { return s.Sum(ByCategory(OrderRowPayment)) }

const (
	ProductRowItem     = "ITEM"
	ProductRowDiscount = "DISCOUNT"
	ProductRowTax      = "TAX"
)

type ProductSheet struct {
	*Sheet
}

func NewProductSheet(currency string, quantity int, rows []model.CalculationRow) *ProductSheet {
	return &ProductSheet{Sheet: NewSheet(currency, quantity, ProductRowTax, rows)}
}

func (s *ProductSheet) AddItem(amount int64, isTaxable, isNetPrice bool, meta map[string]any) {
	s.Add(model.CalculationRow{Category: ProductRowItem, Amount: amount, IsTaxable: isTaxable, IsNetPrice: isNetPrice, Meta: meta})
}

func (s *ProductSheet) AddDiscount(amount int64, discountID string, isTaxable bool, meta map[string]any) {
	s.Add(model.CalculationRow{Category: ProductRowDiscount, Amount: amount, DiscountID: discountID, IsTaxable: isTaxable, Meta: meta})
}

func (s *ProductSheet) AddTax(amount int64, baseCategory string, discountID string, rate float64, meta map[string]any) {
	s.Add(model.CalculationRow{Category: ProductRowTax, Amount: amount, BaseCategory: baseCategory, DiscountID: discountID, Rate: rate, Meta: meta})
}

func (s *ProductSheet) ItemsSum() int64    { return s.Sum(ByCategory(ProductRowItem)) }
func (s *ProductSheet) DiscountSum() int64 { return s.Sum(ByCategory(ProductRowDiscount)) }

// UnitPrice is the gross total divided over the sheet quantity.
func (s *ProductSheet) UnitPrice() Price {
	amount := s.Gross()
	if s.Quantity() > 0 {
		amount /= int64(s.Quantity())
	}
	return Price{Amount: amount, CurrencyCode: s.Currency()}
}

const (
	DeliveryRowFee      = "DELIVERY"
	DeliveryRowDiscount = "DISCOUNT"
	DeliveryRowTax      = "TAX"
)

type DeliverySheet struct {
	*Sheet
}

func NewDeliverySheet(currency string, rows []model.CalculationRow) *DeliverySheet {
	return &DeliverySheet{Sheet: NewSheet(currency, 1, DeliveryRowTax, rows)}
}

func (s *DeliverySheet) AddFee(amount int64, isTaxable bool, meta map[string]any) {
	s.Add(model.CalculationRow{Category: DeliveryRowFee, Amount: amount, IsTaxable: isTaxable, Meta: meta})
}

func (s *DeliverySheet) AddDiscount(amount int64, discountID string, isTaxable bool, meta map[string]any) {
	s.Add(model.CalculationRow{Category: DeliveryRowDiscount, Amount: amount, DiscountID: discountID, IsTaxable: isTaxable, Meta: meta})
}

func (s *DeliverySheet) AddTax(amount int64, baseCategory string, discountID string, rate float64, meta map[string]any) {
	s.Add(model.CalculationRow{Category: DeliveryRowTax, Amount: amount, BaseCategory: baseCategory, DiscountID: discountID, Rate: rate, Meta: meta})
}

func (s *DeliverySheet) FeeSum() int64      { return s.Sum(ByCategory(DeliveryRowFee)) }
func (s *DeliverySheet) DiscountSum() int64 { return s.Sum(ByCategory(DeliveryRowDiscount)) }

const (
	PaymentRowFee      = "PAYMENT"
	PaymentRowDiscount = "DISCOUNT"
	PaymentRowTax      = "TAX"
)

type PaymentSheet struct {
	*Sheet
}

func NewPaymentSheet(currency string, rows []model.CalculationRow) *PaymentSheet {
	return &PaymentSheet{Sheet: NewSheet(currency, 1, PaymentRowTax, rows)}
}

func (s *PaymentSheet) AddFee(amount int64, isTaxable bool, meta map[string]any) {
	s.Add(model.CalculationRow{Category: PaymentRowFee, Amount: amount, IsTaxable: isTaxable, Meta: meta})
}

func (s *PaymentSheet) AddDiscount(amount int64, discountID string, isTaxable bool, meta map[string]any) {
	s.Add(model.CalculationRow{Category: PaymentRowDiscount, Amount: amount, DiscountID: discountID, IsTaxable: isTaxable, Meta: meta})
}

func (s *PaymentSheet) AddTax(amount int64, baseCategory string, discountID string, rate float64, meta map[string]any) {
	s.Add(model.CalculationRow{Category: PaymentRowTax, Amount: amount, BaseCategory: baseCategory, DiscountID: discountID, Rate: rate, Meta: meta})
}

func (s *PaymentSheet) FeeSum() int64 { return s.Sum(ByCategory(PaymentRowFee)) }
