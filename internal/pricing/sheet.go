package pricing

import "commerce-engine/internal/model"

// Price is a derived amount in the sheet's currency, minor units.
type Price struct {
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// RowMatcher selects calculation rows for aggregation.
type RowMatcher func(model.CalculationRow) bool

func ByCategory(category string) RowMatcher {
	return func(row model.CalculationRow) bool { return row.Category == category }
}

func ByDiscount(discountID string) RowMatcher {
	return func(row model.CalculationRow) bool { return row.DiscountID == discountID }
}

func ByBaseCategory(category string) RowMatcher {
	return func(row model.CalculationRow) bool { return row.BaseCategory == category }
}

// Sheet is an append-only ledger of signed calculation rows. Rows tagged with
// the sheet's tax category carry the tax portion of other rows, linked back
// through BaseCategory; all remaining rows are gross amounts.
type Sheet struct {
	currency    string
	quantity    int
	taxCategory string
	rows        []model.CalculationRow
}

func NewSheet(currency string, quantity int, taxCategory string, rows []model.CalculationRow) *Sheet {
	sheet := &Sheet{
		currency:    currency,
		quantity:    quantity,
		taxCategory: taxCategory,
	}
	for _, row := range rows {
		sheet.Add(row)
	}
	return sheet
}

func (s *Sheet) Currency() string { return s.currency }
func (s *Sheet) Quantity() int    { return s.quantity }

// Add appends a row, stamping the sheet currency on it. Rows are never
// mutated once pushed.
func (s *Sheet) Add(row model.CalculationRow) {
	row.CurrencyCode = s.currency
	s.rows = append(s.rows, row)
}

// Rows returns a copy of the calculation ledger for persistence.
func (s *Sheet) Rows() []model.CalculationRow {
	rows := make([]model.CalculationRow, len(s.rows))
	copy(rows, s.rows)
	return rows
}

// IsValid reports whether any calculation has happened at all.
func (s *Sheet) IsValid() bool {
	return s != nil && len(s.rows) > 0
}

func matches(row model.CalculationRow, matchers []RowMatcher) bool {
	for _, match := range matchers {
		if !match(row) {
			return false
		}
	}
	return true
}

// Sum adds up all rows matching every given matcher, tax rows included.
func (s *Sheet) Sum(matchers ...RowMatcher) int64 {
	var total int64
	for _, row := range s.rows {
		if matches(row, matchers) {
			total += row.Amount
		}
	}
	return total
}

// Gross is the sum of all non-tax rows.
func (s *Sheet) Gross() int64 {
	var total int64
	for _, row := range s.rows {
		if row.Category == s.taxCategory {
			continue
		}
		total += row.Amount
	}
	return total
}

// TaxSum adds up the tax rows matching every given matcher. Callers scope it
// with ByBaseCategory or ByDiscount to attribute taxes to a slice of the
// sheet.
func (s *Sheet) TaxSum(matchers ...RowMatcher) int64 {
	var total int64
	for _, row := range s.rows {
		if row.Category != s.taxCategory {
			continue
		}
		if matches(row, matchers) {
			total += row.Amount
		}
	}
	return total
}

// Net is the gross total with all taxes stripped.
func (s *Sheet) Net() int64 {
	return s.Gross() - s.TaxSum()
}

// TotalFilter narrows Total to one category and/or discount. Filtered totals
// report net amounts, reconciled through the tax rows' BaseCategory linkage;
// the unfiltered total reports gross unless UseNetPrice is set.
type TotalFilter struct {
	Category    string
	DiscountID  string
	UseNetPrice bool
}

func (s *Sheet) Total(filter TotalFilter) Price {
	if filter.Category == "" && filter.DiscountID == "" {
		amount := s.Gross()
		if filter.UseNetPrice {
			amount = s.Net()
		}
		return Price{Amount: amount, CurrencyCode: s.currency}
	}

	var rowMatchers, taxMatchers []RowMatcher
	if filter.Category != "" {
		rowMatchers = append(rowMatchers, ByCategory(filter.Category))
		taxMatchers = append(taxMatchers, ByBaseCategory(filter.Category))
	}
	if filter.DiscountID != "" {
		rowMatchers = append(rowMatchers, ByDiscount(filter.DiscountID))
		taxMatchers = append(taxMatchers, ByDiscount(filter.DiscountID))
	}

	var amount int64
	for _, row := range s.rows {
		if row.Category == s.taxCategory {
			continue
		}
		if matches(row, rowMatchers) {
			amount += row.Amount
		}
	}
	return Price{Amount: amount - s.TaxSum(taxMatchers...), CurrencyCode: s.currency}
}
