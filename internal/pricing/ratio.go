package pricing

// RatioAndTaxDivisor proportionally attributes a sheet's tax load when an
// amount derived from it is redistributed across categories.
type RatioAndTaxDivisor struct {
	Ratio      float64
	TaxDivisor float64
}

// ResolveRatioAndTaxDivisor relates a sheet's gross to an externally known
// total. A zero total or missing sheet yields neutral factors; a fully
// discounted sheet (gross equals tax) yields zero factors to keep callers
// out of a division by zero.
func ResolveRatioAndTaxDivisor(sheet *Sheet, total int64) RatioAndTaxDivisor {
	if total == 0 || !sheet.IsValid() {
		return RatioAndTaxDivisor{Ratio: 1, TaxDivisor: 1}
	}
	gross := sheet.Gross()
	tax := sheet.TaxSum()
	if gross-tax == 0 {
		return RatioAndTaxDivisor{Ratio: 0, TaxDivisor: 0}
	}
	return RatioAndTaxDivisor{
		Ratio:      float64(gross) / float64(total),
		TaxDivisor: float64(gross) / float64(gross-tax),
	}
}
