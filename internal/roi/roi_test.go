package roi_test

import (
	"math"
	"testing"

	"github.com/hearthstone-io/hearthscout/internal/domain"
	"github.com/hearthstone-io/hearthscout/internal/roi"
)

func fptr(v float64) *float64 { return &v }
func sptr(s string) *string   { return &s }

func listing(price float64) domain.CanonicalListing {
	return domain.CanonicalListing{
		Price:        fptr(price),
		City:         sptr("Columbus"),
		Bedrooms:     fptr(3),
		PropertyType: domain.House,
	}
}

func TestCompute_MortgageMatchesAmortizationFormula(t *testing.T) {
	a := roi.Defaults()
	a.RentalYieldPercent = fptr(6)

	r := roi.Compute(listing(500000), a)
	if r.InsufficientData {
		t.Fatal("unexpected insufficient data")
	}

	// 500000 * 80% loan, 4.5%/12 monthly, 360 payments.
	loan := 400000.0
	i := 0.045 / 12
	n := 360.0
	want := loan * i * math.Pow(1+i, n) / (math.Pow(1+i, n) - 1)

	if r.MortgagePayment == nil {
		t.Fatal("mortgage payment missing")
	}
	if rel := math.Abs(*r.MortgagePayment-want) / want; rel > 1e-6 {
		t.Fatalf("payment %f, want %f (rel err %g)", *r.MortgagePayment, want, rel)
	}
}

func TestCompute_CashFlowAndCapRate(t *testing.T) {
	a := roi.Defaults()
	a.RentalYieldPercent = fptr(6)
	a.MonthlyHOA = 100

	r := roi.Compute(listing(500000), a)

	rent := 500000 * 0.06 / 12 // 2500
	if r.MonthlyRent == nil || math.Abs(*r.MonthlyRent-rent) > 1e-9 {
		t.Fatalf("rent: %v", r.MonthlyRent)
	}

	// vacancy 125 + tax 500 + insurance ~208.33 + maintenance ~416.67 +
	// management 200 + HOA 100 = 1550
	expenses := rent*0.05 + 500000*0.012/12 + 500000*0.005/12 + 500000*0.01/12 + rent*0.08 + 100
	if r.MonthlyExpenses == nil || math.Abs(*r.MonthlyExpenses-expenses) > 1e-9 {
		t.Fatalf("expenses: %v, want %f", *r.MonthlyExpenses, expenses)
	}

	wantCap := (rent - expenses) * 12 / 500000 * 100
	if r.CapRate == nil || math.Abs(*r.CapRate-wantCap) > 1e-9 {
		t.Fatalf("cap rate: %v, want %f", *r.CapRate, wantCap)
	}

	wantFlow := rent - expenses - *r.MortgagePayment
	if r.MonthlyCashFlow == nil || math.Abs(*r.MonthlyCashFlow-wantFlow) > 1e-9 {
		t.Fatalf("cash flow: %v, want %f", *r.MonthlyCashFlow, wantFlow)
	}
}

func TestCompute_MissingPrice(t *testing.T) {
	r := roi.Compute(domain.CanonicalListing{}, roi.Defaults())
	if !r.InsufficientData {
		t.Fatal("missing price must be insufficient data")
	}
	if r.MonthlyRent != nil || r.CapRate != nil || r.EquityAtHorizon != nil {
		t.Fatalf("metrics must be nil: %+v", r)
	}
	if r.Recommendation != "Insufficient Data" {
		t.Fatalf("recommendation: %q", r.Recommendation)
	}
}

func TestCompute_AllCashPurchase(t *testing.T) {
	a := roi.Defaults()
	a.DownPaymentPct = 100
	a.RentalYieldPercent = fptr(8)

	r := roi.Compute(listing(300000), a)
	if r.MortgagePayment == nil || *r.MortgagePayment != 0 {
		t.Fatalf("all-cash payment: %v", r.MortgagePayment)
	}
	if r.CashOnCashReturn == nil {
		t.Fatal("all-cash still invests the down payment")
	}
	if r.EquityAtHorizon == nil {
		t.Fatal("equity projection missing")
	}
	// No loan balance: equity is just the appreciated value.
	want := 300000 * math.Pow(1+r.AppreciationRate/100, 5)
	if math.Abs(*r.EquityAtHorizon-want) > 1e-6 {
		t.Fatalf("equity: %f, want %f", *r.EquityAtHorizon, want)
	}
}

func TestCompute_EquityUsesStraightLinePrincipal(t *testing.T) {
	a := roi.Defaults()
	a.RentalYieldPercent = fptr(6)
	a.AppreciationRate = fptr(3)

	r := roi.Compute(listing(500000), a)

	loan := 400000.0
	paid := loan / 360 * 60
	want := 500000*math.Pow(1.03, 5) - (loan - paid)
	if r.EquityAtHorizon == nil || math.Abs(*r.EquityAtHorizon-want) > 1e-6 {
		t.Fatalf("equity: %v, want %f", r.EquityAtHorizon, want)
	}
}

func TestCompute_YieldHeuristics(t *testing.T) {
	a := roi.Defaults()

	base := roi.Compute(listing(300000), a)

	expensive := listing(300000)
	expensive.City = sptr("San Francisco")
	low := roi.Compute(expensive, a)

	cheap := listing(300000)
	cheap.City = sptr("Cleveland Heights")
	high := roi.Compute(cheap, a)

	if !(low.RentalYieldPercent < base.RentalYieldPercent) {
		t.Errorf("expensive city should lower yield: %f vs %f", low.RentalYieldPercent, base.RentalYieldPercent)
	}
	if !(high.RentalYieldPercent > base.RentalYieldPercent) {
		t.Errorf("high-yield city should raise yield: %f vs %f", high.RentalYieldPercent, base.RentalYieldPercent)
	}
	if !(low.AppreciationRate > base.AppreciationRate) {
		t.Errorf("expensive city should appreciate faster: %f vs %f", low.AppreciationRate, base.AppreciationRate)
	}

	multi := listing(300000)
	multi.PropertyType = domain.MultiFamily
	if got := roi.Compute(multi, a); !(got.RentalYieldPercent > base.RentalYieldPercent) {
		t.Errorf("multi-family should out-yield a house: %f vs %f", got.RentalYieldPercent, base.RentalYieldPercent)
	}

	override := a
	override.RentalYieldPercent = fptr(9.25)
	if got := roi.Compute(listing(300000), override); got.RentalYieldPercent != 9.25 {
		t.Errorf("override ignored: %f", got.RentalYieldPercent)
	}
}

func TestCompute_Recommendation(t *testing.T) {
	a := roi.Defaults()

	// A strong yield on a cheap property cash-flows well.
	strong := a
	strong.RentalYieldPercent = fptr(14)
	r := roi.Compute(listing(200000), strong)
	if r.Recommendation != "Excellent Investment" {
		t.Errorf("strong case: %q (coc=%v cap=%v flow=%v)",
			r.Recommendation, r.CashOnCashReturn, r.CapRate, r.MonthlyCashFlow)
	}

	// A thin yield cannot cover the mortgage.
	weak := a
	weak.RentalYieldPercent = fptr(3)
	r = roi.Compute(listing(800000), weak)
	if r.Recommendation != "Poor Investment" {
		t.Errorf("weak case: %q (flow=%v)", r.Recommendation, r.MonthlyCashFlow)
	}
	if r.MonthlyCashFlow == nil || *r.MonthlyCashFlow >= 0 {
		t.Errorf("weak case should be cash-flow negative: %v", r.MonthlyCashFlow)
	}
}
