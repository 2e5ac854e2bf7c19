// Package roi computes investment metrics for a single listing. Compute is a
// pure function of the listing and the assumptions; nothing here touches
// storage or the network.
package roi

import (
	"math"
	"strings"

	"github.com/hearthstone-io/hearthscout/internal/domain"
)

// Defaults are conventional financing assumptions: 20% down on a 30-year
// loan, with carrying costs quoted as annual percentages of the price.
func Defaults() domain.FinancialAssumptions {
	return domain.FinancialAssumptions{
		DownPaymentPct:  20,
		InterestRate:    4.5,
		LoanTermYears:   30,
		VacancyRate:     5,
		PropertyTaxRate: 1.2,
		InsuranceRate:   0.5,
		MaintenanceRate: 1.0,
		ManagementRate:  8,
		HorizonYears:    5,
	}
}

// Gross annual rent as a percentage of price, by property type. Smaller
// multi-unit stock rents at a higher share of its value than single-family.
var baseYields = map[domain.PropertyType]float64{
	domain.MultiFamily: 8.0,
	domain.Apartment:   7.5,
	domain.Commercial:  7.0,
	domain.Condo:       6.5,
	domain.Townhouse:   6.0,
	domain.House:       5.5,
	domain.Land:        1.0,
	domain.UnknownType: 6.0,
}

// City-tier name fragments. High-yield markets rent well relative to price
// but appreciate slowly; low-yield (expensive coastal) markets invert that.
var (
	highYieldCities = []string{
		"cleveland", "detroit", "memphis", "birmingham", "toledo",
		"dayton", "akron", "baltimore", "milwaukee",
	}
	lowYieldCities = []string{
		"san francisco", "new york", "seattle", "san jose", "boston",
		"los angeles", "san diego", "austin", "miami", "denver",
	}
)

const (
	baseAppreciation      = 3.0
	cityYieldAdjustment   = 1.5
	cityAppreciationBoost = 1.5
	bedroomYieldStep      = 0.2
)

func cityTier(city string) (yieldAdj, appreciationAdj float64) {
	low := strings.ToLower(city)
	for _, frag := range highYieldCities {
		if strings.Contains(low, frag) {
			return cityYieldAdjustment, -0.5
		}
	}
	for _, frag := range lowYieldCities {
		if strings.Contains(low, frag) {
			return -cityYieldAdjustment, cityAppreciationBoost
		}
	}
	return 0, 0
}

// estimateYield derives a gross rental yield from the property type, the
// city tier and the bedroom count. Smaller units rent at a slightly higher
// share of price; the result is kept inside a sane 1-15% band.
func estimateYield(l *domain.CanonicalListing) float64 {
	y := baseYields[domain.UnknownType]
	if base, ok := baseYields[l.PropertyType]; ok {
		y = base
	}
	if l.City != nil {
		adj, _ := cityTier(*l.City)
		y += adj
	}
	if l.Bedrooms != nil {
		y += bedroomYieldStep * (3 - *l.Bedrooms)
	}
	return math.Min(15, math.Max(1, y))
}

func estimateAppreciation(l *domain.CanonicalListing) float64 {
	a := baseAppreciation
	if l.City != nil {
		_, adj := cityTier(*l.City)
		a += adj
	}
	return a
}

// mortgagePayment is the standard amortization formula with a monthly rate.
// Zero loan means zero payment; zero interest degenerates to straight
// division.
func mortgagePayment(loan, annualRatePct float64, termYears int) float64 {
	if loan <= 0 || termYears <= 0 {
		return 0
	}
	n := float64(termYears * 12)
	i := annualRatePct / 100 / 12
	if i == 0 {
		return loan / n
	}
	factor := math.Pow(1+i, n)
	return loan * i * factor / (factor - 1)
}

// Compute derives the full metric set for one listing. A missing or
// non-positive price short-circuits to an insufficient-data result with
// every metric nil.
func Compute(l domain.CanonicalListing, a domain.FinancialAssumptions) domain.ROIResult {
	if l.Price == nil || *l.Price <= 0 {
		return domain.ROIResult{
			InsufficientData: true,
			Recommendation:   "Insufficient Data",
		}
	}
	price := *l.Price

	yield := estimateYield(&l)
	if a.RentalYieldPercent != nil {
		yield = *a.RentalYieldPercent
	}
	appreciation := estimateAppreciation(&l)
	if a.AppreciationRate != nil {
		appreciation = *a.AppreciationRate
	}

	rent := price * yield / 100 / 12

	down := price * a.DownPaymentPct / 100
	loan := price - down
	payment := mortgagePayment(loan, a.InterestRate, a.LoanTermYears)

	expenses := rent*a.VacancyRate/100 +
		price*a.PropertyTaxRate/100/12 +
		price*a.InsuranceRate/100/12 +
		price*a.MaintenanceRate/100/12 +
		rent*a.ManagementRate/100 +
		a.MonthlyUtilities +
		a.MonthlyHOA

	cashFlow := rent - expenses - payment
	noi := (rent - expenses) * 12
	capRate := noi / price * 100

	out := domain.ROIResult{
		MonthlyRent:        &rent,
		MortgagePayment:    &payment,
		MonthlyExpenses:    &expenses,
		MonthlyCashFlow:    &cashFlow,
		CapRate:            &capRate,
		RentalYieldPercent: yield,
		AppreciationRate:   appreciation,
	}

	var coc *float64
	if down > 0 {
		v := cashFlow * 12 / down * 100
		coc = &v
		out.CashOnCashReturn = coc
	}

	if a.HorizonYears > 0 {
		months := float64(a.HorizonYears * 12)
		futureValue := price * math.Pow(1+appreciation/100, float64(a.HorizonYears))

		// Straight-line principal approximation: the balance shrinks by the
		// loan's average monthly principal share rather than by a true
		// amortization schedule. Understates early-year balances slightly.
		var balance float64
		if loan > 0 && a.LoanTermYears > 0 {
			paid := loan / float64(a.LoanTermYears*12) * months
			balance = math.Max(0, loan-paid)
		}
		equity := futureValue - balance
		out.EquityAtHorizon = &equity

		if down > 0 {
			totalGain := (equity - down) + cashFlow*months
			total := totalGain / down * 100
			out.TotalROIPercent = &total
			if total > -100 {
				annualized := (math.Pow(1+total/100, 1/float64(a.HorizonYears)) - 1) * 100
				out.AnnualizedROI = &annualized
			}
		}
	}

	out.Recommendation = recommend(cashFlow, capRate, coc)
	return out
}

// recommend buckets the core cash metrics into a categorical call. With a
// 100% cash purchase there is no cash-on-cash figure, so the cap rate
// carries the decision alone.
func recommend(cashFlow, capRate float64, coc *float64) string {
	cocOK := func(threshold float64) bool {
		if coc == nil {
			return true
		}
		return *coc >= threshold
	}
	switch {
	case cashFlow > 0 && capRate >= 6 && cocOK(8):
		return "Excellent Investment"
	case cashFlow > 0 && capRate >= 4 && cocOK(5):
		return "Good Investment"
	case cashFlow > 0:
		return "Fair Investment"
	default:
		return "Poor Investment"
	}
}
