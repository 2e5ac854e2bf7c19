package domain

// FinancialAssumptions configures one ROI computation. Percent fields are
// whole percentages (4.5 means 4.5%), matching how they are quoted.
type FinancialAssumptions struct {
	// RentalYieldPercent and AppreciationRate override the heuristics when
	// set; nil means "estimate from the listing".
	RentalYieldPercent *float64 `json:"rental_yield_percent,omitempty"`
	AppreciationRate   *float64 `json:"appreciation_rate,omitempty"`

	DownPaymentPct  float64 `json:"down_payment_pct"`
	InterestRate    float64 `json:"interest_rate"`
	LoanTermYears   int     `json:"loan_term_years"`
	VacancyRate     float64 `json:"vacancy_rate"`
	PropertyTaxRate float64 `json:"property_tax_rate"` // %/yr of price
	InsuranceRate   float64 `json:"insurance_rate"`    // %/yr of price
	MaintenanceRate float64 `json:"maintenance_rate"`  // %/yr of price
	ManagementRate  float64 `json:"management_rate"`   // %/mo of rent

	MonthlyUtilities float64 `json:"monthly_utilities"`
	MonthlyHOA       float64 `json:"monthly_hoa"`

	HorizonYears int `json:"horizon_years"`
}

// ROIResult is ephemeral: a pure function of one listing and one set of
// assumptions, never persisted. All metrics are nil when InsufficientData.
type ROIResult struct {
	InsufficientData bool `json:"insufficient_data"`

	MonthlyRent      *float64 `json:"monthly_rent"`
	MortgagePayment  *float64 `json:"mortgage_payment"`
	MonthlyExpenses  *float64 `json:"monthly_expenses"`
	MonthlyCashFlow  *float64 `json:"monthly_cash_flow"`
	CapRate          *float64 `json:"cap_rate"`
	CashOnCashReturn *float64 `json:"cash_on_cash_return"`
	EquityAtHorizon  *float64 `json:"equity_at_horizon"`
	TotalROIPercent  *float64 `json:"total_roi_pct"`
	AnnualizedROI    *float64 `json:"annualized_roi"`

	RentalYieldPercent float64 `json:"rental_yield_percent"`
	AppreciationRate   float64 `json:"appreciation_rate"`

	Recommendation string `json:"recommendation"`
}
