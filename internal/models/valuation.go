package models

import "time"

// Blend weights for the three fair-value multiples.
const (
	WeightFairEV = 0.5
	WeightFairPE = 0.25
	WeightFairPS = 0.25
)

// ValuationMetrics holds the derived per-share fair-value multiples and
// supporting figures for one symbol. Instances are never mutated after
// derivation; Weighted always equals the blend of the three multiples.
type ValuationMetrics struct {
	Symbol          string  `json:"symbol"`
	Price           float64 `json:"price"`
	FairEV          float64 `json:"fair_ev"`
	FairPE          float64 `json:"fair_pe"`
	FairPS          float64 `json:"fair_ps"`
	Weighted        float64 `json:"weighted"`
	BookValue       float64 `json:"book_value"`
	GrossMargin     float64 `json:"gross_margin"`     // percentage
	NetMargin       float64 `json:"net_margin"`       // percentage
	OperatingMargin float64 `json:"operating_margin"` // percentage
	Currency        string  `json:"currency"`
}

// CachedMetrics wraps ValuationMetrics with its capture timestamp for the
// 30-minute read-through cache.
type CachedMetrics struct {
	Symbol     string           `json:"symbol"`
	CapturedAt time.Time        `json:"captured_at"`
	Data       ValuationMetrics `json:"data"`
}

// Statistics holds the fields extracted from the statistics endpoint,
// already coerced to zero-defaulted numbers.
type Statistics struct {
	EnterpriseValue   float64 `json:"enterprise_value"`
	ForwardPE         float64 `json:"forward_pe"`
	PriceToSales      float64 `json:"price_to_sales"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	BookValue         float64 `json:"book_value"`
	GrossMargin       float64 `json:"gross_margin"`     // fraction
	NetMargin         float64 `json:"net_margin"`       // fraction
	OperatingMargin   float64 `json:"operating_margin"` // fraction
}

// BalanceSheet holds the fields extracted from the most recent balance sheet.
type BalanceSheet struct {
	LongTermDebt float64 `json:"long_term_debt"`
	Cash         float64 `json:"cash"`
}

// IncomeStatement holds the fields extracted from the most recent income statement.
type IncomeStatement struct {
	Sales     float64 `json:"sales"`
	NetIncome float64 `json:"net_income"`
}

// ValuationInputs collects the raw figures feeding the derivation.
type ValuationInputs struct {
	Price           float64
	Statistics      Statistics
	BalanceSheet    BalanceSheet
	IncomeStatement IncomeStatement
}

// DeriveValuation computes the three fair-value multiples and their weighted
// blend. When shares outstanding is not positive all three multiples are zero.
// Margins convert fraction to percentage; book value passes through untouched.
func DeriveValuation(symbol, currency string, in ValuationInputs) ValuationMetrics {
	st := in.Statistics

	var fairEV, fairPE, fairPS float64
	if st.SharesOutstanding > 0 {
		fairEV = (st.EnterpriseValue - in.BalanceSheet.LongTermDebt + in.BalanceSheet.Cash) / st.SharesOutstanding
		fairPE = (st.ForwardPE * in.IncomeStatement.NetIncome) / st.SharesOutstanding
		fairPS = (st.PriceToSales * in.IncomeStatement.Sales) / st.SharesOutstanding
	}

	return ValuationMetrics{
		Symbol:          symbol,
		Price:           in.Price,
		FairEV:          fairEV,
		FairPE:          fairPE,
		FairPS:          fairPS,
		Weighted:        WeightFairEV*fairEV + WeightFairPE*fairPE + WeightFairPS*fairPS,
		BookValue:       st.BookValue,
		GrossMargin:     st.GrossMargin * 100,
		NetMargin:       st.NetMargin * 100,
		OperatingMargin: st.OperatingMargin * 100,
		Currency:        currency,
	}
}

// ZeroValuation returns the degraded-mode metrics produced when no market-data
// credential is configured: all numeric fields zero, currency populated.
func ZeroValuation(symbol, currency string) ValuationMetrics {
	return ValuationMetrics{Symbol: symbol, Currency: currency}
}
