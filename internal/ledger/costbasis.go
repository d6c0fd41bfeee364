package ledger

import "github.com/shopspring/decimal"

// Cost-basis arithmetic runs on decimals so that repeated buys and sells do not
// accumulate binary floating point residue (e.g. 0.1+0.2 of a coin sold as 0.3
// must leave exactly zero holdings).

// weightedAverage returns the new average buy price after buying amount at price
// on top of holdings bought at avg.
func weightedAverage(holdings, avg, amount, price float64) float64 {
	h := decimal.NewFromFloat(holdings)
	a := decimal.NewFromFloat(amount)
	total := h.Add(a)
	if total.IsZero() {
		return 0
	}
	cost := h.Mul(decimal.NewFromFloat(avg)).Add(a.Mul(decimal.NewFromFloat(price)))
	return cost.Div(total).InexactFloat64()
}

// addHoldings returns holdings + amount.
func addHoldings(holdings, amount float64) float64 {
	return decimal.NewFromFloat(holdings).Add(decimal.NewFromFloat(amount)).InexactFloat64()
}

// subtractHoldings returns holdings - amount, clamped at zero.
func subtractHoldings(holdings, amount float64) float64 {
	rest := decimal.NewFromFloat(holdings).Sub(decimal.NewFromFloat(amount))
	if rest.IsNegative() {
		return 0
	}
	return rest.InexactFloat64()
}

// realizedPnl returns the profit locked in by selling amount at price against avg.
func realizedPnl(amount, price, avg float64) float64 {
	a := decimal.NewFromFloat(amount)
	return a.Mul(decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(avg))).InexactFloat64()
}

// totalValue returns amount * price.
func totalValue(amount, price float64) float64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(price)).InexactFloat64()
}
