// Package cost provides transaction and holding cost models.
//
// A cost model is a pure function of price and amount; the ledger calls it
// exactly once per fill.
package cost

// Model computes the fee charged for executing one trade.
type Model interface {
	// Cost returns the fee for trading the given amount at the given price.
	Cost(price, amount float64) float64
}

// ZeroCost charges nothing. It is the default model.
type ZeroCost struct{}

// Cost always returns 0.
func (ZeroCost) Cost(price, amount float64) float64 { return 0 }

// FixedCost charges a flat fee per trade regardless of size.
type FixedCost struct {
	Fee float64
}

// Cost returns the flat fee.
func (m FixedCost) Cost(price, amount float64) float64 { return m.Fee }

// LinearCost charges a percentage of the traded value plus an optional
// flat fee: rate*price*amount + fixed.
type LinearCost struct {
	Rate  float64 // fraction of traded value, e.g. 0.005 for 0.5%
	Fixed float64 // flat fee added per trade
}

// Cost returns rate*price*amount + fixed.
func (m LinearCost) Cost(price, amount float64) float64 {
	return m.Rate*price*amount + m.Fixed
}

var (
	_ Model = ZeroCost{}
	_ Model = FixedCost{}
	_ Model = LinearCost{}
)
