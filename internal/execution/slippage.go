package execution

import (
	"errors"
	"math"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/ledger"
)

// ReferencePrice selects the base price a model derives its fill price
// from.
type ReferencePrice string

// Reference price constants.
const (
	// RefCurrentClose uses the signal bar's close price.
	RefCurrentClose ReferencePrice = "CURRENT_CLOSE"
	// RefNextOpen uses the next bar's open price.
	RefNextOpen ReferencePrice = "NEXT_OPEN"
)

// ErrInvalidSlippageRatio is returned when constructing a slippage model
// with a ratio outside [0, 1).
var ErrInvalidSlippageRatio = errors.New("slippage ratio must be in [0, 1)")

// SlippageModel worsens the reference price by a fixed ratio before
// filling: buys pay ref*(1+ratio), sells receive ref*(1-ratio). The full
// amount fills in one event at the slipped price.
type SlippageModel struct {
	ratio     float64
	reference ReferencePrice
}

// NewSlippageModel creates a slippage model. The ratio must satisfy
// 0 <= ratio < 1; anything else is an illegal configuration and fails
// immediately.
func NewSlippageModel(ratio float64, reference ReferencePrice) (*SlippageModel, error) {
	if math.IsNaN(ratio) || ratio < 0 || ratio >= 1 {
		return nil, ErrInvalidSlippageRatio
	}
	if reference != RefCurrentClose && reference != RefNextOpen {
		return nil, errors.New("unknown reference price")
	}
	return &SlippageModel{ratio: ratio, reference: reference}, nil
}

// OnBar is a no-op.
func (*SlippageModel) OnBar(int, *ledger.TradingRecord, domain.BarSeries) error { return nil }

// Execute resolves the reference price, applies slippage against the
// record's next trade side and fills the full amount. A next-open
// reference past the series end does not fill, mirroring NextOpenModel.
func (m *SlippageModel) Execute(index int, record *ledger.TradingRecord, series domain.BarSeries, amount float64) error {
	refIndex, refPrice, ok := m.resolveReference(index, series)
	if !ok {
		return nil
	}

	slipped := refPrice * (1 + m.ratio)
	if nextSide(record) == domain.SideSell {
		slipped = refPrice * (1 - m.ratio)
	}
	return record.Operate(refIndex, slipped, amount)
}

func (m *SlippageModel) resolveReference(index int, series domain.BarSeries) (int, float64, bool) {
	if m.reference == RefCurrentClose {
		return index, series.Bar(index).Close, true
	}
	next := index + 1
	if next > series.EndIndex() {
		return 0, 0, false
	}
	return next, series.Bar(next).Open, true
}

var _ Model = (*SlippageModel)(nil)
