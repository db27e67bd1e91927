package execution

import (
	"errors"
	"math"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/ledger"
)

// Stop-limit configuration errors.
var (
	ErrInvalidRatio         = errors.New("ratio must be positive or zero")
	ErrInvalidParticipation = errors.New("max bar participation must be in (0, 1]")
	ErrLimitBelowStop       = errors.New("limit offset ratio must be >= stop trigger ratio")
	ErrInvalidMaxBars       = errors.New("max bars to fill must be >= 1")
)

// Rejection reasons.
const (
	reasonInvalidAmount = "invalid requested amount"
	reasonOrderPending  = "signal ignored while another stop-limit order is pending"
	reasonNoReference   = "unable to resolve reference bar for stop-limit order"
	reasonExpired       = "stop-limit order expired before filling requested amount"
)

// RejectedOrder describes a signal that did not become a complete trade.
type RejectedOrder struct {
	SignalIndex     int
	RejectionIndex  int
	Side            domain.Side
	RequestedAmount float64
	FilledAmount    float64
	Reason          string
}

// PendingOrderSnapshot is a read-only view of a pending stop-limit order.
type PendingOrderSnapshot struct {
	SignalIndex     int
	ActivationIndex int
	Side            domain.Side
	RequestedAmount float64
	FilledAmount    float64
	StopPrice       float64
	LimitPrice      float64
	ExpiryIndex     int
	Triggered       bool
	Fills           []domain.Fill
}

// pendingOrder is the only mutable-in-place entity of the engine. It lives
// exclusively inside the model's per-record state, never in the ledger.
type pendingOrder struct {
	signalIndex     int
	activationIndex int
	side            domain.Side
	requestedAmount float64
	stopPrice       float64
	limitPrice      float64
	expiryIndex     int

	triggered    bool
	filledAmount float64
	fills        []domain.Fill
}

func (o *pendingOrder) remaining() float64 { return o.requestedAmount - o.filledAmount }

func (o *pendingOrder) recordFill(index int, price, amount float64) {
	o.fills = append(o.fills, domain.Fill{Index: index, Price: price, Amount: amount})
	o.filledAmount += amount
}

func (o *pendingOrder) completelyFilled() bool { return o.remaining() <= 0 }

func (o *pendingOrder) hasAnyFill() bool { return o.filledAmount > 0 }

func (o *pendingOrder) toTrade(record *ledger.TradingRecord) (*domain.Trade, error) {
	return domain.AggregateTrade(o.side, o.fills, record.TransactionCostModel())
}

func (o *pendingOrder) expiryRejection(index int) RejectedOrder {
	return RejectedOrder{
		SignalIndex:     o.signalIndex,
		RejectionIndex:  index,
		Side:            o.side,
		RequestedAmount: o.requestedAmount,
		FilledAmount:    o.filledAmount,
		Reason:          reasonExpired,
	}
}

func (o *pendingOrder) snapshot() PendingOrderSnapshot {
	fills := make([]domain.Fill, len(o.fills))
	copy(fills, o.fills)
	return PendingOrderSnapshot{
		SignalIndex:     o.signalIndex,
		ActivationIndex: o.activationIndex,
		Side:            o.side,
		RequestedAmount: o.requestedAmount,
		FilledAmount:    o.filledAmount,
		StopPrice:       o.stopPrice,
		LimitPrice:      o.limitPrice,
		ExpiryIndex:     o.expiryIndex,
		Triggered:       o.triggered,
		Fills:           fills,
	}
}

// StopLimitModel places a stop-limit order per strategy signal and fills
// it progressively, capped by per-bar volume participation.
//
// Order lifecycle: created on signal, trigger-checked then limit-checked
// on every bar from its activation index, terminal by complete fill
// (committed as one aggregated trade) or expiry. On expiry, a partially
// filled entry order is committed at its partial amount so a started
// position is never silently discarded, while a partially filled exit
// order is fully rejected: committing a partial exit would leave the
// single-open-position invariant in an ambiguous state. Every expiry
// shortfall also records a RejectedOrder.
//
// Pending and rejected state is keyed by trading-record identity, so one
// model instance can serve several records without collisions. A model
// instance is not safe for concurrent use; parallel runs get their own
// instances.
type StopLimitModel struct {
	stopTriggerRatio        float64
	limitOffsetRatio        float64
	maxBarParticipationRate float64
	maxBarsToFill           int
	reference               ReferencePrice

	pending  map[*ledger.TradingRecord]*pendingOrder
	rejected map[*ledger.TradingRecord][]RejectedOrder
}

// NewStopLimitModel creates a stop-limit model. The limit offset ratio
// must be >= the stop trigger ratio, participation must be in (0, 1] and
// maxBarsToFill >= 1; an illegal configuration fails immediately.
func NewStopLimitModel(stopTriggerRatio, limitOffsetRatio, maxBarParticipation float64, maxBarsToFill int, reference ReferencePrice) (*StopLimitModel, error) {
	if math.IsNaN(stopTriggerRatio) || stopTriggerRatio < 0 {
		return nil, ErrInvalidRatio
	}
	if math.IsNaN(limitOffsetRatio) || limitOffsetRatio < 0 {
		return nil, ErrInvalidRatio
	}
	if math.IsNaN(maxBarParticipation) || maxBarParticipation <= 0 || maxBarParticipation > 1 {
		return nil, ErrInvalidParticipation
	}
	if limitOffsetRatio < stopTriggerRatio {
		return nil, ErrLimitBelowStop
	}
	if maxBarsToFill < 1 {
		return nil, ErrInvalidMaxBars
	}
	if reference != RefCurrentClose && reference != RefNextOpen {
		return nil, errors.New("unknown reference price")
	}
	return &StopLimitModel{
		stopTriggerRatio:        stopTriggerRatio,
		limitOffsetRatio:        limitOffsetRatio,
		maxBarParticipationRate: maxBarParticipation,
		maxBarsToFill:           maxBarsToFill,
		reference:               reference,
		pending:                 make(map[*ledger.TradingRecord]*pendingOrder),
		rejected:                make(map[*ledger.TradingRecord][]RejectedOrder),
	}, nil
}

// RejectedOrders returns a copy of the rejection history for a record.
func (m *StopLimitModel) RejectedOrders(record *ledger.TradingRecord) []RejectedOrder {
	src := m.rejected[record]
	out := make([]RejectedOrder, len(src))
	copy(out, src)
	return out
}

// PendingOrder returns a snapshot of the record's pending order, if any.
func (m *StopLimitModel) PendingOrder(record *ledger.TradingRecord) (PendingOrderSnapshot, bool) {
	order, ok := m.pending[record]
	if !ok {
		return PendingOrderSnapshot{}, false
	}
	return order.snapshot(), true
}

// Execute opens a pending stop-limit order for the signal, or records a
// rejection when the signal cannot be honored. A second signal while an
// order is pending is rejected, not queued.
func (m *StopLimitModel) Execute(index int, record *ledger.TradingRecord, series domain.BarSeries, amount float64) error {
	if math.IsNaN(amount) || amount <= 0 {
		// Keep a negative request as-is in the diagnostic record,
		// zero out only NaN.
		requested := amount
		if math.IsNaN(requested) {
			requested = 0
		}
		m.addRejection(record, RejectedOrder{
			SignalIndex:     index,
			RejectionIndex:  index,
			Side:            nextSide(record),
			RequestedAmount: requested,
			Reason:          reasonInvalidAmount,
		})
		return nil
	}

	requested := m.resolveRequestedAmount(record, amount)
	if order, ok := m.pending[record]; ok {
		m.addRejection(record, RejectedOrder{
			SignalIndex:     index,
			RejectionIndex:  index,
			Side:            order.side,
			RequestedAmount: order.requestedAmount,
			FilledAmount:    order.filledAmount,
			Reason:          reasonOrderPending,
		})
		return nil
	}

	refIndex, refPrice, ok := m.resolveReference(index, series)
	if !ok {
		m.addRejection(record, RejectedOrder{
			SignalIndex:     index,
			RejectionIndex:  index,
			Side:            nextSide(record),
			RequestedAmount: requested,
			Reason:          reasonNoReference,
		})
		return nil
	}

	side := nextSide(record)
	m.pending[record] = &pendingOrder{
		signalIndex:     index,
		activationIndex: refIndex,
		side:            side,
		requestedAmount: requested,
		stopPrice:       m.stopPrice(refPrice, side),
		limitPrice:      m.limitPrice(refPrice, side),
		expiryIndex:     refIndex + m.maxBarsToFill - 1,
	}
	return nil
}

// OnBar progresses the record's pending order: trigger check first, then
// limit-fill check, then completion or expiry handling.
func (m *StopLimitModel) OnBar(index int, record *ledger.TradingRecord, series domain.BarSeries) error {
	order, ok := m.pending[record]
	if !ok || index < order.activationIndex {
		return nil
	}

	bar := series.Bar(index)
	if !order.triggered {
		order.triggered = triggerReached(order.side, bar, order.stopPrice)
	}

	if order.triggered && limitReachable(order.side, bar, order.limitPrice) {
		fill := m.fillAmount(order.remaining(), bar.Volume)
		if fill > 0 {
			order.recordFill(index, order.limitPrice, fill)
		}
	}

	if order.completelyFilled() {
		trade, err := order.toTrade(record)
		if err != nil {
			return err
		}
		if err := record.OperateTrade(trade); err != nil {
			return err
		}
		delete(m.pending, record)
		return nil
	}

	if index >= order.expiryIndex {
		if order.hasAnyFill() && order.side == record.StartingSide() {
			trade, err := order.toTrade(record)
			if err != nil {
				return err
			}
			if err := record.OperateTrade(trade); err != nil {
				return err
			}
		}
		m.addRejection(record, order.expiryRejection(index))
		delete(m.pending, record)
	}
	return nil
}

func (m *StopLimitModel) resolveReference(signalIndex int, series domain.BarSeries) (int, float64, bool) {
	if m.reference == RefCurrentClose {
		return signalIndex, series.Bar(signalIndex).Close, true
	}
	next := signalIndex + 1
	if next > series.EndIndex() {
		return 0, 0, false
	}
	return next, series.Bar(next).Open, true
}

// resolveRequestedAmount pins an exit order's amount to the open entry's
// amount so a closed position always balances.
func (m *StopLimitModel) resolveRequestedAmount(record *ledger.TradingRecord, amount float64) float64 {
	if record.IsClosed() {
		return amount
	}
	return record.CurrentPosition().Entry().Amount
}

func (m *StopLimitModel) stopPrice(reference float64, side domain.Side) float64 {
	if side == domain.SideBuy {
		return reference * (1 + m.stopTriggerRatio)
	}
	return reference * (1 - m.stopTriggerRatio)
}

func (m *StopLimitModel) limitPrice(reference float64, side domain.Side) float64 {
	if side == domain.SideBuy {
		return reference * (1 + m.limitOffsetRatio)
	}
	return reference * (1 - m.limitOffsetRatio)
}

// fillAmount caps the fill by bar volume participation. Without usable
// volume data the cap is meaningless and the full remainder fills.
func (m *StopLimitModel) fillAmount(remaining, barVolume float64) float64 {
	available := remaining
	if !math.IsNaN(barVolume) && barVolume > 0 {
		available = barVolume * m.maxBarParticipationRate
	}
	if math.IsNaN(available) || available <= 0 {
		return 0
	}
	return math.Min(available, remaining)
}

func (m *StopLimitModel) addRejection(record *ledger.TradingRecord, r RejectedOrder) {
	m.rejected[record] = append(m.rejected[record], r)
}

func triggerReached(side domain.Side, bar domain.Bar, stopPrice float64) bool {
	if side == domain.SideBuy {
		return bar.High >= stopPrice
	}
	return bar.Low <= stopPrice
}

func limitReachable(side domain.Side, bar domain.Bar, limitPrice float64) bool {
	if side == domain.SideBuy {
		return bar.Low <= limitPrice
	}
	return bar.High >= limitPrice
}

var _ Model = (*StopLimitModel)(nil)
