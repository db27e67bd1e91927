package domain

// RunResult is the persisted summary of one (strategy, series) backtest
// run. Corresponds to the run_results table.
type RunResult struct {
	RunID        string // deterministic hash
	SeriesName   string
	StrategyName string

	StartingSide Side
	StartIndex   int
	EndIndex     int

	// Ledger totals
	TradeCount     int
	PositionCount  int
	RejectedOrders int

	// Outcome
	TotalProfitLoss float64
	Wins            int
	Losses          int
	BreakEvens      int

	// Metadata
	DurationMs  int64 // wall-clock run time
	CreatedAtMs int64
}

// TradeLog is one persisted trade of a run, in execution order.
// Corresponds to the trade_logs table; (run_id, seq) is the key.
type TradeLog struct {
	RunID    string
	Seq      int
	Side     Side
	BarIndex int
	Price    float64
	Amount   float64
	Cost     float64
	NetPrice float64
}
