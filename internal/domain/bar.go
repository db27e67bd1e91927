package domain

import "errors"

// Bar represents one OHLCV observation for a fixed time period.
type Bar struct {
	OpenTimeMs int64 // period start (ms since epoch), optional
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64 // 0 or NaN when the feed has no volume data
}

// BarSeries provides read-only random access to bars by index.
// A series must never be mutated while a replay is running; the same
// series may be shared by any number of concurrent replays.
type BarSeries interface {
	// Name returns the series identifier.
	Name() string

	// Bar returns the bar at the given index.
	// Index must be within [BeginIndex, EndIndex].
	Bar(index int) Bar

	// BeginIndex returns the first valid bar index.
	BeginIndex() int

	// EndIndex returns the last valid bar index (-1 when empty).
	EndIndex() int

	// BarCount returns the number of bars in the series.
	BarCount() int
}

// ErrEmptySeries is returned when constructing a series without bars.
var ErrEmptySeries = errors.New("bar series must contain at least one bar")

// BaseBarSeries is a slice-backed BarSeries.
type BaseBarSeries struct {
	name string
	bars []Bar
}

// NewBaseBarSeries creates a series from a bar slice. The slice is copied
// so later mutations by the caller cannot leak into a running replay.
func NewBaseBarSeries(name string, bars []Bar) (*BaseBarSeries, error) {
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}
	owned := make([]Bar, len(bars))
	copy(owned, bars)
	return &BaseBarSeries{name: name, bars: owned}, nil
}

// Name returns the series identifier.
func (s *BaseBarSeries) Name() string { return s.name }

// Bar returns the bar at the given index.
func (s *BaseBarSeries) Bar(index int) Bar { return s.bars[index] }

// BeginIndex returns the first valid bar index.
func (s *BaseBarSeries) BeginIndex() int { return 0 }

// EndIndex returns the last valid bar index.
func (s *BaseBarSeries) EndIndex() int { return len(s.bars) - 1 }

// BarCount returns the number of bars.
func (s *BaseBarSeries) BarCount() int { return len(s.bars) }

var _ BarSeries = (*BaseBarSeries)(nil)
