package strategy

import (
	"testing"

	"backtest-lab/internal/domain"
	"backtest-lab/internal/ledger"
)

func makeSeries(t *testing.T, closes ...float64) *domain.BaseBarSeries {
	t.Helper()
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			OpenTimeMs: int64(i),
			Open:       c,
			High:       c + 1,
			Low:        c - 1,
			Close:      c,
			Volume:     1000,
		}
	}
	series, err := domain.NewBaseBarSeries("test", bars)
	if err != nil {
		t.Fatalf("NewBaseBarSeries failed: %v", err)
	}
	return series
}

func TestAtIndexesStrategy_Signals(t *testing.T) {
	s := NewAtIndexesStrategy([]int{1, 4}, []int{3})
	record := ledger.New(domain.SideBuy, nil, nil)

	for index, want := range map[int]bool{0: false, 1: true, 2: false, 4: true} {
		if got := s.ShouldEnter(index, record); got != want {
			t.Errorf("ShouldEnter(%d) = %v, want %v", index, got, want)
		}
	}
	if !s.ShouldExit(3, record) {
		t.Error("ShouldExit(3) should be true")
	}
	if s.ShouldExit(1, record) {
		t.Error("ShouldExit(1) should be false")
	}
	if s.Name() != "AT_INDEXES_2x1" {
		t.Errorf("unexpected name %q", s.Name())
	}
}

func TestThresholdStrategy_Signals(t *testing.T) {
	series := makeSeries(t, 100, 95, 90, 105, 110)
	s := NewThresholdStrategy(series, 95, 105)
	record := ledger.New(domain.SideBuy, nil, nil)

	if s.ShouldEnter(0, record) {
		t.Error("close 100 is above the entry threshold")
	}
	if !s.ShouldEnter(1, record) {
		t.Error("close 95 should trigger entry (inclusive)")
	}
	if !s.ShouldEnter(2, record) {
		t.Error("close 90 should trigger entry")
	}
	if s.ShouldExit(2, record) {
		t.Error("close 90 is below the exit threshold")
	}
	if !s.ShouldExit(3, record) {
		t.Error("close 105 should trigger exit (inclusive)")
	}
	if s.Name() != "THRESHOLD_95_105" {
		t.Errorf("unexpected name %q", s.Name())
	}
}

func TestHoldBarsStrategy_ForcedExit(t *testing.T) {
	inner := NewAtIndexesStrategy([]int{0}, nil) // inner never exits
	s := NewHoldBarsStrategy(inner, 3)

	record := ledger.New(domain.SideBuy, nil, nil)
	if !s.ShouldEnter(0, record) {
		t.Fatal("entry should delegate to the inner strategy")
	}
	record.Enter(0, 100, 1)

	if s.ShouldExit(2, record) {
		t.Error("position held 2 bars, limit is 3")
	}
	if !s.ShouldExit(3, record) {
		t.Error("position held 3 bars should force an exit")
	}
	if s.Name() != "AT_INDEXES_1x0_HOLD_3" {
		t.Errorf("unexpected name %q", s.Name())
	}
}

func TestShouldOperate_DispatchesOnPositionState(t *testing.T) {
	s := NewAtIndexesStrategy([]int{0}, []int{2})
	record := ledger.New(domain.SideBuy, nil, nil)

	if !ShouldOperate(s, 0, record) {
		t.Error("new position should consult ShouldEnter")
	}
	if ShouldOperate(s, 2, record) {
		t.Error("exit index must not fire while no position is open")
	}

	record.Enter(0, 100, 1)
	if ShouldOperate(s, 0, record) {
		t.Error("entry index must not fire while a position is open")
	}
	if !ShouldOperate(s, 2, record) {
		t.Error("open position should consult ShouldExit")
	}
}

func TestFromConfig(t *testing.T) {
	entry, exit := 95.0, 105.0
	hold := 4

	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  error
	}{
		{
			name:     "at indexes",
			cfg:      Config{Type: TypeAtIndexes, EntryIndexes: []int{1}, ExitIndexes: []int{2}},
			wantName: "AT_INDEXES_1x1",
		},
		{
			name:     "threshold",
			cfg:      Config{Type: TypeThreshold, EntryThreshold: &entry, ExitThreshold: &exit},
			wantName: "THRESHOLD_95_105",
		},
		{
			name: "hold bars",
			cfg: Config{
				Type:     TypeHoldBars,
				HoldBars: &hold,
				Inner:    &Config{Type: TypeAtIndexes, EntryIndexes: []int{0}},
			},
			wantName: "AT_INDEXES_1x0_HOLD_4",
		},
		{name: "unknown type", cfg: Config{Type: "MYSTERY"}, wantErr: ErrUnknownStrategyType},
		{name: "missing entry indexes", cfg: Config{Type: TypeAtIndexes}, wantErr: ErrMissingEntryIndexes},
		{name: "missing entry threshold", cfg: Config{Type: TypeThreshold, ExitThreshold: &exit}, wantErr: ErrMissingEntryThreshold},
		{name: "missing exit threshold", cfg: Config{Type: TypeThreshold, EntryThreshold: &entry}, wantErr: ErrMissingExitThreshold},
		{name: "missing hold bars", cfg: Config{Type: TypeHoldBars, Inner: &Config{Type: TypeAtIndexes, EntryIndexes: []int{0}}}, wantErr: ErrMissingHoldBars},
		{name: "missing inner", cfg: Config{Type: TypeHoldBars, HoldBars: &hold}, wantErr: ErrMissingInnerStrategy},
		{
			name:    "invalid inner",
			cfg:     Config{Type: TypeHoldBars, HoldBars: &hold, Inner: &Config{Type: "MYSTERY"}},
			wantErr: ErrUnknownStrategyType,
		},
	}

	series := makeSeries(t, 100)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := FromConfig(tt.cfg, series)
			if err != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != nil {
				return
			}
			if s.Name() != tt.wantName {
				t.Errorf("expected name %q, got %q", tt.wantName, s.Name())
			}
		})
	}
}
