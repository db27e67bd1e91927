package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"backtest-lab/internal/cost"
	"backtest-lab/internal/execution"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
series:
  name: BTCUSDT
  csv_file: bars.csv
strategies:
  - type: AT_INDEXES
    entry_indexes: [0]
    exit_indexes: [1]
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Run.StartingSide != "BUY" {
		t.Errorf("expected default starting side BUY, got %q", cfg.Run.StartingSide)
	}
	if cfg.Run.Amount != 1 {
		t.Errorf("expected default amount 1, got %v", cfg.Run.Amount)
	}
	if cfg.Execution.Model != ModelClose {
		t.Errorf("expected default model CLOSE, got %q", cfg.Execution.Model)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("expected default backend memory, got %q", cfg.Storage.Backend)
	}

	model, err := cfg.NewExecutionModel()
	if err != nil {
		t.Fatalf("NewExecutionModel failed: %v", err)
	}
	if _, ok := model.(execution.CloseModel); !ok {
		t.Errorf("expected CloseModel, got %T", model)
	}

	tc, err := cfg.TransactionCostModel()
	if err != nil {
		t.Fatalf("TransactionCostModel failed: %v", err)
	}
	if _, ok := tc.(cost.ZeroCost); !ok {
		t.Errorf("expected ZeroCost, got %T", tc)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
series:
  name: ETHUSDT
  csv_file: eth.csv
run:
  starting_side: SELL
  amount: 2.5
  start_index: 10
  end_index: 90
  max_parallel: 4
execution:
  model: STOP_LIMIT
  reference: NEXT_OPEN
  stop_trigger_ratio: 0.02
  limit_offset_ratio: 0.03
  max_bar_participation: 0.5
  max_bars_to_fill: 5
costs:
  transaction:
    type: FIXED
    fee: 1
  holding:
    type: LINEAR
    rate: 0.001
strategies:
  - type: THRESHOLD
    entry_threshold: 95
    exit_threshold: 105
storage:
  backend: postgres
  postgres_dsn: postgres://localhost/backtest
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Run.StartIndex == nil || *cfg.Run.StartIndex != 10 {
		t.Errorf("unexpected start index: %v", cfg.Run.StartIndex)
	}
	if cfg.Run.EndIndex == nil || *cfg.Run.EndIndex != 90 {
		t.Errorf("unexpected end index: %v", cfg.Run.EndIndex)
	}

	model, err := cfg.NewExecutionModel()
	if err != nil {
		t.Fatalf("NewExecutionModel failed: %v", err)
	}
	if _, ok := model.(*execution.StopLimitModel); !ok {
		t.Errorf("expected StopLimitModel, got %T", model)
	}

	// Fresh instance on every call: stop-limit models carry state.
	other, err := cfg.NewExecutionModel()
	if err != nil {
		t.Fatalf("second NewExecutionModel failed: %v", err)
	}
	if model == other {
		t.Error("NewExecutionModel must not return a shared instance")
	}

	tc, err := cfg.TransactionCostModel()
	if err != nil {
		t.Fatalf("TransactionCostModel failed: %v", err)
	}
	if fixed, ok := tc.(cost.FixedCost); !ok || fixed.Fee != 1 {
		t.Errorf("expected FixedCost{Fee: 1}, got %#v", tc)
	}
	hc, err := cfg.HoldingCostModel()
	if err != nil {
		t.Fatalf("HoldingCostModel failed: %v", err)
	}
	if linear, ok := hc.(cost.LinearCost); !ok || linear.Rate != 0.001 {
		t.Errorf("expected LinearCost{Rate: 0.001}, got %#v", hc)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "missing series name",
			content: "strategies:\n  - type: AT_INDEXES\n    entry_indexes: [0]\n",
			wantMsg: "series.name",
		},
		{
			name:    "bad starting side",
			content: minimalConfig + "run:\n  starting_side: SIDEWAYS\n",
			wantMsg: "starting_side",
		},
		{
			name:    "negative amount",
			content: minimalConfig + "run:\n  amount: -1\n",
			wantMsg: "amount",
		},
		{
			name:    "no strategies",
			content: "series:\n  name: X\n",
			wantMsg: "strategy",
		},
		{
			name:    "unknown execution model",
			content: minimalConfig + "execution:\n  model: TELEPORT\n",
			wantMsg: "execution config invalid",
		},
		{
			name:    "slippage without ratio",
			content: minimalConfig + "execution:\n  model: SLIPPAGE\n",
			wantMsg: "slippage_ratio",
		},
		{
			name:    "stop limit missing params",
			content: minimalConfig + "execution:\n  model: STOP_LIMIT\n  stop_trigger_ratio: 0.02\n",
			wantMsg: "STOP_LIMIT requires",
		},
		{
			name:    "unknown cost type",
			content: minimalConfig + "costs:\n  transaction:\n    type: QUADRATIC\n",
			wantMsg: "costs.transaction",
		},
		{
			name:    "postgres without dsn",
			content: minimalConfig + "storage:\n  backend: postgres\n",
			wantMsg: "postgres_dsn",
		},
		{
			name:    "unknown backend",
			content: minimalConfig + "storage:\n  backend: floppy\n",
			wantMsg: "storage backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "series: [unclosed"))
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("expected a parse error, got %v", err)
	}
}
