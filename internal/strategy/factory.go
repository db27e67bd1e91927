package strategy

import (
	"errors"

	"backtest-lab/internal/domain"
)

// Strategy types accepted by FromConfig.
const (
	TypeAtIndexes = "AT_INDEXES"
	TypeThreshold = "THRESHOLD"
	TypeHoldBars  = "HOLD_BARS"
)

// Factory errors
var (
	ErrUnknownStrategyType   = errors.New("unknown strategy type")
	ErrMissingEntryIndexes   = errors.New("AT_INDEXES requires entry indexes")
	ErrMissingEntryThreshold = errors.New("THRESHOLD requires entry threshold")
	ErrMissingExitThreshold  = errors.New("THRESHOLD requires exit threshold")
	ErrMissingHoldBars       = errors.New("HOLD_BARS requires hold bars >= 1")
	ErrMissingInnerStrategy  = errors.New("HOLD_BARS requires an inner strategy")
)

// Config declares a strategy by type plus parameters. Pointer fields
// distinguish "absent" from zero.
type Config struct {
	Type string `yaml:"type"`

	// AT_INDEXES
	EntryIndexes []int `yaml:"entry_indexes,omitempty"`
	ExitIndexes  []int `yaml:"exit_indexes,omitempty"`

	// THRESHOLD
	EntryThreshold *float64 `yaml:"entry_threshold,omitempty"`
	ExitThreshold  *float64 `yaml:"exit_threshold,omitempty"`

	// HOLD_BARS
	HoldBars *int    `yaml:"hold_bars,omitempty"`
	Inner    *Config `yaml:"inner,omitempty"`
}

// FromConfig creates a Strategy from a Config. Validates required
// parameters per strategy type and returns clear errors for missing
// params. Series-bound strategies are constructed against series.
func FromConfig(cfg Config, series domain.BarSeries) (Strategy, error) {
	switch cfg.Type {
	case TypeAtIndexes:
		return fromAtIndexesConfig(cfg)
	case TypeThreshold:
		return fromThresholdConfig(cfg, series)
	case TypeHoldBars:
		return fromHoldBarsConfig(cfg, series)
	default:
		return nil, ErrUnknownStrategyType
	}
}

func fromAtIndexesConfig(cfg Config) (*AtIndexesStrategy, error) {
	if len(cfg.EntryIndexes) == 0 {
		return nil, ErrMissingEntryIndexes
	}
	return NewAtIndexesStrategy(cfg.EntryIndexes, cfg.ExitIndexes), nil
}

func fromThresholdConfig(cfg Config, series domain.BarSeries) (*ThresholdStrategy, error) {
	if cfg.EntryThreshold == nil {
		return nil, ErrMissingEntryThreshold
	}
	if cfg.ExitThreshold == nil {
		return nil, ErrMissingExitThreshold
	}
	return NewThresholdStrategy(series, *cfg.EntryThreshold, *cfg.ExitThreshold), nil
}

func fromHoldBarsConfig(cfg Config, series domain.BarSeries) (*HoldBarsStrategy, error) {
	if cfg.HoldBars == nil || *cfg.HoldBars < 1 {
		return nil, ErrMissingHoldBars
	}
	if cfg.Inner == nil {
		return nil, ErrMissingInnerStrategy
	}
	inner, err := FromConfig(*cfg.Inner, series)
	if err != nil {
		return nil, err
	}
	return NewHoldBarsStrategy(inner, *cfg.HoldBars), nil
}
