// Package config loads and validates run configuration (YAML).
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"backtest-lab/internal/cost"
	"backtest-lab/internal/domain"
	"backtest-lab/internal/execution"
	"backtest-lab/internal/strategy"
)

// Execution model names accepted in config.
const (
	ModelClose     = "CLOSE"
	ModelNextOpen  = "NEXT_OPEN"
	ModelSlippage  = "SLIPPAGE"
	ModelStopLimit = "STOP_LIMIT"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Series     SeriesConfig      `yaml:"series"`
	Run        RunConfig         `yaml:"run"`
	Execution  ExecutionConfig   `yaml:"execution"`
	Costs      CostsConfig       `yaml:"costs"`
	Strategies []strategy.Config `yaml:"strategies"`
	Storage    StorageConfig     `yaml:"storage"`
}

// SeriesConfig names the bar series and where it comes from.
type SeriesConfig struct {
	Name    string `yaml:"name"`
	CSVFile string `yaml:"csv_file"`
}

// RunConfig shapes one executor invocation.
type RunConfig struct {
	StartingSide string  `yaml:"starting_side"`
	Amount       float64 `yaml:"amount"`

	// Optional run range; nil means the series bounds.
	StartIndex *int `yaml:"start_index,omitempty"`
	EndIndex   *int `yaml:"end_index,omitempty"`

	MaxParallel int  `yaml:"max_parallel"`
	Verbose     bool `yaml:"verbose"`
}

// ExecutionConfig selects and parameterizes the execution model.
type ExecutionConfig struct {
	Model string `yaml:"model"`

	// SLIPPAGE
	SlippageRatio *float64 `yaml:"slippage_ratio,omitempty"`
	Reference     string   `yaml:"reference,omitempty"`

	// STOP_LIMIT
	StopTriggerRatio    *float64 `yaml:"stop_trigger_ratio,omitempty"`
	LimitOffsetRatio    *float64 `yaml:"limit_offset_ratio,omitempty"`
	MaxBarParticipation *float64 `yaml:"max_bar_participation,omitempty"`
	MaxBarsToFill       *int     `yaml:"max_bars_to_fill,omitempty"`
}

// CostConfig parameterizes one cost model.
type CostConfig struct {
	Type  string  `yaml:"type"` // ZERO, FIXED, LINEAR
	Fee   float64 `yaml:"fee,omitempty"`
	Rate  float64 `yaml:"rate,omitempty"`
	Fixed float64 `yaml:"fixed,omitempty"`
}

// CostsConfig holds transaction and holding cost models.
type CostsConfig struct {
	Transaction CostConfig `yaml:"transaction"`
	Holding     CostConfig `yaml:"holding"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend       string `yaml:"backend"` // memory, postgres
	PostgresDSN   string `yaml:"postgres_dsn,omitempty"`
	ClickhouseDSN string `yaml:"clickhouse_dsn,omitempty"`
}

// Load reads, defaults and validates a config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Run.StartingSide == "" {
		c.Run.StartingSide = string(domain.SideBuy)
	}
	if c.Run.Amount == 0 {
		c.Run.Amount = 1
	}
	if c.Execution.Model == "" {
		c.Execution.Model = ModelClose
	}
	if c.Costs.Transaction.Type == "" {
		c.Costs.Transaction.Type = "ZERO"
	}
	if c.Costs.Holding.Type == "" {
		c.Costs.Holding.Type = "ZERO"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Series.Name == "" {
		return errors.New("series.name is required")
	}
	if !domain.Side(c.Run.StartingSide).Valid() {
		return fmt.Errorf("run.starting_side must be BUY or SELL, got %q", c.Run.StartingSide)
	}
	if c.Run.Amount <= 0 {
		return errors.New("run.amount must be positive")
	}
	if len(c.Strategies) == 0 {
		return errors.New("at least one strategy is required")
	}
	if _, err := c.TransactionCostModel(); err != nil {
		return fmt.Errorf("costs.transaction invalid: %w", err)
	}
	if _, err := c.HoldingCostModel(); err != nil {
		return fmt.Errorf("costs.holding invalid: %w", err)
	}
	// Build a model once to surface parameter errors at load time.
	if _, err := c.NewExecutionModel(); err != nil {
		return fmt.Errorf("execution config invalid: %w", err)
	}
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// TransactionCostModel builds the transaction cost model.
func (c *Config) TransactionCostModel() (cost.Model, error) {
	return buildCostModel(c.Costs.Transaction)
}

// HoldingCostModel builds the holding cost model.
func (c *Config) HoldingCostModel() (cost.Model, error) {
	return buildCostModel(c.Costs.Holding)
}

func buildCostModel(cfg CostConfig) (cost.Model, error) {
	switch cfg.Type {
	case "ZERO":
		return cost.ZeroCost{}, nil
	case "FIXED":
		if cfg.Fee < 0 {
			return nil, errors.New("fixed fee must be >= 0")
		}
		return cost.FixedCost{Fee: cfg.Fee}, nil
	case "LINEAR":
		if cfg.Rate < 0 || cfg.Fixed < 0 {
			return nil, errors.New("linear cost parameters must be >= 0")
		}
		return cost.LinearCost{Rate: cfg.Rate, Fixed: cfg.Fixed}, nil
	default:
		return nil, fmt.Errorf("unknown cost model type %q", cfg.Type)
	}
}

// NewExecutionModel builds a fresh execution model instance. Call it
// once per strategy run: the stop-limit model carries state.
func (c *Config) NewExecutionModel() (execution.Model, error) {
	switch c.Execution.Model {
	case ModelClose:
		return execution.CloseModel{}, nil
	case ModelNextOpen:
		return execution.NextOpenModel{}, nil
	case ModelSlippage:
		if c.Execution.SlippageRatio == nil {
			return nil, errors.New("SLIPPAGE requires slippage_ratio")
		}
		return execution.NewSlippageModel(*c.Execution.SlippageRatio, c.referencePrice())
	case ModelStopLimit:
		e := c.Execution
		if e.StopTriggerRatio == nil || e.LimitOffsetRatio == nil || e.MaxBarParticipation == nil || e.MaxBarsToFill == nil {
			return nil, errors.New("STOP_LIMIT requires stop_trigger_ratio, limit_offset_ratio, max_bar_participation and max_bars_to_fill")
		}
		return execution.NewStopLimitModel(
			*e.StopTriggerRatio, *e.LimitOffsetRatio,
			*e.MaxBarParticipation, *e.MaxBarsToFill,
			c.referencePrice(),
		)
	default:
		return nil, fmt.Errorf("unknown execution model %q", c.Execution.Model)
	}
}

func (c *Config) referencePrice() execution.ReferencePrice {
	if c.Execution.Reference == "" {
		return execution.RefCurrentClose
	}
	return execution.ReferencePrice(c.Execution.Reference)
}
