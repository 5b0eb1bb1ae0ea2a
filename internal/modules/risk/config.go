package risk

import (
	"fmt"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/pkg/formulas"
)

// Config tunes the VaR engine.
type Config struct {
	TradingDaysPerYear int

	// Monte Carlo
	Simulations int
	BatchSize   int
	Seed        uint64  // 0 seeds from the clock
	FatTailDoF  float64 // Student-t degrees of freedom; 0 or <= 2 samples a normal

	// BacktestWindow is the trailing window for rolling one-day estimates. It is raised
	// to the method's minimum observation count when smaller.
	BacktestWindow int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		TradingDaysPerYear: formulas.TradingDaysPerYear,
		Simulations:        10000,
		BatchSize:          1000,
		BacktestWindow:     60,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.TradingDaysPerYear <= 0 {
		return fmt.Errorf("%w: trading days per year must be positive", domain.ErrInvalidConfiguration)
	}
	if c.Simulations <= 0 {
		return fmt.Errorf("%w: simulations must be positive", domain.ErrInvalidConfiguration)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", domain.ErrInvalidConfiguration)
	}
	if c.FatTailDoF < 0 {
		return fmt.Errorf("%w: fat tail degrees of freedom must not be negative", domain.ErrInvalidConfiguration)
	}
	if c.BacktestWindow <= 0 {
		return fmt.Errorf("%w: backtest window must be positive", domain.ErrInvalidConfiguration)
	}
	return nil
}
