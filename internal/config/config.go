// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/modules/compliance"
	"github.com/aristath/sentinel-risk/internal/modules/risk"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
)

// Config holds application configuration
type Config struct {
	LogLevel  string
	LogPretty bool
	Port      int
	DevMode   bool

	TradingDaysPerYear int
	RiskFreeRate       float64 // annual, percent points

	MonteCarloSimulations int
	MonteCarloSeed        uint64 // 0 seeds from the clock
	MonteCarloBatchSize   int
	MonteCarloFatTailDoF  float64
	BacktestWindow        int

	StressConfidence         float64
	StressDefaultVolatility  float64
	StressReconcileTolerance float64

	CatalogFile             string // optional YAML with scenarios and rules
	SnapshotFile            string // optional YAML portfolio snapshot
	ComplianceSweepSchedule string // cron expression, empty disables the sweep
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),
		Port:      getEnvAsInt("GO_PORT", 8001),
		DevMode:   getEnvAsBool("DEV_MODE", false),

		TradingDaysPerYear: getEnvAsInt("TRADING_DAYS_PER_YEAR", 252),
		RiskFreeRate:       getEnvAsFloat("RISK_FREE_RATE", 0),

		MonteCarloSimulations: getEnvAsInt("MONTE_CARLO_SIMULATIONS", 10000),
		MonteCarloSeed:        getEnvAsUint("MONTE_CARLO_SEED", 0),
		MonteCarloBatchSize:   getEnvAsInt("MONTE_CARLO_BATCH_SIZE", 1000),
		MonteCarloFatTailDoF:  getEnvAsFloat("MONTE_CARLO_FAT_TAIL_DOF", 0),
		BacktestWindow:        getEnvAsInt("BACKTEST_WINDOW", 60),

		StressConfidence:         getEnvAsFloat("STRESS_CONFIDENCE", 95),
		StressDefaultVolatility:  getEnvAsFloat("STRESS_DEFAULT_VOLATILITY", 15),
		StressReconcileTolerance: getEnvAsFloat("STRESS_RECONCILE_TOLERANCE", 0.01),

		CatalogFile:             getEnv("CATALOG_FILE", ""),
		SnapshotFile:            getEnv("SNAPSHOT_FILE", ""),
		ComplianceSweepSchedule: getEnv("COMPLIANCE_SWEEP_SCHEDULE", ""),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration values the engines depend on
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", domain.ErrInvalidConfiguration, c.Port)
	}
	if err := c.VaR().Validate(); err != nil {
		return err
	}
	if err := c.Stress().Validate(); err != nil {
		return err
	}
	return nil
}

// VaR returns the VaR engine configuration.
func (c *Config) VaR() risk.Config {
	return risk.Config{
		TradingDaysPerYear: c.TradingDaysPerYear,
		Simulations:        c.MonteCarloSimulations,
		BatchSize:          c.MonteCarloBatchSize,
		Seed:               c.MonteCarloSeed,
		FatTailDoF:         c.MonteCarloFatTailDoF,
		BacktestWindow:     c.BacktestWindow,
	}
}

// Stress returns the stress engine configuration.
func (c *Config) Stress() stress.Config {
	cfg := stress.DefaultConfig()
	cfg.Confidence = c.StressConfidence
	cfg.DefaultVolatilityPct = c.StressDefaultVolatility
	cfg.ReconcileTolerance = c.StressReconcileTolerance
	cfg.TradingDaysPerYear = c.TradingDaysPerYear
	return cfg
}

// Compliance returns the compliance engine configuration.
func (c *Config) Compliance() compliance.Config {
	return compliance.Config{TradingDaysPerYear: c.TradingDaysPerYear}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintVal, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
