package compliance

import (
	"fmt"
	"math"

	"github.com/aristath/sentinel-risk/internal/domain"
)

// Warning bands. A limit warns above 80% usage; a floor warns below 120% of its threshold.
const (
	LimitWarningUsage = 0.8
	FloorWarningRatio = 1.2
)

// ValidateRule checks a single rule.
func ValidateRule(r domain.ComplianceRule) error {
	if r.ID == "" {
		return fmt.Errorf("%w: rule %q has no id", domain.ErrInvalidConfiguration, r.Name)
	}
	switch r.Category {
	case domain.CategoryPositionLimit, domain.CategoryRiskLimit, domain.CategorySectorLimit, domain.CategoryRegulatory:
	default:
		return fmt.Errorf("%w: rule %s has unknown category %q", domain.ErrInvalidConfiguration, r.ID, r.Category)
	}
	switch r.Unit {
	case domain.UnitPercent, domain.UnitAmount, domain.UnitRatio:
	default:
		return fmt.Errorf("%w: rule %s has unknown unit %q", domain.ErrInvalidConfiguration, r.ID, r.Unit)
	}
	switch r.Direction {
	case domain.AboveIsBad, domain.BelowIsBad:
	default:
		return fmt.Errorf("%w: rule %s must declare its direction", domain.ErrInvalidConfiguration, r.ID)
	}
	if math.IsNaN(r.Threshold) || math.IsInf(r.Threshold, 0) || r.Threshold <= 0 {
		return fmt.Errorf("%w: rule %s threshold must be positive, got %v", domain.ErrInvalidConfiguration, r.ID, r.Threshold)
	}
	if math.IsNaN(r.CurrentValue) || math.IsInf(r.CurrentValue, 0) {
		return fmt.Errorf("%w: rule %s has non-finite current value", domain.ErrInvalidInput, r.ID)
	}
	return nil
}

// ValidateRules checks every rule and rejects duplicate ids.
func ValidateRules(rules []domain.ComplianceRule) error {
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if err := ValidateRule(r); err != nil {
			return err
		}
		if seen[r.ID] {
			return fmt.Errorf("%w: duplicate rule id %q", domain.ErrInvalidConfiguration, r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

// DefaultRules returns the standard rule set. Current values are bound from a Snapshot.
func DefaultRules() []domain.ComplianceRule {
	return []domain.ComplianceRule{
		{
			ID:        "max_single_position",
			Name:      "Single position limit",
			Category:  domain.CategoryPositionLimit,
			Threshold: 10,
			Unit:      domain.UnitPercent,
			Direction: domain.AboveIsBad,
			Metric:    MetricMaxPositionWeight,
		},
		{
			ID:        "max_sector_exposure",
			Name:      "Sector concentration limit",
			Category:  domain.CategorySectorLimit,
			Threshold: 30,
			Unit:      domain.UnitPercent,
			Direction: domain.AboveIsBad,
			Metric:    MetricMaxSectorWeight,
		},
		{
			ID:        "max_var",
			Name:      "Value-at-Risk limit",
			Category:  domain.CategoryRiskLimit,
			Threshold: 5,
			Unit:      domain.UnitPercent,
			Direction: domain.AboveIsBad,
			Metric:    MetricVaR,
		},
		{
			ID:        "max_drawdown",
			Name:      "Maximum drawdown limit",
			Category:  domain.CategoryRiskLimit,
			Threshold: 20,
			Unit:      domain.UnitPercent,
			Direction: domain.AboveIsBad,
			Metric:    MetricMaxDrawdown,
		},
		{
			ID:        "min_cash_buffer",
			Name:      "Minimum cash buffer",
			Category:  domain.CategoryRegulatory,
			Threshold: 2,
			Unit:      domain.UnitPercent,
			Direction: domain.BelowIsBad,
			Metric:    MetricCashWeight,
		},
		{
			ID:        "min_diversification",
			Name:      "Minimum number of positions",
			Category:  domain.CategoryRegulatory,
			Threshold: 5,
			Unit:      domain.UnitAmount,
			Direction: domain.BelowIsBad,
			Metric:    MetricPositionCount,
		},
	}
}
